package views_test

import (
	"context"
	"strings"

	"git.sr.ht/~rockorager/vaxis"
	"git.sr.ht/~rockorager/vaxis/vxfw"

	"github.com/deevus/instructor-tui/config"
	"github.com/deevus/instructor-tui/lms"
)

func testDrawContext(w, h uint16) vxfw.DrawContext {
	return vxfw.DrawContext{
		Max: vxfw.Size{Width: w, Height: h},
		Min: vxfw.Size{},
		Characters: func(s string) []vaxis.Character {
			chars := make([]vaxis.Character, 0, len(s))
			for _, r := range s {
				chars = append(chars, vaxis.Character{Grapheme: string(r), Width: 1})
			}
			return chars
		},
	}
}

func testEndpoints() *config.Endpoints {
	return config.ServerConfig{BaseURL: "https://lms.test", CourseID: "c1"}.EndpointResolver()
}

// routedClient answers each request from bodies keyed by URL suffix; other
// URLs get an empty 200.
func routedClient(bodies map[string]string) *lms.MockClient {
	return &lms.MockClient{DoFunc: func(_ context.Context, r *lms.Request) (*lms.Response, error) {
		for suffix, body := range bodies {
			if strings.HasSuffix(r.URL, suffix) {
				return lms.JSONResponse(200, body), nil
			}
		}
		return lms.JSONResponse(200, ""), nil
	}}
}

func key(r rune) vaxis.Key {
	return vaxis.Key{Keycode: r}
}

func typed(r rune) vaxis.Key {
	return vaxis.Key{Keycode: r, Text: string(r)}
}
