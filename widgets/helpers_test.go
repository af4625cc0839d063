package widgets_test

import (
	"git.sr.ht/~rockorager/vaxis"
	"git.sr.ht/~rockorager/vaxis/vxfw"
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

func cellText(s vaxis.Cell) string {
	return s.Character.Grapheme
}

// rowText returns the graphemes of one surface row, blanks as spaces.
func rowText(buf []vaxis.Cell, width, row int) string {
	out := make([]rune, 0, width)
	for _, c := range buf[row*width : (row+1)*width] {
		if c.Character.Grapheme == "" {
			out = append(out, ' ')
			continue
		}
		out = append(out, []rune(c.Character.Grapheme)...)
	}
	return string(out)
}
