package lms

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
)

// MockClient is a test double for API. DoFunc answers every request;
// all requests are recorded in order.
type MockClient struct {
	DoFunc func(ctx context.Context, req *Request) (*Response, error)

	mu    sync.Mutex
	calls []Request
}

// Do records req and delegates to DoFunc. A nil DoFunc answers 200 with an
// empty body.
func (m *MockClient) Do(ctx context.Context, req *Request) (*Response, error) {
	m.mu.Lock()
	m.calls = append(m.calls, *req)
	m.mu.Unlock()

	if m.DoFunc == nil {
		return &Response{StatusCode: http.StatusOK, Header: http.Header{}}, nil
	}
	return m.DoFunc(ctx, req)
}

// Calls returns a copy of the recorded requests.
func (m *MockClient) Calls() []Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Request, len(m.calls))
	copy(out, m.calls)
	return out
}

// CallsTo returns how many recorded requests targeted url.
func (m *MockClient) CallsTo(url string) int {
	n := 0
	for _, c := range m.Calls() {
		if c.URL == url {
			n++
		}
	}
	return n
}

// JSONResponse builds a Response carrying body as JSON with the given status.
// Strings are used verbatim so tests can hand in raw documents.
func JSONResponse(status int, body any) *Response {
	var data []byte
	switch b := body.(type) {
	case nil:
	case string:
		data = []byte(b)
	case []byte:
		data = b
	default:
		var err error
		data, err = json.Marshal(b)
		if err != nil {
			panic(err)
		}
	}
	h := http.Header{}
	h.Set("Content-Type", "application/json")
	return &Response{StatusCode: status, Header: h, Body: data}
}
