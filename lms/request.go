package lms

import (
	"fmt"
	"mime"
	"net/http"
	"net/url"
)

// Encoding selects how a request payload is sent.
type Encoding int

const (
	// EncodeForm sends the payload as application/x-www-form-urlencoded.
	EncodeForm Encoding = iota
	// EncodeJSON sends the payload as a JSON object.
	EncodeJSON
	// EncodeQuery appends the payload to the URL query string.
	EncodeQuery
)

func (e Encoding) String() string {
	switch e {
	case EncodeForm:
		return "form"
	case EncodeJSON:
		return "json"
	case EncodeQuery:
		return "query"
	}
	return fmt.Sprintf("Encoding(%d)", int(e))
}

// Request is one outbound call to the LMS.
type Request struct {
	Method   string
	URL      string
	Encoding Encoding
	Params   map[string]string
}

// Response is the raw result of a request that reached the server.
// Non-2xx responses are still Responses; only network failures are errors.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// OK reports whether the status code is 2xx.
func (r *Response) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// Filename returns the attachment filename from Content-Disposition, if any.
func (r *Response) Filename() string {
	cd := r.Header.Get("Content-Disposition")
	if cd == "" {
		return ""
	}
	_, params, err := mime.ParseMediaType(cd)
	if err != nil {
		return ""
	}
	return params["filename"]
}

// StatusError describes a non-2xx response.
type StatusError struct {
	StatusCode int
	URL        string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: unexpected status %d", e.URL, e.StatusCode)
}

func (r *Request) values() url.Values {
	v := make(url.Values, len(r.Params))
	for k, val := range r.Params {
		v.Set(k, val)
	}
	return v
}
