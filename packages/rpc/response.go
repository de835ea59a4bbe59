package rpc

import (
	"net/http"
	"strings"

	"github.com/tidwall/gjson"
)

// Response is a successful dispatch result. A nil Body means no body was
// delivered, which is distinct from an empty one.
type Response struct {
	Body       []byte
	Headers    map[string]string
	StatusCode int
}

func newResponse(body []byte, header http.Header, code int) *Response {
	return &Response{
		Body:       body,
		Headers:    normalizeHeaders(header),
		StatusCode: code,
	}
}

// normalizeHeaders flattens h into canonical keys; repeated values are
// joined with ", ".
func normalizeHeaders(h http.Header) map[string]string {
	headers := make(map[string]string, len(h))
	for k, v := range h {
		headers[http.CanonicalHeaderKey(k)] = strings.Join(v, ", ")
	}
	return headers
}

func (r *Response) HasBody() bool {
	return r.Body != nil
}

func (r *Response) BodyString() string {
	return string(r.Body)
}

// Get extracts a value from a JSON body using a gjson path.
func (r *Response) Get(path string) gjson.Result {
	return gjson.GetBytes(r.Body, path)
}

func (r *Response) Header(key string) string {
	if v, ok := r.Headers[http.CanonicalHeaderKey(key)]; ok {
		return v
	}
	for k, v := range r.Headers {
		if strings.EqualFold(k, key) {
			return v
		}
	}
	return ""
}

func (r *Response) ContentType() string {
	return r.Header("Content-Type")
}

func (r *Response) IsJSON() bool {
	ct := r.ContentType()
	return strings.Contains(ct, "application/json")
}

func (r *Response) IsSuccess() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}
