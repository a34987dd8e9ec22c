package httpclient

import "fmt"

// UpstreamError carries a non-2xx response from a provider runtime or the
// registry admin API. The body is kept because both tend to put the actual
// reason there rather than in the status line.
type UpstreamError struct {
	StatusCode int
	Body       []byte
	URL        string
}

func (e *UpstreamError) Error() string {
	if len(e.Body) == 0 {
		return fmt.Sprintf("upstream error: status %d from %s", e.StatusCode, e.URL)
	}
	body := e.Body
	if len(body) > 200 {
		body = body[:200]
	}
	return fmt.Sprintf("upstream error: status %d from %s: %s", e.StatusCode, e.URL, body)
}
