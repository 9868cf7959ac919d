package webkit

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"
)

// Response is an immutable value representing an outgoing HTTP response.
// It is a closed two-case variant: either a buffered byte payload, or a
// streamed io.Reader, never both. Handlers and middleware build a Response
// with the New* constructors and refine it with CopyWith; nothing mutates
// a Response in place.
type Response struct {
	status  int
	headers map[string]string
	cookies []SetCookie

	buffered []byte
	hasBuf   bool

	stream io.Reader
}

// SetCookie describes an outgoing Set-Cookie header.
type SetCookie struct {
	Name     string
	Value    string
	Path     string
	MaxAge   int
	HTTPOnly bool
	Secure   bool
	SameSite http.SameSite
}

// NewResponse builds a buffered response with the given status and body.
func NewResponse(status int, body []byte) Response {
	return Response{
		status:   status,
		headers:  map[string]string{},
		buffered: body,
		hasBuf:   true,
	}
}

// NewStreamResponse builds a response whose body is read from r as it is
// written to the wire, instead of being buffered in memory up front.
func NewStreamResponse(status int, r io.Reader) Response {
	return Response{
		status:  status,
		headers: map[string]string{},
		stream:  r,
	}
}

// JSONResponse marshals v and sets the content-type header accordingly.
func JSONResponse(status int, v any) (Response, error) {
	buf, err := json.Marshal(v)
	if err != nil {
		return Response{}, err
	}
	r := NewResponse(status, buf)
	r.headers["content-type"] = "application/json; charset=utf-8"
	return r, nil
}

// TextResponse builds a plain-text buffered response.
func TextResponse(status int, body string) Response {
	r := NewResponse(status, []byte(body))
	r.headers["content-type"] = "text/plain; charset=utf-8"
	return r
}

// HTMLResponse builds an HTML buffered response.
func HTMLResponse(status int, body string) Response {
	r := NewResponse(status, []byte(body))
	r.headers["content-type"] = "text/html; charset=utf-8"
	return r
}

// BytesResponse builds a buffered response carrying arbitrary bytes,
// defaulting to application/octet-stream; callers needing a different
// content-type should follow with WithHeader.
func BytesResponse(status int, body []byte) Response {
	r := NewResponse(status, body)
	r.headers["content-type"] = "application/octet-stream"
	return r
}

// RedirectResponse builds a redirect response carrying the target in the
// location header.
func RedirectResponse(status int, location string) Response {
	r := NewResponse(status, nil)
	r.headers["location"] = location
	return r
}

// NoContentResponse builds a 204 response with an empty body.
func NoContentResponse() Response {
	return NewResponse(http.StatusNoContent, nil)
}

// NotFound builds a 404 JSON error response of the shape {"error": message}.
func NotFound(message string) Response {
	return jsonStatusError(http.StatusNotFound, message)
}

// BadRequest builds a 400 JSON error response of the shape {"error": message}.
func BadRequest(message string) Response {
	return jsonStatusError(http.StatusBadRequest, message)
}

// Unauthorized builds a 401 JSON error response of the shape {"error": message}.
func Unauthorized(message string) Response {
	return jsonStatusError(http.StatusUnauthorized, message)
}

// Forbidden builds a 403 JSON error response of the shape {"error": message}.
func Forbidden(message string) Response {
	return jsonStatusError(http.StatusForbidden, message)
}

// InternalServerError builds a 500 JSON error response of the shape
// {"error": message}.
func InternalServerError(message string) Response {
	return jsonStatusError(http.StatusInternalServerError, message)
}

func jsonStatusError(status int, message string) Response {
	buf, err := json.Marshal(map[string]string{"error": message})
	if err != nil {
		buf = []byte(`{"error":"` + message + `"}`)
	}
	r := NewResponse(status, buf)
	r.headers["content-type"] = "application/json; charset=utf-8"
	return r
}

func (r Response) Status() int { return r.status }

// IsStream reports whether this Response's body is a stream rather than a
// buffered payload.
func (r Response) IsStream() bool { return !r.hasBuf && r.stream != nil }

// Body returns the buffered body. It is empty for a streamed Response.
func (r Response) Body() []byte { return r.buffered }

// Stream returns the underlying reader for a streamed Response, or nil.
func (r Response) Stream() io.Reader { return r.stream }

// Header returns a header value by name (case-insensitive, stored
// lower-case).
func (r Response) Header(name string) (string, bool) {
	v, ok := r.headers[lowerASCII(name)]
	return v, ok
}

// Headers returns a copy of the lower-cased header map.
func (r Response) Headers() map[string]string {
	return cloneStringMap(r.headers)
}

// Cookies returns the response's outgoing cookies.
func (r Response) Cookies() []SetCookie {
	out := make([]SetCookie, len(r.cookies))
	copy(out, r.cookies)
	return out
}

// ResponseEdit describes a change to apply in CopyWith. Unset fields are
// left untouched; Headers are merged into the existing set and Cookies are
// appended to it. CopyWith never removes an existing header or cookie.
type ResponseEdit struct {
	Status  int
	Headers map[string]string
	Cookies []SetCookie
	Body    []byte
	Stream  io.Reader

	HasStatus bool
	HasBody   bool
	HasStream bool
}

// CopyWith returns a new Response with edit applied on top of r. Setting
// Body switches the result to buffered and clears any stream; setting
// Stream switches it to streamed and clears any buffered body.
func (r Response) CopyWith(edit ResponseEdit) Response {
	out := r
	out.headers = cloneStringMap(r.headers)
	out.cookies = append([]SetCookie(nil), r.cookies...)

	if edit.HasStatus {
		out.status = edit.Status
	}
	for k, v := range edit.Headers {
		out.headers[lowerASCII(k)] = v
	}
	if edit.Cookies != nil {
		out.cookies = append(out.cookies, edit.Cookies...)
	}
	if edit.HasBody {
		out.buffered = edit.Body
		out.hasBuf = true
		out.stream = nil
	}
	if edit.HasStream {
		out.stream = edit.Stream
		out.hasBuf = false
		out.buffered = nil
	}
	return out
}

// WithHeader returns a copy of r with one header set.
func (r Response) WithHeader(name, value string) Response {
	return r.CopyWith(ResponseEdit{Headers: map[string]string{name: value}})
}

// WithHeaders returns a copy of r with every header in headers merged in,
// overriding any existing header of the same name.
func (r Response) WithHeaders(headers map[string]string) Response {
	return r.CopyWith(ResponseEdit{Headers: headers})
}

// WithCookie returns a copy of r with one cookie appended.
func (r Response) WithCookie(c SetCookie) Response {
	return r.CopyWith(ResponseEdit{Cookies: []SetCookie{c}})
}

// WithStatus returns a copy of r with the status code replaced.
func (r Response) WithStatus(status int) Response {
	return r.CopyWith(ResponseEdit{Status: status, HasStatus: true})
}

// WriteTo writes the status line, headers, cookies and body to w. Header
// keys are written verbatim (lower-case, as stored) by writing directly
// into w's header map rather than calling Header().Set, which would
// re-canonicalize the key.
func (r Response) WriteTo(w http.ResponseWriter) error {
	hdr := w.Header()
	for k, v := range r.headers {
		hdr[k] = []string{v}
	}
	for _, c := range r.cookies {
		http.SetCookie(w, &http.Cookie{
			Name:     c.Name,
			Value:    c.Value,
			Path:     c.Path,
			MaxAge:   c.MaxAge,
			HttpOnly: c.HTTPOnly,
			Secure:   c.Secure,
			SameSite: c.SameSite,
		})
	}
	if r.IsStream() {
		w.WriteHeader(r.status)
		_, err := io.Copy(w, r.stream)
		return err
	}
	if _, ok := r.headers["content-length"]; !ok && r.buffered != nil {
		hdr["content-length"] = []string{strconv.Itoa(len(r.buffered))}
	}
	w.WriteHeader(r.status)
	if len(r.buffered) > 0 {
		_, err := w.Write(r.buffered)
		return err
	}
	return nil
}

func lowerASCII(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'A' && c <= 'Z' {
			b[i] = c + ('a' - 'A')
		}
	}
	return string(b)
}
