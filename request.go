package webkit

import (
	"bytes"
	"encoding/json"
	"io"
	"net/url"
	"strings"
	"sync"
)

// Cookie is a single request cookie, kept in the order it arrived on the
// wire.
type Cookie struct {
	Name  string
	Value string
}

// bodyState is the single mutable resource backing a Request's body. It is
// shared by every copy produced from that Request via With*, because the
// body is one artifact read at most once from the wire regardless of how
// many logical Request values the middleware chain produces along the way.
type bodyState struct {
	mu       sync.Mutex
	reader   io.Reader
	maxBytes int64

	read  bool
	bytes []byte
	err   error

	jsonDecoded bool
	jsonValue   any
	jsonErr     error
}

func (b *bodyState) load() ([]byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.read {
		return b.bytes, b.err
	}
	b.read = true
	if b.reader == nil {
		return nil, nil
	}
	if b.maxBytes > 0 {
		limited := io.LimitReader(b.reader, b.maxBytes+1)
		buf, err := io.ReadAll(limited)
		if err != nil {
			b.err = err
			return nil, err
		}
		if int64(len(buf)) > b.maxBytes {
			b.err = ErrPayloadTooLarge
			return nil, ErrPayloadTooLarge
		}
		b.bytes = buf
		return buf, nil
	}
	buf, err := io.ReadAll(b.reader)
	if err != nil {
		b.err = err
		return nil, err
	}
	b.bytes = buf
	return buf, nil
}

func (b *bodyState) decodeJSON(v any) error {
	buf, err := b.load()
	if err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.jsonDecoded {
		var parsed any
		if len(buf) == 0 {
			b.jsonErr = nil
		} else if err := json.Unmarshal(buf, &parsed); err != nil {
			b.jsonErr = ErrMalformedBody
		} else {
			b.jsonValue = parsed
		}
		b.jsonDecoded = true
	}
	if b.jsonErr != nil {
		return b.jsonErr
	}
	raw, _ := json.Marshal(b.jsonValue)
	return json.Unmarshal(raw, v)
}

// Request is an immutable value carried through the middleware pipeline.
// Every mutation (path rewrite for a mount, a context key written by
// middleware, a parsed path parameter) produces a new Request via one of
// the With* methods; nothing ever mutates a Request in place, so the same
// value can be safely observed by concurrently in-flight goroutines that
// happen to reference an earlier copy of it.
type Request struct {
	method  string
	uri     *url.URL
	path    string
	params  map[string]string
	query   map[string]string
	headers map[string]string
	cookies []Cookie
	context map[string]any

	body *bodyState
}

// NewRequest builds a Request from the wire representation of an incoming
// HTTP exchange. method is upper-cased; header keys are lower-cased and
// multi-valued headers are joined with ", ".
func NewRequest(method string, uri *url.URL, headers map[string][]string, cookies []Cookie, body io.Reader, maxBodyBytes int64) Request {
	path := normalizePath(uri.Path)
	q := map[string]string{}
	for k, vs := range uri.Query() {
		if len(vs) > 0 {
			q[k] = vs[0]
		}
	}
	h := map[string]string{}
	for k, vs := range headers {
		h[strings.ToLower(k)] = strings.Join(vs, ", ")
	}
	return Request{
		method:  strings.ToUpper(method),
		uri:     uri,
		path:    path,
		params:  map[string]string{},
		query:   q,
		headers: h,
		cookies: cookies,
		context: map[string]any{},
		body:    &bodyState{reader: body, maxBytes: maxBodyBytes},
	}
}

// NewTestRequest fabricates a Request without a socket, for unit tests and
// middleware development. Body, if non-empty, is buffered immediately.
func NewTestRequest(method, path string, headers map[string]string, body []byte) Request {
	u, _ := url.Parse(path)
	if u == nil {
		u = &url.URL{Path: path}
	}
	h := map[string]string{}
	for k, v := range headers {
		h[strings.ToLower(k)] = v
	}
	q := map[string]string{}
	for k, vs := range u.Query() {
		if len(vs) > 0 {
			q[k] = vs[0]
		}
	}
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	return Request{
		method:  strings.ToUpper(method),
		uri:     u,
		path:    normalizePath(u.Path),
		params:  map[string]string{},
		query:   q,
		headers: h,
		cookies: nil,
		context: map[string]any{},
		body:    &bodyState{reader: reader},
	}
}

func (r Request) Method() string { return r.method }

func (r Request) URI() *url.URL { return r.uri }

func (r Request) Path() string { return r.path }

// Param returns a path parameter by name, and whether it was present.
func (r Request) Param(name string) (string, bool) {
	v, ok := r.params[name]
	return v, ok
}

// Params returns a copy of the path-parameter map.
func (r Request) Params() map[string]string {
	return cloneStringMap(r.params)
}

// Query returns a query-string value by name, and whether it was present.
func (r Request) Query(name string) (string, bool) {
	v, ok := r.query[name]
	return v, ok
}

// Header returns a header value by name (case-insensitive).
func (r Request) Header(name string) (string, bool) {
	v, ok := r.headers[strings.ToLower(name)]
	return v, ok
}

// Headers returns a copy of the lower-cased header map.
func (r Request) Headers() map[string]string {
	return cloneStringMap(r.headers)
}

// Cookies returns the request's cookies in wire order.
func (r Request) Cookies() []Cookie {
	out := make([]Cookie, len(r.cookies))
	copy(out, r.cookies)
	return out
}

// Cookie returns the first cookie with the given name.
func (r Request) Cookie(name string) (string, bool) {
	for _, c := range r.cookies {
		if c.Name == name {
			return c.Value, true
		}
	}
	return "", false
}

// Context returns an opaque value stashed under key by earlier middleware.
func (r Request) Context(key string) (any, bool) {
	v, ok := r.context[key]
	return v, ok
}

// Body returns the buffered request body. The underlying bytes are read
// from the wire at most once; subsequent calls, even across the With*
// copies of this Request, return the same bytes.
func (r Request) Body() ([]byte, error) {
	return r.body.load()
}

// JSON decodes the request body as JSON into v, caching the decoded form.
// A malformed body surfaces as ErrMalformedBody.
func (r Request) JSON(v any) error {
	return r.body.decodeJSON(v)
}

// WithPath returns a copy of this Request with path replaced. Used when a
// mount strips its prefix before delegating to a sub-router.
func (r Request) WithPath(path string) Request {
	r.path = path
	return r
}

// WithParams returns a copy of this Request with params replaced.
func (r Request) WithParams(params map[string]string) Request {
	r.params = cloneStringMap(params)
	return r
}

// WithContextValue returns a copy of this Request with one context key set.
func (r Request) WithContextValue(key string, value any) Request {
	nc := make(map[string]any, len(r.context)+1)
	for k, v := range r.context {
		nc[k] = v
	}
	nc[key] = value
	r.context = nc
	return r
}

func cloneStringMap(m map[string]string) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
