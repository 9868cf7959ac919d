package webkit

import (
	"encoding/json"
)

// CloseCode is a WebSocket close status code as defined by RFC 6455.
type CloseCode int

const (
	CloseNormal        CloseCode = 1000
	CloseGoingAway     CloseCode = 1001
	CloseProtocolError CloseCode = 1002
	CloseUnsupported   CloseCode = 1003
	CloseInternalError CloseCode = 1011
)

// FrameWriter is the minimal surface Session needs from a WebSocket
// connection in order to send frames and close. It is implemented by the
// ws package's connection wrapper; Session depends only on this interface
// so the value model has no dependency on the frame codec.
type FrameWriter interface {
	WriteText(data []byte) error
	WriteClose(code int, reason string) error
	Close() error
}

// Session wraps one upgraded WebSocket connection. It lives as long as the
// socket is open and is closed by handler completion or error. The
// originating Request and matched params/query are read-only references
// captured at upgrade time; Session owns the socket exclusively.
type Session struct {
	conn    FrameWriter
	request Request
	params  map[string]string
	query   map[string]string
}

// NewSession constructs a Session around an already-upgraded connection.
func NewSession(conn FrameWriter, req Request, params, query map[string]string) *Session {
	return &Session{conn: conn, request: req, params: params, query: query}
}

// Request returns the request that produced this upgrade.
func (s *Session) Request() Request { return s.request }

// Param returns a matched WebSocket route parameter.
func (s *Session) Param(name string) (string, bool) {
	v, ok := s.params[name]
	return v, ok
}

// Query returns a query-string value captured at upgrade time.
func (s *Session) Query(name string) (string, bool) {
	v, ok := s.query[name]
	return v, ok
}

// SendText sends a UTF-8 text frame.
func (s *Session) SendText(text string) error {
	return s.conn.WriteText([]byte(text))
}

// SendJSON encodes v as JSON and sends it as a single text frame.
func (s *Session) SendJSON(v any) error {
	buf, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return s.conn.WriteText(buf)
}

// CloseWithCode closes the session with the given RFC 6455 close code and
// reason text.
func (s *Session) CloseWithCode(code CloseCode, reason string) error {
	return s.conn.WriteClose(int(code), reason)
}

// CloseWithError closes the session with CloseProtocolError, using err's
// text as the close reason.
func (s *Session) CloseWithError(err error) error {
	return s.conn.WriteClose(int(CloseProtocolError), err.Error())
}
