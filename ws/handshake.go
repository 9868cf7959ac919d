// Package ws implements the RFC 6455 WebSocket handshake and a minimal
// frame codec (text, binary, close, ping/pong, single-frame messages).
// It is consumed by the app orchestrator's upgrade path; it has no
// dependency on the rest of the module beyond net.Conn and the standard
// library.
package ws

import (
	"crypto/sha1"
	"encoding/base64"
	"fmt"
	"net/http"
	"strings"
)

const handshakeGUID = "258EAFA5-E914-47DA-95CA-C5AB0DC85B11"

// IsUpgradeRequest reports whether headers describe a valid RFC 6455
// upgrade request: an Upgrade header of "websocket", a Connection header
// containing "upgrade", version 13, and a present Sec-WebSocket-Key.
func IsUpgradeRequest(headers map[string]string) bool {
	if !strings.EqualFold(headers["upgrade"], "websocket") {
		return false
	}
	if !strings.Contains(strings.ToLower(headers["connection"]), "upgrade") {
		return false
	}
	if headers["sec-websocket-version"] != "13" {
		return false
	}
	if headers["sec-websocket-key"] == "" {
		return false
	}
	return true
}

// AcceptKey computes the Sec-WebSocket-Accept value for a given
// Sec-WebSocket-Key per RFC 6455 §1.3.
func AcceptKey(clientKey string) string {
	h := sha1.New()
	h.Write([]byte(clientKey))
	h.Write([]byte(handshakeGUID))
	return base64.StdEncoding.EncodeToString(h.Sum(nil))
}

// Upgrade hijacks w's underlying connection and writes the RFC 6455
// handshake response. It returns the hijacked net.Conn wrapped in a Conn
// ready for frame I/O. Callers must have already validated the request
// with IsUpgradeRequest.
func Upgrade(w http.ResponseWriter, clientKey string) (*Conn, error) {
	hj, ok := w.(http.Hijacker)
	if !ok {
		return nil, fmt.Errorf("response writer does not support hijacking")
	}
	netConn, rw, err := hj.Hijack()
	if err != nil {
		return nil, err
	}

	accept := AcceptKey(clientKey)
	resp := "HTTP/1.1 101 Switching Protocols\r\n" +
		"Upgrade: websocket\r\n" +
		"Connection: Upgrade\r\n" +
		"Sec-WebSocket-Accept: " + accept + "\r\n\r\n"
	if _, err := rw.WriteString(resp); err != nil {
		netConn.Close()
		return nil, err
	}
	if err := rw.Flush(); err != nil {
		netConn.Close()
		return nil, err
	}
	return newConn(netConn, rw), nil
}
