package webkit

import (
	"fmt"
	"sort"
	"strings"
)

// Handler processes a Request and produces a Response.
type Handler func(Request) (Response, error)

// WSHandler handles one upgraded WebSocket session.
type WSHandler func(*Session) error

const wildcardMethod = "*"

type node struct {
	static map[string]*node
	param  *node
	paramName string
	methods   map[string]Handler
}

func newNode() *node {
	return &node{static: map[string]*node{}}
}

type wsNode struct {
	static  map[string]*wsNode
	param   *wsNode
	paramName string
	handler WSHandler
	hasHandler bool
}

func newWSNode() *wsNode {
	return &wsNode{static: map[string]*wsNode{}}
}

type mountEntry struct {
	prefix string
	router *Router
}

// Router is a segment trie supporting static and single-parameter
// children, a parallel WebSocket trie, and ordered sub-router mounts. A
// Router is built once at boot and treated as immutable while requests are
// being served.
type Router struct {
	root   *node
	wsRoot *wsNode
	mounts []mountEntry

	// routeLog records registrations in insertion order for diagnostics.
	routeLog []string
}

// NewRouter returns an empty Router.
func NewRouter() *Router {
	return &Router{root: newNode(), wsRoot: newWSNode()}
}

func normalizePath(p string) string {
	if p == "" {
		p = "/"
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	if len(p) > 1 && strings.HasSuffix(p, "/") {
		p = strings.TrimSuffix(p, "/")
	}
	return p
}

func splitSegments(p string) []string {
	raw := strings.Split(p, "/")
	segs := make([]string, 0, len(raw))
	for _, s := range raw {
		if s != "" {
			segs = append(segs, s)
		}
	}
	return segs
}

// Handle registers a handler for (method, pattern). method may be a
// concrete HTTP verb or the wildcard "*". Duplicate (method, pattern)
// registration returns ErrAlreadyRegistered.
func (r *Router) Handle(method, pattern string, h Handler) error {
	method = strings.ToUpper(method)
	segs := splitSegments(normalizePath(pattern))
	n := r.root
	for _, seg := range segs {
		if strings.HasPrefix(seg, ":") {
			name := seg[1:]
			if n.param == nil {
				n.param = newNode()
				n.param.paramName = name
			}
			n = n.param
		} else {
			child, ok := n.static[seg]
			if !ok {
				child = newNode()
				n.static[seg] = child
			}
			n = child
		}
	}
	if n.methods == nil {
		n.methods = map[string]Handler{}
	}
	if _, exists := n.methods[method]; exists {
		return fmt.Errorf("%w: %s %s", ErrAlreadyRegistered, method, normalizePath(pattern))
	}
	n.methods[method] = h
	r.routeLog = append(r.routeLog, fmt.Sprintf("%s %s", method, normalizePath(pattern)))
	return nil
}

// HandleWS registers a WebSocket handler for pattern. Only one handler is
// allowed per pattern.
func (r *Router) HandleWS(pattern string, h WSHandler) error {
	segs := splitSegments(normalizePath(pattern))
	n := r.wsRoot
	for _, seg := range segs {
		if strings.HasPrefix(seg, ":") {
			name := seg[1:]
			if n.param == nil {
				n.param = newWSNode()
				n.param.paramName = name
			}
			n = n.param
		} else {
			child, ok := n.static[seg]
			if !ok {
				child = newWSNode()
				n.static[seg] = child
			}
			n = child
		}
	}
	if n.hasHandler {
		return fmt.Errorf("%w: WS %s", ErrAlreadyRegistered, normalizePath(pattern))
	}
	n.handler = h
	n.hasHandler = true
	r.routeLog = append(r.routeLog, fmt.Sprintf("WS %s", normalizePath(pattern)))
	return nil
}

// Mount attaches sub at prefix. Mounts are tried in insertion order, before
// the local trie, on every match attempt.
func (r *Router) Mount(prefix string, sub *Router) {
	norm := normalizePath(prefix)
	r.mounts = append(r.mounts, mountEntry{prefix: norm, router: sub})
	r.routeLog = append(r.routeLog, fmt.Sprintf("MOUNT %s -> [nested router]", norm))
}

func mountMatches(norm, prefix string) (string, bool) {
	if norm == prefix {
		return "/", true
	}
	if prefix == "/" {
		return norm, true
	}
	if strings.HasPrefix(norm, prefix+"/") {
		rest := strings.TrimPrefix(norm, prefix)
		if rest == "" {
			rest = "/"
		}
		return rest, true
	}
	return "", false
}

// matchResult carries the outcome of descending the trie to a leaf.
type matchResult struct {
	n      *node
	params map[string]string
}

func matchTrie(n *node, segs []string, params map[string]string) *matchResult {
	if len(segs) == 0 {
		if len(n.methods) == 0 {
			return nil
		}
		return &matchResult{n: n, params: params}
	}
	seg := segs[0]
	rest := segs[1:]

	if child, ok := n.static[seg]; ok {
		if res := matchTrie(child, rest, params); res != nil {
			return res
		}
	}
	if n.param != nil {
		next := cloneStringMap(params)
		next[n.param.paramName] = seg
		if res := matchTrie(n.param, rest, next); res != nil {
			return res
		}
	}
	return nil
}

// Route resolves req against mounts then the local trie and returns the
// Response to write. It never returns an error for normal routing outcomes
// (404/405/OPTIONS are all encoded as Responses); a non-nil error indicates
// a handler failure that the caller (middleware/app) must translate.
func (r *Router) Route(req Request) (Response, error) {
	norm := normalizePath(req.Path())
	for _, m := range r.mounts {
		if rest, ok := mountMatches(norm, m.prefix); ok {
			derived := req.
				WithPath(rest).
				WithContextValue("_originalPath", originalPath(req))
			return m.router.Route(derived)
		}
	}

	segs := splitSegments(norm)
	res := matchTrie(r.root, segs, map[string]string{})
	if res == nil {
		return notFoundResponse(req.Method(), norm), nil
	}

	withParams := req.WithParams(res.params)
	return dispatchLeaf(withParams, res.n)
}

func originalPath(req Request) string {
	if v, ok := req.Context("_originalPath"); ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return normalizePath(req.Path())
}

func dispatchLeaf(req Request, n *node) (Response, error) {
	method := req.Method()

	if h, ok := n.methods[method]; ok {
		return h(req)
	}

	if method == "HEAD" {
		if h, ok := n.methods["GET"]; ok {
			resp, err := h(req)
			if err != nil {
				return resp, err
			}
			return resp.CopyWith(ResponseEdit{Body: nil, HasBody: true}), nil
		}
	}

	if method == "OPTIONS" {
		if h, ok := n.methods["OPTIONS"]; ok {
			return h(req)
		}
		allow := allowedMethods(n)
		return NewResponse(204, nil).WithHeader("allow", strings.Join(allow, ", ")), nil
	}

	if h, ok := n.methods[wildcardMethod]; ok {
		return h(req)
	}

	allow := allowedMethods(n)
	body := fmt.Sprintf(`{"error":"Method %s not allowed"}`, method)
	resp := NewResponse(405, []byte(body))
	resp.headers["content-type"] = "application/json; charset=utf-8"
	resp.headers["allow"] = strings.Join(allow, ", ")
	return resp, nil
}

func allowedMethods(n *node) []string {
	set := map[string]bool{}
	hasWildcard := false
	for m := range n.methods {
		if m == wildcardMethod {
			hasWildcard = true
			continue
		}
		set[m] = true
	}
	if hasWildcard {
		for _, m := range []string{"GET", "POST", "PUT", "DELETE", "PATCH", "HEAD"} {
			set[m] = true
		}
	}
	if set["GET"] {
		set["HEAD"] = true
	}
	set["OPTIONS"] = true

	out := make([]string, 0, len(set))
	for m := range set {
		out = append(out, m)
	}
	sort.Strings(out)
	return out
}

func notFoundResponse(method, path string) Response {
	body := fmt.Sprintf(`{"error":"Route not found: %s %s"}`, method, path)
	resp := NewResponse(404, []byte(body))
	resp.headers["content-type"] = "application/json; charset=utf-8"
	return resp
}

// MatchWebSocket resolves path against mounts (recursively) then the local
// WebSocket trie. It returns the handler, merged params, and the matched
// normalized path.
func (r *Router) MatchWebSocket(path string) (WSHandler, map[string]string, string, bool) {
	norm := normalizePath(path)
	for _, m := range r.mounts {
		if rest, ok := mountMatches(norm, m.prefix); ok {
			h, params, matched, found := m.router.MatchWebSocket(rest)
			if found {
				return h, params, matched, true
			}
		}
	}

	segs := splitSegments(norm)
	n, params := matchWSTrie(r.wsRoot, segs, map[string]string{})
	if n == nil {
		return nil, nil, "", false
	}
	return n.handler, params, norm, true
}

func matchWSTrie(n *wsNode, segs []string, params map[string]string) (*wsNode, map[string]string) {
	if len(segs) == 0 {
		if !n.hasHandler {
			return nil, nil
		}
		return n, params
	}
	seg := segs[0]
	rest := segs[1:]

	if child, ok := n.static[seg]; ok {
		if res, p := matchWSTrie(child, rest, params); res != nil {
			return res, p
		}
	}
	if n.param != nil {
		next := cloneStringMap(params)
		next[n.param.paramName] = seg
		if res, p := matchWSTrie(n.param, rest, next); res != nil {
			return res, p
		}
	}
	return nil, nil
}

// Routes returns a human-readable listing of every registered route,
// method, and mount, in insertion order, for diagnostics. HEAD is
// suppressed at a leaf where GET is already registered.
func (r *Router) Routes() []string {
	out := make([]string, 0, len(r.routeLog))
	for _, line := range r.routeLog {
		if strings.HasPrefix(line, "HEAD ") {
			pattern := strings.TrimPrefix(line, "HEAD ")
			if containsRoute(r.routeLog, "GET "+pattern) {
				continue
			}
		}
		out = append(out, line)
	}
	return out
}

func containsRoute(lines []string, target string) bool {
	for _, l := range lines {
		if l == target {
			return true
		}
	}
	return false
}
