package webkit

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/letswire/webkit/health"
	"github.com/letswire/webkit/ws"
)

// AppOptions configures an App at construction time.
type AppOptions struct {
	Host                string
	Port                int
	Shared              bool
	EnableCompression   bool
	IdleTimeout         time.Duration
	MaxRequestBodyBytes int64
	TLSConfig           *tls.Config
	Config              map[string]any
	Logger              Logger
}

type appStatus int32

const (
	statusStopped appStatus = iota
	statusStarting
	statusRunning
	statusStopping
)

// App is the runtime orchestrator: it owns the DI container, module and
// plugin registries, the root Router, and the socket acceptor, and drives
// per-connection HTTP/WebSocket dispatch.
type App struct {
	opts      AppOptions
	container *Container
	root      *Router
	modules   *ModuleRegistry
	plugins   *PluginRegistry
	health    *health.Aggregator
	subject   *Subject
	logger    Logger

	handler           Handler
	pendingMiddleware []Middleware
	server            *http.Server

	status int32
}

// NewApp constructs an App with an empty container and root router. Modules
// and plugins must be added before Start is called.
func NewApp(opts AppOptions) *App {
	if opts.Host == "" {
		opts.Host = "localhost"
	}
	if opts.Port == 0 {
		opts.Port = 8080
	}
	if opts.Logger == nil {
		opts.Logger = NewNopLogger()
	}
	subject := NewSubject("webkit.app")
	return &App{
		opts:      opts,
		container: NewContainer().WithLogger(opts.Logger),
		root:      NewRouter(),
		modules:   NewModuleRegistry(opts.Logger, subject),
		plugins:   NewPluginRegistry(opts.Logger, subject),
		health:    health.NewAggregator(),
		subject:   subject,
		logger:    opts.Logger,
	}
}

// Container returns the application's DI container.
func (a *App) Container() *Container { return a.container }

// Router returns the application's root router.
func (a *App) Router() *Router { return a.root }

// Modules returns the module registry, for adding modules before Start.
func (a *App) Modules() *ModuleRegistry { return a.modules }

// Plugins returns the plugin registry, for adding plugins before Start.
func (a *App) Plugins() *PluginRegistry { return a.plugins }

// Observe attaches an Observer to the app's lifecycle event Subject.
func (a *App) Observe(o Observer) { a.subject.Attach(o) }

// HealthAggregator returns the aggregator modules register
// health.Providers with.
func (a *App) HealthAggregator() *health.Aggregator { return a.health }

// Use appends middleware to be composed onto the root handler at Start.
// Middleware declared first is outermost.
func (a *App) Use(mws ...Middleware) {
	a.pendingMiddleware = append(a.pendingMiddleware, mws...)
}

// Start performs the boot sequence: validate modules, register modules,
// register plugins, compose middleware onto the root router's handler,
// bind the acceptor, and begin serving. It blocks until the server is
// closed by Shutdown; cancelling ctx does not stop the server.
func (a *App) Start(ctx context.Context) error {
	if !atomic.CompareAndSwapInt32(&a.status, int32(statusStopped), int32(statusStarting)) {
		return ErrAppAlreadyStarted
	}

	a.subject.Emit(ctx, EventAppStarting, nil)

	if err := a.modules.Validate(); err != nil {
		return err
	}
	if err := a.modules.Boot(ctx, a.container, a.root, a.opts.Config); err != nil {
		return err
	}
	if err := a.plugins.Boot(ctx, a.container, a.root, a.opts.Config); err != nil {
		return err
	}

	base := Handler(func(req Request) (Response, error) {
		return a.root.Route(req)
	})
	a.handler = Compose(base, a.pendingMiddleware...)

	addr := net.JoinHostPort(a.opts.Host, strconv.Itoa(a.opts.Port))
	a.server = &http.Server{
		Addr:        addr,
		Handler:     http.HandlerFunc(a.serveHTTP),
		IdleTimeout: a.opts.IdleTimeout,
		TLSConfig:   a.opts.TLSConfig,
	}

	atomic.StoreInt32(&a.status, int32(statusRunning))
	a.subject.Emit(ctx, EventAppStarted, map[string]any{"addr": addr})
	a.logger.Info("app started", "addr", addr)

	var err error
	if a.opts.TLSConfig != nil {
		err = a.server.ListenAndServeTLS("", "")
	} else {
		err = a.server.ListenAndServe()
	}
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

func (a *App) serveHTTP(w http.ResponseWriter, r *http.Request) {
	headers := map[string]string{}
	for k := range r.Header {
		headers[lowerASCII(k)] = r.Header.Get(k)
	}

	if ws.IsUpgradeRequest(headers) {
		a.serveWebSocket(w, r, headers)
		return
	}

	cookies := []Cookie{}
	for _, c := range r.Cookies() {
		cookies = append(cookies, Cookie{Name: c.Name, Value: c.Value})
	}

	req := NewRequest(r.Method, r.URL, r.Header, cookies, r.Body, a.opts.MaxRequestBodyBytes)

	resp, err := a.handler(req)
	if err != nil {
		a.logger.Error("handler failed", "method", req.Method(), "path", req.Path(), "error", fmt.Errorf("%w: %v", ErrHandlerFailed, err))
		resp = jsonErrorResponse(500, "Internal Server Error")
	}
	if werr := resp.WriteTo(w); werr != nil {
		a.logger.Error("write response failed", "error", werr)
	}
	a.subject.Emit(r.Context(), EventRequestHandled, map[string]any{
		"method": req.Method(), "path": req.Path(), "status": resp.Status(),
	})
}

func jsonErrorResponse(status int, msg string) Response {
	body := fmt.Sprintf(`{"error":%q}`, msg)
	r := NewResponse(status, []byte(body))
	r.headers["content-type"] = "application/json; charset=utf-8"
	return r
}

func (a *App) serveWebSocket(w http.ResponseWriter, r *http.Request, headers map[string]string) {
	handler, params, matchedPath, found := a.root.MatchWebSocket(r.URL.Path)
	if !found {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	clientKey := headers["sec-websocket-key"]
	conn, err := ws.Upgrade(w, clientKey)
	if err != nil {
		a.logger.Error("websocket upgrade failed", "path", r.URL.Path, "error", fmt.Errorf("%w: %v", ErrWebSocketUpgradeFailed, err))
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	query := map[string]string{}
	for k, vs := range r.URL.Query() {
		if len(vs) > 0 {
			query[k] = vs[0]
		}
	}

	cookies := []Cookie{}
	for _, c := range r.Cookies() {
		cookies = append(cookies, Cookie{Name: c.Name, Value: c.Value})
	}
	req := NewRequest(r.Method, r.URL, r.Header, cookies, nil, 0).
		WithPath(matchedPath).
		WithParams(params).
		WithContextValue("_originalPath", r.URL.Path)

	session := NewSession(conn, req, params, query)

	go func() {
		defer conn.Close()
		if err := handler(session); err != nil {
			_ = session.CloseWithError(err)
		}
	}()
}

// Health returns the aggregated health of every registered health.Provider.
func (a *App) Health(ctx context.Context) health.Aggregated {
	return a.health.Collect(ctx)
}

// Shutdown is idempotent: re-entry after the app has already stopped is a
// no-op. It tears down plugins (reverse order), then modules (reverse
// order), disposes the container, and closes the acceptor.
func (a *App) Shutdown(ctx context.Context) error {
	if !atomic.CompareAndSwapInt32(&a.status, int32(statusRunning), int32(statusStopping)) {
		return nil
	}
	a.subject.Emit(ctx, EventAppStopping, nil)

	a.plugins.Shutdown(ctx)
	a.modules.Shutdown(ctx)
	if err := a.container.Dispose(); err != nil {
		a.logger.Error("container dispose failed", "error", err)
	}

	var err error
	if a.server != nil {
		err = a.server.Shutdown(ctx)
	}

	atomic.StoreInt32(&a.status, int32(statusStopped))
	a.subject.Emit(ctx, EventAppStopped, nil)
	return err
}
