package router

import (
	"context"
	"errors"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/Vishwa-Ansh/vishwaexpo-framework/pkg/codec"
	"github.com/Vishwa-Ansh/vishwaexpo-framework/pkg/common"
	"github.com/Vishwa-Ansh/vishwaexpo-framework/pkg/middleware"
	"github.com/Vishwa-Ansh/vishwaexpo-framework/pkg/session"
	"go.uber.org/zap"
)

// Router is the request dispatcher and implements http.Handler. All state is
// owned by the instance, so several routers can live in one process.
type Router struct {
	config   RouterConfig
	logger   *zap.Logger
	routes   *RouteTable[common.Handler]
	chain    *common.MiddlewareChain
	sessions *session.Store
	parser   *codec.BodyParser

	wg         sync.WaitGroup
	shutdown   bool
	shutdownMu sync.RWMutex
}

// NewRouter creates a new Router with the given configuration.
func NewRouter(config RouterConfig) *Router {
	logger := config.Logger
	if logger == nil {
		// Create a default logger if none is provided
		var err error
		logger, err = zap.NewProduction()
		if err != nil {
			logger = zap.NewNop()
		}
	}

	sessions := config.Sessions
	if sessions == nil {
		sessions = session.NewStore()
	}

	r := &Router{
		config:   config,
		logger:   logger,
		routes:   NewRouteTable[common.Handler](),
		sessions: sessions,
		parser:   codec.NewBodyParser(logger),
	}
	r.chain = common.NewMiddlewareChain(logger, config.Middlewares...)
	r.chain.OnFault(r.handleFault)

	// Add metrics interceptor if configured, ahead of every other one
	if config.Metrics != nil {
		r.chain.Prepend(middleware.Metrics(config.Metrics))
		config.Metrics.TrackSessions(sessions.Len)
	}
	return r
}

// Use appends interceptors to the chain. They run for every request, in
// registration order, before route dispatch.
func (r *Router) Use(interceptors ...common.Interceptor) *Router {
	r.chain.Use(interceptors...)
	return r
}

// Static serves regular files below dir for any request whose path names
// one, and passes every other request on.
func (r *Router) Static(dir string) *Router {
	return r.Use(middleware.Static(dir))
}

// Handle registers h for method and pattern. Routes are matched in the order
// they were registered.
func (r *Router) Handle(method Method, pattern string, h common.Handler) error {
	if h == nil {
		return errors.New("router: nil handler")
	}
	if err := r.routes.Register(method, pattern, h); err != nil {
		return err
	}
	r.logger.Debug("Route registered",
		zap.String("method", string(method)),
		zap.String("pattern", pattern),
	)
	return nil
}

func (r *Router) mustHandle(method Method, pattern string, h common.Handler) *Router {
	if err := r.Handle(method, pattern, h); err != nil {
		panic(err)
	}
	return r
}

// Get registers a GET route. It panics on an invalid pattern.
func (r *Router) Get(pattern string, h common.Handler) *Router {
	return r.mustHandle(MethodGet, pattern, h)
}

// Post registers a POST route. It panics on an invalid pattern.
func (r *Router) Post(pattern string, h common.Handler) *Router {
	return r.mustHandle(MethodPost, pattern, h)
}

// Put registers a PUT route. It panics on an invalid pattern.
func (r *Router) Put(pattern string, h common.Handler) *Router {
	return r.mustHandle(MethodPut, pattern, h)
}

// Patch registers a PATCH route. It panics on an invalid pattern.
func (r *Router) Patch(pattern string, h common.Handler) *Router {
	return r.mustHandle(MethodPatch, pattern, h)
}

// Delete registers a DELETE route. It panics on an invalid pattern.
func (r *Router) Delete(pattern string, h common.Handler) *Router {
	return r.mustHandle(MethodDelete, pattern, h)
}

// All registers a route matching every method. It panics on an invalid pattern.
func (r *Router) All(pattern string, h common.Handler) *Router {
	return r.mustHandle(MethodAll, pattern, h)
}

// Mount registers a standard http.Handler for GET requests on pattern. The
// handler writes the response directly.
func (r *Router) Mount(pattern string, h http.Handler) *Router {
	return r.Get(pattern, func(req *common.Request, res *common.Response) error {
		return res.Delegate(h, req.Raw())
	})
}

// Routes returns the registered routes in match order.
func (r *Router) Routes() []Route[common.Handler] {
	return r.routes.Routes()
}

// Sessions returns the session store used by the router.
func (r *Router) Sessions() *session.Store {
	return r.sessions
}

// Logger returns the router's logger.
func (r *Router) Logger() *zap.Logger {
	return r.logger
}

// ServeHTTP implements the http.Handler interface. It runs the request
// through session resolution, body parsing, the interceptor chain and route
// dispatch, and returns once the response was written.
func (r *Router) ServeHTTP(w http.ResponseWriter, hr *http.Request) {
	// First add to the wait group before checking shutdown status
	r.wg.Add(1)
	defer r.wg.Done()

	r.shutdownMu.RLock()
	isShutdown := r.shutdown
	r.shutdownMu.RUnlock()
	if isShutdown {
		w.Header().Set("Connection", "close")
		http.Error(w, "Service Unavailable", http.StatusServiceUnavailable)
		return
	}

	req := common.NewRequest(hr)
	res := common.NewResponse(w, r.logger, r.config.Debug)

	id, sess, isNew := r.sessions.Resolve(hr.Header.Get("Cookie"))
	req.Session, req.SessionID, req.NewSession = sess, id, isNew
	if isNew {
		res.Set("Set-Cookie", id)
	}

	if hr.Method != http.MethodGet {
		if !r.parseBody(w, hr, req, res) {
			return
		}
	}

	// The chain runs on its own goroutine so a handler that never answers is
	// still bounded by the response timeout.
	finished := make(chan struct{})
	go func() {
		defer close(finished)
		r.chain.Run(req, res, func() { r.dispatch(req, res) })
	}()
	r.await(hr.Context(), req, res, finished)
}

// parseBody reads and decodes the request body. It answers the request and
// returns false when the body could not be read.
func (r *Router) parseBody(w http.ResponseWriter, hr *http.Request, req *common.Request, res *common.Response) bool {
	body := hr.Body
	if r.config.MaxBodySize > 0 && body != nil {
		body = http.MaxBytesReader(w, body, r.config.MaxBodySize)
	}
	if r.config.BodyReadTimeout > 0 {
		rc := http.NewResponseController(w)
		if err := rc.SetReadDeadline(time.Now().Add(r.config.BodyReadTimeout)); err != nil && !errors.Is(err, http.ErrNotSupported) {
			r.logger.Debug("Failed to set body read deadline", zap.Error(err))
		}
	}

	parsed, err := r.parser.Parse(body, hr.Header.Get("Content-Type"))
	if err != nil {
		status := http.StatusBadRequest
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			status = http.StatusRequestEntityTooLarge
		}
		r.logger.Warn("Failed to read request body",
			zap.Error(err),
			zap.String("method", req.Method),
			zap.String("path", req.Path),
			zap.Int("status", status),
		)
		_ = res.Status(status).Send(http.StatusText(status))
		return false
	}

	req.Body, req.BodyKind, req.RawBody = parsed.Value, parsed.Kind, parsed.Raw
	return true
}

// dispatch runs once the interceptor chain is exhausted.
func (r *Router) dispatch(req *common.Request, res *common.Response) {
	route, params, ok := r.routes.Match(req.Method, req.Path)
	handler := r.config.NotFound
	if ok {
		req.SetRoute(route.Pattern, params)
		handler = route.Handler
	}

	if handler == nil {
		_ = res.Status(http.StatusNotFound).Send(http.StatusText(http.StatusNotFound))
		return
	}
	if err := common.Invoke(func() error { return handler(req, res) }); err != nil {
		r.handleFault(req, res, err)
	}
}

// await blocks until the response is committed, the client goes away or the
// response timeout elapses. After a commit it also waits for the synchronous
// part of the chain to return, under the same bounds.
func (r *Router) await(ctx context.Context, req *common.Request, res *common.Response, finished <-chan struct{}) {
	var timeout <-chan time.Time
	if d := r.config.responseTimeout(); d > 0 {
		timer := time.NewTimer(d)
		defer timer.Stop()
		timeout = timer.C
	}

	select {
	case <-res.Done():
		select {
		case <-finished:
		case <-ctx.Done():
		case <-timeout:
		}
	case <-ctx.Done():
		if res.Abandon() {
			r.logger.Debug("Client disconnected before response",
				zap.String("method", req.Method),
				zap.String("path", req.Path),
			)
			return
		}
		// A commit is in progress and still owns the writer.
		<-res.Done()
	case <-timeout:
		if res.Preempt(http.StatusRequestTimeout, "Request Timeout") {
			r.logger.Error("Request timed out",
				zap.String("method", req.Method),
				zap.String("path", req.Path),
				zap.Duration("timeout", r.config.responseTimeout()),
			)
			return
		}
		select {
		case <-res.Done():
		case <-ctx.Done():
		}
	}
}

// handleFault answers a failed interceptor or handler, adding the trace ID to
// the log fields when one is present.
func (r *Router) handleFault(req *common.Request, res *common.Response, err error) {
	if r.config.Metrics != nil {
		kind := "error"
		var panicErr *common.PanicError
		if errors.As(err, &panicErr) {
			kind = "panic"
		}
		r.config.Metrics.Fault(kind)
	}

	logger := r.logger
	if traceID := middleware.TraceIDFromRequest(req); traceID != "" {
		logger = logger.With(zap.String("trace_id", traceID))
	}
	common.DefaultFaultHandler(logger)(req, res, err)
}

// Serve listens on addr and serves requests until ctx is cancelled, then
// shuts down gracefully.
func (r *Router) Serve(ctx context.Context, srv *http.Server) error {
	if srv.Handler == nil {
		srv.Handler = r
	}
	ln, err := net.Listen("tcp", srv.Addr)
	if err != nil {
		return err
	}
	r.logger.Info("Listening", zap.String("addr", ln.Addr().String()))

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := r.Shutdown(shutdownCtx); err != nil {
		r.logger.Warn("Router shutdown incomplete", zap.Error(err))
	}
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return nil
}

// ListenAndServe serves on addr with default server settings until ctx is
// cancelled.
func (r *Router) ListenAndServe(ctx context.Context, addr string) error {
	return r.Serve(ctx, &http.Server{Addr: addr, Handler: r})
}

// Shutdown gracefully shuts down the router.
// It stops accepting new requests and waits for existing requests to complete.
// If the context is canceled before all requests complete, it returns the context's error.
func (r *Router) Shutdown(ctx context.Context) error {
	// Mark the router as shutting down
	r.shutdownMu.Lock()
	r.shutdown = true
	r.shutdownMu.Unlock()

	// Create a channel to signal when all requests are done
	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()

	// Wait for all requests to finish or for the context to be canceled
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// RouteList returns one "METHOD pattern" line per registered route.
func (r *Router) RouteList() []string {
	routes := r.routes.Routes()
	out := make([]string, len(routes))
	for i, route := range routes {
		out[i] = string(route.Method) + " " + route.Pattern
	}
	return out
}
