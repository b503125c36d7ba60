package common

import (
	"errors"
	"net/http"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
)

// MiddlewareChain holds an ordered, append-only sequence of interceptors and
// runs them one at a time with explicit continuation.
//
// The sequence is shared by all requests. Run works on a snapshot taken when
// it starts, so registrations made while requests are in flight affect only
// subsequent requests.
type MiddlewareChain struct {
	mu           sync.RWMutex
	interceptors []Interceptor
	logger       *zap.Logger
	onFault      FaultHandler
}

// NewMiddlewareChain creates a new middleware chain.
func NewMiddlewareChain(logger *zap.Logger, interceptors ...Interceptor) *MiddlewareChain {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &MiddlewareChain{logger: logger}
	c.Use(interceptors...)
	return c
}

// Use adds interceptors to the end of the chain.
func (c *MiddlewareChain) Use(interceptors ...Interceptor) *MiddlewareChain {
	for _, i := range interceptors {
		if i == nil {
			panic("common: nil interceptor passed to Use")
		}
	}
	c.mu.Lock()
	c.interceptors = append(c.interceptors, interceptors...)
	c.mu.Unlock()
	return c
}

// Prepend adds interceptors to the beginning of the chain.
func (c *MiddlewareChain) Prepend(interceptors ...Interceptor) *MiddlewareChain {
	for _, i := range interceptors {
		if i == nil {
			panic("common: nil interceptor passed to Prepend")
		}
	}
	c.mu.Lock()
	result := make([]Interceptor, len(interceptors)+len(c.interceptors))
	copy(result, interceptors)
	copy(result[len(interceptors):], c.interceptors)
	c.interceptors = result
	c.mu.Unlock()
	return c
}

// OnFault sets the handler used to answer a failed interceptor. Without one
// the chain answers 500 Internal Server Error.
func (c *MiddlewareChain) OnFault(h FaultHandler) *MiddlewareChain {
	c.mu.Lock()
	c.onFault = h
	c.mu.Unlock()
	return c
}

// Len returns the number of registered interceptors.
func (c *MiddlewareChain) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.interceptors)
}

// Run executes the chain for one request starting at the first interceptor.
// onExhausted runs when the last interceptor calls next.
//
// An interceptor that returns an error or panics halts the chain for this
// request: no later interceptor and no onExhausted run, and the fault handler
// answers the request.
func (c *MiddlewareChain) Run(req *Request, res *Response, onExhausted func()) {
	c.mu.RLock()
	run := &chainRun{
		interceptors: c.interceptors[:len(c.interceptors):len(c.interceptors)],
		onFault:      c.onFault,
		logger:       c.logger,
		req:          req,
		res:          res,
		final:        onExhausted,
	}
	c.mu.RUnlock()

	run.step(0)
}

// chainRun is the per-request cursor over a snapshot of the chain.
type chainRun struct {
	interceptors []Interceptor
	onFault      FaultHandler
	logger       *zap.Logger
	req          *Request
	res          *Response
	final        func()
	halted       atomic.Bool
}

func (r *chainRun) step(i int) {
	if r.halted.Load() {
		return
	}
	if i == len(r.interceptors) {
		if r.final != nil {
			r.final()
		}
		return
	}

	var called atomic.Bool
	next := func() {
		if !called.CompareAndSwap(false, true) {
			r.logger.Warn("Interceptor called next more than once",
				zap.Int("index", i),
				zap.String("method", r.req.Method),
				zap.String("path", r.req.Path),
			)
			return
		}
		if r.res.Committed() {
			r.logger.Debug("Interceptor called next after ending the response",
				zap.Int("index", i),
				zap.String("path", r.req.Path),
			)
			return
		}
		r.step(i + 1)
	}

	interceptor := r.interceptors[i]
	if err := Invoke(func() error { return interceptor(r.req, r.res, next) }); err != nil {
		r.halted.Store(true)
		r.fault(err)
	}
}

func (r *chainRun) fault(err error) {
	if r.onFault != nil {
		r.onFault(r.req, r.res, err)
		return
	}
	DefaultFaultHandler(r.logger)(r.req, r.res, err)
}

// DefaultFaultHandler logs err and answers with its HTTPError status, or with
// 500 Internal Server Error for any other error. Nothing is written when the
// response was already committed.
func DefaultFaultHandler(logger *zap.Logger) FaultHandler {
	return func(req *Request, res *Response, err error) {
		fields := []zap.Field{
			zap.Error(err),
			zap.String("method", req.Method),
			zap.String("path", req.Path),
		}
		var panicErr *PanicError
		if errors.As(err, &panicErr) {
			fields = append(fields, zap.String("stack", string(panicErr.Stack)))
		}

		if res.Committed() {
			logger.Error("Fault after response was committed", fields...)
			return
		}

		var httpErr *HTTPError
		if errors.As(err, &httpErr) {
			logger.Warn("Request failed", fields...)
			_ = res.Status(httpErr.StatusCode).JSON(map[string]string{"error": httpErr.Message})
			return
		}

		logger.Error("Request fault", fields...)
		_ = res.Status(http.StatusInternalServerError).Send(http.StatusText(http.StatusInternalServerError))
	}
}
