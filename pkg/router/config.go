// Package router provides the request dispatcher: it resolves sessions,
// parses bodies, runs the interceptor chain and routes each request to the
// first matching handler.
package router

import (
	"time"

	"github.com/Vishwa-Ansh/vishwaexpo-framework/pkg/common"
	"github.com/Vishwa-Ansh/vishwaexpo-framework/pkg/metrics"
	"github.com/Vishwa-Ansh/vishwaexpo-framework/pkg/session"
	"go.uber.org/zap"
)

const (
	// DefaultResponseTimeout bounds how long ServeHTTP waits for a terminal
	// write once the chain was started.
	DefaultResponseTimeout = 30 * time.Second
)

// RouterConfig defines the global configuration for the router.
type RouterConfig struct {
	Logger *zap.Logger // Logger for all router operations

	// Debug makes a second terminal write on a response panic instead of
	// logging a warning.
	Debug bool

	MaxBodySize     int64         // Maximum request body size in bytes, 0 for no limit
	BodyReadTimeout time.Duration // Deadline for reading the request body, 0 for none

	// ResponseTimeout bounds the wait for a terminal write. When it elapses
	// the request is answered with 408 Request Timeout. 0 selects
	// DefaultResponseTimeout; a negative value disables the timeout.
	ResponseTimeout time.Duration

	Sessions    *session.Store       // Session store, a fresh in-memory store when nil
	Middlewares []common.Interceptor // Interceptors registered before any route
	NotFound    common.Handler       // Answers requests no route matched, 404 "Not Found" when nil

	// Metrics, when set, records every request and fault and exports the
	// live session count.
	Metrics *metrics.Collector
}

func (c RouterConfig) responseTimeout() time.Duration {
	if c.ResponseTimeout == 0 {
		return DefaultResponseTimeout
	}
	return c.ResponseTimeout
}
