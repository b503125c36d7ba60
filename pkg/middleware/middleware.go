// Package middleware provides a collection of interceptors for the vishwaexpo
// router: request logging, tracing, client IP extraction, CORS, rate limiting,
// session guards, metrics and static file serving.
package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/Vishwa-Ansh/vishwaexpo-framework/pkg/common"
	"go.uber.org/zap"
)

// Interceptor is an alias for common.Interceptor.
type Interceptor = common.Interceptor

// slowRequestThreshold is the duration above which a successful request is
// logged at Warn level.
const slowRequestThreshold = 1 * time.Second

// Logging is an interceptor that logs every request once its response is
// written.
func Logging(logger *zap.Logger) common.Interceptor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(req *common.Request, res *common.Response, next common.Next) error {
		start := time.Now()

		res.OnCommit(func(res *common.Response) {
			duration := time.Since(start)
			status := res.StatusCode()
			fields := []zap.Field{
				zap.String("method", req.Method),
				zap.String("path", req.Path),
				zap.Int("status", status),
				zap.Duration("duration", duration),
			}
			if traceID := TraceIDFromRequest(req); traceID != "" {
				fields = append(fields, zap.String("trace_id", traceID))
			}
			if req.NewSession {
				fields = append(fields, zap.Bool("session_new", true))
			}

			// Use appropriate log level based on status code and duration
			switch {
			case res.Abandoned():
				logger.Debug("Request abandoned", fields...)
			case status >= 500:
				// Server errors at Error level
				logger.Error("Server error", append(fields, zap.String("remote_addr", req.Raw().RemoteAddr))...)
			case status >= 400:
				// Client errors at Warn level
				logger.Warn("Client error", fields...)
			case duration > slowRequestThreshold:
				logger.Warn("Slow request", fields...)
			default:
				// Normal requests at Debug level to avoid log spam
				logger.Debug("Request", fields...)
			}
		})

		next()
		return nil
	}
}

// CORSConfig defines the headers sent by the CORS interceptor.
type CORSConfig struct {
	Origins []string
	Methods []string
	Headers []string
	MaxAge  time.Duration
}

// CORS is an interceptor that adds CORS headers to the response. Preflight
// OPTIONS requests are answered directly with 204 No Content.
func CORS(config CORSConfig) common.Interceptor {
	origins := strings.Join(config.Origins, ", ")
	methods := strings.Join(config.Methods, ", ")
	headers := strings.Join(config.Headers, ", ")

	return func(req *common.Request, res *common.Response, next common.Next) error {
		if origins != "" {
			res.Set("Access-Control-Allow-Origin", origins)
		}
		if methods != "" {
			res.Set("Access-Control-Allow-Methods", methods)
		}
		if headers != "" {
			res.Set("Access-Control-Allow-Headers", headers)
		}

		// Handle preflight requests
		if req.Method == http.MethodOptions {
			if config.MaxAge > 0 {
				res.Set("Access-Control-Max-Age", strconv.Itoa(int(config.MaxAge.Seconds())))
			}
			return res.Status(http.StatusNoContent).End()
		}

		next()
		return nil
	}
}
