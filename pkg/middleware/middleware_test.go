package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Vishwa-Ansh/vishwaexpo-framework/pkg/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestLogging(t *testing.T) {
	testCases := []struct {
		name          string
		status        int
		delay         time.Duration
		expectedLevel zapcore.Level
		expectedMsg   string
	}{
		{"OK", http.StatusOK, 0, zapcore.DebugLevel, "Request"},
		{"Client error", http.StatusNotFound, 0, zapcore.WarnLevel, "Client error"},
		{"Server error", http.StatusInternalServerError, 0, zapcore.ErrorLevel, "Server error"},
		{"Slow", http.StatusOK, slowRequestThreshold + 50*time.Millisecond, zapcore.WarnLevel, "Slow request"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			core, logs := observer.New(zapcore.DebugLevel)
			logger := zap.New(core)

			status := func(req *common.Request, res *common.Response, next common.Next) error {
				time.Sleep(tc.delay)
				return res.Status(tc.status).Send("x")
			}
			_, _ = run(t, http.MethodGet, "/path", nil, nil, Logging(logger), status)

			entries := logs.All()
			require.Len(t, entries, 1)
			assert.Equal(t, tc.expectedLevel, entries[0].Level)
			assert.Equal(t, tc.expectedMsg, entries[0].Message)
			fields := entries[0].ContextMap()
			assert.Equal(t, "/path", fields["path"])
			assert.EqualValues(t, tc.status, fields["status"])
		})
	}
}

func TestLoggingIncludesTraceID(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	_, _ = run(t, http.MethodGet, "/", nil, nil, Trace(false), Logging(zap.New(core)))

	require.Equal(t, 1, logs.Len())
	assert.NotEmpty(t, logs.All()[0].ContextMap()["trace_id"])
}

func TestCORS(t *testing.T) {
	cors := CORS(CORSConfig{
		Origins: []string{"https://example.com"},
		Methods: []string{"GET", "POST"},
		Headers: []string{"Content-Type"},
		MaxAge:  time.Hour,
	})

	w, reached := run(t, http.MethodGet, "/", nil, nil, cors)
	assert.True(t, reached)
	assert.Equal(t, "https://example.com", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "GET, POST", w.Header().Get("Access-Control-Allow-Methods"))
	assert.Equal(t, "Content-Type", w.Header().Get("Access-Control-Allow-Headers"))
	assert.Empty(t, w.Header().Get("Access-Control-Max-Age"))

	w, reached = run(t, http.MethodOptions, "/", nil, nil, cors)
	assert.False(t, reached)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "3600", w.Header().Get("Access-Control-Max-Age"))
}

func TestTrace(t *testing.T) {
	var seen string
	capture := func(req *common.Request, res *common.Response, next common.Next) error {
		seen = TraceIDFromRequest(req)
		next()
		return nil
	}

	w, _ := run(t, http.MethodGet, "/", nil, nil, Trace(false), capture)
	require.NotEmpty(t, seen)
	assert.Equal(t, seen, w.Header().Get(TraceIDHeader))

	withHeader := func(req *common.Request) { req.Raw().Header.Set(TraceIDHeader, "abc") }
	_, _ = run(t, http.MethodGet, "/", nil, withHeader, Trace(true), capture)
	assert.Equal(t, "abc", seen)

	_, _ = run(t, http.MethodGet, "/", nil, withHeader, Trace(false), capture)
	assert.NotEqual(t, "abc", seen)
}

func TestTraceIDMissing(t *testing.T) {
	req := common.NewRequest(httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, "", TraceIDFromRequest(req))
}
