package common

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"
)

func newTestPair(t *testing.T, method, target string) (*Request, *Response, *httptest.ResponseRecorder) {
	t.Helper()
	r := httptest.NewRequest(method, target, nil)
	w := httptest.NewRecorder()
	return NewRequest(r), NewResponse(w, zaptest.NewLogger(t), false), w
}

func TestMiddlewareChainOrder(t *testing.T) {
	var order []string
	record := func(name string) Interceptor {
		return func(req *Request, res *Response, next Next) error {
			order = append(order, name)
			next()
			return nil
		}
	}

	chain := NewMiddlewareChain(zaptest.NewLogger(t), record("a"), record("b"))
	chain.Use(record("c"))
	chain.Prepend(record("first"))

	req, res, w := newTestPair(t, http.MethodGet, "/")
	chain.Run(req, res, func() {
		order = append(order, "final")
		_ = res.Send("OK")
	})

	want := "first,a,b,c,final"
	if got := strings.Join(order, ","); got != want {
		t.Errorf("Expected order %q, got %q", want, got)
	}
	if w.Body.String() != "OK" {
		t.Errorf("Expected body %q, got %q", "OK", w.Body.String())
	}
	if chain.Len() != 4 {
		t.Errorf("Expected 4 interceptors, got %d", chain.Len())
	}
}

func TestMiddlewareChainHaltWithoutNext(t *testing.T) {
	laterRan := false
	finalRan := false
	chain := NewMiddlewareChain(zaptest.NewLogger(t),
		func(req *Request, res *Response, next Next) error {
			return res.Status(http.StatusUnauthorized).Send("no")
		},
		func(req *Request, res *Response, next Next) error {
			laterRan = true
			next()
			return nil
		},
	)

	req, res, w := newTestPair(t, http.MethodGet, "/")
	chain.Run(req, res, func() { finalRan = true })

	if laterRan || finalRan {
		t.Errorf("Expected chain to halt, later=%v final=%v", laterRan, finalRan)
	}
	if w.Code != http.StatusUnauthorized {
		t.Errorf("Expected status code %d, got %d", http.StatusUnauthorized, w.Code)
	}
}

func TestMiddlewareChainFault(t *testing.T) {
	testCases := []struct {
		name         string
		interceptor  Interceptor
		expectedCode int
		expectedBody string
	}{
		{
			name: "Panic",
			interceptor: func(req *Request, res *Response, next Next) error {
				panic("boom")
			},
			expectedCode: http.StatusInternalServerError,
			expectedBody: "Internal Server Error",
		},
		{
			name: "Error",
			interceptor: func(req *Request, res *Response, next Next) error {
				return errors.New("broken")
			},
			expectedCode: http.StatusInternalServerError,
			expectedBody: "Internal Server Error",
		},
		{
			name: "HTTPError",
			interceptor: func(req *Request, res *Response, next Next) error {
				return NewHTTPError(http.StatusForbidden, "forbidden")
			},
			expectedCode: http.StatusForbidden,
			expectedBody: `{"error":"forbidden"}`,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			laterRan := false
			chain := NewMiddlewareChain(zaptest.NewLogger(t),
				tc.interceptor,
				func(req *Request, res *Response, next Next) error {
					laterRan = true
					next()
					return nil
				},
			)

			req, res, w := newTestPair(t, http.MethodGet, "/")
			chain.Run(req, res, func() { _ = res.Send("unreachable") })

			if laterRan {
				t.Error("Expected later interceptor not to run")
			}
			if w.Code != tc.expectedCode {
				t.Errorf("Expected status code %d, got %d", tc.expectedCode, w.Code)
			}
			if w.Body.String() != tc.expectedBody {
				t.Errorf("Expected body %q, got %q", tc.expectedBody, w.Body.String())
			}
		})
	}
}

func TestMiddlewareChainFaultIsolatedPerRequest(t *testing.T) {
	chain := NewMiddlewareChain(zaptest.NewLogger(t), func(req *Request, res *Response, next Next) error {
		if req.Path == "/bad" {
			panic("bad request path")
		}
		next()
		return nil
	})

	req, res, w := newTestPair(t, http.MethodGet, "/bad")
	chain.Run(req, res, func() { _ = res.Send("ok") })
	if w.Code != http.StatusInternalServerError {
		t.Errorf("Expected status code %d, got %d", http.StatusInternalServerError, w.Code)
	}

	req, res, w = newTestPair(t, http.MethodGet, "/good")
	chain.Run(req, res, func() { _ = res.Send("ok") })
	if w.Code != http.StatusOK || w.Body.String() != "ok" {
		t.Errorf("Expected 200 ok, got %d %q", w.Code, w.Body.String())
	}
}

func TestMiddlewareChainCustomFaultHandler(t *testing.T) {
	var captured error
	chain := NewMiddlewareChain(zaptest.NewLogger(t), func(req *Request, res *Response, next Next) error {
		return errors.New("custom")
	})
	chain.OnFault(func(req *Request, res *Response, err error) {
		captured = err
		_ = res.Status(http.StatusTeapot).End()
	})

	req, res, w := newTestPair(t, http.MethodGet, "/")
	chain.Run(req, res, nil)

	if captured == nil || captured.Error() != "custom" {
		t.Errorf("Expected custom error, got %v", captured)
	}
	if w.Code != http.StatusTeapot {
		t.Errorf("Expected status code %d, got %d", http.StatusTeapot, w.Code)
	}
}

func TestMiddlewareChainDoubleNext(t *testing.T) {
	finalCount := 0
	chain := NewMiddlewareChain(zaptest.NewLogger(t), func(req *Request, res *Response, next Next) error {
		next()
		next()
		return nil
	})

	req, res, _ := newTestPair(t, http.MethodGet, "/")
	chain.Run(req, res, func() { finalCount++ })

	if finalCount != 1 {
		t.Errorf("Expected final to run once, ran %d times", finalCount)
	}
}

func TestMiddlewareChainNextAfterCommit(t *testing.T) {
	finalRan := false
	chain := NewMiddlewareChain(zaptest.NewLogger(t), func(req *Request, res *Response, next Next) error {
		_ = res.Send("early")
		next()
		return nil
	})

	req, res, w := newTestPair(t, http.MethodGet, "/")
	chain.Run(req, res, func() { finalRan = true })

	if finalRan {
		t.Error("Expected final not to run after the response was committed")
	}
	if w.Body.String() != "early" {
		t.Errorf("Expected body %q, got %q", "early", w.Body.String())
	}
}

func TestMiddlewareChainAsyncNext(t *testing.T) {
	chain := NewMiddlewareChain(zaptest.NewLogger(t), func(req *Request, res *Response, next Next) error {
		go func() {
			time.Sleep(10 * time.Millisecond)
			next()
		}()
		return nil
	})

	req, res, w := newTestPair(t, http.MethodGet, "/")
	chain.Run(req, res, func() { _ = res.Send("async") })

	select {
	case <-res.Done():
	case <-time.After(time.Second):
		t.Fatal("Timed out waiting for the async continuation")
	}
	if w.Body.String() != "async" {
		t.Errorf("Expected body %q, got %q", "async", w.Body.String())
	}
}

func TestMiddlewareChainSnapshot(t *testing.T) {
	chain := NewMiddlewareChain(zaptest.NewLogger(t))
	release := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)

	lateRan := false
	chain.Use(func(req *Request, res *Response, next Next) error {
		go func() {
			<-release
			next()
			wg.Done()
		}()
		return nil
	})

	req, res, _ := newTestPair(t, http.MethodGet, "/")
	chain.Run(req, res, func() { _ = res.End() })

	// Registered while the first request is suspended.
	chain.Use(func(req *Request, res *Response, next Next) error {
		lateRan = true
		next()
		return nil
	})
	close(release)
	wg.Wait()

	if lateRan {
		t.Error("Expected a late registration not to affect a run in progress")
	}
	if chain.Len() != 2 {
		t.Errorf("Expected 2 interceptors, got %d", chain.Len())
	}
}

func TestMiddlewareChainNilPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("Expected Use(nil) to panic")
		}
	}()
	NewMiddlewareChain(nil).Use(nil)
}
