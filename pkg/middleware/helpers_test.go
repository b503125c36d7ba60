package middleware

import (
	"io"
	"net/http/httptest"
	"testing"

	"github.com/Vishwa-Ansh/vishwaexpo-framework/pkg/common"
	"go.uber.org/zap/zaptest"
)

// run pushes one request through interceptors and answers "OK" when the
// chain is exhausted. It reports whether the final handler ran.
func run(t *testing.T, method, target string, body io.Reader, prepare func(*common.Request), interceptors ...common.Interceptor) (*httptest.ResponseRecorder, bool) {
	t.Helper()
	r := httptest.NewRequest(method, target, body)
	w := httptest.NewRecorder()
	req := common.NewRequest(r)
	if prepare != nil {
		prepare(req)
	}
	res := common.NewResponse(w, zaptest.NewLogger(t), false)

	reached := false
	common.NewMiddlewareChain(zaptest.NewLogger(t), interceptors...).Run(req, res, func() {
		reached = true
		_ = res.Send("OK")
	})
	<-res.Done()
	return w, reached
}
