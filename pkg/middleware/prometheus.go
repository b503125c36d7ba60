package middleware

import (
	"github.com/Vishwa-Ansh/vishwaexpo-framework/pkg/common"
	"github.com/Vishwa-Ansh/vishwaexpo-framework/pkg/metrics"
)

// unmatchedRoute labels requests no route matched, keeping label
// cardinality bounded.
const unmatchedRoute = "unmatched"

// Metrics is an interceptor that records every request in collector once its
// response is written. Requests are labelled by route pattern, not by path.
func Metrics(collector *metrics.Collector) common.Interceptor {
	return func(req *common.Request, res *common.Response, next common.Next) error {
		done := collector.Begin()
		res.OnCommit(func(res *common.Response) {
			route := req.Route
			if route == "" {
				route = unmatchedRoute
			}
			done(req.Method, route, res.StatusCode(), res.BytesWritten())
		})
		next()
		return nil
	}
}
