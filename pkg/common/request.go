package common

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/Vishwa-Ansh/vishwaexpo-framework/pkg/codec"
	"github.com/Vishwa-Ansh/vishwaexpo-framework/pkg/session"
	"github.com/julienschmidt/httprouter"
)

// Request is the per-request view handed to interceptors and handlers. It is
// built fresh for every request and discarded once the request completes.
type Request struct {
	Method string
	Path   string
	Query  url.Values

	// Params holds the values bound by the matched route pattern. It is
	// empty until a route matches.
	Params httprouter.Params

	// Route is the pattern of the matched route, or "" before a match.
	Route string

	// Body is the parsed body: map[string]any for JSON objects and forms,
	// another JSON value, or a string for other content types. It is nil for
	// GET requests, which are never parsed.
	Body     any
	BodyKind codec.Kind
	RawBody  []byte

	Session    *session.Session
	SessionID  string
	NewSession bool

	raw *http.Request
	ctx context.Context
}

// NewRequest builds a Request from the transport request, splitting the target
// into path and query. A malformed query string yields an empty mapping.
func NewRequest(r *http.Request) *Request {
	req := &Request{
		Method: r.Method,
		Query:  url.Values{},
		raw:    r,
		ctx:    r.Context(),
	}
	if r.URL != nil {
		req.Path = r.URL.Path
		if q, err := url.ParseQuery(r.URL.RawQuery); err == nil {
			req.Query = q
		}
	}
	return req
}

// Raw returns the underlying transport request.
func (r *Request) Raw() *http.Request {
	return r.raw
}

// Context returns the request context.
func (r *Request) Context() context.Context {
	return r.ctx
}

// WithValue stores val under key in the request context.
func (r *Request) WithValue(key, val any) {
	r.ctx = context.WithValue(r.ctx, key, val)
}

// Header returns the first value of the named request header.
func (r *Request) Header(name string) string {
	return r.raw.Header.Get(name)
}

// Param returns the value bound to a route parameter, or "".
func (r *Request) Param(name string) string {
	return r.Params.ByName(name)
}

// QueryValue returns the first value of the named query parameter, or "".
func (r *Request) QueryValue(name string) string {
	return r.Query.Get(name)
}

// SetRoute records the matched route and its parameters. The parameters are
// also stored in the context under httprouter.ParamsKey.
func (r *Request) SetRoute(pattern string, params httprouter.Params) {
	r.Route = pattern
	r.Params = params
	r.ctx = context.WithValue(r.ctx, httprouter.ParamsKey, params)
}

// Field returns a top-level field of an object or form body.
func (r *Request) Field(key string) (any, bool) {
	m, ok := r.Body.(map[string]any)
	if !ok {
		return nil, false
	}
	v, ok := m[key]
	return v, ok
}

// FieldString returns a top-level body field as a string. Missing fields,
// null and empty strings all read as "".
func (r *Request) FieldString(key string) string {
	v, ok := r.Field(key)
	if !ok || v == nil {
		return ""
	}
	switch val := v.(type) {
	case string:
		return val
	case []string:
		if len(val) > 0 {
			return val[0]
		}
		return ""
	default:
		return fmt.Sprint(val)
	}
}
