package router

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/julienschmidt/httprouter"
)

// Method is an HTTP verb a route can be registered for.
type Method string

const (
	MethodGet     Method = http.MethodGet
	MethodPost    Method = http.MethodPost
	MethodPut     Method = http.MethodPut
	MethodPatch   Method = http.MethodPatch
	MethodDelete  Method = http.MethodDelete
	MethodHead    Method = http.MethodHead
	MethodOptions Method = http.MethodOptions

	// MethodAll matches every request method.
	MethodAll Method = "*"
)

var (
	// ErrInvalidPattern is returned when a path pattern is not well formed.
	ErrInvalidPattern = errors.New("invalid route pattern")

	// ErrInvalidMethod is returned when a route is registered for an unknown method.
	ErrInvalidMethod = errors.New("invalid route method")
)

// paramPrefix marks a path segment that binds the request segment to a name.
const paramPrefix = ":"

// Valid reports whether m is one of the known verbs or MethodAll.
func (m Method) Valid() bool {
	switch m {
	case MethodGet, MethodPost, MethodPut, MethodPatch, MethodDelete,
		MethodHead, MethodOptions, MethodAll:
		return true
	}
	return false
}

// Route is a registered route definition. It is immutable once registered.
type Route[H any] struct {
	Method  Method
	Pattern string
	Handler H

	segments []segment
}

type segment struct {
	value string // literal text, or the parameter name when param is true
	param bool
}

// RouteTable holds route definitions in registration order and resolves
// requests to the first definition that matches. It does not rank routes by
// specificity: when two patterns can both match a path, the one registered
// first wins.
type RouteTable[H any] struct {
	mu     sync.RWMutex
	routes []Route[H]
}

// NewRouteTable creates an empty route table.
func NewRouteTable[H any]() *RouteTable[H] {
	return &RouteTable[H]{}
}

// Register appends a route definition.
func (t *RouteTable[H]) Register(method Method, pattern string, h H) error {
	if !method.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidMethod, method)
	}
	segments, err := parsePattern(pattern)
	if err != nil {
		return err
	}

	t.mu.Lock()
	t.routes = append(t.routes, Route[H]{
		Method:   method,
		Pattern:  pattern,
		Handler:  h,
		segments: segments,
	})
	t.mu.Unlock()
	return nil
}

// Match returns the first route whose method and pattern match the request,
// together with the parameters bound by the pattern.
func (t *RouteTable[H]) Match(method, path string) (Route[H], httprouter.Params, bool) {
	parts := strings.Split(path, "/")

	t.mu.RLock()
	defer t.mu.RUnlock()

	for _, route := range t.routes {
		if route.Method != MethodAll && string(route.Method) != method {
			continue
		}
		if params, ok := route.match(parts); ok {
			return route, params, true
		}
	}

	var zero Route[H]
	return zero, nil, false
}

// Routes returns a copy of the registered routes in registration order.
func (t *RouteTable[H]) Routes() []Route[H] {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]Route[H], len(t.routes))
	copy(out, t.routes)
	return out
}

// Len returns the number of registered routes.
func (t *RouteTable[H]) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.routes)
}

func (r Route[H]) match(parts []string) (httprouter.Params, bool) {
	if len(parts) != len(r.segments) {
		return nil, false
	}
	var params httprouter.Params
	for i, seg := range r.segments {
		if seg.param {
			params = append(params, httprouter.Param{Key: seg.value, Value: parts[i]})
			continue
		}
		if seg.value != parts[i] {
			return nil, false
		}
	}
	return params, true
}

func parsePattern(pattern string) ([]segment, error) {
	if !strings.HasPrefix(pattern, "/") {
		return nil, fmt.Errorf("%w: %q must begin with /", ErrInvalidPattern, pattern)
	}
	parts := strings.Split(pattern, "/")
	segments := make([]segment, len(parts))
	for i, part := range parts {
		if strings.HasPrefix(part, paramPrefix) {
			name := part[len(paramPrefix):]
			if name == "" {
				return nil, fmt.Errorf("%w: %q has an unnamed parameter", ErrInvalidPattern, pattern)
			}
			segments[i] = segment{value: name, param: true}
			continue
		}
		segments[i] = segment{value: part}
	}
	return segments, nil
}
