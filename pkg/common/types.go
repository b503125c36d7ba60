// Package common provides shared types and utilities used across the
// vishwaexpo framework: the per-request Request and Response, and the
// middleware chain that runs between them.
package common

// Handler handles a request that matched a route. The handler owns producing
// the final response. A returned error, like a panic, is treated as a fault:
// it is logged and answered with a server error if nothing was written yet.
type Handler func(req *Request, res *Response) error

// Next hands control to the next interceptor in the chain, or to route
// dispatch once the chain is exhausted. It may be called synchronously or
// later from another goroutine, at most once.
type Next func()

// Interceptor is a unit of pre-processing logic run in registration order
// before route dispatch. It must either call next exactly once or end the
// response itself.
type Interceptor func(req *Request, res *Response, next Next) error

// FaultHandler produces the response for a failed interceptor or handler.
type FaultHandler func(req *Request, res *Response, err error)
