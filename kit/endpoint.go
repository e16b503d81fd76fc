// Package kit holds the request plumbing shared by the command line and the
// MCP surface: context tags and the generic Endpoint shape.
package kit

import "context"

// Endpoint is a transport-agnostic operation.
type Endpoint func(ctx context.Context, req any) (any, error)

// Middleware decorates an Endpoint.
type Middleware func(Endpoint) Endpoint

// Chain composes middlewares; the first one is the outermost.
func Chain(mws ...Middleware) Middleware {
	return func(next Endpoint) Endpoint {
		for i := len(mws) - 1; i >= 0; i-- {
			next = mws[i](next)
		}
		return next
	}
}
