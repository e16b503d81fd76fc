package kit

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"
)

// Logging logs every call with its duration, tagged with the operation
// name and the transport it arrived on.
func Logging(logger *slog.Logger, op string) Middleware {
	return func(next Endpoint) Endpoint {
		return func(ctx context.Context, req any) (any, error) {
			start := time.Now()
			resp, err := next(ctx, req)
			dur := time.Since(start)

			if err != nil {
				logger.ErrorContext(ctx, "call failed",
					"op", op,
					"transport", GetTransport(ctx),
					"duration_ms", dur.Milliseconds(),
					"error", err)
			} else {
				logger.DebugContext(ctx, "call ok",
					"op", op,
					"transport", GetTransport(ctx),
					"duration_ms", dur.Milliseconds())
			}
			return resp, err
		}
	}
}

// ErrPanic wraps a recovered panic value as an error.
type ErrPanic struct {
	Value any
}

func (e *ErrPanic) Error() string {
	return fmt.Sprintf("kit: endpoint panicked: %v", e.Value)
}

// Recovery converts panics in downstream endpoints into *ErrPanic.
func Recovery(logger *slog.Logger) Middleware {
	return func(next Endpoint) Endpoint {
		return func(ctx context.Context, req any) (resp any, err error) {
			defer func() {
				if r := recover(); r != nil {
					logger.ErrorContext(ctx, "endpoint panic recovered",
						"panic", r,
						"stack", string(debug.Stack()))
					err = &ErrPanic{Value: r}
				}
			}()
			return next(ctx, req)
		}
	}
}
