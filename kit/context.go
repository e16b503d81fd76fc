package kit

import "context"

type contextKey string

const (
	RunIDKey     contextKey = "kit_run_id"
	SourceKey    contextKey = "kit_source"
	TransportKey contextKey = "kit_transport" // "cli", "mcp"
)

// WithRunID tags ctx with the extraction run being executed.
func WithRunID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, RunIDKey, id)
}
func GetRunID(ctx context.Context) string {
	v, _ := ctx.Value(RunIDKey).(string)
	return v
}

// WithSource tags ctx with the source name being extracted.
func WithSource(ctx context.Context, name string) context.Context {
	return context.WithValue(ctx, SourceKey, name)
}
func GetSource(ctx context.Context) string {
	v, _ := ctx.Value(SourceKey).(string)
	return v
}

func WithTransport(ctx context.Context, t string) context.Context {
	return context.WithValue(ctx, TransportKey, t)
}
func GetTransport(ctx context.Context) string {
	if v, ok := ctx.Value(TransportKey).(string); ok {
		return v
	}
	return "cli"
}
