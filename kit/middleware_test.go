package kit

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
)

func TestRecovery_ConvertsPanic(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	base := func(_ context.Context, _ any) (any, error) {
		panic("kaboom")
	}

	_, err := Recovery(logger)(base)(context.Background(), nil)
	var perr *ErrPanic
	if !errors.As(err, &perr) {
		t.Fatalf("error: got %v, want *ErrPanic", err)
	}
	if perr.Value != "kaboom" {
		t.Fatalf("panic value: got %v", perr.Value)
	}
}

func TestLogging_RecordsFailure(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	errFail := errors.New("fail")
	base := func(_ context.Context, _ any) (any, error) {
		return nil, errFail
	}

	ctx := WithTransport(context.Background(), "mcp")
	if _, err := Logging(logger, "footprint_extract")(base)(ctx, nil); !errors.Is(err, errFail) {
		t.Fatalf("error: got %v", err)
	}
	out := buf.String()
	for _, want := range []string{"level=ERROR", "op=footprint_extract", "transport=mcp", "error=fail"} {
		if !strings.Contains(out, want) {
			t.Errorf("log missing %q: %s", want, out)
		}
	}
}
