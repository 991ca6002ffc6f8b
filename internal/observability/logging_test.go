package observability

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
)

func TestWithRunID(t *testing.T) {
	ctx := WithRunID(context.Background(), "run-123")

	lc := GetContext(ctx)
	if lc.RunID != "run-123" {
		t.Errorf("expected run-123, got %s", lc.RunID)
	}
}

func TestContextChaining(t *testing.T) {
	ctx := context.Background()
	ctx = WithRunID(ctx, "run-1")
	ctx = WithStage(ctx, "parse")
	ctx = WithDoc(ctx, "pkg/mod.py")

	lc := GetContext(ctx)
	if lc.RunID != "run-1" || lc.Stage != "parse" || lc.Doc != "pkg/mod.py" {
		t.Errorf("unexpected context: %+v", lc)
	}
}

func TestContextIsolation(t *testing.T) {
	base := WithStage(context.Background(), "discover")
	child := WithStage(base, "render")

	if GetContext(base).Stage != "discover" {
		t.Errorf("parent context was modified: %+v", GetContext(base))
	}
	if GetContext(child).Stage != "render" {
		t.Errorf("expected render, got %s", GetContext(child).Stage)
	}
}

func TestEmptyContext(t *testing.T) {
	lc := GetContext(context.Background())
	if lc.RunID != "" || lc.Stage != "" || lc.Doc != "" || lc.Logger != nil {
		t.Errorf("expected empty log context, got %+v", lc)
	}
}

func TestInfoContextUsesInjectedLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	ctx := WithLogger(context.Background(), logger)
	ctx = WithRunID(ctx, "run-1")
	ctx = WithDoc(ctx, "docs/guide.md")

	InfoContext(ctx, "test message", slog.String("extra", "value"))

	output := buf.String()
	for _, want := range []string{`"run_id":"run-1"`, `"document":"docs/guide.md"`, `"extra":"value"`, "test message"} {
		if !strings.Contains(output, want) {
			t.Errorf("expected %s in log output: %s", want, output)
		}
	}
}

func TestWarnContextFallsBackToDefault(t *testing.T) {
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewJSONHandler(&buf, nil)))
	t.Cleanup(func() { slog.SetDefault(prev) })

	WarnContext(WithStage(context.Background(), "resolve"), "warning message")

	output := buf.String()
	if !strings.Contains(output, `"stage":"resolve"`) {
		t.Errorf("expected stage in log output: %s", output)
	}
	if !strings.Contains(output, "warning message") {
		t.Error("expected message in log output")
	}
}

func TestDebugContextRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	ctx := WithLogger(context.Background(), slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo})))

	DebugContext(ctx, "hidden")
	ErrorContext(ctx, "shown")

	if strings.Contains(buf.String(), "hidden") {
		t.Errorf("debug message should be filtered: %s", buf.String())
	}
	if !strings.Contains(buf.String(), "shown") {
		t.Errorf("expected error message: %s", buf.String())
	}
}
