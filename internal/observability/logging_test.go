package observability

import (
	"context"
	"testing"
)

func TestContextAccumulation(t *testing.T) {
	ctx := context.Background()
	ctx = WithBuildID(ctx, "b1")
	ctx = WithProject(ctx, "artyz7")
	ctx = WithStage(ctx, "run_sphinx")

	lc := GetContext(ctx)
	if lc.BuildID != "b1" || lc.Project != "artyz7" || lc.Stage != "run_sphinx" {
		t.Fatalf("unexpected log context: %+v", lc)
	}
}

func TestContextOverwrite(t *testing.T) {
	ctx := WithStage(context.Background(), "badges")
	ctx = WithStage(ctx, "coverage")

	if got := GetContext(ctx).Stage; got != "coverage" {
		t.Fatalf("expected stage overwrite to coverage, got %s", got)
	}
}

func TestEmptyContext(t *testing.T) {
	if attrs := getLogAttrs(context.Background()); len(attrs) != 0 {
		t.Fatalf("expected no attrs from empty context, got %d", len(attrs))
	}
}
