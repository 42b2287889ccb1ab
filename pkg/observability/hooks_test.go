package observability

import (
	"context"
	"testing"
	"time"
)

type countingSelection struct {
	NoopSelectionHooks
	transitions int
}

func (c *countingSelection) OnTransition(context.Context, string, bool, int, time.Duration) {
	c.transitions++
}

func TestSetSelectionHooks(t *testing.T) {
	t.Cleanup(Reset)

	h := &countingSelection{}
	SetSelectionHooks(h)
	Selection().OnTransition(context.Background(), "drag_start", false, 1, time.Millisecond)
	if h.transitions != 1 {
		t.Errorf("transitions = %d, want 1", h.transitions)
	}

	SetSelectionHooks(nil)
	if Selection() != SelectionHooks(h) {
		t.Error("nil hooks replaced the registered hooks")
	}

	Reset()
	if _, ok := Selection().(NoopSelectionHooks); !ok {
		t.Errorf("Selection() after Reset = %T", Selection())
	}
}

func TestDefaultsAreNoop(t *testing.T) {
	ctx := context.Background()
	Render().OnRenderStart(ctx, "svg", 3)
	Render().OnRenderComplete(ctx, "svg", time.Second, nil)
	Cache().OnCacheHit(ctx, "svg")
	Session().OnSessionOpen(ctx, "memory")
	Session().OnSessionClose(ctx, "memory", time.Minute)
	Selection().OnLayoutSettled(ctx, "force", 300)
}
