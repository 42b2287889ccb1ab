package server

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/matzehuels/authornet/pkg/observability"
)

func TestMetricsHooks(t *testing.T) {
	m := NewMetrics()
	m.Install()
	defer observability.Reset()

	ctx := context.Background()
	observability.Selection().OnTransition(ctx, "drag_start", false, 2, time.Microsecond)
	observability.Selection().OnTransition(ctx, "focus", true, 2, time.Microsecond)
	observability.Selection().OnLayoutSettled(ctx, "force", 120)
	observability.Render().OnRenderComplete(ctx, "svg", time.Millisecond, nil)
	observability.Render().OnRenderComplete(ctx, "svg", time.Millisecond, errors.New("boom"))
	observability.Cache().OnCacheHit(ctx, "layout")
	observability.Cache().OnCacheMiss(ctx, "layout")
	observability.Cache().OnCacheSet(ctx, "artifact", 512)
	observability.Session().OnSessionOpen(ctx, "memory")
	observability.Session().OnSessionOpen(ctx, "memory")
	observability.Session().OnSessionClose(ctx, "memory", time.Second)

	tests := []struct {
		name string
		got  float64
		want float64
	}{
		{"applied transitions", testutil.ToFloat64(m.Transitions.WithLabelValues("drag_start", "false")), 1},
		{"ignored transitions", testutil.ToFloat64(m.Transitions.WithLabelValues("focus", "true")), 1},
		{"selection size", testutil.ToFloat64(m.SelectionSize), 2},
		{"settled layouts", testutil.ToFloat64(m.LayoutSettled.WithLabelValues("force")), 1},
		{"successful renders", testutil.ToFloat64(m.Renders.WithLabelValues("svg", "ok")), 1},
		{"failed renders", testutil.ToFloat64(m.Renders.WithLabelValues("svg", "error")), 1},
		{"cache hits", testutil.ToFloat64(m.CacheRequests.WithLabelValues("layout", "hit")), 1},
		{"cache misses", testutil.ToFloat64(m.CacheRequests.WithLabelValues("layout", "miss")), 1},
		{"cache bytes", testutil.ToFloat64(m.CacheBytes.WithLabelValues("artifact")), 512},
		{"sessions opened", testutil.ToFloat64(m.SessionsOpened.WithLabelValues("memory")), 2},
		{"live sessions", testutil.ToFloat64(m.LiveSessions.WithLabelValues("memory")), 1},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("%s = %v, want %v", tt.name, tt.got, tt.want)
		}
	}
}

func TestNewMetricsPrivateRegistries(t *testing.T) {
	a, b := NewMetrics(), NewMetrics()
	if a.Registry() == b.Registry() {
		t.Error("collectors share a registry")
	}
	a.EventsDropped.Inc()
	if got := testutil.ToFloat64(b.EventsDropped); got != 0 {
		t.Errorf("second collector saw %v dropped events", got)
	}
}
