package scene

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/matzehuels/authornet/pkg/selection"
)

// Loop owns a scene on a single goroutine and serves requests from others.
type Loop struct {
	scene    *Scene
	interval time.Duration
	cmds     chan func(*Scene)
	done     chan struct{}

	mu       sync.Mutex
	onChange []func(*Scene, selection.Change)
	onTick   []func(*Scene)
}

// NewLoop wraps s. Call Run to start serving.
func NewLoop(s *Scene, interval time.Duration) *Loop {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Loop{
		scene:    s,
		interval: interval,
		cmds:     make(chan func(*Scene)),
		done:     make(chan struct{}),
	}
}

// OnChange registers fn to run on the loop goroutine after every applied
// event that was not a no-op.
func (l *Loop) OnChange(fn func(*Scene, selection.Change)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.onChange = append(l.onChange, fn)
}

// OnTick registers fn to run on the loop goroutine after every layout
// tick, including the one on which the layout settles.
func (l *Loop) OnTick(fn func(*Scene)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.onTick = append(l.onTick, fn)
}

// Run serves requests and ticks the layout until ctx is cancelled.
func (l *Loop) Run(ctx context.Context) error {
	defer close(l.done)
	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case fn := <-l.cmds:
			fn(l.scene)
		case <-ticker.C:
			if l.scene.Settled() {
				continue
			}
			l.scene.Step()
			for _, fn := range l.tickHandlers() {
				fn(l.scene)
			}
		}
	}
}

// Done is closed when Run returns.
func (l *Loop) Done() <-chan struct{} { return l.done }

// Do runs fn on the loop goroutine and waits for it to finish.
func (l *Loop) Do(ctx context.Context, fn func(*Scene)) error {
	finished := make(chan struct{})
	cmd := func(s *Scene) {
		defer close(finished)
		fn(s)
	}
	select {
	case l.cmds <- cmd:
	case <-l.done:
		return context.Canceled
	case <-ctx.Done():
		return ctx.Err()
	}
	<-finished
	return nil
}

// Submit applies ev on the loop goroutine and returns its change.
func (l *Loop) Submit(ctx context.Context, ev selection.Event) (selection.Change, error) {
	var (
		ch  selection.Change
		err error
	)
	if doErr := l.Do(ctx, func(s *Scene) {
		ch, err = s.Handle(ctx, ev)
		if err == nil && !ch.Noop {
			for _, fn := range l.changeHandlers() {
				fn(s, ch)
			}
		}
	}); doErr != nil {
		return selection.Change{}, doErr
	}
	return ch, err
}

func (l *Loop) changeHandlers() []func(*Scene, selection.Change) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return slices.Clone(l.onChange)
}

func (l *Loop) tickHandlers() []func(*Scene) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return slices.Clone(l.onTick)
}
