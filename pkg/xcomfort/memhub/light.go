package memhub

import (
	"context"
	"fmt"
	"sync"

	"github.com/epaulsen/ha-xcomfort-bridge/pkg/xcomfort"
)

type Light struct {
	hub      *Hub
	id       int
	name     string
	dimmable bool
	state    *xcomfort.StateSubject[xcomfort.LightState]

	mu  sync.Mutex
	err error
}

func (l *Light) DeviceId() int { return l.id }

func (l *Light) Name() string { return l.name }

func (l *Light) Dimmable() bool { return l.dimmable }

func (l *Light) State() *xcomfort.StateSubject[xcomfort.LightState] { return l.state }

// FailWith makes Switch and Dimm return err until cleared with nil.
func (l *Light) FailWith(err error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.err = err
}

func (l *Light) Switch(ctx context.Context, on bool) error {
	if err := l.check(ctx); err != nil {
		return err
	}
	l.update(func(s *xcomfort.LightState) {
		s.Switch = on
	})
	return nil
}

func (l *Light) Dimm(ctx context.Context, value int) error {
	if err := l.check(ctx); err != nil {
		return err
	}
	if !l.dimmable {
		return fmt.Errorf("memhub: light %d is not dimmable", l.id)
	}
	if value < 0 || value > 99 {
		return fmt.Errorf("memhub: dim value %d out of range", value)
	}
	l.update(func(s *xcomfort.LightState) {
		s.Switch = value > 0
		s.DimmValue = xcomfort.Int(value)
	})
	return nil
}

func (l *Light) Push(state xcomfort.Optional[xcomfort.LightState]) {
	if l.state == nil {
		return
	}
	l.state.Push(state)
}

func (l *Light) check(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := l.hub.checkConnected(); err != nil {
		return err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.err
}

func (l *Light) update(fn func(*xcomfort.LightState)) {
	if l.state == nil {
		return
	}
	current, _ := l.state.Value().Get()
	next := current
	if current.DimmValue != nil {
		next.DimmValue = xcomfort.Int(*current.DimmValue)
	}
	fn(&next)
	l.state.Push(xcomfort.Some(next))
}
