package memhub

import (
	"context"
	"sync"

	"github.com/epaulsen/ha-xcomfort-bridge/pkg/xcomfort"
)

type Room struct {
	hub   *Hub
	id    int
	name  string
	state *xcomfort.StateSubject[xcomfort.RoomState]

	mu        sync.Mutex
	setpoints map[xcomfort.RctMode]float64
	err       error
}

func (r *Room) RoomId() int { return r.id }

func (r *Room) Name() string { return r.name }

func (r *Room) State() *xcomfort.StateSubject[xcomfort.RoomState] { return r.state }

func (r *Room) Bridge() xcomfort.Bridge { return r.hub.bridge }

func (r *Room) ModeSetpoint(mode xcomfort.RctMode) (float64, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.setpoints[mode]
	return v, ok
}

func (r *Room) SetModeSetpoint(mode xcomfort.RctMode, setpoint float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.setpoints[mode] = setpoint
}

// FailWith makes SetMode return err until cleared with nil.
func (r *Room) FailWith(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.err = err
}

func (r *Room) SetMode(ctx context.Context, mode xcomfort.RctMode) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := r.hub.checkConnected(); err != nil {
		return err
	}
	r.mu.Lock()
	err := r.err
	setpoint, hasSetpoint := r.setpoints[mode]
	r.mu.Unlock()
	if err != nil {
		return err
	}

	r.update(func(s *xcomfort.RoomState) {
		s.Mode = xcomfort.Mode(mode)
		s.CurrentMode = xcomfort.Mode(mode)
		if hasSetpoint {
			s.Setpoint = xcomfort.Float(setpoint)
		}
	})
	return nil
}

// Push delivers a state snapshot to subscribers as if it came from the bridge.
func (r *Room) Push(state xcomfort.Optional[xcomfort.RoomState]) {
	if r.state == nil {
		return
	}
	r.state.Push(state)
}

func (r *Room) applyHeatingState(p xcomfort.HeatingStatePayload) {
	r.update(func(s *xcomfort.RoomState) {
		s.Setpoint = xcomfort.Float(p.Setpoint)
		s.Mode = xcomfort.Mode(xcomfort.RctMode(p.Mode))
		s.RctState = xcomfort.RctState(p.State)
	})
}

func (r *Room) update(fn func(*xcomfort.RoomState)) {
	if r.state == nil {
		return
	}
	current, _ := r.state.Value().Get()
	next := current
	fn(&next)
	r.state.Push(xcomfort.Some(next))
}
