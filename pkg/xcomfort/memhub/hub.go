// Package memhub is an in-memory xComfort bridge. Commands are applied to the
// stored state and echoed back as pushes, the way the physical bridge
// confirms them.
package memhub

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/epaulsen/ha-xcomfort-bridge/pkg/xcomfort"
)

var ErrNotConnected = errors.New("memhub: bridge not connected")

type Hub struct {
	identifier string
	hubId      string
	bridge     *Bridge
	rooms      []*Room
	lights     []*Light

	mu        sync.RWMutex
	connected bool
}

func NewHub(identifier, hubId string) *Hub {
	h := &Hub{
		identifier: identifier,
		hubId:      hubId,
	}
	h.bridge = &Bridge{hub: h, ranges: DefaultSetpointRanges()}
	return h
}

func DefaultSetpointRanges() map[xcomfort.RctMode]xcomfort.SetpointRange {
	return map[xcomfort.RctMode]xcomfort.SetpointRange{
		xcomfort.RctModeCool:    {Min: 5, Max: 20},
		xcomfort.RctModeEco:     {Min: 10, Max: 30},
		xcomfort.RctModeComfort: {Min: 18, Max: 40},
	}
}

func (h *Hub) Identifier() string { return h.identifier }

func (h *Hub) HubId() string { return h.hubId }

func (h *Hub) Rooms() []xcomfort.Room {
	rooms := make([]xcomfort.Room, 0, len(h.rooms))
	for _, r := range h.rooms {
		rooms = append(rooms, r)
	}
	return rooms
}

func (h *Hub) Devices() []xcomfort.Device {
	devices := make([]xcomfort.Device, 0, len(h.lights))
	for _, l := range h.lights {
		devices = append(devices, l)
	}
	return devices
}

func (h *Hub) Connect(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.connected = true
	return nil
}

func (h *Hub) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.connected = false
	return nil
}

func (h *Hub) Connected() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.connected
}

func (h *Hub) Bridge() *Bridge { return h.bridge }

func (h *Hub) SetSetpointRange(mode xcomfort.RctMode, r xcomfort.SetpointRange) {
	h.bridge.mu.Lock()
	defer h.bridge.mu.Unlock()
	h.bridge.ranges[mode] = r
}

// AddRoom registers a room. A nil state means the bridge exposes no state
// stream for the room.
func (h *Hub) AddRoom(id int, name string, state *xcomfort.RoomState) *Room {
	r := &Room{
		hub:       h,
		id:        id,
		name:      name,
		setpoints: map[xcomfort.RctMode]float64{},
	}
	if state != nil {
		r.state = xcomfort.NewStateSubject(xcomfort.Some(*state))
	}
	h.rooms = append(h.rooms, r)
	return r
}

func (h *Hub) AddLight(id int, name string, dimmable bool, state *xcomfort.LightState) *Light {
	l := &Light{
		hub:      h,
		id:       id,
		name:     name,
		dimmable: dimmable,
	}
	if state != nil {
		l.state = xcomfort.NewStateSubject(xcomfort.Some(*state))
	}
	h.lights = append(h.lights, l)
	return l
}

func (h *Hub) Room(id int) (*Room, bool) {
	for _, r := range h.rooms {
		if r.id == id {
			return r, true
		}
	}
	return nil, false
}

func (h *Hub) Light(id int) (*Light, bool) {
	for _, l := range h.lights {
		if l.id == id {
			return l, true
		}
	}
	return nil, false
}

func (h *Hub) checkConnected() error {
	if !h.Connected() {
		return ErrNotConnected
	}
	return nil
}

// SentMessage is a message recorded by Bridge.SendMessage.
type SentMessage struct {
	Type    xcomfort.MessageType
	Payload []byte
}

type Bridge struct {
	hub *Hub

	mu     sync.Mutex
	ranges map[xcomfort.RctMode]xcomfort.SetpointRange
	sent   []SentMessage
	err    error
}

func (b *Bridge) SetpointRange(mode xcomfort.RctMode) (xcomfort.SetpointRange, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	r, ok := b.ranges[mode]
	return r, ok
}

// FailWith makes every following SendMessage return err. A nil err clears it.
func (b *Bridge) FailWith(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.err = err
}

func (b *Bridge) Sent() []SentMessage {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]SentMessage(nil), b.sent...)
}

func (b *Bridge) SendMessage(ctx context.Context, msgType xcomfort.MessageType, payload any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := b.hub.checkConnected(); err != nil {
		return err
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("memhub: encode message %d: %w", msgType, err)
	}

	b.mu.Lock()
	if b.err != nil {
		err := b.err
		b.mu.Unlock()
		return err
	}
	b.sent = append(b.sent, SentMessage{Type: msgType, Payload: raw})
	b.mu.Unlock()

	if msgType == xcomfort.MessageSetHeatingState {
		var heating xcomfort.HeatingStatePayload
		if err := json.Unmarshal(raw, &heating); err != nil {
			return fmt.Errorf("memhub: decode heating state: %w", err)
		}
		if room, ok := b.hub.Room(heating.RoomId); ok {
			room.applyHeatingState(heating)
		}
	}
	return nil
}
