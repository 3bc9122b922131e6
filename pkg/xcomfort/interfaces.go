// Package xcomfort describes the parts of an Eaton xComfort bridge client the
// bridge entities depend on. The transport to the physical bridge lives behind
// these interfaces.
package xcomfort

import "context"

type Hub interface {
	// Identifier is unique per configured bridge and is part of entity unique ids.
	Identifier() string
	// HubId is the device id of the bridge itself, used as via_device.
	HubId() string
	Rooms() []Room
	Devices() []Device
	Connect(ctx context.Context) error
	Close() error
}

type Bridge interface {
	SendMessage(ctx context.Context, msgType MessageType, payload any) error
	// SetpointRange returns the allowed setpoint range for mode.
	SetpointRange(mode RctMode) (SetpointRange, bool)
}

type Room interface {
	RoomId() int
	Name() string
	// State returns the room's state stream, or nil when the bridge does not
	// report state for this room.
	State() *StateSubject[RoomState]
	SetMode(ctx context.Context, mode RctMode) error
	Bridge() Bridge
	ModeSetpoint(mode RctMode) (float64, bool)
	SetModeSetpoint(mode RctMode, setpoint float64)
}

type Device interface {
	DeviceId() int
	Name() string
}

type Light interface {
	Device
	Dimmable() bool
	State() *StateSubject[LightState]
	Switch(ctx context.Context, on bool) error
	Dimm(ctx context.Context, value int) error
}
