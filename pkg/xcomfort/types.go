package xcomfort

import "fmt"

// RctMode selects the allowed setpoint range of an RC Touch unit.
type RctMode int

const (
	RctModeCool    RctMode = 1
	RctModeEco     RctMode = 2
	RctModeComfort RctMode = 3
)

func (m RctMode) String() string {
	switch m {
	case RctModeCool:
		return "Cool"
	case RctModeEco:
		return "Eco"
	case RctModeComfort:
		return "Comfort"
	default:
		return fmt.Sprintf("RctMode(%d)", int(m))
	}
}

func (m RctMode) Valid() bool {
	return m == RctModeCool || m == RctModeEco || m == RctModeComfort
}

func ParseRctMode(s string) (RctMode, error) {
	switch s {
	case "Cool", "cool":
		return RctModeCool, nil
	case "Eco", "eco":
		return RctModeEco, nil
	case "Comfort", "comfort":
		return RctModeComfort, nil
	}
	return 0, fmt.Errorf("unknown rct mode %q", s)
}

type RctState int

const (
	RctStateIdle   RctState = 0
	RctStateActive RctState = 2
)

// MessageType identifies a bridge message.
type MessageType int

const (
	MessageSetHeatingState MessageType = 353
)

type SetpointRange struct {
	Min float64
	Max float64
}

// Clamp returns value limited to [Min, Max].
func (r SetpointRange) Clamp(value float64) float64 {
	if value > r.Max {
		value = r.Max
	}
	if value < r.Min {
		value = r.Min
	}
	return value
}

// RoomState is the last snapshot pushed by the bridge for a room. Fields the
// bridge did not report are nil.
type RoomState struct {
	Setpoint    *float64
	Temperature *float64
	Humidity    *float64
	Power       *float64
	Mode        *RctMode
	CurrentMode *RctMode
	RctState    RctState
}

type LightState struct {
	Switch    bool
	DimmValue *int
}

// HeatingStatePayload is the body of a MessageSetHeatingState message.
type HeatingStatePayload struct {
	RoomId    int     `json:"roomId"`
	Mode      int     `json:"mode"`
	State     int     `json:"state"`
	Setpoint  float64 `json:"setpoint"`
	Confirmed bool    `json:"confirmed"`
}

func Float(v float64) *float64 {
	return &v
}

func Int(v int) *int {
	return &v
}

func Mode(m RctMode) *RctMode {
	return &m
}
