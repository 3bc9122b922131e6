package domain

import "fmt"

type StateUpdateEventMixIn struct {
	Id string `json:"id"`
}

// StateUpdateEvent carries the state of one entity (or of the bridge) to the
// MQTT publisher.
type StateUpdateEvent interface {
	StateUpdateEvent() string
	EntityId() string
}

func (e StateUpdateEventMixIn) StateUpdateEvent() string {
	return fmt.Sprintf("%T", e)
}

func (e StateUpdateEventMixIn) EntityId() string {
	return e.Id
}

type ClimateStateUpdateEvent struct {
	StateUpdateEventMixIn
	CurrentTemperature float64 `json:"current_temperature"`
	TargetTemperature  float64 `json:"target_temperature"`
	Humidity           *int    `json:"current_humidity,omitempty"`
	Action             string  `json:"action"`
	PresetMode         string  `json:"preset_mode,omitempty"`
	Mode               string  `json:"mode"`
	MinTemp            float64 `json:"min_temp"`
	MaxTemp            float64 `json:"max_temp"`
}

type LightStateUpdateEvent struct {
	StateUpdateEventMixIn
	On         bool `json:"on"`
	Brightness *int `json:"brightness,omitempty"`
}

type BridgeStateUpdateEvent struct {
	StateUpdateEventMixIn
	Value bool `json:"value"`
}
