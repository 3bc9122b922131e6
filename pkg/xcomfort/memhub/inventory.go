package memhub

import (
	"fmt"
	"io"
	"os"

	"github.com/epaulsen/ha-xcomfort-bridge/pkg/xcomfort"

	"gopkg.in/yaml.v3"
)

// Inventory describes the rooms and lights of an in-memory bridge.
//
//	identifier: home
//	hub_id: bridge_1
//	setpoint_ranges:
//	  comfort: {min: 18, max: 40}
//	rooms:
//	  - id: 1
//	    name: Living room
//	    setpoint: 21
//	    temperature: 20.5
//	    mode: comfort
//	lights:
//	  - id: 10
//	    name: Ceiling
//	    dimmable: true
//	    dimm_value: 50
type Inventory struct {
	Identifier     string               `yaml:"identifier"`
	HubId          string               `yaml:"hub_id"`
	SetpointRanges map[string]RangeSpec `yaml:"setpoint_ranges"`
	Rooms          []RoomSpec           `yaml:"rooms"`
	Lights         []LightSpec          `yaml:"lights"`
}

type RangeSpec struct {
	Min float64 `yaml:"min"`
	Max float64 `yaml:"max"`
}

type RoomSpec struct {
	Id          int      `yaml:"id"`
	Name        string   `yaml:"name"`
	NoState     bool     `yaml:"no_state"`
	Setpoint    *float64 `yaml:"setpoint"`
	Temperature *float64 `yaml:"temperature"`
	Humidity    *float64 `yaml:"humidity"`
	Power       *float64 `yaml:"power"`
	Mode        string   `yaml:"mode"`
}

type LightSpec struct {
	Id        int    `yaml:"id"`
	Name      string `yaml:"name"`
	Dimmable  bool   `yaml:"dimmable"`
	NoState   bool   `yaml:"no_state"`
	On        bool   `yaml:"on"`
	DimmValue *int   `yaml:"dimm_value"`
}

func LoadInventoryFile(path string) (*Inventory, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open inventory: %w", err)
	}
	defer f.Close()
	return LoadInventory(f)
}

func LoadInventory(r io.Reader) (*Inventory, error) {
	var inv Inventory
	if err := yaml.NewDecoder(r).Decode(&inv); err != nil {
		return nil, fmt.Errorf("decode inventory: %w", err)
	}
	seenRooms := map[int]bool{}
	for _, room := range inv.Rooms {
		if seenRooms[room.Id] {
			return nil, fmt.Errorf("duplicate room id %d", room.Id)
		}
		seenRooms[room.Id] = true
	}
	seenLights := map[int]bool{}
	for _, light := range inv.Lights {
		if seenLights[light.Id] {
			return nil, fmt.Errorf("duplicate light id %d", light.Id)
		}
		if light.DimmValue != nil && (*light.DimmValue < 0 || *light.DimmValue > 99) {
			return nil, fmt.Errorf("light %d: dimm_value must be within 0..99", light.Id)
		}
		seenLights[light.Id] = true
	}
	return &inv, nil
}

// Build creates a Hub from the inventory. identifier and hubId are used when
// the inventory leaves them empty.
func (inv *Inventory) Build(identifier, hubId string) (*Hub, error) {
	if inv.Identifier != "" {
		identifier = inv.Identifier
	}
	if inv.HubId != "" {
		hubId = inv.HubId
	}
	hub := NewHub(identifier, hubId)

	for name, spec := range inv.SetpointRanges {
		mode, err := xcomfort.ParseRctMode(name)
		if err != nil {
			return nil, err
		}
		if spec.Min > spec.Max {
			return nil, fmt.Errorf("setpoint range %s: min %.1f > max %.1f", name, spec.Min, spec.Max)
		}
		hub.SetSetpointRange(mode, xcomfort.SetpointRange{Min: spec.Min, Max: spec.Max})
	}

	for _, spec := range inv.Rooms {
		if spec.NoState {
			hub.AddRoom(spec.Id, spec.Name, nil)
			continue
		}
		state := xcomfort.RoomState{
			Setpoint:    spec.Setpoint,
			Temperature: spec.Temperature,
			Humidity:    spec.Humidity,
			Power:       spec.Power,
		}
		if spec.Mode != "" {
			mode, err := xcomfort.ParseRctMode(spec.Mode)
			if err != nil {
				return nil, fmt.Errorf("room %d: %w", spec.Id, err)
			}
			state.Mode = xcomfort.Mode(mode)
		}
		room := hub.AddRoom(spec.Id, spec.Name, &state)
		if spec.Setpoint != nil && state.Mode != nil {
			room.SetModeSetpoint(*state.Mode, *spec.Setpoint)
		}
	}

	for _, spec := range inv.Lights {
		if spec.NoState {
			hub.AddLight(spec.Id, spec.Name, spec.Dimmable, nil)
			continue
		}
		hub.AddLight(spec.Id, spec.Name, spec.Dimmable, &xcomfort.LightState{
			Switch:    spec.On,
			DimmValue: spec.DimmValue,
		})
	}
	return hub, nil
}
