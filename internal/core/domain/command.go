package domain

// EntityCommand is a host command addressed to a single entity.
type EntityCommand interface {
	EntityCommand() string
}

type SetTemperatureCommand struct {
	Temperature float64
}

func (c SetTemperatureCommand) EntityCommand() string {
	return "set_temperature"
}

type SetPresetModeCommand struct {
	PresetMode string
}

func (c SetPresetModeCommand) EntityCommand() string {
	return "set_preset_mode"
}

// TurnOnCommand switches a light on. Brightness is on the host scale (0-255)
// and is nil when the host did not ask for a level.
type TurnOnCommand struct {
	Brightness *int
}

func (c TurnOnCommand) EntityCommand() string {
	return "turn_on"
}

type TurnOffCommand struct{}

func (c TurnOffCommand) EntityCommand() string {
	return "turn_off"
}

// ensure interface compliance
var (
	_ EntityCommand = SetTemperatureCommand{}
	_ EntityCommand = SetPresetModeCommand{}
	_ EntityCommand = TurnOnCommand{}
	_ EntityCommand = TurnOffCommand{}
)
