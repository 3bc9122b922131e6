package domain

type Device struct {
	Id           string
	Name         string
	Version      string
	Model        string
	Manufacturer string
	ViaDevice    string
}

// Component is an entity descriptor published through discovery.
type Component interface {
	ComponentType() string
	ComponentId() string
}

type GenericSensor struct {
	Device           Device
	Id               string
	SensorType       string
	Name             string
	UniqueId         string
	DeviceClass      string // connectivity
	EntityCategory   string // diagnostic, config, nil
	EnabledByDefault *bool
	Icon             string
}

func (s GenericSensor) ComponentType() string { return s.SensorType }

func (s GenericSensor) ComponentId() string { return s.Id }

type GenericClimate struct {
	Device          Device
	Id              string
	Name            string
	UniqueId        string
	Icon            string
	Modes           []string
	PresetModes     []string
	MinTemp         float64
	MaxTemp         float64
	TempStep        float64
	TemperatureUnit string
}

func (c GenericClimate) ComponentType() string { return COMPONENT_TYPE_CLIMATE }

func (c GenericClimate) ComponentId() string { return c.Id }

type GenericLight struct {
	Device              Device
	Id                  string
	Name                string
	UniqueId            string
	Icon                string
	SupportedColorModes []string
	Brightness          bool
	BrightnessScale     int
}

func (l GenericLight) ComponentType() string { return COMPONENT_TYPE_LIGHT }

func (l GenericLight) ComponentId() string { return l.Id }

const (
	COMPONENT_TYPE_CLIMATE       = "climate"
	COMPONENT_TYPE_LIGHT         = "light"
	COMPONENT_TYPE_BINARY_SENSOR = "binary_sensor"
)

const (
	SENSOR_ID_BRIDGE_STATE = "bridge_state"
)
