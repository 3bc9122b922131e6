package mqtt

import (
	"github.com/epaulsen/ha-xcomfort-bridge/internal/core/domain"
)

type HADiscoveryConfig struct {
	Device           HADiscoveryDevice `json:"device"`
	StateTopic       string            `json:"state_topic"`
	DeviceClass      string            `json:"device_class,omitempty"`
	AvTopic          string            `json:"availability_topic,omitempty"`
	EntityCategory   string            `json:"entity_category,omitempty"`
	Name             string            `json:"name"`
	UniqueId         string            `json:"unique_id"`
	Platform         string            `json:"platform"`
	EnabledByDefault *bool             `json:"enabled_by_default,omitempty"`
	PayloadOn        string            `json:"payload_on,omitempty"`
	PayloadOff       string            `json:"payload_off,omitempty"`
	Icon             string            `json:"icon,omitempty"`
}

type HAClimateDiscoveryConfig struct {
	Device                  HADiscoveryDevice `json:"device"`
	AvTopic                 string            `json:"availability_topic,omitempty"`
	Name                    string            `json:"name"`
	UniqueId                string            `json:"unique_id"`
	Platform                string            `json:"platform"`
	Icon                    string            `json:"icon,omitempty"`
	Modes                   []string          `json:"modes"`
	ModeStateTopic          string            `json:"mode_state_topic"`
	PresetModes             []string          `json:"preset_modes"`
	PresetModeStateTopic    string            `json:"preset_mode_state_topic"`
	PresetModeCommandTopic  string            `json:"preset_mode_command_topic"`
	CurrentTemperatureTopic string            `json:"current_temperature_topic"`
	CurrentHumidityTopic    string            `json:"current_humidity_topic"`
	TemperatureStateTopic   string            `json:"temperature_state_topic"`
	TemperatureCommandTopic string            `json:"temperature_command_topic"`
	ActionTopic             string            `json:"action_topic"`
	MinTemp                 float64           `json:"min_temp"`
	MaxTemp                 float64           `json:"max_temp"`
	TempStep                float64           `json:"temp_step,omitempty"`
	TemperatureUnit         string            `json:"temperature_unit,omitempty"`
}

type HALightDiscoveryConfig struct {
	Device                 HADiscoveryDevice `json:"device"`
	AvTopic                string            `json:"availability_topic,omitempty"`
	Name                   string            `json:"name"`
	UniqueId               string            `json:"unique_id"`
	Platform               string            `json:"platform"`
	Icon                   string            `json:"icon,omitempty"`
	StateTopic             string            `json:"state_topic"`
	CommandTopic           string            `json:"command_topic"`
	PayloadOn              string            `json:"payload_on"`
	PayloadOff             string            `json:"payload_off"`
	BrightnessStateTopic   string            `json:"brightness_state_topic,omitempty"`
	BrightnessCommandTopic string            `json:"brightness_command_topic,omitempty"`
	BrightnessScale        int               `json:"brightness_scale,omitempty"`
}

type HADiscoveryDevice struct {
	Id           []string `json:"identifiers"`
	Manufacturer string   `json:"manufacturer,omitempty"`
	Version      string   `json:"sw_version,omitempty"`
	Model        string   `json:"model,omitempty"`
	Name         string   `json:"name,omitempty"`
	ViaDevice    string   `json:"via_device,omitempty"`
}

func (c *MQTTClient) HADiscoverySensorTopic(sensor domain.GenericSensor) string {
	return c.DiscoveryTopic(sensor.SensorType, sensor.Device.Id, sensor.Id)
}

func (c *MQTTClient) HADiscoveryClimateTopic(climate domain.GenericClimate) string {
	return c.DiscoveryTopic(domain.COMPONENT_TYPE_CLIMATE, climate.Device.Id, climate.Id)
}

func (c *MQTTClient) HADiscoveryLightTopic(light domain.GenericLight) string {
	return c.DiscoveryTopic(domain.COMPONENT_TYPE_LIGHT, light.Device.Id, light.Id)
}

func GenericSensorToHADiscoveryMessage(client *MQTTClient, sensor domain.GenericSensor) HADiscoveryConfig {
	disConfig := HADiscoveryConfig{
		Device:           device(sensor.Device),
		DeviceClass:      sensor.DeviceClass,
		EntityCategory:   sensor.EntityCategory,
		Name:             sensor.Name,
		UniqueId:         sensor.UniqueId,
		Icon:             sensor.Icon,
		EnabledByDefault: sensor.EnabledByDefault,
		Platform:         "mqtt",
	}
	if sensor.Id == domain.SENSOR_ID_BRIDGE_STATE {
		// the bridge sensor is the availability topic itself
		disConfig.StateTopic = client.BridgeStateTopic()
		disConfig.PayloadOn = MQTT_PAYLOAD_ONLINE
		disConfig.PayloadOff = MQTT_PAYLOAD_OFFLINE
	} else {
		disConfig.AvTopic = client.BridgeStateTopic()
	}
	return disConfig
}

func GenericClimateToHADiscoveryMessage(client *MQTTClient, climate domain.GenericClimate) HAClimateDiscoveryConfig {
	id := climate.Id
	return HAClimateDiscoveryConfig{
		Device:                  device(climate.Device),
		AvTopic:                 client.BridgeStateTopic(),
		Name:                    climate.Name,
		UniqueId:                climate.UniqueId,
		Platform:                "mqtt",
		Icon:                    climate.Icon,
		Modes:                   climate.Modes,
		ModeStateTopic:          client.ClimateStateTopic(id, CLIMATE_ATTR_MODE),
		PresetModes:             climate.PresetModes,
		PresetModeStateTopic:    client.ClimateStateTopic(id, CLIMATE_ATTR_PRESET),
		PresetModeCommandTopic:  client.ClimateCommandTopic(id, COMMAND_PRESET),
		CurrentTemperatureTopic: client.ClimateStateTopic(id, CLIMATE_ATTR_CURRENT_TEMPERATURE),
		CurrentHumidityTopic:    client.ClimateStateTopic(id, CLIMATE_ATTR_CURRENT_HUMIDITY),
		TemperatureStateTopic:   client.ClimateStateTopic(id, CLIMATE_ATTR_TARGET_TEMPERATURE),
		TemperatureCommandTopic: client.ClimateCommandTopic(id, COMMAND_TARGET_TEMPERATURE),
		ActionTopic:             client.ClimateStateTopic(id, CLIMATE_ATTR_ACTION),
		MinTemp:                 climate.MinTemp,
		MaxTemp:                 climate.MaxTemp,
		TempStep:                climate.TempStep,
		TemperatureUnit:         climate.TemperatureUnit,
	}
}

func GenericLightToHADiscoveryMessage(client *MQTTClient, light domain.GenericLight) HALightDiscoveryConfig {
	disConfig := HALightDiscoveryConfig{
		Device:       device(light.Device),
		AvTopic:      client.BridgeStateTopic(),
		Name:         light.Name,
		UniqueId:     light.UniqueId,
		Platform:     "mqtt",
		Icon:         light.Icon,
		StateTopic:   client.LightStateTopic(light.Id),
		CommandTopic: client.LightCommandTopic(light.Id),
		PayloadOn:    MQTT_PAYLOAD_ON,
		PayloadOff:   MQTT_PAYLOAD_OFF,
	}
	if light.Brightness {
		disConfig.BrightnessStateTopic = client.LightBrightnessStateTopic(light.Id)
		disConfig.BrightnessCommandTopic = client.LightBrightnessCommandTopic(light.Id)
		disConfig.BrightnessScale = light.BrightnessScale
	}
	return disConfig
}

func device(d domain.Device) HADiscoveryDevice {
	return HADiscoveryDevice{
		Id:           []string{d.Id},
		Manufacturer: d.Manufacturer,
		Version:      d.Version,
		Model:        d.Model,
		Name:         d.Name,
		ViaDevice:    d.ViaDevice,
	}
}
