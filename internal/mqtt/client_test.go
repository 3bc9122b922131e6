package mqtt

import (
	"testing"

	"github.com/epaulsen/ha-xcomfort-bridge/internal/config"
	"github.com/epaulsen/ha-xcomfort-bridge/internal/core/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testTopics() *MQTTClient {
	return NewTopics(config.MQTTConfig{
		BaseTopic:        "loremTopic",
		HADiscoveryTopic: "homeassistant",
	})
}

func TestClimateCommandParse(t *testing.T) {
	assert := assert.New(t)

	baseTopic := "loremTopic"
	r := climateCommandExtractor(baseTopic)

	matches := r.FindAllStringSubmatch("loremTopic/climate/rct_3/target_temperature/set", 1)
	assert.Equal("rct_3", matches[0][1], "device extract")
	assert.Equal("target_temperature", matches[0][2], "command extract")

	matches = r.FindAllStringSubmatch("loremTopic/climate/rct_3/preset/set", 1)
	assert.Equal("preset", matches[0][2], "command extract")
}

func TestClimateCommandParseFail(t *testing.T) {
	assert := assert.New(t)

	r := climateCommandExtractor("loremTopic")
	assert.Len(r.FindAllStringSubmatch("loremTopic/climate/rct_3/target_temperature", 1), 0, "state topic")
	assert.Len(r.FindAllStringSubmatch("loremTopic/climate/rct_3/action/set", 1), 0, "unknown command")
	assert.Len(r.FindAllStringSubmatch("other/climate/rct_3/preset/set", 1), 0, "other base")
}

func TestLightCommandParse(t *testing.T) {
	assert := assert.New(t)

	r := lightSwitchCommandExtractor("loremTopic")
	matches := r.FindAllStringSubmatch("loremTopic/light/light_10/set", 1)
	assert.Equal("light_10", matches[0][1], "device extract")
	assert.Len(r.FindAllStringSubmatch("loremTopic/light/light_10/brightness/set", 1), 0, "brightness is separate")

	r = lightBrightnessCommandExtractor("loremTopic")
	matches = r.FindAllStringSubmatch("loremTopic/light/light_10/brightness/set", 1)
	assert.Equal("light_10", matches[0][1], "device extract")
}

func TestParseCommand(t *testing.T) {
	client := testTopics()

	cmd, err := client.ParseCommand("loremTopic/climate/rct_1/target_temperature/set", " 21.5 ")
	require.NoError(t, err)
	assert.Equal(t, &ParsedMQTTCommand{Platform: PLATFORM_CLIMATE, DeviceId: "rct_1", Command: COMMAND_TARGET_TEMPERATURE, Payload: "21.5"}, cmd)

	cmd, err = client.ParseCommand("loremTopic/climate/rct_1/preset/set", "eco")
	require.NoError(t, err)
	assert.Equal(t, COMMAND_PRESET, cmd.Command)

	cmd, err = client.ParseCommand("loremTopic/light/light_10/set", "ON")
	require.NoError(t, err)
	assert.Equal(t, &ParsedMQTTCommand{Platform: PLATFORM_LIGHT, DeviceId: "light_10", Command: COMMAND_SWITCH, Payload: "on"}, cmd)

	cmd, err = client.ParseCommand("loremTopic/light/light_10/brightness/set", "128")
	require.NoError(t, err)
	assert.Equal(t, COMMAND_BRIGHTNESS, cmd.Command)
	assert.Equal(t, "128", cmd.Payload)
}

func TestParseCommandRejects(t *testing.T) {
	client := testTopics()

	_, err := client.ParseCommand("loremTopic/climate/rct_1/target_temperature", "21")
	assert.ErrorIs(t, err, ErrNotACommand)

	_, err = client.ParseCommand("loremTopic/bridge/state", "online")
	assert.ErrorIs(t, err, ErrNotACommand)

	_, err = client.ParseCommand("loremTopic/climate/rct_1/target_temperature/set", "warm")
	assert.Error(t, err)

	for _, payload := range []string{"NaN", "Inf", "-Inf", "+inf"} {
		_, err = client.ParseCommand("loremTopic/climate/rct_1/target_temperature/set", payload)
		assert.Error(t, err, payload)
	}

	_, err = client.ParseCommand("loremTopic/climate/rct_1/preset/set", "  ")
	assert.Error(t, err)

	_, err = client.ParseCommand("loremTopic/light/light_10/set", "toggle")
	assert.Error(t, err)

	_, err = client.ParseCommand("loremTopic/light/light_10/brightness/set", "256")
	assert.Error(t, err)

	_, err = client.ParseCommand("loremTopic/light/light_10/brightness/set", "-1")
	assert.Error(t, err)
}

func TestTopics(t *testing.T) {
	client := testTopics()

	assert.Equal(t, "loremTopic/bridge/state", client.BridgeStateTopic())
	assert.Equal(t, "loremTopic/climate/rct_1/preset", client.ClimateStateTopic("rct_1", CLIMATE_ATTR_PRESET))
	assert.Equal(t, "loremTopic/light/light_2/brightness", client.LightBrightnessStateTopic("light_2"))
	assert.Equal(t, "homeassistant/light/node/light_2/config", client.DiscoveryTopic("light", "node", "light_2"))
}

func TestClimateDiscoveryMessage(t *testing.T) {
	client := testTopics()

	msg := GenericClimateToHADiscoveryMessage(client, domain.GenericClimate{
		Device:      domain.Device{Id: "climate_dev", ViaDevice: "hub"},
		Id:          "rct_1",
		Name:        "Living",
		UniqueId:    "climate_dev",
		Modes:       []string{"auto"},
		PresetModes: []string{"Cool", "eco", "comfort"},
		MinTemp:     18,
		MaxTemp:     40,
	})

	assert.Equal(t, []string{"climate_dev"}, msg.Device.Id)
	assert.Equal(t, "hub", msg.Device.ViaDevice)
	assert.Equal(t, "loremTopic/climate/rct_1/target_temperature/set", msg.TemperatureCommandTopic)
	assert.Equal(t, "loremTopic/climate/rct_1/preset/set", msg.PresetModeCommandTopic)
	assert.Equal(t, "loremTopic/climate/rct_1/current_humidity", msg.CurrentHumidityTopic)
	assert.Equal(t, "loremTopic/bridge/state", msg.AvTopic)
	assert.Equal(t, 18.0, msg.MinTemp)
}

func TestLightDiscoveryMessage(t *testing.T) {
	client := testTopics()

	onoff := GenericLightToHADiscoveryMessage(client, domain.GenericLight{Id: "light_1"})
	assert.Empty(t, onoff.BrightnessCommandTopic)
	assert.Equal(t, "loremTopic/light/light_1/set", onoff.CommandTopic)
	assert.Equal(t, MQTT_PAYLOAD_ON, onoff.PayloadOn)

	dimmable := GenericLightToHADiscoveryMessage(client, domain.GenericLight{Id: "light_2", Brightness: true, BrightnessScale: 255})
	assert.Equal(t, "loremTopic/light/light_2/brightness/set", dimmable.BrightnessCommandTopic)
	assert.Equal(t, 255, dimmable.BrightnessScale)
}

func TestBridgeSensorDiscoveryMessage(t *testing.T) {
	client := testTopics()

	msg := GenericSensorToHADiscoveryMessage(client, domain.GenericSensor{
		Id:         domain.SENSOR_ID_BRIDGE_STATE,
		SensorType: domain.COMPONENT_TYPE_BINARY_SENSOR,
	})
	assert.Equal(t, "loremTopic/bridge/state", msg.StateTopic)
	assert.Empty(t, msg.AvTopic)
	assert.Equal(t, MQTT_PAYLOAD_ONLINE, msg.PayloadOn)
}
