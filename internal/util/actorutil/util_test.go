package actorutil

import (
	"testing"

	"github.com/epaulsen/ha-xcomfort-bridge/internal/core/domain"
	"github.com/epaulsen/ha-xcomfort-bridge/internal/mqtt"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsedMQTTCommandToCommand(t *testing.T) {
	req, err := ParsedMQTTCommandToCommand(mqtt.ParsedMQTTCommand{
		Platform: mqtt.PLATFORM_CLIMATE, DeviceId: "rct_1", Command: mqtt.COMMAND_TARGET_TEMPERATURE, Payload: "21.5",
	})
	require.NoError(t, err)
	assert.Equal(t, mqtt.PLATFORM_CLIMATE, req.Platform)
	assert.Equal(t, "rct_1", req.ObjectId)
	assert.Equal(t, domain.SetTemperatureCommand{Temperature: 21.5}, req.Command)

	req, err = ParsedMQTTCommandToCommand(mqtt.ParsedMQTTCommand{
		Platform: mqtt.PLATFORM_CLIMATE, DeviceId: "rct_1", Command: mqtt.COMMAND_PRESET, Payload: "eco",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.SetPresetModeCommand{PresetMode: "eco"}, req.Command)

	req, err = ParsedMQTTCommandToCommand(mqtt.ParsedMQTTCommand{
		Platform: mqtt.PLATFORM_LIGHT, DeviceId: "light_2", Command: mqtt.COMMAND_SWITCH, Payload: "on",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.TurnOnCommand{}, req.Command)

	req, err = ParsedMQTTCommandToCommand(mqtt.ParsedMQTTCommand{
		Platform: mqtt.PLATFORM_LIGHT, DeviceId: "light_2", Command: mqtt.COMMAND_SWITCH, Payload: "off",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.TurnOffCommand{}, req.Command)
}

func TestParsedMQTTBrightnessCommand(t *testing.T) {
	req, err := ParsedMQTTCommandToCommand(mqtt.ParsedMQTTCommand{
		Platform: mqtt.PLATFORM_LIGHT, DeviceId: "light_2", Command: mqtt.COMMAND_BRIGHTNESS, Payload: "128",
	})
	require.NoError(t, err)
	cmd, ok := req.Command.(domain.TurnOnCommand)
	require.True(t, ok)
	require.NotNil(t, cmd.Brightness)
	assert.Equal(t, 128, *cmd.Brightness)

	req, err = ParsedMQTTCommandToCommand(mqtt.ParsedMQTTCommand{
		Platform: mqtt.PLATFORM_LIGHT, DeviceId: "light_2", Command: mqtt.COMMAND_BRIGHTNESS, Payload: "0",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.TurnOffCommand{}, req.Command)

	_, err = ParsedMQTTCommandToCommand(mqtt.ParsedMQTTCommand{
		Platform: mqtt.PLATFORM_LIGHT, DeviceId: "light_2", Command: mqtt.COMMAND_BRIGHTNESS, Payload: "300",
	})
	assert.Error(t, err)
}

func TestParsedMQTTUnknownCommand(t *testing.T) {
	_, err := ParsedMQTTCommandToCommand(mqtt.ParsedMQTTCommand{
		Platform: "switch", DeviceId: "x", Command: "toggle",
	})
	assert.Error(t, err)
}
