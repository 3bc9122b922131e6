package config

import (
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckMQTTTopic(t *testing.T) {
	topic, err := CheckMQTTTopic("XComfort_1")
	assert.NoError(t, err)
	assert.Equal(t, "xcomfort_1", topic)

	_, err = CheckMQTTTopic("xcomfort/bridge")
	assert.Error(t, err)

	_, err = CheckMQTTTopic("")
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	cfg := Config{
		Bridge: BridgeConfig{Identifier: "home", CommandTimeoutMillis: 5000},
	}
	assert.NoError(t, cfg.Validate())

	cfg.RepublishIntervalMillis = 1000
	assert.Error(t, cfg.Validate())
	cfg.RepublishIntervalMillis = 60000
	assert.NoError(t, cfg.Validate())

	cfg.Bridge.CommandTimeoutMillis = 100
	assert.Error(t, cfg.Validate())

	cfg.Bridge.CommandTimeoutMillis = 5000
	cfg.Bridge.Identifier = ""
	assert.Error(t, cfg.Validate())
}

func TestSetDefaultsReadsNestedEnv(t *testing.T) {
	t.Setenv("XCOMFORT_MQTT_HOST", "broker.lan")
	t.Setenv("XCOMFORT_MQTT_PORT", "8883")
	t.Setenv("XCOMFORT_BRIDGE_IDENTIFIER", "cabin")

	v := viper.New()
	SetDefaults(v)

	var cfg Config
	require.NoError(t, v.Unmarshal(&cfg))
	assert.Equal(t, "broker.lan", cfg.MQTT.Host)
	assert.Equal(t, 8883, cfg.MQTT.Port)
	assert.Equal(t, "cabin", cfg.Bridge.Identifier)
	assert.Equal(t, "xcomfort", cfg.MQTT.BaseTopic)
	assert.Equal(t, uint32(5000), cfg.Bridge.CommandTimeoutMillis)
	assert.Equal(t, uint(8080), cfg.Port)
}
