package config

import (
	"errors"
	"regexp"
	"strings"

	"github.com/spf13/viper"
	"go.uber.org/zap/zapcore"
)

const ENV_PREFIX = "xcomfort"

type Config struct {
	LogLevel zapcore.Level
	Verbose  bool         `mapstructure:"verbose"`
	MQTT     MQTTConfig   `mapstructure:"mqtt"`
	Bridge   BridgeConfig `mapstructure:"bridge"`

	RepublishIntervalMillis uint32 `mapstructure:"republish_interval_millis"`
	Port                    uint   `mapstructure:"port"`
	HttpLog                 bool   `mapstructure:"http_log"`
}

type BridgeConfig struct {
	Identifier           string
	HubId                string `mapstructure:"hub_id"`
	InventoryFile        string `mapstructure:"inventory_file"`
	CommandTimeoutMillis uint32 `mapstructure:"command_timeout_millis"`
}

type MQTTConfig struct {
	Host              string
	Port              int
	Username          string
	Password          string
	BaseTopic         string `mapstructure:"base_topic"`
	HADiscoveryEnable bool   `mapstructure:"ha_discovery_enable"`
	HADiscoveryTopic  string `mapstructure:"ha_discovery_topic"`
}

var topicRegexp = regexp.MustCompile("^[a-z0-9_]+$")

func CheckMQTTTopic(baseTopic string) (string, error) {
	lowerBaseTopic := strings.ToLower(baseTopic)
	if !topicRegexp.MatchString(lowerBaseTopic) {
		return "", errors.New("invalid topic. can only contain letters, numbers and underscores")
	}
	return lowerBaseTopic, nil
}

// Validate checks bounds that viper cannot express.
func (c *Config) Validate() error {
	if c.Bridge.Identifier == "" {
		return errors.New("config param bridge.identifier must not be empty")
	}
	if c.Bridge.CommandTimeoutMillis < 500 {
		return errors.New("config param bridge.command_timeout_millis should be >= 500")
	}
	if c.RepublishIntervalMillis > 0 && c.RepublishIntervalMillis < 5000 {
		return errors.New("config param republish_interval_millis should be 0 or >= 5000")
	}
	return nil
}

// SetDefaults registers defaults for every key and binds them to XCOMFORT_*
// environment variables. Nested keys map dots to underscores, so mqtt.host
// is read from XCOMFORT_MQTT_HOST.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("log_level", "warn")
	v.SetDefault("verbose", false)
	v.SetDefault("port", 8080)
	v.SetDefault("http_log", false)
	v.SetDefault("mqtt.host", "localhost")
	v.SetDefault("mqtt.port", 1883)
	v.SetDefault("mqtt.username", "")
	v.SetDefault("mqtt.password", "")
	v.SetDefault("mqtt.ha_discovery_enable", false)
	v.SetDefault("mqtt.base_topic", "xcomfort")
	v.SetDefault("mqtt.ha_discovery_topic", "homeassistant")
	v.SetDefault("bridge.identifier", "home")
	v.SetDefault("bridge.hub_id", "")
	v.SetDefault("bridge.inventory_file", "")
	v.SetDefault("bridge.command_timeout_millis", 5000)
	v.SetDefault("republish_interval_millis", 0)

	v.SetEnvPrefix(ENV_PREFIX)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
}
