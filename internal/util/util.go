package util

import (
	"github.com/epaulsen/ha-xcomfort-bridge/internal/config"

	"go.uber.org/zap"
)

func LoadTestConfig() config.Config {
	return config.Config{
		LogLevel: zap.DebugLevel,
		MQTT: config.MQTTConfig{
			Host:              "localhost",
			Port:              1883,
			BaseTopic:         "xcomfort",
			HADiscoveryEnable: true,
			HADiscoveryTopic:  "homeassistant",
		},
		Bridge: config.BridgeConfig{
			Identifier:           "home",
			HubId:                "xcomfort_bridge_home",
			CommandTimeoutMillis: 2000,
		},
		Port: 8080,
	}
}
