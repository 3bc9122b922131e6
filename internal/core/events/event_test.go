package events

import (
	"testing"

	"github.com/epaulsen/ha-xcomfort-bridge/internal/core/domain"

	"github.com/stretchr/testify/assert"
)

func TestBridgeDevice(t *testing.T) {
	dev := BridgeDevice("home", "xcomfort_bridge_home")
	assert.Equal(t, "xcomfort_bridge_home", dev.Id)
	assert.Equal(t, "xComfort Bridge home", dev.Name)

	sensors := BridgeSensors(dev)
	assert.Len(t, sensors, 1)
	assert.Equal(t, domain.SENSOR_ID_BRIDGE_STATE, sensors[0].Id)
	assert.Equal(t, domain.COMPONENT_TYPE_BINARY_SENSOR, sensors[0].SensorType)
	assert.Equal(t, "uid_"+md5HashShort(dev.Id)+"_"+domain.SENSOR_ID_BRIDGE_STATE, sensors[0].UniqueId)
}

func TestDiscoveryRequest(t *testing.T) {
	req := DiscoveryRequest([]domain.Component{
		domain.GenericClimate{Id: "rct_1"},
		domain.GenericLight{Id: "light_1"},
		domain.GenericLight{Id: "light_2"},
		domain.GenericSensor{Id: "bridge_state"},
	})
	assert.Len(t, req.Climates, 1)
	assert.Len(t, req.Lights, 2)
	assert.Len(t, req.Sensors, 1)
}
