package events

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"

	"github.com/epaulsen/ha-xcomfort-bridge/internal/core/domain"

	"github.com/carlmjohnson/versioninfo"
)

const (
	DEVICE_CLASS_CONNECTIVITY = "connectivity"
	ENTITY_CLASS_DIAGNOSTIC   = "diagnostic"
)

// BridgeDevice describes the bridge itself. Its id is the hub id so entity
// devices that name it as via_device resolve to it.
func BridgeDevice(identifier, hubId string) domain.Device {
	return domain.Device{
		Id:           hubId,
		Manufacturer: "Eaton",
		Model:        "xComfort Bridge",
		Version:      versioninfo.Short(),
		Name:         fmt.Sprintf("xComfort Bridge %s", identifier),
	}
}

func BridgeSensors(bridgeDevice domain.Device) []domain.GenericSensor {
	return []domain.GenericSensor{
		{
			Device:         bridgeDevice,
			Id:             domain.SENSOR_ID_BRIDGE_STATE,
			SensorType:     domain.COMPONENT_TYPE_BINARY_SENSOR,
			Name:           "Connection state",
			DeviceClass:    DEVICE_CLASS_CONNECTIVITY,
			EntityCategory: ENTITY_CLASS_DIAGNOSTIC,
			UniqueId:       uniqueId(md5HashShort(bridgeDevice.Id), domain.SENSOR_ID_BRIDGE_STATE),
		},
	}
}

// DiscoveryRequest sorts components into the request understood by the
// MQTT actor. Unknown component kinds are skipped.
func DiscoveryRequest(components []domain.Component) domain.PublishDiscoveryRequest {
	var req domain.PublishDiscoveryRequest
	for _, c := range components {
		switch comp := c.(type) {
		case domain.GenericSensor:
			req.Sensors = append(req.Sensors, comp)
		case domain.GenericClimate:
			req.Climates = append(req.Climates, comp)
		case domain.GenericLight:
			req.Lights = append(req.Lights, comp)
		}
	}
	return req
}

func BridgeStateEvent(online bool) domain.BridgeStateUpdateEvent {
	return domain.BridgeStateUpdateEvent{
		StateUpdateEventMixIn: domain.StateUpdateEventMixIn{
			Id: domain.SENSOR_ID_BRIDGE_STATE,
		},
		Value: online,
	}
}

func uniqueId(baseId, id string) string {
	return fmt.Sprintf("uid_%s_%s", baseId, id)
}

func md5Hash(text string) string {
	hash := md5.Sum([]byte(text))
	return hex.EncodeToString(hash[:])
}

func md5HashShort(text string) string {
	hash := md5Hash(text)
	return hash[0:8]
}
