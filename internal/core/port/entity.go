package port

import (
	"context"

	"github.com/epaulsen/ha-xcomfort-bridge/internal/core/domain"
	"github.com/epaulsen/ha-xcomfort-bridge/pkg/xcomfort"
)

// Host is the side of the automation host an entity talks back to.
type Host interface {
	// ScheduleUpdate asks the host to publish the entity's current state.
	ScheduleUpdate(e Entity)
	// Dispatch runs fn on the host's loop. State pushes arrive on bridge
	// goroutines and are handed over through Dispatch.
	Dispatch(fn func())
}

// Entity is a bridge object exposed to the host.
type Entity interface {
	Platform() string
	Name() string
	UniqueId() string
	// ObjectId is the topic-safe id used in MQTT topics.
	ObjectId() string
	ShouldPoll() bool
	DeviceInfo() domain.Device

	// AddedToHost subscribes to the underlying state stream.
	AddedToHost()
	// RemovedFromHost drops the subscription made by AddedToHost.
	RemovedFromHost()

	Component() domain.Component
	StateEvent() domain.StateUpdateEvent
	Handle(ctx context.Context, cmd domain.EntityCommand) error
}

// PlatformSetup enumerates the hub and wraps every eligible object in an
// entity bound to host.
type PlatformSetup func(hub xcomfort.Hub, host Host) []Entity
