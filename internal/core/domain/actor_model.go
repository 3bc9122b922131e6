package domain

import "github.com/epaulsen/ha-xcomfort-bridge/pkg/xcomfort"

const (
	ACTOR_ID_MASTER       = "master"
	ACTOR_ID_HUB          = "hub"
	ACTOR_ID_MQTT         = "mqtt"
	ACTOR_ID_CLIMATE      = "climate"
	ACTOR_ID_LIGHT        = "light"
	ACTOR_ID_HA_DISCOVERY = "hadiscovery"
)

type GetHubRequest struct {
	ActorRequestMixIn
}

type GetHubResponse struct {
	ActorResponseMixIn
	Hub xcomfort.Hub
}

type GetEntitiesRequest struct {
	ActorRequestMixIn
}

type GetEntitiesResponse struct {
	ActorResponseMixIn
	Platform   string
	Components []Component
	States     []StateUpdateEvent
}

// EntityCommandRequest targets one entity of a platform by its object id.
type EntityCommandRequest struct {
	ActorRequestMixIn
	Platform string
	ObjectId string
	Command  EntityCommand
}

type EntityCommandResponse struct {
	ActorResponseMixIn
	ObjectId string
}

type RepublishStatesRequest struct {
	ActorRequestMixIn
}

type PublishMessageRequest struct {
	ActorRequestMixIn
	Topic   string
	Payload string
	Retain  bool
}

type PublishMessageResponse struct {
	ActorResponseMixIn
}

type PublishStateUpdateRequest struct {
	ActorRequestMixIn
	Retain bool
	Event  StateUpdateEvent
}

type PublishStateUpdateResponse struct {
	ActorResponseMixIn
}

type PublishDiscoveryRequest struct {
	ActorRequestMixIn
	Sensors  []GenericSensor
	Climates []GenericClimate
	Lights   []GenericLight
}

type PublishDiscoveryResponse struct {
	ActorResponseMixIn
}

type ActorHealthRequest struct {
	ActorRequestMixIn
}

type ActorHealthResponse struct {
	ActorResponseMixIn
	Id      string
	Healthy bool
	State   string
}
