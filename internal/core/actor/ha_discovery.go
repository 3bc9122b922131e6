package actor

import (
	"errors"
	"fmt"
	"time"

	"github.com/epaulsen/ha-xcomfort-bridge/internal/config"
	"github.com/epaulsen/ha-xcomfort-bridge/internal/core/domain"
	"github.com/epaulsen/ha-xcomfort-bridge/internal/core/events"
	"github.com/epaulsen/ha-xcomfort-bridge/internal/util/actorutil"
	"github.com/epaulsen/ha-xcomfort-bridge/pkg/xcomfort"

	"github.com/asynkron/protoactor-go/actor"
	"go.uber.org/zap"
)

// HADiscoveryActor publishes the Home Assistant discovery configs of the
// bridge and of every entity once the hub and MQTT actors are healthy, then
// asks the platforms to republish their states.
type HADiscoveryActor struct {
	config          *config.Config
	behavior        actor.Behavior
	stash           *actorutil.Stash
	hubActor        *actor.PID
	mqttActor       *actor.PID
	platformActors  []*actor.PID
	hubActorHealthy bool
	mqttActorHealth bool
	healthyRecv     int

	hub        xcomfort.Hub
	components []domain.Component
	infoRecv   int

	logger *zap.Logger
}

func NewHADiscoveryActor(config *config.Config, hubActor, mqttActor *actor.PID, platformActors []*actor.PID, logger *zap.Logger) *HADiscoveryActor {
	act := &HADiscoveryActor{
		config:         config,
		hubActor:       hubActor,
		mqttActor:      mqttActor,
		platformActors: platformActors,
		behavior:       actor.NewBehavior(),
		stash:          &actorutil.Stash{},
		logger:         actorutil.ActorLogger(domain.ACTOR_ID_HA_DISCOVERY, logger),
	}
	act.behavior.Become(act.StartingReceive)
	return act
}

func (state *HADiscoveryActor) Receive(context actor.Context) {
	state.behavior.Receive(context)
}

func (state *HADiscoveryActor) StartingReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case *actor.Started:
		state.logger.Debug("hadiscovery@starting started")

		// Check hub and MQTT actor healthy
		state.healthyRecv = 0
		state.hubActorHealthy = false
		state.mqttActorHealth = false
		// Hub Actor Request
		actorutil.PipeToSelfWithRecover(ctx, ctx.RequestFuture(state.hubActor, domain.ActorHealthRequest{}, 10*time.Second), func(err error) any {
			return domain.ActorHealthResponse{
				Id:      domain.ACTOR_ID_HUB,
				Healthy: false,
			}
		})
		// MQTT Actor Request
		actorutil.PipeToSelfWithRecover(ctx, ctx.RequestFuture(state.mqttActor, domain.ActorHealthRequest{}, 10*time.Second), func(err error) any {
			return domain.ActorHealthResponse{
				Id:      domain.ACTOR_ID_MQTT,
				Healthy: false,
			}
		})
		state.behavior.Become(state.WaitingHealthyReceive)
	case *actor.Restarting:
	default:
		state.logger.Debug("hadiscovery@starting: stash", zap.String("type", fmt.Sprintf("%T", msg)))
		state.stash.Stash(ctx, msg)
	}
}

func (state *HADiscoveryActor) WaitingHealthyReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case domain.ActorHealthResponse:
		state.logger.Debug("hadiscovery@healthcheck ActorHealthResponse", zap.String("sender", msg.Id), zap.Bool("healthy", msg.Healthy))
		state.healthyRecv++
		if msg.Healthy {
			switch msg.Id {
			case domain.ACTOR_ID_HUB:
				state.hubActorHealthy = true
			case domain.ACTOR_ID_MQTT:
				state.mqttActorHealth = true
			}
		}
		if state.healthyRecv == 2 {

			if state.hubActorHealthy && state.mqttActorHealth {
				state.requestInfo(ctx)
				state.behavior.Become(state.WaitingInfoReceive)
				state.stash.UnstashAll(ctx)
			} else {
				panic(errors.New("MQTT Actor or Hub Actor are not healthy"))
			}
		}
	default:
		state.logger.Debug("hadiscovery@healthcheck: stash", zap.String("type", fmt.Sprintf("%T", msg)))
		state.stash.Stash(ctx, msg)
	}
}

func (state *HADiscoveryActor) requestInfo(ctx actor.Context) {
	state.infoRecv = 0
	state.components = nil
	state.hub = nil

	actorutil.PipeToSelfWithRecover(ctx, ctx.RequestFuture(state.hubActor, domain.GetHubRequest{}, 2*time.Second), func(err error) any {
		return domain.GetHubResponse{
			ActorResponseMixIn: domain.ActorResponseMixIn{
				ResponseError: err,
			},
		}
	})
	for _, pid := range state.platformActors {
		actorutil.PipeToSelfWithRecover(ctx, ctx.RequestFuture(pid, domain.GetEntitiesRequest{}, 10*time.Second), func(err error) any {
			return domain.GetEntitiesResponse{
				ActorResponseMixIn: domain.ActorResponseMixIn{
					ResponseError: err,
				},
			}
		})
	}
}

func (state *HADiscoveryActor) Done(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case domain.ActorHealthRequest:
		ctx.Respond(domain.ActorHealthResponse{
			Id:      domain.ACTOR_ID_HA_DISCOVERY,
			Healthy: true,
			State:   "done",
		})
	default:
		state.logger.Debug("hadiscovery@done: default recv", zap.String("type", fmt.Sprintf("%T", msg)))
	}
}

func (state *HADiscoveryActor) WaitingInfoReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case domain.GetHubResponse:
		if msg.HasResponseError() {
			panic(msg.GetResponseError())
		}
		state.hub = msg.Hub
		state.infoRecv++
	case domain.GetEntitiesResponse:
		if msg.HasResponseError() {
			panic(msg.GetResponseError())
		}
		state.logger.Debug("hadiscovery@info: GetEntitiesResponse", zap.String("platform", msg.Platform), zap.Int("count", len(msg.Components)))
		state.components = append(state.components, msg.Components...)
		state.infoRecv++
	default:
		state.logger.Debug("hadiscovery@info: default recv", zap.String("type", fmt.Sprintf("%T", msg)))
		return
	}

	if state.infoRecv < len(state.platformActors)+1 {
		return
	}

	bridgeDevice := events.BridgeDevice(state.hub.Identifier(), state.hub.HubId())
	var components []domain.Component
	for _, sensor := range events.BridgeSensors(bridgeDevice) {
		components = append(components, sensor)
	}
	components = append(components, state.components...)

	req := events.DiscoveryRequest(components)
	state.logger.Info("hadiscovery: publishing",
		zap.Int("sensors", len(req.Sensors)),
		zap.Int("climates", len(req.Climates)),
		zap.Int("lights", len(req.Lights)))
	ctx.Send(state.mqttActor, req)

	// states follow their configs so Home Assistant picks them up
	for _, pid := range state.platformActors {
		ctx.Send(pid, domain.RepublishStatesRequest{})
	}
	state.behavior.Become(state.Done)
}
