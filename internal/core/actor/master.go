package actor

import (
	"errors"
	"fmt"
	"log"
	"time"

	adactor "github.com/epaulsen/ha-xcomfort-bridge/internal/adapter/actor"
	"github.com/epaulsen/ha-xcomfort-bridge/internal/config"
	"github.com/epaulsen/ha-xcomfort-bridge/internal/core/domain"
	"github.com/epaulsen/ha-xcomfort-bridge/internal/core/entity"
	"github.com/epaulsen/ha-xcomfort-bridge/internal/core/port"
	"github.com/epaulsen/ha-xcomfort-bridge/internal/metrics"
	"github.com/epaulsen/ha-xcomfort-bridge/internal/mqtt"
	. "github.com/epaulsen/ha-xcomfort-bridge/internal/util/actorutil"
	"github.com/epaulsen/ha-xcomfort-bridge/pkg/xcomfort"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/asynkron/protoactor-go/eventstream"
	"go.uber.org/zap"
)

type MQTTActorProvider func(*eventstream.EventStream) *adactor.MQTTActor

type HubActorProvider func(*eventstream.EventStream) *adactor.HubActor

type MasterOfPuppetsActor struct {
	config   config.Config
	behavior actor.Behavior
	stash    *Stash

	currentHealthCheck healthCheckResult
	eventStream        *eventstream.EventStream
	metrics            *metrics.Metrics
	hubActor           *actor.PID
	mqttActor          *actor.PID
	climateActor       *actor.PID
	lightActor         *actor.PID
	hubActorProvider   HubActorProvider
	mqttActorProvider  MQTTActorProvider
	logger             *zap.Logger
}

type healthCheckResult struct {
	expected       []string
	healthy        map[string]bool
	checksReceived int
	respondTo      *actor.PID
}

func NewMasterOfPuppetsActor(config config.Config, hubActorProvider HubActorProvider, mqttActorProvider MQTTActorProvider,
	m *metrics.Metrics, logger *zap.Logger) *MasterOfPuppetsActor {
	act := &MasterOfPuppetsActor{
		config:            config,
		behavior:          actor.NewBehavior(),
		stash:             &Stash{},
		logger:            ActorLogger(domain.ACTOR_ID_MASTER, logger),
		eventStream:       eventstream.NewEventStream(),
		metrics:           m,
		hubActorProvider:  hubActorProvider,
		mqttActorProvider: mqttActorProvider,
	}
	act.behavior.Become(act.StartingReceive)
	return act
}

func (state *MasterOfPuppetsActor) Receive(context actor.Context) {
	if _, ok := context.Message().(*actor.Stopping); ok {
		// children terminate while stopping, that is not a hub failure
		state.logger.Debug("master stopping")
		state.behavior.Become(state.StoppingReceive)
		return
	}
	state.behavior.Receive(context)
}

func (state *MasterOfPuppetsActor) StoppingReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case *actor.Terminated:
		state.logger.Debug("master@stopping child terminated", zap.String("child", msg.Who.Id))
	default:
		state.logger.Debug("master@stopping ignored", zap.String("type", fmt.Sprintf("%T", msg)))
	}
}

func (state *MasterOfPuppetsActor) StartingReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case *actor.Started:
		state.logger.Debug("master@starting started")

		state.currentHealthCheck = healthCheckResult{
			expected: []string{domain.ACTOR_ID_HUB, domain.ACTOR_ID_MQTT, domain.ACTOR_ID_CLIMATE, domain.ACTOR_ID_LIGHT},
		}
		state.currentHealthCheck.reset()

		// start hub child
		hubActorPID, err := state.startHubActor(ctx)
		if err != nil {
			panic(err)
		}
		state.hubActor = hubActorPID

		// start MQTT child
		mqttActorPID, err := state.startMQTTActor(ctx)
		if err != nil {
			panic(err)
		}
		state.mqttActor = mqttActorPID

		// start platform children
		climateActorPID, err := state.startPlatformActor(ctx, domain.ACTOR_ID_CLIMATE, state.climateSetup())
		if err != nil {
			panic(err)
		}
		state.climateActor = climateActorPID

		lightActorPID, err := state.startPlatformActor(ctx, domain.ACTOR_ID_LIGHT, state.lightSetup())
		if err != nil {
			panic(err)
		}
		state.lightActor = lightActorPID

		// start HA Discovery
		if state.config.MQTT.HADiscoveryEnable {
			_, err := state.startHADiscoveryActor(ctx)
			if err != nil {
				panic(err)
			}
		}

		state.behavior.Become(state.DefaultReceive)
		state.stash.UnstashAll(ctx)
	default:
		state.logger.Debug("master@starting stash", zap.String("type", fmt.Sprintf("%T", msg)))
		state.stash.Stash(ctx, msg)
	}
}

func (state *MasterOfPuppetsActor) DefaultReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case domain.ActorHealthRequest:
		state.logger.Debug("master@default ActorHealthRequest")
		state.currentHealthCheck.reset()
		state.currentHealthCheck.respondTo = ctx.Sender()
		for id, pid := range state.children() {
			id := id
			PipeToSelfWithRecover(ctx, ctx.RequestFuture(pid, domain.ActorHealthRequest{}, 500*time.Millisecond), func(err error) any {
				return domain.ActorHealthResponse{
					Id:      id,
					Healthy: false,
				}
			})
		}

		ctx.SetReceiveTimeout(1 * time.Second)

		state.behavior.BecomeStacked(state.HealthCheckReceive)
	case domain.GetEntitiesRequest:
		state.logger.Debug("master@default GetEntitiesRequest")
		state.collectEntities(ctx, ForRequest(msg).ReplyTo(ctx))
	case domain.EntityCommandRequest:
		state.routeCommand(ctx, msg)
	case adactor.ParsedCommand:
		// redirect parsedCommand to the platform actor
		state.logger.Debug("master@default parsedCommand", zap.Any("command", msg.Command))
		if msg.Command != nil {
			cmd, err := ParsedMQTTCommandToCommand(*msg.Command)
			if err != nil {
				state.logger.Warn("master@default invalid command", zap.Error(err))
				return
			}
			state.routeCommand(ctx, cmd)
		}
	case *actor.Terminated:
		// if the hub fails for good, terminate
		if msg.Who.Id == fmt.Sprintf("%s/%s", domain.ACTOR_ID_MASTER, domain.ACTOR_ID_HUB) {
			state.logger.Error("master@default hub error")
			panic(errors.New("hub terminated"))
		}
	default:
		state.logger.Debug("master@default unhandled", zap.String("type", fmt.Sprintf("%T", msg)))
	}
}

func (state *MasterOfPuppetsActor) HealthCheckReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case *actor.ReceiveTimeout:
		// if some actor does not respond to healthCheck, assume not healthy
		ctx.CancelReceiveTimeout()
		state.currentHealthCheck.respond(ctx)
		state.behavior.UnbecomeStacked()
		state.stash.UnstashAll(ctx)
	case domain.ActorHealthResponse:
		state.logger.Debug("master@healthcheck ActorHealthResponse", zap.String("sender", msg.Id), zap.Bool("healthy", msg.Healthy))
		state.currentHealthCheck.checksReceived++
		if msg.Healthy {
			state.currentHealthCheck.healthy[msg.Id] = true
		}
		if state.currentHealthCheck.allReceived() {
			ctx.CancelReceiveTimeout()
			state.currentHealthCheck.respond(ctx)

			state.behavior.UnbecomeStacked()
			state.stash.UnstashAll(ctx)
		} else {
			ctx.SetReceiveTimeout(1 * time.Second)
		}
	default:
		state.logger.Debug("master@healthcheck stash", zap.String("type", fmt.Sprintf("%T", msg)))
		state.stash.Stash(ctx, msg)
	}
}

func (state *MasterOfPuppetsActor) children() map[string]*actor.PID {
	return map[string]*actor.PID{
		domain.ACTOR_ID_HUB:     state.hubActor,
		domain.ACTOR_ID_MQTT:    state.mqttActor,
		domain.ACTOR_ID_CLIMATE: state.climateActor,
		domain.ACTOR_ID_LIGHT:   state.lightActor,
	}
}

func (state *MasterOfPuppetsActor) routeCommand(ctx actor.Context, cmd domain.EntityCommandRequest) {
	var target *actor.PID
	switch cmd.Platform {
	case mqtt.PLATFORM_CLIMATE:
		target = state.climateActor
	case mqtt.PLATFORM_LIGHT:
		target = state.lightActor
	default:
		state.logger.Warn("master@default command for unknown platform", zap.String("platform", cmd.Platform))
		return
	}
	if cmd.ReplyToRef == nil && ctx.Sender() != nil {
		cmd.ReplyToRef = (*domain.ActorRef)(ctx.Sender())
	}
	ctx.Send(target, cmd)
}

// collectEntities asks every platform for its entities and answers replyTo
// with the merged listing. Platforms that do not answer in time are left out.
func (state *MasterOfPuppetsActor) collectEntities(ctx actor.Context, replyTo *actor.PID) {
	platforms := []*actor.PID{state.climateActor, state.lightActor}
	merged := domain.GetEntitiesResponse{}
	pending := len(platforms)
	for _, pid := range platforms {
		ctx.ReenterAfter(ctx.RequestFuture(pid, domain.GetEntitiesRequest{}, 2*time.Second), func(res any, err error) {
			pending--
			if err != nil {
				state.logger.Warn("master@entities platform did not answer", zap.Error(err))
			} else if resp, ok := res.(domain.GetEntitiesResponse); ok {
				merged.Components = append(merged.Components, resp.Components...)
				merged.States = append(merged.States, resp.States...)
			}
			if pending == 0 && replyTo != nil {
				ctx.Send(replyTo, merged)
			}
		})
	}
}

func (state *MasterOfPuppetsActor) climateSetup() port.PlatformSetup {
	opts := entity.Options{Logger: state.logger, Verbose: state.config.Verbose}
	return func(hub xcomfort.Hub, host port.Host) []port.Entity {
		return entity.SetupClimate(hub, host, opts)
	}
}

func (state *MasterOfPuppetsActor) lightSetup() port.PlatformSetup {
	opts := entity.Options{Logger: state.logger, Verbose: state.config.Verbose}
	return func(hub xcomfort.Hub, host port.Host) []port.Entity {
		return entity.SetupLights(hub, host, opts)
	}
}

func (state *MasterOfPuppetsActor) startHubActor(ctx actor.Context) (*actor.PID, error) {

	supervisor := actor.NewExponentialBackoffStrategy(10*time.Second, 1*time.Second)

	hubProps := actor.PropsFromProducer(func() actor.Actor {
		return state.hubActorProvider(state.eventStream)
	}, actor.WithSupervisor(supervisor))
	hubActorPID, err := ctx.SpawnNamed(hubProps, domain.ACTOR_ID_HUB)
	if err != nil {
		return nil, err
	}

	return hubActorPID, nil
}

func (state *MasterOfPuppetsActor) startPlatformActor(ctx actor.Context, platform string, setup port.PlatformSetup) (*actor.PID, error) {

	decider := func(reason interface{}) actor.Directive {
		log.Printf("handling failure for child. reason: %v", reason)
		return actor.RestartDirective
	}
	supervisor := actor.NewOneForOneStrategy(3, 10*time.Second, decider)

	var discoveryTarget *actor.PID
	if state.config.MQTT.HADiscoveryEnable {
		discoveryTarget = state.mqttActor
	}

	platformProps := actor.PropsFromProducer(func() actor.Actor {
		return NewPlatformActor(platform, setup, &state.config, state.hubActor, discoveryTarget, state.eventStream, state.metrics, state.logger)
	}, actor.WithSupervisor(supervisor))
	platformPID, err := ctx.SpawnNamed(platformProps, platform)
	if err != nil {
		return nil, err
	}

	return platformPID, nil
}

func (state *MasterOfPuppetsActor) startHADiscoveryActor(ctx actor.Context) (*actor.PID, error) {

	decider := func(reason interface{}) actor.Directive {
		log.Printf("handling failure for child. reason: %v", reason)
		return actor.RestartDirective
	}
	supervisor := actor.NewOneForOneStrategy(1, 10*time.Second, decider)

	haDiscProps := actor.PropsFromProducer(func() actor.Actor {
		return NewHADiscoveryActor(&state.config, state.hubActor, state.mqttActor,
			[]*actor.PID{state.climateActor, state.lightActor}, state.logger)
	}, actor.WithSupervisor(supervisor))
	haDiscPID, err := ctx.SpawnNamed(haDiscProps, domain.ACTOR_ID_HA_DISCOVERY)
	if err != nil {
		return nil, err
	}

	return haDiscPID, nil
}

func (state *MasterOfPuppetsActor) startMQTTActor(ctx actor.Context) (*actor.PID, error) {

	supervisor := actor.NewExponentialBackoffStrategy(10*time.Second, 1*time.Second)

	mqttProps := actor.PropsFromProducer(func() actor.Actor {
		return state.mqttActorProvider(state.eventStream)
	}, actor.WithSupervisor(supervisor))
	mqttActorPID, err := ctx.SpawnNamed(mqttProps, domain.ACTOR_ID_MQTT)
	if err != nil {
		return nil, err
	}

	return mqttActorPID, nil
}

func (state *healthCheckResult) reset() {
	state.healthy = map[string]bool{}
	state.checksReceived = 0
	state.respondTo = nil
}

func (state *healthCheckResult) allReceived() bool {
	return state.checksReceived == len(state.expected)
}

func (state *healthCheckResult) allHealthy() bool {
	for _, id := range state.expected {
		if !state.healthy[id] {
			return false
		}
	}
	return true
}

func (state *healthCheckResult) respond(ctx actor.Context) {
	resp := domain.ActorHealthResponse{
		Id:      domain.ACTOR_ID_MASTER,
		Healthy: state.allHealthy(),
	}
	if state.respondTo != nil {
		ctx.Send(state.respondTo, resp)
	}
}
