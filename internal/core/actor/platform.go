package actor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/epaulsen/ha-xcomfort-bridge/internal/config"
	"github.com/epaulsen/ha-xcomfort-bridge/internal/core/domain"
	"github.com/epaulsen/ha-xcomfort-bridge/internal/core/port"
	"github.com/epaulsen/ha-xcomfort-bridge/internal/metrics"
	. "github.com/epaulsen/ha-xcomfort-bridge/internal/util/actorutil"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/asynkron/protoactor-go/eventstream"
	"github.com/asynkron/protoactor-go/scheduler"
	"go.uber.org/zap"
)

var ErrUnknownEntity = errors.New("unknown entity")

// PlatformActor hosts the entities of one platform (climate or light). It is
// the host loop of its entities: state pushes and update requests reach the
// entities only through its mailbox.
type PlatformActor struct {
	ActorWithStates
	platform    string
	setup       port.PlatformSetup
	config      *config.Config
	hubActor    *actor.PID
	mqttActor   *actor.PID
	eventStream *eventstream.EventStream
	metrics     *metrics.Metrics
	scheduler   *scheduler.TimerScheduler
	cancelTick  scheduler.CancelFunc
	stash       *Stash

	entities []port.Entity
	byObject map[string]port.Entity
	ranges   map[string]tempRange

	logger *zap.Logger
}

type tempRange struct {
	min, max float64
}

type scheduleUpdate struct {
	entity port.Entity
}

type dispatch struct {
	fn func()
}

type republishTick struct {
}

type commandResult struct {
	replyTo  *actor.PID
	objectId string
	command  string
	err      error
}

// platformHost turns host callbacks into messages to the platform actor.
type platformHost struct {
	root *actor.RootContext
	self *actor.PID
}

func (h platformHost) ScheduleUpdate(e port.Entity) {
	h.root.Send(h.self, scheduleUpdate{entity: e})
}

func (h platformHost) Dispatch(fn func()) {
	h.root.Send(h.self, dispatch{fn: fn})
}

// NewPlatformActor builds the actor of a platform. mqttActor may be nil, in
// which case discovery updates are not sent.
func NewPlatformActor(platform string, setup port.PlatformSetup, config *config.Config, hubActor, mqttActor *actor.PID,
	eventStream *eventstream.EventStream, m *metrics.Metrics, logger *zap.Logger) *PlatformActor {
	act := &PlatformActor{
		platform:    platform,
		setup:       setup,
		config:      config,
		hubActor:    hubActor,
		mqttActor:   mqttActor,
		eventStream: eventStream,
		metrics:     m,
		stash:       &Stash{},
		byObject:    map[string]port.Entity{},
		ranges:      map[string]tempRange{},
		logger:      ActorLogger(platform, logger),
		ActorWithStates: ActorWithStates{
			Behavior: actor.NewBehavior(),
		},
	}
	act.Become(PlatformStartingState{
		actor: act,
	})
	return act
}

func (state *PlatformActor) Receive(context actor.Context) {
	state.Behavior.Receive(context)
}

// Starting state

type PlatformStartingState struct {
	ActorState
	actor *PlatformActor
}

func (state PlatformStartingState) Name() string {
	return "starting"
}

func (state PlatformStartingState) Receive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case *actor.Started:
		state.actor.logger.Debug("platform@starting started")

		state.actor.scheduler = scheduler.NewTimerScheduler(ctx)

		PipeToSelfWithRecover(ctx, ctx.RequestFuture(state.actor.hubActor, domain.GetHubRequest{}, 10*time.Second), func(err error) any {
			return domain.GetHubResponse{
				ActorResponseMixIn: domain.ActorResponseMixIn{
					ResponseError: err,
				},
			}
		})
		state.actor.Become(PlatformWaitingHubState{
			actor: state.actor,
		})
	case *actor.Restarting:
		state.actor.removeEntities()
	default:
		state.actor.logger.Debug("platform@starting: stash", zap.String("type", fmt.Sprintf("%T", msg)))
		state.actor.stash.Stash(ctx, msg)
	}
}

// Waiting hub state

type PlatformWaitingHubState struct {
	ActorState
	actor *PlatformActor
}

func (state PlatformWaitingHubState) Name() string {
	return "waitingHub"
}

func (state PlatformWaitingHubState) Receive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case domain.GetHubResponse:
		if msg.HasResponseError() {
			state.actor.logger.Error("platform@waitingHub GetHubResponse error", zap.Error(msg.GetResponseError()))
			panic(msg.GetResponseError())
		}
		state.actor.logger.Debug("platform@waitingHub GetHubResponse")

		host := platformHost{root: ctx.ActorSystem().Root, self: ctx.Self()}
		state.actor.addEntities(state.actor.setup(msg.Hub, host))

		state.actor.Become(PlatformIdleState{
			actor: state.actor,
		}.OnEnter(ctx))
		state.actor.stash.UnstashAll(ctx)
	case *actor.Restarting:
		state.actor.removeEntities()
	default:
		state.actor.logger.Debug("platform@waitingHub: stash", zap.String("type", fmt.Sprintf("%T", msg)))
		state.actor.stash.Stash(ctx, msg)
	}
}

// Idle state

type PlatformIdleState struct {
	ActorState
	actor *PlatformActor
}

func (state PlatformIdleState) Name() string {
	return "idle"
}

func (state PlatformIdleState) OnEnter(ctx actor.Context) PlatformIdleState {
	state.actor.scheduleRepublish(ctx)
	return state
}

func (state PlatformIdleState) Receive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case dispatch:
		msg.fn()
	case scheduleUpdate:
		state.actor.publishState(ctx, msg.entity)
	case domain.ActorHealthRequest:
		state.actor.logger.Debug("platform@idle: ActorHealthRequest")
		ctx.Respond(domain.ActorHealthResponse{
			Id:      state.actor.platform,
			Healthy: true,
			State:   state.Name(),
		})
	case domain.GetEntitiesRequest:
		state.actor.logger.Debug("platform@idle: GetEntitiesRequest")
		ForRequest(msg).Respond(ctx, state.actor.entitiesResponse())
	case domain.RepublishStatesRequest:
		state.actor.logger.Debug("platform@idle: RepublishStatesRequest")
		state.actor.republish(ctx)
	case republishTick:
		state.actor.logger.Debug("platform@idle: tick")
		state.actor.republish(ctx)
		state.actor.scheduleRepublish(ctx)
	case domain.EntityCommandRequest:
		state.actor.logger.Debug("platform@idle: EntityCommandRequest", zap.String("object_id", msg.ObjectId))
		replyTo := ForRequest(msg).ReplyTo(ctx)
		entity, ok := state.actor.byObject[msg.ObjectId]
		if !ok || msg.Command == nil {
			err := fmt.Errorf("%w: %s/%s", ErrUnknownEntity, state.actor.platform, msg.ObjectId)
			state.actor.logger.Warn("platform@idle: command rejected", zap.Error(err))
			if replyTo != nil {
				ctx.Send(replyTo, domain.EntityCommandResponse{
					ActorResponseMixIn: domain.ActorResponseMixIn{ResponseError: err},
					ObjectId:           msg.ObjectId,
				})
			}
			return
		}
		state.actor.runCommand(ctx, entity, msg.Command, replyTo)
		state.actor.BecomeStacked(PlatformCommandState{
			actor: state.actor,
		})
	case *actor.Stopping:
		state.actor.stop()
	case *actor.Restarting:
		state.actor.stop()
	default:
		state.actor.logger.Debug("platform@idle: default recv", zap.String("type", fmt.Sprintf("%T", msg)))
	}
}

// Command state. Entered while a command runs against the bridge; everything
// else waits in the stash.

type PlatformCommandState struct {
	ActorState
	actor *PlatformActor
}

func (state PlatformCommandState) Name() string {
	return "command"
}

func (state PlatformCommandState) Receive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case commandResult:
		state.actor.metrics.Command(state.actor.platform, msg.command, msg.err)
		if msg.err != nil {
			state.actor.logger.Error("platform@command failed", zap.String("object_id", msg.objectId),
				zap.String("command", msg.command), zap.Error(msg.err))
		}
		if msg.replyTo != nil {
			ctx.Send(msg.replyTo, domain.EntityCommandResponse{
				ActorResponseMixIn: domain.ActorResponseMixIn{ResponseError: msg.err},
				ObjectId:           msg.objectId,
			})
		}
		state.actor.UnbecomeStacked()
		state.actor.stash.UnstashAll(ctx)
	case *actor.Stopping:
		state.actor.stop()
	case *actor.Restarting:
		state.actor.stop()
	default:
		state.actor.logger.Debug("platform@command: stash", zap.String("type", fmt.Sprintf("%T", msg)))
		state.actor.stash.Stash(ctx, msg)
	}
}

func (a *PlatformActor) addEntities(entities []port.Entity) {
	a.entities = entities
	for _, e := range entities {
		a.byObject[e.ObjectId()] = e
		if climate, ok := e.Component().(domain.GenericClimate); ok {
			a.ranges[e.ObjectId()] = tempRange{min: climate.MinTemp, max: climate.MaxTemp}
		}
	}
	for _, e := range entities {
		e.AddedToHost()
	}
	a.metrics.Entities(a.platform, len(entities))
	a.logger.Info("platform ready", zap.Int("entities", len(entities)))
}

func (a *PlatformActor) removeEntities() {
	for _, e := range a.entities {
		e.RemovedFromHost()
	}
	a.entities = nil
	a.byObject = map[string]port.Entity{}
	a.ranges = map[string]tempRange{}
}

func (a *PlatformActor) publishState(ctx actor.Context, e port.Entity) {
	a.eventStream.Publish(e.StateEvent())
	a.metrics.StateUpdate(a.platform)
	a.refreshDiscovery(ctx, e)
}

// refreshDiscovery resends the climate discovery config when the allowed
// setpoint range of the active preset moved.
func (a *PlatformActor) refreshDiscovery(ctx actor.Context, e port.Entity) {
	climate, ok := e.Component().(domain.GenericClimate)
	if !ok {
		return
	}
	current := tempRange{min: climate.MinTemp, max: climate.MaxTemp}
	if previous, seen := a.ranges[e.ObjectId()]; seen && previous == current {
		return
	}
	a.ranges[e.ObjectId()] = current
	if a.mqttActor == nil {
		return
	}
	a.logger.Debug("platform: setpoint range changed", zap.String("object_id", e.ObjectId()),
		zap.Float64("min", current.min), zap.Float64("max", current.max))
	ctx.Send(a.mqttActor, domain.PublishDiscoveryRequest{
		Climates: []domain.GenericClimate{climate},
	})
}

func (a *PlatformActor) republish(ctx actor.Context) {
	for _, e := range a.entities {
		a.publishState(ctx, e)
	}
}

func (a *PlatformActor) scheduleRepublish(ctx actor.Context) {
	if a.config.RepublishIntervalMillis == 0 || a.scheduler == nil {
		return
	}
	a.cancelTick = a.scheduler.RequestOnce(time.Duration(a.config.RepublishIntervalMillis)*time.Millisecond, ctx.Self(), republishTick{})
}

func (a *PlatformActor) runCommand(ctx actor.Context, e port.Entity, cmd domain.EntityCommand, replyTo *actor.PID) {
	timeout := time.Duration(a.config.Bridge.CommandTimeoutMillis) * time.Millisecond
	result := commandResult{
		replyTo:  replyTo,
		objectId: e.ObjectId(),
		command:  cmd.EntityCommand(),
	}
	NewBackgroundTask(ctx, func() (*commandResult, error) {
		cmdCtx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		r := result
		r.err = e.Handle(cmdCtx, cmd)
		return &r, nil
	}).WithTimeout(timeout).Recover(func(err error) commandResult {
		r := result
		r.err = err
		return r
	}).PipeTo(ctx.Self())
}

func (a *PlatformActor) entitiesResponse() domain.GetEntitiesResponse {
	resp := domain.GetEntitiesResponse{
		Platform: a.platform,
	}
	for _, e := range a.entities {
		resp.Components = append(resp.Components, e.Component())
		resp.States = append(resp.States, e.StateEvent())
	}
	return resp
}

func (a *PlatformActor) stop() {
	if a.cancelTick != nil {
		a.cancelTick()
		a.cancelTick = nil
	}
	a.removeEntities()
}
