package actor

import (
	"context"
	"fmt"
	"time"

	"github.com/epaulsen/ha-xcomfort-bridge/internal/core/domain"
	"github.com/epaulsen/ha-xcomfort-bridge/internal/core/events"
	"github.com/epaulsen/ha-xcomfort-bridge/internal/util/actorutil"
	"github.com/epaulsen/ha-xcomfort-bridge/pkg/xcomfort"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/asynkron/protoactor-go/eventstream"
	"go.uber.org/zap"
)

// HubActor owns the connection to the xComfort bridge and hands the hub to
// the platform actors once it is connected. Connection changes are published
// on the event stream as the bridge state.
type HubActor struct {
	behavior       actor.Behavior
	stash          *actorutil.Stash
	hub            xcomfort.Hub
	connectTimeout time.Duration
	eventStream    *eventstream.EventStream
	connected      bool
	logger         *zap.Logger
}

type hubConnected struct {
	Error error
}

func NewHubActor(hub xcomfort.Hub, connectTimeout time.Duration, eventStream *eventstream.EventStream, logger *zap.Logger) *HubActor {
	act := &HubActor{
		hub:            hub,
		connectTimeout: connectTimeout,
		eventStream:    eventStream,
		behavior:       actor.NewBehavior(),
		stash:          &actorutil.Stash{},
		logger:         actorutil.ActorLogger(domain.ACTOR_ID_HUB, logger),
	}
	act.behavior.Become(act.StartingReceive)
	return act
}

func (state *HubActor) Receive(context actor.Context) {
	state.behavior.Receive(context)
}

func (state *HubActor) StartingReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case *actor.Started:
		state.logger.Debug("hub@starting started", zap.String("identifier", state.hub.Identifier()))
		actorutil.NewBackgroundTask(ctx, state.connect).
			WithTimeout(state.connectTimeout).
			Recover(func(err error) hubConnected {
				return hubConnected{Error: err}
			}).PipeTo(ctx.Self())
	case hubConnected:
		if msg.Error != nil {
			state.logger.Error("hub@starting connect failed", zap.Error(msg.Error))
			panic(msg.Error)
		}
		state.logger.Info("hub@starting connected",
			zap.String("hub_id", state.hub.HubId()),
			zap.Int("rooms", len(state.hub.Rooms())),
			zap.Int("devices", len(state.hub.Devices())))
		state.connected = true
		state.publishBridgeState(true)
		state.behavior.Become(state.DefaultReceive)
		state.stash.UnstashAll(ctx)
	case *actor.Restarting:
		state.close()
	case *actor.Stopping:
		state.close()
	default:
		state.logger.Debug("hub@starting: stash", zap.String("type", fmt.Sprintf("%T", msg)))
		state.stash.Stash(ctx, msg)
	}
}

func (state *HubActor) DefaultReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case domain.ActorHealthRequest:
		state.logger.Debug("hub@default: ActorHealthRequest")
		ctx.Respond(domain.ActorHealthResponse{
			Id:      domain.ACTOR_ID_HUB,
			Healthy: true,
			State:   "connected",
		})
	case domain.GetHubRequest:
		state.logger.Debug("hub@default: GetHubRequest")
		actorutil.ForRequest(msg).Respond(ctx, domain.GetHubResponse{
			Hub: state.hub,
		})
	case *actor.Restarting:
		state.close()
	case *actor.Stopping:
		state.close()
	default:
		state.logger.Debug("hub@default default recv", zap.String("type", fmt.Sprintf("%T", msg)))
	}
}

func (state *HubActor) connect() (*hubConnected, error) {
	ctx, cancel := context.WithTimeout(context.Background(), state.connectTimeout)
	defer cancel()
	if err := state.hub.Connect(ctx); err != nil {
		return nil, err
	}
	return &hubConnected{}, nil
}

func (state *HubActor) close() {
	state.logger.Debug("hub: close")
	if err := state.hub.Close(); err != nil {
		state.logger.Warn("hub: close failed", zap.Error(err))
	}
	if state.connected {
		state.connected = false
		state.publishBridgeState(false)
	}
}

func (state *HubActor) publishBridgeState(online bool) {
	if state.eventStream == nil {
		return
	}
	state.eventStream.Publish(events.BridgeStateEvent(online))
}
