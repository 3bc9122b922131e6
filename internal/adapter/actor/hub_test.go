package actor

import (
	"testing"
	"time"

	"github.com/epaulsen/ha-xcomfort-bridge/internal/core/domain"
	"github.com/epaulsen/ha-xcomfort-bridge/internal/util/actorutil"
	"github.com/epaulsen/ha-xcomfort-bridge/pkg/xcomfort"
	"github.com/epaulsen/ha-xcomfort-bridge/pkg/xcomfort/memhub"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/asynkron/protoactor-go/eventstream"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestHubActor(t *testing.T) {
	hub := memhub.NewHub("home", "xcomfort_bridge_home")
	hub.AddRoom(1, "Living room", &xcomfort.RoomState{Setpoint: xcomfort.Float(21)})

	logger := zap.Must(zap.NewDevelopment())
	as := actorutil.NewActorSystemWithZapLogger(logger)
	context := as.Root

	es := eventstream.NewEventStream()
	bridgeStates := make(chan bool, 4)
	es.Subscribe(func(evt any) {
		if event, ok := evt.(domain.BridgeStateUpdateEvent); ok {
			bridgeStates <- event.Value
		}
	})

	props := actor.PropsFromProducer(func() actor.Actor { return NewHubActor(hub, 2*time.Second, es, logger) })
	pid := context.Spawn(props)

	result, err := context.RequestFuture(pid, domain.GetHubRequest{}, 2*time.Second).Result()
	require.NoError(t, err)
	resp, ok := result.(domain.GetHubResponse)
	require.True(t, ok)
	assert.False(t, resp.HasResponseError())
	assert.Equal(t, "xcomfort_bridge_home", resp.Hub.HubId())
	assert.True(t, hub.Connected())
	assert.True(t, nextBridgeState(t, bridgeStates), "online after connect")

	result, err = context.RequestFuture(pid, domain.ActorHealthRequest{}, 2*time.Second).Result()
	require.NoError(t, err)
	health, ok := result.(domain.ActorHealthResponse)
	require.True(t, ok)
	assert.True(t, health.Healthy)

	require.NoError(t, context.StopFuture(pid).Wait())
	assert.False(t, hub.Connected())
	assert.False(t, nextBridgeState(t, bridgeStates), "offline after close")

	as.Shutdown()
}

func nextBridgeState(t *testing.T, states <-chan bool) bool {
	t.Helper()
	select {
	case online := <-states:
		return online
	case <-time.After(2 * time.Second):
		t.Fatal("no bridge state published")
		return false
	}
}
