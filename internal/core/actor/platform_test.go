package actor

import (
	"encoding/json"
	"testing"
	"time"

	adactor "github.com/epaulsen/ha-xcomfort-bridge/internal/adapter/actor"
	"github.com/epaulsen/ha-xcomfort-bridge/internal/config"
	"github.com/epaulsen/ha-xcomfort-bridge/internal/core/domain"
	"github.com/epaulsen/ha-xcomfort-bridge/internal/core/entity"
	"github.com/epaulsen/ha-xcomfort-bridge/internal/core/port"
	"github.com/epaulsen/ha-xcomfort-bridge/internal/metrics"
	"github.com/epaulsen/ha-xcomfort-bridge/internal/util"
	"github.com/epaulsen/ha-xcomfort-bridge/internal/util/actorutil"
	"github.com/epaulsen/ha-xcomfort-bridge/pkg/xcomfort"
	"github.com/epaulsen/ha-xcomfort-bridge/pkg/xcomfort/memhub"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/asynkron/protoactor-go/eventstream"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type platformFixture struct {
	as        *actor.ActorSystem
	root      *actor.RootContext
	hub       *memhub.Hub
	published chan adactor.PublishedMessage
	platform  *actor.PID
}

func testHub() *memhub.Hub {
	hub := memhub.NewHub("home", "xcomfort_bridge_home")
	hub.AddRoom(1, "Living room", &xcomfort.RoomState{
		Setpoint:    xcomfort.Float(21),
		Temperature: xcomfort.Float(20.5),
		Humidity:    xcomfort.Float(44),
		Mode:        xcomfort.Mode(xcomfort.RctModeComfort),
	})
	hub.AddRoom(2, "Attic", nil)
	hub.AddLight(10, "Ceiling", true, &xcomfort.LightState{Switch: true, DimmValue: xcomfort.Int(50)})
	hub.AddLight(11, "Porch", false, &xcomfort.LightState{})
	return hub
}

func startPlatform(t *testing.T, cfg *config.Config, platform string, setup port.PlatformSetup) *platformFixture {
	t.Helper()
	logger := zap.Must(zap.NewDevelopment())
	as := actorutil.NewActorSystemWithZapLogger(logger)
	root := as.Root

	hub := testHub()
	es := eventstream.NewEventStream()
	published := make(chan adactor.PublishedMessage, 256)

	hubPID := root.Spawn(actor.PropsFromProducer(func() actor.Actor {
		return adactor.NewHubActor(hub, 2*time.Second, es, logger)
	}))
	mqttPID := root.Spawn(actor.PropsFromProducer(func() actor.Actor {
		return adactor.NewTestMQTTActor(cfg, es, published, logger)
	}))
	platformPID := root.Spawn(actor.PropsFromProducer(func() actor.Actor {
		return NewPlatformActor(platform, setup, cfg, hubPID, mqttPID, es, metrics.New(), logger)
	}))

	t.Cleanup(as.Shutdown)
	return &platformFixture{as: as, root: root, hub: hub, published: published, platform: platformPID}
}

// waitFor drains published messages until one on topic satisfies match.
func waitFor(t *testing.T, published <-chan adactor.PublishedMessage, topic string, match func(string) bool) adactor.PublishedMessage {
	t.Helper()
	deadline := time.After(3 * time.Second)
	for {
		select {
		case m := <-published:
			if m.Topic == topic && match(m.Payload) {
				return m
			}
		case <-deadline:
			t.Fatalf("no message on %s", topic)
			return adactor.PublishedMessage{}
		}
	}
}

func equals(value string) func(string) bool {
	return func(payload string) bool { return payload == value }
}

func climateSetup() port.PlatformSetup {
	return func(hub xcomfort.Hub, host port.Host) []port.Entity {
		return entity.SetupClimate(hub, host, entity.Options{})
	}
}

func lightSetup() port.PlatformSetup {
	return func(hub xcomfort.Hub, host port.Host) []port.Entity {
		return entity.SetupLights(hub, host, entity.Options{})
	}
}

func TestClimatePlatformActor(t *testing.T) {
	cfg := util.LoadTestConfig()
	f := startPlatform(t, &cfg, domain.ACTOR_ID_CLIMATE, climateSetup())

	res, err := f.root.RequestFuture(f.platform, domain.GetEntitiesRequest{}, 3*time.Second).Result()
	require.NoError(t, err)
	entities, ok := res.(domain.GetEntitiesResponse)
	require.True(t, ok)
	require.Len(t, entities.Components, 1)
	assert.Equal(t, "rct_1", entities.Components[0].ComponentId())

	// the initial push is published once the entity is added
	waitFor(t, f.published, "xcomfort/climate/rct_1/current_temperature", equals("20.5"))

	res, err = f.root.RequestFuture(f.platform, domain.EntityCommandRequest{
		Platform: domain.ACTOR_ID_CLIMATE,
		ObjectId: "rct_1",
		Command:  domain.SetTemperatureCommand{Temperature: 45},
	}, 3*time.Second).Result()
	require.NoError(t, err)
	cmdResp, ok := res.(domain.EntityCommandResponse)
	require.True(t, ok)
	assert.NoError(t, cmdResp.GetResponseError())

	// clamped to the comfort maximum
	waitFor(t, f.published, "xcomfort/climate/rct_1/target_temperature", equals("40.0"))
	sent := f.hub.Bridge().Sent()
	require.NotEmpty(t, sent)
	assert.Equal(t, xcomfort.MessageSetHeatingState, sent[len(sent)-1].Type)

	// switching preset moves the allowed range, so discovery is refreshed
	_, err = f.root.RequestFuture(f.platform, domain.EntityCommandRequest{
		Platform: domain.ACTOR_ID_CLIMATE,
		ObjectId: "rct_1",
		Command:  domain.SetPresetModeCommand{PresetMode: "Cool"},
	}, 3*time.Second).Result()
	require.NoError(t, err)

	discovery := waitFor(t, f.published, "homeassistant/climate/climate_xcomfort_bridge_home-1/rct_1/config", func(payload string) bool {
		var config map[string]any
		return json.Unmarshal([]byte(payload), &config) == nil && config["max_temp"] == 20.0
	})
	var payload map[string]any
	require.NoError(t, json.Unmarshal([]byte(discovery.Payload), &payload))
	assert.Equal(t, 5.0, payload["min_temp"])
	assert.True(t, discovery.Retain)
	waitFor(t, f.published, "xcomfort/climate/rct_1/preset", equals("Cool"))
}

func TestPlatformActorUnknownEntity(t *testing.T) {
	cfg := util.LoadTestConfig()
	f := startPlatform(t, &cfg, domain.ACTOR_ID_CLIMATE, climateSetup())

	res, err := f.root.RequestFuture(f.platform, domain.EntityCommandRequest{
		Platform: domain.ACTOR_ID_CLIMATE,
		ObjectId: "rct_2",
		Command:  domain.SetTemperatureCommand{Temperature: 20},
	}, 3*time.Second).Result()
	require.NoError(t, err)
	resp, ok := res.(domain.EntityCommandResponse)
	require.True(t, ok)
	assert.ErrorIs(t, resp.GetResponseError(), ErrUnknownEntity)
}

func TestLightPlatformActor(t *testing.T) {
	cfg := util.LoadTestConfig()
	f := startPlatform(t, &cfg, domain.ACTOR_ID_LIGHT, lightSetup())

	waitFor(t, f.published, "xcomfort/light/light_10/brightness", equals("129"))

	brightness := 255
	res, err := f.root.RequestFuture(f.platform, domain.EntityCommandRequest{
		Platform: domain.ACTOR_ID_LIGHT,
		ObjectId: "light_10",
		Command:  domain.TurnOnCommand{Brightness: &brightness},
	}, 3*time.Second).Result()
	require.NoError(t, err)
	assert.NoError(t, res.(domain.EntityCommandResponse).GetResponseError())
	waitFor(t, f.published, "xcomfort/light/light_10/brightness", equals("255"))

	light, ok := f.hub.Light(11)
	require.True(t, ok)
	light.FailWith(assert.AnError)
	res, err = f.root.RequestFuture(f.platform, domain.EntityCommandRequest{
		Platform: domain.ACTOR_ID_LIGHT,
		ObjectId: "light_11",
		Command:  domain.TurnOnCommand{},
	}, 3*time.Second).Result()
	require.NoError(t, err)
	assert.ErrorIs(t, res.(domain.EntityCommandResponse).GetResponseError(), assert.AnError)
}

func TestPlatformActorRepublish(t *testing.T) {
	cfg := util.LoadTestConfig()
	cfg.RepublishIntervalMillis = 100
	f := startPlatform(t, &cfg, domain.ACTOR_ID_LIGHT, lightSetup())

	// one initial publish plus at least one tick
	waitFor(t, f.published, "xcomfort/light/light_11/state", equals("off"))
	waitFor(t, f.published, "xcomfort/light/light_11/state", equals("off"))

	require.NoError(t, f.root.StopFuture(f.platform).Wait())
	light, _ := f.hub.Light(10)
	assert.Equal(t, 0, light.State().Subscribers())
}
