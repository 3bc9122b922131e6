package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/epaulsen/ha-xcomfort-bridge/internal/core/domain"
	"github.com/epaulsen/ha-xcomfort-bridge/internal/metrics"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stubMaster(healthy bool) func(ctx actor.Context) {
	return func(ctx actor.Context) {
		switch ctx.Message().(type) {
		case domain.ActorHealthRequest:
			ctx.Respond(domain.ActorHealthResponse{Id: domain.ACTOR_ID_MASTER, Healthy: healthy})
		case domain.GetEntitiesRequest:
			brightness := 128
			ctx.Respond(domain.GetEntitiesResponse{
				Components: []domain.Component{
					domain.GenericLight{Id: "light_10", Name: "Ceiling", UniqueId: "light_xcomfort_bridge_home-10"},
				},
				States: []domain.StateUpdateEvent{
					domain.LightStateUpdateEvent{
						StateUpdateEventMixIn: domain.StateUpdateEventMixIn{Id: "light_10"},
						On:                    true,
						Brightness:            &brightness,
					},
				},
			})
		}
	}
}

func testServer(t *testing.T, healthy bool) *Server {
	as := actor.NewActorSystem()
	t.Cleanup(as.Shutdown)
	pid := as.Root.Spawn(actor.PropsFromFunc(stubMaster(healthy)))
	return &Server{rootContext: as.Root, masterActor: pid, metrics: metrics.New()}
}

func TestHealthCheckHandler(t *testing.T) {
	handler := testServer(t, true).RegisterRoutes()
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthcheck", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "health_check: OK", rec.Body.String())

	handler = testServer(t, false).RegisterRoutes()
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthcheck", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestEntitiesHandler(t *testing.T) {
	handler := testServer(t, true).RegisterRoutes()
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/entities", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var views []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &views))
	require.Len(t, views, 1)
	assert.Equal(t, "light", views[0]["platform"])
	assert.Equal(t, "light_10", views[0]["object_id"])
	assert.Equal(t, "Ceiling", views[0]["name"])
	state := views[0]["state"].(map[string]any)
	assert.Equal(t, true, state["on"])
	assert.Equal(t, 128.0, state["brightness"])
}

func TestMetricsHandler(t *testing.T) {
	s := testServer(t, true)
	s.metrics.Entities("light", 2)
	rec := httptest.NewRecorder()
	s.RegisterRoutes().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `xcomfort_entities{platform="light"} 2`)
}
