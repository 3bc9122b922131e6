package server

import (
	"net/http"
	"time"

	"github.com/epaulsen/ha-xcomfort-bridge/internal/core/domain"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type entityView struct {
	Platform string                  `json:"platform"`
	ObjectId string                  `json:"object_id"`
	UniqueId string                  `json:"unique_id,omitempty"`
	Name     string                  `json:"name,omitempty"`
	State    domain.StateUpdateEvent `json:"state,omitempty"`
}

func (s *Server) RegisterRoutes() http.Handler {
	e := echo.New()
	e.HideBanner = true
	if s.httpLog {
		e.Use(middleware.Logger())
	}
	e.Use(middleware.Recover())

	e.GET("/healthcheck", s.HealthCheckHandler)
	e.GET("/entities", s.EntitiesHandler)
	if s.metrics != nil {
		e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(s.metrics.Registry, promhttp.HandlerOpts{})))
	}

	return e
}

func (s *Server) HealthCheckHandler(c echo.Context) error {
	res, err := s.rootContext.RequestFuture(s.masterActor, domain.ActorHealthRequest{}, 10*time.Second).Result()
	if err != nil {
		return c.String(http.StatusServiceUnavailable, "health_check: FAIL")
	}
	if response, ok := res.(domain.ActorHealthResponse); ok && response.Healthy {
		return c.String(http.StatusOK, "health_check: OK")
	}
	return c.String(http.StatusServiceUnavailable, "health_check: FAIL")
}

func (s *Server) EntitiesHandler(c echo.Context) error {
	res, err := s.rootContext.RequestFuture(s.masterActor, domain.GetEntitiesRequest{}, 5*time.Second).Result()
	if err != nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, err.Error())
	}
	response, ok := res.(domain.GetEntitiesResponse)
	if !ok {
		return echo.NewHTTPError(http.StatusInternalServerError, "unexpected response")
	}

	states := map[string]domain.StateUpdateEvent{}
	for _, state := range response.States {
		states[state.EntityId()] = state
	}
	views := make([]entityView, 0, len(response.Components))
	for _, component := range response.Components {
		view := entityView{
			Platform: component.ComponentType(),
			ObjectId: component.ComponentId(),
			State:    states[component.ComponentId()],
		}
		switch comp := component.(type) {
		case domain.GenericClimate:
			view.UniqueId = comp.UniqueId
			view.Name = comp.Name
		case domain.GenericLight:
			view.UniqueId = comp.UniqueId
			view.Name = comp.Name
		}
		views = append(views, view)
	}
	return c.JSON(http.StatusOK, views)
}
