package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

const (
	RESULT_OK    = "ok"
	RESULT_ERROR = "error"
)

// Metrics holds the bridge collectors. A nil *Metrics is valid and records
// nothing.
type Metrics struct {
	Registry *prometheus.Registry

	statePushes *prometheus.CounterVec
	commands    *prometheus.CounterVec
	entities    *prometheus.GaugeVec
	publishes   *prometheus.CounterVec
}

func New() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		statePushes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "xcomfort_state_updates_total",
			Help: "Entity state updates published, by platform",
		}, []string{"platform"}),
		commands: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "xcomfort_commands_total",
			Help: "Entity commands handled, by platform, command and result",
		}, []string{"platform", "command", "result"}),
		entities: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "xcomfort_entities",
			Help: "Registered entities, by platform",
		}, []string{"platform"}),
		publishes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "xcomfort_mqtt_publish_total",
			Help: "MQTT publishes, by result",
		}, []string{"result"}),
	}
	m.Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.statePushes,
		m.commands,
		m.entities,
		m.publishes,
	)
	return m
}

func (m *Metrics) StateUpdate(platform string) {
	if m == nil {
		return
	}
	m.statePushes.WithLabelValues(platform).Inc()
}

func (m *Metrics) Command(platform, command string, err error) {
	if m == nil {
		return
	}
	m.commands.WithLabelValues(platform, command, result(err)).Inc()
}

func (m *Metrics) Entities(platform string, count int) {
	if m == nil {
		return
	}
	m.entities.WithLabelValues(platform).Set(float64(count))
}

func (m *Metrics) Publish(err error) {
	if m == nil {
		return
	}
	m.publishes.WithLabelValues(result(err)).Inc()
}

func result(err error) string {
	if err != nil {
		return RESULT_ERROR
	}
	return RESULT_OK
}
