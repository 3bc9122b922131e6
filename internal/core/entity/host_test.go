package entity

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/epaulsen/ha-xcomfort-bridge/internal/core/port"
	"github.com/epaulsen/ha-xcomfort-bridge/pkg/xcomfort/memhub"

	"github.com/stretchr/testify/require"
)

type testHost struct {
	mu      sync.Mutex
	updates map[string]int
}

func newTestHost() *testHost {
	return &testHost{updates: map[string]int{}}
}

func (h *testHost) ScheduleUpdate(e port.Entity) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.updates[e.UniqueId()]++
}

func (h *testHost) Dispatch(fn func()) {
	fn()
}

func (h *testHost) Updates(e port.Entity) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.updates[e.UniqueId()]
}

const entityInventory = `
identifier: home
hub_id: bridge_1
rooms:
  - id: 1
    name: Living room
    setpoint: 21
    temperature: 20.5
    humidity: 45.7
    power: 30
    mode: comfort
  - id: 2
    name: Attic
    no_state: true
  - id: 3
    name: Hallway
    temperature: 19
lights:
  - id: 10
    name: Ceiling
    dimmable: true
    dimm_value: 50
    on: true
  - id: 11
    name: Porch
  - id: 12
    name: Garage
    no_state: true
`

func loadEntityHub(t *testing.T) *memhub.Hub {
	inv, err := memhub.LoadInventory(strings.NewReader(entityInventory))
	require.NoError(t, err)
	hub, err := inv.Build("", "")
	require.NoError(t, err)
	require.NoError(t, hub.Connect(context.Background()))
	return hub
}
