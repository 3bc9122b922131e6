package entity

import (
	"context"
	"errors"
	"testing"

	"github.com/epaulsen/ha-xcomfort-bridge/internal/core/domain"
	"github.com/epaulsen/ha-xcomfort-bridge/pkg/xcomfort"
	"github.com/epaulsen/ha-xcomfort-bridge/pkg/xcomfort/memhub"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupLights(t *testing.T) (map[string]*LightEntity, *testHost, *memhub.Hub) {
	hub := loadEntityHub(t)
	host := newTestHost()
	entities := SetupLights(hub, host, Options{Verbose: true})
	require.Len(t, entities, 3)
	lights := map[string]*LightEntity{}
	for _, e := range entities {
		light := e.(*LightEntity)
		light.AddedToHost()
		t.Cleanup(light.RemovedFromHost)
		lights[light.Name()] = light
	}
	return lights, host, hub
}

func TestSetupLights(t *testing.T) {
	assert := assert.New(t)
	lights, host, _ := setupLights(t)

	ceiling := lights["Ceiling"]
	assert.Equal("light_xcomfort_bridge_home-10", ceiling.UniqueId())
	assert.Equal("light_10", ceiling.ObjectId())
	assert.Equal(1, host.Updates(ceiling))
	assert.Equal(0, host.Updates(lights["Garage"]))

	device := ceiling.DeviceInfo()
	assert.Equal("Eaton", device.Manufacturer)
	assert.Equal("XXX", device.Model)
	assert.Equal("Unknown", device.Version)
	assert.Equal("bridge_1", device.ViaDevice)
}

func TestLightProperties(t *testing.T) {
	assert := assert.New(t)
	lights, _, _ := setupLights(t)

	ceiling := lights["Ceiling"]
	assert.True(ceiling.IsOn())
	brightness, ok := ceiling.Brightness()
	assert.True(ok)
	assert.Equal(129, brightness)
	assert.Equal(COLOR_MODE_BRIGHTNESS, ceiling.ColorMode())
	assert.Equal([]string{COLOR_MODE_BRIGHTNESS}, ceiling.SupportedColorModes())

	porch := lights["Porch"]
	assert.False(porch.IsOn())
	_, ok = porch.Brightness()
	assert.False(ok)
	assert.Equal(COLOR_MODE_ONOFF, porch.ColorMode())

	garage := lights["Garage"]
	assert.False(garage.IsOn())
	_, ok = garage.Brightness()
	assert.False(ok)
}

func TestLightTurnOnWithBrightness(t *testing.T) {
	lights, host, hub := setupLights(t)
	ceiling := lights["Ceiling"]
	before := host.Updates(ceiling)

	brightness := 128
	require.NoError(t, ceiling.TurnOn(context.Background(), &brightness))

	device, _ := hub.Light(10)
	state, _ := device.State().Value().Get()
	assert.Equal(t, 50, *state.DimmValue)
	got, _ := ceiling.Brightness()
	assert.InDelta(t, 128, got, 1)
	assert.Greater(t, host.Updates(ceiling), before)
}

func TestLightTurnOnLowestBrightnessStaysOn(t *testing.T) {
	lights, _, hub := setupLights(t)
	ceiling := lights["Ceiling"]

	brightness := 1
	require.NoError(t, ceiling.TurnOn(context.Background(), &brightness))

	device, _ := hub.Light(10)
	state, _ := device.State().Value().Get()
	require.NotNil(t, state.DimmValue)
	assert.Equal(t, 1, *state.DimmValue)
	assert.True(t, state.Switch)
	assert.True(t, ceiling.IsOn())
}

func TestLightTurnOnBrightnessIgnoredWhenNotDimmable(t *testing.T) {
	lights, _, hub := setupLights(t)
	porch := lights["Porch"]

	brightness := 40
	require.NoError(t, porch.TurnOn(context.Background(), &brightness))

	assert.True(t, porch.IsOn())
	device, _ := hub.Light(11)
	state, _ := device.State().Value().Get()
	assert.True(t, state.Switch)
	assert.Nil(t, state.DimmValue)
}

func TestLightTurnOnOffWithoutState(t *testing.T) {
	lights, host, _ := setupLights(t)
	garage := lights["Garage"]
	ctx := context.Background()

	require.NoError(t, garage.TurnOn(ctx, nil))
	assert.True(t, garage.IsOn())
	assert.Equal(t, 1, host.Updates(garage))

	require.NoError(t, garage.TurnOff(ctx))
	assert.False(t, garage.IsOn())
	assert.Equal(t, 2, host.Updates(garage))
}

func TestLightCommandFailureKeepsCache(t *testing.T) {
	lights, _, hub := setupLights(t)
	ceiling := lights["Ceiling"]
	device, _ := hub.Light(10)
	boom := errors.New("no route")
	device.FailWith(boom)

	err := ceiling.Handle(context.Background(), domain.TurnOffCommand{})
	assert.ErrorIs(t, err, boom)
	assert.True(t, ceiling.IsOn())

	err = ceiling.Handle(context.Background(), domain.SetPresetModeCommand{PresetMode: PRESET_ECO})
	assert.ErrorIs(t, err, ErrUnsupportedCommand)
}

func TestLightPushOfAbsentStateSkipsUpdate(t *testing.T) {
	lights, host, hub := setupLights(t)
	ceiling := lights["Ceiling"]
	device, _ := hub.Light(10)
	before := host.Updates(ceiling)

	device.Push(xcomfort.None[xcomfort.LightState]())

	assert.Equal(t, before, host.Updates(ceiling))
	assert.False(t, ceiling.IsOn())
}

func TestLightStateEvent(t *testing.T) {
	lights, _, _ := setupLights(t)

	event := lights["Ceiling"].StateEvent().(domain.LightStateUpdateEvent)
	assert.Equal(t, "light_10", event.EntityId())
	assert.True(t, event.On)
	require.NotNil(t, event.Brightness)
	assert.Equal(t, 129, *event.Brightness)

	component := lights["Porch"].Component().(domain.GenericLight)
	assert.False(t, component.Brightness)
	assert.Equal(t, 0, component.BrightnessScale)
}
