package entity

import (
	"context"
	"fmt"
	"sync"

	"github.com/epaulsen/ha-xcomfort-bridge/internal/core/domain"
	"github.com/epaulsen/ha-xcomfort-bridge/internal/core/port"
	"github.com/epaulsen/ha-xcomfort-bridge/pkg/xcomfort"

	"go.uber.org/zap"
)

const (
	COLOR_MODE_BRIGHTNESS = "brightness"
	COLOR_MODE_ONOFF      = "onoff"

	LIGHT_MODEL      = "XXX"
	LIGHT_SW_VERSION = "Unknown"
)

// SetupLights wraps every light of the hub in a LightEntity.
func SetupLights(hub xcomfort.Hub, host port.Host, opts Options) []port.Entity {
	logger := opts.baseLogger()

	devices := hub.Devices()
	logger.Info("found xcomfort devices", zap.Int("count", len(devices)))

	var lights []port.Entity
	for _, device := range devices {
		light, ok := device.(xcomfort.Light)
		if !ok {
			continue
		}
		logger.Info("adding light", zap.Int("device_id", light.DeviceId()), zap.String("name", light.Name()))
		lights = append(lights, NewLightEntity(hub, light, host, opts))
	}

	logger.Info("added lights", zap.Int("count", len(lights)))
	return lights
}

type LightEntity struct {
	host     port.Host
	hub      xcomfort.Hub
	device   xcomfort.Light
	name     string
	uniqueId string
	objectId string
	log      verboseLogger

	mu          sync.RWMutex
	state       xcomfort.Optional[xcomfort.LightState]
	unsubscribe func()
}

func NewLightEntity(hub xcomfort.Hub, device xcomfort.Light, host port.Host, opts Options) *LightEntity {
	uniqueId := fmt.Sprintf("light_%s_%s-%d", DOMAIN, hub.Identifier(), device.DeviceId())
	return &LightEntity{
		host:     host,
		hub:      hub,
		device:   device,
		name:     device.Name(),
		uniqueId: uniqueId,
		objectId: fmt.Sprintf("light_%d", device.DeviceId()),
		log:      newVerboseLogger(opts, uniqueId),
		state:    xcomfort.None[xcomfort.LightState](),
	}
}

func (e *LightEntity) Platform() string { return domain.COMPONENT_TYPE_LIGHT }

func (e *LightEntity) Name() string { return e.name }

func (e *LightEntity) UniqueId() string { return e.uniqueId }

func (e *LightEntity) ObjectId() string { return e.objectId }

func (e *LightEntity) ShouldPoll() bool { return false }

func (e *LightEntity) DeviceInfo() domain.Device {
	return domain.Device{
		Id:           e.uniqueId,
		Name:         e.name,
		Manufacturer: MANUFACTURER,
		Model:        LIGHT_MODEL,
		Version:      LIGHT_SW_VERSION,
		ViaDevice:    e.hub.HubId(),
	}
}

func (e *LightEntity) AddedToHost() {
	e.log.log("added to host", zap.String("name", e.name))
	subject := e.device.State()
	if subject == nil {
		e.log.log("state is null", zap.String("name", e.name))
		return
	}
	unsubscribe := subject.Subscribe(func(state xcomfort.Optional[xcomfort.LightState]) {
		e.host.Dispatch(func() {
			e.StateChanged(state)
		})
	})
	e.mu.Lock()
	e.unsubscribe = unsubscribe
	e.mu.Unlock()
}

func (e *LightEntity) RemovedFromHost() {
	e.mu.Lock()
	unsubscribe := e.unsubscribe
	e.unsubscribe = nil
	e.mu.Unlock()
	if unsubscribe != nil {
		unsubscribe()
	}
}

func (e *LightEntity) StateChanged(state xcomfort.Optional[xcomfort.LightState]) {
	e.mu.Lock()
	e.state = state
	e.mu.Unlock()

	s, present := state.Get()
	e.log.log("state changed", zap.String("name", e.name), zap.Bool("present", present), zap.Any("state", s))
	if present {
		e.host.ScheduleUpdate(e)
	}
}

// Brightness is on the host scale and reports false when no dim value is known.
func (e *LightEntity) Brightness() (int, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	s, ok := e.state.Get()
	if !ok || s.DimmValue == nil {
		return 0, false
	}
	return ToHostBrightness(*s.DimmValue), true
}

func (e *LightEntity) IsOn() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	s, ok := e.state.Get()
	return ok && s.Switch
}

func (e *LightEntity) SupportedColorModes() []string {
	return []string{e.ColorMode()}
}

func (e *LightEntity) ColorMode() string {
	if e.device.Dimmable() {
		return COLOR_MODE_BRIGHTNESS
	}
	return COLOR_MODE_ONOFF
}

// TurnOn dims the light when a brightness is given and the light supports it,
// otherwise it switches the light on.
func (e *LightEntity) TurnOn(ctx context.Context, brightness *int) error {
	if brightness != nil {
		e.log.log("turn on", zap.Int("brightness", *brightness))
	} else {
		e.log.log("turn on")
	}

	if brightness != nil && e.device.Dimmable() {
		dimmValue := ToDeviceBrightness(*brightness)
		e.log.log("turn on dimm", zap.Int("dimm_value", dimmValue))
		if err := e.device.Dimm(ctx, dimmValue); err != nil {
			return fmt.Errorf("dimm light %d to %d: %w", e.device.DeviceId(), dimmValue, err)
		}
		e.updateCached(func(s *xcomfort.LightState) {
			s.DimmValue = xcomfort.Int(dimmValue)
			s.Switch = dimmValue > 0
		})
		e.host.ScheduleUpdate(e)
		return nil
	}

	if err := e.device.Switch(ctx, true); err != nil {
		return fmt.Errorf("switch light %d on: %w", e.device.DeviceId(), err)
	}
	e.updateCached(func(s *xcomfort.LightState) {
		s.Switch = true
	})
	e.host.ScheduleUpdate(e)
	return nil
}

func (e *LightEntity) TurnOff(ctx context.Context) error {
	e.log.log("turn off")
	if err := e.device.Switch(ctx, false); err != nil {
		return fmt.Errorf("switch light %d off: %w", e.device.DeviceId(), err)
	}
	e.updateCached(func(s *xcomfort.LightState) {
		s.Switch = false
	})
	e.host.ScheduleUpdate(e)
	return nil
}

// updateCached edits a copy of the cached state, so the snapshot held by the
// bridge is never mutated.
func (e *LightEntity) updateCached(fn func(*xcomfort.LightState)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	s, _ := e.state.Get()
	fn(&s)
	e.state = xcomfort.Some(s)
}

func (e *LightEntity) Handle(ctx context.Context, cmd domain.EntityCommand) error {
	switch c := cmd.(type) {
	case domain.TurnOnCommand:
		return e.TurnOn(ctx, c.Brightness)
	case domain.TurnOffCommand:
		return e.TurnOff(ctx)
	default:
		return fmt.Errorf("%w: %s on %s", ErrUnsupportedCommand, cmd.EntityCommand(), e.uniqueId)
	}
}

func (e *LightEntity) Component() domain.Component {
	dimmable := e.device.Dimmable()
	light := domain.GenericLight{
		Device:              e.DeviceInfo(),
		Id:                  e.objectId,
		Name:                e.name,
		UniqueId:            e.uniqueId,
		Icon:                "mdi:lightbulb",
		SupportedColorModes: e.SupportedColorModes(),
		Brightness:          dimmable,
	}
	if dimmable {
		light.BrightnessScale = HOST_BRIGHTNESS_MAX
	}
	return light
}

func (e *LightEntity) StateEvent() domain.StateUpdateEvent {
	event := domain.LightStateUpdateEvent{
		StateUpdateEventMixIn: domain.StateUpdateEventMixIn{
			Id: e.objectId,
		},
		On: e.IsOn(),
	}
	if brightness, ok := e.Brightness(); ok {
		event.Brightness = &brightness
	}
	return event
}

// ensure interface compliance
var _ port.Entity = (*LightEntity)(nil)
