package entity

import (
	"context"
	"fmt"
	"math"
	"sync"

	"github.com/epaulsen/ha-xcomfort-bridge/internal/core/domain"
	"github.com/epaulsen/ha-xcomfort-bridge/internal/core/port"
	"github.com/epaulsen/ha-xcomfort-bridge/pkg/xcomfort"

	"go.uber.org/zap"
)

const (
	DEFAULT_MIN_TEMP = 5.0
	DEFAULT_MAX_TEMP = 40.0
	DEFAULT_TEMP     = 20.0
	TEMP_STEP        = 0.5

	HVAC_MODE_AUTO      = "auto"
	HVAC_ACTION_HEATING = "heating"
	HVAC_ACTION_IDLE    = "idle"

	TEMPERATURE_UNIT_CELSIUS = "C"
	RC_TOUCH_MODEL           = "RC Touch"
)

// SetupClimate wraps every room that reports a setpoint in a ClimateEntity.
func SetupClimate(hub xcomfort.Hub, host port.Host, opts Options) []port.Entity {
	logger := opts.baseLogger()

	rooms := hub.Rooms()
	logger.Info("found xcomfort rooms", zap.Int("count", len(rooms)))

	var rcts []port.Entity
	for _, room := range rooms {
		subject := room.State()
		if subject == nil {
			continue
		}
		state, ok := subject.Value().Get()
		if !ok || state.Setpoint == nil {
			continue
		}
		rcts = append(rcts, NewClimateEntity(hub, room, host, opts))
	}

	logger.Info("added rc touch units", zap.Int("count", len(rcts)))
	return rcts
}

// ClimateEntity exposes the RC Touch controller of a room.
type ClimateEntity struct {
	host     port.Host
	hub      xcomfort.Hub
	room     xcomfort.Room
	name     string
	uniqueId string
	objectId string
	log      verboseLogger

	mu              sync.RWMutex
	state           xcomfort.Optional[xcomfort.RoomState]
	preset          xcomfort.RctMode
	rctState        xcomfort.RctState
	temperature     float64
	currentSetpoint float64
	unsubscribe     func()
}

func NewClimateEntity(hub xcomfort.Hub, room xcomfort.Room, host port.Host, opts Options) *ClimateEntity {
	uniqueId := fmt.Sprintf("climate_%s_%s-%d", DOMAIN, hub.Identifier(), room.RoomId())
	return &ClimateEntity{
		host:            host,
		hub:             hub,
		room:            room,
		name:            room.Name(),
		uniqueId:        uniqueId,
		objectId:        fmt.Sprintf("rct_%d", room.RoomId()),
		log:             newVerboseLogger(opts, uniqueId),
		state:           xcomfort.None[xcomfort.RoomState](),
		preset:          xcomfort.RctModeComfort,
		rctState:        xcomfort.RctStateIdle,
		temperature:     DEFAULT_TEMP,
		currentSetpoint: DEFAULT_TEMP,
	}
}

func (e *ClimateEntity) Platform() string { return domain.COMPONENT_TYPE_CLIMATE }

func (e *ClimateEntity) Name() string { return e.name }

func (e *ClimateEntity) UniqueId() string { return e.uniqueId }

func (e *ClimateEntity) ObjectId() string { return e.objectId }

func (e *ClimateEntity) ShouldPoll() bool { return false }

func (e *ClimateEntity) DeviceInfo() domain.Device {
	return domain.Device{
		Id:           e.uniqueId,
		Name:         e.name,
		Manufacturer: MANUFACTURER,
		Model:        RC_TOUCH_MODEL,
		ViaDevice:    e.hub.HubId(),
	}
}

func (e *ClimateEntity) AddedToHost() {
	e.log.log("added to host", zap.String("name", e.name))
	subject := e.room.State()
	if subject == nil {
		e.log.log("state is null", zap.String("name", e.name))
		return
	}
	unsubscribe := subject.Subscribe(func(state xcomfort.Optional[xcomfort.RoomState]) {
		e.host.Dispatch(func() {
			e.StateChanged(state)
		})
	})
	e.mu.Lock()
	e.unsubscribe = unsubscribe
	e.mu.Unlock()
}

func (e *ClimateEntity) RemovedFromHost() {
	e.mu.Lock()
	unsubscribe := e.unsubscribe
	e.unsubscribe = nil
	e.mu.Unlock()
	if unsubscribe != nil {
		unsubscribe()
	}
}

// StateChanged applies a push from the bridge. Fields missing from the push
// keep their cached value.
func (e *ClimateEntity) StateChanged(state xcomfort.Optional[xcomfort.RoomState]) {
	e.mu.Lock()
	e.state = state
	s, present := state.Get()
	if present {
		if s.CurrentMode != nil && s.CurrentMode.Valid() {
			e.preset = *s.CurrentMode
		}
		if s.Mode != nil && s.Mode.Valid() {
			e.preset = *s.Mode
		}
		if s.Temperature != nil {
			e.temperature = *s.Temperature
		}
		if s.Setpoint != nil {
			e.currentSetpoint = *s.Setpoint
		}
		e.rctState = s.RctState
	}
	e.mu.Unlock()

	if present {
		e.log.log("state changed", zap.String("name", e.name), zap.Any("state", s))
		e.host.ScheduleUpdate(e)
	}
}

func (e *ClimateEntity) SetPresetMode(ctx context.Context, preset string) error {
	e.log.log("set preset mode", zap.String("preset", preset))

	mode, ok := PresetToMode(preset)
	if !ok {
		e.log.log("ignoring unknown preset", zap.String("preset", preset))
		return nil
	}

	e.mu.RLock()
	current := e.preset
	e.mu.RUnlock()
	if current == mode {
		return nil
	}

	if err := e.room.SetMode(ctx, mode); err != nil {
		return fmt.Errorf("set mode %s on room %d: %w", mode, e.room.RoomId(), err)
	}

	e.mu.Lock()
	e.preset = mode
	e.mu.Unlock()
	e.host.ScheduleUpdate(e)
	return nil
}

// SetTemperature clamps temperature into the allowed range of the active
// preset and sends it to the bridge.
func (e *ClimateEntity) SetTemperature(ctx context.Context, temperature float64) error {
	e.log.log("set temperature", zap.Float64("temperature", temperature))
	if math.IsNaN(temperature) || math.IsInf(temperature, 0) {
		return fmt.Errorf("%w: %v for room %d", ErrInvalidTemperature, temperature, e.room.RoomId())
	}

	e.mu.RLock()
	preset := e.preset
	rctState := e.rctState
	e.mu.RUnlock()

	if subject := e.room.State(); subject != nil {
		if s, ok := subject.Value().Get(); ok {
			rctState = s.RctState
		}
	}

	setpointRange, ok := e.room.Bridge().SetpointRange(preset)
	if !ok {
		return fmt.Errorf("no setpoint range for mode %s on room %d", preset, e.room.RoomId())
	}
	setpoint := setpointRange.Clamp(temperature)

	payload := xcomfort.HeatingStatePayload{
		RoomId:    e.room.RoomId(),
		Mode:      int(preset),
		State:     int(rctState),
		Setpoint:  setpoint,
		Confirmed: false,
	}
	if err := e.room.Bridge().SendMessage(ctx, xcomfort.MessageSetHeatingState, payload); err != nil {
		return fmt.Errorf("set heating state on room %d: %w", e.room.RoomId(), err)
	}
	e.room.SetModeSetpoint(preset, setpoint)

	e.mu.Lock()
	e.currentSetpoint = setpoint
	e.mu.Unlock()
	e.host.ScheduleUpdate(e)
	return nil
}

func (e *ClimateEntity) Handle(ctx context.Context, cmd domain.EntityCommand) error {
	switch c := cmd.(type) {
	case domain.SetTemperatureCommand:
		return e.SetTemperature(ctx, c.Temperature)
	case domain.SetPresetModeCommand:
		return e.SetPresetMode(ctx, c.PresetMode)
	default:
		return fmt.Errorf("%w: %s on %s", ErrUnsupportedCommand, cmd.EntityCommand(), e.uniqueId)
	}
}

func (e *ClimateEntity) CurrentTemperature() float64 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.temperature
}

func (e *ClimateEntity) TargetTemperature() float64 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.currentSetpoint
}

func (e *ClimateEntity) HvacMode() string { return HVAC_MODE_AUTO }

func (e *ClimateEntity) HvacModes() []string { return []string{HVAC_MODE_AUTO} }

// CurrentHumidity reports false when no state or no humidity was pushed.
func (e *ClimateEntity) CurrentHumidity() (int, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	s, ok := e.state.Get()
	if !ok || s.Humidity == nil {
		return 0, false
	}
	return int(*s.Humidity), true
}

func (e *ClimateEntity) HvacAction() string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	s, ok := e.state.Get()
	if ok && s.Power != nil && *s.Power > 0 {
		return HVAC_ACTION_HEATING
	}
	return HVAC_ACTION_IDLE
}

func (e *ClimateEntity) MinTemp() float64 {
	r, ok := e.activeRange()
	if !ok {
		return DEFAULT_MIN_TEMP
	}
	return r.Min
}

func (e *ClimateEntity) MaxTemp() float64 {
	r, ok := e.activeRange()
	if !ok {
		return DEFAULT_MAX_TEMP
	}
	return r.Max
}

func (e *ClimateEntity) activeRange() (xcomfort.SetpointRange, bool) {
	e.mu.RLock()
	present := e.state.Present()
	preset := e.preset
	e.mu.RUnlock()
	if !present {
		return xcomfort.SetpointRange{}, false
	}
	return e.room.Bridge().SetpointRange(preset)
}

func (e *ClimateEntity) PresetModes() []string { return PresetModes() }

func (e *ClimateEntity) PresetMode() (string, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return ModeToPreset(e.preset)
}

func (e *ClimateEntity) Component() domain.Component {
	return domain.GenericClimate{
		Device:          e.DeviceInfo(),
		Id:              e.objectId,
		Name:            e.name,
		UniqueId:        e.uniqueId,
		Icon:            "mdi:thermostat",
		Modes:           e.HvacModes(),
		PresetModes:     e.PresetModes(),
		MinTemp:         e.MinTemp(),
		MaxTemp:         e.MaxTemp(),
		TempStep:        TEMP_STEP,
		TemperatureUnit: TEMPERATURE_UNIT_CELSIUS,
	}
}

func (e *ClimateEntity) StateEvent() domain.StateUpdateEvent {
	event := domain.ClimateStateUpdateEvent{
		StateUpdateEventMixIn: domain.StateUpdateEventMixIn{
			Id: e.objectId,
		},
		CurrentTemperature: e.CurrentTemperature(),
		TargetTemperature:  e.TargetTemperature(),
		Action:             e.HvacAction(),
		Mode:               e.HvacMode(),
		MinTemp:            e.MinTemp(),
		MaxTemp:            e.MaxTemp(),
	}
	if humidity, ok := e.CurrentHumidity(); ok {
		event.Humidity = &humidity
	}
	if preset, ok := e.PresetMode(); ok {
		event.PresetMode = preset
	}
	return event
}

// ensure interface compliance
var _ port.Entity = (*ClimateEntity)(nil)
