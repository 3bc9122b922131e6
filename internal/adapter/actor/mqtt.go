package actor

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/epaulsen/ha-xcomfort-bridge/internal/config"
	"github.com/epaulsen/ha-xcomfort-bridge/internal/core/domain"
	"github.com/epaulsen/ha-xcomfort-bridge/internal/metrics"
	"github.com/epaulsen/ha-xcomfort-bridge/internal/mqtt"
	"github.com/epaulsen/ha-xcomfort-bridge/internal/util/actorutil"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/asynkron/protoactor-go/eventstream"
	pahomqtt "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"
)

type MQTTActor struct {
	config       *config.Config
	behavior     actor.Behavior
	stash        *actorutil.Stash
	client       *mqtt.MQTTClient
	eventStream  *eventstream.EventStream
	subscription *eventstream.Subscription
	metrics      *metrics.Metrics
	logger       *zap.Logger

	pendingPublishes int
	published        chan<- PublishedMessage
}

type MQTTConnected struct {
}

type MQTTSubscribed struct {
}

type MQTTConnectionLost struct {
	Error error
}

type publishResult struct {
	ReplyTo *actor.PID
	Error   error
}

type ParsedCommand struct {
	Command *mqtt.ParsedMQTTCommand
}

// PublishedMessage is what the test actor reports for every message it would
// have sent to the broker.
type PublishedMessage struct {
	Topic   string
	Payload string
	Retain  bool
}

type rawMessage struct {
	topic   string
	message string
	retain  bool
}

func NewMQTTActor(config *config.Config, eventStream *eventstream.EventStream, m *metrics.Metrics, logger *zap.Logger) *MQTTActor {
	act := &MQTTActor{
		config:      config,
		behavior:    actor.NewBehavior(),
		stash:       &actorutil.Stash{},
		eventStream: eventStream,
		metrics:     m,
		logger:      actorutil.ActorLogger(domain.ACTOR_ID_MQTT, logger),
	}
	act.behavior.Become(act.StartingReceive)
	return act
}

func (state *MQTTActor) Receive(context actor.Context) {
	state.behavior.Receive(context)
}

func (state *MQTTActor) StartingReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case *actor.Started:
		state.logger.Debug("mqtt@starting started")

		// state events are stashed until the broker connection is ready
		state.subscribeEvents(ctx)

		// create MQTT client
		state.client = mqtt.CreateMQTTClient(state.config, mqtt.OptsFromConfig(state.config), func(_ pahomqtt.Client) {
		}, func(_ pahomqtt.Client, err error) {
			ctx.Send(ctx.Self(), MQTTConnectionLost{Error: err})
		})

		// connect to MQTT server
		state.client.Connect(func(err error) {
			if err != nil {
				ctx.Send(ctx.Self(), MQTTConnectionLost{Error: err})
			} else {
				ctx.Send(ctx.Self(), MQTTConnected{})
			}
		}, 10*time.Second)

	case MQTTConnected:
		state.logger.Debug("mqtt@starting connected")

		state.client.Publish(state.client.BridgeStateTopic(), mqtt.MQTT_PAYLOAD_ONLINE, 0, true, func(error) {}, 500*time.Millisecond)

		// subscribe to MQTT command topic
		state.client.SubscribeToCommandTopic(func(c pahomqtt.Client, m pahomqtt.Message) {
			cmd, err := state.client.ParseMQTTCommand(m)
			if err == nil && cmd != nil {
				ctx.Send(ctx.Self(), ParsedCommand{Command: cmd})
			} else if err != mqtt.ErrNotACommand {
				state.logger.Warn("mqtt: rejected command", zap.String("topic", m.Topic()), zap.Error(err))
			}
		}, func(err error) {
			if err != nil {
				ctx.Send(ctx.Self(), MQTTConnectionLost{Error: err})
			} else {
				ctx.Send(ctx.Self(), MQTTSubscribed{})
			}
		}, 1*time.Second)
	case MQTTSubscribed:
		// init completed, transition to default state
		state.logger.Debug("mqtt@starting subscribed")
		state.behavior.Become(state.DefaultReceive)
		state.stash.UnstashAll(ctx)
	case MQTTConnectionLost:
		// if connection lost, stop actor and let supervisor decide
		state.logger.Error("mqtt@starting connection lost", zap.Error(msg.Error))
		panic(msg.Error)
	case *actor.Restarting:
		state.stop()
	default:
		state.logger.Debug("mqtt@starting stash", zap.String("type", fmt.Sprintf("%T", msg)))
		state.stash.Stash(ctx, msg)
	}
}

func (state *MQTTActor) DefaultReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case *actor.Restarting:
		state.stop()
	case *actor.Stopping:
		state.stop()
	case domain.ActorHealthRequest:
		state.logger.Debug("mqtt@default ActorHealthRequest")
		// respond health check request
		ctx.Respond(domain.ActorHealthResponse{
			Id:      domain.ACTOR_ID_MQTT,
			Healthy: true,
			State:   "idle",
		})
	case ParsedCommand:
		// route command to parent
		state.logger.Debug("mqtt@default parsedCommand", zap.Any("command", msg.Command))
		ctx.Send(ctx.Parent(), msg)
	case domain.PublishMessageRequest:
		state.logger.Debug("mqtt@default PublishMessageRequest", zap.Any("message", msg))
		state.publishMessage(ctx, msg.Topic, msg.Payload, msg.Retain, actorutil.ForRequest(msg).ReplyTo(ctx))
	case domain.PublishStateUpdateRequest:
		// receive message from event bus and publish to MQTT
		state.logger.Debug("mqtt@default PublishStateUpdateRequest", zap.String("type", fmt.Sprintf("%T", msg.Event)))
		state.publishStateUpdate(ctx, msg.Event, msg.Retain)
	case domain.PublishDiscoveryRequest:
		state.logger.Debug("mqtt@default PublishHADiscovery")
		err := state.PublishHomeAssistantDiscovery(msg)
		if err != nil {
			state.logger.Error("mqtt@default PublishHADiscovery error", zap.Error(err))
		}
		if msg.ReplyToRef != nil {
			actorutil.ForRequest(msg).Respond(ctx, domain.PublishDiscoveryResponse{
				ActorResponseMixIn: domain.ActorResponseMixIn{ResponseError: err},
			})
		}
	case MQTTConnectionLost:
		// if connection lost, stop actor and let supervisor decide
		state.logger.Error("mqtt@default connection lost", zap.Error(msg.Error))
		panic(msg.Error)
	default:
		state.logger.Debug("mqtt@default unhandled", zap.String("type", fmt.Sprintf("%T", msg)))
	}
}

// subscribeEvents forwards entity state events from the event bus into the
// mailbox.
func (state *MQTTActor) subscribeEvents(ctx actor.Context) {
	if state.eventStream == nil || state.subscription != nil {
		return
	}
	root := ctx.ActorSystem().Root
	self := ctx.Self()
	state.subscription = state.eventStream.Subscribe(func(evt any) {
		if event, ok := evt.(domain.StateUpdateEvent); ok {
			root.Send(self, domain.PublishStateUpdateRequest{
				Event:  event,
				Retain: true,
			})
		}
	})
}

func (state *MQTTActor) unsubscribeEvents() {
	if state.eventStream != nil && state.subscription != nil {
		state.eventStream.Unsubscribe(state.subscription)
		state.subscription = nil
	}
}

func (state *MQTTActor) event2MQTTMessages(event domain.StateUpdateEvent) []rawMessage {
	switch msg := event.(type) {
	case domain.ClimateStateUpdateEvent:
		id := msg.Id
		msgs := []rawMessage{
			{topic: state.client.ClimateStateTopic(id, mqtt.CLIMATE_ATTR_CURRENT_TEMPERATURE), message: formatFloat(msg.CurrentTemperature)},
			{topic: state.client.ClimateStateTopic(id, mqtt.CLIMATE_ATTR_TARGET_TEMPERATURE), message: formatFloat(msg.TargetTemperature)},
			{topic: state.client.ClimateStateTopic(id, mqtt.CLIMATE_ATTR_ACTION), message: msg.Action},
			{topic: state.client.ClimateStateTopic(id, mqtt.CLIMATE_ATTR_MODE), message: msg.Mode},
		}
		if msg.PresetMode != "" {
			msgs = append(msgs, rawMessage{topic: state.client.ClimateStateTopic(id, mqtt.CLIMATE_ATTR_PRESET), message: msg.PresetMode})
		}
		if msg.Humidity != nil {
			msgs = append(msgs, rawMessage{topic: state.client.ClimateStateTopic(id, mqtt.CLIMATE_ATTR_CURRENT_HUMIDITY), message: strconv.Itoa(*msg.Humidity)})
		}
		return msgs
	case domain.LightStateUpdateEvent:
		msgs := []rawMessage{
			{topic: state.client.LightStateTopic(msg.Id), message: bool2MQTTPayload(msg.On)},
		}
		if msg.Brightness != nil {
			msgs = append(msgs, rawMessage{topic: state.client.LightBrightnessStateTopic(msg.Id), message: strconv.Itoa(*msg.Brightness)})
		}
		return msgs
	case domain.BridgeStateUpdateEvent:
		var stringMessage string
		if msg.Value {
			stringMessage = mqtt.MQTT_PAYLOAD_ONLINE
		} else {
			stringMessage = mqtt.MQTT_PAYLOAD_OFFLINE
		}
		return []rawMessage{{
			topic:   state.client.BridgeStateTopic(),
			message: stringMessage,
			retain:  true,
		}}
	default:
		return nil
	}
}

func (state *MQTTActor) publishStateUpdate(ctx actor.Context, event domain.StateUpdateEvent, retain bool) {
	msgs := state.event2MQTTMessages(event)
	if len(msgs) == 0 {
		return
	}
	state.pendingPublishes = len(msgs)
	for _, msg := range msgs {
		state.logger.Sugar().Debugf("mqtt@publish: state publish %s => %s", msg.topic, msg.message)
		state.client.Publish(msg.topic, msg.message, 1, msg.retain || retain, func(err error) {
			ctx.Send(ctx.Self(), publishResult{Error: err})
		}, 5*time.Second)
	}
	state.behavior.BecomeStacked(state.EventPublishResultReceive)
}

func (state *MQTTActor) publishMessage(ctx actor.Context, topic, payload string, retain bool, replyTo *actor.PID) {
	state.logger.Sugar().Debugf("mqtt@publish: message publish %s => %s", topic, payload)
	state.client.Publish(topic, payload, 1, retain, func(err error) {
		ctx.Send(ctx.Self(), publishResult{ReplyTo: replyTo, Error: err})
	}, 5*time.Second)
	state.behavior.BecomeStacked(state.MessagePublishResultReceive)
}

func (state *MQTTActor) MessagePublishResultReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case publishResult:
		// log error and return to default state
		state.metrics.Publish(msg.Error)
		if msg.Error != nil {
			state.logger.Error("mqtt@publishing could not publish a message", zap.Error(msg.Error))
		}
		if msg.ReplyTo != nil {
			ctx.Send(msg.ReplyTo, domain.PublishMessageResponse{
				ActorResponseMixIn: domain.ActorResponseMixIn{
					ResponseError: msg.Error,
				},
			})
		}
		state.behavior.UnbecomeStacked()
		state.stash.UnstashOldest(ctx)
	case MQTTConnectionLost:
		state.logger.Error("mqtt@publishing connection lost", zap.Error(msg.Error))
		panic(msg.Error)
	default:
		state.logger.Debug("mqtt@publishing stash", zap.String("type", fmt.Sprintf("%T", msg)))
		state.stash.Stash(ctx, msg)
	}
}

func (state *MQTTActor) EventPublishResultReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case publishResult:
		state.metrics.Publish(msg.Error)
		if msg.Error != nil {
			state.logger.Error("mqtt@publishing could not publish a message", zap.Error(msg.Error))
		}
		state.pendingPublishes--
		if state.pendingPublishes > 0 {
			return
		}
		state.behavior.UnbecomeStacked()
		state.stash.UnstashOldest(ctx)
	case MQTTConnectionLost:
		state.logger.Error("mqtt@publishing connection lost", zap.Error(msg.Error))
		panic(msg.Error)
	default:
		state.logger.Debug("mqtt@publishing stash", zap.String("type", fmt.Sprintf("%T", msg)))
		state.stash.Stash(ctx, msg)
	}
}

func (state *MQTTActor) discoveryMessages(req domain.PublishDiscoveryRequest) ([]rawMessage, error) {
	var msgs []rawMessage
	add := func(topic string, config any) error {
		payload, err := json.Marshal(config)
		if err != nil {
			return err
		}
		msgs = append(msgs, rawMessage{topic: topic, message: string(payload), retain: true})
		return nil
	}
	for i := range req.Sensors {
		if err := add(state.client.HADiscoverySensorTopic(req.Sensors[i]),
			mqtt.GenericSensorToHADiscoveryMessage(state.client, req.Sensors[i])); err != nil {
			return nil, err
		}
	}
	for i := range req.Climates {
		if err := add(state.client.HADiscoveryClimateTopic(req.Climates[i]),
			mqtt.GenericClimateToHADiscoveryMessage(state.client, req.Climates[i])); err != nil {
			return nil, err
		}
	}
	for i := range req.Lights {
		if err := add(state.client.HADiscoveryLightTopic(req.Lights[i]),
			mqtt.GenericLightToHADiscoveryMessage(state.client, req.Lights[i])); err != nil {
			return nil, err
		}
	}
	return msgs, nil
}

func (state *MQTTActor) PublishHomeAssistantDiscovery(req domain.PublishDiscoveryRequest) error {
	msgs, err := state.discoveryMessages(req)
	if err != nil {
		return err
	}
	for _, msg := range msgs {
		state.client.Publish(msg.topic, msg.message, 0, msg.retain, func(err error) {
			state.metrics.Publish(err)
		}, 1*time.Second)
	}
	return nil
}

func (state *MQTTActor) stop() {
	state.logger.Debug("mqtt: disconnect")
	state.unsubscribeEvents()
	if state.client != nil {
		state.client.Publish(state.client.BridgeStateTopic(), mqtt.MQTT_PAYLOAD_OFFLINE, 0, true, func(error) {}, 500*time.Millisecond)
		state.client.Disconnect(500 * time.Millisecond)
	}
}

func formatFloat(value float64) string {
	return strconv.FormatFloat(value, 'f', 1, 64)
}

func bool2MQTTPayload(value bool) string {
	if value {
		return mqtt.MQTT_PAYLOAD_ON
	} else {
		return mqtt.MQTT_PAYLOAD_OFF
	}
}

// Dummy actor. It never touches a broker and reports every message it would
// publish on the published channel, when one is given.
func NewTestMQTTActor(config *config.Config, eventStream *eventstream.EventStream, published chan<- PublishedMessage, logger *zap.Logger) *MQTTActor {
	act := &MQTTActor{
		config:      config,
		behavior:    actor.NewBehavior(),
		stash:       &actorutil.Stash{},
		eventStream: eventStream,
		published:   published,
		logger:      actorutil.ActorLogger(domain.ACTOR_ID_MQTT, logger),
	}
	act.behavior.Become(act.DummyReceive)
	return act
}

func (state *MQTTActor) DummyReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case *actor.Started:
		state.client = mqtt.NewTopics(state.config.MQTT)
		state.subscribeEvents(ctx)
	case *actor.Stopping:
		state.unsubscribeEvents()
	case domain.ActorHealthRequest:
		state.logger.Debug("mqtt@dummy ActorHealthRequest")
		// respond health check request
		ctx.Respond(domain.ActorHealthResponse{
			Id:      domain.ACTOR_ID_MQTT,
			Healthy: true,
			State:   "idle",
		})
	case ParsedCommand:
		ctx.Send(ctx.Parent(), msg)
	case domain.PublishStateUpdateRequest:
		for _, m := range state.event2MQTTMessages(msg.Event) {
			state.report(m.topic, m.message, m.retain || msg.Retain)
		}
		if msg.ReplyToRef != nil {
			actorutil.ForRequest(msg).Respond(ctx, domain.PublishStateUpdateResponse{})
		}
	case domain.PublishDiscoveryRequest:
		msgs, err := state.discoveryMessages(msg)
		for _, m := range msgs {
			state.report(m.topic, m.message, m.retain)
		}
		if msg.ReplyToRef != nil {
			actorutil.ForRequest(msg).Respond(ctx, domain.PublishDiscoveryResponse{
				ActorResponseMixIn: domain.ActorResponseMixIn{ResponseError: err},
			})
		}
	case domain.PublishMessageRequest:
		state.report(msg.Topic, msg.Payload, msg.Retain)
		if msg.ReplyToRef != nil {
			actorutil.ForRequest(msg).Respond(ctx, domain.PublishMessageResponse{})
		}
	}
}

func (state *MQTTActor) report(topic, payload string, retain bool) {
	if state.published == nil {
		return
	}
	state.published <- PublishedMessage{Topic: topic, Payload: payload, Retain: retain}
}
