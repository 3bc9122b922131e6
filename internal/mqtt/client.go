package mqtt

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/epaulsen/ha-xcomfort-bridge/internal/config"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
)

const (
	MQTT_PAYLOAD_ONLINE  = "online"
	MQTT_PAYLOAD_OFFLINE = "offline"
	MQTT_PAYLOAD_ON      = "on"
	MQTT_PAYLOAD_OFF     = "off"
)

const (
	PLATFORM_CLIMATE = "climate"
	PLATFORM_LIGHT   = "light"

	CLIMATE_ATTR_CURRENT_TEMPERATURE = "current_temperature"
	CLIMATE_ATTR_CURRENT_HUMIDITY    = "current_humidity"
	CLIMATE_ATTR_TARGET_TEMPERATURE  = "target_temperature"
	CLIMATE_ATTR_PRESET              = "preset"
	CLIMATE_ATTR_ACTION              = "action"
	CLIMATE_ATTR_MODE                = "mode"

	COMMAND_TARGET_TEMPERATURE = "target_temperature"
	COMMAND_PRESET             = "preset"
	COMMAND_SWITCH             = "switch"
	COMMAND_BRIGHTNESS         = "brightness"
)

var ErrNotACommand = errors.New("not a command topic")

func OptsFromConfig(cfg *config.Config) *mqtt.ClientOptions {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(fmt.Sprintf("tcp://%s:%d", cfg.MQTT.Host, cfg.MQTT.Port))
	opts.SetClientID(fmt.Sprintf("xcomfort_%s", strings.ReplaceAll(uuid.NewString(), "-", "")[:12]))
	if cfg.MQTT.Username != "" && cfg.MQTT.Password != "" {
		opts.SetUsername(cfg.MQTT.Username)
		opts.SetPassword(cfg.MQTT.Password)
	}
	opts.WillEnabled = true
	opts.WillPayload = []byte(MQTT_PAYLOAD_OFFLINE)
	opts.WillRetained = true
	opts.WillTopic = bridgeStateTopic(cfg.MQTT.BaseTopic)
	opts.WillQos = 0

	return opts
}

func CreateMQTTClient(cfg *config.Config, opts *mqtt.ClientOptions, onConnectHandler func(client mqtt.Client),
	onConnectionLostHandler func(mqtt.Client, error)) *MQTTClient {
	if onConnectHandler != nil {
		opts.OnConnect = onConnectHandler
	}
	if onConnectionLostHandler != nil {
		opts.OnConnectionLost = onConnectionLostHandler
	}
	return NewTopics(cfg.MQTT).withClient(mqtt.NewClient(opts))
}

// NewTopics returns a client without a broker connection. It only builds and
// parses topics.
func NewTopics(cfg config.MQTTConfig) *MQTTClient {
	return &MQTTClient{
		cfg:                        cfg,
		climateCommandRegexp:       climateCommandExtractor(cfg.BaseTopic),
		lightSwitchCommandRegexp:   lightSwitchCommandExtractor(cfg.BaseTopic),
		lightBrightnessCommandRegx: lightBrightnessCommandExtractor(cfg.BaseTopic),
	}
}

type MQTTClient struct {
	client                     mqtt.Client
	cfg                        config.MQTTConfig
	climateCommandRegexp       *regexp.Regexp
	lightSwitchCommandRegexp   *regexp.Regexp
	lightBrightnessCommandRegx *regexp.Regexp
}

type ParsedMQTTCommand struct {
	Platform string
	DeviceId string
	Command  string
	Payload  string
}

func (c *MQTTClient) withClient(client mqtt.Client) *MQTTClient {
	c.client = client
	return c
}

func (c *MQTTClient) baseTopic() string {
	return c.cfg.BaseTopic
}

func (c *MQTTClient) BridgeStateTopic() string {
	return bridgeStateTopic(c.baseTopic())
}

func (c *MQTTClient) ClimateStateTopic(id, attr string) string {
	return fmt.Sprintf("%s/climate/%s/%s", c.baseTopic(), id, attr)
}

func (c *MQTTClient) ClimateCommandTopic(id, attr string) string {
	return fmt.Sprintf("%s/climate/%s/%s/set", c.baseTopic(), id, attr)
}

func (c *MQTTClient) LightStateTopic(id string) string {
	return fmt.Sprintf("%s/light/%s/state", c.baseTopic(), id)
}

func (c *MQTTClient) LightCommandTopic(id string) string {
	return fmt.Sprintf("%s/light/%s/set", c.baseTopic(), id)
}

func (c *MQTTClient) LightBrightnessStateTopic(id string) string {
	return fmt.Sprintf("%s/light/%s/brightness", c.baseTopic(), id)
}

func (c *MQTTClient) LightBrightnessCommandTopic(id string) string {
	return fmt.Sprintf("%s/light/%s/brightness/set", c.baseTopic(), id)
}

func (c *MQTTClient) DiscoveryTopic(component, nodeId, objectId string) string {
	return fmt.Sprintf("%s/%s/%s/%s/config", c.cfg.HADiscoveryTopic, component, nodeId, objectId)
}

func (c *MQTTClient) ParseMQTTCommand(msg mqtt.Message) (*ParsedMQTTCommand, error) {
	return c.ParseCommand(msg.Topic(), string(msg.Payload()))
}

// ParseCommand recognises climate and light command topics and validates
// their payload.
func (c *MQTTClient) ParseCommand(topic, payload string) (*ParsedMQTTCommand, error) {
	payload = strings.TrimSpace(payload)

	if matches := c.climateCommandRegexp.FindStringSubmatch(topic); len(matches) == 3 {
		cmd := &ParsedMQTTCommand{
			Platform: PLATFORM_CLIMATE,
			DeviceId: matches[1],
			Command:  matches[2],
			Payload:  payload,
		}
		switch cmd.Command {
		case COMMAND_TARGET_TEMPERATURE:
			value, err := strconv.ParseFloat(payload, 64)
			if err != nil {
				return nil, fmt.Errorf("invalid temperature %q: %w", payload, err)
			}
			if math.IsNaN(value) || math.IsInf(value, 0) {
				return nil, fmt.Errorf("invalid temperature %q: not a finite number", payload)
			}
		case COMMAND_PRESET:
			if payload == "" {
				return nil, errors.New("empty preset")
			}
		}
		return cmd, nil
	}

	if matches := c.lightBrightnessCommandRegx.FindStringSubmatch(topic); len(matches) == 2 {
		value, err := strconv.Atoi(payload)
		if err != nil {
			return nil, fmt.Errorf("invalid brightness %q: %w", payload, err)
		}
		if value < 0 || value > 255 {
			return nil, fmt.Errorf("brightness %d out of range", value)
		}
		return &ParsedMQTTCommand{
			Platform: PLATFORM_LIGHT,
			DeviceId: matches[1],
			Command:  COMMAND_BRIGHTNESS,
			Payload:  payload,
		}, nil
	}

	if matches := c.lightSwitchCommandRegexp.FindStringSubmatch(topic); len(matches) == 2 {
		lower := strings.ToLower(payload)
		if lower != MQTT_PAYLOAD_ON && lower != MQTT_PAYLOAD_OFF {
			return nil, fmt.Errorf("invalid switch payload %q", payload)
		}
		return &ParsedMQTTCommand{
			Platform: PLATFORM_LIGHT,
			DeviceId: matches[1],
			Command:  COMMAND_SWITCH,
			Payload:  lower,
		}, nil
	}

	return nil, ErrNotACommand
}

func (c *MQTTClient) Publish(topic string, payload any, qos byte, retain bool, continuation func(error), timeout time.Duration) {
	token := c.client.Publish(topic, qos, retain, payload)
	go func() {
		didTO := token.WaitTimeout(timeout)
		if !didTO {
			continuation(errors.New("MQTT publish timed out"))
		} else {
			continuation(token.Error())
		}
	}()
}

func (c *MQTTClient) Subscribe(topic string, qos byte, handler mqtt.MessageHandler, continuation func(error), timeout time.Duration) {
	token := c.client.Subscribe(topic, qos, handler)
	go func() {
		didTO := token.WaitTimeout(timeout)
		if !didTO {
			continuation(errors.New("MQTT subscribe timed out"))
		} else {
			continuation(token.Error())
		}
	}()
}

func (c *MQTTClient) SubscribeToCommandTopic(handler mqtt.MessageHandler, continuation func(error), timeout time.Duration) {
	c.Subscribe(c.commandTopic(), 1, handler, continuation, timeout)
}

func (c *MQTTClient) Connect(continuation func(error), timeout time.Duration) {
	token := c.client.Connect()
	go func() {
		didTO := token.WaitTimeout(timeout)
		if !didTO {
			continuation(errors.New("MQTT connect timed out"))
		} else {
			continuation(token.Error())
		}
	}()
}

func (c *MQTTClient) Disconnect(timeout time.Duration) {
	if c.client == nil {
		return
	}
	c.client.Disconnect(uint(timeout.Milliseconds()))
}

func (c *MQTTClient) commandTopic() string {
	return fmt.Sprintf("%s/+/+/#", c.baseTopic())
}

func climateCommandExtractor(baseTopic string) *regexp.Regexp {
	return regexp.MustCompile(fmt.Sprintf("^%s/climate/([a-zA-Z0-9_]+)/(%s|%s)/set$",
		regexp.QuoteMeta(baseTopic), COMMAND_TARGET_TEMPERATURE, COMMAND_PRESET))
}

func lightSwitchCommandExtractor(baseTopic string) *regexp.Regexp {
	return regexp.MustCompile(fmt.Sprintf("^%s/light/([a-zA-Z0-9_]+)/set$", regexp.QuoteMeta(baseTopic)))
}

func lightBrightnessCommandExtractor(baseTopic string) *regexp.Regexp {
	return regexp.MustCompile(fmt.Sprintf("^%s/light/([a-zA-Z0-9_]+)/brightness/set$", regexp.QuoteMeta(baseTopic)))
}

func bridgeStateTopic(baseTopic string) string {
	return fmt.Sprintf("%s/bridge/state", baseTopic)
}
