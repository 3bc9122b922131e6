package actorutil

import (
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/epaulsen/ha-xcomfort-bridge/internal/core/domain"
	"github.com/epaulsen/ha-xcomfort-bridge/internal/mqtt"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/lmittmann/tint"
	"go.uber.org/zap"
)

func PipeToSelfWithRecover(ctx actor.Context, future *actor.Future, mapFn func(error) any) {
	ctx.ReenterAfter(future, func(msg any, err error) {
		if err != nil {
			ctx.Send(ctx.Self(), mapFn(err))
			return
		}
		ctx.Send(ctx.Self(), msg)
	})
}

func NewActorSystemWithZapLogger(logger *zap.Logger) *actor.ActorSystem {
	stdOutLogger := zap.NewStdLog(logger)

	var slogLevel slog.Level = slog.LevelInfo

	switch logger.Level() {
	case zap.DebugLevel:
		slogLevel = slog.LevelDebug
	case zap.InfoLevel:
		slogLevel = slog.LevelInfo
	case zap.WarnLevel:
		slogLevel = slog.LevelWarn
	case zap.ErrorLevel:
		slogLevel = slog.LevelError
	case zap.PanicLevel:
		slogLevel = slog.LevelError
	}

	return actor.NewActorSystem(actor.WithLoggerFactory(func(system *actor.ActorSystem) *slog.Logger {

		// create a new logger
		return slog.New(tint.NewHandler(stdOutLogger.Writer(), &tint.Options{
			Level:      slogLevel,
			TimeFormat: time.DateTime,
		}))
	}))
}

func ActorLogger(actorName string, logger *zap.Logger) *zap.Logger {
	return logger.With(zap.String("actor", actorName))
}

// ParsedMQTTCommandToCommand maps a parsed MQTT command to the request the
// owning platform actor understands.
func ParsedMQTTCommandToCommand(cmd mqtt.ParsedMQTTCommand) (domain.EntityCommandRequest, error) {
	req := domain.EntityCommandRequest{
		Platform: cmd.Platform,
		ObjectId: cmd.DeviceId,
	}
	switch cmd.Platform {
	case mqtt.PLATFORM_CLIMATE:
		switch cmd.Command {
		case mqtt.COMMAND_TARGET_TEMPERATURE:
			value, err := strconv.ParseFloat(cmd.Payload, 64)
			if err != nil {
				return req, err
			}
			req.Command = domain.SetTemperatureCommand{Temperature: value}
			return req, nil
		case mqtt.COMMAND_PRESET:
			req.Command = domain.SetPresetModeCommand{PresetMode: cmd.Payload}
			return req, nil
		}
	case mqtt.PLATFORM_LIGHT:
		switch cmd.Command {
		case mqtt.COMMAND_SWITCH:
			if cmd.Payload == mqtt.MQTT_PAYLOAD_ON {
				req.Command = domain.TurnOnCommand{}
			} else {
				req.Command = domain.TurnOffCommand{}
			}
			return req, nil
		case mqtt.COMMAND_BRIGHTNESS:
			value, err := strconv.ParseUint(cmd.Payload, 10, 8)
			if err != nil {
				return req, err
			}
			brightness := int(value)
			if brightness == 0 {
				req.Command = domain.TurnOffCommand{}
			} else {
				req.Command = domain.TurnOnCommand{Brightness: &brightness}
			}
			return req, nil
		}
	}
	return req, fmt.Errorf("unknown command %s/%s", cmd.Platform, cmd.Command)
}
