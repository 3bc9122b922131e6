// Package entity adapts xComfort rooms and lights to host entities. Entities
// cache the last pushed state, forward host commands to the bridge objects and
// update their cache optimistically until the next push arrives.
package entity

import (
	"errors"

	"go.uber.org/zap"
)

const (
	DOMAIN       = "xcomfort_bridge"
	MANUFACTURER = "Eaton"
)

var (
	ErrUnsupportedCommand = errors.New("unsupported command")
	ErrInvalidTemperature = errors.New("invalid temperature")
)

type Options struct {
	Logger *zap.Logger
	// Verbose raises entity chatter (added, state changed, commands) from
	// debug to info.
	Verbose bool
}

func (o Options) baseLogger() *zap.Logger {
	if o.Logger == nil {
		return zap.NewNop()
	}
	return o.Logger
}

type verboseLogger struct {
	logger  *zap.Logger
	verbose bool
}

func newVerboseLogger(opts Options, uniqueId string) verboseLogger {
	return verboseLogger{
		logger:  opts.baseLogger().With(zap.String("entity", uniqueId)),
		verbose: opts.Verbose,
	}
}

func (l verboseLogger) log(msg string, fields ...zap.Field) {
	if l.verbose {
		l.logger.Info(msg, fields...)
	} else {
		l.logger.Debug(msg, fields...)
	}
}
