package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	adactor "github.com/epaulsen/ha-xcomfort-bridge/internal/adapter/actor"
	"github.com/epaulsen/ha-xcomfort-bridge/internal/config"
	"github.com/epaulsen/ha-xcomfort-bridge/internal/core/actor"
	"github.com/epaulsen/ha-xcomfort-bridge/internal/metrics"
	"github.com/epaulsen/ha-xcomfort-bridge/internal/server"
	"github.com/epaulsen/ha-xcomfort-bridge/internal/util/actorutil"
	"github.com/epaulsen/ha-xcomfort-bridge/pkg/xcomfort"
	"github.com/epaulsen/ha-xcomfort-bridge/pkg/xcomfort/memhub"

	pactor "github.com/asynkron/protoactor-go/actor"
	"github.com/asynkron/protoactor-go/eventstream"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

func gracefulShutdown(apiServer *http.Server, done chan bool) {
	// Create context that listens for the interrupt signal from the OS.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()

	log.Println("shutting down gracefully, press Ctrl+C again to force")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := apiServer.Shutdown(ctx); err != nil {
		log.Printf("Server forced to shutdown with error: %v", err)
	}

	log.Println("Server exiting")

	done <- true
}

func main() {

	// load and print config
	cfg, err := initConfig()
	if err != nil {
		slog.Error("config errors", "error", err)
		return
	}
	safePrintConfig(*cfg)

	// zap logger
	zapCfg := zap.NewProductionConfig()
	zapCfg.Level = zap.NewAtomicLevelAt(cfg.LogLevel)

	logger := zap.Must(zapCfg.Build())
	defer logger.Sync()

	hub, err := loadHub(cfg, logger)
	if err != nil {
		logger.Error("could not load xcomfort inventory", zap.Error(err))
		return
	}

	m := metrics.New()

	// init actor system
	as := actorutil.NewActorSystemWithZapLogger(logger)
	ctx := as.Root

	props := pactor.PropsFromProducer(func() pactor.Actor {
		return actor.NewMasterOfPuppetsActor(*cfg, hubActorProvider(cfg, hub, logger), mqttActorProvider(cfg, m, logger), m, logger)
	})
	pid, err := ctx.SpawnNamed(props, "master")
	if err != nil {
		logger.Error("could not spawn master actor", zap.Error(err))
		return
	}

	server := server.NewServer(*cfg, ctx, pid, m)
	done := make(chan bool, 1)

	go gracefulShutdown(server, done)

	err = server.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		panic(fmt.Sprintf("http server error: %s", err))
	}

	<-done
	log.Println("Graceful shutdown complete.")

	ctx.Stop(pid)
	as.Shutdown()
}

func initConfig() (*config.Config, error) {

	// alias PORT => XCOMFORT_PORT
	if port := os.Getenv("PORT"); port != "" {
		os.Setenv("XCOMFORT_PORT", port)
	}

	config.SetDefaults(viper.GetViper())

	// if defined, try to load config from yaml file
	if cfgFile := os.Getenv("CONFIG_FILE"); cfgFile != "" {
		if _, err := os.Stat(cfgFile); err == nil {
			slog.Info("Using config", "file", cfgFile)
			viper.SetConfigFile(cfgFile)

			err = viper.ReadInConfig()
			if err != nil {
				slog.Error("Error reading config file", "error", err)
			}
		}
	}

	var cfg config.Config

	err := viper.Unmarshal(&cfg)
	if err != nil {
		return nil, err
	}

	switch viper.GetString("log_level") {
	case "trace", "debug":
		cfg.LogLevel = zap.DebugLevel
	case "info":
		cfg.LogLevel = zap.InfoLevel
	case "error":
		cfg.LogLevel = zap.ErrorLevel
	case "warn":
		cfg.LogLevel = zap.WarnLevel
	case "fatal":
		cfg.LogLevel = zap.FatalLevel
	default:
		cfg.LogLevel = zap.InfoLevel
	}

	// check and fix base topic
	baseTopic, err := config.CheckMQTTTopic(cfg.MQTT.BaseTopic)
	if err != nil {
		return nil, errors.New("invalid base topic. can only contain letters, numbers and underscores")
	}
	cfg.MQTT.BaseTopic = baseTopic

	// check and fix homeassistant discovery topic
	hadBaseTopic, err := config.CheckMQTTTopic(cfg.MQTT.HADiscoveryTopic)
	if err != nil {
		return nil, errors.New("invalid homeassistant discovery topic. can only contain letters, numbers and underscores")
	}
	cfg.MQTT.HADiscoveryTopic = hadBaseTopic

	if cfg.Bridge.HubId == "" {
		cfg.Bridge.HubId = fmt.Sprintf("xcomfort_bridge_%s", cfg.Bridge.Identifier)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// loadHub builds the in-memory bridge from the inventory file, or an empty one
// when no inventory is configured.
func loadHub(cfg *config.Config, logger *zap.Logger) (xcomfort.Hub, error) {
	if cfg.Bridge.InventoryFile == "" {
		logger.Warn("no bridge.inventory_file configured, starting with an empty bridge")
		return memhub.NewHub(cfg.Bridge.Identifier, cfg.Bridge.HubId), nil
	}
	inv, err := memhub.LoadInventoryFile(cfg.Bridge.InventoryFile)
	if err != nil {
		return nil, err
	}
	hub, err := inv.Build(cfg.Bridge.Identifier, cfg.Bridge.HubId)
	if err != nil {
		return nil, err
	}
	logger.Info("loaded xcomfort inventory", zap.String("file", cfg.Bridge.InventoryFile),
		zap.Int("rooms", len(hub.Rooms())), zap.Int("devices", len(hub.Devices())))
	return hub, nil
}

func hubActorProvider(cfg *config.Config, hub xcomfort.Hub, logger *zap.Logger) actor.HubActorProvider {
	connectTimeout := time.Duration(cfg.Bridge.CommandTimeoutMillis) * time.Millisecond
	return func(es *eventstream.EventStream) *adactor.HubActor {
		return adactor.NewHubActor(hub, connectTimeout, es, logger)
	}
}

func mqttActorProvider(cfg *config.Config, m *metrics.Metrics, logger *zap.Logger) actor.MQTTActorProvider {
	return func(es *eventstream.EventStream) *adactor.MQTTActor {
		return adactor.NewMQTTActor(cfg, es, m, logger)
	}
}

func safePrintConfig(cfg config.Config) {
	cfg.MQTT.Username = "*redacted*"
	cfg.MQTT.Password = "*redacted*"
	slog.Info("Using", "config", cfg)
}
