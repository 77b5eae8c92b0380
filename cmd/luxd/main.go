// luxd - Lighting Universe Exchange Daemon
//
// This is the main entry point for the luxd daemon. luxd owns the
// device registry for a lighting installation: hardware plugins
// register their devices here, operators patch device ports into DMX
// universes, and patchings survive daemon restarts and device
// reconnects.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/openlux/luxd/migrations"

	"github.com/openlux/luxd/internal/api"
	"github.com/openlux/luxd/internal/device"
	"github.com/openlux/luxd/internal/events"
	"github.com/openlux/luxd/internal/infrastructure/config"
	"github.com/openlux/luxd/internal/infrastructure/database"
	"github.com/openlux/luxd/internal/infrastructure/influxdb"
	"github.com/openlux/luxd/internal/infrastructure/logging"
	"github.com/openlux/luxd/internal/infrastructure/mqtt"
	"github.com/openlux/luxd/internal/preferences"
	"github.com/openlux/luxd/internal/universe"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"     // Semantic version (e.g., "1.0.0")
	commit  = "unknown" // Git commit hash
	date    = "unknown" // Build date
)

// Default configuration file path
const defaultConfigPath = "configs/config.yaml"

// Interval between registry size gauge writes to InfluxDB.
const gaugeInterval = time.Minute

func main() {
	// Create a context that cancels on interrupt signals (Ctrl+C, SIGTERM)
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the actual application logic, separated from main for testability.
// Returning an error allows main to handle exit codes consistently.
func run(ctx context.Context) error {
	// A supervisor can also request shutdown over MQTT; that handler
	// needs a cancel func of its own.
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Use default logger until config is loaded
	log := logging.Default()
	log.Info("starting luxd",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	// Load configuration
	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log.Info("configuration loaded", "path", configPath)

	// Reinitialise logger with config settings
	log = logging.New(cfg.Logging, version)
	log.Info("logger initialised",
		"level", cfg.Logging.Level,
		"format", cfg.Logging.Format,
	)

	// Open database
	db, err := database.Open(database.Config{
		Path:        cfg.Database.Path,
		WALMode:     cfg.Database.WALMode,
		BusyTimeout: cfg.Database.BusyTimeout,
	})
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer func() {
		log.Info("closing database")
		if closeErr := db.Close(); closeErr != nil {
			log.Error("error closing database", "error", closeErr)
		}
	}()
	log.Info("database connected", "path", cfg.Database.Path)

	// Run migrations
	if migrateErr := db.Migrate(ctx); migrateErr != nil {
		return fmt.Errorf("running migrations: %w", migrateErr)
	}
	log.Info("database migrations complete")

	// Initialise universe store
	universeRepo := universe.NewSQLiteRepository(db)
	universes := universe.NewStore(universeRepo)
	universes.SetLogger(log)

	if loadErr := universes.Load(ctx); loadErr != nil {
		return fmt.Errorf("loading universes: %w", loadErr)
	}
	log.Info("universes loaded", "count", universes.Count())

	// Initialise port patching preferences
	prefsFactory := preferences.NewSQLiteFactory(db)
	portPrefs := prefsFactory.Namespace(device.PortPreferenceNamespace)
	if loadErr := portPrefs.Load(ctx); loadErr != nil {
		return fmt.Errorf("loading port preferences: %w", loadErr)
	}

	// Initialise device manager
	manager := device.NewManager(portPrefs, universes)
	manager.SetLogger(log)
	log.Info("device manager initialised")

	// Connect to MQTT broker (if enabled)
	var mqttClient *mqtt.Client
	if cfg.MQTT.Enabled {
		mqttClient, err = mqtt.Connect(cfg.MQTT)
		if err != nil {
			return fmt.Errorf("connecting to MQTT: %w", err)
		}
		defer func() {
			log.Info("closing MQTT connection")
			if closeErr := mqttClient.Close(); closeErr != nil {
				log.Error("error closing MQTT", "error", closeErr)
			}
		}()
		mqttClient.SetLogger(log)
		mqttClient.SetOnConnect(func() {
			log.Info("MQTT connected", "host", cfg.MQTT.Broker.Host)
		})
		mqttClient.SetOnDisconnect(func(disconnectErr error) {
			log.Warn("MQTT connection lost", "error", disconnectErr)
		})
		log.Info("MQTT connected",
			"host", cfg.MQTT.Broker.Host,
			"port", cfg.MQTT.Broker.Port,
		)

		// A supervisor publishing to the shutdown topic stops the
		// daemon the same way a signal does.
		topics := mqtt.Topics{}
		subErr := mqttClient.Subscribe(topics.SystemShutdown(), byte(cfg.MQTT.QoS), func(topic string, _ []byte) error {
			log.Info("shutdown requested over MQTT", "topic", topic)
			cancel()
			return nil
		})
		if subErr != nil {
			return fmt.Errorf("subscribing to shutdown topic: %w", subErr)
		}
	} else {
		log.Info("MQTT disabled")
	}

	// Connect to InfluxDB (if enabled)
	var influxClient *influxdb.Client
	if cfg.InfluxDB.Enabled {
		influxClient, err = influxdb.Connect(cfg.InfluxDB)
		if err != nil {
			return fmt.Errorf("connecting to InfluxDB: %w", err)
		}
		defer func() {
			log.Info("closing InfluxDB connection")
			if closeErr := influxClient.Close(); closeErr != nil {
				log.Error("error closing InfluxDB", "error", closeErr)
			}
		}()
		influxClient.SetOnError(func(writeErr error) {
			log.Warn("InfluxDB write error", "error", writeErr)
		})
		log.Info("InfluxDB connected", "url", cfg.InfluxDB.URL)
	} else {
		log.Info("InfluxDB disabled")
	}

	// Wire device manager callbacks to MQTT and telemetry.
	// Either sink may be absent; the publisher skips nil sinks.
	var bus events.Bus
	if mqttClient != nil {
		bus = mqttClient
	}
	var recorder events.Recorder
	if influxClient != nil {
		recorder = influxClient
	}
	publisher := events.NewPublisher(bus, recorder)
	publisher.SetLogger(log)
	manager.SetNotifier(publisher)

	// Periodically record registry sizes for dashboards.
	if influxClient != nil {
		go recordGauges(ctx, influxClient, manager, universes)
	}

	// Start HTTP API server (if enabled)
	if cfg.API.Enabled {
		apiServer, apiErr := api.New(api.Deps{
			Config:    cfg.API,
			Logger:    log,
			Manager:   manager,
			Universes: universes,
			Version:   version,
		})
		if apiErr != nil {
			return fmt.Errorf("creating API server: %w", apiErr)
		}
		if startErr := apiServer.Start(ctx); startErr != nil {
			return fmt.Errorf("starting API server: %w", startErr)
		}
		defer func() {
			log.Info("stopping API server")
			if closeErr := apiServer.Close(); closeErr != nil {
				log.Error("error stopping API server", "error", closeErr)
			}
		}()
		log.Info("API server started",
			"host", cfg.API.Host,
			"port", cfg.API.Port,
		)
	} else {
		log.Info("API disabled")
	}

	// Verify infrastructure connections are healthy
	if err := healthCheck(ctx, db, mqttClient, influxClient); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	log.Info("all health checks passed")

	log.Info("initialisation complete, waiting for shutdown signal")

	// Wait for shutdown signal
	<-ctx.Done()

	log.Info("shutdown signal received, cleaning up")

	// Unregister surviving devices so their final port patchings are
	// captured, then flush every preference namespace to the database.
	// Use a fresh context: the signal context is already cancelled.
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	manager.UnregisterAll(shutdownCtx)
	if saveErr := prefsFactory.SaveAll(shutdownCtx); saveErr != nil {
		log.Error("error saving preferences", "error", saveErr)
	}

	// Deferred Close() calls will run in reverse order:
	// 1. API server (if enabled)
	// 2. InfluxDB (if enabled)
	// 3. MQTT (if enabled)
	// 4. Database

	log.Info("luxd stopped")
	return nil
}

// getConfigPath returns the configuration file path.
// Uses LUXD_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("LUXD_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

// healthCheck verifies infrastructure connections are healthy.
// mqttClient and influxClient may be nil when those integrations are
// disabled.
func healthCheck(ctx context.Context, db *database.DB, mqttClient *mqtt.Client, influxClient *influxdb.Client) error {
	if err := db.HealthCheck(ctx); err != nil {
		return fmt.Errorf("database: %w", err)
	}

	if mqttClient != nil {
		if err := mqttClient.HealthCheck(ctx); err != nil {
			return fmt.Errorf("mqtt: %w", err)
		}
	}

	if influxClient != nil {
		if err := influxClient.HealthCheck(ctx); err != nil {
			return fmt.Errorf("influxdb: %w", err)
		}
	}

	return nil
}

// recordGauges writes registry size gauges until ctx is cancelled.
func recordGauges(ctx context.Context, influxClient *influxdb.Client, manager *device.Manager, universes *universe.Store) {
	ticker := time.NewTicker(gaugeInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			influxClient.WriteRegistryGauge(manager.DeviceCount(), universes.Count())
		}
	}
}
