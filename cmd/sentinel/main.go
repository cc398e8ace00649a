// Sentinel - local alarm panel controller
//
// This is the main entry point for the Sentinel device firmware. It
// runs two independent tasks: the HTTP setup portal (enrollment, login,
// configuration) and the sensor polling loop that drives the siren
// output, with optional MQTT notification, SQLite audit trail, and
// InfluxDB diagnostics.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ashdown-labs/sentinel-core/internal/api"
	"github.com/ashdown-labs/sentinel-core/internal/audit"
	"github.com/ashdown-labs/sentinel-core/internal/auth"
	"github.com/ashdown-labs/sentinel-core/internal/infrastructure/config"
	"github.com/ashdown-labs/sentinel-core/internal/infrastructure/database"
	"github.com/ashdown-labs/sentinel-core/internal/infrastructure/influxdb"
	"github.com/ashdown-labs/sentinel-core/internal/infrastructure/logging"
	"github.com/ashdown-labs/sentinel-core/internal/infrastructure/mqtt"
	"github.com/ashdown-labs/sentinel-core/internal/notify"
	"github.com/ashdown-labs/sentinel-core/internal/nvram"
	"github.com/ashdown-labs/sentinel-core/internal/sensor"
	"github.com/ashdown-labs/sentinel-core/internal/settings"
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

func main() {
	// Cancel on interrupt signals (Ctrl+C, SIGTERM) for graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the actual application logic, separated from main for
// testability.
func run(ctx context.Context) error {
	// Use default logger until config is loaded
	log := logging.Default()
	log.Info("starting Sentinel",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

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

	// Open the persistent credential/config region
	region, err := nvram.OpenFileRegion(cfg.Storage.Path)
	if err != nil {
		return fmt.Errorf("opening storage region: %w", err)
	}
	defer func() {
		if closeErr := region.Close(); closeErr != nil {
			log.Error("error closing storage region", "error", closeErr)
		}
	}()

	store, recovered, err := nvram.Open(region)
	if err != nil {
		return fmt.Errorf("loading stored configuration: %w", err)
	}
	if recovered {
		log.Warn("stored configuration was corrupt or blank, reformatted to factory state",
			"path", cfg.Storage.Path,
		)
	}
	log.Info("storage region loaded",
		"path", cfg.Storage.Path,
		"enrolled", store.Credentials().Enrolled,
	)

	// Auth chain: vault over the store, guard for lockout, single
	// session slot with sliding expiration.
	vault := auth.NewVault(store)
	guard := auth.NewGuard(cfg.Lockout.Threshold, cfg.LockoutCooldown())
	session := auth.NewSession(vault, guard, cfg.SessionTimeout())
	deviceSettings := settings.New(store, session)

	// Audit trail (optional)
	var auditRepo audit.Repository
	if cfg.Audit.Enabled {
		db, dbErr := database.Open(database.Config{
			Path:        cfg.Audit.Database.Path,
			WALMode:     cfg.Audit.Database.WALMode,
			BusyTimeout: cfg.Audit.Database.BusyTimeout,
		})
		if dbErr != nil {
			return fmt.Errorf("opening audit database: %w", dbErr)
		}
		defer func() {
			log.Info("closing audit database")
			if closeErr := db.Close(); closeErr != nil {
				log.Error("error closing audit database", "error", closeErr)
			}
		}()

		auditRepo, err = audit.NewSQLiteRepository(ctx, db.DB)
		if err != nil {
			return fmt.Errorf("initialising audit trail: %w", err)
		}
		log.Info("audit trail enabled", "path", cfg.Audit.Database.Path)
	} else {
		log.Info("audit trail disabled")
	}

	// MQTT notification transport (optional)
	var mqttClient *mqtt.Client
	var notifier *notify.Notifier
	if cfg.MQTT.Enabled {
		mqttClient, err = mqtt.Connect(cfg.MQTT)
		if err != nil {
			return fmt.Errorf("connecting to MQTT: %w", err)
		}
		defer func() {
			log.Info("disconnecting from MQTT")
			if closeErr := mqttClient.Close(); closeErr != nil {
				log.Error("error closing MQTT", "error", closeErr)
			}
		}()
		log.Info("MQTT connected",
			"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
			"client_id", cfg.MQTT.Broker.ClientID,
		)

		notifier = notify.New(mqttClient, deviceSettings, mqttClient.Topics(), byte(cfg.MQTT.QoS))
		notifier.SetLogger(log)
	} else {
		log.Info("MQTT disabled, alarm notifications are local-only")
	}

	// InfluxDB diagnostics sink (optional)
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
		influxClient.SetOnError(func(err error) {
			log.Error("InfluxDB write error", "error", err)
		})
		log.Info("InfluxDB connected", "url", cfg.InfluxDB.URL, "bucket", cfg.InfluxDB.Bucket)
	} else {
		log.Info("InfluxDB disabled")
	}

	// Sensor I/O: Modbus module in the field, in-memory otherwise
	inputs, pin, ioCloser, err := buildSensorIO(cfg.Sensor)
	if err != nil {
		return fmt.Errorf("initialising sensor I/O: %w", err)
	}
	if ioCloser != nil {
		defer func() {
			if closeErr := ioCloser(); closeErr != nil {
				log.Error("error closing sensor I/O", "error", closeErr)
			}
		}()
	}

	loop := sensor.NewLoop(inputs, pin, sensor.Config{
		PollInterval:      cfg.PollInterval(),
		PulseDuration:     cfg.PulseDuration(),
		StatusLogInterval: cfg.StatusLogInterval(),
	})
	loop.SetLogger(log)
	loop.SetSessionProbe(session)

	// HTTP portal
	var notifierDep api.ModePublisher
	if notifier != nil {
		notifierDep = notifier
	}
	server, err := api.New(api.Deps{
		Config:   cfg.API,
		Logger:   log,
		Session:  session,
		Vault:    vault,
		Settings: deviceSettings,
		Sensor:   loop,
		Audit:    auditRepo,
		MQTT:     mqttClient,
		Influx:   influxClient,
		Notifier: notifierDep,
		DeviceID: cfg.Device.ID,
		Version:  version,
	})
	if err != nil {
		return fmt.Errorf("creating portal server: %w", err)
	}

	// Alarm trigger fan-out: notification slots, live status stream,
	// diagnostics, audit.
	loop.OnTrigger(func(line int) {
		if notifier != nil {
			notifier.Trigger(line)
		}
		server.BroadcastAlarm(line)
		if influxClient != nil {
			influxClient.WriteInputEdge(cfg.Device.ID, line)
			influxClient.WritePulse(cfg.Device.ID, cfg.PulseDuration())
		}
		if auditRepo != nil {
			event := &audit.Event{Kind: audit.KindTrigger, Success: true, Detail: fmt.Sprintf("line %d", line)}
			writeCtx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()
			if auditErr := auditRepo.Create(writeCtx, event); auditErr != nil {
				log.Warn("audit write failed", "error", auditErr)
			}
		}
	})

	if err := server.Start(ctx); err != nil {
		return fmt.Errorf("starting portal server: %w", err)
	}
	defer func() {
		if closeErr := server.Close(); closeErr != nil {
			log.Error("error closing portal server", "error", closeErr)
		}
	}()

	// Second task: the sensor polling loop
	loopDone := make(chan error, 1)
	go func() {
		loopDone <- loop.Run(ctx)
	}()

	// Periodic session-validity sample for the diagnostics sink
	if influxClient != nil {
		go func() {
			ticker := time.NewTicker(cfg.StatusLogInterval())
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
					influxClient.WriteSessionValidity(cfg.Device.ID, session.Valid())
				}
			}
		}()
	}

	if err := healthCheck(ctx, server, mqttClient, influxClient); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	log.Info("all health checks passed")

	log.Info("initialisation complete, waiting for shutdown signal")

	<-ctx.Done()

	log.Info("shutdown signal received, cleaning up")
	<-loopDone

	log.Info("Sentinel stopped")
	return nil
}

// buildSensorIO returns the input source and output pin for the sensor
// loop, plus an optional closer for the underlying transport.
func buildSensorIO(cfg config.SensorConfig) (sensor.InputSource, sensor.OutputPin, func() error, error) {
	if !cfg.Modbus.Enabled {
		return sensor.NewMemoryInputs(cfg.Inputs), sensor.NewMemoryPin(), nil, nil
	}

	io, err := sensor.NewModbusIO(sensor.ModbusConfig{
		Endpoint:     fmt.Sprintf("%s:%d", cfg.Modbus.Host, cfg.Modbus.Port),
		UnitID:       uint8(cfg.Modbus.UnitID),
		Timeout:      time.Duration(cfg.Modbus.TimeoutMs) * time.Millisecond,
		InputAddress: uint16(cfg.Modbus.InputAddress),
		InputCount:   uint16(cfg.Inputs),
		CoilAddress:  uint16(cfg.Modbus.CoilAddress),
	})
	if err != nil {
		return nil, nil, nil, err
	}
	return io, io, io.Close, nil
}

// getConfigPath returns the configuration file path.
// Uses the SENTINEL_CONFIG environment variable if set, otherwise the
// default.
func getConfigPath() string {
	if path := os.Getenv("SENTINEL_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

// healthCheck verifies the infrastructure connections are healthy.
// Optional clients may be nil when disabled.
func healthCheck(ctx context.Context, server *api.Server, mqttClient *mqtt.Client, influxClient *influxdb.Client) error {
	if err := server.HealthCheck(ctx); err != nil {
		return fmt.Errorf("portal: %w", err)
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
