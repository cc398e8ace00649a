package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/ashdown-labs/sentinel-core/internal/audit"
	"github.com/ashdown-labs/sentinel-core/internal/auth"
	"github.com/ashdown-labs/sentinel-core/internal/infrastructure/config"
	"github.com/ashdown-labs/sentinel-core/internal/infrastructure/influxdb"
	"github.com/ashdown-labs/sentinel-core/internal/infrastructure/logging"
	"github.com/ashdown-labs/sentinel-core/internal/infrastructure/mqtt"
	"github.com/ashdown-labs/sentinel-core/internal/nvram"
	"github.com/ashdown-labs/sentinel-core/internal/sensor"
	"github.com/ashdown-labs/sentinel-core/internal/settings"
)

// gracefulShutdownTimeout is the maximum time to wait for in-flight
// requests to complete during shutdown.
const gracefulShutdownTimeout = 10 * time.Second

// sessionCookieName is the cookie carrying the portal session token.
const sessionCookieName = "sentinel_session"

// Deps holds the dependencies required by the API server.
type Deps struct {
	Config   config.APIConfig
	Logger   *logging.Logger
	Session  *auth.Session
	Vault    *auth.Vault
	Settings *settings.Settings
	Sensor   *sensor.Loop     // optional: /status and /ws report inputs when set
	Audit    audit.Repository // optional: enables the audit trail endpoints
	MQTT     *mqtt.Client     // optional: health reporting only
	Influx   *influxdb.Client // optional: auth outcome diagnostics
	Notifier ModePublisher    // optional: retained mode topic updates
	DeviceID string
	Version  string
}

// ModePublisher pushes mode changes to the retained status topic.
// Satisfied by *notify.Notifier.
type ModePublisher interface {
	PublishMode(mode nvram.Mode)
}

// Server is the HTTP portal server.
type Server struct {
	cfg      config.APIConfig
	logger   *logging.Logger
	session  *auth.Session
	vault    *auth.Vault
	settings *settings.Settings
	sensor   *sensor.Loop
	audit    audit.Repository
	mqtt     *mqtt.Client
	influx   *influxdb.Client
	notifier ModePublisher
	deviceID string
	version  string

	server  *http.Server
	hub     *hub
	tickets *ticketStore
	cancel  context.CancelFunc
}

// New creates a new API server with the given dependencies.
// The server is not started until Start() is called.
func New(deps Deps) (*Server, error) {
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if deps.Session == nil {
		return nil, fmt.Errorf("session is required")
	}
	if deps.Vault == nil {
		return nil, fmt.Errorf("credential vault is required")
	}
	if deps.Settings == nil {
		return nil, fmt.Errorf("settings are required")
	}

	return &Server{
		cfg:      deps.Config,
		logger:   deps.Logger,
		session:  deps.Session,
		vault:    deps.Vault,
		settings: deps.Settings,
		sensor:   deps.Sensor,
		audit:    deps.Audit,
		mqtt:     deps.MQTT,
		influx:   deps.Influx,
		notifier: deps.Notifier,
		deviceID: deps.DeviceID,
		version:  deps.Version,
		tickets:  newTicketStore(),
	}, nil
}

// Start begins listening for HTTP connections.
//
// It builds the router, starts the WebSocket hub and its status
// broadcaster, launches periodic ticket cleanup, and runs the HTTP
// listener in a background goroutine. The server is stopped with
// Close().
func (s *Server) Start(ctx context.Context) error {
	var srvCtx context.Context
	srvCtx, s.cancel = context.WithCancel(ctx)

	s.hub = newHub(s.logger)
	go s.hub.run(srvCtx)
	go s.broadcastStatusLoop(srvCtx)
	go s.tickets.cleanLoop(srvCtx)

	router := s.buildRouter()

	s.server = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port),
		Handler:           router,
		ReadTimeout:       time.Duration(s.cfg.Timeouts.Read) * time.Second,
		ReadHeaderTimeout: time.Duration(s.cfg.Timeouts.Read) * time.Second,
		WriteTimeout:      time.Duration(s.cfg.Timeouts.Write) * time.Second,
		IdleTimeout:       time.Duration(s.cfg.Timeouts.Idle) * time.Second,
	}

	go func() {
		err := s.server.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("portal server error", "error", err)
		}
	}()

	s.logger.Info("portal server started", "address", s.server.Addr)
	return nil
}

// Close gracefully shuts down the API server, waiting for in-flight
// requests to complete.
func (s *Server) Close() error {
	if s.server == nil {
		return nil
	}

	if s.cancel != nil {
		s.cancel()
	}

	ctx, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
	defer cancel()

	s.logger.Info("portal server shutting down")
	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down portal server: %w", err)
	}
	return nil
}

// HealthCheck verifies the API server is running.
func (s *Server) HealthCheck(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("api health check: %w", ctx.Err())
	default:
	}

	if s.server == nil {
		return fmt.Errorf("portal server not started")
	}
	return nil
}
