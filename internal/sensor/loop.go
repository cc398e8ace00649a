package sensor

import (
	"context"
	"sync"
	"time"
)

const (
	// DefaultPollInterval is the sampling period of the input bank.
	DefaultPollInterval = 100 * time.Millisecond

	// DefaultPulseDuration is how long the siren output stays asserted
	// after a trigger.
	DefaultPulseDuration = 5 * time.Second

	// DefaultStatusLogInterval spaces out the periodic status lines.
	DefaultStatusLogInterval = 60 * time.Second
)

// Logger defines the logging interface for the sensor loop.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// SessionProbe reports whether the portal session is currently valid.
// The probe is advisory: it feeds the periodic status line and never
// gates alarm behavior.
type SessionProbe interface {
	Valid() bool
}

// Config holds the timing parameters of the polling loop.
type Config struct {
	PollInterval      time.Duration
	PulseDuration     time.Duration
	StatusLogInterval time.Duration
}

// Status is a point-in-time view of the loop for the status endpoint.
type Status struct {
	Inputs         []bool        `json:"inputs"`
	PulseActive    bool          `json:"pulse_active"`
	PulseRemaining time.Duration `json:"pulse_remaining,omitempty"`
	Triggers       uint64        `json:"triggers"`
}

// Loop polls an input bank and drives the siren pin.
type Loop struct {
	inputs  InputSource
	pin     OutputPin
	config  Config
	logger  Logger
	session SessionProbe
	trigger func(line int)

	mu         sync.Mutex
	prev       []bool
	pulseEnd   time.Time
	lastStatus time.Time
	triggers   uint64

	now func() time.Time
}

// NewLoop creates a polling loop over the given I/O. Zero-value timing
// fields fall back to the package defaults.
func NewLoop(inputs InputSource, pin OutputPin, cfg Config) *Loop {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultPollInterval
	}
	if cfg.PulseDuration <= 0 {
		cfg.PulseDuration = DefaultPulseDuration
	}
	if cfg.StatusLogInterval <= 0 {
		cfg.StatusLogInterval = DefaultStatusLogInterval
	}

	return &Loop{
		inputs: inputs,
		pin:    pin,
		config: cfg,
		logger: noopLogger{},
		now:    time.Now,
	}
}

// SetLogger sets the logger for the loop.
func (l *Loop) SetLogger(logger Logger) {
	l.logger = logger
}

// SetSessionProbe attaches the advisory session probe.
func (l *Loop) SetSessionProbe(probe SessionProbe) {
	l.session = probe
}

// OnTrigger registers a hook called with the tripped line index. The
// hook runs on the polling goroutine and must return quickly.
func (l *Loop) OnTrigger(fn func(line int)) {
	l.trigger = fn
}

// Run polls until the context is cancelled. The siren is forced off on
// exit.
func (l *Loop) Run(ctx context.Context) error {
	ticker := time.NewTicker(l.config.PollInterval)
	defer ticker.Stop()

	l.logger.Info("sensor loop started",
		"poll_interval", l.config.PollInterval,
		"pulse_duration", l.config.PulseDuration,
	)

	for {
		select {
		case <-ctx.Done():
			if err := l.pin.Set(false); err != nil {
				l.logger.Warn("failed to clear siren on shutdown", "error", err)
			}
			l.logger.Info("sensor loop stopped")
			return ctx.Err()
		case <-ticker.C:
			l.step()
		}
	}
}

// step performs one poll iteration: sample inputs, detect falling
// edges, and level-drive the siren pin.
func (l *Loop) step() {
	levels, err := l.inputs.Read()
	if err != nil {
		l.logger.Warn("input read failed", "error", err)
		return
	}

	now := l.now()

	var tripped []int

	l.mu.Lock()
	// First sample seeds the edge detector without triggering; a line
	// already low at boot only fires after it returns high and drops
	// again.
	if l.prev != nil {
		for i := range levels {
			if i < len(l.prev) && l.prev[i] && !levels[i] {
				l.pulseEnd = now.Add(l.config.PulseDuration)
				l.triggers++
				tripped = append(tripped, i)
			}
		}
	}
	l.prev = levels
	pulseEnd := l.pulseEnd
	active := now.Before(pulseEnd)

	logStatus := now.Sub(l.lastStatus) >= l.config.StatusLogInterval
	if logStatus {
		l.lastStatus = now
	}
	l.mu.Unlock()

	for _, line := range tripped {
		l.logger.Info("input tripped", "line", line, "pulse_until", pulseEnd)
		if l.trigger != nil {
			l.trigger(line)
		}
	}

	if err := l.pin.Set(active); err != nil {
		l.logger.Warn("siren drive failed", "error", err)
	}

	if logStatus {
		sessionValid := false
		if l.session != nil {
			sessionValid = l.session.Valid()
		}
		l.logger.Debug("sensor status",
			"inputs", levels,
			"pulse_active", active,
			"session_valid", sessionValid,
		)
	}
}

// Snapshot returns the loop state for the status endpoint.
func (l *Loop) Snapshot() Status {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	st := Status{
		Inputs:      append([]bool(nil), l.prev...),
		PulseActive: now.Before(l.pulseEnd),
		Triggers:    l.triggers,
	}
	if st.PulseActive {
		st.PulseRemaining = l.pulseEnd.Sub(now)
	}
	return st
}
