package notify

import (
	"encoding/json"
	"time"

	"github.com/ashdown-labs/sentinel-core/internal/infrastructure/mqtt"
	"github.com/ashdown-labs/sentinel-core/internal/nvram"
)

// Publisher is the outbound transport. Satisfied by *mqtt.Client.
type Publisher interface {
	Publish(topic string, payload []byte, qos byte, retained bool) error
	PublishRetained(topic string, payload []byte) error
}

// SlotSource provides the current notification slots and alarm mode.
// Satisfied by *settings.Settings.
type SlotSource interface {
	Slots() nvram.ConfigSlots
	Mode() nvram.Mode
}

// Logger defines the logging interface for the notifier.
type Logger interface {
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Info(string, ...any) {}
func (noopLogger) Warn(string, ...any) {}

// Message is one outbound alarm notification.
type Message struct {
	Phone     string    `json:"phone"`
	Message   string    `json:"message"`
	Line      int       `json:"line"`
	Mode      string    `json:"mode"`
	Timestamp time.Time `json:"timestamp"`
}

// summary is the retained last-alarm record.
type summary struct {
	Line       int       `json:"line"`
	Mode       string    `json:"mode"`
	Recipients int       `json:"recipients"`
	Timestamp  time.Time `json:"timestamp"`
}

// Notifier fans alarm triggers out to the configured slots.
type Notifier struct {
	publisher Publisher
	source    SlotSource
	topics    mqtt.Topics
	qos       byte
	logger    Logger

	now func() time.Time
}

// New creates a notifier over the given transport and slot source.
func New(publisher Publisher, source SlotSource, topics mqtt.Topics, qos byte) *Notifier {
	return &Notifier{
		publisher: publisher,
		source:    source,
		topics:    topics,
		qos:       qos,
		logger:    noopLogger{},
		now:       time.Now,
	}
}

// SetLogger sets the logger for the notifier.
func (n *Notifier) SetLogger(logger Logger) {
	n.logger = logger
}

// Trigger publishes one message per non-empty slot for the tripped
// line, then updates the retained last-alarm summary. Intended as the
// sensor loop's OnTrigger hook; it never returns an error.
func (n *Notifier) Trigger(line int) {
	slots := n.source.Slots()
	mode := n.source.Mode().String()
	now := n.now().UTC()

	recipients := 0
	for _, slot := range slots {
		if slot.Phone == "" {
			continue
		}
		msg := Message{
			Phone:     slot.Phone,
			Message:   slot.Message,
			Line:      line,
			Mode:      mode,
			Timestamp: now,
		}
		payload, err := json.Marshal(msg)
		if err != nil {
			n.logger.Warn("failed to encode notification", "phone", slot.Phone, "error", err)
			continue
		}
		if err := n.publisher.Publish(n.topics.AlarmNotify(), payload, n.qos, false); err != nil {
			n.logger.Warn("notification delivery failed", "phone", slot.Phone, "error", err)
			continue
		}
		recipients++
	}

	n.logger.Info("alarm notifications sent", "line", line, "recipients", recipients)

	payload, err := json.Marshal(summary{
		Line:       line,
		Mode:       mode,
		Recipients: recipients,
		Timestamp:  now,
	})
	if err != nil {
		return
	}
	if err := n.publisher.PublishRetained(n.topics.AlarmStatus(), payload); err != nil {
		n.logger.Warn("alarm status update failed", "error", err)
	}
}

// PublishMode updates the retained current-mode topic. Called after a
// successful mode change.
func (n *Notifier) PublishMode(mode nvram.Mode) {
	payload, err := json.Marshal(map[string]string{"mode": mode.String()})
	if err != nil {
		return
	}
	if err := n.publisher.PublishRetained(n.topics.ConfigMode(), payload); err != nil {
		n.logger.Warn("mode status update failed", "error", err)
	}
}
