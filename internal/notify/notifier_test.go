package notify

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/ashdown-labs/sentinel-core/internal/infrastructure/mqtt"
	"github.com/ashdown-labs/sentinel-core/internal/nvram"
)

type published struct {
	topic    string
	payload  []byte
	retained bool
}

type fakePublisher struct {
	messages []published
	err      error
}

func (f *fakePublisher) Publish(topic string, payload []byte, _ byte, retained bool) error {
	if f.err != nil {
		return f.err
	}
	f.messages = append(f.messages, published{topic: topic, payload: payload, retained: retained})
	return nil
}

func (f *fakePublisher) PublishRetained(topic string, payload []byte) error {
	return f.Publish(topic, payload, 1, true)
}

type fakeSource struct {
	slots nvram.ConfigSlots
	mode  nvram.Mode
}

func (f fakeSource) Slots() nvram.ConfigSlots { return f.slots }
func (f fakeSource) Mode() nvram.Mode         { return f.mode }

func TestNotifier_TriggerFansOutToSlots(t *testing.T) {
	pub := &fakePublisher{}
	src := fakeSource{
		slots: nvram.ConfigSlots{
			{Phone: "07700900001", Message: "front door"},
			{},
			{Phone: "07700900002", Message: "back door"},
		},
		mode: nvram.ModeFull,
	}

	n := New(pub, src, mqtt.Topics{}, 1)
	n.now = func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) }
	n.Trigger(2)

	// Two slot messages plus the retained summary.
	if len(pub.messages) != 3 {
		t.Fatalf("published %d messages, want 3", len(pub.messages))
	}

	var first Message
	if err := json.Unmarshal(pub.messages[0].payload, &first); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if pub.messages[0].topic != "sentinel/alarm/notify" {
		t.Errorf("topic = %q", pub.messages[0].topic)
	}
	if first.Phone != "07700900001" || first.Message != "front door" {
		t.Errorf("first message = %+v", first)
	}
	if first.Line != 2 || first.Mode != "full" {
		t.Errorf("line/mode = %d/%q", first.Line, first.Mode)
	}

	last := pub.messages[2]
	if last.topic != "sentinel/alarm/status" || !last.retained {
		t.Errorf("summary topic/retained = %q/%v", last.topic, last.retained)
	}
	var sum struct {
		Recipients int `json:"recipients"`
	}
	if err := json.Unmarshal(last.payload, &sum); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if sum.Recipients != 2 {
		t.Errorf("recipients = %d, want 2", sum.Recipients)
	}
}

func TestNotifier_TriggerAllSlotsEmpty(t *testing.T) {
	pub := &fakePublisher{}
	n := New(pub, fakeSource{}, mqtt.Topics{}, 1)
	n.Trigger(0)

	// Only the retained summary goes out.
	if len(pub.messages) != 1 {
		t.Fatalf("published %d messages, want 1", len(pub.messages))
	}
	if pub.messages[0].topic != "sentinel/alarm/status" {
		t.Errorf("topic = %q", pub.messages[0].topic)
	}
}

func TestNotifier_TriggerSwallowsPublishErrors(t *testing.T) {
	pub := &fakePublisher{err: errors.New("broker down")}
	src := fakeSource{slots: nvram.ConfigSlots{{Phone: "07700900001"}}}

	n := New(pub, src, mqtt.Topics{}, 1)
	n.Trigger(0) // must not panic or block
}

func TestNotifier_PublishMode(t *testing.T) {
	pub := &fakePublisher{}
	n := New(pub, fakeSource{}, mqtt.Topics{Prefix: "site42"}, 1)
	n.PublishMode(nvram.ModeBeep)

	if len(pub.messages) != 1 {
		t.Fatalf("published %d messages, want 1", len(pub.messages))
	}
	got := pub.messages[0]
	if got.topic != "site42/config/mode" || !got.retained {
		t.Errorf("topic/retained = %q/%v", got.topic, got.retained)
	}
	if string(got.payload) != `{"mode":"beep"}` {
		t.Errorf("payload = %s", got.payload)
	}
}
