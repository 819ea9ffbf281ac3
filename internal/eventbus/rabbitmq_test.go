package eventbus

import (
	"encoding/json"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

func TestNewPublishing(t *testing.T) {
	now := time.Unix(1700000000, 0)
	msg, err := newPublishing("app", "user.created", map[string]any{"user_id": 1}, now)
	if err != nil {
		t.Fatalf("publishing: %v", err)
	}
	if msg.ContentType != "application/json" || msg.DeliveryMode != amqp.Persistent {
		t.Fatalf("unexpected headers: %+v", msg)
	}
	if msg.Type != "user.created" || msg.AppId != "app" || msg.MessageId == "" {
		t.Fatalf("unexpected metadata: %+v", msg)
	}
	if !msg.Timestamp.Equal(now) {
		t.Fatalf("unexpected timestamp %v", msg.Timestamp)
	}

	var body map[string]any
	if err := json.Unmarshal(msg.Body, &body); err != nil || body["user_id"] != float64(1) {
		t.Fatalf("unexpected body %s", msg.Body)
	}
}

func TestNewPublishing_RejectsUnencodable(t *testing.T) {
	if _, err := newPublishing("app", "x", make(chan int), time.Now()); err == nil {
		t.Fatalf("expected marshal error")
	}
}

func TestParseExchangeType(t *testing.T) {
	for in, want := range map[string]ExchangeType{
		"direct": DirectExchangeType,
		"fanout": FanoutExchangeType,
		"topic":  TopicExchangeType,
	} {
		got, err := ParseExchangeType(in)
		if err != nil || got != want {
			t.Fatalf("%s: got %q, %v", in, got, err)
		}
	}
	if _, err := ParseExchangeType("headers"); err == nil {
		t.Fatalf("expected error for unsupported kind")
	}
}
