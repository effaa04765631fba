package events

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"testing"
	"time"

	mqtt "github.com/mochi-mqtt/server/v2"
	"github.com/mochi-mqtt/server/v2/packets"
	"go.uber.org/zap"

	"github.com/mikey-austin/mpdsub/internal/mpd"
)

type stubStatus struct {
	attrs mpd.Attrs
	err   error
}

func (s stubStatus) Status(context.Context) (mpd.Attrs, error) { return s.attrs, s.err }

func newTestPublisher(t *testing.T, backend Backend) *Publisher {
	t.Helper()
	events := make(chan mpd.Event)
	pub, err := NewPublisher(zap.NewNop(), Config{BrokerURL: "mqtt://127.0.0.1:1"}, events, backend)
	if err != nil {
		t.Fatalf("NewPublisher: %v", err)
	}
	return pub
}

func TestTranslateMapsSubsystems(t *testing.T) {
	pub := newTestPublisher(t, stubStatus{})

	cases := []struct {
		subsystem string
		topic     string
		event     string
	}{
		{"database", "mpdsub/v1/library/changed", "library.changed"},
		{"stored_playlist", "mpdsub/v1/playlist/changed", "playlist.changed"},
		{"sticker", "mpdsub/v1/annotation/changed", "annotation.changed"},
	}
	for _, c := range cases {
		topic, msg, ok := pub.translate(context.Background(), mpd.Event{Subsystem: c.subsystem})
		if !ok {
			t.Errorf("%s: dropped", c.subsystem)
			continue
		}
		if topic != c.topic {
			t.Errorf("%s: topic = %q, want %q", c.subsystem, topic, c.topic)
		}
		if msg.Event != c.event {
			t.Errorf("%s: event = %q, want %q", c.subsystem, msg.Event, c.event)
		}
		if msg.At.IsZero() {
			t.Errorf("%s: missing timestamp", c.subsystem)
		}
	}

	if _, _, ok := pub.translate(context.Background(), mpd.Event{Subsystem: "player"}); ok {
		t.Error("unrelated subsystem not dropped")
	}
}

func TestTranslateScanEvents(t *testing.T) {
	running := newTestPublisher(t, stubStatus{attrs: mpd.Attrs{"updating_db": "7"}})
	topic, msg, ok := running.translate(context.Background(), mpd.Event{Subsystem: "update"})
	if !ok || msg.Event != "scan.started" {
		t.Errorf("scan start: topic=%q msg=%+v ok=%v", topic, msg, ok)
	}

	idle := newTestPublisher(t, stubStatus{attrs: mpd.Attrs{"state": "stop"}})
	topic, msg, ok = idle.translate(context.Background(), mpd.Event{Subsystem: "update"})
	if !ok || msg.Event != "scan.finished" {
		t.Errorf("scan finish: topic=%q msg=%+v ok=%v", topic, msg, ok)
	}
	if topic != "mpdsub/v1/scan/finished" {
		t.Errorf("scan finish topic = %q", topic)
	}

	broken := newTestPublisher(t, stubStatus{err: errors.New("gone")})
	if _, _, ok := broken.translate(context.Background(), mpd.Event{Subsystem: "update"}); ok {
		t.Error("scan event published without status")
	}
}

func TestNewPublisherValidatesConfig(t *testing.T) {
	events := make(chan mpd.Event)
	if _, err := NewPublisher(zap.NewNop(), Config{}, events, stubStatus{}); err == nil {
		t.Error("missing broker url accepted")
	}
	if _, err := NewPublisher(zap.NewNop(), Config{BrokerURL: "mqtt://x:1"}, nil, stubStatus{}); err == nil {
		t.Error("nil event stream accepted")
	}
	if _, err := NewPublisher(zap.NewNop(), Config{BrokerURL: "mqtt://x:1"}, events, nil); err == nil {
		t.Error("nil backend accepted")
	}

	pub, err := NewPublisher(zap.NewNop(), Config{BrokerURL: "mqtt://x:1"}, events, stubStatus{})
	if err != nil {
		t.Fatalf("NewPublisher: %v", err)
	}
	if pub.cfg.TopicBase != "mpdsub/v1" {
		t.Errorf("default topic base = %q", pub.cfg.TopicBase)
	}
	if pub.cfg.ClientID == "" {
		t.Error("client id not generated")
	}
}

func TestBrokerURL(t *testing.T) {
	broker, err := NewBroker(zap.NewNop(), BrokerConfig{Listen: "127.0.0.1:1883"})
	if err != nil {
		t.Fatalf("NewBroker: %v", err)
	}
	if broker.URL() != "mqtt://127.0.0.1:1883" {
		t.Errorf("url = %q", broker.URL())
	}
}

func freeAddr(t *testing.T) string {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	addr := l.Addr().String()
	l.Close()
	return addr
}

func TestPublisherDeliversOverBroker(t *testing.T) {
	addr := freeAddr(t)
	broker, err := NewBroker(zap.NewNop(), BrokerConfig{Listen: addr})
	if err != nil {
		t.Fatalf("NewBroker: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go broker.Run(ctx)

	received := make(chan packets.Packet, 8)
	err = broker.server.Subscribe("music/#", 1, func(_ *mqtt.Client, _ packets.Subscription, pk packets.Packet) {
		received <- pk
	})
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	events := make(chan mpd.Event, 4)
	pub, err := NewPublisher(zap.NewNop(), Config{
		BrokerURL: broker.URL(),
		TopicBase: "music",
	}, events, stubStatus{})
	if err != nil {
		t.Fatalf("NewPublisher: %v", err)
	}
	go pub.Run(ctx)

	events <- mpd.Event{Subsystem: "database"}

	select {
	case pk := <-received:
		if pk.TopicName != "music/library/changed" {
			t.Errorf("topic = %q", pk.TopicName)
		}
		var msg Message
		if err := json.Unmarshal(pk.Payload, &msg); err != nil {
			t.Fatalf("payload: %v", err)
		}
		if msg.Event != "library.changed" {
			t.Errorf("event = %q", msg.Event)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timeout waiting for published event")
	}
}
