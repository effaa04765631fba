// Package events publishes library change notifications over MQTT so
// home automation and companion tools can react without polling.
package events

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/xid"
	"go.uber.org/zap"

	"github.com/mikey-austin/mpdsub/internal/mpd"
)

// Config configures the MQTT publisher.
type Config struct {
	BrokerURL string
	TopicBase string
	Username  string
	Password  string
	ClientID  string
	Timeout   time.Duration
}

// Backend answers daemon status queries, used to tell a starting scan
// from a finishing one.
type Backend interface {
	Status(ctx context.Context) (mpd.Attrs, error)
}

// Message is the JSON payload published for every event.
type Message struct {
	Event string    `json:"event"`
	At    time.Time `json:"at"`
}

// Publisher turns idle notifications into MQTT messages under the
// configured topic base.
type Publisher struct {
	log     *zap.Logger
	cfg     Config
	backend Backend
	events  <-chan mpd.Event
	client  paho.Client
}

// NewPublisher creates a publisher consuming the given event stream.
func NewPublisher(log *zap.Logger, cfg Config, events <-chan mpd.Event, backend Backend) (*Publisher, error) {
	if log == nil {
		return nil, errors.New("logger required")
	}
	if cfg.BrokerURL == "" {
		return nil, errors.New("broker url required")
	}
	if events == nil {
		return nil, errors.New("event stream required")
	}
	if backend == nil {
		return nil, errors.New("backend required")
	}
	if cfg.TopicBase == "" {
		cfg.TopicBase = "mpdsub/v1"
	}
	if cfg.ClientID == "" {
		cfg.ClientID = "mpdsub-" + xid.New().String()
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 5 * time.Second
	}

	opts := paho.NewClientOptions().AddBroker(cfg.BrokerURL)
	opts.SetClientID(cfg.ClientID)
	opts.SetConnectTimeout(cfg.Timeout)
	opts.SetAutoReconnect(true)
	// The embedded broker may come up after us under the same
	// supervisor, so keep retrying the initial connect too.
	opts.SetConnectRetry(true)
	opts.SetConnectRetryInterval(time.Second)
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
		opts.SetPassword(cfg.Password)
	}

	return &Publisher{
		log:     log,
		cfg:     cfg,
		backend: backend,
		events:  events,
		client:  paho.NewClient(opts),
	}, nil
}

// Run connects to the broker and publishes until ctx is canceled or
// the event stream closes.
func (p *Publisher) Run(ctx context.Context) error {
	if ok, err := p.connect(ctx); err != nil || !ok {
		return err
	}
	defer p.client.Disconnect(250)
	p.log.Info("event publisher connected",
		zap.String("broker", p.cfg.BrokerURL),
		zap.String("topic_base", p.cfg.TopicBase))

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-p.events:
			if !ok {
				return nil
			}
			topic, msg, ok := p.translate(ctx, ev)
			if !ok {
				continue
			}
			p.publish(topic, msg)
		}
	}
}

func (p *Publisher) connect(ctx context.Context) (bool, error) {
	token := p.client.Connect()
	for !token.WaitTimeout(500 * time.Millisecond) {
		if ctx.Err() != nil {
			return false, nil
		}
	}
	return true, token.Error()
}

// translate maps an idle subsystem to topic and payload. The update
// subsystem fires at both ends of a scan, so the daemon status decides
// which end this is.
func (p *Publisher) translate(ctx context.Context, ev mpd.Event) (string, Message, bool) {
	name := ""
	switch ev.Subsystem {
	case "database":
		name = "library.changed"
	case "stored_playlist":
		name = "playlist.changed"
	case "sticker":
		name = "annotation.changed"
	case "update":
		status, err := p.backend.Status(ctx)
		if err != nil {
			p.log.Warn("status query failed, dropping scan event", zap.Error(err))
			return "", Message{}, false
		}
		if _, scanning := status["updating_db"]; scanning {
			name = "scan.started"
		} else {
			name = "scan.finished"
		}
	default:
		return "", Message{}, false
	}
	topic := p.cfg.TopicBase + "/" + topicSuffix(name)
	return topic, Message{Event: name, At: time.Now().UTC()}, true
}

func (p *Publisher) publish(topic string, msg Message) {
	payload, err := json.Marshal(msg)
	if err != nil {
		p.log.Error("marshal event", zap.Error(err))
		return
	}
	// Scan events are retained; a late subscriber still sees the current scan state.
	retain := msg.Event == "scan.started" || msg.Event == "scan.finished"
	token := p.client.Publish(topic, 1, retain, payload)
	if token.WaitTimeout(p.cfg.Timeout) && token.Error() != nil {
		p.log.Warn("publish failed",
			zap.String("topic", topic),
			zap.Error(token.Error()))
		return
	}
	p.log.Debug("event published", zap.String("topic", topic), zap.String("event", msg.Event))
}

func topicSuffix(event string) string {
	out := []byte(event)
	for i := range out {
		if out[i] == '.' {
			out[i] = '/'
		}
	}
	return string(out)
}
