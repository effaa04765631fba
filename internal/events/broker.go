package events

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	mqtt "github.com/mochi-mqtt/server/v2"
	"github.com/mochi-mqtt/server/v2/hooks/auth"
	"github.com/mochi-mqtt/server/v2/listeners"
	"go.uber.org/zap"
)

// BrokerConfig configures the embedded MQTT broker.
type BrokerConfig struct {
	Listen   string
	Username string
	Password string
}

// Broker runs an embedded MQTT broker for deployments without an
// external one. Without a username it accepts anonymous clients.
type Broker struct {
	log    *zap.Logger
	cfg    BrokerConfig
	server *mqtt.Server
}

// NewBroker creates an embedded broker.
func NewBroker(log *zap.Logger, cfg BrokerConfig) (*Broker, error) {
	if log == nil {
		return nil, errors.New("logger required")
	}
	if strings.TrimSpace(cfg.Listen) == "" {
		cfg.Listen = "127.0.0.1:1883"
	}

	server := mqtt.New(&mqtt.Options{InlineClient: true, Logger: brokerLogger(log)})
	if cfg.Username != "" {
		ledger := &auth.Ledger{
			Auth: auth.AuthRules{{Username: auth.RString(cfg.Username), Password: auth.RString(cfg.Password), Allow: true}},
			ACL:  auth.ACLRules{{Username: auth.RString(cfg.Username), Filters: auth.Filters{auth.RString("#"): auth.ReadWrite}}},
		}
		if err := server.AddHook(new(auth.Hook), &auth.Options{Ledger: ledger}); err != nil {
			return nil, err
		}
	} else {
		if err := server.AddHook(new(auth.AllowHook), nil); err != nil {
			return nil, err
		}
	}

	return &Broker{log: log, cfg: cfg, server: server}, nil
}

// URL returns the broker URL clients should connect to.
func (b *Broker) URL() string { return "mqtt://" + b.cfg.Listen }

// Run serves the broker until ctx is canceled.
func (b *Broker) Run(ctx context.Context) error {
	listener := listeners.NewTCP(listeners.Config{ID: "embedded", Address: b.cfg.Listen})
	if err := b.server.AddListener(listener); err != nil {
		return err
	}

	go func() {
		_ = b.server.Serve()
	}()
	b.log.Info("embedded mqtt broker listening", zap.String("listen", b.cfg.Listen))

	<-ctx.Done()
	b.server.Close()
	return nil
}

// brokerLogger routes the broker's slog output into zap, keeping its
// chatter at debug level.
func brokerLogger(log *zap.Logger) *slog.Logger {
	return slog.New(&zapSlogHandler{log: log})
}

type zapSlogHandler struct {
	log *zap.Logger
}

func (h *zapSlogHandler) Enabled(context.Context, slog.Level) bool { return true }

func (h *zapSlogHandler) Handle(_ context.Context, record slog.Record) error {
	fields := make([]zap.Field, 0, record.NumAttrs())
	record.Attrs(func(attr slog.Attr) bool {
		fields = append(fields, zap.Any(attr.Key, attr.Value.Any()))
		return true
	})
	switch {
	case record.Level >= slog.LevelError:
		h.log.Error(record.Message, fields...)
	case record.Level >= slog.LevelWarn:
		h.log.Warn(record.Message, fields...)
	default:
		h.log.Debug(record.Message, fields...)
	}
	return nil
}

func (h *zapSlogHandler) WithAttrs([]slog.Attr) slog.Handler { return h }
func (h *zapSlogHandler) WithGroup(string) slog.Handler      { return h }
