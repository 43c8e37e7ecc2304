// Package publish pushes zone summaries to an MQTT broker so home automation
// dashboards can show them.
package publish

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

var (
	ErrNotConnected   = errors.New("not connected to MQTT broker")
	ErrConnectTimeout = errors.New("mqtt connect timeout")
	ErrPublishTimeout = errors.New("publish timeout")
)

const (
	connectTimeout = 30 * time.Second
	publishTimeout = 10 * time.Second
	qosAtLeastOnce = 1
)

// Config holds broker settings.
type Config struct {
	Broker      string
	ClientID    string
	Username    string
	Password    string
	TopicPrefix string
}

// client is the subset of mqtt.Client the publisher uses.
type client interface {
	Connect() mqtt.Token
	IsConnected() bool
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
	Disconnect(quiesce uint)
}

// MQTTPublisher publishes retained JSON summaries to
// <prefix>/<zone-id>/summary.
type MQTTPublisher struct {
	mu     sync.Mutex
	cfg    Config
	client client
	logger *slog.Logger
}

// NewMQTT builds a publisher for cfg. Call Connect before publishing.
func NewMQTT(cfg Config, logger *slog.Logger) *MQTTPublisher {
	if cfg.ClientID == "" {
		cfg.ClientID = "lawn-manager"
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	p := &MQTTPublisher{cfg: cfg, logger: logger}

	opts := mqtt.NewClientOptions()
	opts.AddBroker(cfg.Broker)
	opts.SetClientID(cfg.ClientID)
	opts.SetUsername(cfg.Username)
	opts.SetPassword(cfg.Password)
	opts.SetCleanSession(true)
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetOnConnectHandler(func(mqtt.Client) {
		logger.Info("publish: connected to MQTT broker", "broker", cfg.Broker)
	})
	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		logger.Warn("publish: connection to MQTT broker lost", "broker", cfg.Broker, "error", err)
	})
	p.client = mqtt.NewClient(opts)
	return p
}

// Connect dials the broker and waits for the first connection until ctx
// ends or connectTimeout passes. The client keeps retrying in the background
// after a timeout, and Publish starts working once it connects.
func (p *MQTTPublisher) Connect(ctx context.Context) error {
	token := p.client.Connect()
	select {
	case <-token.Done():
	case <-ctx.Done():
		return fmt.Errorf("%w: %w", ErrConnectTimeout, ctx.Err())
	case <-time.After(connectTimeout):
		return ErrConnectTimeout
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("connection error: %w", err)
	}
	return nil
}

// Topic returns the summary topic for a zone.
func (p *MQTTPublisher) Topic(zoneID string) string {
	return strings.TrimRight(p.cfg.TopicPrefix, "/") + "/" + zoneID + "/summary"
}

// Publish sends payload as the zone's retained summary.
func (p *MQTTPublisher) Publish(ctx context.Context, zoneID string, payload []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.client.IsConnected() {
		return ErrNotConnected
	}

	topic := p.Topic(zoneID)
	token := p.client.Publish(topic, qosAtLeastOnce, true, payload)
	select {
	case <-token.Done():
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(publishTimeout):
		p.logger.Warn("publish: timeout", "topic", topic)
		return ErrPublishTimeout
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish %s: %w", topic, err)
	}
	p.logger.Debug("publish: summary sent", "topic", topic, "bytes", len(payload))
	return nil
}

// Close disconnects from the broker. It also stops a connect retry that is
// still in progress.
func (p *MQTTPublisher) Close() {
	p.client.Disconnect(250)
}
