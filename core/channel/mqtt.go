package channel

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// MQTTChannel talks to the station over MQTT with QoS 1.
type MQTTChannel struct {
	cfg    Config
	logger *zap.Logger
	client paho.Client
	msgs   chan Message

	connectOnce sync.Once
}

// NewMQTT creates an MQTT channel. The connection is opened by Subscribe or
// by the first Send.
func NewMQTT(cfg Config, logger *zap.Logger) *MQTTChannel {
	c := &MQTTChannel{
		cfg:    cfg,
		logger: logger.Named("mqtt"),
		msgs:   make(chan Message, bufferSize(cfg)),
	}

	opts := paho.NewClientOptions().
		AddBroker(cfg.URL).
		SetClientID(fmt.Sprintf("%s_%s", cfg.ClientID, uuid.NewString()[:8])).
		SetCleanSession(true).
		SetConnectTimeout(cfg.ConnectTimeout).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(cfg.reconnectInterval()).
		SetMaxReconnectInterval(cfg.maxBackoff()).
		SetOrderMatters(true).
		SetOnConnectHandler(c.onConnect).
		SetConnectionLostHandler(func(_ paho.Client, err error) {
			c.logger.Warn("Broker connection lost", zap.Error(err))
		})

	c.client = paho.NewClient(opts)
	return c
}

// newMQTTWithClient wires an existing client, used by tests.
func newMQTTWithClient(cfg Config, logger *zap.Logger, client paho.Client) *MQTTChannel {
	return &MQTTChannel{
		cfg:    cfg,
		logger: logger,
		client: client,
		msgs:   make(chan Message, bufferSize(cfg)),
	}
}

func bufferSize(cfg Config) int {
	if cfg.BufferSize <= 0 {
		return 64
	}
	return cfg.BufferSize
}

// onConnect (re)subscribes after every connect; clean sessions drop
// subscriptions on the broker side.
func (c *MQTTChannel) onConnect(client paho.Client) {
	c.logger.Info("Connected to broker", zap.String("url", c.cfg.URL))
	filters := map[string]byte{
		c.cfg.IdentityTopic:  1,
		c.cfg.OccupancyTopic: 1,
	}
	token := client.SubscribeMultiple(filters, func(_ paho.Client, m paho.Message) {
		c.route(m.Topic(), m.Payload())
	})
	if !token.WaitTimeout(c.cfg.ConnectTimeout) {
		c.logger.Error("Subscribe timed out")
		return
	}
	if err := token.Error(); err != nil {
		c.logger.Error("Subscribe failed", zap.Error(err))
		return
	}
	c.logger.Info("Subscribed to station topics",
		zap.String("identity", c.cfg.IdentityTopic),
		zap.String("occupancy", c.cfg.OccupancyTopic),
	)
}

// route hands a broker message to the worker. When the worker stays busy for
// longer than the send timeout the message is dropped.
func (c *MQTTChannel) route(topic string, payload []byte) {
	msg := Message{
		Kind:       c.cfg.kindFor(topic),
		Topic:      topic,
		Payload:    append([]byte(nil), payload...),
		ReceivedAt: time.Now(),
	}
	if msg.Kind == KindUnknown {
		c.logger.Debug("Ignoring message on unexpected topic", zap.String("topic", topic))
		return
	}

	timer := time.NewTimer(c.cfg.sendTimeout())
	defer timer.Stop()
	select {
	case c.msgs <- msg:
	case <-timer.C:
		c.logger.Warn("Dropping station message, worker busy",
			zap.String("topic", topic),
			zap.ByteString("payload", payload),
		)
	}
}

func (c *MQTTChannel) connect() {
	c.connectOnce.Do(func() {
		token := c.client.Connect()
		// With connect retry enabled the token completes only once connected;
		// the client keeps retrying in the background either way.
		if !token.WaitTimeout(c.cfg.ConnectTimeout) {
			c.logger.Warn("Broker not reachable yet, retrying in background", zap.String("url", c.cfg.URL))
			return
		}
		if err := token.Error(); err != nil {
			c.logger.Warn("Broker connect failed", zap.Error(err))
		}
	})
}

// Subscribe consumes station messages on the calling goroutine until ctx is done.
func (c *MQTTChannel) Subscribe(ctx context.Context, handle Handler) error {
	c.connect()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg := <-c.msgs:
			handle(ctx, msg)
		}
	}
}

// Send publishes the unit number on the command topic and waits for PUBACK.
func (c *MQTTChannel) Send(ctx context.Context, unit int) error {
	c.connect()
	if !c.client.IsConnectionOpen() {
		return commandFailed(unit, ErrUnavailable)
	}

	ctx, cancel := c.cfg.sendContext(ctx)
	defer cancel()

	token := c.client.Publish(c.cfg.CommandTopic, 1, false, strconv.Itoa(unit))
	select {
	case <-token.Done():
	case <-ctx.Done():
		return commandFailed(unit, fmt.Errorf("not acknowledged: %w", ctx.Err()))
	}
	if err := token.Error(); err != nil {
		return commandFailed(unit, err)
	}
	return nil
}

// Close disconnects, allowing in-flight work 250ms to finish.
func (c *MQTTChannel) Close() error {
	if c.client.IsConnected() {
		c.client.Disconnect(250)
	}
	return nil
}
