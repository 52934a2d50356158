package channel

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// AMQPChannel consumes station events from a topic exchange and publishes
// commands with publisher confirms.
type AMQPChannel struct {
	cfg    Config
	logger *zap.Logger

	// sendMu keeps one command in flight so a bounced message is matched
	// before the next publish.
	sendMu     sync.Mutex
	mu         sync.Mutex
	pubConn    *amqp.Connection
	pubCh      *amqp.Channel
	pubReturns chan amqp.Return
	closed     bool
}

// NewAMQP creates an AMQP channel. Connections are opened lazily.
func NewAMQP(cfg Config, logger *zap.Logger) *AMQPChannel {
	return &AMQPChannel{cfg: cfg, logger: logger.Named("amqp")}
}

func (c *AMQPChannel) dial() (*amqp.Connection, error) {
	conn, err := amqp.DialConfig(c.cfg.URL, amqp.Config{
		Dial:       amqp.DefaultDial(c.cfg.ConnectTimeout),
		Properties: amqp.Table{"connection_name": c.cfg.ClientID},
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	return conn, nil
}

// Subscribe runs the dial loop until ctx is done. Deliveries are handled
// one at a time and acked after the handler returns.
func (c *AMQPChannel) Subscribe(ctx context.Context, handle Handler) error {
	backoff := c.cfg.reconnectInterval()
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		conn, err := c.dial()
		if err != nil {
			c.logger.Warn("Failed to dial broker", zap.Error(err), zap.Duration("retry_in", backoff))
			if err := sleepCtx(ctx, backoff); err != nil {
				return err
			}
			backoff = nextBackoff(backoff, c.cfg.maxBackoff())
			continue
		}
		backoff = c.cfg.reconnectInterval()

		err = c.consumeLoop(ctx, conn, handle)
		_ = conn.Close()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		c.logger.Warn("Consume loop ended, reconnecting", zap.Error(err))
		if err := sleepCtx(ctx, c.cfg.reconnectInterval()); err != nil {
			return err
		}
	}
}

func nextBackoff(cur, limit time.Duration) time.Duration {
	return min(cur*2, limit)
}

// declare sets up the exchange and the inbound queue bound to both event keys.
func (c *AMQPChannel) declare(ch *amqp.Channel) error {
	if err := ch.ExchangeDeclare(c.cfg.Exchange, amqp.ExchangeTopic, true, false, false, false, nil); err != nil {
		return fmt.Errorf("exchange declare: %w", err)
	}
	if _, err := ch.QueueDeclare(c.cfg.Queue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}
	for _, key := range []string{c.cfg.IdentityTopic, c.cfg.OccupancyTopic} {
		if err := ch.QueueBind(c.cfg.Queue, key, c.cfg.Exchange, false, nil); err != nil {
			return fmt.Errorf("queue bind %s: %w", key, err)
		}
	}
	return nil
}

func (c *AMQPChannel) consumeLoop(ctx context.Context, conn *amqp.Connection, handle Handler) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	// One unacked delivery at a time keeps identity and occupancy ordered.
	if err := ch.Qos(1, 0, false); err != nil {
		c.logger.Warn("Set QoS failed", zap.Error(err))
	}
	if err := c.declare(ch); err != nil {
		return err
	}

	deliveries, err := ch.ConsumeWithContext(ctx, c.cfg.Queue, c.cfg.ClientID, false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}
	c.logger.Info("Consuming station events", zap.String("queue", c.cfg.Queue))

	for d := range deliveries {
		msg := Message{
			Kind:       c.cfg.kindFor(d.RoutingKey),
			Topic:      d.RoutingKey,
			Payload:    d.Body,
			ReceivedAt: time.Now(),
		}
		if msg.Kind == KindUnknown {
			c.logger.Debug("Rejecting message with unexpected routing key", zap.String("key", d.RoutingKey))
			_ = d.Nack(false, false)
			continue
		}
		handle(ctx, msg)
		_ = d.Ack(false)
	}
	return errors.New("deliveries channel closed")
}

// publisher returns the confirm-mode channel and its return notifications,
// opening them when needed.
func (c *AMQPChannel) publisher() (*amqp.Channel, <-chan amqp.Return, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil, nil, ErrUnavailable
	}
	if c.pubCh != nil && !c.pubCh.IsClosed() {
		return c.pubCh, c.pubReturns, nil
	}
	c.resetLocked()

	conn, err := c.dial()
	if err != nil {
		return nil, nil, err
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, nil, fmt.Errorf("%w: channel open: %w", ErrUnavailable, err)
	}
	if err := ch.Confirm(false); err != nil {
		_ = conn.Close()
		return nil, nil, fmt.Errorf("%w: confirm mode: %w", ErrUnavailable, err)
	}
	if err := ch.ExchangeDeclare(c.cfg.Exchange, amqp.ExchangeTopic, true, false, false, false, nil); err != nil {
		_ = conn.Close()
		return nil, nil, fmt.Errorf("%w: exchange declare: %w", ErrUnavailable, err)
	}
	// The broker sends basic.return before the confirm of an unroutable
	// mandatory message; the buffer lets dispatch hand it over without
	// blocking.
	c.pubReturns = ch.NotifyReturn(make(chan amqp.Return, 1))
	c.pubConn, c.pubCh = conn, ch
	return ch, c.pubReturns, nil
}

func (c *AMQPChannel) resetLocked() {
	if c.pubConn != nil {
		_ = c.pubConn.Close()
	}
	c.pubConn, c.pubCh, c.pubReturns = nil, nil, nil
}

func (c *AMQPChannel) reset() {
	c.mu.Lock()
	c.resetLocked()
	c.mu.Unlock()
}

// Send publishes the unit number with the command routing key and waits for
// the broker confirm. A command no queue is bound to comes back as a return
// and fails the send.
func (c *AMQPChannel) Send(ctx context.Context, unit int) error {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()

	ch, returns, err := c.publisher()
	if err != nil {
		return commandFailed(unit, err)
	}
	// Drop returns left over from a send that gave up waiting.
	returned(returns, "")

	ctx, cancel := c.cfg.sendContext(ctx)
	defer cancel()

	id := uuid.NewString()
	confirm, err := ch.PublishWithDeferredConfirmWithContext(ctx, c.cfg.Exchange, c.cfg.CommandTopic, true, false, amqp.Publishing{
		MessageId:    id,
		ContentType:  "text/plain",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now(),
		Body:         []byte(strconv.Itoa(unit)),
	})
	if err != nil {
		c.reset()
		return commandFailed(unit, err)
	}
	ok, err := confirm.WaitContext(ctx)
	if err != nil {
		c.reset()
		return commandFailed(unit, err)
	}
	if !ok {
		return commandFailed(unit, errors.New("broker nacked command"))
	}
	if r, bounced := returned(returns, id); bounced {
		return commandFailed(unit, fmt.Errorf("command unroutable: %d %s", r.ReplyCode, r.ReplyText))
	}
	return nil
}

// returned drains pending returns without blocking and reports the one
// carrying id, if any.
func returned(returns <-chan amqp.Return, id string) (amqp.Return, bool) {
	for {
		select {
		case r, ok := <-returns:
			if !ok {
				return amqp.Return{}, false
			}
			if id != "" && r.MessageId == id {
				return r, true
			}
		default:
			return amqp.Return{}, false
		}
	}
}

// Close tears down the publisher connection. Consumers stop with their ctx.
func (c *AMQPChannel) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	c.resetLocked()
	return nil
}
