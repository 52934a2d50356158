package channel

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
)

var (
	// ErrUnavailable is returned when the broker cannot be reached.
	ErrUnavailable = errors.New("hardware channel unavailable")
	// ErrCommandFailed is returned when an outbound command is not acknowledged.
	ErrCommandFailed = errors.New("hardware command failed")
)

// Kind distinguishes the two inbound message streams.
type Kind int

const (
	// KindUnknown is a message on a topic the station does not use.
	KindUnknown Kind = iota
	// KindIdentity carries a raw RFID tag.
	KindIdentity
	// KindOccupancy carries a comma-separated slot vector.
	KindOccupancy
)

// String returns the kind name used in logs and journal records.
func (k Kind) String() string {
	switch k {
	case KindIdentity:
		return "identity"
	case KindOccupancy:
		return "occupancy"
	default:
		return "unknown"
	}
}

// Message is one payload received from the station.
type Message struct {
	Kind       Kind
	Topic      string
	Payload    []byte
	ReceivedAt time.Time
}

// Handler processes one message. Messages are delivered one at a time, in
// the order the broker delivered them.
type Handler func(ctx context.Context, msg Message)

// Channel is the station transport: inbound events, outbound commands.
type Channel interface {
	// Subscribe consumes both inbound streams until ctx is done, reconnecting
	// as needed. It returns ctx.Err() on cancellation.
	Subscribe(ctx context.Context, handle Handler) error
	// Send publishes a dispense/unlock command for a unit and waits for the
	// broker to confirm delivery.
	Send(ctx context.Context, unit int) error
	// Close releases broker connections.
	Close() error
}

// New creates the channel selected by cfg.Driver.
func New(cfg Config, logger *zap.Logger) (Channel, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	switch cfg.Driver {
	case DriverAMQP:
		return NewAMQP(cfg, logger), nil
	default:
		return NewMQTT(cfg, logger), nil
	}
}

// kindFor maps a topic or routing key to a message kind.
func (c Config) kindFor(topic string) Kind {
	switch topic {
	case c.IdentityTopic:
		return KindIdentity
	case c.OccupancyTopic:
		return KindOccupancy
	}
	return KindUnknown
}

func orDefault(d, def time.Duration) time.Duration {
	if d <= 0 {
		return def
	}
	return d
}

func (c Config) sendTimeout() time.Duration       { return orDefault(c.SendTimeout, 5*time.Second) }
func (c Config) reconnectInterval() time.Duration { return orDefault(c.ReconnectInterval, time.Second) }

// maxBackoff never falls below the reconnect interval.
func (c Config) maxBackoff() time.Duration {
	return max(orDefault(c.MaxBackoff, 30*time.Second), c.reconnectInterval())
}

// sendContext bounds a command send by the configured timeout and by any
// earlier deadline already on ctx.
func (c Config) sendContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, c.sendTimeout())
}

func commandFailed(unit int, cause error) error {
	return fmt.Errorf("%w: unit %d: %w", ErrCommandFailed, unit, cause)
}

// sleepCtx waits for d or until ctx is done.
func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
