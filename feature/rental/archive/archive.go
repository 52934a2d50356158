package archive

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"umbrella-station/core/reconcile"
	"umbrella-station/core/storage"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"go.uber.org/zap"
)

// Event kinds.
const (
	KindIdentity  = "identity"
	KindOccupancy = "occupancy"
	KindBorrow    = "borrow"
	KindReturn    = "return"
)

// Event is one processed station event or direct request.
type Event struct {
	ID      string    `json:"id"`
	Kind    string    `json:"kind"`
	At      time.Time `json:"at"`
	Account string    `json:"account,omitempty"`
	// Payload is the raw message body for hardware events.
	Payload     string                 `json:"payload,omitempty"`
	Unit        int                    `json:"unit,omitempty"`
	Transitions []reconcile.Transition `json:"transitions,omitempty"`
	Outcomes    []reconcile.Outcome    `json:"outcomes,omitempty"`
	Error       string                 `json:"error,omitempty"`
}

// Journal records processed events.
type Journal interface {
	Record(ctx context.Context, event *Event) error
	List(ctx context.Context, day time.Time) ([]Event, error)
}

const prefix = "events/"

// Store is a Journal writing one JSON object per event to a bucket.
type Store struct {
	client storage.Client
	bucket string
	logger *zap.Logger
}

// NewStore creates a bucket-backed journal.
func NewStore(client storage.Client, bucket string, logger *zap.Logger) *Store {
	return &Store{client: client, bucket: bucket, logger: logger}
}

func dayPrefix(day time.Time) string {
	return prefix + day.UTC().Format("2006/01/02") + "/"
}

// ObjectKey returns the object path of an event.
func ObjectKey(event *Event) string {
	return dayPrefix(event.At) + event.ID + ".json"
}

// Record writes the event. ID and At are filled in when empty.
func (s *Store) Record(ctx context.Context, event *Event) error {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.At.IsZero() {
		event.At = time.Now().UTC()
	}

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to encode event: %w", err)
	}

	key := ObjectKey(event)
	_, err = s.client.PutObject(ctx, s.bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: "application/json",
	})
	if err != nil {
		return fmt.Errorf("failed to write event %s: %w", key, err)
	}
	s.logger.Debug("Journal event recorded", zap.String("key", key), zap.String("kind", event.Kind))
	return nil
}

// List returns the events of one UTC day ordered by time.
func (s *Store) List(ctx context.Context, day time.Time) ([]Event, error) {
	opts := minio.ListObjectsOptions{
		Prefix:    dayPrefix(day),
		Recursive: true,
	}

	var events []Event
	for obj := range s.client.ListObjects(ctx, s.bucket, opts) {
		if obj.Err != nil {
			return nil, fmt.Errorf("failed to list events: %w", obj.Err)
		}
		if !strings.HasSuffix(obj.Key, ".json") {
			continue
		}
		event, err := s.read(ctx, obj.Key)
		if err != nil {
			s.logger.Warn("Skipping unreadable journal object", zap.String("key", obj.Key), zap.Error(err))
			continue
		}
		events = append(events, *event)
	}

	sort.SliceStable(events, func(i, j int) bool {
		return events[i].At.Before(events[j].At)
	})
	return events, nil
}

func (s *Store) read(ctx context.Context, key string) (*Event, error) {
	reader, err := s.client.GetObject(ctx, s.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, err
	}
	defer reader.Close()

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, err
	}
	var event Event
	if err := json.Unmarshal(data, &event); err != nil {
		return nil, err
	}
	return &event, nil
}

// Nop is the journal used when storage is disabled.
type Nop struct{}

// Record does nothing.
func (Nop) Record(context.Context, *Event) error { return nil }

// List returns no events.
func (Nop) List(context.Context, time.Time) ([]Event, error) { return []Event{}, nil }
