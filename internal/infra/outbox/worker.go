package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
)

type Producer interface {
	Publish(ctx context.Context, topic string, key string, payload []byte, headers map[string]string) error
}

// ClaimStore is the part of the outbox store the relay needs.
type ClaimStore interface {
	Claim(ctx context.Context, workerID string) (*EventDocument, error)
	MarkSent(ctx context.Context, id string) error
	MarkFailed(ctx context.Context, id string, next time.Time, errMsg string) error
}

// Worker relays stored domain events to the broker as CloudEvents.
type Worker struct {
	Store       ClaimStore
	Producer    Producer
	Interval    time.Duration
	TopicPrefix string
	Source      string
	ID          string
	Backoff     []time.Duration
	// BatchSize bounds how many events one tick relays.
	BatchSize int
	Logger    *slog.Logger
	Now       func() time.Time
}

func (w *Worker) Run(ctx context.Context) error {
	if w.Store == nil || w.Producer == nil {
		return ErrWorkerNotConfigured
	}
	if w.ID == "" {
		w.ID = uuid.NewString()
	}
	ticker := time.NewTicker(w.interval())
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if _, err := w.Drain(ctx); err != nil {
				return err
			}
		}
	}
}

// Drain handles up to BatchSize events, failed ones included, and reports how
// many it handled.
func (w *Worker) Drain(ctx context.Context) (int, error) {
	handled := 0
	for i := 0; i < w.batchSize(); i++ {
		ok, err := w.processOnce(ctx)
		if err != nil || !ok {
			return handled, err
		}
		handled++
	}
	return handled, nil
}

// processOnce reports false when there was nothing left to relay.
func (w *Worker) processOnce(ctx context.Context) (bool, error) {
	doc, err := w.Store.Claim(ctx, w.workerID())
	if err != nil || doc == nil {
		return false, err
	}
	topic := w.topicFor(doc.Name)
	payload, headers, err := w.formatPayload(doc)
	if err == nil {
		err = w.Producer.Publish(ctx, topic, doc.Aggregate, payload, headers)
	}
	if err != nil {
		w.logger().WarnContext(ctx, "outbox relay failed",
			slog.String("event_id", doc.ID), slog.String("event", doc.Name),
			slog.Int("attempts", doc.Attempts+1), slog.Any("error", err))
		if markErr := w.Store.MarkFailed(ctx, doc.ID, w.nextRetry(doc.Attempts), err.Error()); markErr != nil {
			return false, markErr
		}
		// keep the batch moving; the failed event waits for its retry slot
		return true, nil
	}
	if err := w.Store.MarkSent(ctx, doc.ID); err != nil {
		return false, err
	}
	w.logger().DebugContext(ctx, "outbox event relayed", slog.String("event_id", doc.ID), slog.String("topic", topic))
	return true, nil
}

func (w *Worker) formatPayload(doc *EventDocument) ([]byte, map[string]string, error) {
	if doc.Headers == nil {
		doc.Headers = map[string]string{}
	}
	data := map[string]any{}
	if err := json.Unmarshal(doc.Payload, &data); err != nil {
		return nil, nil, err
	}
	evt := map[string]any{
		"specversion":     "1.0",
		"id":              doc.ID,
		"type":            doc.Name + ".v1",
		"source":          w.source(),
		"subject":         doc.Aggregate,
		"time":            doc.OccurredAt,
		"datacontenttype": "application/json",
		"data":            data,
	}
	if trace, ok := doc.Headers["traceparent"]; ok {
		evt["traceparent"] = trace
	}
	payload, err := json.Marshal(evt)
	if err != nil {
		return nil, nil, err
	}
	headers := map[string]string{
		"content-type": "application/cloudevents+json",
		"ce-id":        doc.ID,
	}
	for k, v := range doc.Headers {
		headers[k] = v
	}
	return payload, headers, nil
}

// topicFor maps "booking.created" to "booking.events.v1".
func (w *Worker) topicFor(name string) string {
	base := name
	if idx := strings.IndexRune(name, '.'); idx > 0 {
		base = name[:idx]
	}
	topic := base + ".events.v1"
	if w.TopicPrefix != "" {
		topic = w.TopicPrefix + topic
	}
	return topic
}

func (w *Worker) workerID() string {
	if w.ID != "" {
		return w.ID
	}
	return uuid.NewString()
}

func (w *Worker) interval() time.Duration {
	if w.Interval <= 0 {
		return 500 * time.Millisecond
	}
	return w.Interval
}

func (w *Worker) batchSize() int {
	if w.BatchSize <= 0 {
		return 50
	}
	return w.BatchSize
}

func (w *Worker) now() time.Time {
	if w.Now != nil {
		return w.Now()
	}
	return time.Now()
}

func (w *Worker) nextRetry(attempts int) time.Time {
	if attempts < len(w.Backoff) {
		return w.now().Add(w.Backoff[attempts])
	}
	if len(w.Backoff) > 0 {
		return w.now().Add(w.Backoff[len(w.Backoff)-1])
	}
	return w.now().Add(5 * time.Second)
}

func (w *Worker) source() string {
	if w.Source != "" {
		return w.Source
	}
	return "app://rentcal"
}

func (w *Worker) logger() *slog.Logger {
	if w.Logger != nil {
		return w.Logger
	}
	return slog.Default()
}

var ErrWorkerNotConfigured = errors.New("outbox: worker missing dependencies")
