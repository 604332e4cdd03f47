package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type producerMock struct {
	mock.Mock
}

func (m *producerMock) Publish(ctx context.Context, topic string, key string, payload []byte, headers map[string]string) error {
	args := m.Called(ctx, topic, key, payload, headers)
	return args.Error(0)
}

type fakeStore struct {
	queue  []*EventDocument
	sent   []string
	failed map[string]string
}

func (s *fakeStore) Claim(ctx context.Context, workerID string) (*EventDocument, error) {
	if len(s.queue) == 0 {
		return nil, nil
	}
	doc := s.queue[0]
	s.queue = s.queue[1:]
	return doc, nil
}

func (s *fakeStore) MarkSent(ctx context.Context, id string) error {
	s.sent = append(s.sent, id)
	return nil
}

func (s *fakeStore) MarkFailed(ctx context.Context, id string, next time.Time, errMsg string) error {
	if s.failed == nil {
		s.failed = map[string]string{}
	}
	s.failed[id] = errMsg
	return nil
}

func TestWorkerDrainPublishesCloudEvents(t *testing.T) {
	store := &fakeStore{queue: []*EventDocument{
		{ID: "e1", Name: "booking.created", Aggregate: "u1", Payload: []byte(`{"BookingID":"b1"}`), OccurredAt: time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)},
		{ID: "e2", Name: "closures.synced", Aggregate: "u2", Payload: []byte(`{"Added":2}`)},
	}}
	producer := &producerMock{}
	var first []byte
	producer.On("Publish", mock.Anything, "rc.booking.events.v1", "u1", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { first = args.Get(3).([]byte) }).
		Return(nil).Once()
	producer.On("Publish", mock.Anything, "rc.closures.events.v1", "u2", mock.Anything, mock.Anything).Return(nil).Once()

	w := &Worker{Store: store, Producer: producer, TopicPrefix: "rc.", ID: "w1"}
	sent, err := w.Drain(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, sent)
	assert.Equal(t, []string{"e1", "e2"}, store.sent)
	producer.AssertExpectations(t)

	var evt map[string]any
	require.NoError(t, json.Unmarshal(first, &evt))
	assert.Equal(t, "booking.created.v1", evt["type"])
	assert.Equal(t, "app://rentcal", evt["source"])
	assert.Equal(t, "e1", evt["id"])
}

func TestWorkerMarksFailedAndContinues(t *testing.T) {
	store := &fakeStore{queue: []*EventDocument{
		{ID: "bad", Name: "rule.deleted", Payload: []byte(`not json`)},
		{ID: "down", Name: "rule.deleted", Payload: []byte(`{}`)},
	}}
	producer := &producerMock{}
	producer.On("Publish", mock.Anything, "rule.events.v1", "", mock.Anything, mock.Anything).Return(errors.New("broker down")).Once()

	w := &Worker{Store: store, Producer: producer, Backoff: []time.Duration{time.Second}}
	sent, err := w.Drain(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, sent)
	assert.Empty(t, store.sent)
	assert.Contains(t, store.failed, "bad")
	assert.Equal(t, "broker down", store.failed["down"])
}

func TestWorkerRunRequiresDependencies(t *testing.T) {
	err := (&Worker{}).Run(context.Background())
	assert.ErrorIs(t, err, ErrWorkerNotConfigured)
}
