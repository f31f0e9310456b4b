package event

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"skin-analysis-service/data"
)

type memStore struct {
	mu      sync.Mutex
	records []*data.AnalysisRecord
	fail    bool
}

func (m *memStore) Create(_ context.Context, r *data.AnalysisRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail {
		return errors.New("db down")
	}
	m.records = append(m.records, r)
	return nil
}

func (m *memStore) len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.records)
}

func TestPublish(t *testing.T) {
	ch := make(chan Event, 1)
	assert.True(t, Publish(ch, Event{AnalysisID: uuid.New()}))
	assert.False(t, Publish(ch, Event{AnalysisID: uuid.New()}), "full buffer must not block")
	assert.False(t, Publish(nil, Event{}))
}

func TestRecorder_Run(t *testing.T) {
	store := &memStore{}
	ch := make(chan Event, 4)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error)
	go func() { done <- NewRecorder(store, ch).Run(ctx) }()

	id := uuid.New()
	ch <- Event{AnalysisID: id, Status: data.StatusSuccess, Body: []byte(`{"a":1}`), CreatedAt: time.Now()}
	ch <- Event{AnalysisID: uuid.New(), Status: data.StatusFail}

	assert.Eventually(t, func() bool { return store.len() == 2 }, time.Second, 10*time.Millisecond)

	cancel()
	require.NoError(t, <-done)

	assert.Equal(t, id, store.records[0].ID)
	assert.Equal(t, `{"a":1}`, store.records[0].Body)
	assert.Equal(t, "{}", store.records[1].Body)
}

func TestRecorder_DrainsOnCancel(t *testing.T) {
	store := &memStore{}
	ch := make(chan Event, 4)
	ch <- Event{AnalysisID: uuid.New(), Status: data.StatusSuccess}
	ch <- Event{AnalysisID: uuid.New(), Status: data.StatusSuccess}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.NoError(t, NewRecorder(store, ch).Run(ctx))
	assert.Equal(t, 2, store.len())
}

func TestRecorder_StoreErrorKeepsRunning(t *testing.T) {
	store := &memStore{fail: true}
	ch := make(chan Event, 1)
	ch <- Event{AnalysisID: uuid.New(), Status: data.StatusFail}
	close(ch)

	require.NoError(t, NewRecorder(store, ch).Run(context.Background()))
	assert.Equal(t, 0, store.len())
}

func TestRecorder_StartStopFlushesLateEvents(t *testing.T) {
	store := &memStore{}
	ch := make(chan Event, 8)
	stop := NewRecorder(store, ch).Start()

	ch <- Event{AnalysisID: uuid.New(), Status: data.StatusSuccess}
	assert.Eventually(t, func() bool { return store.len() == 1 }, time.Second, 10*time.Millisecond)

	// published while servers drain, before stop
	for range 3 {
		ch <- Event{AnalysisID: uuid.New(), Status: data.StatusSuccess}
	}
	stop()

	assert.Equal(t, 4, store.len())
}
