// Package event carries finished analyses from the request path to the
// history store without blocking the response.
package event

import (
	"context"
	"time"

	"github.com/google/uuid"

	"skin-analysis-service/data"
	"skin-analysis-service/logging"
)

// DefaultBuffer is the channel capacity used by main.
const DefaultBuffer = 64

type Event struct {
	AnalysisID uuid.UUID
	// Status is data.StatusSuccess or data.StatusFail.
	Status    string
	Body      []byte
	CreatedAt time.Time
}

// Publish sends e without blocking. It reports false when ch is nil or full.
func Publish(ch chan<- Event, e Event) bool {
	if ch == nil {
		return false
	}
	select {
	case ch <- e:
		return true
	default:
		logging.Warn().
			Str("analysis_id", e.AnalysisID.String()).
			Msg("event buffer full, analysis not recorded")
		return false
	}
}

// Store persists analysis records.
type Store interface {
	Create(ctx context.Context, record *data.AnalysisRecord) error
}

// Recorder drains events into a Store.
type Recorder struct {
	store  Store
	events <-chan Event
}

func NewRecorder(store Store, events <-chan Event) *Recorder {
	return &Recorder{store: store, events: events}
}

// Run records events until ctx is cancelled or the channel is closed. Events
// still buffered at cancellation are flushed with a short deadline.
func (r *Recorder) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			r.drain()
			return nil
		case e, ok := <-r.events:
			if !ok {
				return nil
			}
			r.record(ctx, e)
		}
	}
}

// Start runs the recorder in its own goroutine, independent of any server
// context. The returned stop function cancels it, flushes buffered events and
// waits for it to finish. Call stop only after every publisher has returned.
func (r *Recorder) Start() (stop func()) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = r.Run(ctx)
	}()
	return func() {
		cancel()
		<-done
	}
}

func (r *Recorder) drain() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for {
		select {
		case e, ok := <-r.events:
			if !ok {
				return
			}
			r.record(ctx, e)
		default:
			return
		}
	}
}

func (r *Recorder) record(ctx context.Context, e Event) {
	body := e.Body
	if len(body) == 0 {
		body = []byte("{}")
	}
	rec := &data.AnalysisRecord{
		ID:        e.AnalysisID,
		Body:      string(body),
		Status:    e.Status,
		CreatedAt: e.CreatedAt,
	}
	if err := r.store.Create(ctx, rec); err != nil {
		logging.Error().
			Err(err).
			Str("analysis_id", e.AnalysisID.String()).
			Msg("failed to record analysis")
		return
	}
	logging.Debug().
		Str("analysis_id", rec.ID.String()).
		Str("status", rec.Status).
		Msg("analysis recorded")
}
