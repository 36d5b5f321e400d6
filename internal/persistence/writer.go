package persistence

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
)

// ErrWriterStopped is reported for writes queued after Stop.
var ErrWriterStopped = errors.New("persistence writer is stopped")

// Saver is what the writer hands queued collections to. *Adapter satisfies it.
type Saver interface {
	Save(ctx context.Context, key string, collection any) error
}

type WriterConfig struct {
	FlushInterval time.Duration // 0 flushes as soon as something is queued
	RetryAttempts int
	RetryBackoff  time.Duration
	ErrorBuffer   int
}

func DefaultWriterConfig() WriterConfig {
	return WriterConfig{
		FlushInterval: 0,
		RetryAttempts: 3,
		RetryBackoff:  200 * time.Millisecond,
		ErrorBuffer:   64,
	}
}

// WriteError describes a collection that could not be persisted.
type WriteError struct {
	Key      string
	Attempts int
	Err      error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("persist %s failed after %d attempt(s): %v", e.Key, e.Attempts, e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }

type WriterStats struct {
	Writes       int64     `json:"writes"`
	FailedWrites int64     `json:"failedWrites"`
	Coalesced    int64     `json:"coalesced"`
	Pending      int       `json:"pending"`
	LastWriteAt  time.Time `json:"lastWriteAt"`
	LastError    string    `json:"lastError,omitempty"`
}

// Writer persists collections in the background. Persist never blocks the
// caller and a failed write never reaches back into the caller's state.
// Pending writes are coalesced per key: every save is a full overwrite, so
// only the newest collection for a key needs writing.
type Writer struct {
	config WriterConfig
	saver  Saver

	pending    map[string]any
	pendingMux sync.Mutex

	// serializes flushes so two writes to one key never race
	flushMux sync.Mutex

	notify chan struct{}
	errs   chan error

	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	started bool

	stats    WriterStats
	statsMux sync.RWMutex
}

func NewWriter(saver Saver, config WriterConfig) *Writer {
	if config.ErrorBuffer <= 0 {
		config.ErrorBuffer = 1
	}
	ctx, cancel := context.WithCancel(context.Background())

	return &Writer{
		config:  config,
		saver:   saver,
		pending: make(map[string]any),
		notify:  make(chan struct{}, 1),
		errs:    make(chan error, config.ErrorBuffer),
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Start launches the background flush loop.
func (w *Writer) Start() {
	w.pendingMux.Lock()
	defer w.pendingMux.Unlock()
	if w.started {
		return
	}
	w.started = true

	w.wg.Add(1)
	go w.run()
}

// Stop halts the loop and writes whatever is still pending.
func (w *Writer) Stop(ctx context.Context) error {
	w.cancel()
	w.wg.Wait()
	return w.Flush(ctx)
}

// Persist queues a full collection for key.
func (w *Writer) Persist(key string, collection any) {
	if w.ctx.Err() != nil {
		w.report(&WriteError{Key: key, Err: ErrWriterStopped})
		return
	}

	w.pendingMux.Lock()
	if _, exists := w.pending[key]; exists {
		w.statsMux.Lock()
		w.stats.Coalesced++
		w.statsMux.Unlock()
	}
	w.pending[key] = collection
	w.pendingMux.Unlock()

	select {
	case w.notify <- struct{}{}:
	default:
		// a flush is already signalled
	}
}

// Errors delivers write failures. Failures are dropped from the channel
// (but still logged) when nobody drains it.
func (w *Writer) Errors() <-chan error {
	return w.errs
}

// Flush synchronously writes everything queued so far.
func (w *Writer) Flush(ctx context.Context) error {
	w.flushMux.Lock()
	defer w.flushMux.Unlock()

	batch := w.takePending()
	var errs []error
	for key, collection := range batch {
		if err := w.saveWithRetry(ctx, key, collection); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (w *Writer) Stats() WriterStats {
	w.statsMux.RLock()
	stats := w.stats
	w.statsMux.RUnlock()

	w.pendingMux.Lock()
	stats.Pending = len(w.pending)
	w.pendingMux.Unlock()
	return stats
}

func (w *Writer) run() {
	defer w.wg.Done()

	var tick <-chan time.Time
	if w.config.FlushInterval > 0 {
		ticker := time.NewTicker(w.config.FlushInterval)
		defer ticker.Stop()
		tick = ticker.C
	}

	for {
		select {
		case <-w.ctx.Done():
			return
		case <-w.notify:
			if w.config.FlushInterval == 0 {
				_ = w.Flush(w.ctx)
			}
		case <-tick:
			_ = w.Flush(w.ctx)
		}
	}
}

func (w *Writer) takePending() map[string]any {
	w.pendingMux.Lock()
	defer w.pendingMux.Unlock()

	batch := w.pending
	w.pending = make(map[string]any)
	return batch
}

// requeue puts an interrupted write back unless a newer one arrived meanwhile.
func (w *Writer) requeue(key string, collection any) {
	w.pendingMux.Lock()
	defer w.pendingMux.Unlock()

	if _, newer := w.pending[key]; !newer {
		w.pending[key] = collection
	}
}

func (w *Writer) saveWithRetry(ctx context.Context, key string, collection any) error {
	var lastErr error
	attempts := 0

	for attempt := 0; attempt <= w.config.RetryAttempts; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(math.Pow(2, float64(attempt-1))) * w.config.RetryBackoff
			log.WithFields(log.Fields{"key": key, "attempt": attempt, "backoff": backoff}).
				Debug("Retrying persistence write")

			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				w.requeue(key, collection)
				return fmt.Errorf("persist %s interrupted: %w", key, ctx.Err())
			}
		}

		attempts++
		// cancellation is honoured between attempts, never mid-write
		lastErr = w.saver.Save(context.WithoutCancel(ctx), key, collection)
		if lastErr == nil {
			w.statsMux.Lock()
			w.stats.Writes++
			w.stats.LastWriteAt = time.Now()
			w.statsMux.Unlock()
			return nil
		}
	}

	writeErr := &WriteError{Key: key, Attempts: attempts, Err: lastErr}
	w.report(writeErr)
	return writeErr
}

func (w *Writer) report(err *WriteError) {
	log.WithError(err.Err).WithFields(log.Fields{"key": err.Key, "attempts": err.Attempts}).
		Error("Failed to persist collection")

	w.statsMux.Lock()
	w.stats.FailedWrites++
	w.stats.LastError = err.Error()
	w.statsMux.Unlock()

	select {
	case w.errs <- err:
	default:
	}
}
