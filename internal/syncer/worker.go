// Package syncer drains the local sync queue into the spreadsheet.
package syncer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/inovacc/finzana/internal/localstore"
	"github.com/inovacc/finzana/internal/sheets"
)

// ErrUnknownTable is recorded on entries whose table has no sheet.
var ErrUnknownTable = errors.New("no sheet for table")

// Appender appends one row to a sheet.
type Appender interface {
	Append(ctx context.Context, sheet string, row []string) error
}

// Config contains configuration for the sync worker
type Config struct {
	Interval    time.Duration // How often to drain the queue
	MaxAttempts int           // Entries failing this many times are left alone
	BatchSize   int           // Entries appended per drain, 0 for all
}

// DefaultConfig returns the worker defaults
func DefaultConfig() Config {
	return Config{
		Interval:    time.Minute,
		MaxAttempts: 10,
		BatchSize:   50,
	}
}

// Result is the outcome of one drain.
type Result struct {
	Appended  int       `json:"appended"`
	Failed    int       `json:"failed"`
	Abandoned int       `json:"abandoned"`
	At        time.Time `json:"at"`
}

// Status summarizes the queue.
type Status struct {
	Pending   int                    `json:"pending"`
	Synced    int                    `json:"synced"`
	Running   bool                   `json:"running"`
	LastDrain *Result                `json:"lastDrain,omitempty"`
	Entries   []localstore.SyncEntry `json:"entries,omitempty"`
}

// Worker appends queued rows to their sheets
type Worker struct {
	store    localstore.Store
	appender Appender
	names    sheets.Names
	config   Config
	logger   *slog.Logger
	now      func() time.Time

	mu        sync.RWMutex
	running   bool
	stopCh    chan struct{}
	stoppedCh chan struct{}
	last      *Result

	drainMu sync.Mutex
}

// NewWorker creates a sync worker
func NewWorker(store localstore.Store, appender Appender, names sheets.Names, config Config) *Worker {
	if config.Interval <= 0 {
		config.Interval = DefaultConfig().Interval
	}

	return &Worker{
		store:     store,
		appender:  appender,
		names:     names,
		config:    config,
		logger:    slog.Default(),
		now:       time.Now,
		stopCh:    make(chan struct{}),
		stoppedCh: make(chan struct{}),
	}
}

// WithLogger sets the logger for the worker
func (w *Worker) WithLogger(logger *slog.Logger) *Worker {
	w.logger = logger
	return w
}

// Start begins draining the queue in the background
func (w *Worker) Start(ctx context.Context) error {
	w.mu.Lock()

	if w.running {
		w.mu.Unlock()
		return fmt.Errorf("worker already running")
	}

	w.running = true
	w.stopCh = make(chan struct{})
	w.stoppedCh = make(chan struct{})
	w.mu.Unlock()

	w.logger.Info("starting sync worker", "interval", w.config.Interval)

	go w.run(ctx)

	return nil
}

// Stop stops the worker and waits for the current drain to finish
func (w *Worker) Stop() {
	w.mu.Lock()

	if !w.running {
		w.mu.Unlock()
		return
	}

	w.running = false
	close(w.stopCh)
	w.mu.Unlock()

	<-w.stoppedCh
	w.logger.Info("sync worker stopped")
}

// IsRunning returns whether the worker is currently running
func (w *Worker) IsRunning() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()

	return w.running
}

func (w *Worker) run(ctx context.Context) {
	defer close(w.stoppedCh)

	ticker := time.NewTicker(w.config.Interval)
	defer ticker.Stop()

	w.tick(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return
		case <-ticker.C:
			w.tick(ctx)
		}
	}
}

func (w *Worker) tick(ctx context.Context) {
	if _, err := w.DrainOnce(ctx); err != nil {
		w.logger.Error("error draining sync queue", "error", err)
	}
}

// DrainOnce appends every pending entry once. Only one drain runs at a time.
func (w *Worker) DrainOnce(ctx context.Context) (Result, error) {
	w.drainMu.Lock()
	defer w.drainMu.Unlock()

	result := Result{At: w.now()}

	pending, err := localstore.Pending(ctx, w.store)
	if err != nil {
		return result, fmt.Errorf("failed to read sync queue: %w", err)
	}

	if len(pending) > 0 {
		w.logger.Debug("draining sync queue", "count", len(pending))
	}

	processed := 0

	for _, entry := range pending {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		if w.config.MaxAttempts > 0 && entry.Attempts >= w.config.MaxAttempts {
			result.Abandoned++
			continue
		}

		if w.config.BatchSize > 0 && processed >= w.config.BatchSize {
			break
		}

		processed++

		if err := w.appendEntry(ctx, entry); err != nil {
			result.Failed++

			w.logger.Warn("sync append failed",
				"id", entry.ID, "table", entry.Table, "attempt", entry.Attempts+1, "error", err)

			if markErr := localstore.MarkFailed(ctx, w.store, entry.ID, entry.Attempts+1, err); markErr != nil {
				return result, fmt.Errorf("failed to record sync failure: %w", markErr)
			}

			continue
		}

		if err := localstore.MarkSynced(ctx, w.store, entry.ID, w.now()); err != nil {
			return result, fmt.Errorf("failed to mark entry synced: %w", err)
		}

		result.Appended++
	}

	w.mu.Lock()
	last := result
	w.last = &last
	w.mu.Unlock()

	if result.Appended > 0 || result.Failed > 0 {
		w.logger.Info("sync queue drained",
			"appended", result.Appended, "failed", result.Failed, "abandoned", result.Abandoned)
	}

	return result, nil
}

func (w *Worker) appendEntry(ctx context.Context, entry localstore.SyncEntry) error {
	sheet, ok := w.sheetFor(entry.Table)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownTable, entry.Table)
	}

	return w.appender.Append(ctx, sheet, entry.Payload)
}

func (w *Worker) sheetFor(table string) (string, bool) {
	switch table {
	case localstore.TableClients:
		return w.names.Clients, true
	case localstore.TableCredits:
		return w.names.Credits, true
	case localstore.TablePayments:
		return w.names.Payments, true
	default:
		return "", false
	}
}

// Status reports queue counts. When withEntries is set the pending
// entries are included.
func (w *Worker) Status(ctx context.Context, withEntries bool) (Status, error) {
	pending, err := localstore.Pending(ctx, w.store)
	if err != nil {
		return Status{}, err
	}

	synced, err := w.store.GetByIndex(ctx, localstore.SyncQueue, "synced", true)
	if err != nil {
		return Status{}, err
	}

	w.mu.RLock()
	st := Status{
		Pending: len(pending),
		Synced:  len(synced),
		Running: w.running,
	}

	if w.last != nil {
		last := *w.last
		st.LastDrain = &last
	}
	w.mu.RUnlock()

	if withEntries {
		st.Entries = pending
	}

	return st, nil
}
