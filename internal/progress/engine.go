package progress

import (
	"context"
	"sync"
	"time"

	"github.com/watchdeck/watchdeck/internal/logger"
)

const defaultInterval = 5 * time.Second

// Client is the remote side of the sync engine
type Client interface {
	// PullProgress fetches all progress records visible to the current user.
	PullProgress(ctx context.Context) ([]Record, error)

	// PushProgress uploads locally produced records.
	PushProgress(ctx context.Context, records []Record) error
}

// Engine keeps a local Store eventually consistent with the server.
// Remote records are merged last-write-wins: a remote record replaces the
// local one only when its UpdatedAt is strictly newer; ties keep local.
//
// Each Engine owns its timer. Start schedules periodic pulls until Stop;
// PullOnce performs a single pull with no repeat.
type Engine struct {
	store    Store
	client   Client
	interval time.Duration
	log      *logger.Logger

	mu      sync.Mutex
	dirty   map[string]struct{}
	stop    chan struct{}
	done    chan struct{}
	running bool
}

// EngineConfig holds sync engine configuration
type EngineConfig struct {
	Store    Store
	Client   Client
	Interval time.Duration
	Logger   *logger.Logger
}

// NewEngine creates a sync engine; it does not start the timer
func NewEngine(cfg EngineConfig) *Engine {
	if cfg.Interval <= 0 {
		cfg.Interval = defaultInterval
	}
	if cfg.Logger == nil {
		cfg.Logger = logger.AppLogger()
	}
	return &Engine{
		store:    cfg.Store,
		client:   cfg.Client,
		interval: cfg.Interval,
		log:      cfg.Logger,
		dirty:    make(map[string]struct{}),
	}
}

// PullOnce fetches remote records and merges them into the local store
func (e *Engine) PullOnce(ctx context.Context) error {
	records, err := e.client.PullProgress(ctx)
	if err != nil {
		return err
	}

	for _, remote := range records {
		local, ok := e.store.Get(remote.MediaID)
		if !ok {
			e.store.Set(remote.MediaID, remote)
			continue
		}
		if local.Equal(remote) {
			continue
		}
		if remote.UpdatedAt.After(local.UpdatedAt) {
			e.store.Set(remote.MediaID, remote)
			e.clearDirty(remote.MediaID)
		}
	}
	return nil
}

// Report records a local playback position with the current time as its
// conflict key, and queues the record for upload on the next tick.
func (e *Engine) Report(mediaID string, positionMs int64) {
	rec := Record{
		MediaID:    mediaID,
		PositionMs: positionMs,
		UpdatedAt:  time.Now().UTC(),
	}
	e.store.Set(mediaID, rec)

	e.mu.Lock()
	e.dirty[mediaID] = struct{}{}
	e.mu.Unlock()
}

// Start performs an immediate pull, then pulls on the configured interval
// until Stop is called. Failures are logged and the cycle is skipped; the
// next tick retries independently.
func (e *Engine) Start(ctx context.Context) {
	e.mu.Lock()
	if e.running {
		e.mu.Unlock()
		return
	}
	e.running = true
	e.stop = make(chan struct{})
	e.done = make(chan struct{})
	stop, done := e.stop, e.done
	e.mu.Unlock()

	go func() {
		defer close(done)

		e.tick(ctx)

		ticker := time.NewTicker(e.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-stop:
				return
			case <-ticker.C:
				e.tick(ctx)
			}
		}
	}()
}

// Stop cancels the timer and waits for the sync loop to exit
func (e *Engine) Stop() {
	e.mu.Lock()
	if !e.running {
		e.mu.Unlock()
		return
	}
	e.running = false
	stop, done := e.stop, e.done
	e.mu.Unlock()

	close(stop)
	<-done
}

func (e *Engine) tick(ctx context.Context) {
	if err := e.PullOnce(ctx); err != nil {
		e.log.WithFields(map[string]interface{}{
			"interval": e.interval.String(),
		}).Warn("Progress pull failed, skipping cycle: " + err.Error())
	}
	e.pushDirty(ctx)
}

func (e *Engine) pushDirty(ctx context.Context) {
	e.mu.Lock()
	if len(e.dirty) == 0 {
		e.mu.Unlock()
		return
	}
	ids := make([]string, 0, len(e.dirty))
	for id := range e.dirty {
		ids = append(ids, id)
	}
	e.mu.Unlock()

	records := make([]Record, 0, len(ids))
	for _, id := range ids {
		if rec, ok := e.store.Get(id); ok {
			records = append(records, rec)
		}
	}

	if err := e.client.PushProgress(ctx, records); err != nil {
		// Dirty records remain queued and are retried next tick.
		e.log.Warn("Progress push failed, will retry: " + err.Error())
		return
	}

	e.mu.Lock()
	for _, id := range ids {
		delete(e.dirty, id)
	}
	e.mu.Unlock()
}

func (e *Engine) clearDirty(mediaID string) {
	e.mu.Lock()
	delete(e.dirty, mediaID)
	e.mu.Unlock()
}
