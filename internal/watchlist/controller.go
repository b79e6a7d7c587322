package watchlist

import (
	"context"
	"sync"
	"time"

	"github.com/watchdeck/watchdeck/internal/asyncreq"
	"github.com/watchdeck/watchdeck/internal/errors"
	"github.com/watchdeck/watchdeck/internal/logger"
	"github.com/watchdeck/watchdeck/internal/models"
)

// Controller applies playlist mutations to local state immediately and
// issues the authoritative server call in the background.
//
// Failure handling is asymmetric on purpose: remove, move and reorder
// reload server truth on failure, while a failed add leaves the optimistic
// item in place (a duplicate error is treated as success). Reload replaces
// local state wholesale.
type Controller struct {
	api    API
	notify Notifier
	log    *logger.Logger

	mu    sync.Mutex
	state State

	// other playlists currently loaded alongside the active one, so a
	// move can bump the target's count optimistically
	loaded map[string]*Meta

	reorderInFlight bool

	// acknowledgedSort mirrors the sort fields the server has accepted.
	// A refused sort or order persist rolls local state back to these
	// before reloading items.
	acknowledgedSort sortState

	// confirmLeaveCustom is asked before abandoning a manual arrangement
	confirmLeaveCustom func() bool

	sortCoord    *asyncreq.Coordinator[sortChange, struct{}]
	sortDebounce time.Duration

	wg sync.WaitGroup
}

// ControllerConfig holds controller dependencies
type ControllerConfig struct {
	API      API
	Notifier Notifier
	Logger   *logger.Logger

	// ConfirmLeaveCustom is invoked when a sort change would abandon a
	// custom arrangement. Nil declines every such change.
	ConfirmLeaveCustom func() bool

	// SortDebounce is the debounce window for persisting sort changes.
	// Zero uses the 300ms default.
	SortDebounce time.Duration
}

// NewController creates a controller over empty state
func NewController(cfg ControllerConfig) *Controller {
	if cfg.Logger == nil {
		cfg.Logger = logger.AppLogger()
	}
	if cfg.Notifier == nil {
		cfg.Notifier = NotifierFunc(func(string) {})
	}
	return &Controller{
		api:                cfg.API,
		notify:             cfg.Notifier,
		log:                cfg.Logger,
		loaded:             make(map[string]*Meta),
		confirmLeaveCustom: cfg.ConfirmLeaveCustom,
		sortDebounce:       cfg.SortDebounce,
	}
}

// Load replaces the active playlist state wholesale
func (c *Controller) Load(meta Meta, items []Item, summary Summary) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = State{Playlist: meta, Items: items, Summary: summary}
	c.acknowledgedSort = sortState{
		sortBy:      meta.SortBy,
		sortOrder:   meta.SortOrder,
		customOrder: append([]string(nil), meta.CustomOrder...),
	}
	sortItems(c.state.Items, meta.SortBy, meta.SortOrder, meta.CustomOrder)
}

// Track registers another loaded playlist so moves can adjust its count
func (c *Controller) Track(meta *Meta) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.loaded[meta.ID] = meta
}

// Snapshot returns a copy of the current state
func (c *Controller) Snapshot() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := c.state
	out.Items = append([]Item(nil), c.state.Items...)
	out.Playlist.CustomOrder = append([]string(nil), c.state.Playlist.CustomOrder...)
	return out
}

// Wait blocks until all background server calls have finished
func (c *Controller) Wait() {
	c.wg.Wait()
}

// Add prepends item to the active playlist and re-applies the active sort.
// Adding an ID already present is a no-op. The server call runs in the
// background; a duplicate error from it is informational, any other error
// is surfaced without rolling the optimistic add back.
func (c *Controller) Add(ctx context.Context, item Item) {
	c.mu.Lock()
	for _, existing := range c.state.Items {
		if existing.ID == item.ID {
			c.mu.Unlock()
			return
		}
	}

	c.state.Items = append([]Item{item}, c.state.Items...)
	sortItems(c.state.Items, c.state.Playlist.SortBy, c.state.Playlist.SortOrder, c.state.Playlist.CustomOrder)
	c.state.Playlist.ItemCount++
	c.bumpSummary(item.MediaType, 1)
	playlistID := c.state.Playlist.ID
	c.mu.Unlock()

	c.background(func() {
		if err := c.api.AddItem(ctx, playlistID, item); err != nil {
			if errors.IsAlreadyExists(err) {
				c.log.WithFields(map[string]interface{}{
					"item_id": item.ID,
				}).Info("Item already on playlist")
				return
			}
			c.log.Error("Failed to add item", err)
			c.notify.Notify("Failed to add \"" + item.Title + "\" to the playlist")
		}
	})
}

// Remove filters the items out of local state and issues the server delete.
// On failure the playlist is reloaded from the server.
func (c *Controller) Remove(ctx context.Context, itemIDs ...string) {
	c.mu.Lock()
	removed := c.dropItems(itemIDs)
	playlistID := c.state.Playlist.ID
	c.mu.Unlock()

	if len(removed) == 0 {
		return
	}

	c.background(func() {
		if err := c.api.RemoveItems(ctx, playlistID, itemIDs); err != nil {
			c.log.Error("Failed to remove items", err)
			c.notify.Notify("Failed to remove items from the playlist")
			c.reload(ctx)
		}
	})
}

// Move transfers items to another playlist. The source loses them
// immediately; a tracked target gains their count. On failure the source
// playlist is reloaded.
func (c *Controller) Move(ctx context.Context, targetID string, itemIDs ...string) {
	c.mu.Lock()
	moved := c.dropItems(itemIDs)
	if target, ok := c.loaded[targetID]; ok {
		target.ItemCount += len(moved)
	}
	sourceID := c.state.Playlist.ID
	c.mu.Unlock()

	if len(moved) == 0 {
		return
	}

	c.background(func() {
		if err := c.api.MoveItems(ctx, sourceID, targetID, itemIDs); err != nil {
			c.log.Error("Failed to move items", err)
			c.notify.Notify("Failed to move items")
			c.reload(ctx)
		}
	})
}

// Copy adds a copy of the item to another playlist without touching the
// source playlist's state. External metadata is forwarded so the target can
// materialize items not yet in the library. A duplicate on the target is a
// successful no-op.
func (c *Controller) Copy(ctx context.Context, targetID, itemID string) {
	c.mu.Lock()
	var source *Item
	for i := range c.state.Items {
		if c.state.Items[i].ID == itemID {
			source = &c.state.Items[i]
			break
		}
	}
	if source == nil {
		c.mu.Unlock()
		return
	}
	payload := *source
	c.mu.Unlock()

	c.background(func() {
		if err := c.api.AddItem(ctx, targetID, payload); err != nil {
			if errors.IsAlreadyExists(err) {
				return
			}
			c.log.Error("Failed to copy item", err)
			c.notify.Notify("Failed to copy \"" + payload.Title + "\"")
		}
	})
}

// dropItems removes the given IDs from state and decrements counters,
// clamped at zero. Caller holds the lock.
func (c *Controller) dropItems(itemIDs []string) []Item {
	drop := make(map[string]struct{}, len(itemIDs))
	for _, id := range itemIDs {
		drop[id] = struct{}{}
	}

	var removed []Item
	kept := c.state.Items[:0]
	for _, item := range c.state.Items {
		if _, gone := drop[item.ID]; gone {
			removed = append(removed, item)
			continue
		}
		kept = append(kept, item)
	}
	c.state.Items = kept

	for _, item := range removed {
		c.state.Playlist.ItemCount--
		c.bumpSummary(item.MediaType, -1)
	}
	if c.state.Playlist.ItemCount < 0 {
		c.state.Playlist.ItemCount = 0
	}
	return removed
}

// bumpSummary adjusts the per-type summary count, clamped at zero. Caller
// holds the lock.
func (c *Controller) bumpSummary(mediaType models.MediaType, delta int) {
	switch mediaType {
	case models.MediaTypeMovie:
		c.state.Summary.Movies += delta
		if c.state.Summary.Movies < 0 {
			c.state.Summary.Movies = 0
		}
	case models.MediaTypeTV:
		c.state.Summary.TVShows += delta
		if c.state.Summary.TVShows < 0 {
			c.state.Summary.TVShows = 0
		}
	}
}

// rollbackReload discards an attempted sort or order change: local sort
// mode reverts to the last server-acknowledged one, then items are
// replaced with server truth and re-sorted under the restored mode.
func (c *Controller) rollbackReload(ctx context.Context) {
	c.mu.Lock()
	c.state.Playlist.SortBy = c.acknowledgedSort.sortBy
	c.state.Playlist.SortOrder = c.acknowledgedSort.sortOrder
	c.state.Playlist.CustomOrder = append([]string(nil), c.acknowledgedSort.customOrder...)
	c.mu.Unlock()
	c.reload(ctx)
}

// reload fetches server truth and replaces local optimistic state
func (c *Controller) reload(ctx context.Context) {
	c.mu.Lock()
	playlistID := c.state.Playlist.ID
	c.mu.Unlock()

	items, summary, err := c.api.FetchItems(ctx, playlistID)
	if err != nil {
		c.log.Error("Failed to reload playlist", err)
		return
	}

	c.mu.Lock()
	c.state.Items = items
	c.state.Summary = summary
	c.state.Playlist.ItemCount = len(items)
	sortItems(c.state.Items, c.state.Playlist.SortBy, c.state.Playlist.SortOrder, c.state.Playlist.CustomOrder)
	c.mu.Unlock()
}

func (c *Controller) background(fn func()) {
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		fn()
	}()
}
