package watchlist

import (
	"context"
	"time"

	"github.com/watchdeck/watchdeck/internal/asyncreq"
	"github.com/watchdeck/watchdeck/internal/errors"
	"github.com/watchdeck/watchdeck/internal/models"
)

// sortState is a playlist's sort mode plus the custom arrangement bound
// to it
type sortState struct {
	sortBy      models.SortBy
	sortOrder   models.SortOrder
	customOrder []string
}

type sortChange struct {
	playlistID string
	sortBy     models.SortBy
	sortOrder  models.SortOrder

	// customOrder is the arrangement in effect when the change was made,
	// recorded as acknowledged once the server accepts the change
	customOrder []string
}

// sortCoordinator lazily builds the debounced persister for sort changes
func (c *Controller) sortCoordinator() *asyncreq.Coordinator[sortChange, struct{}] {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sortCoord == nil {
		window := c.sortDebounce
		if window <= 0 {
			window = 300 * time.Millisecond
		}
		c.sortCoord = asyncreq.New(asyncreq.Config[sortChange, struct{}]{
			Window: window,
			Fetch: func(ctx context.Context, in sortChange) (struct{}, error) {
				return struct{}{}, c.api.UpdateSort(ctx, in.playlistID, in.sortBy, in.sortOrder)
			},
			Apply: func(in sortChange, _ struct{}) {
				c.mu.Lock()
				c.acknowledgedSort = sortState{
					sortBy:      in.sortBy,
					sortOrder:   in.sortOrder,
					customOrder: in.customOrder,
				}
				c.mu.Unlock()
			},
			OnError: func(in sortChange, err error) {
				c.log.Error("Failed to persist sort preference", err)
				c.notify.Notify("Failed to save sort preference")
				c.rollbackReload(context.Background())
			},
		})
	}
	return c.sortCoord
}

// SetSort changes the active sort mode, re-sorts local state, and persists
// the preference through the debounced coordinator. Rapid changes coalesce
// into a single server call.
//
// Leaving custom order abandons the manual arrangement, so it proceeds only
// when the confirmation callback approves. A locked sort rejects the change
// before any network call.
func (c *Controller) SetSort(sortBy models.SortBy, sortOrder models.SortOrder) error {
	c.mu.Lock()
	if c.state.Playlist.SortLocked {
		id := c.state.Playlist.ID
		c.mu.Unlock()
		return errors.SortLockedError(id)
	}

	leavingCustom := c.state.Playlist.SortBy == models.SortByCustom && sortBy != models.SortByCustom
	if leavingCustom {
		confirm := c.confirmLeaveCustom
		c.mu.Unlock()
		if confirm == nil || !confirm() {
			return nil
		}
		c.mu.Lock()
	}

	c.state.Playlist.SortBy = sortBy
	c.state.Playlist.SortOrder = sortOrder
	if sortBy != models.SortByCustom {
		c.state.Playlist.CustomOrder = nil
	}
	sortItems(c.state.Items, sortBy, sortOrder, c.state.Playlist.CustomOrder)
	change := sortChange{
		playlistID:  c.state.Playlist.ID,
		sortBy:      sortBy,
		sortOrder:   sortOrder,
		customOrder: append([]string(nil), c.state.Playlist.CustomOrder...),
	}
	c.mu.Unlock()

	c.sortCoordinator().Submit(change)
	return nil
}

// Reorder moves the item at sourceIndex to targetIndex using splice
// semantics: the item is removed first, then inserted into the shortened
// sequence. The new order applies to local state immediately, switches the
// playlist to custom order, and persists in the background; on failure the
// playlist is reloaded.
//
// Reorders are single-flight: a second reorder while one is pending is
// rejected. A locked sort or missing ownership rejects before any network
// call.
func (c *Controller) Reorder(ctx context.Context, sourceIndex, targetIndex int) error {
	c.mu.Lock()

	if c.reorderInFlight {
		c.mu.Unlock()
		return errors.New(errors.CodeReorderInFlight, "a reorder is already in progress")
	}
	if c.state.Playlist.SortLocked {
		id := c.state.Playlist.ID
		c.mu.Unlock()
		return errors.SortLockedError(id)
	}
	if !c.state.Playlist.IsOwner {
		c.mu.Unlock()
		return errors.PermissionError("only the playlist owner can reorder items")
	}
	n := len(c.state.Items)
	if sourceIndex < 0 || sourceIndex >= n || targetIndex < 0 || targetIndex >= n {
		c.mu.Unlock()
		return errors.ValidationError("reorder index out of range")
	}

	order := make([]string, n)
	for i, item := range c.state.Items {
		order[i] = item.ID
	}
	newOrder := spliceOrder(order, sourceIndex, targetIndex)

	c.state.Playlist.SortBy = models.SortByCustom
	// asc carries no meaning for custom order; kept for schema uniformity
	c.state.Playlist.SortOrder = models.SortAsc
	c.state.Playlist.CustomOrder = newOrder
	sortItems(c.state.Items, models.SortByCustom, models.SortAsc, newOrder)

	playlistID := c.state.Playlist.ID
	c.reorderInFlight = true
	c.mu.Unlock()

	c.background(func() {
		defer func() {
			c.mu.Lock()
			c.reorderInFlight = false
			c.mu.Unlock()
		}()

		if err := c.api.UpdateOrder(ctx, playlistID, newOrder); err != nil {
			c.log.Error("Failed to persist item order", err)
			c.notify.Notify("Failed to save the new item order")
			c.rollbackReload(ctx)
			return
		}

		// The order is on the server, so roll back to it rather than to
		// the pre-reorder arrangement if the mode persist fails.
		c.mu.Lock()
		c.acknowledgedSort = sortState{
			sortBy:      models.SortByCustom,
			sortOrder:   models.SortAsc,
			customOrder: newOrder,
		}
		c.mu.Unlock()

		if err := c.api.UpdateSort(ctx, playlistID, models.SortByCustom, models.SortAsc); err != nil {
			c.log.Error("Failed to persist custom sort mode", err)
			c.notify.Notify("Failed to save the new item order")
			c.rollbackReload(ctx)
		}
	})
	return nil
}

// Close stops the debounced sort persister and waits for background calls
func (c *Controller) Close() {
	c.mu.Lock()
	coord := c.sortCoord
	c.mu.Unlock()
	if coord != nil {
		coord.Close()
	}
	c.wg.Wait()
}
