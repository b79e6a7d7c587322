// Package watchlist holds the client-side playlist model: an in-memory
// state mutated optimistically ahead of the authoritative server calls,
// reconciled by reloading server truth when a background call fails.
package watchlist

import (
	"context"
	"sort"
	"time"

	"github.com/watchdeck/watchdeck/internal/models"
)

// Item is a playlist entry as held in client state
type Item struct {
	ID          string
	MediaID     string
	TMDBID      int
	MediaType   models.MediaType
	Title       string
	ReleaseDate string // YYYY-MM-DD
	DateAdded   time.Time
	IsExternal  bool
}

// Meta is the client-side view of a playlist's own fields
type Meta struct {
	ID          string
	Name        string
	Description string
	Privacy     models.Privacy
	IsDefault   bool
	IsOwner     bool
	CanEdit     bool
	SortBy      models.SortBy
	SortOrder   models.SortOrder
	SortLocked  bool
	ItemCount   int
	CustomOrder []string
}

// Summary tracks per-media-type counts across the user's library
type Summary struct {
	Movies  int
	TVShows int
}

// State is the in-memory model owned by a Controller. It is mutated only
// through Controller methods.
type State struct {
	Playlist Meta
	Items    []Item
	Summary  Summary
}

// API is the authoritative server behind the optimistic layer
type API interface {
	AddItem(ctx context.Context, playlistID string, item Item) error
	RemoveItems(ctx context.Context, playlistID string, itemIDs []string) error
	MoveItems(ctx context.Context, sourceID, targetID string, itemIDs []string) error
	UpdateSort(ctx context.Context, playlistID string, sortBy models.SortBy, sortOrder models.SortOrder) error
	UpdateOrder(ctx context.Context, playlistID string, order []string) error
	FetchItems(ctx context.Context, playlistID string) ([]Item, Summary, error)
}

// Notifier surfaces user-facing messages for failed or rejected actions
type Notifier interface {
	Notify(message string)
}

// NotifierFunc adapts a function to the Notifier interface
type NotifierFunc func(message string)

// Notify implements Notifier
func (f NotifierFunc) Notify(message string) { f(message) }

// sortItems orders items according to the active sort mode. Custom order
// follows the explicit ID sequence; IDs missing from the sequence keep
// their relative position at the end.
func sortItems(items []Item, sortBy models.SortBy, sortOrder models.SortOrder, customOrder []string) {
	switch sortBy {
	case models.SortByCustom:
		pos := make(map[string]int, len(customOrder))
		for i, id := range customOrder {
			pos[id] = i
		}
		sort.SliceStable(items, func(i, j int) bool {
			pi, iOK := pos[items[i].ID]
			pj, jOK := pos[items[j].ID]
			if iOK && jOK {
				return pi < pj
			}
			return iOK && !jOK
		})
		return

	case models.SortByTitle:
		sort.SliceStable(items, func(i, j int) bool {
			if sortOrder == models.SortDesc {
				return items[i].Title > items[j].Title
			}
			return items[i].Title < items[j].Title
		})

	case models.SortByReleaseDate:
		sort.SliceStable(items, func(i, j int) bool {
			if sortOrder == models.SortDesc {
				return items[i].ReleaseDate > items[j].ReleaseDate
			}
			return items[i].ReleaseDate < items[j].ReleaseDate
		})

	default: // dateAdded
		sort.SliceStable(items, func(i, j int) bool {
			if sortOrder == models.SortDesc {
				return items[i].DateAdded.After(items[j].DateAdded)
			}
			return items[i].DateAdded.Before(items[j].DateAdded)
		})
	}
}

// spliceOrder removes the element at source and reinserts it at target in
// the already-shortened slice, matching array splice semantics.
func spliceOrder(order []string, source, target int) []string {
	out := make([]string, 0, len(order))
	out = append(out, order[:source]...)
	out = append(out, order[source+1:]...)

	if target > len(out) {
		target = len(out)
	}
	out = append(out, "")
	copy(out[target+1:], out[target:])
	out[target] = order[source]
	return out
}
