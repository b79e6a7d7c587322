package watchlist

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/watchdeck/watchdeck/internal/errors"
	"github.com/watchdeck/watchdeck/internal/models"
)

func itemIDs(items []Item) []string {
	ids := make([]string, len(items))
	for i, item := range items {
		ids[i] = item.ID
	}
	return ids
}

func fourItems() []Item {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	return []Item{
		movie("A", "A", base.Add(3*time.Hour)),
		movie("B", "B", base.Add(2*time.Hour)),
		movie("C", "C", base.Add(time.Hour)),
		movie("D", "D", base),
	}
}

func TestSpliceOrder(t *testing.T) {
	tests := []struct {
		name   string
		order  []string
		source int
		target int
		want   []string
	}{
		{"forward past own slot", []string{"A", "B", "C", "D"}, 0, 2, []string{"B", "C", "A", "D"}},
		{"backward", []string{"A", "B", "C", "D"}, 3, 0, []string{"D", "A", "B", "C"}},
		{"same position", []string{"A", "B", "C", "D"}, 1, 1, []string{"A", "B", "C", "D"}},
		{"to end", []string{"A", "B", "C", "D"}, 0, 3, []string{"B", "C", "D", "A"}},
		{"adjacent swap", []string{"A", "B"}, 0, 1, []string{"B", "A"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, spliceOrder(tt.order, tt.source, tt.target))
		})
	}
}

func TestReorder_AppliesSpliceAndSwitchesToCustom(t *testing.T) {
	api := &fakeAPI{}
	c := newTestController(api, nil)
	loadPlaylist(c, fourItems())

	require.NoError(t, c.Reorder(context.Background(), 0, 2))
	c.Wait()

	state := c.Snapshot()
	assert.Equal(t, []string{"B", "C", "A", "D"}, itemIDs(state.Items))
	assert.Equal(t, models.SortByCustom, state.Playlist.SortBy)
	assert.Equal(t, models.SortAsc, state.Playlist.SortOrder)
	assert.Equal(t, []string{"B", "C", "A", "D"}, state.Playlist.CustomOrder)
	assert.Equal(t, 1, api.callsTo("UpdateOrder"))
	assert.Equal(t, 1, api.callsTo("UpdateSort"))
}

func TestReorder_SingleFlight(t *testing.T) {
	api := &fakeAPI{orderGate: make(chan struct{})}
	c := newTestController(api, nil)
	loadPlaylist(c, fourItems())

	require.NoError(t, c.Reorder(context.Background(), 0, 2))

	// While the first persist is in flight, a second reorder is rejected
	// and leaves state untouched.
	err := c.Reorder(context.Background(), 1, 3)
	require.Error(t, err)
	assert.Equal(t, errors.CodeReorderInFlight, errors.GetErrorCode(err))

	close(api.orderGate)
	c.Wait()

	state := c.Snapshot()
	assert.Equal(t, []string{"B", "C", "A", "D"}, itemIDs(state.Items), "order must reflect only the first reorder")
	assert.Equal(t, 1, api.callsTo("UpdateOrder"))

	// After completion a new reorder is accepted again.
	api.orderGate = nil
	require.NoError(t, c.Reorder(context.Background(), 0, 1))
	c.Wait()
}

func TestReorder_LockGating(t *testing.T) {
	api := &fakeAPI{}
	c := newTestController(api, nil)
	loadPlaylist(c, fourItems(), func(m *Meta) { m.SortLocked = true })

	err := c.Reorder(context.Background(), 0, 2)
	require.Error(t, err)
	assert.Equal(t, errors.CodeSortLocked, errors.GetErrorCode(err))

	err = c.SetSort(models.SortByTitle, models.SortAsc)
	require.Error(t, err)
	assert.Equal(t, errors.CodeSortLocked, errors.GetErrorCode(err))

	c.Wait()
	assert.Zero(t, api.callsTo("UpdateOrder"), "locked reorder must not reach the network")
	assert.Zero(t, api.callsTo("UpdateSort"), "locked sort change must not reach the network")

	// Unlock, then the identical actions succeed.
	c.mu.Lock()
	c.state.Playlist.SortLocked = false
	c.mu.Unlock()

	require.NoError(t, c.Reorder(context.Background(), 0, 2))
	c.Wait()
	assert.Equal(t, 1, api.callsTo("UpdateOrder"))
}

func TestReorder_OwnershipRequired(t *testing.T) {
	api := &fakeAPI{}
	c := newTestController(api, nil)
	loadPlaylist(c, fourItems(), func(m *Meta) { m.IsOwner = false })

	err := c.Reorder(context.Background(), 0, 2)
	require.Error(t, err)
	assert.Equal(t, errors.CodePermissionDenied, errors.GetErrorCode(err))
	assert.Zero(t, api.callsTo("UpdateOrder"))
}

func TestReorder_IndexOutOfRange(t *testing.T) {
	api := &fakeAPI{}
	c := newTestController(api, nil)
	loadPlaylist(c, fourItems())

	assert.Error(t, c.Reorder(context.Background(), -1, 2))
	assert.Error(t, c.Reorder(context.Background(), 0, 4))
	assert.Zero(t, api.callsTo("UpdateOrder"))
}

func TestReorder_FailureReloads(t *testing.T) {
	api := &fakeAPI{
		orderErr:      errors.New(errors.CodeInternal, "boom"),
		reloadItems:   fourItems(),
		reloadSummary: Summary{Movies: 4},
	}
	notify := &recordingNotifier{}
	c := newTestController(api, notify)
	loadPlaylist(c, fourItems())

	require.NoError(t, c.Reorder(context.Background(), 0, 2))
	c.Wait()

	assert.Equal(t, 1, notify.count())
	assert.Equal(t, 1, api.callsTo("FetchItems"), "failed reorder must reload server truth")

	// The rejected arrangement is gone: items follow the server order
	// under the pre-reorder sort mode, not the attempted custom one.
	state := c.Snapshot()
	assert.Equal(t, []string{"A", "B", "C", "D"}, itemIDs(state.Items))
	assert.Equal(t, models.SortByDateAdded, state.Playlist.SortBy)
	assert.Equal(t, models.SortDesc, state.Playlist.SortOrder)
	assert.Empty(t, state.Playlist.CustomOrder)
}

func TestReorder_SortPersistFailureKeepsAcceptedOrder(t *testing.T) {
	// UpdateOrder succeeds, so the server holds the new arrangement;
	// the failing mode persist must not revert past it.
	api := &fakeAPI{
		sortErr:       errors.New(errors.CodeInternal, "boom"),
		reloadItems:   fourItems(),
		reloadSummary: Summary{Movies: 4},
	}
	c := newTestController(api, &recordingNotifier{})
	loadPlaylist(c, fourItems())

	require.NoError(t, c.Reorder(context.Background(), 0, 2))
	c.Wait()

	state := c.Snapshot()
	assert.Equal(t, []string{"B", "C", "A", "D"}, itemIDs(state.Items))
	assert.Equal(t, models.SortByCustom, state.Playlist.SortBy)
	assert.Equal(t, []string{"B", "C", "A", "D"}, state.Playlist.CustomOrder)
}

func TestSetSort_PersistsDebounced(t *testing.T) {
	api := &fakeAPI{}
	c := newTestController(api, nil)
	loadPlaylist(c, fourItems())
	defer c.Close()

	require.NoError(t, c.SetSort(models.SortByTitle, models.SortAsc))
	require.NoError(t, c.SetSort(models.SortByTitle, models.SortDesc))
	require.NoError(t, c.SetSort(models.SortByReleaseDate, models.SortAsc))

	deadline := time.After(2 * time.Second)
	for api.callsTo("UpdateSort") == 0 {
		select {
		case <-deadline:
			t.Fatal("timed out waiting for sort persist")
		case <-time.After(2 * time.Millisecond):
		}
	}
	time.Sleep(20 * time.Millisecond)

	assert.Equal(t, 1, api.callsTo("UpdateSort"), "rapid sort changes must coalesce")
	state := c.Snapshot()
	assert.Equal(t, models.SortByReleaseDate, state.Playlist.SortBy)
}

func TestSetSort_FailureRestoresAcknowledgedMode(t *testing.T) {
	api := &fakeAPI{
		sortErr:       errors.New(errors.CodeInternal, "boom"),
		reloadItems:   fourItems(),
		reloadSummary: Summary{Movies: 4},
	}
	notify := &recordingNotifier{}
	c := newTestController(api, notify)
	loadPlaylist(c, fourItems())
	defer c.Close()

	require.NoError(t, c.SetSort(models.SortByTitle, models.SortDesc))
	assert.Equal(t, []string{"D", "C", "B", "A"}, itemIDs(c.Snapshot().Items))

	// The rollback runs on the persister's goroutine; wait until local
	// state reverts to the last mode the server accepted.
	deadline := time.After(2 * time.Second)
	for {
		state := c.Snapshot()
		if state.Playlist.SortBy == models.SortByDateAdded &&
			assert.ObjectsAreEqual([]string{"A", "B", "C", "D"}, itemIDs(state.Items)) {
			break
		}
		select {
		case <-deadline:
			t.Fatalf("timed out waiting for rollback, state: %v %v", state.Playlist.SortBy, itemIDs(state.Items))
		case <-time.After(2 * time.Millisecond):
		}
	}

	state := c.Snapshot()
	assert.Equal(t, models.SortDesc, state.Playlist.SortOrder)
	assert.Equal(t, 1, api.callsTo("FetchItems"))
	assert.Equal(t, 1, notify.count())
}

func TestSetSort_LeavingCustomNeedsConfirmation(t *testing.T) {
	api := &fakeAPI{}
	confirmed := false
	c := NewController(ControllerConfig{
		API:                api,
		SortDebounce:       time.Millisecond,
		ConfirmLeaveCustom: func() bool { return confirmed },
	})
	loadPlaylist(c, fourItems(), func(m *Meta) {
		m.SortBy = models.SortByCustom
		m.SortOrder = models.SortAsc
		m.CustomOrder = []string{"D", "C", "B", "A"}
	})
	defer c.Close()

	// Declined: sort mode stays custom.
	require.NoError(t, c.SetSort(models.SortByTitle, models.SortAsc))
	assert.Equal(t, models.SortByCustom, c.Snapshot().Playlist.SortBy)

	confirmed = true
	require.NoError(t, c.SetSort(models.SortByTitle, models.SortAsc))
	state := c.Snapshot()
	assert.Equal(t, models.SortByTitle, state.Playlist.SortBy)
	assert.Empty(t, state.Playlist.CustomOrder, "leaving custom abandons the arrangement")
}

func TestSortItems_CustomOrder(t *testing.T) {
	items := fourItems()
	sortItems(items, models.SortByCustom, models.SortAsc, []string{"C", "A"})

	// Ordered IDs first, unknown IDs keep their relative position after.
	assert.Equal(t, []string{"C", "A", "B", "D"}, itemIDs(items))
}
