package registry

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nwestbury/digitduel/internal/model"
)

func TestGetOrCreateStartsEmpty(t *testing.T) {
	r := New()

	b := r.GetOrCreate("ROOM01")
	assert.Equal(t, ConnID(""), b.Conns[model.Slot1])
	assert.Equal(t, ConnID(""), b.Conns[model.Slot2])
	assert.False(t, b.Finished[model.Slot1])
	assert.False(t, b.Finished[model.Slot2])
}

func TestBindAndLookup(t *testing.T) {
	r := New()

	r.BindSlot("ROOM01", model.Slot1, "conn-a")
	assert.Equal(t, ConnID("conn-a"), r.Connection("ROOM01", model.Slot1))
	assert.Equal(t, ConnID(""), r.Connection("ROOM01", model.Slot2))
	assert.Equal(t, ConnID(""), r.Connection("OTHER", model.Slot1))
}

func TestUnbindSlotOnlyForOwner(t *testing.T) {
	r := New()
	r.BindSlot("ROOM01", model.Slot1, "conn-a")

	// A different connection cannot clear the binding
	assert.False(t, r.UnbindSlot("ROOM01", model.Slot1, "conn-b"))
	assert.Equal(t, ConnID("conn-a"), r.Connection("ROOM01", model.Slot1))

	assert.True(t, r.UnbindSlot("ROOM01", model.Slot1, "conn-a"))
	assert.Equal(t, ConnID(""), r.Connection("ROOM01", model.Slot1))
}

func TestUnbindConnScansAllRooms(t *testing.T) {
	r := New()
	r.BindSlot("ROOM01", model.Slot1, "conn-a")
	r.BindSlot("ROOM02", model.Slot2, "conn-a")
	r.BindSlot("ROOM02", model.Slot1, "conn-b")

	cleared := r.UnbindConn("conn-a")
	require.Len(t, cleared, 2)

	seen := make(map[model.RoomID]model.Slot)
	for _, u := range cleared {
		seen[u.RoomID] = u.Slot
	}
	assert.Equal(t, model.Slot1, seen["ROOM01"])
	assert.Equal(t, model.Slot2, seen["ROOM02"])

	// Unrelated binding untouched
	assert.Equal(t, ConnID("conn-b"), r.Connection("ROOM02", model.Slot1))
	// Idempotent
	assert.Empty(t, r.UnbindConn("conn-a"))
}

func TestFinishedFlags(t *testing.T) {
	r := New()

	r.SetFinished("ROOM01", model.Slot2, true)
	flags := r.Finished("ROOM01")
	assert.False(t, flags[model.Slot1])
	assert.True(t, flags[model.Slot2])

	r.ResetFinished("ROOM01")
	flags = r.Finished("ROOM01")
	assert.False(t, flags[model.Slot2])

	// Unknown room reads as all-false
	flags = r.Finished("NOPE")
	assert.False(t, flags[model.Slot1])
}

func TestClearRoom(t *testing.T) {
	r := New()
	r.BindSlot("ROOM01", model.Slot1, "conn-a")
	r.SetFinished("ROOM01", model.Slot1, true)

	r.ClearRoom("ROOM01")

	assert.Equal(t, ConnID(""), r.Connection("ROOM01", model.Slot1))
	assert.False(t, r.Finished("ROOM01")[model.Slot1])
}

func TestConcurrentAccess(t *testing.T) {
	r := New()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			roomID := model.RoomID("ROOM01")
			if n%2 == 0 {
				r.BindSlot(roomID, model.Slot1, "conn-a")
				r.Connection(roomID, model.Slot1)
				r.SetFinished(roomID, model.Slot1, true)
			} else {
				r.UnbindConn("conn-a")
				r.Finished(roomID)
				r.ResetFinished(roomID)
			}
		}(i)
	}
	wg.Wait()
}
