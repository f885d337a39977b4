// Package registry tracks which live connection currently represents which
// player slot, plus per-slot finished flags for the current game. It is a
// pure connection-routing cache: the durable store stays authoritative for
// everything else, and the registry never calls into it.
package registry

import (
	"sync"

	"github.com/nwestbury/digitduel/internal/model"
)

// ConnID identifies a live connection
type ConnID string

// Binding is the volatile per-room state
type Binding struct {
	// Conns maps slot -> connection, empty string when the slot has no
	// live connection
	Conns map[model.Slot]ConnID
	// Finished maps slot -> whether that slot won the current game
	Finished map[model.Slot]bool
}

// Unbound identifies a room/slot pair cleared by UnbindConn
type Unbound struct {
	RoomID model.RoomID
	Slot   model.Slot
}

// Registry is a thread-safe map from room id to live connection bindings.
// All operations serialize through a single registry-wide lock with O(1)-ish
// hold times; callers must not invoke store operations from within it.
type Registry struct {
	mu    sync.RWMutex
	rooms map[model.RoomID]*Binding
}

// New creates an empty registry
func New() *Registry {
	return &Registry{
		rooms: make(map[model.RoomID]*Binding),
	}
}

func newBinding() *Binding {
	return &Binding{
		Conns:    map[model.Slot]ConnID{model.Slot1: "", model.Slot2: ""},
		Finished: map[model.Slot]bool{model.Slot1: false, model.Slot2: false},
	}
}

// GetOrCreate returns the binding for a room, creating an empty one on
// first access
func (r *Registry) GetOrCreate(roomID model.RoomID) *Binding {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.getOrCreateLocked(roomID)
}

func (r *Registry) getOrCreateLocked(roomID model.RoomID) *Binding {
	b, ok := r.rooms[roomID]
	if !ok {
		b = newBinding()
		r.rooms[roomID] = b
	}
	return b
}

// BindSlot binds a connection to a slot
func (r *Registry) BindSlot(roomID model.RoomID, slot model.Slot, conn ConnID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.getOrCreateLocked(roomID).Conns[slot] = conn
}

// Connection returns the connection bound to a slot, empty when none
func (r *Registry) Connection(roomID model.RoomID, slot model.Slot) ConnID {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.rooms[roomID]
	if !ok {
		return ""
	}
	return b.Conns[slot]
}

// UnbindSlot clears a slot's binding only if it is held by the given
// connection. Returns true if the binding was cleared.
func (r *Registry) UnbindSlot(roomID model.RoomID, slot model.Slot, conn ConnID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.rooms[roomID]
	if !ok || b.Conns[slot] != conn {
		return false
	}
	b.Conns[slot] = ""
	return true
}

// UnbindConn scans all rooms and clears every slot bound to the given
// connection, returning the affected room/slot pairs
func (r *Registry) UnbindConn(conn ConnID) []Unbound {
	r.mu.Lock()
	defer r.mu.Unlock()

	var cleared []Unbound
	for roomID, b := range r.rooms {
		for slot, bound := range b.Conns {
			if bound == conn {
				b.Conns[slot] = ""
				cleared = append(cleared, Unbound{RoomID: roomID, Slot: slot})
			}
		}
	}
	return cleared
}

// SetFinished marks whether a slot has finished the current game
func (r *Registry) SetFinished(roomID model.RoomID, slot model.Slot, finished bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.getOrCreateLocked(roomID).Finished[slot] = finished
}

// ResetFinished clears both finished flags
func (r *Registry) ResetFinished(roomID model.RoomID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b := r.getOrCreateLocked(roomID)
	b.Finished[model.Slot1] = false
	b.Finished[model.Slot2] = false
}

// Finished returns a copy of the room's finished flags
func (r *Registry) Finished(roomID model.RoomID) map[model.Slot]bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	result := map[model.Slot]bool{model.Slot1: false, model.Slot2: false}
	if b, ok := r.rooms[roomID]; ok {
		for slot, f := range b.Finished {
			result[slot] = f
		}
	}
	return result
}

// ClearRoom drops the room's binding entirely
func (r *Registry) ClearRoom(roomID model.RoomID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.rooms, roomID)
}
