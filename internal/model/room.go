package model

import "time"

// RoomID is a human-readable identifier for joining rooms
type RoomID string

// Slot is one of the two fixed player positions within a room
type Slot int

const (
	Slot1 Slot = 1
	Slot2 Slot = 2
)

// Valid reports whether the slot is one of the two playable positions
func (s Slot) Valid() bool {
	return s == Slot1 || s == Slot2
}

// Opponent returns the other slot
func (s Slot) Opponent() Slot {
	if s == Slot1 {
		return Slot2
	}
	return Slot1
}

// RoomState represents the current phase of a room
type RoomState string

const (
	RoomStateLobby   RoomState = "lobby"   // Waiting for secrets
	RoomStatePlaying RoomState = "playing" // Game in progress, turns alternating
)

// Room holds the durable metadata for one two-player session
type Room struct {
	ID          RoomID
	Started     bool
	CurrentTurn Slot
	// TimerStartMs is the unix-millisecond timestamp of the current turn's
	// start, 0 when no game is running. Clients compute remaining time from
	// this plus the configured turn duration.
	TimerStartMs int64
	CreatedAt    time.Time
	LastActivity time.Time
}

// State derives the room phase from the started flag
func (r *Room) State() RoomState {
	if r.Started {
		return RoomStatePlaying
	}
	return RoomStateLobby
}

// PlayerSlot is a claimed position in a room. The token is the sole
// credential for rebinding a new connection to the slot.
type PlayerSlot struct {
	RoomID      RoomID
	Slot        Slot
	DisplayName string
	Token       string
	LastSeen    time.Time
}

// GuessRecord is one entry in a slot's append-only guess history.
// Index is 1-based and monotonic per room+slot.
type GuessRecord struct {
	RoomID    RoomID
	Slot      Slot
	Index     int
	Guess     string
	Outcome   string
	Timestamp time.Time
}

// RoomSummary is the aggregate view of a room for the admin surface
type RoomSummary struct {
	ID          RoomID
	Started     bool
	CurrentTurn Slot
	CreatedAt   time.Time
	SecretsSet  int
	GuessCount  int
	Players     []PlayerSlot
}
