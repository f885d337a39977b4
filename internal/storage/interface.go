package storage

import (
	"context"
	"time"

	"github.com/nwestbury/digitduel/internal/model"
)

// Storage defines the interface for durable session state. Each operation is
// individually atomic; multi-operation sequences rely on the coordinator's
// per-room scope for cross-operation atomicity.
type Storage interface {
	// Room operations
	CreateRoom(ctx context.Context, room *model.Room) error
	GetRoom(ctx context.Context, id model.RoomID) (*model.Room, error)
	SaveRoom(ctx context.Context, room *model.Room) error
	RoomExists(ctx context.Context, id model.RoomID) (bool, error)
	// DeleteRoom removes the room and cascades to players, secrets and history
	DeleteRoom(ctx context.Context, id model.RoomID) error
	// ResetRoom clears secrets and history and resets the started/turn/timer
	// fields, keeping the room and its player slots
	ResetRoom(ctx context.Context, id model.RoomID) error
	// ListRooms returns aggregate summaries for the admin surface
	ListRooms(ctx context.Context) ([]model.RoomSummary, error)

	// Player slot operations
	// BindPlayer claims a slot, failing with model.ErrSlotTaken if the slot
	// already has a token
	BindPlayer(ctx context.Context, ps *model.PlayerSlot) error
	FindSlotByToken(ctx context.Context, id model.RoomID, token string) (*model.PlayerSlot, error)
	GetPlayers(ctx context.Context, id model.RoomID) ([]model.PlayerSlot, error)
	TouchPlayer(ctx context.Context, id model.RoomID, slot model.Slot, seen time.Time) error

	// Secret operations. SetSecret and ClearSecret fail with
	// model.ErrGameAlreadyStarted once the room's started flag is set.
	SetSecret(ctx context.Context, id model.RoomID, slot model.Slot, value string) error
	ClearSecret(ctx context.Context, id model.RoomID, slot model.Slot) error
	GetSecret(ctx context.Context, id model.RoomID, slot model.Slot) (string, error)
	CountSecrets(ctx context.Context, id model.RoomID) (int, error)

	// History operations. AppendGuess assigns the next monotonic index;
	// the caller holds the room scope so index assignment cannot race.
	AppendGuess(ctx context.Context, rec *model.GuessRecord) (int, error)
	ListHistory(ctx context.Context, id model.RoomID, slot model.Slot) ([]model.GuessRecord, error)

	// Ping verifies the backing store is reachable
	Ping(ctx context.Context) error
}
