package session

import (
	"context"
	"log/slog"

	"github.com/nwestbury/digitduel/internal/model"
)

// ListRooms returns summaries of every live room
func (c *Coordinator) ListRooms(ctx context.Context) ([]model.RoomSummary, error) {
	return c.storage.ListRooms(ctx)
}

// KillRoom force-deletes a room, its runtime bindings and its timers.
// Connected clients are told the room is gone.
func (c *Coordinator) KillRoom(ctx context.Context, roomID model.RoomID) error {
	unlock := c.lockRoom(roomID)
	defer unlock()

	exists, err := c.storage.RoomExists(ctx, roomID)
	if err != nil {
		return err
	}
	if !exists {
		return model.ErrRoomNotFound
	}

	c.broadcaster.ToRoom(roomID, model.EventRoomExpired, model.SystemPayload{
		Message: "Room closed by administrator.",
	})

	if err := c.storage.DeleteRoom(ctx, roomID); err != nil {
		return err
	}
	c.registry.ClearRoom(roomID)
	c.turnTimers.Cancel(roomID)
	c.inactivityTimers.Cancel(roomID)

	c.logger.Info("room killed", slog.String("room_id", string(roomID)))
	return nil
}

// ResetRoom returns a room to the lobby state on behalf of an operator
func (c *Coordinator) ResetRoom(ctx context.Context, roomID model.RoomID) error {
	unlock := c.lockRoom(roomID)
	defer unlock()

	if err := c.resetLocked(ctx, roomID); err != nil {
		return err
	}

	c.broadcaster.ToRoom(roomID, model.EventSystem, model.SystemPayload{
		Message: "Room was reset by an administrator.",
	})
	c.broadcastState(ctx, roomID)

	c.logger.Info("room reset", slog.String("room_id", string(roomID)))
	return nil
}

// Health reports storage reachability
func (c *Coordinator) Health(ctx context.Context) error {
	return c.storage.Ping(ctx)
}
