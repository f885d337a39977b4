package session

import (
	"context"

	"github.com/nwestbury/digitduel/internal/model"
)

// snapshot assembles the public room view. Secrets never appear, only
// per-slot readiness flags. A room that vanished mid-build yields the zero
// snapshot rather than an error; state broadcasts are best-effort.
func (c *Coordinator) snapshot(ctx context.Context, roomID model.RoomID) model.Snapshot {
	snap := model.Snapshot{
		Finished: map[model.Slot]bool{model.Slot1: false, model.Slot2: false},
		History: map[model.Slot][]model.HistoryEntry{
			model.Slot1: {},
			model.Slot2: {},
		},
		Names: map[model.Slot]string{},
	}

	room, err := c.storage.GetRoom(ctx, roomID)
	if err != nil {
		return snap
	}
	snap.Started = room.Started
	snap.CurrentTurn = room.CurrentTurn
	snap.TimerStartMs = room.TimerStartMs

	for _, slot := range []model.Slot{model.Slot1, model.Slot2} {
		if _, err := c.storage.GetSecret(ctx, roomID, slot); err == nil {
			if slot == model.Slot1 {
				snap.Readiness.P1Set = true
			} else {
				snap.Readiness.P2Set = true
			}
		}
		if history, err := c.storage.ListHistory(ctx, roomID, slot); err == nil {
			entries := make([]model.HistoryEntry, 0, len(history))
			for _, rec := range history {
				entries = append(entries, model.HistoryEntry{
					Guess:   rec.Guess,
					Outcome: rec.Outcome,
				})
			}
			snap.History[slot] = entries
		}
	}

	if players, err := c.storage.GetPlayers(ctx, roomID); err == nil {
		for _, p := range players {
			snap.Names[p.Slot] = p.DisplayName
		}
	}

	for slot, finished := range c.registry.Finished(roomID) {
		snap.Finished[slot] = finished
	}
	return snap
}

// Snapshot returns the public view of a room
func (c *Coordinator) Snapshot(ctx context.Context, roomID model.RoomID) (model.Snapshot, error) {
	unlock := c.lockRoom(roomID)
	defer unlock()

	exists, err := c.storage.RoomExists(ctx, roomID)
	if err != nil {
		return model.Snapshot{}, err
	}
	if !exists {
		return model.Snapshot{}, model.ErrRoomNotFound
	}
	return c.snapshot(ctx, roomID), nil
}
