package redis

import (
	"fmt"

	"github.com/nwestbury/digitduel/internal/model"
)

// Key prefix for all game-related data
const keyPrefix = "digitduel"

// roomKey returns the Redis key for a Room's metadata
func roomKey(id model.RoomID) string {
	return fmt.Sprintf("%s:room:%s", keyPrefix, id)
}

// playersKey returns the Redis key for a room's slot -> PlayerSlot hash
func playersKey(id model.RoomID) string {
	return fmt.Sprintf("%s:players:%s", keyPrefix, id)
}

// secretsKey returns the Redis key for a room's slot -> secret hash
func secretsKey(id model.RoomID) string {
	return fmt.Sprintf("%s:secrets:%s", keyPrefix, id)
}

// historyKey returns the Redis key for a slot's guess history list
func historyKey(id model.RoomID, slot model.Slot) string {
	return fmt.Sprintf("%s:history:%s:%d", keyPrefix, id, slot)
}

// roomsIndexKey returns the Redis key for the SET of known room ids
func roomsIndexKey() string {
	return fmt.Sprintf("%s:idx:rooms", keyPrefix)
}

// slotField is the hash field name for a slot
func slotField(slot model.Slot) string {
	return fmt.Sprintf("%d", slot)
}
