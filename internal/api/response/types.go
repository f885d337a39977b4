// Package response defines the JSON bodies of the HTTP API
package response

import (
	"time"

	"github.com/nwestbury/digitduel/internal/model"
)

// HealthResponse reports service health
type HealthResponse struct {
	Status string `json:"status"`
}

// RoomPlayerResponse is one claimed slot in an admin room view. Tokens are
// credentials and never leave the server.
type RoomPlayerResponse struct {
	Slot     model.Slot `json:"slot"`
	Name     string     `json:"name"`
	LastSeen time.Time  `json:"last_seen"`
}

// RoomSummaryResponse is one room in the admin room list
type RoomSummaryResponse struct {
	RoomID      model.RoomID         `json:"room_id"`
	State       string               `json:"state"`
	CurrentTurn model.Slot           `json:"current_turn"`
	CreatedAt   time.Time            `json:"created_at"`
	SecretsSet  int                  `json:"secrets_set"`
	GuessCount  int                  `json:"guess_count"`
	Players     []RoomPlayerResponse `json:"players"`
}

// RoomListResponse is the admin room list
type RoomListResponse struct {
	Rooms []RoomSummaryResponse `json:"rooms"`
}

// RoomStateResponse is the admin view of one room's public state
type RoomStateResponse struct {
	RoomID model.RoomID   `json:"room_id"`
	State  model.Snapshot `json:"state"`
}

// MessageResponse is a simple acknowledgement body
type MessageResponse struct {
	Message string `json:"message"`
}

// RoomSummaryFromModel converts a room summary to its response shape
func RoomSummaryFromModel(s model.RoomSummary) RoomSummaryResponse {
	state := string(model.RoomStateLobby)
	if s.Started {
		state = string(model.RoomStatePlaying)
	}

	players := make([]RoomPlayerResponse, 0, len(s.Players))
	for _, p := range s.Players {
		players = append(players, RoomPlayerResponse{
			Slot:     p.Slot,
			Name:     p.DisplayName,
			LastSeen: p.LastSeen,
		})
	}

	return RoomSummaryResponse{
		RoomID:      s.ID,
		State:       state,
		CurrentTurn: s.CurrentTurn,
		CreatedAt:   s.CreatedAt,
		SecretsSet:  s.SecretsSet,
		GuessCount:  s.GuessCount,
		Players:     players,
	}
}
