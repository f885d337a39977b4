package handler

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/nwestbury/digitduel/internal/api/apierr"
	"github.com/nwestbury/digitduel/internal/api/response"
	"github.com/nwestbury/digitduel/internal/model"
	"github.com/nwestbury/digitduel/internal/services/session"
)

// AdminHandler implements the operator room management endpoints
type AdminHandler struct {
	coord *session.Coordinator
}

// NewAdminHandler creates an admin handler
func NewAdminHandler(coord *session.Coordinator) *AdminHandler {
	return &AdminHandler{coord: coord}
}

// ListRooms returns summaries of every live room
func (h *AdminHandler) ListRooms(w http.ResponseWriter, r *http.Request) {
	summaries, err := h.coord.ListRooms(r.Context())
	if err != nil {
		apierr.WriteError(w, err)
		return
	}

	rooms := make([]response.RoomSummaryResponse, 0, len(summaries))
	for _, s := range summaries {
		rooms = append(rooms, response.RoomSummaryFromModel(s))
	}
	response.JSON(w, http.StatusOK, response.RoomListResponse{Rooms: rooms})
}

// GetRoom returns one room's public state
func (h *AdminHandler) GetRoom(w http.ResponseWriter, r *http.Request) {
	roomID := roomIDFromRequest(r)

	snap, err := h.coord.Snapshot(r.Context(), roomID)
	if err != nil {
		apierr.WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, response.RoomStateResponse{RoomID: roomID, State: snap})
}

// KillRoom force-deletes a room
func (h *AdminHandler) KillRoom(w http.ResponseWriter, r *http.Request) {
	roomID := roomIDFromRequest(r)

	if err := h.coord.KillRoom(r.Context(), roomID); err != nil {
		apierr.WriteError(w, err)
		return
	}
	response.NoContent(w)
}

// ResetRoom returns a room to the lobby state
func (h *AdminHandler) ResetRoom(w http.ResponseWriter, r *http.Request) {
	roomID := roomIDFromRequest(r)

	if err := h.coord.ResetRoom(r.Context(), roomID); err != nil {
		apierr.WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, response.MessageResponse{Message: "room reset"})
}

func roomIDFromRequest(r *http.Request) model.RoomID {
	return model.RoomID(mux.Vars(r)["room_id"])
}
