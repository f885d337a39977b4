package ws

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/nwestbury/digitduel/internal/model"
	"github.com/nwestbury/digitduel/internal/registry"
	"github.com/nwestbury/digitduel/internal/services/rules"
	"github.com/nwestbury/digitduel/internal/services/session"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Game clients connect from arbitrary origins
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Handler upgrades connections and dispatches game events
type Handler struct {
	hub    *Hub
	coord  *session.Coordinator
	logger *slog.Logger
}

// NewHandler creates a WebSocket handler
func NewHandler(hub *Hub, coord *session.Coordinator, logger *slog.Logger) *Handler {
	return &Handler{hub: hub, coord: coord, logger: logger}
}

// joinRequest is the inbound join_room payload
type joinRequest struct {
	RoomID model.RoomID `json:"room_id"`
	Player model.Slot   `json:"player"`
	Name   string       `json:"name"`
	Token  string       `json:"token"`
}

// slotRequest covers inbound events addressed to a room and slot
type slotRequest struct {
	RoomID model.RoomID `json:"room_id"`
	Player model.Slot   `json:"player"`
	Value  string       `json:"value"`
	Guess  string       `json:"guess"`
}

// roomRequest covers inbound events addressed to a whole room
type roomRequest struct {
	RoomID model.RoomID `json:"room_id"`
}

// ServeHTTP upgrades the request and runs the connection until the peer
// disconnects
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", slog.String("error", err.Error()))
		return
	}

	connID := registry.ConnID(uuid.NewString())
	client := newClient(connID, conn, h.logger)
	h.hub.register(client)
	go client.writePump()

	h.logger.Info("websocket connected", slog.String("conn_id", string(connID)))

	client.readLoop(func(raw []byte) {
		h.dispatch(r.Context(), connID, raw)
	})

	h.coord.Disconnect(context.Background(), connID)
	h.hub.unregister(client)
	client.close()
	h.logger.Info("websocket disconnected", slog.String("conn_id", string(connID)))
}

// dispatch decodes one inbound frame and invokes the matching coordinator
// operation. Failures go back to the originating connection only.
func (h *Handler) dispatch(ctx context.Context, conn registry.ConnID, raw []byte) {
	var env struct {
		Event model.EventType `json:"event"`
		Data  json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(raw, &env); err != nil {
		h.sendError(conn, "Malformed message.")
		return
	}

	var err error
	switch env.Event {
	case model.EventCreateRoom:
		_, err = h.coord.CreateRoom(ctx, conn)

	case model.EventJoinRoom:
		var req joinRequest
		if err = json.Unmarshal(env.Data, &req); err == nil {
			err = h.coord.Join(ctx, conn, session.JoinArgs{
				RoomID:      req.RoomID,
				DesiredSlot: req.Player,
				PlayerName:  req.Name,
				Token:       req.Token,
			})
		}

	case model.EventLeaveRoom:
		var req slotRequest
		if err = json.Unmarshal(env.Data, &req); err == nil {
			h.coord.Leave(ctx, conn, req.RoomID, req.Player)
		}

	case model.EventSetSecret:
		var req slotRequest
		if err = json.Unmarshal(env.Data, &req); err == nil {
			err = h.coord.SetSecret(ctx, conn, req.RoomID, req.Player, req.Value)
		}

	case model.EventResetSecret:
		var req slotRequest
		if err = json.Unmarshal(env.Data, &req); err == nil {
			err = h.coord.ResetSecret(ctx, conn, req.RoomID, req.Player)
		}

	case model.EventStartGame:
		var req roomRequest
		if err = json.Unmarshal(env.Data, &req); err == nil {
			err = h.coord.StartGame(ctx, req.RoomID)
		}

	case model.EventSubmitGuess:
		var req slotRequest
		if err = json.Unmarshal(env.Data, &req); err == nil {
			err = h.coord.SubmitGuess(ctx, conn, req.RoomID, req.Player, req.Guess)
		}

	case model.EventNewGame:
		var req roomRequest
		if err = json.Unmarshal(env.Data, &req); err == nil {
			err = h.coord.NewGame(ctx, req.RoomID)
		}

	default:
		h.sendError(conn, fmt.Sprintf("Unknown event %q.", env.Event))
		return
	}

	if err != nil {
		h.logger.Debug("event rejected",
			slog.String("conn_id", string(conn)),
			slog.String("event", string(env.Event)),
			slog.String("error", err.Error()),
		)
		h.sendError(conn, userMessage(err))
	}
}

func (h *Handler) sendError(conn registry.ConnID, message string) {
	h.hub.ToConn(conn, model.EventError, model.ErrorPayload{Message: message})
}

// userMessage maps domain errors to the user-facing texts clients display
func userMessage(err error) string {
	switch {
	case errors.Is(err, model.ErrRoomNotFound):
		return "Room not found."
	case errors.Is(err, model.ErrInvalidSlot):
		return "Invalid player slot."
	case errors.Is(err, model.ErrSlotTaken):
		return "That player slot is already taken."
	case errors.Is(err, model.ErrGameAlreadyStarted):
		return "Game already started."
	case errors.Is(err, model.ErrNotStarted):
		return "Game has not started."
	case errors.Is(err, model.ErrNotEnoughPlayers):
		return "Both players must set their numbers first."
	case errors.Is(err, model.ErrNotYourTurn):
		return "Not your turn."
	case errors.Is(err, model.ErrInvalidFormat):
		return fmt.Sprintf("Number must be %d digits between %d and %d.",
			rules.DigitCount, rules.MinSecret, rules.MaxSecret)
	case errors.Is(err, model.ErrUnauthorized):
		return "You do not control that player slot."
	case errors.Is(err, model.ErrOpponentSecretMissing):
		return "Opponent has not set their number."
	default:
		return "Something went wrong. Please try again."
	}
}
