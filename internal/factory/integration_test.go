package factory

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/suite"

	"github.com/nwestbury/digitduel/internal/api"
	"github.com/nwestbury/digitduel/internal/api/middleware"
	"github.com/nwestbury/digitduel/internal/model"
	"github.com/nwestbury/digitduel/internal/services/auth"
	"github.com/nwestbury/digitduel/internal/testutil"
)

const integrationAdminKey = "integration-admin-key"

// envelope mirrors the WebSocket wire frame
type envelope struct {
	Event model.EventType `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

type IntegrationSuite struct {
	suite.Suite
	app    *TestApp
	server *httptest.Server
}

func TestIntegrationSuite(t *testing.T) {
	suite.Run(t, new(IntegrationSuite))
}

func (s *IntegrationSuite) SetupTest() {
	s.app = NewTestApp()

	authService, err := auth.New(
		auth.Config{AdminKey: integrationAdminKey},
		s.app.MockClock,
		testutil.NopLogger(),
	)
	s.Require().NoError(err)
	s.app.AuthService = authService

	router := api.NewRouter(api.RouterConfig{
		Logger:      testutil.NopLogger(),
		Coordinator: s.app.Coordinator,
		AuthService: s.app.AuthService,
		WSHandler:   s.app.WSHandler,
	})
	s.server = httptest.NewServer(router)
}

func (s *IntegrationSuite) TearDownTest() {
	s.server.Close()
	s.app.Shutdown()
}

func (s *IntegrationSuite) dial() *websocket.Conn {
	url := "ws" + strings.TrimPrefix(s.server.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	s.Require().NoError(err)
	s.T().Cleanup(func() { conn.Close() })
	return conn
}

func (s *IntegrationSuite) send(conn *websocket.Conn, event model.EventType, data any) {
	s.Require().NoError(conn.WriteJSON(map[string]any{"event": event, "data": data}))
}

// waitFor reads frames until the wanted event arrives, decoding its data
// into out when non-nil. Broadcasts for other events are skipped.
func (s *IntegrationSuite) waitFor(conn *websocket.Conn, want model.EventType, out any) {
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	for {
		var env envelope
		s.Require().NoError(conn.ReadJSON(&env))
		if env.Event != want {
			continue
		}
		if out != nil {
			s.Require().NoError(json.Unmarshal(env.Data, out))
		}
		return
	}
}

// setupRoom creates a room and joins both players, returning their
// connections, the room id and the slot tokens
func (s *IntegrationSuite) setupRoom() (*websocket.Conn, *websocket.Conn, model.RoomID, string, string) {
	s.app.MockRandom.QueueString("ROOM01", "token-one", "token-two")

	conn1 := s.dial()
	conn2 := s.dial()

	s.send(conn1, model.EventCreateRoom, nil)
	var created model.RoomCreatedPayload
	s.waitFor(conn1, model.EventRoomCreated, &created)

	s.send(conn1, model.EventJoinRoom, map[string]any{
		"room_id": created.RoomID, "player": 1, "name": "Alice",
	})
	var joined1 model.JoinedPayload
	s.waitFor(conn1, model.EventJoined, &joined1)

	s.send(conn2, model.EventJoinRoom, map[string]any{
		"room_id": created.RoomID, "player": 2, "name": "Bob",
	})
	var joined2 model.JoinedPayload
	s.waitFor(conn2, model.EventJoined, &joined2)

	return conn1, conn2, created.RoomID, joined1.Token, joined2.Token
}

func (s *IntegrationSuite) TestFullGameOverWebSockets() {
	conn1, conn2, roomID, _, _ := s.setupRoom()

	s.send(conn1, model.EventSetSecret, map[string]any{
		"room_id": roomID, "player": 1, "value": "4271",
	})
	s.waitFor(conn1, model.EventSecretAck, nil)

	s.send(conn2, model.EventSetSecret, map[string]any{
		"room_id": roomID, "player": 2, "value": "9305",
	})
	s.waitFor(conn2, model.EventSecretAck, nil)

	s.send(conn1, model.EventStartGame, map[string]any{"room_id": roomID})
	var started model.GameStartedPayload
	s.waitFor(conn2, model.EventGameStarted, &started)
	s.Equal(model.Slot1, started.CurrentTurn)

	// Player 1 misses, turn passes
	s.send(conn1, model.EventSubmitGuess, map[string]any{
		"room_id": roomID, "player": 1, "guess": "9999",
	})
	var result model.GuessResultPayload
	s.waitFor(conn2, model.EventGuessResult, &result)
	s.Equal("1 correct", result.Outcome)
	var turn model.TurnPayload
	s.waitFor(conn2, model.EventTurn, &turn)
	s.Equal(model.Slot2, turn.CurrentTurn)

	// Player 2 misses back
	s.send(conn2, model.EventSubmitGuess, map[string]any{
		"room_id": roomID, "player": 2, "guess": "4200",
	})
	s.waitFor(conn1, model.EventTurn, &turn)
	s.Equal(model.Slot1, turn.CurrentTurn)

	// Player 1 hits
	s.send(conn1, model.EventSubmitGuess, map[string]any{
		"room_id": roomID, "player": 1, "guess": "9305",
	})
	var over model.GameOverPayload
	s.waitFor(conn2, model.EventGameOver, &over)
	s.Equal(model.Slot1, over.Winner)
}

func (s *IntegrationSuite) TestOutOfTurnGuessRejectedToOriginOnly() {
	conn1, conn2, roomID, _, _ := s.setupRoom()

	s.send(conn1, model.EventSetSecret, map[string]any{
		"room_id": roomID, "player": 1, "value": "1234",
	})
	s.send(conn2, model.EventSetSecret, map[string]any{
		"room_id": roomID, "player": 2, "value": "5678",
	})
	s.waitFor(conn1, model.EventSecretAck, nil)
	s.waitFor(conn2, model.EventSecretAck, nil)
	s.send(conn1, model.EventStartGame, map[string]any{"room_id": roomID})
	s.waitFor(conn2, model.EventGameStarted, nil)

	s.send(conn2, model.EventSubmitGuess, map[string]any{
		"room_id": roomID, "player": 2, "guess": "1234",
	})
	var errPayload model.ErrorPayload
	s.waitFor(conn2, model.EventError, &errPayload)
	s.Equal("Not your turn.", errPayload.Message)
}

func (s *IntegrationSuite) TestReconnectionWithToken() {
	conn1, conn2, roomID, token1, _ := s.setupRoom()

	s.send(conn1, model.EventSetSecret, map[string]any{
		"room_id": roomID, "player": 1, "value": "1234",
	})
	s.send(conn2, model.EventSetSecret, map[string]any{
		"room_id": roomID, "player": 2, "value": "5678",
	})
	s.waitFor(conn1, model.EventSecretAck, nil)
	s.waitFor(conn2, model.EventSecretAck, nil)
	s.send(conn1, model.EventStartGame, map[string]any{"room_id": roomID})
	s.waitFor(conn1, model.EventGameStarted, nil)

	// Player 1 drops mid-game
	conn1.Close()
	s.waitFor(conn2, model.EventSystem, nil)

	// and resumes on a new connection using the token
	conn1b := s.dial()
	s.send(conn1b, model.EventJoinRoom, map[string]any{
		"room_id": roomID, "token": token1,
	})
	var rejoined model.JoinedPayload
	s.waitFor(conn1b, model.EventJoined, &rejoined)
	s.Equal(model.Slot1, rejoined.Player)
	s.Equal(token1, rejoined.Token)
	s.Equal("Alice", rejoined.PlayerName)

	// The resumed connection still holds the turn
	s.send(conn1b, model.EventSubmitGuess, map[string]any{
		"room_id": roomID, "player": 1, "guess": "5678",
	})
	var over model.GameOverPayload
	s.waitFor(conn1b, model.EventGameOver, &over)
	s.Equal(model.Slot1, over.Winner)
}

func (s *IntegrationSuite) TestNewGameAfterWin() {
	conn1, conn2, roomID, _, _ := s.setupRoom()

	s.send(conn1, model.EventSetSecret, map[string]any{
		"room_id": roomID, "player": 1, "value": "1234",
	})
	s.send(conn2, model.EventSetSecret, map[string]any{
		"room_id": roomID, "player": 2, "value": "5678",
	})
	s.waitFor(conn1, model.EventSecretAck, nil)
	s.waitFor(conn2, model.EventSecretAck, nil)
	s.send(conn1, model.EventStartGame, map[string]any{"room_id": roomID})
	s.waitFor(conn1, model.EventGameStarted, nil)

	s.send(conn1, model.EventSubmitGuess, map[string]any{
		"room_id": roomID, "player": 1, "guess": "5678",
	})
	s.waitFor(conn2, model.EventGameOver, nil)

	s.send(conn2, model.EventNewGame, map[string]any{"room_id": roomID})

	var snap model.Snapshot
	s.waitFor(conn1, model.EventState, &snap)
	s.False(snap.Started)
	s.False(snap.Readiness.P1Set)
	s.False(snap.Readiness.P2Set)
	// Names survive the reset
	s.Equal("Alice", snap.Names[model.Slot1])
}

func (s *IntegrationSuite) adminRequest(method, path string) *http.Response {
	req, err := http.NewRequest(method, s.server.URL+path, nil)
	s.Require().NoError(err)
	req.Header.Set(middleware.AdminKeyHeader, integrationAdminKey)
	resp, err := s.server.Client().Do(req)
	s.Require().NoError(err)
	return resp
}

func (s *IntegrationSuite) TestAdminKillNotifiesPlayers() {
	conn1, _, roomID, _, _ := s.setupRoom()

	resp := s.adminRequest(http.MethodDelete, "/api/v1/admin/rooms/"+string(roomID))
	resp.Body.Close()
	s.Equal(http.StatusNoContent, resp.StatusCode)

	var notice model.SystemPayload
	s.waitFor(conn1, model.EventRoomExpired, &notice)
	s.Equal("Room closed by administrator.", notice.Message)
}
