package model

// EventType identifies a wire event
type EventType string

// Inbound events (client -> server)
const (
	EventCreateRoom  EventType = "create_room"
	EventJoinRoom    EventType = "join_room"
	EventLeaveRoom   EventType = "leave_room"
	EventSetSecret   EventType = "set_secret"
	EventResetSecret EventType = "reset_secret"
	EventStartGame   EventType = "start_game"
	EventSubmitGuess EventType = "submit_guess"
	EventNewGame     EventType = "new_game"
)

// Outbound events (server -> client)
const (
	EventRoomCreated EventType = "room_created"
	EventJoined      EventType = "joined"
	EventSecretAck   EventType = "secret_ack"
	EventGameStarted EventType = "game_started"
	EventGuessResult EventType = "guess_result"
	EventTurn        EventType = "turn"
	EventGameOver    EventType = "game_over"
	EventState       EventType = "state"
	EventSystem      EventType = "system"
	EventError       EventType = "error"
	EventRoomExpired EventType = "room_expired"
)

// RoomCreatedPayload is sent to the creating connection
type RoomCreatedPayload struct {
	RoomID RoomID `json:"room_id"`
}

// JoinedPayload is sent to a connection that claimed or resumed a slot
type JoinedPayload struct {
	RoomID     RoomID `json:"room_id"`
	Player     Slot   `json:"player"`
	Token      string `json:"token"`
	PlayerName string `json:"player_name,omitempty"`
}

// SecretAckPayload acknowledges a committed secret to its owner
type SecretAckPayload struct {
	Player Slot `json:"player"`
}

// GameStartedPayload announces the start of a game to the room
type GameStartedPayload struct {
	CurrentTurn  Slot  `json:"current_turn"`
	TimerStartMs int64 `json:"timer_start_ms"`
}

// GuessResultPayload reports one guess and its outcome to the room
type GuessResultPayload struct {
	Player  Slot   `json:"player"`
	Guess   string `json:"guess"`
	Outcome string `json:"outcome"`
}

// TurnPayload announces whose turn it is
type TurnPayload struct {
	CurrentTurn Slot `json:"current_turn"`
}

// GameOverPayload announces the winner to the room
type GameOverPayload struct {
	Winner  Slot   `json:"winner"`
	Message string `json:"message"`
}

// SystemPayload carries a human-readable notice
type SystemPayload struct {
	Message string `json:"message"`
}

// ErrorPayload carries a user-facing failure, sent only to the
// originating connection
type ErrorPayload struct {
	Message string `json:"message"`
}

// HistoryEntry is one guess in the public snapshot
type HistoryEntry struct {
	Guess   string `json:"guess"`
	Outcome string `json:"outcome"`
}

// Readiness reports which slots have committed a secret
type Readiness struct {
	P1Set bool `json:"p1_set"`
	P2Set bool `json:"p2_set"`
}

// Snapshot is the broadcastable view of room state. It never includes
// secret values.
type Snapshot struct {
	Started      bool                    `json:"started"`
	CurrentTurn  Slot                    `json:"current_turn"`
	Finished     map[Slot]bool           `json:"finished"`
	History      map[Slot][]HistoryEntry `json:"history"`
	Readiness    Readiness               `json:"readiness"`
	Names        map[Slot]string         `json:"names"`
	TimerStartMs int64                   `json:"timer_start_ms"`
}
