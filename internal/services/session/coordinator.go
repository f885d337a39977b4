// Package session implements the room lifecycle state machine. The
// Coordinator owns the ordering and atomicity contract between the durable
// store and the runtime registry: every read-then-write sequence for a room
// executes under that room's mutual-exclusion scope, and timer callbacks
// re-enter through the same entry points as client actions.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/nwestbury/digitduel/internal/dependencies/clock"
	"github.com/nwestbury/digitduel/internal/dependencies/random"
	"github.com/nwestbury/digitduel/internal/model"
	"github.com/nwestbury/digitduel/internal/registry"
	"github.com/nwestbury/digitduel/internal/services/rules"
	"github.com/nwestbury/digitduel/internal/storage"
	"github.com/nwestbury/digitduel/internal/timers"
)

const (
	// RoomCodeAlphabet is the character set for generated room codes
	RoomCodeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	// TokenAlphabet is the character set for reconnection tokens
	TokenAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"
)

// Broadcaster delivers outbound events. The transport layer implements it;
// the coordinator never sees connection internals.
type Broadcaster interface {
	// ToConn sends an event to a single connection
	ToConn(conn registry.ConnID, event model.EventType, payload any)
	// ToRoom sends an event to every connection subscribed to a room
	ToRoom(roomID model.RoomID, event model.EventType, payload any)
	// Subscribe adds a connection to a room's broadcast group
	Subscribe(conn registry.ConnID, roomID model.RoomID)
	// Unsubscribe removes a connection from a room's broadcast group
	Unsubscribe(conn registry.ConnID, roomID model.RoomID)
}

// Config holds coordinator tunables
type Config struct {
	RoomCodeLength    int
	TokenLength       int
	TurnTimeout       time.Duration
	InactivityTimeout time.Duration
}

// DefaultConfig returns the default coordinator configuration
func DefaultConfig() Config {
	return Config{
		RoomCodeLength:    6,
		TokenLength:       32,
		TurnTimeout:       60 * time.Second,
		InactivityTimeout: 30 * time.Minute,
	}
}

// Coordinator orchestrates store, registry, timers and broadcaster into the
// room state machine
type Coordinator struct {
	storage     storage.Storage
	registry    *registry.Registry
	clock       clock.Clock
	random      random.Random
	broadcaster Broadcaster
	logger      *slog.Logger
	cfg         Config

	turnTimers       *timers.Scheduler
	inactivityTimers *timers.Scheduler

	// Per-room mutual-exclusion scopes. Entries are small and bounded by
	// the number of rooms ever created in this process.
	locksMu sync.Mutex
	locks   map[model.RoomID]*sync.Mutex
}

// NewCoordinator creates a coordinator and its timer schedulers
func NewCoordinator(
	store storage.Storage,
	reg *registry.Registry,
	clk clock.Clock,
	rnd random.Random,
	broadcaster Broadcaster,
	logger *slog.Logger,
	cfg Config,
) *Coordinator {
	if cfg.RoomCodeLength == 0 {
		cfg.RoomCodeLength = DefaultConfig().RoomCodeLength
	}
	if cfg.TokenLength == 0 {
		cfg.TokenLength = DefaultConfig().TokenLength
	}

	c := &Coordinator{
		storage:     store,
		registry:    reg,
		clock:       clk,
		random:      rnd,
		broadcaster: broadcaster,
		logger:      logger,
		cfg:         cfg,
		locks:       make(map[model.RoomID]*sync.Mutex),
	}
	c.turnTimers = timers.NewScheduler(cfg.TurnTimeout, c.TurnTimeoutFired)
	c.inactivityTimers = timers.NewScheduler(cfg.InactivityTimeout, c.RoomInactivityFired)
	return c
}

// Shutdown cancels all outstanding timers
func (c *Coordinator) Shutdown() {
	c.turnTimers.Shutdown()
	c.inactivityTimers.Shutdown()
}

// lockRoom acquires the room's mutual-exclusion scope and returns its
// release function. Every operation that reads-then-writes store or
// registry state for a room runs inside this scope.
func (c *Coordinator) lockRoom(roomID model.RoomID) func() {
	c.locksMu.Lock()
	l, ok := c.locks[roomID]
	if !ok {
		l = &sync.Mutex{}
		c.locks[roomID] = l
	}
	c.locksMu.Unlock()

	l.Lock()
	return l.Unlock
}

// CreateRoom generates a fresh room, registers it and starts its
// inactivity timer. Returns the new room's code.
func (c *Coordinator) CreateRoom(ctx context.Context, conn registry.ConnID) (model.RoomID, error) {
	var roomID model.RoomID
	for {
		roomID = model.RoomID(c.random.String(c.cfg.RoomCodeLength, RoomCodeAlphabet))
		exists, err := c.storage.RoomExists(ctx, roomID)
		if err != nil {
			return "", err
		}
		if !exists {
			break
		}
	}

	now := c.clock.Now()
	room := &model.Room{
		ID:           roomID,
		Started:      false,
		CurrentTurn:  model.Slot1,
		CreatedAt:    now,
		LastActivity: now,
	}
	if err := c.storage.CreateRoom(ctx, room); err != nil {
		return "", err
	}

	c.registry.GetOrCreate(roomID)
	c.inactivityTimers.Schedule(roomID, model.Slot1)

	c.logger.Info("room created", slog.String("room_id", string(roomID)))
	c.broadcaster.ToConn(conn, model.EventRoomCreated, model.RoomCreatedPayload{RoomID: roomID})
	return roomID, nil
}

// JoinArgs carries a join_room request
type JoinArgs struct {
	RoomID      model.RoomID
	DesiredSlot model.Slot
	PlayerName  string
	Token       string
}

// Join claims a free slot or, when a known reconnection token is presented,
// rebinds the connection to its slot. The token path works regardless of
// the desired slot and also mid-game.
func (c *Coordinator) Join(ctx context.Context, conn registry.ConnID, args JoinArgs) error {
	unlock := c.lockRoom(args.RoomID)
	defer unlock()

	exists, err := c.storage.RoomExists(ctx, args.RoomID)
	if err != nil {
		return err
	}
	if !exists {
		return model.ErrRoomNotFound
	}

	now := c.clock.Now()

	// Reconnection path
	if args.Token != "" {
		ps, err := c.storage.FindSlotByToken(ctx, args.RoomID, args.Token)
		if err == nil {
			c.registry.BindSlot(args.RoomID, ps.Slot, conn)
			c.broadcaster.Subscribe(conn, args.RoomID)
			if err := c.storage.TouchPlayer(ctx, args.RoomID, ps.Slot, now); err != nil {
				return err
			}
			c.touchActivity(ctx, args.RoomID)

			c.logger.Info("player rejoined",
				slog.String("room_id", string(args.RoomID)),
				slog.Int("slot", int(ps.Slot)),
			)
			c.broadcaster.ToConn(conn, model.EventJoined, model.JoinedPayload{
				RoomID:     args.RoomID,
				Player:     ps.Slot,
				Token:      ps.Token,
				PlayerName: ps.DisplayName,
			})
			c.broadcaster.ToRoom(args.RoomID, model.EventSystem, model.SystemPayload{
				Message: fmt.Sprintf("Player %d rejoined.", ps.Slot),
			})
			c.broadcastState(ctx, args.RoomID)
			return nil
		}
		if !errors.Is(err, model.ErrTokenNotFound) {
			return err
		}
		// Unknown token: fall through to a fresh join
	}

	if !args.DesiredSlot.Valid() {
		return model.ErrInvalidSlot
	}

	name := args.PlayerName
	if name == "" {
		name = fmt.Sprintf("Player %d", args.DesiredSlot)
	}

	token := c.random.String(c.cfg.TokenLength, TokenAlphabet)
	ps := &model.PlayerSlot{
		RoomID:      args.RoomID,
		Slot:        args.DesiredSlot,
		DisplayName: name,
		Token:       token,
		LastSeen:    now,
	}
	if err := c.storage.BindPlayer(ctx, ps); err != nil {
		return err
	}

	c.registry.BindSlot(args.RoomID, args.DesiredSlot, conn)
	c.broadcaster.Subscribe(conn, args.RoomID)
	c.touchActivity(ctx, args.RoomID)

	c.logger.Info("player joined",
		slog.String("room_id", string(args.RoomID)),
		slog.Int("slot", int(args.DesiredSlot)),
	)
	c.broadcaster.ToConn(conn, model.EventJoined, model.JoinedPayload{
		RoomID:     args.RoomID,
		Player:     args.DesiredSlot,
		Token:      token,
		PlayerName: name,
	})
	c.broadcaster.ToRoom(args.RoomID, model.EventSystem, model.SystemPayload{
		Message: fmt.Sprintf("%s joined as player %d.", name, args.DesiredSlot),
	})
	c.broadcastState(ctx, args.RoomID)
	return nil
}

// SetSecret commits a slot's hidden number. Only allowed before the game
// starts, and only from the connection bound to the slot.
func (c *Coordinator) SetSecret(ctx context.Context, conn registry.ConnID, roomID model.RoomID, slot model.Slot, value string) error {
	if !rules.IsValidNumber(value) {
		return model.ErrInvalidFormat
	}

	unlock := c.lockRoom(roomID)
	defer unlock()

	if _, err := c.storage.GetRoom(ctx, roomID); err != nil {
		return err
	}
	if c.registry.Connection(roomID, slot) != conn {
		return model.ErrUnauthorized
	}

	if err := c.storage.SetSecret(ctx, roomID, slot, value); err != nil {
		return err
	}
	c.touchActivity(ctx, roomID)

	c.broadcaster.ToConn(conn, model.EventSecretAck, model.SecretAckPayload{Player: slot})
	c.broadcaster.ToRoom(roomID, model.EventSystem, model.SystemPayload{
		Message: fmt.Sprintf("Player %d has set their number.", slot),
	})
	c.broadcastState(ctx, roomID)
	return nil
}

// ResetSecret removes a slot's committed secret before the game starts.
// Resetting an unset secret is a no-op success.
func (c *Coordinator) ResetSecret(ctx context.Context, conn registry.ConnID, roomID model.RoomID, slot model.Slot) error {
	unlock := c.lockRoom(roomID)
	defer unlock()

	if _, err := c.storage.GetRoom(ctx, roomID); err != nil {
		return err
	}
	if c.registry.Connection(roomID, slot) != conn {
		return model.ErrUnauthorized
	}

	if err := c.storage.ClearSecret(ctx, roomID, slot); err != nil {
		return err
	}
	c.touchActivity(ctx, roomID)

	c.broadcaster.ToRoom(roomID, model.EventSystem, model.SystemPayload{
		Message: fmt.Sprintf("Player %d reset their number.", slot),
	})
	c.broadcastState(ctx, roomID)
	return nil
}

// StartGame begins the duel once both secrets are committed: slot 1 moves
// first and its turn timer starts.
func (c *Coordinator) StartGame(ctx context.Context, roomID model.RoomID) error {
	unlock := c.lockRoom(roomID)
	defer unlock()

	room, err := c.storage.GetRoom(ctx, roomID)
	if err != nil {
		return err
	}

	count, err := c.storage.CountSecrets(ctx, roomID)
	if err != nil {
		return err
	}
	if count < 2 {
		return model.ErrNotEnoughPlayers
	}

	now := c.clock.Now()
	room.Started = true
	room.CurrentTurn = model.Slot1
	room.TimerStartMs = now.UnixMilli()
	room.LastActivity = now
	if err := c.storage.SaveRoom(ctx, room); err != nil {
		return err
	}

	c.registry.ResetFinished(roomID)
	c.turnTimers.Schedule(roomID, model.Slot1)
	c.inactivityTimers.Schedule(roomID, model.Slot1)

	c.logger.Info("game started", slog.String("room_id", string(roomID)))
	c.broadcaster.ToRoom(roomID, model.EventGameStarted, model.GameStartedPayload{
		CurrentTurn:  model.Slot1,
		TimerStartMs: room.TimerStartMs,
	})
	c.broadcastState(ctx, roomID)
	return nil
}

// SubmitGuess evaluates a guess against the opponent's secret, appends it
// to the history and either ends the game or passes the turn.
func (c *Coordinator) SubmitGuess(ctx context.Context, conn registry.ConnID, roomID model.RoomID, slot model.Slot, guess string) error {
	unlock := c.lockRoom(roomID)
	defer unlock()

	room, err := c.storage.GetRoom(ctx, roomID)
	if err != nil {
		return err
	}
	if c.registry.Connection(roomID, slot) != conn {
		return model.ErrUnauthorized
	}
	if !rules.IsValidNumber(guess) {
		return model.ErrInvalidFormat
	}
	if !room.Started {
		return model.ErrNotStarted
	}
	if slot != room.CurrentTurn {
		return model.ErrNotYourTurn
	}

	opponent := slot.Opponent()
	secret, err := c.storage.GetSecret(ctx, roomID, opponent)
	if err != nil {
		if errors.Is(err, model.ErrSecretNotFound) {
			// Unreachable while the started invariant holds
			return model.ErrOpponentSecretMissing
		}
		return err
	}

	matches := rules.MatchCount(guess, secret)
	outcome := rules.Outcome(matches)
	now := c.clock.Now()

	if _, err := c.storage.AppendGuess(ctx, &model.GuessRecord{
		RoomID:    roomID,
		Slot:      slot,
		Guess:     guess,
		Outcome:   outcome,
		Timestamp: now,
	}); err != nil {
		return err
	}

	if matches == rules.DigitCount {
		c.registry.SetFinished(roomID, slot, true)
		room.Started = false
		room.LastActivity = now
		if err := c.storage.SaveRoom(ctx, room); err != nil {
			return err
		}
		// The running turn timer survives store failures above, so a
		// stuck Playing room can still time out.
		c.turnTimers.Cancel(roomID)
		c.inactivityTimers.Schedule(roomID, slot)

		c.logger.Info("game over",
			slog.String("room_id", string(roomID)),
			slog.Int("winner", int(slot)),
		)
		c.broadcaster.ToRoom(roomID, model.EventGuessResult, model.GuessResultPayload{
			Player: slot, Guess: guess, Outcome: outcome,
		})
		c.broadcaster.ToRoom(roomID, model.EventGameOver, model.GameOverPayload{
			Winner:  slot,
			Message: fmt.Sprintf("Player %d wins!", slot),
		})
		return nil
	}

	room.CurrentTurn = opponent
	room.TimerStartMs = now.UnixMilli()
	room.LastActivity = now
	if err := c.storage.SaveRoom(ctx, room); err != nil {
		return err
	}
	c.inactivityTimers.Schedule(roomID, slot)

	c.broadcaster.ToRoom(roomID, model.EventGuessResult, model.GuessResultPayload{
		Player: slot, Guess: guess, Outcome: outcome,
	})
	c.broadcaster.ToRoom(roomID, model.EventTurn, model.TurnPayload{CurrentTurn: opponent})
	c.broadcastState(ctx, roomID)
	c.turnTimers.Schedule(roomID, opponent)
	return nil
}

// NewGame resets the room to the lobby state: secrets and history cleared,
// finished flags and turn timer reset
func (c *Coordinator) NewGame(ctx context.Context, roomID model.RoomID) error {
	unlock := c.lockRoom(roomID)
	defer unlock()

	if err := c.resetLocked(ctx, roomID); err != nil {
		return err
	}

	c.broadcaster.ToRoom(roomID, model.EventSystem, model.SystemPayload{
		Message: "New game initialized. Set numbers to start.",
	})
	c.broadcastState(ctx, roomID)
	return nil
}

// resetLocked clears game data for a room. Caller holds the room scope.
func (c *Coordinator) resetLocked(ctx context.Context, roomID model.RoomID) error {
	if err := c.storage.ResetRoom(ctx, roomID); err != nil {
		return err
	}
	c.registry.ResetFinished(roomID)
	c.turnTimers.Cancel(roomID)
	c.touchActivity(ctx, roomID)
	return nil
}

// Leave unbinds the calling connection from a slot it holds. Durable state
// is untouched; the slot's token still allows reconnection.
func (c *Coordinator) Leave(ctx context.Context, conn registry.ConnID, roomID model.RoomID, slot model.Slot) {
	if !c.registry.UnbindSlot(roomID, slot, conn) {
		return
	}
	c.broadcaster.Unsubscribe(conn, roomID)
	c.broadcaster.ToRoom(roomID, model.EventSystem, model.SystemPayload{
		Message: fmt.Sprintf("Player %d left.", slot),
	})
	c.broadcastState(ctx, roomID)
}

// Disconnect clears every slot bound to a connection and notifies the
// affected rooms. Reconnection via token remains possible.
func (c *Coordinator) Disconnect(ctx context.Context, conn registry.ConnID) {
	for _, u := range c.registry.UnbindConn(conn) {
		c.logger.Info("player disconnected",
			slog.String("room_id", string(u.RoomID)),
			slog.Int("slot", int(u.Slot)),
		)
		c.broadcaster.ToRoom(u.RoomID, model.EventSystem, model.SystemPayload{
			Message: "A player disconnected.",
		})
		c.broadcastState(ctx, u.RoomID)
	}
}

// TurnTimeoutFired handles a turn timer expiring. It re-validates state
// under the room scope: a fire that lost a race with a guess or a reset is
// a no-op.
func (c *Coordinator) TurnTimeoutFired(roomID model.RoomID, slot model.Slot) {
	ctx := context.Background()

	unlock := c.lockRoom(roomID)
	defer unlock()

	room, err := c.storage.GetRoom(ctx, roomID)
	if err != nil || !room.Started || room.CurrentTurn != slot {
		// Stale fire
		return
	}

	next := slot.Opponent()
	now := c.clock.Now()
	room.CurrentTurn = next
	room.TimerStartMs = now.UnixMilli()
	if err := c.storage.SaveRoom(ctx, room); err != nil {
		c.logger.Error("turn timeout update failed",
			slog.String("room_id", string(roomID)),
			slog.String("error", err.Error()),
		)
		return
	}

	c.logger.Info("turn timed out",
		slog.String("room_id", string(roomID)),
		slog.Int("slot", int(slot)),
	)
	c.broadcaster.ToRoom(roomID, model.EventSystem, model.SystemPayload{
		Message: fmt.Sprintf("Player %d timed out.", slot),
	})
	c.broadcaster.ToRoom(roomID, model.EventTurn, model.TurnPayload{CurrentTurn: next})
	c.broadcastState(ctx, roomID)
	c.turnTimers.Schedule(roomID, next)
}

// RoomInactivityFired tears down a room that has seen no qualifying
// activity for the configured window
func (c *Coordinator) RoomInactivityFired(roomID model.RoomID, _ model.Slot) {
	ctx := context.Background()

	unlock := c.lockRoom(roomID)
	defer unlock()

	exists, err := c.storage.RoomExists(ctx, roomID)
	if err != nil || !exists {
		return
	}

	c.broadcaster.ToRoom(roomID, model.EventRoomExpired, model.SystemPayload{
		Message: "Room expired due to inactivity.",
	})

	if err := c.storage.DeleteRoom(ctx, roomID); err != nil {
		c.logger.Error("room expiry delete failed",
			slog.String("room_id", string(roomID)),
			slog.String("error", err.Error()),
		)
		return
	}
	c.registry.ClearRoom(roomID)
	c.turnTimers.Cancel(roomID)

	c.logger.Info("room expired", slog.String("room_id", string(roomID)))
}

// touchActivity records externally observable room activity and pushes the
// inactivity timer out. Caller holds the room scope.
func (c *Coordinator) touchActivity(ctx context.Context, roomID model.RoomID) {
	room, err := c.storage.GetRoom(ctx, roomID)
	if err != nil {
		c.logger.Warn("activity touch load failed",
			slog.String("room_id", string(roomID)),
			slog.String("error", err.Error()),
		)
	} else {
		room.LastActivity = c.clock.Now()
		if err := c.storage.SaveRoom(ctx, room); err != nil {
			c.logger.Warn("activity touch save failed",
				slog.String("room_id", string(roomID)),
				slog.String("error", err.Error()),
			)
		}
	}
	c.inactivityTimers.Schedule(roomID, model.Slot1)
}

// broadcastState sends the public snapshot to the room
func (c *Coordinator) broadcastState(ctx context.Context, roomID model.RoomID) {
	c.broadcaster.ToRoom(roomID, model.EventState, c.snapshot(ctx, roomID))
}
