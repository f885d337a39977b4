package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/nwestbury/digitduel/internal/model"
	"github.com/nwestbury/digitduel/internal/storage"
)

// Storage is an in-memory implementation of the storage interface
type Storage struct {
	mu sync.RWMutex

	rooms   map[model.RoomID]*model.Room
	players map[slotKey]*model.PlayerSlot
	secrets map[slotKey]string
	history map[slotKey][]model.GuessRecord
}

type slotKey struct {
	roomID model.RoomID
	slot   model.Slot
}

// New creates a new in-memory storage instance
func New() *Storage {
	return &Storage{
		rooms:   make(map[model.RoomID]*model.Room),
		players: make(map[slotKey]*model.PlayerSlot),
		secrets: make(map[slotKey]string),
		history: make(map[slotKey][]model.GuessRecord),
	}
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// Room operations

func (s *Storage) CreateRoom(ctx context.Context, room *model.Room) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *room
	s.rooms[room.ID] = &cp
	return nil
}

func (s *Storage) GetRoom(ctx context.Context, id model.RoomID) (*model.Room, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	room, ok := s.rooms[id]
	if !ok {
		return nil, model.ErrRoomNotFound
	}
	cp := *room
	return &cp, nil
}

func (s *Storage) SaveRoom(ctx context.Context, room *model.Room) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rooms[room.ID]; !ok {
		return model.ErrRoomNotFound
	}
	cp := *room
	s.rooms[room.ID] = &cp
	return nil
}

func (s *Storage) RoomExists(ctx context.Context, id model.RoomID) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.rooms[id]
	return ok, nil
}

func (s *Storage) DeleteRoom(ctx context.Context, id model.RoomID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.rooms, id)
	for key := range s.players {
		if key.roomID == id {
			delete(s.players, key)
		}
	}
	for key := range s.secrets {
		if key.roomID == id {
			delete(s.secrets, key)
		}
	}
	for key := range s.history {
		if key.roomID == id {
			delete(s.history, key)
		}
	}
	return nil
}

func (s *Storage) ResetRoom(ctx context.Context, id model.RoomID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	room, ok := s.rooms[id]
	if !ok {
		return model.ErrRoomNotFound
	}
	for key := range s.secrets {
		if key.roomID == id {
			delete(s.secrets, key)
		}
	}
	for key := range s.history {
		if key.roomID == id {
			delete(s.history, key)
		}
	}
	room.Started = false
	room.CurrentTurn = model.Slot1
	room.TimerStartMs = 0
	return nil
}

func (s *Storage) ListRooms(ctx context.Context) ([]model.RoomSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	summaries := make([]model.RoomSummary, 0, len(s.rooms))
	for id, room := range s.rooms {
		summary := model.RoomSummary{
			ID:          id,
			Started:     room.Started,
			CurrentTurn: room.CurrentTurn,
			CreatedAt:   room.CreatedAt,
		}
		for key := range s.secrets {
			if key.roomID == id {
				summary.SecretsSet++
			}
		}
		for key, recs := range s.history {
			if key.roomID == id {
				summary.GuessCount += len(recs)
			}
		}
		for key, ps := range s.players {
			if key.roomID == id {
				summary.Players = append(summary.Players, *ps)
			}
		}
		sort.Slice(summary.Players, func(i, j int) bool {
			return summary.Players[i].Slot < summary.Players[j].Slot
		})
		summaries = append(summaries, summary)
	}
	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].CreatedAt.After(summaries[j].CreatedAt)
	})
	return summaries, nil
}

// Player slot operations

func (s *Storage) BindPlayer(ctx context.Context, ps *model.PlayerSlot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rooms[ps.RoomID]; !ok {
		return model.ErrRoomNotFound
	}
	key := slotKey{roomID: ps.RoomID, slot: ps.Slot}
	if _, ok := s.players[key]; ok {
		return model.ErrSlotTaken
	}
	cp := *ps
	s.players[key] = &cp
	return nil
}

func (s *Storage) FindSlotByToken(ctx context.Context, id model.RoomID, token string) (*model.PlayerSlot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for key, ps := range s.players {
		if key.roomID == id && ps.Token == token {
			cp := *ps
			return &cp, nil
		}
	}
	return nil, model.ErrTokenNotFound
}

func (s *Storage) GetPlayers(ctx context.Context, id model.RoomID) ([]model.PlayerSlot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var players []model.PlayerSlot
	for key, ps := range s.players {
		if key.roomID == id {
			players = append(players, *ps)
		}
	}
	sort.Slice(players, func(i, j int) bool { return players[i].Slot < players[j].Slot })
	return players, nil
}

func (s *Storage) TouchPlayer(ctx context.Context, id model.RoomID, slot model.Slot, seen time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	ps, ok := s.players[slotKey{roomID: id, slot: slot}]
	if !ok {
		return model.ErrSlotNotFound
	}
	ps.LastSeen = seen
	return nil
}

// Secret operations

func (s *Storage) SetSecret(ctx context.Context, id model.RoomID, slot model.Slot, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	room, ok := s.rooms[id]
	if !ok {
		return model.ErrRoomNotFound
	}
	if room.Started {
		return model.ErrGameAlreadyStarted
	}
	s.secrets[slotKey{roomID: id, slot: slot}] = value
	return nil
}

func (s *Storage) ClearSecret(ctx context.Context, id model.RoomID, slot model.Slot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	room, ok := s.rooms[id]
	if !ok {
		return model.ErrRoomNotFound
	}
	if room.Started {
		return model.ErrGameAlreadyStarted
	}
	delete(s.secrets, slotKey{roomID: id, slot: slot})
	return nil
}

func (s *Storage) GetSecret(ctx context.Context, id model.RoomID, slot model.Slot) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	secret, ok := s.secrets[slotKey{roomID: id, slot: slot}]
	if !ok {
		return "", model.ErrSecretNotFound
	}
	return secret, nil
}

func (s *Storage) CountSecrets(ctx context.Context, id model.RoomID) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	count := 0
	for key := range s.secrets {
		if key.roomID == id {
			count++
		}
	}
	return count, nil
}

// History operations

func (s *Storage) AppendGuess(ctx context.Context, rec *model.GuessRecord) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rooms[rec.RoomID]; !ok {
		return 0, model.ErrRoomNotFound
	}
	key := slotKey{roomID: rec.RoomID, slot: rec.Slot}
	cp := *rec
	cp.Index = len(s.history[key]) + 1
	s.history[key] = append(s.history[key], cp)
	return cp.Index, nil
}

func (s *Storage) ListHistory(ctx context.Context, id model.RoomID, slot model.Slot) ([]model.GuessRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	recs := s.history[slotKey{roomID: id, slot: slot}]
	result := make([]model.GuessRecord, len(recs))
	copy(result, recs)
	return result, nil
}

// Ping always succeeds for the in-memory store

func (s *Storage) Ping(ctx context.Context) error {
	return nil
}
