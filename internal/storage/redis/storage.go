package redis

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/nwestbury/digitduel/internal/model"
	"github.com/nwestbury/digitduel/internal/storage"
)

// Storage is a Redis-backed implementation of the storage interface
type Storage struct {
	client *redis.Client
	cfg    Config
}

// New creates a new Redis storage instance
func New(cfg Config) (*Storage, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, err
	}

	opts.PoolSize = cfg.PoolSize
	opts.MinIdleConns = cfg.MinIdleConns

	client := redis.NewClient(opts)

	// Verify connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return &Storage{
		client: client,
		cfg:    cfg,
	}, nil
}

// NewWithClient creates a Redis storage with an existing client (for testing)
func NewWithClient(client *redis.Client, cfg Config) *Storage {
	return &Storage{
		client: client,
		cfg:    cfg,
	}
}

// Close closes the Redis connection
func (s *Storage) Close() error {
	return s.client.Close()
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// Room operations

func (s *Storage) CreateRoom(ctx context.Context, room *model.Room) error {
	data, err := json.Marshal(room)
	if err != nil {
		return err
	}

	pipe := s.client.Pipeline()
	pipe.Set(ctx, roomKey(room.ID), data, s.cfg.RoomTTL)
	pipe.SAdd(ctx, roomsIndexKey(), string(room.ID))
	_, err = pipe.Exec(ctx)
	return err
}

func (s *Storage) GetRoom(ctx context.Context, id model.RoomID) (*model.Room, error) {
	data, err := s.client.Get(ctx, roomKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrRoomNotFound
		}
		return nil, err
	}

	var room model.Room
	if err := json.Unmarshal(data, &room); err != nil {
		return nil, err
	}
	return &room, nil
}

func (s *Storage) SaveRoom(ctx context.Context, room *model.Room) error {
	data, err := json.Marshal(room)
	if err != nil {
		return err
	}

	set, err := s.client.SetXX(ctx, roomKey(room.ID), data, s.cfg.RoomTTL).Result()
	if err != nil {
		return err
	}
	if !set {
		return model.ErrRoomNotFound
	}
	return nil
}

func (s *Storage) RoomExists(ctx context.Context, id model.RoomID) (bool, error) {
	n, err := s.client.Exists(ctx, roomKey(id)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *Storage) DeleteRoom(ctx context.Context, id model.RoomID) error {
	pipe := s.client.Pipeline()
	pipe.Del(ctx,
		roomKey(id),
		playersKey(id),
		secretsKey(id),
		historyKey(id, model.Slot1),
		historyKey(id, model.Slot2),
	)
	pipe.SRem(ctx, roomsIndexKey(), string(id))
	_, err := pipe.Exec(ctx)
	return err
}

func (s *Storage) ResetRoom(ctx context.Context, id model.RoomID) error {
	room, err := s.GetRoom(ctx, id)
	if err != nil {
		return err
	}

	room.Started = false
	room.CurrentTurn = model.Slot1
	room.TimerStartMs = 0

	data, err := json.Marshal(room)
	if err != nil {
		return err
	}

	pipe := s.client.Pipeline()
	pipe.Del(ctx, secretsKey(id), historyKey(id, model.Slot1), historyKey(id, model.Slot2))
	pipe.Set(ctx, roomKey(id), data, s.cfg.RoomTTL)
	_, err = pipe.Exec(ctx)
	return err
}

func (s *Storage) ListRooms(ctx context.Context) ([]model.RoomSummary, error) {
	ids, err := s.client.SMembers(ctx, roomsIndexKey()).Result()
	if err != nil {
		return nil, err
	}

	summaries := make([]model.RoomSummary, 0, len(ids))
	for _, idStr := range ids {
		id := model.RoomID(idStr)
		room, err := s.GetRoom(ctx, id)
		if errors.Is(err, model.ErrRoomNotFound) {
			// Expired by TTL; drop the stale index entry
			_ = s.client.SRem(ctx, roomsIndexKey(), idStr).Err()
			continue
		}
		if err != nil {
			return nil, err
		}

		summary := model.RoomSummary{
			ID:          id,
			Started:     room.Started,
			CurrentTurn: room.CurrentTurn,
			CreatedAt:   room.CreatedAt,
		}

		secrets, err := s.client.HLen(ctx, secretsKey(id)).Result()
		if err != nil {
			return nil, err
		}
		summary.SecretsSet = int(secrets)

		for _, slot := range []model.Slot{model.Slot1, model.Slot2} {
			n, err := s.client.LLen(ctx, historyKey(id, slot)).Result()
			if err != nil {
				return nil, err
			}
			summary.GuessCount += int(n)
		}

		players, err := s.GetPlayers(ctx, id)
		if err != nil {
			return nil, err
		}
		summary.Players = players

		summaries = append(summaries, summary)
	}

	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].CreatedAt.After(summaries[j].CreatedAt)
	})
	return summaries, nil
}

// Player slot operations

func (s *Storage) BindPlayer(ctx context.Context, ps *model.PlayerSlot) error {
	exists, err := s.RoomExists(ctx, ps.RoomID)
	if err != nil {
		return err
	}
	if !exists {
		return model.ErrRoomNotFound
	}

	data, err := json.Marshal(ps)
	if err != nil {
		return err
	}

	claimed, err := s.client.HSetNX(ctx, playersKey(ps.RoomID), slotField(ps.Slot), data).Result()
	if err != nil {
		return err
	}
	if !claimed {
		return model.ErrSlotTaken
	}
	return s.client.Expire(ctx, playersKey(ps.RoomID), s.cfg.RoomTTL).Err()
}

func (s *Storage) FindSlotByToken(ctx context.Context, id model.RoomID, token string) (*model.PlayerSlot, error) {
	players, err := s.GetPlayers(ctx, id)
	if err != nil {
		return nil, err
	}
	for i := range players {
		if players[i].Token == token {
			return &players[i], nil
		}
	}
	return nil, model.ErrTokenNotFound
}

func (s *Storage) GetPlayers(ctx context.Context, id model.RoomID) ([]model.PlayerSlot, error) {
	fields, err := s.client.HGetAll(ctx, playersKey(id)).Result()
	if err != nil {
		return nil, err
	}

	players := make([]model.PlayerSlot, 0, len(fields))
	for _, raw := range fields {
		var ps model.PlayerSlot
		if err := json.Unmarshal([]byte(raw), &ps); err != nil {
			return nil, err
		}
		players = append(players, ps)
	}
	sort.Slice(players, func(i, j int) bool { return players[i].Slot < players[j].Slot })
	return players, nil
}

func (s *Storage) TouchPlayer(ctx context.Context, id model.RoomID, slot model.Slot, seen time.Time) error {
	raw, err := s.client.HGet(ctx, playersKey(id), slotField(slot)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return model.ErrSlotNotFound
		}
		return err
	}

	var ps model.PlayerSlot
	if err := json.Unmarshal([]byte(raw), &ps); err != nil {
		return err
	}
	ps.LastSeen = seen

	data, err := json.Marshal(&ps)
	if err != nil {
		return err
	}
	return s.client.HSet(ctx, playersKey(id), slotField(slot), data).Err()
}

// Secret operations

func (s *Storage) SetSecret(ctx context.Context, id model.RoomID, slot model.Slot, value string) error {
	room, err := s.GetRoom(ctx, id)
	if err != nil {
		return err
	}
	if room.Started {
		return model.ErrGameAlreadyStarted
	}

	pipe := s.client.Pipeline()
	pipe.HSet(ctx, secretsKey(id), slotField(slot), value)
	pipe.Expire(ctx, secretsKey(id), s.cfg.RoomTTL)
	_, err = pipe.Exec(ctx)
	return err
}

func (s *Storage) ClearSecret(ctx context.Context, id model.RoomID, slot model.Slot) error {
	room, err := s.GetRoom(ctx, id)
	if err != nil {
		return err
	}
	if room.Started {
		return model.ErrGameAlreadyStarted
	}
	return s.client.HDel(ctx, secretsKey(id), slotField(slot)).Err()
}

func (s *Storage) GetSecret(ctx context.Context, id model.RoomID, slot model.Slot) (string, error) {
	secret, err := s.client.HGet(ctx, secretsKey(id), slotField(slot)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", model.ErrSecretNotFound
		}
		return "", err
	}
	return secret, nil
}

func (s *Storage) CountSecrets(ctx context.Context, id model.RoomID) (int, error) {
	n, err := s.client.HLen(ctx, secretsKey(id)).Result()
	if err != nil {
		return 0, err
	}
	return int(n), nil
}

// History operations

func (s *Storage) AppendGuess(ctx context.Context, rec *model.GuessRecord) (int, error) {
	exists, err := s.RoomExists(ctx, rec.RoomID)
	if err != nil {
		return 0, err
	}
	if !exists {
		return 0, model.ErrRoomNotFound
	}

	key := historyKey(rec.RoomID, rec.Slot)

	// The caller holds the room scope, so length-then-push cannot race
	n, err := s.client.LLen(ctx, key).Result()
	if err != nil {
		return 0, err
	}

	cp := *rec
	cp.Index = int(n) + 1
	data, err := json.Marshal(&cp)
	if err != nil {
		return 0, err
	}

	pipe := s.client.Pipeline()
	pipe.RPush(ctx, key, data)
	pipe.Expire(ctx, key, s.cfg.RoomTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, err
	}
	return cp.Index, nil
}

func (s *Storage) ListHistory(ctx context.Context, id model.RoomID, slot model.Slot) ([]model.GuessRecord, error) {
	raw, err := s.client.LRange(ctx, historyKey(id, slot), 0, -1).Result()
	if err != nil {
		return nil, err
	}

	recs := make([]model.GuessRecord, 0, len(raw))
	for _, item := range raw {
		var rec model.GuessRecord
		if err := json.Unmarshal([]byte(item), &rec); err != nil {
			return nil, err
		}
		recs = append(recs, rec)
	}
	return recs, nil
}

// Ping verifies the Redis connection is alive

func (s *Storage) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}
