package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/nwestbury/digitduel/internal/model"
)

type StorageSuite struct {
	suite.Suite
	storage *Storage
	ctx     context.Context
}

func TestStorageSuite(t *testing.T) {
	suite.Run(t, new(StorageSuite))
}

func (s *StorageSuite) SetupTest() {
	s.storage = New()
	s.ctx = context.Background()
}

func (s *StorageSuite) createRoom(id model.RoomID) *model.Room {
	room := &model.Room{
		ID:          id,
		CurrentTurn: model.Slot1,
		CreatedAt:   time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC),
	}
	s.Require().NoError(s.storage.CreateRoom(s.ctx, room))
	return room
}

// Room tests

func (s *StorageSuite) TestCreateAndGetRoom() {
	s.createRoom("ABC123")

	room, err := s.storage.GetRoom(s.ctx, "ABC123")
	s.Require().NoError(err)
	s.Equal(model.RoomID("ABC123"), room.ID)
	s.False(room.Started)
	s.Equal(model.Slot1, room.CurrentTurn)
}

func (s *StorageSuite) TestGetRoomNotFound() {
	_, err := s.storage.GetRoom(s.ctx, "NOPE")
	s.ErrorIs(err, model.ErrRoomNotFound)
}

func (s *StorageSuite) TestSaveRoomUpdatesFields() {
	room := s.createRoom("ABC123")
	room.Started = true
	room.CurrentTurn = model.Slot2
	room.TimerStartMs = 1700000000000

	s.Require().NoError(s.storage.SaveRoom(s.ctx, room))

	saved, err := s.storage.GetRoom(s.ctx, "ABC123")
	s.Require().NoError(err)
	s.True(saved.Started)
	s.Equal(model.Slot2, saved.CurrentTurn)
	s.Equal(int64(1700000000000), saved.TimerStartMs)
}

func (s *StorageSuite) TestSaveRoomNotFound() {
	err := s.storage.SaveRoom(s.ctx, &model.Room{ID: "NOPE"})
	s.ErrorIs(err, model.ErrRoomNotFound)
}

func (s *StorageSuite) TestRoomExists() {
	s.createRoom("ABC123")

	exists, err := s.storage.RoomExists(s.ctx, "ABC123")
	s.Require().NoError(err)
	s.True(exists)

	exists, err = s.storage.RoomExists(s.ctx, "NOPE")
	s.Require().NoError(err)
	s.False(exists)
}

func (s *StorageSuite) TestDeleteRoomCascades() {
	s.createRoom("ABC123")
	s.Require().NoError(s.storage.BindPlayer(s.ctx, &model.PlayerSlot{
		RoomID: "ABC123", Slot: model.Slot1, Token: "tok-1",
	}))
	s.Require().NoError(s.storage.SetSecret(s.ctx, "ABC123", model.Slot1, "1234"))
	_, err := s.storage.AppendGuess(s.ctx, &model.GuessRecord{
		RoomID: "ABC123", Slot: model.Slot1, Guess: "5678", Outcome: "0 correct",
	})
	s.Require().NoError(err)

	s.Require().NoError(s.storage.DeleteRoom(s.ctx, "ABC123"))

	_, err = s.storage.GetRoom(s.ctx, "ABC123")
	s.ErrorIs(err, model.ErrRoomNotFound)
	_, err = s.storage.FindSlotByToken(s.ctx, "ABC123", "tok-1")
	s.ErrorIs(err, model.ErrTokenNotFound)
	_, err = s.storage.GetSecret(s.ctx, "ABC123", model.Slot1)
	s.ErrorIs(err, model.ErrSecretNotFound)
	history, err := s.storage.ListHistory(s.ctx, "ABC123", model.Slot1)
	s.Require().NoError(err)
	s.Empty(history)
}

func (s *StorageSuite) TestResetRoomKeepsPlayers() {
	room := s.createRoom("ABC123")
	s.Require().NoError(s.storage.BindPlayer(s.ctx, &model.PlayerSlot{
		RoomID: "ABC123", Slot: model.Slot1, Token: "tok-1",
	}))
	s.Require().NoError(s.storage.SetSecret(s.ctx, "ABC123", model.Slot1, "1234"))
	room.Started = true
	room.CurrentTurn = model.Slot2
	room.TimerStartMs = 42
	s.Require().NoError(s.storage.SaveRoom(s.ctx, room))

	s.Require().NoError(s.storage.ResetRoom(s.ctx, "ABC123"))

	saved, err := s.storage.GetRoom(s.ctx, "ABC123")
	s.Require().NoError(err)
	s.False(saved.Started)
	s.Equal(model.Slot1, saved.CurrentTurn)
	s.Zero(saved.TimerStartMs)

	count, err := s.storage.CountSecrets(s.ctx, "ABC123")
	s.Require().NoError(err)
	s.Zero(count)

	// Player slot survives a reset
	ps, err := s.storage.FindSlotByToken(s.ctx, "ABC123", "tok-1")
	s.Require().NoError(err)
	s.Equal(model.Slot1, ps.Slot)
}

func (s *StorageSuite) TestListRoomsAggregates() {
	s.createRoom("AAAAAA")
	s.createRoom("BBBBBB")
	s.Require().NoError(s.storage.BindPlayer(s.ctx, &model.PlayerSlot{
		RoomID: "AAAAAA", Slot: model.Slot1, Token: "tok-1",
	}))
	s.Require().NoError(s.storage.SetSecret(s.ctx, "AAAAAA", model.Slot1, "1234"))
	s.Require().NoError(s.storage.SetSecret(s.ctx, "AAAAAA", model.Slot2, "5678"))
	_, err := s.storage.AppendGuess(s.ctx, &model.GuessRecord{
		RoomID: "AAAAAA", Slot: model.Slot1, Guess: "1111", Outcome: "0 correct",
	})
	s.Require().NoError(err)

	summaries, err := s.storage.ListRooms(s.ctx)
	s.Require().NoError(err)
	s.Len(summaries, 2)

	byID := make(map[model.RoomID]model.RoomSummary)
	for _, sum := range summaries {
		byID[sum.ID] = sum
	}
	s.Equal(2, byID["AAAAAA"].SecretsSet)
	s.Equal(1, byID["AAAAAA"].GuessCount)
	s.Len(byID["AAAAAA"].Players, 1)
	s.Zero(byID["BBBBBB"].SecretsSet)
}

// Player slot tests

func (s *StorageSuite) TestBindPlayerClaimsSlot() {
	s.createRoom("ABC123")

	err := s.storage.BindPlayer(s.ctx, &model.PlayerSlot{
		RoomID: "ABC123", Slot: model.Slot1, DisplayName: "Alice", Token: "tok-1",
	})
	s.Require().NoError(err)

	ps, err := s.storage.FindSlotByToken(s.ctx, "ABC123", "tok-1")
	s.Require().NoError(err)
	s.Equal(model.Slot1, ps.Slot)
	s.Equal("Alice", ps.DisplayName)
}

func (s *StorageSuite) TestBindPlayerSlotTaken() {
	s.createRoom("ABC123")
	s.Require().NoError(s.storage.BindPlayer(s.ctx, &model.PlayerSlot{
		RoomID: "ABC123", Slot: model.Slot1, Token: "tok-1",
	}))

	err := s.storage.BindPlayer(s.ctx, &model.PlayerSlot{
		RoomID: "ABC123", Slot: model.Slot1, Token: "tok-2",
	})
	s.ErrorIs(err, model.ErrSlotTaken)

	// Original token still wins lookups
	ps, err := s.storage.FindSlotByToken(s.ctx, "ABC123", "tok-1")
	s.Require().NoError(err)
	s.Equal("tok-1", ps.Token)
}

func (s *StorageSuite) TestFindSlotByTokenWrongRoom() {
	s.createRoom("AAAAAA")
	s.createRoom("BBBBBB")
	s.Require().NoError(s.storage.BindPlayer(s.ctx, &model.PlayerSlot{
		RoomID: "AAAAAA", Slot: model.Slot1, Token: "tok-1",
	}))

	_, err := s.storage.FindSlotByToken(s.ctx, "BBBBBB", "tok-1")
	s.ErrorIs(err, model.ErrTokenNotFound)
}

func (s *StorageSuite) TestTouchPlayer() {
	s.createRoom("ABC123")
	s.Require().NoError(s.storage.BindPlayer(s.ctx, &model.PlayerSlot{
		RoomID: "ABC123", Slot: model.Slot1, Token: "tok-1",
	}))

	seen := time.Date(2024, 2, 1, 9, 0, 0, 0, time.UTC)
	s.Require().NoError(s.storage.TouchPlayer(s.ctx, "ABC123", model.Slot1, seen))

	players, err := s.storage.GetPlayers(s.ctx, "ABC123")
	s.Require().NoError(err)
	s.Require().Len(players, 1)
	s.Equal(seen, players[0].LastSeen)
}

// Secret tests

func (s *StorageSuite) TestSetAndGetSecret() {
	s.createRoom("ABC123")

	s.Require().NoError(s.storage.SetSecret(s.ctx, "ABC123", model.Slot1, "1234"))

	secret, err := s.storage.GetSecret(s.ctx, "ABC123", model.Slot1)
	s.Require().NoError(err)
	s.Equal("1234", secret)

	count, err := s.storage.CountSecrets(s.ctx, "ABC123")
	s.Require().NoError(err)
	s.Equal(1, count)
}

func (s *StorageSuite) TestSetSecretFailsWhenStarted() {
	room := s.createRoom("ABC123")
	room.Started = true
	s.Require().NoError(s.storage.SaveRoom(s.ctx, room))

	err := s.storage.SetSecret(s.ctx, "ABC123", model.Slot1, "1234")
	s.ErrorIs(err, model.ErrGameAlreadyStarted)
}

func (s *StorageSuite) TestClearSecretFailsWhenStarted() {
	room := s.createRoom("ABC123")
	s.Require().NoError(s.storage.SetSecret(s.ctx, "ABC123", model.Slot1, "1234"))
	room.Started = true
	s.Require().NoError(s.storage.SaveRoom(s.ctx, room))

	err := s.storage.ClearSecret(s.ctx, "ABC123", model.Slot1)
	s.ErrorIs(err, model.ErrGameAlreadyStarted)
}

func (s *StorageSuite) TestClearSecretIsIdempotent() {
	s.createRoom("ABC123")
	s.Require().NoError(s.storage.ClearSecret(s.ctx, "ABC123", model.Slot1))
}

// History tests

func (s *StorageSuite) TestAppendGuessAssignsMonotonicIndexes() {
	s.createRoom("ABC123")

	idx, err := s.storage.AppendGuess(s.ctx, &model.GuessRecord{
		RoomID: "ABC123", Slot: model.Slot1, Guess: "1111", Outcome: "0 correct",
	})
	s.Require().NoError(err)
	s.Equal(1, idx)

	idx, err = s.storage.AppendGuess(s.ctx, &model.GuessRecord{
		RoomID: "ABC123", Slot: model.Slot1, Guess: "2222", Outcome: "1 correct",
	})
	s.Require().NoError(err)
	s.Equal(2, idx)

	// Each slot indexes independently
	idx, err = s.storage.AppendGuess(s.ctx, &model.GuessRecord{
		RoomID: "ABC123", Slot: model.Slot2, Guess: "3333", Outcome: "0 correct",
	})
	s.Require().NoError(err)
	s.Equal(1, idx)

	history, err := s.storage.ListHistory(s.ctx, "ABC123", model.Slot1)
	s.Require().NoError(err)
	s.Require().Len(history, 2)
	s.Equal("1111", history[0].Guess)
	s.Equal("2222", history[1].Guess)
}

func (s *StorageSuite) TestPing() {
	s.NoError(s.storage.Ping(s.ctx))
}
