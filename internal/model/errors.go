package model

import "errors"

// Common errors used across the application
var (
	// Room errors
	ErrRoomNotFound       = errors.New("room not found")
	ErrGameAlreadyStarted = errors.New("game has already started")
	ErrNotStarted         = errors.New("game has not started")
	ErrNotEnoughPlayers   = errors.New("both players must set their numbers")

	// Slot errors
	ErrSlotTaken     = errors.New("player slot already taken")
	ErrInvalidSlot   = errors.New("invalid player number")
	ErrSlotNotFound  = errors.New("player slot not found")
	ErrTokenNotFound = errors.New("reconnection token not recognized")

	// Action errors
	ErrUnauthorized          = errors.New("connection is not bound to this slot")
	ErrInvalidFormat         = errors.New("invalid number format")
	ErrNotYourTurn           = errors.New("not your turn")
	ErrOpponentSecretMissing = errors.New("opponent secret missing")
	ErrSecretNotFound        = errors.New("secret not set")

	// Admin errors
	ErrRateLimited     = errors.New("too many attempts")
	ErrAdminKeyMissing = errors.New("admin key required")
	ErrAdminKeyWrong   = errors.New("admin key rejected")
)
