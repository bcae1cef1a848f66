package domain

import "errors"

var (
	ErrInvalidName  = errors.New("invalid name")
	ErrRoomNotFound = errors.New("room not found")
	ErrRoomFull     = errors.New("room is full")
	ErrNameTaken    = errors.New("name already taken")
	ErrNotYourTurn  = errors.New("not your turn")
)
