package domain

import "errors"

var (
	ErrMissingRoomID = errors.New("missing roomId")
	ErrMissingUserID = errors.New("missing userId")
	ErrMissingTarget = errors.New("missing targetId")
	ErrTargetOffline = errors.New("target not connected")
	ErrConnClosed    = errors.New("connection closed")
	ErrSendQueueFull = errors.New("send queue full")
)
