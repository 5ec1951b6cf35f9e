package domain

import "errors"

var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrNotMutual    = errors.New("users do not follow each other")

	ErrUserNotFound         = errors.New("user not found")
	ErrConversationNotFound = errors.New("conversation not found")
	ErrNotParticipant       = errors.New("user is not a participant of the conversation")

	ErrEmptyMessage     = errors.New("empty message")
	ErrInvalidClientID  = errors.New("invalid client message id")
	ErrMessageTooLong   = errors.New("message too long")
	ErrInvalidMedia     = errors.New("invalid media kind")
	ErrMediaTooLarge    = errors.New("media too large")
	ErrSelfConversation = errors.New("cannot open a conversation with yourself")
)
