package http

import (
	"errors"
	"net/http"

	"github.com/cwrk-planet/messaging-service/internal/domain"
	"github.com/cwrk-planet/messaging-service/internal/postgres"
)

// statusOf maps the domain error taxonomy onto HTTP statuses. Typed
// results, never opaque 500s, so the client can render something specific.
func statusOf(err error) int {
	switch {
	case errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrForbidden),
		errors.Is(err, domain.ErrNotMutual),
		errors.Is(err, domain.ErrNotParticipant):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrConversationNotFound),
		errors.Is(err, domain.ErrUserNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrMediaTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, domain.ErrEmptyMessage),
		errors.Is(err, domain.ErrMessageTooLong),
		errors.Is(err, domain.ErrInvalidMedia),
		errors.Is(err, domain.ErrInvalidClientID),
		errors.Is(err, domain.ErrSelfConversation),
		errors.Is(err, postgres.ErrInvalidCursor):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// reasonOf adds a machine-readable hint where the client branches on it:
// a not_mutual denial routes the UI into the request-to-connect flow.
func reasonOf(err error) string {
	if errors.Is(err, domain.ErrNotMutual) {
		return "not_mutual"
	}
	return ""
}
