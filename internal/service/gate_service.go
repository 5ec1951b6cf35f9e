package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cwrk-planet/messaging-service/internal/domain"
	"github.com/cwrk-planet/messaging-service/internal/queue"
)

// SocialGraph is the read-only slice of the follow graph messaging needs.
type SocialGraph interface {
	IsMutualFollow(ctx context.Context, callerID, targetID int64) (bool, error)
	ListMutualContacts(ctx context.Context, callerID int64) ([]domain.Contact, error)
	ListOneSidedFollows(ctx context.Context, callerID int64) ([]domain.Contact, error)
}

// GateService decides whether a caller may open a conversation with a
// target: both must follow each other. One-sided follows get routed to the
// request-to-connect flow instead.
type GateService struct {
	social SocialGraph
	tasks  queue.Client
}

func NewGateService(social SocialGraph, tasks queue.Client) *GateService {
	return &GateService{social: social, tasks: tasks}
}

// CanMessage returns nil iff caller and target follow each other.
func (s *GateService) CanMessage(ctx context.Context, callerID, targetID int64) error {
	if callerID == targetID {
		return domain.ErrSelfConversation
	}
	mutual, err := s.social.IsMutualFollow(ctx, callerID, targetID)
	if err != nil {
		return fmt.Errorf("social.IsMutualFollow: %w", err)
	}
	if !mutual {
		return domain.ErrNotMutual
	}
	return nil
}

func (s *GateService) ListMutualContacts(ctx context.Context, callerID int64) ([]domain.Contact, error) {
	return s.social.ListMutualContacts(ctx, callerID)
}

// ListOneSidedFollows lists accounts the caller follows that do not follow
// back — the candidates for RequestFollowBack.
func (s *GateService) ListOneSidedFollows(ctx context.Context, callerID int64) ([]domain.Contact, error) {
	return s.social.ListOneSidedFollows(ctx, callerID)
}

// RequestFollowBack delegates a follow request to the social-graph worker.
// It neither creates a conversation nor permits messaging by itself.
func (s *GateService) RequestFollowBack(ctx context.Context, callerID, targetID int64) error {
	if callerID == targetID {
		return domain.ErrSelfConversation
	}

	task, err := queue.NewFollowRequestTask(callerID, targetID)
	if err != nil {
		return fmt.Errorf("build follow request task: %w", err)
	}
	err = s.tasks.Enqueue(ctx, task, queue.EnqueueOptions{
		Queue:    "social",
		MaxRetry: 5,
		// повторный клик по «запросить» в течение суток — no-op
		UniqueTTL: 24 * time.Hour,
	})
	if err != nil {
		slog.Error("gate.RequestFollowBack.Enqueue:", slog.Any("err", err))
		return fmt.Errorf("enqueue follow request: %w", err)
	}
	return nil
}
