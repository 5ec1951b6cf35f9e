package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/cwrk-planet/messaging-service/internal/domain"
	"github.com/cwrk-planet/messaging-service/internal/queue"
)

func TestCanMessageMutualOnly(t *testing.T) {
	social := newFakeSocial()
	svc := NewGateService(social, &fakeQueue{})
	ctx := context.Background()

	if err := svc.CanMessage(ctx, 1, 2); !errors.Is(err, domain.ErrNotMutual) {
		t.Fatalf("no follows: expected ErrNotMutual, got %v", err)
	}

	social.follow(1, 2)
	if err := svc.CanMessage(ctx, 1, 2); !errors.Is(err, domain.ErrNotMutual) {
		t.Fatalf("one-sided: expected ErrNotMutual, got %v", err)
	}

	social.follow(2, 1)
	if err := svc.CanMessage(ctx, 1, 2); err != nil {
		t.Fatalf("mutual: expected allow, got %v", err)
	}
}

func TestCanMessageSelf(t *testing.T) {
	svc := NewGateService(newFakeSocial(), &fakeQueue{})
	if err := svc.CanMessage(context.Background(), 7, 7); !errors.Is(err, domain.ErrSelfConversation) {
		t.Fatalf("expected ErrSelfConversation, got %v", err)
	}
}

func TestRequestFollowBackDelegatesToQueue(t *testing.T) {
	q := &fakeQueue{}
	svc := NewGateService(newFakeSocial(), q)

	if err := svc.RequestFollowBack(context.Background(), 1, 2); err != nil {
		t.Fatalf("request: %v", err)
	}

	if len(q.enqueued) != 1 {
		t.Fatalf("expected one task, got %d", len(q.enqueued))
	}
	task := q.enqueued[0]
	if task.Type != queue.FollowRequestTaskType {
		t.Fatalf("unexpected task type %q", task.Type)
	}
	var p queue.FollowRequestPayload
	if err := json.Unmarshal(task.Payload, &p); err != nil {
		t.Fatalf("payload: %v", err)
	}
	if p.RequesterID != 1 || p.TargetID != 2 {
		t.Fatalf("unexpected payload %+v", p)
	}
	if q.options[0].UniqueTTL <= 0 {
		t.Fatalf("follow requests must be deduplicated via unique ttl")
	}
}

func TestRequestFollowBackDoesNotPermitMessaging(t *testing.T) {
	social := newFakeSocial()
	social.follow(1, 2)
	svc := NewGateService(social, &fakeQueue{})
	ctx := context.Background()

	if err := svc.RequestFollowBack(ctx, 1, 2); err != nil {
		t.Fatalf("request: %v", err)
	}
	// the request is only a delegation; the gate still denies
	if err := svc.CanMessage(ctx, 1, 2); !errors.Is(err, domain.ErrNotMutual) {
		t.Fatalf("expected ErrNotMutual after request, got %v", err)
	}
}
