package queue

import (
	"context"
	"errors"
	"fmt"

	"github.com/hibiken/asynq"
)

// AsynqClient implements Client on github.com/hibiken/asynq with Redis as
// the backing store.
type AsynqClient struct {
	client *asynq.Client
}

var _ Client = (*AsynqClient)(nil)

func NewAsynqClient(redisURL string) (*AsynqClient, error) {
	if redisURL == "" {
		return nil, errors.New("asynq: redis url is empty")
	}
	opt, err := asynq.ParseRedisURI(redisURL)
	if err != nil {
		return nil, fmt.Errorf("asynq: parse redis url: %w", err)
	}
	return &AsynqClient{client: asynq.NewClient(opt)}, nil
}

func (a *AsynqClient) Enqueue(ctx context.Context, t Task, opts EnqueueOptions) error {
	if t.Type == "" {
		return errors.New("asynq: task type is required")
	}

	var asynqOpts []asynq.Option
	if opts.Queue != "" {
		asynqOpts = append(asynqOpts, asynq.Queue(opts.Queue))
	}
	if opts.MaxRetry > 0 {
		asynqOpts = append(asynqOpts, asynq.MaxRetry(opts.MaxRetry))
	}
	if opts.UniqueTTL > 0 {
		asynqOpts = append(asynqOpts, asynq.Unique(opts.UniqueTTL))
	}

	_, err := a.client.EnqueueContext(ctx, asynq.NewTask(t.Type, t.Payload), asynqOpts...)
	if errors.Is(err, asynq.ErrDuplicateTask) {
		// uniqueness window hit: the task is already pending, which is
		// success from the producer's point of view
		return nil
	}
	return err
}

func (a *AsynqClient) Close() error {
	return a.client.Close()
}
