package scheduler

import (
	"context"

	"inmova_backend/platform/cache"
	"inmova_backend/platform/config"

	"github.com/hibiken/asynq"
)

type Client struct {
	client *asynq.Client
	queue  string
}

func NewClient(cfg config.SchedulerConfig) (*Client, error) {
	opt, err := redisClientOpt(cfg)
	if err != nil {
		return nil, err
	}

	return &Client{
		client: asynq.NewClient(opt),
		queue:  queueName(cfg),
	}, nil
}

func (c *Client) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Close()
}

// EnqueueOnboardingSweep queues a sweep to run as soon as a worker is free.
func (c *Client) EnqueueOnboardingSweep(ctx context.Context, trigger string) error {
	if c == nil || c.client == nil {
		return nil
	}

	task, err := NewOnboardingSweepTask(OnboardingSweepPayload{Trigger: trigger})
	if err != nil {
		return err
	}

	_, err = c.client.EnqueueContext(ctx, task, asynq.Queue(c.queue), asynq.Unique(sweepUniqueFor))
	return err
}

func redisClientOpt(cfg config.RedisConfig) (asynq.RedisClientOpt, error) {
	opt, err := cache.ParseOptions(cfg.GetRedisURL(), cfg.GetRedisTLSInsecure())
	if err != nil {
		return asynq.RedisClientOpt{}, err
	}

	return asynq.RedisClientOpt{
		Addr:      opt.Addr,
		Username:  opt.Username,
		Password:  opt.Password,
		DB:        opt.DB,
		TLSConfig: opt.TLSConfig,
	}, nil
}

func queueName(cfg config.SchedulerConfig) string {
	if queue := cfg.GetAsynqQueueName(); queue != "" {
		return queue
	}
	return "default"
}
