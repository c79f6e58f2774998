package queue

import (
	"context"
	"errors"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/affiliate-engine/internal/config"
	"github.com/affiliate-engine/internal/constants"
	"github.com/affiliate-engine/internal/logger"

	"github.com/hibiken/asynq"
)

const (
	// DefaultQueue 推荐关系等普通任务
	DefaultQueue = constants.QueueDefault
	// CriticalQueue 计佣、冲正等资金任务
	CriticalQueue = constants.QueueCritical

	moneyTaskMaxRetry     = 10
	defaultConcurrency    = 10
	referralTaskRetention = 24 * time.Hour
)

// Client asynq 生产端；未启用时所有入队操作都是空操作
type Client struct {
	client *asynq.Client
}

// NewClient 按队列配置连接 Redis
func NewClient(cfg *config.QueueConfig) (*Client, error) {
	if cfg == nil || !cfg.Enabled {
		return &Client{}, nil
	}
	return &Client{client: asynq.NewClient(redisOpt(cfg))}, nil
}

// Enabled 是否真正投递到队列
func (c *Client) Enabled() bool {
	return c != nil && c.client != nil
}

// Close 释放连接
func (c *Client) Close() error {
	if !c.Enabled() {
		return nil
	}
	return c.client.Close()
}

// enqueue 投递任务；TaskID 冲突视为已入队
func (c *Client) enqueue(task *asynq.Task, opts ...asynq.Option) error {
	info, err := c.client.Enqueue(task, opts...)
	if errors.Is(err, asynq.ErrTaskIDConflict) {
		logger.Debugw("queue_task_duplicate", "type", task.Type())
		return nil
	}
	if err != nil {
		return err
	}
	logger.Debugw("queue_task_enqueued", "type", task.Type(), "id", info.ID, "queue", info.Queue)
	return nil
}

// EnqueueAffiliateConversion 计佣任务，同一订单只入队一次
func (c *Client) EnqueueAffiliateConversion(payload AffiliateConversionPayload, opts ...asynq.Option) error {
	if !c.Enabled() {
		return nil
	}
	task, err := NewAffiliateConversionTask(payload)
	if err != nil {
		return err
	}
	return c.enqueue(task, append([]asynq.Option{
		asynq.Queue(CriticalQueue),
		asynq.TaskID(TaskAffiliateConversion + ":" + payload.OrderID),
		asynq.MaxRetry(moneyTaskMaxRetry),
	}, opts...)...)
}

// EnqueueAffiliateRefund 冲正任务，同一订单只入队一次
func (c *Client) EnqueueAffiliateRefund(payload AffiliateRefundPayload, opts ...asynq.Option) error {
	if !c.Enabled() {
		return nil
	}
	task, err := NewAffiliateRefundTask(payload)
	if err != nil {
		return err
	}
	return c.enqueue(task, append([]asynq.Option{
		asynq.Queue(CriticalQueue),
		asynq.TaskID(TaskAffiliateRefund + ":" + payload.OrderID),
		asynq.MaxRetry(moneyTaskMaxRetry),
	}, opts...)...)
}

// EnqueueAffiliateReferral 推荐关系状态任务
func (c *Client) EnqueueAffiliateReferral(payload AffiliateReferralPayload, opts ...asynq.Option) error {
	if !c.Enabled() {
		return nil
	}
	task, err := NewAffiliateReferralTask(payload)
	if err != nil {
		return err
	}
	return c.enqueue(task, append([]asynq.Option{
		asynq.Queue(DefaultQueue),
		asynq.Retention(referralTaskRetention),
	}, opts...)...)
}

// BuildServerConfig 消费端连接与并发配置，资金队列优先
func BuildServerConfig(cfg *config.QueueConfig) (asynq.RedisClientOpt, asynq.Config) {
	serverCfg := asynq.Config{
		Concurrency: defaultConcurrency,
		Queues:      map[string]int{CriticalQueue: 6, DefaultQueue: 3},
		Logger:      logger.S(),
		ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
			retried, _ := asynq.GetRetryCount(ctx)
			maxRetry, _ := asynq.GetMaxRetry(ctx)
			logger.Warnw("queue_task_failed", "type", task.Type(), "retried", retried, "max_retry", maxRetry, "error", err)
		}),
	}
	if cfg != nil {
		if cfg.Concurrency > 0 {
			serverCfg.Concurrency = cfg.Concurrency
		}
		if len(cfg.Queues) > 0 {
			serverCfg.Queues = cfg.Queues
		}
	}
	return redisOpt(cfg), serverCfg
}

func redisOpt(cfg *config.QueueConfig) asynq.RedisClientOpt {
	opt := asynq.RedisClientOpt{Addr: "127.0.0.1:6379"}
	if cfg == nil {
		return opt
	}
	host := strings.TrimSpace(cfg.Host)
	if host == "" {
		host = "127.0.0.1"
	}
	port := cfg.Port
	if port <= 0 {
		port = 6379
	}
	opt.Addr = net.JoinHostPort(host, strconv.Itoa(port))
	opt.Password = cfg.Password
	opt.DB = cfg.DB
	return opt
}
