package worker

import (
	"context"
	"errors"
	"time"

	"github.com/affiliate-engine/internal/config"
	"github.com/affiliate-engine/internal/logger"
	"github.com/affiliate-engine/internal/queue"

	"github.com/hibiken/asynq"
)

const (
	defaultApproveInterval = time.Minute
)

// Service 异步队列服务
type Service struct {
	name            string
	server          *asynq.Server
	mux             *asynq.ServeMux
	consumer        *Consumer
	approveInterval time.Duration
}

// NewService 创建异步队列服务
func NewService(cfg *config.QueueConfig, consumer *Consumer) (*Service, error) {
	if cfg == nil || !cfg.Enabled {
		return nil, errors.New("queue disabled")
	}
	if consumer == nil {
		return nil, errors.New("consumer is nil")
	}
	opt, serverCfg := queue.BuildServerConfig(cfg)
	server := asynq.NewServer(opt, serverCfg)
	mux := asynq.NewServeMux()
	consumer.Register(mux)
	return &Service{
		name:            "worker",
		server:          server,
		mux:             mux,
		consumer:        consumer,
		approveInterval: resolveApproveInterval(consumer),
	}, nil
}

// Name 服务名称
func (s *Service) Name() string {
	if s == nil || s.name == "" {
		return "worker"
	}
	return s.name
}

// Start 启动服务
func (s *Service) Start(ctx context.Context) error {
	if s == nil || s.server == nil || s.mux == nil {
		return errors.New("worker not initialized")
	}
	if s.consumer != nil && s.consumer.CommissionService != nil {
		go s.runApproveLoop(ctx)
	}
	return s.server.Run(s.mux)
}

// Stop 停止服务
func (s *Service) Stop(ctx context.Context) error {
	if s == nil || s.server == nil {
		return nil
	}
	_ = ctx
	s.server.Shutdown()
	return nil
}

func (s *Service) runApproveLoop(ctx context.Context) {
	if s == nil || s.consumer == nil {
		return
	}
	runApproveLoop(ctx, s.consumer, s.approveInterval)
}

// ApproveService 仅运行佣金定时审核（队列未启用时使用）
type ApproveService struct {
	consumer *Consumer
	interval time.Duration
}

// NewApproveService 创建定时审核服务
func NewApproveService(consumer *Consumer) *ApproveService {
	return &ApproveService{consumer: consumer, interval: resolveApproveInterval(consumer)}
}

// Name 服务名称
func (s *ApproveService) Name() string {
	return "commission_approver"
}

// Start 启动定时审核，阻塞直到 ctx 结束
func (s *ApproveService) Start(ctx context.Context) error {
	if s == nil || s.consumer == nil || s.consumer.Container == nil {
		return errors.New("approve service not initialized")
	}
	runApproveLoop(ctx, s.consumer, s.interval)
	return nil
}

// Stop 停止服务
func (s *ApproveService) Stop(ctx context.Context) error {
	return nil
}

func runApproveLoop(ctx context.Context, consumer *Consumer, interval time.Duration) {
	if interval <= 0 {
		interval = defaultApproveInterval
	}
	consumer.approveDueOnce(time.Now())

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			consumer.approveDueOnce(now)
		}
	}
}

// approveDueOnce 审核一次到期佣金，失败只记录日志
func (c *Consumer) approveDueOnce(now time.Time) int64 {
	if c == nil || c.CommissionService == nil {
		return 0
	}
	approved, err := c.CommissionService.ApproveDueCommissions(now)
	if err != nil {
		logger.Warnw("worker_affiliate_approve_due_failed", "error", err)
		return 0
	}
	return approved
}

func resolveApproveInterval(consumer *Consumer) time.Duration {
	if consumer == nil || consumer.Container == nil || consumer.Config == nil {
		return defaultApproveInterval
	}
	if seconds := consumer.Config.Affiliate.ApproveIntervalSeconds; seconds > 0 {
		return time.Duration(seconds) * time.Second
	}
	return defaultApproveInterval
}
