package app

import (
	"errors"

	"github.com/affiliate-engine/internal/cache"
	"github.com/affiliate-engine/internal/logger"
	"github.com/affiliate-engine/internal/provider"
	"github.com/affiliate-engine/internal/router"
	"github.com/affiliate-engine/internal/worker"
)

// BuildRunner 按运行模式组装 HTTP 与后台任务服务
func BuildRunner(opts Options) (*Runner, error) {
	opts, err := normalizeOptions(opts)
	if err != nil {
		return nil, err
	}
	cfg := opts.Config
	if cfg == nil {
		return nil, errors.New("config is nil")
	}

	container := provider.NewContainer(cfg)
	runner := NewRunner()
	runner.OnShutdown(cache.Close)
	if container.QueueClient != nil {
		runner.OnShutdown(container.QueueClient.Close)
	}

	if opts.runsAPI() {
		runner.services = append(runner.services, NewHTTPService(cfg.Server, router.SetupRouter(cfg, container)))
	}

	// 队列未启用时只运行佣金定时审核
	if opts.runsWorker() {
		consumer := worker.NewConsumer(container)
		if cfg.Queue.Enabled {
			workerService, err := worker.NewService(&cfg.Queue, consumer)
			if err != nil {
				return nil, err
			}
			runner.services = append(runner.services, workerService)
		} else {
			logger.Warnw("app_queue_disabled_approve_only", "mode", opts.Mode)
			runner.services = append(runner.services, worker.NewApproveService(consumer))
		}
	}
	return runner, nil
}

// Run 应用入口
func Run(opts Options) error {
	opts, err := normalizeOptions(opts)
	if err != nil {
		return err
	}
	if opts.Config == nil {
		return errors.New("config is nil")
	}
	runner, err := BuildRunner(opts)
	if err != nil {
		return err
	}
	opts.Logger.Infow("app_start",
		"host", opts.Config.Server.Host,
		"port", opts.Config.Server.Port,
		"mode", opts.Mode,
	)
	return RunWithOptions(runner, opts)
}
