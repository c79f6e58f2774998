package queue

import (
	"encoding/json"
	"testing"

	"github.com/affiliate-engine/internal/config"
)

func TestDisabledClientIsNoop(t *testing.T) {
	client, err := NewClient(&config.QueueConfig{Enabled: false})
	if err != nil {
		t.Fatalf("new client failed: %v", err)
	}
	if client.Enabled() {
		t.Fatalf("expected disabled client")
	}
	if err := client.EnqueueAffiliateConversion(AffiliateConversionPayload{OrderID: "o-1"}); err != nil {
		t.Fatalf("enqueue on disabled client failed: %v", err)
	}
	if err := client.EnqueueAffiliateReferral(AffiliateReferralPayload{UserID: 1, Status: "trial"}); err != nil {
		t.Fatalf("enqueue on disabled client failed: %v", err)
	}
	if err := client.Close(); err != nil {
		t.Fatalf("close disabled client failed: %v", err)
	}
	var nilClient *Client
	if nilClient.Enabled() {
		t.Fatalf("nil client must be disabled")
	}
}

func TestBuildServerConfig(t *testing.T) {
	opt, cfg := BuildServerConfig(nil)
	if opt.Addr != "127.0.0.1:6379" || cfg.Concurrency != defaultConcurrency {
		t.Fatalf("unexpected defaults addr=%s concurrency=%d", opt.Addr, cfg.Concurrency)
	}
	if cfg.Queues[CriticalQueue] <= cfg.Queues[DefaultQueue] {
		t.Fatalf("critical queue should have higher priority: %v", cfg.Queues)
	}

	opt, cfg = BuildServerConfig(&config.QueueConfig{
		Host:        "redis",
		Port:        6380,
		DB:          2,
		Concurrency: 4,
		Queues:      map[string]int{DefaultQueue: 1},
	})
	if opt.Addr != "redis:6380" || opt.DB != 2 || cfg.Concurrency != 4 || len(cfg.Queues) != 1 {
		t.Fatalf("unexpected overrides addr=%s db=%d cfg=%+v", opt.Addr, opt.DB, cfg)
	}
}

func TestConversionTaskPayload(t *testing.T) {
	task, err := NewAffiliateConversionTask(AffiliateConversionPayload{UserID: 7, OrderID: "o-9", Amount: "19.90"})
	if err != nil {
		t.Fatalf("new task failed: %v", err)
	}
	if task.Type() != TaskAffiliateConversion {
		t.Fatalf("unexpected task type %s", task.Type())
	}
	var payload AffiliateConversionPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		t.Fatalf("decode payload failed: %v", err)
	}
	if payload.Amount != "19.90" || payload.OrderID != "o-9" {
		t.Fatalf("unexpected payload %+v", payload)
	}
}
