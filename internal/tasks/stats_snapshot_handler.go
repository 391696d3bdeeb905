package tasks

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/makkenzo/cnc-license-admin/internal/clock"
	"github.com/makkenzo/cnc-license-admin/internal/handler/dto"
	"github.com/makkenzo/cnc-license-admin/internal/metrics"
	"go.uber.org/zap"
)

type StatsComputer interface {
	ComputeStats(ctx context.Context) (*dto.StatsResponse, error)
}

// StatsSnapshotHandler publishes dashboard counters as gauges. It only reads the store.
type StatsSnapshotHandler struct {
	stats   StatsComputer
	metrics *metrics.LicenseMetrics
	jobs    *metrics.JobMetrics
	clock   clock.Clock
	logger  *zap.Logger
}

func NewStatsSnapshotHandler(
	stats StatsComputer,
	m *metrics.LicenseMetrics,
	jobs *metrics.JobMetrics,
	clk clock.Clock,
	logger *zap.Logger,
) *StatsSnapshotHandler {
	return &StatsSnapshotHandler{
		stats:   stats,
		metrics: m,
		jobs:    jobs,
		clock:   clk,
		logger:  logger.Named("StatsSnapshotHandler"),
	}
}

func (h *StatsSnapshotHandler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	if t.Type() != TypeStatsSnapshot {
		return fmt.Errorf("unexpected task type: %s", t.Type())
	}

	var p StatsSnapshotPayload
	if len(t.Payload()) > 0 {
		if err := json.Unmarshal(t.Payload(), &p); err != nil {
			h.logger.Error("Failed to unmarshal stats snapshot payload", zap.Error(err), zap.ByteString("payload", t.Payload()))
			return fmt.Errorf("invalid payload: %v: %w", err, asynq.SkipRetry)
		}
	}

	start := h.clock.Now()
	err := h.snapshot(ctx)
	h.jobs.Observe(TypeStatsSnapshot, h.clock.Now().Sub(start), err)
	return err
}

func (h *StatsSnapshotHandler) snapshot(ctx context.Context) error {
	stats, err := h.stats.ComputeStats(ctx)
	if err != nil {
		h.logger.Error("Failed to compute stats snapshot", zap.Error(err))
		return fmt.Errorf("compute stats: %w", err)
	}

	taken := h.clock.Now()
	h.metrics.SetStats(stats.AsMap(), taken)

	h.logger.Info("Stats snapshot published",
		zap.Int("total_requests", stats.TotalRequests),
		zap.Int("pending_requests", stats.PendingRequests),
		zap.Int("approved_requests", stats.ApprovedRequests),
		zap.Int("active_users", stats.ActiveUsers),
		zap.Int("expired_users", stats.ExpiredUsers),
	)
	return nil
}
