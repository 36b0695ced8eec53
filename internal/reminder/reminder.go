// Package reminder wires up the cron job that periodically publishes a
// pending-review digest: for every employer with PENDING applications, one
// event on the digest channel so the Gateway can nudge them over SSE.
package reminder

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"

	"jobdesk/board-service/internal/board"
)

// Channel the digest is published on.
const EventPendingReviewDigest = "EVENT_PENDING_REVIEW_DIGEST"

// Scheduler wraps robfig/cron and manages the digest loop.
type Scheduler struct {
	cron *cron.Cron
	svc  *board.Service
	rdb  *redis.Client
	spec string // cron spec, e.g. "@every 6h"
}

// New creates a Scheduler that fires every intervalHours hours.
func New(svc *board.Service, rdb *redis.Client, intervalHours int) *Scheduler {
	return &Scheduler{
		cron: cron.New(cron.WithLogger(cron.DefaultLogger)),
		svc:  svc,
		rdb:  rdb,
		spec: fmt.Sprintf("@every %dh", intervalHours),
	}
}

// Start registers the job and starts the scheduler.
func (s *Scheduler) Start(ctx context.Context) error {
	_, err := s.cron.AddFunc(s.spec, func() {
		s.runDigest(ctx)
	})
	if err != nil {
		return fmt.Errorf("cron.AddFunc: %w", err)
	}

	s.cron.Start()
	slog.Info("reminder cron started", "spec", s.spec)
	return nil
}

// Stop gracefully shuts down the scheduler.
func (s *Scheduler) Stop() {
	s.cron.Stop()
	slog.Info("reminder cron stopped")
}

// runDigest publishes one digest event per employer with pending reviews.
func (s *Scheduler) runDigest(ctx context.Context) {
	counts, err := s.svc.PendingCountsByEmployer(ctx)
	if err != nil {
		slog.Warn("pending digest aborted", "err", err)
		return
	}
	if len(counts) == 0 {
		return
	}

	for employerID, pending := range counts {
		event, _ := json.Marshal(map[string]any{
			"type":       EventPendingReviewDigest,
			"employerId": employerID,
			"pending":    pending,
		})
		if err := s.rdb.Publish(ctx, EventPendingReviewDigest, event).Err(); err != nil {
			slog.Warn("publish pending digest failed", "employerId", employerID, "err", err)
		}
	}
	slog.Info("pending digest published", "employers", len(counts))
}
