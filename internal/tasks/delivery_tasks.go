package tasks

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v5"

	"academy_app_echo/internal/models"
	"academy_app_echo/pkg/metrics"
)

const (
	defaultRedispatchLookback   = time.Hour
	defaultRedispatchBatchLimit = 100
	defaultRedispatchMaxTries   = 3
	redispatchMaxInterval       = 30 * time.Second
)

// RedispatchFailedDeliveriesTaskDef is the recurring reaper that picks
// up failed webhook deliveries and replays the exact payload bytes.
// The dispatcher itself never retries, so this task is the only path a
// failed delivery is attempted again on.
type RedispatchFailedDeliveriesTaskDef struct{}

// TaskID returns the unique identifier for this task
func (t *RedispatchFailedDeliveriesTaskDef) TaskID() string {
	return "redispatch_failed_deliveries"
}

// CreateTask builds the recurring reaper task from an RRULE schedule.
func (t *RedispatchFailedDeliveriesTaskDef) CreateTask(recurringInterval string) (*models.ScheduledTask, error) {
	args := map[string]interface{}{}
	return BuildScheduledTask(t.TaskID(), args, time.Now(), &recurringInterval, models.ScheduledTaskTypeRecurring, 1)
}

// HandleExecution scans recent failed deliveries that have no later
// success for the same subscription and payload, and replays each one
// with in-run exponential backoff. Attempts are capped per payload
// across runs via the delivery log itself.
func (t *RedispatchFailedDeliveriesTaskDef) HandleExecution(ctx context.Context, deps *Deps, task models.ScheduledTask) (map[string]interface{}, error) {
	lookback := defaultRedispatchLookback
	if mins, ok := task.Arguments["lookback_minutes"].(float64); ok && mins > 0 {
		lookback = time.Duration(mins) * time.Minute
	}
	maxAttempts := int64(5)
	if v, ok := task.Arguments["max_attempts"].(float64); ok && v > 0 {
		maxAttempts = int64(v)
	}

	since := time.Now().Add(-lookback)
	failed, err := deps.Repos.DeliveryLogs.FailedSince(ctx, since, defaultRedispatchBatchLimit)
	if err != nil {
		return nil, err
	}

	var replayed, skipped, exhausted int
	for _, entry := range failed {
		if ctx.Err() != nil {
			break
		}

		sub, err := deps.Repos.Subscriptions.FindByID(ctx, entry.WebhookID)
		if err != nil {
			return nil, err
		}
		// The registry may have changed since the original attempt; a
		// removed, deactivated or re-scoped subscription is not retried.
		if sub == nil || !sub.IsActive || !sub.Subscribes(entry.EventType) {
			skipped++
			metrics.WebhookRedispatches.WithLabelValues("skipped").Inc()
			continue
		}

		attempts, err := deps.Repos.DeliveryLogs.CountAttempts(ctx, entry.WebhookID, entry.EventType, entry.Payload)
		if err != nil {
			return nil, err
		}
		if attempts >= maxAttempts {
			exhausted++
			metrics.WebhookRedispatches.WithLabelValues("exhausted").Inc()
			deps.Log.Warnw("delivery retry budget exhausted",
				"webhook_id", entry.WebhookID,
				"event_type", entry.EventType,
				"attempts", attempts,
			)
			continue
		}

		if t.replay(ctx, deps, *sub, entry) {
			replayed++
			metrics.WebhookRedispatches.WithLabelValues("success").Inc()
		} else {
			metrics.WebhookRedispatches.WithLabelValues("failure").Inc()
		}
	}

	return map[string]interface{}{
		"scanned":   len(failed),
		"replayed":  replayed,
		"skipped":   skipped,
		"exhausted": exhausted,
	}, nil
}

// replay attempts one delivery a few times with exponential backoff
// between tries. Every attempt is appended to the delivery log by the
// dispatcher, so the cross-run attempt cap keeps counting.
func (t *RedispatchFailedDeliveriesTaskDef) replay(ctx context.Context, deps *Deps, sub models.WebhookSubscription, entry models.WebhookDeliveryLog) bool {
	backoffCfg := backoff.NewExponentialBackOff()
	backoffCfg.MaxInterval = redispatchMaxInterval

	for try := 0; try < defaultRedispatchMaxTries; try++ {
		if deps.Dispatcher.DeliverRaw(ctx, sub, entry.EventType, entry.Payload) {
			return true
		}
		sleep := backoffCfg.NextBackOff()
		if sleep == backoff.Stop {
			sleep = redispatchMaxInterval
		}
		select {
		case <-ctx.Done():
			return false
		case <-time.After(sleep):
		}
	}
	return false
}

// RedispatchFailedDeliveriesTask is the singleton instance of
// RedispatchFailedDeliveriesTaskDef
var RedispatchFailedDeliveriesTask = &RedispatchFailedDeliveriesTaskDef{}
