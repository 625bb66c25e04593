package tasks

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"academy_app_echo/internal/models"
	"academy_app_echo/internal/repository"
	"academy_app_echo/internal/services"
)

type fakeSubRepo struct {
	repository.SubscriptionRepository
	subs map[uint]*models.WebhookSubscription
}

func (r *fakeSubRepo) FindByID(_ context.Context, id uint) (*models.WebhookSubscription, error) {
	return r.subs[id], nil
}

func (r *fakeSubRepo) ActiveForEvent(_ context.Context, eventType string) ([]models.WebhookSubscription, error) {
	return nil, nil
}

type fakeLogRepo struct {
	repository.DeliveryLogRepository
	failed   []models.WebhookDeliveryLog
	attempts int64
	appended []models.WebhookDeliveryLog
}

func (r *fakeLogRepo) FailedSince(_ context.Context, _ time.Time, _ int) ([]models.WebhookDeliveryLog, error) {
	return r.failed, nil
}

func (r *fakeLogRepo) CountAttempts(_ context.Context, _ uint, _ string, _ json.RawMessage) (int64, error) {
	return r.attempts, nil
}

func (r *fakeLogRepo) Append(_ context.Context, entry *models.WebhookDeliveryLog) error {
	r.appended = append(r.appended, *entry)
	return nil
}

func reaperDeps(subs *fakeSubRepo, logs *fakeLogRepo) *Deps {
	log := zap.NewNop().Sugar()
	return &Deps{
		Repos:      &repository.Repositories{Subscriptions: subs, DeliveryLogs: logs},
		Dispatcher: services.NewWebhookDispatcher(subs, logs, time.Second, log),
		Log:        log,
	}
}

func reaperTask() models.ScheduledTask {
	return models.ScheduledTask{
		TaskName:  RedispatchFailedDeliveriesTask.TaskID(),
		Arguments: map[string]interface{}{},
		TaskType:  models.ScheduledTaskTypeRecurring,
	}
}

func TestRedispatchReplaysFailedDelivery(t *testing.T) {
	var hits int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	subs := &fakeSubRepo{subs: map[uint]*models.WebhookSubscription{
		1: {ID: 1, URL: server.URL, Events: []string{"payment.succeeded"}, IsActive: true},
	}}
	logs := &fakeLogRepo{
		failed: []models.WebhookDeliveryLog{
			{WebhookID: 1, EventType: "payment.succeeded", Payload: json.RawMessage(`{"event":"payment.succeeded"}`)},
		},
		attempts: 1,
	}

	result, err := RedispatchFailedDeliveriesTask.HandleExecution(context.Background(), reaperDeps(subs, logs), reaperTask())
	require.NoError(t, err)

	assert.Equal(t, 1, hits)
	assert.Equal(t, 1, result["replayed"])
	assert.Equal(t, 0, result["skipped"])
	require.Len(t, logs.appended, 1, "the replay itself is logged")
	assert.True(t, logs.appended[0].IsSuccess)
	assert.Equal(t, json.RawMessage(`{"event":"payment.succeeded"}`), logs.appended[0].Payload,
		"the exact original bytes are replayed")
}

func TestRedispatchSkipsRescopedSubscription(t *testing.T) {
	tests := []struct {
		name string
		sub  *models.WebhookSubscription
	}{
		{"deleted subscription", nil},
		{"deactivated", &models.WebhookSubscription{ID: 1, IsActive: false, Events: []string{"payment.succeeded"}}},
		{"event no longer allow-listed", &models.WebhookSubscription{ID: 1, IsActive: true, Events: []string{"course.created"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			subs := &fakeSubRepo{subs: map[uint]*models.WebhookSubscription{}}
			if tt.sub != nil {
				subs.subs[1] = tt.sub
			}
			logs := &fakeLogRepo{
				failed: []models.WebhookDeliveryLog{
					{WebhookID: 1, EventType: "payment.succeeded", Payload: json.RawMessage(`{}`)},
				},
			}

			result, err := RedispatchFailedDeliveriesTask.HandleExecution(context.Background(), reaperDeps(subs, logs), reaperTask())
			require.NoError(t, err)

			assert.Equal(t, 1, result["skipped"])
			assert.Empty(t, logs.appended)
		})
	}
}

func TestRedispatchStopsAtAttemptBudget(t *testing.T) {
	subs := &fakeSubRepo{subs: map[uint]*models.WebhookSubscription{
		1: {ID: 1, URL: "http://unused.invalid", Events: []string{"payment.succeeded"}, IsActive: true},
	}}
	logs := &fakeLogRepo{
		failed: []models.WebhookDeliveryLog{
			{WebhookID: 1, EventType: "payment.succeeded", Payload: json.RawMessage(`{}`)},
		},
		attempts: 5,
	}

	result, err := RedispatchFailedDeliveriesTask.HandleExecution(context.Background(), reaperDeps(subs, logs), reaperTask())
	require.NoError(t, err)

	assert.Equal(t, 1, result["exhausted"])
	assert.Empty(t, logs.appended)
}
