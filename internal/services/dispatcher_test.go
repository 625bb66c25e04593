package services

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"academy_app_echo/internal/models"
	"academy_app_echo/internal/repository"
)

type stubSubscriptionRepo struct {
	repository.SubscriptionRepository
	subs []models.WebhookSubscription
}

func (s *stubSubscriptionRepo) ActiveForEvent(_ context.Context, eventType string) ([]models.WebhookSubscription, error) {
	return repository.FilterByEvent(s.subs, eventType), nil
}

type recordingLogRepo struct {
	repository.DeliveryLogRepository
	mu      sync.Mutex
	entries []models.WebhookDeliveryLog
}

func (r *recordingLogRepo) Append(_ context.Context, entry *models.WebhookDeliveryLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, *entry)
	return nil
}

func newTestDispatcher(subs []models.WebhookSubscription) (*WebhookDispatcher, *recordingLogRepo) {
	logs := &recordingLogRepo{}
	d := NewWebhookDispatcher(&stubSubscriptionRepo{subs: subs}, logs, 2*time.Second, zap.NewNop().Sugar())
	return d, logs
}

func TestDispatchFanOutIsolatesFailures(t *testing.T) {
	var okHits, badHits int
	okServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		okHits++
		w.WriteHeader(http.StatusOK)
	}))
	defer okServer.Close()
	badServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		badHits++
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer badServer.Close()

	subs := []models.WebhookSubscription{
		{ID: 1, URL: okServer.URL, Events: []string{"payment.succeeded"}, IsActive: true},
		{ID: 2, URL: badServer.URL, Events: []string{"payment.succeeded"}, IsActive: true},
		{ID: 3, URL: okServer.URL, Events: []string{"payment.succeeded"}, IsActive: true},
	}
	d, logs := newTestDispatcher(subs)

	d.Dispatch(context.Background(), "payment.succeeded", map[string]interface{}{"payment_id": 1})

	assert.Equal(t, 2, okHits, "failing subscriber must not stop the fan-out")
	assert.Equal(t, 1, badHits)

	require.Len(t, logs.entries, 3)
	assert.True(t, logs.entries[0].IsSuccess)
	assert.False(t, logs.entries[1].IsSuccess)
	require.NotNil(t, logs.entries[1].ResponseStatus)
	assert.Equal(t, http.StatusInternalServerError, *logs.entries[1].ResponseStatus)
	assert.True(t, logs.entries[2].IsSuccess)
}

func TestDispatchFiltersByEvent(t *testing.T) {
	var hits int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
	}))
	defer server.Close()

	subs := []models.WebhookSubscription{
		{ID: 1, URL: server.URL, Events: []string{"course.created"}, IsActive: true},
	}
	d, logs := newTestDispatcher(subs)

	d.Dispatch(context.Background(), "payment.succeeded", nil)

	assert.Zero(t, hits, "non-matching subscription must not be called")
	assert.Empty(t, logs.entries)
}

func TestDispatchSkipsInactiveSubscription(t *testing.T) {
	var hits int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
	}))
	defer server.Close()

	subs := []models.WebhookSubscription{
		{ID: 1, URL: server.URL, Events: []string{"payment.succeeded"}, IsActive: false},
	}
	d, logs := newTestDispatcher(subs)

	d.Dispatch(context.Background(), "payment.succeeded", map[string]interface{}{"payment_id": 9})

	assert.Zero(t, hits, "disabled subscription must not be called even when the event matches")
	assert.Empty(t, logs.entries)
}

func TestDispatchSignsExactBody(t *testing.T) {
	const secret = "whsec_abc"
	var gotSig string
	var gotBody []byte
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotSig = r.Header.Get(SignatureHeader)
		gotBody, _ = io.ReadAll(r.Body)
	}))
	defer server.Close()

	subs := []models.WebhookSubscription{
		{ID: 7, URL: server.URL, Events: []string{"payment.succeeded"}, IsActive: true, SecretKey: secret},
	}
	d, logs := newTestDispatcher(subs)

	d.Dispatch(context.Background(), "payment.succeeded", map[string]interface{}{"payment_id": 42})

	require.NotEmpty(t, gotSig)
	assert.True(t, VerifyPayloadSignature(secret, gotBody, gotSig),
		"signature must verify against the exact received bytes")

	var envelope Envelope
	require.Len(t, logs.entries, 1)
	require.NoError(t, json.Unmarshal(logs.entries[0].Payload, &envelope))
	assert.Equal(t, "payment.succeeded", envelope.Event)
	_, err := time.Parse(time.RFC3339, envelope.Timestamp)
	assert.NoError(t, err)
}

func TestDispatchRecordsTransportFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	deadURL := server.URL
	server.Close()

	subs := []models.WebhookSubscription{
		{ID: 1, URL: deadURL, Events: []string{"payment.succeeded"}, IsActive: true},
	}
	d, logs := newTestDispatcher(subs)

	d.Dispatch(context.Background(), "payment.succeeded", nil)

	require.Len(t, logs.entries, 1)
	entry := logs.entries[0]
	assert.False(t, entry.IsSuccess)
	assert.Nil(t, entry.ResponseStatus, "transport failure has no HTTP status")
	require.NotNil(t, entry.ErrorMessage)
	assert.NotEmpty(t, *entry.ErrorMessage)
}

func TestDispatchNeverPanicsOnUnmarshalablePayload(t *testing.T) {
	d, logs := newTestDispatcher(nil)

	assert.NotPanics(t, func() {
		d.Dispatch(context.Background(), "payment.succeeded", make(chan int))
	})
	assert.Empty(t, logs.entries)
}
