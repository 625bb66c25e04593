package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"academy_app_echo/internal/models"
	"academy_app_echo/internal/repository"
	"academy_app_echo/pkg/metrics"
)

// maxLoggedResponseBody caps how much of a subscriber's response is
// persisted per delivery attempt.
const maxLoggedResponseBody = 5000

// DefaultDispatchTimeout bounds a single subscriber call.
const DefaultDispatchTimeout = 10 * time.Second

// EventDispatcher fans a domain event out to registered subscribers.
// Dispatch never returns an error: delivery failures are logged and
// recorded per subscriber, they must not surface into the business
// operation that produced the event.
type EventDispatcher interface {
	Dispatch(ctx context.Context, eventType string, payload interface{})
}

// Envelope is the wire format sent to subscribers. The signature, when
// present, is computed over the exact marshaled bytes of this struct.
type Envelope struct {
	Event     string      `json:"event"`
	Timestamp string      `json:"timestamp"`
	Data      interface{} `json:"data"`
}

// WebhookDispatcher delivers events sequentially to each active
// subscription whose allow-list contains the event type.
type WebhookDispatcher struct {
	subs   repository.SubscriptionRepository
	logs   repository.DeliveryLogRepository
	client *http.Client
	log    *zap.SugaredLogger
}

func NewWebhookDispatcher(subs repository.SubscriptionRepository, logs repository.DeliveryLogRepository, timeout time.Duration, log *zap.SugaredLogger) *WebhookDispatcher {
	if timeout <= 0 {
		timeout = DefaultDispatchTimeout
	}
	return &WebhookDispatcher{
		subs:   subs,
		logs:   logs,
		client: &http.Client{Timeout: timeout},
		log:    log,
	}
}

// Dispatch wraps payload in the event envelope and delivers it to every
// eligible subscriber. Errors are swallowed after logging.
func (d *WebhookDispatcher) Dispatch(ctx context.Context, eventType string, payload interface{}) {
	defer func() {
		if r := recover(); r != nil {
			d.log.Errorw("webhook dispatch panicked", "event_type", eventType, "panic", r)
		}
	}()

	envelope := Envelope{
		Event:     eventType,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Data:      payload,
	}
	body, err := json.Marshal(envelope)
	if err != nil {
		d.log.Errorw("failed to marshal event envelope", "event_type", eventType, "error", err)
		return
	}

	subs, err := d.subs.ActiveForEvent(ctx, eventType)
	if err != nil {
		d.log.Errorw("failed to load webhook subscriptions", "event_type", eventType, "error", err)
		return
	}
	if len(subs) == 0 {
		return
	}

	for _, sub := range subs {
		d.DeliverRaw(ctx, sub, eventType, body)
	}
}

// DeliverRaw posts the already-marshaled envelope bytes to a single
// subscription and appends a delivery log entry. Exported so the
// redispatch task can replay the exact bytes of a failed delivery.
func (d *WebhookDispatcher) DeliverRaw(ctx context.Context, sub models.WebhookSubscription, eventType string, body []byte) bool {
	entry := models.WebhookDeliveryLog{
		WebhookID: sub.ID,
		EventType: eventType,
		Payload:   json.RawMessage(body),
	}

	start := time.Now()
	status, respBody, err := d.post(ctx, sub, body)
	metrics.WebhookDeliveryTime.WithLabelValues(eventType).Observe(time.Since(start).Seconds())

	if status != 0 {
		entry.ResponseStatus = &status
		entry.ResponseBody = respBody
	}
	if err != nil {
		msg := err.Error()
		entry.ErrorMessage = &msg
	}
	entry.IsSuccess = err == nil && status >= 200 && status < 300

	outcome := "failure"
	if entry.IsSuccess {
		outcome = "success"
	} else {
		d.log.Warnw("webhook delivery failed",
			"webhook_id", sub.ID,
			"url", sub.URL,
			"event_type", eventType,
			"status", status,
			"error", err,
		)
	}
	metrics.WebhookDeliveries.WithLabelValues(eventType, outcome).Inc()

	if logErr := d.logs.Append(ctx, &entry); logErr != nil {
		d.log.Errorw("failed to append delivery log entry", "webhook_id", sub.ID, "error", logErr)
	}
	return entry.IsSuccess
}

func (d *WebhookDispatcher) post(ctx context.Context, sub models.WebhookSubscription, body []byte) (status int, respBody string, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, sub.URL, bytes.NewReader(body))
	if err != nil {
		return 0, "", err
	}
	req.Header.Set("Content-Type", "application/json")
	if sub.SecretKey != "" {
		req.Header.Set(SignatureHeader, SignPayload(sub.SecretKey, body))
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return 0, "", err
	}
	defer resp.Body.Close()

	limited, _ := io.ReadAll(io.LimitReader(resp.Body, maxLoggedResponseBody))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return resp.StatusCode, string(limited), fmt.Errorf("subscriber returned status %d", resp.StatusCode)
	}
	return resp.StatusCode, string(limited), nil
}
