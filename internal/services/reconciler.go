package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"academy_app_echo/internal/gateway"
	"academy_app_echo/internal/models"
	"academy_app_echo/internal/repository"
	"academy_app_echo/pkg/metrics"
)

// ErrUnknownGateway is returned when a callback names a gateway that is
// not registered.
var ErrUnknownGateway = errors.New("unknown payment gateway")

// ReconcileOutcome classifies how an inbound notification was handled.
// Every outcome is acknowledged with a 2xx so the gateway stops
// retrying; only unexpected errors surface as non-2xx.
type ReconcileOutcome string

const (
	// OutcomeSuccess means a payment status actually transitioned.
	OutcomeSuccess ReconcileOutcome = "success"
	// OutcomeIgnored covers malformed envelopes, non-payment events,
	// test pings and duplicate notifications for the current state.
	OutcomeIgnored ReconcileOutcome = "ignored"
	// OutcomeWarning means the notification referenced state the local
	// store cannot act on, worth surfacing but not fatal.
	OutcomeWarning ReconcileOutcome = "warning"
)

// ReconcileResult is the classified outcome of one inbound callback.
type ReconcileResult struct {
	Outcome   ReconcileOutcome `json:"outcome"`
	Reason    string           `json:"reason,omitempty"`
	PaymentID uint             `json:"payment_id,omitempty"`
	Status    string           `json:"status,omitempty"`
	Enrolled  bool             `json:"enrolled,omitempty"`
}

// PaymentSucceededEvent is the payload dispatched to subscribers when a
// payment transitions into succeeded.
type PaymentSucceededEvent struct {
	PaymentID        uint                  `json:"payment_id"`
	UserID           uint                  `json:"user_id"`
	CourseID         uint                  `json:"course_id"`
	Amount           float64               `json:"amount"`
	Gateway          models.PaymentGateway `json:"gateway"`
	GatewayPaymentID string                `json:"gateway_payment_id"`
}

// EventPaymentSucceeded is the event type fanned out on settlement.
const EventPaymentSucceeded = "payment.succeeded"

// TaskSendEnrollmentEmail is the one-time task scheduled when an
// enrollment is created by the reconciler.
const TaskSendEnrollmentEmail = "send_enrollment_email"

// ReconciliationService folds inbound gateway notifications into the
// local payment store: verify, re-fetch the authoritative resource,
// map the status and apply it at most once, then create the enrollment
// and fan out the domain event on settlement.
type ReconciliationService struct {
	gateways   gateway.Registry
	payments   repository.PaymentRepository
	enrolls    repository.EnrollmentRepository
	history    repository.CallbackHistoryRepository
	tasks      repository.TaskRepository
	dispatcher EventDispatcher
	log        *zap.SugaredLogger
}

func NewReconciliationService(
	gateways gateway.Registry,
	repos *repository.Repositories,
	dispatcher EventDispatcher,
	log *zap.SugaredLogger,
) *ReconciliationService {
	return &ReconciliationService{
		gateways:   gateways,
		payments:   repos.Payments,
		enrolls:    repos.Enrollments,
		history:    repos.CallbackHistory,
		tasks:      repos.Tasks,
		dispatcher: dispatcher,
		log:        log,
	}
}

// Reconcile processes one raw gateway callback. A non-nil error means
// something unexpected happened and the caller should answer non-2xx so
// the gateway redelivers; every classified outcome returns nil error
// and must be acknowledged with a 2xx.
func (s *ReconciliationService) Reconcile(ctx context.Context, gatewayName models.PaymentGateway, body []byte, headers http.Header) (*ReconcileResult, error) {
	gw, ok := s.gateways.Lookup(gatewayName)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownGateway, gatewayName)
	}

	// Record the raw callback before any classification so the audit
	// trail also covers malformed and rejected payloads.
	if err := s.history.Record(ctx, gatewayName, body, headers.Get("X-Request-Id")); err != nil {
		s.log.Errorw("failed to record payment callback", "gateway", gatewayName, "error", err)
	}

	result, err := s.reconcile(ctx, gw, body, headers)
	if err != nil {
		metrics.PaymentReconciliations.WithLabelValues(string(gatewayName), "error").Inc()
		return nil, err
	}
	metrics.PaymentReconciliations.WithLabelValues(string(gatewayName), string(result.Outcome)).Inc()
	return result, nil
}

func (s *ReconciliationService) reconcile(ctx context.Context, gw gateway.Gateway, body []byte, headers http.Header) (*ReconcileResult, error) {
	if err := gw.VerifyNotification(body, headers); err != nil {
		s.log.Warnw("gateway notification failed signature verification", "gateway", gw.Name(), "error", err)
		return &ReconcileResult{Outcome: OutcomeWarning, Reason: "signature verification failed"}, nil
	}

	notif, ok := gw.ParseNotification(body)
	if !ok {
		return &ReconcileResult{Outcome: OutcomeIgnored, Reason: "unparseable notification"}, nil
	}
	if notif.Kind != "payment" {
		return &ReconcileResult{Outcome: OutcomeIgnored, Reason: "unhandled notification type: " + notif.Kind}, nil
	}

	// The envelope is only a pointer. Re-fetch the authoritative state
	// so a forged payload can never flip a payment.
	remote, err := gw.FetchPayment(ctx, notif.ResourceID)
	if err != nil {
		if errors.Is(err, gateway.ErrPaymentNotFound) {
			return &ReconcileResult{Outcome: OutcomeIgnored, Reason: "payment resource not found at gateway"}, nil
		}
		return nil, fmt.Errorf("fetch payment %s from %s: %w", notif.ResourceID, gw.Name(), err)
	}

	next := gw.MapStatus(remote.Status)

	payment, err := s.payments.FindByGatewayRef(ctx, gw.Name(), remote.GatewayPaymentID, remote.ExternalReference)
	if err != nil {
		return nil, fmt.Errorf("locate payment for gateway ref %s: %w", remote.GatewayPaymentID, err)
	}
	if payment == nil {
		s.log.Warnw("gateway notified about unknown payment",
			"gateway", gw.Name(),
			"gateway_payment_id", remote.GatewayPaymentID,
			"external_reference", remote.ExternalReference,
		)
		return &ReconcileResult{Outcome: OutcomeWarning, Reason: "no local payment matches gateway reference"}, nil
	}

	metadata := map[string]interface{}{
		models.MetaGatewayPaymentID: remote.GatewayPaymentID,
		models.MetaStatusDetail:     remote.StatusDetail,
	}
	if remote.PaymentMethod != "" {
		metadata[models.MetaPaymentMethod] = remote.PaymentMethod
	}
	if remote.Installments > 0 {
		metadata[models.MetaInstallments] = remote.Installments
	}

	transitioned, err := s.payments.ApplyStatus(ctx, payment.ID, next, metadata)
	if err != nil {
		return nil, fmt.Errorf("apply status %s to payment %d: %w", next, payment.ID, err)
	}
	if !transitioned {
		return &ReconcileResult{
			Outcome:   OutcomeIgnored,
			Reason:    "status unchanged",
			PaymentID: payment.ID,
			Status:    string(next),
		}, nil
	}

	s.log.Infow("payment status transitioned",
		"payment_id", payment.ID,
		"gateway", gw.Name(),
		"from", payment.Status,
		"to", next,
	)

	result := &ReconcileResult{Outcome: OutcomeSuccess, PaymentID: payment.ID, Status: string(next)}

	if next == models.PaymentStatusSucceeded {
		enrolled, err := s.onPaymentSucceeded(ctx, payment, remote)
		if err != nil {
			return nil, err
		}
		result.Enrolled = enrolled
	}
	return result, nil
}

// onPaymentSucceeded creates the enrollment exactly once and fans out
// the settlement event. The dispatch and email are best effort; only an
// enrollment store failure propagates, so the gateway retries and the
// ON CONFLICT guard absorbs the duplicate.
func (s *ReconciliationService) onPaymentSucceeded(ctx context.Context, payment *models.Payment, remote *gateway.Payment) (bool, error) {
	created, err := s.enrolls.CreateIfAbsent(ctx, &models.Enrollment{
		UserID:     payment.UserID,
		CourseID:   payment.CourseID,
		PaymentID:  &payment.ID,
		EnrolledAt: time.Now(),
	})
	if err != nil {
		return false, fmt.Errorf("create enrollment for payment %d: %w", payment.ID, err)
	}

	if created {
		s.log.Infow("enrollment created", "user_id", payment.UserID, "course_id", payment.CourseID, "payment_id", payment.ID)
		s.scheduleEnrollmentEmail(ctx, payment)
	}

	s.dispatcher.Dispatch(ctx, EventPaymentSucceeded, PaymentSucceededEvent{
		PaymentID:        payment.ID,
		UserID:           payment.UserID,
		CourseID:         payment.CourseID,
		Amount:           payment.Amount,
		Gateway:          payment.Gateway,
		GatewayPaymentID: remote.GatewayPaymentID,
	})
	return created, nil
}

func (s *ReconciliationService) scheduleEnrollmentEmail(ctx context.Context, payment *models.Payment) {
	task := &models.ScheduledTask{
		TaskName: TaskSendEnrollmentEmail,
		Arguments: map[string]interface{}{
			"user_id":   payment.UserID,
			"course_id": payment.CourseID,
		},
		Due:        time.Now(),
		Status:     models.ScheduledTaskStatusActive,
		TaskType:   models.ScheduledTaskTypeOneTime,
		MaxAttempt: 3,
	}
	if err := s.tasks.Schedule(ctx, task); err != nil {
		s.log.Errorw("failed to schedule enrollment email", "payment_id", payment.ID, "error", err)
	}
}
