package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"academy_app_echo/internal/gateway"
	"academy_app_echo/internal/models"
	"academy_app_echo/internal/repository"
)

var (
	ErrCourseNotFound    = errors.New("course not found")
	ErrCourseUnpublished = errors.New("course is not published")
	ErrAlreadyEnrolled   = errors.New("user is already enrolled in this course")
)

// CheckoutResult is what the client needs to continue the payment at
// the gateway.
type CheckoutResult struct {
	PaymentID   uint   `json:"payment_id"`
	Token       string `json:"token,omitempty"`
	RedirectURL string `json:"redirect_url"`
}

// PaymentService initiates checkouts against a payment gateway and
// reads payment state back for clients. Settlement is driven entirely
// by the reconciler; this service only ever creates pending payments.
type PaymentService struct {
	db       *gorm.DB
	gateways gateway.Registry
	payments repository.PaymentRepository
	enrolls  repository.EnrollmentRepository
	appURL   string
	log      *zap.SugaredLogger
}

func NewPaymentService(db *gorm.DB, gateways gateway.Registry, repos *repository.Repositories, appURL string, log *zap.SugaredLogger) *PaymentService {
	return &PaymentService{
		db:       db,
		gateways: gateways,
		payments: repos.Payments,
		enrolls:  repos.Enrollments,
		appURL:   appURL,
		log:      log,
	}
}

// InitiateCheckout creates a pending payment for the course and opens a
// checkout session at the gateway. The fresh external reference is the
// correlation handle the reconciler later matches notifications on.
func (s *PaymentService) InitiateCheckout(ctx context.Context, userID, courseID uint, gatewayName models.PaymentGateway) (*CheckoutResult, error) {
	gw, ok := s.gateways.Lookup(gatewayName)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownGateway, gatewayName)
	}

	var user models.User
	if err := s.db.WithContext(ctx).First(&user, userID).Error; err != nil {
		return nil, fmt.Errorf("load user %d: %w", userID, err)
	}

	var course models.Course
	if err := s.db.WithContext(ctx).First(&course, courseID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCourseNotFound
		}
		return nil, fmt.Errorf("load course %d: %w", courseID, err)
	}
	if !course.IsPublished {
		return nil, ErrCourseUnpublished
	}

	existing, err := s.enrolls.FindByUserCourse(ctx, userID, courseID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrAlreadyEnrolled
	}

	externalRef := uuid.NewString()
	payment := &models.Payment{
		UserID:            userID,
		CourseID:          courseID,
		Amount:            course.Price,
		Currency:          course.Currency,
		Status:            models.PaymentStatusPending,
		Gateway:           gatewayName,
		ExternalReference: externalRef,
		Metadata:          map[string]interface{}{},
	}
	if err := s.payments.Create(ctx, payment); err != nil {
		return nil, fmt.Errorf("create payment: %w", err)
	}

	session, err := gw.CreateCheckout(ctx, gateway.CheckoutRequest{
		OrderID:     externalRef,
		Amount:      course.Price,
		Currency:    course.Currency,
		Title:       course.Title,
		PayerName:   user.Name,
		PayerEmail:  user.Email,
		SuccessURL:  s.appURL + "/courses/" + course.Slug,
		CallbackURL: s.appURL + "/webhooks/" + string(gatewayName),
	})
	if err != nil {
		s.log.Errorw("gateway checkout failed", "payment_id", payment.ID, "gateway", gatewayName, "error", err)
		return nil, fmt.Errorf("create checkout at %s: %w", gatewayName, err)
	}

	meta := map[string]interface{}{
		models.MetaCheckoutURL: session.RedirectURL,
	}
	if session.Token != "" {
		meta[models.MetaCheckoutToken] = session.Token
	}
	if session.GatewayRef != "" {
		meta[models.MetaGatewayPaymentID] = session.GatewayRef
	}
	if err := s.payments.MergeMetadata(ctx, payment.ID, meta); err != nil {
		// The session is already open at the gateway; losing the
		// checkout metadata is recoverable via the reconciler.
		s.log.Errorw("failed to persist checkout metadata", "payment_id", payment.ID, "error", err)
	}

	return &CheckoutResult{
		PaymentID:   payment.ID,
		Token:       session.Token,
		RedirectURL: session.RedirectURL,
	}, nil
}

// GetPayment returns a payment if it belongs to userID.
func (s *PaymentService) GetPayment(ctx context.Context, id, userID uint) (*models.Payment, error) {
	payment, err := s.payments.FindByID(ctx, id)
	if err != nil || payment == nil {
		return payment, err
	}
	if payment.UserID != userID {
		return nil, nil
	}
	return payment, nil
}
