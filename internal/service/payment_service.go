package service

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"math"
	"regexp"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"checkpay/internal/domain"
	"checkpay/internal/email"
	"checkpay/internal/repository"
)

var (
	ErrInvalidBusinessName = errors.New("business name is required")
	ErrBusinessNameControl = errors.New("business name must not contain control characters")
	ErrInvalidQuantity     = errors.New("quantity must be a whole number greater than 0")
	ErrInvalidImage        = errors.New("check image must be valid base64")
	ErrImageTooLarge       = errors.New("check image too large")
)

const (
	DefaultPaymentsLimit = 50
	MaxPaymentsLimit     = 200

	notifyTimeout = 15 * time.Second
)

var imageDataURIPrefix = regexp.MustCompile(`^data:image/[a-zA-Z0-9.+-]+;base64,`)

type CreatePaymentInput struct {
	BusinessName     string
	QuantitySold     float64
	CheckImageBase64 string
}

// PaymentService registra pagos con cheque y avisa por correo.
type PaymentService struct {
	logger        *zap.Logger
	payments      repository.PaymentRepository
	sender        email.Sender
	notifyTo      string
	maxImageBytes int64
	now           func() time.Time
}

func NewPaymentService(logger *zap.Logger, payments repository.PaymentRepository, sender email.Sender, notifyTo string, maxImageBytes int64) *PaymentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	notifyTo = strings.TrimSpace(notifyTo)
	if email.IsDisabled(sender) {
		if notifyTo != "" {
			logger.Warn("no mail sender configured, payment notifications disabled", zap.String("notify_email", notifyTo))
		}
		sender = email.NewDisabledSender("")
		notifyTo = ""
	}
	if maxImageBytes <= 0 {
		maxImageBytes = 10 << 20
	}
	return &PaymentService{
		logger:        logger,
		payments:      payments,
		sender:        sender,
		notifyTo:      notifyTo,
		maxImageBytes: maxImageBytes,
		now:           func() time.Time { return time.Now().UTC() },
	}
}

func (s *PaymentService) Create(ctx context.Context, user domain.User, input CreatePaymentInput) (domain.Payment, error) {
	if s.payments == nil {
		return domain.Payment{}, errors.New("payment service not configured")
	}

	name := strings.TrimSpace(input.BusinessName)
	if name == "" {
		return domain.Payment{}, ErrInvalidBusinessName
	}
	if strings.IndexFunc(name, unicode.IsControl) >= 0 {
		return domain.Payment{}, ErrBusinessNameControl
	}
	qty := input.QuantitySold
	if math.IsNaN(qty) || qty <= 0 || qty != math.Trunc(qty) || qty > math.MaxInt32 {
		return domain.Payment{}, ErrInvalidQuantity
	}
	image, err := s.normalizeImage(input.CheckImageBase64)
	if err != nil {
		return domain.Payment{}, err
	}

	payment := domain.Payment{
		ID:               uuid.NewString(),
		UserID:           user.ID,
		BusinessName:     name,
		QuantitySold:     int(qty),
		CheckImageBase64: image,
		CreatedAt:        s.now(),
	}
	if err := s.payments.Create(ctx, payment); err != nil {
		return domain.Payment{}, fmt.Errorf("save payment: %w", err)
	}
	s.logger.Info("payment stored",
		zap.String("payment_id", payment.ID),
		zap.String("username", user.Username),
		zap.String("business_name", payment.BusinessName),
		zap.Int("quantity_sold", payment.QuantitySold),
	)

	s.notify(ctx, user, payment)
	return payment, nil
}

func (s *PaymentService) List(ctx context.Context, userID string, limit int) ([]domain.Payment, error) {
	if s.payments == nil {
		return nil, errors.New("payment service not configured")
	}
	if limit <= 0 {
		limit = DefaultPaymentsLimit
	}
	if limit > MaxPaymentsLimit {
		limit = MaxPaymentsLimit
	}
	return s.payments.ListByUser(ctx, userID, limit)
}

// normalizeImage quita el prefijo data URI y verifica que el base64 decodifique
// dentro del limite.
func (s *PaymentService) normalizeImage(raw string) (string, error) {
	raw = imageDataURIPrefix.ReplaceAllString(strings.TrimSpace(raw), "")
	if raw == "" {
		return "", ErrInvalidImage
	}
	if int64(base64.StdEncoding.DecodedLen(len(raw))) > s.maxImageBytes+2 {
		return "", ErrImageTooLarge
	}
	decoded, err := base64.StdEncoding.DecodeString(raw)
	if err != nil || len(decoded) == 0 {
		return "", ErrInvalidImage
	}
	if int64(len(decoded)) > s.maxImageBytes {
		return "", ErrImageTooLarge
	}
	return raw, nil
}

// notify nunca hace fallar el registro; solo deja constancia en el log.
func (s *PaymentService) notify(ctx context.Context, user domain.User, payment domain.Payment) {
	if s.notifyTo == "" {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), notifyTimeout)
	defer cancel()
	err := s.sender.SendPaymentNotification(ctx, s.notifyTo, email.PaymentNotification{
		PaymentID:    payment.ID,
		SubmittedBy:  user.Username,
		BusinessName: payment.BusinessName,
		QuantitySold: payment.QuantitySold,
		SubmittedAt:  payment.CreatedAt,
	})
	if err != nil {
		s.logger.Error("payment notification failed", zap.String("payment_id", payment.ID), zap.Error(err))
		return
	}
	s.logger.Info("payment notification sent", zap.String("payment_id", payment.ID))
}
