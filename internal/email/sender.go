package email

import (
	"context"
	"errors"
	"time"
)

// PaymentNotification es lo que se informa por correo al registrar un pago.
type PaymentNotification struct {
	PaymentID    string
	SubmittedBy  string
	BusinessName string
	QuantitySold int
	SubmittedAt  time.Time
}

// Sender define la interfaz para envio de avisos de pagos registrados.
type Sender interface {
	SendPaymentNotification(ctx context.Context, toEmail string, n PaymentNotification) error
}

type disabledSender struct {
	reason string
}

func NewDisabledSender(reason string) Sender {
	return &disabledSender{reason: reason}
}

func (s *disabledSender) SendPaymentNotification(_ context.Context, _ string, _ PaymentNotification) error {
	if s.reason == "" {
		return ErrDisabled
	}
	return errors.Join(ErrDisabled, errors.New(s.reason))
}

// IsDisabled indica si s es el sender nulo.
func IsDisabled(s Sender) bool {
	_, ok := s.(*disabledSender)
	return s == nil || ok
}

// ErrDisabled lo devuelve el sender nulo cuando no hay SMTP configurado.
var ErrDisabled = errors.New("email sender disabled")
