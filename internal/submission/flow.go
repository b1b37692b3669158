// Package submission implementa el formulario de registro de pagos con cheque:
// validacion local, captura de la imagen y envio autenticado.
package submission

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"checkpay/internal/capture"
	"checkpay/internal/domain"
)

// SessionSource es lo que el flujo necesita del Session Manager.
type SessionSource interface {
	Token(ctx context.Context) (string, error)
	Invalidate(ctx context.Context, reason string) error
}

// PaymentsAPI envia el pago al backend.
type PaymentsAPI interface {
	CreatePayment(ctx context.Context, token string, req domain.PaymentRequest) (domain.PaymentReceipt, error)
}

// Flow guarda el formulario en curso. El formulario solo se limpia tras un
// envio exitoso o por pedido explicito.
type Flow struct {
	mu   sync.Mutex
	form Form

	sessions SessionSource
	payments PaymentsAPI
	picker   capture.Picker
	logger   *zap.Logger
	inflight atomic.Int32
}

func NewFlow(sessions SessionSource, payments PaymentsAPI, picker capture.Picker, logger *zap.Logger) *Flow {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Flow{
		sessions: sessions,
		payments: payments,
		picker:   picker,
		logger:   logger,
	}
}

func (f *Flow) SetBusinessName(name string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.form.BusinessName = name
}

func (f *Flow) SetQuantitySold(qty string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.form.QuantitySold = qty
}

func (f *Flow) SetCheckImage(img domain.CheckImage) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.form.CheckImage = img
}

// Form devuelve una copia del formulario actual.
func (f *Flow) Form() Form {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.form
}

// Clear descarta todo lo cargado.
func (f *Flow) Clear() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.form = Form{}
}

// Busy indica si hay un envio en curso.
func (f *Flow) Busy() bool {
	return f.inflight.Load() > 0
}

// Capture pide una imagen al selector. Si el usuario cancela devuelve
// false sin error y el formulario queda como estaba.
func (f *Flow) Capture(ctx context.Context, source capture.Source) (bool, error) {
	if f.picker == nil {
		return false, errors.New("image picker not configured")
	}
	img, ok, err := f.picker.Pick(ctx, source)
	if err != nil {
		f.logger.Warn("image capture failed", zap.String("source", string(source)), zap.Error(err))
		return false, err
	}
	if !ok {
		return false, nil
	}
	f.SetCheckImage(img)
	return true, nil
}

// Submit valida el formulario, toma el token de la sesion y envia el pago.
// Sin token fuerza el logout y no llama al backend. Ante rechazo o falla de
// red el formulario queda intacto para reintentar.
func (f *Flow) Submit(ctx context.Context) (domain.PaymentReceipt, error) {
	f.inflight.Add(1)
	defer f.inflight.Add(-1)

	sub, err := Validate(f.Form())
	if err != nil {
		return domain.PaymentReceipt{}, err
	}

	token, err := f.sessions.Token(ctx)
	if err != nil {
		f.forceLogout(ctx, "missing token")
		var authErr *domain.AuthenticationError
		if errors.As(err, &authErr) {
			return domain.PaymentReceipt{}, authErr
		}
		return domain.PaymentReceipt{}, &domain.AuthenticationError{Reason: "missing token", Cause: err}
	}

	receipt, err := f.payments.CreatePayment(ctx, token, domain.PaymentRequest{
		BusinessName:     sub.BusinessName,
		QuantitySold:     sub.QuantitySold,
		CheckImageBase64: capture.StripDataURIPrefix(sub.CheckImage.DataURI),
	})
	if err != nil {
		var rej *domain.RejectionError
		if errors.As(err, &rej) && rej.StatusCode == http.StatusUnauthorized {
			f.forceLogout(ctx, "token rejected")
			return domain.PaymentReceipt{}, &domain.AuthenticationError{Reason: "token rejected", Cause: err}
		}
		f.logger.Warn("payment submission failed", zap.Error(err))
		return domain.PaymentReceipt{}, err
	}

	f.Clear()
	f.logger.Info("payment submitted",
		zap.String("payment_id", receipt.ID),
		zap.String("business_name", receipt.BusinessName),
	)
	return receipt, nil
}

func (f *Flow) forceLogout(ctx context.Context, reason string) {
	if err := f.sessions.Invalidate(ctx, reason); err != nil {
		f.logger.Warn("forced logout incomplete", zap.Error(err))
	}
}
