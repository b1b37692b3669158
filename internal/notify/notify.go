// Package notify traduce resultados y errores del nucleo a avisos que la capa
// de presentacion muestra. El nucleo nunca dibuja nada.
package notify

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"checkpay/internal/capture"
	"checkpay/internal/domain"
	"checkpay/internal/submission"
)

type Level string

const (
	LevelInfo    Level = "info"
	LevelSuccess Level = "success"
	LevelError   Level = "error"
)

// Op identifica la accion del usuario que produjo el aviso.
type Op string

const (
	OpLogin   Op = "login"
	OpLogout  Op = "logout"
	OpSubmit  Op = "submit"
	OpCamera  Op = "camera"
	OpGallery Op = "gallery"
	OpHistory Op = "history"
)

// Notice es un aviso bloqueante: la UI lo muestra y espera confirmacion.
type Notice struct {
	Level   Level  `json:"level"`
	Title   string `json:"title"`
	Message string `json:"message"`
}

// Notifier recibe avisos. Implementaciones: Channel y Func.
type Notifier interface {
	Notify(ctx context.Context, n Notice) error
}

// Func adapta una funcion a Notifier.
type Func func(ctx context.Context, n Notice) error

func (f Func) Notify(ctx context.Context, n Notice) error {
	return f(ctx, n)
}

// Channel publica avisos en un canal que consume la UI.
type Channel struct {
	ch chan Notice
}

func NewChannel(buffer int) *Channel {
	if buffer < 0 {
		buffer = 0
	}
	return &Channel{ch: make(chan Notice, buffer)}
}

// Notify bloquea hasta que la UI toma el aviso o se cancela ctx.
func (c *Channel) Notify(ctx context.Context, n Notice) error {
	select {
	case c.ch <- n:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *Channel) C() <-chan Notice {
	return c.ch
}

// PaymentLogged es el aviso de exito de un envio.
func PaymentLogged(r domain.PaymentReceipt) Notice {
	return Notice{
		Level: LevelSuccess,
		Title: "Payment Logged Successfully",
		Message: fmt.Sprintf("Entry ID: %s\nBusiness: %s\nQuantity: %s",
			r.ID, r.BusinessName, strconv.FormatFloat(r.QuantitySold, 'f', -1, 64)),
	}
}

// Welcome es el aviso tras un login correcto.
func Welcome(p domain.Profile) Notice {
	return Notice{Level: LevelInfo, Title: "Logged In", Message: "Welcome, " + p.Username}
}

// FromError arma el aviso para un error de op. Devuelve un Notice vacio si
// err es nil.
func FromError(op Op, err error) Notice {
	if err == nil {
		return Notice{}
	}

	var vErr *domain.ValidationError
	if errors.As(err, &vErr) {
		return Notice{Level: LevelError, Title: validationTitle(vErr.Field), Message: vErr.Message}
	}

	switch op {
	case OpLogin:
		return loginNotice(err)
	case OpSubmit:
		return submitNotice(err)
	case OpCamera, OpGallery:
		return captureNotice(op, err)
	case OpLogout:
		return Notice{Level: LevelError, Title: "Logout", Message: "You were logged out, but saved data could not be removed from this device."}
	}

	if errors.Is(err, domain.ErrAuthentication) {
		return Notice{Level: LevelError, Title: "Authentication Error", Message: "Please log in again"}
	}
	if errors.Is(err, domain.ErrNetwork) {
		return Notice{Level: LevelError, Title: "Network Error", Message: "Network error. Please check your connection."}
	}
	var rej *domain.RejectionError
	if errors.As(err, &rej) && rej.Detail != "" {
		return Notice{Level: LevelError, Title: "Error", Message: rej.Detail}
	}
	return Notice{Level: LevelError, Title: "Error", Message: err.Error()}
}

func validationTitle(field string) string {
	switch field {
	case submission.FieldQuantitySold:
		return "Invalid Quantity"
	case submission.FieldCheckImage:
		return "Missing Check Image"
	default:
		return "Missing Information"
	}
}

func loginNotice(err error) Notice {
	var rej *domain.RejectionError
	switch {
	case errors.As(err, &rej):
		msg := rej.Detail
		if msg == "" {
			msg = "Invalid credentials"
		}
		return Notice{Level: LevelError, Title: "Login Failed", Message: msg}
	case errors.Is(err, domain.ErrStorage):
		return Notice{Level: LevelError, Title: "Login Error", Message: "Could not save your session on this device."}
	default:
		return Notice{Level: LevelError, Title: "Login Error", Message: "Network error. Please check your connection."}
	}
}

func submitNotice(err error) Notice {
	if errors.Is(err, domain.ErrAuthentication) {
		return Notice{Level: LevelError, Title: "Authentication Error", Message: "Please log in again"}
	}
	var rej *domain.RejectionError
	if errors.As(err, &rej) && rej.Detail != "" {
		return Notice{Level: LevelError, Title: "Submission Error", Message: rej.Detail}
	}
	return Notice{Level: LevelError, Title: "Submission Error", Message: "Failed to submit payment. Please check your connection and try again."}
}

func captureNotice(op Op, err error) Notice {
	title, msg := "Image Error", "Failed to select image. Please try again."
	if op == OpCamera {
		title, msg = "Camera Error", "Failed to take photo. Please try again."
	}
	switch {
	case errors.Is(err, capture.ErrNotImage):
		msg = "The selected file is not an image."
	case errors.Is(err, capture.ErrTooLarge):
		msg = "The selected image is too large."
	case errors.Is(err, capture.ErrEmptyImage):
		msg = "The selected image is empty."
	}
	return Notice{Level: LevelError, Title: title, Message: msg}
}
