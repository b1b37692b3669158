package domain

import (
	"errors"
	"fmt"
)

// Tipos de error que el cliente reporta al usuario.
var (
	ErrValidation      = errors.New("validation failed")
	ErrAuthentication  = errors.New("authentication required")
	ErrServerRejection = errors.New("server rejected request")
	ErrNetwork         = errors.New("network error")
	ErrStorage         = errors.New("local storage error")
)

// ValidationError se produce localmente, antes de cualquier llamada de red.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// AuthenticationError indica token ausente o invalido; siempre implica logout.
type AuthenticationError struct {
	Reason string
	Cause  error
}

func (e *AuthenticationError) Error() string {
	if e.Reason == "" {
		return ErrAuthentication.Error()
	}
	return "authentication required: " + e.Reason
}

func (e *AuthenticationError) Is(target error) bool {
	return target == ErrAuthentication
}

func (e *AuthenticationError) Unwrap() error {
	return e.Cause
}

// RejectionError es una respuesta no-OK del backend. Detail viene del campo
// "detail" del cuerpo cuando existe.
type RejectionError struct {
	StatusCode int
	Detail     string
}

func (e *RejectionError) Error() string {
	return fmt.Sprintf("server rejected request: status=%d detail=%q", e.StatusCode, e.Detail)
}

func (e *RejectionError) Is(target error) bool {
	return target == ErrServerRejection
}

// NetworkError envuelve fallas de transporte: dial, timeout o cuerpo ilegible.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *NetworkError) Is(target error) bool {
	return target == ErrNetwork
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}
