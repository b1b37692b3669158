// Package localstore guarda el estado local del cliente (token y perfil)
// en un almacenamiento clave-valor que sobrevive reinicios.
package localstore

import (
	"context"
	"errors"
)

var (
	ErrNotFound = errors.New("key not found")
	ErrClosed   = errors.New("store closed")
	ErrEmptyKey = errors.New("empty key")
)

// Store define el contrato minimo de almacenamiento clave-valor.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	// SetMany escribe todas las claves o ninguna.
	SetMany(ctx context.Context, entries map[string]string) error
	Delete(ctx context.Context, key string) error
	Close() error
}

func checkKeys(entries map[string]string) error {
	for k := range entries {
		if k == "" {
			return ErrEmptyKey
		}
	}
	return nil
}
