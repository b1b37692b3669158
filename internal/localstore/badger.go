package localstore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/dgraph-io/badger/v3"
	"go.uber.org/zap"
)

// BadgerStore implementa Store sobre un directorio Badger local.
type BadgerStore struct {
	db     *badger.DB
	logger *zap.Logger
	closed atomic.Bool
}

// NewBadgerStore abre (o crea) la base en dir.
func NewBadgerStore(dir string, logger *zap.Logger) (*BadgerStore, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, fmt.Errorf("badger: dir is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	// El contenido son dos claves pequenas: tablas chicas y escrituras sincronas.
	opts := badger.DefaultOptions(dir).
		WithLogger(&badgerLogger{logger: logger.Sugar()}).
		WithSyncWrites(true).
		WithMemTableSize(4 << 20).
		WithValueLogFileSize(16 << 20).
		WithBlockCacheSize(8 << 20)

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("badger: open db: %w", err)
	}
	logger.Debug("local store opened", zap.String("dir", dir))
	return &BadgerStore{db: db, logger: logger}, nil
}

func (s *BadgerStore) Get(_ context.Context, key string) (string, error) {
	if s.closed.Load() {
		return "", ErrClosed
	}
	var value []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return ErrNotFound
			}
			return err
		}
		value, err = item.ValueCopy(nil)
		return err
	})
	if err != nil {
		return "", err
	}
	return string(value), nil
}

func (s *BadgerStore) Set(_ context.Context, key, value string) error {
	if s.closed.Load() {
		return ErrClosed
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), []byte(value))
	})
}

// SetMany escribe todas las entradas en una sola transaccion.
func (s *BadgerStore) SetMany(_ context.Context, entries map[string]string) error {
	if s.closed.Load() {
		return ErrClosed
	}
	if err := checkKeys(entries); err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		for k, v := range entries {
			if err := txn.Set([]byte(k), []byte(v)); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *BadgerStore) Delete(_ context.Context, key string) error {
	if s.closed.Load() {
		return ErrClosed
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(key))
	})
}

func (s *BadgerStore) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}
	return s.db.Close()
}

// badgerLogger adapta zap al Logger de Badger.
type badgerLogger struct {
	logger *zap.SugaredLogger
}

func (l *badgerLogger) Errorf(format string, args ...interface{}) {
	l.logger.Errorf(strings.TrimSpace(format), args...)
}

func (l *badgerLogger) Warningf(format string, args ...interface{}) {
	l.logger.Warnf(strings.TrimSpace(format), args...)
}

func (l *badgerLogger) Infof(format string, args ...interface{}) {
	l.logger.Debugf(strings.TrimSpace(format), args...)
}

func (l *badgerLogger) Debugf(format string, args ...interface{}) {
	l.logger.Debugf(strings.TrimSpace(format), args...)
}
