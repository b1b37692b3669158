// Package session administra el ciclo de vida de la sesion del cliente:
// restauracion al arrancar, login contra el backend y logout.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"checkpay/internal/domain"
	"checkpay/internal/localstore"
)

// Claves del almacenamiento local.
const (
	TokenKey   = "auth_token"
	ProfileKey = "user_data"
)

// State es el estado de la maquina de sesion.
type State int32

const (
	StateUnknown State = iota
	StateRestoring
	StateAuthenticated
	StateUnauthenticated
)

func (s State) String() string {
	switch s {
	case StateRestoring:
		return "restoring"
	case StateAuthenticated:
		return "authenticated"
	case StateUnauthenticated:
		return "unauthenticated"
	default:
		return "unknown"
	}
}

// Authenticator cambia credenciales por una sesion (token + perfil).
type Authenticator interface {
	Login(ctx context.Context, creds domain.Credentials) (domain.Session, error)
}

var errNoSession = errors.New("no stored session")

// Manager es el unico dueno del estado de sesion. Los flujos que lo consumen
// reciben un puntero; nunca hay estado global.
type Manager struct {
	mu      sync.RWMutex
	state   State
	current *domain.Session

	store    localstore.Store
	auth     Authenticator
	logger   *zap.Logger
	restored sync.Once
	inflight atomic.Int32
}

func NewManager(store localstore.Store, auth Authenticator, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		state:  StateUnknown,
		store:  store,
		auth:   auth,
		logger: logger,
	}
}

// Restore carga la sesion persistida. Solo la primera llamada lee el
// almacenamiento; las siguientes devuelven el estado actual.
func (m *Manager) Restore(ctx context.Context) State {
	m.restored.Do(func() {
		m.set(StateRestoring, nil)

		sess, err := m.load(ctx)
		if err != nil {
			if !errors.Is(err, errNoSession) {
				m.logger.Warn("restore session failed, starting unauthenticated", zap.Error(err))
			}
			m.set(StateUnauthenticated, nil)
			return
		}
		m.logger.Info("session restored", zap.String("username", sess.Username))
		m.set(StateAuthenticated, &sess)
	})
	return m.State()
}

// Login autentica contra el backend, persiste token y perfil y pasa a
// Authenticated. Ante cualquier falla el estado no cambia.
func (m *Manager) Login(ctx context.Context, username, password string) (domain.Session, error) {
	m.inflight.Add(1)
	defer m.inflight.Add(-1)

	creds := domain.Credentials{Username: username, Password: password}.Normalize()
	if err := creds.Validate(); err != nil {
		return domain.Session{}, err
	}
	if m.auth == nil {
		return domain.Session{}, errors.New("session manager not configured")
	}

	sess, err := m.auth.Login(ctx, creds)
	if err != nil {
		m.logger.Info("login failed", zap.String("username", creds.Username), zap.Error(err))
		return domain.Session{}, err
	}

	prev, _ := m.Current()
	if err := m.persist(ctx, sess); err != nil {
		m.rollback(ctx, prev)
		return domain.Session{}, fmt.Errorf("%w: persist session: %v", domain.ErrStorage, err)
	}

	m.set(StateAuthenticated, &sess)
	m.logger.Info("login succeeded", zap.String("username", sess.Username))
	return sess, nil
}

// Logout borra lo persistido y deja la sesion en Unauthenticated. Es
// idempotente; el estado final es Unauthenticated aun si el borrado falla.
func (m *Manager) Logout(ctx context.Context) error {
	err := m.clear(ctx)
	m.set(StateUnauthenticated, nil)
	if err != nil {
		m.logger.Warn("logout could not clear local storage", zap.Error(err))
		return fmt.Errorf("%w: clear session: %v", domain.ErrStorage, err)
	}
	return nil
}

// Invalidate fuerza el logout cuando el token falta o el backend lo rechaza.
func (m *Manager) Invalidate(ctx context.Context, reason string) error {
	m.logger.Warn("session invalidated", zap.String("reason", reason))
	return m.Logout(ctx)
}

// Token devuelve el token persistido. Sin sesion autenticada o sin token
// guardado devuelve un AuthenticationError.
func (m *Manager) Token(ctx context.Context) (string, error) {
	if m.State() != StateAuthenticated {
		return "", &domain.AuthenticationError{Reason: "not logged in"}
	}
	token, err := m.store.Get(ctx, TokenKey)
	if err != nil {
		if errors.Is(err, localstore.ErrNotFound) {
			return "", &domain.AuthenticationError{Reason: "no stored token"}
		}
		return "", &domain.AuthenticationError{Reason: "token unreadable", Cause: err}
	}
	if strings.TrimSpace(token) == "" {
		return "", &domain.AuthenticationError{Reason: "no stored token"}
	}
	return token, nil
}

// Current devuelve una copia de la sesion activa.
func (m *Manager) Current() (domain.Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.current == nil {
		return domain.Session{}, false
	}
	return *m.current, true
}

func (m *Manager) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// Busy indica si hay un login en curso; la UI lo usa para deshabilitar el boton.
func (m *Manager) Busy() bool {
	return m.inflight.Load() > 0
}

func (m *Manager) set(state State, sess *domain.Session) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = state
	m.current = sess
}

func (m *Manager) load(ctx context.Context) (domain.Session, error) {
	token, err := m.store.Get(ctx, TokenKey)
	if errors.Is(err, localstore.ErrNotFound) {
		return domain.Session{}, errNoSession
	}
	if err != nil {
		return domain.Session{}, fmt.Errorf("read token: %w", err)
	}
	raw, err := m.store.Get(ctx, ProfileKey)
	if errors.Is(err, localstore.ErrNotFound) {
		return domain.Session{}, errNoSession
	}
	if err != nil {
		return domain.Session{}, fmt.Errorf("read profile: %w", err)
	}
	if strings.TrimSpace(token) == "" {
		return domain.Session{}, errNoSession
	}

	var profile domain.Profile
	if err := json.Unmarshal([]byte(raw), &profile); err != nil {
		return domain.Session{}, fmt.Errorf("parse profile: %w", err)
	}
	if !profile.Valid() {
		return domain.Session{}, fmt.Errorf("parse profile: missing username or user id")
	}
	return domain.Session{Profile: profile, Token: token}, nil
}

func (m *Manager) persist(ctx context.Context, sess domain.Session) error {
	raw, err := json.Marshal(sess.Profile)
	if err != nil {
		return err
	}
	return m.store.SetMany(ctx, map[string]string{
		TokenKey:   sess.Token,
		ProfileKey: string(raw),
	})
}

func (m *Manager) clear(ctx context.Context) error {
	return errors.Join(
		m.store.Delete(ctx, TokenKey),
		m.store.Delete(ctx, ProfileKey),
	)
}

// rollback deja el almacenamiento como estaba antes de un login fallido a
// medio persistir.
func (m *Manager) rollback(ctx context.Context, prev domain.Session) {
	var err error
	if prev.Token != "" {
		err = m.persist(ctx, prev)
	} else {
		err = m.clear(ctx)
	}
	if err != nil {
		m.logger.Error("rollback of local session failed", zap.Error(err))
	}
}
