package session

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"checkpay/internal/domain"
	"checkpay/internal/localstore"
)

type mockAuthenticator struct {
	session   domain.Session
	err       error
	calls     int
	lastCreds domain.Credentials
}

func (m *mockAuthenticator) Login(_ context.Context, creds domain.Credentials) (domain.Session, error) {
	m.calls++
	m.lastCreds = creds
	if m.err != nil {
		return domain.Session{}, m.err
	}
	return m.session, nil
}

type failingStore struct {
	*localstore.MemoryStore
	setErr    error
	deleteErr error
	getErr    error
	batches   []map[string]string
}

func (s *failingStore) SetMany(ctx context.Context, entries map[string]string) error {
	if s.setErr != nil {
		return s.setErr
	}
	s.batches = append(s.batches, entries)
	return s.MemoryStore.SetMany(ctx, entries)
}

func (s *failingStore) Set(ctx context.Context, key, value string) error {
	if s.setErr != nil {
		return s.setErr
	}
	return s.MemoryStore.Set(ctx, key, value)
}

func (s *failingStore) Delete(ctx context.Context, key string) error {
	if s.deleteErr != nil {
		return s.deleteErr
	}
	return s.MemoryStore.Delete(ctx, key)
}

func (s *failingStore) Get(ctx context.Context, key string) (string, error) {
	if s.getErr != nil {
		return "", s.getErr
	}
	return s.MemoryStore.Get(ctx, key)
}

func robSession() domain.Session {
	return domain.Session{
		Profile: domain.Profile{Username: "Rob", UserID: "u-rob"},
		Token:   "tok-rob",
	}
}

func TestRestore_NoStoredToken(t *testing.T) {
	m := NewManager(localstore.NewMemoryStore(), &mockAuthenticator{}, zap.NewNop())
	if m.State() != StateUnknown {
		t.Fatalf("expected unknown before restore, got %s", m.State())
	}
	if got := m.Restore(context.Background()); got != StateUnauthenticated {
		t.Fatalf("expected unauthenticated, got %s", got)
	}
	if _, ok := m.Current(); ok {
		t.Fatalf("expected no current session")
	}
}

func TestRestore_StoredSession(t *testing.T) {
	ctx := context.Background()
	store := localstore.NewMemoryStore()
	_ = store.Set(ctx, TokenKey, "tok-rob")
	_ = store.Set(ctx, ProfileKey, `{"username":"Rob","userId":"u-rob"}`)

	m := NewManager(store, &mockAuthenticator{}, zap.NewNop())
	if got := m.Restore(ctx); got != StateAuthenticated {
		t.Fatalf("expected authenticated, got %s", got)
	}
	sess, ok := m.Current()
	if !ok || sess.Username != "Rob" || sess.UserID != "u-rob" || sess.Token != "tok-rob" {
		t.Fatalf("unexpected restored session: %+v", sess)
	}
}

func TestRestore_ParseFailureIsUnauthenticated(t *testing.T) {
	ctx := context.Background()
	cases := map[string]string{
		"not json":      `{not-json`,
		"missing field": `{"username":"Rob"}`,
	}
	for name, profile := range cases {
		t.Run(name, func(t *testing.T) {
			store := localstore.NewMemoryStore()
			_ = store.Set(ctx, TokenKey, "tok-rob")
			_ = store.Set(ctx, ProfileKey, profile)

			m := NewManager(store, &mockAuthenticator{}, zap.NewNop())
			if got := m.Restore(ctx); got != StateUnauthenticated {
				t.Fatalf("expected unauthenticated, got %s", got)
			}
		})
	}
}

func TestRestore_StorageErrorIsUnauthenticated(t *testing.T) {
	store := &failingStore{MemoryStore: localstore.NewMemoryStore(), getErr: errors.New("disk gone")}
	m := NewManager(store, &mockAuthenticator{}, zap.NewNop())
	if got := m.Restore(context.Background()); got != StateUnauthenticated {
		t.Fatalf("expected unauthenticated, got %s", got)
	}
}

func TestRestore_RunsOnce(t *testing.T) {
	ctx := context.Background()
	store := localstore.NewMemoryStore()
	m := NewManager(store, &mockAuthenticator{}, zap.NewNop())
	m.Restore(ctx)

	_ = store.Set(ctx, TokenKey, "tok-late")
	_ = store.Set(ctx, ProfileKey, `{"username":"Late","userId":"u-late"}`)
	if got := m.Restore(ctx); got != StateUnauthenticated {
		t.Fatalf("second restore must not reload storage, got %s", got)
	}
}

func TestLogin_SuccessPersistsSession(t *testing.T) {
	ctx := context.Background()
	store := localstore.NewMemoryStore()
	auth := &mockAuthenticator{session: robSession()}
	m := NewManager(store, auth, zap.NewNop())
	m.Restore(ctx)

	sess, err := m.Login(ctx, "  Rob ", "GeenaJolee55!")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if auth.lastCreds.Username != "Rob" {
		t.Fatalf("expected trimmed username, got %q", auth.lastCreds.Username)
	}
	if sess.Token != "tok-rob" || m.State() != StateAuthenticated {
		t.Fatalf("expected authenticated session, got state=%s sess=%+v", m.State(), sess)
	}
	if token, _ := store.Get(ctx, TokenKey); token != "tok-rob" {
		t.Fatalf("expected token persisted, got %q", token)
	}
	if profile, _ := store.Get(ctx, ProfileKey); profile != `{"username":"Rob","userId":"u-rob"}` {
		t.Fatalf("unexpected persisted profile %q", profile)
	}
	token, err := m.Token(ctx)
	if err != nil || token != "tok-rob" {
		t.Fatalf("expected token tok-rob, got %q,%v", token, err)
	}
}

func TestLogin_RejectedLeavesStateAndStorage(t *testing.T) {
	ctx := context.Background()
	store := localstore.NewMemoryStore()
	auth := &mockAuthenticator{err: &domain.RejectionError{StatusCode: 401, Detail: "Invalid credentials"}}
	m := NewManager(store, auth, zap.NewNop())
	m.Restore(ctx)

	_, err := m.Login(ctx, "Rob", "wrong")
	if !errors.Is(err, domain.ErrServerRejection) {
		t.Fatalf("expected ErrServerRejection, got %v", err)
	}
	var rej *domain.RejectionError
	if !errors.As(err, &rej) || rej.Detail != "Invalid credentials" {
		t.Fatalf("expected server detail to surface, got %v", err)
	}
	if m.State() != StateUnauthenticated {
		t.Fatalf("expected unauthenticated, got %s", m.State())
	}
	if _, err := store.Get(ctx, TokenKey); !errors.Is(err, localstore.ErrNotFound) {
		t.Fatalf("expected nothing persisted, got %v", err)
	}
	if _, err := store.Get(ctx, ProfileKey); !errors.Is(err, localstore.ErrNotFound) {
		t.Fatalf("expected nothing persisted, got %v", err)
	}
}

func TestLogin_NetworkErrorLeavesState(t *testing.T) {
	ctx := context.Background()
	auth := &mockAuthenticator{err: &domain.NetworkError{Op: "login", Err: errors.New("connection refused")}}
	m := NewManager(localstore.NewMemoryStore(), auth, zap.NewNop())
	m.Restore(ctx)

	if _, err := m.Login(ctx, "Rob", "pw"); !errors.Is(err, domain.ErrNetwork) {
		t.Fatalf("expected ErrNetwork, got %v", err)
	}
	if m.State() != StateUnauthenticated {
		t.Fatalf("expected unauthenticated, got %s", m.State())
	}
}

func TestLogin_BlankCredentialsNeverCallBackend(t *testing.T) {
	auth := &mockAuthenticator{session: robSession()}
	m := NewManager(localstore.NewMemoryStore(), auth, zap.NewNop())

	for _, creds := range [][2]string{{"", "pw"}, {"   ", "pw"}, {"Rob", ""}, {"Rob", "   "}} {
		if _, err := m.Login(context.Background(), creds[0], creds[1]); !errors.Is(err, domain.ErrValidation) {
			t.Fatalf("expected ErrValidation for %q/%q, got %v", creds[0], creds[1], err)
		}
	}
	if auth.calls != 0 {
		t.Fatalf("expected no backend calls, got %d", auth.calls)
	}
}

func TestLogin_PersistFailureKeepsPreviousSession(t *testing.T) {
	ctx := context.Background()
	store := &failingStore{MemoryStore: localstore.NewMemoryStore()}
	_ = store.MemoryStore.Set(ctx, TokenKey, "tok-old")
	_ = store.MemoryStore.Set(ctx, ProfileKey, `{"username":"Eric","userId":"u-eric"}`)

	m := NewManager(store, &mockAuthenticator{session: robSession()}, zap.NewNop())
	if m.Restore(ctx) != StateAuthenticated {
		t.Fatalf("expected restored session")
	}

	store.setErr = errors.New("disk full")
	if _, err := m.Login(ctx, "Rob", "pw"); !errors.Is(err, domain.ErrStorage) {
		t.Fatalf("expected ErrStorage, got %v", err)
	}
	sess, ok := m.Current()
	if !ok || sess.Username != "Eric" || m.State() != StateAuthenticated {
		t.Fatalf("expected previous session kept, got state=%s sess=%+v", m.State(), sess)
	}
}

func TestLogin_PersistsTokenAndProfileTogether(t *testing.T) {
	ctx := context.Background()
	store := &failingStore{MemoryStore: localstore.NewMemoryStore()}
	m := NewManager(store, &mockAuthenticator{session: robSession()}, zap.NewNop())
	m.Restore(ctx)

	if _, err := m.Login(ctx, "Rob", "pw"); err != nil {
		t.Fatalf("login: %v", err)
	}
	if len(store.batches) != 1 {
		t.Fatalf("expected one batch write, got %d", len(store.batches))
	}
	batch := store.batches[0]
	if batch[TokenKey] != "tok-rob" || batch[ProfileKey] != `{"username":"Rob","userId":"u-rob"}` {
		t.Fatalf("unexpected batch %+v", batch)
	}
}

type blockingAuthenticator struct {
	started chan struct{}
	release chan struct{}
}

func (b *blockingAuthenticator) Login(_ context.Context, _ domain.Credentials) (domain.Session, error) {
	close(b.started)
	<-b.release
	return robSession(), nil
}

func TestBusy_TrueWhileLoginInFlight(t *testing.T) {
	ctx := context.Background()
	auth := &blockingAuthenticator{started: make(chan struct{}), release: make(chan struct{})}
	m := NewManager(localstore.NewMemoryStore(), auth, zap.NewNop())
	m.Restore(ctx)
	if m.Busy() {
		t.Fatalf("expected idle before login")
	}

	done := make(chan error, 1)
	go func() {
		_, err := m.Login(ctx, "Rob", "pw")
		done <- err
	}()

	<-auth.started
	if !m.Busy() {
		t.Fatalf("expected busy while login is in flight")
	}
	close(auth.release)
	if err := <-done; err != nil {
		t.Fatalf("login: %v", err)
	}
	if m.Busy() {
		t.Fatalf("expected idle after login returned")
	}
}

func TestLogout_ClearsFromAnyState(t *testing.T) {
	ctx := context.Background()
	store := localstore.NewMemoryStore()
	m := NewManager(store, &mockAuthenticator{session: robSession()}, zap.NewNop())

	if err := m.Logout(ctx); err != nil {
		t.Fatalf("logout before restore: %v", err)
	}
	if m.State() != StateUnauthenticated {
		t.Fatalf("expected unauthenticated, got %s", m.State())
	}

	if _, err := m.Login(ctx, "Rob", "pw"); err != nil {
		t.Fatalf("login: %v", err)
	}
	if err := m.Logout(ctx); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if err := m.Logout(ctx); err != nil {
		t.Fatalf("second logout: %v", err)
	}
	if m.State() != StateUnauthenticated {
		t.Fatalf("expected unauthenticated, got %s", m.State())
	}
	if _, err := store.Get(ctx, TokenKey); !errors.Is(err, localstore.ErrNotFound) {
		t.Fatalf("expected token cleared, got %v", err)
	}
	if _, err := store.Get(ctx, ProfileKey); !errors.Is(err, localstore.ErrNotFound) {
		t.Fatalf("expected profile cleared, got %v", err)
	}
	if _, err := m.Token(ctx); !errors.Is(err, domain.ErrAuthentication) {
		t.Fatalf("expected ErrAuthentication after logout, got %v", err)
	}
}

func TestLogout_StorageFailureStillUnauthenticated(t *testing.T) {
	ctx := context.Background()
	store := &failingStore{MemoryStore: localstore.NewMemoryStore()}
	m := NewManager(store, &mockAuthenticator{session: robSession()}, zap.NewNop())
	if _, err := m.Login(ctx, "Rob", "pw"); err != nil {
		t.Fatalf("login: %v", err)
	}

	store.deleteErr = errors.New("locked")
	if err := m.Logout(ctx); !errors.Is(err, domain.ErrStorage) {
		t.Fatalf("expected ErrStorage, got %v", err)
	}
	if m.State() != StateUnauthenticated {
		t.Fatalf("expected unauthenticated, got %s", m.State())
	}
}

func TestToken_MissingStoredToken(t *testing.T) {
	ctx := context.Background()
	store := localstore.NewMemoryStore()
	m := NewManager(store, &mockAuthenticator{session: robSession()}, zap.NewNop())
	if _, err := m.Login(ctx, "Rob", "pw"); err != nil {
		t.Fatalf("login: %v", err)
	}

	_ = store.Delete(ctx, TokenKey)
	if _, err := m.Token(ctx); !errors.Is(err, domain.ErrAuthentication) {
		t.Fatalf("expected ErrAuthentication, got %v", err)
	}
}

func TestStateString(t *testing.T) {
	if StateAuthenticated.String() != "authenticated" || State(99).String() != "unknown" {
		t.Fatalf("unexpected state names")
	}
}
