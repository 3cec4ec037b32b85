package session

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"sync"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/singleflight"

	"github.com/desertthunder/filmx/internal/credential"
	"github.com/desertthunder/filmx/internal/models"
	"github.com/desertthunder/filmx/internal/shared"
)

// API is the subset of the Request Service the session depends on.
type API interface {
	Login(ctx context.Context, req models.LoginRequest) (*models.AuthResponse, error)
	Register(ctx context.Context, req models.RegisterRequest) (*models.AuthResponse, error)
	CurrentUser(ctx context.Context) (*models.User, error)
}

// ChangeFunc is called after the credential changes. An empty credential means logged out.
type ChangeFunc func(credential string)

// Session owns the bearer credential and the resolved profile of its holder.
type Session struct {
	api    API
	store  credential.Store
	logger *log.Logger

	persist sync.Mutex // orders store writes with the in-memory transition

	mu         sync.RWMutex
	credential string
	profile    *models.User
	generation uint64 // bumped on every credential transition
	listeners  []ChangeFunc

	fetches singleflight.Group
}

// Option configures a [Session].
type Option func(*Session)

// WithLogger sets the session logger.
func WithLogger(l *log.Logger) Option {
	return func(s *Session) { s.logger = shared.WithLogger(l, "component", "session") }
}

// New creates a logged-out Session. Call [Session.Init] to restore a persisted credential.
func New(api API, store credential.Store, opts ...Option) *Session {
	s := &Session{
		api:    api,
		store:  store,
		logger: shared.NewDiscardLogger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// OnChange registers fn to run after every credential transition.
//
// Listeners run synchronously on the goroutine that caused the change and must not call back into
// Login, Register or Logout.
func (s *Session) OnChange(fn ChangeFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

// Credential returns the current bearer credential, or "" when logged out.
func (s *Session) Credential() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.credential
}

// Profile returns a copy of the resolved profile, or nil while unresolved or logged out.
func (s *Session) Profile() *models.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.profile == nil {
		return nil
	}
	p := *s.profile
	return &p
}

// IsLoggedIn reports whether a credential is present. It says nothing about whether the server
// still accepts it.
func (s *Session) IsLoggedIn() bool {
	return s.Credential() != ""
}

// Init restores a persisted credential.
//
// When one is found the session adopts it, notifies listeners, and resolves the profile in the
// background. The returned channel receives the outcome of that fetch, or nil when nothing was
// stored, and is then closed. The profile is not ready until the channel delivers.
func (s *Session) Init(ctx context.Context) <-chan error {
	done := make(chan error, 1)

	stored, err := s.store.Load()
	switch {
	case errors.Is(err, shared.ErrCredentialNotFound):
		done <- nil
		close(done)
		return done
	case err != nil:
		s.logger.Warn("could not read stored credential", "error", err)
		done <- err
		close(done)
		return done
	case stored == "":
		done <- nil
		close(done)
		return done
	}

	s.persist.Lock()
	listeners := s.set(stored, nil)
	s.persist.Unlock()
	s.notify(listeners, stored)
	s.logger.Debug("restored credential")

	go func() {
		defer close(done)
		done <- s.FetchProfile(ctx)
	}()
	return done
}

// Login authenticates with the server. On success the credential and profile are set together
// and the credential is persisted; on failure the session is left untouched.
func (s *Session) Login(ctx context.Context, req models.LoginRequest) (*models.AuthResponse, error) {
	resp, err := s.api.Login(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", shared.ErrAuthenticationFailure, err)
	}
	return s.establish(resp)
}

// Register creates an account and signs in with it, with the same contract as [Session.Login].
func (s *Session) Register(ctx context.Context, req models.RegisterRequest) (*models.AuthResponse, error) {
	resp, err := s.api.Register(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", shared.ErrAuthenticationFailure, err)
	}
	return s.establish(resp)
}

func (s *Session) establish(resp *models.AuthResponse) (*models.AuthResponse, error) {
	if resp == nil || resp.Token == "" {
		return nil, fmt.Errorf("%w: server returned no credential", shared.ErrAuthenticationFailure)
	}

	var profile *models.User
	if resp.User != nil {
		p := *resp.User
		profile = &p
	}

	s.persist.Lock()
	if err := s.store.Save(resp.Token); err != nil {
		// The in-memory session is still usable; it just won't survive a restart.
		s.logger.Warn("could not persist credential", "error", err)
	}
	listeners := s.set(resp.Token, profile)
	s.persist.Unlock()

	s.notify(listeners, resp.Token)
	s.logger.Info("signed in", "username", profileName(profile))
	return resp, nil
}

// FetchProfile resolves the profile for the current credential.
//
// It is a no-op without a credential. Concurrent callers share one request. Any failure logs the
// session out and returns an error wrapping [shared.ErrSessionExpired]. A result that arrives
// after the credential changed is discarded.
func (s *Session) FetchProfile(ctx context.Context) error {
	s.mu.RLock()
	cred, gen := s.credential, s.generation
	s.mu.RUnlock()

	if cred == "" {
		return nil
	}

	key := strconv.FormatUint(gen, 10)
	ch := s.fetches.DoChan(key, func() (any, error) {
		return s.api.CurrentUser(context.WithoutCancel(ctx))
	})

	var res singleflight.Result
	select {
	case <-ctx.Done():
		return ctx.Err()
	case res = <-ch:
	}

	s.mu.Lock()
	if s.generation != gen {
		s.mu.Unlock()
		s.logger.Debug("discarding profile for replaced credential")
		return nil
	}

	if res.Err != nil {
		s.mu.Unlock()
		s.logger.Warn("profile fetch failed, signing out", "error", res.Err)
		s.logoutIf(gen)
		return fmt.Errorf("%w: %w", shared.ErrSessionExpired, res.Err)
	}

	user, _ := res.Val.(*models.User)
	if user == nil {
		s.mu.Unlock()
		s.logoutIf(gen)
		return fmt.Errorf("%w: empty profile", shared.ErrSessionExpired)
	}
	p := *user
	s.profile = &p
	s.mu.Unlock()
	return nil
}

// Logout clears the credential and profile and removes the persisted credential. It is idempotent.
func (s *Session) Logout() {
	s.logoutIf(0)
}

// logoutIf logs out when the credential generation still equals gen, or unconditionally for gen 0.
func (s *Session) logoutIf(gen uint64) {
	s.persist.Lock()

	s.mu.RLock()
	stale := gen != 0 && s.generation != gen
	wasIn := s.credential != "" || s.profile != nil
	s.mu.RUnlock()
	if stale {
		s.persist.Unlock()
		return
	}

	if err := s.store.Delete(); err != nil {
		s.logger.Warn("could not remove stored credential", "error", err)
	}
	var listeners []ChangeFunc
	if wasIn {
		listeners = s.set("", nil)
	}
	s.persist.Unlock()

	if wasIn {
		s.notify(listeners, "")
		s.logger.Info("signed out")
	}
}

// set replaces the credential and profile and returns the listeners to notify.
func (s *Session) set(cred string, profile *models.User) []ChangeFunc {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.credential = cred
	s.profile = profile
	s.generation++
	return slices.Clone(s.listeners)
}

func (s *Session) notify(listeners []ChangeFunc, cred string) {
	for _, fn := range listeners {
		fn(cred)
	}
}

func profileName(p *models.User) string {
	if p == nil {
		return ""
	}
	return p.Username
}
