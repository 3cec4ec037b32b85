package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/desertthunder/filmx/internal/credential"
	"github.com/desertthunder/filmx/internal/models"
	"github.com/desertthunder/filmx/internal/shared"
	tu "github.com/desertthunder/filmx/internal/testing"
)

type serverErr struct{ msg string }

func (e *serverErr) Error() string         { return "status 400: " + e.msg }
func (e *serverErr) ServerMessage() string { return e.msg }

type brokenStore struct{}

func (brokenStore) Load() (string, error) { return "", shared.ErrCredentialStore }
func (brokenStore) Save(string) error     { return shared.ErrCredentialStore }
func (brokenStore) Delete() error         { return shared.ErrCredentialStore }

func loginAs(token string, user *models.User) func(context.Context, models.LoginRequest) (*models.AuthResponse, error) {
	return func(context.Context, models.LoginRequest) (*models.AuthResponse, error) {
		return &models.AuthResponse{Token: token, User: user}, nil
	}
}

func TestSession(t *testing.T) {
	ctx := context.Background()

	t.Run("Login", func(t *testing.T) {
		t.Run("Success Sets Credential And Profile", func(t *testing.T) {
			api := &tu.FakeClient{LoginFunc: loginAs("tok-1", &models.User{ID: 1, Username: "ann", Role: models.RoleUser})}
			store := credential.NewMemoryStore("")
			s := New(api, store)

			var changes []string
			s.OnChange(func(c string) { changes = append(changes, c) })

			if _, err := s.Login(ctx, models.LoginRequest{Username: "ann"}); err != nil {
				t.Fatalf("Login() error = %v", err)
			}

			if !s.IsLoggedIn() || s.Credential() != "tok-1" {
				t.Errorf("expected credential tok-1, got %q", s.Credential())
			}
			if p := s.Profile(); p == nil || p.Username != "ann" {
				t.Errorf("expected profile ann, got %+v", p)
			}
			if stored, _ := store.Load(); stored != "tok-1" {
				t.Errorf("expected credential persisted, got %q", stored)
			}
			if len(changes) != 1 || changes[0] != "tok-1" {
				t.Errorf("expected one change notification, got %v", changes)
			}
		})

		t.Run("Failure Leaves State Untouched", func(t *testing.T) {
			api := &tu.FakeClient{LoginFunc: loginAs("tok-1", &models.User{ID: 1, Username: "ann"})}
			store := credential.NewMemoryStore("")
			s := New(api, store)
			if _, err := s.Login(ctx, models.LoginRequest{}); err != nil {
				t.Fatalf("first Login() error = %v", err)
			}

			api.LoginFunc = func(context.Context, models.LoginRequest) (*models.AuthResponse, error) {
				return nil, &serverErr{msg: "密码错误"}
			}
			_, err := s.Login(ctx, models.LoginRequest{})

			if !errors.Is(err, shared.ErrAuthenticationFailure) {
				t.Errorf("expected ErrAuthenticationFailure, got %v", err)
			}
			if got := shared.UserMessage(err); got != "密码错误" {
				t.Errorf("expected server message verbatim, got %q", got)
			}
			if s.Credential() != "tok-1" || s.Profile() == nil {
				t.Error("failed login must not change the existing session")
			}
		})

		t.Run("Empty Token Is A Failure", func(t *testing.T) {
			api := &tu.FakeClient{LoginFunc: loginAs("", nil)}
			s := New(api, credential.NewMemoryStore(""))

			if _, err := s.Login(ctx, models.LoginRequest{}); !errors.Is(err, shared.ErrAuthenticationFailure) {
				t.Errorf("expected ErrAuthenticationFailure, got %v", err)
			}
			if s.IsLoggedIn() {
				t.Error("expected to stay logged out")
			}
		})

		t.Run("Store Failure Keeps Session", func(t *testing.T) {
			api := &tu.FakeClient{LoginFunc: loginAs("tok-1", nil)}
			s := New(api, brokenStore{})

			if _, err := s.Login(ctx, models.LoginRequest{}); err != nil {
				t.Fatalf("Login() error = %v", err)
			}
			if !s.IsLoggedIn() {
				t.Error("expected session to be usable without persistence")
			}
		})
	})

	t.Run("Register", func(t *testing.T) {
		api := &tu.FakeClient{RegisterFunc: func(_ context.Context, req models.RegisterRequest) (*models.AuthResponse, error) {
			return &models.AuthResponse{Token: "tok-r", User: &models.User{Username: req.Username}}, nil
		}}
		s := New(api, credential.NewMemoryStore(""))

		if _, err := s.Register(ctx, models.RegisterRequest{Username: "bob"}); err != nil {
			t.Fatalf("Register() error = %v", err)
		}
		if s.Credential() != "tok-r" || s.Profile().Username != "bob" {
			t.Errorf("unexpected session state %q %+v", s.Credential(), s.Profile())
		}

		api.RegisterFunc = func(context.Context, models.RegisterRequest) (*models.AuthResponse, error) {
			return nil, errors.New("dial tcp: refused")
		}
		_, err := New(api, credential.NewMemoryStore("")).Register(ctx, models.RegisterRequest{})
		if shared.UserMessage(err) != shared.GenericFailureMessage {
			t.Errorf("expected generic message, got %q", shared.UserMessage(err))
		}
	})

	t.Run("Logout", func(t *testing.T) {
		api := &tu.FakeClient{LoginFunc: loginAs("tok-1", &models.User{Username: "ann"})}
		store := credential.NewMemoryStore("")
		s := New(api, store)

		var changes []string
		s.OnChange(func(c string) { changes = append(changes, c) })

		if _, err := s.Login(ctx, models.LoginRequest{}); err != nil {
			t.Fatalf("Login() error = %v", err)
		}
		s.Logout()
		s.Logout()

		if s.IsLoggedIn() || s.Profile() != nil {
			t.Error("expected credential and profile cleared")
		}
		if _, err := store.Load(); !errors.Is(err, shared.ErrCredentialNotFound) {
			t.Errorf("expected stored credential removed, got %v", err)
		}
		if len(changes) != 2 || changes[1] != "" {
			t.Errorf("expected login then a single logout notification, got %v", changes)
		}

		if err := s.FetchProfile(ctx); err != nil {
			t.Errorf("FetchProfile() after logout should be a no-op, got %v", err)
		}
		if api.Calls("CurrentUser") != 0 {
			t.Errorf("expected no profile request after logout, got %d", api.Calls("CurrentUser"))
		}
	})

	t.Run("FetchProfile", func(t *testing.T) {
		t.Run("Success", func(t *testing.T) {
			api := &tu.FakeClient{
				LoginFunc: loginAs("tok-1", nil),
				CurrentUserFunc: func(context.Context) (*models.User, error) {
					return &models.User{ID: 3, Username: "cid", Role: models.RoleAdmin}, nil
				},
			}
			s := New(api, credential.NewMemoryStore(""))
			if _, err := s.Login(ctx, models.LoginRequest{}); err != nil {
				t.Fatalf("Login() error = %v", err)
			}
			if s.Profile() != nil {
				t.Fatal("expected unresolved profile before fetch")
			}

			if err := s.FetchProfile(ctx); err != nil {
				t.Fatalf("FetchProfile() error = %v", err)
			}
			if p := s.Profile(); p == nil || !p.Role.IsAdmin() {
				t.Errorf("expected admin profile, got %+v", p)
			}
		})

		t.Run("Failure Logs Out", func(t *testing.T) {
			api := &tu.FakeClient{
				LoginFunc: loginAs("tok-1", &models.User{Username: "ann"}),
				CurrentUserFunc: func(context.Context) (*models.User, error) {
					return nil, errors.New("401")
				},
			}
			store := credential.NewMemoryStore("")
			s := New(api, store)
			if _, err := s.Login(ctx, models.LoginRequest{}); err != nil {
				t.Fatalf("Login() error = %v", err)
			}

			err := s.FetchProfile(ctx)
			if !errors.Is(err, shared.ErrSessionExpired) {
				t.Errorf("expected ErrSessionExpired, got %v", err)
			}
			if s.IsLoggedIn() || s.Profile() != nil {
				t.Error("expected logged-out state after failed fetch")
			}
			if _, err := store.Load(); !errors.Is(err, shared.ErrCredentialNotFound) {
				t.Error("expected persisted credential removed")
			}
		})

		t.Run("Concurrent Callers Share One Request", func(t *testing.T) {
			release := make(chan struct{})
			api := &tu.FakeClient{
				LoginFunc: loginAs("tok-1", nil),
				CurrentUserFunc: func(context.Context) (*models.User, error) {
					<-release
					return &models.User{Username: "ann"}, nil
				},
			}
			s := New(api, credential.NewMemoryStore(""))
			if _, err := s.Login(ctx, models.LoginRequest{}); err != nil {
				t.Fatalf("Login() error = %v", err)
			}

			var wg, started sync.WaitGroup
			errs := make(chan error, 3)
			for range 3 {
				wg.Add(1)
				started.Add(1)
				go func() {
					defer wg.Done()
					started.Done()
					errs <- s.FetchProfile(ctx)
				}()
			}

			started.Wait()
			tu.Eventually(t, time.Second, func() bool { return api.Calls("CurrentUser") == 1 }, "first request started")
			time.Sleep(50 * time.Millisecond)
			close(release)
			wg.Wait()
			close(errs)

			for err := range errs {
				if err != nil {
					t.Errorf("FetchProfile() error = %v", err)
				}
			}
			if got := api.Calls("CurrentUser"); got != 1 {
				t.Errorf("expected a single profile request, got %d", got)
			}
		})

		t.Run("Stale Result Is Discarded", func(t *testing.T) {
			release := make(chan struct{})
			api := &tu.FakeClient{
				LoginFunc: loginAs("tok-old", nil),
				CurrentUserFunc: func(context.Context) (*models.User, error) {
					<-release
					return nil, errors.New("401")
				},
			}
			s := New(api, credential.NewMemoryStore(""))
			if _, err := s.Login(ctx, models.LoginRequest{}); err != nil {
				t.Fatalf("Login() error = %v", err)
			}

			done := make(chan error, 1)
			go func() { done <- s.FetchProfile(ctx) }()
			tu.Eventually(t, time.Second, func() bool { return api.Calls("CurrentUser") == 1 }, "fetch started")

			api.LoginFunc = loginAs("tok-new", &models.User{Username: "new"})
			if _, err := s.Login(ctx, models.LoginRequest{}); err != nil {
				t.Fatalf("second Login() error = %v", err)
			}
			close(release)

			if err := <-done; err != nil {
				t.Errorf("stale fetch should be discarded silently, got %v", err)
			}
			if s.Credential() != "tok-new" || s.Profile() == nil {
				t.Error("stale failure must not log out the replacement credential")
			}
		})

		t.Run("Canceled Context", func(t *testing.T) {
			release := make(chan struct{})
			defer close(release)
			api := &tu.FakeClient{
				LoginFunc: loginAs("tok-1", nil),
				CurrentUserFunc: func(context.Context) (*models.User, error) {
					<-release
					return &models.User{}, nil
				},
			}
			s := New(api, credential.NewMemoryStore(""))
			if _, err := s.Login(ctx, models.LoginRequest{}); err != nil {
				t.Fatalf("Login() error = %v", err)
			}

			cctx, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
			defer cancel()
			if err := s.FetchProfile(cctx); !errors.Is(err, context.DeadlineExceeded) {
				t.Errorf("expected deadline exceeded, got %v", err)
			}
			if !s.IsLoggedIn() {
				t.Error("a canceled wait must not log out")
			}
		})
	})

	t.Run("Init", func(t *testing.T) {
		t.Run("Nothing Stored", func(t *testing.T) {
			api := &tu.FakeClient{}
			s := New(api, credential.NewMemoryStore(""))

			if err := <-s.Init(ctx); err != nil {
				t.Errorf("Init() error = %v", err)
			}
			if s.IsLoggedIn() || api.Calls("CurrentUser") != 0 {
				t.Error("expected logged-out session and no profile request")
			}
		})

		t.Run("Restores And Resolves Profile", func(t *testing.T) {
			release := make(chan struct{})
			api := &tu.FakeClient{CurrentUserFunc: func(context.Context) (*models.User, error) {
				<-release
				return &models.User{Username: "ann"}, nil
			}}
			s := New(api, credential.NewMemoryStore("tok-saved"))

			var changes []string
			s.OnChange(func(c string) { changes = append(changes, c) })

			done := s.Init(ctx)
			if s.Credential() != "tok-saved" {
				t.Errorf("expected credential restored immediately, got %q", s.Credential())
			}
			if s.Profile() != nil {
				t.Error("profile must not be ready before the fetch settles")
			}
			close(release)

			if err := <-done; err != nil {
				t.Fatalf("Init() error = %v", err)
			}
			if p := s.Profile(); p == nil || p.Username != "ann" {
				t.Errorf("expected profile after init, got %+v", p)
			}
			if len(changes) != 1 || changes[0] != "tok-saved" {
				t.Errorf("expected restore notification, got %v", changes)
			}
		})

		t.Run("Rejected Credential", func(t *testing.T) {
			api := &tu.FakeClient{CurrentUserFunc: func(context.Context) (*models.User, error) {
				return nil, errors.New("expired")
			}}
			s := New(api, credential.NewMemoryStore("tok-saved"))

			if err := <-s.Init(ctx); !errors.Is(err, shared.ErrSessionExpired) {
				t.Errorf("expected ErrSessionExpired, got %v", err)
			}
			if s.IsLoggedIn() {
				t.Error("expected rejected credential to be cleared")
			}
		})

		t.Run("Broken Store", func(t *testing.T) {
			s := New(&tu.FakeClient{}, brokenStore{})
			if err := <-s.Init(ctx); !errors.Is(err, shared.ErrCredentialStore) {
				t.Errorf("expected ErrCredentialStore, got %v", err)
			}
		})
	})
}

func TestClaims(t *testing.T) {
	exp := time.Now().Add(time.Hour).Truncate(time.Second)
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":      "42",
		"username": "ann",
		"exp":      exp.Unix(),
	}).SignedString([]byte("server-secret"))
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}

	t.Run("ParseClaims", func(t *testing.T) {
		c, err := ParseClaims(token)
		if err != nil {
			t.Fatalf("ParseClaims() error = %v", err)
		}
		if c.UserID != 42 || c.Username != "ann" {
			t.Errorf("unexpected claims %+v", c)
		}
		if !c.ExpiresAt.Equal(exp) {
			t.Errorf("expected expiry %s, got %s", exp, c.ExpiresAt)
		}
		if c.Expired(time.Now()) {
			t.Error("token should not be expired yet")
		}
		if !c.Expired(exp.Add(time.Minute)) {
			t.Error("token should be expired after exp")
		}
	})

	t.Run("Session Claims", func(t *testing.T) {
		s := New(&tu.FakeClient{LoginFunc: loginAs(token, nil)}, credential.NewMemoryStore(""))
		if _, err := s.Claims(); !errors.Is(err, shared.ErrNotAuthenticated) {
			t.Errorf("expected ErrNotAuthenticated, got %v", err)
		}
		if _, err := s.Login(context.Background(), models.LoginRequest{}); err != nil {
			t.Fatalf("Login() error = %v", err)
		}
		c, err := s.Claims()
		if err != nil || c.Username != "ann" {
			t.Errorf("unexpected claims %+v, %v", c, err)
		}
	})

	t.Run("Opaque Credential", func(t *testing.T) {
		if _, err := ParseClaims("not-a-jwt"); !errors.Is(err, shared.ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput, got %v", err)
		}
	})
}
