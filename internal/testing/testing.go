// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"io"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/desertthunder/filmx/internal/models"
)

// FakeClient is a test double for services.Client.
//
// Each method delegates to its Func field when set and otherwise returns zero values.
type FakeClient struct {
	LoginFunc               func(ctx context.Context, req models.LoginRequest) (*models.AuthResponse, error)
	RegisterFunc            func(ctx context.Context, req models.RegisterRequest) (*models.AuthResponse, error)
	CaptchaFunc             func(ctx context.Context) (*models.Captcha, error)
	CurrentUserFunc         func(ctx context.Context) (*models.User, error)
	UnreadNotificationsFunc func(ctx context.Context) ([]models.Message, error)
	NotificationsFunc       func(ctx context.Context, page, size int) ([]models.Message, error)
	MarkReadFunc            func(ctx context.Context, ids []int64) error
	AnnouncementsFunc       func(ctx context.Context) ([]models.Announcement, error)

	mu    sync.Mutex
	calls map[string]int
}

func (f *FakeClient) record(name string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.calls == nil {
		f.calls = make(map[string]int)
	}
	f.calls[name]++
}

// Calls returns how many times the named method was invoked.
func (f *FakeClient) Calls(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[name]
}

func (f *FakeClient) Login(ctx context.Context, req models.LoginRequest) (*models.AuthResponse, error) {
	f.record("Login")
	if f.LoginFunc != nil {
		return f.LoginFunc(ctx, req)
	}
	return &models.AuthResponse{}, nil
}

func (f *FakeClient) Register(ctx context.Context, req models.RegisterRequest) (*models.AuthResponse, error) {
	f.record("Register")
	if f.RegisterFunc != nil {
		return f.RegisterFunc(ctx, req)
	}
	return &models.AuthResponse{}, nil
}

func (f *FakeClient) Captcha(ctx context.Context) (*models.Captcha, error) {
	f.record("Captcha")
	if f.CaptchaFunc != nil {
		return f.CaptchaFunc(ctx)
	}
	return &models.Captcha{}, nil
}

func (f *FakeClient) CurrentUser(ctx context.Context) (*models.User, error) {
	f.record("CurrentUser")
	if f.CurrentUserFunc != nil {
		return f.CurrentUserFunc(ctx)
	}
	return &models.User{}, nil
}

func (f *FakeClient) UnreadNotifications(ctx context.Context) ([]models.Message, error) {
	f.record("UnreadNotifications")
	if f.UnreadNotificationsFunc != nil {
		return f.UnreadNotificationsFunc(ctx)
	}
	return nil, nil
}

func (f *FakeClient) Notifications(ctx context.Context, page, size int) ([]models.Message, error) {
	f.record("Notifications")
	if f.NotificationsFunc != nil {
		return f.NotificationsFunc(ctx, page, size)
	}
	return nil, nil
}

func (f *FakeClient) MarkRead(ctx context.Context, ids []int64) error {
	f.record("MarkRead")
	if f.MarkReadFunc != nil {
		return f.MarkReadFunc(ctx, ids)
	}
	return nil
}

func (f *FakeClient) Announcements(ctx context.Context) ([]models.Announcement, error) {
	f.record("Announcements")
	if f.AnnouncementsFunc != nil {
		return f.AnnouncementsFunc(ctx)
	}
	return nil, nil
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites, written int, target io.Writer) LimitedWriter {
	return LimitedWriter{maxWrites: maxWrites, written: written, target: target}
}

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return m.response, m.err
}

// FCloser simulates a failure when reading response body
type FCloser struct{}

func (f *FCloser) Read(p []byte) (n int, err error) {
	return 0, errors.New("read failed")
}

func (f *FCloser) Close() error {
	return nil
}

// Eventually polls cond every few milliseconds until it holds or timeout elapses.
func Eventually(t *testing.T, timeout time.Duration, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("condition not met within %s: %s", timeout, msg)
}
