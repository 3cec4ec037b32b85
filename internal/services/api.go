// REST client for the catalog server
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"

	"github.com/desertthunder/filmx/internal/models"
	"github.com/desertthunder/filmx/internal/shared"
)

const (
	defaultBaseURL = "http://localhost:8080/api"
	defaultTimeout = 10 * time.Second
)

// CredentialSource supplies the bearer credential attached to outgoing requests.
type CredentialSource interface {
	Credential() string
}

// CredentialFunc adapts a function to [CredentialSource].
type CredentialFunc func() string

func (f CredentialFunc) Credential() string { return f() }

// RequestError is a non-2xx response from the server.
type RequestError struct {
	Method     string
	Path       string
	StatusCode int
	Message    string // server-provided "error" field, may be empty
}

func (e *RequestError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s %s: status %d", e.Method, e.Path, e.StatusCode)
	}
	return fmt.Sprintf("%s %s: status %d: %s", e.Method, e.Path, e.StatusCode, e.Message)
}

// ServerMessage implements [shared.ServerMessenger].
func (e *RequestError) ServerMessage() string { return e.Message }

func (e *RequestError) Unwrap() error { return shared.ErrAPIRequest }

// Unauthorized reports whether the server rejected the credential.
func (e *RequestError) Unauthorized() bool {
	return e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden
}

// APIService performs JSON requests against the catalog REST API.
type APIService struct {
	baseURL     string
	httpClient  *http.Client
	credentials CredentialSource
	limiter     *rate.Limiter
	logger      *log.Logger
}

// Option configures an [APIService].
type Option func(*APIService)

// WithCredentials sets the source of the bearer credential.
func WithCredentials(src CredentialSource) Option {
	return func(a *APIService) { a.credentials = src }
}

// WithRateLimit caps outgoing requests per second. Zero or less disables the limit.
func WithRateLimit(rps float64) Option {
	return func(a *APIService) {
		if rps > 0 {
			a.limiter = rate.NewLimiter(rate.Limit(rps), 1)
		}
	}
}

// WithLogger sets the logger used for request tracing.
func WithLogger(l *log.Logger) Option {
	return func(a *APIService) { a.logger = l }
}

// NewAPIService creates a new API service rooted at baseURL.
//
// A nil client gets a dedicated [http.Client] with a ten second timeout.
func NewAPIService(baseURL string, client *http.Client, opts ...Option) *APIService {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if client == nil {
		client = &http.Client{Timeout: defaultTimeout}
	}

	a := &APIService{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: client,
		logger:     shared.NewDiscardLogger(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// BaseURL returns the root every request path is appended to.
func (a *APIService) BaseURL() string { return a.baseURL }

// Login exchanges credentials and a solved captcha for a bearer credential.
func (a *APIService) Login(ctx context.Context, req models.LoginRequest) (*models.AuthResponse, error) {
	var resp models.AuthResponse
	if err := a.do(ctx, http.MethodPost, "/auth/login", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Register creates an account and returns its bearer credential.
func (a *APIService) Register(ctx context.Context, req models.RegisterRequest) (*models.AuthResponse, error) {
	var resp models.AuthResponse
	if err := a.do(ctx, http.MethodPost, "/auth/register", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Captcha requests a fresh login captcha.
func (a *APIService) Captcha(ctx context.Context) (*models.Captcha, error) {
	var c models.Captcha
	if err := a.do(ctx, http.MethodGet, "/auth/captcha", nil, &c); err != nil {
		return nil, err
	}
	return &c, nil
}

// CurrentUser fetches the profile of the credential holder.
func (a *APIService) CurrentUser(ctx context.Context) (*models.User, error) {
	var u models.User
	if err := a.do(ctx, http.MethodGet, "/users/me", nil, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// UnreadNotifications lists every unread private message.
func (a *APIService) UnreadNotifications(ctx context.Context) ([]models.Message, error) {
	var msgs []models.Message
	if err := a.do(ctx, http.MethodGet, "/notifications/unread", nil, &msgs); err != nil {
		return nil, err
	}
	return msgs, nil
}

// Notifications lists one page of private messages, read and unread. Pages start at 1.
func (a *APIService) Notifications(ctx context.Context, page, size int) ([]models.Message, error) {
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	q.Set("size", strconv.Itoa(size))

	var msgs []models.Message
	if err := a.do(ctx, http.MethodGet, "/notifications?"+q.Encode(), nil, &msgs); err != nil {
		return nil, err
	}
	return msgs, nil
}

// MarkRead commits the given message ids as read.
func (a *APIService) MarkRead(ctx context.Context, ids []int64) error {
	return a.do(ctx, http.MethodPost, "/notifications/read", ids, nil)
}

// Announcements lists the active site-wide announcements.
func (a *APIService) Announcements(ctx context.Context) ([]models.Announcement, error) {
	var anns []models.Announcement
	if err := a.do(ctx, http.MethodGet, "/announcements", nil, &anns); err != nil {
		return nil, err
	}
	return anns, nil
}

type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// do sends body as JSON and decodes a 2xx response into result when non-nil.
func (a *APIService) do(ctx context.Context, method, path string, body, result any) error {
	if a.limiter != nil {
		if err := a.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limiter: %w", err)
		}
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, a.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if a.credentials != nil {
		if token := a.credentials.Credential(); token != "" {
			(&oauth2.Token{AccessToken: token}).SetAuthHeader(req)
		}
	}

	start := time.Now()
	resp, err := a.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", shared.ErrAPIRequest, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}
	a.logger.Debug("api request", "method", method, "path", path, "status", resp.StatusCode, "elapsed", time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		reqErr := &RequestError{Method: method, Path: path, StatusCode: resp.StatusCode}
		var eb errorBody
		if json.Unmarshal(data, &eb) == nil {
			reqErr.Message = eb.Error
			if reqErr.Message == "" {
				reqErr.Message = eb.Message
			}
		}
		return reqErr
	}

	if result == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, result); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
