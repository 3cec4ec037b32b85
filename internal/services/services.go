package services

import (
	"context"

	"github.com/desertthunder/filmx/internal/models"
)

// Client is the full set of REST calls the client core makes against the catalog server.
type Client interface {
	// Login exchanges a username, password and solved captcha for a credential.
	Login(ctx context.Context, req models.LoginRequest) (*models.AuthResponse, error)

	// Register creates an account. The response carries a credential like Login.
	Register(ctx context.Context, req models.RegisterRequest) (*models.AuthResponse, error)

	// Captcha fetches a fresh image captcha required by Login.
	Captcha(ctx context.Context) (*models.Captcha, error)

	// CurrentUser resolves the profile of the credential holder.
	CurrentUser(ctx context.Context) (*models.User, error)

	UnreadNotifications(ctx context.Context) ([]models.Message, error)
	Notifications(ctx context.Context, page, size int) ([]models.Message, error)
	MarkRead(ctx context.Context, ids []int64) error
	Announcements(ctx context.Context) ([]models.Announcement, error)
}

var _ Client = (*APIService)(nil)
