package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/desertthunder/filmx/internal/models"
	"github.com/desertthunder/filmx/internal/shared"
	"github.com/urfave/cli/v3"
)

// AuthCaptcha fetches a login captcha, saves the image and prints the id to pass to 'auth login'.
func (r *Runner) AuthCaptcha(ctx context.Context, cmd *cli.Command) error {
	if err := r.start(ctx, false); err != nil {
		return err
	}

	captcha, err := r.api.Captcha(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch captcha: %w", err)
	}

	dir := cmd.String("output")
	if dir == "" {
		dir = os.TempDir()
	}
	path, err := shared.WriteDataURL(captcha.Image, dir, "filmx-captcha-"+captcha.CaptchaID+".png")
	if err != nil {
		return err
	}
	r.logger.Debug("captcha saved", "path", path, "expires_in", captcha.ExpiresIn)

	if !cmd.Bool("no-open") {
		if err := shared.OpenBrowser("file://" + path); err != nil {
			r.logger.Warn("failed to open captcha image", "error", err)
		}
	}

	r.writePlain("Captcha ID: %s\n", captcha.CaptchaID)
	r.writePlain("Image:      %s\n", path)
	if captcha.ExpiresIn > 0 {
		r.writePlain("Expires in: %s\n", time.Duration(captcha.ExpiresIn)*time.Second)
	}
	return nil
}

// AuthLogin logs in and persists the credential.
func (r *Runner) AuthLogin(ctx context.Context, cmd *cli.Command) error {
	password := cmd.String("password")
	if password == "" {
		return fmt.Errorf("%w: --password or FILMX_PASSWORD", shared.ErrMissingArgument)
	}
	if err := r.start(ctx, false); err != nil {
		return err
	}

	resp, err := r.session.Login(ctx, models.LoginRequest{
		Username:    cmd.String("username"),
		Password:    password,
		CaptchaID:   cmd.String("captcha-id"),
		CaptchaCode: cmd.String("captcha"),
	})
	if err != nil {
		return fmt.Errorf("login failed (%s): %w", shared.UserMessage(err), err)
	}

	r.logger.Info("login successful")
	return r.writePlain("✓ Logged in as %s\n", displayName(resp.User))
}

// AuthRegister creates an account and keeps the credential it returns.
func (r *Runner) AuthRegister(ctx context.Context, cmd *cli.Command) error {
	password := cmd.String("password")
	if password == "" {
		return fmt.Errorf("%w: --password or FILMX_PASSWORD", shared.ErrMissingArgument)
	}
	if err := r.start(ctx, false); err != nil {
		return err
	}

	resp, err := r.session.Register(ctx, models.RegisterRequest{
		Username: cmd.String("username"),
		Email:    cmd.String("email"),
		Password: password,
	})
	if err != nil {
		return fmt.Errorf("registration failed (%s): %w", shared.UserMessage(err), err)
	}

	return r.writePlain("✓ Registered and logged in as %s\n", displayName(resp.User))
}

// AuthLogout clears the credential from memory and the store.
func (r *Runner) AuthLogout(ctx context.Context, cmd *cli.Command) error {
	if err := r.start(ctx, false); err != nil {
		return err
	}
	if !r.session.IsLoggedIn() {
		return r.writePlain("Not logged in\n")
	}

	r.session.Logout()
	return r.writePlain("✓ Logged out\n")
}

type authStatus struct {
	LoggedIn  bool         `json:"loggedIn"`
	User      *models.User `json:"user,omitempty"`
	ExpiresAt *time.Time   `json:"expiresAt,omitempty"`
	Expired   bool         `json:"expired,omitempty"`
}

// AuthStatus resolves the profile of the stored credential and reports when it expires.
func (r *Runner) AuthStatus(ctx context.Context, cmd *cli.Command) error {
	if err := r.start(ctx, false); err != nil {
		return err
	}

	status := authStatus{LoggedIn: r.session.IsLoggedIn()}
	if status.LoggedIn {
		if err := r.session.FetchProfile(ctx); err != nil {
			r.logger.Warn("failed to fetch profile", "error", err)
		}
		status.User = r.session.Profile()
		status.LoggedIn = r.session.IsLoggedIn()

		if claims, err := r.session.Claims(); err == nil && !claims.ExpiresAt.IsZero() {
			status.ExpiresAt = &claims.ExpiresAt
			status.Expired = claims.Expired(time.Now())
		}
	}

	if cmd.Bool("json") {
		return r.writeJSON(status, cmd.Bool("pretty"))
	}

	if !status.LoggedIn {
		return r.writePlain("Not logged in\n")
	}

	r.writePlainHeader("Session")
	r.writePlain("User:    %s\n", displayName(status.User))
	if status.User != nil {
		r.writePlain("Role:    %s\n", status.User.Role)
		if status.User.Email != "" {
			r.writePlain("Email:   %s\n", status.User.Email)
		}
	}
	if status.ExpiresAt != nil {
		state := "valid"
		if status.Expired {
			state = "expired"
		}
		r.writePlain("Expires: %s (%s)\n", status.ExpiresAt.Local().Format(time.RFC1123), state)
	}
	return nil
}

func displayName(u *models.User) string {
	if u == nil || u.Username == "" {
		return "(unknown user)"
	}
	return u.Username
}
