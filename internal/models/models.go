// package models defines the data model shared by the session, guard and notification packages
package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Role is the authorization role carried by a [User].
type Role string

const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)

// IsAdmin reports whether the role grants admin views. The server compares case-insensitively.
func (r Role) IsAdmin() bool {
	return strings.EqualFold(string(r), string(RoleAdmin))
}

// MessageStatus is the read state of a [Message].
type MessageStatus string

const (
	StatusUnread MessageStatus = "UNREAD"
	StatusRead   MessageStatus = "READ"
)

// timestampLayouts are tried in order; the server emits zone-less local date-times.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

// Timestamp decodes the server's date-time strings, with or without a zone offset.
type Timestamp struct {
	time.Time
}

func (t *Timestamp) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		t.Time = time.Time{}
		return nil
	}

	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("timestamp must be a string: %w", err)
	}
	if raw == "" {
		t.Time = time.Time{}
		return nil
	}

	for _, layout := range timestampLayouts {
		if parsed, err := time.Parse(layout, raw); err == nil {
			t.Time = parsed
			return nil
		}
	}
	return fmt.Errorf("unrecognized timestamp %q", raw)
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.Format(time.RFC3339))
}

// User is the resolved identity of the credential holder, as returned by /users/me.
type User struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email,omitempty"`
	Avatar    string    `json:"avatar,omitempty"`
	Bio       string    `json:"bio,omitempty"`
	Role      Role      `json:"role"`
	Status    string    `json:"status,omitempty"`
	CreatedAt Timestamp `json:"createdAt"`
}

// Message is a site message delivered to a single user.
//
// ReceivedOrder is assigned locally and records arrival order within one synchronizer.
type Message struct {
	ID            int64         `json:"id"`
	ReceiverID    int64         `json:"receiverId"`
	SenderID      int64         `json:"senderId"`
	Title         string        `json:"title"`
	Content       string        `json:"content"`
	Status        MessageStatus `json:"status"`
	CreatedAt     Timestamp     `json:"createdAt"`
	ReceivedOrder uint64        `json:"-"`
}

// Unread reports whether the message still counts towards the unread badge.
func (m Message) Unread() bool {
	return m.Status == StatusUnread
}

// Announcement is a site-wide broadcast.
type Announcement struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Active    bool      `json:"active"`
	CreatedBy int64     `json:"createdBy,omitempty"`
	CreatedAt Timestamp `json:"createdAt"`
	UpdatedAt Timestamp `json:"updatedAt"`
}

// LoginRequest is the body of POST /auth/login. Username may also be an email address.
type LoginRequest struct {
	Username    string `json:"username"`
	Password    string `json:"password"`
	CaptchaID   string `json:"captchaId"`
	CaptchaCode string `json:"captchaCode"`
}

// RegisterRequest is the body of POST /auth/register.
type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthResponse is returned by login and register.
type AuthResponse struct {
	Token string `json:"token"`
	User  *User  `json:"user"`
}

// Captcha is a one-time login challenge. Image is a data URL holding a base64 PNG.
type Captcha struct {
	CaptchaID string `json:"captchaId"`
	Image     string `json:"image"`
	ExpiresIn int    `json:"expiresIn"`
}
