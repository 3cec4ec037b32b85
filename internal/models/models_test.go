package models

import (
	"encoding/json"
	"testing"
	"time"
)

func TestTimestamp(t *testing.T) {
	t.Run("Unmarshal", func(t *testing.T) {
		tests := []struct {
			name string
			in   string
			want time.Time
		}{
			{"zone-less", `"2024-03-01T10:20:30"`, time.Date(2024, 3, 1, 10, 20, 30, 0, time.UTC)},
			{"fractional", `"2024-03-01T10:20:30.5"`, time.Date(2024, 3, 1, 10, 20, 30, 500000000, time.UTC)},
			{"space separated", `"2024-03-01 10:20:30"`, time.Date(2024, 3, 1, 10, 20, 30, 0, time.UTC)},
			{"rfc3339", `"2024-03-01T10:20:30Z"`, time.Date(2024, 3, 1, 10, 20, 30, 0, time.UTC)},
			{"null", `null`, time.Time{}},
			{"empty", `""`, time.Time{}},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				var ts Timestamp
				if err := json.Unmarshal([]byte(tt.in), &ts); err != nil {
					t.Fatalf("Unmarshal(%s) error = %v", tt.in, err)
				}
				if !ts.Equal(tt.want) {
					t.Errorf("expected %s, got %s", tt.want, ts.Time)
				}
			})
		}
	})

	t.Run("Rejects Garbage", func(t *testing.T) {
		var ts Timestamp
		if err := json.Unmarshal([]byte(`"yesterday"`), &ts); err == nil {
			t.Error("expected error for unrecognized timestamp")
		}
		if err := json.Unmarshal([]byte(`12`), &ts); err == nil {
			t.Error("expected error for non-string timestamp")
		}
	})

	t.Run("Marshal", func(t *testing.T) {
		b, _ := json.Marshal(Timestamp{})
		if string(b) != "null" {
			t.Errorf("expected null for zero time, got %s", b)
		}
		b, _ = json.Marshal(Timestamp{time.Date(2024, 3, 1, 10, 20, 30, 0, time.UTC)})
		if string(b) != `"2024-03-01T10:20:30Z"` {
			t.Errorf("unexpected encoding %s", b)
		}
	})
}

func TestMessage(t *testing.T) {
	var m Message
	body := `{"id":4,"receiverId":2,"title":"hi","status":"UNREAD","createdAt":"2024-03-01T10:20:30"}`
	if err := json.Unmarshal([]byte(body), &m); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if m.ID != 4 || !m.Unread() || m.CreatedAt.Year() != 2024 {
		t.Errorf("unexpected message %+v", m)
	}
}

func TestRole(t *testing.T) {
	for role, want := range map[Role]bool{RoleAdmin: true, "admin": true, RoleUser: false, "": false} {
		if got := role.IsAdmin(); got != want {
			t.Errorf("Role(%q).IsAdmin() = %v, want %v", role, got, want)
		}
	}
}
