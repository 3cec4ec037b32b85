package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/desertthunder/filmx/internal/models"
)

// LogKind distinguishes private messages from announcements in the log.
type LogKind string

const (
	KindMessage      LogKind = "message"
	KindAnnouncement LogKind = "announcement"
)

// LogEntry is one recorded push delivery.
type LogEntry struct {
	ID         int64
	Kind       LogKind
	Title      string
	Content    string
	CreatedAt  sql.NullTime
	ReceivedAt time.Time
}

// MessageLogRepository records pushed deliveries for later review.
type MessageLogRepository struct {
	db *sql.DB
}

// NewMessageLogRepository creates a new [MessageLogRepository] with the given database connection
func NewMessageLogRepository(db *sql.DB) *MessageLogRepository {
	return &MessageLogRepository{db: db}
}

// RecordMessage stores a private message. Repeated deliveries of the same id are ignored.
func (r *MessageLogRepository) RecordMessage(m models.Message) error {
	return r.insert(KindMessage, m.ID, m.Title, m.Content, m.CreatedAt)
}

// RecordAnnouncement stores an announcement. Repeated deliveries of the same id are ignored.
func (r *MessageLogRepository) RecordAnnouncement(a models.Announcement) error {
	return r.insert(KindAnnouncement, a.ID, a.Title, a.Content, a.CreatedAt)
}

func (r *MessageLogRepository) insert(kind LogKind, id int64, title, content string, createdAt models.Timestamp) error {
	var created sql.NullTime
	if !createdAt.IsZero() {
		created = sql.NullTime{Time: createdAt.Time, Valid: true}
	}

	query := `
		INSERT OR IGNORE INTO message_log (id, kind, title, content, created_at, received_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	if _, err := r.db.Exec(query, id, string(kind), title, content, created, time.Now().UTC()); err != nil {
		return fmt.Errorf("failed to record %s %d: %w", kind, id, err)
	}
	return nil
}

// Recent returns up to limit entries, most recently received first.
func (r *MessageLogRepository) Recent(limit int) ([]LogEntry, error) {
	query := `
		SELECT id, kind, title, content, created_at, received_at
		FROM message_log
		ORDER BY received_at DESC, rowid DESC
		LIMIT ?
	`
	rows, err := r.db.Query(query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query message log: %w", err)
	}
	defer rows.Close()

	var entries []LogEntry
	for rows.Next() {
		var (
			e    LogEntry
			kind string
		)
		if err := rows.Scan(&e.ID, &kind, &e.Title, &e.Content, &e.CreatedAt, &e.ReceivedAt); err != nil {
			return nil, fmt.Errorf("failed to scan message log entry: %w", err)
		}
		e.Kind = LogKind(kind)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating message log: %w", err)
	}
	return entries, nil
}

// Clear deletes every entry and returns how many were removed.
func (r *MessageLogRepository) Clear() (int64, error) {
	res, err := r.db.Exec(`DELETE FROM message_log`)
	if err != nil {
		return 0, fmt.Errorf("failed to clear message log: %w", err)
	}
	return res.RowsAffected()
}
