// package formatter provides functions to export inbox data to various formats (CSV, Markdown, plain text)
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/desertthunder/filmx/internal/models"
	"github.com/desertthunder/filmx/internal/shared"
)

const timeLayout = "2006-01-02 15:04"

// Format names accepted by [Export].
const (
	FormatCSV      = "csv"
	FormatMarkdown = "markdown"
	FormatText     = "text"
)

// InboxExport is a point-in-time copy of the synchronizer's collections.
type InboxExport struct {
	Messages      []models.Message
	Announcements []models.Announcement
	ExportedAt    time.Time
}

func formatTime(ts models.Timestamp) string {
	if ts.IsZero() {
		return ""
	}
	return ts.Format(timeLayout)
}

// ExportToCSV converts an InboxExport to CSV format with columns: Kind, ID, Title, Status, Created, Content
func ExportToCSV(export *InboxExport) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"Kind", "ID", "Title", "Status", "Created", "Content"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, m := range export.Messages {
		record := []string{
			"message",
			strconv.FormatInt(m.ID, 10),
			m.Title,
			string(m.Status),
			formatTime(m.CreatedAt),
			m.Content,
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}
	for _, a := range export.Announcements {
		record := []string{
			"announcement",
			strconv.FormatInt(a.ID, 10),
			a.Title,
			"",
			formatTime(a.CreatedAt),
			a.Content,
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// ExportToMarkdown converts an InboxExport to Markdown with one section per collection.
func ExportToMarkdown(export *InboxExport) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString("# Inbox\n\n")
	if !export.ExportedAt.IsZero() {
		buf.WriteString(fmt.Sprintf("**Exported**: %s\n", export.ExportedAt.Format(timeLayout)))
	}
	buf.WriteString(fmt.Sprintf("**Messages**: %d\n", len(export.Messages)))
	buf.WriteString(fmt.Sprintf("**Announcements**: %d\n\n", len(export.Announcements)))

	buf.WriteString("## Messages\n\n")
	for i, m := range export.Messages {
		marker := ""
		if m.Unread() {
			marker = " **(unread)**"
		}
		buf.WriteString(fmt.Sprintf("%d. %s%s", i+1, m.Title, marker))
		if created := formatTime(m.CreatedAt); created != "" {
			buf.WriteString(fmt.Sprintf(" [%s]", created))
		}
		buf.WriteString("\n")
		if m.Content != "" {
			buf.WriteString(fmt.Sprintf("   > %s\n", strings.ReplaceAll(m.Content, "\n", "\n   > ")))
		}
	}

	buf.WriteString("\n## Announcements\n\n")
	for _, a := range export.Announcements {
		buf.WriteString(fmt.Sprintf("### %s\n\n", a.Title))
		if created := formatTime(a.CreatedAt); created != "" {
			buf.WriteString(fmt.Sprintf("_%s_\n\n", created))
		}
		if a.Content != "" {
			buf.WriteString(a.Content + "\n\n")
		}
	}

	return buf.Bytes(), nil
}

// ExportToText converts an InboxExport to plain text format
func ExportToText(export *InboxExport) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("Messages: %d\n", len(export.Messages)))
	for i, m := range export.Messages {
		buf.WriteString(fmt.Sprintf("%d. [%s] %s\n", i+1, m.Status, m.Title))
	}

	buf.WriteString(fmt.Sprintf("\nAnnouncements: %d\n", len(export.Announcements)))
	for i, a := range export.Announcements {
		buf.WriteString(fmt.Sprintf("%d. %s\n", i+1, a.Title))
	}

	return buf.Bytes(), nil
}

// Export renders export in the named format.
func Export(export *InboxExport, format string) ([]byte, error) {
	switch strings.ToLower(format) {
	case FormatCSV:
		return ExportToCSV(export)
	case FormatMarkdown, "md":
		return ExportToMarkdown(export)
	case FormatText, "txt":
		return ExportToText(export)
	default:
		return nil, fmt.Errorf("%w: unknown export format %q", shared.ErrInvalidArgument, format)
	}
}

// WriteExport renders export and writes it to path.
func WriteExport(export *InboxExport, format, path string) error {
	data, err := Export(export, format)
	if err != nil {
		return err
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write export file: %w", err)
	}
	return nil
}
