package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"

	"github.com/desertthunder/filmx/internal/models"
)

var (
	_ list.Item = messageItem{}
	_ list.Item = announcementItem{}
)

const timeLayout = "2006-01-02 15:04"

// messageItem wraps [models.Message] to implement [list.Item].
type messageItem struct {
	message models.Message
}

func (i messageItem) FilterValue() string { return i.message.Title }
func (i messageItem) Title() string {
	if i.message.Unread() {
		return "● " + i.message.Title
	}
	return "  " + i.message.Title
}
func (i messageItem) Description() string {
	if i.message.CreatedAt.IsZero() {
		return i.message.Content
	}
	return fmt.Sprintf("%s • %s", i.message.CreatedAt.Format(timeLayout), i.message.Content)
}

// announcementItem wraps [models.Announcement] to implement [list.Item].
type announcementItem struct {
	announcement models.Announcement
}

func (i announcementItem) FilterValue() string { return i.announcement.Title }
func (i announcementItem) Title() string       { return i.announcement.Title }
func (i announcementItem) Description() string {
	if i.announcement.CreatedAt.IsZero() {
		return i.announcement.Content
	}
	return fmt.Sprintf("%s • %s", i.announcement.CreatedAt.Format(timeLayout), i.announcement.Content)
}

func messageItems(msgs []models.Message) []list.Item {
	items := make([]list.Item, len(msgs))
	for i, m := range msgs {
		items[i] = messageItem{message: m}
	}
	return items
}

func announcementItems(anns []models.Announcement) []list.Item {
	items := make([]list.Item, len(anns))
	for i, a := range anns {
		items[i] = announcementItem{announcement: a}
	}
	return items
}
