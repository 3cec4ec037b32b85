package notify

import (
	"slices"

	"github.com/desertthunder/filmx/internal/models"
)

// PrependMessage puts m at the head of msgs and returns the new collection and the change in
// unread count. A message whose id is already present is skipped and msgs is returned as is.
//
// msgs is never modified.
func PrependMessage(msgs []models.Message, m models.Message) ([]models.Message, int) {
	if slices.ContainsFunc(msgs, func(x models.Message) bool { return x.ID == m.ID }) {
		return msgs, 0
	}

	next := make([]models.Message, 0, len(msgs)+1)
	next = append(next, m)
	next = append(next, msgs...)

	if m.Unread() {
		return next, 1
	}
	return next, 0
}

// PrependAnnouncement puts a at the head of anns and reports whether it was added. An
// announcement with an id already present is skipped. Broadcasts carry no id (zero) and are
// always added.
func PrependAnnouncement(anns []models.Announcement, a models.Announcement) ([]models.Announcement, bool) {
	if a.ID != 0 && slices.ContainsFunc(anns, func(x models.Announcement) bool { return x.ID == a.ID }) {
		return anns, false
	}

	next := make([]models.Announcement, 0, len(anns)+1)
	next = append(next, a)
	return append(next, anns...), true
}

// ApplyRead returns a copy of msgs with every message whose id is in ids marked read, and how
// many messages changed status. Ids not present are ignored.
func ApplyRead(msgs []models.Message, ids []int64) ([]models.Message, int) {
	set := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}

	next := slices.Clone(msgs)
	changed := 0
	for i := range next {
		if _, ok := set[next[i].ID]; !ok {
			continue
		}
		if next[i].Status != models.StatusRead {
			next[i].Status = models.StatusRead
			changed++
		}
	}
	return next, changed
}

// CountUnread counts messages with status UNREAD.
func CountUnread(msgs []models.Message) int {
	n := 0
	for _, m := range msgs {
		if m.Unread() {
			n++
		}
	}
	return n
}

// UnreadIDs returns the ids of unread messages in collection order.
func UnreadIDs(msgs []models.Message) []int64 {
	var ids []int64
	for _, m := range msgs {
		if m.Unread() {
			ids = append(ids, m.ID)
		}
	}
	return ids
}
