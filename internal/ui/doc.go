// Package ui implements an interactive inbox using bubbletea's Elm architecture.
//
// The TUI has three views:
//  1. [MessagesView] : Browse personal messages, most recent first, unread ones marked with a dot
//  2. [AnnouncementsView] : Browse active site announcements
//  3. [DetailView] : Read one message or announcement in full
//
// The [Model] implements bubbletea/Elm's standard Init/Update/View pattern, receiving messages via the Msg union type.
// Push deliveries and connection changes flow through the synchronizer's event feed; each event re-renders the
// lists from the synchronizer's collections, so the view never holds state of its own.
//
// Keyboard navigation uses vim-style bindings (j/k, enter, esc, tab, m, a, r, q) with contextual help displayed via
// charmbracelet/bubbles/help.
package ui
