package ui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/desertthunder/filmx/internal/notify"
)

// MsgKind enumerates all message types in the application.
type MsgKind int

// Msg represents all possible messages in the TUI (Elm-style message union).
type Msg struct {
	kind MsgKind
	data any
}

var (
	_ tea.Msg = Msg{}
)

const (
	MsgLoaded MsgKind = iota
	MsgSyncEvent
	MsgMarked
	MsgFeedClosed
)

// loadedMsg is the constructor for [MsgLoaded]
func loadedMsg(err error) Msg {
	return Msg{kind: MsgLoaded, data: err}
}

// syncEventMsg is the constructor for [MsgSyncEvent]
func syncEventMsg(e notify.Event) Msg {
	return Msg{kind: MsgSyncEvent, data: e}
}

// markedMsg is the constructor for [MsgMarked]
func markedMsg(count int, err error) Msg {
	return Msg{
		kind: MsgMarked,
		data: struct {
			count int
			err   error
		}{count, err},
	}
}

// feedClosedMsg is the constructor for [MsgFeedClosed]
func feedClosedMsg() Msg {
	return Msg{kind: MsgFeedClosed}
}
