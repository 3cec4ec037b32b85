package notify

import (
	"fmt"

	"github.com/desertthunder/filmx/internal/models"
)

// State is the connection state of a [Synchronizer].
type State int

const (
	Disconnected State = iota
	Connecting
	Connected
	Reconnecting
)

func (s State) String() string {
	switch s {
	case Disconnected:
		return "disconnected"
	case Connecting:
		return "connecting"
	case Connected:
		return "connected"
	case Reconnecting:
		return "reconnecting"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// EventKind identifies an [Event].
type EventKind int

const (
	EventConnected EventKind = iota + 1
	EventReconnected
	EventConnectionLost
	EventDisconnected
	EventMessage
	EventAnnouncement
)

func (k EventKind) String() string {
	switch k {
	case EventConnected:
		return "connected"
	case EventReconnected:
		return "reconnected"
	case EventConnectionLost:
		return "connection-lost"
	case EventDisconnected:
		return "disconnected"
	case EventMessage:
		return "message"
	case EventAnnouncement:
		return "announcement"
	default:
		return fmt.Sprintf("EventKind(%d)", int(k))
	}
}

// Event reports a change in a [Synchronizer]. Events are dropped when the feed is full.
type Event struct {
	Kind         EventKind
	HandleID     string
	Message      *models.Message      // EventMessage only
	Announcement *models.Announcement // EventAnnouncement only
	Err          error                // EventConnectionLost only
}
