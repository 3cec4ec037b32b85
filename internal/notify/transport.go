package notify

import "context"

// Default destinations of the private queue and the broadcast topic.
const (
	QueueDestination = "/user/queue/notice"
	TopicDestination = "/topic/announcement"
)

// Transport opens authenticated streaming connections.
type Transport interface {
	// Dial connects and authenticates with credential. Canceling ctx aborts the attempt.
	Dial(ctx context.Context, credential string) (Conn, error)
}

// Conn is one live streaming connection.
type Conn interface {
	// Subscribe returns the bodies delivered to destination, in delivery order. The channel is
	// closed when the connection drops.
	Subscribe(destination string) (<-chan []byte, error)

	// Done is closed once the connection is lost or closed.
	Done() <-chan struct{}

	Close() error
}
