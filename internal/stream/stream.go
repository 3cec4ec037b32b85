// Package stream implements [notify.Transport] as STOMP over a websocket.
//
// The server expects one STOMP frame per websocket text message and reads the bearer credential
// from the Authorization header of the CONNECT frame.
package stream

import (
	"context"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-stomp/stomp/v3"
	"github.com/gorilla/websocket"

	"github.com/desertthunder/filmx/internal/notify"
	"github.com/desertthunder/filmx/internal/shared"
)

const (
	defaultHandshakeTimeout  = 10 * time.Second
	defaultDisconnectTimeout = 2 * time.Second
)

// Transport dials STOMP sessions over websockets.
type Transport struct {
	url               string
	dialer            *websocket.Dialer
	sendBeat          time.Duration
	recvBeat          time.Duration
	disconnectTimeout time.Duration
	logger            *log.Logger
}

// Option configures a [Transport].
type Option func(*Transport)

// WithHeartBeat sets the STOMP heart-beat intervals. Zero disables that direction.
func WithHeartBeat(send, recv time.Duration) Option {
	return func(t *Transport) { t.sendBeat, t.recvBeat = send, recv }
}

// WithDialer replaces the websocket dialer.
func WithDialer(d *websocket.Dialer) Option {
	return func(t *Transport) {
		if d != nil {
			t.dialer = d
		}
	}
}

// WithLogger sets the transport logger.
func WithLogger(l *log.Logger) Option {
	return func(t *Transport) { t.logger = shared.WithLogger(l, "component", "stream") }
}

// New creates a Transport for the websocket endpoint at rawURL, e.g. ws://host/api/ws/websocket.
func New(rawURL string, opts ...Option) *Transport {
	t := &Transport{
		url:               rawURL,
		dialer:            &websocket.Dialer{HandshakeTimeout: defaultHandshakeTimeout},
		disconnectTimeout: defaultDisconnectTimeout,
		logger:            shared.NewDiscardLogger(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

var _ notify.Transport = (*Transport)(nil)

// Dial opens the websocket and performs the STOMP handshake. Canceling ctx aborts either step.
func (t *Transport) Dial(ctx context.Context, credential string) (notify.Conn, error) {
	u, err := url.Parse(t.url)
	if err != nil {
		return nil, fmt.Errorf("%w: stream url: %w", shared.ErrInvalidConfig, err)
	}

	ws, resp, err := t.dialer.DialContext(ctx, t.url, nil)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("websocket dial failed (status %d): %w", resp.StatusCode, err)
		}
		return nil, fmt.Errorf("websocket dial failed: %w", err)
	}

	rw := newWSConn(ws)
	stop := context.AfterFunc(ctx, func() { rw.Close() })

	client, err := stomp.Connect(rw,
		stomp.ConnOpt.Host(u.Host),
		stomp.ConnOpt.HeartBeat(t.sendBeat, t.recvBeat),
		stomp.ConnOpt.Header("Authorization", "Bearer "+credential),
	)
	if !stop() {
		if client != nil {
			client.MustDisconnect()
		}
		rw.Close()
		return nil, ctx.Err()
	}
	if err != nil {
		rw.Close()
		return nil, fmt.Errorf("stomp connect: %w", err)
	}

	t.logger.Debug("stomp session established", "url", t.url)
	return &conn{
		client:            client,
		rw:                rw,
		logger:            t.logger,
		disconnectTimeout: t.disconnectTimeout,
		done:              make(chan struct{}),
	}, nil
}

// conn is one STOMP session.
type conn struct {
	client            *stomp.Conn
	rw                *wsConn
	logger            *log.Logger
	disconnectTimeout time.Duration

	done     chan struct{}
	lostOnce sync.Once

	closeOnce sync.Once
	closeErr  error
}

// Subscribe subscribes with automatic acknowledgement and forwards message bodies until the
// session ends.
func (c *conn) Subscribe(destination string) (<-chan []byte, error) {
	sub, err := c.client.Subscribe(destination, stomp.AckAuto)
	if err != nil {
		return nil, fmt.Errorf("subscribe %s: %w", destination, err)
	}

	out := make(chan []byte)
	go func() {
		defer close(out)
		for {
			select {
			case <-c.done:
				return
			case msg, ok := <-sub.C:
				if !ok {
					c.lose()
					return
				}
				if msg.Err != nil {
					c.logger.Warn("subscription ended", "destination", destination, "error", msg.Err)
					c.lose()
					return
				}
				select {
				case out <- msg.Body:
				case <-c.done:
					return
				}
			}
		}
	}()
	return out, nil
}

func (c *conn) Done() <-chan struct{} {
	return c.done
}

// Close disconnects gracefully, falling back to dropping the socket when the server does not
// acknowledge in time or the session is already lost.
func (c *conn) Close() error {
	c.closeOnce.Do(func() {
		select {
		case <-c.done:
			c.client.MustDisconnect()
		default:
			c.lose()
			result := make(chan error, 1)
			go func() { result <- c.client.Disconnect() }()

			timer := time.NewTimer(c.disconnectTimeout)
			defer timer.Stop()
			select {
			case c.closeErr = <-result:
			case <-timer.C:
				c.logger.Debug("disconnect receipt timed out")
				c.client.MustDisconnect()
			}
		}
		c.rw.Close()
	})
	return c.closeErr
}

func (c *conn) lose() {
	c.lostOnce.Do(func() { close(c.done) })
}
