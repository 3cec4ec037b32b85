// Package notify keeps a local, eventually consistent view of the user's unread messages and
// site announcements.
//
// A [Synchronizer] combines REST snapshots with a push subscription over a [Transport]. It owns at
// most one live subscription handle; [Synchronizer.Connect] replaces it and the replaced handle's
// late deliveries are ignored by handle identity.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/filmx/internal/models"
	"github.com/desertthunder/filmx/internal/shared"
)

const (
	defaultReconnectDelay = 5 * time.Second
	defaultEventBuffer    = 64
)

// API is the subset of the Request Service the synchronizer uses.
type API interface {
	UnreadNotifications(ctx context.Context) ([]models.Message, error)
	Notifications(ctx context.Context, page, size int) ([]models.Message, error)
	MarkRead(ctx context.Context, ids []int64) error
	Announcements(ctx context.Context) ([]models.Announcement, error)
}

// handle is one subscription handle: a goroutine that dials, subscribes and reconnects until
// canceled.
type handle struct {
	id     string
	cancel context.CancelFunc
	done   chan struct{}
}

// Synchronizer owns the message and announcement collections and the live subscription.
type Synchronizer struct {
	api       API
	transport Transport
	logger    *log.Logger
	delay     time.Duration
	queue     string
	topic     string

	lifecycle sync.Mutex // serializes Connect and Disconnect

	mu            sync.RWMutex
	messages      []models.Message
	announcements []models.Announcement
	unread        int
	state         State
	order         uint64
	epoch         uint64 // bumped by Reset and Connect; stale snapshots are discarded
	current       *handle

	events chan Event
}

// Option configures a [Synchronizer].
type Option func(*Synchronizer)

// WithReconnectDelay sets the fixed delay between reconnect attempts.
func WithReconnectDelay(d time.Duration) Option {
	return func(s *Synchronizer) {
		if d > 0 {
			s.delay = d
		}
	}
}

// WithLogger sets the synchronizer logger.
func WithLogger(l *log.Logger) Option {
	return func(s *Synchronizer) { s.logger = shared.WithLogger(l, "component", "notify") }
}

// WithDestinations overrides the private queue and broadcast topic.
func WithDestinations(queue, topic string) Option {
	return func(s *Synchronizer) { s.queue, s.topic = queue, topic }
}

// WithEventBuffer sets the capacity of the [Synchronizer.Events] feed.
func WithEventBuffer(n int) Option {
	return func(s *Synchronizer) { s.events = make(chan Event, n) }
}

// New creates a disconnected Synchronizer.
func New(api API, transport Transport, opts ...Option) *Synchronizer {
	s := &Synchronizer{
		api:       api,
		transport: transport,
		logger:    shared.NewDiscardLogger(),
		delay:     defaultReconnectDelay,
		queue:     QueueDestination,
		topic:     TopicDestination,
		events:    make(chan Event, defaultEventBuffer),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Events returns the event feed. It is never closed.
func (s *Synchronizer) Events() <-chan Event {
	return s.events
}

// Messages returns a copy of the message collection, most recent first.
func (s *Synchronizer) Messages() []models.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.messages)
}

// Announcements returns a copy of the announcement collection, most recent first.
func (s *Synchronizer) Announcements() []models.Announcement {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.announcements)
}

// UnreadCount returns the number of unread messages in the collection.
func (s *Synchronizer) UnreadCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.unread
}

// State returns the connection state.
func (s *Synchronizer) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// HandleID returns the id of the live subscription handle, or "" when disconnected.
func (s *Synchronizer) HandleID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return ""
	}
	return s.current.id
}

// LoadUnreadSnapshot replaces the message collection with the server's unread messages.
// On failure the collection is left as it was. A snapshot that lands after [Synchronizer.Reset]
// or [Synchronizer.Connect] belongs to the previous session and is discarded.
func (s *Synchronizer) LoadUnreadSnapshot(ctx context.Context) error {
	epoch := s.currentEpoch()
	msgs, err := s.api.UnreadNotifications(ctx)
	if err != nil {
		return fmt.Errorf("%w: load unread: %w", shared.ErrCommandFailure, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.epoch != epoch {
		s.logger.Debug("discarding stale unread snapshot")
		return nil
	}

	next := slices.Clone(msgs)
	// Oldest gets the lowest order so the head stays the most recent arrival.
	for i := len(next) - 1; i >= 0; i-- {
		s.order++
		next[i].ReceivedOrder = s.order
	}
	s.messages = next
	s.unread = CountUnread(next)
	return nil
}

// LoadAnnouncements replaces the announcement collection with the server's active announcements.
func (s *Synchronizer) LoadAnnouncements(ctx context.Context) error {
	epoch := s.currentEpoch()
	anns, err := s.api.Announcements(ctx)
	if err != nil {
		return fmt.Errorf("%w: load announcements: %w", shared.ErrCommandFailure, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.epoch != epoch {
		s.logger.Debug("discarding stale announcements")
		return nil
	}
	s.announcements = slices.Clone(anns)
	return nil
}

func (s *Synchronizer) currentEpoch() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.epoch
}

// MarkRead commits ids as read on the server, then marks the matching local messages read.
// Ids not held locally are ignored. On failure nothing changes locally. An empty set is a no-op.
func (s *Synchronizer) MarkRead(ctx context.Context, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	if err := s.api.MarkRead(ctx, ids); err != nil {
		return fmt.Errorf("%w: mark read: %w", shared.ErrCommandFailure, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages, _ = ApplyRead(s.messages, ids)
	s.unread = CountUnread(s.messages)
	return nil
}

// MarkAllRead marks every locally unread message read.
func (s *Synchronizer) MarkAllRead(ctx context.Context) error {
	s.mu.RLock()
	ids := UnreadIDs(s.messages)
	s.mu.RUnlock()
	return s.MarkRead(ctx, ids)
}

// History fetches one page of the user's messages. Pages start at 1. The result is not merged
// into the local collection.
func (s *Synchronizer) History(ctx context.Context, page, size int) ([]models.Message, error) {
	if page < 1 || size < 1 {
		return nil, fmt.Errorf("%w: page and size must be positive", shared.ErrInvalidArgument)
	}
	msgs, err := s.api.Notifications(ctx, page, size)
	if err != nil {
		return nil, fmt.Errorf("%w: history: %w", shared.ErrCommandFailure, err)
	}
	return msgs, nil
}

// Reset clears both collections. Typically called together with logout.
func (s *Synchronizer) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = nil
	s.announcements = nil
	s.unread = 0
	s.epoch++
}

// Connect replaces the live subscription with one authenticated by credential.
//
// Any existing handle is torn down first, even mid-reconnect. With an empty credential the
// synchronizer stays disconnected. Transport failures are retried every reconnect delay until
// the handle is torn down and are never returned.
func (s *Synchronizer) Connect(credential string) {
	s.lifecycle.Lock()
	defer s.lifecycle.Unlock()

	s.teardown()

	s.mu.Lock()
	s.epoch++
	s.mu.Unlock()
	if credential == "" {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	h := &handle{id: shared.GenerateID(), cancel: cancel, done: make(chan struct{})}

	s.mu.Lock()
	s.current = h
	s.state = Connecting
	s.mu.Unlock()

	s.logger.Debug("connecting", "handle", h.id)
	go s.run(ctx, h, credential)
}

// Disconnect tears down the live subscription. The collections are kept. It is idempotent.
func (s *Synchronizer) Disconnect() {
	s.lifecycle.Lock()
	defer s.lifecycle.Unlock()
	s.teardown()
}

// teardown cancels the current handle and waits for its goroutine to exit.
func (s *Synchronizer) teardown() {
	s.mu.Lock()
	h := s.current
	s.current = nil
	s.state = Disconnected
	s.mu.Unlock()

	if h == nil {
		return
	}
	h.cancel()
	<-h.done
	s.logger.Debug("disconnected", "handle", h.id)
	s.emit(Event{Kind: EventDisconnected, HandleID: h.id})
}

func (s *Synchronizer) run(ctx context.Context, h *handle, credential string) {
	defer close(h.done)

	for attempt := 0; ; attempt++ {
		err := s.stream(ctx, h, credential, attempt > 0)
		if ctx.Err() != nil {
			return
		}

		if !s.setState(h, Reconnecting) {
			return
		}
		s.logger.Warn("stream unavailable, retrying", "handle", h.id, "in", s.delay, "error", err)
		s.emit(Event{Kind: EventConnectionLost, HandleID: h.id, Err: err})

		timer := time.NewTimer(s.delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
	}
}

// stream runs one connection: dial, subscribe both destinations, then apply deliveries until the
// connection drops or ctx is canceled.
func (s *Synchronizer) stream(ctx context.Context, h *handle, credential string, reconnect bool) error {
	conn, err := s.transport.Dial(ctx, credential)
	if err != nil {
		return fmt.Errorf("%w: dial: %w", shared.ErrTransportUnavailable, err)
	}
	defer conn.Close()

	if ctx.Err() != nil {
		return ctx.Err()
	}

	notices, err := conn.Subscribe(s.queue)
	if err != nil {
		return fmt.Errorf("%w: subscribe %s: %w", shared.ErrTransportUnavailable, s.queue, err)
	}
	broadcasts, err := conn.Subscribe(s.topic)
	if err != nil {
		return fmt.Errorf("%w: subscribe %s: %w", shared.ErrTransportUnavailable, s.topic, err)
	}

	if !s.setState(h, Connected) {
		return nil
	}
	kind := EventConnected
	if reconnect {
		kind = EventReconnected
	}
	s.logger.Info(kind.String(), "handle", h.id)
	s.emit(Event{Kind: kind, HandleID: h.id})

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-conn.Done():
			return fmt.Errorf("%w: connection closed", shared.ErrTransportUnavailable)
		case body, ok := <-notices:
			if !ok {
				return fmt.Errorf("%w: %s closed", shared.ErrTransportUnavailable, s.queue)
			}
			s.deliverMessage(h, body)
		case body, ok := <-broadcasts:
			if !ok {
				return fmt.Errorf("%w: %s closed", shared.ErrTransportUnavailable, s.topic)
			}
			s.deliverAnnouncement(h, body)
		}
	}
}

func (s *Synchronizer) deliverMessage(h *handle, body []byte) {
	var m models.Message
	if err := json.Unmarshal(body, &m); err != nil {
		s.logger.Warn("dropping undecodable message", "handle", h.id, "error", err)
		return
	}
	if m.Status == "" {
		m.Status = models.StatusUnread
	}

	s.mu.Lock()
	if s.current != h {
		s.mu.Unlock()
		return
	}
	next, _ := PrependMessage(s.messages, m)
	if len(next) == len(s.messages) {
		s.mu.Unlock()
		s.logger.Debug("skipping duplicate message", "id", m.ID)
		return
	}
	s.order++
	next[0].ReceivedOrder = s.order
	s.messages = next
	s.unread = CountUnread(next)
	m = next[0]
	s.mu.Unlock()

	s.emit(Event{Kind: EventMessage, HandleID: h.id, Message: &m})
}

func (s *Synchronizer) deliverAnnouncement(h *handle, body []byte) {
	var a models.Announcement
	if err := json.Unmarshal(body, &a); err != nil {
		s.logger.Warn("dropping undecodable announcement", "handle", h.id, "error", err)
		return
	}

	s.mu.Lock()
	if s.current != h {
		s.mu.Unlock()
		return
	}
	next, added := PrependAnnouncement(s.announcements, a)
	if !added {
		s.mu.Unlock()
		s.logger.Debug("skipping duplicate announcement", "id", a.ID)
		return
	}
	s.announcements = next
	s.mu.Unlock()

	s.emit(Event{Kind: EventAnnouncement, HandleID: h.id, Announcement: &a})
}

// setState applies st only while h is still the live handle.
func (s *Synchronizer) setState(h *handle, st State) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current != h {
		return false
	}
	s.state = st
	return true
}

// emit sends an event without blocking; it is dropped when the feed is full.
func (s *Synchronizer) emit(e Event) {
	select {
	case s.events <- e:
	default:
	}
}
