package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/desertthunder/filmx/internal/models"
	"github.com/desertthunder/filmx/internal/notify"
	"github.com/desertthunder/filmx/internal/shared"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	MessagesView ViewState = iota
	AnnouncementsView
	DetailView
)

// Inbox is the synchronizer surface the TUI renders and drives.
type Inbox interface {
	Messages() []models.Message
	Announcements() []models.Announcement
	UnreadCount() int
	State() notify.State
	Events() <-chan notify.Event
	LoadUnreadSnapshot(ctx context.Context) error
	LoadAnnouncements(ctx context.Context) error
	MarkRead(ctx context.Context, ids []int64) error
	MarkAllRead(ctx context.Context) error
}

var _ Inbox = (*notify.Synchronizer)(nil)

// Model represents the TUI application state.
type Model struct {
	ctx              context.Context
	inbox            Inbox
	view             ViewState
	previous         ViewState
	width            int
	height           int
	messageList      list.Model
	announcementList list.Model
	detail           *models.Message
	detailNotice     *models.Announcement
	status           string
	err              error
	help             help.Model
	keys             keyMap
}

// NewModel creates a new TUI model over inbox.
func NewModel(ctx context.Context, inbox Inbox) *Model {
	m := &Model{
		ctx:              ctx,
		inbox:            inbox,
		view:             MessagesView,
		messageList:      list.New(nil, list.NewDefaultDelegate(), 0, 0),
		announcementList: list.New(nil, list.NewDefaultDelegate(), 0, 0),
		help:             help.New(),
		keys:             newKeyMap(),
	}
	m.messageList.Title = "Messages"
	m.announcementList.Title = "Announcements"
	return m
}

// Init loads both snapshots and starts listening to the synchronizer's event feed.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.load(), m.waitForEvent())
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.messageList.SetSize(msg.Width-4, msg.Height-8)
		m.announcementList.SetSize(msg.Width-4, msg.Height-8)
		return m, nil

	case tea.KeyMsg:
		return m.handleKeys(msg)

	case Msg:
		return m.handleMsg(msg)
	}

	return m.updateLists(msg)
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	var body string
	switch m.view {
	case MessagesView:
		body = m.messageList.View()
	case AnnouncementsView:
		body = m.announcementList.View()
	case DetailView:
		body = m.renderDetail()
	}

	return fmt.Sprintf("%s\n%s\n\n%s\n%s", m.renderHeader(), body, m.renderStatus(), m.renderHelp())
}

func (m *Model) handleMsg(msg Msg) (tea.Model, tea.Cmd) {
	switch msg.kind {
	case MsgLoaded:
		err, _ := msg.data.(error)
		m.setResult(err, "inbox refreshed")
		return m, m.refresh()

	case MsgSyncEvent:
		e := msg.data.(notify.Event)
		switch e.Kind {
		case notify.EventMessage:
			if e.Message != nil {
				m.status = fmt.Sprintf("new message: %s", e.Message.Title)
			}
		case notify.EventAnnouncement:
			if e.Announcement != nil {
				m.status = fmt.Sprintf("announcement: %s", e.Announcement.Title)
			}
		case notify.EventConnectionLost:
			m.status = "connection lost, retrying"
		default:
			m.status = e.Kind.String()
		}
		return m, tea.Batch(m.refresh(), m.waitForEvent())

	case MsgMarked:
		data := msg.data.(struct {
			count int
			err   error
		})
		m.setResult(data.err, fmt.Sprintf("marked %d read", data.count))
		return m, m.refresh()

	case MsgFeedClosed:
		return m, nil
	}
	return m, nil
}

func (m *Model) handleKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.filtering() {
		return m.updateLists(msg)
	}

	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.back):
		if m.view == DetailView {
			m.view = m.previous
			m.detail, m.detailNotice = nil, nil
			return m, nil
		}
	case key.Matches(msg, m.keys.tab):
		switch m.view {
		case MessagesView:
			m.view = AnnouncementsView
		case AnnouncementsView:
			m.view = MessagesView
		}
		return m, nil
	case key.Matches(msg, m.keys.enter):
		m.open()
		return m, nil
	case key.Matches(msg, m.keys.read):
		if id, ok := m.selectedMessageID(); ok {
			return m, m.markRead(id)
		}
		return m, nil
	case key.Matches(msg, m.keys.readAll):
		return m, m.markAllRead()
	case key.Matches(msg, m.keys.refresh):
		m.status = "refreshing..."
		return m, m.load()
	}

	return m.updateLists(msg)
}

func (m *Model) filtering() bool {
	switch m.view {
	case MessagesView:
		return m.messageList.FilterState() == list.Filtering
	case AnnouncementsView:
		return m.announcementList.FilterState() == list.Filtering
	}
	return false
}

func (m *Model) open() {
	switch m.view {
	case MessagesView:
		if item, ok := m.messageList.SelectedItem().(messageItem); ok {
			msg := item.message
			m.detail, m.previous, m.view = &msg, MessagesView, DetailView
		}
	case AnnouncementsView:
		if item, ok := m.announcementList.SelectedItem().(announcementItem); ok {
			ann := item.announcement
			m.detailNotice, m.previous, m.view = &ann, AnnouncementsView, DetailView
		}
	}
}

func (m *Model) selectedMessageID() (int64, bool) {
	switch m.view {
	case MessagesView:
		if item, ok := m.messageList.SelectedItem().(messageItem); ok && item.message.Unread() {
			return item.message.ID, true
		}
	case DetailView:
		if m.detail != nil && m.detail.Unread() {
			return m.detail.ID, true
		}
	}
	return 0, false
}

func (m *Model) setResult(err error, ok string) {
	m.err = err
	if err != nil {
		m.status = ""
		return
	}
	m.status = ok
}

// refresh rebuilds both lists from the synchronizer's collections.
func (m *Model) refresh() tea.Cmd {
	msgs := m.inbox.Messages()
	if m.detail != nil {
		for i := range msgs {
			if msgs[i].ID == m.detail.ID {
				m.detail = &msgs[i]
				break
			}
		}
	}
	return tea.Batch(
		m.messageList.SetItems(messageItems(msgs)),
		m.announcementList.SetItems(announcementItems(m.inbox.Announcements())),
	)
}

func (m *Model) updateLists(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.view {
	case MessagesView:
		m.messageList, cmd = m.messageList.Update(msg)
	case AnnouncementsView:
		m.announcementList, cmd = m.announcementList.Update(msg)
	}
	return m, cmd
}

func (m *Model) load() tea.Cmd {
	return func() tea.Msg {
		err := errors.Join(m.inbox.LoadUnreadSnapshot(m.ctx), m.inbox.LoadAnnouncements(m.ctx))
		return loadedMsg(err)
	}
}

func (m *Model) markRead(id int64) tea.Cmd {
	return func() tea.Msg {
		return markedMsg(1, m.inbox.MarkRead(m.ctx, []int64{id}))
	}
}

func (m *Model) markAllRead() tea.Cmd {
	unread := m.inbox.UnreadCount()
	return func() tea.Msg {
		return markedMsg(unread, m.inbox.MarkAllRead(m.ctx))
	}
}

func (m *Model) waitForEvent() tea.Cmd {
	events := m.inbox.Events()
	return func() tea.Msg {
		select {
		case e, ok := <-events:
			if !ok {
				return feedClosedMsg()
			}
			return syncEventMsg(e)
		case <-m.ctx.Done():
			return feedClosedMsg()
		}
	}
}

func (m *Model) renderHeader() string {
	st := m.inbox.State()
	title := styles.title.Render(fmt.Sprintf("Inbox (%d unread)", m.inbox.UnreadCount()))
	return fmt.Sprintf("%s  %s", title, styles.stateStyle(st).Render(st.String()))
}

func (m *Model) renderDetail() string {
	var b strings.Builder
	switch {
	case m.detail != nil:
		b.WriteString(styles.title.Render(m.detail.Title) + "\n")
		if !m.detail.CreatedAt.IsZero() {
			b.WriteString(styles.help.Render(m.detail.CreatedAt.Format(timeLayout)) + "\n\n")
		}
		if m.detail.Unread() {
			b.WriteString(styles.unread.Render("unread") + "\n\n")
		}
		b.WriteString(m.detail.Content)
	case m.detailNotice != nil:
		b.WriteString(styles.title.Render(m.detailNotice.Title) + "\n")
		if !m.detailNotice.CreatedAt.IsZero() {
			b.WriteString(styles.help.Render(m.detailNotice.CreatedAt.Format(timeLayout)) + "\n\n")
		}
		b.WriteString(m.detailNotice.Content)
	}
	return b.String()
}

func (m *Model) renderStatus() string {
	if m.err != nil {
		return styles.err.Render("Error: " + shared.UserMessage(m.err))
	}
	return styles.help.Render(m.status)
}

func (m *Model) renderHelp() string {
	var keys []key.Binding
	switch m.view {
	case MessagesView:
		keys = []key.Binding{m.keys.enter, m.keys.read, m.keys.readAll, m.keys.tab, m.keys.refresh, m.keys.quit}
	case AnnouncementsView:
		keys = []key.Binding{m.keys.enter, m.keys.tab, m.keys.refresh, m.keys.quit}
	case DetailView:
		keys = []key.Binding{m.keys.read, m.keys.back, m.keys.quit}
	}
	return m.help.ShortHelpView(keys)
}
