package main

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/desertthunder/filmx/internal/formatter"
	"github.com/desertthunder/filmx/internal/models"
	"github.com/desertthunder/filmx/internal/notify"
	"github.com/desertthunder/filmx/internal/repositories"
	"github.com/desertthunder/filmx/internal/shared"
	"github.com/urfave/cli/v3"
)

const listTimeLayout = "2006-01-02 15:04"

// NotificationsUnread loads the unread snapshot and prints it newest first.
func (r *Runner) NotificationsUnread(ctx context.Context, cmd *cli.Command) error {
	if err := r.start(ctx, false); err != nil {
		return err
	}
	if err := r.requireLogin(); err != nil {
		return err
	}

	if err := r.sync.LoadUnreadSnapshot(ctx); err != nil {
		return fmt.Errorf("failed to load unread messages: %w", err)
	}
	msgs := r.sync.Messages()

	if cmd.Bool("json") {
		return r.writeJSON(msgs, cmd.Bool("pretty"))
	}

	r.writePlainHeader(fmt.Sprintf("Unread messages (%d)", r.sync.UnreadCount()))
	r.printMessages(msgs)
	return nil
}

// NotificationsList prints one page of message history.
func (r *Runner) NotificationsList(ctx context.Context, cmd *cli.Command) error {
	page, size := int(cmd.Int("page")), int(cmd.Int("size"))
	if page < 1 || size < 1 {
		return fmt.Errorf("%w: --page and --size must be positive", shared.ErrInvalidArgument)
	}
	if err := r.start(ctx, false); err != nil {
		return err
	}
	if err := r.requireLogin(); err != nil {
		return err
	}

	msgs, err := r.sync.History(ctx, page, size)
	if err != nil {
		return fmt.Errorf("failed to load messages: %w", err)
	}

	if cmd.Bool("json") {
		return r.writeJSON(msgs, cmd.Bool("pretty"))
	}

	r.writePlainHeader(fmt.Sprintf("Messages, page %d", page))
	r.printMessages(msgs)
	return nil
}

// NotificationsRead marks the given ids read, or every unread message with --all.
func (r *Runner) NotificationsRead(ctx context.Context, cmd *cli.Command) error {
	all := cmd.Bool("all")
	args := cmd.Args().Slice()
	if !all && len(args) == 0 {
		return fmt.Errorf("%w: message ids or --all", shared.ErrMissingArgument)
	}

	ids := make([]int64, 0, len(args))
	for _, arg := range args {
		id, err := strconv.ParseInt(arg, 10, 64)
		if err != nil {
			return fmt.Errorf("%w: message id %q", shared.ErrInvalidArgument, arg)
		}
		ids = append(ids, id)
	}

	if err := r.start(ctx, false); err != nil {
		return err
	}
	if err := r.requireLogin(); err != nil {
		return err
	}
	if err := r.sync.LoadUnreadSnapshot(ctx); err != nil {
		return fmt.Errorf("failed to load unread messages: %w", err)
	}

	if all {
		n := r.sync.UnreadCount()
		if err := r.sync.MarkAllRead(ctx); err != nil {
			return fmt.Errorf("failed to mark messages read: %w", err)
		}
		return r.writePlain("✓ Marked %d message(s) read\n", n)
	}

	if err := r.sync.MarkRead(ctx, ids); err != nil {
		return fmt.Errorf("failed to mark messages read: %w", err)
	}
	return r.writePlain("✓ Marked %d message(s) read, %d unread left\n", len(ids), r.sync.UnreadCount())
}

// NotificationsWatch follows the live feed until the context is canceled.
func (r *Runner) NotificationsWatch(ctx context.Context, cmd *cli.Command) error {
	var msglog *repositories.MessageLogRepository
	if !cmd.Bool("no-log") {
		repo, err := r.messageLog()
		if err != nil {
			return err
		}
		msglog = repo
	}

	if err := r.start(ctx, true); err != nil {
		return err
	}
	if err := r.requireLogin(); err != nil {
		return err
	}

	r.writePlain("Watching notifications, Ctrl-C to stop\n")
	return r.watch(ctx, r.sync.Events(), msglog)
}

func (r *Runner) watch(ctx context.Context, events <-chan notify.Event, msglog *repositories.MessageLogRepository) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case e, ok := <-events:
			if !ok {
				return nil
			}
			r.printEvent(e)
			if msglog != nil {
				r.recordEvent(msglog, e)
			}
		}
	}
}

func (r *Runner) printEvent(e notify.Event) {
	stamp := time.Now().Format("15:04:05")
	switch e.Kind {
	case notify.EventMessage:
		if e.Message != nil {
			r.writePlain("%s  ✉ %s (%d unread)\n", stamp, e.Message.Title, r.sync.UnreadCount())
		}
	case notify.EventAnnouncement:
		if e.Announcement != nil {
			r.writePlain("%s  📢 %s\n", stamp, e.Announcement.Title)
		}
	case notify.EventConnectionLost:
		r.writePlain("%s  connection lost, reconnecting\n", stamp)
		r.logger.Debug("stream dropped", "error", e.Err)
	default:
		r.writePlain("%s  %s\n", stamp, e.Kind)
	}
}

func (r *Runner) recordEvent(msglog *repositories.MessageLogRepository, e notify.Event) {
	var err error
	switch {
	case e.Kind == notify.EventMessage && e.Message != nil:
		err = msglog.RecordMessage(*e.Message)
	case e.Kind == notify.EventAnnouncement && e.Announcement != nil:
		err = msglog.RecordAnnouncement(*e.Announcement)
	}
	if err != nil {
		r.logger.Warn("failed to record delivery", "error", err)
	}
}

// NotificationsLog prints or clears the deliveries recorded by watch.
func (r *Runner) NotificationsLog(ctx context.Context, cmd *cli.Command) error {
	msglog, err := r.messageLog()
	if err != nil {
		return err
	}

	if cmd.Bool("clear") {
		n, err := msglog.Clear()
		if err != nil {
			return err
		}
		return r.writePlain("✓ Cleared %d log entries\n", n)
	}

	entries, err := msglog.Recent(int(cmd.Int("limit")))
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		return r.writePlain("No recorded deliveries\n")
	}

	r.writePlainHeader(fmt.Sprintf("Recorded deliveries (%d)", len(entries)))
	for _, e := range entries {
		r.writePlain("%s  %-12s #%-6d %s\n", e.ReceivedAt.Local().Format(listTimeLayout), e.Kind, e.ID, e.Title)
	}
	return nil
}

// NotificationsExport writes the unread messages and announcements in the chosen format.
func (r *Runner) NotificationsExport(ctx context.Context, cmd *cli.Command) error {
	format := cmd.String("format")
	if _, err := formatter.Export(&formatter.InboxExport{}, format); err != nil {
		return err
	}
	if err := r.start(ctx, false); err != nil {
		return err
	}
	if err := r.requireLogin(); err != nil {
		return err
	}

	if err := r.sync.LoadUnreadSnapshot(ctx); err != nil {
		return fmt.Errorf("failed to load unread messages: %w", err)
	}
	if err := r.sync.LoadAnnouncements(ctx); err != nil {
		return fmt.Errorf("failed to load announcements: %w", err)
	}

	export := &formatter.InboxExport{
		Messages:      r.sync.Messages(),
		Announcements: r.sync.Announcements(),
		ExportedAt:    time.Now(),
	}

	if path := cmd.String("output"); path != "" {
		if err := formatter.WriteExport(export, format, path); err != nil {
			return err
		}
		r.logger.Info("inbox exported", "path", path, "format", format)
		return r.writePlain("✓ Exported %d message(s) and %d announcement(s) to %s\n",
			len(export.Messages), len(export.Announcements), path)
	}

	data, err := formatter.Export(export, format)
	if err != nil {
		return err
	}
	_, err = r.output.Write(data)
	return err
}

// AnnouncementsList prints the active announcements.
func (r *Runner) AnnouncementsList(ctx context.Context, cmd *cli.Command) error {
	if err := r.start(ctx, false); err != nil {
		return err
	}
	if err := r.sync.LoadAnnouncements(ctx); err != nil {
		return fmt.Errorf("failed to load announcements: %w", err)
	}
	anns := r.sync.Announcements()

	if cmd.Bool("json") {
		return r.writeJSON(anns, cmd.Bool("pretty"))
	}

	r.writePlainHeader(fmt.Sprintf("Announcements (%d)", len(anns)))
	for _, a := range anns {
		r.writePlain("#%-6d %s\n", a.ID, a.Title)
		if a.Content != "" {
			r.writePlain("        %s\n", a.Content)
		}
	}
	return nil
}

func (r *Runner) printMessages(msgs []models.Message) {
	if len(msgs) == 0 {
		r.writePlain("No messages\n")
		return
	}
	for _, m := range msgs {
		marker := " "
		if m.Unread() {
			marker = "●"
		}
		created := ""
		if !m.CreatedAt.IsZero() {
			created = m.CreatedAt.Local().Format(listTimeLayout)
		}
		r.writePlain("%s #%-6d %-16s %s\n", marker, m.ID, created, m.Title)
	}
}
