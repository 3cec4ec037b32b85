package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/charmbracelet/log"
	"github.com/urfave/cli/v3"

	"github.com/desertthunder/filmx/internal/credential"
	"github.com/desertthunder/filmx/internal/guard"
	"github.com/desertthunder/filmx/internal/notify"
	"github.com/desertthunder/filmx/internal/repositories"
	"github.com/desertthunder/filmx/internal/services"
	"github.com/desertthunder/filmx/internal/session"
	"github.com/desertthunder/filmx/internal/shared"
	"github.com/desertthunder/filmx/internal/stream"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
//
// Dependencies past the config are built on first use by [Runner.start], so setup commands work
// without a reachable server or credential store.
type Runner struct {
	config     *shared.Config
	configPath string
	logger     *log.Logger
	output     io.Writer
	httpClient *http.Client
	transport  notify.Transport

	db      *sql.DB
	ownsDB  bool
	store   credential.Store
	api     services.Client
	session *session.Session
	sync    *notify.Synchronizer
	guard   *guard.Guard
	msglog  *repositories.MessageLogRepository

	ctx context.Context
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	Logger     *log.Logger
	Output     io.Writer
	HTTPClient *http.Client
	Store      credential.Store
	API        services.Client
	Transport  notify.Transport
	DB         *sql.DB
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: opts.Config.API.Timeout()}
	}

	return &Runner{
		config:     opts.Config,
		configPath: opts.ConfigPath,
		logger:     opts.Logger,
		output:     opts.Output,
		httpClient: opts.HTTPClient,
		api:        opts.API,
		transport:  opts.Transport,
		store:      opts.Store,
		db:         opts.DB,
		ctx:        context.Background(),
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, authCommand, routeCommand, notificationsCommand, announcementsCommand, tuiCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// SetLogger swaps the logger, e.g. for a file logger once the TUI owns the terminal.
func (r *Runner) SetLogger(l *log.Logger) {
	r.logger = l
}

// Before loads the configuration named by --config, falling back to defaults when the file is
// missing, and applies --debug.
func (r *Runner) Before(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	if cmd.Bool("debug") {
		shared.SetLogLevel(r.logger, log.DebugLevel)
	}

	r.configPath = cmd.String("config")
	if _, err := os.Stat(r.configPath); err != nil {
		r.logger.Debug("config file not found, using defaults", "path", r.configPath)
		return ctx, nil
	}

	config, err := shared.LoadConfig(r.configPath)
	if err != nil {
		return ctx, err
	}
	r.config = config
	r.httpClient.Timeout = config.API.Timeout()
	return ctx, nil
}

// After releases whatever [Runner.start] opened.
func (r *Runner) After(ctx context.Context, cmd *cli.Command) error {
	r.Close()
	return nil
}

// Close disconnects the synchronizer and closes the database when the runner opened it.
func (r *Runner) Close() {
	if r.sync != nil {
		r.sync.Disconnect()
	}
	if r.db != nil && r.ownsDB {
		if err := r.db.Close(); err != nil {
			r.logger.Warn("failed to close database", "error", err)
		}
		r.db = nil
	}
}

// database opens and migrates the configured SQLite database once.
func (r *Runner) database() (*sql.DB, error) {
	if r.db != nil {
		return r.db, nil
	}

	db, err := shared.NewDatabase(r.config.Database.Path)
	if err != nil {
		return nil, err
	}
	shared.ConfigureDatabase(db, r.config.Database.MaxOpenConns, r.config.Database.MaxIdleConns)
	if err := shared.RunMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	r.db, r.ownsDB = db, true
	return db, nil
}

// credentialStore builds the store selected by [shared.SessionConfig.Store].
func (r *Runner) credentialStore() (credential.Store, error) {
	if r.store != nil {
		return r.store, nil
	}

	switch r.config.Session.Store {
	case shared.StoreDatabase:
		db, err := r.database()
		if err != nil {
			return nil, err
		}
		r.store = repositories.NewCredentialRepository(db)
	default:
		dir, err := shared.ExpandHome(r.config.Session.KeyringDir)
		if err != nil {
			return nil, err
		}
		ring, err := credential.OpenKeyring(dir)
		if err != nil {
			return nil, err
		}
		r.store = credential.NewKeyringStore(ring)
	}
	return r.store, nil
}

// build wires the request service, session, synchronizer and guard once.
func (r *Runner) build() error {
	if r.session != nil {
		return nil
	}
	if err := r.config.Validate(); err != nil {
		return err
	}

	store, err := r.credentialStore()
	if err != nil {
		return err
	}

	var sess *session.Session
	if r.api == nil {
		r.api = services.NewAPIService(r.config.API.BaseURL, r.httpClient,
			services.WithCredentials(services.CredentialFunc(func() string { return sess.Credential() })),
			services.WithRateLimit(r.config.API.RateLimit),
			services.WithLogger(r.logger),
		)
	}
	sess = session.New(r.api, store, session.WithLogger(r.logger))
	r.session = sess

	if r.transport == nil {
		r.transport = stream.New(r.config.Stream.URL,
			stream.WithHeartBeat(r.config.Stream.Heartbeat()),
			stream.WithLogger(r.logger),
		)
	}
	r.sync = notify.New(r.api, r.transport,
		notify.WithReconnectDelay(r.config.Stream.ReconnectDelay()),
		notify.WithLogger(r.logger),
	)
	r.guard = guard.New(sess, nil, guard.WithLogger(r.logger))
	return nil
}

// start builds the dependencies and restores the stored credential.
//
// With live set, credential changes drive the synchronizer: a new credential connects it and
// loads the unread snapshot, logout disconnects it and clears its collections.
func (r *Runner) start(ctx context.Context, live bool) error {
	if err := r.build(); err != nil {
		return err
	}
	r.ctx = ctx

	if live {
		r.session.OnChange(r.onCredentialChange)
	}

	err := <-r.session.Init(ctx)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, shared.ErrSessionExpired):
		r.logger.Warn("stored credential was rejected, signed out", "error", err)
		return nil
	default:
		return err
	}
}

func (r *Runner) onCredentialChange(cred string) {
	if cred == "" {
		r.sync.Disconnect()
		r.sync.Reset()
		return
	}

	r.sync.Connect(cred)
	go func() {
		if err := r.sync.LoadUnreadSnapshot(r.ctx); err != nil {
			r.logger.Warn("failed to load unread messages", "error", err)
		}
		if err := r.sync.LoadAnnouncements(r.ctx); err != nil {
			r.logger.Warn("failed to load announcements", "error", err)
		}
	}()
}

// requireLogin fails with [shared.ErrNotAuthenticated] when no credential is held.
func (r *Runner) requireLogin() error {
	if !r.session.IsLoggedIn() {
		return fmt.Errorf("%w: run 'filmx auth login' first", shared.ErrNotAuthenticated)
	}
	return nil
}

// messageLog opens the delivery log kept in the database.
func (r *Runner) messageLog() (*repositories.MessageLogRepository, error) {
	if r.msglog != nil {
		return r.msglog, nil
	}
	db, err := r.database()
	if err != nil {
		return nil, err
	}
	r.msglog = repositories.NewMessageLogRepository(db)
	return r.msglog, nil
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", title)
	r.writePlain("═══════════════════════════════════════\n")
}
