// Package guard decides whether a navigation may proceed given the current session.
package guard

import (
	"context"
	"fmt"
	"net/url"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/filmx/internal/models"
	"github.com/desertthunder/filmx/internal/shared"
)

// Session is the read side of session state plus the lazy profile fetch.
type Session interface {
	Credential() string
	Profile() *models.User
	FetchProfile(ctx context.Context) error
}

// Decision is the verdict for one navigation: allow it, or redirect to a named route.
type Decision struct {
	Allow    bool
	Redirect string     // route name, empty when allowed
	Path     string     // path of the redirect route
	Query    url.Values // carries "redirect" for login redirects, nil otherwise
}

// Location renders the redirect as a path with its encoded query. It is empty when allowed.
func (d Decision) Location() string {
	if d.Allow {
		return ""
	}
	if len(d.Query) == 0 {
		return d.Path
	}
	return d.Path + "?" + d.Query.Encode()
}

func (d Decision) String() string {
	if d.Allow {
		return "allow"
	}
	return "redirect " + d.Redirect + " " + d.Location()
}

// Guard evaluates navigation attempts. Each Check is independent; nothing is queued between calls.
type Guard struct {
	session Session
	table   *Table
	logger  *log.Logger
}

// Option configures a [Guard].
type Option func(*Guard)

// WithLogger sets the guard logger.
func WithLogger(l *log.Logger) Option {
	return func(g *Guard) { g.logger = shared.WithLogger(l, "component", "guard") }
}

// New creates a Guard over table. A nil table uses [DefaultTable].
func New(session Session, table *Table, opts ...Option) *Guard {
	if table == nil {
		table = DefaultTable()
	}
	g := &Guard{session: session, table: table, logger: shared.NewDiscardLogger()}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Table returns the route table the guard resolves against.
func (g *Guard) Table() *Table { return g.table }

// CheckPath resolves fullPath and checks it.
func (g *Guard) CheckPath(ctx context.Context, fullPath string) (Decision, error) {
	target, ok := g.table.Resolve(fullPath)
	if !ok {
		return Decision{}, fmt.Errorf("%w: no route matches %q", shared.ErrInvalidArgument, fullPath)
	}
	return g.Check(ctx, target)
}

// Check decides a single navigation.
//
// Admin routes need a credential whose profile has the admin role; auth routes need a credential
// that survives a profile fetch. An unresolved profile is fetched and awaited. The only error is
// ctx's, when the wait is abandoned.
func (g *Guard) Check(ctx context.Context, target Target) (Decision, error) {
	var (
		d   Decision
		err error
	)
	switch target.Route.Access {
	case RequiresAdmin:
		d, err = g.checkAdmin(ctx, target)
	case RequiresAuth:
		d, err = g.checkAuth(ctx, target)
	default:
		d = Decision{Allow: true}
	}
	if err != nil {
		return Decision{}, err
	}

	g.logger.Debug("navigation", "route", target.Route.Name, "path", target.FullPath, "decision", d.String())
	return d, nil
}

func (g *Guard) checkAdmin(ctx context.Context, target Target) (Decision, error) {
	if g.session.Credential() == "" {
		return g.redirect(RouteAdminLogin, target.FullPath), nil
	}

	profile := g.session.Profile()
	if profile == nil {
		if err := g.resolve(ctx); err != nil {
			return Decision{}, err
		}
		profile = g.session.Profile()
	}

	if profile == nil || !profile.Role.IsAdmin() {
		return g.redirect(RouteAdminLogin, ""), nil
	}
	return Decision{Allow: true}, nil
}

func (g *Guard) checkAuth(ctx context.Context, target Target) (Decision, error) {
	if g.session.Credential() == "" {
		return g.redirect(RouteLogin, target.FullPath), nil
	}

	if g.session.Profile() == nil {
		if err := g.resolve(ctx); err != nil {
			return Decision{}, err
		}
		// A failed fetch has already logged the session out.
		if g.session.Credential() == "" {
			return g.redirect(RouteLogin, target.FullPath), nil
		}
	}
	return Decision{Allow: true}, nil
}

// resolve awaits a profile fetch. Fetch failures are absorbed since they end in logout; only
// cancellation is returned.
func (g *Guard) resolve(ctx context.Context) error {
	if err := g.session.FetchProfile(ctx); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		g.logger.Debug("profile fetch failed during navigation", "error", err)
	}
	return nil
}

func (g *Guard) redirect(name, from string) Decision {
	d := Decision{Redirect: name}
	if r, ok := g.table.Lookup(name); ok {
		d.Path = r.Path
	}
	if from != "" {
		d.Query = url.Values{"redirect": []string{from}}
	}
	return d
}
