package guard

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/desertthunder/filmx/internal/shared"
)

// Access is the protection level of a route.
type Access int

const (
	Public Access = iota
	RequiresAuth
	RequiresAdmin
)

func (a Access) String() string {
	switch a {
	case Public:
		return "public"
	case RequiresAuth:
		return "auth"
	case RequiresAdmin:
		return "admin"
	default:
		return fmt.Sprintf("Access(%d)", int(a))
	}
}

// Names of the routes the guard redirects to.
const (
	RouteLogin      = "Login"
	RouteAdminLogin = "AdminLogin"
)

// Route is one navigable view.
//
// Path segments starting with ":" match any single segment.
type Route struct {
	Name   string
	Path   string
	Access Access
}

// Target is a navigation attempt resolved against a [Table].
type Target struct {
	Route    Route
	FullPath string // path plus query as requested
	Params   map[string]string
}

// DefaultRoutes returns the catalog application's route table.
func DefaultRoutes() []Route {
	return []Route{
		{Name: "Home", Path: "/"},
		{Name: "Movies", Path: "/movies"},
		{Name: "MovieDetail", Path: "/movie/:id"},
		{Name: "Search", Path: "/search"},
		{Name: RouteLogin, Path: "/login"},
		{Name: "Register", Path: "/register"},
		{Name: "Profile", Path: "/profile", Access: RequiresAuth},
		{Name: "Settings", Path: "/settings", Access: RequiresAuth},
		{Name: "Notifications", Path: "/notifications", Access: RequiresAuth},
		{Name: RouteAdminLogin, Path: "/admin/login"},
		{Name: "Admin", Path: "/admin", Access: RequiresAdmin},
		{Name: "AdminMovies", Path: "/admin/movies", Access: RequiresAdmin},
		{Name: "AdminUsers", Path: "/admin/users", Access: RequiresAdmin},
		{Name: "AdminReviews", Path: "/admin/reviews", Access: RequiresAdmin},
		{Name: "AdminRatings", Path: "/admin/ratings", Access: RequiresAdmin},
		{Name: "AdminAnnouncements", Path: "/admin/announcements", Access: RequiresAdmin},
		{Name: "AdminMessages", Path: "/admin/messages", Access: RequiresAdmin},
	}
}

// Table resolves paths to routes. The first matching route wins.
type Table struct {
	routes []Route
	byName map[string]Route
}

// NewTable builds a Table. Route names must be unique and paths absolute.
func NewTable(routes []Route) (*Table, error) {
	t := &Table{byName: make(map[string]Route, len(routes))}
	for _, r := range routes {
		if r.Name == "" || !strings.HasPrefix(r.Path, "/") {
			return nil, fmt.Errorf("%w: route %q has path %q", shared.ErrInvalidArgument, r.Name, r.Path)
		}
		if _, dup := t.byName[r.Name]; dup {
			return nil, fmt.Errorf("%w: duplicate route name %q", shared.ErrInvalidArgument, r.Name)
		}
		t.byName[r.Name] = r
		t.routes = append(t.routes, r)
	}
	return t, nil
}

// DefaultTable returns a Table over [DefaultRoutes].
func DefaultTable() *Table {
	t, err := NewTable(DefaultRoutes())
	if err != nil {
		panic(err)
	}
	return t
}

// Routes returns the routes in match order.
func (t *Table) Routes() []Route {
	return append([]Route(nil), t.routes...)
}

// Lookup returns the route registered under name.
func (t *Table) Lookup(name string) (Route, bool) {
	r, ok := t.byName[name]
	return r, ok
}

// Resolve matches fullPath, ignoring its query string and any trailing slash.
func (t *Table) Resolve(fullPath string) (Target, bool) {
	u, err := url.Parse(fullPath)
	if err != nil {
		return Target{}, false
	}

	for _, r := range t.routes {
		if params, ok := match(r.Path, u.Path); ok {
			return Target{Route: r, FullPath: fullPath, Params: params}, true
		}
	}
	return Target{}, false
}

func match(pattern, path string) (map[string]string, bool) {
	want := splitPath(pattern)
	got := splitPath(path)
	if len(want) != len(got) {
		return nil, false
	}

	var params map[string]string
	for i, seg := range want {
		if name, ok := strings.CutPrefix(seg, ":"); ok {
			if got[i] == "" {
				return nil, false
			}
			if params == nil {
				params = make(map[string]string)
			}
			params[name] = got[i]
			continue
		}
		if seg != got[i] {
			return nil, false
		}
	}
	return params, true
}

func splitPath(p string) []string {
	p = strings.Trim(p, "/")
	if p == "" {
		return nil
	}
	return strings.Split(p, "/")
}
