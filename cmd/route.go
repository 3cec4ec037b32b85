package main

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/desertthunder/filmx/internal/guard"
	"github.com/desertthunder/filmx/internal/shared"
	"github.com/urfave/cli/v3"
)

type routeDecision struct {
	Path     string `json:"path"`
	Allow    bool   `json:"allow"`
	Redirect string `json:"redirect,omitempty"`
	Location string `json:"location,omitempty"`
}

// RouteCheck runs the guard against a path the way a navigation would.
func (r *Runner) RouteCheck(ctx context.Context, cmd *cli.Command) error {
	path := cmd.StringArg("path")
	if path == "" {
		return fmt.Errorf("%w: path", shared.ErrMissingArgument)
	}
	if err := r.start(ctx, false); err != nil {
		return err
	}

	d, err := r.guard.CheckPath(ctx, path)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(routeDecision{
			Path:     path,
			Allow:    d.Allow,
			Redirect: d.Redirect,
			Location: d.Location(),
		}, cmd.Bool("pretty"))
	}

	if d.Allow {
		return r.writePlain("✓ %s: allowed\n", path)
	}
	return r.writePlain("✗ %s: redirect to %s (%s)\n", path, d.Redirect, d.Location())
}

// RouteList prints the route table in match order.
func (r *Runner) RouteList(ctx context.Context, cmd *cli.Command) error {
	w := tabwriter.NewWriter(r.output, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tPATH\tACCESS")
	for _, route := range guard.DefaultTable().Routes() {
		fmt.Fprintf(w, "%s\t%s\t%s\n", route.Name, route.Path, route.Access)
	}
	return w.Flush()
}
