// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

func jsonFlags() []cli.Flag {
	return []cli.Flag{
		&cli.BoolFlag{
			Name:  "json",
			Usage: "Output raw JSON",
		},
		&cli.BoolFlag{
			Name:  "pretty",
			Usage: "Pretty-print JSON output",
		},
	}
}

func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Create the config file and initialize the database",
		Commands: []*cli.Command{
			{
				Name:   "config",
				Usage:  "Write the default config file to --config",
				Action: r.SetupConfig,
			},
			{
				Name:   "database",
				Usage:  "Create the database and run migrations",
				Action: r.SetupDatabase,
			},
			{
				Name:   "rollback",
				Usage:  "Roll back the most recent migration",
				Action: r.RollbackDatabase,
			},
		},
	}
}

// authCommand handles the credential lifecycle
func authCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Log in, register and inspect the stored credential",
		Commands: []*cli.Command{
			{
				Name:  "captcha",
				Usage: "Fetch a login captcha and save its image",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Directory to save the captcha image in",
					},
					&cli.BoolFlag{
						Name:  "no-open",
						Usage: "Do not open the image in the browser",
					},
				},
				Action: r.AuthCaptcha,
			},
			{
				Name:  "login",
				Usage: "Exchange username, password and solved captcha for a credential",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "username",
						Aliases:  []string{"u"},
						Usage:    "Username or email",
						Required: true,
					},
					&cli.StringFlag{
						Name:    "password",
						Aliases: []string{"p"},
						Usage:   "Account password",
						Sources: cli.EnvVars("FILMX_PASSWORD"),
					},
					&cli.StringFlag{
						Name:     "captcha-id",
						Usage:    "Captcha id printed by 'auth captcha'",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "captcha",
						Usage:    "Captcha answer",
						Required: true,
					},
				},
				Action: r.AuthLogin,
			},
			{
				Name:  "register",
				Usage: "Create an account and log in",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "username",
						Aliases:  []string{"u"},
						Required: true,
					},
					&cli.StringFlag{
						Name:     "email",
						Aliases:  []string{"e"},
						Required: true,
					},
					&cli.StringFlag{
						Name:    "password",
						Aliases: []string{"p"},
						Sources: cli.EnvVars("FILMX_PASSWORD"),
					},
				},
				Action: r.AuthRegister,
			},
			{
				Name:   "logout",
				Usage:  "Forget the stored credential",
				Action: r.AuthLogout,
			},
			{
				Name:   "status",
				Usage:  "Show the logged-in profile and credential expiry",
				Flags:  jsonFlags(),
				Action: r.AuthStatus,
			},
		},
	}
}

func routeCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "route",
		Usage: "Evaluate navigation against the route guard",
		Commands: []*cli.Command{
			{
				Name:      "check",
				Usage:     "Decide whether a path may be visited with the current session",
				ArgsUsage: "<path>",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "path"},
				},
				Flags:  jsonFlags(),
				Action: r.RouteCheck,
			},
			{
				Name:   "list",
				Usage:  "List the route table",
				Action: r.RouteList,
			},
		},
	}
}

func notificationsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "notifications",
		Aliases: []string{"notif"},
		Usage:   "Private messages: list, mark read, watch live",
		Commands: []*cli.Command{
			{
				Name:   "unread",
				Usage:  "List unread messages",
				Flags:  jsonFlags(),
				Action: r.NotificationsUnread,
			},
			{
				Name:  "list",
				Usage: "List message history page by page",
				Flags: append(jsonFlags(),
					&cli.IntFlag{
						Name:  "page",
						Usage: "Page number, starting at 1",
						Value: 1,
					},
					&cli.IntFlag{
						Name:  "size",
						Usage: "Page size",
						Value: 20,
					},
				),
				Action: r.NotificationsList,
			},
			{
				Name:      "read",
				Usage:     "Mark messages read",
				ArgsUsage: "<id>...",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "all",
						Usage: "Mark every unread message read",
					},
				},
				Action: r.NotificationsRead,
			},
			{
				Name:  "watch",
				Usage: "Stream messages and announcements until interrupted",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "no-log",
						Usage: "Do not record deliveries in the message log",
					},
				},
				Action: r.NotificationsWatch,
			},
			{
				Name:  "log",
				Usage: "Show deliveries recorded by 'watch'",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum number of entries",
						Value: 50,
					},
					&cli.BoolFlag{
						Name:  "clear",
						Usage: "Delete the recorded entries",
					},
				},
				Action: r.NotificationsLog,
			},
			{
				Name:  "export",
				Usage: "Export unread messages and announcements",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "format",
						Aliases: []string{"f"},
						Usage:   "Export format: csv, markdown or text",
						Value:   "markdown",
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "File to write, stdout when empty",
					},
				},
				Action: r.NotificationsExport,
			},
		},
	}
}

func announcementsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "announcements",
		Usage: "Site-wide announcements",
		Commands: []*cli.Command{
			{
				Name:   "list",
				Usage:  "List active announcements",
				Flags:  jsonFlags(),
				Action: r.AnnouncementsList,
			},
		},
	}
}

func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "tui",
		Usage: "Launch the interactive inbox",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "log-file",
				Usage: "File the TUI logs to",
				Value: "./tmp/filmx-tui.log",
			},
		},
		Action: r.TUI,
	}
}
