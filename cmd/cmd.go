// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

// globalFlags are accepted by every command.
func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "Path to configuration file",
			Value:   "config.toml",
		},
		&cli.BoolFlag{
			Name:    "verbose",
			Aliases: []string{"v"},
			Usage:   "Enable debug logging",
		},
	}
}

// migrateCommand runs a full Amazon Music → Spotify migration
func migrateCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "migrate",
		Usage: "Migrate an Amazon Music playlist to a new Spotify playlist",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "source",
				Aliases:  []string{"s"},
				Usage:    "Amazon Music playlist ID",
				Required: true,
			},
			&cli.StringFlag{
				Name:  "name",
				Usage: "Destination playlist name (defaults to the source name)",
			},
			&cli.StringFlag{
				Name:  "strategy",
				Usage: "Pacing strategy: fixed or adaptive (defaults to migration.strategy)",
			},
			&cli.BoolFlag{
				Name:  "tui",
				Usage: "Preview and follow the migration in an interactive TUI",
			},
			&cli.StringFlag{
				Name:    "report",
				Aliases: []string{"o"},
				Usage:   "Write a migration report to this path",
			},
			&cli.StringFlag{
				Name:  "format",
				Usage: "Report format: txt, markdown, csv, or json",
				Value: "txt",
			},
		},
		Action: r.Migrate,
	}
}

// fetchCommand prints a source playlist
func fetchCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "fetch",
		Usage: "Fetch an Amazon Music playlist with all of its tracks",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "source",
				Aliases:  []string{"s"},
				Usage:    "Amazon Music playlist ID",
				Required: true,
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
			&cli.BoolFlag{
				Name:  "pretty",
				Usage: "Pretty-print output",
			},
		},
		Action: r.Fetch,
	}
}

// searchCommand runs a single destination search
func searchCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "search",
		Usage: "Search Spotify for a track the way migrations do (first result wins)",
		Arguments: []cli.Argument{
			&cli.StringArg{
				Name: "query",
			},
		},
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
			&cli.BoolFlag{
				Name:  "pretty",
				Usage: "Pretty-print output",
				Value: true,
			},
		},
		Action: r.Search,
	}
}

// historyCommand inspects recorded migrations
func historyCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "history",
		Usage: "Inspect past migrations",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List recorded migrations, newest first",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "status",
						Usage: "Filter by status: running, completed, or failed",
					},
					&cli.StringFlag{
						Name:  "source",
						Usage: "Filter by Amazon Music playlist ID",
					},
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum number of migrations to show",
						Value: 20,
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.HistoryList,
			},
			{
				Name:  "show",
				Usage: "Show one migration as a report",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "id",
						Usage:    "Migration ID or sequence number",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "format",
						Usage: "Output format: txt, markdown, csv, or json",
						Value: "txt",
					},
				},
				Action: r.HistoryShow,
			},
			{
				Name:  "matches",
				Usage: "List cached track matches",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "artist",
						Usage: "Filter by source artist",
					},
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum number of matches to show",
						Value: 50,
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.HistoryMatches,
			},
			{
				Name:  "delete",
				Usage: "Remove a migration from history",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "id",
						Usage:    "Migration ID or sequence number",
						Required: true,
					},
				},
				Action: r.HistoryDelete,
			},
			{
				Name:  "forget",
				Usage: "Drop the cached match of one Amazon Music track",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "artist",
						Usage:    "Source artist",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "title",
						Usage:    "Source title",
						Required: true,
					},
				},
				Action: r.HistoryForget,
			},
		},
	}
}

// setupCommand handles setup operations for configuration and the database.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Setup and configuration commands",
		Commands: []*cli.Command{
			{
				Name:  "config",
				Usage: "Write a config file from the built-in template",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "path",
						Usage: "Where to write the config file",
						Value: "config.toml",
					},
				},
				Action: r.SetupConfig,
			},
			{
				Name:   "database",
				Usage:  "Initialize database and run migrations",
				Action: r.SetupDatabase,
			},
		},
	}
}
