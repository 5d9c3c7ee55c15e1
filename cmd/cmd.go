// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

// globalFlags are defined on the root command and visible to every subcommand.
func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "Path to configuration file",
			Value:   "config.toml",
		},
		&cli.StringFlag{
			Name:  "env-file",
			Usage: "Path to a .env file with credentials",
			Value: ".env",
		},
		&cli.BoolFlag{
			Name:    "verbose",
			Aliases: []string{"v"},
			Usage:   "Enable debug logging",
		},
	}
}

// directionFlags select the source and destination platforms of a transfer.
func directionFlags(from, to string) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:  "from",
			Usage: "Source platform (spotify, youtube, apple, amazon)",
			Value: from,
		},
		&cli.StringFlag{
			Name:  "to",
			Usage: "Destination platform (spotify, youtube, apple, amazon)",
			Value: to,
		},
		&cli.BoolFlag{
			Name:  "no-cache",
			Usage: "Bypass the search cache",
		},
	}
}

// reportFlags write the match results to a file after the command finishes.
func reportFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:  "report",
			Usage: "Write a match report to this path (\"-\" uses {playlist}_report.{ext})",
		},
		&cli.StringFlag{
			Name:  "format",
			Usage: "Report format (csv, markdown, text, json)",
			Value: "markdown",
		},
	}
}

func withFlags(groups ...[]cli.Flag) []cli.Flag {
	var flags []cli.Flag
	for _, g := range groups {
		flags = append(flags, g...)
	}
	return flags
}

// setupCommand writes the config template and prepares the search cache.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "setup",
		Usage:  "Create config.toml and initialize the search cache",
		Action: r.Setup,
	}
}

// searchCommand runs a single track search on one platform.
func searchCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "search",
		Usage: "Search a platform for a track",
		Arguments: []cli.Argument{
			&cli.StringArg{
				Name: "query",
			},
		},
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "platform",
				Aliases: []string{"p"},
				Usage:   "Platform to search",
				Value:   "youtube",
			},
			&cli.IntFlag{
				Name:  "limit",
				Usage: "Maximum number of results",
				Value: 10,
			},
			&cli.BoolFlag{
				Name:  "no-cache",
				Usage: "Bypass the search cache",
			},
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

// playlistsCommand lists the playlists of the authenticated user on one platform.
func playlistsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "playlists",
		Usage: "List your playlists on a platform",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "platform",
				Aliases: []string{"p"},
				Usage:   "Platform to list",
				Value:   "spotify",
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
		},
		Action: r.Playlists,
	}
}

// matchCommand matches a playlist without creating anything.
func matchCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "match",
		Usage: "Match every track of a playlist on another platform without creating anything",
		Flags: withFlags(
			[]cli.Flag{
				&cli.StringFlag{
					Name:     "playlist",
					Usage:    "Source playlist name or ID",
					Required: true,
				},
				&cli.BoolFlag{
					Name:  "json",
					Usage: "Output raw JSON",
				},
			},
			directionFlags("spotify", "youtube"),
			reportFlags(),
		),
		Action: r.Match,
	}
}

// transferCommand handles playlist transfer operations
func transferCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "transfer",
		Usage: "Transfer playlists between services",
		Commands: []*cli.Command{
			{
				Name:  "run",
				Usage: "Match a playlist and create it on the destination",
				Flags: withFlags(
					[]cli.Flag{
						&cli.StringFlag{
							Name:     "source",
							Usage:    "Source playlist name or ID",
							Required: true,
						},
						&cli.StringFlag{
							Name:  "dest",
							Usage: "Destination playlist name (defaults to the source name)",
						},
					},
					directionFlags("spotify", "youtube"),
					reportFlags(),
				),
				Action: r.TransferRun,
			},
			{
				Name:    "review",
				Aliases: []string{"ui", "tui"},
				Usage:   "Interactively review uncertain matches before creating the playlist",
				Flags: withFlags(
					[]cli.Flag{
						&cli.StringFlag{
							Name:  "source",
							Usage: "Source playlist name or ID (omit to pick one)",
						},
						&cli.StringFlag{
							Name:  "dest",
							Usage: "Destination playlist name (defaults to the source name)",
						},
						&cli.StringFlag{
							Name:  "log-file",
							Usage: "Where to write logs while the TUI is running",
							Value: "./tmp/xfer-tui.log",
						},
					},
					directionFlags("spotify", "youtube"),
					reportFlags(),
				),
				Action: r.TransferReview,
			},
			{
				Name:  "diff",
				Usage: "Compare and show missing tracks between two playlists",
				Flags: withFlags(
					[]cli.Flag{
						&cli.StringFlag{
							Name:     "source-id",
							Usage:    "Source playlist ID or name",
							Required: true,
						},
						&cli.StringFlag{
							Name:     "dest-id",
							Usage:    "Destination playlist ID or name",
							Required: true,
						},
						&cli.BoolFlag{
							Name:  "json",
							Usage: "Output raw JSON",
						},
					},
					directionFlags("spotify", "youtube"),
				),
				Action: r.TransferDiff,
			},
		},
	}
}

// cacheCommand manages the search result cache
func cacheCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "cache",
		Usage: "Manage the search result cache",
		Commands: []*cli.Command{
			{
				Name:  "clear",
				Usage: "Remove cached searches",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "platform",
						Aliases: []string{"p"},
						Usage:   "Only clear this platform",
					},
				},
				Action: r.CacheClear,
			},
			{
				Name:   "purge",
				Usage:  "Remove expired searches (sqlite backend)",
				Action: r.CachePurge,
			},
			{
				Name:  "migrations",
				Usage: "Show the sqlite schema version",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "rollback",
						Usage: "Roll back the most recent migration first",
					},
				},
				Action: r.CacheMigrations,
			},
		},
	}
}
