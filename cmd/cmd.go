// submodule cmd contains command definitions
package main

import (
	"github.com/desertthunder/ytfm/internal/formatter"
	"github.com/desertthunder/ytfm/internal/tasks"
	"github.com/urfave/cli/v3"
)

// globalFlags are inherited by every subcommand.
func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "Path to configuration file",
			Value:   "config.toml",
		},
		&cli.StringFlag{
			Name:  "env",
			Usage: "Path to a dotenv file with YTFM_* overrides",
			Value: ".env",
		},
		&cli.BoolFlag{
			Name:    "verbose",
			Aliases: []string{"v"},
			Usage:   "Enable debug logging",
		},
	}
}

// syncCommand scrobbles the YouTube Music backlog
func syncCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "sync",
		Usage: "Scrobble YouTube Music plays missing from Last.fm",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    "yes",
				Aliases: []string{"y"},
				Usage:   "Submit without asking (also enabled by CI=true or YTFM_UNATTENDED)",
			},
			&cli.BoolFlag{
				Name:  "dry-run",
				Usage: "Show the backlog without submitting",
			},
			&cli.IntFlag{
				Name:    "limit",
				Aliases: []string{"n"},
				Usage:   "Number of recent Last.fm scrobbles to compare against (default: sync.history_limit)",
			},
		},
		Action: r.Sync,
	}
}

// diffCommand prints or exports the backlog without submitting
func diffCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "diff",
		Usage: "Show YouTube Music plays missing from Last.fm",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Usage:   "Output format (text, csv, markdown, json)",
				Value:   string(formatter.FormatText),
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Write the export to a file instead of stdout",
			},
			&cli.IntFlag{
				Name:    "limit",
				Aliases: []string{"n"},
				Usage:   "Number of recent Last.fm scrobbles to compare against (default: sync.history_limit)",
			},
			&cli.BoolFlag{
				Name:  "hints",
				Usage: "Report near-miss matches already on Last.fm",
			},
			&cli.FloatFlag{
				Name:  "threshold",
				Usage: "Minimum similarity reported by --hints",
				Value: tasks.DefaultHintThreshold,
			},
		},
		Action: r.Diff,
	}
}

// authCommand handles authentication operations
func authCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Manage authentication",
		Commands: []*cli.Command{
			{
				Name:   "google",
				Usage:  "Authorize YouTube Music access with Google OAuth2",
				Action: r.AuthGoogle,
			},
			{
				Name:   "lastfm",
				Usage:  "Obtain a Last.fm session key and save it to the config",
				Action: r.AuthLastFM,
			},
			{
				Name:   "status",
				Usage:  "Check proxy health, Google token and Last.fm session",
				Action: r.AuthStatus,
			},
		},
	}
}

// setupCommand handles setup operations for configuration and database.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Setup and configuration commands",
		Commands: []*cli.Command{
			{
				Name:   "config",
				Usage:  "Write a config.toml template",
				Action: r.SetupConfig,
			},
			{
				Name:   "database",
				Usage:  "Initialize database and run migrations",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "rollback",
						Usage: "Roll back the most recent migration instead",
					},
				},
				Action: r.SetupDatabase,
			},
		},
	}
}

// runsCommand inspects the run log
func runsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "runs",
		Usage: "Inspect past sync runs",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List recent runs",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:    "limit",
						Aliases: []string{"n"},
						Usage:   "Maximum number of runs to show",
						Value:   20,
					},
					&cli.StringFlag{
						Name:  "status",
						Usage: "Only show runs with this status",
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.RunsList,
			},
			{
				Name:  "show",
				Usage: "Show a run and its rejected scrobbles",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "id"},
				},
				Action: r.RunsShow,
			},
		},
	}
}
