// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		analyzeCommand, genresCommand, spotifyCommand, cacheCommand, setupCommand, tuiCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// configFlag is shared by every command that reads config.toml.
func configFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "Path to configuration file",
		Value:   "config.toml",
	}
}

// analyzeCommand runs the flow-state analysis pipeline.
func analyzeCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "analyze",
		Usage:     "Analyze playlists for flow-state tracks",
		ArgsUsage: "[playlist-id ...]",
		Flags: []cli.Flag{
			configFlag(),
			&cli.StringFlag{
				Name:    "file",
				Aliases: []string{"f"},
				Usage:   "File with one playlist ID per line",
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Output directory (defaults to [output] dir in config)",
			},
			&cli.BoolFlag{
				Name:  "offline",
				Usage: "Read playlists from the local cache instead of the API",
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Print results as JSON instead of the text summary",
			},
		},
		Action: r.Analyze,
	}
}

// genresCommand groups genre post-processing of a completed analysis.
func genresCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "genres",
		Usage: "Genre grouping and consolidation of analysis results",
		Commands: []*cli.Command{
			{
				Name:  "split",
				Usage: "Group passing tracks by their primary artist's genres",
				Flags: []cli.Flag{
					configFlag(),
					&cli.StringFlag{
						Name:    "input",
						Aliases: []string{"i"},
						Usage:   "Analysis CSV to read (defaults to <output dir>/analysis.csv)",
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Output directory (defaults to [output] dir in config)",
					},
					&cli.BoolFlag{
						Name:  "all",
						Usage: "Include tracks that did not meet the criteria",
					},
				},
				Action: r.GenresSplit,
			},
			{
				Name:  "consolidate",
				Usage: "Route genre groups into the canonical taxonomy",
				Flags: []cli.Flag{
					configFlag(),
					&cli.StringFlag{
						Name:    "input",
						Aliases: []string{"i"},
						Usage:   "genre_tracks.json to read (defaults to <output dir>/genre_tracks.json)",
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Output directory (defaults to [output] dir in config)",
					},
					&cli.StringFlag{
						Name:  "taxonomy",
						Usage: "TOML taxonomy file (defaults to the built-in taxonomy)",
					},
				},
				Action: r.GenresConsolidate,
			},
		},
	}
}

// spotifyCommand handles Spotify operations
func spotifyCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "spotify",
		Aliases: []string{"spot"},
		Usage:   "Spotify operations",
		Commands: []*cli.Command{
			{
				Name:   "auth",
				Usage:  "Authenticate with Spotify using OAuth2",
				Flags:  []cli.Flag{configFlag()},
				Action: r.SpotifyAuth,
			},
			{
				Name:  "playlists",
				Usage: "List your Spotify playlists",
				Flags: []cli.Flag{
					configFlag(),
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum number of playlists to return",
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
					&cli.BoolFlag{
						Name:  "pretty",
						Usage: "Pretty-print output",
					},
					&cli.BoolFlag{
						Name:  "save",
						Usage: "Save playlists CSV and an id list for analyze",
					},
				},
				Action: r.SpotifyPlaylists,
			},
		},
	}
}

// cacheCommand manages the local source cache.
func cacheCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "cache",
		Usage: "Manage the local playlist cache",
		Commands: []*cli.Command{
			{
				Name:      "playlist",
				Usage:     "Cache a playlist's full track listing",
				ArgsUsage: "<playlist-id>",
				Flags:     []cli.Flag{configFlag()},
				Action:    r.CachePlaylist,
			},
			{
				Name:   "list",
				Usage:  "List cached playlists",
				Flags:  []cli.Flag{configFlag()},
				Action: r.CacheList,
			},
		},
	}
}

// setupCommand handles setup operations for database and configuration.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "setup",
		Usage:  "Initialize config file, database and migrations",
		Flags:  []cli.Flag{configFlag()},
		Action: r.Setup,
	}
}

// tuiCommand returns the top-level TUI command for browsing results.
func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "tui",
		Aliases: []string{"interactive", "ui"},
		Usage:   "Browse a completed analysis interactively",
		Flags: []cli.Flag{
			configFlag(),
			&cli.StringFlag{
				Name:    "input",
				Aliases: []string{"i"},
				Usage:   "Analysis CSV to browse (defaults to <output dir>/analysis.csv)",
			},
		},
		Action: r.TUI,
	}
}
