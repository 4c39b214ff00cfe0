package main

import (
	"fmt"
	"os"
	"time"

	"github.com/urfave/cli/v2"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "palmreader-mcp: %v\n", err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:    "palmreader-mcp",
		Usage:   "palm-line feature extraction and readings over MCP",
		Version: Version,
		Description: "Without a command the MCP server runs on stdin/stdout.\n" +
			"Configure it in your MCP client (e.g., Claude Desktop).",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "YAML configuration file",
				EnvVars: []string{"PALMREADER_CONFIG"},
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "debug, info, warn or error (overrides the configuration)",
			},
		},
		Action: serveAction,
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Run the MCP server on stdin/stdout",
				Action: serveAction,
			},
			{
				Name:      "extract",
				Usage:     "Print the palm-line features of a photo",
				ArgsUsage: "<image>",
				Action:    extractAction,
			},
			{
				Name:      "read",
				Usage:     "Generate a palm reading for a photo",
				ArgsUsage: "<image>",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "language",
						Aliases: []string{"l"},
						Value:   "en",
						Usage:   "BCP 47 tag of the reading language",
					},
					&cli.BoolFlag{
						Name:  "speak",
						Usage: "also render the reading as MP3 speech (English only)",
					},
				},
				Action: readAction,
			},
			{
				Name:      "ask",
				Usage:     "Ask a follow-up question about a reading",
				ArgsUsage: "<question>",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "reading",
						Usage: "the reading text",
					},
					&cli.PathFlag{
						Name:  "reading-file",
						Usage: "file holding the reading text",
					},
				},
				Action: askAction,
			},
			{
				Name:      "scan",
				Usage:     "Extract features for every photo in a folder",
				ArgsUsage: "[folder]",
				Action:    scanAction,
			},
			{
				Name:  "cache",
				Usage: "Inspect and trim the reading cache",
				Subcommands: []*cli.Command{
					{
						Name:   "stats",
						Usage:  "Print the cache location and size",
						Action: cacheStatsAction,
					},
					{
						Name:  "prune",
						Usage: "Remove readings older than a given age",
						Flags: []cli.Flag{
							&cli.DurationFlag{
								Name:  "older-than",
								Value: 30 * 24 * time.Hour,
								Usage: "age of the oldest reading to keep",
							},
						},
						Action: cachePruneAction,
					},
					{
						Name:      "forget",
						Usage:     "Remove every cached reading of a photo",
						ArgsUsage: "<image>",
						Action:    cacheForgetAction,
					},
				},
			},
			{
				Name:   "version",
				Usage:  "Print version information",
				Action: versionAction,
			},
		},
	}
}
