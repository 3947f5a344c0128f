package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/starford/tabtidy/internal"
	"github.com/starford/tabtidy/internal/logging"
	pkgconfig "github.com/starford/tabtidy/pkg/config"
)

var version = "dev"

// defaultConfigFile is read when present and no --config is given.
const defaultConfigFile = "tabtidy.yaml"

func sharedFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "Path to config file",
			Sources: cli.EnvVars("TABTIDY_CONFIG"),
		},
		&cli.IntFlag{
			Name:    "timeout",
			Aliases: []string{"t"},
			Usage:   "Per-link timeout in seconds",
			Value:   5,
			Sources: cli.EnvVars("TABTIDY_TIMEOUT"),
		},
		&cli.IntFlag{
			Name:    "workers",
			Aliases: []string{"w"},
			Usage:   "Number of links probed concurrently",
			Value:   10,
			Sources: cli.EnvVars("TABTIDY_WORKERS"),
		},
		&cli.FloatFlag{
			Name:  "per-host-rate",
			Usage: "Maximum requests per second to any single host (0 = unlimited)",
		},
		&cli.BoolFlag{
			Name:  "debug",
			Usage: "Enable debug logging",
		},
		&cli.StringFlag{
			Name:    "log-dir",
			Usage:   "Directory for rotated log files",
			Sources: cli.EnvVars("TABTIDY_LOG_DIR"),
		},
		&cli.StringFlag{
			Name:  "log-format",
			Usage: "Console log format: auto, json or text",
		},
		&cli.StringFlag{
			Name:  "report",
			Usage: "Write the run report to this path (.json, .yaml or .xlsx)",
		},
		&cli.StringFlag{
			Name:  "metrics-file",
			Usage: "Write Prometheus metrics to this textfile after each run",
		},
	}
}

// loadConfig builds the config from defaults, the optional config file, and
// any flags set explicitly on the command line.
func loadConfig(cmd *cli.Command) (*internal.Config, error) {
	cfg := internal.NewDefaultConfig()
	fromFile := false
	if path := cmd.String("config"); path != "" {
		if err := pkgconfig.Load(path, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
		fromFile = true
	} else {
		loaded, err := pkgconfig.LoadOptional(defaultConfigFile, cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
		fromFile = loaded
	}

	if cmd.IsSet("timeout") || !fromFile {
		cfg.Probe.Timeout = time.Duration(cmd.Int("timeout")) * time.Second
	}
	if cmd.IsSet("workers") || !fromFile {
		cfg.Probe.Workers = int(cmd.Int("workers"))
	}
	if cmd.IsSet("per-host-rate") {
		cfg.Probe.PerHostRate = cmd.Float("per-host-rate")
	}
	if cmd.Bool("debug") {
		cfg.App.LogLevel = slog.LevelDebug
	}
	if cmd.IsSet("log-dir") {
		cfg.App.LogDir = cmd.String("log-dir")
	}
	if cmd.IsSet("log-format") {
		cfg.App.LogFormat = cmd.String("log-format")
	}
	if cmd.IsSet("report") {
		cfg.Report.Path = cmd.String("report")
	}
	if cmd.IsSet("metrics-file") {
		cfg.Report.MetricsFile = cmd.String("metrics-file")
	}
	if cmd.IsSet("port") {
		cfg.App.HTTP.Port = int(cmd.Int("port"))
	}
	if cmd.IsSet("root") {
		cfg.Documents.Root = cmd.String("root")
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// setup loads the config and builds the logger. Logs go to stderr so stdout
// stays free for summaries and the MCP stdio transport.
func setup(cmd *cli.Command) ([]internal.Option, func() error, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, nil, err
	}
	logger, closeLog, err := logging.New(cfg.App.Logging(), os.Stderr)
	if err != nil {
		return nil, nil, err
	}
	slog.SetDefault(logger)
	return []internal.Option{internal.WithConfig(cfg), internal.WithLogger(logger)}, closeLog, nil
}

func twoPaths(cmd *cli.Command) (string, string, error) {
	if cmd.NArg() != 2 {
		return "", "", fmt.Errorf("expected <input> <output>, got %d arguments", cmd.NArg())
	}
	return cmd.Args().Get(0), cmd.Args().Get(1), nil
}

func runClean(ctx context.Context, cmd *cli.Command) error {
	input, output, err := twoPaths(cmd)
	if err != nil {
		return err
	}
	opts, closeLog, err := setup(cmd)
	if err != nil {
		return err
	}
	defer closeLog()
	return internal.Run(ctx, input, output, opts...)
}

func runWatch(ctx context.Context, cmd *cli.Command) error {
	input, output, err := twoPaths(cmd)
	if err != nil {
		return err
	}
	opts, closeLog, err := setup(cmd)
	if err != nil {
		return err
	}
	defer closeLog()
	return internal.Watch(ctx, input, output, opts...)
}

func runServe(ctx context.Context, cmd *cli.Command) error {
	opts, closeLog, err := setup(cmd)
	if err != nil {
		return err
	}
	defer closeLog()
	return internal.Serve(ctx, opts...)
}

func runMCP(ctx context.Context, cmd *cli.Command) error {
	opts, closeLog, err := setup(cmd)
	if err != nil {
		return err
	}
	defer closeLog()
	return internal.ServeMCP(ctx, version, opts...)
}

func runCheck(ctx context.Context, cmd *cli.Command) error {
	if cmd.NArg() == 0 {
		return fmt.Errorf("expected at least one URL")
	}
	opts, closeLog, err := setup(cmd)
	if err != nil {
		return err
	}
	defer closeLog()
	return internal.Check(ctx, cmd.Args().Slice(), opts...)
}

func main() {
	cmd := &cli.Command{
		Name:      "tabtidy",
		Usage:     "Remove dead links from browser bookmark exports and compact empty folders",
		Version:   version,
		ArgsUsage: "<input> <output>",
		Action:    runClean,
		Flags:     sharedFlags(),
		Commands: []*cli.Command{
			{
				Name:      "watch",
				Usage:     "Clean <input> into <output> now and whenever <input> changes",
				ArgsUsage: "<input> <output>",
				Action:    runWatch,
				Flags:     sharedFlags(),
			},
			{
				Name:   "serve",
				Usage:  "Serve the HTTP API, live run events and metrics",
				Action: runServe,
				Flags: append(sharedFlags(),
					&cli.IntFlag{
						Name:    "port",
						Aliases: []string{"p"},
						Usage:   "HTTP port",
						Sources: cli.EnvVars("TABTIDY_PORT"),
					},
					&cli.StringFlag{
						Name:  "root",
						Usage: "Directory of bookmark documents exposed to clients",
					},
				),
			},
			{
				Name:   "mcp",
				Usage:  "Serve MCP tools over stdio",
				Action: runMCP,
				Flags: append(sharedFlags(),
					&cli.StringFlag{
						Name:  "root",
						Usage: "Directory of bookmark documents exposed to clients",
					},
				),
			},
			{
				Name:      "check",
				Usage:     "Probe one or more URLs and print a verdict for each",
				ArgsUsage: "<url>...",
				Action:    runCheck,
				Flags:     sharedFlags(),
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
