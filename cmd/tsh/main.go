package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/urfave/cli/v3"

	"tsh/internal/config"
	"tsh/internal/logger"
	"tsh/internal/shell"
)

func main() {
	app := &cli.Command{
		Name:  "tsh",
		Usage: "a tiny shell with job control",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    "verbose",
				Aliases: []string{"v"},
				Usage:   "print additional diagnostic information",
			},
			&cli.BoolFlag{
				Name:    "no-prompt",
				Aliases: []string{"p"},
				Usage:   "do not emit a command prompt",
			},
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "path to the YAML config file",
				Value:   "config.yml",
			},
			&cli.StringFlag{
				Name:  "env",
				Usage: "path to an env file with TSH_* overrides",
				Value: ".env",
			},
		},
		Action: run,
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "tsh: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cmd *cli.Command) error {
	cfg, err := config.Load(cmd.String("config"), cmd.String("env"))
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if cmd.Bool("verbose") {
		cfg.Verbose = true
	}
	if cmd.Bool("no-prompt") {
		cfg.EmitPrompt = false
	}

	logCfg := logger.DefaultConfig()
	logCfg.Level = logger.ParseLevel(cfg.LogLevel)
	if cfg.Verbose {
		logCfg.Level = slog.LevelDebug
	}
	if cfg.LogFormat != "" {
		logCfg.Format = cfg.LogFormat
	}
	log := logger.New(logCfg)

	s, err := shell.New(cfg, log)
	if err != nil {
		return fmt.Errorf("initialize shell: %w", err)
	}
	return s.Run()
}
