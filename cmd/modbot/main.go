// cmd/modbot/main.go
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/carlmjohnson/versioninfo"
	cli "github.com/urfave/cli/v2"

	"reddit-modbot/internal/app"
	"reddit-modbot/internal/config"
)

func main() {
	if err := run(os.Args); err != nil {
		slog.Error("exiting", "err", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	app := cli.App{
		Name:    "modbot",
		Usage:   "subreddit moderation assistant",
		Version: versioninfo.Short(),
	}

	app.Flags = []cli.Flag{
		&cli.StringFlag{
			Name:    "env-file",
			Usage:   "dotenv file to load before reading the environment (default .env)",
			EnvVars: []string{"MODBOT_ENV_FILE"},
		},
	}

	app.Commands = []*cli.Command{
		runCmd,
		checkCmd,
	}
	app.DefaultCommand = "run"

	return app.Run(args)
}

func loadConfig(cctx *cli.Context) (*config.Config, *slog.Logger, error) {
	var envFiles []string
	if f := cctx.String("env-file"); f != "" {
		envFiles = append(envFiles, f)
	}

	cfg, err := config.LoadConfig(envFiles...)
	if err != nil {
		return nil, nil, err
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(logger)
	return cfg, logger, nil
}

var runCmd = &cli.Command{
	Name:  "run",
	Usage: "poll the subreddit and run the moderation modules",
	Action: func(cctx *cli.Context) error {
		cfg, logger, err := loadConfig(cctx)
		if err != nil {
			return err
		}

		initCtx, cancel := context.WithTimeout(cctx.Context, 2*time.Minute)
		defer cancel()

		application, err := app.Initialize(initCtx, cfg, logger)
		if err != nil {
			return err
		}

		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

		go func() {
			sig := <-sigChan
			logger.Info("received signal, shutting down", "signal", sig)
			application.Shutdown()
			os.Exit(0)
		}()

		logger.Info("starting moderation bot", "community", cfg.Subreddit, "dashboard", "http://localhost:"+cfg.ServerPort)
		return application.Start()
	},
}

var checkCmd = &cli.Command{
	Name:  "check",
	Usage: "verify Reddit credentials, the subreddit and MongoDB, then exit",
	Action: func(cctx *cli.Context) error {
		cfg, logger, err := loadConfig(cctx)
		if err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(cctx.Context, time.Minute)
		defer cancel()

		if err := app.Check(ctx, cfg, logger); err != nil {
			return err
		}
		logger.Info("configuration OK")
		return nil
	},
}
