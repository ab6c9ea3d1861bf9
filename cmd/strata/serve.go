// Copyright 2026 StrataDB
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/urfave/cli/v2"

	"github.com/stratadb/strata"
	"github.com/stratadb/strata/api"
)

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:   "serve",
		Usage:  "Run the strata HTTP server",
		Action: serveAction,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to the service configuration file",
				Value:   "strata.yaml",
			},
			&cli.StringFlag{
				Name:  "env-file",
				Usage: "Optional .env file with server settings",
			},
		},
	}
}

func serveAction(c *cli.Context) error {
	if envFile := c.String("env-file"); envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			return fmt.Errorf("loading env file %s: %w", envFile, err)
		}
	} else if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(); err != nil {
			return fmt.Errorf("loading .env: %w", err)
		}
	}

	var serverCfg api.Config
	if err := envconfig.Process("STRATA", &serverCfg); err != nil {
		return fmt.Errorf("reading server settings: %w", err)
	}

	cfg, err := strata.LoadConfig(c.String("config"))
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	svc, err := strata.Open(ctx, cfg)
	if err != nil {
		return err
	}

	srv, err := api.NewServer(serverCfg, svc.Stack(), svc.Registry())
	if err != nil {
		svc.Close(ctx)
		return err
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	select {
	case err = <-errCh:
	case <-ctx.Done():
		slog.Info("shutting down")
		if shutdownErr := srv.Shutdown(context.Background()); shutdownErr != nil {
			slog.Error("server shutdown failed", "err", shutdownErr)
		}
		err = <-errCh
	}

	if closeErr := svc.Close(context.Background()); closeErr != nil && err == nil {
		err = closeErr
	}
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
