// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 LightRAG Contributors

package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/Venkatesh-108/LightRAG-SRM/internal/reconcile"
	"github.com/Venkatesh-108/LightRAG-SRM/internal/server"
	ragerr "github.com/Venkatesh-108/LightRAG-SRM/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func newServeCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		Long:  "Load configuration, build a pipeline for every configured provider, index documents already on disk and serve the HTTP API.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd, v)
		},
	}

	cmd.Flags().String("listen", "", "override listen address (host:port)")
	_ = v.BindPFlag("networking.listen", cmd.Flags().Lookup("listen"))
	cmd.Flags().Bool("watch", false, "index PDFs as they appear in the documents directory")
	_ = v.BindPFlag("reconcile.watch", cmd.Flags().Lookup("watch"))

	return cmd
}

func runServe(cmd *cobra.Command, v *viper.Viper) error {
	cfg, err := loadConfig(v)
	if err != nil {
		return err
	}

	app, err := Wire(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := app.Close(); err != nil {
			slog.Warn("closing pipelines", "error", err)
		}
	}()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app.InitAll(ctx)

	worker := reconcile.New(cfg.DocumentsPath(), app.Registry, cfg.Ingest.Timeout)
	svc, err := server.NewServices(app.Registry, cfg.DocumentsPath(),
		server.WithIngestTimeout(cfg.Ingest.Timeout),
		server.WithMaxUploadBytes(cfg.Upload.MaxBytes),
		server.WithResourceProbe(app.Probe),
		server.WithReconciler(worker),
	)
	if err != nil {
		return ragerr.Wrapf(err, ragerr.CodeCLISetupFailure, "creating services")
	}

	srv, err := server.New(server.Config{
		ListenAddr:  cfg.Networking.Listen,
		CORSOrigins: cfg.Networking.CORSOrigins,
		UploadLimit: server.RateLimitConfig{RequestsPerMinute: cfg.Upload.RatePerMinute},
	}, svc)
	if err != nil {
		return ragerr.Wrapf(err, ragerr.CodeCLISetupFailure, "creating server")
	}
	defer func() { _ = srv.Close() }()

	if cfg.Reconcile.OnStart {
		worker.Start(ctx)
	}
	if cfg.Reconcile.Watch {
		go watchDocuments(ctx, worker)
	}

	if _, err := fmt.Fprintf(cmd.OutOrStdout(), "LightRAG listening on http://%s (default provider %s)\n",
		cfg.Networking.Listen, app.Registry.Default()); err != nil {
		return err
	}
	return srv.Start(ctx)
}

func watchDocuments(ctx context.Context, w *reconcile.Worker) {
	if err := w.Watch(ctx); err != nil && ctx.Err() == nil {
		slog.Error("watching documents directory", "error", err)
	}
}
