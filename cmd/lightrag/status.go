// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 LightRAG Contributors

package main

import (
	"fmt"
	"io"
	"slices"

	"github.com/Venkatesh-108/LightRAG-SRM/internal/config"
	"github.com/Venkatesh-108/LightRAG-SRM/internal/provider"
	"github.com/Venkatesh-108/LightRAG-SRM/internal/reconcile"
	"github.com/Venkatesh-108/LightRAG-SRM/internal/server"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func newStatusCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show indexing and provider status",
		Long: "Report host resources and, for every configured provider, what its pipeline has indexed. " +
			"With --server, ask a running server instead.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runStatus(cmd, v)
		},
	}

	cmd.Flags().String("server", "", "address of a running server to query (host:port)")
	cmd.Flags().Bool("check", false, "verify that each provider endpoint accepts its API key")

	return cmd
}

func runStatus(cmd *cobra.Command, v *viper.Viper) error {
	out := cmd.OutOrStdout()
	if addr, _ := cmd.Flags().GetString("server"); addr != "" {
		return remoteStatus(out, addr)
	}

	cfg, err := loadConfig(v)
	if err != nil {
		return err
	}
	app, err := Wire(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = app.Close() }()

	ctx := cmd.Context()
	app.InitAll(ctx)
	check, _ := cmd.Flags().GetBool("check")

	paths, err := reconcile.ListPDFs(cfg.DocumentsPath())
	if err != nil {
		return err
	}
	p := printer{w: out}
	p.printf("Data directory: %s\n", cfg.DataDir)
	p.printf("Documents: %d PDF(s) in %s\n", len(paths), cfg.DocumentsPath())
	if snap, err := app.Probe.Snapshot(ctx); err != nil {
		p.printf("Host: unavailable: %v\n", err)
	} else {
		state := "ok"
		if !snap.AllOK() {
			state = "degraded"
		}
		p.printf("Host: %s memory free, %s disk free (%s)\n", formatBytes(snap.MemoryAvailable), formatBytes(snap.DiskFree), state)
	}

	p.printf("Providers:\n")
	initErrs := app.Registry.InitErrors()
	for _, name := range providerNames(cfg) {
		label := name
		if name == app.Registry.Default() {
			label += " (default)"
		}
		if msg, failed := initErrs[name]; failed {
			p.printf("  %s: unavailable: %s\n", label, msg)
			continue
		}
		pl, err := app.Registry.Get(ctx, name)
		if err != nil {
			p.printf("  %s: unavailable: %v\n", label, err)
			continue
		}
		st := pl.Status()
		p.printf("  %s: %d chunk(s), %d file(s) [%s]", label, st.TotalChunks, len(st.IndexedFiles), st.IndexBackend)
		if check {
			if err := checkProvider(cmd, name, cfg.Providers[name]); err != nil {
				p.printf(", endpoint: %v", err)
			} else {
				p.printf(", endpoint ok")
			}
		}
		p.printf("\n")
	}
	return p.err
}

func checkProvider(cmd *cobra.Command, name string, pc config.ProviderConfig) error {
	kind := provider.KindOf(name)
	endpoint := pc.Endpoint
	if endpoint == "" && kind == provider.KindOpenAI {
		endpoint = provider.DefaultEndpoint(name)
	}
	return provider.CheckEndpoint(cmd.Context(), defaultHTTPClient, kind, endpoint, pc.APIKey)
}

func remoteStatus(out io.Writer, addr string) error {
	var h server.SystemHealth
	if err := newServerClient(addr).getJSON("/system/health", &h); err != nil {
		return err
	}
	p := printer{w: out}
	p.printf("Server at %s: %s\n", addr, h.Status)
	if h.Resources != nil {
		p.printf("Host: %s memory free, %s disk free\n", formatBytes(h.Resources.MemoryAvailable), formatBytes(h.Resources.DiskFree))
	}
	if h.Reconciling {
		p.printf("Indexing documents found on disk\n")
	}
	for _, st := range h.Providers {
		label := st.Provider
		if st.Provider == h.Default {
			label += " (default)"
		}
		state := "available"
		if !st.Available {
			state = "unavailable"
		}
		p.printf("  %s: %s %s", label, state, st.Model)
		if m, ok := h.Health[st.Provider]; ok && m.FailureCount > 0 {
			p.printf(" (%d failure(s))", m.FailureCount)
		}
		p.printf("\n")
	}
	names := make([]string, 0, len(h.InitErrors))
	for name := range h.InitErrors {
		names = append(names, name)
	}
	slices.Sort(names)
	for _, name := range names {
		p.printf("  %s: failed to start: %s\n", name, h.InitErrors[name])
	}
	return p.err
}

func providerNames(cfg *config.Config) []string {
	names := make([]string, 0, len(cfg.Providers))
	for name := range cfg.Providers {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// printer writes formatted output and keeps the first write error.
type printer struct {
	w   io.Writer
	err error
}

func (p *printer) printf(format string, args ...any) {
	if p.err != nil {
		return
	}
	_, p.err = fmt.Fprintf(p.w, format, args...)
}

// formatBytes formats a byte count as a human-readable string.
func formatBytes(b uint64) string {
	const (
		gb = 1024 * 1024 * 1024
		mb = 1024 * 1024
	)
	switch {
	case b >= gb:
		return fmt.Sprintf("%.1f GB", float64(b)/float64(gb))
	case b >= mb:
		return fmt.Sprintf("%.1f MB", float64(b)/float64(mb))
	default:
		return fmt.Sprintf("%d bytes", b)
	}
}
