// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 LightRAG Contributors

package main

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/Venkatesh-108/LightRAG-SRM/internal/reconcile"
	ragerr "github.com/Venkatesh-108/LightRAG-SRM/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func newDeleteCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <filename>",
		Short: "Delete a document from disk and every index",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDelete(cmd, v, args[0])
		},
	}
}

func newClearCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete all documents and empty every index",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runClear(cmd, v)
		},
	}

	cmd.Flags().BoolP("yes", "y", false, "confirm deleting every document")

	return cmd
}

func runDelete(cmd *cobra.Command, v *viper.Viper, filename string) error {
	name := filepath.Base(filename)
	if name != filename || name == "." || name == ".." {
		return ragerr.New(ragerr.CodeCLIInputInvalid, "expected a document name, not a path", ragerr.FieldFile(filename))
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

	found, err := app.Registry.Delete(ctx, name)
	if err != nil {
		return err
	}

	removed := true
	if err := os.Remove(filepath.Join(cfg.DocumentsPath(), name)); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return ragerr.Wrap(err, ragerr.CodeCLISetupFailure, "removing document file", ragerr.FieldFile(name))
		}
		removed = false
	}
	if !found && !removed {
		return ragerr.New(ragerr.CodeStoreDocumentNotFound, fmt.Sprintf("File %q not found.", name), ragerr.FieldFile(name))
	}

	_, err = fmt.Fprintf(cmd.OutOrStdout(), "File %q deleted successfully.\n", name)
	return err
}

func runClear(cmd *cobra.Command, v *viper.Viper) error {
	out := cmd.OutOrStdout()
	if yes, _ := cmd.Flags().GetBool("yes"); !yes {
		_, err := fmt.Fprintln(out, "This deletes every document and index. Re-run with --yes to confirm.")
		return err
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

	paths, err := reconcile.ListPDFs(cfg.DocumentsPath())
	if err != nil {
		return err
	}
	removed := 0
	for _, path := range paths {
		if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			slog.Warn("removing document file", "path", path, "error", err)
			continue
		}
		removed++
	}

	if err := app.Registry.Clear(ctx); err != nil {
		return err
	}
	_, err = fmt.Fprintf(out, "All documents deleted successfully (%d file(s) removed).\n", removed)
	return err
}
