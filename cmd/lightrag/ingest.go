// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 LightRAG Contributors

package main

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"slices"

	"github.com/Venkatesh-108/LightRAG-SRM/internal/pdf"
	"github.com/Venkatesh-108/LightRAG-SRM/internal/reconcile"
	ragerr "github.com/Venkatesh-108/LightRAG-SRM/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func newIngestCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ingest [file.pdf...]",
		Short: "Index PDF documents",
		Long: "Copy the given PDFs into the documents directory and index them. " +
			"Without arguments, index every PDF in the documents directory that the provider's pipeline does not hold yet.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runIngest(cmd, v, args)
		},
	}

	cmd.Flags().StringP("provider", "p", "", "provider whose pipeline indexes the documents (default from config)")

	return cmd
}

func runIngest(cmd *cobra.Command, v *viper.Viper, args []string) error {
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
	out := cmd.OutOrStdout()
	name, _ := cmd.Flags().GetString("provider")

	if len(args) == 0 {
		if _, err := app.Registry.Get(ctx, name); err != nil {
			return err
		}
		res, err := reconcile.New(cfg.DocumentsPath(), app.Registry, cfg.Ingest.Timeout).Run(ctx)
		if err != nil {
			return err
		}
		return printReconcile(out, res)
	}

	dir := cfg.DocumentsPath()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return ragerr.Errorf(ragerr.CodeCLISetupFailure, "creating documents directory: %w", err)
	}

	var staged, copied []string
	cleanup := func() {
		for _, path := range copied {
			_ = os.Remove(path)
		}
	}
	for _, src := range args {
		dst, isCopy, err := stageDocument(src, dir)
		if err != nil {
			cleanup()
			return err
		}
		staged = append(staged, dst)
		if isCopy {
			copied = append(copied, dst)
		}
	}

	elapsed, err := app.Registry.Index(ctx, name, staged, cfg.Ingest.Timeout)
	if err != nil {
		cleanup()
		return err
	}
	_, err = fmt.Fprintf(out, "Indexed %d document(s) in %.1fs\n", len(staged), elapsed.Seconds())
	return err
}

// stageDocument places src in the documents directory. A file that is
// already there is used in place; otherwise it is copied under its base name.
func stageDocument(src, dir string) (string, bool, error) {
	name := filepath.Base(src)
	if !pdf.IsPDF(name) {
		return "", false, ragerr.New(ragerr.CodeCLIInputInvalid,
			fmt.Sprintf("%s: only PDF files are supported", src), ragerr.FieldFile(name))
	}
	dst := filepath.Join(dir, name)

	srcAbs, err := filepath.Abs(src)
	if err != nil {
		return "", false, ragerr.Wrap(err, ragerr.CodeCLIInputInvalid, "resolving path", ragerr.FieldPath(src))
	}
	dstAbs, err := filepath.Abs(dst)
	if err != nil {
		return "", false, ragerr.Wrap(err, ragerr.CodeCLIInputInvalid, "resolving path", ragerr.FieldPath(dst))
	}
	if srcAbs == dstAbs {
		return dst, false, nil
	}

	if err := copyNew(src, dst); err != nil {
		return "", false, err
	}
	return dst, true, nil
}

// copyNew copies src to dst, failing if dst exists.
func copyNew(src, dst string) (err error) {
	in, err := os.Open(src)
	if err != nil {
		return ragerr.Wrap(err, ragerr.CodePDFOpenNotFound, "opening document", ragerr.FieldPath(src))
	}
	defer func() { _ = in.Close() }()

	f, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return ragerr.New(ragerr.CodeIngestDocumentConflict,
				fmt.Sprintf("File %q already exists.", filepath.Base(dst)), ragerr.FieldFile(filepath.Base(dst)))
		}
		return ragerr.Wrap(err, ragerr.CodeCLISetupFailure, "creating document", ragerr.FieldPath(dst))
	}
	defer func() {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = ragerr.Wrap(cerr, ragerr.CodeCLISetupFailure, "writing document", ragerr.FieldPath(dst))
		}
		if err != nil {
			_ = os.Remove(dst)
		}
	}()

	if _, err := io.Copy(f, in); err != nil {
		return ragerr.Wrap(err, ragerr.CodeCLISetupFailure, "copying document", ragerr.FieldPath(dst))
	}
	return nil
}

func printReconcile(w io.Writer, res reconcile.Result) error {
	if res.Skipped {
		_, err := fmt.Fprintln(w, "Another indexing pass is already running")
		return err
	}
	if _, err := fmt.Fprintf(w, "Found %d PDF(s)\n", res.Found); err != nil {
		return err
	}
	names := make([]string, 0, len(res.Indexed)+len(res.Failed))
	for name := range res.Indexed {
		names = append(names, name)
	}
	for name := range res.Failed {
		if _, ok := res.Indexed[name]; !ok {
			names = append(names, name)
		}
	}
	slices.Sort(names)
	for _, name := range names {
		if err, failed := res.Failed[name]; failed {
			if _, werr := fmt.Fprintf(w, "  %s: failed: %v\n", name, err); werr != nil {
				return werr
			}
			continue
		}
		if _, err := fmt.Fprintf(w, "  %s: indexed %d\n", name, res.Indexed[name]); err != nil {
			return err
		}
	}
	if len(res.Failed) > 0 {
		return ragerr.New(ragerr.CodeIngestPipelineFailure, fmt.Sprintf("indexing failed for %d pipeline(s)", len(res.Failed)))
	}
	return nil
}
