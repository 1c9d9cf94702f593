// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 LightRAG Contributors

package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/Venkatesh-108/LightRAG-SRM/internal/rag"
	ragerr "github.com/Venkatesh-108/LightRAG-SRM/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func newQueryCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "query <question>",
		Short: "Ask a question about the indexed documents",
		Long:  "Retrieve the most relevant chunks and stream the provider's answer, followed by the source citation and timing.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuery(cmd, v, args)
		},
	}

	cmd.Flags().StringP("provider", "p", "", "provider that answers (default from config)")
	cmd.Flags().StringP("file", "f", "", "restrict retrieval to this document")
	cmd.Flags().IntP("top-k", "k", 0, "number of chunks to retrieve (default from config)")

	return cmd
}

func runQuery(cmd *cobra.Command, v *viper.Viper, args []string) error {
	question := strings.TrimSpace(strings.Join(args, " "))
	if question == "" {
		return ragerr.New(ragerr.CodeCLIInputInvalid, "query text is required")
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

	name, _ := cmd.Flags().GetString("provider")
	file, _ := cmd.Flags().GetString("file")
	topK, _ := cmd.Flags().GetInt("top-k")

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	p, err := app.Registry.Get(ctx, name)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for frag := range p.Query(ctx, rag.QueryRequest{Text: question, Filename: file, TopK: topK}) {
		if _, err := fmt.Fprint(out, frag); err != nil {
			return err
		}
	}
	_, err = fmt.Fprintln(out)
	return err
}
