// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 LightRAG Contributors

package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/Venkatesh-108/LightRAG-SRM/internal/config"
	ragerr "github.com/Venkatesh-108/LightRAG-SRM/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const redacted = "********"

func newConfigCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect or create the configuration file",
	}

	show := &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration as YAML",
		Long:  "Print the configuration after defaults, config file, environment and flags are applied. API keys are redacted.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runConfigShow(cmd, v)
		},
	}

	initCmd := &cobra.Command{
		Use:   "init [path]",
		Short: "Write the default configuration file",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runConfigInit,
	}
	initCmd.Flags().Bool("force", false, "overwrite an existing file")
	// Skip config discovery, which would bootstrap the very file init writes.
	initCmd.PersistentPreRunE = func(*cobra.Command, []string) error { return nil }

	cmd.AddCommand(show, initCmd)
	return cmd
}

func runConfigShow(cmd *cobra.Command, v *viper.Viper) error {
	if _, err := loadConfig(v); err != nil {
		return err
	}
	settings := v.AllSettings()
	redactKeys(settings)

	out, err := yaml.Marshal(settings)
	if err != nil {
		return ragerr.Wrapf(err, ragerr.CodeConfigParseInvalidFormat, "encoding config")
	}
	w := cmd.OutOrStdout()
	if used := v.ConfigFileUsed(); used != "" {
		if _, err := fmt.Fprintf(w, "# source: %s\n", used); err != nil {
			return err
		}
	}
	_, err = w.Write(out)
	return err
}

// redactKeys replaces every non-empty api_key value in a settings tree.
func redactKeys(m map[string]any) {
	for k, val := range m {
		switch val := val.(type) {
		case map[string]any:
			redactKeys(val)
		case string:
			if k == "api_key" && val != "" {
				m[k] = redacted
			}
		}
	}
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	path := ""
	if len(args) == 1 {
		path = args[0]
	} else {
		var err error
		if path, err = config.DefaultConfigPath(); err != nil {
			return err
		}
	}
	force, _ := cmd.Flags().GetBool("force")

	if _, err := os.Stat(path); err == nil && !force {
		return ragerr.New(ragerr.CodeCLIInputInvalid, fmt.Sprintf("%s already exists (use --force to overwrite)", path), ragerr.FieldPath(path))
	} else if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return ragerr.Wrap(err, ragerr.CodeCLISetupFailure, "checking config path", ragerr.FieldPath(path))
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return ragerr.Wrap(err, ragerr.CodeCLISetupFailure, "creating config directory", ragerr.FieldPath(path))
	}
	if err := os.WriteFile(path, config.DefaultConfigYAML, 0o600); err != nil {
		return ragerr.Wrap(err, ragerr.CodeCLISetupFailure, "writing config", ragerr.FieldPath(path))
	}
	_, err := fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
	return err
}
