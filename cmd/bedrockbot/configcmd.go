// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package main

import (
	"fmt"
	"os"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/holomush/bedrockbot/internal/config"
)

func newConfigCmd(deps *Deps) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect the configuration file",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "schema",
		Short: "Print the JSON Schema of the configuration file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			data, err := config.GenerateSchema()
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "validate [file]",
		Short: "Check a configuration file against the schema",
		Long: `Validate a configuration file. Without an argument the file named by
--config, or the default file, is checked.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, _, err := configPath(cmd, deps)
			if err != nil {
				return err
			}
			if len(args) == 1 {
				path = args[0]
			}
			data, err := os.ReadFile(path) //nolint:gosec // path is chosen by the operator
			if err != nil {
				return oops.Code("CONFIG_LOAD_FAILED").With("path", path).Wrap(err)
			}
			if err := config.ValidateFile(data); err != nil {
				return err
			}
			cfg, err := config.Load(nil, path, false)
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s: ok\n", path)
			return nil
		},
	})
	return cmd
}
