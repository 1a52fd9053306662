// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/holomush/bedrockbot/internal/keyring"
)

func newKeyCmd(deps *Deps) *cobra.Command {
	return &cobra.Command{
		Use:   "key",
		Short: "Show where the credential-cache key comes from",
		Long: `Resolve the credential-cache key the way join does and report its
source. A missing key file is generated. The key itself is never printed.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := loadInvocation(cmd, deps)
			if err != nil {
				return err
			}
			path, err := deps.KeyFilePathGetter()
			if err != nil {
				return err
			}
			_, src, err := keyring.Load(path, deps.EnvironmentKeyGetter())
			if err != nil {
				return err
			}
			rt.logger.Debug("credential cache key resolved", "source", string(src))

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "source: %s\n", src)
			if src == keyring.SourceEnvironment {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "variable: %s\n", keyring.EnvVar)
				return nil
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "path: %s\n", path)
			return nil
		},
	}
}
