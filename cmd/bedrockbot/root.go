// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package main

import (
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/holomush/bedrockbot/internal/config"
	"github.com/holomush/bedrockbot/internal/logging"
)

// NewRootCmd creates the root command for the bedrockbot CLI.
func NewRootCmd() *cobra.Command {
	return newRootCmd(&Deps{})
}

func newRootCmd(deps *Deps) *cobra.Command {
	deps = deps.withDefaults()

	cmd := &cobra.Command{
		Use:   "bedrockbot",
		Short: "bedrockbot - a headless Bedrock Edition client",
		Long: `bedrockbot joins Minecraft Bedrock Edition servers and LAN worlds as a
headless player. It follows a player or walks to coordinates, reconnects
with backoff and reports its state through structured logs.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().String("config", "", "config file path (default $XDG_CONFIG_HOME/bedrockbot/config.yaml)")
	config.BindGlobal(cmd.PersistentFlags())

	cmd.AddCommand(newJoinCmd(deps))
	cmd.AddCommand(newDiscoverCmd(deps))
	cmd.AddCommand(newPingCmd(deps))
	cmd.AddCommand(newAuthCmd(deps))
	cmd.AddCommand(newKeyCmd(deps))
	cmd.AddCommand(newConfigCmd(deps))

	return cmd
}

// invocation is the resolved configuration and logger of one command run.
type invocation struct {
	cfg    config.Config
	logger *slog.Logger
}

// loadInvocation reads the config file named by --config, or the optional
// default file, overlays cmd's flags and sets up logging on stderr.
func loadInvocation(cmd *cobra.Command, deps *Deps) (invocation, error) {
	path, optional, err := configPath(cmd, deps)
	if err != nil {
		return invocation{}, err
	}
	cfg, err := config.Load(cmd.Flags(), path, optional)
	if err != nil {
		return invocation{}, err
	}
	if err := cfg.Validate(); err != nil {
		return invocation{}, err
	}
	level, err := logging.ResolveLevel(cfg.LogLevel)
	if err != nil {
		return invocation{}, err
	}
	logger := newLogger(cfg.LogFormat, level, cmd.ErrOrStderr())
	return invocation{cfg: cfg, logger: logger}, nil
}

func newLogger(format string, level slog.Leveler, w io.Writer) *slog.Logger {
	return logging.Setup("bedrockbot", version, format, level, w)
}

// configPath returns the explicit --config path, or the default path
// flagged as optional.
func configPath(cmd *cobra.Command, deps *Deps) (string, bool, error) {
	if f := cmd.Flags().Lookup("config"); f != nil && f.Value.String() != "" {
		return f.Value.String(), false, nil
	}
	path, err := deps.ConfigPathGetter()
	if err != nil {
		return "", false, err
	}
	return path, true, nil
}
