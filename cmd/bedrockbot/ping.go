// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/holomush/bedrockbot/internal/config"
	"github.com/holomush/bedrockbot/internal/ping"
)

// StatusOutput is the JSON form of a ping result.
type StatusOutput struct {
	Address         string `json:"address"`
	Edition         string `json:"edition"`
	MOTD            string `json:"motd"`
	Version         string `json:"version"`
	ProtocolVersion int    `json:"protocol_version"`
	Players         int    `json:"players"`
	MaxPlayers      int    `json:"max_players"`
	LevelName       string `json:"level_name,omitempty"`
	GameMode        string `json:"game_mode,omitempty"`
	LatencyMillis   int64  `json:"latency_ms"`
}

func newPingCmd(deps *Deps) *cobra.Command {
	var (
		timeout    time.Duration
		jsonOutput bool
	)
	cmd := &cobra.Command{
		Use:   "ping host[:port]",
		Short: "Query a server's status without joining",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := loadInvocation(cmd, deps)
			if err != nil {
				return err
			}
			address := ping.HostPort(args[0], rt.cfg.Port)

			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			status, err := deps.Pinger.Ping(ctx, address)
			if err != nil {
				return err
			}
			rt.logger.Debug("pong received", "addr", address, "latency", status.Latency)

			out := StatusOutput{
				Address:         address,
				Edition:         status.Edition,
				MOTD:            status.MOTD,
				Version:         status.Version,
				ProtocolVersion: status.ProtocolVersion,
				Players:         status.PlayerCount,
				MaxPlayers:      status.MaxPlayers,
				LevelName:       status.LevelName,
				GameMode:        status.GameMode,
				LatencyMillis:   status.Latency.Milliseconds(),
			}
			if jsonOutput {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(out)
			}
			return writeStatus(cmd.OutOrStdout(), out)
		},
	}
	cmd.Flags().Int("port", config.Default().Port, "port used when the address has none")
	cmd.Flags().DurationVar(&timeout, "timeout", 5*time.Second, "how long to wait for the pong")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "output in JSON format")
	return cmd
}

func writeStatus(w io.Writer, s StatusOutput) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintf(tw, "ADDRESS\t%s\n", s.Address)
	_, _ = fmt.Fprintf(tw, "MOTD\t%s\n", s.MOTD)
	_, _ = fmt.Fprintf(tw, "VERSION\t%s (protocol %d)\n", s.Version, s.ProtocolVersion)
	_, _ = fmt.Fprintf(tw, "PLAYERS\t%d/%d\n", s.Players, s.MaxPlayers)
	if s.LevelName != "" {
		_, _ = fmt.Fprintf(tw, "LEVEL\t%s\n", s.LevelName)
	}
	if s.GameMode != "" {
		_, _ = fmt.Fprintf(tw, "MODE\t%s\n", s.GameMode)
	}
	_, _ = fmt.Fprintf(tw, "LATENCY\t%dms\n", s.LatencyMillis)
	return tw.Flush()
}
