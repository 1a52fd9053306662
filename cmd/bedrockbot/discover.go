// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/holomush/bedrockbot/internal/config"
	"github.com/holomush/bedrockbot/internal/discovery"
)

// ServerOutput is the JSON form of a discovered LAN world.
type ServerOutput struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Level      string `json:"level"`
	Players    int32  `json:"players"`
	MaxPlayers int32  `json:"max_players"`
	Address    string `json:"address"`
}

func newDiscoverCmd(deps *Deps) *cobra.Command {
	var jsonOutput bool
	cmd := &cobra.Command{
		Use:   "discover",
		Short: "List LAN worlds advertised over NetherNet discovery",
		Long: `Broadcast discovery requests on the local network and list every world
that answers within --discovery-timeout. With --server-name only worlds
whose name contains the query are shown.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := loadInvocation(cmd, deps)
			if err != nil {
				return err
			}
			servers, err := deps.Discoverer(cmd.Context(), rt.logger, rt.cfg.DiscoveryTimeout)
			if err != nil {
				return err
			}
			rt.logger.Info("discovery finished", "servers", len(servers))

			if rt.cfg.ServerName != "" {
				_, servers, _ = discovery.SelectByName(servers, rt.cfg.ServerName)
				if len(servers) == 0 {
					return oops.Code("DISCOVERY_NO_MATCH").
						With("server_name", rt.cfg.ServerName).
						Errorf("no LAN world matches %q", rt.cfg.ServerName)
				}
			}

			out := make([]ServerOutput, 0, len(servers))
			for _, s := range servers {
				out = append(out, serverOutput(s))
			}
			if jsonOutput {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(out)
			}
			return writeServers(cmd.OutOrStdout(), out)
		},
	}
	config.BindDiscovery(cmd.Flags())
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "output in JSON format")
	return cmd
}

func serverOutput(s discovery.Server) ServerOutput {
	addr := ""
	if s.Addr != nil {
		addr = s.Addr.String()
	}
	return ServerOutput{
		ID:         strconv.FormatUint(s.ID, 10),
		Name:       discovery.StripFormatting(s.Data.ServerName),
		Level:      discovery.StripFormatting(s.Data.LevelName),
		Players:    s.Data.PlayerCount,
		MaxPlayers: s.Data.MaxPlayerCount,
		Address:    addr,
	}
}

func writeServers(w io.Writer, servers []ServerOutput) error {
	if len(servers) == 0 {
		_, err := fmt.Fprintln(w, "no LAN worlds found")
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "ID\tNAME\tLEVEL\tPLAYERS\tADDRESS")
	_, _ = fmt.Fprintln(tw, "--\t----\t-----\t-------\t-------")
	for _, s := range servers {
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%d/%d\t%s\n",
			s.ID, s.Name, s.Level, s.Players, s.MaxPlayers, s.Address)
	}
	return tw.Flush()
}

// resolveLANServer discovers LAN worlds and picks the single one whose
// name matches query.
func resolveLANServer(ctx context.Context, deps *Deps, logger *slog.Logger, query string, window time.Duration) (discovery.Server, error) {
	servers, err := deps.Discoverer(ctx, logger, window)
	if err != nil {
		return discovery.Server{}, err
	}
	selected, matches, ok := discovery.SelectByName(servers, query)
	if ok {
		logger.Info("LAN world selected",
			"server_name", discovery.StripFormatting(selected.Data.ServerName),
			"server_id", selected.ID,
		)
		return selected, nil
	}
	if len(matches) == 0 {
		return discovery.Server{}, oops.Code("DISCOVERY_NO_MATCH").
			With("server_name", query).
			With("discovered", len(servers)).
			Errorf("no LAN world matches %q", query)
	}
	names := make([]string, 0, len(matches))
	for _, m := range matches {
		names = append(names, discovery.StripFormatting(m.Data.ServerName))
	}
	return discovery.Server{}, oops.Code("DISCOVERY_AMBIGUOUS").
		With("server_name", query).
		With("matches", names).
		Errorf("%q matches %d LAN worlds: %s", query, len(matches), strings.Join(names, ", "))
}
