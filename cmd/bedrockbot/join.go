// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package main

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/samber/oops"
	"github.com/sethvargo/go-retry"
	"github.com/spf13/cobra"

	"github.com/holomush/bedrockbot/internal/bot"
	"github.com/holomush/bedrockbot/internal/config"
	"github.com/holomush/bedrockbot/internal/observability"
	"github.com/holomush/bedrockbot/internal/reconnect"
	"github.com/holomush/bedrockbot/internal/session"
	"github.com/holomush/bedrockbot/internal/viewdist"
	"github.com/holomush/bedrockbot/pkg/errutil"
)

// stableUptime is how long a session must last before the reconnect
// backoff starts over.
const stableUptime = time.Minute

// fatalCodes are session errors that no retry can fix.
var fatalCodes = map[string]bool{
	"SESSION_DISCOVERY_REQUIRED":    true,
	"SESSION_TRANSPORT_INVALID":     true,
	"SESSION_TRANSPORT_UNAVAILABLE": true,
	"SESSION_VERSION_INVALID":       true,
}

func newJoinCmd(deps *Deps) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "join",
		Short: "Join a server and keep the bot in the world",
		Long: `Sign in, open a session over the configured transport and run the bot
until interrupted. Lost sessions are reopened with exponential backoff.

The direct transport needs --host. The nethernet transport needs either
--server-id or --server-name, which selects a LAN world by discovery.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := loadInvocation(cmd, deps)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runJoinWithDeps(ctx, cmd, rt, deps)
		},
	}
	config.BindJoin(cmd.Flags())
	return cmd
}

func runJoinWithDeps(ctx context.Context, cmd *cobra.Command, rt invocation, deps *Deps) error {
	cfg, logger := rt.cfg, rt.logger

	transport, err := session.ParseTransport(cfg.Transport)
	if err != nil {
		return err
	}
	opts := session.Options{
		Host:      cfg.Host,
		Port:      cfg.Port,
		Transport: transport,
		Version:   cfg.Version,
		SkipPing:  cfg.SkipPing,
		NetherNet: session.NetherNetOptions{ServerID: cfg.ServerID, PeerID: cfg.PeerID},
	}
	if err := resolveTarget(ctx, deps, logger, cfg, &opts); err != nil {
		return err
	}

	opts.ViewDistance = cfg.ViewDistance
	if opts.ViewDistance == 0 {
		opts.ViewDistance, err = viewdist.Recommended(ctx, deps.MemoryProbe, session.DefaultViewDistance)
		if err != nil {
			logger.Warn("memory probe failed, using default view distance",
				"error", err, "view_distance", opts.ViewDistance)
		} else {
			logger.Info("view distance chosen from system memory", "view_distance", opts.ViewDistance)
		}
	}

	flow, _, err := newFlow(cmd, rt, deps)
	if err != nil {
		return err
	}
	if _, err := flow.Token(ctx); err != nil {
		return err
	}
	opts.Username = flow.Username()
	opts.DeviceType = flow.DeviceType()
	opts.Auth = flow

	factory, err := deps.SessionFactoryBuilder(session.FactoryConfig{
		Pinger: deps.Pinger,
		Logger: logger,
	})
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	j := &joiner{
		factory: factory,
		opts:    opts,
		logger:  logger.With("transport", string(transport)),
	}
	stopObs, err := j.startObservability(ctx, cancel, cfg.MetricsAddr, deps)
	if err != nil {
		return err
	}
	defer stopObs()

	coords, err := cfg.FollowCoordinates()
	if err != nil {
		return err
	}
	botOpts := []bot.Option{bot.WithLogger(logger), bot.WithRecorder(j.metrics)}
	if deps.Navigator != nil {
		botOpts = append(botOpts, bot.WithNavigator(deps.Navigator))
	}
	j.bot = bot.New(bot.Config{
		FollowPlayer:      cfg.Follow,
		FollowCoordinates: coords,
		FollowThreshold:   cfg.FollowTimeout,
		PlayerList:        cfg.ProbeConfig(),
		HeartbeatInterval: cfg.HeartbeatInterval,
	}, botOpts...)

	err = j.run(ctx, cfg.ReconnectPolicy())
	if errors.Is(err, context.Canceled) && ctx.Err() != nil {
		logger.Info("shutting down")
		return nil
	}
	return err
}

// resolveTarget checks that opts name a reachable server, discovering the
// NetherNet host by name when no server id is set.
func resolveTarget(ctx context.Context, deps *Deps, logger *slog.Logger, cfg config.Config, opts *session.Options) error {
	switch opts.Transport {
	case session.TransportNetherNet:
		if opts.NetherNet.ServerID != 0 {
			return nil
		}
		if cfg.ServerName == "" {
			return oops.Code("JOIN_TARGET_REQUIRED").
				With("transport", string(opts.Transport)).
				Errorf("nethernet join needs --server-id or --server-name")
		}
		srv, err := resolveLANServer(ctx, deps, logger, cfg.ServerName, cfg.DiscoveryTimeout)
		if err != nil {
			return err
		}
		opts.NetherNet.ServerID = srv.ID
		if opts.Host == "" && srv.Addr != nil {
			if host, _, err := net.SplitHostPort(srv.Addr.String()); err == nil {
				opts.Host = host
			}
		}
		return nil
	default:
		if opts.Host == "" {
			return oops.Code("JOIN_TARGET_REQUIRED").
				With("transport", string(opts.Transport)).
				Errorf("direct join needs --host")
		}
		return nil
	}
}

// joiner reopens sessions until the policy gives up or ctx ends.
type joiner struct {
	factory SessionFactory
	opts    session.Options
	bot     *bot.Bot
	metrics *observability.Metrics
	logger  *slog.Logger
	live    atomic.Bool
}

// startObservability serves metrics and health checks when addr is set.
// Without an address metrics are still recorded on a private registry.
func (j *joiner) startObservability(ctx context.Context, cancel context.CancelFunc, addr string, deps *Deps) (func(), error) {
	if addr == "" {
		j.metrics = observability.NewMetrics(prometheus.NewRegistry())
		return func() {}, nil
	}
	srv := deps.ObservabilityServerFactory(addr, j.live.Load, j.logger)
	errCh, err := srv.Start()
	if err != nil {
		return nil, err
	}
	j.metrics = srv.Metrics()
	j.logger.Info("observability server started", "addr", srv.Addr())
	go monitorServerErrors(ctx, cancel, errCh, j.logger)

	return func() {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if err := srv.Stop(shutdownCtx); err != nil {
			j.logger.Warn("error stopping observability server", "error", err)
		}
	}, nil
}

func (j *joiner) run(ctx context.Context, policy reconnect.Policy) error {
	backoff := policy.Backoff()
	next := retry.BackoffFunc(func() (time.Duration, bool) {
		delay, stop := backoff.Next()
		if stop {
			j.logger.Error("giving up after reconnect attempts", "attempts", backoff.Attempt())
			return 0, true
		}
		j.metrics.Reconnect()
		j.logger.Info("reconnecting", "attempt", backoff.Attempt(), "delay", delay)
		return delay, false
	})
	return retry.Do(ctx, next, func(ctx context.Context) error {
		return j.session(ctx, backoff)
	})
}

// session opens and runs one session. Errors worth retrying are marked
// retryable.
func (j *joiner) session(ctx context.Context, backoff *reconnect.Backoff) error {
	transport := string(j.opts.Transport)
	client, err := j.factory.Create(ctx, j.opts)
	if err != nil {
		code := errutil.Code(err)
		j.metrics.SessionFailed(transport, code)
		if fatalCodes[code] || ctx.Err() != nil {
			return err
		}
		errutil.LogError(j.logger, "session failed", err)
		return retry.RetryableError(err)
	}

	j.metrics.SessionStarted(transport)
	j.live.Store(true)
	res, err := j.bot.Run(ctx, client)
	j.live.Store(false)
	j.metrics.SessionEnded()
	if err != nil {
		return err
	}

	j.logger.Info("session ended",
		"run_id", res.RunID.String(),
		"reason", res.Reason,
		"uptime", res.Uptime,
	)
	if res.Uptime >= stableUptime {
		backoff.Reset()
	}
	return retry.RetryableError(oops.Code("JOIN_DISCONNECTED").
		With("reason", res.Reason).
		Errorf("disconnected: %s", res.Reason))
}

// monitorServerErrors cancels ctx when the server reports an error.
func monitorServerErrors(ctx context.Context, cancel context.CancelFunc, errCh <-chan error, logger *slog.Logger) {
	select {
	case err, ok := <-errCh:
		if !ok {
			return
		}
		if err != nil {
			logger.Error("observability server error, triggering shutdown", "error", err)
			cancel()
		}
	case <-ctx.Done():
	}
}
