// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/holomush/bedrockbot/internal/authflow"
	"github.com/holomush/bedrockbot/internal/config"
	"github.com/holomush/bedrockbot/internal/keyring"
)

func newAuthCmd(deps *Deps) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Manage cached account credentials",
	}
	cmd.AddCommand(newAuthLoginCmd(deps))
	cmd.AddCommand(newAuthLogoutCmd(deps))
	return cmd
}

func newAuthLoginCmd(deps *Deps) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in with a device code and cache the tokens",
		Long: `Sign in to the account named by --account. A cached token is reused
unless --force-refresh is given; otherwise a device code is printed to
stderr and the command waits until the code is redeemed.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := loadInvocation(cmd, deps)
			if err != nil {
				return err
			}
			flow, _, err := newFlow(cmd, rt, deps)
			if err != nil {
				return err
			}
			tok, err := flow.Token(cmd.Context())
			if err != nil {
				return err
			}
			rt.logger.Info("signed in", "expires_at", tok.Expiry)
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "signed in as %s\n", flow.Username())
			return nil
		},
	}
	config.BindAccount(cmd.Flags())
	return cmd
}

func newAuthLogoutCmd(deps *Deps) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "logout",
		Short: "Remove the cached tokens of an account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := loadInvocation(cmd, deps)
			if err != nil {
				return err
			}
			flow, _, err := newFlow(cmd, rt, deps)
			if err != nil {
				return err
			}
			if err := flow.Forget(); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "removed cached tokens for %s\n", flow.Username())
			return nil
		},
	}
	config.BindAccount(cmd.Flags())
	return cmd
}

// newFlow builds the account's auth flow from the XDG paths and reports
// where the cache key came from.
func newFlow(cmd *cobra.Command, rt invocation, deps *Deps) (*authflow.Flow, keyring.Source, error) {
	cacheDir, err := deps.AuthCacheDirGetter()
	if err != nil {
		return nil, "", err
	}
	keyPath, err := deps.KeyFilePathGetter()
	if err != nil {
		return nil, "", err
	}
	flow, src, err := authflow.Create(authflow.Params{
		AccountName:        rt.cfg.Account,
		CacheDir:           cacheDir,
		KeyFilePath:        keyPath,
		DeviceCodeCallback: printChallenge(cmd.ErrOrStderr()),
		EnvironmentKey:     deps.EnvironmentKeyGetter(),
		ForceRefresh:       rt.cfg.ForceRefresh,
		DeviceType:         rt.cfg.DeviceType,
		Provider:           deps.AuthProvider,
		Logger:             rt.logger,
	})
	if err != nil {
		return nil, "", err
	}
	rt.logger.Debug("credential cache key resolved", "source", string(src))
	return flow, src, nil
}

func printChallenge(w io.Writer) authflow.DeviceCodeCallback {
	return func(c authflow.Challenge) {
		_, _ = fmt.Fprintf(w, "To sign in, open %s and enter the code %s\n", c.VerificationURI, c.UserCode)
	}
}
