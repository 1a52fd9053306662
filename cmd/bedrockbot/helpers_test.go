// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package main

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"golang.org/x/oauth2"

	"github.com/holomush/bedrockbot/internal/authflow"
	"github.com/holomush/bedrockbot/internal/game"
	"github.com/holomush/bedrockbot/internal/session"
)

type stubProvider struct {
	mu     sync.Mutex
	logins int
}

func (p *stubProvider) DeviceAuth(context.Context) (*authflow.Challenge, error) {
	p.mu.Lock()
	p.logins++
	p.mu.Unlock()
	return &authflow.Challenge{
		UserCode:        "ABCD-1234",
		VerificationURI: "https://login.example.test/link",
		ExpiresAt:       time.Now().Add(time.Minute),
		Interval:        time.Millisecond,
	}, nil
}

func (p *stubProvider) Poll(context.Context, *authflow.Challenge) (*oauth2.Token, error) {
	return &oauth2.Token{
		AccessToken:  "access",
		TokenType:    "bearer",
		RefreshToken: "refresh",
		Expiry:       time.Now().Add(time.Hour),
	}, nil
}

func (p *stubProvider) Refresh(context.Context, *oauth2.Token) (*oauth2.Token, error) {
	return nil, errors.New("refresh unavailable")
}

func (p *stubProvider) loginCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.logins
}

// fakeFactory records every Create call and delegates to create.
type fakeFactory struct {
	mu     sync.Mutex
	opts   []session.Options
	create func(ctx context.Context, call int) (session.LiveClient, error)
}

func (f *fakeFactory) Create(ctx context.Context, opts session.Options) (session.LiveClient, error) {
	f.mu.Lock()
	f.opts = append(f.opts, opts)
	call := len(f.opts)
	f.mu.Unlock()
	return f.create(ctx, call)
}

func (f *fakeFactory) calls() []session.Options {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]session.Options(nil), f.opts...)
}

// disconnected returns a client whose session ends immediately.
func disconnected(reason string) session.LiveClient {
	p := session.NewPipe(4)
	p.Emit(game.Disconnected{Reason: reason})
	return p
}

type testEnv struct {
	dir      string
	deps     *Deps
	provider *stubProvider
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	dir := t.TempDir()
	provider := &stubProvider{}
	return &testEnv{
		dir:      dir,
		provider: provider,
		deps: &Deps{
			ConfigPathGetter:     func() (string, error) { return filepath.Join(dir, "config.yaml"), nil },
			KeyFilePathGetter:    func() (string, error) { return filepath.Join(dir, "cache.key"), nil },
			AuthCacheDirGetter:   func() (string, error) { return filepath.Join(dir, "auth"), nil },
			EnvironmentKeyGetter: func() string { return "" },
			AuthProvider:         provider,
			MemoryProbe:          func(context.Context) (uint64, error) { return 8 << 30, nil },
		},
	}
}

// execute runs the root command with args and returns stdout and stderr.
func (e *testEnv) execute(ctx context.Context, args ...string) (string, string, error) {
	cmd := newRootCmd(e.deps)
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(ctx)
	return stdout.String(), stderr.String(), err
}
