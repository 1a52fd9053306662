// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package authflow

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"sync"

	"github.com/samber/oops"
	"golang.org/x/oauth2"

	"github.com/holomush/bedrockbot/internal/credcache"
	"github.com/holomush/bedrockbot/internal/keyring"
)

// FlowLive is the only flow kind currently supported.
const FlowLive = "live"

// DefaultDeviceType is the device type reported for device-code logins.
const DefaultDeviceType = "Nintendo"

// DeviceCodeCallback is told about each device-code challenge.
type DeviceCodeCallback func(Challenge)

// FlowOptions configures a Flow.
type FlowOptions struct {
	Flow         string
	Title        string
	DeviceType   string
	ForceRefresh bool

	// Provider performs token exchange. Nil selects NewLiveProvider(Title).
	Provider Provider
	Logger   *slog.Logger
}

// Flow acquires tokens for one account.
type Flow struct {
	username string
	cache    *credcache.Cache
	opts     FlowOptions
	onCode   DeviceCodeCallback
	provider Provider
	logger   *slog.Logger

	mu       sync.Mutex
	current  *oauth2.Token
	bypassed bool
}

// New constructs a Flow. The callback may be nil when the caller never
// expects an interactive login.
func New(username string, factory *credcache.Factory, opts FlowOptions, onCode DeviceCodeCallback) (*Flow, error) {
	if strings.TrimSpace(username) == "" {
		return nil, oops.Code("AUTH_ACCOUNT_REQUIRED").Errorf("account name cannot be empty")
	}
	if factory == nil {
		return nil, oops.Code("AUTH_CACHE_REQUIRED").Errorf("cache factory is required")
	}
	if opts.Flow == "" {
		opts.Flow = FlowLive
	}
	if opts.Flow != FlowLive {
		return nil, oops.Code("AUTH_FLOW_UNSUPPORTED").With("flow", opts.Flow).Errorf("unsupported flow %q", opts.Flow)
	}
	if opts.Title == "" {
		opts.Title = TitleNintendoSwitch
	}
	if opts.DeviceType == "" {
		opts.DeviceType = DefaultDeviceType
	}
	provider := opts.Provider
	if provider == nil {
		provider = NewLiveProvider(opts.Title)
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Flow{
		username: username,
		cache:    factory.Cache(username, opts.Flow),
		opts:     opts,
		onCode:   onCode,
		provider: provider,
		logger:   logger.With("account", username, "flow", opts.Flow),
	}, nil
}

// Username returns the account name the flow was built for.
func (f *Flow) Username() string {
	return f.username
}

// DeviceType returns the device type reported to the auth service.
func (f *Flow) DeviceType() string {
	return f.opts.DeviceType
}

// Token returns a valid access token, logging in interactively if needed.
func (f *Flow) Token(ctx context.Context) (*oauth2.Token, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.current.Valid() {
		return f.current, nil
	}

	// ForceRefresh only skips the cache for the first acquisition.
	skipCache := f.opts.ForceRefresh && !f.bypassed
	cached := f.current
	if cached == nil && !skipCache {
		tok, err := f.loadCached()
		switch {
		case err == nil:
			cached = tok
		case errors.Is(err, credcache.ErrCacheMiss):
			f.logger.Debug("no cached token")
		default:
			return nil, err
		}
	}
	f.bypassed = true

	if cached.Valid() {
		f.current = cached
		return cached, nil
	}

	if cached != nil && cached.RefreshToken != "" {
		tok, err := f.provider.Refresh(ctx, cached)
		if err == nil {
			return f.remember(tok)
		}
		f.logger.Info("token refresh failed, starting device-code login",
			"error", err,
		)
	}

	return f.deviceLogin(ctx)
}

// TokenSource adapts the flow for transports expecting oauth2.TokenSource.
func (f *Flow) TokenSource(ctx context.Context) oauth2.TokenSource {
	return &flowTokenSource{ctx: ctx, flow: f}
}

// Forget drops the in-memory token and the cached entry.
func (f *Flow) Forget() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.current = nil
	return f.cache.Clear()
}

func (f *Flow) deviceLogin(ctx context.Context) (*oauth2.Token, error) {
	challenge, err := f.provider.DeviceAuth(ctx)
	if err != nil {
		return nil, err
	}
	f.logger.Info("device-code login required",
		"verification_uri", challenge.VerificationURI,
		"expires_at", challenge.ExpiresAt,
	)
	if f.onCode != nil {
		f.onCode(*challenge)
	}

	tok, err := f.provider.Poll(ctx, challenge)
	if err != nil {
		return nil, err
	}
	return f.remember(tok)
}

func (f *Flow) remember(tok *oauth2.Token) (*oauth2.Token, error) {
	data, err := json.Marshal(tok)
	if err != nil {
		return nil, oops.Code("AUTH_TOKEN_ENCODE_FAILED").Wrap(err)
	}
	if err := f.cache.Store(data); err != nil {
		return nil, err
	}
	f.current = tok
	return tok, nil
}

func (f *Flow) loadCached() (*oauth2.Token, error) {
	data, err := f.cache.Load()
	if err != nil {
		return nil, err
	}
	var tok oauth2.Token
	if err := json.Unmarshal(data, &tok); err != nil {
		return nil, oops.Code("CREDCACHE_CORRUPT").
			With("path", f.cache.Path()).
			Wrapf(errors.Join(credcache.ErrCacheCorrupt, err), "cached token is not valid JSON")
	}
	return &tok, nil
}

type flowTokenSource struct {
	ctx  context.Context //nolint:containedctx // oauth2.TokenSource has no ctx parameter
	flow *Flow
}

func (s *flowTokenSource) Token() (*oauth2.Token, error) {
	return s.flow.Token(s.ctx)
}

// Params are the inputs of Create.
type Params struct {
	AccountName        string
	CacheDir           string
	KeyFilePath        string
	DeviceCodeCallback DeviceCodeCallback
	EnvironmentKey     string
	ForceRefresh       bool
	// DeviceType defaults to DefaultDeviceType.
	DeviceType string

	Provider Provider
	Logger   *slog.Logger
}

// Create resolves the cache key, builds the encrypted cache and returns a
// Flow for a device-code login. It also reports where the key came from.
func Create(p Params) (*Flow, keyring.Source, error) {
	if p.CacheDir == "" {
		return nil, "", oops.Code("AUTH_CACHE_DIR_REQUIRED").Errorf("cache directory is required")
	}
	key, src, err := keyring.Load(p.KeyFilePath, p.EnvironmentKey)
	if err != nil {
		return nil, "", err
	}
	factory := credcache.NewFactory(p.CacheDir, key)

	flow, err := New(p.AccountName, factory, FlowOptions{
		Flow:         FlowLive,
		Title:        TitleNintendoSwitch,
		DeviceType:   p.DeviceType,
		ForceRefresh: p.ForceRefresh,
		Provider:     p.Provider,
		Logger:       p.Logger,
	}, p.DeviceCodeCallback)
	if err != nil {
		return nil, "", err
	}
	return flow, src, nil
}
