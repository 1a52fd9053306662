// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package authflow

import (
	"context"
	"time"

	"github.com/samber/oops"
	"golang.org/x/oauth2"
)

// Client ids of the titles a device-code login can impersonate.
const (
	TitleNintendoSwitch = "00000000441cc96b"
	TitleAndroid        = "0000000048183522"
	TitleIOS            = "000000004c17c01a"
)

// Microsoft Live endpoints and scope used by the live flow.
const (
	liveDeviceAuthURL = "https://login.live.com/oauth20_connect.srf"
	liveTokenURL      = "https://login.live.com/oauth20_token.srf"
	liveScope         = "service::user.auth.xboxlive.com::MBI_SSL"
)

// Challenge is what the user needs to complete a device-code login.
type Challenge struct {
	UserCode                string
	VerificationURI         string
	VerificationURIComplete string
	ExpiresAt               time.Time
	Interval                time.Duration

	response *oauth2.DeviceAuthResponse
}

// Provider performs the token exchange behind a Flow.
type Provider interface {
	// DeviceAuth starts a device-code login.
	DeviceAuth(ctx context.Context) (*Challenge, error)
	// Poll blocks until the user completes the challenge or ctx ends.
	Poll(ctx context.Context, challenge *Challenge) (*oauth2.Token, error)
	// Refresh exchanges a refresh token for a fresh access token.
	Refresh(ctx context.Context, token *oauth2.Token) (*oauth2.Token, error)
}

// LiveProvider implements Provider against Microsoft Live.
type LiveProvider struct {
	cfg *oauth2.Config
}

// NewLiveProvider returns a provider logging in as the given title id.
func NewLiveProvider(title string) *LiveProvider {
	return &LiveProvider{cfg: &oauth2.Config{
		ClientID: title,
		Scopes:   []string{liveScope},
		Endpoint: oauth2.Endpoint{
			DeviceAuthURL: liveDeviceAuthURL,
			TokenURL:      liveTokenURL,
			AuthStyle:     oauth2.AuthStyleInParams,
		},
	}}
}

// DeviceAuth requests a new device code.
func (p *LiveProvider) DeviceAuth(ctx context.Context) (*Challenge, error) {
	resp, err := p.cfg.DeviceAuth(ctx, oauth2.SetAuthURLParam("response_type", "device_code"))
	if err != nil {
		return nil, oops.Code("AUTH_DEVICE_CODE_FAILED").With("client_id", p.cfg.ClientID).Wrap(err)
	}
	return &Challenge{
		UserCode:                resp.UserCode,
		VerificationURI:         resp.VerificationURI,
		VerificationURIComplete: resp.VerificationURIComplete,
		ExpiresAt:               resp.Expiry,
		Interval:                time.Duration(resp.Interval) * time.Second,
		response:                resp,
	}, nil
}

// Poll waits for the user to approve the challenge.
func (p *LiveProvider) Poll(ctx context.Context, challenge *Challenge) (*oauth2.Token, error) {
	if challenge == nil || challenge.response == nil {
		return nil, oops.Code("AUTH_CHALLENGE_INVALID").Errorf("challenge was not issued by this provider")
	}
	tok, err := p.cfg.DeviceAccessToken(ctx, challenge.response)
	if err != nil {
		return nil, oops.Code("AUTH_DEVICE_POLL_FAILED").Wrap(err)
	}
	return tok, nil
}

// Refresh uses the token's refresh token to mint a new access token.
func (p *LiveProvider) Refresh(ctx context.Context, token *oauth2.Token) (*oauth2.Token, error) {
	if token == nil || token.RefreshToken == "" {
		return nil, oops.Code("AUTH_NO_REFRESH_TOKEN").Errorf("token has no refresh token")
	}
	expired := *token
	expired.Expiry = time.Unix(1, 0)
	tok, err := p.cfg.TokenSource(ctx, &expired).Token()
	if err != nil {
		return nil, oops.Code("AUTH_REFRESH_FAILED").Wrap(err)
	}
	return tok, nil
}
