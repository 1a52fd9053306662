// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package session

import (
	"context"
	"fmt"

	"github.com/Masterminds/semver/v3"
	"github.com/samber/oops"
	"golang.org/x/oauth2"
)

// Transport selects how a session reaches the server.
type Transport string

// Supported transports.
const (
	TransportDirect    Transport = "direct"
	TransportNetherNet Transport = "nethernet"
)

// DefaultViewDistance is used when Options.ViewDistance is unset.
const DefaultViewDistance = 10

// ParseTransport parses a transport name.
func ParseTransport(s string) (Transport, error) {
	switch t := Transport(s); t {
	case TransportDirect, TransportNetherNet:
		return t, nil
	default:
		return "", oops.Code("SESSION_TRANSPORT_INVALID").
			With("transport", s).
			Errorf("unknown transport %q", s)
	}
}

// Authenticator is the credential handle passed to transports. It is
// satisfied by *authflow.Flow.
type Authenticator interface {
	Username() string
	DeviceType() string
	TokenSource(ctx context.Context) oauth2.TokenSource
}

// NetherNetOptions identify the peers of a NetherNet session.
type NetherNetOptions struct {
	// ServerID is the host id learned from discovery. Required.
	ServerID uint64
	// PeerID is this client's id. Zero generates a random id.
	PeerID uint64
}

// Options describe a session to open. They are the superset of everything
// the join command knows; transports receive ClientOptions.
type Options struct {
	Host      string
	Port      int
	Username  string
	Auth      Authenticator
	Transport Transport

	// Version overrides the protocol version. Empty means no override.
	Version      string
	ViewDistance int
	DeviceType   string
	SkipPing     bool

	NetherNet NetherNetOptions
}

// Address returns host:port.
func (o Options) Address() string {
	return fmt.Sprintf("%s:%d", o.Host, o.Port)
}

// ClientOptions is the minimal shape transports are constructed with.
type ClientOptions struct {
	Host         string        `json:"host"`
	Port         int           `json:"port"`
	Username     string        `json:"username"`
	Auth         Authenticator `json:"-"`
	DeviceType   string        `json:"deviceType,omitempty"`
	ViewDistance int           `json:"viewDistance"`
	Version      *string       `json:"version,omitempty"`
	SkipPing     bool          `json:"skipPing"`
}

// Translate maps Options to ClientOptions. The only default it applies is
// the view distance; Version stays nil without an override.
func Translate(o Options) ClientOptions {
	c := ClientOptions{
		Host:         o.Host,
		Port:         o.Port,
		Username:     o.Username,
		Auth:         o.Auth,
		DeviceType:   o.DeviceType,
		ViewDistance: o.ViewDistance,
		SkipPing:     o.SkipPing,
	}
	if c.ViewDistance <= 0 {
		c.ViewDistance = DefaultViewDistance
	}
	if o.Version != "" {
		v := o.Version
		c.Version = &v
	}
	return c
}

// ValidateVersion checks that a version override is a semantic version.
func ValidateVersion(v string) error {
	if v == "" {
		return nil
	}
	if _, err := semver.NewVersion(v); err != nil {
		return oops.Code("SESSION_VERSION_INVALID").With("version", v).Wrap(err)
	}
	return nil
}
