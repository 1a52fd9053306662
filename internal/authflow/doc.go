// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package authflow builds the authentication-flow handle used to join servers.
//
// # Builder
//
// Create resolves the cache key through keyring, binds it to an encrypted
// credcache.Factory and returns a Flow. It keeps no state of its own, so
// calling it twice with the same Params yields equivalent flows.
//
// # Flow
//
// Flow.Token serves cached tokens when possible and falls back to an
// interactive device-code login otherwise. The caller's DeviceCodeCallback
// is invoked exactly once per challenge. A corrupt cache entry is returned
// as an error instead of triggering a new login.
//
// The token exchange itself lives behind the Provider interface; the
// default LiveProvider talks to the Microsoft Live device-code endpoints.
package authflow
