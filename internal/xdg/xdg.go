// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package xdg provides XDG Base Directory paths for bedrockbot.
package xdg

import (
	"os"
	"path/filepath"

	"github.com/samber/oops"
)

const appName = "bedrockbot"

// File names inside the application directories.
const (
	keyFileName    = "cache.key"
	configFileName = "config.yaml"
	authCacheName  = "auth"
)

// ConfigDir returns the XDG config directory for bedrockbot.
// Checks XDG_CONFIG_HOME first, falls back to ~/.config.
func ConfigDir() (string, error) {
	return resolve("XDG_CONFIG_HOME", ".config")
}

// DataDir returns the XDG data directory for bedrockbot.
// Checks XDG_DATA_HOME first, falls back to ~/.local/share.
func DataDir() (string, error) {
	return resolve("XDG_DATA_HOME", filepath.Join(".local", "share"))
}

// StateDir returns the XDG state directory for bedrockbot.
// Checks XDG_STATE_HOME first, falls back to ~/.local/state.
func StateDir() (string, error) {
	return resolve("XDG_STATE_HOME", filepath.Join(".local", "state"))
}

// KeyFilePath returns the path of the local credential-cache key.
func KeyFilePath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, keyFileName), nil
}

// ConfigFilePath returns the default configuration file path.
func ConfigFilePath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, configFileName), nil
}

// AuthCacheDir returns the directory holding encrypted auth tokens.
func AuthCacheDir() (string, error) {
	dir, err := DataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, authCacheName), nil
}

// EnsureDir creates a directory and all parent directories if they don't exist.
// Directories are created with 0700 permissions.
func EnsureDir(path string) error {
	if err := os.MkdirAll(path, 0o700); err != nil {
		return oops.Code("XDG_MKDIR_FAILED").With("path", path).Wrap(err)
	}
	return nil
}

func resolve(envVar, homeRelative string) (string, error) {
	base := os.Getenv(envVar)
	if base == "" {
		home := os.Getenv("HOME")
		if home == "" {
			return "", oops.Code("XDG_NO_HOME").
				With("env", envVar).
				Errorf("neither %s nor HOME is set", envVar)
		}
		base = filepath.Join(home, homeRelative)
	}
	return filepath.Join(base, appName), nil
}
