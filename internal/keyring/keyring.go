// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package keyring resolves the symmetric key protecting the local
// credential cache.
//
// Resolution order is fixed: a non-empty environment override, then an
// existing key file, then a freshly generated random key that is written
// to the key file. Whatever the source, the key is normalized to exactly
// KeySize bytes before use.
package keyring

import (
	"bytes"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/samber/oops"
	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/hkdf"
)

// EnvVar names the environment variable that overrides the key file.
const EnvVar = "BEDROCKBOT_CACHE_KEY"

// KeySize is the AEAD key length every resolved key is normalized to.
const KeySize = chacha20poly1305.KeySize

// GeneratedKeyBytes is the length of a freshly generated key.
const GeneratedKeyBytes = 32

var (
	hkdfSalt = []byte("bedrockbot-keyring")
	hkdfInfo = []byte("credential-cache-key v1")
)

// Key is a normalized credential-cache key.
type Key [KeySize]byte

// Source records where a key came from.
type Source string

// Key sources.
const (
	SourceEnvironment Source = "environment"
	SourceFile        Source = "file"
	SourceGenerated   Source = "generated"
)

// Normalize maps arbitrary-length key material onto exactly KeySize bytes.
// Material that already has the right length is used verbatim; anything
// else goes through HKDF-SHA256 with a fixed salt and label.
func Normalize(raw []byte) Key {
	var k Key
	if len(raw) == KeySize {
		copy(k[:], raw)
		return k
	}
	r := hkdf.New(sha256.New, raw, hkdfSalt, hkdfInfo)
	// hkdf can produce up to 255*32 bytes; KeySize never exceeds that.
	if _, err := io.ReadFull(r, k[:]); err != nil {
		panic(err)
	}
	return k
}

// Load resolves the key. environmentOverride is normally os.Getenv(EnvVar).
// Only the generation path touches the filesystem for writing.
func Load(keyFilePath, environmentOverride string) (Key, Source, error) {
	if override := strings.TrimSpace(environmentOverride); override != "" {
		return Normalize([]byte(override)), SourceEnvironment, nil
	}

	raw, err := readKeyFile(keyFilePath)
	switch {
	case err == nil:
		return Normalize(raw), SourceFile, nil
	case !errors.Is(err, fs.ErrNotExist):
		return Key{}, "", err
	}

	raw, src, err := generate(keyFilePath)
	if err != nil {
		return Key{}, "", err
	}
	return Normalize(raw), src, nil
}

// LoadFromEnv is Load with the override taken from EnvVar.
func LoadFromEnv(keyFilePath string) (Key, Source, error) {
	return Load(keyFilePath, os.Getenv(EnvVar))
}

func readKeyFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path comes from xdg or the operator
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
		return nil, oops.Code("KEYRING_READ_FAILED").With("path", path).Wrap(err)
	}
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, oops.Code("KEYRING_EMPTY_KEY_FILE").
			With("path", path).
			Errorf("key file is empty")
	}
	// Generated files hold hex; hand-written files may hold anything.
	if decoded, err := hex.DecodeString(string(data)); err == nil && len(decoded) == GeneratedKeyBytes {
		return decoded, nil
	}
	return data, nil
}

// generate writes a new random key, hex encoded. The key is written to
// a temporary file in the target directory and published with a hard
// link, so the key file never exists in a partially written state. If a
// concurrent first run published its key in the meantime, that file wins
// and is read back instead.
func generate(path string) ([]byte, Source, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, "", oops.Code("KEYRING_MKDIR_FAILED").With("path", path).Wrap(err)
	}

	key := make([]byte, GeneratedKeyBytes)
	if _, err := rand.Read(key); err != nil {
		return nil, "", oops.Code("KEYRING_GENERATE_FAILED").
			With("requested_bytes", GeneratedKeyBytes).
			Wrap(err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return nil, "", oops.Code("KEYRING_WRITE_FAILED").With("path", path).Wrap(err)
	}
	tmpPath := tmp.Name()
	defer func() { _ = os.Remove(tmpPath) }()

	if err := tmp.Chmod(0o600); err != nil {
		_ = tmp.Close()
		return nil, "", oops.Code("KEYRING_WRITE_FAILED").With("path", path).Wrap(err)
	}
	if _, err := tmp.WriteString(hex.EncodeToString(key) + "\n"); err != nil {
		_ = tmp.Close()
		return nil, "", oops.Code("KEYRING_WRITE_FAILED").With("path", path).Wrap(err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return nil, "", oops.Code("KEYRING_WRITE_FAILED").With("path", path).Wrap(err)
	}
	if err := tmp.Close(); err != nil {
		return nil, "", oops.Code("KEYRING_WRITE_FAILED").With("path", path).Wrap(err)
	}

	// Link fails with ErrExist instead of replacing, unlike Rename.
	if err := os.Link(tmpPath, path); err != nil {
		if errors.Is(err, fs.ErrExist) {
			raw, readErr := readKeyFile(path)
			if readErr != nil {
				return nil, "", readErr
			}
			return raw, SourceFile, nil
		}
		return nil, "", oops.Code("KEYRING_WRITE_FAILED").With("path", path).Wrap(err)
	}
	return key, SourceGenerated, nil
}
