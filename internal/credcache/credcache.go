// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package credcache stores authentication tokens encrypted at rest.
//
// Each account/kind pair maps to one file holding a versioned JSON
// envelope sealed with XChaCha20-Poly1305. A missing file is reported as
// ErrCacheMiss; a file that exists but cannot be opened is ErrCacheCorrupt.
// Callers must never treat the second as the first.
package credcache

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/samber/oops"
	"golang.org/x/crypto/chacha20poly1305"

	"github.com/holomush/bedrockbot/internal/keyring"
)

const envelopeVersion = 1

var (
	// ErrCacheMiss is returned when no entry exists for the account.
	ErrCacheMiss = errors.New("credential cache miss")

	// ErrCacheCorrupt is returned when an entry exists but cannot be decrypted.
	ErrCacheCorrupt = errors.New("credential cache corrupt")
)

// envelope is the on-disk JSON structure.
type envelope struct {
	V      int    `json:"v"`
	Nonce  []byte `json:"nonce"`
	Cipher []byte `json:"cipher"`
}

// Factory hands out per-account caches rooted at one directory and key.
type Factory struct {
	dir string
	key keyring.Key
}

// NewFactory binds a cache directory to a key.
func NewFactory(dir string, key keyring.Key) *Factory {
	return &Factory{dir: dir, key: key}
}

// Dir returns the directory entries are written to.
func (f *Factory) Dir() string {
	return f.dir
}

// Cache returns the cache for one account and token kind (e.g. "live").
func (f *Factory) Cache(account, kind string) *Cache {
	sum := sha256.Sum256([]byte(account))
	id := hex.EncodeToString(sum[:])[:12]
	return &Cache{
		path: filepath.Join(f.dir, id+"_"+kind+"-cache.json"),
		ad:   []byte(id + "|" + kind),
		key:  f.key,
		kind: kind,
	}
}

// Cache is a single encrypted entry.
type Cache struct {
	mu   sync.Mutex
	path string
	ad   []byte
	key  keyring.Key
	kind string
}

// Path returns the entry's file path.
func (c *Cache) Path() string {
	return c.path
}

// Load returns the decrypted entry.
func (c *Cache) Load() ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	data, err := os.ReadFile(c.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrCacheMiss
		}
		return nil, oops.Code("CREDCACHE_READ_FAILED").With("path", c.path).Wrap(err)
	}

	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, c.corrupt("envelope is not valid JSON", err)
	}
	if env.V != envelopeVersion {
		return nil, c.corrupt("unsupported envelope version", nil, "version", env.V)
	}

	aead, err := chacha20poly1305.NewX(c.key[:])
	if err != nil {
		return nil, oops.Code("CREDCACHE_CIPHER_FAILED").Wrap(err)
	}
	if len(env.Nonce) != aead.NonceSize() {
		return nil, c.corrupt("nonce has wrong size", nil, "nonce_bytes", len(env.Nonce))
	}
	plain, err := aead.Open(nil, env.Nonce, env.Cipher, c.ad)
	if err != nil {
		return nil, c.corrupt("decryption failed", err)
	}
	return plain, nil
}

// Store encrypts and writes the entry with owner-only permissions.
func (c *Cache) Store(plain []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	aead, err := chacha20poly1305.NewX(c.key[:])
	if err != nil {
		return oops.Code("CREDCACHE_CIPHER_FAILED").Wrap(err)
	}
	nonce := make([]byte, aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return oops.Code("CREDCACHE_NONCE_FAILED").Wrap(err)
	}
	blob, err := json.Marshal(envelope{
		V:      envelopeVersion,
		Nonce:  nonce,
		Cipher: aead.Seal(nil, nonce, plain, c.ad),
	})
	if err != nil {
		return oops.Code("CREDCACHE_ENCODE_FAILED").Wrap(err)
	}

	if err := os.MkdirAll(filepath.Dir(c.path), 0o700); err != nil {
		return oops.Code("CREDCACHE_MKDIR_FAILED").With("path", c.path).Wrap(err)
	}
	tmp := c.path + ".tmp"
	if err := os.WriteFile(tmp, blob, 0o600); err != nil {
		return oops.Code("CREDCACHE_WRITE_FAILED").With("path", c.path).Wrap(err)
	}
	if err := os.Rename(tmp, c.path); err != nil {
		_ = os.Remove(tmp)
		return oops.Code("CREDCACHE_WRITE_FAILED").With("path", c.path).Wrap(err)
	}
	return nil
}

// Clear removes the entry. Clearing a missing entry is not an error.
func (c *Cache) Clear() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := os.Remove(c.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return oops.Code("CREDCACHE_CLEAR_FAILED").With("path", c.path).Wrap(err)
	}
	return nil
}

func (c *Cache) corrupt(msg string, cause error, kv ...any) error {
	b := oops.Code("CREDCACHE_CORRUPT").
		With("path", c.path).
		With("kind", c.kind).
		With(kv...)
	if cause != nil {
		return b.Wrapf(errors.Join(ErrCacheCorrupt, cause), "%s", msg)
	}
	return b.Wrapf(ErrCacheCorrupt, "%s", msg)
}
