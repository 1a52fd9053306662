// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package discovery

import (
	"bytes"
	"crypto/rand"
	"crypto/sha256"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKey(t *testing.T) {
	var seed [8]byte
	binary.LittleEndian.PutUint64(seed[:], 0xdeadbeef)
	assert.Equal(t, sha256.Sum256(seed[:]), Key())
	assert.Equal(t, Key(), Key(), "key must be deterministic")
}

func TestCrypto_RoundTrip(t *testing.T) {
	c := DefaultCrypto()
	for _, n := range []int{0, 1, 15, 16, 17, 100} {
		plain := bytes.Repeat([]byte{0xa5}, n)
		sealed := c.Encrypt(plain)

		assert.Zero(t, len(sealed)%16, "length %d", n)
		assert.Greater(t, len(sealed), n, "padding is always added")

		got, err := c.Decrypt(sealed)
		require.NoError(t, err, "length %d", n)
		assert.Equal(t, plain, got, "length %d", n)
	}
}

func TestCrypto_RoundTripRandom(t *testing.T) {
	c := DefaultCrypto()
	for n := 0; n <= 130; n++ {
		plain := make([]byte, n)
		_, err := rand.Read(plain)
		require.NoError(t, err)

		got, err := c.Decrypt(c.Encrypt(plain))
		require.NoError(t, err, "length %d", n)
		assert.True(t, bytes.Equal(plain, got), "length %d", n)
	}
}

func TestCrypto_DecryptRejectsBadInput(t *testing.T) {
	c := DefaultCrypto()

	_, err := c.Decrypt(nil)
	assert.ErrorIs(t, err, ErrBadPadding)

	_, err = c.Decrypt(make([]byte, 15))
	assert.ErrorIs(t, err, ErrBadPadding)

	// A zero block has a zero pad byte.
	sealed := make([]byte, 16)
	c.block.Encrypt(sealed, make([]byte, 16))
	_, err = c.Decrypt(sealed)
	assert.ErrorIs(t, err, ErrBadPadding)
}

func TestCrypto_Checksum(t *testing.T) {
	c := DefaultCrypto()
	payload := []byte("payload")

	sum := c.Checksum(payload)
	assert.Len(t, sum, ChecksumSize)
	assert.True(t, c.IsValid(payload, sum[:]))
	assert.False(t, c.IsValid([]byte("other"), sum[:]))
}

func TestCrypto_IsValidRejectsWrongLength(t *testing.T) {
	c := DefaultCrypto()
	payload := []byte("payload")
	sum := c.Checksum(payload)

	assert.False(t, c.IsValid(payload, sum[:31]))
	assert.False(t, c.IsValid(payload, append(sum[:], 0)))
	assert.False(t, c.IsValid(payload, nil))
}

func TestCrypto_DifferentKeys(t *testing.T) {
	other := NewCrypto([32]byte{1})
	sum := DefaultCrypto().Checksum([]byte("x"))
	assert.False(t, other.IsValid([]byte("x"), sum[:]))
}
