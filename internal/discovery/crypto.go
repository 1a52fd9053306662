// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package discovery

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/binary"
	"errors"
	"sync"
)

// ChecksumSize is the length of a discovery checksum.
const ChecksumSize = sha256.Size

// keySeed is the protocol-mandated application id the key is derived from.
const keySeed uint64 = 0xdeadbeef

// ErrBadPadding is returned when a decrypted buffer has invalid PKCS#7 padding
// or is not a whole number of blocks.
var ErrBadPadding = errors.New("discovery: bad padding")

// Key returns the discovery key: SHA-256 over the little-endian seed.
// Every implementation of the protocol derives the same value, so it
// authenticates packet integrity only. It is not a secret.
var Key = sync.OnceValue(func() [32]byte {
	var seed [8]byte
	binary.LittleEndian.PutUint64(seed[:], keySeed)
	return sha256.Sum256(seed[:])
})

// Crypto authenticates and encrypts discovery datagrams.
//
// Encryption is AES-256 in ECB mode with PKCS#7 padding, as the LAN
// discovery protocol requires. ECB leaks plaintext patterns; do not reuse
// it for anything that needs confidentiality.
type Crypto struct {
	key   [32]byte
	block cipher.Block
}

// NewCrypto returns a Crypto bound to key.
func NewCrypto(key [32]byte) *Crypto {
	block, err := aes.NewCipher(key[:])
	if err != nil {
		// A 32-byte key is always accepted by aes.NewCipher.
		panic(err)
	}
	return &Crypto{key: key, block: block}
}

var defaultCrypto = sync.OnceValue(func() *Crypto { return NewCrypto(Key()) })

// DefaultCrypto returns the process-wide Crypto over Key().
func DefaultCrypto() *Crypto {
	return defaultCrypto()
}

// Checksum returns HMAC-SHA256(key, payload).
func (c *Crypto) Checksum(payload []byte) [ChecksumSize]byte {
	mac := hmac.New(sha256.New, c.key[:])
	mac.Write(payload)
	var out [ChecksumSize]byte
	copy(out[:], mac.Sum(nil))
	return out
}

// IsValid reports whether checksum authenticates payload. Checksums of the
// wrong length are rejected before any HMAC is computed.
func (c *Crypto) IsValid(payload, checksum []byte) bool {
	if len(checksum) != ChecksumSize {
		return false
	}
	want := c.Checksum(payload)
	return hmac.Equal(want[:], checksum)
}

// Encrypt pads and encrypts the full buffer block by block.
func (c *Crypto) Encrypt(plain []byte) []byte {
	bs := c.block.BlockSize()
	pad := bs - len(plain)%bs
	buf := make([]byte, len(plain)+pad)
	copy(buf, plain)
	copy(buf[len(plain):], bytes.Repeat([]byte{byte(pad)}, pad))

	for off := 0; off < len(buf); off += bs {
		c.block.Encrypt(buf[off:off+bs], buf[off:off+bs])
	}
	return buf
}

// Decrypt reverses Encrypt.
func (c *Crypto) Decrypt(data []byte) ([]byte, error) {
	bs := c.block.BlockSize()
	if len(data) == 0 || len(data)%bs != 0 {
		return nil, ErrBadPadding
	}
	out := make([]byte, len(data))
	for off := 0; off < len(data); off += bs {
		c.block.Decrypt(out[off:off+bs], data[off:off+bs])
	}

	pad := int(out[len(out)-1])
	if pad == 0 || pad > bs {
		return nil, ErrBadPadding
	}
	for _, b := range out[len(out)-pad:] {
		if int(b) != pad {
			return nil, ErrBadPadding
		}
	}
	return out[:len(out)-pad], nil
}
