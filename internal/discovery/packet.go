// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package discovery

import (
	"bytes"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"math"
)

// PacketType identifies the body carried by a discovery packet.
type PacketType uint16

// Discovery packet types.
const (
	PacketRequest  PacketType = 0
	PacketResponse PacketType = 1
	PacketMessage  PacketType = 2
)

func (t PacketType) String() string {
	switch t {
	case PacketRequest:
		return "request"
	case PacketResponse:
		return "response"
	case PacketMessage:
		return "message"
	default:
		return fmt.Sprintf("unknown(%d)", uint16(t))
	}
}

// headerSize covers length, type, sender id and 8 bytes of padding.
const headerSize = 2 + 2 + 8 + 8

var (
	// ErrChecksum is returned for datagrams whose checksum does not verify.
	ErrChecksum = errors.New("discovery: checksum mismatch")

	// ErrMalformed is returned for datagrams that do not decode.
	ErrMalformed = errors.New("discovery: malformed packet")
)

// Packet is a decoded discovery packet. Exactly one of Response or Message
// is set for the matching types; requests carry no body.
type Packet struct {
	Type     PacketType
	SenderID uint64

	Response *ServerData
	Message  *Message
}

// Message carries NetherNet signaling between peers.
type Message struct {
	RecipientID uint64
	Data        string
}

// Marshal encodes, checksums and encrypts a packet into a datagram.
func (c *Crypto) Marshal(p Packet) ([]byte, error) {
	var body bytes.Buffer
	switch p.Type {
	case PacketRequest:
	case PacketResponse:
		if p.Response == nil {
			return nil, fmt.Errorf("%w: response packet without server data", ErrMalformed)
		}
		data, err := p.Response.MarshalBinary()
		if err != nil {
			return nil, err
		}
		encoded := hex.EncodeToString(data)
		_ = binary.Write(&body, binary.LittleEndian, uint32(len(encoded)))
		body.WriteString(encoded)
	case PacketMessage:
		if p.Message == nil {
			return nil, fmt.Errorf("%w: message packet without body", ErrMalformed)
		}
		_ = binary.Write(&body, binary.LittleEndian, p.Message.RecipientID)
		_ = binary.Write(&body, binary.LittleEndian, uint32(len(p.Message.Data)))
		body.WriteString(p.Message.Data)
	default:
		return nil, fmt.Errorf("%w: unknown packet type %d", ErrMalformed, p.Type)
	}

	total := headerSize + body.Len()
	if total > math.MaxUint16 {
		return nil, fmt.Errorf("%w: packet of %d bytes exceeds length field", ErrMalformed, total)
	}

	plain := make([]byte, headerSize, total)
	binary.LittleEndian.PutUint16(plain[0:2], uint16(total))
	binary.LittleEndian.PutUint16(plain[2:4], uint16(p.Type))
	binary.LittleEndian.PutUint64(plain[4:12], p.SenderID)
	plain = append(plain, body.Bytes()...)

	sum := c.Checksum(plain)
	return append(sum[:], c.Encrypt(plain)...), nil
}

// Unmarshal decrypts, verifies and decodes a datagram.
func (c *Crypto) Unmarshal(datagram []byte) (Packet, error) {
	if len(datagram) <= ChecksumSize {
		return Packet{}, fmt.Errorf("%w: datagram of %d bytes", ErrMalformed, len(datagram))
	}
	checksum, sealed := datagram[:ChecksumSize], datagram[ChecksumSize:]

	plain, err := c.Decrypt(sealed)
	if err != nil {
		return Packet{}, fmt.Errorf("%w: %w", ErrMalformed, err)
	}
	if !c.IsValid(plain, checksum) {
		return Packet{}, ErrChecksum
	}
	if len(plain) < headerSize {
		return Packet{}, fmt.Errorf("%w: short header", ErrMalformed)
	}
	if n := int(binary.LittleEndian.Uint16(plain[0:2])); n != len(plain) {
		return Packet{}, fmt.Errorf("%w: length field %d, packet %d", ErrMalformed, n, len(plain))
	}

	p := Packet{
		Type:     PacketType(binary.LittleEndian.Uint16(plain[2:4])),
		SenderID: binary.LittleEndian.Uint64(plain[4:12]),
	}
	body := bytes.NewReader(plain[headerSize:])

	switch p.Type {
	case PacketRequest:
	case PacketResponse:
		encoded, err := readString32(body)
		if err != nil {
			return Packet{}, err
		}
		raw, err := hex.DecodeString(encoded)
		if err != nil {
			return Packet{}, fmt.Errorf("%w: response data is not hex", ErrMalformed)
		}
		var data ServerData
		if err := data.UnmarshalBinary(raw); err != nil {
			return Packet{}, err
		}
		p.Response = &data
	case PacketMessage:
		var recipient uint64
		if err := binary.Read(body, binary.LittleEndian, &recipient); err != nil {
			return Packet{}, fmt.Errorf("%w: message recipient", ErrMalformed)
		}
		data, err := readString32(body)
		if err != nil {
			return Packet{}, err
		}
		p.Message = &Message{RecipientID: recipient, Data: data}
	default:
		return Packet{}, fmt.Errorf("%w: unknown packet type %d", ErrMalformed, p.Type)
	}
	return p, nil
}

func readString32(r *bytes.Reader) (string, error) {
	var n uint32
	if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
		return "", fmt.Errorf("%w: string length", ErrMalformed)
	}
	if int64(n) > int64(r.Len()) {
		return "", fmt.Errorf("%w: string of %d bytes overruns packet", ErrMalformed, n)
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", fmt.Errorf("%w: string body", ErrMalformed)
	}
	return string(buf), nil
}
