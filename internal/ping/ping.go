// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package ping queries a Bedrock server's status with a RakNet unconnected
// ping.
package ping

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/samber/oops"
)

// DefaultPort is the default Bedrock server port.
const DefaultPort = 19132

const (
	idUnconnectedPing = 0x01
	idUnconnectedPong = 0x1c
	maxPong           = 1500
)

// magic marks offline RakNet messages.
var magic = []byte{
	0x00, 0xff, 0xff, 0x00, 0xfe, 0xfe, 0xfe, 0xfe,
	0xfd, 0xfd, 0xfd, 0xfd, 0x12, 0x34, 0x56, 0x78,
}

// ErrInvalidPong is returned when a reply cannot be decoded.
var ErrInvalidPong = errors.New("ping: invalid pong")

// Status is the server status advertised in a pong.
type Status struct {
	Edition         string
	MOTD            string
	ProtocolVersion int
	Version         string
	PlayerCount     int
	MaxPlayers      int
	ServerGUID      string
	LevelName       string
	GameMode        string
	PortV4          int
	PortV6          int

	// Latency is the round trip of the ping that produced this status.
	Latency time.Duration
}

// Pinger sends unconnected pings.
type Pinger struct {
	// ClientGUID identifies this client in pings.
	ClientGUID int64
	// Dial opens the UDP socket. Defaults to net.Dialer.DialContext.
	Dial func(ctx context.Context, network, address string) (net.Conn, error)
}

// Ping sends a single unconnected ping to address and waits for the pong
// until ctx ends. A ctx without deadline waits at most five seconds.
func (p *Pinger) Ping(ctx context.Context, address string) (Status, error) {
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
	}

	dial := p.Dial
	if dial == nil {
		var d net.Dialer
		dial = d.DialContext
	}
	conn, err := dial(ctx, "udp", address)
	if err != nil {
		return Status{}, oops.Code("PING_DIAL_FAILED").With("address", address).Wrap(err)
	}
	defer func() { _ = conn.Close() }()

	deadline, _ := ctx.Deadline()
	_ = conn.SetDeadline(deadline)

	sent := time.Now()
	if _, err := conn.Write(EncodePing(sent.UnixMilli(), p.ClientGUID)); err != nil {
		return Status{}, oops.Code("PING_WRITE_FAILED").With("address", address).Wrap(err)
	}

	buf := make([]byte, maxPong)
	for {
		n, err := conn.Read(buf)
		if err != nil {
			return Status{}, oops.Code("PING_TIMEOUT").With("address", address).Wrap(err)
		}
		status, err := DecodePong(buf[:n])
		if err != nil {
			// Ignore stray datagrams; other RakNet traffic can share the port.
			continue
		}
		status.Latency = time.Since(sent)
		return status, nil
	}
}

// EncodePing builds an unconnected ping datagram.
func EncodePing(timestamp, clientGUID int64) []byte {
	buf := make([]byte, 0, 1+8+len(magic)+8)
	buf = append(buf, idUnconnectedPing)
	buf = binary.BigEndian.AppendUint64(buf, uint64(timestamp))
	buf = append(buf, magic...)
	buf = binary.BigEndian.AppendUint64(buf, uint64(clientGUID))
	return buf
}

// EncodePong builds an unconnected pong advertising s. It is the inverse of
// DecodePong and is used by test servers.
func EncodePong(timestamp, serverGUID int64, s Status) []byte {
	motd := s.String()
	buf := make([]byte, 0, 1+8+8+len(magic)+2+len(motd))
	buf = append(buf, idUnconnectedPong)
	buf = binary.BigEndian.AppendUint64(buf, uint64(timestamp))
	buf = binary.BigEndian.AppendUint64(buf, uint64(serverGUID))
	buf = append(buf, magic...)
	buf = binary.BigEndian.AppendUint16(buf, uint16(len(motd)))
	buf = append(buf, motd...)
	return buf
}

// DecodePong parses an unconnected pong datagram.
func DecodePong(b []byte) (Status, error) {
	const fixed = 1 + 8 + 8 + 16 + 2
	if len(b) < fixed || b[0] != idUnconnectedPong {
		return Status{}, fmt.Errorf("%w: not a pong", ErrInvalidPong)
	}
	if !bytes.Equal(b[17:33], magic) {
		return Status{}, fmt.Errorf("%w: bad magic", ErrInvalidPong)
	}
	n := int(binary.BigEndian.Uint16(b[33:35]))
	if len(b) < fixed+n {
		return Status{}, fmt.Errorf("%w: truncated status", ErrInvalidPong)
	}
	return ParseStatus(string(b[fixed : fixed+n]))
}

// ParseStatus parses the semicolon-separated status string. Trailing fields
// are optional since older servers omit them.
func ParseStatus(raw string) (Status, error) {
	f := strings.Split(raw, ";")
	if len(f) < 6 {
		return Status{}, fmt.Errorf("%w: %d status fields", ErrInvalidPong, len(f))
	}
	field := func(i int) string {
		if i < len(f) {
			return f[i]
		}
		return ""
	}
	num := func(i int) int {
		v, _ := strconv.Atoi(field(i))
		return v
	}

	s := Status{
		Edition:     f[0],
		MOTD:        f[1],
		Version:     f[3],
		ServerGUID:  field(6),
		LevelName:   field(7),
		GameMode:    field(8),
		PortV4:      num(10),
		PortV6:      num(11),
		PlayerCount: num(4),
		MaxPlayers:  num(5),
	}
	var err error
	if s.ProtocolVersion, err = strconv.Atoi(f[2]); err != nil {
		return Status{}, fmt.Errorf("%w: protocol %q", ErrInvalidPong, f[2])
	}
	return s, nil
}

// String renders the status in its wire form.
func (s Status) String() string {
	edition := s.Edition
	if edition == "" {
		edition = "MCPE"
	}
	return strings.Join([]string{
		edition,
		s.MOTD,
		strconv.Itoa(s.ProtocolVersion),
		s.Version,
		strconv.Itoa(s.PlayerCount),
		strconv.Itoa(s.MaxPlayers),
		s.ServerGUID,
		s.LevelName,
		s.GameMode,
		gameModeNumber(s.GameMode),
		strconv.Itoa(s.PortV4),
		strconv.Itoa(s.PortV6),
	}, ";") + ";"
}

func gameModeNumber(mode string) string {
	switch strings.ToLower(mode) {
	case "creative":
		return "1"
	case "adventure":
		return "2"
	default:
		return "0"
	}
}

// HostPort joins host with a port, defaulting to DefaultPort. The address
// may already carry a port.
func HostPort(address string, port int) string {
	if _, _, err := net.SplitHostPort(address); err == nil {
		return address
	}
	if port <= 0 {
		port = DefaultPort
	}
	return net.JoinHostPort(address, strconv.Itoa(port))
}
