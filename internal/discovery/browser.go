// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package discovery

import (
	"context"
	"crypto/rand"
	"encoding/binary"
	"errors"
	"log/slog"
	"net"
	"sort"
	"time"

	"github.com/samber/oops"
)

// Port is the UDP port NetherNet hosts listen on for discovery.
const Port = 7551

// Defaults for Browser.
const (
	DefaultRequestInterval = time.Second
	DefaultWindow          = 3 * time.Second
	maxDatagram            = 1 << 16
)

// Server is a host seen during discovery.
type Server struct {
	ID       uint64
	Addr     net.Addr
	Data     ServerData
	LastSeen time.Time
}

// DropFunc is told why a datagram was discarded.
type DropFunc func(reason string)

// BrowserConfig configures a Browser.
type BrowserConfig struct {
	// Conn is the socket to use. It must allow broadcast for Target to be
	// a broadcast address.
	Conn net.PacketConn
	// Target receives discovery requests. Defaults to 255.255.255.255:7551.
	Target net.Addr
	// SenderID identifies this client. Zero picks a random id.
	SenderID uint64
	// RequestInterval between broadcast requests.
	RequestInterval time.Duration

	Crypto *Crypto
	Logger *slog.Logger
	OnDrop DropFunc
}

// Browser broadcasts discovery requests and collects responses.
type Browser struct {
	cfg BrowserConfig
}

// NewBrowser validates cfg and fills defaults.
func NewBrowser(cfg BrowserConfig) (*Browser, error) {
	if cfg.Conn == nil {
		return nil, oops.Code("DISCOVERY_CONN_REQUIRED").Errorf("packet conn is required")
	}
	if cfg.Target == nil {
		cfg.Target = &net.UDPAddr{IP: net.IPv4bcast, Port: Port}
	}
	if cfg.SenderID == 0 {
		id, err := RandomID()
		if err != nil {
			return nil, err
		}
		cfg.SenderID = id
	}
	if cfg.RequestInterval <= 0 {
		cfg.RequestInterval = DefaultRequestInterval
	}
	if cfg.Crypto == nil {
		cfg.Crypto = DefaultCrypto()
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.OnDrop == nil {
		cfg.OnDrop = func(string) {}
	}
	return &Browser{cfg: cfg}, nil
}

// SenderID returns the id this browser announces itself with.
func (b *Browser) SenderID() uint64 {
	return b.cfg.SenderID
}

// Discover sends requests every RequestInterval and collects responses
// until window elapses or ctx ends. Servers are returned sorted by name.
func (b *Browser) Discover(ctx context.Context, window time.Duration) ([]Server, error) {
	if window <= 0 {
		window = DefaultWindow
	}
	ctx, cancel := context.WithTimeout(ctx, window)
	defer cancel()

	request, err := b.cfg.Crypto.Marshal(Packet{Type: PacketRequest, SenderID: b.cfg.SenderID})
	if err != nil {
		return nil, oops.Code("DISCOVERY_ENCODE_FAILED").Wrap(err)
	}

	go b.broadcast(ctx, request)

	found := make(map[uint64]Server)
	buf := make([]byte, maxDatagram)
	for {
		deadline, _ := ctx.Deadline()
		if err := b.cfg.Conn.SetReadDeadline(deadline); err != nil {
			return nil, oops.Code("DISCOVERY_READ_FAILED").Wrap(err)
		}
		n, addr, err := b.cfg.Conn.ReadFrom(buf)
		if err != nil {
			var netErr net.Error
			if ctx.Err() != nil || (errors.As(err, &netErr) && netErr.Timeout()) {
				break
			}
			return nil, oops.Code("DISCOVERY_READ_FAILED").Wrap(err)
		}

		srv, ok := b.handle(buf[:n], addr)
		if ok {
			found[srv.ID] = srv
		}
	}

	servers := make([]Server, 0, len(found))
	for _, s := range found {
		servers = append(servers, s)
	}
	sort.Slice(servers, func(i, j int) bool {
		if servers[i].Data.ServerName != servers[j].Data.ServerName {
			return servers[i].Data.ServerName < servers[j].Data.ServerName
		}
		return servers[i].ID < servers[j].ID
	})
	return servers, nil
}

func (b *Browser) broadcast(ctx context.Context, request []byte) {
	ticker := time.NewTicker(b.cfg.RequestInterval)
	defer ticker.Stop()
	for {
		if _, err := b.cfg.Conn.WriteTo(request, b.cfg.Target); err != nil && ctx.Err() == nil {
			b.cfg.Logger.Debug("discovery request failed", "target", b.cfg.Target.String(), "error", err)
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// handle decodes one datagram. Anything other than a valid response from
// another peer is dropped.
func (b *Browser) handle(datagram []byte, addr net.Addr) (Server, bool) {
	p, err := b.cfg.Crypto.Unmarshal(datagram)
	if err != nil {
		reason := "malformed"
		if errors.Is(err, ErrChecksum) {
			reason = "checksum"
		}
		b.cfg.OnDrop(reason)
		b.cfg.Logger.Debug("dropped discovery datagram",
			"from", addr.String(),
			"reason", reason,
			"error", err,
		)
		return Server{}, false
	}
	if p.SenderID == b.cfg.SenderID || p.Type != PacketResponse {
		return Server{}, false
	}
	return Server{
		ID:       p.SenderID,
		Addr:     addr,
		Data:     *p.Response,
		LastSeen: time.Now(),
	}, true
}

// Responder answers discovery requests on behalf of a host. It is used by
// tests and by tooling that advertises a fake world.
type Responder struct {
	Conn   net.PacketConn
	ID     uint64
	Data   ServerData
	Crypto *Crypto
}

// Serve answers requests until ctx ends.
func (r *Responder) Serve(ctx context.Context) error {
	c := r.Crypto
	if c == nil {
		c = DefaultCrypto()
	}
	response, err := c.Marshal(Packet{Type: PacketResponse, SenderID: r.ID, Response: &r.Data})
	if err != nil {
		return oops.Code("DISCOVERY_ENCODE_FAILED").Wrap(err)
	}

	stop := context.AfterFunc(ctx, func() {
		_ = r.Conn.SetReadDeadline(time.Now())
	})
	defer stop()

	buf := make([]byte, maxDatagram)
	for {
		n, addr, err := r.Conn.ReadFrom(buf)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return oops.Code("DISCOVERY_READ_FAILED").Wrap(err)
		}
		p, err := c.Unmarshal(buf[:n])
		if err != nil || p.Type != PacketRequest {
			continue
		}
		if _, err := r.Conn.WriteTo(response, addr); err != nil && ctx.Err() == nil {
			return oops.Code("DISCOVERY_WRITE_FAILED").Wrap(err)
		}
	}
}

// RandomID returns a random non-zero 64-bit peer id.
func RandomID() (uint64, error) {
	var b [8]byte
	for {
		if _, err := rand.Read(b[:]); err != nil {
			return 0, oops.Code("DISCOVERY_ID_FAILED").Wrap(err)
		}
		if id := binary.LittleEndian.Uint64(b[:]); id != 0 {
			return id, nil
		}
	}
}
