// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

//go:build integration

package discovery_test

import (
	"context"
	"net"
	"time"

	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention

	"github.com/holomush/bedrockbot/internal/discovery"
)

// host is a responder bound to loopback.
type host struct {
	conn   net.PacketConn
	cancel context.CancelFunc
	done   chan error
}

func startHost(id uint64, name string) *host {
	conn, err := net.ListenPacket("udp4", "127.0.0.1:0")
	Expect(err).NotTo(HaveOccurred())

	ctx, cancel := context.WithCancel(context.Background())
	h := &host{conn: conn, cancel: cancel, done: make(chan error, 1)}
	r := &discovery.Responder{
		Conn: conn,
		ID:   id,
		Data: discovery.ServerData{
			ServerName:     name,
			LevelName:      "Bedrock level",
			PlayerCount:    1,
			MaxPlayerCount: 8,
			TransportLayer: 2,
		},
	}
	go func() { h.done <- r.Serve(ctx) }()
	return h
}

func (h *host) stop() {
	h.cancel()
	Eventually(h.done).Should(Receive(BeNil()))
	_ = h.conn.Close()
}

// relay forwards every datagram it receives to each host, standing in for
// a broadcast domain on loopback.
func relay(ctx context.Context, conn net.PacketConn, hosts ...*host) {
	buf := make([]byte, 1<<16)
	for ctx.Err() == nil {
		_ = conn.SetReadDeadline(time.Now().Add(50 * time.Millisecond))
		n, from, err := conn.ReadFrom(buf)
		if err != nil {
			continue
		}
		for _, h := range hosts {
			go forward(append([]byte(nil), buf[:n]...), h.conn.LocalAddr(), from)
		}
	}
}

// forward sends datagram to dst from a fresh socket and returns any reply
// to the original sender through the relay's peer address.
func forward(datagram []byte, dst, replyTo net.Addr) {
	conn, err := net.ListenPacket("udp4", "127.0.0.1:0")
	if err != nil {
		return
	}
	defer conn.Close()
	if _, err := conn.WriteTo(datagram, dst); err != nil {
		return
	}
	_ = conn.SetReadDeadline(time.Now().Add(200 * time.Millisecond))
	buf := make([]byte, 1<<16)
	n, _, err := conn.ReadFrom(buf)
	if err != nil {
		return
	}
	_, _ = conn.WriteTo(buf[:n], replyTo)
}

var _ = Describe("LAN discovery", func() {
	var (
		alpha, beta *host
		client      net.PacketConn
		hub         net.PacketConn
		stopRelay   context.CancelFunc
	)

	BeforeEach(func() {
		alpha = startHost(101, "§bAlpha Realm")
		beta = startHost(202, "Beta Survival")

		var err error
		client, err = net.ListenPacket("udp4", "127.0.0.1:0")
		Expect(err).NotTo(HaveOccurred())
		hub, err = net.ListenPacket("udp4", "127.0.0.1:0")
		Expect(err).NotTo(HaveOccurred())

		var ctx context.Context
		ctx, stopRelay = context.WithCancel(context.Background())
		go relay(ctx, hub, alpha, beta)
	})

	AfterEach(func() {
		stopRelay()
		_ = hub.Close()
		_ = client.Close()
		alpha.stop()
		beta.stop()
	})

	It("collects every responding host", func() {
		b, err := discovery.NewBrowser(discovery.BrowserConfig{
			Conn:            client,
			Target:          hub.LocalAddr(),
			RequestInterval: 100 * time.Millisecond,
		})
		Expect(err).NotTo(HaveOccurred())

		servers, err := b.Discover(context.Background(), 600*time.Millisecond)
		Expect(err).NotTo(HaveOccurred())
		Expect(servers).To(HaveLen(2))
		Expect(servers[0].Data.ServerName).To(Equal("Beta Survival"))
		Expect(servers[1].ID).To(Equal(uint64(101)))
	})

	It("selects a host by its unformatted name", func() {
		b, err := discovery.NewBrowser(discovery.BrowserConfig{
			Conn:            client,
			Target:          hub.LocalAddr(),
			RequestInterval: 100 * time.Millisecond,
		})
		Expect(err).NotTo(HaveOccurred())

		servers, err := b.Discover(context.Background(), 600*time.Millisecond)
		Expect(err).NotTo(HaveOccurred())

		selected, _, ok := discovery.SelectByName(servers, "alpha realm")
		Expect(ok).To(BeTrue())
		Expect(selected.ID).To(Equal(uint64(101)))
	})
})
