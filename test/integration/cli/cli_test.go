// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

//go:build integration

package cli_test

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"net"
	"os"
	"path/filepath"
	"time"

	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention

	"github.com/holomush/bedrockbot/internal/ping"
)

// servePong answers a single unconnected ping with status.
func servePong(conn net.PacketConn, status ping.Status) {
	buf := make([]byte, 1500)
	n, addr, err := conn.ReadFrom(buf)
	if err != nil || n < 9 {
		return
	}
	// The ping's timestamp is echoed back unchanged.
	ts := int64(binary.BigEndian.Uint64(buf[1:9])) //nolint:gosec // wire value
	_, _ = conn.WriteTo(ping.EncodePong(ts, 99, status), addr)
}

var _ = Describe("bedrockbot CLI", func() {
	var (
		ctx    context.Context
		cancel context.CancelFunc
	)

	BeforeEach(func() {
		ctx, cancel = context.WithTimeout(context.Background(), 30*time.Second)
	})

	AfterEach(func() {
		cancel()
	})

	Describe("ping", func() {
		It("reports the status advertised by the server", func() {
			conn, err := net.ListenPacket("udp4", "127.0.0.1:0")
			Expect(err).NotTo(HaveOccurred())
			defer func() { _ = conn.Close() }()

			go servePong(conn, ping.Status{
				MOTD:            "Integration Server",
				ProtocolVersion: 686,
				Version:         "1.21.2",
				PlayerCount:     2,
				MaxPlayers:      20,
				ServerGUID:      "99",
				LevelName:       "world",
				GameMode:        "Survival",
			})

			stdout, stderr, err := env.run(ctx, "ping", conn.LocalAddr().String(), "--json")
			Expect(err).NotTo(HaveOccurred(), "ping failed: %s", stderr)

			var status map[string]any
			Expect(json.Unmarshal([]byte(stdout), &status)).To(Succeed())
			Expect(status["motd"]).To(Equal("Integration Server"))
			Expect(status["players"]).To(BeNumerically("==", 2))
		})

		It("times out against a silent server", func() {
			conn, err := net.ListenPacket("udp4", "127.0.0.1:0")
			Expect(err).NotTo(HaveOccurred())
			defer func() { _ = conn.Close() }()

			_, stderr, err := env.run(ctx, "ping", conn.LocalAddr().String(), "--timeout", "200ms")
			Expect(err).To(HaveOccurred())
			Expect(stderr).To(ContainSubstring("timeout"))
		})
	})

	Describe("key", func() {
		It("generates the key file once and then reuses it", func() {
			output, stderr, err := env.run(ctx, "key")
			Expect(err).NotTo(HaveOccurred(), "key failed: %s", stderr)
			Expect(output).To(Or(ContainSubstring("source: generated"), ContainSubstring("source: file")))

			keyPath := filepath.Join(env.home, "config", "bedrockbot", "cache.key")
			info, err := os.Stat(keyPath)
			Expect(err).NotTo(HaveOccurred())
			Expect(info.Mode().Perm()).To(Equal(os.FileMode(0o600)))

			output, _, err = env.run(ctx, "key")
			Expect(err).NotTo(HaveOccurred())
			Expect(output).To(ContainSubstring("source: file"))
		})
	})

	Describe("config", func() {
		It("validates a file written against the generated schema", func() {
			schema, _, err := env.run(ctx, "config", "schema")
			Expect(err).NotTo(HaveOccurred())
			Expect(schema).To(ContainSubstring(`"reconnect-base"`))

			path := filepath.Join(env.home, "bot.yaml")
			Expect(os.WriteFile(path, []byte("host: play.example.test\nfollow: Steve\n"), 0o600)).To(Succeed())

			output, stderr, err := env.run(ctx, "config", "validate", path)
			Expect(err).NotTo(HaveOccurred(), "validate failed: %s", stderr)
			Expect(output).To(ContainSubstring("ok"))
		})
	})

	Describe("join", func() {
		It("refuses a direct join without a host", func() {
			_, stderr, err := env.run(ctx, "join", "--account", "alice")
			Expect(err).To(HaveOccurred())
			Expect(stderr).To(ContainSubstring("direct join needs --host"))
		})
	})
})
