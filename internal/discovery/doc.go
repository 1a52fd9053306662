// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package discovery implements NetherNet LAN discovery.
//
// A discovery datagram is a 32-byte HMAC-SHA256 checksum of the plaintext
// followed by the AES-ECB encrypted plaintext. The plaintext starts with a
// 20-byte header (length, packet type, sender id, padding) and carries a
// request, a response holding the host's ServerData, or a signaling message.
//
// Packet-level failures are never fatal: Browser drops bad datagrams and
// keeps listening.
package discovery
