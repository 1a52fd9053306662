// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package session opens live game sessions over the direct (RakNet) or
// NetherNet transport.
//
// Transports are linked in by registering constructors:
//
//	func init() {
//		session.RegisterDirect(dial)
//	}
//
// A Factory built without explicit constructors uses the registered ones.
package session
