// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package bedrock is the direct (RakNet) transport, built on gophertunnel.
// Importing it registers the transport with the session package:
//
//	import _ "github.com/holomush/bedrockbot/internal/session/bedrock"
package bedrock
