// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

//go:build tools

// Package tools pins the command-line tools bedrockbot development runs
// with `go run`, so they resolve at the versions in go.mod:
//
//	go run github.com/onsi/ginkgo/v2/ginkgo -r ./test/integration
//	go run ./cmd/gen-schema
package tools

import (
	// CLI integration suite runner.
	_ "github.com/onsi/ginkgo/v2/ginkgo"
)
