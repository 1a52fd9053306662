// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package errutil

import (
	"testing"

	"github.com/samber/oops"
	"github.com/stretchr/testify/assert"
)

// AssertErrorCode asserts that err carries the oops code. On mismatch the
// message includes the error's context, which usually explains it.
func AssertErrorCode(t testing.TB, err error, code string) bool {
	t.Helper()
	if !assert.Error(t, err, "expected error with code %s", code) {
		return false
	}
	return assert.Equal(t, code, Code(err), "error %q, context %v", err.Error(), contextOf(err))
}

// AssertErrorContext asserts that err's oops context maps key to value.
func AssertErrorContext(t testing.TB, err error, key string, value any) bool {
	t.Helper()
	oopsErr, ok := oops.AsOops(err)
	if !assert.True(t, ok, "expected oops error, got %T", err) {
		return false
	}
	got, present := oopsErr.Context()[key]
	if !assert.True(t, present, "context has no %q: %v", key, oopsErr.Context()) {
		return false
	}
	return assert.Equal(t, value, got, "context key %q", key)
}

func contextOf(err error) map[string]any {
	if oopsErr, ok := oops.AsOops(err); ok {
		return oopsErr.Context()
	}
	return nil
}
