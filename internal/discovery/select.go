// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package discovery

import (
	"strings"
	"unicode/utf8"
)

// formatPrefix introduces a two-character formatting code in server names.
const formatPrefix = '§'

// StripFormatting removes "§x" formatting codes from a server name.
func StripFormatting(s string) string {
	if !strings.ContainsRune(s, formatPrefix) {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); {
		r, size := utf8.DecodeRuneInString(s[i:])
		i += size
		if r == formatPrefix {
			// Skip the code character as well, if any.
			if i < len(s) {
				_, next := utf8.DecodeRuneInString(s[i:])
				i += next
			}
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// SelectByName picks the server whose name contains query, comparing
// case-insensitively with formatting stripped on both sides. It returns the
// selection only when exactly one server matches; matches always holds every
// server that matched so callers can report ambiguity.
func SelectByName(servers []Server, query string) (selected Server, matches []Server, ok bool) {
	needle := strings.ToLower(strings.TrimSpace(StripFormatting(query)))
	if needle == "" {
		return Server{}, nil, false
	}
	for _, s := range servers {
		name := strings.ToLower(StripFormatting(s.Data.ServerName))
		if strings.Contains(name, needle) {
			matches = append(matches, s)
		}
	}
	if len(matches) != 1 {
		return Server{}, matches, false
	}
	return matches[0], matches, true
}
