// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Command gen-schema writes the JSON Schema for bedrockbot config files.
// With --check it instead fails when the committed schema is stale.
package main

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/pflag"

	"github.com/holomush/bedrockbot/internal/config"
)

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "gen-schema: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, stdout io.Writer) error {
	fs := pflag.NewFlagSet("gen-schema", pflag.ContinueOnError)
	out := fs.StringP("out", "o", filepath.Join("schemas", "config.schema.json"), "schema file to write")
	check := fs.Bool("check", false, "compare against the existing file instead of writing it")
	if err := fs.Parse(args); err != nil {
		return err
	}

	schema, err := config.GenerateSchema()
	if err != nil {
		return fmt.Errorf("generating schema: %w", err)
	}

	if *check {
		existing, err := os.ReadFile(*out)
		if err != nil {
			return fmt.Errorf("reading %s: %w", *out, err)
		}
		if !bytes.Equal(existing, schema) {
			return fmt.Errorf("%s is out of date; run gen-schema", *out)
		}
		_, _ = fmt.Fprintf(stdout, "%s is up to date\n", *out)
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(*out), 0o750); err != nil {
		return fmt.Errorf("creating directory: %w", err)
	}
	if err := os.WriteFile(*out, schema, 0o600); err != nil {
		return fmt.Errorf("writing %s: %w", *out, err)
	}
	_, _ = fmt.Fprintf(stdout, "wrote %s\n", *out)
	return nil
}
