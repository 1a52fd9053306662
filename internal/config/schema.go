// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package config

import (
	"bytes"
	"encoding/json"
	"strconv"
	"sync"

	"github.com/invopop/jsonschema"
	"github.com/samber/oops"
	jschema "github.com/santhosh-tekuri/jsonschema/v6"
	"gopkg.in/yaml.v3"
)

// SchemaID is the $id of the configuration schema.
const SchemaID = "https://holomush.dev/schemas/bedrockbot-config.schema.json"

// durationPattern matches Go duration strings such as "1m30s".
const durationPattern = `^([0-9]+(\.[0-9]+)?(ns|us|µs|ms|s|m|h))+$`

var durationKeys = []string{
	"discovery-timeout",
	"follow-timeout",
	"heartbeat-interval",
	"player-list-settle",
	"player-list-max-wait",
	"reconnect-base",
	"reconnect-max",
}

// JSONSchemaExtend describes durations as strings, the form they take in
// YAML.
func (Config) JSONSchemaExtend(s *jsonschema.Schema) {
	for _, key := range durationKeys {
		if p, ok := s.Properties.Get(key); ok {
			p.Type = "string"
			p.Pattern = durationPattern
		}
	}
}

// GenerateSchema returns the JSON Schema for the configuration file.
func GenerateSchema() ([]byte, error) {
	r := jsonschema.Reflector{
		DoNotReference: true,
	}
	schema := r.Reflect(&Config{})
	schema.ID = jsonschema.ID(SchemaID)
	schema.Title = "bedrockbot configuration"
	schema.Description = "Schema for bedrockbot config.yaml files"

	data, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return nil, oops.Code("CONFIG_SCHEMA_FAILED").Wrap(err)
	}
	return data, nil
}

var compiledSchema = sync.OnceValues(func() (*jschema.Schema, error) {
	raw, err := GenerateSchema()
	if err != nil {
		return nil, err
	}
	doc, err := jschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		return nil, oops.Code("CONFIG_SCHEMA_FAILED").Wrap(err)
	}
	c := jschema.NewCompiler()
	if err := c.AddResource("config.schema.json", doc); err != nil {
		return nil, oops.Code("CONFIG_SCHEMA_FAILED").Wrap(err)
	}
	sch, err := c.Compile("config.schema.json")
	if err != nil {
		return nil, oops.Code("CONFIG_SCHEMA_FAILED").Wrap(err)
	}
	return sch, nil
})

// ValidateFile checks YAML configuration data against the schema.
func ValidateFile(data []byte) error {
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return oops.Code("CONFIG_YAML_INVALID").Wrap(err)
	}
	if doc == nil {
		// An empty file configures nothing.
		return nil
	}

	sch, err := compiledSchema()
	if err != nil {
		return err
	}
	if err := sch.Validate(toJSONTypes(doc)); err != nil {
		return oops.Code("CONFIG_SCHEMA_VIOLATION").Wrap(err)
	}
	return nil
}

// toJSONTypes maps decoded YAML onto the types the validator expects.
func toJSONTypes(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, v := range val {
			out[k] = toJSONTypes(v)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, v := range val {
			out[i] = toJSONTypes(v)
		}
		return out
	case int:
		return json.Number(strconv.Itoa(val))
	case uint64:
		return json.Number(strconv.FormatUint(val, 10))
	case float64:
		return json.Number(strconv.FormatFloat(val, 'g', -1, 64))
	default:
		return val
	}
}
