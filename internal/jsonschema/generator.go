// Package jsonschema provides JSON Schema generation for avro-to-json profile files.
package jsonschema

import (
	"encoding/json"

	"github.com/invopop/jsonschema"

	"github.com/takumiyoshikawa/avro-to-json/internal/config"
)

// Generate creates a JSON Schema from the Profile type for editor autocomplete and validation.
func Generate() ([]byte, error) {
	r := &jsonschema.Reflector{
		// Use yaml struct tags for property names instead of Go field names.
		FieldNameTag: "yaml",
	}

	s := r.Reflect(&config.Profile{})

	s.ID = "https://raw.githubusercontent.com/takumiyoshikawa/avro-to-json/main/profile.schema.json"
	s.Title = "avro-to-json profile"
	s.Description = "Schema for avro-to-json conversion profiles (avro-to-json.yml)"

	return json.MarshalIndent(s, "", "  ")
}
