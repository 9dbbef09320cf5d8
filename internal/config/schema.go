package config

import (
	_ "embed"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

var (
	//go:embed schema/config.schema.json
	configSchemaJSON string

	//go:embed schema/activities.schema.json
	activitiesSchemaJSON string

	configSchema     = gojsonschema.NewStringLoader(configSchemaJSON)
	activitiesSchema = gojsonschema.NewStringLoader(activitiesSchemaJSON)
)

// validateDocument checks a decoded YAML/JSON document against a schema.
// Structural problems such as unknown keys or wrong types are reported here,
// before semantic validation runs.
func validateDocument(schema gojsonschema.JSONLoader, doc any) error {
	if doc == nil {
		return nil
	}

	result, err := gojsonschema.Validate(schema, gojsonschema.NewGoLoader(doc))
	if err != nil {
		return fmt.Errorf("schema validation error: %w", err)
	}

	if !result.Valid() {
		errs := make([]string, len(result.Errors()))
		for i, desc := range result.Errors() {
			errs[i] = desc.String()
		}
		return fmt.Errorf("schema validation failed: %s", strings.Join(errs, "; "))
	}

	return nil
}
