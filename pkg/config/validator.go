package config

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// SchemaError lists every schema violation found in a configuration document.
type SchemaError struct {
	Violations []string
}

func (e *SchemaError) Error() string {
	return "configuration file is not valid:\n  - " + strings.Join(e.Violations, "\n  - ")
}

// ValidateBytes validates a configuration document against the JSON schema
func ValidateBytes(data []byte) error {
	schemaLoader := gojsonschema.NewStringLoader(Schema)
	documentLoader := gojsonschema.NewBytesLoader(data)

	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return fmt.Errorf("failed to validate schema: %w", err)
	}

	if !result.Valid() {
		schemaErr := &SchemaError{}
		for _, desc := range result.Errors() {
			schemaErr.Violations = append(schemaErr.Violations, desc.String())
		}
		return schemaErr
	}

	return nil
}
