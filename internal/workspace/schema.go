package workspace

import (
	"embed"
	"fmt"

	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"
)

//go:embed schemas/amiforge.v1.schema.json
var schemaFS embed.FS

const schemaPath = "schemas/amiforge.v1.schema.json"

// SchemaError is one JSON schema violation.
type SchemaError struct {
	Field       string
	Type        string
	Description string
}

func (e SchemaError) String() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Description)
}

// ValidateSchema checks raw amiforge.yaml content against the embedded JSON
// schema. A nil slice means the document is valid; err is set only when the
// document or schema cannot be loaded.
func ValidateSchema(data []byte) ([]SchemaError, error) {
	schemaBytes, err := schemaFS.ReadFile(schemaPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load JSON schema: %w", err)
	}

	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if doc == nil {
		doc = map[string]any{}
	}

	result, err := gojsonschema.Validate(
		gojsonschema.NewBytesLoader(schemaBytes),
		gojsonschema.NewGoLoader(doc),
	)
	if err != nil {
		return nil, fmt.Errorf("validation error: %w", err)
	}
	if result.Valid() {
		return nil, nil
	}

	errs := make([]SchemaError, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		errs = append(errs, SchemaError{
			Field:       desc.Field(),
			Type:        desc.Type(),
			Description: desc.Description(),
		})
	}
	return errs, nil
}
