package types

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/eino-contrib/jsonschema"
)

var (
	contentSchemaOnce sync.Once
	contentSchema     string
	contentSchemaErr  error
)

// FormContentSchema returns the JSON Schema of the form content exchange
// format. It is embedded into prompts that must emit a whole form.
func FormContentSchema() (string, error) {
	contentSchemaOnce.Do(func() {
		schema := jsonschema.Reflect(&FormContent{})
		schema.Title = "Form"
		schema.Description = "A multi-step form with typed questions."
		data, err := json.Marshal(schema)
		if err != nil {
			contentSchemaErr = fmt.Errorf("failed to marshal JSON schema: %w", err)
			return
		}
		contentSchema = string(data)
	})
	return contentSchema, contentSchemaErr
}
