// internal/engagement/persistence/schema.go
package persistence

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

const stringMap = `{"type": "object", "additionalProperties": {"type": "string"}}`

const sideProperties = `
	"letter_type": {"type": "string", "minLength": 1},
	"vendor": ` + stringMap + `,
	"dates": ` + stringMap

const singleSchemaJSON = `{
	"$schema": "http://json-schema.org/draft-07/schema#",
	"type": "object",
	"required": ["loan_type", "letter_type", "vendor", "dates", "loan", "property"],
	"properties": {
		"loan_type": {"type": "string", "minLength": 1},
		` + sideProperties + `,
		"loan": {
			"type": "object",
			"required": ["loan_name"],
			"additionalProperties": {"type": "string"}
		},
		"property": ` + stringMap + `
	}
}`

const dualSchemaJSON = `{
	"$schema": "http://json-schema.org/draft-07/schema#",
	"type": "object",
	"required": ["loan_type", "appraisal", "environmental", "shared"],
	"definitions": {
		"side": {
			"type": "object",
			"required": ["vendor", "dates"],
			"properties": {` + sideProperties + `}
		}
	},
	"properties": {
		"loan_type": {"type": "string", "minLength": 1},
		"appraisal": {"$ref": "#/definitions/side"},
		"environmental": {"$ref": "#/definitions/side"},
		"shared": {
			"type": "object",
			"required": ["loan", "property"],
			"properties": {
				"loan": {
					"type": "object",
					"required": ["loan_name"],
					"additionalProperties": {"type": "string"}
				},
				"property": ` + stringMap + `
			}
		}
	}
}`

var (
	singleSchema = mustSchema(singleSchemaJSON)
	dualSchema   = mustSchema(dualSchemaJSON)
)

func mustSchema(src string) *gojsonschema.Schema {
	s, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(src))
	if err != nil {
		panic(fmt.Sprintf("persistence: invalid schema: %v", err))
	}
	return s
}

// ValidationError lists every schema violation of a persisted record.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return "record validation failed: " + strings.Join(e.Problems, "; ")
}

func validate(schema *gojsonschema.Schema, data []byte) error {
	result, err := schema.Validate(gojsonschema.NewBytesLoader(data))
	if err != nil {
		return err
	}
	if result.Valid() {
		return nil
	}
	problems := make([]string, len(result.Errors()))
	for i, desc := range result.Errors() {
		problems[i] = desc.String()
	}
	return &ValidationError{Problems: problems}
}
