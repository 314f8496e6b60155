package loader

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"
)

// suiteSchema validates the shape of a suite file before decoding, so
// authors get field-level messages instead of decoder errors.
const suiteSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "additionalProperties": false,
  "properties": {
    "name": {"type": "string"},
    "defaults": {
      "type": "object",
      "additionalProperties": false,
      "properties": {
        "threads": {"type": "integer", "minimum": 1},
        "invocations": {"type": "integer", "minimum": 1},
        "timeout": {"type": "string"}
      }
    },
    "cases": {"type": "array", "items": {"$ref": "#/definitions/case"}},
    "suites": {"type": "array", "items": {"$ref": "#/definitions/suite"}}
  },
  "definitions": {
    "case": {
      "type": "object",
      "required": ["name", "command"],
      "additionalProperties": false,
      "properties": {
        "name": {"type": "string", "minLength": 1},
        "command": {"type": "string"},
        "tags": {"type": "array", "items": {"type": "string"}},
        "threads": {"type": "integer", "minimum": 1},
        "invocations": {"type": "integer", "minimum": 1},
        "timeout": {"type": "string"},
        "active": {"type": "boolean"}
      }
    },
    "suite": {
      "type": "object",
      "required": ["name"],
      "additionalProperties": false,
      "properties": {
        "name": {"type": "string", "minLength": 1},
        "cases": {"type": "array", "items": {"$ref": "#/definitions/case"}},
        "suites": {"type": "array", "items": {"$ref": "#/definitions/suite"}}
      }
    }
  }
}`

// Validate checks a suite file against the schema without building it
func Validate(path string) error {
	_, err := Load(path)
	return err
}

func validateBytes(data []byte) error {
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("parsing yaml: %w", err)
	}

	schemaLoader := gojsonschema.NewStringLoader(suiteSchema)
	documentLoader := gojsonschema.NewGoLoader(doc)

	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return fmt.Errorf("validating suite file: %w", err)
	}
	if result.Valid() {
		return nil
	}

	var msgs []string
	for _, desc := range result.Errors() {
		msgs = append(msgs, desc.String())
	}
	return fmt.Errorf("invalid suite file:\n  %s", strings.Join(msgs, "\n  "))
}
