package payload

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

// ErrSchema is returned when a serialized body violates the webhook API
// contract.
var ErrSchema = errors.New("payload: body violates webhook schema")

const schemaURL = "logrelay://schema/webhook.json"

// webhookSchema describes the subset of the webhook execute body produced by
// this package, with the API's documented size limits.
const webhookSchema = `{
  "type": "object",
  "additionalProperties": false,
  "anyOf": [
    {"required": ["content"]},
    {"required": ["embeds"]}
  ],
  "properties": {
    "content": {"type": "string", "minLength": 1, "maxLength": 2000},
    "embeds": {
      "type": "array",
      "minItems": 1,
      "maxItems": 10,
      "items": {
        "type": "object",
        "additionalProperties": false,
        "required": ["title", "description", "fields", "footer", "color"],
        "properties": {
          "title": {"type": "string", "maxLength": 256},
          "description": {"type": "string", "maxLength": 4096},
          "color": {"type": "integer", "minimum": 0, "maximum": 16777215},
          "footer": {
            "type": "object",
            "required": ["text"],
            "properties": {"text": {"type": "string", "maxLength": 2048}}
          },
          "thumbnail": {
            "type": "object",
            "required": ["url"],
            "properties": {"url": {"type": "string", "minLength": 1}}
          },
          "fields": {
            "type": "array",
            "maxItems": 25,
            "items": {
              "type": "object",
              "additionalProperties": false,
              "required": ["name", "value", "inline"],
              "properties": {
                "name": {"type": "string", "minLength": 1, "maxLength": 256},
                "value": {"type": "string", "minLength": 1, "maxLength": 1024},
                "inline": {"type": "boolean"}
              }
            }
          }
        }
      }
    }
  }
}`

var compiledSchema = sync.OnceValues(func() (*jsonschema.Schema, error) {
	doc, err := jsonschema.UnmarshalJSON(strings.NewReader(webhookSchema))
	if err != nil {
		return nil, fmt.Errorf("unmarshal schema: %w", err)
	}

	c := jsonschema.NewCompiler()
	if err := c.AddResource(schemaURL, doc); err != nil {
		return nil, fmt.Errorf("add schema resource: %w", err)
	}
	return c.Compile(schemaURL)
})

// Validate checks a serialized body against the webhook schema.
func Validate(body []byte) error {
	schema, err := compiledSchema()
	if err != nil {
		return fmt.Errorf("schema compilation error: %w", err)
	}

	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("%w: %w", ErrSchema, err)
	}
	if err := schema.Validate(doc); err != nil {
		return fmt.Errorf("%w: %w", ErrSchema, err)
	}
	return nil
}
