package problem

import (
	"sync"

	"github.com/xeipuuv/gojsonschema"

	"github.com/p-n-ai/akshar/internal/platform/apperr"
)

const contentSchemaJSON = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["kind", "solution"],
  "properties": {
    "kind": {"enum": ["free_response", "multiple_choice", "checklist"]},
    "options": {"type": "array", "items": {"type": "string"}, "maxItems": 26},
    "restrictions": {
      "type": "array",
      "maxItems": 16,
      "items": {
        "type": "object",
        "required": ["kind"],
        "properties": {
          "kind": {"enum": ["integer", "natural", "max_character_length", "real_in_range", "imaginary", "imaginary_in_range"]},
          "length": {"type": "integer", "minimum": 1},
          "start": {"type": "number"},
          "end": {"type": "number"}
        },
        "additionalProperties": false
      }
    }
  },
  "allOf": [
    {
      "if": {"properties": {"kind": {"const": "free_response"}}},
      "then": {
        "properties": {
          "solution": {
            "type": "array",
            "minItems": 1,
            "items": {
              "type": "object",
              "required": ["kind"],
              "properties": {
                "kind": {"enum": ["real_equals", "imaginary_equals", "text_equals"]},
                "eq": {"type": "number"},
                "precision": {"type": "number"},
                "text": {"type": "string"}
              },
              "additionalProperties": false
            }
          }
        }
      }
    },
    {
      "if": {"properties": {"kind": {"const": "multiple_choice"}}},
      "then": {
        "required": ["options"],
        "properties": {"solution": {"type": "integer", "minimum": 0}}
      }
    },
    {
      "if": {"properties": {"kind": {"const": "checklist"}}},
      "then": {
        "required": ["options"],
        "properties": {"solution": {"type": "array", "items": {"type": "integer", "minimum": 0}, "uniqueItems": true}}
      }
    }
  ]
}`

var loadContentSchema = sync.OnceValues(func() (*gojsonschema.Schema, error) {
	return gojsonschema.NewSchema(gojsonschema.NewStringLoader(contentSchemaJSON))
})

// CheckContentSchema validates raw content JSON against the content schema
// and reports the first violation as a rejection.
func CheckContentSchema(data []byte) error {
	schema, err := loadContentSchema()
	if err != nil {
		return apperr.Faultf("compile content schema: %v", err)
	}

	result, err := schema.Validate(gojsonschema.NewBytesLoader(data))
	if err != nil {
		return apperr.Reject("Content is not valid JSON")
	}
	if result.Valid() {
		return nil
	}
	first := firstSpecificError(result.Errors())
	return apperr.Reject("Content %s: %s", first.Field(), first.Description())
}

// firstSpecificError skips the summary errors emitted for allOf and if/then
// so the message points at the offending field.
func firstSpecificError(errs []gojsonschema.ResultError) gojsonschema.ResultError {
	for _, e := range errs {
		switch e.Type() {
		case "number_all_of", "condition_then", "condition_else":
			continue
		}
		return e
	}
	return errs[0]
}

// DecodeContent checks data against the schema and decodes it.
func DecodeContent(data []byte) (Content, error) {
	if err := CheckContentSchema(data); err != nil {
		return nil, err
	}
	c, err := UnmarshalContent(data)
	if err != nil {
		return nil, apperr.Reject("Content is malformed: %v", err)
	}
	return c, nil
}
