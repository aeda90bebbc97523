package trending

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// PanelSchema is the JSON schema of a panel update payload. Every field is
// optional; only the provided ones are applied.
const PanelSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "additionalProperties": false,
  "properties": {
    "id": {"type": ["string", "integer"]},
    "name": {"type": "string", "minLength": 1, "maxLength": 120},
    "aggregationType": {"enum": ["Total", "Average", null]},
    "period": {"enum": ["Today", "Yesterday", "Weekly", "Monthly", "Quarterly", "AllTime", "Custom", null]},
    "viewMode": {"enum": ["Value", "LineChart", "BarChart", "PieChart"]},
    "unitIds": {
      "type": "array",
      "items": {"type": ["string", "integer"]}
    },
    "unitColumnId": {"type": ["string", "integer", "null"]},
    "customStartDate": {"$ref": "#/definitions/date"},
    "customEndDate": {"$ref": "#/definitions/date"},
    "colSpan": {"enum": [1, 2, 4]},
    "showInfo": {"type": "boolean"},
    "order": {"type": "integer", "minimum": 0}
  },
  "definitions": {
    "date": {
      "oneOf": [
        {"type": "null"},
        {"type": "string", "pattern": "^\\d{4}-\\d{2}-\\d{2}"}
      ]
    }
  }
}`

const panelSchemaName = "trending-panel.json"

// PanelValidator validates panel update payloads before they reach the board.
type PanelValidator interface {
	Validate(payload map[string]any) error
}

// JSONSchemaValidator validates payloads against PanelSchema.
type JSONSchemaValidator struct {
	once     sync.Once
	compiled *jsonschema.Schema
	err      error
}

// NewJSONSchemaValidator builds a validator backed by jsonschema v5.
func NewJSONSchemaValidator() *JSONSchemaValidator {
	return &JSONSchemaValidator{}
}

// Validate ensures the payload satisfies the panel schema.
func (v *JSONSchemaValidator) Validate(payload map[string]any) error {
	schema, err := v.schema()
	if err != nil {
		return err
	}
	normalized := map[string]any{}
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("trending: marshal panel payload: %w", err)
		}
		if err := json.Unmarshal(data, &normalized); err != nil {
			return fmt.Errorf("trending: normalize panel payload: %w", err)
		}
	}
	if err := schema.Validate(normalized); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfiguration, err)
	}
	return nil
}

func (v *JSONSchemaValidator) schema() (*jsonschema.Schema, error) {
	v.once.Do(func() {
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource(panelSchemaName, strings.NewReader(PanelSchema)); err != nil {
			v.err = fmt.Errorf("trending: load panel schema: %w", err)
			return
		}
		v.compiled, v.err = compiler.Compile(panelSchemaName)
		if v.err != nil {
			v.err = fmt.Errorf("trending: compile panel schema: %w", v.err)
		}
	})
	return v.compiled, v.err
}

type noopPanelValidator struct{}

func (noopPanelValidator) Validate(map[string]any) error { return nil }
