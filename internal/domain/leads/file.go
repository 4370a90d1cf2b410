package leads

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"gopkg.in/yaml.v3"
)

const fileSchemaJSON = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["leads"],
  "additionalProperties": false,
  "properties": {
    "leads": {
      "type": "array",
      "minItems": 1,
      "items": {
        "type": "object",
        "required": ["sport", "athlete", "metric", "unit", "better"],
        "additionalProperties": false,
        "properties": {
          "sport": {"type": "string", "minLength": 1},
          "athlete": {"type": "string", "minLength": 1},
          "metric": {"type": "number", "minimum": 0},
          "unit": {"type": "string"},
          "better": {"enum": ["higher", "lower"]},
          "display_name": {"type": "string"},
          "tip": {"type": "string"}
        }
      }
    }
  }
}`

var fileSchema = mustCompileSchema(fileSchemaJSON, "leads.schema.json")

func mustCompileSchema(raw, name string) *jsonschema.Schema {
	var doc any
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		panic(fmt.Sprintf("failed to parse %s: %v", name, err))
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(name, doc); err != nil {
		panic(fmt.Sprintf("failed to add %s resource: %v", name, err))
	}
	sch, err := compiler.Compile(name)
	if err != nil {
		panic(fmt.Sprintf("failed to compile %s: %v", name, err))
	}
	return sch
}

type fileDoc struct {
	Leads []Record `yaml:"leads"`
}

// LoadFile reads a YAML lead table that replaces the built-in one.
func LoadFile(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadTable, err)
	}
	return Parse(data)
}

// Parse validates YAML bytes against the lead file schema and builds a table.
func Parse(data []byte) (*Table, error) {
	var generic any
	if err := yaml.Unmarshal(data, &generic); err != nil {
		return nil, fmt.Errorf("%w: yaml: %w", ErrLoadTable, err)
	}
	if err := fileSchema.Validate(generic); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidTable, flattenSchemaError(err))
	}

	var doc fileDoc
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: yaml: %w", ErrLoadTable, err)
	}
	return New(doc.Leads)
}

func flattenSchemaError(err error) string {
	ve, ok := err.(*jsonschema.ValidationError)
	if !ok {
		return err.Error()
	}
	var msgs []string
	var walk func(*jsonschema.ValidationError)
	walk = func(v *jsonschema.ValidationError) {
		if len(v.Causes) == 0 {
			msgs = append(msgs, "/"+strings.Join(v.InstanceLocation, "/")+": "+v.Error())
			return
		}
		for _, c := range v.Causes {
			walk(c)
		}
	}
	walk(ve)
	return strings.Join(msgs, "; ")
}
