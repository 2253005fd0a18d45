package refapi

import (
	"github.com/xeipuuv/gojsonschema"
)

const patientSchemaJSON = `{
	"type": "object",
	"required": ["name"],
	"properties": {
		"name":  {"type": "string", "minLength": 1, "maxLength": 200},
		"age":   {"type": "integer", "minimum": 0, "maximum": 150},
		"notes": {"type": "string", "maxLength": 2000}
	}
}`

var patientSchema = mustSchema(patientSchemaJSON)

func mustSchema(src string) *gojsonschema.Schema {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(src))
	if err != nil {
		panic(err)
	}
	return schema
}

// validatePatient returns one message per schema violation. The error is non-nil
// only when raw is not JSON.
func validatePatient(raw []byte) ([]string, error) {
	result, err := patientSchema.Validate(gojsonschema.NewBytesLoader(raw))
	if err != nil {
		return nil, err
	}
	if result.Valid() {
		return nil, nil
	}

	out := make([]string, 0, len(result.Errors()))
	for _, e := range result.Errors() {
		if e.Field() == gojsonschema.STRING_CONTEXT_ROOT {
			out = append(out, e.Description())
			continue
		}
		out = append(out, e.Field()+": "+e.Description())
	}
	return out, nil
}
