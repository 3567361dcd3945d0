package extract

import (
	"errors"
	"strings"

	"github.com/juparave/gapaudit/internal/domain"
	"github.com/santhosh-tekuri/jsonschema/v5"
)

// findingSchema validates a canonicalized element. Enum membership of the
// fix is checked separately so the offending value can be reported.
const findingSchema = `{
  "type": "object",
  "required": ["area", "description", "recommended_fix"],
  "properties": {
    "area":            {"type": "string", "minLength": 1, "pattern": "\\S"},
    "description":     {"type": "string"},
    "severity":        {"type": "string"},
    "recommended_fix": {"type": "string", "minLength": 1}
  }
}`

var compiledFinding = jsonschema.MustCompileString("finding.json", findingSchema)

func validateShape(i int, canon map[string]any) *domain.SchemaViolation {
	err := compiledFinding.Validate(canon)
	if err == nil {
		return nil
	}

	var ve *jsonschema.ValidationError
	if !errors.As(err, &ve) {
		return &domain.SchemaViolation{Index: i, Field: "element", Cause: err.Error()}
	}

	leaf := deepest(ve)
	field := strings.TrimPrefix(leaf.InstanceLocation, "/")
	if field == "" {
		field = "element"
	}
	return &domain.SchemaViolation{Index: i, Field: field, Cause: leaf.Message}
}

func deepest(ve *jsonschema.ValidationError) *jsonschema.ValidationError {
	for len(ve.Causes) > 0 {
		ve = ve.Causes[0]
	}
	return ve
}
