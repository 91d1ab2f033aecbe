package compliance

import (
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// verdictSchema lists the fields every model reply must carry. confidence
// may arrive as a numeric string; it is parsed when the verdict is built.
const verdictSchema = `{
  "type": "object",
  "required": ["status", "evidence", "reasoning", "confidence"],
  "properties": {
    "status":     {"type": "string"},
    "evidence":   {"type": "string"},
    "reasoning":  {"type": "string"},
    "confidence": {"type": ["number", "string"]}
  }
}`

var compiledVerdictSchema = jsonschema.MustCompileString("verdict.json", verdictSchema)

// validateReply checks a decoded model reply against verdictSchema.
func validateReply(v any) error {
	if err := compiledVerdictSchema.Validate(v); err != nil {
		return fmt.Errorf("LLM response missing expected fields: %w", err)
	}
	return nil
}
