package tool

import "encoding/json"

const redactedPlaceholder = "[REDACTED]"

// PII and compensation fields stripped from tool results before the model
// sees them. Entity ids and names stay: the model identifies candidates by
// name, never by contact details.
var redactedFields = map[string]struct{}{
	"primaryEmailAddress": {},
	"primaryPhoneNumber":  {},
	"socialLinks":         {},
	"email":               {},
	"phone":               {},
	"salary":              {},
	"compensation":        {},
	"bonus":               {},
	"equity":              {},
	"fixedAllowance":      {},
	"signOnBonus":         {},
	"variableBonus":       {},
	"annualSalary":        {},
	"baseSalary":          {},
	"totalTargetCash":     {},
	"onTargetEarnings":    {},
}

// Redact returns v as decoded JSON with sensitive fields replaced at every
// nesting depth. The returned value feeds the truncator, which serializes it
// for the model turn.
func Redact(v any) (any, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var decoded any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, err
	}
	return redactValue(decoded), nil
}

func redactValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		for key, child := range val {
			if _, sensitive := redactedFields[key]; sensitive {
				val[key] = redactedPlaceholder
				continue
			}
			val[key] = redactValue(child)
		}
		return val
	case []any:
		for i, item := range val {
			val[i] = redactValue(item)
		}
		return val
	default:
		return v
	}
}
