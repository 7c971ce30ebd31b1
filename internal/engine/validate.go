package engine

import (
	"fmt"
	"regexp"

	"netchange/backend/pkg/models"
)

// NoValidationRule is the detail returned when a command carries no pattern.
const NoValidationRule = "No validation rules provided"

// Validate applies a pattern-matching rule to command output. The pattern is
// a regular expression evaluated with multiline and dot-matches-newline
// semantics. An empty pattern trivially passes: absence of a rule is not a
// failure. An uncompilable pattern fails with the compile error as detail.
// An unknown operator falls back to contains behaviour.
func Validate(output, pattern string, operator models.Operator) (bool, string) {
	if pattern == "" {
		return true, NoValidationRule
	}

	search, err := regexp.Compile("(?ms)" + pattern)
	if err != nil {
		return false, fmt.Sprintf("invalid validation pattern: %v", err)
	}

	switch operator {
	case models.OperatorEqual, models.OperatorNotEqual:
		full, err := regexp.Compile(`(?ms)\A(?:` + pattern + `)\z`)
		if err != nil {
			return false, fmt.Sprintf("invalid validation pattern: %v", err)
		}
		matched := full.MatchString(output)
		if operator == models.OperatorEqual {
			if matched {
				return true, output
			}
			return false, ""
		}
		if matched {
			return false, "Output matches pattern (validation failed)"
		}
		return true, "Output does not match pattern"

	case models.OperatorNotContains:
		if search.FindStringIndex(output) != nil {
			return false, "Pattern found (validation failed)"
		}
		return true, "Pattern not found (validation passed)"

	default: // contains, and the fallback for unknown operators
		if loc := search.FindStringIndex(output); loc != nil {
			return true, output[loc[0]:loc[1]]
		}
		return false, ""
	}
}
