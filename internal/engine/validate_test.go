package engine

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"netchange/backend/pkg/models"
)

func TestValidateContains(t *testing.T) {
	tests := []struct {
		name    string
		output  string
		pattern string
		want    bool
	}{
		{"substring present", "VLAN100 is active", "VLAN100", true},
		{"substring absent", "VLAN200 is active", "VLAN100", false},
		{"regex alternation", "interface Gi0/1 up", "up|down", true},
		{"anchors are line anchors", "line one\nVLAN100\nline three", "^VLAN100$", true},
		{"dot crosses newlines", "begin\nmiddle\nend", "begin.*end", true},
		{"empty output no match", "", "VLAN100", false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			passed, _ := Validate(tc.output, tc.pattern, models.OperatorContains)
			assert.Equal(t, tc.want, passed)
		})
	}
}

func TestValidateContainsDetailIsMatchedText(t *testing.T) {
	passed, detail := Validate("Port-channel1 is up, line protocol is up", "line protocol is \\w+", models.OperatorContains)
	assert.True(t, passed)
	assert.Equal(t, "line protocol is up", detail)
}

func TestValidateEqual(t *testing.T) {
	passed, detail := Validate("up", "up", models.OperatorEqual)
	assert.True(t, passed)
	assert.Equal(t, "up", detail)

	// A partial match is not equality.
	passed, _ = Validate("link is up", "up", models.OperatorEqual)
	assert.False(t, passed)

	// The pattern must cover the whole output including trailing lines.
	passed, _ = Validate("up\ndown", "up", models.OperatorEqual)
	assert.False(t, passed)

	passed, _ = Validate("up\ndown", "up\ndown", models.OperatorEqual)
	assert.True(t, passed)
}

func TestValidateNotEqual(t *testing.T) {
	passed, detail := Validate("link is up", "up", models.OperatorNotEqual)
	assert.True(t, passed)
	assert.Equal(t, "Output does not match pattern", detail)

	passed, detail = Validate("up", "up", models.OperatorNotEqual)
	assert.False(t, passed)
	assert.Equal(t, "Output matches pattern (validation failed)", detail)
}

func TestValidateNotContains(t *testing.T) {
	passed, detail := Validate("all interfaces up", "down", models.OperatorNotContains)
	assert.True(t, passed)
	assert.Equal(t, "Pattern not found (validation passed)", detail)

	passed, detail = Validate("Gi0/2 is down", "down", models.OperatorNotContains)
	assert.False(t, passed)
	assert.Equal(t, "Pattern found (validation failed)", detail)
}

// contains/not_contains and equal/not_equal are exact complements for any
// compilable pattern.
func TestValidateComplementLaws(t *testing.T) {
	cases := []struct{ output, pattern string }{
		{"VLAN100 active", "VLAN\\d+"},
		{"VLAN100 active", "shutdown"},
		{"up", "up"},
		{"link is up", "up"},
		{"", "anything"},
	}

	for _, tc := range cases {
		contains, _ := Validate(tc.output, tc.pattern, models.OperatorContains)
		notContains, _ := Validate(tc.output, tc.pattern, models.OperatorNotContains)
		assert.NotEqual(t, contains, notContains, "contains vs not_contains for %q / %q", tc.output, tc.pattern)

		equal, _ := Validate(tc.output, tc.pattern, models.OperatorEqual)
		notEqual, _ := Validate(tc.output, tc.pattern, models.OperatorNotEqual)
		assert.NotEqual(t, equal, notEqual, "equal vs not_equal for %q / %q", tc.output, tc.pattern)
	}
}

func TestValidateEmptyPatternPasses(t *testing.T) {
	for _, op := range []models.Operator{models.OperatorContains, models.OperatorEqual, models.OperatorNotEqual, models.OperatorNotContains} {
		passed, detail := Validate("whatever output", "", op)
		assert.True(t, passed, "operator %s", op)
		assert.Equal(t, NoValidationRule, detail)
	}
}

func TestValidateInvalidPattern(t *testing.T) {
	for _, op := range []models.Operator{models.OperatorContains, models.OperatorEqual, models.OperatorNotEqual, models.OperatorNotContains} {
		passed, detail := Validate("output", "([unclosed", op)
		assert.False(t, passed, "operator %s", op)
		assert.True(t, strings.HasPrefix(detail, "invalid validation pattern:"), "operator %s got %q", op, detail)
	}
}

func TestValidateUnknownOperatorFallsBackToContains(t *testing.T) {
	passed, _ := Validate("VLAN100 active", "VLAN100", models.Operator("regex"))
	assert.True(t, passed)

	passed, _ = Validate("VLAN200 active", "VLAN100", models.Operator("regex"))
	assert.False(t, passed)
}
