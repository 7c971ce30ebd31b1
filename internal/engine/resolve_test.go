package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolvePattern(t *testing.T) {
	params := map[string]string{"vlan_id": "100", "port": "Gi0/1"}

	tests := []struct {
		name    string
		pattern string
		want    string
	}{
		{"single placeholder", "VLAN{{vlan_id}}.*active", "VLAN100.*active"},
		{"repeated placeholder", "{{vlan_id}}-{{vlan_id}}", "100-100"},
		{"multiple parameters", "{{port}} vlan {{vlan_id}}", "Gi0/1 vlan 100"},
		{"unmatched placeholder left intact", "VLAN{{missing}} active", "VLAN{{missing}} active"},
		{"no placeholders", "plain pattern", "plain pattern"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ResolvePattern(tc.pattern, params))
		})
	}
}

func TestResolvePatternNilParams(t *testing.T) {
	assert.Equal(t, "VLAN{{vlan_id}}", ResolvePattern("VLAN{{vlan_id}}", nil))
}
