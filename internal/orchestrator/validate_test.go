package orchestrator

import (
	"encoding/json"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HendryAvila/conductor/internal/state"
)

func TestHasType(t *testing.T) {
	cases := []struct {
		v    any
		want string
		ok   bool
	}{
		{"x", "string", true},
		{3, "number", true},
		{3.5, "number", true},
		{float64(4), "integer", true},
		{4.5, "integer", false},
		{json.Number("7"), "integer", true},
		{true, "boolean", true},
		{"true", "boolean", false},
		{state.Fields{"a": 1}, "object", true},
		{map[string]any{}, "object", true},
		{[]any{1}, "array", true},
		{[]any{1}, "object", false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.ok, hasType(tc.v, tc.want), "%#v as %s", tc.v, tc.want)
	}
}

func TestValidateArgs_CollectsEveryProblem(t *testing.T) {
	def := mcp.NewTool("demo",
		mcp.WithString("b", mcp.Required()),
		mcp.WithString("mode", mcp.Enum("fast", "slow")),
	)

	err := validateArgs(def, map[string]any{"mode": "warp", "zzz": 1})
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "demo", ve.Tool)
	assert.Len(t, ve.Problems, 3)
	assert.Contains(t, err.Error(), `"b" is required`)
	assert.Contains(t, err.Error(), `"mode" must be one of [fast slow], got "warp"`)
	assert.Contains(t, err.Error(), `"zzz" is not a known argument`)
}

func TestValidateArgs_ConfirmAlwaysAllowed(t *testing.T) {
	def := mcp.NewTool("demo", mcp.WithString("a"))
	assert.NoError(t, validateArgs(def, map[string]any{ArgConfirm: true}))
	assert.NoError(t, validateArgs(def, nil))
}
