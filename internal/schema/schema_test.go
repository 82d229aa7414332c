package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func planSchema() *Object {
	return &Object{
		Name: "reallocation_plan",
		Fields: []Field{
			{Name: "summary", Type: TypeString, Required: true},
			{Name: "confidence", Type: TypeNumber},
			{Name: "urgent", Type: TypeBoolean},
			{Name: "category", Type: TypeString, Enum: []string{"Query", "Urgent"}},
			{
				Name: "plan", Type: TypeArray, Required: true,
				Items: &Field{
					Type: TypeObject,
					Properties: &Object{
						Name: "entry",
						Fields: []Field{
							{Name: "engagementId", Type: TypeString, Required: true},
							{Name: "newAssigneeId", Type: TypeString, Required: true},
							{Name: "reasoning", Type: TypeString},
						},
					},
				},
			},
		},
	}
}

func TestValidateAccepts(t *testing.T) {
	s := planSchema()
	err := s.Validate(map[string]any{
		"summary":  "move two engagements",
		"category": "Urgent",
		"plan": []any{
			map[string]any{"engagementId": "eng-1", "newAssigneeId": "emp-2", "reasoning": "lighter load"},
		},
	})
	require.NoError(t, err)
}

func TestValidateMissingRequired(t *testing.T) {
	s := planSchema()
	err := s.Validate(map[string]any{"summary": "x"})
	require.Error(t, err)

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "plan", verr.Field)
}

func TestValidateRejectsUnknownField(t *testing.T) {
	s := planSchema()
	err := s.Validate(map[string]any{
		"summary": "x",
		"plan":    []any{},
		"extra":   true,
	})
	require.Error(t, err)

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "extra", verr.Field)
}

func TestValidateRejectsNull(t *testing.T) {
	s := planSchema()
	err := s.Validate(map[string]any{
		"summary":    "x",
		"plan":       []any{},
		"confidence": nil,
	})
	require.Error(t, err)
}

func TestValidateEnum(t *testing.T) {
	s := planSchema()
	err := s.Validate(map[string]any{
		"summary":  "x",
		"plan":     []any{},
		"category": "Nonsense",
	})
	require.Error(t, err)
}

func TestValidateNestedItem(t *testing.T) {
	s := planSchema()
	err := s.Validate(map[string]any{
		"summary": "x",
		"plan": []any{
			map[string]any{"engagementId": "eng-1"}, // newAssigneeId missing
		},
	})
	require.Error(t, err)

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "newAssigneeId", verr.Field)
}

func TestValidateTypeMismatch(t *testing.T) {
	s := planSchema()
	err := s.Validate(map[string]any{
		"summary": 42,
		"plan":    []any{},
	})
	require.Error(t, err)
}

func TestJSONSchemaRendering(t *testing.T) {
	s := planSchema()
	js := s.JSONSchema()

	assert.Equal(t, "object", js["type"])
	assert.Equal(t, false, js["additionalProperties"])
	assert.ElementsMatch(t, []string{"summary", "plan"}, js["required"])

	props, ok := js["properties"].(map[string]any)
	require.True(t, ok)

	cat, ok := props["category"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, []any{"Query", "Urgent"}, cat["enum"])

	plan, ok := props["plan"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "array", plan["type"])

	items, ok := plan["items"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "object", items["type"])
}
