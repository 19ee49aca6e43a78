package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSchema = MustSchema(`{
	"type": "object",
	"properties": {
		"loanType":   {"type": "string", "enum": ["7A", "504", "CC"]},
		"letterType": {"type": "string", "minLength": 1},
		"record":     {"type": "object", "properties": {"loan": {"type": "object"}}, "required": ["loan"]}
	},
	"required": ["loanType", "letterType"]
}`)

func TestValidateInput(t *testing.T) {
	tests := []struct {
		name       string
		input      map[string]interface{}
		wantValid  bool
		wantFields []string
	}{
		{
			name:      "valid",
			input:     map[string]interface{}{"loanType": "7A", "letterType": "APP"},
			wantValid: true,
		},
		{
			name:       "missing required",
			input:      map[string]interface{}{"loanType": "7A"},
			wantFields: []string{"letterType"},
		},
		{
			name:       "bad enum",
			input:      map[string]interface{}{"loanType": "SBA", "letterType": "APP"},
			wantFields: []string{"loanType"},
		},
		{
			name:       "wrong type",
			input:      map[string]interface{}{"loanType": "7A", "letterType": 3.0},
			wantFields: []string{"letterType"},
		},
		{
			name:       "extra field",
			input:      map[string]interface{}{"loanType": "7A", "letterType": "APP", "other": true},
			wantFields: []string{"other"},
		},
		{
			name: "nested required",
			input: map[string]interface{}{
				"loanType": "7A", "letterType": "APP",
				"record": map[string]interface{}{"vendor": map[string]interface{}{}},
			},
			wantFields: []string{"record.loan"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := ValidateInput(tt.input, testSchema)
			assert.Equal(t, tt.wantValid, res.Valid)
			for _, f := range tt.wantFields {
				assert.True(t, res.HasErrors(f), "expected error on %s, got %v", f, res.GetErrorMessages())
			}
			assert.Len(t, res.Errors, len(tt.wantFields))
		})
	}
}

func TestGetSchemaFromJSON_Invalid(t *testing.T) {
	_, err := GetSchemaFromJSON("{")
	require.Error(t, err)
	assert.Panics(t, func() { MustSchema("{") })
}

func TestValidateEmail(t *testing.T) {
	assert.True(t, ValidateEmail("mark@hill-valuation.com"))
	assert.False(t, ValidateEmail("mark@"))
	assert.False(t, ValidateEmail(""))
}
