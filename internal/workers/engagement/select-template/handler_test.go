package selecttemplate

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	apperrors "engagement-letters/internal/common/errors"
	"engagement-letters/internal/common/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createTestHandler(t *testing.T, requireTemplate bool) *Handler {
	t.Helper()
	dir := t.TempDir()
	for _, name := range []string{
		"7A - Phase 1 Engagement Letter.docx",
		"504 - Appraisal Engagement Letter.docx",
		"504 - Environmental Engagement Letter.docx",
		"~$504 - Appraisal Engagement Letter.docx",
	} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644))
	}
	return NewHandler(&Config{TemplateDir: dir, RequireTemplate: requireTemplate}, logger.NewTestLogger(t), nil)
}

func TestHandler_Execute(t *testing.T) {
	tests := []struct {
		name  string
		input *Input
		want  *Output
	}{
		{
			name:  "phase 1",
			input: &Input{LoanType: "7a", LetterType: "Phase 1"},
			want: &Output{
				TemplateID:   "7A - Phase 1 Engagement Letter",
				TemplateFile: "7A - Phase 1 Engagement Letter.docx",
				Exists:       true,
				DisplayName:  "Phase 1",
			},
		},
		{
			name:  "unknown letter type falls back to environmental",
			input: &Input{LoanType: "504", LetterType: "Unknown"},
			want: &Output{
				TemplateID:   "504 - Environmental Engagement Letter",
				TemplateFile: "504 - Environmental Engagement Letter.docx",
				Exists:       true,
				DisplayName:  "UNKNOWN",
			},
		},
		{
			name:  "missing lists available",
			input: &Input{LoanType: "CC", LetterType: "APP"},
			want: &Output{
				TemplateID:   "CC - Appraisal Engagement Letter",
				TemplateFile: "CC - Appraisal Engagement Letter.docx",
				DisplayName:  "Appraisal",
				Available: []string{
					"504 - Appraisal Engagement Letter.docx",
					"504 - Environmental Engagement Letter.docx",
					"7A - Phase 1 Engagement Letter.docx",
				},
			},
		},
	}

	h := createTestHandler(t, false)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := h.Execute(context.Background(), tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestHandler_Execute_RequireTemplate(t *testing.T) {
	h := createTestHandler(t, true)

	_, err := h.Execute(context.Background(), &Input{LoanType: "CC", LetterType: "APP"})
	require.Error(t, err)
	assert.ErrorIs(t, err, &apperrors.StandardError{Code: apperrors.ErrCodeTemplateNotFound})

	got, err := h.Execute(context.Background(), &Input{LoanType: "504", LetterType: "APP"})
	require.NoError(t, err)
	assert.True(t, got.Exists)
}
