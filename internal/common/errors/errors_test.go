package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStandardError_IsMatchesByCode(t *testing.T) {
	err := fmt.Errorf("loading: %w", NewDatasetUnavailableError("vendors.csv", stderrors.New("no such file")))

	assert.True(t, stderrors.Is(err, &StandardError{Code: ErrCodeDatasetUnavailable}))
	assert.False(t, stderrors.Is(err, &StandardError{Code: ErrCodeVendorNotFound}))
}

func TestStandardError_UnwrapsCause(t *testing.T) {
	cause := stderrors.New("disk full")
	err := NewDocumentWriteFailedError("out/a.docx", cause)

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "DOCUMENT_WRITE_FAILED")
}

func TestConvertToBPMNError(t *testing.T) {
	tests := []struct {
		name        string
		err         *StandardError
		wantCode    string
		wantRetries int
	}{
		{"template missing", NewTemplateNotFoundError("t/7A.docx", nil), "TEMPLATE_NOT_FOUND", 0},
		{"dataset unavailable", NewDatasetUnavailableError("db", stderrors.New("x")), "DATASET_UNAVAILABLE", 3},
		{"notification", NewNotificationSendFailedError("email", stderrors.New("x")), "NOTIFICATION_SEND_FAILED", 3},
		{"unknown code", &StandardError{Code: "SOMETHING_ELSE"}, "SOMETHING_ELSE", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bpmn := ConvertToBPMNError(tt.err)
			assert.Equal(t, tt.wantCode, bpmn.Code)
			assert.Equal(t, tt.wantRetries, bpmn.Retries)

			vars := bpmn.ToErrorVariables()
			assert.Equal(t, tt.wantCode, vars["errorCode"])
			assert.Equal(t, string(tt.err.Code), vars["originalErrorCode"])
		})
	}
}

func TestAsStandardError(t *testing.T) {
	std := NewMissingFieldError([]string{"loan.loan_name"})
	wrapped := fmt.Errorf("record: %w", std)

	got := AsStandardError(wrapped)
	require.NotNil(t, got)
	assert.Equal(t, ErrCodeMissingField, got.Code)

	plain := AsStandardError(stderrors.New("boom"))
	assert.Equal(t, ErrCodeInternal, plain.Code)
	assert.Equal(t, "boom", plain.Details)
}

func TestGetErrorCategory(t *testing.T) {
	tests := []struct {
		code ErrorCode
		want string
	}{
		{ErrCodeTemplateNotFound, "TEMPLATE"},
		{ErrCodeVendorAmbiguous, "VENDOR"},
		{ErrCodeDatasetUnavailable, "VENDOR"},
		{ErrCodeDocumentWriteFailed, "STORAGE"},
		{ErrCodeMalformedDuration, "VALIDATION"},
		{ErrCodeNotificationSendFailed, "NOTIFICATION"},
		{ErrCodeWorkflowEngine, "WORKFLOW"},
		{ErrCodeInternal, "OTHER"},
	}

	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			assert.Equal(t, tt.want, GetErrorCategory(tt.code))
		})
	}
}
