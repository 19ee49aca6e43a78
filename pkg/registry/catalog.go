// pkg/registry/catalog.go
package registry

// Default is the catalog of the engagement-letter workers.
func Default() *ActivityRegistry {
	return &ActivityRegistry{
		Version:     "1.0.0",
		LastUpdated: "2024-11-01",
		Activities: []Activity{
			{
				ID:          "compute-delivery-date",
				DisplayName: "Compute Delivery Date",
				Description: "Computes the current and delivery dates from a timeline such as '10 bds'",
				Category:    "engagement",
				Version:     "1.0.0",
				TaskType:    "compute-delivery-date",
				Inputs:      []string{"letterType", "timeline"},
				Outputs:     []string{"currentDate", "deliveryDate", "durationKind", "durationValue", "malformed"},
				ErrorCodes:  []string{"VALIDATION_FAILED"},
				Timeout:     "10s",
				Retries:     3,
			},
			{
				ID:          "resolve-vendor",
				DisplayName: "Resolve Vendor",
				Description: "Looks a vendor up by type and name in the vendor dataset",
				Category:    "engagement",
				Version:     "1.0.0",
				TaskType:    "resolve-vendor",
				Inputs:      []string{"vendorType", "firstName", "lastName"},
				Outputs:     []string{"resolved", "vendor", "outcome", "matches", "needsLastName"},
				ErrorCodes:  []string{"DATASET_UNAVAILABLE", "VALIDATION_FAILED"},
				Timeout:     "10s",
				Retries:     3,
			},
			{
				ID:          "select-template",
				DisplayName: "Select Template",
				Description: "Maps loan and letter type onto a template file",
				Category:    "engagement",
				Version:     "1.0.0",
				TaskType:    "select-template",
				Inputs:      []string{"loanType", "letterType"},
				Outputs:     []string{"templateId", "templateFile", "exists", "displayName", "available"},
				ErrorCodes:  []string{"TEMPLATE_NOT_FOUND", "VALIDATION_FAILED"},
				Timeout:     "10s",
				Retries:     3,
			},
			{
				ID:          "generate-letter",
				DisplayName: "Generate Letter",
				Description: "Fills the template for a single or dual record and writes the letters",
				Category:    "engagement",
				Version:     "1.0.0",
				TaskType:    "generate-letter",
				Inputs:      []string{"record", "dualRecord", "outputName"},
				Outputs:     []string{"requestId", "loanName", "documents", "failures"},
				ErrorCodes:  []string{"TEMPLATE_NOT_FOUND", "RECORD_VALIDATION_FAILED", "DOCUMENT_WRITE_FAILED"},
				Timeout:     "60s",
				Retries:     2,
			},
			{
				ID:          "send-letter",
				DisplayName: "Send Letter",
				Description: "Emails a generated letter to the vendor and publishes a letter.sent event",
				Category:    "notification",
				Version:     "1.0.0",
				TaskType:    "send-letter",
				Inputs:      []string{"documentPath", "vendorEmail", "loanName", "letterType", "requestId"},
				Outputs:     []string{"messageId", "eventId", "sentAt"},
				ErrorCodes:  []string{"NOTIFICATION_SEND_FAILED", "VALIDATION_FAILED"},
				Timeout:     "30s",
				Retries:     3,
				Tags:        []string{"ses", "sns"},
			},
		},
	}
}
