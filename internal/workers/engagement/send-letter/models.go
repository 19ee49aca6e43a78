// internal/workers/engagement/send-letter/models.go
package sendletter

import "time"

type Input struct {
	DocumentPath string `json:"documentPath"`
	VendorEmail  string `json:"vendorEmail"`
	LoanName     string `json:"loanName"`
	LetterType   string `json:"letterType"`
	RequestID    string `json:"requestId,omitempty"`
}

type Output struct {
	MessageID string    `json:"messageId"`
	EventID   string    `json:"eventId,omitempty"`
	SentAt    time.Time `json:"sentAt"`
}
