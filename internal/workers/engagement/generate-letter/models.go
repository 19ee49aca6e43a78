// internal/workers/engagement/generate-letter/models.go
package generateletter

import "encoding/json"

// Input carries either a single record or a dual record in the persisted
// JSON shape.
type Input struct {
	Record     json.RawMessage `json:"record,omitempty"`
	DualRecord json.RawMessage `json:"dualRecord,omitempty"`
	OutputName string          `json:"outputName,omitempty"`
}

type Document struct {
	RequestID    string   `json:"requestId"`
	LetterType   string   `json:"letterType"`
	Path         string   `json:"path"`
	Replacements int      `json:"replacements"`
	Missing      []string `json:"missing,omitempty"`
}

type Output struct {
	// RequestID is the id of the first written letter.
	RequestID string     `json:"requestId"`
	LoanName  string     `json:"loanName"`
	Documents []Document `json:"documents"`
	// Failures lists the side that failed when only one letter of a dual
	// record was written.
	Failures []string `json:"failures,omitempty"`
}
