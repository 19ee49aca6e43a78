// internal/workers/engagement/compute-delivery-date/models.go
package computedeliverydate

type Input struct {
	LetterType string `json:"letterType"`
	Timeline   string `json:"timeline,omitempty"`
}

type Output struct {
	CurrentDate   string `json:"currentDate"`
	DeliveryDate  string `json:"deliveryDate"`
	DurationKind  string `json:"durationKind,omitempty"` // days, weeks or business_days
	DurationValue int    `json:"durationValue,omitempty"`
	Malformed     bool   `json:"malformed"`
}
