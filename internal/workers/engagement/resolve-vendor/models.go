// internal/workers/engagement/resolve-vendor/models.go
package resolvevendor

import "engagement-letters/internal/models"

type Input struct {
	VendorType string `json:"vendorType"`
	FirstName  string `json:"firstName"`
	LastName   string `json:"lastName,omitempty"`
}

// Output always completes the job. When Resolved is false the process routes
// to manual entry; NeedsLastName asks it to retry with a last name first.
type Output struct {
	Resolved      bool           `json:"resolved"`
	Vendor        *models.Vendor `json:"vendor,omitempty"`
	Outcome       string         `json:"outcome"`
	Matches       int            `json:"matches,omitempty"`
	NeedsLastName bool           `json:"needsLastName,omitempty"`
}
