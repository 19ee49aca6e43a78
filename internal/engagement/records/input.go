// internal/engagement/records/input.go
package records

import (
	"context"
	"strings"
)

// Field names used in input requests.
const (
	FieldLookupFirstName = "lookup.first_name"
	FieldLookupLastName  = "lookup.last_name"

	FieldVendorFirstName = "vendor.first_name"
	FieldVendorLastName  = "vendor.last_name"
	FieldVendorCompany   = "vendor.company"
	FieldVendorEmail     = "vendor.email"
	FieldVendorType      = "vendor.type"
	FieldVendorRegion    = "vendor.region"

	FieldTimeline     = "dates.timeline"
	FieldCurrentDate  = "dates.current_date"
	FieldDeliveryDate = "dates.delivery_date"
	FieldFee          = "dates.fee"

	FieldLoanName   = "loan.loan_name"
	FieldLoanNumber = "loan.loan_number"
	FieldCDCCompany = "loan.cdc_company"

	FieldPropertyAddress      = "property.property_address"
	FieldPropertyType         = "property.property_type"
	FieldSqft                 = "property.sqft"
	FieldPropertyFee          = "property.fee"
	FieldPropertyContactName  = "property.property_contact_name"
	FieldPropertyContactPhone = "property.property_contact_phone"
	FieldItemToSend           = "property.item_to_send"
)

// Sections group the requests of the dual flow.
const (
	SectionAppraisal     = "appraisal"
	SectionEnvironmental = "environmental"
)

// Request asks for one value. Heading, when set, names the group the field
// belongs to; Section distinguishes the two sides of a dual letter.
type Request struct {
	Field    string
	Section  string
	Heading  string
	Prompt   string
	Default  string
	Required bool
}

// Key is the request's lookup key: "section.field" or just the field.
func (r Request) Key() string {
	if r.Section == "" {
		return r.Field
	}
	return r.Section + "." + r.Field
}

// InputProvider answers input requests; the terminal prompt and headless
// callers both implement it.
type InputProvider interface {
	Ask(ctx context.Context, req Request) (string, error)
}

// Notifier receives operator-facing notices such as lookup fallbacks.
type Notifier interface {
	Notify(message string)
}

type NotifierFunc func(message string)

func (f NotifierFunc) Notify(message string) { f(message) }

// StaticInput answers from a fixed map. A request is looked up by Key, then
// by Field; unanswered requests get their default.
type StaticInput map[string]string

func (s StaticInput) Ask(_ context.Context, req Request) (string, error) {
	if v, ok := s[req.Key()]; ok {
		return strings.TrimSpace(v), nil
	}
	if v, ok := s[req.Field]; ok {
		return strings.TrimSpace(v), nil
	}
	return req.Default, nil
}
