// internal/engagement/substitution/tokens.go
package substitution

import (
	"strings"

	"engagement-letters/internal/models"
)

const (
	TokenDate                 = "{{date}}"
	TokenDeliveryDate         = "{{delivery_date}}"
	TokenContactFirstName     = "{{contact_first_name}}"
	TokenContactLastName      = "{{contact_last_name}}"
	TokenCompanyName          = "{{company_name}}"
	TokenContactEmail         = "{{contact_email}}"
	TokenLoanName             = "{{loan_name}}"
	TokenLoanNumber           = "{{loan_number}}"
	TokenCDCCompany           = "{{cdc_company}}"
	TokenPropertyAddress      = "{{property_address}}"
	TokenPropertyType         = "{{property_type}}"
	TokenSqft                 = "{{sqft}}"
	TokenFee                  = "{{fee}}"
	TokenPropertyContactName  = "{{property_contact_name}}"
	TokenPropertyContactPhone = "{{property_contact_phone}}"
	TokenItemToSend           = "{{item_to_send}}"
)

// Tokens is every recognized placeholder, in replacement order.
var Tokens = []string{
	TokenDate,
	TokenDeliveryDate,
	TokenContactFirstName,
	TokenContactLastName,
	TokenCompanyName,
	TokenContactEmail,
	TokenLoanName,
	TokenLoanNumber,
	TokenCDCCompany,
	TokenPropertyAddress,
	TokenPropertyType,
	TokenSqft,
	TokenFee,
	TokenPropertyContactName,
	TokenPropertyContactPhone,
	TokenItemToSend,
}

const (
	DefaultCDCCompany = models.DefaultCDCCompany
	DefaultItemToSend = models.DefaultItemToSend
)

// Values maps a token to the text that replaces it.
type Values map[string]string

type field struct {
	token string
	path  string
	value func(*models.EngagementRecord) string
}

var fields = []field{
	{TokenDate, "dates.current_date", func(r *models.EngagementRecord) string { return r.Dates.CurrentDate }},
	{TokenDeliveryDate, "dates.delivery_date", func(r *models.EngagementRecord) string { return r.Dates.DeliveryDate }},
	{TokenContactFirstName, "vendor.first_name", func(r *models.EngagementRecord) string { return r.Vendor.FirstName }},
	{TokenContactLastName, "vendor.last_name", func(r *models.EngagementRecord) string { return r.Vendor.LastName }},
	{TokenCompanyName, "vendor.company", func(r *models.EngagementRecord) string { return r.Vendor.Company }},
	{TokenContactEmail, "vendor.email", func(r *models.EngagementRecord) string { return r.Vendor.Email }},
	{TokenLoanName, "loan.loan_name", func(r *models.EngagementRecord) string { return r.Loan.LoanName }},
	{TokenLoanNumber, "loan.loan_number", func(r *models.EngagementRecord) string { return r.Loan.LoanNumber }},
	{TokenCDCCompany, "loan.cdc_company", func(r *models.EngagementRecord) string { return r.Loan.CDCCompany }},
	{TokenPropertyAddress, "property.property_address", func(r *models.EngagementRecord) string { return r.Property.PropertyAddress }},
	{TokenPropertyType, "property.property_type", func(r *models.EngagementRecord) string { return r.Property.PropertyType }},
	{TokenSqft, "property.sqft", func(r *models.EngagementRecord) string { return r.Property.Sqft }},
	{TokenFee, "property.fee", recordFee},
	{TokenPropertyContactName, "property.property_contact_name", func(r *models.EngagementRecord) string { return r.Property.PropertyContactName }},
	{TokenPropertyContactPhone, "property.property_contact_phone", func(r *models.EngagementRecord) string { return r.Property.PropertyContactPhone }},
	{TokenItemToSend, "property.item_to_send", func(r *models.EngagementRecord) string { return r.Property.ItemToSend }},
}

// recordFee prefers property.fee and falls back to dates.fee, which is where
// a dual-flow side keeps it until the merge.
func recordFee(r *models.EngagementRecord) string {
	if r.Property.Fee != "" {
		return r.Property.Fee
	}
	return r.Dates.Fee
}

// Flatten maps a record onto the placeholder tokens, value for value. The
// cdc_company and item_to_send defaults come from the record itself (see
// models.NewEngagementRecord), so a field that was explicitly left blank
// stays blank. A nil record flattens as a fresh one.
func Flatten(rec *models.EngagementRecord) Values {
	out := make(Values, len(fields))
	if rec == nil {
		rec = models.NewEngagementRecord()
	}
	for _, f := range fields {
		out[f.token] = f.value(rec)
	}
	return out
}

// MissingFields lists the record paths that are blank.
func MissingFields(rec *models.EngagementRecord) []string {
	if rec == nil {
		rec = models.NewEngagementRecord()
	}
	var missing []string
	for _, f := range fields {
		if strings.TrimSpace(f.value(rec)) == "" {
			missing = append(missing, f.path)
		}
	}
	return missing
}
