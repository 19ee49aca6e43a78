// internal/models/engagement.go
package models

import "strings"

// LoanType is the SBA loan program a letter is issued under.
type LoanType string

const (
	LoanType7A  LoanType = "7A"
	LoanType504 LoanType = "504"
	LoanTypeCC  LoanType = "CC"
)

// LetterType is the kind of engagement. Values are stored upper-cased but
// otherwise as entered, so aliases such as APPRAISAL survive persistence.
type LetterType string

const (
	LetterAppraisal     LetterType = "APP"
	LetterEnvironmental LetterType = "ENV"
	LetterSecondary     LetterType = "SEC"
	LetterSingleFamily  LetterType = "SFR"
	LetterPhase1        LetterType = "PHASE 1"
	LetterPhase2        LetterType = "PHASE 2"

	// LetterDual marks collection for the paired appraisal/environmental flow.
	LetterDual LetterType = "DUAL"
)

var letterAliases = map[LetterType]LetterType{
	"APPRAISAL":     LetterAppraisal,
	"ENVIRONMENTAL": LetterEnvironmental,
	"SECONDARY":     LetterSecondary,
}

// NormalizeLoanType trims and upper-cases a loan type.
func NormalizeLoanType(s string) LoanType {
	return LoanType(strings.ToUpper(strings.TrimSpace(s)))
}

// NormalizeLetterType trims and upper-cases a letter type.
func NormalizeLetterType(s string) LetterType {
	return LetterType(strings.ToUpper(strings.TrimSpace(s)))
}

// Canonical folds aliases onto their short form.
func (l LetterType) Canonical() LetterType {
	up := NormalizeLetterType(string(l))
	if c, ok := letterAliases[up]; ok {
		return c
	}
	return up
}

func (l LetterType) IsSecondary() bool {
	return l.Canonical() == LetterSecondary
}

// Vendor is the canonical vendor sub-record.
type Vendor struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Company   string `json:"company"`
	Email     string `json:"email"`
	Type      string `json:"type"`
	Region    string `json:"region"`
}

// Dates carries the letter date, the promised delivery date and, in the dual
// flow, the fee for that side.
type Dates struct {
	CurrentDate  string `json:"current_date"`
	DeliveryDate string `json:"delivery_date"`
	Fee          string `json:"fee,omitempty"`
}

type Loan struct {
	LoanName   string `json:"loan_name"`
	LoanNumber string `json:"loan_number"`
	CDCCompany string `json:"cdc_company"`
}

type Property struct {
	PropertyAddress      string `json:"property_address"`
	PropertyType         string `json:"property_type"`
	Sqft                 string `json:"sqft"`
	Fee                  string `json:"fee,omitempty"`
	PropertyContactName  string `json:"property_contact_name"`
	PropertyContactPhone string `json:"property_contact_phone"`
	ItemToSend           string `json:"item_to_send"`
}

// Values a letter prints when a record never set the field.
const (
	DefaultCDCCompany = "N/A"
	DefaultItemToSend = "TBD"
)

// EngagementRecord holds everything needed to fill one letter.
type EngagementRecord struct {
	LoanType   LoanType   `json:"loan_type"`
	LetterType LetterType `json:"letter_type"`
	Vendor     Vendor     `json:"vendor"`
	Dates      Dates      `json:"dates"`
	Loan       Loan       `json:"loan"`
	Property   Property   `json:"property"`
}

// NewEngagementRecord returns a record carrying the field defaults. Decoding
// into it keeps a default only where the key is absent.
func NewEngagementRecord() *EngagementRecord {
	return &EngagementRecord{
		Loan:     Loan{CDCCompany: DefaultCDCCompany},
		Property: Property{ItemToSend: DefaultItemToSend},
	}
}

// NormalizeTypes upper-cases the loan and letter types in place.
func (r *EngagementRecord) NormalizeTypes() {
	r.LoanType = NormalizeLoanType(string(r.LoanType))
	r.LetterType = NormalizeLetterType(string(r.LetterType))
}

// EngagementSide is one half of a dual engagement.
type EngagementSide struct {
	LetterType LetterType `json:"letter_type"`
	Vendor     Vendor     `json:"vendor"`
	Dates      Dates      `json:"dates"`
}

type SharedDetails struct {
	Loan     Loan     `json:"loan"`
	Property Property `json:"property"`
}

// DualEngagementRecord pairs an appraisal and an environmental engagement
// over the same loan and property.
type DualEngagementRecord struct {
	LoanType      LoanType       `json:"loan_type"`
	Appraisal     EngagementSide `json:"appraisal"`
	Environmental EngagementSide `json:"environmental"`
	Shared        SharedDetails  `json:"shared"`
}

func NewDualEngagementRecord() *DualEngagementRecord {
	return &DualEngagementRecord{
		Shared: SharedDetails{
			Loan:     Loan{CDCCompany: DefaultCDCCompany},
			Property: Property{ItemToSend: DefaultItemToSend},
		},
	}
}

// NormalizeTypes upper-cases the loan type and both side letter types.
func (d *DualEngagementRecord) NormalizeTypes() {
	d.LoanType = NormalizeLoanType(string(d.LoanType))
	d.Appraisal.LetterType = NormalizeLetterType(string(d.Appraisal.LetterType))
	d.Environmental.LetterType = NormalizeLetterType(string(d.Environmental.LetterType))
}

// Split expands the dual record into two independent single records. Each
// side gets its own copy of the shared property with that side's fee merged
// in; the receiver is not modified.
func (d *DualEngagementRecord) Split() (appraisal, environmental EngagementRecord) {
	appraisal = d.side(LetterAppraisal, d.Appraisal)
	environmental = d.side(LetterEnvironmental, d.Environmental)
	return appraisal, environmental
}

func (d *DualEngagementRecord) side(letterType LetterType, s EngagementSide) EngagementRecord {
	property := d.Shared.Property
	if s.Dates.Fee != "" {
		property.Fee = s.Dates.Fee
	}
	return EngagementRecord{
		LoanType:   d.LoanType,
		LetterType: letterType,
		Vendor:     s.Vendor,
		Dates:      s.Dates,
		Loan:       d.Shared.Loan,
		Property:   property,
	}
}
