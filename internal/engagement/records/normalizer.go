// Package records assembles engagement records from pre-filled sources,
// vendor lookups, computed dates and operator input.
package records

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"engagement-letters/internal/common/logger"
	"engagement-letters/internal/engagement/dates"
	"engagement-letters/internal/engagement/vendors"
	"engagement-letters/internal/models"
)

// DefaultSecondaryFee is the fixed fee of a secondary review.
const DefaultSecondaryFee = "600"

type Options struct {
	Autofill     bool
	SecondaryFee string
}

// Sources holds pre-filled sub-records; a non-nil entry is used as is.
type Sources struct {
	Vendor   *models.Vendor
	Dates    *models.Dates
	Loan     *models.Loan
	Property *models.Property
}

type SideSources struct {
	Vendor *models.Vendor
	Dates  *models.Dates
}

type DualSources struct {
	Appraisal     SideSources
	Environmental SideSources
	Loan          *models.Loan
	Property      *models.Property
}

type Normalizer struct {
	input    InputProvider
	dates    *dates.Engine
	resolver *vendors.Resolver
	notifier Notifier
	opts     Options
	logger   logger.Logger
}

type Option func(*Normalizer)

// WithResolver enables vendor autofill against the resolver's dataset.
func WithResolver(r *vendors.Resolver) Option {
	return func(n *Normalizer) { n.resolver = r }
}

func WithNotifier(notifier Notifier) Option {
	return func(n *Normalizer) { n.notifier = notifier }
}

func WithLogger(log logger.Logger) Option {
	return func(n *Normalizer) { n.logger = log }
}

func New(input InputProvider, dateEngine *dates.Engine, opts Options, options ...Option) *Normalizer {
	if opts.SecondaryFee == "" {
		opts.SecondaryFee = DefaultSecondaryFee
	}
	n := &Normalizer{
		input:  input,
		dates:  dateEngine,
		opts:   opts,
		logger: logger.NewNoOpLogger(),
	}
	for _, o := range options {
		o(n)
	}
	n.logger = n.logger.WithFields(map[string]interface{}{"component": "records"})
	return n
}

// Build collects a single-letter record. Vendor, dates, loan and property
// are taken from src when present and collected otherwise.
func (n *Normalizer) Build(ctx context.Context, loanType, letterType string, src Sources) (*models.EngagementRecord, error) {
	rec := &models.EngagementRecord{
		LoanType:   models.NormalizeLoanType(loanType),
		LetterType: models.NormalizeLetterType(letterType),
	}
	var err error

	if rec.Vendor, err = n.vendor(ctx, rec.LetterType, src.Vendor, "", ""); err != nil {
		return nil, err
	}
	if rec.Dates, err = n.datesFor(ctx, rec.LetterType, src.Dates, "", ""); err != nil {
		return nil, err
	}
	if src.Loan != nil {
		rec.Loan = *src.Loan
	} else if rec.Loan, err = n.collectLoan(ctx, rec.LoanType, ""); err != nil {
		return nil, err
	}
	if src.Property != nil {
		rec.Property = *src.Property
	} else if rec.Property, err = n.collectProperty(ctx, rec.LetterType, false, ""); err != nil {
		return nil, err
	}

	n.logger.Debug("Record built", map[string]interface{}{
		"loanType":   rec.LoanType,
		"letterType": rec.LetterType,
		"loanName":   rec.Loan.LoanName,
	})
	return rec, nil
}

// BuildDual collects an appraisal side and an environmental side that share
// one loan and one property. Each side's fee is kept in its dates until the
// record is split.
func (n *Normalizer) BuildDual(ctx context.Context, loanType string, src DualSources) (*models.DualEngagementRecord, error) {
	rec := &models.DualEngagementRecord{
		LoanType:      models.NormalizeLoanType(loanType),
		Appraisal:     models.EngagementSide{LetterType: models.LetterAppraisal},
		Environmental: models.EngagementSide{LetterType: models.LetterEnvironmental},
	}
	var err error

	if rec.Appraisal.Vendor, err = n.vendor(ctx, models.LetterAppraisal, src.Appraisal.Vendor,
		SectionAppraisal, "Collecting Appraiser Information"); err != nil {
		return nil, err
	}
	if rec.Environmental.Vendor, err = n.vendor(ctx, models.LetterEnvironmental, src.Environmental.Vendor,
		SectionEnvironmental, "Collecting Environmental Consultant Information"); err != nil {
		return nil, err
	}
	if rec.Appraisal.Dates, err = n.datesFor(ctx, models.LetterAppraisal, src.Appraisal.Dates,
		SectionAppraisal, "Appraisal Delivery Timeline"); err != nil {
		return nil, err
	}
	if rec.Environmental.Dates, err = n.datesFor(ctx, models.LetterEnvironmental, src.Environmental.Dates,
		SectionEnvironmental, "Environmental Delivery Timeline"); err != nil {
		return nil, err
	}

	if src.Loan != nil {
		rec.Shared.Loan = *src.Loan
	} else if rec.Shared.Loan, err = n.collectLoan(ctx, rec.LoanType, "Loan Information"); err != nil {
		return nil, err
	}
	if src.Property != nil {
		rec.Shared.Property = *src.Property
	} else if rec.Shared.Property, err = n.collectProperty(ctx, models.LetterDual, true, "Property Information"); err != nil {
		return nil, err
	}

	if rec.Appraisal.Dates.Fee == "" {
		if rec.Appraisal.Dates.Fee, err = n.ask(ctx, Request{
			Field: FieldFee, Section: SectionAppraisal, Prompt: "Appraisal fee: $",
		}); err != nil {
			return nil, err
		}
	}
	if rec.Environmental.Dates.Fee == "" {
		if rec.Environmental.Dates.Fee, err = n.ask(ctx, Request{
			Field: FieldFee, Section: SectionEnvironmental, Prompt: "Environmental fee: $",
		}); err != nil {
			return nil, err
		}
	}
	return rec, nil
}

func (n *Normalizer) ask(ctx context.Context, req Request) (string, error) {
	v, err := n.input.Ask(ctx, req)
	if err != nil {
		return "", fmt.Errorf("collect %s: %w", req.Key(), err)
	}
	return strings.TrimSpace(v), nil
}

func (n *Normalizer) notify(msg string) {
	n.logger.Info(msg, nil)
	if n.notifier != nil {
		n.notifier.Notify(msg)
	}
}

func (n *Normalizer) vendor(ctx context.Context, letterType models.LetterType, pre *models.Vendor, section, heading string) (models.Vendor, error) {
	if pre != nil {
		return *pre, nil
	}
	if n.opts.Autofill && n.resolver != nil {
		return n.autofillVendor(ctx, letterType, section, heading)
	}
	return n.manualVendor(ctx, section, heading)
}

func (n *Normalizer) autofillVendor(ctx context.Context, letterType models.LetterType, section, heading string) (models.Vendor, error) {
	if n.resolver.Dataset() == nil {
		n.notify("Vendor database unavailable. Switching to manual entry.")
		return n.manualVendor(ctx, section, heading)
	}

	first, err := n.ask(ctx, Request{
		Field: FieldLookupFirstName, Section: section, Heading: heading,
		Prompt: "Enter vendor's first name (or 'NA' for manual entry)",
	})
	if err != nil {
		return models.Vendor{}, err
	}

	q := vendors.Query{VendorType: string(letterType), FirstName: first}
	v, err := n.resolver.Resolve(q)

	var amb *vendors.AmbiguousError
	if errors.As(err, &amb) && !amb.Refined {
		if q.LastName, err = n.ask(ctx, Request{
			Field: FieldLookupLastName, Section: section, Heading: heading,
			Prompt: "Multiple matches found. Enter last name",
		}); err != nil {
			return models.Vendor{}, err
		}
		v, err = n.resolver.Resolve(q)
	}

	switch vendors.Outcome(err) {
	case vendors.OutcomeResolved:
		return v, nil
	case vendors.OutcomeManual:
	case vendors.OutcomeAmbiguous:
		n.notify(fmt.Sprintf("Several vendors match '%s %s'. Switching to manual entry.", q.FirstName, q.LastName))
	case vendors.OutcomeUnavailable:
		n.notify(fmt.Sprintf("Error accessing vendor database: %v. Switching to manual entry.", err))
	default:
		name := q.FirstName
		if q.LastName != "" {
			name += " " + q.LastName
		}
		n.notify(fmt.Sprintf("No vendor found with name '%s'. Switching to manual entry.", name))
	}
	return n.manualVendor(ctx, section, heading)
}

func (n *Normalizer) manualVendor(ctx context.Context, section, heading string) (models.Vendor, error) {
	var v models.Vendor
	steps := []struct {
		dst *string
		req Request
	}{
		{&v.FirstName, Request{Field: FieldVendorFirstName, Prompt: "Vendor first name", Required: true}},
		{&v.LastName, Request{Field: FieldVendorLastName, Prompt: "Vendor last name"}},
		{&v.Company, Request{Field: FieldVendorCompany, Prompt: "Vendor company"}},
		{&v.Email, Request{Field: FieldVendorEmail, Prompt: "Vendor email"}},
		{&v.Type, Request{Field: FieldVendorType, Prompt: "Vendor type (App/Env/Sec/SFR)"}},
		{&v.Region, Request{Field: FieldVendorRegion, Prompt: "Vendor region (optional, press Enter to skip)", Default: vendors.DefaultRegion}},
	}
	for _, s := range steps {
		s.req.Section, s.req.Heading = section, heading
		val, err := n.ask(ctx, s.req)
		if err != nil {
			return models.Vendor{}, err
		}
		*s.dst = val
	}
	v.Type = strings.ToUpper(v.Type)
	if v.Region == "" {
		v.Region = vendors.DefaultRegion
	}
	return v, nil
}

func (n *Normalizer) datesFor(ctx context.Context, letterType models.LetterType, pre *models.Dates, section, heading string) (models.Dates, error) {
	if pre != nil {
		return *pre, nil
	}
	if letterType.IsSecondary() {
		d, _, _ := n.dates.ComputeFor(letterType, "")
		return d, nil
	}
	if !n.opts.Autofill {
		return n.manualDates(ctx, section, heading)
	}

	timeline, err := n.ask(ctx, Request{
		Field: FieldTimeline, Section: section, Heading: heading,
		Prompt: "Delivery timeline (e.g., '10 bds', '2 weeks', '5 days')",
	})
	if err != nil {
		return models.Dates{}, err
	}
	d, parsed, err := n.dates.ComputeFor(letterType, timeline)
	if err != nil {
		n.logger.Warn("Malformed delivery timeline", map[string]interface{}{
			"timeline": timeline,
			"using":    parsed.String(),
		})
		n.notify(fmt.Sprintf("Could not read a quantity from '%s'; using %s.", timeline, parsed))
	}
	return d, nil
}

func (n *Normalizer) manualDates(ctx context.Context, section, heading string) (models.Dates, error) {
	current, err := n.ask(ctx, Request{
		Field: FieldCurrentDate, Section: section, Heading: heading,
		Prompt: "Current date (M/D/YYYY)", Default: n.dates.Today(),
	})
	if err != nil {
		return models.Dates{}, err
	}
	delivery, err := n.ask(ctx, Request{
		Field: FieldDeliveryDate, Section: section, Heading: heading,
		Prompt: "Delivery date (M/D/YYYY or 'N/A')",
	})
	if err != nil {
		return models.Dates{}, err
	}
	return models.Dates{CurrentDate: current, DeliveryDate: delivery}, nil
}

func (n *Normalizer) collectLoan(ctx context.Context, loanType models.LoanType, heading string) (models.Loan, error) {
	var loan models.Loan
	var err error
	if loan.LoanName, err = n.ask(ctx, Request{Field: FieldLoanName, Heading: heading, Prompt: "Loan name", Required: true}); err != nil {
		return loan, err
	}
	if loan.LoanNumber, err = n.ask(ctx, Request{Field: FieldLoanNumber, Heading: heading, Prompt: "Loan number"}); err != nil {
		return loan, err
	}
	if loanType != models.LoanType504 {
		loan.CDCCompany = "N/A"
		return loan, nil
	}
	if loan.CDCCompany, err = n.ask(ctx, Request{Field: FieldCDCCompany, Heading: heading, Prompt: "CDC company"}); err != nil {
		return loan, err
	}
	return loan, nil
}

func (n *Normalizer) collectProperty(ctx context.Context, letterType models.LetterType, dual bool, heading string) (models.Property, error) {
	var p models.Property
	steps := []struct {
		dst *string
		req Request
	}{
		{&p.PropertyAddress, Request{Field: FieldPropertyAddress, Prompt: "Property address"}},
		{&p.PropertyType, Request{Field: FieldPropertyType, Prompt: "Property type"}},
		{&p.Sqft, Request{Field: FieldSqft, Prompt: "Square footage"}},
		{&p.PropertyContactName, Request{Field: FieldPropertyContactName, Prompt: "Property contact name"}},
		{&p.PropertyContactPhone, Request{Field: FieldPropertyContactPhone, Prompt: "Property contact phone"}},
		{&p.ItemToSend, Request{Field: FieldItemToSend, Prompt: "Item to send (or 'TBD')", Default: "TBD"}},
	}
	for _, s := range steps {
		s.req.Heading = heading
		val, err := n.ask(ctx, s.req)
		if err != nil {
			return p, err
		}
		*s.dst = val
	}
	if p.ItemToSend == "" {
		p.ItemToSend = "TBD"
	}

	switch {
	case letterType.IsSecondary():
		p.Fee = n.opts.SecondaryFee
	case !dual:
		fee, err := n.ask(ctx, Request{Field: FieldPropertyFee, Heading: heading, Prompt: "Fee: $"})
		if err != nil {
			return p, err
		}
		p.Fee = fee
	}
	return p, nil
}
