package vendors

import (
	"errors"
	"fmt"
	"strings"

	"engagement-letters/internal/common/logger"
	"engagement-letters/internal/common/metrics"
	"engagement-letters/internal/models"
)

var (
	// ErrManualEntry means the caller asked to skip the lookup.
	ErrManualEntry     = errors.New("MANUAL_ENTRY")
	ErrVendorNotFound  = errors.New("VENDOR_NOT_FOUND")
	ErrVendorAmbiguous = errors.New("VENDOR_AMBIGUOUS")
)

// ManualEntryKeyword is typed in place of a first name to skip the lookup.
const ManualEntryKeyword = "NA"

// DefaultRegion fills vendors whose dataset row has no region.
const DefaultRegion = "N/A"

// Lookup outcomes, also used as the vendor_lookups_total label.
const (
	OutcomeResolved    = "resolved"
	OutcomeNotFound    = "not_found"
	OutcomeAmbiguous   = "ambiguous"
	OutcomeManual      = "manual"
	OutcomeUnavailable = "dataset_unavailable"
)

// AmbiguousError carries the rows that still match. Refined reports whether a
// last name was already applied; if not, the caller should ask for one.
type AmbiguousError struct {
	Matches []Row
	Refined bool
}

func (e *AmbiguousError) Error() string {
	if e.Refined {
		return fmt.Sprintf("%d vendors match first and last name", len(e.Matches))
	}
	return fmt.Sprintf("%d vendors match first name; last name required", len(e.Matches))
}

func (e *AmbiguousError) Is(target error) bool {
	return target == ErrVendorAmbiguous
}

// Query is a vendor lookup. VendorType is a letter type; aliases and the
// phase letters are folded onto the dataset's type values.
type Query struct {
	VendorType string
	FirstName  string
	LastName   string
}

// Resolver looks vendors up in a fixed dataset snapshot.
type Resolver struct {
	dataset *Dataset
	logger  logger.Logger
}

func NewResolver(dataset *Dataset, log logger.Logger) *Resolver {
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	return &Resolver{
		dataset: dataset,
		logger:  log.WithFields(map[string]interface{}{"component": "vendors"}),
	}
}

// Dataset returns the snapshot the resolver reads.
func (r *Resolver) Dataset() *Dataset {
	return r.dataset
}

// LookupType maps a letter type to the value matched against the dataset's
// Type column.
func LookupType(letterType string) string {
	switch lt := models.LetterType(letterType).Canonical(); lt {
	case models.LetterPhase1, models.LetterPhase2:
		return string(models.LetterEnvironmental)
	default:
		return string(lt)
	}
}

// Resolve finds exactly one vendor for q. It returns ErrManualEntry,
// ErrVendorNotFound, an *AmbiguousError, or an error wrapping
// ErrDatasetUnavailable when no vendor is chosen. Repeated calls over the
// same snapshot give the same answer.
func (r *Resolver) Resolve(q Query) (models.Vendor, error) {
	vendor, outcome, err := r.resolve(q)
	metrics.VendorLookups.WithLabelValues(outcome).Inc()

	fields := map[string]interface{}{
		"vendorType": q.VendorType,
		"firstName":  q.FirstName,
		"outcome":    outcome,
	}
	if err != nil {
		r.logger.Debug("Vendor lookup unresolved", fields)
	} else {
		r.logger.Debug("Vendor resolved", fields)
	}
	return vendor, err
}

// Outcome classifies an error returned by Resolve.
func Outcome(err error) string {
	switch {
	case err == nil:
		return OutcomeResolved
	case errors.Is(err, ErrManualEntry):
		return OutcomeManual
	case errors.Is(err, ErrVendorAmbiguous):
		return OutcomeAmbiguous
	case errors.Is(err, ErrDatasetUnavailable):
		return OutcomeUnavailable
	default:
		return OutcomeNotFound
	}
}

func (r *Resolver) resolve(q Query) (models.Vendor, string, error) {
	first := strings.TrimSpace(q.FirstName)
	if strings.EqualFold(first, ManualEntryKeyword) {
		return models.Vendor{}, OutcomeManual, ErrManualEntry
	}
	if r.dataset == nil {
		return models.Vendor{}, OutcomeUnavailable, fmt.Errorf("%w: no dataset loaded", ErrDatasetUnavailable)
	}

	lookupType := LookupType(q.VendorType)
	var matches []Row
	for _, row := range r.dataset.rows {
		if containsFold(row.Type, lookupType) && containsFold(row.First, first) {
			matches = append(matches, row)
		}
	}

	switch len(matches) {
	case 0:
		return models.Vendor{}, OutcomeNotFound, fmt.Errorf("%w: no %s vendor with first name %q", ErrVendorNotFound, lookupType, first)
	case 1:
		return toVendor(matches[0]), OutcomeResolved, nil
	}

	last := strings.TrimSpace(q.LastName)
	if last == "" {
		return models.Vendor{}, OutcomeAmbiguous, &AmbiguousError{Matches: matches}
	}

	var refined []Row
	for _, row := range matches {
		if containsFold(row.Last, last) {
			refined = append(refined, row)
		}
	}

	switch len(refined) {
	case 0:
		return models.Vendor{}, OutcomeNotFound, fmt.Errorf("%w: no %s vendor named %q %q", ErrVendorNotFound, lookupType, first, last)
	case 1:
		return toVendor(refined[0]), OutcomeResolved, nil
	default:
		return models.Vendor{}, OutcomeAmbiguous, &AmbiguousError{Matches: refined, Refined: true}
	}
}

func toVendor(row Row) models.Vendor {
	region := row.Region
	if region == "" {
		region = DefaultRegion
	}
	return models.Vendor{
		FirstName: row.First,
		LastName:  row.Last,
		Company:   row.Company,
		Email:     row.Email,
		Type:      row.Type,
		Region:    region,
	}
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}
