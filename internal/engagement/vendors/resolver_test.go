package vendors

import (
	"errors"
	"testing"

	"engagement-letters/internal/common/logger"
	"engagement-letters/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testDataset() *Dataset {
	return NewDataset("test", []Row{
		{First: "Mark", Last: "Prottas", Company: "CBRE", Email: "mark.prottas@cbre.com", Type: "App", Region: "Bay Area"},
		{First: "Mark", Last: "Smith", Company: "Colliers", Email: "msmith@colliers.com", Type: "App"},
		{First: "Maria", Last: "Lopez", Company: "ValueCo", Email: "maria@valueco.com", Type: "App, SFR"},
		{First: "Darrin", Last: "Domingo", Company: "EnviroCo", Email: "darrin@enviro.co", Type: "Env"},
		{First: "Kim", Last: "Park", Company: "ReviewCo", Email: "kim@review.co", Type: "Sec"},
	})
}

func TestResolver_Resolve(t *testing.T) {
	r := NewResolver(testDataset(), logger.NewTestLogger(t))

	tests := []struct {
		name      string
		query     Query
		wantFirst string
		wantLast  string
		wantErr   error
		refined   bool
	}{
		{
			name:      "single first-name match",
			query:     Query{VendorType: "ENV", FirstName: "darrin"},
			wantFirst: "Darrin",
			wantLast:  "Domingo",
		},
		{
			name:    "type filter excludes other vendor types",
			query:   Query{VendorType: "APP", FirstName: "Darrin"},
			wantErr: ErrVendorNotFound,
		},
		{
			name:      "phase letters look up environmental vendors",
			query:     Query{VendorType: "Phase 1", FirstName: "darr"},
			wantFirst: "Darrin",
		},
		{
			name:      "alias matches like the short form",
			query:     Query{VendorType: "appraisal", FirstName: "maria"},
			wantFirst: "Maria",
		},
		{
			name:      "single family matches multi-type rows",
			query:     Query{VendorType: "SFR", FirstName: "ma"},
			wantFirst: "Maria",
		},
		{
			name:    "ambiguous first name needs last name",
			query:   Query{VendorType: "APP", FirstName: "Mark"},
			wantErr: ErrVendorAmbiguous,
		},
		{
			name:      "last name narrows to one",
			query:     Query{VendorType: "APP", FirstName: "Mark", LastName: "prot"},
			wantFirst: "Mark",
			wantLast:  "Prottas",
		},
		{
			name:    "last name matches none",
			query:   Query{VendorType: "APP", FirstName: "Mark", LastName: "Jones"},
			wantErr: ErrVendorNotFound,
		},
		{
			name:    "last name still matches several",
			query:   Query{VendorType: "APP", FirstName: "Mar", LastName: "s"},
			wantErr: ErrVendorAmbiguous,
			refined: true,
		},
		{
			name:    "manual entry keyword",
			query:   Query{VendorType: "APP", FirstName: "na"},
			wantErr: ErrManualEntry,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := r.Resolve(tt.query)
			if tt.wantErr != nil {
				require.Error(t, err)
				assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
				var amb *AmbiguousError
				if errors.As(err, &amb) {
					assert.Equal(t, tt.refined, amb.Refined)
					assert.GreaterOrEqual(t, len(amb.Matches), 2)
				}
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantFirst, got.FirstName)
			if tt.wantLast != "" {
				assert.Equal(t, tt.wantLast, got.LastName)
			}
		})
	}
}

func TestResolver_ReshapesRow(t *testing.T) {
	r := NewResolver(testDataset(), nil)

	got, err := r.Resolve(Query{VendorType: "APP", FirstName: "Mark", LastName: "Smith"})
	require.NoError(t, err)
	assert.Equal(t, models.Vendor{
		FirstName: "Mark",
		LastName:  "Smith",
		Company:   "Colliers",
		Email:     "msmith@colliers.com",
		Type:      "App",
		Region:    "N/A",
	}, got)

	got, err = r.Resolve(Query{VendorType: "APP", FirstName: "Mark", LastName: "Prottas"})
	require.NoError(t, err)
	assert.Equal(t, "Bay Area", got.Region)
}

func TestResolver_Idempotent(t *testing.T) {
	r := NewResolver(testDataset(), nil)
	q := Query{VendorType: "ENV", FirstName: "Darrin"}

	first, err1 := r.Resolve(q)
	second, err2 := r.Resolve(q)
	assert.Equal(t, first, second)
	assert.Equal(t, err1, err2)
}

func TestResolver_NoDataset(t *testing.T) {
	r := NewResolver(nil, nil)

	_, err := r.Resolve(Query{VendorType: "APP", FirstName: "Mark"})
	assert.ErrorIs(t, err, ErrDatasetUnavailable)
	assert.Equal(t, OutcomeUnavailable, Outcome(err))

	// manual entry is honored before the dataset is consulted
	_, err = r.Resolve(Query{VendorType: "APP", FirstName: "NA"})
	assert.ErrorIs(t, err, ErrManualEntry)
}

func TestOutcome(t *testing.T) {
	assert.Equal(t, OutcomeResolved, Outcome(nil))
	assert.Equal(t, OutcomeManual, Outcome(ErrManualEntry))
	assert.Equal(t, OutcomeAmbiguous, Outcome(&AmbiguousError{}))
	assert.Equal(t, OutcomeNotFound, Outcome(ErrVendorNotFound))
}

func TestLookupType(t *testing.T) {
	assert.Equal(t, "ENV", LookupType("Phase 2"))
	assert.Equal(t, "APP", LookupType("Appraisal"))
	assert.Equal(t, "SEC", LookupType("sec"))
}

func TestDataset_IsImmutable(t *testing.T) {
	rows := []Row{{First: "A"}}
	ds := NewDataset("x", rows)
	rows[0].First = "B"

	out := ds.Rows()
	out[0].First = "C"

	assert.Equal(t, "A", ds.Rows()[0].First)
	assert.Equal(t, 1, ds.Len())
}
