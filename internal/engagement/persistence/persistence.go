// Package persistence reads and writes engagement records as JSON files.
package persistence

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"engagement-letters/internal/engagement/templates"
	"engagement-letters/internal/models"
)

var ErrPersistence = errors.New("PERSISTENCE_ERROR")

// Error reports a record file that could not be read, parsed or written.
type Error struct {
	Path string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %v", e.Path, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Is(target error) bool {
	return target == ErrPersistence
}

// Record is a decoded file: exactly one of Single and Dual is set.
type Record struct {
	Single *models.EngagementRecord
	Dual   *models.DualEngagementRecord
}

func (r *Record) IsDual() bool {
	return r.Dual != nil
}

// LoanName returns the loan name of whichever record is set.
func (r *Record) LoanName() string {
	switch {
	case r.Dual != nil:
		return r.Dual.Shared.Loan.LoanName
	case r.Single != nil:
		return r.Single.Loan.LoanName
	}
	return ""
}

// IsDualPayload reports whether data is shaped as a dual record, i.e. has
// both an appraisal and an environmental key.
func IsDualPayload(data []byte) bool {
	var keys map[string]json.RawMessage
	if err := json.Unmarshal(data, &keys); err != nil {
		return false
	}
	_, app := keys["appraisal"]
	_, env := keys["environmental"]
	return app && env
}

// Decode validates and decodes a single or dual record. Absent cdc_company
// and item_to_send keys take their defaults and the types are upper-cased.
func Decode(data []byte) (*Record, error) {
	if IsDualPayload(data) {
		if err := validate(dualSchema, data); err != nil {
			return nil, err
		}
		d := models.NewDualEngagementRecord()
		if err := json.Unmarshal(data, d); err != nil {
			return nil, err
		}
		d.NormalizeTypes()
		return &Record{Dual: d}, nil
	}

	if err := validate(singleSchema, data); err != nil {
		return nil, err
	}
	s := models.NewEngagementRecord()
	if err := json.Unmarshal(data, s); err != nil {
		return nil, err
	}
	s.NormalizeTypes()
	return &Record{Single: s}, nil
}

// Load reads and decodes the record file at path.
func Load(path string) (*Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &Error{Path: path, Err: err}
	}
	rec, err := Decode(data)
	if err != nil {
		return nil, &Error{Path: path, Err: err}
	}
	return rec, nil
}

// Encode renders v as two-space indented JSON.
func Encode(v interface{}) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Save writes v to path.
func Save(path string, v interface{}) error {
	data, err := Encode(v)
	if err != nil {
		return &Error{Path: path, Err: err}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return &Error{Path: path, Err: err}
	}
	return nil
}

// SingleFileName is "{loan_name}_{LETTER_TYPE}_data.json".
func SingleFileName(rec *models.EngagementRecord) string {
	return fmt.Sprintf("%s_%s_data.json", templates.SafeName(rec.Loan.LoanName), models.NormalizeLetterType(string(rec.LetterType)))
}

// DualFileName is "{loan_name}_dual_data.json".
func DualFileName(rec *models.DualEngagementRecord) string {
	return fmt.Sprintf("%s_dual_data.json", templates.SafeName(rec.Shared.Loan.LoanName))
}

// SaveSingle writes rec into dir and returns the file path.
func SaveSingle(dir string, rec *models.EngagementRecord) (string, error) {
	path := filepath.Join(dir, SingleFileName(rec))
	return path, Save(path, rec)
}

// SaveDual writes rec into dir and returns the file path.
func SaveDual(dir string, rec *models.DualEngagementRecord) (string, error) {
	path := filepath.Join(dir, DualFileName(rec))
	return path, Save(path, rec)
}

// ListJSON returns the .json files directly inside dir, sorted.
func ListJSON(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, &Error{Path: dir, Err: err}
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".json") {
			continue
		}
		out = append(out, filepath.Join(dir, e.Name()))
	}
	return out, nil
}
