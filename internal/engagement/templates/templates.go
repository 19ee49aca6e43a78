// Package templates maps loan and letter types to Word templates on disk.
package templates

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"engagement-letters/internal/models"
)

var ErrTemplateNotFound = errors.New("TEMPLATE_NOT_FOUND")

// Extension of template and generated files.
const Extension = ".docx"

const fallbackSuffix = "Environmental Engagement Letter"

var suffixes = map[models.LetterType]string{
	models.LetterAppraisal:     "Appraisal Engagement Letter",
	models.LetterSingleFamily:  "Appraisal Engagement Letter",
	models.LetterSecondary:     "Appraisal Review Engagement Letter",
	models.LetterEnvironmental: "Environmental Engagement Letter",
	models.LetterPhase1:        "Phase 1 Engagement Letter",
	models.LetterPhase2:        "Phase 2 Engagement Letter",
}

var displayNames = map[models.LetterType]string{
	models.LetterAppraisal:     "Appraisal",
	models.LetterSecondary:     "Appraisal Review",
	models.LetterEnvironmental: "Environmental",
	models.LetterPhase1:        "Phase 1",
	models.LetterPhase2:        "Phase 2",
	models.LetterSingleFamily:  "Single Family Residence",
}

// Suffix returns the template name suffix for a letter type. Unknown types
// use the environmental template.
func Suffix(letterType models.LetterType) string {
	if s, ok := suffixes[letterType.Canonical()]; ok {
		return s
	}
	return fallbackSuffix
}

// DisplayName is the human name used in output file names. Unknown types are
// returned upper-cased as given.
func DisplayName(letterType models.LetterType) string {
	if d, ok := displayNames[letterType.Canonical()]; ok {
		return d
	}
	return string(models.NormalizeLetterType(string(letterType)))
}

// TemplateID is "{LOAN_TYPE} - {suffix}", e.g. "7A - Phase 1 Engagement Letter".
func TemplateID(loanType models.LoanType, letterType models.LetterType) string {
	return fmt.Sprintf("%s - %s", models.NormalizeLoanType(string(loanType)), Suffix(letterType))
}

// FileName is the template's file name within the template directory.
func FileName(loanType models.LoanType, letterType models.LetterType) string {
	return TemplateID(loanType, letterType) + Extension
}

// OutputFilename is the default name of a generated letter.
func OutputFilename(loanName string, letterType models.LetterType) string {
	return fmt.Sprintf("%s %s Engagement Letter%s", SafeName(loanName), DisplayName(letterType), Extension)
}

// SafeName replaces characters that cannot appear in a file name.
func SafeName(name string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|':
			return '-'
		}
		return r
	}, strings.TrimSpace(name))
}

// NotFoundError reports a missing template together with what is available.
type NotFoundError struct {
	TemplateID string
	Path       string
	Available  []string
}

func (e *NotFoundError) Error() string {
	available := "none"
	if len(e.Available) > 0 {
		available = strings.Join(e.Available, ", ")
	}
	return fmt.Sprintf("template not found: %s (available: %s)", e.Path, available)
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrTemplateNotFound
}

// Store is a directory of templates.
type Store struct {
	dir string
}

func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

func (s *Store) Dir() string {
	return s.dir
}

// Path returns where the template for the given types would live.
func (s *Store) Path(loanType models.LoanType, letterType models.LetterType) string {
	return filepath.Join(s.dir, FileName(loanType, letterType))
}

// Exists reports whether the template for the given types is present.
func (s *Store) Exists(loanType models.LoanType, letterType models.LetterType) bool {
	info, err := os.Stat(s.Path(loanType, letterType))
	return err == nil && !info.IsDir()
}

// Resolve returns the template path or a *NotFoundError.
func (s *Store) Resolve(loanType models.LoanType, letterType models.LetterType) (string, error) {
	path := s.Path(loanType, letterType)
	if s.Exists(loanType, letterType) {
		return path, nil
	}
	available, _ := s.List()
	return "", &NotFoundError{
		TemplateID: TemplateID(loanType, letterType),
		Path:       path,
		Available:  available,
	}
}

// List returns the sorted .docx file names in the directory, skipping Word
// lock files that start with "~". A missing directory lists as empty.
func (s *Store) List() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("list templates in %s: %w", s.dir, err)
	}

	names := []string{}
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || strings.HasPrefix(name, "~") || !strings.HasSuffix(name, Extension) {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}
