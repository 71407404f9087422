// Package validation cross-checks transcripts that are about to be compared.
// Identity and year conflicts are fatal; weaker signals such as a differing
// name spelling are reported as warnings and never alter amounts.
package validation

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"unicode"

	"github.com/Veraticus/transcript-recon/internal/common"
	"github.com/Veraticus/transcript-recon/internal/model"
)

// DefaultNameThreshold is the minimum name similarity before a warning is raised.
const DefaultNameThreshold = 0.8

// Engine validates transcript pairs.
type Engine struct {
	nameThreshold float64
}

// New creates a validation engine. A non-positive threshold uses the default.
func New(nameThreshold float64) *Engine {
	if nameThreshold <= 0 {
		nameThreshold = DefaultNameThreshold
	}
	return &Engine{nameThreshold: nameThreshold}
}

// ValidatePair checks that two transcripts describe the same taxpayer and
// year. Both kinds may be equal; callers pairing an income-source with an
// account-of-record transcript check kinds themselves.
func (e *Engine) ValidatePair(a, b *model.ParsedTranscript) (model.ValidationReport, error) {
	report := model.ValidationReport{TaxYear: a.TaxYear, NameSimilarity: 1, Valid: true}

	if a.TaxYear != b.TaxYear {
		return model.ValidationReport{}, fmt.Errorf("%w: %s is %d but %s is %d",
			common.ErrYearMismatch, a.Label(), a.TaxYear, b.Label(), b.TaxYear)
	}

	switch {
	case a.Taxpayer.SSNLastFour == "" || b.Taxpayer.SSNLastFour == "":
		report.Warnings = append(report.Warnings,
			fmt.Sprintf("%d: SSN missing on one transcript; identity could not be confirmed", a.TaxYear))
	case a.Taxpayer.SSNLastFour != b.Taxpayer.SSNLastFour:
		return model.ValidationReport{}, fmt.Errorf("%w: SSN ending %s on %s does not match %s on %s",
			common.ErrIdentityMismatch, a.Taxpayer.SSNLastFour, a.Label(), b.Taxpayer.SSNLastFour, b.Label())
	}

	if a.Taxpayer.Name != "" && b.Taxpayer.Name != "" {
		report.NameSimilarity = NameSimilarity(a.Taxpayer.Name, b.Taxpayer.Name)
		if report.NameSimilarity < e.nameThreshold {
			report.Warnings = append(report.Warnings,
				fmt.Sprintf("%d: taxpayer names differ (similarity %.2f)", a.TaxYear, report.NameSimilarity))
		}
	}

	if a.TaxYearDefaulted || b.TaxYearDefaulted {
		report.Warnings = append(report.Warnings,
			fmt.Sprintf("%d: tax year was assumed for at least one transcript", a.TaxYear))
	}

	if len(report.Warnings) > 0 {
		slog.Warn("Transcript validation produced warnings",
			"tax_year", report.TaxYear,
			"warnings", len(report.Warnings),
			"name_similarity", report.NameSimilarity)
	}
	return report, nil
}

// CheckIdentity verifies that every transcript in a batch carries the same
// SSN digits. Transcripts without digits are skipped.
func CheckIdentity(transcripts []*model.ParsedTranscript) error {
	var first *model.ParsedTranscript
	for _, t := range transcripts {
		if t.Taxpayer.SSNLastFour == "" {
			continue
		}
		if first == nil {
			first = t
			continue
		}
		if t.Taxpayer.SSNLastFour != first.Taxpayer.SSNLastFour {
			return fmt.Errorf("%w: SSN ending %s on %s does not match %s on %s",
				common.ErrIdentityMismatch, t.Taxpayer.SSNLastFour, t.Label(), first.Taxpayer.SSNLastFour, first.Label())
		}
	}
	return nil
}

// NameSimilarity compares two names on a 0-1 scale after normalizing case,
// punctuation and token order.
func NameSimilarity(a, b string) float64 {
	na, nb := normalizeName(a), normalizeName(b)
	if na == nb {
		return 1
	}
	direct := similarity(na, nb)
	sorted := similarity(sortTokens(na), sortTokens(nb))
	if sorted > direct {
		return sorted
	}
	return direct
}

func normalizeName(name string) string {
	cleaned := strings.Map(func(r rune) rune {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r):
			return unicode.ToUpper(r)
		case unicode.IsSpace(r), r == '-', r == ',', r == '.':
			return ' '
		}
		return -1
	}, name)
	return strings.Join(strings.Fields(cleaned), " ")
}

func sortTokens(s string) string {
	tokens := strings.Fields(s)
	sort.Strings(tokens)
	return strings.Join(tokens, " ")
}

func similarity(a, b string) float64 {
	ra, rb := []rune(a), []rune(b)
	longest := len(ra)
	if len(rb) > longest {
		longest = len(rb)
	}
	if longest == 0 {
		return 1
	}
	return 1 - float64(levenshtein(ra, rb))/float64(longest)
}

func levenshtein(a, b []rune) int {
	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(a); i++ {
		curr[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			curr[j] = min(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(b)]
}
