// Package transcript turns extracted IRS transcript text into structured
// model.ParsedTranscript records. It recognizes the two transcript families,
// reads the header fields, income form blocks, account return lines and the
// transaction code table. Malformed lines are skipped with a warning and
// never fail a parse.
package transcript

import (
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"

	"github.com/Veraticus/transcript-recon/internal/common"
	"github.com/Veraticus/transcript-recon/internal/model"
	"github.com/Veraticus/transcript-recon/internal/service"
)

// Document is the text of one transcript plus optional section hints.
type Document struct {
	Source   string
	Text     string
	Sections []service.Section
}

// FromExtracted adapts an extractor result.
func FromExtracted(doc service.ExtractedDocument) Document {
	return Document{Source: doc.Source, Text: doc.Text, Sections: doc.Sections}
}

func (d Document) fullText() string {
	if strings.TrimSpace(d.Text) != "" {
		return d.Text
	}
	var sb strings.Builder
	for _, s := range d.Sections {
		if s.Title != "" {
			sb.WriteString(s.Title + "\n")
		}
		sb.WriteString(s.Text + "\n")
	}
	return sb.String()
}

var (
	incomeSourceMarkers = []string{"wage and income", "wage & income"}
	accountMarkers      = []string{"record of account", "account transcript", "tax return transcript"}
)

var (
	taxPeriodPattern     = regexp.MustCompile(`(?i)^\s*tax\s+(?:period|year)(?:\s+requested|\s+ending)?\s*:\s*(.+)$`)
	yearPattern          = regexp.MustCompile(`\b((?:19|20)\d{2})\b`)
	ssnPattern           = regexp.MustCompile(`(?i)\b(?:X{3}|\*{3}|\d{3})-(?:X{2}|\*{2}|\d{2})-(\d{4})\b`)
	namePattern          = regexp.MustCompile(`(?i)^\s*(?:taxpayer\s+)?name(?:\(s\))?(?:\s+shown\s+on\s+return)?\s*:\s*(.+)$`)
	filingStatusPattern  = regexp.MustCompile(`(?i)^\s*filing\s+status\s*:\s*(.+)$`)
	formHeaderPattern    = regexp.MustCompile(`(?i)^\s*form\s+(w-?2|1099-?[a-z]+|ssa-?1099)\b`)
	labelPattern         = regexp.MustCompile(`^\s*([^:]+?)\s*:\s*(.*?)\s*$`)
	transactionPattern   = regexp.MustCompile(`^\s*(\d{3})\s+(.+?)\s+(?:(\d{8})\s+)?(\S+)\s+(\(?-?\$?-?[\d,]*\.?\d+\)?)\s*$`)
	transactionLike      = regexp.MustCompile(`^\s*\d{3}\s+[A-Za-z]`)
	transactionsHeading  = regexp.MustCompile(`(?i)^\s*(?:transactions|code\s+explanation\s+of\s+transaction\b.*)$`)
	unreportedAnnotation = regexp.MustCompile(`(?i)\b(?:not\s+reported\s+on\s+(?:the\s+)?return|unreported)\b`)
)

// DetectKind identifies the transcript family from fixed markers in the text
// or the section titles.
func DetectKind(text string, sections []service.Section) (model.TranscriptKind, error) {
	haystack := strings.ToLower(text)
	for _, s := range sections {
		haystack += "\n" + strings.ToLower(s.Title)
	}

	for _, m := range incomeSourceMarkers {
		if strings.Contains(haystack, m) {
			return model.KindIncomeSource, nil
		}
	}
	for _, m := range accountMarkers {
		if strings.Contains(haystack, m) {
			return model.KindAccountOfRecord, nil
		}
	}
	return "", common.ErrUnknownTranscriptType
}

// Parser converts transcript text. It holds no mutable state and is safe for
// concurrent use.
type Parser struct {
	defaultYear int
}

// NewParser creates a parser. defaultYear is assigned to transcripts whose
// tax year cannot be read; such transcripts are flagged and warned about.
func NewParser(defaultYear int) *Parser {
	return &Parser{defaultYear: defaultYear}
}

// Parse converts one document.
func (p *Parser) Parse(doc Document) (*model.ParsedTranscript, error) {
	text := doc.fullText()
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%s: %w", sourceName(doc), common.ErrEmptyDocument)
	}

	kind, err := DetectKind(text, doc.Sections)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", sourceName(doc), err)
	}

	t := &model.ParsedTranscript{
		Source: doc.Source,
		Kind:   kind,
	}
	switch kind {
	case model.KindAccountOfRecord:
		t.Account = &model.AccountSummary{}
	case model.KindIncomeSource:
	}

	st := &parseState{t: t}
	for i, line := range strings.Split(text, "\n") {
		st.line(i+1, strings.TrimRight(line, "\r"))
	}
	st.finish()

	if t.TaxYear == 0 {
		t.TaxYear = p.defaultYear
		t.TaxYearDefaulted = true
		t.Warnings = append(t.Warnings, fmt.Sprintf("tax year not found; assumed %d", p.defaultYear))
	}

	slog.Debug("Parsed transcript",
		"source", t.Source,
		"kind", t.Kind,
		"tax_year", t.TaxYear,
		"income_items", len(t.Income),
		"transactions", len(t.Transactions),
		"warnings", len(t.Warnings))

	return t, nil
}

func sourceName(doc Document) string {
	if doc.Source != "" {
		return doc.Source
	}
	return "document"
}

// parseState accumulates one transcript while its lines are scanned.
type parseState struct {
	t              *model.ParsedTranscript
	block          *formBlock
	inTransactions bool
}

func (s *parseState) warnf(lineNo int, format string, args ...any) {
	msg := fmt.Sprintf("line %d: ", lineNo) + fmt.Sprintf(format, args...)
	s.t.Warnings = append(s.t.Warnings, msg)
	slog.Debug("Skipped transcript line", "source", s.t.Source, "detail", msg)
}

func (s *parseState) line(lineNo int, line string) {
	if strings.TrimSpace(line) == "" {
		return
	}
	if s.header(lineNo, line) {
		return
	}

	if transactionsHeading.MatchString(line) {
		s.closeBlock()
		s.inTransactions = true
		return
	}

	if m := formHeaderPattern.FindStringSubmatch(line); m != nil {
		s.closeBlock()
		s.inTransactions = false
		s.block = newFormBlock(normalizeForm(m[1]), lineNo)
		return
	}

	if s.inTransactions || s.block == nil {
		if m := transactionPattern.FindStringSubmatch(line); m != nil {
			if s.transaction(lineNo, m, s.inTransactions) {
				return
			}
		}
	}
	if s.inTransactions {
		if transactionLike.MatchString(line) {
			s.warnf(lineNo, "malformed transaction line skipped: %q", strings.TrimSpace(line))
			return
		}
		if s.t.Kind == model.KindAccountOfRecord {
			if m := labelPattern.FindStringSubmatch(line); m != nil {
				s.returnLine(lineNo, m[1], m[2])
			}
		}
		return
	}

	if s.block != nil {
		if unreportedAnnotation.MatchString(line) && !strings.Contains(line, ":") {
			s.block.unreported = true
			return
		}
		if m := labelPattern.FindStringSubmatch(line); m != nil {
			s.block.label(s, lineNo, m[1], m[2])
		}
		return
	}

	if s.t.Kind == model.KindAccountOfRecord {
		if m := labelPattern.FindStringSubmatch(line); m != nil {
			s.returnLine(lineNo, m[1], m[2])
		}
	}
}

// header consumes identity and period lines. The first occurrence of each
// field wins.
func (s *parseState) header(lineNo int, line string) bool {
	if m := taxPeriodPattern.FindStringSubmatch(line); m != nil {
		if s.t.TaxYear == 0 {
			if y := yearPattern.FindStringSubmatch(m[1]); y != nil {
				s.t.TaxYear, _ = strconv.Atoi(y[1])
			} else {
				s.warnf(lineNo, "unreadable tax period %q", strings.TrimSpace(m[1]))
			}
		}
		return true
	}
	if m := filingStatusPattern.FindStringSubmatch(line); m != nil {
		if s.t.Taxpayer.FilingStatus == "" {
			status, ok := model.ParseFilingStatus(m[1])
			if ok {
				s.t.Taxpayer.FilingStatus = status
			} else {
				s.warnf(lineNo, "unrecognized filing status %q", strings.TrimSpace(m[1]))
			}
		}
		return true
	}
	if m := namePattern.FindStringSubmatch(line); m != nil && s.block == nil {
		if s.t.Taxpayer.Name == "" {
			s.t.Taxpayer.Name = strings.Join(strings.Fields(m[1]), " ")
		}
		return true
	}
	if m := ssnPattern.FindStringSubmatch(line); m != nil {
		if s.t.Taxpayer.SSNLastFour == "" {
			s.t.Taxpayer.SSNLastFour = m[1]
		}
		return true
	}
	return false
}

func (s *parseState) closeBlock() {
	if s.block == nil {
		return
	}
	if item, ok := s.block.item(); ok {
		s.t.Income = append(s.t.Income, item)
	} else {
		s.warnf(s.block.line, "%s block has no income amount; skipped", s.block.form)
	}
	s.block = nil
}

func (s *parseState) finish() {
	s.closeBlock()
	s.applyReversals()

	if s.t.Account != nil && s.t.Account.Withholding == 0 {
		for _, p := range s.t.Payments {
			if p.Kind == model.PaymentWithholding {
				s.t.Account.Withholding += p.Amount
			}
		}
	}

	if len(s.t.Income) == 0 {
		s.t.Warnings = append(s.t.Warnings, "no income items found")
	}
	if s.t.Account != nil && s.t.Account.AdjustedGrossIncome == nil {
		s.t.Warnings = append(s.t.Warnings, "adjusted gross income not found")
	}
}
