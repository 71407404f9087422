package testutil

import (
	"fmt"
	"strings"

	"github.com/Veraticus/transcript-recon/internal/service"
)

// TranscriptBuilder renders transcript text in the layout the parser reads.
//
// Example:
//
//	text := testutil.NewWageAndIncome(2023).
//		WithTaxpayer("JANE DOE", "1234").
//		WithW2("ACME CORP", 52000, 6100).
//		WithForm("1099-NEC", "CLIENT LLC", "Nonemployee compensation", 12000).
//		Unreported().
//		String()
type TranscriptBuilder struct {
	header       string
	name         string
	ssn          string
	filingStatus string
	blocks       []string
	lines        []string
	transactions []string
	year         int
	omitYear     bool
}

// NewWageAndIncome starts an income-source transcript.
func NewWageAndIncome(year int) *TranscriptBuilder {
	return &TranscriptBuilder{header: "Wage and Income Transcript", year: year, name: "JANE Q TAXPAYER", ssn: "1234"}
}

// NewAccountTranscript starts an account-of-record transcript.
func NewAccountTranscript(year int) *TranscriptBuilder {
	return &TranscriptBuilder{header: "Record of Account Transcript", year: year, name: "JANE Q TAXPAYER", ssn: "1234"}
}

// WithHeader replaces the title line.
func (b *TranscriptBuilder) WithHeader(header string) *TranscriptBuilder {
	b.header = header
	return b
}

// WithoutYear drops the tax period line.
func (b *TranscriptBuilder) WithoutYear() *TranscriptBuilder {
	b.omitYear = true
	return b
}

// WithTaxpayer sets the name and the last four SSN digits.
func (b *TranscriptBuilder) WithTaxpayer(name, ssnLastFour string) *TranscriptBuilder {
	b.name = name
	b.ssn = ssnLastFour
	return b
}

// WithFilingStatus sets the filing status line.
func (b *TranscriptBuilder) WithFilingStatus(status string) *TranscriptBuilder {
	b.filingStatus = status
	return b
}

// WithW2 adds a W-2 block.
func (b *TranscriptBuilder) WithW2(employer string, wages, withheld float64) *TranscriptBuilder {
	b.blocks = append(b.blocks, strings.Join([]string{
		"Form W-2 Wage and Tax Statement",
		"Employer: " + employer,
		"Employer Identification Number (EIN): XXXXX1234",
		"Wages, Tips and Other Compensation: " + Money(wages),
		"Federal Income Tax Withheld: " + Money(withheld),
	}, "\n"))
	return b
}

// WithForm adds an information return block with one labelled amount.
func (b *TranscriptBuilder) WithForm(form, payer, label string, amount float64) *TranscriptBuilder {
	b.blocks = append(b.blocks, strings.Join([]string{
		"Form " + form,
		"Payer: " + payer,
		label + ": " + Money(amount),
	}, "\n"))
	return b
}

// WithRawBlock adds a block verbatim.
func (b *TranscriptBuilder) WithRawBlock(lines ...string) *TranscriptBuilder {
	b.blocks = append(b.blocks, strings.Join(lines, "\n"))
	return b
}

// Unreported annotates the most recent form block as missing from the return.
func (b *TranscriptBuilder) Unreported() *TranscriptBuilder {
	if n := len(b.blocks); n > 0 {
		b.blocks[n-1] += "\nNot reported on return"
	}
	return b
}

// WithLine adds an account-level labelled amount such as "Adjusted gross income".
func (b *TranscriptBuilder) WithLine(label string, amount float64) *TranscriptBuilder {
	b.lines = append(b.lines, label+": "+Money(amount))
	return b
}

// WithTransaction adds a transaction code line. Date uses MM-DD-YYYY.
func (b *TranscriptBuilder) WithTransaction(code, description, date string, amount float64) *TranscriptBuilder {
	b.transactions = append(b.transactions, fmt.Sprintf("%s %s %s %s", code, description, date, Money(amount)))
	return b
}

// WithRawTransaction adds a transaction line verbatim.
func (b *TranscriptBuilder) WithRawTransaction(line string) *TranscriptBuilder {
	b.transactions = append(b.transactions, line)
	return b
}

// String renders the transcript.
func (b *TranscriptBuilder) String() string {
	var sb strings.Builder
	sb.WriteString(b.header + "\n")
	sb.WriteString("Request Date: 03-15-2025\n")
	if !b.omitYear {
		fmt.Fprintf(&sb, "Tax Period Requested: December, %d\n", b.year)
	}
	fmt.Fprintf(&sb, "SSN Provided: XXX-XX-%s\n", b.ssn)
	fmt.Fprintf(&sb, "Taxpayer Name: %s\n", b.name)
	if b.filingStatus != "" {
		fmt.Fprintf(&sb, "Filing Status: %s\n", b.filingStatus)
	}
	sb.WriteString("\n")

	for _, line := range b.lines {
		sb.WriteString(line + "\n")
	}
	for _, block := range b.blocks {
		sb.WriteString("\n" + block + "\n")
	}
	if len(b.transactions) > 0 {
		sb.WriteString("\nTRANSACTIONS\n")
		sb.WriteString("CODE EXPLANATION OF TRANSACTION CYCLE DATE AMOUNT\n")
		for _, line := range b.transactions {
			sb.WriteString(line + "\n")
		}
	}
	return sb.String()
}

// Extracted wraps the rendered text as an extractor result.
func (b *TranscriptBuilder) Extracted(source string) service.ExtractedDocument {
	return service.ExtractedDocument{Source: source, Text: b.String()}
}

// Money formats an amount the way transcripts print it.
func Money(amount float64) string {
	sign := ""
	if amount < 0 {
		sign = "-"
		amount = -amount
	}
	whole := int64(amount)
	fraction := int64((amount-float64(whole))*100 + 0.5)
	if fraction == 100 {
		whole++
		fraction = 0
	}

	digits := fmt.Sprintf("%d", whole)
	var grouped strings.Builder
	for i, r := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			grouped.WriteByte(',')
		}
		grouped.WriteRune(r)
	}
	return fmt.Sprintf("%s$%s.%02d", sign, grouped.String(), fraction)
}
