package analysis

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/Veraticus/transcript-recon/internal/common"
	"github.com/Veraticus/transcript-recon/internal/events"
	"github.com/Veraticus/transcript-recon/internal/model"
	"github.com/Veraticus/transcript-recon/internal/pattern"
	"github.com/Veraticus/transcript-recon/internal/risk"
	"github.com/Veraticus/transcript-recon/internal/service"
	"github.com/Veraticus/transcript-recon/internal/statetax"
	"github.com/Veraticus/transcript-recon/internal/taxcalc"
	"github.com/Veraticus/transcript-recon/internal/transcript"
	"github.com/Veraticus/transcript-recon/internal/validation"
)

// Pipeline stage names reported to the Recorder.
const (
	StageExtract  = "extract"
	StageParse    = "parse"
	StageValidate = "validate"
	StageYears    = "years"
	StagePatterns = "patterns"
	StageRisk     = "risk"
	StageMerge    = "merge"
)

// AnalyzeSources extracts text from every source with bounded concurrency
// and analyzes the result.
func (e *Engine) AnalyzeSources(ctx context.Context, sources []service.Source, client ClientContext, progress ProgressCallback) (*model.AnalysisResult, error) {
	if e.deps.Extractor == nil {
		return nil, common.ErrNoExtractor
	}
	if progress == nil {
		progress = func(string, int) {}
	}
	start := e.deps.Clock()

	progress("Extracting documents", 10)
	docs, err := transcript.ExtractAll(ctx, e.deps.Extractor, sources, e.opts.MaxConcurrency, nil)
	if err != nil {
		e.deps.Recorder.ObserveFailure(StageExtract, err)
		return nil, fmt.Errorf("failed to extract documents: %w", err)
	}
	e.deps.Recorder.ObserveStage(StageExtract, e.deps.Clock().Sub(start))

	return e.analyzeDocuments(ctx, docs, client, progress, start)
}

// AnalyzeDocuments parses already-extracted documents and analyzes them.
func (e *Engine) AnalyzeDocuments(ctx context.Context, docs []transcript.Document, client ClientContext, progress ProgressCallback) (*model.AnalysisResult, error) {
	if progress == nil {
		progress = func(string, int) {}
	}
	return e.analyzeDocuments(ctx, docs, client, progress, e.deps.Clock())
}

func (e *Engine) analyzeDocuments(ctx context.Context, docs []transcript.Document, client ClientContext, progress ProgressCallback, start time.Time) (*model.AnalysisResult, error) {
	progress("Parsing transcripts", 30)
	stageStart := e.deps.Clock()
	transcripts, err := e.parser.ParseAll(ctx, docs, e.opts.MaxConcurrency)
	if err != nil {
		e.deps.Recorder.ObserveFailure(StageParse, err)
		return nil, fmt.Errorf("failed to parse transcripts: %w", err)
	}
	e.deps.Recorder.ObserveStage(StageParse, e.deps.Clock().Sub(stageStart))

	return e.run(transcripts, client, progress, start)
}

// Analyze runs every analysis stage over parsed transcripts. It does no I/O.
func (e *Engine) Analyze(transcripts []*model.ParsedTranscript, client ClientContext) (*model.AnalysisResult, error) {
	return e.run(transcripts, client, func(string, int) {}, e.deps.Clock())
}

func (e *Engine) run(transcripts []*model.ParsedTranscript, client ClientContext, progress ProgressCallback, start time.Time) (*model.AnalysisResult, error) {
	if len(transcripts) == 0 {
		return nil, common.ErrNoDocuments
	}
	if err := client.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrInvalidConfig, err)
	}
	now := e.deps.Clock()

	progress("Validating transcripts", 45)
	if err := validation.CheckIdentity(transcripts); err != nil {
		e.deps.Recorder.ObserveFailure(StageValidate, err)
		return nil, err
	}

	result := &model.AnalysisResult{
		SessionID:   uuid.New().String(),
		GeneratedAt: now,
	}
	for _, t := range transcripts {
		for _, w := range t.Warnings {
			result.Warnings = append(result.Warnings, fmt.Sprintf("%s: %s", t.Label(), w))
		}
	}

	progress("Analyzing tax years", 55)
	stageStart := e.deps.Clock()
	penaltyYears := events.PenaltyYears(transcripts)
	var reconciled []*model.ParsedTranscript
	for _, year := range pattern.GroupByYear(transcripts) {
		ya, warnings, err := e.analyzeYear(year, client, penaltyYears, now)
		if err != nil {
			e.deps.Recorder.ObserveFailure(StageYears, err)
			return nil, err
		}
		result.Years = append(result.Years, ya)
		result.Warnings = append(result.Warnings, warnings...)
		reconciled = append(reconciled, ya.Transcripts...)
	}
	e.deps.Recorder.ObserveStage(StageYears, e.deps.Clock().Sub(stageStart))

	progress("Detecting patterns", 70)
	stageStart = e.deps.Clock()
	result.Patterns = e.patterns.Analyze(reconciled)
	e.deps.Recorder.ObserveStage(StagePatterns, e.deps.Clock().Sub(stageStart))

	progress("Scoring risk", 80)
	stageStart = e.deps.Clock()
	result.Risk = e.risk.Analyze(result.Years, risk.Context{
		AsOf:            now,
		Patterns:        result.Patterns,
		ReasonableCause: client.ReasonableCause,
	})
	e.deps.Recorder.ObserveStage(StageRisk, e.deps.Clock().Sub(stageStart))

	progress("Building recommendations", 90)
	stageStart = e.deps.Clock()
	result.Recommendations = BuildRecommendations(result.Years, result.Patterns, result.Risk, now)
	result.Timeline = BuildTimeline(result.Years, result.Recommendations, now, e.opts.LookaheadDays)
	result.Summary = BuildSummary(result)
	result.Summary.ProcessingDuration = e.deps.Clock().Sub(start).String()
	e.deps.Recorder.ObserveStage(StageMerge, e.deps.Clock().Sub(stageStart))

	e.deps.Recorder.ObserveResult(result)
	slog.Info("Analysis complete",
		"session_id", result.SessionID,
		"years", len(result.Years),
		"findings", result.TotalFindings(),
		"recommendations", len(result.Recommendations),
		"overall_risk", result.Summary.OverallRisk)

	progress("Analysis complete", 100)
	return result, nil
}

// analyzeYear validates, reconciles, calculates and inspects one tax year.
func (e *Engine) analyzeYear(year pattern.Year, client ClientContext, penaltyYears []int, now time.Time) (model.YearAnalysis, []string, error) {
	ya := model.YearAnalysis{TaxYear: year.TaxYear, Findings: []model.Finding{}}
	var warnings []string

	reported, filed, extra := pairOf(year)
	if extra > 0 {
		warnings = append(warnings, fmt.Sprintf("%d: %d duplicate transcript(s) ignored", year.TaxYear, extra))
	}

	if reported != nil && filed != nil {
		report, err := e.validator.ValidatePair(reported, filed)
		if err != nil {
			return ya, nil, fmt.Errorf("failed to validate %d transcripts: %w", year.TaxYear, err)
		}
		ya.Validation = &report
		warnings = append(warnings, report.Warnings...)

		found, err := e.discrepancy.Analyze(reported, filed, client.FilingStatus, now)
		if err != nil {
			return ya, nil, fmt.Errorf("failed to compare %d transcripts: %w", year.TaxYear, err)
		}
		ya.Findings = append(ya.Findings, found...)
		reported = Reconcile(reported, filed, found)
	}

	for _, t := range []*model.ParsedTranscript{reported, filed} {
		if t != nil {
			ya.Transcripts = append(ya.Transcripts, t)
		}
	}

	calc, err := e.calculator.Calculate(TaxInput(year.TaxYear, reported, filed, client))
	if err != nil {
		return ya, nil, err
	}
	if client.State != "" {
		state := statetax.Calculate(e.deps.Rules, client.State, calc.AdjustedGross)
		calc.State = &state
		if !state.Modeled {
			warnings = append(warnings, fmt.Sprintf("%d: state %s is not modeled; state tax assumed to be 0", year.TaxYear, state.State))
		}
	}
	ya.Calculation = calc

	if filed != nil {
		ya.Findings = append(ya.Findings, e.events.Analyze(filed, events.Context{
			PenaltyYears:    penaltyYears,
			ReasonableCause: client.ReasonableCause,
		}, now)...)
	}

	slog.Debug("Analyzed tax year",
		"tax_year", year.TaxYear,
		"findings", len(ya.Findings),
		"net_tax", calc.NetTax)
	return ya, warnings, nil
}

// pairOf picks the first transcript of each kind and counts the rest.
func pairOf(year pattern.Year) (reported, filed *model.ParsedTranscript, extra int) {
	for _, t := range year.Transcripts {
		switch t.Kind {
		case model.KindIncomeSource:
			if reported == nil {
				reported = t
				continue
			}
		case model.KindAccountOfRecord:
			if filed == nil {
				filed = t
				continue
			}
		}
		extra++
	}
	return reported, filed, extra
}

// Reconcile returns a copy of the income-source transcript with items marked
// unreported where the filed return shows less income. When the filed return
// has nothing in a category every item is unreported; otherwise an item is
// marked only if its amount accounts for the whole shortfall.
func Reconcile(reported, filed *model.ParsedTranscript, findings []model.Finding) *model.ParsedTranscript {
	shortfall := make(map[model.IncomeCategory]float64)
	for _, f := range findings {
		if f.Type == model.FindingIncomeDiscrepancy && f.Difference > 0 {
			shortfall[f.Category] = f.Difference
		}
	}
	if len(shortfall) == 0 {
		return reported
	}

	filedTotals, _ := filed.Totals()
	out := reported.Clone()
	for i, item := range out.Income {
		diff, ok := shortfall[item.Category]
		if !ok || item.Unreported {
			continue
		}
		if filedTotals[item.Category] == 0 || math.Abs(item.Amount-diff) < 1 {
			out.Income[i].Unreported = true
		}
	}
	return out
}

// TaxInput builds the calculator input for a year. Third-party income wins
// over filed income; the client's filing status wins over the transcripts'.
func TaxInput(year int, reported, filed *model.ParsedTranscript, client ClientContext) taxcalc.Input {
	source := reported
	if source == nil {
		source = filed
	}

	in := taxcalc.Input{
		TaxYear:           year,
		FilingStatus:      filingStatus(reported, filed, client),
		Dependents:        client.Dependents,
		EducationExpenses: client.EducationExpenses,
		Itemized:          client.Itemized,
	}
	if source != nil {
		totals, _ := source.Totals()
		earned := totals[model.CategoryWages] + totals[model.CategorySelfEmployment]
		in.GrossIncome = source.TotalIncome()
		in.SelfEmploymentIncome = totals[model.CategorySelfEmployment]
		in.EarnedIncome = &earned
	}
	if in.Itemized == nil && filed != nil {
		in.Itemized = itemizedFrom(filed)
	}
	return in
}

func filingStatus(reported, filed *model.ParsedTranscript, client ClientContext) model.FilingStatus {
	if client.FilingStatus.IsValid() {
		return client.FilingStatus
	}
	for _, t := range []*model.ParsedTranscript{filed, reported} {
		if t != nil && t.Taxpayer.FilingStatus.IsValid() {
			return t.Taxpayer.FilingStatus
		}
	}
	return model.FilingSingle
}

// itemizedFrom rebuilds an itemized breakdown from filed deduction lines.
// It returns nil when the return shows no component lines.
func itemizedFrom(t *model.ParsedTranscript) *model.ItemizedDeductions {
	var it model.ItemizedDeductions
	found := false
	for _, d := range t.Deductions {
		switch d.Kind {
		case model.DeductionSALT:
			it.StateAndLocalTaxes += d.Amount
		case model.DeductionMortgage:
			it.MortgageInterest += d.Amount
		case model.DeductionCharitable:
			it.Charitable += d.Amount
		case model.DeductionMedical:
			it.Medical += d.Amount
		case model.DeductionOther:
			it.Other += d.Amount
		case model.DeductionStandard, model.DeductionItemized:
			continue
		}
		found = true
	}
	if !found {
		return nil
	}
	return &it
}
