package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/Veraticus/transcript-recon/internal/analysis"
	"github.com/Veraticus/transcript-recon/internal/extract"
	"github.com/Veraticus/transcript-recon/internal/model"
	"github.com/Veraticus/transcript-recon/internal/rules"
	"github.com/Veraticus/transcript-recon/internal/service"
	"github.com/Veraticus/transcript-recon/internal/storage"
)

// openStore opens the session database and brings its schema up to date.
func (a *app) openStore(ctx context.Context) (*storage.SQLiteStorage, error) {
	store, err := storage.NewSQLiteStorage(a.cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	return store, nil
}

func closeStore(store *storage.SQLiteStorage) {
	if err := store.Close(); err != nil {
		slog.Error("Failed to close database", "error", err)
	}
}

// extractor builds the configured text extractor: PDFs go through the
// external converter with retries, text files are read directly.
func (a *app) extractor() service.TextExtractor {
	var pdf service.TextExtractor
	if a.cfg.Extractor.Command != "" {
		cmd := extract.Command{
			Name:    a.cfg.Extractor.Command,
			Args:    a.cfg.Extractor.Args,
			Timeout: a.cfg.Extractor.Timeout,
		}
		pdf = extract.WithRetry(cmd, a.cfg.Extractor.Retry())
	}
	return extract.NewRouter(pdf)
}

func (a *app) engine(extractor service.TextExtractor, recorder analysis.Recorder) (*analysis.Engine, error) {
	book, err := rules.Default()
	if err != nil {
		return nil, fmt.Errorf("failed to load rule tables: %w", err)
	}
	return analysis.NewEngine(analysis.Deps{
		Rules:     book,
		Extractor: extractor,
		Recorder:  recorder,
		Clock:     time.Now,
	}, a.cfg.AnalysisOptions())
}

// clientFlags registers the client-context flags shared by analyze and calc.
func clientFlags(cmd *cobra.Command) {
	cmd.Flags().String("state", "", "two-letter state of residence")
	cmd.Flags().String("filing-status", "", "filing status override (single, married_filing_jointly, married_filing_separately, head_of_household, qualifying_surviving_spouse)")
	cmd.Flags().IntSlice("dependent", nil, "birth year of a dependent (repeatable)")
	cmd.Flags().Float64("education-expenses", 0, "qualified education expenses")
	cmd.Flags().Float64("salt", 0, "state and local taxes paid (itemized)")
	cmd.Flags().Float64("mortgage-interest", 0, "mortgage interest paid (itemized)")
	cmd.Flags().Float64("charitable", 0, "charitable contributions (itemized)")
	cmd.Flags().Float64("medical", 0, "medical expenses (itemized)")
}

func clientContext(cmd *cobra.Command) analysis.ClientContext {
	state, _ := cmd.Flags().GetString("state")
	status, _ := cmd.Flags().GetString("filing-status")
	births, _ := cmd.Flags().GetIntSlice("dependent")
	education, _ := cmd.Flags().GetFloat64("education-expenses")

	client := analysis.ClientContext{
		State:             state,
		FilingStatus:      model.FilingStatus(status),
		EducationExpenses: education,
	}
	for _, year := range births {
		client.Dependents = append(client.Dependents, model.Dependent{BirthYear: year})
	}

	salt, _ := cmd.Flags().GetFloat64("salt")
	mortgage, _ := cmd.Flags().GetFloat64("mortgage-interest")
	charitable, _ := cmd.Flags().GetFloat64("charitable")
	medical, _ := cmd.Flags().GetFloat64("medical")
	if salt+mortgage+charitable+medical > 0 {
		client.Itemized = &model.ItemizedDeductions{
			StateAndLocalTaxes: salt,
			MortgageInterest:   mortgage,
			Charitable:         charitable,
			Medical:            medical,
		}
	}
	return client
}
