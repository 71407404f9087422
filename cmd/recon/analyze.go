package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/Veraticus/transcript-recon/internal/analysis"
	"github.com/Veraticus/transcript-recon/internal/cli"
	"github.com/Veraticus/transcript-recon/internal/common"
	"github.com/Veraticus/transcript-recon/internal/model"
	"github.com/Veraticus/transcript-recon/internal/service"
)

func analyzeCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze FILE...",
		Short: "Analyze IRS transcripts for refunds, penalties and deadlines",
		Long:  `Analyze one or more IRS transcripts (PDF or extracted text).

Wage-and-income and account transcripts for the same year are paired and
reconciled. Each year's tax is recomputed from the rule tables, multi-year
patterns and risk are scored, and everything is merged into a prioritized,
deadline-aware action plan.

PDFs are converted with the configured extractor command (pdftotext by
default). Text files are read as-is.

Examples:
  # Analyze a year's pair of transcripts
  recon analyze wi-2022.pdf account-2022.pdf

  # Several years, with client details the transcripts do not carry
  recon analyze transcripts/*.pdf --state IL --dependent 2016 --dependent 2019

  # Machine-readable output without saving a session
  recon analyze *.txt --output json --no-save`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runAnalyze(cmd, args)
		},
	}

	clientFlags(cmd)
	cmd.Flags().Bool("reasonable-cause", false, "the client has reasonable-cause facts for penalty relief")
	cmd.Flags().String("output", "report", "output format (report, summary, json)")
	cmd.Flags().Int("top", 5, "number of recommendations shown in detail")
	cmd.Flags().Int("width", 0, "report width in columns (0 for default)")
	cmd.Flags().Bool("no-save", false, "do not store the session")

	return cmd
}

func (a *app) runAnalyze(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	output, _ := cmd.Flags().GetString("output")
	top, _ := cmd.Flags().GetInt("top")
	width, _ := cmd.Flags().GetInt("width")
	noSave, _ := cmd.Flags().GetBool("no-save")
	reasonable, _ := cmd.Flags().GetBool("reasonable-cause")

	switch output {
	case "report", "summary", "json":
	default:
		return fmt.Errorf("invalid output format: %s (valid options: report, summary, json)", output)
	}

	sources, err := sourcesFrom(args)
	if err != nil {
		return err
	}

	client := clientContext(cmd)
	client.ReasonableCause = reasonable

	interruptHandler := cli.NewInterruptHandler(cmd.ErrOrStderr())
	ctx := interruptHandler.HandleInterrupts(cmd.Context(), !noSave)

	slog.Info("Starting transcript analysis", "documents", len(sources), "state", client.State)

	bar := newExtractionBar(cmd.ErrOrStderr(), len(sources), output == "json")
	engine, err := a.engine(&progressExtractor{next: a.extractor(), bar: bar}, nil)
	if err != nil {
		return err
	}

	result, err := engine.AnalyzeSources(ctx, sources, client, nil)
	_ = bar.Finish()
	if err != nil {
		if interruptHandler.WasInterrupted() || errors.Is(err, context.Canceled) {
			return nil
		}
		if common.IsInputError(err) {
			return common.NewUserError("the transcripts could not be analyzed", err)
		}
		return fmt.Errorf("analysis failed: %w", err)
	}

	if !noSave {
		if err := a.saveSession(ctx, result); err != nil {
			return err
		}
		// stdout carries only the rendered result.
		errOut := cmd.ErrOrStderr()
		fmt.Fprintln(errOut, cli.FormatSuccess("Saved session "+result.SessionID))
		fmt.Fprintf(errOut, "  Export it with: recon export %s --format xlsx\n", result.SessionID)
	}

	switch output {
	case "json":
		return writeJSON(out, result)
	case "summary":
		formatter := analysis.NewCLIFormatter().WithWidth(width)
		fmt.Fprintln(out, formatter.FormatSummary(result))
	default:
		printReport(out, analysis.NewCLIFormatter().WithWidth(width), result, top)
	}

	return nil
}

func (a *app) saveSession(ctx context.Context, result *model.AnalysisResult) error {
	store, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	defer closeStore(store)

	if err := store.Save(ctx, result); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

func printReport(w io.Writer, f analysis.ReportFormatter, result *model.AnalysisResult, top int) {
	fmt.Fprintln(w, f.FormatSummary(result))

	if len(result.Recommendations) > 0 && top > 0 {
		fmt.Fprintln(w, cli.FormatTitle("Recommendations"))
		for i, rec := range result.Recommendations {
			if i == top {
				fmt.Fprintf(w, "  ...and %d more (see `recon sessions show %s`)\n\n",
					len(result.Recommendations)-top, result.SessionID)
				break
			}
			fmt.Fprintln(w, f.FormatRecommendation(rec))
		}
	}

	fmt.Fprintln(w, f.FormatTimeline(result))
}

func sourcesFrom(paths []string) ([]service.Source, error) {
	sources := make([]service.Source, 0, len(paths))
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, common.NewUserError("cannot read "+p, err)
		}
		if info.IsDir() {
			return nil, common.NewUserError(p+" is a directory", common.ErrUnsupportedFormat)
		}
		sources = append(sources, service.Source{Name: filepath.Base(p), Path: p})
	}
	return sources, nil
}

func newExtractionBar(w io.Writer, total int, quiet bool) *progressbar.ProgressBar {
	if quiet {
		return progressbar.DefaultSilent(int64(total))
	}
	return progressbar.NewOptions(total,
		progressbar.OptionSetWriter(w),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(30),
		progressbar.OptionSetDescription("[cyan]Extracting transcripts[reset]"),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
		progressbar.OptionOnCompletion(func() { fmt.Fprintln(w) }),
	)
}

// progressExtractor advances the bar after each successful extraction.
type progressExtractor struct {
	next service.TextExtractor
	bar  *progressbar.ProgressBar
}

func (p *progressExtractor) Extract(ctx context.Context, src service.Source) (service.ExtractedDocument, error) {
	doc, err := p.next.Extract(ctx, src)
	if err == nil {
		_ = p.bar.Add(1)
	}
	return doc, err
}

func writeJSON(w io.Writer, v any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(v); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}
	return nil
}
