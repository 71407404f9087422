package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Veraticus/transcript-recon/internal/cli"
	"github.com/Veraticus/transcript-recon/internal/common"
	"github.com/Veraticus/transcript-recon/internal/export"
)

func exportCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export SESSION_ID",
		Short: "Export a stored session as CSV or XLSX",
		Long: fmt.Sprintf(`Export a stored session.

Formats: %s

CSV formats print to stdout unless --output is given. The xlsx workbook is
written to <session>.xlsx when --output is omitted.

Examples:
  recon export 7c9e6679 --format recommendations-csv > actions.csv
  recon export 7c9e6679 --format xlsx --output client-2024.xlsx`, strings.Join(export.Formats(), ", ")),
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runExport(cmd, args[0])
		},
	}
	cmd.Flags().String("format", string(export.FormatRecommendationsCSV), "export format")
	cmd.Flags().StringP("output", "o", "", "output file")
	return cmd
}

func (a *app) runExport(cmd *cobra.Command, id string) error {
	formatName, _ := cmd.Flags().GetString("format")
	output, _ := cmd.Flags().GetString("output")
	ctx := cmd.Context()

	format := export.Format(strings.ToLower(formatName))
	exporter, err := export.New(format)
	if err != nil {
		return common.NewUserError("unknown export format", err)
	}

	store, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	defer closeStore(store)

	result, err := store.Get(ctx, id)
	if err != nil {
		return sessionError(id, err)
	}

	if output == "" && format == export.FormatXLSX {
		output = id + export.Extension(format)
	}

	var w io.Writer = cmd.OutOrStdout()
	if output != "" {
		f, err := os.Create(output)
		if err != nil {
			return fmt.Errorf("failed to create %s: %w", output, err)
		}
		defer func() { _ = f.Close() }()
		w = f
	}

	if err := exporter.Export(w, result); err != nil {
		return fmt.Errorf("export failed: %w", err)
	}
	if output != "" {
		fmt.Fprintln(cmd.ErrOrStderr(), cli.FormatSuccess("Wrote "+output))
	}
	return nil
}
