package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Veraticus/transcript-recon/internal/cli"
	"github.com/Veraticus/transcript-recon/internal/common"
	"github.com/Veraticus/transcript-recon/internal/model"
	"github.com/Veraticus/transcript-recon/internal/rules"
)

func rulesCmd(_ *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rules",
		Short: "Show the embedded tax rule tables",
		Long: `List the supported tax years and states, or show one year's brackets.

Examples:
  recon rules
  recon rules --year 2023 --filing-status married_filing_jointly`,
		RunE: runRules,
	}
	cmd.Flags().Int("year", 0, "show brackets for one year")
	cmd.Flags().String("filing-status", string(model.FilingSingle), "filing status for --year")
	return cmd
}

func runRules(cmd *cobra.Command, _ []string) error {
	out := cmd.OutOrStdout()
	year, _ := cmd.Flags().GetInt("year")
	status, _ := cmd.Flags().GetString("filing-status")

	book, err := rules.Default()
	if err != nil {
		return fmt.Errorf("failed to load rule tables: %w", err)
	}

	if year != 0 {
		table, err := book.Year(year)
		if err != nil {
			return common.NewUserError("no rule table", err)
		}
		fs := model.FilingStatus(status)
		fmt.Fprintln(out, cli.FormatTitle(fmt.Sprintf("%d brackets (%s)", year, fs.Normalize())))
		rows := make([][]string, 0)
		for _, b := range table.BracketsFor(fs) {
			rows = append(rows, []string{fmt.Sprintf("%.0f%%", b.Rate*100), bracketRange(b.Min, b.Max)})
		}
		fmt.Fprintln(out, cli.RenderTable([]string{"Rate", "Band"}, rows))
		fmt.Fprintf(out, "Standard deduction: %s\n", money(table.StandardDeduction.For(fs)))
		return nil
	}

	fmt.Fprintln(out, cli.FormatTitle("Supported tax years"))
	rows := make([][]string, 0)
	for _, y := range book.Years() {
		table, err := book.Year(y)
		if err != nil {
			return err
		}
		rows = append(rows, []string{
			fmt.Sprintf("%d", y),
			money(table.StandardDeduction.For(model.FilingSingle)),
			money(table.StandardDeduction.For(model.FilingMarriedJointly)),
			money(table.SALTCap),
		})
	}
	fmt.Fprintln(out, cli.RenderTable([]string{"Year", "Std (single)", "Std (joint)", "SALT cap"}, rows))

	fmt.Fprintln(out)
	fmt.Fprintln(out, cli.FormatTitle("Modeled states"))
	stateRows := make([][]string, 0)
	for _, code := range book.States() {
		rule, _ := book.State(code)
		rate := "-"
		if rule.Kind == rules.StateFlat {
			rate = fmt.Sprintf("%.2f%%", rule.FlatRate*100)
		}
		stateRows = append(stateRows, []string{code, rule.Name, string(rule.Kind), rate})
	}
	fmt.Fprintln(out, cli.RenderTable([]string{"Code", "Name", "Kind", "Rate"}, stateRows))
	return nil
}
