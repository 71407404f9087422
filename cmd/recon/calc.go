package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Veraticus/transcript-recon/internal/cli"
	"github.com/Veraticus/transcript-recon/internal/common"
	"github.com/Veraticus/transcript-recon/internal/model"
	"github.com/Veraticus/transcript-recon/internal/rules"
	"github.com/Veraticus/transcript-recon/internal/statetax"
	"github.com/Veraticus/transcript-recon/internal/taxcalc"
)

func calcCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "calc",
		Short: "Compute federal and state tax for one year",
		Long: `Run the tax calculator directly, without transcripts.

Examples:
  recon calc --year 2023 --income 86000
  recon calc --year 2023 --income 86000 --state IL
  recon calc --year 2022 --income 64000 --se-income 12000 --filing-status head_of_household --dependent 2015`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runCalc(cmd)
		},
	}

	clientFlags(cmd)
	cmd.Flags().Int("year", 0, "tax year (required)")
	cmd.Flags().Float64("income", 0, "gross income, including self-employment income")
	cmd.Flags().Float64("adjustments", 0, "above-the-line adjustments")
	cmd.Flags().Float64("se-income", 0, "part of income subject to self-employment tax")
	cmd.Flags().Float64("amt-add-backs", 0, "AMT preference items")
	cmd.Flags().Bool("json", false, "print the calculation as JSON")
	_ = cmd.MarkFlagRequired("year")

	return cmd
}

func (a *app) runCalc(cmd *cobra.Command) error {
	year, _ := cmd.Flags().GetInt("year")
	income, _ := cmd.Flags().GetFloat64("income")
	adjustments, _ := cmd.Flags().GetFloat64("adjustments")
	seIncome, _ := cmd.Flags().GetFloat64("se-income")
	addBacks, _ := cmd.Flags().GetFloat64("amt-add-backs")
	asJSON, _ := cmd.Flags().GetBool("json")

	client := clientContext(cmd)
	if err := client.Validate(); err != nil {
		return common.NewUserError("invalid client details", err)
	}
	status := client.FilingStatus
	if status == "" {
		status = model.FilingSingle
	}

	book, err := rules.Default()
	if err != nil {
		return fmt.Errorf("failed to load rule tables: %w", err)
	}

	calc, err := taxcalc.New(book, a.cfg.Tax).Calculate(taxcalc.Input{
		TaxYear:              year,
		FilingStatus:         status,
		GrossIncome:          income,
		Adjustments:          adjustments,
		SelfEmploymentIncome: seIncome,
		AMTAddBacks:          addBacks,
		Itemized:             client.Itemized,
		Dependents:           client.Dependents,
		EducationExpenses:    client.EducationExpenses,
	})
	if err != nil {
		return common.NewUserError(fmt.Sprintf("cannot calculate tax year %d", year), err)
	}
	if client.State != "" {
		state := statetax.Calculate(book, client.State, calc.AdjustedGross)
		calc.State = &state
	}

	if asJSON {
		return writeJSON(cmd.OutOrStdout(), calc)
	}
	printCalculation(cmd.OutOrStdout(), calc)
	return nil
}

func printCalculation(w io.Writer, c *model.TaxCalculation) {
	fmt.Fprintln(w, cli.FormatTitle(fmt.Sprintf("Tax year %d (%s)", c.TaxYear, c.FilingStatus)))

	rows := [][]string{
		{"Gross income", money(c.GrossIncome)},
		{"Adjusted gross income", money(c.AdjustedGross)},
		{"Deduction (" + string(c.Deduction.Method) + ")", money(c.Deduction.Amount)},
		{"Taxable income", money(c.TaxableIncome)},
		{"Federal income tax", money(c.FederalTax)},
		{"Self-employment tax", money(c.SelfEmployment.Total)},
		{"Alternative minimum tax", money(c.AMT.Liability)},
		{"Child tax credit", money(c.Credits.ChildTax)},
		{"Earned income credit", money(c.Credits.EarnedIncome)},
		{"American opportunity credit", money(c.Credits.AmericanOpportunity)},
		{"Total tax", money(c.TotalTax)},
		{"Net tax after credits", money(c.NetTax)},
		{"Effective rate", fmt.Sprintf("%.2f%%", c.EffectiveRate*100)},
		{"Marginal rate", fmt.Sprintf("%.0f%%", c.MarginalRate*100)},
	}
	fmt.Fprintln(w, cli.RenderTable([]string{"Line", "Amount"}, rows))

	if len(c.Breakdown) > 0 {
		brackets := make([][]string, 0, len(c.Breakdown))
		for _, b := range c.Breakdown {
			brackets = append(brackets, []string{
				fmt.Sprintf("%.0f%%", b.Rate*100),
				bracketRange(b.Min, b.Max),
				money(b.TaxableAmount),
				money(b.Tax),
			})
		}
		fmt.Fprintln(w)
		fmt.Fprintln(w, cli.RenderTable([]string{"Rate", "Band", "Taxed", "Tax"}, brackets))
	}

	if c.State != nil {
		fmt.Fprintln(w)
		if !c.State.Modeled {
			fmt.Fprintln(w, cli.FormatWarning(fmt.Sprintf("State %s is not modeled; state tax assumed to be 0", c.State.State)))
			return
		}
		body := fmt.Sprintf("Kind: %s\nTaxable: %s\nTax: %s",
			c.State.Kind, money(c.State.TaxableIncome), cli.FormatMoney(c.State.Tax))
		fmt.Fprintln(w, cli.RenderBox("State "+c.State.State, body))
	}
}

func bracketRange(lo float64, hi *float64) string {
	if hi == nil {
		return fmt.Sprintf("over %s", money(lo))
	}
	return fmt.Sprintf("%s - %s", money(lo), money(*hi))
}

func money(v float64) string {
	s := fmt.Sprintf("%.2f", v)
	neg := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")

	whole, frac, _ := strings.Cut(s, ".")
	var b strings.Builder
	for i, r := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	out := "$" + b.String() + "." + frac
	if neg {
		return "-" + out
	}
	return out
}
