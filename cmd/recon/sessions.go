package main

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/Veraticus/transcript-recon/internal/analysis"
	"github.com/Veraticus/transcript-recon/internal/cli"
	"github.com/Veraticus/transcript-recon/internal/common"
	"github.com/Veraticus/transcript-recon/internal/storage"
)

func sessionsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "sessions",
		Aliases: []string{"session"},
		Short:   "Manage stored analysis sessions",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List stored sessions, newest first",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runSessionsList(cmd)
		},
	}
	list.Flags().Int("limit", storage.DefaultListLimit, "maximum sessions to list")

	show := &cobra.Command{
		Use:   "show SESSION_ID",
		Short: "Show a stored session's report",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runSessionsShow(cmd, args[0])
		},
	}
	show.Flags().Bool("json", false, "print the full result as JSON")
	show.Flags().Int("width", 0, "report width in columns (0 for default)")

	del := &cobra.Command{
		Use:   "delete SESSION_ID",
		Short: "Delete a stored session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runSessionsDelete(cmd, args[0])
		},
	}

	findings := &cobra.Command{
		Use:   "findings",
		Short: "List stored findings across sessions",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runSessionsFindings(cmd)
		},
	}
	findings.Flags().Int("year", 0, "only findings for this tax year")

	cmd.AddCommand(list, show, del, findings)
	return cmd
}

func (a *app) runSessionsList(cmd *cobra.Command) error {
	limit, _ := cmd.Flags().GetInt("limit")
	ctx := cmd.Context()

	store, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	defer closeStore(store)

	sessions, err := store.List(ctx, limit)
	if err != nil {
		return fmt.Errorf("failed to list sessions: %w", err)
	}
	if len(sessions) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), cli.FormatInfo("No stored sessions. Run `recon analyze` first."))
		return nil
	}

	rows := make([][]string, 0, len(sessions))
	for _, s := range sessions {
		rows = append(rows, []string{
			s.ID,
			s.CreatedAt.Local().Format("2006-01-02 15:04"),
			yearsList(s.Years),
			string(s.OverallRisk),
			strconv.Itoa(s.Recommendations),
			money(s.TotalPotentialRefund),
		})
	}
	fmt.Fprintln(cmd.OutOrStdout(), cli.RenderTable(
		[]string{"Session", "Created", "Years", "Risk", "Actions", "Potential refund"}, rows))
	return nil
}

func (a *app) runSessionsShow(cmd *cobra.Command, id string) error {
	asJSON, _ := cmd.Flags().GetBool("json")
	width, _ := cmd.Flags().GetInt("width")
	ctx := cmd.Context()

	store, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	defer closeStore(store)

	result, err := store.Get(ctx, id)
	if err != nil {
		return sessionError(id, err)
	}

	if asJSON {
		return writeJSON(cmd.OutOrStdout(), result)
	}
	printReport(cmd.OutOrStdout(), analysis.NewCLIFormatter().WithWidth(width), result, len(result.Recommendations))
	return nil
}

func (a *app) runSessionsDelete(cmd *cobra.Command, id string) error {
	ctx := cmd.Context()
	store, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	defer closeStore(store)

	if err := store.Delete(ctx, id); err != nil {
		return sessionError(id, err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess("Deleted session "+id))
	return nil
}

func (a *app) runSessionsFindings(cmd *cobra.Command) error {
	year, _ := cmd.Flags().GetInt("year")
	ctx := cmd.Context()

	store, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	defer closeStore(store)

	records, err := store.FindingsByYear(ctx, year)
	if err != nil {
		return fmt.Errorf("failed to query findings: %w", err)
	}
	if len(records) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), cli.FormatInfo("No stored findings."))
		return nil
	}

	rows := make([][]string, 0, len(records))
	for _, r := range records {
		rows = append(rows, []string{
			strconv.Itoa(r.TaxYear),
			string(r.Severity),
			r.Title,
			money(r.PotentialRefund),
			r.SessionID,
		})
	}
	fmt.Fprintln(cmd.OutOrStdout(), cli.RenderTable(
		[]string{"Year", "Severity", "Finding", "Refund", "Session"}, rows))
	return nil
}

func sessionError(id string, err error) error {
	if errors.Is(err, common.ErrNotFound) {
		return common.NewUserError("no session "+id, err)
	}
	return fmt.Errorf("session %s: %w", id, err)
}

func yearsList(years []int) string {
	out := ""
	for i, y := range years {
		if i > 0 {
			out += ", "
		}
		out += strconv.Itoa(y)
	}
	return out
}
