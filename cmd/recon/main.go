package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Veraticus/transcript-recon/internal/cli"
	"github.com/Veraticus/transcript-recon/internal/common"
	"github.com/Veraticus/transcript-recon/internal/config"
)

var version = "dev"

// app carries the loaded configuration to subcommands.
type app struct {
	cfg     *config.Config
	cfgFile string
}

func newRootCmd() *cobra.Command {
	a := &app{}
	rootCmd := &cobra.Command{
		Use:   "recon",
		Short: "IRS transcript reconciliation and refund finder",
		Long: `transcript-recon reads IRS wage-and-income and account transcripts,
recomputes each year's tax, and reports discrepancies, abatable penalties,
multi-year patterns and the deadlines that bound every remedy.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.initConfig,
	}

	rootCmd.PersistentFlags().StringVar(&a.cfgFile, "config", "", "config file (default: $HOME/.config/recon/config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "console", "log format (console, json)")
	rootCmd.PersistentFlags().String("db", "", "session database path (overrides database.path)")

	rootCmd.AddCommand(analyzeCmd(a))
	rootCmd.AddCommand(calcCmd(a))
	rootCmd.AddCommand(rulesCmd(a))
	rootCmd.AddCommand(sessionsCmd(a))
	rootCmd.AddCommand(exportCmd(a))
	rootCmd.AddCommand(serveCmd(a))
	rootCmd.AddCommand(migrateCmd(a))
	rootCmd.AddCommand(versionCmd())

	return rootCmd
}

func main() {
	ctx, cancel := context.WithCancel(context.Background())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		slog.Info("Received interrupt signal, shutting down gracefully...")
		cancel()
	}()

	err := newRootCmd().ExecuteContext(ctx)
	cancel()

	if err != nil {
		fmt.Fprintln(os.Stderr, cli.FormatError(err.Error()))
		os.Exit(1)
	}
}

func (a *app) initConfig(cmd *cobra.Command, _ []string) error {
	v := viper.New()
	config.Defaults(v)
	config.BindEnv(v)

	flags := cmd.Root().PersistentFlags()
	_ = v.BindPFlag("logging.level", flags.Lookup("log-level"))
	_ = v.BindPFlag("logging.format", flags.Lookup("log-format"))
	if db, _ := flags.GetString("db"); db != "" {
		v.Set("database.path", db)
	}

	if err := config.Read(v, a.cfgFile); err != nil {
		return err
	}

	cfg, err := config.Load(v)
	if err != nil {
		return common.NewUserError("configuration is invalid", err)
	}

	level, err := common.ParseLevel(cfg.Logging.Level)
	if err != nil {
		return err
	}
	if err := common.SetupLogger(level, cfg.Logging.Format); err != nil {
		return fmt.Errorf("failed to setup logging: %w", err)
	}

	a.cfg = cfg
	return nil
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "recon %s\n", version)
		},
	}
}
