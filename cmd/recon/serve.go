package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Veraticus/transcript-recon/internal/certs"
	"github.com/Veraticus/transcript-recon/internal/metrics"
	"github.com/Veraticus/transcript-recon/internal/rules"
	"github.com/Veraticus/transcript-recon/internal/taxcalc"
	api "github.com/Veraticus/transcript-recon/internal/transport/http"
)

func serveCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the JSON API",
		Long: `Serve the analysis engine, calculator and session store over HTTP.

Routes:
  POST   /api/v1/analyze
  POST   /api/v1/calculate
  GET    /api/v1/rules
  GET    /api/v1/findings?year=
  GET    /api/v1/sessions
  GET    /api/v1/sessions/{id}
  DELETE /api/v1/sessions/{id}
  GET    /api/v1/sessions/{id}/export?format=
  GET    /metrics
  GET    /healthz`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runServe(cmd)
		},
	}
	cmd.Flags().String("addr", "", "listen address (overrides server.addr)")
	cmd.Flags().Bool("tls", false, "serve HTTPS with a self-signed certificate (overrides server.tls)")
	return cmd
}

func (a *app) runServe(cmd *cobra.Command) error {
	ctx := cmd.Context()
	addr, _ := cmd.Flags().GetString("addr")
	if addr == "" {
		addr = a.cfg.Server.Addr
	}
	useTLS := a.cfg.Server.TLS
	if cmd.Flags().Changed("tls") {
		useTLS, _ = cmd.Flags().GetBool("tls")
	}

	store, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	defer closeStore(store)

	recorder := metrics.New()
	engine, err := a.engine(a.extractor(), recorder)
	if err != nil {
		return err
	}
	book, err := rules.Default()
	if err != nil {
		return fmt.Errorf("failed to load rule tables: %w", err)
	}

	opts := api.Options{
		MaxBodyBytes:   a.cfg.Server.MaxBodyBytes,
		RequestTimeout: a.cfg.Server.WriteTimeout,
		ReadTimeout:    a.cfg.Server.ReadTimeout,
		WriteTimeout:   a.cfg.Server.WriteTimeout,
	}
	if useTLS {
		manager := certs.NewFileManager(a.cfg.Server.CertDir, a.cfg.Server.Hosts...)
		if opts.TLS, err = manager.TLSConfig(); err != nil {
			return fmt.Errorf("failed to prepare TLS certificate: %w", err)
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "Serving HTTPS; trust %s in your client\n", manager.CertFile())
	}

	server, err := api.NewServer(api.Deps{
		Engine:     engine,
		Calculator: taxcalc.New(book, a.cfg.Tax),
		Rules:      book,
		Store:      store,
		Metrics:    recorder.Handler(),
	}, opts)
	if err != nil {
		return err
	}

	return server.ListenAndServe(ctx, addr)
}
