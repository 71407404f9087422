package http

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/render"

	"github.com/Veraticus/transcript-recon/internal/analysis"
	"github.com/Veraticus/transcript-recon/internal/model"
	"github.com/Veraticus/transcript-recon/internal/rules"
	"github.com/Veraticus/transcript-recon/internal/service"
	"github.com/Veraticus/transcript-recon/internal/statetax"
	"github.com/Veraticus/transcript-recon/internal/taxcalc"
	"github.com/Veraticus/transcript-recon/internal/transcript"
)

// DocumentRequest is one transcript already converted to text.
type DocumentRequest struct {
	Name     string            `json:"name"`
	Text     string            `json:"text" validate:"required"`
	Sections []service.Section `json:"sections,omitempty"`
}

// AnalyzeRequest runs a full analysis.
type AnalyzeRequest struct {
	Documents []DocumentRequest      `json:"documents" validate:"required,min=1,max=20,dive"`
	Client    analysis.ClientContext `json:"client"`
	// DryRun skips persisting the session.
	DryRun bool `json:"dry_run,omitempty"`
}

// CalculateRequest runs the federal calculator and, with State set, the
// state calculator on the resulting AGI.
type CalculateRequest struct {
	taxcalc.Input
	State string `json:"state,omitempty" validate:"omitempty,len=2,alpha"`
}

// RuleYear describes one loaded rule table.
type RuleYear struct {
	StandardDeduction map[model.FilingStatus]float64 `json:"standard_deduction"`
	TaxYear           int                            `json:"tax_year"`
}

// RulesResponse lists what the rule book covers.
type RulesResponse struct {
	Years  []RuleYear `json:"years"`
	States []string   `json:"states"`
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, s.opts.MaxBodyBytes)
	if err := render.DecodeJSON(r.Body, v); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			return fmt.Errorf("%w: limit is %d bytes", errPayloadTooBig, tooBig.Limit)
		}
		return fmt.Errorf("%w: %w", errBadRequest, err)
	}
	if err := s.validate.Struct(v); err != nil {
		return fmt.Errorf("%w: %w", errBadRequest, err)
	}
	return nil
}

func (s *Server) analyze(w http.ResponseWriter, r *http.Request) {
	var req AnalyzeRequest
	if err := s.decode(w, r, &req); err != nil {
		s.fail(w, r, err)
		return
	}

	docs := make([]transcript.Document, 0, len(req.Documents))
	for i, d := range req.Documents {
		name := d.Name
		if name == "" {
			name = "document-" + strconv.Itoa(i+1)
		}
		docs = append(docs, transcript.Document{Source: name, Text: d.Text, Sections: d.Sections})
	}

	result, err := s.deps.Engine.AnalyzeDocuments(r.Context(), docs, req.Client, nil)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	status := http.StatusOK
	if !req.DryRun && s.deps.Store != nil {
		if err := s.deps.Store.Save(r.Context(), result); err != nil {
			s.fail(w, r, fmt.Errorf("failed to save session: %w", err))
			return
		}
		w.Header().Set("Location", "/api/v1/sessions/"+result.SessionID)
		status = http.StatusCreated
	}

	render.Status(r, status)
	render.JSON(w, r, result)
}

func (s *Server) calculate(w http.ResponseWriter, r *http.Request) {
	var req CalculateRequest
	if err := s.decode(w, r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	if req.FilingStatus == "" {
		req.FilingStatus = model.FilingSingle
	}
	if !req.FilingStatus.IsValid() {
		s.fail(w, r, fmt.Errorf("%w: unknown filing status %q", errBadRequest, req.FilingStatus))
		return
	}

	calc, err := s.deps.Calculator.Calculate(req.Input)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if req.State != "" {
		state := statetax.Calculate(s.deps.Rules, req.State, calc.AdjustedGross)
		calc.State = &state
	}
	render.JSON(w, r, calc)
}

func (s *Server) listRules(w http.ResponseWriter, r *http.Request) {
	resp := RulesResponse{States: s.deps.Rules.States()}
	for _, year := range s.deps.Rules.Years() {
		table, err := s.deps.Rules.Year(year)
		if err != nil {
			s.fail(w, r, err)
			return
		}
		resp.Years = append(resp.Years, ruleYear(table))
	}
	render.JSON(w, r, resp)
}

func ruleYear(t *rules.YearTable) RuleYear {
	std := make(map[model.FilingStatus]float64, len(t.StandardDeduction))
	for status, amount := range t.StandardDeduction {
		std[status] = amount
	}
	return RuleYear{TaxYear: t.Year, StandardDeduction: std}
}
