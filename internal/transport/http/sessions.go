package http

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/Veraticus/transcript-recon/internal/export"
	"github.com/Veraticus/transcript-recon/internal/service"
	"github.com/Veraticus/transcript-recon/internal/storage"
)

func (s *Server) store() (service.ResultStore, error) {
	if s.deps.Store == nil {
		return nil, errStoreDisabled
	}
	return s.deps.Store, nil
}

func (s *Server) listSessions(w http.ResponseWriter, r *http.Request) {
	store, err := s.store()
	if err != nil {
		s.fail(w, r, err)
		return
	}

	limit := storage.DefaultListLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil || limit <= 0 {
			s.fail(w, r, fmt.Errorf("%w: limit must be a positive integer", errBadRequest))
			return
		}
	}

	sessions, err := store.List(r.Context(), limit)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if sessions == nil {
		sessions = []service.SessionSummary{}
	}
	render.JSON(w, r, sessions)
}

func (s *Server) getSession(w http.ResponseWriter, r *http.Request) {
	store, err := s.store()
	if err != nil {
		s.fail(w, r, err)
		return
	}

	result, err := store.Get(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	render.JSON(w, r, result)
}

func (s *Server) deleteSession(w http.ResponseWriter, r *http.Request) {
	store, err := s.store()
	if err != nil {
		s.fail(w, r, err)
		return
	}

	if err := store.Delete(r.Context(), chi.URLParam(r, "sessionID")); err != nil {
		s.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) exportSession(w http.ResponseWriter, r *http.Request) {
	store, err := s.store()
	if err != nil {
		s.fail(w, r, err)
		return
	}

	format := export.Format(r.URL.Query().Get("format"))
	if format == "" {
		format = export.FormatRecommendationsCSV
	}
	exporter, err := export.New(format)
	if err != nil {
		s.fail(w, r, fmt.Errorf("%w: %w", errBadRequest, err))
		return
	}

	sessionID := chi.URLParam(r, "sessionID")
	result, err := store.Get(r.Context(), sessionID)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	contentType := "text/csv; charset=utf-8"
	if format == export.FormatXLSX {
		contentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=%q", sessionID+"-"+string(format)+export.Extension(format)))

	if err := exporter.Export(w, result); err != nil {
		s.logger.ErrorContext(r.Context(), "export failed after headers were sent",
			"error", err,
			"session_id", sessionID,
			"format", format)
	}
}

func (s *Server) findings(w http.ResponseWriter, r *http.Request) {
	store, err := s.store()
	if err != nil {
		s.fail(w, r, err)
		return
	}
	querier, ok := store.(FindingQuerier)
	if !ok {
		s.fail(w, r, errStoreDisabled)
		return
	}

	year := 0
	if raw := r.URL.Query().Get("year"); raw != "" {
		year, err = strconv.Atoi(raw)
		if err != nil || year < 0 {
			s.fail(w, r, fmt.Errorf("%w: year must be a tax year", errBadRequest))
			return
		}
	}

	records, err := querier.FindingsByYear(r.Context(), year)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if records == nil {
		records = []storage.FindingRecord{}
	}
	render.JSON(w, r, records)
}
