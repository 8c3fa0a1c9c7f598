package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	perrors "github.com/evsingleline/singleline/pkg/errors"
	"github.com/evsingleline/singleline/pkg/pipeline"
	"github.com/evsingleline/singleline/pkg/store"
	"github.com/evsingleline/singleline/pkg/survey"
)

// =============================================================================
// Request and Response Types
// =============================================================================

// createSurveyRequest starts a survey from a service description or imports
// a complete snapshot.
type createSurveyRequest struct {
	Name     string                  `json:"name,omitempty"`
	Service  *survey.ServiceEntrance `json:"service,omitempty"`
	SiteInfo *survey.SiteInfo        `json:"siteInfo,omitempty"`
	Survey   *survey.Survey          `json:"survey,omitempty"`
}

type putSurveyRequest struct {
	Name   string        `json:"name,omitempty"`
	Survey survey.Survey `json:"survey"`
}

// addPanelRequest adds a sub-panel under ParentID, or a root panel to
// ServiceID. Both empty adds a root panel to the first service.
type addPanelRequest struct {
	ParentID  string `json:"parentId,omitempty"`
	ServiceID string `json:"serviceId,omitempty"`
}

// addBreakerRequest is a breaker, optionally pre-populated from a charger
// profile.
type addBreakerRequest struct {
	ProfileID string `json:"profileId,omitempty"`
	survey.Breaker
}

// mutationResponse returns the stored survey and the element a mutation
// created or changed.
type mutationResponse struct {
	Survey  store.Record    `json:"survey"`
	Panel   *survey.Panel   `json:"panel,omitempty"`
	Breaker *survey.Breaker `json:"breaker,omitempty"`
}

// =============================================================================
// Surveys
// =============================================================================

func (s *Server) handleListSurveys(w http.ResponseWriter, r *http.Request) {
	list, err := s.store.List(r.Context())
	if err != nil {
		s.writeError(w, r, storageErr(err))
		return
	}
	if list == nil {
		list = []store.Summary{}
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleCreateSurvey(w http.ResponseWriter, r *http.Request) {
	var req createSurveyRequest
	if err := decodeOptional(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	var snap survey.Survey
	if req.Survey != nil {
		snap = *req.Survey
	} else {
		var svc survey.ServiceEntrance
		if req.Service != nil {
			svc = *req.Service
		}
		snap = s.editor.New(svc)
		if req.SiteInfo != nil {
			snap = s.editor.UpdateSiteInfo(snap, *req.SiteInfo)
		}
	}
	if err := snap.Validate(); err != nil {
		s.writeError(w, r, err)
		return
	}

	rec, err := s.store.Put(r.Context(), store.Record{Name: req.Name, Survey: snap})
	if err != nil {
		s.writeError(w, r, storageErr(err))
		return
	}
	s.logger.Info("survey created", "id", rec.ID, "panels", len(snap.Panels))
	w.Header().Set("Location", "/api/v1/surveys/"+rec.ID)
	writeJSON(w, http.StatusCreated, rec)
}

func (s *Server) handleGetSurvey(w http.ResponseWriter, r *http.Request) {
	rec, err := s.load(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) handlePutSurvey(w http.ResponseWriter, r *http.Request) {
	var req putSurveyRequest
	if err := decode(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.mutate(w, r, http.StatusOK, func(rec *store.Record) (mutationResponse, error) {
		if err := req.Survey.Validate(); err != nil {
			return mutationResponse{}, err
		}
		rec.Survey = req.Survey
		if req.Name != "" {
			rec.Name = req.Name
		}
		return mutationResponse{}, nil
	})
}

func (s *Server) handleDeleteSurvey(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := perrors.ValidateSurveyID(id); err != nil {
		s.writeError(w, r, err)
		return
	}
	unlock := s.lock(id)
	defer unlock()
	if err := s.store.Delete(r.Context(), id); err != nil {
		s.writeError(w, r, storageErr(err))
		return
	}
	s.logger.Info("survey deleted", "id", id)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	rec, err := s.load(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	q := r.URL.Query()
	var format string
	switch q.Get("format") {
	case "", "pdf":
		format = pipeline.FormatReport
	case "xlsx":
		format = pipeline.FormatXLSX
	case "json":
		rep, hit, err := s.runner.AnalyzeWithCacheInfo(r.Context(), rec.Survey, pipeline.Options{})
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		setCacheHeader(w, hit)
		writeJSON(w, http.StatusOK, newAnalyzeResponse(rep))
		return
	default:
		s.writeError(w, r, perrors.ValidateFormat(q.Get("format"), "pdf", "xlsx", "json"))
		return
	}
	opts, err := s.renderOptions(q)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeArtifact(w, r, rec.Survey, format, opts, rec.ID)
}

// =============================================================================
// Panels
// =============================================================================

func (s *Server) handleAddPanel(w http.ResponseWriter, r *http.Request) {
	var req addPanelRequest
	if err := decodeOptional(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.mutate(w, r, http.StatusCreated, func(rec *store.Record) (mutationResponse, error) {
		var (
			next survey.Survey
			p    survey.Panel
			err  error
		)
		if req.ServiceID != "" {
			next, p, err = s.editor.AddRootPanel(rec.Survey, req.ServiceID)
		} else {
			next, p, err = s.editor.AddPanel(rec.Survey, req.ParentID)
		}
		if err != nil {
			return mutationResponse{}, err
		}
		rec.Survey = next
		return mutationResponse{Panel: &p}, nil
	})
}

func (s *Server) handleUpdatePanel(w http.ResponseWriter, r *http.Request) {
	var p survey.Panel
	if err := decode(w, r, &p); err != nil {
		s.writeError(w, r, err)
		return
	}
	p.ID = chi.URLParam(r, "panelID")
	s.mutate(w, r, http.StatusOK, func(rec *store.Record) (mutationResponse, error) {
		next, err := s.editor.UpdatePanel(rec.Survey, p)
		if err != nil {
			return mutationResponse{}, err
		}
		rec.Survey = next
		updated, _ := next.Panel(p.ID)
		return mutationResponse{Panel: &updated}, nil
	})
}

func (s *Server) handleRemovePanel(w http.ResponseWriter, r *http.Request) {
	panelID := chi.URLParam(r, "panelID")
	s.mutate(w, r, http.StatusOK, func(rec *store.Record) (mutationResponse, error) {
		if _, ok := rec.Survey.Panel(panelID); !ok {
			return mutationResponse{}, survey.ErrPanelNotFound
		}
		next := s.editor.RemovePanel(rec.Survey, panelID)
		if len(next.Panels) == len(rec.Survey.Panels) {
			return mutationResponse{}, perrors.New(perrors.ErrCodeInvalidInput, "panel %s is the only panel of its service", panelID)
		}
		rec.Survey = next
		return mutationResponse{}, nil
	})
}

func (s *Server) handleSetTransformer(w http.ResponseWriter, r *http.Request) {
	var t survey.Transformer
	if err := decode(w, r, &t); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.setTransformer(w, r, &t)
}

func (s *Server) handleRemoveTransformer(w http.ResponseWriter, r *http.Request) {
	s.setTransformer(w, r, nil)
}

func (s *Server) setTransformer(w http.ResponseWriter, r *http.Request, t *survey.Transformer) {
	panelID := chi.URLParam(r, "panelID")
	s.mutate(w, r, http.StatusOK, func(rec *store.Record) (mutationResponse, error) {
		next, err := s.editor.SetTransformer(rec.Survey, panelID, t)
		if err != nil {
			return mutationResponse{}, err
		}
		rec.Survey = next
		p, _ := next.Panel(panelID)
		return mutationResponse{Panel: &p}, nil
	})
}

// =============================================================================
// Breakers
// =============================================================================

func (s *Server) handleAddBreaker(w http.ResponseWriter, r *http.Request) {
	var req addBreakerRequest
	if err := decodeOptional(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	panelID := chi.URLParam(r, "panelID")
	s.mutate(w, r, http.StatusCreated, func(rec *store.Record) (mutationResponse, error) {
		var (
			next survey.Survey
			b    survey.Breaker
			err  error
		)
		if req.ProfileID != "" {
			prof, perr := s.catalog.Get(req.ProfileID)
			if perr != nil {
				return mutationResponse{}, perr
			}
			next, b, err = s.editor.AddEVCharger(rec.Survey, panelID, &prof)
		} else {
			next, b, err = s.editor.AddBreaker(rec.Survey, panelID, req.Breaker)
		}
		if err != nil {
			return mutationResponse{}, err
		}
		rec.Survey = next
		return mutationResponse{Breaker: &b}, nil
	})
}

func (s *Server) handleUpdateBreaker(w http.ResponseWriter, r *http.Request) {
	var b survey.Breaker
	if err := decode(w, r, &b); err != nil {
		s.writeError(w, r, err)
		return
	}
	panelID := chi.URLParam(r, "panelID")
	b.ID = chi.URLParam(r, "breakerID")
	s.mutate(w, r, http.StatusOK, func(rec *store.Record) (mutationResponse, error) {
		next, err := s.editor.UpdateBreaker(rec.Survey, panelID, b)
		if err != nil {
			return mutationResponse{}, err
		}
		rec.Survey = next
		p, _ := next.Panel(panelID)
		updated, _ := p.Breaker(b.ID)
		return mutationResponse{Breaker: &updated}, nil
	})
}

func (s *Server) handleRemoveBreaker(w http.ResponseWriter, r *http.Request) {
	panelID := chi.URLParam(r, "panelID")
	breakerID := chi.URLParam(r, "breakerID")
	s.mutate(w, r, http.StatusOK, func(rec *store.Record) (mutationResponse, error) {
		next, err := s.editor.RemoveBreaker(rec.Survey, panelID, breakerID)
		if err != nil {
			return mutationResponse{}, err
		}
		rec.Survey = next
		return mutationResponse{}, nil
	})
}

// =============================================================================
// Helpers
// =============================================================================

// mutate runs one read-modify-write cycle on the survey named in the URL.
// fn edits rec in place; the stored record is returned with fn's result.
func (s *Server) mutate(w http.ResponseWriter, r *http.Request, status int, fn func(rec *store.Record) (mutationResponse, error)) {
	id := chi.URLParam(r, "id")
	if err := perrors.ValidateSurveyID(id); err != nil {
		s.writeError(w, r, err)
		return
	}
	unlock := s.lock(id)
	defer unlock()

	rec, err := s.load(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	resp, err := fn(&rec)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	saved, err := s.store.Put(r.Context(), rec)
	if err != nil {
		s.writeError(w, r, storageErr(err))
		return
	}
	resp.Survey = saved
	writeJSON(w, status, resp)
}

func (s *Server) load(ctx context.Context, id string) (store.Record, error) {
	if err := perrors.ValidateSurveyID(id); err != nil {
		return store.Record{}, err
	}
	rec, err := s.store.Get(ctx, id)
	if err != nil {
		return store.Record{}, storageErr(err)
	}
	return rec, nil
}

// storageErr marks backend failures as STORAGE, leaving not-found and
// already-coded errors alone.
func storageErr(err error) error {
	if errors.Is(err, store.ErrNotFound) || perrors.GetCode(err) != "" {
		return err
	}
	return perrors.Wrap(perrors.ErrCodeStorage, err, "survey store")
}

// decodeOptional is decode that accepts an empty body.
func decodeOptional(w http.ResponseWriter, r *http.Request, v any) error {
	if r.ContentLength == 0 {
		return nil
	}
	err := decode(w, r, v)
	if errors.Is(err, errEmptyBody) {
		return nil
	}
	return err
}
