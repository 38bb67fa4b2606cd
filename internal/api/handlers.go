// Package api exposes the profile store and generator over a small
// local HTTP surface.
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/simonwyatt/fake-menstruator/internal/sim"
	"github.com/simonwyatt/fake-menstruator/internal/storage"
)

const maxBodySize = 1 << 20 // 1MB

// Deps holds dependencies for the HTTP handler set.
type Deps struct {
	Store *storage.Store
	// NewRunner returns a fresh runner per request; runners own a
	// random stream and are not safe for concurrent use.
	NewRunner func() *sim.Runner
	// Token enables bearer auth when non-empty.
	Token string
}

// NewHandler builds the router. /health is always open; everything
// else sits behind bearer auth when a token is configured.
func NewHandler(deps Deps) http.Handler {
	r := chi.NewRouter()

	r.Get("/health", handleHealth)

	r.Group(func(r chi.Router) {
		if deps.Token != "" {
			r.Use(BearerAuth(deps.Token))
		}
		r.Get("/profiles", handleListProfiles(deps))
		r.Post("/profiles", handleCreateProfiles(deps))
		r.Get("/profiles/{id}", handleGetProfile(deps))
		r.Delete("/profiles/{id}", handleDeleteProfile(deps))
		r.Get("/profiles/{id}/cycles", handleListCycles(deps))
		r.Post("/profiles/{id}/cycles", handleGenerateCycles(deps))
	})

	return r
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type profileResponse struct {
	ID          string  `json:"id"`
	CreatedAt   string  `json:"created_at"`
	Label       string  `json:"label,omitempty"`
	Description string  `json:"description"`
	CycleMu     float64 `json:"cycle_mu"`
	CycleSigma  float64 `json:"cycle_sigma"`
	BleedMu     float64 `json:"bleed_mu"`
	BleedSigma  float64 `json:"bleed_sigma"`
	AnomalyP    float64 `json:"anomaly_p"`
}

type cycleResponse struct {
	ID        string  `json:"id"`
	ProfileID string  `json:"profile_id"`
	Seq       int     `json:"cycle"`
	StartDate string  `json:"start_date"`
	BleedDays float64 `json:"bleed_days"`
	Note      string  `json:"note,omitempty"`
}

func toProfileResponse(p storage.Profile) profileResponse {
	return profileResponse{
		ID:          p.ID,
		CreatedAt:   p.CreatedAt.UTC().Format(time.RFC3339),
		Label:       p.Label,
		Description: p.Description,
		CycleMu:     p.CycleMu,
		CycleSigma:  p.CycleSigma,
		BleedMu:     p.BleedMu,
		BleedSigma:  p.BleedSigma,
		AnomalyP:    p.AnomalyP,
	}
}

func toCycleResponses(cycles []storage.Cycle) []cycleResponse {
	out := make([]cycleResponse, len(cycles))
	for i, c := range cycles {
		out[i] = cycleResponse{
			ID:        c.ID,
			ProfileID: c.ProfileID,
			Seq:       c.Seq,
			StartDate: c.StartDate.Format("2006-01-02"),
			BleedDays: c.BleedDays,
			Note:      c.Note,
		}
	}
	return out
}

func handleListProfiles(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		profiles, err := deps.Store.ListProfiles()
		if err != nil {
			httpError(w, http.StatusInternalServerError, "storage_error", "listing profiles: %v", err)
			return
		}
		out := make([]profileResponse, len(profiles))
		for i, p := range profiles {
			out[i] = toProfileResponse(p)
		}
		respondJSON(w, http.StatusOK, out)
	}
}

type createProfilesRequest struct {
	Count int    `json:"count"`
	Label string `json:"label"`
}

func handleCreateProfiles(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
		defer r.Body.Close()

		req := createProfilesRequest{Count: 1}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
			return
		}
		if req.Count < 1 || req.Count > 1000 {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "count must be in [1, 1000], got %d", req.Count)
			return
		}

		profiles, err := deps.NewRunner().NewProfiles(r.Context(), req.Count, req.Label)
		if err != nil {
			httpError(w, http.StatusInternalServerError, "generation_error", "deriving profiles: %v", err)
			return
		}

		out := make([]profileResponse, len(profiles))
		for i, p := range profiles {
			out[i] = toProfileResponse(p)
		}
		respondJSON(w, http.StatusCreated, out)
	}
}

func handleGetProfile(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := deps.Store.GetProfile(chi.URLParam(r, "id"))
		if errors.Is(err, storage.ErrNotFound) {
			httpError(w, http.StatusNotFound, "not_found", "profile not found")
			return
		}
		if err != nil {
			httpError(w, http.StatusInternalServerError, "storage_error", "loading profile: %v", err)
			return
		}
		respondJSON(w, http.StatusOK, toProfileResponse(p))
	}
}

func handleDeleteProfile(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		err := deps.Store.DeleteProfile(chi.URLParam(r, "id"))
		if errors.Is(err, storage.ErrNotFound) {
			httpError(w, http.StatusNotFound, "not_found", "profile not found")
			return
		}
		if err != nil {
			httpError(w, http.StatusInternalServerError, "storage_error", "deleting profile: %v", err)
			return
		}
		respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
	}
}

func handleListCycles(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if _, err := deps.Store.GetProfile(id); errors.Is(err, storage.ErrNotFound) {
			httpError(w, http.StatusNotFound, "not_found", "profile not found")
			return
		} else if err != nil {
			httpError(w, http.StatusInternalServerError, "storage_error", "loading profile: %v", err)
			return
		}

		cycles, err := deps.Store.ListCycles(id)
		if err != nil {
			httpError(w, http.StatusInternalServerError, "storage_error", "listing cycles: %v", err)
			return
		}
		respondJSON(w, http.StatusOK, toCycleResponses(cycles))
	}
}

type generateCyclesRequest struct {
	Count           int    `json:"count"`
	StartDate       string `json:"start_date"`        // YYYY-MM-DD, empty means today
	InitialCycleDay *int   `json:"initial_cycle_day"` // absent means random
}

func handleGenerateCycles(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
		defer r.Body.Close()

		req := generateCyclesRequest{Count: 12}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
			return
		}
		if req.Count < 1 || req.Count > 10000 {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "count must be in [1, 10000], got %d", req.Count)
			return
		}

		var start time.Time
		if req.StartDate != "" {
			t, err := time.Parse("2006-01-02", req.StartDate)
			if err != nil {
				httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid start_date: %v", err)
				return
			}
			start = t
		}

		day := sim.RandomCycleDay
		if req.InitialCycleDay != nil {
			if *req.InitialCycleDay < 0 {
				httpError(w, http.StatusBadRequest, "invalid_request_error", "initial_cycle_day must be non-negative")
				return
			}
			day = *req.InitialCycleDay
		}

		cycles, err := deps.NewRunner().GenerateBatch(chi.URLParam(r, "id"), start, req.Count, day)
		if errors.Is(err, storage.ErrNotFound) {
			httpError(w, http.StatusNotFound, "not_found", "profile not found")
			return
		}
		if err != nil {
			httpError(w, http.StatusInternalServerError, "generation_error", "generating cycles: %v", err)
			return
		}
		respondJSON(w, http.StatusCreated, toCycleResponses(cycles))
	}
}

func respondJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func httpError(w http.ResponseWriter, code int, errType string, format string, args ...any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	msg := fmt.Sprintf(format, args...)
	json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]any{
			"message": msg,
			"type":    errType,
		},
	})
}
