package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/abhisek/skillscope/internal/ability"
	"github.com/abhisek/skillscope/internal/adaptive"
	"github.com/abhisek/skillscope/internal/attempt"
	"github.com/abhisek/skillscope/internal/mastery"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 1 << 20

// Handler serves the student profile endpoints.
type Handler struct {
	svc *adaptive.Service
}

// NewHandler creates a new profile handler.
func NewHandler(svc *adaptive.Service) *Handler {
	return &Handler{svc: svc}
}

// ProfileView is the wire form of a profile.
type ProfileView struct {
	*mastery.Profile
	OverallPercent int `json:"overallPercent"`
}

func newProfileView(p *mastery.Profile) ProfileView {
	return ProfileView{Profile: p, OverallPercent: p.OverallPercent()}
}

// RecordAttempts handles POST /v1/attempts. The body is one submission or
// an array of them; each is recorded and applied in order.
func (h *Handler) RecordAttempts(w http.ResponseWriter, r *http.Request) {
	raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	subs, err := attempt.DecodeSubmissions(raw)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	recorded := make([]attempt.Record, 0, len(subs))
	for _, sub := range subs {
		rec, err := h.svc.RecordAttempt(r.Context(), sub)
		if rec.ID != "" {
			recorded = append(recorded, rec)
		}
		if err != nil {
			writeJSON(w, statusFor(err), map[string]any{
				"error":    err.Error(),
				"attempts": recorded,
			})
			return
		}
	}

	writeJSON(w, http.StatusCreated, map[string]any{"attempts": recorded})
}

// ApplyRequest is the request body for re-running the update pipeline.
type ApplyRequest struct {
	ConceptID string   `json:"conceptId"`
	SkillTags []string `json:"skillTags"`
}

// Apply handles POST /v1/students/{studentId}/apply
func (h *Handler) Apply(w http.ResponseWriter, r *http.Request) {
	studentID := mux.Vars(r)["studentId"]

	var req ApplyRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.svc.ApplyAttempt(r.Context(), studentID, req.ConceptID, req.SkillTags); err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}

	p, err := h.svc.GetProfile(r.Context(), studentID)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, newProfileView(p))
}

// Profile handles GET /v1/students/{studentId}/profile
func (h *Handler) Profile(w http.ResponseWriter, r *http.Request) {
	p, err := h.svc.GetProfile(r.Context(), mux.Vars(r)["studentId"])
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, newProfileView(p))
}

// Window handles GET /v1/students/{studentId}/concepts/{conceptId}/attempts
func (h *Handler) Window(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	limit, ok := queryLimit(w, r, ability.Window)
	if !ok {
		return
	}

	recs, err := h.svc.AbilityWindow(r.Context(), vars["studentId"], vars["conceptId"], limit)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"attempts": recs})
}

// History handles GET /v1/students/{studentId}/history
func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	limit, ok := queryLimit(w, r, adaptive.DefaultHistoryLimit)
	if !ok {
		return
	}

	recs, err := h.svc.History(r.Context(), mux.Vars(r)["studentId"], limit)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"attempts": recs})
}

// NextSkill handles GET /v1/students/{studentId}/next-skill
func (h *Handler) NextSkill(w http.ResponseWriter, r *http.Request) {
	rec, err := h.svc.RecommendSkill(r.Context(), mux.Vars(r)["studentId"])
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	if rec == nil {
		writeJSON(w, http.StatusOK, map[string]any{"skill": nil})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"skill": rec.Skill, "state": rec.State})
}

func queryLimit(w http.ResponseWriter, r *http.Request, fallback int) (int, bool) {
	v := r.URL.Query().Get("limit")
	if v == "" {
		return fallback, true
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		writeError(w, http.StatusBadRequest, "limit must be an integer")
		return 0, false
	}
	return n, true
}

// statusFor maps service errors onto HTTP status codes.
func statusFor(err error) int {
	var (
		verr *adaptive.ValidationError
		cerr *adaptive.ConflictError
	)
	switch {
	case errors.Is(err, adaptive.ErrNotFound):
		return http.StatusNotFound
	case errors.As(err, &verr), errors.Is(err, attempt.ErrInvalid):
		return http.StatusBadRequest
	case errors.As(err, &cerr):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
