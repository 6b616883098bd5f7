package http

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	authmw "github.com/mind-engage/mindengage-grader/internal/auth/middleware"
	"github.com/mind-engage/mindengage-grader/internal/quiz"
)

type createAttemptReq struct {
	QuizID string `json:"quiz_id" validate:"required"`
}

// POST /attempts  { "quiz_id": "..." }
// The attempt belongs to the caller.
func CreateAttemptHandler(svc *quiz.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createAttemptReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		if err := validate.Struct(req); err != nil {
			http.Error(w, "quiz_id required", http.StatusBadRequest)
			return
		}
		sub := authmw.SubjectFromContext(r.Context())
		if sub == "" {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}
		a, err := svc.Store().NewAttempt(r.Context(), req.QuizID, sub)
		if err != nil {
			httpError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, a)
	}
}

// POST /attempts/{attemptID}/responses  { "0": 2, "1": ["a","c"], "2": {"0": "x"} }
func SaveResponsesHandler(svc *quiz.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "attemptID")
		var resp map[string]interface{}
		if err := json.NewDecoder(r.Body).Decode(&resp); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		a, err := svc.SaveResponses(r.Context(), id, resp)
		if err != nil {
			httpError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, a)
	}
}

// POST /attempts/{attemptID}/submit
func SubmitAttemptHandler(svc *quiz.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "attemptID")
		a, err := svc.Submit(r.Context(), id)
		if err != nil {
			httpError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, a)
	}
}

// GET /attempts/{attemptID}
func GetAttemptHandler(svc *quiz.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "attemptID")
		a, err := svc.Store().GetAttempt(r.Context(), id)
		if err != nil {
			httpError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, a)
	}
}

// attemptOwner reports whether the caller owns the attempt in the URL. A
// failed lookup is let through so the handler answers with its own error.
func attemptOwner(svc *quiz.Service) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		a, err := svc.Store().GetAttempt(r.Context(), chi.URLParam(r, "attemptID"))
		if err != nil {
			return true
		}
		sub := authmw.SubjectFromContext(r.Context())
		return sub != "" && a.UserID == sub
	}
}
