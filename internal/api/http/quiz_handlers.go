package http

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/mind-engage/mindengage-grader/internal/grading"
	"github.com/mind-engage/mindengage-grader/internal/quiz"
	"github.com/mind-engage/mindengage-grader/internal/rbac"
)

var validate = validator.New()

// POST /quizzes
func UploadQuizHandler(svc *quiz.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var q quiz.Quiz
		if err := json.NewDecoder(r.Body).Decode(&q); err != nil {
			http.Error(w, "bad json: "+err.Error(), http.StatusBadRequest)
			return
		}
		stored, err := svc.CreateQuiz(r.Context(), q)
		if err != nil {
			httpError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]string{"status": "ok", "id": stored.ID})
	}
}

// GET /quizzes/{quizID}
// Authors get the full definition; everyone else gets the learner view.
func GetQuizHandler(svc *quiz.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "quizID")
		get := svc.Store().GetQuiz
		if rbac.Allowed(r.Context(), rbac.PermQuizCreate) {
			get = svc.Store().GetQuizAdmin
		}
		q, err := get(r.Context(), id)
		if err != nil {
			httpError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, q)
	}
}

type previewReq struct {
	Questions []grading.Question     `json:"questions" validate:"required,min=1,dive"`
	Answers   map[string]interface{} `json:"answers"`
}

// POST /grade/preview  { "questions": [...], "answers": { "0": ... } }
func PreviewGradeHandler(svc *quiz.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req previewReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json: "+err.Error(), http.StatusBadRequest)
			return
		}
		if err := validate.Struct(req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		g, err := svc.Preview(r.Context(), req.Questions, req.Answers)
		if err != nil {
			httpError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, g)
	}
}
