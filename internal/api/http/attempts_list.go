package http

import (
	"net/http"
	"strings"

	authmw "github.com/mind-engage/mindengage-grader/internal/auth/middleware"
	"github.com/mind-engage/mindengage-grader/internal/quiz"
	"github.com/mind-engage/mindengage-grader/internal/rbac"
)

// GET /attempts?quiz_id=...&user_id=...&status=...&limit=50&offset=0
// RBAC:
// - role with attempt:view-all can list any filters
// - role with attempt:view-own can only see their own attempts (user_id is forced to subject)
func ListAttemptsHandler(svc *quiz.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		opts := quiz.AttemptListOpts{
			QuizID: strings.TrimSpace(q.Get("quiz_id")),
			UserID: strings.TrimSpace(q.Get("user_id")),
			Status: strings.TrimSpace(q.Get("status")),
			Limit:  parseIntDefault(q.Get("limit"), 50),
			Offset: parseIntDefault(q.Get("offset"), 0),
		}
		if opts.Limit > 200 {
			opts.Limit = 200
		}
		if !rbac.Allowed(r.Context(), rbac.PermAttemptViewAll) {
			opts.UserID = authmw.SubjectFromContext(r.Context())
			if opts.UserID == "" {
				http.Error(w, "forbidden", http.StatusForbidden)
				return
			}
		}

		list, err := svc.Store().ListAttempts(r.Context(), opts)
		if err != nil {
			httpError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, list)
	}
}
