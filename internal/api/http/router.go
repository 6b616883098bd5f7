package http

import (
	"database/sql"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/sirupsen/logrus"

	"github.com/mind-engage/mindengage-grader/internal/auth"
	authmw "github.com/mind-engage/mindengage-grader/internal/auth/middleware"
	"github.com/mind-engage/mindengage-grader/internal/logging"
	"github.com/mind-engage/mindengage-grader/internal/quiz"
	"github.com/mind-engage/mindengage-grader/internal/rbac"
)

type RouterDeps struct {
	Service *quiz.Service
	Auth    *authmw.AuthService
	Log     logrus.FieldLogger
	DB      *sql.DB   // optional; pinged by /readyz
	Events  EventFeed // optional; serves GET /events

	CORSOrigins  []string
	LocalLogin   bool
	GuestLogin   bool
	SecureCookie bool
}

func NewRouter(d RouterDeps) http.Handler {
	if d.Log == nil {
		d.Log = logrus.StandardLogger()
	}
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, logging.Middleware(d.Log), middleware.Logger, middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   d.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	if d.LocalLogin {
		r.Post("/auth/login", authmw.LoginHandler(d.Auth))
	}
	if d.GuestLogin {
		r.Post("/auth/guest", auth.GuestLoginHandler(d.Auth, d.SecureCookie))
	}

	// Protected API (JWT → role in context → RBAC)
	r.Group(func(pr chi.Router) {
		pr.Use(authmw.JWTMiddleware(d.Auth))

		pr.With(rbac.Require(rbac.PermQuizCreate)).
			Post("/quizzes", UploadQuizHandler(d.Service))
		pr.With(rbac.Require(rbac.PermQuizView)).
			Get("/quizzes/{quizID}", GetQuizHandler(d.Service))
		pr.With(rbac.Require(rbac.PermGradePreview)).
			Post("/grade/preview", PreviewGradeHandler(d.Service))

		// Student flow
		pr.With(rbac.Require(rbac.PermAttemptCreate)).
			Post("/attempts", CreateAttemptHandler(d.Service))
		owner := attemptOwner(d.Service)
		pr.With(rbac.Require(rbac.PermAttemptSave), rbac.RequireOwnerOr(rbac.PermAttemptManage, owner)).
			Post("/attempts/{attemptID}/responses", SaveResponsesHandler(d.Service))
		pr.With(rbac.Require(rbac.PermAttemptSubmit), rbac.RequireOwnerOr(rbac.PermAttemptManage, owner)).
			Post("/attempts/{attemptID}/submit", SubmitAttemptHandler(d.Service))
		pr.With(rbac.RequireAny(rbac.PermAttemptViewOwn, rbac.PermAttemptViewAll), rbac.RequireOwnerOr(rbac.PermAttemptViewAll, owner)).
			Get("/attempts/{attemptID}", GetAttemptHandler(d.Service))
		pr.With(rbac.RequireAny(rbac.PermAttemptViewOwn, rbac.PermAttemptViewAll)).
			Get("/attempts", ListAttemptsHandler(d.Service))

		if d.Events != nil {
			pr.With(rbac.Require(rbac.PermEventsRead)).
				Get("/events", ListEventsHandler(d.Events))
		}
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if d.DB != nil {
			if err := d.DB.PingContext(r.Context()); err != nil {
				logging.FromContext(r.Context()).WithError(err).Warn("db not ready")
				http.Error(w, "db unavailable", http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
	})
	return r
}
