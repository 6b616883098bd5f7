package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	api "github.com/mind-engage/mindengage-grader/internal/api/http"
	auth "github.com/mind-engage/mindengage-grader/internal/auth/middleware"
	"github.com/mind-engage/mindengage-grader/internal/config"
	"github.com/mind-engage/mindengage-grader/internal/db"
	"github.com/mind-engage/mindengage-grader/internal/logging"
	"github.com/mind-engage/mindengage-grader/internal/quiz"
	syncx "github.com/mind-engage/mindengage-grader/internal/sync"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("load config")
	}
	log := logging.New(cfg.LogLevel, cfg.LogFormat, os.Stderr)
	logrus.SetOutput(log.Out)
	logrus.SetFormatter(log.Formatter)
	logrus.SetLevel(log.GetLevel())

	// --- DB ---
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	dbh, err := db.Open(ctx, db.Driver(cfg.DBDriver), cfg.DBDSN)
	cancel()
	if err != nil {
		log.WithError(err).WithField("driver", cfg.DBDriver).Fatal("db open failed")
	}
	defer dbh.Close()

	store := quiz.NewSQLStore(dbh, cfg.DBDriver)
	events := syncx.NewEventRepo(dbh)
	svc := quiz.NewService(store,
		quiz.WithEvents(events, cfg.SiteID),
		quiz.WithMaxDepth(cfg.GradingMaxDepth),
	)

	// --- Auth (local JWT for offline/dev) ---
	authSvc := auth.NewAuthService(cfg.AuthHMACSecret,
		auth.WithAdmin(cfg.AdminUser, cfg.AdminPassHash),
		auth.WithLocalAuth(cfg.EnableLocalAuth),
	)

	router := api.NewRouter(api.RouterDeps{
		Service:      svc,
		Auth:         authSvc,
		Log:          log,
		DB:           dbh,
		Events:       events,
		CORSOrigins:  cfg.CORSOrigins(),
		LocalLogin:   true,
		GuestLogin:   cfg.EnableGuestAuth,
		SecureCookie: cfg.Mode == config.ModeOnline,
	})
	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: router, ReadHeaderTimeout: 10 * time.Second}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-stop
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.WithError(err).Warn("shutdown")
		}
	}()

	log.WithFields(logrus.Fields{
		"addr": cfg.HTTPAddr,
		"mode": cfg.Mode,
		"db":   cfg.DBDriver,
		"site": cfg.SiteID,
	}).Info("listening")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.WithError(err).Fatal("serve")
	}
}
