package main

import (
	"context"
	"errors"
	"flag"
	"io/fs"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
	"github.com/gorilla/securecookie"
	"github.com/gorilla/sessions"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"omsz_portal/internal/config"
	"omsz_portal/internal/logger"
	"omsz_portal/internal/models"
	"omsz_portal/internal/records"
	"omsz_portal/internal/rollover"
	"omsz_portal/internal/session"
	"omsz_portal/internal/stats"
	"omsz_portal/internal/store"
)

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Fatal("Failed to load .env:", err)
	}

	configPath := flag.String("config", os.Getenv("PORTAL_CONFIG"), "path to the YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal(err)
	}
	if err := config.Validate(cfg); err != nil {
		log.Fatal(err)
	}

	logg, err := logger.New(logger.Config{
		Level:       cfg.Log.Level,
		Environment: cfg.Log.Environment,
		WithSource:  cfg.Log.WithSource,
		File:        cfg.Log.File,
		MaxSizeMB:   cfg.Log.MaxSizeMB,
		MaxBackups:  cfg.Log.MaxBackups,
		MaxAgeDays:  cfg.Log.MaxAgeDays,
	})
	if err != nil {
		log.Fatal(err)
	}

	if err := run(cfg, logg); err != nil {
		logg.Error("portal_stopped", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	loc, err := time.LoadLocation(cfg.Locale.Timezone)
	if err != nil {
		return err
	}
	instant, err := rollover.ParseInstant(cfg.Rollover.Weekday, cfg.Rollover.Time)
	if err != nil {
		return err
	}
	window, err := rollover.ParseWindow(cfg.SummaryWindow.Weekday, cfg.SummaryWindow.Start, cfg.SummaryWindow.End)
	if err != nil {
		return err
	}

	st, err := store.Open(ctx, store.Options{
		Driver:      cfg.Storage.Driver,
		FilePath:    cfg.Storage.FilePath,
		PostgresDSN: cfg.Storage.PostgresDSN,
		Redis: store.RedisOptions{
			Addr:     cfg.Storage.RedisAddr,
			Password: cfg.Storage.RedisPassword,
			DB:       cfg.Storage.RedisDB,
			Prefix:   cfg.Storage.KeyPrefix,

			DialTimeout: cfg.Storage.RedisDialTimeout,
			ReadTimeout: cfg.Storage.RedisReadTimeout,
		},
	})
	if err != nil {
		return err
	}
	defer st.Close()
	log.Info("storage_opened", "driver", cfg.Storage.Driver)

	manager := records.NewManager(st, records.Options{
		Admin: models.User{
			Username: cfg.Admin.Username,
			Password: cfg.Admin.Password,
			FullName: cfg.Admin.FullName,
			Rank:     cfg.Admin.Rank,
		},
		Location: loc,
	}, log)
	if err := manager.Bootstrap(ctx); err != nil {
		return err
	}

	secret := []byte(cfg.Server.SessionSecret)
	if len(secret) == 0 {
		secret = securecookie.GenerateRandomKey(32)
		log.Warn("session_secret_generated", "hint", "sessions will not survive a restart")
	}
	cookies := sessions.NewCookieStore(secret)
	cookies.Options.Path = "/"
	cookies.Options.HttpOnly = true
	cookies.Options.Secure = cfg.Server.SecureCookie
	cookies.Options.SameSite = http.SameSiteLaxMode

	gate := session.NewGate(cfg.Session.InactivityTimeout, log)
	defer gate.Shutdown()

	roller := rollover.NewRoller(st, log, nil)

	srv := &Server{
		records:  manager,
		roller:   roller,
		gate:     gate,
		cookies:  cookies,
		window:   window,
		format:   stats.NewFormatter(cfg.Locale.Language),
		validate: validator.New(),
		log:      log,
		static:   cfg.Server.StaticDir,
		now:      time.Now,
	}

	httpServer := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           srv.routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("server_starting", "addr", cfg.Server.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		log.Info("weekly_rollover_scheduled", "at", instant.String(), "timezone", loc.String())
		return rollover.NewTask(roller, instant, loc, cfg.Rollover.CatchUp, log).Run(gctx)
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		log.Info("server_stopping")
		return httpServer.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func (s *Server) routes() *mux.Router {
	r := mux.NewRouter()
	r.Use(requestLogger(s.log))

	// Static files
	r.PathPrefix("/static/").Handler(http.StripPrefix("/static/", http.FileServer(http.Dir(s.static))))
	r.Handle("/metrics", promhttp.Handler()).Methods("GET")

	// Routes
	r.HandleFunc("/", s.homeHandler).Methods("GET")
	r.HandleFunc("/login", s.loginHandler).Methods("POST")
	r.HandleFunc("/logout", s.logoutHandler).Methods("POST")
	r.HandleFunc("/api/check-auth", s.requireAuth(s.checkAuthHandler)).Methods("GET")
	r.HandleFunc("/api/activity", s.requireAuth(s.activityHandler)).Methods("POST")

	r.HandleFunc("/api/users", s.requireAdmin(s.getUsersHandler)).Methods("GET")
	r.HandleFunc("/api/users", s.requireAdmin(s.createUserHandler)).Methods("POST")
	r.HandleFunc("/api/users/{username}", s.requireAdmin(s.deleteUserHandler)).Methods("DELETE")

	r.HandleFunc("/api/services", s.requireAuth(s.getServicesHandler)).Methods("GET")
	r.HandleFunc("/api/services", s.requireAuth(s.createServiceHandler)).Methods("POST")
	r.HandleFunc("/api/services/{id}", s.requireAuth(s.deleteServiceHandler)).Methods("DELETE")
	r.HandleFunc("/api/calculator", s.requireAuth(s.calculatorHandler)).Methods("POST")

	r.HandleFunc("/api/reports", s.requireAuth(s.getReportsHandler)).Methods("GET")
	r.HandleFunc("/api/reports", s.requireAuth(s.createReportHandler)).Methods("POST")
	r.HandleFunc("/api/reports/{id}", s.requireAuth(s.deleteReportHandler)).Methods("DELETE")

	r.HandleFunc("/api/posts", s.requireAuth(s.getPostsHandler)).Methods("GET")
	r.HandleFunc("/api/posts", s.requireAdmin(s.createPostHandler)).Methods("POST")
	r.HandleFunc("/api/posts/{id}", s.requireAdmin(s.updatePostHandler)).Methods("PUT")
	r.HandleFunc("/api/posts/{id}", s.requireAdmin(s.deletePostHandler)).Methods("DELETE")

	r.HandleFunc("/api/stats/home", s.requireAuth(s.homeStatsHandler)).Methods("GET")
	r.HandleFunc("/api/weekly/live", s.requireAdmin(s.weeklyLiveHandler)).Methods("GET")
	r.HandleFunc("/api/weekly/history", s.requireAdmin(s.weeklyHistoryHandler)).Methods("GET")
	r.HandleFunc("/api/weekly/rollover", s.requireAdmin(s.rolloverHandler)).Methods("POST")

	return r
}
