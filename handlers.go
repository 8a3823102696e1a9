package main

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
	"github.com/gorilla/sessions"

	"omsz_portal/internal/metrics"
	"omsz_portal/internal/models"
	"omsz_portal/internal/records"
	"omsz_portal/internal/rollover"
	"omsz_portal/internal/session"
	"omsz_portal/internal/stats"
)

const (
	sessionName = "session"
	sessionKey  = "sid"
)

type ctxKey int

const (
	userKey ctxKey = iota
)

// Server holds everything the HTTP handlers need.
type Server struct {
	records  *records.Manager
	roller   *rollover.Roller
	gate     *session.Gate
	cookies  sessions.Store
	window   rollover.Window
	format   stats.Formatter
	validate *validator.Validate
	log      *slog.Logger
	static   string
	now      func() time.Time
}

func currentUser(r *http.Request) models.User {
	u, _ := r.Context().Value(userKey).(models.User)
	return u
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// decode reads a JSON body into dst and validates it.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return false
	}
	if err := s.validate.Struct(dst); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return false
	}
	return true
}

// fail maps a domain error to its status code.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, records.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, records.ErrForbidden), errors.Is(err, records.ErrProtectedUser):
		status = http.StatusForbidden
	case errors.Is(err, records.ErrNotConfirmed):
		status = http.StatusPreconditionRequired
	case errors.Is(err, records.ErrUserExists):
		status = http.StatusConflict
	case errors.Is(err, records.ErrInvalidRank),
		errors.Is(err, records.ErrInvalidTimestamp),
		errors.Is(err, records.ErrNegativeDuration),
		errors.Is(err, records.ErrNegativeTicket),
		errors.Is(err, records.ErrUnknownCalculatorItem),
		errors.Is(err, records.ErrEmptyQuote),
		errors.Is(err, records.ErrInvalidPost):
		status = http.StatusBadRequest
	}

	if status == http.StatusInternalServerError {
		s.log.Error("request_failed", "method", r.Method, "path", r.URL.Path, "error", err)
		http.Error(w, "Internal error", status)
		return
	}
	http.Error(w, err.Error(), status)
}

func confirmed(r *http.Request) bool {
	return r.URL.Query().Get("confirm") == "true"
}

// Authentication handlers
func (s *Server) homeHandler(w http.ResponseWriter, r *http.Request) {
	http.ServeFile(w, r, filepath.Join(s.static, "index.html"))
}

func (s *Server) loginHandler(w http.ResponseWriter, r *http.Request) {
	var credentials loginRequest
	if !s.decode(w, r, &credentials) {
		return
	}

	user, err := s.records.Authenticate(r.Context(), credentials.Username, credentials.Password)
	if errors.Is(err, records.ErrInvalidCredentials) {
		metrics.RecordLogin(false)
		s.log.Warn("login_failed", "username", credentials.Username)
		http.Error(w, "Invalid credentials", http.StatusUnauthorized)
		return
	}
	if err != nil {
		s.fail(w, r, err)
		return
	}

	sess, _ := s.cookies.Get(r, sessionName)
	if old, ok := sess.Values[sessionKey].(string); ok {
		s.gate.Close(old)
	}
	sess.Values[sessionKey] = s.gate.Open(user.ID, user.Username)
	if err := sess.Save(r, w); err != nil {
		s.fail(w, r, err)
		return
	}

	metrics.RecordLogin(true)
	s.log.Info("login", "username", user.Username)
	writeJSON(w, http.StatusOK, newUserView(user))
}

func (s *Server) logoutHandler(w http.ResponseWriter, r *http.Request) {
	sess, _ := s.cookies.Get(r, sessionName)
	if sid, ok := sess.Values[sessionKey].(string); ok {
		s.gate.Close(sid)
	}
	s.dropCookie(w, r)
	w.WriteHeader(http.StatusOK)
}

func (s *Server) dropCookie(w http.ResponseWriter, r *http.Request) {
	sess, _ := s.cookies.Get(r, sessionName)
	delete(sess.Values, sessionKey)
	sess.Options.MaxAge = -1
	sess.Save(r, w)
}

func (s *Server) checkAuthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, newUserView(currentUser(r)))
}

// activityHandler only exists to re-arm the countdown, which requireAuth
// already did.
func (s *Server) activityHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusNoContent)
}

// requireAuth resolves the session cookie to a user and counts the request
// as activity.
func (s *Server) requireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, _ := s.cookies.Get(r, sessionName)
		sid, ok := sess.Values[sessionKey].(string)
		if !ok || sid == "" {
			http.Error(w, "Authentication required", http.StatusUnauthorized)
			return
		}

		identity, err := s.gate.Lookup(sid)
		if errors.Is(err, session.ErrAutoLogout) {
			s.dropCookie(w, r)
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "auto_logout"})
			return
		}
		if err != nil {
			s.dropCookie(w, r)
			http.Error(w, "Session expired", http.StatusUnauthorized)
			return
		}

		user, err := s.records.User(r.Context(), identity.UserID)
		if errors.Is(err, records.ErrNotFound) {
			s.gate.Close(sid)
			s.dropCookie(w, r)
			http.Error(w, "Authentication required", http.StatusUnauthorized)
			return
		}
		if err != nil {
			s.fail(w, r, err)
			return
		}

		s.gate.Touch(sid)
		next(w, r.WithContext(context.WithValue(r.Context(), userKey, user)))
	}
}

func (s *Server) requireAdmin(next http.HandlerFunc) http.HandlerFunc {
	return s.requireAuth(func(w http.ResponseWriter, r *http.Request) {
		if !currentUser(r).IsAdmin() {
			http.Error(w, "Admin access required", http.StatusForbidden)
			return
		}
		next(w, r)
	})
}

// User handlers
func (s *Server) getUsersHandler(w http.ResponseWriter, r *http.Request) {
	users, err := s.records.Users(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}

	withPasswords := r.URL.Query().Get("withPasswords") == "true"
	views := make([]userView, 0, len(users))
	for _, u := range users {
		v := newUserView(u)
		if withPasswords {
			v.Password = u.Password
		}
		views = append(views, v)
	}
	writeJSON(w, http.StatusOK, views)
}

func (s *Server) createUserHandler(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if !s.decode(w, r, &req) {
		return
	}

	user, err := s.records.CreateUser(r.Context(), records.NewUser{
		Username: req.Username,
		Password: req.Password,
		FullName: req.FullName,
		Rank:     req.Rank,
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, newUserView(user))
}

func (s *Server) deleteUserHandler(w http.ResponseWriter, r *http.Request) {
	username := mux.Vars(r)["username"]

	removed, err := s.records.DeleteUser(r.Context(), username)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.gate.CloseUser(removed.ID)
	w.WriteHeader(http.StatusOK)
}

// Service handlers
func (s *Server) directory(ctx context.Context) (stats.Directory, error) {
	users, err := s.records.Users(ctx)
	if err != nil {
		return stats.Directory{}, err
	}
	return stats.NewDirectory(users), nil
}

func (s *Server) getServicesHandler(w http.ResponseWriter, r *http.Request) {
	dir, err := s.directory(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	services, err := s.records.Services(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stats.SummarizeServices(currentUser(r), dir, services))
}

func (s *Server) createServiceHandler(w http.ResponseWriter, r *http.Request) {
	var req serviceRequest
	if !s.decode(w, r, &req) {
		return
	}

	svc, err := s.records.SubmitService(r.Context(), currentUser(r), req.ServiceStart, req.ServiceEnd)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, svc)
}

func (s *Server) deleteServiceHandler(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	if err := s.records.DeleteService(r.Context(), currentUser(r), id); err != nil {
		s.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (s *Server) calculatorHandler(w http.ResponseWriter, r *http.Request) {
	var req calculatorRequest
	if !s.decode(w, r, &req) {
		return
	}

	q, err := records.QuoteItems(req.Services)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, quoteResponse{
		Quote:       q,
		Description: q.Description(),
		Formatted:   s.format.Amount(q.Total),
	})
}

// Report handlers
func (s *Server) getReportsHandler(w http.ResponseWriter, r *http.Request) {
	dir, err := s.directory(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	reports, err := s.records.Reports(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}

	viewer := currentUser(r)
	sum := stats.SummarizeReports(viewer, dir, reports)
	resp := reportListResponse{
		ReportSummary:  sum,
		TotalFormatted: s.format.Amount(sum.TotalAmount),
	}
	if viewer.IsAdmin() {
		resp.Cases = stats.SummarizeCases(dir, reports)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) createReportHandler(w http.ResponseWriter, r *http.Request) {
	var req reportRequest
	if !s.decode(w, r, &req) {
		return
	}

	rep, err := s.records.SubmitReport(r.Context(), currentUser(r), records.NewReport{
		ColleagueName:   req.ColleagueName,
		ColleagueRank:   req.ColleagueRank,
		CaseDescription: req.CaseDescription,
		Ticket:          req.Ticket,
		ImageLink:       req.ImageLink,
		Services:        req.Services,
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, rep)
}

func (s *Server) deleteReportHandler(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	if err := s.records.DeleteReport(r.Context(), currentUser(r), id, confirmed(r)); err != nil {
		s.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

// Post handlers
func (s *Server) getPostsHandler(w http.ResponseWriter, r *http.Request) {
	posts, err := s.records.Posts(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, posts)
}

func (s *Server) createPostHandler(w http.ResponseWriter, r *http.Request) {
	var req postRequest
	if !s.decode(w, r, &req) {
		return
	}

	post, err := s.records.CreatePost(r.Context(), currentUser(r), req.Title, req.Content)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, post)
}

func (s *Server) updatePostHandler(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	var req postRequest
	if !s.decode(w, r, &req) {
		return
	}

	post, err := s.records.EditPost(r.Context(), currentUser(r), id, req.Title, req.Content)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, post)
}

func (s *Server) deletePostHandler(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	if err := s.records.DeletePost(r.Context(), currentUser(r), id, confirmed(r)); err != nil {
		s.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

// Statistics handlers
func (s *Server) homeStatsHandler(w http.ResponseWriter, r *http.Request) {
	users, err := s.records.Users(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	reports, err := s.records.Reports(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stats.Home(currentUser(r), users, reports))
}

func (s *Server) weeklyLiveHandler(w http.ResponseWriter, r *http.Request) {
	resp := weeklyLiveResponse{Window: s.window.String()}
	if !s.window.Contains(s.now().In(s.records.Location())) {
		writeJSON(w, http.StatusOK, resp)
		return
	}

	dir, err := s.directory(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	services, err := s.records.Services(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	reports, err := s.records.Reports(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}

	resp.Visible = true
	resp.Users = []weeklyRow{}
	for _, t := range stats.Totals(dir, services, reports) {
		resp.Users = append(resp.Users, weeklyRow{UserTotals: t, TicketFormatted: s.format.Amount(t.TicketTotal)})
	}
	resp.Cases = stats.SummarizeCases(dir, reports)
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) weeklyHistoryHandler(w http.ResponseWriter, r *http.Request) {
	history, err := s.roller.History(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, history)
}

func (s *Server) rolloverHandler(w http.ResponseWriter, r *http.Request) {
	snapshot, err := s.roller.Perform(r.Context(), metrics.TriggerManual)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.log.Info("manual_rollover", "username", currentUser(r).Username)
	writeJSON(w, http.StatusOK, snapshot)
}
