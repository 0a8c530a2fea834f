package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/meltforce/gymtrack/internal/models"
)

type contextKey int

const profileKey contextKey = iota

// UserInfo is the resolved identity exposed on /me.
type UserInfo struct {
	ID          int    `json:"id"`
	Login       string `json:"login"`
	DisplayName string `json:"display_name"`
}

// Identity resolves the requesting user to a profile and stores it in the
// request context. With Tailscale enabled the connecting address is whois'd;
// otherwise the configured dev user is used. A request whose identity cannot
// be resolved is rejected before any handler runs — handlers never see a
// request without a user.
func (s *Server) Identity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		login := s.devUser.Login
		displayName := s.devUser.DisplayName

		if s.lc != nil {
			who, err := s.lc.WhoIs(r.Context(), r.RemoteAddr)
			if err != nil || who.UserProfile == nil {
				s.log.Warn("whois failed", "remote", r.RemoteAddr, "error", err)
				http.Error(w, `{"error":"identity not resolved"}`, http.StatusUnauthorized)
				return
			}
			login = who.UserProfile.LoginName
			displayName = who.UserProfile.DisplayName
		}

		profile, err := s.db.GetOrCreateProfile(r.Context(), login, displayName)
		if err != nil {
			s.log.Error("resolving profile failed", "login", login, "error", err)
			http.Error(w, `{"error":"identity not resolved"}`, http.StatusInternalServerError)
			return
		}

		ctx := context.WithValue(r.Context(), profileKey, profile)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// profileFromContext returns the profile stored by Identity, or nil when no
// identity middleware ran (only possible in tests).
func profileFromContext(r *http.Request) *models.Profile {
	p, _ := r.Context().Value(profileKey).(*models.Profile)
	return p
}

// mustProfile fetches the request's profile, rejecting the request when the
// identity is missing.
func mustProfile(w http.ResponseWriter, r *http.Request) (*models.Profile, bool) {
	p := profileFromContext(r)
	if p == nil {
		http.Error(w, `{"error":"identity not resolved"}`, http.StatusUnauthorized)
		return nil, false
	}
	return p, true
}

// RequestLogging returns middleware that logs each request.
func RequestLogging(log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(sw, r)
			log.Info("request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", sw.status,
				"duration", time.Since(start).String(),
			)
		})
	}
}

// CORS adds permissive CORS headers for local development.
func CORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// statusWriter wraps ResponseWriter to capture the status code.
type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}
