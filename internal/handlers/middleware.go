package handlers

import (
	"context"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"village/internal/models"
	"village/internal/security"
	"village/internal/service"
)

// ContextKey is a custom type for context keys to avoid collisions
type ContextKey string

const (
	UserContextKey    ContextKey = "user"
	ChildContextKey   ContextKey = "child"
	sessionContextKey ContextKey = "session_id"
)

// Middleware holds dependencies for middleware functions
type Middleware struct {
	authService   *service.AuthService
	familyService *service.FamilyService
	csrf          *security.CSRFGenerator
	limiter       *security.RateLimiter
	// accounts limits guesses against one login regardless of client address
	accounts   *security.RateLimiter
	trustProxy bool
}

// NewMiddleware creates a new middleware instance
func NewMiddleware(authService *service.AuthService, familyService *service.FamilyService, csrf *security.CSRFGenerator, limiter, accounts *security.RateLimiter, trustProxy bool) *Middleware {
	return &Middleware{
		authService:   authService,
		familyService: familyService,
		csrf:          csrf,
		limiter:       limiter,
		accounts:      accounts,
		trustProxy:    trustProxy,
	}
}

// RequireAuth is middleware that requires a parent session cookie or a
// bearer token
func (m *Middleware) RequireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if token, ok := bearerToken(r); ok {
			user, err := m.authService.ValidateToken(token)
			if err != nil {
				respondWithError(w, http.StatusUnauthorized, ErrUnauthorized, "", nil)
				return
			}
			next(w, r.WithContext(context.WithValue(r.Context(), UserContextKey, user)))
			return
		}

		cookie, err := r.Cookie(SessionCookieName)
		if err != nil || cookie.Value == "" {
			respondWithError(w, http.StatusUnauthorized, ErrUnauthorized, "", nil)
			return
		}

		user, err := m.authService.ValidateSession(cookie.Value)
		if err != nil {
			http.SetCookie(w, security.CreateDeleteCookie(r, SessionCookieName))
			respondWithError(w, http.StatusUnauthorized, ErrUnauthorized, "", nil)
			return
		}

		ctx := context.WithValue(r.Context(), UserContextKey, user)
		ctx = context.WithValue(ctx, sessionContextKey, cookie.Value)
		next(w, r.WithContext(ctx))
	}
}

// RequireAdmin requires an authenticated administrator
func (m *Middleware) RequireAdmin(next http.HandlerFunc) http.HandlerFunc {
	return m.RequireAuth(func(w http.ResponseWriter, r *http.Request) {
		user := GetUserFromContext(r.Context())
		if user == nil || !user.IsAdmin {
			respondWithError(w, http.StatusForbidden, "Administrator access required", "", nil)
			return
		}
		next(w, r)
	})
}

// RequireChildAuth is middleware that requires a valid child session
func (m *Middleware) RequireChildAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(ChildSessionCookieName)
		if err != nil || cookie.Value == "" {
			respondWithError(w, http.StatusUnauthorized, ErrUnauthorized, "", nil)
			return
		}

		child, err := m.familyService.ValidateChildSession(cookie.Value)
		if err != nil {
			http.SetCookie(w, security.CreateDeleteCookie(r, ChildSessionCookieName))
			respondWithError(w, http.StatusUnauthorized, ErrUnauthorized, "", nil)
			return
		}

		ctx := context.WithValue(r.Context(), ChildContextKey, child)
		ctx = context.WithValue(ctx, sessionContextKey, cookie.Value)
		next(w, r.WithContext(ctx))
	}
}

// CSRFProtect checks the X-CSRF-Token header on unsafe requests that were
// authenticated by cookie. Bearer token requests carry no ambient
// credentials and are let through.
func (m *Middleware) CSRFProtect(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			next(w, r)
			return
		}

		sessionID, ok := r.Context().Value(sessionContextKey).(string)
		if !ok || sessionID == "" {
			next(w, r)
			return
		}

		if !m.csrf.ValidateToken(sessionID, r.Header.Get(CSRFHeaderName)) {
			respondWithError(w, http.StatusForbidden, ErrInvalidCSRF, "", nil)
			return
		}
		next(w, r)
	}
}

// RateLimit limits requests per client IP
func (m *Middleware) RateLimit(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ip := security.GetClientIP(r, m.trustProxy)
		if !m.limiter.Allow(ip) {
			tooManyRequests(w, m.limiter.Retry(ip))
			return
		}
		next(w, r)
	}
}

// allowAccount records a login attempt against key and writes a 429 once
// the account's window is used up
func (m *Middleware) allowAccount(w http.ResponseWriter, key string) bool {
	if m.accounts == nil || m.accounts.Allow(key) {
		return true
	}
	tooManyRequests(w, m.accounts.Retry(key))
	return false
}

// accountSucceeded clears the attempts recorded against key
func (m *Middleware) accountSucceeded(key string) {
	if m.accounts != nil {
		m.accounts.Reset(key)
	}
}

func tooManyRequests(w http.ResponseWriter, retry time.Duration) {
	w.Header().Set("Retry-After", strconv.Itoa(int(retry.Seconds())+1))
	respondWithError(w, http.StatusTooManyRequests, ErrTooManyRequests, "", nil)
}

// Parent wraps a handler for parent routes
func (m *Middleware) Parent(next http.HandlerFunc) http.HandlerFunc {
	return m.RequireAuth(m.CSRFProtect(next))
}

// Child wraps a handler for student routes
func (m *Middleware) Child(next http.HandlerFunc) http.HandlerFunc {
	return m.RequireChildAuth(m.CSRFProtect(next))
}

// Admin wraps a handler for administrator routes
func (m *Middleware) Admin(next http.HandlerFunc) http.HandlerFunc {
	return m.RequireAdmin(m.CSRFProtect(next))
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// Logging middleware logs HTTP requests
func Logging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		log.Printf("%s %s %d %s", r.Method, r.URL.Path, rec.status, time.Since(start))
	})
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	if len(header) < 7 || !strings.EqualFold(header[:7], "bearer ") {
		return "", false
	}
	token := strings.TrimSpace(header[7:])
	return token, token != ""
}

// GetUserFromContext retrieves the user from the request context
func GetUserFromContext(ctx context.Context) *models.User {
	user, ok := ctx.Value(UserContextKey).(*models.User)
	if !ok {
		return nil
	}
	return user
}

// GetChildFromContext retrieves the logged-in child from the request context
func GetChildFromContext(ctx context.Context) *models.Child {
	child, ok := ctx.Value(ChildContextKey).(*models.Child)
	if !ok {
		return nil
	}
	return child
}

// csrfToken returns the CSRF token for the request's cookie session, if any
func (m *Middleware) csrfToken(sessionID string) string {
	token, err := m.csrf.GenerateToken(sessionID)
	if err != nil {
		log.Printf("Warning: failed to generate CSRF token: %v", err)
		return ""
	}
	return token
}
