package expense

import (
	"context"
	"log/slog"
	"net/http"
	"time"
)

// SessionCookie names the cookie that binds a browser to its session
const SessionCookie = "session_id"

type sessionKey struct{}

// Server handles HTTP requests for the expense form
type Server struct {
	service  *Service
	sessions *SessionStore
	mux      *http.ServeMux
	secure   bool
}

// NewServer creates a new Server with default mux
func NewServer(service *Service, sessions *SessionStore) *Server {
	return NewServerWithMux(service, sessions, http.NewServeMux())
}

// NewServerWithMux creates a new Server with a custom mux for testing
func NewServerWithMux(service *Service, sessions *SessionStore, mux *http.ServeMux) *Server {
	s := &Server{
		service:  service,
		sessions: sessions,
		mux:      mux,
	}
	s.registerRoutes()
	return s
}

// SetSecureCookies marks the session cookie as HTTPS only
func (s *Server) SetSecureCookies(secure bool) {
	s.secure = secure
}

// corsMiddleware adds CORS headers to responses
func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		setCORSHeaders(w)

		// Handle preflight OPTIONS requests
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// withSession resolves the caller's session from its cookie, starting a new one when
// the cookie is missing or the session has expired
func (s *Server) withSession(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var session *Session
		if c, err := r.Cookie(SessionCookie); err == nil {
			session, _ = s.sessions.Get(c.Value)
		}
		if session == nil {
			session = s.sessions.Create()
			slog.Debug("Started session", "session", session.ID)
			http.SetCookie(w, &http.Cookie{
				Name:     SessionCookie,
				Value:    session.ID,
				Path:     "/",
				HttpOnly: true,
				Secure:   s.secure,
				SameSite: http.SameSiteLaxMode,
			})
		}
		next(w, r.WithContext(context.WithValue(r.Context(), sessionKey{}, session)))
	}
}

// sessionFrom returns the session attached by withSession
func sessionFrom(r *http.Request) *Session {
	session, _ := r.Context().Value(sessionKey{}).(*Session)
	return session
}

// registerRoutes registers all API routes on the server's mux
// Routes must be registered from most specific to least specific to avoid conflicts
func (s *Server) registerRoutes() {
	// Static files
	s.mux.HandleFunc("GET /static/app.css", s.handleStaticCSS)
	s.mux.HandleFunc("GET /static/app.js", s.handleStaticJS)

	// API endpoints
	s.mux.HandleFunc("GET /api/options", s.handleOptions)
	s.mux.HandleFunc("POST /api/receipts/scan", s.withSession(s.handleScanReceipt))
	s.mux.HandleFunc("GET /api/prefill", s.withSession(s.handlePrefill))
	s.mux.HandleFunc("GET /api/expenses", s.withSession(s.handleListExpenses))
	s.mux.HandleFunc("POST /api/expenses", s.withSession(s.handleAddExpense))
	s.mux.HandleFunc("DELETE /api/expenses", s.withSession(s.handleResetExpenses))
	s.mux.HandleFunc("GET /api/export/spreadsheet", s.withSession(s.handleExportSpreadsheet))
	s.mux.HandleFunc("GET /api/export/document", s.withSession(s.handleExportDocument))

	// Static HTML interface (register last as it's the catch-all)
	s.mux.HandleFunc("GET /index.html", s.withSession(s.handleIndex))
	s.mux.HandleFunc("GET /{$}", s.withSession(s.handleIndex))
}

// Start starts the HTTP server and shuts it down gracefully when ctx is done
func (s *Server) Start(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.corsMiddleware(s.mux),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("Starting server", "address", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		slog.Info("Shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

// ServeHTTP implements http.Handler for testing
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}
