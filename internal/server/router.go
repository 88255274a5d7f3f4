// Package server assembles the HTTP surface: routes, guards and the
// middleware chain. Identity is resolved once at the boundary and flows
// through the request context; handlers never read session state directly.
package server

import (
	"context"
	"log"
	"net/http"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/Pedrom2002/airline-satisfaction-webapp/auth"
	"github.com/Pedrom2002/airline-satisfaction-webapp/gate"
	"github.com/Pedrom2002/airline-satisfaction-webapp/httpx"
	"github.com/Pedrom2002/airline-satisfaction-webapp/internal/handlers"
	"github.com/Pedrom2002/airline-satisfaction-webapp/internal/middleware"
	"github.com/Pedrom2002/airline-satisfaction-webapp/internal/scoring"
	"github.com/Pedrom2002/airline-satisfaction-webapp/internal/services"
)

// Options configures the assembled handler.
type Options struct {
	Model      *scoring.Model
	UploadDir  string
	SamplePath string
	// AuthRatePerMinute throttles /auth/ endpoints per client address.
	// Zero means the default of 10.
	AuthRatePerMinute int
}

// New constructs the root http.Handler with all routes and middleware.
func New(conn *gorm.DB, opts Options) http.Handler {
	if opts.UploadDir == "" {
		opts.UploadDir = "uploads"
	}
	if opts.AuthRatePerMinute == 0 {
		opts.AuthRatePerMinute = 10
	}

	authSvc := services.NewAuthService(conn)
	adminSvc := services.NewAdminService(conn)
	historySvc := services.NewHistoryService(conn, opts.UploadDir)
	settingsSvc := services.NewSettingsService(conn)
	activity := services.NewActivityLog(conn)

	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, _ *http.Request) {
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		if err := conn.Exec("SELECT 1").Error; err != nil {
			httpx.JSONError(w, http.StatusServiceUnavailable, "degraded", nil)
			return
		}
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	handlers.NewAuthHandler(authSvc, settingsSvc, activity).Register(mux)
	handlers.NewAdminHandler(adminSvc, gate.NewGate[auth.Identity](), activity).Register(mux)
	handlers.NewHistoryHandler(historySvc).Register(mux)
	if opts.Model != nil {
		predictSvc := services.NewPredictionService(conn, opts.Model, opts.UploadDir)
		handlers.NewPredictHandler(predictSvc, activity, opts.SamplePath).Register(mux)
	}

	mux.Handle("/static/", http.StripPrefix("/static/", http.FileServer(http.Dir("static"))))

	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/" {
			http.Redirect(w, r, "/predict", http.StatusSeeOther)
			return
		}
		handlers.NotFound(w, r)
	})

	loader := func(_ context.Context, uid uint) (auth.Identity, bool) {
		user, ok := authSvc.LoadUser(uid)
		if !ok {
			return auth.Identity{}, false
		}
		return auth.Identity{UserID: user.ID, Username: user.Username, IsAdmin: user.IsAdmin}, true
	}

	authLimiter := middleware.NewRateLimiter(opts.AuthRatePerMinute)
	limited := limitAuthPaths(authLimiter, auth.Middleware(loader, mux))
	return withRecover(withLogging(limited))
}

// limitAuthPaths applies the rate limiter only to the /auth/ surface.
func limitAuthPaths(rl *middleware.RateLimiter, next http.Handler) http.Handler {
	wrapped := rl.Wrap(next)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/auth/") {
			wrapped.ServeHTTP(w, r)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		log.Printf("%s %s %s", r.Method, r.URL.Path, time.Since(start))
	})
}

func withRecover(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				log.Printf("panic serving %s %s: %v", r.Method, r.URL.Path, rec)
				httpx.JSONError(w, http.StatusInternalServerError, "internal_error", nil)
			}
		}()
		next.ServeHTTP(w, r)
	})
}
