// Package server wires the HTTP surface: the mux, the session middleware,
// request logging and panic recovery.
package server

import (
	"net/http"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/praevia/atmp/internal/auth"
	"github.com/praevia/atmp/internal/handlers"
	"github.com/praevia/atmp/internal/httpx"
	"github.com/praevia/atmp/internal/notify"
	"github.com/praevia/atmp/internal/services"
	"github.com/praevia/atmp/internal/storage"
)

// App is the main application handler that sets up all routes.
type App struct {
	mux *http.ServeMux
	db  *gorm.DB
	log *zap.Logger
}

// NewApp builds the services and handlers and registers every route.
func NewApp(db *gorm.DB, log *zap.Logger, store *storage.Store, notifier notify.Notifier) *App {
	app := &App{
		mux: http.NewServeMux(),
		db:  db,
		log: log,
	}

	dossierSvc := services.NewDossierService(db, log, notifier)
	auditSvc := services.NewAuditService(db, log)
	contentieuxSvc := services.NewContentieuxService(db, log)
	documentSvc := services.NewDocumentService(db, store, log)
	dashboardSvc := services.NewDashboardService(db)

	ah := handlers.NewAuthHandler(db, log)
	dh := handlers.NewDossierHandler(db, dossierSvc)
	auh := handlers.NewAuditHandler(db, auditSvc)
	ch := handlers.NewContentieuxHandler(db, contentieuxSvc)
	doh := handlers.NewDocumentHandler(db, documentSvc)
	dbh := handlers.NewDashboardHandler(db, dashboardSvc)

	app.setupRoutes(ah, dh, auh, ch, doh, dbh)
	return app
}

// ServeHTTP implements http.Handler.
func (a *App) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	handler := a.withRecover(a.withLogging(auth.Middleware(a.mux)))
	handler.ServeHTTP(w, r)
}

func (a *App) setupRoutes(ah *handlers.AuthHandler, dh *handlers.DossierHandler,
	auh *handlers.AuditHandler, ch *handlers.ContentieuxHandler,
	doh *handlers.DocumentHandler, dbh *handlers.DashboardHandler) {

	// Health
	a.mux.HandleFunc("GET /health", a.health)
	a.mux.HandleFunc("GET /healthz", a.health)

	// Auth (public)
	a.mux.HandleFunc("POST /api/auth/register", ah.Register)
	a.mux.HandleFunc("POST /api/auth/login", ah.Login)

	// Auth (session required; the handlers resolve the user themselves)
	a.mux.HandleFunc("POST /api/auth/logout", ah.Logout)
	a.mux.HandleFunc("GET /api/auth/profile", ah.Profile)
	a.mux.HandleFunc("POST /api/auth/profile", ah.Profile)
	a.mux.HandleFunc("POST /api/auth/2fa/enroll", ah.Enroll2FA)
	a.mux.HandleFunc("POST /api/auth/2fa/confirm", ah.Confirm2FA)

	// Dossiers
	a.mux.HandleFunc("POST /api/dossiers", dh.Create)
	a.mux.HandleFunc("GET /api/dossiers", dh.List)
	a.mux.HandleFunc("GET /api/dossiers/{id}", dh.Get)
	a.mux.HandleFunc("PATCH /api/dossiers/{id}", dh.Update)
	a.mux.HandleFunc("DELETE /api/dossiers/{id}", dh.Delete)
	a.mux.HandleFunc("GET /api/dossiers/{id}/audit", auh.ByDossier)

	// Audits
	a.mux.HandleFunc("POST /api/audits/{id}/start", auh.Start)
	a.mux.HandleFunc("POST /api/audits/{id}/finalize", auh.Finalize)

	// Contentieux
	a.mux.HandleFunc("POST /api/contentieux", ch.Create)
	a.mux.HandleFunc("GET /api/contentieux", ch.List)
	a.mux.HandleFunc("GET /api/contentieux/{id}", ch.Get)
	a.mux.HandleFunc("PATCH /api/contentieux/{id}", ch.Update)
	a.mux.HandleFunc("POST /api/contentieux/{id}/actions", ch.AddAction)

	// Documents
	a.mux.HandleFunc("POST /api/documents", doh.Upload)
	a.mux.HandleFunc("GET /api/documents", doh.List)
	a.mux.HandleFunc("GET /api/documents/{id}/download", doh.Download)
	a.mux.HandleFunc("DELETE /api/documents/{id}", doh.Delete)

	// Dashboards
	a.mux.HandleFunc("GET /api/dashboard/juridique", dbh.Juridique)
	a.mux.HandleFunc("GET /api/dashboard/rh", dbh.RH)
	a.mux.HandleFunc("GET /api/dashboard/qse", dbh.QSE)
	a.mux.HandleFunc("GET /api/dashboard/direction", dbh.Direction)
}

func (a *App) health(w http.ResponseWriter, r *http.Request) {
	sqlDB, err := a.db.DB()
	if err != nil || sqlDB.PingContext(r.Context()) != nil {
		httpx.JSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded"})
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (a *App) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		a.log.Info("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Duration("duration", time.Since(start)),
		)
	})
}

func (a *App) withRecover(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				a.log.Error("panic recovered",
					zap.Any("panic", rec),
					zap.String("path", r.URL.Path),
				)
				httpx.JSONError(w, http.StatusInternalServerError, "internal_error", nil)
			}
		}()
		next.ServeHTTP(w, r)
	})
}
