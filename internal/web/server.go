// Package web is the JSON surface the onboarding screens consume. Handlers
// stay thin: decode, delegate to the session, mailbox, or reconciler, encode.
package web

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/vbonduro/propdraft/internal/draftstore"
	"github.com/vbonduro/propdraft/internal/mailbox"
	"github.com/vbonduro/propdraft/internal/reconcile"
)

// PhotoResolver resolves durable storage paths to display URLs.
type PhotoResolver interface {
	Resolve(ctx context.Context, photoPaths []string) ([]string, error)
}

type Server struct {
	drafts      *draftstore.Store
	mailbox     *mailbox.Mailbox
	reconcilers *reconcilerRegistry
	resolver    PhotoResolver
	sessions    *sessionRegistry
	mux         *http.ServeMux
	logger      *slog.Logger
}

func NewServer(drafts *draftstore.Store, mb *mailbox.Mailbox, props reconcile.PropertyService, resolver PhotoResolver, debounce time.Duration, logger *slog.Logger) *Server {
	s := &Server{
		drafts:      drafts,
		mailbox:     mb,
		reconcilers: newReconcilerRegistry(props, drafts, resolver, logger),
		resolver:    resolver,
		sessions:    newSessionRegistry(drafts, debounce, logger),
		mux:         http.NewServeMux(),
		logger:      logger,
	}
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("POST /api/drafts", s.handleStartDraft)
	s.mux.HandleFunc("GET /api/drafts/{ownerID}/current", s.handleResumeDraft)
	s.mux.HandleFunc("GET /api/drafts/{ownerID}/{draftID}", s.handleGetDraft)
	s.mux.HandleFunc("DELETE /api/drafts/{ownerID}/{draftID}", s.handleDeleteDraft)
	s.mux.HandleFunc("PUT /api/drafts/{ownerID}/{draftID}/property", s.handleUpdateProperty)
	s.mux.HandleFunc("PUT /api/drafts/{ownerID}/{draftID}/areas", s.handleUpdateAreas)
	s.mux.HandleFunc("PUT /api/drafts/{ownerID}/{draftID}/step", s.handleUpdateStep)
	s.mux.HandleFunc("POST /api/drafts/{ownerID}/{draftID}/save", s.handleSaveNow)
	s.mux.HandleFunc("POST /api/drafts/{ownerID}/{draftID}/acknowledge-error", s.handleAcknowledgeError)
	s.mux.HandleFunc("POST /api/drafts/{ownerID}/{draftID}/publish", s.handlePublishDraft)

	s.mux.HandleFunc("POST /api/reconcile", s.handleReconcile)

	s.mux.HandleFunc("POST /api/properties/{propertyID}/assets", s.handleAddPublishedAsset)
	s.mux.HandleFunc("DELETE /api/properties/{propertyID}/assets/{assetID}", s.handleDeletePublishedAsset)
	s.mux.HandleFunc("PUT /api/properties/{propertyID}/areas/{areaID}/photos", s.handleUpdateAreaPhotos)

	s.mux.HandleFunc("PUT /api/mailbox/{draftID}", s.handleDepositAsset)
	s.mux.HandleFunc("POST /api/mailbox/{draftID}/collect", s.handleCollectAsset)
	s.mux.HandleFunc("PUT /api/asset-params/{areaID}", s.handlePutAssetParams)
	s.mux.HandleFunc("POST /api/asset-params/{areaID}/take", s.handleTakeAssetParams)

	s.mux.HandleFunc("POST /api/photos/resolve", s.handleResolvePhotos)
}

// securityHeaders adds defensive HTTP response headers to every response.
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		next.ServeHTTP(w, r)
	})
}

// statusRecorder wraps http.ResponseWriter to capture the written status code.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func requestLogger(logger *slog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		logger.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	requestLogger(s.logger, securityHeaders(s.mux)).ServeHTTP(w, r)
}

func (s *Server) ListenAndServe(addr string) error {
	s.logger.Info("starting server", "addr", addr)
	srv := &http.Server{
		Addr:         addr,
		Handler:      s,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
	return srv.ListenAndServe()
}

// Close flushes every open session's pending auto-save.
func (s *Server) Close() {
	s.sessions.closeAll()
}
