// Package httpapi exposes the sync engine over a JSON HTTP API: pull and
// push, journal CRUD, attachment content transfer and auth endpoints.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/journalapp/syncserver/internal/logging"
	"github.com/journalapp/syncserver/internal/server/models"
	"github.com/journalapp/syncserver/internal/server/services"
)

// SyncService is the pull/push surface consumed by the HTTP layer.
type SyncService interface {
	GetChanges(ctx context.Context, since int64) (*models.SyncSnapshot, error)
	PushChanges(ctx context.Context, batch *models.PushBatch) (*models.PushResult, error)
}

// JournalService is the journal CRUD surface consumed by the HTTP layer.
type JournalService interface {
	GetDefault(ctx context.Context) (*models.Journal, error)
	List(ctx context.Context) ([]*models.Journal, error)
	Create(ctx context.Context, name string, color *string) (*models.Journal, error)
	Update(ctx context.Context, id string, name *string, color *string) (*models.Journal, error)
	Delete(ctx context.Context, id string) error
}

// AuthService is the account/token surface consumed by the HTTP layer.
type AuthService interface {
	Register(ctx context.Context, email, password string) (*models.User, error)
	Login(ctx context.Context, email, password string) (*services.TokenPair, error)
	Refresh(ctx context.Context, refreshToken, deviceID string) (*services.TokenPair, error)
}

// AttachmentService is the attachment content surface consumed by the HTTP layer.
type AttachmentService interface {
	Upload(ctx context.Context, id string, content []byte) error
	Download(ctx context.Context, id string) ([]byte, error)
	UploadURL(ctx context.Context, id string) (string, error)
	DownloadURL(ctx context.Context, id string) (string, error)
}

// Server serves the JSON API.
type Server struct {
	address     string
	logger      logging.Logger
	auth        AuthService
	sync        SyncService
	journals    JournalService
	attachments AttachmentService
	jwtSecret   []byte
}

// NewServer wires handlers to services.
func NewServer(address string, l logging.Logger, as AuthService, ss SyncService, js JournalService, ats AttachmentService, secretKey string) *Server {
	return &Server{
		address:     address,
		logger:      l.With("module", "http_server"),
		auth:        as,
		sync:        ss,
		journals:    js,
		attachments: ats,
		jwtSecret:   []byte(secretKey),
	}
}

// Router builds the route table. Everything except health and the auth
// endpoints sits behind the bearer-token middleware.
func (s *Server) Router() http.Handler {
	r := mux.NewRouter()
	r.Use(s.loggingMiddleware)

	r.Methods(http.MethodGet).Path("/healthz").HandlerFunc(s.health)
	r.Methods(http.MethodPost).Path("/auth/register").HandlerFunc(s.register)
	r.Methods(http.MethodPost).Path("/auth/login").HandlerFunc(s.login)
	r.Methods(http.MethodPost).Path("/auth/refresh").HandlerFunc(s.refresh)

	api := r.NewRoute().Subrouter()
	api.Use(s.accessTokenMiddleware)

	api.Methods(http.MethodGet).Path("/sync/changes").HandlerFunc(s.getChanges)
	api.Methods(http.MethodPost).Path("/sync/push").HandlerFunc(s.pushChanges)

	api.Methods(http.MethodGet).Path("/journals").HandlerFunc(s.listJournals)
	api.Methods(http.MethodPost).Path("/journals").HandlerFunc(s.createJournal)
	api.Methods(http.MethodGet).Path("/journals/default").HandlerFunc(s.getDefaultJournal)
	api.Methods(http.MethodPut).Path("/journals/{id}").HandlerFunc(s.updateJournal)
	api.Methods(http.MethodDelete).Path("/journals/{id}").HandlerFunc(s.deleteJournal)

	api.Methods(http.MethodPut).Path("/attachments/{id}").HandlerFunc(s.uploadAttachment)
	api.Methods(http.MethodGet).Path("/attachments/{id}").HandlerFunc(s.downloadAttachment)

	api.Methods(http.MethodGet).Path("/storage/upload-url").HandlerFunc(s.uploadURL)
	api.Methods(http.MethodGet).Path("/storage/download-url").HandlerFunc(s.downloadURL)

	return r
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{Addr: s.address, Handler: s.Router()}

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", s.address)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
