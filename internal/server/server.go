package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/memberhub/apiserver/config"
	"github.com/memberhub/apiserver/internal/auth"
	"github.com/memberhub/apiserver/internal/db"
	"github.com/memberhub/apiserver/internal/events"
	"github.com/memberhub/apiserver/internal/handlers"
	"github.com/memberhub/apiserver/internal/services"
	"github.com/memberhub/apiserver/internal/storage"
	"github.com/memberhub/apiserver/internal/store"
)

// Server wraps the HTTP server and its shared resources.
type Server struct {
	httpServer *http.Server
	router     *chi.Mux
	db         *sql.DB
	publisher  *events.Publisher
}

// New constructs a Server with the full middleware and handler wiring.
func New(ctx context.Context, cfg config.Config) (*Server, error) {
	if strings.TrimSpace(cfg.Auth.JWTSecret) == "" {
		return nil, errors.New("JWT_SECRET is required")
	}

	dbConn, err := db.Open(ctx, cfg)
	if err != nil {
		return nil, err
	}

	logger := slog.Default()

	memberRepo := store.NewMemberRepository(dbConn)
	hasher := auth.NewBcryptHasher(cfg.Auth.BcryptCost)
	issuer := auth.NewTokenIssuer(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	verifier := auth.NewTokenVerifier(cfg.Auth.JWTSecret)
	gate := handlers.NewAccessGate(verifier, logger)

	publisher, err := newPublisher(ctx, cfg.Broker)
	if err != nil {
		_ = dbConn.Close()
		return nil, err
	}

	memberService := services.NewMemberService(memberRepo, hasher, publisher, logger)

	avatarStorage, err := newStorage(ctx, cfg.Storage)
	if err != nil {
		_ = dbConn.Close()
		if publisher != nil {
			_ = publisher.Close()
		}
		return nil, err
	}

	router := chi.NewRouter()
	router.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Recoverer,
		middleware.Logger,
		middleware.Timeout(60*time.Second),
		gate.Authenticate,
	)
	router.Get("/healthz", handlers.Healthz)
	router.Route("/member", func(r chi.Router) {
		handlers.MemberRouter(r, memberService, issuer, gate)
		if avatarStorage != nil {
			handlers.AvatarRouter(r, avatarStorage, gate)
		}
	})

	port := cfg.ServerPort
	if port == 0 {
		port = 8080
	}

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &Server{
		httpServer: httpServer,
		router:     router,
		db:         dbConn,
		publisher:  publisher,
	}, nil
}

// Router exposes the chi router for route registration.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// Start runs the HTTP server.
func (s *Server) Start() error {
	return s.httpServer.ListenAndServe()
}

// Shutdown attempts a graceful shutdown.
func (s *Server) Shutdown() error {
	if s.publisher != nil {
		_ = s.publisher.Close()
	}
	if s.db != nil {
		_ = s.db.Close()
	}
	return s.httpServer.Close()
}

func newPublisher(ctx context.Context, cfg config.BrokerConfig) (*events.Publisher, error) {
	switch cfg.Backend {
	case "":
		return nil, nil
	case "rabbitmq":
		client, err := events.NewRabbitMQClient(cfg.RabbitMQ)
		if err != nil {
			return nil, err
		}
		return events.NewPublisher(client), nil
	case "pubsub":
		client, err := events.NewPubSubClient(ctx, cfg.PubSub)
		if err != nil {
			return nil, err
		}
		return events.NewPublisher(client), nil
	default:
		return nil, fmt.Errorf("unknown broker backend: %s", cfg.Backend)
	}
}

func newStorage(ctx context.Context, cfg config.StorageConfig) (*storage.Storage, error) {
	var backend storage.ObjectStorage
	switch cfg.Backend {
	case "":
		return nil, nil
	case "minio":
		client, err := storage.NewMinioClient(cfg.Minio)
		if err != nil {
			return nil, err
		}
		backend = client
	case "gcs":
		client, err := storage.NewGCSClient(ctx, cfg.GCS)
		if err != nil {
			return nil, err
		}
		backend = client
	default:
		return nil, fmt.Errorf("unknown storage backend: %s", cfg.Backend)
	}

	wrapped := storage.NewStorage(backend)
	if err := wrapped.EnsureBucket(ctx); err != nil {
		return nil, err
	}
	return wrapped, nil
}
