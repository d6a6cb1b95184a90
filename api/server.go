package api

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"leaflet/config"
	"leaflet/extraction"
	"leaflet/storage"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
)

// Extractor is implemented by extraction.Service.
type Extractor interface {
	Extract(ctx context.Context, imagePath string) (*extraction.Result, error)
}

// Uploads is implemented by file.UploadStore.
type Uploads interface {
	Save(filename string, r io.Reader) (string, error)
}

// Publisher is implemented by kafka.EventPublisher.
type Publisher interface {
	Publish(ctx context.Context, ev extraction.Event) error
}

// Server represents the API server
type Server struct {
	cfg       *config.Config
	extractor Extractor
	uploads   Uploads
	store     storage.Store
	publisher Publisher
	logger    *zap.Logger
}

// NewServer creates a new API server
func NewServer(cfg *config.Config, extractor Extractor, uploads Uploads, store storage.Store, logger *zap.Logger) *Server {
	return &Server{
		cfg:       cfg,
		extractor: extractor,
		uploads:   uploads,
		store:     store,
		logger:    logger,
	}
}

// WithPublisher makes the server announce every stored extraction.
func (s *Server) WithPublisher(p Publisher) *Server {
	s.publisher = p
	return s
}

// Routes builds the HTTP handler.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(RequestLogger(s.logger))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.cfg.CORSAllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		ExposedHeaders: []string{sourceHeader},
		MaxAge:         300,
	}))

	r.Get("/health", s.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Post("/upload", s.handleUpload)
		r.Get("/products", s.handleListProducts)
		r.Get("/product/{id}", s.handleGetProduct)
	})

	r.Handle("/*", http.FileServer(http.Dir(s.cfg.StaticDir)))

	return r
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr(),
		Handler:           s.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	s.logger.Info("Starting API server",
		zap.String("addr", srv.Addr),
		zap.Bool("extraction_configured", s.cfg.IsConfigured()),
		zap.String("store_backend", s.cfg.StoreBackend))

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		s.logger.Info("Shutting down API server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
