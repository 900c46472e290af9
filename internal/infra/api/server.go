package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"flixgo-client/internal/infra/api/apiv1"
)

// NewRouter builds the local control API with health, metrics and /api/v1.
func NewRouter(v1 *apiv1.Server, requestTimeout time.Duration, logger *zerolog.Logger) chi.Router {
	if requestTimeout <= 0 {
		requestTimeout = 10 * time.Second
	}
	r := chi.NewRouter()
	r.Use(TraceID(), RequestLog(logger), Recover(logger), Timeout(requestTimeout))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	r.Handle("/metrics", promhttp.Handler())

	if v1 != nil {
		apiv1.RegisterAPIV1(r, v1)
	}
	return r
}

// Server owns the listener for the local control API.
type Server struct {
	srv *http.Server
	log *zerolog.Logger
}

func NewServer(port int, handler http.Handler, logger *zerolog.Logger) *Server {
	return &Server{
		srv: &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           handler,
			ReadHeaderTimeout: 5 * time.Second,
		},
		log: logger,
	}
}

// Start blocks until the server stops; a graceful Shutdown is not an error.
func (s *Server) Start() error {
	s.log.Info().Str("addr", s.srv.Addr).Msg("control api listening")
	if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
