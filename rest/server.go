package rest

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/mohitkumar/flower/engine"
	"github.com/mohitkumar/flower/flow"
	"github.com/mohitkumar/flower/logger"
	"go.uber.org/zap"
)

type Server struct {
	http.Server
	Port          int
	factory       *engine.Factory
	flows         *flow.Repository
	streamTimeout time.Duration
}

func NewServer(httpPort int, factory *engine.Factory, flows *flow.Repository, streamTimeout time.Duration) (*Server, error) {
	s := &Server{
		Server: http.Server{
			Addr: fmt.Sprintf(":%d", httpPort),
		},
		factory:       factory,
		flows:         flows,
		Port:          httpPort,
		streamTimeout: streamTimeout,
	}

	router := mux.NewRouter()
	router.HandleFunc("/flow", s.HandleSaveFlow).Methods(http.MethodPost)
	router.HandleFunc("/flow/{name}", s.HandleGetFlow).Methods(http.MethodGet)
	router.HandleFunc("/flow/{flow}/{service}", s.HandleSyncCall).Methods(http.MethodPost)
	router.HandleFunc("/flow/{flow}/{service}/async", s.HandleAsyncCall).Methods(http.MethodPost)
	router.HandleFunc("/flow/{flow}/{service}/stream", s.HandleStreamCall).Methods(http.MethodPost)
	router.Use(loggingMiddleware)
	s.Handler = router
	return s, nil
}

func (s *Server) Start() error {
	logger.Info("starting http server on", zap.Int("port", s.Port))
	if err := s.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) Stop() error {
	logger.Info("stopping http server")
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := s.Shutdown(ctx); err != nil {
		logger.Error("error shutting down http server", zap.Error(err))
		return err
	}
	return nil
}

func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger.Debug("request", zap.String("method", r.Method), zap.String("uri", r.RequestURI))
		next.ServeHTTP(w, r)
	})
}

func respondWithJSON(w http.ResponseWriter, code int, payload any) {
	response, _ := json.Marshal(payload)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}

func respondOK(w http.ResponseWriter, message string) {
	respondWithJSON(w, http.StatusOK, map[string]string{"message": message})
}

func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, map[string]string{"error": message})
}
