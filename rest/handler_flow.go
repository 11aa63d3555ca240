package rest

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/mohitkumar/flower/engine"
	"github.com/mohitkumar/flower/logger"
	"github.com/mohitkumar/flower/model"
	"github.com/mohitkumar/flower/persistence"
	"github.com/mohitkumar/flower/service"
)

type callResponse struct {
	ID     string `json:"id"`
	Result any    `json:"result,omitempty"`
}

func decodePayload(r *http.Request) (any, error) {
	defer r.Body.Close()
	var payload any
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	return payload, nil
}

func (s *Server) newContext(w http.ResponseWriter, r *http.Request) (*model.ServiceContext, bool) {
	payload, err := decodePayload(r)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid payload")
		return nil, false
	}
	vars := mux.Vars(r)
	return model.NewServiceContext(uuid.New().String(), vars["flow"], vars["service"], payload), true
}

func (s *Server) HandleSyncCall(w http.ResponseWriter, r *http.Request) {
	sc, ok := s.newContext(w, r)
	if !ok {
		return
	}
	res, err := s.factory.Call(r.Context(), sc)
	if err != nil {
		logger.Error("error calling flow", zap.String("flow", sc.FlowName), zap.String("service", sc.CurrentServiceName), zap.Error(err))
		respondWithError(w, statusOf(err), err.Error())
		return
	}
	respondWithJSON(w, http.StatusOK, callResponse{ID: sc.ID, Result: res})
}

func (s *Server) HandleAsyncCall(w http.ResponseWriter, r *http.Request) {
	sc, ok := s.newContext(w, r)
	if !ok {
		return
	}
	if err := s.factory.Tell(sc); err != nil {
		logger.Error("error calling flow", zap.String("flow", sc.FlowName), zap.String("service", sc.CurrentServiceName), zap.Error(err))
		respondWithError(w, statusOf(err), err.Error())
		return
	}
	respondWithJSON(w, http.StatusAccepted, callResponse{ID: sc.ID})
}

// HandleStreamCall keeps the response open and writes one JSON line per
// chunk the services of the flow write, until one of them completes it.
func (s *Server) HandleStreamCall(w http.ResponseWriter, r *http.Request) {
	sc, ok := s.newContext(w, r)
	if !ok {
		return
	}
	web := newStreamWeb(w)
	sc.Web = web
	web.start()
	if err := s.factory.Tell(sc); err != nil {
		logger.Error("error calling flow", zap.String("flow", sc.FlowName), zap.String("service", sc.CurrentServiceName), zap.Error(err))
		web.Write(map[string]string{"error": err.Error()})
		web.close()
		return
	}

	timer := time.NewTimer(s.streamTimeout)
	defer timer.Stop()
	select {
	case <-web.done:
	case <-r.Context().Done():
	case <-timer.C:
		logger.Warn("stream not completed in time", zap.String("flow", sc.FlowName), zap.String("id", sc.ID))
	}
	web.close()
}

func statusOf(err error) int {
	var callErr *engine.CallError
	var serviceErr *engine.ServiceError
	switch {
	case errors.As(err, &service.NotFoundError{}), errors.As(err, &persistence.NotFoundError{}):
		return http.StatusNotFound
	case errors.Is(err, engine.ErrCallTimeout):
		return http.StatusGatewayTimeout
	case errors.As(err, &serviceErr):
		return http.StatusInternalServerError
	case errors.As(err, &callErr):
		return http.StatusServiceUnavailable
	}
	return http.StatusBadRequest
}

var _ model.Web = new(streamWeb)
var _ model.StreamWriter = new(streamWeb)

// streamWeb is the web hook of a streamed call. Writes after the response
// ended are rejected.
type streamWeb struct {
	mu       sync.Mutex
	w        http.ResponseWriter
	enc      *json.Encoder
	closed   bool
	done     chan struct{}
	doneOnce sync.Once
}

func newStreamWeb(w http.ResponseWriter) *streamWeb {
	return &streamWeb{
		w:    w,
		enc:  json.NewEncoder(w),
		done: make(chan struct{}),
	}
}

func (s *streamWeb) start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.w.Header().Set("Content-Type", "application/x-ndjson")
	s.w.WriteHeader(http.StatusOK)
	if f, ok := s.w.(http.Flusher); ok {
		f.Flush()
	}
}

func (s *streamWeb) Write(chunk any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return errors.New("stream is closed")
	}
	return s.enc.Encode(chunk)
}

func (s *streamWeb) Flush() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	if f, ok := s.w.(http.Flusher); ok {
		f.Flush()
	}
}

func (s *streamWeb) Complete() {
	s.doneOnce.Do(func() { close(s.done) })
}

func (s *streamWeb) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.Complete()
}
