package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/benmeehan/carstatus-relay/internal/constants"
	"github.com/benmeehan/carstatus-relay/internal/middleware"
	"github.com/benmeehan/carstatus-relay/pkg/store"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"
)

// maxBodyBytes bounds the size of a record accepted by the relay.
const maxBodyBytes = 1 << 20

// Notifier is told about every record the remote store accepted.
type Notifier interface {
	Notify(record json.RawMessage) error
}

// RelayService is the local HTTP facade in front of the remote store. It holds no
// state between requests: each request becomes exactly one call to the store.
type RelayService struct {
	listenAddr   string
	readTimeout  time.Duration
	writeTimeout time.Duration
	store        store.Forwarder
	notifier     Notifier
	Logger       zerolog.Logger

	mu       sync.Mutex
	server   *http.Server
	listener net.Listener
	wg       sync.WaitGroup
}

// NewRelayService initializes a new RelayService. notifier may be nil.
func NewRelayService(listenAddr string, readTimeout, writeTimeout time.Duration, forwarder store.Forwarder,
	notifier Notifier, logger zerolog.Logger) *RelayService {

	return &RelayService{
		listenAddr:   listenAddr,
		readTimeout:  readTimeout,
		writeTimeout: writeTimeout,
		store:        forwarder,
		notifier:     notifier,
		Logger:       logger,
	}
}

// Handler returns the relay's router with its middleware chain.
func (s *RelayService) Handler() http.Handler {
	router := mux.NewRouter()
	router.Use(middleware.Chain(s.Logger)...)

	router.HandleFunc("/healthz", s.health).Methods(http.MethodGet)

	router.HandleFunc("/carstatus", s.createRecord).Methods(http.MethodPost)
	router.HandleFunc("/carstatus", s.listRecords).Methods(http.MethodGet)
	router.HandleFunc("/carstatus/{id:[0-9]+}", s.getRecord).Methods(http.MethodGet)
	router.HandleFunc("/carstatus/{id:[0-9]+}", s.updateRecord).Methods(http.MethodPut)
	router.HandleFunc("/carstatus/{id:[0-9]+}", s.deleteRecord).Methods(http.MethodDelete)

	router.NotFoundHandler = middleware.Wrap(s.Logger, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "not found", "no route for "+r.URL.Path)
	}))
	router.MethodNotAllowedHandler = middleware.Wrap(s.Logger, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed", r.Method+" is not supported on "+r.URL.Path)
	}))

	return router
}

// Start binds the listener and serves in a separate goroutine.
func (s *RelayService) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.server != nil {
		s.Logger.Warn().Msg("RelayService is already running")
		return errors.New("relay service is already running")
	}

	listener, err := net.Listen("tcp", s.listenAddr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.listenAddr, err)
	}

	s.listener = listener
	s.server = &http.Server{
		Handler:      s.Handler(),
		ReadTimeout:  s.readTimeout,
		WriteTimeout: s.writeTimeout,
		IdleTimeout:  60 * time.Second,
	}

	server := s.server
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.Logger.Error().Err(err).Msg("Relay HTTP server failed")
		}
	}()

	s.Logger.Info().Str("addr", listener.Addr().String()).Msg("RelayService started successfully")
	return nil
}

// Stop gracefully shuts the HTTP server down.
func (s *RelayService) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.server == nil {
		s.Logger.Warn().Msg("RelayService is not running")
		return errors.New("relay service is not running")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	err := s.server.Shutdown(ctx)
	s.wg.Wait()

	s.server = nil
	s.listener = nil

	if err != nil {
		return fmt.Errorf("relay shutdown: %w", err)
	}
	s.Logger.Info().Msg("RelayService stopped successfully")
	return nil
}

// Addr returns the bound address while running, or the configured one otherwise.
func (s *RelayService) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.listenAddr
}

func (s *RelayService) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *RelayService) createRecord(w http.ResponseWriter, r *http.Request) {
	body, ok := readJSONBody(w, r)
	if !ok {
		return
	}

	reply, err := s.store.Forward(r.Context(), http.MethodPost, "", body)
	if err == nil && reply.OK() && s.notifier != nil && json.Valid(reply.Body) {
		if notifyErr := s.notifier.Notify(reply.Body); notifyErr != nil {
			hlog.FromRequest(r).Warn().Err(notifyErr).Msg("Failed to notify vehicle of new command")
		}
	}
	writeReply(w, r, reply, err)
}

func (s *RelayService) listRecords(w http.ResponseWriter, r *http.Request) {
	reply, err := s.store.Forward(r.Context(), http.MethodGet, "", nil)
	writeReply(w, r, reply, err)
}

func (s *RelayService) getRecord(w http.ResponseWriter, r *http.Request) {
	reply, err := s.store.Forward(r.Context(), http.MethodGet, mux.Vars(r)["id"], nil)
	writeReply(w, r, reply, err)
}

func (s *RelayService) updateRecord(w http.ResponseWriter, r *http.Request) {
	body, ok := readJSONBody(w, r)
	if !ok {
		return
	}

	reply, err := s.store.Forward(r.Context(), http.MethodPut, mux.Vars(r)["id"], body)
	writeReply(w, r, reply, err)
}

func (s *RelayService) deleteRecord(w http.ResponseWriter, r *http.Request) {
	reply, err := s.store.Forward(r.Context(), http.MethodDelete, mux.Vars(r)["id"], nil)
	if err == nil && reply.OK() {
		// The confirmation is fixed; only the status code comes from the store.
		writeJSON(w, reply.StatusCode, map[string]string{"message": constants.DeleteConfirmation})
		return
	}
	writeReply(w, r, reply, err)
}

// readJSONBody reads the request body and rejects anything that is not JSON.
func readJSONBody(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return nil, false
	}
	if !json.Valid(body) {
		writeError(w, http.StatusBadRequest, "invalid request body", "body must be a JSON document")
		return nil, false
	}
	return body, true
}

// writeReply mirrors the store's status code and body. A network fault becomes a
// 502 with a descriptive body; a success body that is not JSON is also a 502.
func writeReply(w http.ResponseWriter, r *http.Request, reply *store.Reply, err error) {
	if err != nil {
		hlog.FromRequest(r).Error().Err(err).Msg("Remote store unreachable")
		writeError(w, http.StatusBadGateway, "remote store unreachable", err.Error())
		return
	}

	if len(reply.Body) == 0 {
		w.WriteHeader(reply.StatusCode)
		return
	}

	if !json.Valid(reply.Body) {
		if reply.OK() {
			hlog.FromRequest(r).Error().Int("status", reply.StatusCode).Msg("Remote store returned a non-JSON body")
			writeError(w, http.StatusBadGateway, "invalid response from remote store", "response body is not JSON")
			return
		}
		writeError(w, reply.StatusCode, http.StatusText(reply.StatusCode), string(reply.Body))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(reply.StatusCode)
	_, _ = w.Write(reply.Body)
}

func writeError(w http.ResponseWriter, status int, errText, message string) {
	writeJSON(w, status, map[string]string{"error": errText, "message": message})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
