package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/hectorgimenez/beltkeeper/internal/bot"
	"github.com/hectorgimenez/beltkeeper/internal/event"
	"github.com/hectorgimenez/beltkeeper/internal/journal"
)

const (
	writeTimeout = 5 * time.Second

	defaultHistoryLimit = 20
	maxHistoryLimit     = 500
)

type Controller interface {
	Status() bot.Status
	ResetNeeds()
}

// HistoryReader returns the last n recorded scans, newest first.
type HistoryReader interface {
	Recent(ctx context.Context, n int) ([]journal.Entry, error)
}

// Server exposes the current needs over HTTP and streams them to websocket clients after every
// completed scan.
type Server struct {
	status   Controller
	history  HistoryReader
	triggers chan<- struct{}
	logger   *slog.Logger
	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[*websocket.Conn]struct{}
}

// New builds the server, history may be nil when the journal is disabled.
func New(status Controller, history HistoryReader, triggers chan<- struct{}, logger *slog.Logger) *Server {
	return &Server{
		status:   status,
		history:  history,
		triggers: triggers,
		logger:   logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4 * 1024,
		},
		clients: make(map[*websocket.Conn]struct{}),
	}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/needs", s.needsHandler)
	mux.HandleFunc("/api/scan", s.scanHandler)
	mux.HandleFunc("/api/history", s.historyHandler)
	mux.HandleFunc("/ws", s.wsHandler)

	return mux
}

// Listen serves until ctx is done.
func (s *Server) Listen(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: s.Handler(), ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		s.closeClients()
	}()

	s.logger.Info("Status server listening", slog.String("addr", addr))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}

// EventHandler pushes the status to every websocket client when a scan completes.
func (s *Server) EventHandler() event.Handler {
	return func(_ context.Context, e event.Event) error {
		if _, ok := e.(event.ScanCompletedEvent); !ok {
			return nil
		}
		s.broadcast(s.status.Status())

		return nil
	}
}

func (s *Server) needsHandler(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
	case http.MethodDelete:
		s.status.ResetNeeds()
		s.broadcast(s.status.Status())
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(s.status.Status()); err != nil {
		s.logger.Warn("Error writing status", slog.Any("error", err))
	}
}

func (s *Server) scanHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	select {
	case s.triggers <- struct{}{}:
		w.WriteHeader(http.StatusAccepted)
	default:
		http.Error(w, "a scan is already pending", http.StatusConflict)
	}
}

func (s *Server) historyHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if s.history == nil {
		http.Error(w, "scan journal is disabled", http.StatusNotFound)
		return
	}

	limit := defaultHistoryLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			http.Error(w, "limit must be a positive number", http.StatusBadRequest)
			return
		}
		limit = min(n, maxHistoryLimit)
	}

	entries, err := s.history.Recent(r.Context(), limit)
	if err != nil {
		s.logger.Error("Error reading scan history", slog.Any("error", err))
		http.Error(w, "error reading scan history", http.StatusInternalServerError)
		return
	}
	if entries == nil {
		entries = []journal.Entry{}
	}

	w.Header().Set("Content-Type", "application/json")
	if err = json.NewEncoder(w).Encode(entries); err != nil {
		s.logger.Warn("Error writing scan history", slog.Any("error", err))
	}
}

func (s *Server) wsHandler(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("Error upgrading websocket connection", slog.Any("error", err))
		return
	}

	s.mu.Lock()
	s.clients[conn] = struct{}{}
	err = s.write(conn, s.status.Status())
	s.mu.Unlock()
	if err != nil {
		s.drop(conn)
		return
	}

	// Clients never send anything, reading only detects when they go away
	for {
		if _, _, err = conn.ReadMessage(); err != nil {
			s.drop(conn)
			return
		}
	}
}

func (s *Server) broadcast(status bot.Status) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for conn := range s.clients {
		if err := s.write(conn, status); err != nil {
			s.logger.Debug("Dropping websocket client", slog.Any("error", err))
			delete(s.clients, conn)
			_ = conn.Close()
		}
	}
}

// write must be called holding mu, websocket connections support one writer at a time.
func (s *Server) write(conn *websocket.Conn, status bot.Status) error {
	_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))

	return conn.WriteJSON(status)
}

func (s *Server) drop(conn *websocket.Conn) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.clients, conn)
	_ = conn.Close()
}

func (s *Server) closeClients() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for conn := range s.clients {
		_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, "bye"), time.Now().Add(time.Second))
		_ = conn.Close()
		delete(s.clients, conn)
	}
}
