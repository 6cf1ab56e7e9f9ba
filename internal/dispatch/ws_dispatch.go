package dispatch

import (
	"errors"
	"log/slog"
	"strconv"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/example/sitter-hub/internal/models"
)

// ErrNoSession means the sitter has no live WebSocket connection; booking
// creation treats this as best-effort and moves on.
var ErrNoSession = errors.New("no ws session")

// WSSession is one connected sitter.
type WSSession struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (s *WSSession) Send(offer models.BookingOffer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn.WriteJSON(offer)
}

// WSRegistry holds live sitter sessions keyed by sitter id.
type WSRegistry struct {
	mu       sync.RWMutex
	sessions map[int64]*WSSession
	logger   *slog.Logger
}

func NewWSRegistry(logger *slog.Logger) *WSRegistry {
	if logger == nil {
		logger = slog.Default()
	}
	return &WSRegistry{sessions: make(map[int64]*WSSession), logger: logger}
}

func (r *WSRegistry) Add(sitterID int64, conn *websocket.Conn) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if old, ok := r.sessions[sitterID]; ok {
		_ = old.conn.Close()
	}
	r.sessions[sitterID] = &WSSession{conn: conn}
}

func (r *WSRegistry) Remove(sitterID int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, sitterID)
}

// Offer pushes a booking offer to the sitter's session if connected.
func (r *WSRegistry) Offer(sitterID int64, offer models.BookingOffer) error {
	r.mu.RLock()
	s, ok := r.sessions[sitterID]
	r.mu.RUnlock()
	if !ok {
		return ErrNoSession
	}
	if err := s.Send(offer); err != nil {
		r.logger.Warn("ws send failed", "sitter_id", strconv.FormatInt(sitterID, 10), "error", err)
		return err
	}
	return nil
}
