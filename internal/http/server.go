package httpapi

import (
	"crypto/rand"
	"encoding/hex"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/example/sitter-hub/internal/account"
	"github.com/example/sitter-hub/internal/booking"
	"github.com/example/sitter-hub/internal/discovery"
	"github.com/example/sitter-hub/internal/dispatch"
	"github.com/example/sitter-hub/internal/storage"
)

// Server wires the discovery, account and booking services behind a JSON API.
type Server struct {
	Discovery *discovery.Service
	Accounts  *account.Service
	Bookings  *booking.Service
	Parents   storage.ParentStore
	WSReg     *dispatch.WSRegistry

	logger *slog.Logger
	mux    *mux.Router
}

func NewServer(disc *discovery.Service, acc *account.Service, book *booking.Service, parents storage.ParentStore, wsreg *dispatch.WSRegistry, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		Discovery: disc,
		Accounts:  acc,
		Bookings:  book,
		Parents:   parents,
		WSReg:     wsreg,
		logger:    logger,
		mux:       mux.NewRouter(),
	}
	s.registerMiddleware()
	s.routes()
	return s
}

func (s *Server) routes() {
	s.mux.HandleFunc("/api/v1/sitters", s.handleSearchSitters).Methods("GET")
	s.mux.HandleFunc("/api/v1/register/sitter", s.handleRegisterSitter).Methods("POST")
	s.mux.HandleFunc("/api/v1/register/parent", s.handleRegisterParent).Methods("POST")
	s.mux.HandleFunc("/api/v1/bookings", s.handleCreateBooking).Methods("POST")
	s.mux.HandleFunc("/api/v1/bookings", s.handleListBookings).Methods("GET")
	s.mux.HandleFunc("/api/v1/bookings/{id}/confirm", s.handleBookingAction).Methods("POST")
	s.mux.HandleFunc("/api/v1/bookings/{id}/decline", s.handleBookingAction).Methods("POST")
	s.mux.HandleFunc("/api/v1/bookings/{id}/cancel", s.handleBookingAction).Methods("POST")
	s.mux.HandleFunc("/api/v1/bookings/{id}/rate", s.handleRateSitter).Methods("POST")
	s.mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); w.Write([]byte("ok")) }).Methods("GET")
	s.mux.Handle("/metrics", promhttp.Handler())
	s.mux.HandleFunc("/ws/sitters/{sitter_id}", s.handleWS)
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) { s.mux.ServeHTTP(w, r) }

var upgrader = websocket.Upgrader{}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "sitter_id")
	if !ok {
		http.Error(w, "bad sitter id", http.StatusBadRequest)
		return
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		http.Error(w, "upgrade failed", http.StatusBadRequest)
		return
	}
	s.WSReg.Add(id, conn)
}

func newID() string { b := make([]byte, 8); _, _ = rand.Read(b); return hex.EncodeToString(b) }
