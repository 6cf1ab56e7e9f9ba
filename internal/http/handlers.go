package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/example/sitter-hub/internal/account"
	"github.com/example/sitter-hub/internal/booking"
	"github.com/example/sitter-hub/internal/discovery"
	"github.com/example/sitter-hub/internal/models"
	"github.com/example/sitter-hub/internal/storage"
)

// handleSearchSitters is the discovery query boundary. Optional params:
// city, max_price, min_experience, sort (experience|rating) and parent_id.
// When parent_id names a known parent and no explicit sort is requested, the
// results are ranked by distance from that parent's stored coordinate.
func (s *Server) handleSearchSitters(w http.ResponseWriter, r *http.Request) {
	qs := r.URL.Query()
	q := discovery.Query{
		City: qs.Get("city"),
		Sort: qs.Get("sort"),
	}
	if v := qs.Get("max_price"); v != "" {
		p, err := strconv.ParseFloat(v, 64)
		if err != nil {
			http.Error(w, "invalid max_price", http.StatusBadRequest)
			return
		}
		q.MaxPrice = &p
	}
	if v := qs.Get("min_experience"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			http.Error(w, "invalid min_experience", http.StatusBadRequest)
			return
		}
		q.MinExperience = n
	}
	if v := qs.Get("parent_id"); v != "" {
		if id, err := strconv.ParseInt(v, 10, 64); err == nil {
			if p, err := s.Parents.GetParent(r.Context(), id); err == nil && p.Coord.Resolved() {
				q.Viewer = &p.Coord
			}
		}
	}

	res, err := s.Discovery.Search(r.Context(), q)
	if err != nil {
		s.logger.Error("search failed", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleRegisterSitter(w http.ResponseWriter, r *http.Request) {
	var in account.RegisterSitterInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	sitter, err := s.Accounts.RegisterSitter(r.Context(), in)
	if err != nil {
		s.writeAccountError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, sitter)
}

func (s *Server) handleRegisterParent(w http.ResponseWriter, r *http.Request) {
	var in account.RegisterParentInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	parent, err := s.Accounts.RegisterParent(r.Context(), in)
	if err != nil {
		s.writeAccountError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, parent)
}

type createBookingRequest struct {
	ParentID int64     `json:"parent_id"`
	SitterID int64     `json:"sitter_id"`
	Start    time.Time `json:"start_time"`
	End      time.Time `json:"end_time"`
}

func (s *Server) handleCreateBooking(w http.ResponseWriter, r *http.Request) {
	var in createBookingRequest
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	b, err := s.Bookings.Create(r.Context(), in.ParentID, in.SitterID, in.Start, in.End)
	if err != nil {
		s.writeBookingError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, b)
}

func (s *Server) handleListBookings(w http.ResponseWriter, r *http.Request) {
	qs := r.URL.Query()
	userID, err := strconv.ParseInt(qs.Get("user_id"), 10, 64)
	if err != nil {
		http.Error(w, "invalid user_id", http.StatusBadRequest)
		return
	}
	role := models.Role(qs.Get("role"))
	if role != models.RoleParent && role != models.RoleSitter {
		http.Error(w, "role must be parent or sitter", http.StatusBadRequest)
		return
	}
	list, err := s.Bookings.ListForUser(r.Context(), userID, role)
	if err != nil {
		s.writeBookingError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"bookings": list})
}

type bookingActionRequest struct {
	SitterID int64 `json:"sitter_id"`
	ParentID int64 `json:"parent_id"`
}

func (s *Server) handleBookingAction(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		http.Error(w, "bad booking id", http.StatusBadRequest)
		return
	}
	var in bookingActionRequest
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var err error
	switch action(r) {
	case "confirm":
		err = s.Bookings.Confirm(r.Context(), in.SitterID, id)
	case "decline":
		err = s.Bookings.Decline(r.Context(), in.SitterID, id)
	case "cancel":
		err = s.Bookings.Cancel(r.Context(), in.ParentID, id)
	default:
		http.Error(w, "unknown action", http.StatusNotFound)
		return
	}
	if err != nil {
		s.writeBookingError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type rateRequest struct {
	ParentID int64   `json:"parent_id"`
	Rating   float64 `json:"rating"`
}

func (s *Server) handleRateSitter(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		http.Error(w, "bad booking id", http.StatusBadRequest)
		return
	}
	var in rateRequest
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := s.Bookings.Rate(r.Context(), in.ParentID, id, in.Rating); err != nil {
		s.writeBookingError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) writeAccountError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, models.ErrValidation):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	case errors.Is(err, account.ErrAddressUnresolved):
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"error": "could not verify address, please check your city and street"})
	case errors.Is(err, storage.ErrEmailTaken):
		writeJSON(w, http.StatusConflict, map[string]string{"error": "email already registered"})
	default:
		s.logger.Error("registration failed", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func (s *Server) writeBookingError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, models.ErrValidation):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	case errors.Is(err, booking.ErrUnauthorized):
		// no detail on purpose: the caller is not this booking's counterparty
		http.Error(w, "forbidden", http.StatusForbidden)
	case errors.Is(err, storage.ErrNotFound):
		http.Error(w, "not found", http.StatusNotFound)
	default:
		s.logger.Error("booking operation failed", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func pathID(r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(mux.Vars(r)[name], 10, 64)
	return id, err == nil
}

// action extracts the trailing path segment of a booking action route.
func action(r *http.Request) string {
	if current := mux.CurrentRoute(r); current != nil {
		if tmpl, err := current.GetPathTemplate(); err == nil {
			for i := len(tmpl) - 1; i >= 0; i-- {
				if tmpl[i] == '/' {
					return tmpl[i+1:]
				}
			}
		}
	}
	return ""
}
