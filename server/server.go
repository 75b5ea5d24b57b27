// Package server implements the check-in HTTP API consumed by the gateway:
// a local stand-in for the hosted service, used for development and
// integration tests.
package server

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/fieldsafe/loneworker/db"
	"github.com/fieldsafe/loneworker/types"
)

type Server struct {
	store   db.Store
	limiter *RateLimiter
	now     func() time.Time
}

func New(store db.Store) *Server {
	return &Server{store: store, limiter: NewRateLimiter(), now: time.Now}
}

// Router wires the six endpoints. Mutations go through the rate limiter.
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/checkins", s.handleListCheckins).Methods("GET")
	r.HandleFunc("/checkin_history", s.handleHistory).Methods("GET")
	r.HandleFunc("/contacts", s.handleListContacts).Methods("GET")

	r.Handle("/checkin/", s.limiter.Limit(http.HandlerFunc(s.handleCheckIn))).Methods("POST")
	r.Handle("/cancel_checkin/", s.limiter.Limit(http.HandlerFunc(s.handleCancel))).Methods("POST")
	r.Handle("/add_contact", s.limiter.Limit(http.HandlerFunc(s.handleAddContact))).Methods("POST")

	return r
}

func (s *Server) handleListCheckins(w http.ResponseWriter, r *http.Request) {
	sessions, err := s.store.ActiveSessions(s.now())
	if err != nil {
		log.Printf("Error listing active check-ins: %v", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, sessions)
}

func (s *Server) handleCheckIn(w http.ResponseWriter, r *http.Request) {
	var req types.CheckInRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.UserID == "" || req.Site == "" {
		http.Error(w, "user_id and site are required", http.StatusBadRequest)
		return
	}
	if req.Minutes < 1 {
		http.Error(w, "minutes must be at least 1", http.StatusBadRequest)
		return
	}

	now := s.now()
	if err := s.store.CheckIn(req.UserID, req.Site, req.Minutes, req.EmergencyContact, now); err != nil {
		if err == db.ErrActiveExists {
			http.Error(w, err.Error(), http.StatusConflict)
			return
		}
		log.Printf("Error creating check-in for %s at %s: %v", req.UserID, req.Site, err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	expires := now.Add(time.Duration(req.Minutes) * time.Minute)
	writeJSON(w, http.StatusOK, types.Ack{
		Message: fmt.Sprintf("%s checked in at %s until %s", req.UserID, req.Site, expires.Format("15:04")),
	})
}

func (s *Server) handleCancel(w http.ResponseWriter, r *http.Request) {
	var req types.CancelRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.UserID == "" || req.Site == "" {
		http.Error(w, "user_id and site are required", http.StatusBadRequest)
		return
	}

	if err := s.store.Cancel(req.UserID, req.Site, s.now()); err != nil {
		if err == db.ErrNoActiveSession {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		log.Printf("Error canceling check-in for %s at %s: %v", req.UserID, req.Site, err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, types.Ack{
		Message: fmt.Sprintf("Check-in for %s at %s canceled", req.UserID, req.Site),
	})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	records, err := s.store.History()
	if err != nil {
		log.Printf("Error listing history: %v", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, records)
}

func (s *Server) handleListContacts(w http.ResponseWriter, r *http.Request) {
	contacts, err := s.store.Contacts()
	if err != nil {
		log.Printf("Error listing contacts: %v", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, contacts)
}

func (s *Server) handleAddContact(w http.ResponseWriter, r *http.Request) {
	var contact types.Contact
	if err := json.NewDecoder(r.Body).Decode(&contact); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if contact.Name == "" || contact.Phone == "" {
		http.Error(w, "name and phone are required", http.StatusBadRequest)
		return
	}

	if err := s.store.AddContact(contact); err != nil {
		log.Printf("Error adding contact %s: %v", contact.Name, err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, types.Ack{
		Message: fmt.Sprintf("Contact %s added", contact.Name),
	})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
