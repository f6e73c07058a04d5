// internal/handlers/match.go
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/jason-s-yu/hearts/internal/auth"
	"github.com/jason-s-yu/hearts/internal/hearts"
	"github.com/jason-s-yu/hearts/internal/models"
)

// PollHandler serves GET /match/poll. The seat token identifies the caller;
// a host token's poll additionally ticks the match forward. The response is
// the caller's projection: own hand, legal cards, tricks rotated to their
// seat.
func (s *MatchServer) PollHandler(w http.ResponseWriter, r *http.Request) {
	m, seat, ok := s.authenticateMatch(w, r)
	if !ok {
		return
	}
	proj, err := m.Poll(r.Context(), seat)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, proj)
}

type playCardRequest struct {
	Card string `json:"card"`
}

// PlayCardHandler serves POST /match/play with a card code.
func (s *MatchServer) PlayCardHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	m, seat, ok := s.authenticateMatch(w, r)
	if !ok {
		return
	}
	var req playCardRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "malformed request body", http.StatusBadRequest)
		return
	}
	card, err := models.ParseCard(req.Card)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{"error": err.Error(), "rule": "card_format"})
		return
	}
	if err := m.PlayCard(r.Context(), seat, card); err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"ok": true})
}

type submitPassRequest struct {
	Cards []string `json:"cards"`
}

// SubmitPassHandler serves POST /match/pass with three card codes.
func (s *MatchServer) SubmitPassHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	m, seat, ok := s.authenticateMatch(w, r)
	if !ok {
		return
	}
	var req submitPassRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "malformed request body", http.StatusBadRequest)
		return
	}
	cards, err := models.ParseCards(req.Cards)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{"error": err.Error(), "rule": "card_format"})
		return
	}
	if err := m.SubmitPass(r.Context(), seat, cards); err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"ok": true})
}

// authenticateMatch resolves the seat token on the request to a live match
// and seat position, writing the error response itself on failure.
func (s *MatchServer) authenticateMatch(w http.ResponseWriter, r *http.Request) (*hearts.Match, int, bool) {
	token := bearerToken(r)
	if token == "" {
		http.Error(w, "missing seat token", http.StatusUnauthorized)
		return nil, 0, false
	}
	matchID, seat, err := auth.AuthenticateSeatToken(token)
	if err != nil {
		http.Error(w, "invalid seat token", http.StatusForbidden)
		return nil, 0, false
	}
	m, exists := s.Store.GetMatch(matchID)
	if !exists {
		http.Error(w, "match not found", http.StatusNotFound)
		return nil, 0, false
	}
	return m, seat, true
}

// bearerToken pulls the seat token from the Authorization header, falling
// back to a "token" query parameter for plain browser polling.
func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	return r.URL.Query().Get("token")
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeEngineError maps engine errors onto HTTP responses: rule violations
// are the caller's problem and carry the rule broken; invariant violations
// are ours and come back as 500s.
func writeEngineError(w http.ResponseWriter, err error) {
	if re, ok := hearts.AsRuleError(err); ok {
		writeJSON(w, http.StatusConflict, map[string]interface{}{"error": re.Msg, "rule": re.Rule})
		return
	}
	if errors.Is(err, hearts.ErrInvariant) {
		writeJSON(w, http.StatusInternalServerError, map[string]interface{}{"error": "internal game state error, round aborted"})
		return
	}
	writeJSON(w, http.StatusInternalServerError, map[string]interface{}{"error": err.Error()})
}
