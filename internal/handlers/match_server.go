// internal/handlers/match_server.go
package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/jason-s-yu/hearts/internal/auth"
	"github.com/jason-s-yu/hearts/internal/hearts"
	"github.com/jason-s-yu/hearts/internal/models"
)

// MatchServer holds the in-memory match store and the collaborators every
// match is wired with.
type MatchServer struct {
	Store    *hearts.MatchStore
	Deck     hearts.DeckSource
	Recorder hearts.Recorder
}

func NewMatchServer(deck hearts.DeckSource, recorder hearts.Recorder) *MatchServer {
	if deck == nil {
		deck = hearts.RandomDeckSource{}
	}
	return &MatchServer{
		Store:    hearts.NewMatchStore(),
		Deck:     deck,
		Recorder: recorder,
	}
}

// StartSweeper periodically drops finished matches from the store.
func (s *MatchServer) StartSweeper(interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for range ticker.C {
			if n := s.Store.Sweep(); n > 0 {
				log.Infof("swept %d finished matches", n)
			}
		}
	}()
}

type createSeatRequest struct {
	Name     string `json:"name"`
	AI       bool   `json:"ai"`
	Strategy string `json:"strategy,omitempty"`
}

type createMatchRequest struct {
	GoalScore int                 `json:"goal_score,omitempty"`
	Host      int                 `json:"host"`
	Seats     []createSeatRequest `json:"seats"`
}

type createMatchResponse struct {
	MatchID uuid.UUID `json:"match_id"`
	Tokens  [4]string `json:"tokens"`
}

// CreateMatchHandler sets up and starts a match directly, bypassing the
// lobby service: seats, goal score, and host come from the request body and
// the four seat tokens come back in the response. The lobby issues tokens
// the same way in production; this route keeps local development and tests
// self-contained.
func (s *MatchServer) CreateMatchHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req createMatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "malformed request body", http.StatusBadRequest)
		return
	}
	if len(req.Seats) != 4 {
		http.Error(w, "exactly 4 seats required", http.StatusBadRequest)
		return
	}

	m := hearts.NewMatch(req.GoalScore, s.Deck)
	m.Recorder = s.Recorder
	for i, seat := range req.Seats {
		ctrl := models.ControllerHuman
		if seat.AI {
			ctrl = models.ControllerAI
		}
		if err := m.SetSeat(i, seat.Name, uuid.Nil, ctrl, seat.Strategy); err != nil {
			writeEngineError(w, err)
			return
		}
	}
	if err := m.SetHost(req.Host); err != nil {
		writeEngineError(w, err)
		return
	}
	for i, seat := range req.Seats {
		if !seat.AI {
			if err := m.MarkReady(i); err != nil {
				writeEngineError(w, err)
				return
			}
		}
	}
	if err := m.Start(r.Context()); err != nil {
		writeEngineError(w, err)
		return
	}
	s.Store.AddMatch(m)

	resp := createMatchResponse{MatchID: m.ID}
	for i := 0; i < 4; i++ {
		token, err := auth.CreateSeatToken(m.ID, i)
		if err != nil {
			http.Error(w, "failed to issue seat tokens", http.StatusInternalServerError)
			return
		}
		resp.Tokens[i] = token
	}
	log.WithFields(log.Fields{"match": m.ID, "goal": m.GoalScore}).Info("match created")
	writeJSON(w, http.StatusOK, resp)
}
