// internal/handlers/match_test.go
package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jason-s-yu/hearts/internal/auth"
	"github.com/jason-s-yu/hearts/internal/hearts"
)

func newTestServer(t *testing.T) *MatchServer {
	t.Helper()
	auth.Init()
	return NewMatchServer(hearts.SeededDeckSource{Seed: 3}, nil)
}

// createMatch starts a match with a human host at seat 0 and AI elsewhere,
// returning the response body.
func createMatch(t *testing.T, s *MatchServer) createMatchResponse {
	t.Helper()
	body := createMatchRequest{
		GoalScore: 100,
		Host:      0,
		Seats: []createSeatRequest{
			{Name: "alice"},
			{Name: "bot-1", AI: true},
			{Name: "bot-2", AI: true, Strategy: hearts.StrategyDumpPenalty},
			{Name: "bot-3", AI: true},
		},
	}
	raw, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/match/create", bytes.NewReader(raw))
	rec := httptest.NewRecorder()
	s.CreateMatchHandler(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp createMatchResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.NotEqual(t, uuid.Nil, resp.MatchID)
	for _, token := range resp.Tokens {
		require.NotEmpty(t, token)
	}
	return resp
}

func TestCreateMatchValidation(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/match/create", nil)
	rec := httptest.NewRecorder()
	s.CreateMatchHandler(rec, req)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)

	req = httptest.NewRequest(http.MethodPost, "/match/create", bytes.NewReader([]byte(`{"seats":[{"name":"only"}]}`)))
	rec = httptest.NewRecorder()
	s.CreateMatchHandler(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// An AI host is rejected by the engine and surfaces as a rule error.
	req = httptest.NewRequest(http.MethodPost, "/match/create", bytes.NewReader([]byte(`{
		"host": 1,
		"seats": [{"name":"a"},{"name":"b","ai":true},{"name":"c","ai":true},{"name":"d","ai":true}]
	}`)))
	rec = httptest.NewRecorder()
	s.CreateMatchHandler(rec, req)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "ai_host")
}

func TestPollRequiresToken(t *testing.T) {
	s := newTestServer(t)
	createMatch(t, s)

	req := httptest.NewRequest(http.MethodGet, "/match/poll", nil)
	rec := httptest.NewRecorder()
	s.PollHandler(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/match/poll?token=garbage", nil)
	rec = httptest.NewRecorder()
	s.PollHandler(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestPollUnknownMatch(t *testing.T) {
	s := newTestServer(t)
	token, err := auth.CreateSeatToken(uuid.New(), 0)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/match/poll", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	s.PollHandler(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPollReturnsProjection(t *testing.T) {
	s := newTestServer(t)
	created := createMatch(t, s)

	req := httptest.NewRequest(http.MethodGet, "/match/poll", nil)
	req.Header.Set("Authorization", "Bearer "+created.Tokens[0])
	rec := httptest.NewRecorder()
	s.PollHandler(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var proj hearts.Projection
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&proj))
	assert.Equal(t, created.MatchID, proj.MatchID)
	assert.Equal(t, hearts.MatchInProgress, proj.MatchPhase)
	assert.Len(t, proj.MyHand, 13)
	assert.Len(t, proj.Seats, 4)
}

func TestPassAndPlayFlow(t *testing.T) {
	s := newTestServer(t)
	created := createMatch(t, s)
	hostToken := created.Tokens[0]

	poll := func() hearts.Projection {
		req := httptest.NewRequest(http.MethodGet, "/match/poll?token="+hostToken, nil)
		rec := httptest.NewRecorder()
		s.PollHandler(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)
		var proj hearts.Projection
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&proj))
		return proj
	}

	proj := poll()
	require.Equal(t, hearts.PhasePassing, proj.GamePhase)
	require.Len(t, proj.MyHand, 13)

	// Too few cards is a rule violation, not a transport error.
	raw, _ := json.Marshal(submitPassRequest{Cards: proj.MyHand[:2]})
	req := httptest.NewRequest(http.MethodPost, "/match/pass?token="+hostToken, bytes.NewReader(raw))
	rec := httptest.NewRecorder()
	s.SubmitPassHandler(rec, req)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "pass_three_cards")

	raw, _ = json.Marshal(submitPassRequest{Cards: proj.MyHand[:3]})
	req = httptest.NewRequest(http.MethodPost, "/match/pass?token="+hostToken, bytes.NewReader(raw))
	rec = httptest.NewRecorder()
	s.SubmitPassHandler(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	// The host poll collects the AI passes and trick play begins.
	proj = poll()
	require.Equal(t, hearts.PhaseFirstTrick, proj.GamePhase)

	// Drive polls until it is the human's turn, then play a legal card.
	for i := 0; i < 100 && !proj.IsMyTurn; i++ {
		proj = poll()
	}
	require.True(t, proj.IsMyTurn)
	require.NotEmpty(t, proj.LegalCards)

	raw, _ = json.Marshal(playCardRequest{Card: proj.LegalCards[0]})
	req = httptest.NewRequest(http.MethodPost, "/match/play?token="+hostToken, bytes.NewReader(raw))
	rec = httptest.NewRecorder()
	s.PlayCardHandler(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	// Replaying the same card is rejected.
	req = httptest.NewRequest(http.MethodPost, "/match/play?token="+hostToken, bytes.NewReader(raw))
	rec = httptest.NewRecorder()
	s.PlayCardHandler(rec, req)
	assert.Equal(t, http.StatusConflict, rec.Code)

	// Unparseable codes fail before reaching the engine.
	req = httptest.NewRequest(http.MethodPost, "/match/play?token="+hostToken, bytes.NewReader([]byte(`{"card":"10H"}`)))
	rec = httptest.NewRecorder()
	s.PlayCardHandler(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "card_format")
}
