// internal/hearts/match_test.go
package hearts

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jason-s-yu/hearts/internal/models"
)

// recorderMock captures persistence calls. Calls arrive under the match
// lock, so no synchronization is needed here.
type recorderMock struct {
	snapshots []RoundSnapshot
	results   []MatchResult
}

func (r *recorderMock) SaveRoundSnapshot(_ context.Context, snap RoundSnapshot) error {
	r.snapshots = append(r.snapshots, snap)
	return nil
}

func (r *recorderMock) SaveMatchResult(_ context.Context, result MatchResult) error {
	r.results = append(r.results, result)
	return nil
}

// newTestMatch builds and starts a match with a deterministic deck. Seats
// listed in humans are human controlled; the lowest human seat is host.
func newTestMatch(t *testing.T, goal int, humans ...int) *Match {
	t.Helper()
	m := NewMatch(goal, SeededDeckSource{Seed: 11})
	m.SeatTimeout = time.Minute

	isHuman := make(map[int]bool, len(humans))
	for _, h := range humans {
		isHuman[h] = true
	}
	for i := 0; i < 4; i++ {
		ctrl := models.ControllerAI
		if isHuman[i] {
			ctrl = models.ControllerHuman
		}
		require.NoError(t, m.SetSeat(i, fmt.Sprintf("p%d", i), uuid.Nil, ctrl, ""))
	}
	require.NotEmpty(t, humans, "a match needs a human host")
	require.NoError(t, m.SetHost(humans[0]))
	for _, h := range humans {
		require.NoError(t, m.MarkReady(h))
	}
	require.Equal(t, MatchReady, m.Phase)
	require.NoError(t, m.Start(context.Background()))
	require.Equal(t, MatchInProgress, m.Phase)
	return m
}

// driveHuman does whatever seat owes the round right now: a pass submission
// during the exchange, or a card when it is the seat's turn.
func driveHuman(t *testing.T, m *Match, seat int) {
	t.Helper()
	ctx := context.Background()
	r := m.Round
	if r == nil || m.Phase != MatchInProgress {
		return
	}
	if r.Phase == PhasePassing && !r.HasSubmittedPass(seat) {
		require.NoError(t, m.SubmitPass(ctx, seat, PassPicks(m.Seats[seat].Hand)))
		return
	}
	if r.Phase.InTrickPlay() && r.TrickPhase != TrickJustCompleted && r.CurrentSeat == seat && !m.Seats[seat].IsAI() {
		legal, err := LegalCards(r, seat)
		require.NoError(t, err)
		require.NotEmpty(t, legal)
		require.NoError(t, m.PlayCard(ctx, seat, legal[0]))
	}
}

func TestMatchSetupRules(t *testing.T) {
	m := NewMatch(0, SeededDeckSource{Seed: 1})
	assert.Equal(t, DefaultGoalScore, m.GoalScore)

	err := m.SetHost(2) // seats default to AI
	requireRule(t, err, "ai_host")

	err = m.PlayCard(context.Background(), 0, models.TwoOfClubs)
	requireRule(t, err, "match_not_active")

	require.NoError(t, m.SetSeat(0, "alice", uuid.Nil, models.ControllerHuman, ""))
	err = m.MarkReady(0)
	requireRule(t, err, "no_host")

	require.NoError(t, m.SetHost(0))
	require.NoError(t, m.MarkReady(0))
	assert.Equal(t, MatchReady, m.Phase)

	err = m.SetSeat(1, "bob", uuid.Nil, models.ControllerHuman, "")
	requireRule(t, err, "match_started")
}

func TestHostPollPlaysMatchToCompletion(t *testing.T) {
	m := newTestMatch(t, 20, 0)
	rec := &recorderMock{}
	m.Recorder = rec
	ctx := context.Background()

	for i := 0; i < 5000 && !m.Phase.Terminal(); i++ {
		_, err := m.Poll(ctx, 0)
		require.NoError(t, err)
		driveHuman(t, m, 0)
	}

	require.Equal(t, MatchFinished, m.Phase)
	require.GreaterOrEqual(t, m.Winner, 0)
	require.LessOrEqual(t, m.Winner, 3)
	for _, s := range m.Seats {
		assert.GreaterOrEqual(t, s.MatchScore, m.Seats[m.Winner].MatchScore)
	}

	// One snapshot per completed trick at minimum, one final result.
	assert.GreaterOrEqual(t, len(rec.snapshots), 13)
	require.Len(t, rec.results, 1)
	assert.Equal(t, m.Winner, rec.results[0].Winner)
	assert.False(t, rec.results[0].Aborted)
	assert.Equal(t, m.RoundNumber, rec.results[0].Rounds)
}

func TestNonHostPollDoesNotAdvanceSharedState(t *testing.T) {
	m := newTestMatch(t, 100, 0, 1)
	ctx := context.Background()
	r := m.Round
	require.Equal(t, PhasePassing, r.Phase)

	for i := 0; i < 5; i++ {
		_, err := m.Poll(ctx, 1)
		require.NoError(t, err)
	}
	assert.False(t, r.HasSubmittedPass(2), "non-host polls must not run AI passes")
	assert.False(t, r.HasSubmittedPass(3))

	_, err := m.Poll(ctx, 0)
	require.NoError(t, err)
	assert.True(t, r.HasSubmittedPass(2))
	assert.True(t, r.HasSubmittedPass(3))
}

func TestBetweenGamesWaitsForHostPoll(t *testing.T) {
	m := newTestMatch(t, 1000, 0)
	ctx := context.Background()

	for i := 0; i < 2000 && m.Phase == MatchInProgress; i++ {
		_, err := m.Poll(ctx, 0)
		require.NoError(t, err)
		driveHuman(t, m, 0)
	}

	require.Equal(t, MatchBetweenGames, m.Phase)
	assert.Equal(t, 1, m.RoundNumber)
	assert.Equal(t, PhaseFinished, m.Round.Phase)

	total := 0
	for _, s := range m.Seats {
		total += s.MatchScore
	}
	assert.Contains(t, []int{26, 78}, total)

	// The next host poll deals round 2.
	_, err := m.Poll(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, MatchInProgress, m.Phase)
	assert.Equal(t, 2, m.RoundNumber)
	assert.Equal(t, PhasePassing, m.Round.Phase)
	for _, s := range m.Seats {
		assert.Len(t, s.Hand, 13)
	}
}

func TestSeatTimeoutHandsSeatToAI(t *testing.T) {
	m := newTestMatch(t, 100, 0, 2)
	clock := time.Unix(1700000000, 0)
	m.now = func() time.Time { return clock }
	ctx := context.Background()

	// Both humans poll once at t0; then only the host keeps polling.
	_, err := m.Poll(ctx, 2)
	require.NoError(t, err)
	clock = clock.Add(m.SeatTimeout / 2)
	_, err = m.Poll(ctx, 0)
	require.NoError(t, err)
	assert.False(t, m.Seats[2].IsAI())

	clock = clock.Add(m.SeatTimeout)
	_, err = m.Poll(ctx, 0)
	require.NoError(t, err)
	assert.True(t, m.Seats[2].IsAI())
	assert.Equal(t, DefaultStrategy, m.Seats[2].Strategy)

	// Replacement is idempotent and the match keeps going.
	_, err = m.Poll(ctx, 0)
	require.NoError(t, err)
	assert.True(t, m.Seats[2].IsAI())
	assert.False(t, m.Phase.Terminal())
}

func TestHostTimeoutTransfersToLiveHuman(t *testing.T) {
	m := newTestMatch(t, 100, 0, 3)
	clock := time.Unix(1700000000, 0)
	m.now = func() time.Time { return clock }
	ctx := context.Background()

	_, err := m.Poll(ctx, 0)
	require.NoError(t, err)

	// The host goes silent; seat 3 keeps polling and inherits hostship.
	clock = clock.Add(m.SeatTimeout + time.Second)
	_, err = m.Poll(ctx, 3)
	require.NoError(t, err)

	assert.False(t, m.Seats[0].Host)
	assert.True(t, m.Seats[0].IsAI())
	assert.True(t, m.Seats[3].Host)
	assert.False(t, m.Seats[3].IsAI())
	assert.False(t, m.Phase.Terminal())

	// The new host's polls now drive the match.
	for i := 0; i < 5000 && !m.Phase.Terminal(); i++ {
		_, err := m.Poll(ctx, 3)
		require.NoError(t, err)
		driveHuman(t, m, 3)
	}
	assert.Equal(t, MatchFinished, m.Phase)
}

func TestHostTimeoutWithNoLiveHumanAborts(t *testing.T) {
	m := newTestMatch(t, 100, 0)
	clock := time.Unix(1700000000, 0)
	m.now = func() time.Time { return clock }
	ctx := context.Background()

	_, err := m.Poll(ctx, 0)
	require.NoError(t, err)

	// The only human stops polling; a stale client on an AI seat polls in.
	clock = clock.Add(m.SeatTimeout + time.Second)
	_, err = m.Poll(ctx, 1)
	require.NoError(t, err)

	assert.Equal(t, MatchAborted, m.Phase)
	assert.Equal(t, PhaseGameAborted, m.Round.Phase)
}

func TestAbortedMatchResultPersisted(t *testing.T) {
	m := newTestMatch(t, 100, 0)
	rec := &recorderMock{}
	m.Recorder = rec

	m.Abort()
	require.Equal(t, MatchAborted, m.Phase)
	require.Len(t, rec.results, 1)
	assert.True(t, rec.results[0].Aborted)
	assert.Equal(t, -1, rec.results[0].Winner)

	// Terminal matches ignore further polls and plays.
	_, err := m.Poll(context.Background(), 0)
	require.NoError(t, err)
	err = m.PlayCard(context.Background(), 0, models.TwoOfClubs)
	requireRule(t, err, "match_not_active")
}
