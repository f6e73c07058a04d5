// internal/hearts/match.go
package hearts

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/jason-s-yu/hearts/internal/cache"
	"github.com/jason-s-yu/hearts/internal/models"
)

// Recorder persists match aggregates. Implementations must make each call
// atomic (one transaction per snapshot/result). A nil Recorder disables
// persistence, which tests rely on.
type Recorder interface {
	SaveRoundSnapshot(ctx context.Context, snap RoundSnapshot) error
	SaveMatchResult(ctx context.Context, result MatchResult) error
}

// RoundSnapshot captures the round and seat state persisted after every
// trick completion and pass collection.
type RoundSnapshot struct {
	MatchID      uuid.UUID        `json:"match_id"`
	RoundNumber  int              `json:"round_number"`
	GamePhase    GamePhase        `json:"game_phase"`
	TrickPhase   TrickPhase       `json:"trick_phase"`
	PlayCount    int              `json:"play_count"`
	TrickCount   int              `json:"trick_count"`
	HeartsBroken bool             `json:"hearts_broken"`
	CurrentSeat  int              `json:"current_seat"`
	Leader       int              `json:"leader"`
	Hands        [4][]string      `json:"hands"`
	RoundScores  [4]int           `json:"round_scores"`
	MatchScores  [4]int           `json:"match_scores"`
	Previous     *Trick           `json:"previous_trick,omitempty"`
}

// MatchResult is the final outcome written once per match.
type MatchResult struct {
	MatchID     uuid.UUID `json:"match_id"`
	Winner      int       `json:"winner"`
	Rounds      int       `json:"rounds"`
	FinalScores [4]int    `json:"final_scores"`
	Aborted     bool      `json:"aborted"`
}

// Match owns the four seats, the goal score, and at most one non-terminal
// round at a time. Every state transition runs under Mu; all lowercase
// methods assume the lock is held, matching the single-writer-per-match
// discipline: concurrent polls and plays on the same match serialize here,
// independent matches proceed fully in parallel.
type Match struct {
	ID uuid.UUID
	Mu sync.Mutex

	Phase       MatchPhase
	GoalScore   int
	Seats       [4]*models.Seat
	Round       *Round
	RoundNumber int
	Winner      int // seat index, -1 until the match is decided

	Deck        DeckSource
	SeatTimeout time.Duration
	Recorder    Recorder

	eventIndex int
	now        func() time.Time
}

// DefaultGoalScore ends the match once any seat reaches 100 points.
const DefaultGoalScore = 100

// DefaultSeatTimeout is the inactivity threshold before a human seat is
// handed to an AI (or, for the host, before hostship transfers).
const DefaultSeatTimeout = 45 * time.Second

// NewMatch builds an empty match in SETUP.
func NewMatch(goalScore int, deck DeckSource) *Match {
	if goalScore <= 0 {
		goalScore = DefaultGoalScore
	}
	if deck == nil {
		deck = RandomDeckSource{}
	}
	id, _ := uuid.NewRandom()
	m := &Match{
		ID:          id,
		Phase:       MatchSetup,
		GoalScore:   goalScore,
		Deck:        deck,
		SeatTimeout: DefaultSeatTimeout,
		Winner:      -1,
		now:         time.Now,
	}
	for i := 0; i < 4; i++ {
		m.Seats[i] = &models.Seat{Position: i, Controller: models.ControllerAI, Strategy: DefaultStrategy}
	}
	return m
}

// SetSeat assigns an occupant to a seat during SETUP.
func (m *Match) SetSeat(pos int, name string, userID uuid.UUID, ctrl models.Controller, strategy string) error {
	m.Mu.Lock()
	defer m.Mu.Unlock()
	if m.Phase != MatchSetup {
		return ruleErr("match_started", "seats cannot change after setup")
	}
	if pos < 0 || pos > 3 {
		return ruleErr("bad_seat", "seat position must be 0..3")
	}
	s := m.Seats[pos]
	s.Name = name
	s.UserID = userID
	s.Controller = ctrl
	if ctrl == models.ControllerAI {
		if strategy == "" {
			strategy = DefaultStrategy
		}
		s.Strategy = strategy
		s.Ready = true
	} else {
		s.Strategy = ""
		s.Ready = false
	}
	return nil
}

// SetHost flags one human seat as host. The host's polls are the sole driver
// of shared state advancement.
func (m *Match) SetHost(pos int) error {
	m.Mu.Lock()
	defer m.Mu.Unlock()
	if m.Phase != MatchSetup {
		return ruleErr("match_started", "host cannot change after setup")
	}
	if m.Seats[pos].IsAI() {
		return ruleErr("ai_host", "an AI seat cannot be host")
	}
	for _, s := range m.Seats {
		s.Host = s.Position == pos
	}
	return nil
}

// MarkReady records a human seat's ready flag; once all four seats are ready
// and a host exists, the match moves to READY.
func (m *Match) MarkReady(pos int) error {
	m.Mu.Lock()
	defer m.Mu.Unlock()
	if m.Phase != MatchSetup {
		return ruleErr("match_started", "readiness only applies during setup")
	}
	m.Seats[pos].Ready = true
	for _, s := range m.Seats {
		if !s.Ready {
			return nil
		}
	}
	if m.hostSeat() == nil {
		return ruleErr("no_host", "a host seat must be designated before start")
	}
	return m.transition(MatchReady)
}

// Start deals the first round. Callable once the match is READY.
func (m *Match) Start(ctx context.Context) error {
	m.Mu.Lock()
	defer m.Mu.Unlock()
	if err := m.transition(MatchBeforeGames); err != nil {
		return err
	}
	for _, s := range m.Seats {
		s.LastPoll = m.now()
		s.MatchScore = 0
	}
	if err := m.startRound(ctx); err != nil {
		return err
	}
	return m.transition(MatchInProgress)
}

func (m *Match) transition(to MatchPhase) error {
	if !m.Phase.CanTransition(to) {
		return invariantErr("illegal match phase transition %s -> %s", m.Phase, to)
	}
	m.Phase = to
	m.logEvent(-1, "match_phase", map[string]interface{}{"phase": string(to)})
	return nil
}

func (m *Match) hostSeat() *models.Seat {
	for _, s := range m.Seats {
		if s.Host {
			return s
		}
	}
	return nil
}

// startRound deals the next round. Assumes lock is held.
func (m *Match) startRound(ctx context.Context) error {
	m.RoundNumber++
	r := NewRound(m.RoundNumber, m.Seats)
	r.onEvent = m.logEvent
	r.notice = m.postNotice
	if err := r.Begin(); err != nil {
		return err
	}
	deck, err := m.Deck.DrawShuffledDeck(ctx)
	if err != nil {
		return fmt.Errorf("draw deck for round %d: %w", m.RoundNumber, err)
	}
	if err := r.Deal(deck); err != nil {
		return err
	}
	m.Round = r
	log.WithFields(log.Fields{"match": m.ID, "round": m.RoundNumber}).Info("round dealt")
	return nil
}

// Poll is the single entry point for client polling. Every poll refreshes
// the caller's liveness timestamp; a poll from the host seat additionally
// advances shared state (trick acknowledgement, AI turns, round and match
// termination). Non-host polls never mutate shared round state — their only
// housekeeping is taking over hostship when the host itself has gone silent.
func (m *Match) Poll(ctx context.Context, seat int) (*Projection, error) {
	m.Mu.Lock()
	defer m.Mu.Unlock()
	if seat < 0 || seat > 3 {
		return nil, ruleErr("bad_seat", "seat position must be 0..3")
	}
	s := m.Seats[seat]
	s.LastPoll = m.now()

	if !m.Phase.Terminal() {
		if s.Host {
			m.advance(ctx)
		} else {
			m.checkHostLiveness(seat)
		}
	}
	return m.buildProjection(seat), nil
}

// advance is the host-poll tick. Assumes lock is held.
func (m *Match) advance(ctx context.Context) {
	m.checkSeatLiveness()

	if m.Phase == MatchBetweenGames {
		if err := m.startRound(ctx); err != nil {
			log.WithError(err).Errorf("match %s: starting round %d", m.ID, m.RoundNumber)
			m.abort()
			return
		}
		if err := m.transition(MatchInProgress); err != nil {
			m.abort()
			return
		}
	}

	r := m.Round
	if r == nil || m.Phase != MatchInProgress {
		return
	}

	// Clear a trick the clients have had a poll cycle to look at.
	r.AcknowledgeTrick()

	m.runAITurns(ctx)

	if r.Phase == PhaseResult {
		m.finishRound(ctx)
	}
}

// runAITurns resolves AI passes and plays to a fixed point: it stops when a
// human is to act, a trick completes (TrickJustCompleted blocks further
// plays until the next host poll), or the round leaves trick play. Bounded
// by the 4-seat rotation. Assumes lock is held.
func (m *Match) runAITurns(ctx context.Context) {
	r := m.Round

	if r.Phase == PhasePassing {
		for pos, s := range m.Seats {
			if r.Phase != PhasePassing {
				break // pass collection completed mid-loop
			}
			if !s.IsAI() || r.HasSubmittedPass(pos) {
				continue
			}
			if err := r.SubmitPass(pos, PassPicks(s.Hand)); err != nil {
				log.WithError(err).Errorf("match %s: AI pass for seat %d", m.ID, pos)
				m.abortRound()
				return
			}
		}
		if r.Phase == PhaseFirstTrick {
			m.persistSnapshot(ctx)
		}
	}

	for r.Phase.InTrickPlay() && r.TrickPhase != TrickJustCompleted {
		s := m.Seats[r.CurrentSeat]
		if !s.IsAI() {
			return
		}
		card, err := SelectCard(r, s.Position, StrategyByName(s.Strategy))
		if err != nil {
			log.WithError(err).Errorf("match %s: AI selection for seat %d", m.ID, s.Position)
			m.abortRound()
			return
		}
		if err := r.PlayCard(s.Position, card); err != nil {
			log.WithError(err).Errorf("match %s: AI play %s for seat %d", m.ID, card, s.Position)
			m.abortRound()
			return
		}
		if r.TrickPhase == TrickJustCompleted {
			m.persistSnapshot(ctx)
		}
	}
}

// finishRound folds scores, persists, and either ends the match or parks it
// BETWEEN_GAMES until the next host poll deals again. Assumes lock is held.
func (m *Match) finishRound(ctx context.Context) {
	if err := m.Round.Finish(); err != nil {
		log.WithError(err).Errorf("match %s: finishing round %d", m.ID, m.RoundNumber)
		m.abort()
		return
	}
	m.persistSnapshot(ctx)

	goalMet := false
	for _, s := range m.Seats {
		if s.MatchScore >= m.GoalScore {
			goalMet = true
			break
		}
	}
	if !goalMet {
		if err := m.transition(MatchBetweenGames); err != nil {
			m.abort()
		}
		return
	}

	// Lowest cumulative score wins.
	winner := 0
	for i, s := range m.Seats {
		if s.MatchScore < m.Seats[winner].MatchScore {
			winner = i
		}
	}
	m.Winner = winner
	if err := m.transition(MatchResultPhase); err != nil {
		m.abort()
		return
	}
	if err := m.transition(MatchFinished); err != nil {
		m.abort()
		return
	}
	m.postNotice(fmt.Sprintf("%s wins the match", m.Seats[winner].Name))
	m.persistResult(ctx, false)
}

// checkSeatLiveness hands timed-out non-host human seats to AI control.
// Advisory housekeeping: replacing an already-AI seat is a no-op, so
// duplicate replacement attempts are harmless. Assumes lock is held.
func (m *Match) checkSeatLiveness() {
	if m.SeatTimeout <= 0 {
		return
	}
	cutoff := m.now().Add(-m.SeatTimeout)
	for _, s := range m.Seats {
		if s.IsAI() || s.Host || !s.LastPoll.Before(cutoff) {
			continue
		}
		m.convertSeatToAI(s)
	}
}

func (m *Match) convertSeatToAI(s *models.Seat) {
	if s.IsAI() {
		return
	}
	s.Controller = models.ControllerAI
	s.Strategy = DefaultStrategy
	log.WithFields(log.Fields{"match": m.ID, "seat": s.Position}).Warn("seat timed out, handing to AI")
	m.postNotice(fmt.Sprintf("%s went quiet and was replaced by the computer", s.Name))
}

// checkHostLiveness lets a live non-host human take over hostship when the
// host has exceeded the inactivity threshold. If no live human remains to
// hold hostship the match is aborted. Assumes lock is held.
func (m *Match) checkHostLiveness(pollingSeat int) {
	if m.SeatTimeout <= 0 {
		return
	}
	host := m.hostSeat()
	if host == nil {
		m.abort()
		return
	}
	cutoff := m.now().Add(-m.SeatTimeout)
	if !host.LastPoll.Before(cutoff) {
		return
	}

	// The silent host plays on as an AI; the poller inherits hostship.
	host.Host = false
	m.convertSeatToAI(host)

	next := m.nextLiveHuman(pollingSeat, cutoff)
	if next == nil {
		m.abort()
		return
	}
	next.Host = true
	log.WithFields(log.Fields{"match": m.ID, "from": host.Position, "to": next.Position}).Warn("host transferred")
	m.postNotice(fmt.Sprintf("%s is now hosting the match", next.Name))
}

// nextLiveHuman prefers the polling seat, then any human polled within the
// threshold, scanning in seat order.
func (m *Match) nextLiveHuman(pollingSeat int, cutoff time.Time) *models.Seat {
	if s := m.Seats[pollingSeat]; !s.IsAI() {
		return s
	}
	for _, s := range m.Seats {
		if !s.IsAI() && !s.LastPoll.Before(cutoff) {
			return s
		}
	}
	return nil
}

// PlayCard validates and applies a human card play.
func (m *Match) PlayCard(ctx context.Context, seat int, card models.Card) error {
	m.Mu.Lock()
	defer m.Mu.Unlock()
	if m.Phase != MatchInProgress || m.Round == nil {
		return ruleErr("match_not_active", "the match is not in an active round")
	}
	if err := m.Round.PlayCard(seat, card); err != nil {
		if _, isRule := AsRuleError(err); !isRule {
			log.WithError(err).Errorf("match %s: aborting round after invariant violation", m.ID)
			m.abortRound()
		}
		return err
	}
	m.Seats[seat].LastPoll = m.now()
	if m.Round.TrickPhase == TrickJustCompleted {
		m.persistSnapshot(ctx)
	}
	return nil
}

// SubmitPass validates and records a human pass submission.
func (m *Match) SubmitPass(ctx context.Context, seat int, cards []models.Card) error {
	m.Mu.Lock()
	defer m.Mu.Unlock()
	if m.Phase != MatchInProgress || m.Round == nil {
		return ruleErr("match_not_active", "the match is not in an active round")
	}
	if err := m.Round.SubmitPass(seat, cards); err != nil {
		if _, isRule := AsRuleError(err); !isRule {
			log.WithError(err).Errorf("match %s: aborting round after invariant violation", m.ID)
			m.abortRound()
		}
		return err
	}
	m.Seats[seat].LastPoll = m.now()
	if m.Round.Phase == PhaseFirstTrick {
		m.persistSnapshot(ctx)
	}
	return nil
}

// abortRound aborts the active round and the match with it; a corrupted
// round cannot be resumed or replaced mid-match.
func (m *Match) abortRound() {
	if m.Round != nil {
		m.Round.Abort()
	}
	m.abort()
}

func (m *Match) abort() {
	if m.Phase.Terminal() {
		return
	}
	if m.Round != nil && !m.Round.Phase.Terminal() {
		m.Round.Abort()
	}
	m.Phase = MatchAborted
	m.logEvent(-1, "match_aborted", nil)
	m.persistResult(context.Background(), true)
}

// Abort terminates the match from outside the poll path (admin, shutdown).
func (m *Match) Abort() {
	m.Mu.Lock()
	defer m.Mu.Unlock()
	m.abort()
}

// persistSnapshot writes the current round state through the Recorder.
// Best-effort: persistence failure is logged and never corrupts in-memory
// state. Assumes lock is held.
func (m *Match) persistSnapshot(ctx context.Context) {
	if m.Recorder == nil || m.Round == nil {
		return
	}
	snap := RoundSnapshot{
		MatchID:      m.ID,
		RoundNumber:  m.Round.Number,
		GamePhase:    m.Round.Phase,
		TrickPhase:   m.Round.TrickPhase,
		PlayCount:    m.Round.PlayCount,
		TrickCount:   m.Round.TrickCount,
		HeartsBroken: m.Round.HeartsBroken,
		CurrentSeat:  m.Round.CurrentSeat,
		Leader:       m.Round.Leader,
		Previous:     m.Round.Previous,
	}
	for i, s := range m.Seats {
		for _, c := range s.Hand {
			snap.Hands[i] = append(snap.Hands[i], c.Code())
		}
		snap.RoundScores[i] = s.RoundScore
		snap.MatchScores[i] = s.MatchScore
	}
	if err := m.Recorder.SaveRoundSnapshot(ctx, snap); err != nil {
		log.WithError(err).Errorf("match %s: persisting round snapshot", m.ID)
	}
}

func (m *Match) persistResult(ctx context.Context, aborted bool) {
	if m.Recorder == nil {
		return
	}
	result := MatchResult{
		MatchID: m.ID,
		Winner:  m.Winner,
		Rounds:  m.RoundNumber,
		Aborted: aborted,
	}
	for i, s := range m.Seats {
		result.FinalScores[i] = s.MatchScore
	}
	if err := m.Recorder.SaveMatchResult(ctx, result); err != nil {
		log.WithError(err).Errorf("match %s: persisting match result", m.ID)
	}
}

// postNotice publishes a player-facing notice through the messaging queue.
// Assumes lock is held.
func (m *Match) postNotice(text string) {
	m.logEvent(-1, "notice", map[string]interface{}{"text": text})
}

// logEvent pushes a MatchEventRecord onto the Redis queue asynchronously.
// Assumes lock is held for the eventIndex increment; the publish itself
// happens off the lock.
func (m *Match) logEvent(actorSeat int, eventType string, payload map[string]interface{}) {
	m.eventIndex++
	if payload == nil {
		payload = make(map[string]interface{})
	}
	record := cache.MatchEventRecord{
		MatchID:    m.ID,
		EventIndex: m.eventIndex,
		ActorSeat:  actorSeat,
		EventType:  eventType,
		Payload:    payload,
		Timestamp:  m.now().UnixMilli(),
	}
	go func(rec cache.MatchEventRecord) {
		if cache.Rdb == nil {
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := cache.PublishMatchEvent(ctx, rec); err != nil {
			log.WithError(err).Warnf("match %s: publishing event %d", rec.MatchID, rec.EventIndex)
		}
	}(record)
}
