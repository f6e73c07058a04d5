// internal/hearts/round.go
package hearts

import (
	"fmt"

	"github.com/jason-s-yu/hearts/internal/models"
)

// Round is one full deal and play-out of 52 cards. All mutating methods
// assume the owning match's lock is held; the round itself carries no lock.
type Round struct {
	Number int // 1-based round number within the match

	Phase      GamePhase
	TrickPhase TrickPhase

	HeartsBroken bool
	TrickCount   int // 1..13, the trick currently on the table
	PlayCount    int // 0..52, total cards played this round

	CurrentSeat int // seat to act
	Leader      int // seat leading the current trick

	Current  *Trick
	Previous *Trick

	seats [4]*models.Seat

	pendingPasses map[int][]models.Card

	// onEvent and notice are wired by the owning match; either may be nil.
	onEvent func(seat int, eventType string, payload map[string]interface{})
	notice  func(text string)
}

// NewRound builds a round in PRESTART over the match's four seats.
func NewRound(number int, seats [4]*models.Seat) *Round {
	return &Round{
		Number:        number,
		Phase:         PhasePrestart,
		TrickPhase:    TrickReadyForFirstCard,
		TrickCount:    1,
		seats:         seats,
		pendingPasses: make(map[int][]models.Card),
	}
}

func (r *Round) fireEvent(seat int, eventType string, payload map[string]interface{}) {
	if r.onEvent != nil {
		r.onEvent(seat, eventType, payload)
	}
}

func (r *Round) fireNotice(text string) {
	if r.notice != nil {
		r.notice(text)
	}
}

func (r *Round) transition(to GamePhase) error {
	if !r.Phase.CanTransition(to) {
		return invariantErr("illegal game phase transition %s -> %s", r.Phase, to)
	}
	r.Phase = to
	return nil
}

// Begin moves the round to WAITING_FOR_EXTERNAL_DEAL; the caller is expected
// to fetch a deck and call Deal next.
func (r *Round) Begin() error {
	return r.transition(PhaseWaitingDeal)
}

// Deal distributes a 52-card deck across the four seats, 13 cards each in
// deal order, sorts every hand, seats the leader at the two of clubs, and
// enters the passing phase (or skips it on every fourth round).
func (r *Round) Deal(deck []models.Card) error {
	if err := validateDeck(deck); err != nil {
		return err
	}
	for i, s := range r.seats {
		s.Hand = append([]models.Card(nil), deck[i*13:(i+1)*13]...)
		models.SortCards(s.Hand)
		s.RoundScore = 0
	}

	opener, err := r.seatHolding(models.TwoOfClubs)
	if err != nil {
		return err
	}
	r.Leader = opener
	r.CurrentSeat = opener
	r.TrickCount = 1
	r.PlayCount = 0
	r.HeartsBroken = false
	r.Previous = nil
	r.Current = NewTrick(1, opener)
	r.TrickPhase = TrickReadyForFirstCard

	next := PhasePassing
	if r.Number%4 == 0 {
		next = PhaseSkipPassing
	}
	if err := r.transition(next); err != nil {
		return err
	}
	if next == PhaseSkipPassing {
		// No exchange this round; straight into trick play.
		if err := r.transition(PhaseFirstTrick); err != nil {
			return err
		}
	}
	r.fireEvent(-1, "round_dealt", map[string]interface{}{"round": r.Number, "opener": opener})
	return nil
}

func validateDeck(deck []models.Card) error {
	if len(deck) != 52 {
		return invariantErr("deal of %d cards, want 52", len(deck))
	}
	seen := make(map[models.Card]bool, 52)
	for _, c := range deck {
		if seen[c] {
			return invariantErr("duplicate card %s in deal", c)
		}
		seen[c] = true
	}
	return nil
}

func (r *Round) seatHolding(card models.Card) (int, error) {
	for i, s := range r.seats {
		if s.HasCard(card) {
			return i, nil
		}
	}
	return 0, invariantErr("no seat holds %s", card)
}

// PlayCard validates and applies one card play by the seat, advancing turn
// order and resolving the trick when the fourth card lands.
func (r *Round) PlayCard(seat int, card models.Card) error {
	if !r.Phase.InTrickPlay() {
		return ruleErr("not_in_play", "cards cannot be played during %s", r.Phase)
	}
	if r.TrickPhase == TrickJustCompleted {
		return ruleErr("trick_not_cleared", "waiting for the completed trick to clear")
	}
	if seat != r.CurrentSeat {
		return ruleErr("not_your_turn", "it is not your turn")
	}
	if err := isLegal(r, seat, card); err != nil {
		return err
	}

	s := r.seats[seat]
	if !s.RemoveCard(card) {
		return invariantErr("card %s vanished from seat %d between validation and play", card, seat)
	}
	r.Current.Plays = append(r.Current.Plays, TrickPlay{Seat: seat, Card: card})
	r.PlayCount++
	if r.TrickPhase == TrickReadyForFirstCard {
		r.TrickPhase = TrickRunning
	}

	if card.Suit == models.Hearts && !r.HeartsBroken {
		r.HeartsBroken = true
		r.fireEvent(seat, "hearts_broken", nil)
	}
	if card == models.QueenOfSpades {
		r.fireNotice(fmt.Sprintf("%s played the queen of spades", r.seats[seat].Name))
	}
	r.fireEvent(seat, "card_played", map[string]interface{}{
		"card": card.Code(), "trick": r.TrickCount, "play": r.PlayCount,
	})

	if r.Current.Complete() {
		if err := r.resolveTrick(); err != nil {
			return err
		}
	} else {
		r.CurrentSeat = (seat + 1) % 4
	}
	return r.advancePhaseForPlayCount()
}

// resolveTrick computes winner and points, archives the trick, and parks the
// round in TrickJustCompleted until the host poll acknowledges it.
func (r *Round) resolveTrick() error {
	winner, err := r.Current.Winner()
	if err != nil {
		return err
	}
	points := r.Current.Points()
	r.seats[winner].RoundScore += points

	r.Previous = r.Current
	r.TrickPhase = TrickJustCompleted
	r.Leader = winner
	r.CurrentSeat = winner
	if r.TrickCount < 13 {
		r.TrickCount++
	}

	r.fireEvent(winner, "trick_completed", map[string]interface{}{
		"trick": r.Previous.Number, "points": points,
	})
	return nil
}

// advancePhaseForPlayCount applies the play-counter phase thresholds: the
// first trick ends at 4 plays, the final trick begins at play 49, and the
// round's result is reached at 52.
func (r *Round) advancePhaseForPlayCount() error {
	switch {
	case r.PlayCount == 4 && r.Phase == PhaseFirstTrick:
		return r.transition(PhaseNormalTrick)
	case r.PlayCount == 49 && r.Phase == PhaseNormalTrick:
		return r.transition(PhaseFinalTrick)
	case r.PlayCount == 52 && r.Phase == PhaseFinalTrick:
		r.applyMoonRescore()
		return r.transition(PhaseResult)
	}
	return nil
}

// applyMoonRescore rewrites round scores when one seat took all 26 penalty
// points: the shooter drops to 0 and every opponent takes 26. Runs exactly
// once, immediately after the 13th trick resolves and before RESULT.
func (r *Round) applyMoonRescore() {
	shooter := -1
	for i, s := range r.seats {
		if s.RoundScore == 26 {
			shooter = i
			break
		}
	}
	if shooter < 0 {
		return
	}
	for i, s := range r.seats {
		if i == shooter {
			s.RoundScore = 0
		} else {
			s.RoundScore = 26
		}
	}
	r.fireEvent(shooter, "moon_shot", nil)
	r.fireNotice(fmt.Sprintf("%s shot the moon", r.seats[shooter].Name))
}

// AcknowledgeTrick clears a completed trick from the table and readies the
// next one. Only the host poll drives this. Returns false when there was
// nothing to acknowledge.
func (r *Round) AcknowledgeTrick() bool {
	if r.TrickPhase != TrickJustCompleted {
		return false
	}
	if !r.Phase.InTrickPlay() {
		// Final trick of the round: leave it visible as the previous trick.
		r.TrickPhase = TrickReadyForFirstCard
		return true
	}
	r.Current = NewTrick(r.TrickCount, r.Leader)
	r.TrickPhase = TrickReadyForFirstCard
	return true
}

// Finish folds round scores into match scores and terminates the round.
func (r *Round) Finish() error {
	if err := r.transition(PhaseFinished); err != nil {
		return err
	}
	for _, s := range r.seats {
		s.MatchScore += s.RoundScore
	}
	r.fireEvent(-1, "round_finished", map[string]interface{}{"round": r.Number})
	return nil
}

// Abort terminates the round from any non-terminal phase.
func (r *Round) Abort() {
	if !r.Phase.Terminal() {
		r.Phase = PhaseGameAborted
		r.fireEvent(-1, "round_aborted", map[string]interface{}{"round": r.Number})
	}
}
