// internal/hearts/passing.go
package hearts

import "github.com/jason-s-yu/hearts/internal/models"

// PassDirection maps each seat to the seat it passes to for a given round
// number: 1 left, 2 right, 3 across, 0 (multiple of 4) no passing.
func PassDirection(roundNumber int) map[int]int {
	offset := 0
	switch roundNumber % 4 {
	case 1:
		offset = 1 // left
	case 2:
		offset = 3 // right
	case 3:
		offset = 2 // across
	default:
		return nil
	}
	dir := make(map[int]int, 4)
	for seat := 0; seat < 4; seat++ {
		dir[seat] = (seat + offset) % 4
	}
	return dir
}

// SubmitPass records a seat's three chosen cards for this round's exchange.
// The submission must be exactly three distinct cards the seat currently
// holds, and a seat may submit only once. Once all four seats have submitted,
// the passes are collected and redistributed in the same call.
//
// Partial state (fewer than four submissions) is valid and durable; there is
// nothing to roll back if a match stalls mid-pass.
func (r *Round) SubmitPass(seat int, cards []models.Card) error {
	if r.Phase != PhasePassing {
		return ruleErr("not_passing", "the round is not in its passing phase")
	}
	if len(cards) != 3 {
		return ruleErr("pass_three_cards", "you must pass exactly 3 cards")
	}
	if _, dup := r.pendingPasses[seat]; dup {
		return ruleErr("pass_already_submitted", "you have already submitted your pass")
	}
	seen := make(map[models.Card]bool, 3)
	for _, c := range cards {
		if seen[c] {
			return ruleErr("pass_distinct_cards", "cannot pass %s twice", c)
		}
		seen[c] = true
		if !r.seats[seat].HasCard(c) {
			return ruleErr("pass_owned_cards", "you do not hold %s", c)
		}
	}

	r.pendingPasses[seat] = append([]models.Card(nil), cards...)
	r.fireEvent(seat, "pass_submitted", map[string]interface{}{"submitted": len(r.pendingPasses)})

	if len(r.pendingPasses) == 4 {
		return r.collectAndRedistribute()
	}
	return nil
}

// HasSubmittedPass reports whether the seat's pass is already recorded.
func (r *Round) HasSubmittedPass(seat int) bool {
	_, ok := r.pendingPasses[seat]
	return ok
}

// collectAndRedistribute moves every submitted card from its sender to the
// direction-mapped receiver, clears all pending passes, relocates the trick
// leader to whichever seat now holds the two of clubs, and enters the first
// trick. The exchange is atomic under the match lock.
func (r *Round) collectAndRedistribute() error {
	dir := PassDirection(r.Number)
	if dir == nil {
		return invariantErr("pass collection on a no-pass round %d", r.Number)
	}

	for seat, cards := range r.pendingPasses {
		for _, c := range cards {
			if !r.seats[seat].RemoveCard(c) {
				return invariantErr("passed card %s missing from seat %d at collection", c, seat)
			}
		}
	}
	for seat, cards := range r.pendingPasses {
		r.seats[dir[seat]].AddCards(cards)
	}
	r.pendingPasses = make(map[int][]models.Card)

	opener, err := r.seatHolding(models.TwoOfClubs)
	if err != nil {
		return err
	}
	r.Leader = opener
	r.CurrentSeat = opener
	r.Current = NewTrick(1, opener)

	if err := r.transition(PhaseFirstTrick); err != nil {
		return err
	}
	r.fireEvent(-1, "passes_collected", map[string]interface{}{"round": r.Number, "opener": opener})
	return nil
}
