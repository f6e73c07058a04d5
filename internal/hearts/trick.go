// internal/hearts/trick.go
package hearts

import "github.com/jason-s-yu/hearts/internal/models"

// TrickPlay is one card laid by one seat within a trick.
type TrickPlay struct {
	Seat int         `json:"seat"`
	Card models.Card `json:"card"`
}

// Trick is the ordered sequence of up to four plays for the trick in
// progress. Once four plays exist the trick is immutable: it is resolved and
// archived as the round's previous trick.
type Trick struct {
	Number int         `json:"number"` // 1..13
	Leader int         `json:"leader"`
	Plays  []TrickPlay `json:"plays"`
}

// NewTrick starts an empty trick led by the given seat.
func NewTrick(number, leader int) *Trick {
	return &Trick{Number: number, Leader: leader}
}

// LeadSuit returns the suit of the first card played, which every later play
// must follow if able. Second return is false while the trick is empty.
func (t *Trick) LeadSuit() (models.Suit, bool) {
	if len(t.Plays) == 0 {
		return "", false
	}
	return t.Plays[0].Card.Suit, true
}

// Complete reports whether all four seats have played.
func (t *Trick) Complete() bool {
	return len(t.Plays) == 4
}

// Winner returns the seat that played the highest card of the lead suit.
// Ranks are unique per suit, so ties cannot occur.
func (t *Trick) Winner() (int, error) {
	if !t.Complete() {
		return 0, invariantErr("trick %d resolved with %d plays", t.Number, len(t.Plays))
	}
	lead := t.Plays[0].Card.Suit
	best := t.Plays[0]
	for _, p := range t.Plays[1:] {
		if p.Card.Suit == lead && p.Card.Value() > best.Card.Value() {
			best = p
		}
	}
	return best.Seat, nil
}

// Points sums the penalty points of every card in the trick.
func (t *Trick) Points() int {
	total := 0
	for _, p := range t.Plays {
		total += p.Card.PointValue()
	}
	return total
}

// Cards returns the played cards in play order.
func (t *Trick) Cards() []models.Card {
	cards := make([]models.Card, 0, len(t.Plays))
	for _, p := range t.Plays {
		cards = append(cards, p.Card)
	}
	return cards
}
