// internal/models/seat.go
package models

import (
	"time"

	"github.com/google/uuid"
)

// Controller says who plays a seat: a connected human or an AI strategy.
type Controller string

const (
	ControllerHuman Controller = "human"
	ControllerAI    Controller = "ai"
)

// Seat is one of the four fixed positions at a match table. Positions are
// 0..3 clockwise; position n passes left to (n+1)%4.
type Seat struct {
	Position   int        `json:"position"`
	Name       string     `json:"name"`
	UserID     uuid.UUID  `json:"user_id,omitempty"`
	Controller Controller `json:"controller"`
	Strategy   string     `json:"strategy,omitempty"` // AI strategy tag, empty for humans

	Hand       []Card `json:"-"`
	RoundScore int    `json:"round_score"`
	MatchScore int    `json:"match_score"`

	Ready    bool      `json:"ready"`
	Host     bool      `json:"host"`
	LastPoll time.Time `json:"-"`
}

// IsAI reports whether the seat is under AI control.
func (s *Seat) IsAI() bool {
	return s.Controller == ControllerAI
}

// HasCard reports whether the seat's hand contains the card.
func (s *Seat) HasCard(c Card) bool {
	for _, h := range s.Hand {
		if h == c {
			return true
		}
	}
	return false
}

// HasSuit reports whether the seat's hand contains any card of the suit.
func (s *Seat) HasSuit(suit Suit) bool {
	for _, h := range s.Hand {
		if h.Suit == suit {
			return true
		}
	}
	return false
}

// RemoveCard removes one card from the hand, reporting whether it was present.
func (s *Seat) RemoveCard(c Card) bool {
	for i, h := range s.Hand {
		if h == c {
			s.Hand = append(s.Hand[:i], s.Hand[i+1:]...)
			return true
		}
	}
	return false
}

// AddCards appends cards to the hand and re-sorts it.
func (s *Seat) AddCards(cards []Card) {
	s.Hand = append(s.Hand, cards...)
	SortCards(s.Hand)
}

// OnlyPenaltyCards reports whether every card in hand is a heart or the
// queen of spades.
func (s *Seat) OnlyPenaltyCards() bool {
	for _, h := range s.Hand {
		if !h.IsPenalty() {
			return false
		}
	}
	return len(s.Hand) > 0
}

// OnlyHearts reports whether the hand is hearts-only.
func (s *Seat) OnlyHearts() bool {
	for _, h := range s.Hand {
		if h.Suit != Hearts {
			return false
		}
	}
	return len(s.Hand) > 0
}
