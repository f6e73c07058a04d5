// internal/models/card.go
package models

import (
	"fmt"
	"sort"
	"strings"
)

// Suit is one of the four suit letters "C", "D", "H", "S".
type Suit string

const (
	Clubs    Suit = "C"
	Diamonds Suit = "D"
	Hearts   Suit = "H"
	Spades   Suit = "S"
)

// Suits lists the four suits in the fixed order used for hand sorting.
var Suits = []Suit{Clubs, Diamonds, Hearts, Spades}

// Ranks lists the thirteen ranks low to high. "0" denotes ten, per the wire format.
var Ranks = []string{"2", "3", "4", "5", "6", "7", "8", "9", "0", "J", "Q", "K", "A"}

var rankValues = map[string]int{
	"2": 2, "3": 3, "4": 4, "5": 5, "6": 6, "7": 7, "8": 8, "9": 9,
	"0": 10, "J": 11, "Q": 12, "K": 13, "A": 14,
}

var suitOrder = map[Suit]int{Clubs: 0, Diamonds: 1, Hearts: 2, Spades: 3}

// Card is an immutable rank/suit pair. The zero value is not a valid card;
// construct via ParseCard or NewCard.
type Card struct {
	Rank string `json:"rank"`
	Suit Suit   `json:"suit"`
}

// NewCard builds a card without validation. Use ParseCard for untrusted input.
func NewCard(rank string, suit Suit) Card {
	return Card{Rank: rank, Suit: suit}
}

// ParseCard parses a 2-character code like "QS" or "0H" into a Card.
func ParseCard(code string) (Card, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if len(code) != 2 {
		return Card{}, fmt.Errorf("invalid card code %q: must be 2 characters", code)
	}
	rank := code[:1]
	suit := Suit(code[1:])
	if _, ok := rankValues[rank]; !ok {
		return Card{}, fmt.Errorf("invalid card code %q: unknown rank %q", code, rank)
	}
	if _, ok := suitOrder[suit]; !ok {
		return Card{}, fmt.Errorf("invalid card code %q: unknown suit %q", code, suit)
	}
	return Card{Rank: rank, Suit: suit}, nil
}

// MustParseCard is ParseCard for literals in tests and deterministic decks.
func MustParseCard(code string) Card {
	c, err := ParseCard(code)
	if err != nil {
		panic(err)
	}
	return c
}

// Code returns the 2-character wire form of the card.
func (c Card) Code() string {
	return c.Rank + string(c.Suit)
}

func (c Card) String() string {
	return c.Code()
}

// Value returns the trick-comparison value of the card's rank, 2 low through 14 (ace).
func (c Card) Value() int {
	return rankValues[c.Rank]
}

// OrderIndex returns the card's position in the fixed total order
// (clubs 2..A, then diamonds, hearts, spades). Used for hand sorting and
// deterministic tie-breaks in test decks, never for trick resolution.
func (c Card) OrderIndex() int {
	return suitOrder[c.Suit]*13 + (rankValues[c.Rank] - 2)
}

// PointValue returns the penalty points the card carries: 1 for any heart,
// 13 for the queen of spades, 0 otherwise.
func (c Card) PointValue() int {
	if c.Suit == Hearts {
		return 1
	}
	if c.Suit == Spades && c.Rank == "Q" {
		return 13
	}
	return 0
}

// IsPenalty reports whether the card carries penalty points.
func (c Card) IsPenalty() bool {
	return c.PointValue() > 0
}

// TwoOfClubs is the fixed opening card of every round.
var TwoOfClubs = Card{Rank: "2", Suit: Clubs}

// QueenOfSpades carries 13 penalty points.
var QueenOfSpades = Card{Rank: "Q", Suit: Spades}

// CompareCards orders two cards by the fixed total order. Returns a negative
// number if a sorts before b, positive if after, zero only when equal.
func CompareCards(a, b Card) int {
	return a.OrderIndex() - b.OrderIndex()
}

// SortCards sorts a hand in place by the fixed total order.
func SortCards(cards []Card) {
	sort.Slice(cards, func(i, j int) bool {
		return cards[i].OrderIndex() < cards[j].OrderIndex()
	})
}

// FullDeck returns all 52 distinct cards in total order.
func FullDeck() []Card {
	deck := make([]Card, 0, 52)
	for _, s := range Suits {
		for _, r := range Ranks {
			deck = append(deck, Card{Rank: r, Suit: s})
		}
	}
	return deck
}

// ParseCards parses a list of card codes, failing on the first invalid code.
func ParseCards(codes []string) ([]Card, error) {
	cards := make([]Card, 0, len(codes))
	for _, code := range codes {
		c, err := ParseCard(code)
		if err != nil {
			return nil, err
		}
		cards = append(cards, c)
	}
	return cards, nil
}
