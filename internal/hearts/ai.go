// internal/hearts/ai.go
package hearts

import (
	"sort"

	"github.com/jason-s-yu/hearts/internal/models"
)

// Strategy picks one card from the legal set for an AI seat. Implementations
// are pure over the round state and must always return a member of legal.
type Strategy interface {
	Name() string
	Select(r *Round, seat int, legal []models.Card) models.Card
}

const (
	StrategySafestWin        = "safest-win"
	StrategyDumpPenalty      = "dump-highest-penalty"
	StrategyAvoidPenaltyLead = "avoid-leading-penalty-suit"
)

// DefaultStrategy is assigned to AI seats with no explicit tag, including
// seats converted to AI after a liveness timeout.
const DefaultStrategy = StrategySafestWin

var strategies = map[string]Strategy{
	StrategySafestWin:        safestWin{},
	StrategyDumpPenalty:      dumpHighestPenalty{},
	StrategyAvoidPenaltyLead: avoidPenaltyLead{},
}

// StrategyByName resolves a strategy tag, falling back to the default for
// unknown tags.
func StrategyByName(tag string) Strategy {
	if s, ok := strategies[tag]; ok {
		return s
	}
	return strategies[DefaultStrategy]
}

// SelectCard runs the seat's strategy over its legal cards. An empty legal
// set is a precondition violation elsewhere and is reported as such.
func SelectCard(r *Round, seat int, strategy Strategy) (models.Card, error) {
	legal, err := LegalCards(r, seat)
	if err != nil {
		return models.Card{}, err
	}
	if len(legal) == 0 {
		return models.Card{}, invariantErr("AI seat %d has no legal cards", seat)
	}
	return strategy.Select(r, seat, legal), nil
}

// PassPicks chooses the three cards an AI seat passes: the queen of spades
// and high spades first, then the highest remaining cards.
func PassPicks(hand []models.Card) []models.Card {
	ranked := append([]models.Card(nil), hand...)
	weight := func(c models.Card) int {
		w := c.Value()
		if c == models.QueenOfSpades {
			w += 100
		} else if c.Suit == models.Spades && c.Value() > models.QueenOfSpades.Value() {
			w += 50 // A♠/K♠ attract the queen
		} else if c.Suit == models.Hearts {
			w += 20
		}
		return w
	}
	sort.Slice(ranked, func(i, j int) bool { return weight(ranked[i]) > weight(ranked[j]) })
	return ranked[:3]
}

// winningValue returns the value currently winning the trick, or 0 when the
// seat would lead.
func winningValue(t *Trick) int {
	lead, ok := t.LeadSuit()
	if !ok {
		return 0
	}
	best := 0
	for _, p := range t.Plays {
		if p.Card.Suit == lead && p.Card.Value() > best {
			best = p.Card.Value()
		}
	}
	return best
}

func lowest(cards []models.Card) models.Card {
	pick := cards[0]
	for _, c := range cards[1:] {
		if c.Value() < pick.Value() {
			pick = c
		}
	}
	return pick
}

func highest(cards []models.Card) models.Card {
	pick := cards[0]
	for _, c := range cards[1:] {
		if c.Value() > pick.Value() {
			pick = c
		}
	}
	return pick
}

// safestWin plays the highest card that ducks under the current winner, so
// it sheds high cards without taking the trick. When every card would win,
// or when leading, it plays low.
type safestWin struct{}

func (safestWin) Name() string { return StrategySafestWin }

func (safestWin) Select(r *Round, seat int, legal []models.Card) models.Card {
	lead, leading := r.Current.LeadSuit()
	if !leading {
		return lowest(legal)
	}
	win := winningValue(r.Current)
	var ducks []models.Card
	for _, c := range legal {
		if c.Suit != lead || c.Value() < win {
			ducks = append(ducks, c)
		}
	}
	if len(ducks) > 0 {
		return highest(ducks)
	}
	// Forced to win: do it as cheaply as possible.
	return lowest(legal)
}

// dumpHighestPenalty sheds the queen of spades or the highest heart at the
// first opportunity, falling back to safest-win behavior when it holds no
// legal penalty card.
type dumpHighestPenalty struct{}

func (dumpHighestPenalty) Name() string { return StrategyDumpPenalty }

func (dumpHighestPenalty) Select(r *Round, seat int, legal []models.Card) models.Card {
	lead, following := r.Current.LeadSuit()
	// Only dump when the card cannot win the trick: off-suit, or trailing.
	var dumps []models.Card
	win := winningValue(r.Current)
	for _, c := range legal {
		if !c.IsPenalty() {
			continue
		}
		if !following || c.Suit != lead || c.Value() < win {
			dumps = append(dumps, c)
		}
	}
	if len(dumps) > 0 {
		pick := dumps[0]
		for _, c := range dumps[1:] {
			if c.PointValue() > pick.PointValue() ||
				(c.PointValue() == pick.PointValue() && c.Value() > pick.Value()) {
				pick = c
			}
		}
		return pick
	}
	return safestWin{}.Select(r, seat, legal)
}

// avoidPenaltyLead prefers leading low cards in suits that carry no penalty,
// keeping hearts and spades for later. Off-lead it plays like safest-win.
type avoidPenaltyLead struct{}

func (avoidPenaltyLead) Name() string { return StrategyAvoidPenaltyLead }

func (avoidPenaltyLead) Select(r *Round, seat int, legal []models.Card) models.Card {
	if _, leading := r.Current.LeadSuit(); leading {
		return safestWin{}.Select(r, seat, legal)
	}
	var safe []models.Card
	for _, c := range legal {
		if c.Suit == models.Clubs || c.Suit == models.Diamonds {
			safe = append(safe, c)
		}
	}
	if len(safe) > 0 {
		return lowest(safe)
	}
	// Spades next, avoiding the queen while anything else remains.
	var spades []models.Card
	for _, c := range legal {
		if c.Suit == models.Spades && c != models.QueenOfSpades {
			spades = append(spades, c)
		}
	}
	if len(spades) > 0 {
		return lowest(spades)
	}
	return lowest(legal)
}
