// internal/hearts/rules.go
package hearts

import "github.com/jason-s-yu/hearts/internal/models"

// LegalCards computes the set of cards the seat may play right now.
//
// Leading: the very first trick must open with the two of clubs; otherwise any
// suit may be led except hearts while hearts are unbroken (unless the hand is
// hearts-only). Following: the lead suit must be followed if held; a void hand
// may discard anything, except that on the first trick no heart and no queen
// of spades may be thrown unless the hand holds nothing but penalty cards.
func LegalCards(r *Round, seat int) ([]models.Card, error) {
	s := r.seats[seat]
	if len(s.Hand) == 0 {
		return nil, nil
	}

	if len(r.Current.Plays) == 0 {
		return legalLeads(r, s)
	}

	lead, _ := r.Current.LeadSuit()
	if s.HasSuit(lead) {
		var legal []models.Card
		for _, c := range s.Hand {
			if c.Suit == lead {
				legal = append(legal, c)
			}
		}
		return legal, nil
	}

	// Void in the lead suit: anything goes, minus the first-trick penalty ban.
	if r.Phase == PhaseFirstTrick && !s.OnlyPenaltyCards() {
		var legal []models.Card
		for _, c := range s.Hand {
			if !c.IsPenalty() {
				legal = append(legal, c)
			}
		}
		return legal, nil
	}
	return append([]models.Card(nil), s.Hand...), nil
}

func legalLeads(r *Round, s *models.Seat) ([]models.Card, error) {
	if r.Phase == PhaseFirstTrick && r.PlayCount == 0 {
		if !s.HasCard(models.TwoOfClubs) {
			return nil, invariantErr("seat %d leads the first trick without the two of clubs", s.Position)
		}
		return []models.Card{models.TwoOfClubs}, nil
	}

	if !r.HeartsBroken && !s.OnlyHearts() {
		var legal []models.Card
		for _, c := range s.Hand {
			if c.Suit != models.Hearts {
				legal = append(legal, c)
			}
		}
		return legal, nil
	}
	return append([]models.Card(nil), s.Hand...), nil
}

// isLegal reports whether card is a member of LegalCards for the seat, along
// with a rule error describing the narrowest violated rule when it is not.
func isLegal(r *Round, seat int, card models.Card) error {
	s := r.seats[seat]
	if !s.HasCard(card) {
		return ruleErr("card_not_held", "you do not hold %s", card)
	}

	legal, err := LegalCards(r, seat)
	if err != nil {
		return err
	}
	for _, c := range legal {
		if c == card {
			return nil
		}
	}

	// Work out which rule was broken for the error message.
	if lead, ok := r.Current.LeadSuit(); ok && card.Suit != lead && s.HasSuit(lead) {
		return ruleErr("follow_suit", "must follow suit (%s led)", lead)
	}
	if r.Phase == PhaseFirstTrick {
		if r.PlayCount == 0 && card != models.TwoOfClubs {
			return ruleErr("open_two_of_clubs", "the first trick must open with the two of clubs")
		}
		if card.IsPenalty() {
			return ruleErr("no_penalty_first_trick", "no hearts or queen of spades on the first trick")
		}
	}
	if len(r.Current.Plays) == 0 && card.Suit == models.Hearts && !r.HeartsBroken {
		return ruleErr("hearts_not_broken", "hearts have not been broken yet")
	}
	return ruleErr("illegal_card", "%s is not a legal play", card)
}
