// internal/hearts/projection.go
package hearts

import "github.com/google/uuid"

// TrickPlayView is one play within a trick view. Seat is relative to the
// requesting player: 0 is the caller, 1 the seat to their left, and so on.
type TrickPlayView struct {
	Seat int    `json:"seat"`
	Card string `json:"card"`
}

// TrickView is a trick rotated to the requesting player's perspective.
type TrickView struct {
	Number int             `json:"number"`
	Leader int             `json:"leader"`
	Points int             `json:"points,omitempty"`
	Winner *int            `json:"winner,omitempty"`
	Plays  []TrickPlayView `json:"plays"`
}

// SeatView is the public state of one seat, positions relative to the caller.
type SeatView struct {
	Seat       int    `json:"seat"`
	Name       string `json:"name"`
	IsAI       bool   `json:"is_ai"`
	Host       bool   `json:"host"`
	HandSize   int    `json:"hand_size"`
	RoundScore int    `json:"round_score"`
	MatchScore int    `json:"match_score"`
}

// Projection is the player-specific state snapshot returned by every poll.
// Only the caller's own hand and legal cards are revealed.
type Projection struct {
	MatchID     uuid.UUID  `json:"match_id"`
	MatchPhase  MatchPhase `json:"match_phase"`
	GamePhase   GamePhase  `json:"game_phase,omitempty"`
	TrickPhase  TrickPhase `json:"trick_phase,omitempty"`
	RoundNumber int        `json:"round_number"`
	GoalScore   int        `json:"goal_score"`

	HeartsBroken bool `json:"hearts_broken"`
	TrickCount   int  `json:"trick_count"`
	PlayCount    int  `json:"play_count"`

	MyHand        []string `json:"my_hand"`
	LegalCards    []string `json:"legal_cards"`
	IsMyTurn      bool     `json:"is_my_turn"`
	PassDirection string   `json:"pass_direction,omitempty"` // left/right/across, empty on hold rounds
	PassSubmitted bool     `json:"pass_submitted"`

	CurrentTrick  *TrickView `json:"current_trick,omitempty"`
	PreviousTrick *TrickView `json:"previous_trick,omitempty"`

	Seats  []SeatView `json:"seats"`
	Winner *int       `json:"winner,omitempty"`
}

// buildProjection renders the match for one seat. Assumes lock is held.
func (m *Match) buildProjection(seat int) *Projection {
	p := &Projection{
		MatchID:     m.ID,
		MatchPhase:  m.Phase,
		RoundNumber: m.RoundNumber,
		GoalScore:   m.GoalScore,
		MyHand:      []string{},
		LegalCards:  []string{},
	}
	if m.Winner >= 0 {
		rel := relSeat(m.Winner, seat)
		p.Winner = &rel
	}
	for i := 0; i < 4; i++ {
		abs := (seat + i) % 4
		s := m.Seats[abs]
		p.Seats = append(p.Seats, SeatView{
			Seat:       i,
			Name:       s.Name,
			IsAI:       s.IsAI(),
			Host:       s.Host,
			HandSize:   len(s.Hand),
			RoundScore: s.RoundScore,
			MatchScore: s.MatchScore,
		})
	}

	r := m.Round
	if r == nil {
		return p
	}
	p.GamePhase = r.Phase
	p.TrickPhase = r.TrickPhase
	p.HeartsBroken = r.HeartsBroken
	p.TrickCount = r.TrickCount
	p.PlayCount = r.PlayCount

	for _, c := range m.Seats[seat].Hand {
		p.MyHand = append(p.MyHand, c.Code())
	}

	if r.Phase == PhasePassing {
		p.PassDirection = passDirectionName(r.Number)
		p.PassSubmitted = r.HasSubmittedPass(seat)
	}

	if r.Phase.InTrickPlay() && r.TrickPhase != TrickJustCompleted && r.CurrentSeat == seat {
		p.IsMyTurn = true
		if legal, err := LegalCards(r, seat); err == nil {
			for _, c := range legal {
				p.LegalCards = append(p.LegalCards, c.Code())
			}
		}
	}

	p.CurrentTrick = trickView(r.Current, seat, false)
	p.PreviousTrick = trickView(r.Previous, seat, true)
	return p
}

// trickView rotates a trick to the caller's perspective; resolved tricks
// carry their winner and points.
func trickView(t *Trick, seat int, resolved bool) *TrickView {
	if t == nil {
		return nil
	}
	tv := &TrickView{
		Number: t.Number,
		Leader: relSeat(t.Leader, seat),
		Plays:  []TrickPlayView{},
	}
	for _, play := range t.Plays {
		tv.Plays = append(tv.Plays, TrickPlayView{Seat: relSeat(play.Seat, seat), Card: play.Card.Code()})
	}
	if resolved && t.Complete() {
		if w, err := t.Winner(); err == nil {
			rel := relSeat(w, seat)
			tv.Winner = &rel
			tv.Points = t.Points()
		}
	}
	return tv
}

func relSeat(abs, viewer int) int {
	return (abs - viewer + 4) % 4
}

func passDirectionName(roundNumber int) string {
	switch roundNumber % 4 {
	case 1:
		return "left"
	case 2:
		return "right"
	case 3:
		return "across"
	}
	return ""
}
