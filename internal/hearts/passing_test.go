// internal/hearts/passing_test.go
package hearts

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jason-s-yu/hearts/internal/models"
)

func TestPassDirectionCycle(t *testing.T) {
	for _, tc := range []struct {
		round  int
		offset int
	}{
		{1, 1}, // left
		{2, 3}, // right
		{3, 2}, // across
		{5, 1}, // cycle restarts at left
		{6, 3},
		{7, 2},
	} {
		dir := PassDirection(tc.round)
		require.NotNil(t, dir, "round %d", tc.round)
		for seat := 0; seat < 4; seat++ {
			assert.Equal(t, (seat+tc.offset)%4, dir[seat], "round %d seat %d", tc.round, seat)
		}
	}
	assert.Nil(t, PassDirection(4))
	assert.Nil(t, PassDirection(8))
}

func TestSubmitPassValidation(t *testing.T) {
	r := dealtRound(t, 1, 42)
	hand := r.seats[0].Hand

	err := r.SubmitPass(0, hand[:2])
	requireRule(t, err, "pass_three_cards")

	err = r.SubmitPass(0, []models.Card{hand[0], hand[0], hand[1]})
	requireRule(t, err, "pass_distinct_cards")

	notMine := r.seats[1].Hand[0]
	err = r.SubmitPass(0, []models.Card{hand[0], hand[1], notMine})
	requireRule(t, err, "pass_owned_cards")

	require.NoError(t, r.SubmitPass(0, hand[:3]))
	assert.True(t, r.HasSubmittedPass(0))

	err = r.SubmitPass(0, hand[3:6])
	requireRule(t, err, "pass_already_submitted")

	// Submitted cards stay in hand until all four passes collect.
	assert.Len(t, r.seats[0].Hand, 13)
}

func TestSubmitPassOutsidePassingPhase(t *testing.T) {
	r := dealtRound(t, 4, 42) // no-pass round
	err := r.SubmitPass(0, r.seats[0].Hand[:3])
	requireRule(t, err, "not_passing")
}

func TestPassCollectionRedistributes(t *testing.T) {
	r := dealtRound(t, 1, 42) // round 1 passes left

	picked := make(map[int][]models.Card, 4)
	for seat := 0; seat < 4; seat++ {
		picked[seat] = append([]models.Card(nil), r.seats[seat].Hand[:3]...)
	}

	for seat := 0; seat < 3; seat++ {
		require.NoError(t, r.SubmitPass(seat, picked[seat]))
		assert.Equal(t, PhasePassing, r.Phase)
	}
	// The fourth submission triggers collection in the same call.
	require.NoError(t, r.SubmitPass(3, picked[3]))
	assert.Equal(t, PhaseFirstTrick, r.Phase)

	for seat := 0; seat < 4; seat++ {
		s := r.seats[seat]
		require.Len(t, s.Hand, 13)
		for _, c := range picked[seat] {
			assert.False(t, s.HasCard(c), "seat %d still holds passed %s", seat, c)
		}
		for _, c := range picked[(seat+3)%4] {
			assert.True(t, s.HasCard(c), "seat %d missing received %s", seat, c)
		}
		assert.False(t, r.HasSubmittedPass(seat))
	}

	// The opener follows the two of clubs wherever it landed.
	assert.True(t, r.seats[r.Leader].HasCard(models.TwoOfClubs))
	assert.Equal(t, r.Leader, r.CurrentSeat)
	assert.Empty(t, r.Current.Plays)
}

func TestPassCollectionMovesTwoOfClubs(t *testing.T) {
	r := dealtRound(t, 1, 42)
	holder := r.Leader

	// The two of clubs is passed left; the opener must move with it.
	pass := []models.Card{models.TwoOfClubs}
	for _, c := range r.seats[holder].Hand {
		if c != models.TwoOfClubs && len(pass) < 3 {
			pass = append(pass, c)
		}
	}
	for seat := 0; seat < 4; seat++ {
		cards := r.seats[seat].Hand[:3]
		if seat == holder {
			cards = pass
		}
		require.NoError(t, r.SubmitPass(seat, cards))
	}

	assert.Equal(t, (holder+1)%4, r.Leader)
	assert.True(t, r.seats[r.Leader].HasCard(models.TwoOfClubs))
}
