// internal/hearts/deck.go
package hearts

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"net/http"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/jason-s-yu/hearts/internal/models"
)

// DeckSource produces the 52-card shuffled deck that opens every round.
type DeckSource interface {
	DrawShuffledDeck(ctx context.Context) ([]models.Card, error)
}

// SeededDeckSource shuffles deterministically from a fixed seed. Used by
// tests and as the local fallback when the external deck API is unreachable.
type SeededDeckSource struct {
	Seed int64
}

func (s SeededDeckSource) DrawShuffledDeck(_ context.Context) ([]models.Card, error) {
	deck := models.FullDeck()
	r := rand.New(rand.NewSource(s.Seed))
	r.Shuffle(len(deck), func(i, j int) {
		deck[i], deck[j] = deck[j], deck[i]
	})
	return deck, nil
}

// RandomDeckSource shuffles from a time-based seed.
type RandomDeckSource struct{}

func (RandomDeckSource) DrawShuffledDeck(_ context.Context) ([]models.Card, error) {
	return SeededDeckSource{Seed: time.Now().UnixNano()}.DrawShuffledDeck(nil)
}

// APIDeckSource draws from the external deck service. The wire format is the
// same 2-character codes used everywhere else ("0" for ten). Any failure is
// recovered locally by shuffling a deck ourselves; players never observe the
// outage.
type APIDeckSource struct {
	BaseURL string
	Client  *http.Client
}

type apiDeckResponse struct {
	Success bool `json:"success"`
	Cards   []struct {
		Code string `json:"code"`
	} `json:"cards"`
}

func (a *APIDeckSource) DrawShuffledDeck(ctx context.Context) ([]models.Card, error) {
	deck, err := a.fetch(ctx)
	if err != nil {
		log.Warnf("deck API unavailable, falling back to local shuffle: %v", err)
		return RandomDeckSource{}.DrawShuffledDeck(ctx)
	}
	return deck, nil
}

func (a *APIDeckSource) fetch(ctx context.Context) ([]models.Card, error) {
	client := a.Client
	if client == nil {
		client = &http.Client{Timeout: 5 * time.Second}
	}
	url := a.BaseURL + "/api/deck/new/draw/?count=52"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("deck API status %d", resp.StatusCode)
	}

	var body apiDeckResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode deck API response: %w", err)
	}
	if !body.Success || len(body.Cards) != 52 {
		return nil, fmt.Errorf("deck API returned %d cards", len(body.Cards))
	}
	deck := make([]models.Card, 0, 52)
	for _, c := range body.Cards {
		card, err := models.ParseCard(c.Code)
		if err != nil {
			return nil, fmt.Errorf("deck API card: %w", err)
		}
		deck = append(deck, card)
	}
	if err := validateDeck(deck); err != nil {
		return nil, err
	}
	return deck, nil
}
