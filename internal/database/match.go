// internal/database/match.go
package database

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jason-s-yu/hearts/internal/hearts"
)

// MatchRecorder implements hearts.Recorder on the shared pgx pool. Each call
// is one transaction, so trick completions, pass collections, and final
// results land atomically.
type MatchRecorder struct{}

// SaveRoundSnapshot upserts the latest snapshot of a round. The snapshot is
// stored as JSONB keyed by (match_id, round_number); replaying the snapshots
// for a match reconstructs its history trick by trick.
func (MatchRecorder) SaveRoundSnapshot(ctx context.Context, snap hearts.RoundSnapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal round snapshot: %w", err)
	}
	return pgx.BeginTxFunc(ctx, DB, pgx.TxOptions{}, func(tx pgx.Tx) error {
		upsertMatch := `
			INSERT INTO matches (id, status)
			VALUES ($1, 'in_progress')
			ON CONFLICT (id) DO NOTHING
		`
		if _, e := tx.Exec(ctx, upsertMatch, snap.MatchID); e != nil {
			return e
		}
		q := `
			INSERT INTO round_snapshots (match_id, round_number, game_phase, snapshot, updated_at)
			VALUES ($1, $2, $3, $4, NOW())
			ON CONFLICT (match_id, round_number)
			DO UPDATE SET game_phase=$3, snapshot=$4, updated_at=NOW()
		`
		_, e := tx.Exec(ctx, q, snap.MatchID, snap.RoundNumber, string(snap.GamePhase), data)
		return e
	})
}

// SaveMatchResult records the final outcome of a match: the match row is
// marked completed (or aborted) and one result row per seat is written, all
// in a single transaction.
func (MatchRecorder) SaveMatchResult(ctx context.Context, result hearts.MatchResult) error {
	status := "completed"
	if result.Aborted {
		status = "aborted"
	}
	err := pgx.BeginTxFunc(ctx, DB, pgx.TxOptions{}, func(tx pgx.Tx) error {
		upsertMatch := `
			INSERT INTO matches (id, status, rounds_played, end_time)
			VALUES ($1, $2, $3, NOW())
			ON CONFLICT (id) DO UPDATE SET status=$2, rounds_played=$3, end_time=NOW()
		`
		if _, e := tx.Exec(ctx, upsertMatch, result.MatchID, status, result.Rounds); e != nil {
			return e
		}
		for seat, score := range result.FinalScores {
			q := `
				INSERT INTO match_results (match_id, seat, score, did_win)
				VALUES ($1, $2, $3, $4)
				ON CONFLICT (match_id, seat)
				DO UPDATE SET score=$3, did_win=$4
			`
			if _, e := tx.Exec(ctx, q, result.MatchID, seat, score, seat == result.Winner); e != nil {
				return e
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("tx upsert match result: %w", err)
	}
	return nil
}
