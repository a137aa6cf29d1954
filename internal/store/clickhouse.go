// Package store holds the thin collaborator layers: the ClickHouse table of
// raw weekly records, the Postgres players directory and bundle registry,
// and the Redis prediction cache.
package store

import (
	"context"
	"fmt"

	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"

	"github.com/ffpredict/predictor-api/internal/models"
)

const weeklyStatsTable = "ff_stats.weekly_stats"

// RecordStore reads and writes raw weekly records in ClickHouse. Results are
// always ordered by (season, week); the feature pipeline re-sorts anyway,
// but ordered reads make the logs and tools sane.
type RecordStore struct {
	ch driver.Conn
}

func NewRecordStore(ch driver.Conn) *RecordStore {
	return &RecordStore{ch: ch}
}

// PlayerSeason returns every record for one player in one season.
func (s *RecordStore) PlayerSeason(ctx context.Context, playerID int64, season int) ([]models.WeeklyRecord, error) {
	rows, err := s.ch.Query(ctx, `
		SELECT player_id, season, week, recent_team, opponent_team, carries, targets, fantasy_points
		FROM `+weeklyStatsTable+`
		WHERE player_id = ? AND season = ?
		ORDER BY season, week
	`, playerID, season)
	if err != nil {
		return nil, fmt.Errorf("querying player %d season %d: %w", playerID, season, err)
	}
	defer rows.Close()
	return scanRecords(rows)
}

// Seasons returns all records with from <= season <= to, across all players.
// Used by the trainer to pull the full history window.
func (s *RecordStore) Seasons(ctx context.Context, from, to int) ([]models.WeeklyRecord, error) {
	rows, err := s.ch.Query(ctx, `
		SELECT player_id, season, week, recent_team, opponent_team, carries, targets, fantasy_points
		FROM `+weeklyStatsTable+`
		WHERE season >= ? AND season <= ?
		ORDER BY player_id, season, week
	`, from, to)
	if err != nil {
		return nil, fmt.Errorf("querying seasons %d-%d: %w", from, to, err)
	}
	defer rows.Close()
	return scanRecords(rows)
}

func scanRecords(rows driver.Rows) ([]models.WeeklyRecord, error) {
	out := []models.WeeklyRecord{}
	for rows.Next() {
		var (
			rec          models.WeeklyRecord
			season, week int32
		)
		if err := rows.Scan(
			&rec.PlayerID, &season, &week,
			&rec.RecentTeam, &rec.OpponentTeam,
			&rec.Carries, &rec.Targets, &rec.FantasyPoints,
		); err != nil {
			return nil, fmt.Errorf("scanning weekly record: %w", err)
		}
		rec.Season = int(season)
		rec.Week = int(week)
		out = append(out, rec)
	}
	return out, rows.Err()
}

// InsertBatch writes a batch of records via the native batch interface.
func (s *RecordStore) InsertBatch(ctx context.Context, recs []models.WeeklyRecord) error {
	if len(recs) == 0 {
		return nil
	}

	batch, err := s.ch.PrepareBatch(ctx, `
		INSERT INTO `+weeklyStatsTable+` (
			player_id, season, week, recent_team, opponent_team,
			carries, targets, fantasy_points
		)
	`)
	if err != nil {
		return fmt.Errorf("preparing weekly stats batch: %w", err)
	}

	for _, rec := range recs {
		if err := batch.Append(
			rec.PlayerID,
			int32(rec.Season),
			int32(rec.Week),
			rec.RecentTeam,
			rec.OpponentTeam,
			rec.Carries,
			rec.Targets,
			rec.FantasyPoints,
		); err != nil {
			return fmt.Errorf("appending record for player %d: %w", rec.PlayerID, err)
		}
	}

	return batch.Send()
}
