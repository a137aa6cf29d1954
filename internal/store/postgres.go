package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/ffpredict/predictor-api/internal/bundle"
	"github.com/ffpredict/predictor-api/internal/models"
)

// PgPool defines the interface for the PostgreSQL connection pool
type PgPool interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Directory is the relational side: the players table used to enrich
// responses, and the registry of training runs.
type Directory struct {
	pg PgPool
}

func NewDirectory(pg PgPool) *Directory {
	return &Directory{pg: pg}
}

// Lookup returns directory info for a player, or nil when the player is not
// in the directory. An unknown player is not an error; predictions only need
// the historical records.
func (d *Directory) Lookup(ctx context.Context, playerID int64) (*models.PlayerInfo, error) {
	info := &models.PlayerInfo{PlayerID: playerID}
	err := d.pg.QueryRow(ctx, `
		SELECT name, COALESCE(position, ''), COALESCE(team, '')
		FROM players WHERE player_id = $1
	`, playerID).Scan(&info.Name, &info.Position, &info.Team)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("looking up player %d: %w", playerID, err)
	}
	return info, nil
}

// RegisterBundle records a completed training run so deployed bundles can be
// traced back to when and what produced them.
func (d *Directory) RegisterBundle(ctx context.Context, b *bundle.Bundle, path string, trainRows int) error {
	_, err := d.pg.Exec(ctx, `
		INSERT INTO model_bundles (id, created_at, cutoff_season, path, train_rows, shrinkage_k)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO NOTHING
	`, b.ID, b.CreatedAt, b.CutoffSeason, path, trainRows, b.ShrinkageK)
	if err != nil {
		return fmt.Errorf("registering bundle %s: %w", b.ID, err)
	}
	return nil
}
