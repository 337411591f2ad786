package nipsa

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

type PostgresRepository struct {
	db *sql.DB
}

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// IsFlagged reads users.nipsa. Unknown users are not flagged.
func (r *PostgresRepository) IsFlagged(ctx context.Context, userid string) (bool, error) {
	var flagged bool
	err := r.db.QueryRowContext(ctx, `SELECT nipsa FROM users WHERE userid = $1`, userid).Scan(&flagged)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("postgresql query failed: %w", err)
	}
	return flagged, nil
}
