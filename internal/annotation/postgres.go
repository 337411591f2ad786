package annotation

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/lib/pq"
)

const selectAnnotation = `
SELECT id, userid, groupid, target_uri, text, tags, shared, "references",
       target_selectors, document_title, created, updated
FROM annotations
WHERE id = $1 AND NOT deleted`

type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) FetchAnnotation(ctx context.Context, id string) (*Annotation, error) {
	var (
		a         Annotation
		text      sql.NullString
		title     sql.NullString
		selectors []byte
	)

	err := s.db.QueryRowContext(ctx, selectAnnotation, id).Scan(
		&a.ID,
		&a.UserID,
		&a.GroupID,
		&a.TargetURI,
		&text,
		pq.Array(&a.Tags),
		&a.Shared,
		pq.Array(&a.References),
		&selectors,
		&title,
		&a.Created,
		&a.Updated,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("postgresql query failed: %w", err)
	}

	a.Text = text.String
	a.DocumentTitle = title.String

	if len(selectors) > 0 {
		if err := json.Unmarshal(selectors, &a.Selectors); err != nil {
			return nil, fmt.Errorf("invalid target_selectors for annotation %s: %w", id, err)
		}
	}

	return &a, nil
}
