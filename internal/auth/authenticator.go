package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var ErrInvalidToken = errors.New("invalid or expired access token")

// Identity is the authorization context attached to a connection.
type Identity struct {
	UserID     string
	Principals []string
}

func Anonymous() Identity {
	return Identity{Principals: EffectivePrincipals("", nil)}
}

type Authenticator interface {
	Authenticate(ctx context.Context, r *http.Request) (Identity, error)
}

// TokenFromRequest reads a bearer token from the Authorization header, or
// from the access_token query parameter since browsers cannot set headers
// on WebSocket handshakes.
func TokenFromRequest(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		if token, ok := strings.CutPrefix(h, "Bearer "); ok {
			return strings.TrimSpace(token)
		}
	}
	return r.URL.Query().Get("access_token")
}

type PostgresAuthenticator struct {
	db *sql.DB
}

func NewPostgresAuthenticator(db *sql.DB) *PostgresAuthenticator {
	return &PostgresAuthenticator{db: db}
}

func (a *PostgresAuthenticator) Authenticate(ctx context.Context, r *http.Request) (Identity, error) {
	token := TokenFromRequest(r)
	if token == "" {
		return Anonymous(), nil
	}

	var userid string
	err := a.db.QueryRowContext(ctx, `
		SELECT userid
		FROM auth_tokens
		WHERE value = $1 AND (expires IS NULL OR expires > now())
	`, token).Scan(&userid)
	if errors.Is(err, sql.ErrNoRows) {
		return Identity{}, ErrInvalidToken
	}
	if err != nil {
		return Identity{}, fmt.Errorf("failed to look up token: %w", err)
	}

	groups, err := a.groupsFor(ctx, userid)
	if err != nil {
		return Identity{}, err
	}

	return Identity{
		UserID:     userid,
		Principals: EffectivePrincipals(userid, groups),
	}, nil
}

func (a *PostgresAuthenticator) groupsFor(ctx context.Context, userid string) ([]string, error) {
	rows, err := a.db.QueryContext(ctx, `
		SELECT group_pubid
		FROM group_members
		WHERE userid = $1
		ORDER BY group_pubid
	`, userid)
	if err != nil {
		return nil, fmt.Errorf("failed to query group memberships: %w", err)
	}
	defer rows.Close()

	var groups []string
	for rows.Next() {
		var pubid string
		if err := rows.Scan(&pubid); err != nil {
			return nil, fmt.Errorf("failed to scan group membership: %w", err)
		}
		groups = append(groups, pubid)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return groups, nil
}
