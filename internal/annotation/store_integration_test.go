//go:build integration

package annotation

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"

	"streamer/internal/testinfra"
	"streamer/pkg/migrations"
)

func TestPostgresStore_FetchAnnotation(t *testing.T) {
	db := testinfra.Postgres(t)
	ctx := context.Background()

	_, err := db.ExecContext(ctx, `
		INSERT INTO annotations (id, userid, groupid, target_uri, text, tags, shared, "references", target_selectors, document_title)
		VALUES
			('a1', 'acct:alice@example.com', 'g1', 'https://example.com', 'hello', '{news,science}', true, '{p1}',
			 '[{"type":"TextQuoteSelector","exact":"quote"}]', 'Example'),
			('gone', 'acct:alice@example.com', '__world__', 'https://example.com', NULL, '{}', true, '{}', '[]', NULL)
	`)
	require.NoError(t, err)
	_, err = db.ExecContext(ctx, `UPDATE annotations SET deleted = true WHERE id = 'gone'`)
	require.NoError(t, err)

	store := NewPostgresStore(db)

	a, err := store.FetchAnnotation(ctx, "a1")
	require.NoError(t, err)
	require.NotNil(t, a)
	assert.Equal(t, "acct:alice@example.com", a.UserID)
	assert.Equal(t, "g1", a.GroupID)
	assert.Equal(t, "hello", a.Text)
	assert.Equal(t, []string{"news", "science"}, a.Tags)
	assert.Equal(t, []string{"p1"}, a.References)
	assert.True(t, a.Shared)
	require.Len(t, a.Selectors, 1)
	assert.Equal(t, "quote", a.Selectors[0]["exact"])
	assert.Equal(t, "Example", a.DocumentTitle)

	tests := []string{"gone", "missing"}
	for _, id := range tests {
		t.Run(id, func(t *testing.T) {
			a, err := store.FetchAnnotation(ctx, id)
			require.NoError(t, err)
			assert.Nil(t, a)
		})
	}
}

func TestMongoStore_FetchAnnotation(t *testing.T) {
	client := testinfra.Mongo(t)
	ctx := context.Background()

	db := client.Database("annotations_test")
	require.NoError(t, migrations.EnsureAnnotationIndexes(ctx, db, "annotations"))

	now := time.Now().UTC().Truncate(time.Millisecond)
	_, err := db.Collection("annotations").InsertMany(ctx, []interface{}{
		bson.M{
			"_id":        "m1",
			"userid":     "acct:bob@example.com",
			"groupid":    "__world__",
			"target_uri": "https://example.org",
			"text":       "from mongo",
			"tags":       bson.A{"a"},
			"shared":     true,
			"target_selectors": bson.A{
				bson.M{"type": "TextPositionSelector", "start": 1, "end": 5},
			},
			"created": now,
			"updated": now,
		},
		bson.M{"_id": "m2", "userid": "acct:bob@example.com", "deleted": true},
	})
	require.NoError(t, err)

	store := NewMongoStore(client, "annotations_test", "annotations")

	a, err := store.FetchAnnotation(ctx, "m1")
	require.NoError(t, err)
	require.NotNil(t, a)
	assert.Equal(t, "acct:bob@example.com", a.UserID)
	assert.Equal(t, "from mongo", a.Text)
	assert.Equal(t, []string{"a"}, a.Tags)
	assert.Equal(t, now, a.Created)
	require.Len(t, a.Selectors, 1)
	assert.Equal(t, "TextPositionSelector", a.Selectors[0]["type"])

	a, err = store.FetchAnnotation(ctx, "m2")
	require.NoError(t, err)
	assert.Nil(t, a, "deleted annotations are not returned")
}
