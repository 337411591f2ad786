package migrations

import (
	"context"
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// EnsureAnnotationIndexes creates the indexes the annotation store relies
// on. Existing indexes are left alone.
func EnsureAnnotationIndexes(ctx context.Context, db *mongo.Database, collectionName string) error {
	collection := db.Collection(collectionName)

	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "userid", Value: 1}},
			Options: options.Index().SetName("idx_annotations_userid"),
		},
		{
			Keys:    bson.D{{Key: "groupid", Value: 1}, {Key: "updated", Value: -1}},
			Options: options.Index().SetName("idx_annotations_groupid_updated"),
		},
		{
			Keys:    bson.D{{Key: "target_uri", Value: 1}},
			Options: options.Index().SetName("idx_annotations_target_uri"),
		},
	}

	_, err := collection.Indexes().CreateMany(ctx, indexes)
	if err != nil && !strings.Contains(err.Error(), "already exists") {
		return fmt.Errorf("failed to create indexes: %w", err)
	}

	return nil
}
