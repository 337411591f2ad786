package annotation

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"streamer/internal/constants"
)

type MongoStore struct {
	collection *mongo.Collection
}

func NewMongoStore(client *mongo.Client, database, collection string) *MongoStore {
	if database == "" {
		database = constants.DefaultMongoDBName
	}
	if collection == "" {
		collection = constants.DefaultMongoCollection
	}
	return &MongoStore{collection: client.Database(database).Collection(collection)}
}

func (s *MongoStore) FetchAnnotation(ctx context.Context, id string) (*Annotation, error) {
	filter := bson.M{"_id": id, "deleted": bson.M{"$ne": true}}

	var a Annotation
	err := s.collection.FindOne(ctx, filter, options.FindOne()).Decode(&a)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("mongodb query failed: %w", err)
	}
	return &a, nil
}
