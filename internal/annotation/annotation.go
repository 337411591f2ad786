// Package annotation reads annotations from the persistent store and
// renders them into the documents delivered to clients.
package annotation

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"

	"streamer/internal/config"
	"streamer/internal/constants"
)

// Annotation is the stored form of an annotation.
type Annotation struct {
	ID            string     `bson:"_id"`
	UserID        string     `bson:"userid"`
	GroupID       string     `bson:"groupid"`
	TargetURI     string     `bson:"target_uri"`
	Text          string     `bson:"text"`
	Tags          []string   `bson:"tags"`
	Shared        bool       `bson:"shared"`
	References    []string   `bson:"references"`
	Selectors     []Selector `bson:"target_selectors"`
	DocumentTitle string     `bson:"document_title"`
	Created       time.Time  `bson:"created"`
	Updated       time.Time  `bson:"updated"`
}

// Selector locates the annotated part of the target document, for example
// {"type": "TextQuoteSelector", "exact": "..."}.
type Selector map[string]interface{}

// Store fetches annotations by id. FetchAnnotation returns (nil, nil) when
// the annotation does not exist.
type Store interface {
	FetchAnnotation(ctx context.Context, id string) (*Annotation, error)
}

// NewStore returns the store selected by cfg.Type. The matching client must
// be non-nil.
func NewStore(cfg config.StoreConfig, db *sql.DB, mongoClient *mongo.Client, mongoCfg config.MongoDBConfig) (Store, error) {
	switch cfg.Type {
	case constants.StoreTypePostgres:
		if db == nil {
			return nil, fmt.Errorf("postgres store requires a database connection")
		}
		return NewPostgresStore(db), nil
	case constants.StoreTypeMongoDB:
		if mongoClient == nil {
			return nil, fmt.Errorf("mongodb store requires a mongodb client")
		}
		return NewMongoStore(mongoClient, mongoCfg.Database, mongoCfg.Collection), nil
	default:
		return nil, fmt.Errorf("unsupported store type: %s", cfg.Type)
	}
}
