package store

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/maastricht-university/meeting-engagement/apperr"
	"github.com/maastricht-university/meeting-engagement/config"
	"github.com/maastricht-university/meeting-engagement/model"
)

type MongoSink struct {
	col *mongo.Collection
}

func NewMongoSink(col *mongo.Collection) *MongoSink {
	return &MongoSink{col: col}
}

// ConnectMongo dials c.URI, verifies the connection and makes sure the
// collection indexes exist.
func ConnectMongo(ctx context.Context, c config.Mongo) (*MongoSink, func(context.Context) error, error) {
	cctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	opts := options.Client().ApplyURI(c.URI).
		SetServerSelectionTimeout(20 * time.Second).
		SetConnectTimeout(15 * time.Second).
		SetMaxPoolSize(10)
	client, err := mongo.Connect(cctx, opts)
	if err != nil {
		return nil, nil, apperr.E(apperr.KindPersistence, "store.ConnectMongo", "connect", err)
	}
	if err := client.Ping(cctx, nil); err != nil {
		_ = client.Disconnect(cctx)
		return nil, nil, apperr.E(apperr.KindPersistence, "store.ConnectMongo", "ping", err)
	}

	s := NewMongoSink(client.Database(c.Database).Collection(c.Collection))
	if err := s.EnsureIndexes(cctx); err != nil {
		_ = client.Disconnect(cctx)
		return nil, nil, err
	}
	return s, client.Disconnect, nil
}

func (s *MongoSink) EnsureIndexes(ctx context.Context) error {
	_, err := s.col.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "meeting_id", Value: 1}, {Key: "created_at", Value: -1}},
			Options: options.Index().
				SetName("uniq_meeting_created").
				SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "engagement_score", Value: -1}},
			Options: options.Index().SetName("by_engagement"),
		},
	})
	if err != nil {
		return apperr.E(apperr.KindPersistence, "store.EnsureIndexes", "", err)
	}
	return nil
}

// Save inserts m as a new document and returns its object id.
func (s *MongoSink) Save(ctx context.Context, m *model.MeetingAnalysis) (string, error) {
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now().UTC()
	}
	res, err := s.col.InsertOne(ctx, m)
	if err != nil {
		return "", apperr.E(apperr.KindPersistence, "store.MongoSink.Save", "insert analysis", err)
	}
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		return oid.Hex(), nil
	}
	return fmt.Sprint(res.InsertedID), nil
}
