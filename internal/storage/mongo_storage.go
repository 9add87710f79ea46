// internal/storage/mongo_storage.go
package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"reddit-modbot/internal/models"
)

const (
	CommunityMetadataCollection = "community_metadata"
	ReportsCollection           = "reports"
)

var _ StorageInterface = (*MongoStorage)(nil)

type MongoStorage struct {
	client   *mongo.Client
	database *mongo.Database
}

func NewMongoStorage(mongoURI, databaseName string) (*MongoStorage, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(mongoURI))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	// Test the connection
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	storage := &MongoStorage{
		client:   client,
		database: client.Database(databaseName),
	}

	if err := storage.createIndexes(ctx); err != nil {
		return nil, fmt.Errorf("failed to create indexes: %w", err)
	}

	return storage, nil
}

func (s *MongoStorage) createIndexes(ctx context.Context) error {
	metadataIndexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "community_name", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	}
	if _, err := s.database.Collection(CommunityMetadataCollection).Indexes().CreateMany(ctx, metadataIndexes); err != nil {
		return err
	}

	reportIndexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "post_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{Keys: bson.D{{Key: "author", Value: 1}, {Key: "reported_at", Value: -1}}},
	}
	if _, err := s.database.Collection(ReportsCollection).Indexes().CreateMany(ctx, reportIndexes); err != nil {
		return err
	}

	return nil
}

// Community checkpoint operations
func (s *MongoStorage) GetCommunityMetadata(ctx context.Context, communityName string) (*models.CommunityMetadata, error) {
	collection := s.database.Collection(CommunityMetadataCollection)

	var metadata models.CommunityMetadata
	err := collection.FindOne(ctx, bson.M{"community_name": communityName}).Decode(&metadata)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}

	return &metadata, nil
}

func (s *MongoStorage) UpsertCommunityMetadata(ctx context.Context, metadata *models.CommunityMetadata) error {
	collection := s.database.Collection(CommunityMetadataCollection)

	filter := bson.M{"community_name": metadata.CommunityName}

	now := time.Now()
	update := bson.M{
		"$set": bson.M{
			"community_name":  metadata.CommunityName,
			"last_checked_at": metadata.LastCheckedAt,
			"last_batch_size": metadata.LastBatchSize,
			"updated_at":      now,
		},
		"$setOnInsert": bson.M{
			"created_at": now,
		},
	}

	opts := options.Update().SetUpsert(true)
	_, err := collection.UpdateOne(ctx, filter, update, opts)
	return err
}

// Report ledger operations
func (s *MongoStorage) HasReport(ctx context.Context, postID string) (bool, error) {
	collection := s.database.Collection(ReportsCollection)

	count, err := collection.CountDocuments(ctx, bson.M{"post_id": postID}, options.Count().SetLimit(1))
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// RecordReport stores a report. Recording the same post twice keeps the
// first record.
func (s *MongoStorage) RecordReport(ctx context.Context, record *models.ReportRecord) error {
	if record.PostID == "" {
		return fmt.Errorf("invalid report: post_id is required")
	}

	collection := s.database.Collection(ReportsCollection)

	if record.ReportedAt.IsZero() {
		record.ReportedAt = time.Now()
	}

	update := bson.M{
		"$setOnInsert": bson.M{
			"post_id":       record.PostID,
			"prior_post_id": record.PriorPostID,
			"author":        record.Author,
			"community":     record.Community,
			"reason":        record.Reason,
			"reported_at":   record.ReportedAt,
		},
	}

	opts := options.Update().SetUpsert(true)
	_, err := collection.UpdateOne(ctx, bson.M{"post_id": record.PostID}, update, opts)
	return err
}

// Health check and cleanup
func (s *MongoStorage) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, nil)
}

func (s *MongoStorage) Close() error {
	return s.client.Disconnect(context.Background())
}
