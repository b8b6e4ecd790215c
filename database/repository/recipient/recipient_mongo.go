package recipientRepo

import (
	"context"
	"fmt"
	"time"

	"shipbook/database"
	"shipbook/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoRecipientRepo implements RecipientRepository using MongoDB.
type MongoRecipientRepo struct {
	coll *mongo.Collection
}

func NewMongoRecipientRepo(db *mongo.Database) RecipientRepository {
	repo := &MongoRecipientRepo{coll: db.Collection("recipients")}
	if err := repo.ensureIndexes(); err != nil {
		fmt.Printf("failed to create recipient indexes: %v\n", err)
	}
	return repo
}

func (r *MongoRecipientRepo) ensureIndexes() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	indexModels := []mongo.IndexModel{
		{Keys: bson.D{{Key: "id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "owner_id", Value: 1}}},
	}
	_, err := r.coll.Indexes().CreateMany(ctx, indexModels)
	return err
}

func (r *MongoRecipientRepo) Create(ctx context.Context, recipient *models.Recipient) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if _, err := r.coll.InsertOne(ctx, recipient); err != nil {
		return fmt.Errorf("failed to insert recipient: %w", database.Translate(err))
	}
	return nil
}

func (r *MongoRecipientRepo) GetByID(ctx context.Context, id string) (*models.Recipient, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var recipient models.Recipient
	if err := r.coll.FindOne(ctx, bson.M{"id": id}).Decode(&recipient); err != nil {
		return nil, fmt.Errorf("failed to fetch recipient %s: %w", id, database.Translate(err))
	}
	return &recipient, nil
}

func (r *MongoRecipientRepo) Delete(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if _, err := r.coll.DeleteOne(ctx, bson.M{"id": id}); err != nil {
		return fmt.Errorf("failed to delete recipient %s: %w", id, err)
	}
	return nil
}
