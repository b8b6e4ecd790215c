package webhookRepo

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

// MongoWebhookEventRepo implements WebhookEventRepository using MongoDB.
// The unique index on event_id makes Record safe under concurrent delivery.
type MongoWebhookEventRepo struct {
	coll *mongo.Collection
}

func NewMongoWebhookEventRepo(db *mongo.Database) WebhookEventRepository {
	repo := &MongoWebhookEventRepo{coll: db.Collection("webhook_events")}
	if err := repo.ensureIndexes(); err != nil {
		fmt.Printf("failed to create webhook event indexes: %v\n", err)
	}
	return repo
}

func (r *MongoWebhookEventRepo) ensureIndexes() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	indexModels := []mongo.IndexModel{
		{Keys: bson.D{{Key: "event_id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "processed", Value: 1}, {Key: "received_at", Value: 1}}},
	}
	if _, err := r.coll.Indexes().CreateMany(ctx, indexModels); err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}
	return nil
}

func (r *MongoWebhookEventRepo) Record(ctx context.Context, event models.PaymentEvent, receivedAt time.Time) (*models.WebhookEvent, bool, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	entry := models.WebhookEvent{
		EventID:    event.EventID,
		EventType:  event.EventType,
		Payload:    event,
		ReceivedAt: receivedAt.UTC(),
		UpdatedAt:  receivedAt.UTC(),
	}
	res, err := r.coll.UpdateOne(ctx,
		bson.M{"event_id": event.EventID},
		bson.M{"$setOnInsert": entry},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		// Two concurrent upserts can both miss and race on the unique index;
		// the loser simply sees the existing entry.
		if !mongo.IsDuplicateKeyError(err) {
			return nil, false, fmt.Errorf("failed to record webhook event %s: %w", event.EventID, err)
		}
		res = &mongo.UpdateResult{}
	}
	if res.UpsertedCount > 0 {
		return &entry, true, nil
	}

	existing, err := r.Get(ctx, event.EventID)
	if err != nil {
		return nil, false, err
	}
	return existing, false, nil
}

func (r *MongoWebhookEventRepo) Get(ctx context.Context, eventID string) (*models.WebhookEvent, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var entry models.WebhookEvent
	if err := r.coll.FindOne(ctx, bson.M{"event_id": eventID}).Decode(&entry); err != nil {
		return nil, fmt.Errorf("failed to fetch webhook event %s: %w", eventID, database.Translate(err))
	}
	return &entry, nil
}

func (r *MongoWebhookEventRepo) MarkProcessed(ctx context.Context, eventID string, at time.Time) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	update := bson.M{
		"$set": bson.M{
			"processed":    true,
			"processed_at": at.UTC(),
			"updated_at":   at.UTC(),
		},
		"$unset": bson.M{"error": ""},
		"$inc":   bson.M{"attempts": 1},
	}
	if _, err := r.coll.UpdateOne(ctx, bson.M{"event_id": eventID}, update); err != nil {
		return fmt.Errorf("failed to mark webhook event %s processed: %w", eventID, err)
	}
	return nil
}

func (r *MongoWebhookEventRepo) MarkFailed(ctx context.Context, eventID, reason string, at time.Time) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	update := bson.M{
		"$set": bson.M{"error": reason, "updated_at": at.UTC()},
		"$inc": bson.M{"attempts": 1},
	}
	if _, err := r.coll.UpdateOne(ctx, bson.M{"event_id": eventID, "processed": false}, update); err != nil {
		return fmt.Errorf("failed to mark webhook event %s failed: %w", eventID, err)
	}
	return nil
}

func (r *MongoWebhookEventRepo) List(ctx context.Context, filter models.WebhookEventFilter, page models.Page) ([]models.WebhookEvent, int64, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	query := bson.M{}
	if filter.Processed != nil {
		query["processed"] = *filter.Processed
	}
	total, err := r.coll.CountDocuments(ctx, query)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count webhook events: %w", err)
	}

	page = page.Normalize()
	opts := options.Find().
		SetSort(bson.D{{Key: "received_at", Value: -1}}).
		SetSkip(page.Skip()).
		SetLimit(int64(page.PageSize))
	cursor, err := r.coll.Find(ctx, query, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list webhook events: %w", err)
	}
	defer cursor.Close(ctx)

	events := []models.WebhookEvent{}
	if err := cursor.All(ctx, &events); err != nil {
		return nil, 0, fmt.Errorf("failed to decode webhook events: %w", err)
	}
	return events, total, nil
}

func (r *MongoWebhookEventRepo) ListUnprocessed(ctx context.Context, olderThan time.Time, maxAttempts, limit int) ([]models.WebhookEvent, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	query := bson.M{
		"processed":   false,
		"received_at": bson.M{"$lt": olderThan},
		"attempts":    bson.M{"$lt": maxAttempts},
	}
	opts := options.Find().SetSort(bson.D{{Key: "received_at", Value: 1}}).SetLimit(int64(limit))
	cursor, err := r.coll.Find(ctx, query, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list unprocessed webhook events: %w", err)
	}
	defer cursor.Close(ctx)

	var events []models.WebhookEvent
	if err := cursor.All(ctx, &events); err != nil {
		return nil, fmt.Errorf("failed to decode webhook events: %w", err)
	}
	return events, nil
}
