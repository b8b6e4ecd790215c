package invoiceRepo

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

// MongoInvoiceRepo implements InvoiceRepository using MongoDB.
type MongoInvoiceRepo struct {
	coll *mongo.Collection
}

func NewMongoInvoiceRepo(db *mongo.Database) InvoiceRepository {
	repo := &MongoInvoiceRepo{coll: db.Collection("invoices")}
	if err := repo.ensureIndexes(); err != nil {
		fmt.Printf("failed to create invoice indexes: %v\n", err)
	}
	return repo
}

func (r *MongoInvoiceRepo) ensureIndexes() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	indexModels := []mongo.IndexModel{
		{Keys: bson.D{{Key: "invoice_id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "payment_intent_id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "booking_id", Value: 1}}},
	}
	_, err := r.coll.Indexes().CreateMany(ctx, indexModels)
	return err
}

func (r *MongoInvoiceRepo) Ensure(ctx context.Context, inv *models.Invoice) (*models.Invoice, bool, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	res, err := r.coll.UpdateOne(ctx,
		bson.M{"payment_intent_id": inv.PaymentIntentID},
		bson.M{"$setOnInsert": inv},
		options.Update().SetUpsert(true),
	)
	if err != nil && !mongo.IsDuplicateKeyError(err) {
		return nil, false, fmt.Errorf("failed to store invoice for %s: %w", inv.PaymentIntentID, err)
	}
	if err == nil && res.UpsertedCount > 0 {
		return inv, true, nil
	}

	existing, err := r.GetByPaymentIntentID(ctx, inv.PaymentIntentID)
	if err != nil {
		return nil, false, err
	}
	return existing, false, nil
}

func (r *MongoInvoiceRepo) GetByPaymentIntentID(ctx context.Context, intentID string) (*models.Invoice, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var inv models.Invoice
	if err := r.coll.FindOne(ctx, bson.M{"payment_intent_id": intentID}).Decode(&inv); err != nil {
		return nil, fmt.Errorf("failed to fetch invoice for %s: %w", intentID, database.Translate(err))
	}
	return &inv, nil
}
