package packageRepo

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

// MongoPackageRepo implements PackageRepository using MongoDB.
type MongoPackageRepo struct {
	coll *mongo.Collection
}

// NewMongoPackageRepo creates the repository on the "packages" collection.
func NewMongoPackageRepo(db *mongo.Database) PackageRepository {
	repo := &MongoPackageRepo{coll: db.Collection("packages")}
	if err := repo.ensureIndexes(); err != nil {
		fmt.Printf("failed to create package indexes: %v\n", err)
	}
	return repo
}

func (r *MongoPackageRepo) ensureIndexes() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	indexModels := []mongo.IndexModel{
		{Keys: bson.D{{Key: "id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "tracking_number", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "booking_id", Value: 1}}},
	}
	if _, err := r.coll.Indexes().CreateMany(ctx, indexModels); err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}
	return nil
}

func (r *MongoPackageRepo) Create(ctx context.Context, pkg *models.Package) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if _, err := r.coll.InsertOne(ctx, pkg); err != nil {
		return fmt.Errorf("failed to insert package %s: %w", pkg.ID, database.Translate(err))
	}
	return nil
}

func (r *MongoPackageRepo) DeleteByID(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if _, err := r.coll.DeleteOne(ctx, bson.M{"id": id}); err != nil {
		return fmt.Errorf("failed to delete package %s: %w", id, err)
	}
	return nil
}

func (r *MongoPackageRepo) ListByBooking(ctx context.Context, bookingID string) ([]models.Package, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})
	cursor, err := r.coll.Find(ctx, bson.M{"booking_id": bookingID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list packages of booking %s: %w", bookingID, err)
	}
	defer cursor.Close(ctx)

	pkgs := []models.Package{}
	if err := cursor.All(ctx, &pkgs); err != nil {
		return nil, fmt.Errorf("failed to decode packages: %w", err)
	}
	return pkgs, nil
}
