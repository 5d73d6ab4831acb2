package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	tourserrors "tourbook/internal/tours/errors"
	"tourbook/pkg/config"
	mongotx "tourbook/pkg/db/mongo"
	"tourbook/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	CollectionName = "Tours"
)

type mongoTourRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

type TourRepository interface {
	Create(ctx context.Context, tour *model.Tour) error
	FindByID(ctx context.Context, id string) (*model.Tour, error)
	Find(ctx context.Context, filter model.TourFilter, limit int, offset int64) ([]*model.Tour, error)
	Count(ctx context.Context, filter model.TourFilter) (int64, error)
	// Update writes the descriptive fields of tour. When replaceWindows is set
	// the start dates are written too, but only if they still equal
	// prevWindows, so a reservation that landed in between is never lost.
	Update(ctx context.Context, tour *model.Tour, prevWindows []model.AvailabilityWindow, replaceWindows bool) error
	Deactivate(ctx context.Context, id string, at time.Time) error
}

func NewMongoTourRepository(cfg *config.Config) TourRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoTourRepository{
		cfg:        cfg,
		collection: db.Collection(CollectionName),
	}
}

func toObjectID(id string) (primitive.ObjectID, error) {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("%w: %s", tourserrors.ErrInvalidID, id)
	}
	return objectID, nil
}

func (r *mongoTourRepository) Create(ctx context.Context, tour *model.Tour) error {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	result, err := r.collection.InsertOne(ctx, tour)
	if err != nil {
		return fmt.Errorf("failed to create tour: %w", err)
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		tour.ID = oid.Hex()
	}
	return nil
}

func (r *mongoTourRepository) FindByID(ctx context.Context, id string) (*model.Tour, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	objectID, err := toObjectID(id)
	if err != nil {
		return nil, err
	}

	var tour model.Tour
	if err := r.collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&tour); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("%w: %s", tourserrors.ErrNotFound, id)
		}
		return nil, fmt.Errorf("failed to find tour: %w", err)
	}
	return &tour, nil
}

func (r *mongoTourRepository) Find(ctx context.Context, filter model.TourFilter, limit int, offset int64) ([]*model.Tour, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	opts := options.Find().
		SetLimit(int64(limit)).
		SetSkip(offset).
		SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}})

	cursor, err := r.collection.Find(ctx, buildFilter(filter), opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query tours: %w", err)
	}
	defer cursor.Close(ctx)

	tours := []*model.Tour{}
	if err = cursor.All(ctx, &tours); err != nil {
		return nil, fmt.Errorf("failed to decode tours: %w", err)
	}
	return tours, nil
}

func (r *mongoTourRepository) Count(ctx context.Context, filter model.TourFilter) (int64, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	count, err := r.collection.CountDocuments(ctx, buildFilter(filter))
	if err != nil {
		return 0, fmt.Errorf("failed to count tours: %w", err)
	}
	return count, nil
}

func (r *mongoTourRepository) Update(ctx context.Context, tour *model.Tour, prevWindows []model.AvailabilityWindow, replaceWindows bool) error {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := toObjectID(tour.ID)
	if err != nil {
		return err
	}

	set := bson.M{
		"name":           tour.Name,
		"slug":           tour.Slug,
		"country":        tour.Country,
		"continent":      tour.Continent,
		"base_price":     tour.BasePrice,
		"duration_days":  tour.DurationDays,
		"max_group_size": tour.MaxGroupSize,
		"is_active":      tour.IsActive,
		"updated_at":     tour.UpdatedAt,
	}
	filter := bson.M{"_id": objectID}
	if replaceWindows {
		set["start_dates"] = tour.StartDates
		filter["start_dates"] = prevWindows
		if prevWindows == nil {
			filter["start_dates"] = bson.A{}
		}
	}

	result, err := r.collection.UpdateOne(ctx, filter, bson.M{"$set": set})
	if err != nil {
		return fmt.Errorf("failed to update tour: %w", err)
	}
	if result.MatchedCount == 0 {
		return r.missOrChanged(ctx, objectID, tour.ID)
	}
	return nil
}

func (r *mongoTourRepository) Deactivate(ctx context.Context, id string, at time.Time) error {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := toObjectID(id)
	if err != nil {
		return err
	}

	result, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": objectID},
		bson.M{"$set": bson.M{"is_active": false, "updated_at": at}},
	)
	if err != nil {
		return fmt.Errorf("failed to deactivate tour: %w", err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("%w: %s", tourserrors.ErrNotFound, id)
	}
	return nil
}

func (r *mongoTourRepository) missOrChanged(ctx context.Context, objectID primitive.ObjectID, id string) error {
	count, err := r.collection.CountDocuments(ctx, bson.M{"_id": objectID})
	if err != nil {
		return fmt.Errorf("failed to check tour existence: %w", err)
	}
	if count == 0 {
		return fmt.Errorf("%w: %s", tourserrors.ErrNotFound, id)
	}
	return fmt.Errorf("%w: %s", tourserrors.ErrWindowsChanged, id)
}

func buildFilter(f model.TourFilter) bson.M {
	filter := bson.M{}
	if f.ActiveOnly {
		filter["is_active"] = true
	}
	if f.Continent != "" {
		filter["continent"] = f.Continent
	}
	if f.Country != "" {
		filter["country"] = f.Country
	}
	if f.PartnerID != "" {
		filter["partner_id"] = f.PartnerID
	}
	return filter
}
