package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	reviewserrors "tourbook/internal/reviews/errors"
	"tourbook/pkg/config"
	mongotx "tourbook/pkg/db/mongo"
	"tourbook/pkg/model"
	"tourbook/pkg/stats"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	CollectionName = "Reviews"
)

type mongoReviewRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

type ReviewRepository interface {
	Create(ctx context.Context, review *model.Review) error
	FindByID(ctx context.Context, id string) (*model.Review, error)
	ExistsForUserTour(ctx context.Context, userID, tourID string) (bool, error)
	ListByTour(ctx context.Context, tourID string, publicOnly bool, limit int, offset int64) ([]*model.Review, error)
	CountByTour(ctx context.Context, tourID string, publicOnly bool) (int64, error)
	// Update writes the author-editable fields and resets moderation to pending.
	Update(ctx context.Context, review *model.Review) (*model.Review, error)
	Delete(ctx context.Context, id string) error
	// Report increments reported_count and, in the same write, hides the
	// review and sends it back to moderation once the count reaches threshold.
	Report(ctx context.Context, id string, threshold int, at time.Time) (*model.Review, error)
	SetModeration(ctx context.Context, id string, status model.ModerationStatus, visible *bool, at time.Time) (*model.Review, error)
	AddResponse(ctx context.Context, id string, response model.ReviewResponse) (*model.Review, error)
	IncrementHelpful(ctx context.Context, id string) (*model.Review, error)
	Stats(ctx context.Context) ([]stats.ReviewStatusRow, error)
}

func NewMongoReviewRepository(cfg *config.Config) ReviewRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoReviewRepository{
		cfg:        cfg,
		collection: db.Collection(CollectionName),
	}
}

func toObjectID(id string) (primitive.ObjectID, error) {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("%w: %s", reviewserrors.ErrInvalidID, id)
	}
	return objectID, nil
}

func (r *mongoReviewRepository) Create(ctx context.Context, review *model.Review) error {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	result, err := r.collection.InsertOne(ctx, review)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return reviewserrors.ErrDuplicate
		}
		return fmt.Errorf("failed to create review: %w", err)
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		review.ID = oid.Hex()
	}
	return nil
}

func (r *mongoReviewRepository) FindByID(ctx context.Context, id string) (*model.Review, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	objectID, err := toObjectID(id)
	if err != nil {
		return nil, err
	}

	var review model.Review
	if err := r.collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&review); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("%w: %s", reviewserrors.ErrNotFound, id)
		}
		return nil, fmt.Errorf("failed to find review: %w", err)
	}
	return &review, nil
}

func (r *mongoReviewRepository) ExistsForUserTour(ctx context.Context, userID, tourID string) (bool, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	count, err := r.collection.CountDocuments(ctx,
		bson.M{"user_id": userID, "tour_id": tourID},
		options.Count().SetLimit(1),
	)
	if err != nil {
		return false, fmt.Errorf("failed to check existing review: %w", err)
	}
	return count > 0, nil
}

func tourFilter(tourID string, publicOnly bool) bson.M {
	filter := bson.M{"tour_id": tourID}
	if publicOnly {
		filter["is_visible"] = true
		filter["moderation_status"] = model.ModerationApproved
	}
	return filter
}

func (r *mongoReviewRepository) ListByTour(ctx context.Context, tourID string, publicOnly bool, limit int, offset int64) ([]*model.Review, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	opts := options.Find().
		SetLimit(int64(limit)).
		SetSkip(offset).
		SetSort(bson.D{{Key: "helpful_votes", Value: -1}, {Key: "created_at", Value: -1}})

	cursor, err := r.collection.Find(ctx, tourFilter(tourID, publicOnly), opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find reviews for tour [%s]: %w", tourID, err)
	}
	defer cursor.Close(ctx)

	reviews := []*model.Review{}
	if err := cursor.All(ctx, &reviews); err != nil {
		return nil, fmt.Errorf("failed to decode reviews: %w", err)
	}
	return reviews, nil
}

func (r *mongoReviewRepository) CountByTour(ctx context.Context, tourID string, publicOnly bool) (int64, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	count, err := r.collection.CountDocuments(ctx, tourFilter(tourID, publicOnly))
	if err != nil {
		return 0, fmt.Errorf("failed to count reviews for tour [%s]: %w", tourID, err)
	}
	return count, nil
}

func (r *mongoReviewRepository) Update(ctx context.Context, review *model.Review) (*model.Review, error) {
	return r.findOneAndUpdate(ctx, review.ID, bson.M{
		"$set": bson.M{
			"rating":            review.Rating,
			"title":             review.Title,
			"comment":           review.Comment,
			"highlights":        review.Highlights,
			"improvements":      review.Improvements,
			"would_recommend":   review.WouldRecommend,
			"moderation_status": model.ModerationPending,
			"updated_at":        review.UpdatedAt,
		},
	})
}

func (r *mongoReviewRepository) Delete(ctx context.Context, id string) error {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := toObjectID(id)
	if err != nil {
		return err
	}

	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": objectID})
	if err != nil {
		return fmt.Errorf("failed to delete review: %w", err)
	}
	if result.DeletedCount == 0 {
		return fmt.Errorf("%w: %s", reviewserrors.ErrNotFound, id)
	}
	return nil
}

func (r *mongoReviewRepository) Report(ctx context.Context, id string, threshold int, at time.Time) (*model.Review, error) {
	// Every expression in one $set stage reads the pre-update document, so the
	// visibility check sees the same incremented count that gets stored.
	next := bson.M{"$add": bson.A{"$reported_count", 1}}
	reached := bson.M{"$gte": bson.A{next, threshold}}

	pipeline := mongo.Pipeline{
		{{Key: "$set", Value: bson.D{
			{Key: "reported_count", Value: next},
			{Key: "is_visible", Value: bson.M{"$cond": bson.A{reached, false, "$is_visible"}}},
			{Key: "moderation_status", Value: bson.M{"$cond": bson.A{reached, model.ModerationPending, "$moderation_status"}}},
			{Key: "updated_at", Value: at},
		}}},
	}
	return r.findOneAndUpdate(ctx, id, pipeline)
}

// SetModeration records a moderation decision. Approval clears the report
// count in the same update, so an approved review never sits at the report
// threshold while visible.
func (r *mongoReviewRepository) SetModeration(ctx context.Context, id string, status model.ModerationStatus, visible *bool, at time.Time) (*model.Review, error) {
	set := bson.M{"moderation_status": status, "updated_at": at}
	if status == model.ModerationApproved {
		set["reported_count"] = 0
	}
	if visible != nil {
		set["is_visible"] = *visible
	}
	return r.findOneAndUpdate(ctx, id, bson.M{"$set": set})
}

func (r *mongoReviewRepository) AddResponse(ctx context.Context, id string, response model.ReviewResponse) (*model.Review, error) {
	return r.findOneAndUpdate(ctx, id, bson.M{
		"$push": bson.M{"responses": response},
		"$set":  bson.M{"updated_at": response.CreatedAt},
	})
}

func (r *mongoReviewRepository) IncrementHelpful(ctx context.Context, id string) (*model.Review, error) {
	return r.findOneAndUpdate(ctx, id, bson.M{"$inc": bson.M{"helpful_votes": 1}})
}

func (r *mongoReviewRepository) Stats(ctx context.Context) ([]stats.ReviewStatusRow, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	pipeline := mongo.Pipeline{
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$moderation_status"},
			{Key: "count", Value: bson.M{"$sum": 1}},
			{Key: "rating_sum", Value: bson.M{"$sum": "$rating"}},
		}}},
	}

	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate review stats: %w", err)
	}
	defer cursor.Close(ctx)

	rows := []stats.ReviewStatusRow{}
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, fmt.Errorf("failed to decode review stats: %w", err)
	}
	return rows, nil
}

func (r *mongoReviewRepository) findOneAndUpdate(ctx context.Context, id string, update any) (*model.Review, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := toObjectID(id)
	if err != nil {
		return nil, err
	}

	var review model.Review
	err = r.collection.FindOneAndUpdate(ctx,
		bson.M{"_id": objectID},
		update,
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&review)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("%w: %s", reviewserrors.ErrNotFound, id)
		}
		return nil, fmt.Errorf("failed to update review: %w", err)
	}
	return &review, nil
}
