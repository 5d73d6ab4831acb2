package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	bookingserrors "tourbook/internal/bookings/errors"
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
	CollectionName = "Bookings"
)

type mongoBookingRepository struct {
	cfg        *config.Config
	db         *mongo.Database
	collection *mongo.Collection
	txManager  mongotx.TransactionManager
}

type BookingRepository interface {
	Create(ctx context.Context, booking *model.Booking) error
	FindByID(ctx context.Context, id string) (*model.Booking, error)
	Find(ctx context.Context, filter model.BookingFilter, limit int, offset int64) ([]*model.Booking, error)
	Count(ctx context.Context, filter model.BookingFilter) (int64, error)
	// Replace overwrites the mutable fields of booking if it still carries
	// prevUpdatedAt and is neither completed nor cancelled.
	Replace(ctx context.Context, booking *model.Booking, prevUpdatedAt time.Time) error
	// Cancel flips a pending or confirmed booking to cancelled. Exactly one of
	// several concurrent callers succeeds; the others get ErrStatusChanged.
	Cancel(ctx context.Context, id string, cancellation *model.Cancellation) (*model.Booking, error)
	Transition(ctx context.Context, id string, from, to model.BookingStatus, requirePaid bool, at time.Time) (*model.Booking, error)
	RecordPayment(ctx context.Context, id string, txn model.PaymentTransaction, markRefundProcessed bool) (*model.Booking, error)
	Stats(ctx context.Context, since time.Time) ([]stats.StatusRow, []stats.MonthRow, error)
	ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error
}

func NewMongoBookingRepository(cfg *config.Config) BookingRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoBookingRepository{
		cfg:        cfg,
		db:         db,
		collection: db.Collection(CollectionName),
		txManager:  mongotx.NewTransactionManager(cfg.Client.Mongo),
	}
}

func toObjectID(id string) (primitive.ObjectID, error) {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("%w: %s", bookingserrors.ErrInvalidID, id)
	}
	return objectID, nil
}

func (r *mongoBookingRepository) Create(ctx context.Context, booking *model.Booking) error {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	result, err := r.collection.InsertOne(ctx, booking)
	if err != nil {
		return fmt.Errorf("failed to create booking: %w", err)
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		booking.ID = oid.Hex()
	}
	return nil
}

func (r *mongoBookingRepository) FindByID(ctx context.Context, id string) (*model.Booking, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	objectID, err := toObjectID(id)
	if err != nil {
		return nil, err
	}

	var booking model.Booking
	err = r.collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&booking)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, bookingserrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find booking: %w", err)
	}

	return &booking, nil
}

func (r *mongoBookingRepository) Find(ctx context.Context, filter model.BookingFilter, limit int, offset int64) ([]*model.Booking, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}).
		SetLimit(int64(limit)).
		SetSkip(offset)

	cursor, err := r.collection.Find(ctx, buildFilter(filter), opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find bookings: %w", err)
	}
	defer cursor.Close(ctx)

	bookings := []*model.Booking{}
	if err = cursor.All(ctx, &bookings); err != nil {
		return nil, fmt.Errorf("failed to decode bookings: %w", err)
	}

	return bookings, nil
}

func (r *mongoBookingRepository) Count(ctx context.Context, filter model.BookingFilter) (int64, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	count, err := r.collection.CountDocuments(ctx, buildFilter(filter))
	if err != nil {
		return 0, fmt.Errorf("failed to count bookings: %w", err)
	}
	return count, nil
}

func buildFilter(f model.BookingFilter) bson.M {
	filter := bson.M{}
	if f.Status != "" {
		filter["status"] = f.Status
	}
	if f.TourID != "" {
		filter["tour_id"] = f.TourID
	}
	if f.UserID != "" {
		filter["user_id"] = f.UserID
	}
	return filter
}

func (r *mongoBookingRepository) Replace(ctx context.Context, booking *model.Booking, prevUpdatedAt time.Time) error {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := toObjectID(booking.ID)
	if err != nil {
		return err
	}

	filter := bson.M{
		"_id":        objectID,
		"updated_at": prevUpdatedAt,
		"status":     bson.M{"$nin": bson.A{model.BookingCompleted, model.BookingCancelled}},
	}
	update := bson.M{
		"$set": bson.M{
			"start_date":          booking.StartDate,
			"travelers":           booking.Travelers,
			"number_of_travelers": booking.NumberOfTravelers,
			"price":               booking.Price,
			"status":              booking.Status,
			"special_requests":    booking.SpecialRequests,
			"updated_at":          booking.UpdatedAt,
		},
	}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to update booking: %w", err)
	}
	if result.MatchedCount == 0 {
		return r.missOrChanged(ctx, objectID)
	}
	return nil
}

func (r *mongoBookingRepository) Cancel(ctx context.Context, id string, cancellation *model.Cancellation) (*model.Booking, error) {
	objectID, err := toObjectID(id)
	if err != nil {
		return nil, err
	}

	filter := bson.M{
		"_id":    objectID,
		"status": bson.M{"$in": bson.A{model.BookingPending, model.BookingConfirmed}},
	}
	update := bson.M{
		"$set": bson.M{
			"status":       model.BookingCancelled,
			"cancellation": cancellation,
			"updated_at":   cancellation.CancelledAt,
		},
	}
	return r.findOneAndUpdate(ctx, objectID, filter, update)
}

func (r *mongoBookingRepository) Transition(ctx context.Context, id string, from, to model.BookingStatus, requirePaid bool, at time.Time) (*model.Booking, error) {
	objectID, err := toObjectID(id)
	if err != nil {
		return nil, err
	}

	filter := bson.M{"_id": objectID, "status": from}
	if requirePaid {
		filter["payment.status"] = model.PaymentPaid
	}
	update := bson.M{"$set": bson.M{"status": to, "updated_at": at}}
	return r.findOneAndUpdate(ctx, objectID, filter, update)
}

func (r *mongoBookingRepository) RecordPayment(ctx context.Context, id string, txn model.PaymentTransaction, markRefundProcessed bool) (*model.Booking, error) {
	objectID, err := toObjectID(id)
	if err != nil {
		return nil, err
	}

	set := bson.M{
		"payment.status": txn.Status,
		"updated_at":     txn.RecordedAt,
	}
	filter := bson.M{"_id": objectID}
	if markRefundProcessed {
		set["cancellation.refund_status"] = model.RefundProcessed
		filter["cancellation.refund_status"] = model.RefundPending
	}
	update := bson.M{
		"$set":  set,
		"$push": bson.M{"payment.transactions": txn},
	}
	return r.findOneAndUpdate(ctx, objectID, filter, update)
}

func (r *mongoBookingRepository) findOneAndUpdate(ctx context.Context, objectID primitive.ObjectID, filter, update bson.M) (*model.Booking, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var booking model.Booking
	err := r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&booking)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, r.missOrChanged(ctx, objectID)
		}
		return nil, fmt.Errorf("failed to update booking: %w", err)
	}
	return &booking, nil
}

// missOrChanged tells a missing booking apart from a guard that no longer
// holds after a conditional update matched nothing.
func (r *mongoBookingRepository) missOrChanged(ctx context.Context, objectID primitive.ObjectID) error {
	count, err := r.collection.CountDocuments(ctx, bson.M{"_id": objectID}, options.Count().SetLimit(1))
	if err != nil {
		return fmt.Errorf("failed to check booking existence: %w", err)
	}
	if count == 0 {
		return bookingserrors.ErrNotFound
	}
	return bookingserrors.ErrStatusChanged
}

type statsFacet struct {
	ByStatus []stats.StatusRow `bson:"by_status"`
	Monthly  []stats.MonthRow  `bson:"monthly"`
}

func (r *mongoBookingRepository) Stats(ctx context.Context, since time.Time) ([]stats.StatusRow, []stats.MonthRow, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	revenue := bson.M{"$sum": bson.M{"$cond": bson.A{
		bson.M{"$ne": bson.A{"$status", model.BookingCancelled}},
		"$price.total_price",
		0,
	}}}

	pipeline := mongo.Pipeline{
		{{Key: "$facet", Value: bson.M{
			"by_status": bson.A{
				bson.M{"$group": bson.M{
					"_id":       "$status",
					"count":     bson.M{"$sum": 1},
					"revenue":   revenue,
					"travelers": bson.M{"$sum": "$number_of_travelers"},
				}},
			},
			"monthly": bson.A{
				bson.M{"$match": bson.M{"created_at": bson.M{"$gte": since}}},
				bson.M{"$group": bson.M{
					"_id": bson.M{
						"year":  bson.M{"$year": "$created_at"},
						"month": bson.M{"$month": "$created_at"},
					},
					"count":   bson.M{"$sum": 1},
					"revenue": revenue,
				}},
				bson.M{"$project": bson.M{
					"_id":     0,
					"year":    "$_id.year",
					"month":   "$_id.month",
					"count":   1,
					"revenue": 1,
				}},
				bson.M{"$sort": bson.D{{Key: "year", Value: 1}, {Key: "month", Value: 1}}},
			},
		}}},
	}

	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to aggregate booking stats: %w", err)
	}
	defer cursor.Close(ctx)

	var facets []statsFacet
	if err := cursor.All(ctx, &facets); err != nil {
		return nil, nil, fmt.Errorf("failed to decode booking stats: %w", err)
	}
	if len(facets) == 0 {
		return nil, nil, nil
	}
	return facets[0].ByStatus, facets[0].Monthly, nil
}

func (r *mongoBookingRepository) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	return r.txManager.ExecuteTransaction(ctx, fn)
}
