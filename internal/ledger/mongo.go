package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"tourbook/pkg/config"
	mongotx "tourbook/pkg/db/mongo"
	"tourbook/pkg/logger"
	"tourbook/pkg/model"

	crerrors "github.com/cockroachdb/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const ToursCollection = "Tours"

type MongoLedger struct {
	collection   *mongo.Collection
	readTimeout  time.Duration
	writeTimeout time.Duration
	maxRetries   int
	log          *logger.Logger
}

func NewMongoLedger(cfg *config.Config) *MongoLedger {
	return &MongoLedger{
		collection:   cfg.Client.Mongo.Database(cfg.MongoDatabaseName).Collection(ToursCollection),
		readTimeout:  cfg.ReadTimeout,
		writeTimeout: cfg.WriteTimeout,
		maxRetries:   cfg.LedgerMaxRetries,
		log:          cfg.Log.WithComponent("ledger"),
	}
}

type windowProjection struct {
	IsActive   bool                       `bson:"is_active"`
	StartDates []model.AvailabilityWindow `bson:"start_dates"`
}

func windowOnly(day time.Time) bson.M {
	return bson.M{
		"is_active":   1,
		"start_dates": bson.M{"$elemMatch": bson.M{"date": day}},
	}
}

func (l *MongoLedger) FindWindow(ctx context.Context, tourID string, date time.Time) (*model.AvailabilityWindow, error) {
	oid, err := primitive.ObjectIDFromHex(tourID)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidID, tourID)
	}
	day := model.NormalizeDate(date)

	ctx, cancel := mongotx.WithTimeout(ctx, l.readTimeout)
	defer cancel()

	var doc windowProjection
	err = l.collection.FindOne(ctx,
		bson.M{"_id": oid, "is_active": true},
		options.FindOne().SetProjection(windowOnly(day)),
	).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrTourNotFound
		}
		return nil, crerrors.Wrap(err, "find availability window")
	}

	if len(doc.StartDates) == 0 {
		return nil, ErrWindowNotFound
	}
	return &doc.StartDates[0], nil
}

// Reserve decrements available_spots by count in one conditional update that
// only matches when the window still has count spots left.
func (l *MongoLedger) Reserve(ctx context.Context, tourID string, date time.Time, count int) (*model.AvailabilityWindow, error) {
	if count <= 0 {
		return nil, ErrInvalidCount
	}
	oid, err := primitive.ObjectIDFromHex(tourID)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidID, tourID)
	}
	day := model.NormalizeDate(date)

	filter := bson.M{
		"_id":       oid,
		"is_active": true,
		"start_dates": bson.M{"$elemMatch": bson.M{
			"date":            day,
			"available_spots": bson.M{"$gte": count},
		}},
	}
	update := bson.M{
		"$inc": bson.M{"start_dates.$.available_spots": -count},
		"$set": bson.M{"updated_at": time.Now().UTC()},
	}
	opts := options.FindOneAndUpdate().
		SetReturnDocument(options.After).
		SetProjection(windowOnly(day))

	var doc windowProjection
	err = l.run(ctx, func(ctx context.Context) error {
		ctx, cancel := mongotx.WithTimeout(ctx, l.writeTimeout)
		defer cancel()
		return l.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&doc)
	})
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, l.diagnose(ctx, oid, day, count)
		}
		return nil, crerrors.Wrapf(err, "reserve %d spots on tour %s for %s", count, tourID, day.Format(time.DateOnly))
	}
	if len(doc.StartDates) == 0 {
		return nil, ErrWindowNotFound
	}

	l.log.Debug("Capacity reserved",
		"tour_id", tourID,
		"date", day.Format(time.DateOnly),
		"count", count,
		"available_spots", doc.StartDates[0].AvailableSpots,
	)
	return &doc.StartDates[0], nil
}

// Release returns count spots to the window, clamped to total_spots so a
// repeated release cannot create capacity that never existed.
func (l *MongoLedger) Release(ctx context.Context, tourID string, date time.Time, count int) (*model.AvailabilityWindow, error) {
	if count <= 0 {
		return nil, ErrInvalidCount
	}
	oid, err := primitive.ObjectIDFromHex(tourID)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidID, tourID)
	}
	day := model.NormalizeDate(date)

	filter := bson.M{"_id": oid, "start_dates.date": day}
	update := mongo.Pipeline{
		{{Key: "$set", Value: bson.D{
			{Key: "start_dates", Value: bson.D{{Key: "$map", Value: bson.D{
				{Key: "input", Value: "$start_dates"},
				{Key: "as", Value: "w"},
				{Key: "in", Value: bson.D{{Key: "$cond", Value: bson.A{
					bson.D{{Key: "$eq", Value: bson.A{"$$w.date", day}}},
					bson.D{{Key: "$mergeObjects", Value: bson.A{
						"$$w",
						bson.D{{Key: "available_spots", Value: bson.D{{Key: "$min", Value: bson.A{
							bson.D{{Key: "$add", Value: bson.A{"$$w.available_spots", count}}},
							"$$w.total_spots",
						}}}}},
					}}},
					"$$w",
				}}}},
			}}}},
			{Key: "updated_at", Value: "$$NOW"},
		}}},
	}
	opts := options.FindOneAndUpdate().
		SetReturnDocument(options.After).
		SetProjection(bson.M{"start_dates": bson.M{"$elemMatch": bson.M{"date": day}}})

	var doc windowProjection
	err = l.run(ctx, func(ctx context.Context) error {
		ctx, cancel := mongotx.WithTimeout(ctx, l.writeTimeout)
		defer cancel()
		return l.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&doc)
	})
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			if l.tourExists(ctx, oid) {
				return nil, ErrWindowNotFound
			}
			return nil, ErrTourNotFound
		}
		return nil, crerrors.Wrapf(err, "release %d spots on tour %s for %s", count, tourID, day.Format(time.DateOnly))
	}
	if len(doc.StartDates) == 0 {
		return nil, ErrWindowNotFound
	}

	l.log.Debug("Capacity released",
		"tour_id", tourID,
		"date", day.Format(time.DateOnly),
		"count", count,
		"available_spots", doc.StartDates[0].AvailableSpots,
	)
	return &doc.StartDates[0], nil
}

// run retries transient failures, except inside a transaction where the
// driver's own transaction retry owns that decision.
func (l *MongoLedger) run(ctx context.Context, op func(ctx context.Context) error) error {
	if mongotx.InSession(ctx) {
		return op(ctx)
	}
	return withRetry(ctx, l.maxRetries, func() error { return op(ctx) })
}

// diagnose explains why a conditional reserve matched nothing.
func (l *MongoLedger) diagnose(ctx context.Context, oid primitive.ObjectID, day time.Time, count int) error {
	window, err := l.FindWindow(ctx, oid.Hex(), day)
	if err != nil {
		return err
	}
	return &CapacityError{Requested: count, Available: window.AvailableSpots}
}

func (l *MongoLedger) tourExists(ctx context.Context, oid primitive.ObjectID) bool {
	ctx, cancel := mongotx.WithTimeout(ctx, l.readTimeout)
	defer cancel()

	n, err := l.collection.CountDocuments(ctx, bson.M{"_id": oid}, options.Count().SetLimit(1))
	return err == nil && n > 0
}
