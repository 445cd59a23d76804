package mongodb

import (
	"context"
	"errors"
	"math"
	"strings"
	"time"

	"github.com/geotours/tourhub/internal/domain/tour"
	"github.com/geotours/tourhub/internal/observability"
	"github.com/geotours/tourhub/internal/query"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var tourHiddenFields = []string{"createdAt", "secretTour"}

type ToursRepo struct {
	col     *mongo.Collection
	metrics *observability.Prom
}

func NewToursRepo(database *mongo.Database, metrics *observability.Prom) *ToursRepo {
	var col *mongo.Collection

	if database != nil {
		col = database.Collection("tours")
	}

	return &ToursRepo{col: col, metrics: metrics}
}

func (r *ToursRepo) observe(op string, fn func() error) error {
	if r.metrics == nil {
		return fn()
	}

	return r.metrics.ObserveDB(op, fn)
}

func (r *ToursRepo) EnsureIndexes(ctx context.Context) error {
	_, err := r.col.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "name", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "price", Value: 1}, {Key: "ratingsAverage", Value: -1}},
		},
		{
			Keys: bson.D{{Key: "slug", Value: 1}},
		},
	})

	return err
}

// notSecret merges the secret-tour exclusion into a filter. Secret tours are
// invisible to every find-style read.
func notSecret(filter bson.M) bson.M {
	filter["secretTour"] = bson.M{"$ne": true}

	return filter
}

func (r *ToursRepo) HiddenFields() []string {
	return tourHiddenFields
}

func (r *ToursRepo) Create(ctx context.Context, t tour.Tour) (tour.Tour, error) {
	var res *mongo.InsertOneResult

	err := r.observe("tours.create", func() error {
		var err error

		res, err = r.col.InsertOne(ctx, t)

		return err
	})

	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return tour.Tour{}, ErrNameAlreadyUsed
		}

		return tour.Tour{}, err
	}

	if id, ok := res.InsertedID.(primitive.ObjectID); ok {
		t.ID = id
	}

	return t, nil
}

func (r *ToursRepo) GetByID(ctx context.Context, id string) (tour.Tour, error) {
	oid, err := primitive.ObjectIDFromHex(id)

	if err != nil {
		return tour.Tour{}, ErrInvalidID
	}

	var t tour.Tour

	err = r.observe("tours.get_by_id", func() error {
		return r.col.FindOne(ctx, notSecret(bson.M{"_id": oid})).Decode(&t)
	})

	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return tour.Tour{}, ErrTourNotFound
		}

		return tour.Tour{}, err
	}

	return t, nil
}

func (r *ToursRepo) List(ctx context.Context, opts query.Options) ([]tour.Tour, error) {
	findOpts := options.Find().
		SetSort(opts.Sort).
		SetSkip(opts.Skip).
		SetLimit(opts.Limit)

	if opts.Projection != nil {
		findOpts.SetProjection(opts.Projection)
	}

	tours := []tour.Tour{}

	err := r.observe("tours.list", func() error {
		cur, err := r.col.Find(ctx, notSecret(opts.Filter), findOpts)

		if err != nil {
			return err
		}

		defer cur.Close(ctx)

		return cur.All(ctx, &tours)
	})

	if err != nil {
		return nil, err
	}

	return tours, nil
}

func (r *ToursRepo) Update(ctx context.Context, id string, req tour.UpdateTourRequest) (tour.Tour, error) {
	oid, err := primitive.ObjectIDFromHex(id)

	if err != nil {
		return tour.Tour{}, ErrInvalidID
	}

	set := setFromUpdate(req)

	if len(set) == 0 {
		return r.GetByID(ctx, id)
	}

	var t tour.Tour

	err = r.observe("tours.update", func() error {
		return r.col.FindOneAndUpdate(
			ctx,
			notSecret(bson.M{"_id": oid}),
			bson.M{"$set": set},
			options.FindOneAndUpdate().SetReturnDocument(options.After),
		).Decode(&t)
	})

	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return tour.Tour{}, ErrTourNotFound
		}

		if mongo.IsDuplicateKeyError(err) {
			return tour.Tour{}, ErrNameAlreadyUsed
		}

		return tour.Tour{}, err
	}

	return t, nil
}

func (r *ToursRepo) Delete(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)

	if err != nil {
		return ErrInvalidID
	}

	var res *mongo.DeleteResult

	err = r.observe("tours.delete", func() error {
		var err error

		res, err = r.col.DeleteOne(ctx, notSecret(bson.M{"_id": oid}))

		return err
	})

	if err != nil {
		return err
	}

	if res.DeletedCount == 0 {
		return ErrTourNotFound
	}

	return nil
}

// setFromUpdate builds the partial-update document. A renamed tour gets its
// slug re-derived; the discount/price cross-check is creation-only.
func setFromUpdate(req tour.UpdateTourRequest) bson.M {
	set := bson.M{}

	if req.Name != nil {
		set["name"] = strings.TrimSpace(*req.Name)
		set["slug"] = tour.Slugify(*req.Name)
	}

	if req.Duration != nil {
		set["duration"] = *req.Duration
	}

	if req.MaxGroupSize != nil {
		set["maxGroupSize"] = *req.MaxGroupSize
	}

	if req.Difficulty != nil {
		set["difficulty"] = *req.Difficulty
	}

	if req.RatingsAverage != nil {
		set["ratingsAverage"] = *req.RatingsAverage
	}

	if req.Price != nil {
		set["price"] = *req.Price
	}

	if req.PriceDiscount != nil {
		set["priceDiscount"] = *req.PriceDiscount
	}

	if req.Summary != nil {
		set["summary"] = strings.TrimSpace(*req.Summary)
	}

	if req.Description != nil {
		set["description"] = strings.TrimSpace(*req.Description)
	}

	if req.ImageCover != nil {
		set["imageCover"] = *req.ImageCover
	}

	if req.Images != nil {
		set["images"] = *req.Images
	}

	if req.StartDates != nil {
		set["startDates"] = *req.StartDates
	}

	if req.SecretTour != nil {
		set["secretTour"] = *req.SecretTour
	}

	return set
}

type DifficultyStats struct {
	Difficulty     string  `bson:"_id" json:"difficulty"`
	TotalTours     int     `bson:"totalTours" json:"totalTours"`
	TotalRatings   int     `bson:"totalRatings" json:"totalRatings"`
	RatingsAverage float64 `bson:"ratingsAverage" json:"ratingsAverage"`
	PriceAverage   float64 `bson:"priceAverage" json:"priceAverage"`
	MinPrice       float64 `bson:"minPrice" json:"minPrice"`
	MaxPrice       float64 `bson:"maxPrice" json:"maxPrice"`
}

// Stats groups well-rated tours by difficulty. Secret tours stay out of the
// pipeline, same as the find path.
func (r *ToursRepo) Stats(ctx context.Context) ([]DifficultyStats, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{
			"secretTour":     bson.M{"$ne": true},
			"ratingsAverage": bson.M{"$gte": 4.5},
		}}},
		{{Key: "$group", Value: bson.M{
			"_id":            bson.M{"$toUpper": "$difficulty"},
			"totalTours":     bson.M{"$sum": 1},
			"totalRatings":   bson.M{"$sum": "$ratingsQuantity"},
			"ratingsAverage": bson.M{"$avg": "$ratingsAverage"},
			"priceAverage":   bson.M{"$avg": "$price"},
			"minPrice":       bson.M{"$min": "$price"},
			"maxPrice":       bson.M{"$max": "$price"},
		}}},
		{{Key: "$sort", Value: bson.M{"ratingsAverage": -1}}},
	}

	stats := []DifficultyStats{}

	err := r.observe("tours.stats", func() error {
		cur, err := r.col.Aggregate(ctx, pipeline)

		if err != nil {
			return err
		}

		defer cur.Close(ctx)

		return cur.All(ctx, &stats)
	})

	if err != nil {
		return nil, err
	}

	for i := range stats {
		stats[i].RatingsAverage = round2(stats[i].RatingsAverage)
		stats[i].PriceAverage = round2(stats[i].PriceAverage)
	}

	return stats, nil
}

type MonthPlan struct {
	MonthNumber int      `bson:"_id" json:"-"`
	Month       string   `bson:"-" json:"month"`
	TotalTours  int      `bson:"totalTours" json:"totalTours"`
	Tours       []string `bson:"tours" json:"tours"`
}

// MonthlyPlan unwinds start dates and counts departures per month of a year,
// busiest month first.
func (r *ToursRepo) MonthlyPlan(ctx context.Context, year int) ([]MonthPlan, error) {
	from := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(year, time.December, 31, 23, 59, 59, 0, time.UTC)

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"secretTour": bson.M{"$ne": true}}}},
		{{Key: "$unwind", Value: "$startDates"}},
		{{Key: "$match", Value: bson.M{
			"startDates": bson.M{"$gte": from, "$lte": to},
		}}},
		{{Key: "$group", Value: bson.M{
			"_id":        bson.M{"$month": "$startDates"},
			"totalTours": bson.M{"$sum": 1},
			"tours":      bson.M{"$push": "$name"},
		}}},
		{{Key: "$sort", Value: bson.M{"totalTours": -1}}},
	}

	plan := []MonthPlan{}

	err := r.observe("tours.monthly_plan", func() error {
		cur, err := r.col.Aggregate(ctx, pipeline)

		if err != nil {
			return err
		}

		defer cur.Close(ctx)

		return cur.All(ctx, &plan)
	})

	if err != nil {
		return nil, err
	}

	for i := range plan {
		if plan[i].MonthNumber >= 1 && plan[i].MonthNumber <= 12 {
			plan[i].Month = time.Month(plan[i].MonthNumber).String()
		}
	}

	return plan, nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
