package mongodb

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/geotours/tourhub/internal/domain/user"
	"github.com/geotours/tourhub/internal/observability"
	"github.com/geotours/tourhub/internal/query"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// fields stripped from default user serialization at the query level.
var userHiddenFields = []string{"password", "passwordChangedAt", "passwordResetToken", "passwordResetExpiresAt", "active"}

type UsersRepo struct {
	col     *mongo.Collection
	metrics *observability.Prom
}

func NewUsersRepo(database *mongo.Database, metrics *observability.Prom) *UsersRepo {
	var col *mongo.Collection

	if database != nil {
		col = database.Collection("users")
	}

	return &UsersRepo{col: col, metrics: metrics}
}

func (r *UsersRepo) observe(op string, fn func() error) error {
	if r.metrics == nil {
		return fn()
	}

	return r.metrics.ObserveDB(op, fn)
}

// EnsureIndexes creates the unique email index. Safe to call on every start.
func (r *UsersRepo) EnsureIndexes(ctx context.Context) error {
	_, err := r.col.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	})

	return err
}

// activeOnly merges the soft-delete exclusion into a filter. Deactivated
// accounts are invisible to every normal read path.
func activeOnly(filter bson.M) bson.M {
	filter["active"] = bson.M{"$ne": false}

	return filter
}

// HiddenFields returns the default projection exclusions for user queries.
func (r *UsersRepo) HiddenFields() []string {
	return userHiddenFields
}

func (r *UsersRepo) Create(ctx context.Context, u user.User) (user.User, error) {
	u.Email = normalizeEmail(u.Email)

	if u.Role == "" {
		u.Role = user.RoleUser
	}

	u.Active = true
	u.CreatedAt = time.Now().UTC()

	var res *mongo.InsertOneResult

	err := r.observe("users.create", func() error {
		var err error

		res, err = r.col.InsertOne(ctx, u)

		return err
	})

	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return user.User{}, ErrEmailAlreadyUsed
		}

		return user.User{}, err
	}

	if id, ok := res.InsertedID.(primitive.ObjectID); ok {
		u.ID = id
	}

	return u, nil
}

func (r *UsersRepo) GetByEmail(ctx context.Context, email string) (user.User, error) {
	var u user.User

	err := r.observe("users.get_by_email", func() error {
		return r.col.FindOne(ctx, activeOnly(bson.M{"email": normalizeEmail(email)})).Decode(&u)
	})

	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return user.User{}, ErrUserNotFound
		}

		return user.User{}, err
	}

	return u, nil
}

func (r *UsersRepo) GetByID(ctx context.Context, id string) (user.User, error) {
	oid, err := primitive.ObjectIDFromHex(id)

	if err != nil {
		return user.User{}, ErrInvalidID
	}

	var u user.User

	err = r.observe("users.get_by_id", func() error {
		return r.col.FindOne(ctx, activeOnly(bson.M{"_id": oid})).Decode(&u)
	})

	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return user.User{}, ErrUserNotFound
		}

		return user.User{}, err
	}

	return u, nil
}

func (r *UsersRepo) List(ctx context.Context, opts query.Options) ([]user.User, error) {
	findOpts := options.Find().
		SetSort(opts.Sort).
		SetSkip(opts.Skip).
		SetLimit(opts.Limit)

	if opts.Projection != nil {
		findOpts.SetProjection(opts.Projection)
	}

	users := []user.User{}

	err := r.observe("users.list", func() error {
		cur, err := r.col.Find(ctx, activeOnly(opts.Filter), findOpts)

		if err != nil {
			return err
		}

		defer cur.Close(ctx)

		return cur.All(ctx, &users)
	})

	if err != nil {
		return nil, err
	}

	return users, nil
}

// UpdateProfile applies a self-service update (name/email only) and returns
// the updated user.
func (r *UsersRepo) UpdateProfile(ctx context.Context, id string, req user.UpdateMeRequest) (user.User, error) {
	oid, err := primitive.ObjectIDFromHex(id)

	if err != nil {
		return user.User{}, ErrInvalidID
	}

	set := bson.M{}

	if req.Name != "" {
		set["name"] = strings.TrimSpace(req.Name)
	}

	if req.Email != "" {
		set["email"] = normalizeEmail(req.Email)
	}

	if len(set) == 0 {
		return r.GetByID(ctx, id)
	}

	var u user.User

	err = r.observe("users.update_profile", func() error {
		return r.col.FindOneAndUpdate(
			ctx,
			activeOnly(bson.M{"_id": oid}),
			bson.M{"$set": set},
			options.FindOneAndUpdate().SetReturnDocument(options.After),
		).Decode(&u)
	})

	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return user.User{}, ErrUserNotFound
		}

		if mongo.IsDuplicateKeyError(err) {
			return user.User{}, ErrEmailAlreadyUsed
		}

		return user.User{}, err
	}

	return u, nil
}

// Deactivate flips the active flag off. Repeating it is a no-op, not an error.
func (r *UsersRepo) Deactivate(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)

	if err != nil {
		return ErrInvalidID
	}

	return r.observe("users.deactivate", func() error {
		_, err := r.col.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{"$set": bson.M{"active": false}})

		return err
	})
}

// UpdatePassword stores a new password hash and stamps passwordChangedAt so
// previously issued tokens go stale. Any pending reset token is cleared.
func (r *UsersRepo) UpdatePassword(ctx context.Context, id string, passwordHash string) error {
	oid, err := primitive.ObjectIDFromHex(id)

	if err != nil {
		return ErrInvalidID
	}

	var res *mongo.UpdateResult

	err = r.observe("users.update_password", func() error {
		var err error

		res, err = r.col.UpdateOne(
			ctx,
			activeOnly(bson.M{"_id": oid}),
			bson.M{
				"$set": bson.M{
					"password": passwordHash,
					// Backdated slightly so a token issued in the same second
					// as the change still verifies as fresh.
					"passwordChangedAt": time.Now().UTC().Add(-2 * time.Second),
				},
				"$unset": bson.M{
					"passwordResetToken":     "",
					"passwordResetExpiresAt": "",
				},
			},
		)

		return err
	})

	if err != nil {
		return err
	}

	if res.MatchedCount == 0 {
		return ErrUserNotFound
	}

	return nil
}

// SetResetToken persists the reset-token digest and its expiry as a partial
// update; the plaintext never reaches this layer.
func (r *UsersRepo) SetResetToken(ctx context.Context, id string, digest string, expiresAt time.Time) error {
	oid, err := primitive.ObjectIDFromHex(id)

	if err != nil {
		return ErrInvalidID
	}

	var res *mongo.UpdateResult

	err = r.observe("users.set_reset_token", func() error {
		var err error

		res, err = r.col.UpdateOne(
			ctx,
			activeOnly(bson.M{"_id": oid}),
			bson.M{"$set": bson.M{
				"passwordResetToken":     digest,
				"passwordResetExpiresAt": expiresAt,
			}},
		)

		return err
	})

	if err != nil {
		return err
	}

	if res.MatchedCount == 0 {
		return ErrUserNotFound
	}

	return nil
}

// ClearResetToken is the compensating write for a failed reset email: both
// fields go away together.
func (r *UsersRepo) ClearResetToken(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)

	if err != nil {
		return ErrInvalidID
	}

	return r.observe("users.clear_reset_token", func() error {
		_, err := r.col.UpdateOne(
			ctx,
			bson.M{"_id": oid},
			bson.M{"$unset": bson.M{
				"passwordResetToken":     "",
				"passwordResetExpiresAt": "",
			}},
		)

		return err
	})
}

// ConsumeResetToken atomically matches the digest against an unexpired stored
// token and installs the new password hash. The single findAndModify is what
// guarantees a token is consumed at most once.
func (r *UsersRepo) ConsumeResetToken(ctx context.Context, digest string, passwordHash string) (user.User, error) {
	now := time.Now().UTC()

	var u user.User

	err := r.observe("users.consume_reset_token", func() error {
		return r.col.FindOneAndUpdate(
			ctx,
			activeOnly(bson.M{
				"passwordResetToken":     digest,
				"passwordResetExpiresAt": bson.M{"$gt": now},
			}),
			bson.M{
				"$set": bson.M{
					"password":          passwordHash,
					"passwordChangedAt": now.Add(-2 * time.Second),
				},
				"$unset": bson.M{
					"passwordResetToken":     "",
					"passwordResetExpiresAt": "",
				},
			},
			options.FindOneAndUpdate().SetReturnDocument(options.After),
		).Decode(&u)
	})

	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return user.User{}, ErrResetTokenInvalid
		}

		return user.User{}, err
	}

	return u, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
