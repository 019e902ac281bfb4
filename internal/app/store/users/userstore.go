// Package userstore owns the users collection and the population
// bookkeeping that ties user writes to the locations collection.
// Cross-collection writes run inside a transaction so a failed half
// never leaves counters drifting.
package userstore

import (
	"context"
	"time"

	locationstore "github.com/LunarMoonDev/user-location/internal/app/store/locations"
	"github.com/LunarMoonDev/user-location/internal/app/system/apperr"
	"github.com/LunarMoonDev/user-location/internal/app/system/normalize"
	"github.com/LunarMoonDev/user-location/internal/app/system/paging"
	"github.com/LunarMoonDev/user-location/internal/app/system/txn"
	"github.com/LunarMoonDev/user-location/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

var (
	// ErrEmailTaken is returned when a create or update would reuse an
	// email that belongs to another user, active or disabled.
	ErrEmailTaken = apperr.Conflict("Email already taken")
	// ErrUserNotFound is returned when an id does not resolve.
	ErrUserNotFound = apperr.NotFound("User not found")
	// ErrDisableViaDelete rejects PATCH payloads that try to disable a
	// user; soft-deletion goes through the delete endpoint so counters
	// stay consistent.
	ErrDisableViaDelete = apperr.Validation("Please use the DELETE /users API instead")
)

type Store struct {
	db   *mongo.Database
	c    *mongo.Collection
	locs *locationstore.Store
	log  *zap.Logger
}

func New(db *mongo.Database, log *zap.Logger) *Store {
	return &Store{
		db:   db,
		c:    db.Collection("users"),
		locs: locationstore.New(db),
		log:  log,
	}
}

// Create inserts a new user. When loc is non-nil the referenced
// location's live population is incremented in the same transaction as
// the insert; a missing location aborts the whole operation and no
// user is persisted.
func (s *Store) Create(ctx context.Context, u models.User, loc *locationstore.Key) (models.User, error) {
	u.ID = primitive.NewObjectID()
	u.FirstName = normalize.Name(u.FirstName)
	u.LastName = normalize.Name(u.LastName)
	u.Email = normalize.Email(u.Email)
	u.Role = normalize.Role(u.Role)
	if u.Role == "" {
		u.Role = "user"
	}
	u.IsDisabled = false
	u.LocationID = nil

	now := time.Now().UTC()
	u.CreatedAt = now
	u.UpdatedAt = now

	taken, err := s.emailExists(ctx, u.Email, nil)
	if err != nil {
		return models.User{}, err
	}
	if taken {
		return models.User{}, ErrEmailTaken
	}

	if loc == nil {
		if _, err := s.c.InsertOne(ctx, u); err != nil {
			if wafflemongo.IsDup(err) {
				return models.User{}, ErrEmailTaken
			}
			return models.User{}, err
		}
		return u, nil
	}

	err = txn.Run(ctx, s.db, s.log, func(sc context.Context) error {
		l, err := s.locs.IncPopulation(sc, *loc)
		if err != nil {
			return err
		}
		u.LocationID = &l.ID
		if _, err := s.c.InsertOne(sc, u); err != nil {
			if wafflemongo.IsDup(err) {
				return ErrEmailTaken
			}
			return err
		}
		return nil
	})
	if err != nil {
		return models.User{}, err
	}
	return u, nil
}

// Patch holds the updatable user fields. Nil fields are left as-is.
type Patch struct {
	FirstName  *string
	LastName   *string
	Email      *string
	Role       *string
	Location   *locationstore.Key
	IsDisabled *bool
}

// Update applies a partial update by id.
//
// Setting isDisabled=true is rejected with ErrDisableViaDelete.
// Reactivating a disabled user together with a location increments the
// target location's counter in the same transaction. A plain location
// change on an active user only moves the reference; counters are
// settled by the delete path.
func (s *Store) Update(ctx context.Context, id primitive.ObjectID, p Patch) (*models.User, error) {
	cur, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if p.IsDisabled != nil && *p.IsDisabled {
		return nil, ErrDisableViaDelete
	}

	set := bson.M{"updated_at": time.Now().UTC()}
	if p.FirstName != nil {
		set["first_name"] = normalize.Name(*p.FirstName)
	}
	if p.LastName != nil {
		set["last_name"] = normalize.Name(*p.LastName)
	}
	if p.Email != nil {
		email := normalize.Email(*p.Email)
		taken, err := s.emailExists(ctx, email, &id)
		if err != nil {
			return nil, err
		}
		if taken {
			return nil, ErrEmailTaken
		}
		set["email"] = email
	}
	if p.Role != nil {
		set["role"] = normalize.Role(*p.Role)
	}
	if p.IsDisabled != nil {
		set["is_disabled"] = false
	}

	reactivating := cur.IsDisabled && p.IsDisabled != nil && !*p.IsDisabled

	if p.Location != nil && !reactivating {
		l, err := s.locs.GetByKey(ctx, *p.Location)
		if err != nil {
			return nil, err
		}
		set["location"] = l.ID
	}

	apply := func(sc context.Context) (*models.User, error) {
		after := options.FindOneAndUpdate().SetReturnDocument(options.After)
		var updated models.User
		err := s.c.FindOneAndUpdate(sc, bson.M{"_id": id}, bson.M{"$set": set}, after).Decode(&updated)
		if err != nil {
			if err == mongo.ErrNoDocuments {
				return nil, ErrUserNotFound
			}
			if wafflemongo.IsDup(err) {
				return nil, ErrEmailTaken
			}
			return nil, err
		}
		return &updated, nil
	}

	if reactivating && p.Location != nil {
		// The user rejoins a location: counter and reference move together.
		var updated *models.User
		err := txn.Run(ctx, s.db, s.log, func(sc context.Context) error {
			l, err := s.locs.IncPopulation(sc, *p.Location)
			if err != nil {
				return err
			}
			set["location"] = l.ID
			updated, err = apply(sc)
			return err
		})
		if err != nil {
			return nil, err
		}
		return updated, nil
	}

	return apply(ctx)
}

// UserWithLocation is a user row with its location document populated.
type UserWithLocation struct {
	models.User `bson:",inline"`
	Location    *models.Location `bson:"location_doc" json:"location,omitempty"`
}

// Filter narrows a user listing. Empty fields are ignored; values are
// matched in normalized form.
type Filter struct {
	FirstName string
	LastName  string
	Email     string
	Role      string
}

func (f Filter) match() bson.M {
	match := bson.M{"is_disabled": false}
	if f.FirstName != "" {
		match["first_name"] = normalize.Name(f.FirstName)
	}
	if f.LastName != "" {
		match["last_name"] = normalize.Name(f.LastName)
	}
	if f.Email != "" {
		match["email"] = normalize.Email(f.Email)
	}
	if f.Role != "" {
		match["role"] = normalize.Role(f.Role)
	}
	return match
}

// Query lists active users with their locations joined in. Disabled
// users never appear regardless of the filter.
func (s *Store) Query(ctx context.Context, f Filter, opts paging.Options) (paging.Page[UserWithLocation], error) {
	match := f.match()

	total, err := s.c.CountDocuments(ctx, match)
	if err != nil {
		return paging.Page[UserWithLocation]{}, err
	}

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: match}},
		{{Key: "$sort", Value: opts.Sort()}},
		{{Key: "$skip", Value: opts.Skip()}},
		{{Key: "$limit", Value: opts.Limit64()}},
		{{Key: "$lookup", Value: bson.M{
			"from":         "locations",
			"localField":   "location",
			"foreignField": "_id",
			"as":           "location_doc",
		}}},
		{{Key: "$unwind", Value: bson.M{
			"path":                       "$location_doc",
			"preserveNullAndEmptyArrays": true,
		}}},
	}

	cur, err := s.c.Aggregate(ctx, pipeline)
	if err != nil {
		return paging.Page[UserWithLocation]{}, err
	}
	defer cur.Close(ctx)

	var rows []UserWithLocation
	if err := cur.All(ctx, &rows); err != nil {
		return paging.Page[UserWithLocation]{}, err
	}
	return paging.NewPage(rows, opts, total), nil
}

// Delete soft-deletes a batch of users and settles the population
// counters of their locations, one decrement per user whose disabled
// flag actually flipped. Already-disabled and unknown ids are ignored,
// which makes the operation idempotent. Returns the number of users
// disabled by this call.
func (s *Store) Delete(ctx context.Context, ids []primitive.ObjectID) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	var count int64
	err := txn.Run(ctx, s.db, s.log, func(sc context.Context) error {
		count = 0

		// Only users flipping active -> disabled contribute decrements.
		find := options.Find().SetProjection(bson.M{"location": 1})
		cur, err := s.c.Find(sc, bson.M{
			"_id":         bson.M{"$in": ids},
			"is_disabled": false,
		}, find)
		if err != nil {
			return err
		}

		var locIDs []primitive.ObjectID
		var perUser []primitive.ObjectID
		for cur.Next(sc) {
			var row struct {
				LocationID *primitive.ObjectID `bson:"location"`
			}
			if err := cur.Decode(&row); err != nil {
				cur.Close(sc)
				return err
			}
			if row.LocationID != nil {
				locIDs = append(locIDs, *row.LocationID)
				perUser = append(perUser, *row.LocationID)
			}
		}
		if err := cur.Err(); err != nil {
			cur.Close(sc)
			return err
		}
		cur.Close(sc)

		res, err := s.c.UpdateMany(sc,
			bson.M{"_id": bson.M{"$in": ids}, "is_disabled": false},
			bson.M{"$set": bson.M{"is_disabled": true, "updated_at": time.Now().UTC()}})
		if err != nil {
			return err
		}
		count = res.ModifiedCount

		if len(perUser) == 0 {
			return nil
		}

		keysByID, err := s.locs.KeysByIDs(sc, locIDs)
		if err != nil {
			return err
		}
		keys := make([]locationstore.Key, 0, len(perUser))
		for _, lid := range perUser {
			if k, ok := keysByID[lid]; ok {
				keys = append(keys, k)
			}
		}
		return s.locs.DecPopulationBulk(sc, keys)
	})
	if err != nil {
		return 0, err
	}
	return count, nil
}

// GetByID loads a user by id, disabled or not.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	var u models.User
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&u); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &u, nil
}

// GetByProviderSubject loads the user owning an OAuth identity.
// Returns (nil, nil) when no such user exists so the login flow can
// branch without error juggling.
func (s *Store) GetByProviderSubject(ctx context.Context, provider, subject string) (*models.User, error) {
	var u models.User
	err := s.c.FindOne(ctx, bson.M{
		"account.provider": normalize.Provider(provider),
		"account.subject":  subject,
	}).Decode(&u)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, err
	}
	return &u, nil
}

// ReplaceAccount overwrites a user's OAuth account wholesale and
// reactivates the user; signing in again revives a soft-deleted user.
func (s *Store) ReplaceAccount(ctx context.Context, provider, subject, email string, acct models.Account) error {
	res, err := s.c.UpdateOne(ctx,
		identityFilter(provider, subject, email),
		bson.M{"$set": bson.M{
			"account":     acct,
			"is_disabled": false,
			"updated_at":  time.Now().UTC(),
		}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrUserNotFound
	}
	return nil
}

// UpdateTokens stores a refreshed access token without touching the
// rest of the account.
func (s *Store) UpdateTokens(ctx context.Context, provider, subject, email, accessToken string, expireDate int64) error {
	res, err := s.c.UpdateOne(ctx,
		identityFilter(provider, subject, email),
		bson.M{"$set": bson.M{
			"account.access_token": accessToken,
			"account.expire_date":  expireDate,
			"updated_at":           time.Now().UTC(),
		}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrUserNotFound
	}
	return nil
}

func identityFilter(provider, subject, email string) bson.M {
	return bson.M{
		"account.provider": normalize.Provider(provider),
		"account.subject":  subject,
		"email":            normalize.Email(email),
	}
}

func (s *Store) emailExists(ctx context.Context, email string, excludeID *primitive.ObjectID) (bool, error) {
	filter := bson.M{"email": email}
	if excludeID != nil {
		filter["_id"] = bson.M{"$ne": *excludeID}
	}
	err := s.c.FindOne(ctx, filter, options.FindOne().SetProjection(bson.M{"_id": 1})).Err()
	if err == nil {
		return true, nil
	}
	if err == mongo.ErrNoDocuments {
		return false, nil
	}
	return false, err
}
