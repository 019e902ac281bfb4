package locationstore

import (
	"context"
	"strings"
	"time"

	"github.com/LunarMoonDev/user-location/internal/app/system/apperr"
	"github.com/LunarMoonDev/user-location/internal/app/system/paging"
	"github.com/LunarMoonDev/user-location/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	// ErrDuplicate is returned when a (city, state) pair already exists.
	ErrDuplicate = apperr.Conflict("Location already exist")
	// ErrDuplicatePatch is returned when an update would collide with
	// another location's (city, state) pair.
	ErrDuplicatePatch = apperr.Conflict("Given location in the payload already exist")
	// ErrNotFound is returned when a referenced location is absent.
	ErrNotFound = apperr.NotFound("Location does not exist")
)

// Key identifies a location by its city/state pair. Matching is
// case-insensitive via the folded *_ci fields.
type Key struct {
	City  string
	State string
}

func (k Key) filter() bson.M {
	return bson.M{
		"city_ci":  text.Fold(strings.TrimSpace(k.City)),
		"state_ci": text.Fold(strings.TrimSpace(k.State)),
	}
}

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("locations")}
}

// Create inserts a new location with a zeroed live population counter.
// Returns ErrDuplicate if the (city, state) pair is taken; the unique
// index backstops the pre-check under races.
func (s *Store) Create(ctx context.Context, l models.Location) (models.Location, error) {
	l.ID = primitive.NewObjectID()
	l.City = strings.TrimSpace(l.City)
	l.CityCI = text.Fold(l.City)
	l.State = strings.TrimSpace(l.State)
	l.StateCI = text.Fold(l.State)
	l.Population = 0

	now := time.Now().UTC()
	l.CreatedAt = now
	l.UpdatedAt = now

	// Pre-check for the friendlier error; the unique index is authoritative.
	err := s.c.FindOne(ctx, Key{City: l.City, State: l.State}.filter()).Err()
	if err == nil {
		return models.Location{}, ErrDuplicate
	}
	if err != mongo.ErrNoDocuments {
		return models.Location{}, err
	}

	if _, err := s.c.InsertOne(ctx, l); err != nil {
		if wafflemongo.IsDup(err) {
			return models.Location{}, ErrDuplicate
		}
		return models.Location{}, err
	}
	return l, nil
}

// GetByID loads a location by ObjectID. Returns ErrNotFound when absent.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Location, error) {
	var l models.Location
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&l); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &l, nil
}

// GetByKey loads the unique location for a city/state pair.
// Returns ErrNotFound when absent.
func (s *Store) GetByKey(ctx context.Context, k Key) (*models.Location, error) {
	var l models.Location
	if err := s.c.FindOne(ctx, k.filter()).Decode(&l); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &l, nil
}

// Filter narrows a location listing. Empty fields are ignored.
type Filter struct {
	City  string
	State string
}

// Query returns a page of locations matching the filter.
func (s *Store) Query(ctx context.Context, f Filter, opts paging.Options) (paging.Page[models.Location], error) {
	match := bson.M{}
	if f.City != "" {
		match["city_ci"] = text.Fold(strings.TrimSpace(f.City))
	}
	if f.State != "" {
		match["state_ci"] = text.Fold(strings.TrimSpace(f.State))
	}

	total, err := s.c.CountDocuments(ctx, match)
	if err != nil {
		return paging.Page[models.Location]{}, err
	}

	find := options.Find().
		SetSort(opts.Sort()).
		SetSkip(opts.Skip()).
		SetLimit(opts.Limit64())

	cur, err := s.c.Find(ctx, match, find)
	if err != nil {
		return paging.Page[models.Location]{}, err
	}
	defer cur.Close(ctx)

	var rows []models.Location
	if err := cur.All(ctx, &rows); err != nil {
		return paging.Page[models.Location]{}, err
	}
	return paging.NewPage(rows, opts, total), nil
}

// Patch holds the updatable location fields. Nil fields are left as-is.
// The live population counter is deliberately not patchable.
type Patch struct {
	City  *string
	State *string
	Pop   *int
	Loc   *[2]float64
}

// Update applies a partial update by id. When the effective (city,
// state) pair would collide with a different location it returns
// ErrDuplicatePatch; when id does not resolve, ErrNotFound.
func (s *Store) Update(ctx context.Context, id primitive.ObjectID, p Patch) (*models.Location, error) {
	cur, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	city := cur.City
	if p.City != nil {
		city = strings.TrimSpace(*p.City)
	}
	state := cur.State
	if p.State != nil {
		state = strings.TrimSpace(*p.State)
	}

	if p.City != nil || p.State != nil {
		collide := Key{City: city, State: state}.filter()
		collide["_id"] = bson.M{"$ne": id}
		err := s.c.FindOne(ctx, collide).Err()
		if err == nil {
			return nil, ErrDuplicatePatch
		}
		if err != mongo.ErrNoDocuments {
			return nil, err
		}
	}

	set := bson.M{
		"city":       city,
		"city_ci":    text.Fold(city),
		"state":      state,
		"state_ci":   text.Fold(state),
		"updated_at": time.Now().UTC(),
	}
	if p.Pop != nil {
		set["pop"] = *p.Pop
	}
	if p.Loc != nil {
		set["loc"] = *p.Loc
	}

	after := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var updated models.Location
	if err := s.c.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set}, after).Decode(&updated); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		if wafflemongo.IsDup(err) {
			return nil, ErrDuplicatePatch
		}
		return nil, err
	}
	return &updated, nil
}

// Delete removes the given locations, skipping any whose live
// population is non-zero. Returns the number actually deleted.
func (s *Store) Delete(ctx context.Context, ids []primitive.ObjectID) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res, err := s.c.DeleteMany(ctx, bson.M{
		"_id":        bson.M{"$in": ids},
		"population": 0,
	})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// IncPopulation atomically bumps the live counter for the location
// matching the key and returns the updated document. Returns
// ErrNotFound when no such location exists. Callers run this inside
// the same transaction as the user write that caused it.
func (s *Store) IncPopulation(ctx context.Context, k Key) (*models.Location, error) {
	after := options.FindOneAndUpdate().SetReturnDocument(options.After)
	update := bson.M{
		"$inc": bson.M{"population": 1},
		"$set": bson.M{"updated_at": time.Now().UTC()},
	}

	var l models.Location
	if err := s.c.FindOneAndUpdate(ctx, k.filter(), update, after).Decode(&l); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &l, nil
}

// DecPopulation atomically lowers the live counter for the location
// matching the key. The population>0 guard keeps the counter from
// going negative; a no-match is not an error.
func (s *Store) DecPopulation(ctx context.Context, k Key) error {
	filter := k.filter()
	filter["population"] = bson.M{"$gt": 0}
	_, err := s.c.UpdateOne(ctx, filter, bson.M{
		"$inc": bson.M{"population": -1},
		"$set": bson.M{"updated_at": time.Now().UTC()},
	})
	return err
}

// DecPopulationBulk lowers counters for a batch of keys, one decrement
// per occurrence (duplicates intended: two users in the same city mean
// two decrements). Runs as an unordered bulk write.
func (s *Store) DecPopulationBulk(ctx context.Context, keys []Key) error {
	if len(keys) == 0 {
		return nil
	}

	now := time.Now().UTC()
	writes := make([]mongo.WriteModel, 0, len(keys))
	for _, k := range keys {
		filter := k.filter()
		filter["population"] = bson.M{"$gt": 0}
		writes = append(writes, mongo.NewUpdateOneModel().
			SetFilter(filter).
			SetUpdate(bson.M{
				"$inc": bson.M{"population": -1},
				"$set": bson.M{"updated_at": now},
			}))
	}

	_, err := s.c.BulkWrite(ctx, writes, options.BulkWrite().SetOrdered(false))
	return err
}

// KeysByIDs resolves location ids to their city/state keys.
func (s *Store) KeysByIDs(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]Key, error) {
	out := make(map[primitive.ObjectID]Key, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	cur, err := s.c.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	for cur.Next(ctx) {
		var l models.Location
		if err := cur.Decode(&l); err != nil {
			return nil, err
		}
		out[l.ID] = Key{City: l.City, State: l.State}
	}
	return out, cur.Err()
}
