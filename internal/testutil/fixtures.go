package testutil

import (
	"strings"
	"testing"
	"time"

	"github.com/LunarMoonDev/user-location/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// CreateLocation inserts a location document directly, bypassing the
// store, so tests can arrange arbitrary starting states.
func CreateLocation(t *testing.T, db *mongo.Database, city, state string) models.Location {
	t.Helper()
	return CreateLocationWithPopulation(t, db, city, state, 0)
}

// CreateLocationWithPopulation inserts a location with a preset live
// population counter.
func CreateLocationWithPopulation(t *testing.T, db *mongo.Database, city, state string, population int64) models.Location {
	t.Helper()

	now := time.Now().UTC()
	l := models.Location{
		ID:         primitive.NewObjectID(),
		City:       city,
		CityCI:     text.Fold(city),
		State:      state,
		StateCI:    text.Fold(state),
		Pop:        1000,
		Loc:        [2]float64{14.6, 121.0},
		Population: population,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	ctx, cancel := TestContext()
	defer cancel()
	if _, err := db.Collection("locations").InsertOne(ctx, l); err != nil {
		t.Fatalf("insert location fixture: %v", err)
	}
	return l
}

// CreateUser inserts an active user. Pass a nil locationID for a user
// without a location reference.
func CreateUser(t *testing.T, db *mongo.Database, email string, locationID *primitive.ObjectID) models.User {
	t.Helper()
	return insertUser(t, db, email, locationID, false, nil)
}

// CreateDisabledUser inserts a soft-deleted user.
func CreateDisabledUser(t *testing.T, db *mongo.Database, email string, locationID *primitive.ObjectID) models.User {
	t.Helper()
	return insertUser(t, db, email, locationID, true, nil)
}

// CreateOAuthUser inserts an active user that carries an OAuth account.
func CreateOAuthUser(t *testing.T, db *mongo.Database, email, subject string, acct models.Account) models.User {
	t.Helper()
	acct.Subject = subject
	if acct.Provider == "" {
		acct.Provider = "google"
	}
	return insertUser(t, db, email, nil, false, &acct)
}

func insertUser(t *testing.T, db *mongo.Database, email string, locationID *primitive.ObjectID, disabled bool, acct *models.Account) models.User {
	t.Helper()

	local := email
	if i := strings.IndexByte(email, '@'); i > 0 {
		local = email[:i]
	}

	now := time.Now().UTC()
	u := models.User{
		ID:         primitive.NewObjectID(),
		FirstName:  strings.ToLower(local),
		LastName:   "tester",
		Email:      strings.ToLower(email),
		Role:       "user",
		LocationID: locationID,
		IsDisabled: disabled,
		Account:    acct,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	ctx, cancel := TestContext()
	defer cancel()
	if _, err := db.Collection("users").InsertOne(ctx, u); err != nil {
		t.Fatalf("insert user fixture: %v", err)
	}
	return u
}
