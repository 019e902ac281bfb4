package userstore

import (
	"context"

	"github.com/LunarMoonDev/user-location/internal/app/system/auth"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Fetcher resolves session cookies to users. It implements
// auth.UserFetcher; a disabled or missing user resolves to nil, which
// the session layer treats as signed out.
type Fetcher struct {
	c *mongo.Collection
}

func NewFetcher(db *mongo.Database) *Fetcher {
	return &Fetcher{c: db.Collection("users")}
}

func (f *Fetcher) FetchUser(ctx context.Context, userID string) *auth.SessionUser {
	id, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return nil
	}

	var row struct {
		ID         primitive.ObjectID `bson:"_id"`
		FirstName  string             `bson:"first_name"`
		LastName   string             `bson:"last_name"`
		Email      string             `bson:"email"`
		Role       string             `bson:"role"`
		IsDisabled bool               `bson:"is_disabled"`
	}
	proj := options.FindOne().SetProjection(bson.M{
		"first_name": 1, "last_name": 1, "email": 1, "role": 1, "is_disabled": 1,
	})
	if err := f.c.FindOne(ctx, bson.M{"_id": id}, proj).Decode(&row); err != nil {
		return nil
	}
	if row.IsDisabled {
		return nil
	}

	return &auth.SessionUser{
		ID:        row.ID.Hex(),
		FirstName: row.FirstName,
		LastName:  row.LastName,
		Email:     row.Email,
		Role:      row.Role,
	}
}
