// internal/domain/models/location.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Location is a city/state entry carrying two population figures:
// Pop is the nominal census-style number supplied at create time, while
// Population is a live counter of non-disabled users currently assigned
// here. Population is owned by the user directory and never edited
// through a location update.
type Location struct {
	ID      primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	City    string             `bson:"city" json:"city"`
	CityCI  string             `bson:"city_ci" json:"-"` // lowercase, diacritics-stripped
	State   string             `bson:"state" json:"state"`
	StateCI string             `bson:"state_ci" json:"-"`
	Pop     int                `bson:"pop" json:"pop"` // 4 digits: 1000-9999
	Loc     [2]float64         `bson:"loc" json:"loc"` // each in [-180,180]

	Population int64 `bson:"population" json:"population"` // live count, >= 0

	CreatedAt time.Time `bson:"created_at" json:"createdAt"`
	UpdatedAt time.Time `bson:"updated_at" json:"updatedAt"`
}
