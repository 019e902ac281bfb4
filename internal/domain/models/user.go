// internal/domain/models/user.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Account is the OAuth identity embedded in a User. It is created at the
// first successful provider login and its tokens are rewritten on refresh.
//
// (provider, subject) identifies at most one user; a partial unique index
// on users enforces that.
type Account struct {
	Provider     string `bson:"provider" json:"provider"` // google | facebook
	Subject      string `bson:"subject" json:"subject"`
	AccessToken  string `bson:"access_token" json:"-"`
	RefreshToken string `bson:"refresh_token" json:"-"`
	ExpireDate   int64  `bson:"expire_date" json:"expireDate"` // unix seconds
}

// User represents a directory entry. Deletion is always soft: IsDisabled
// flips to true and the document stays behind, invisible to queries.
type User struct {
	ID         primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	FirstName  string              `bson:"first_name" json:"firstName"` // stored lowercase
	LastName   string              `bson:"last_name" json:"lastName"`   // stored lowercase
	Email      string              `bson:"email" json:"email"`
	Role       string              `bson:"role" json:"role"` // user | admin
	LocationID *primitive.ObjectID `bson:"location,omitempty" json:"location,omitempty"`
	IsDisabled bool                `bson:"is_disabled" json:"isDisabled"`
	Account    *Account            `bson:"account,omitempty" json:"account,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"createdAt"`
	UpdatedAt time.Time `bson:"updated_at" json:"updatedAt"`
}
