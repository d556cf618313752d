package models

import (
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type User struct {
	ID            primitive.ObjectID   `bson:"_id,omitempty"             json:"_id"`
	FirstName     string               `bson:"firstName"                 json:"firstName"`
	LastName      string               `bson:"lastName"                  json:"lastName"`
	Username      string               `bson:"username"                  json:"username"`
	Password      string               `bson:"password"                  json:"-"`
	Bio           string               `bson:"bio,omitempty"             json:"bio,omitempty"`
	Image         string               `bson:"image,omitempty"           json:"image,omitempty"`
	ImagePublicID string               `bson:"image_public_id,omitempty" json:"image_public_id,omitempty"`
	RecipeIDs     []primitive.ObjectID `bson:"recipe_id"                 json:"recipe_id"`
	FavoriteIDs   []primitive.ObjectID `bson:"favorites_id"              json:"favorites_id"`
	CreatedAt     time.Time            `bson:"createdAt"                 json:"createdAt"`
	UpdatedAt     time.Time            `bson:"updatedAt"                 json:"updatedAt"`
}

func (u *User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

func (u *User) Normalize() {
	if u.RecipeIDs == nil {
		u.RecipeIDs = []primitive.ObjectID{}
	}
	if u.FavoriteIDs == nil {
		u.FavoriteIDs = []primitive.ObjectID{}
	}
}

// Snapshot copies the display fields stored on a recipe at creation.
func (u *User) Snapshot() Author {
	return Author{Name: u.FullName(), Username: u.Username, Image: u.Image}
}

func (u *User) HasFavorite(id primitive.ObjectID) bool {
	for _, f := range u.FavoriteIDs {
		if f == id {
			return true
		}
	}
	return false
}
