package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Ingredient struct {
	ID        string `bson:"id"                  json:"id"`
	Value     string `bson:"value"               json:"value"`
	IsSection bool   `bson:"isSection,omitempty" json:"isSection,omitempty"`
}

// Method is one numbered preparation step, optionally illustrated.
type Method struct {
	Value     string `bson:"value"                json:"value"`
	Number    int    `bson:"number"               json:"number"`
	PublicID  string `bson:"public_id,omitempty"  json:"public_id,omitempty"`
	SecureURL string `bson:"secure_url,omitempty" json:"secure_url,omitempty"`
}

// Author is copied from the owner when the recipe is created and never
// refreshed afterwards.
type Author struct {
	Name     string `bson:"name"            json:"name"`
	Username string `bson:"username"        json:"username"`
	Image    string `bson:"image,omitempty" json:"image,omitempty"`
}

type Recipe struct {
	ID            primitive.ObjectID   `bson:"_id,omitempty"             json:"_id"`
	UserID        primitive.ObjectID   `bson:"userId"                    json:"userId"`
	Title         string               `bson:"title"                     json:"title"`
	Info          string               `bson:"info,omitempty"            json:"info,omitempty"`
	Ingredients   []Ingredient         `bson:"ingredients"               json:"ingredients"`
	Methods       []Method             `bson:"methods"                   json:"methods"`
	Categories    []string             `bson:"categories"                json:"categories"`
	Author        Author               `bson:"author"                    json:"author"`
	Likes         int                  `bson:"likes"                     json:"likes"`
	Image         string               `bson:"image,omitempty"           json:"image,omitempty"`
	ImagePublicID string               `bson:"image_public_id,omitempty" json:"image_public_id,omitempty"`
	CommentIDs    []primitive.ObjectID `bson:"comments_id"               json:"comments_id"`
	CreatedAt     time.Time            `bson:"createdAt"                 json:"createdAt"`
	UpdatedAt     time.Time            `bson:"updatedAt"                 json:"updatedAt"`
}

// Normalize replaces nil slices with empty ones so documents always carry
// arrays that $push can target.
func (r *Recipe) Normalize() {
	if r.Ingredients == nil {
		r.Ingredients = []Ingredient{}
	}
	if r.Methods == nil {
		r.Methods = []Method{}
	}
	if r.Categories == nil {
		r.Categories = []string{}
	}
	if r.CommentIDs == nil {
		r.CommentIDs = []primitive.ObjectID{}
	}
}

// RecipeView is a recipe with its comments and owner avatar resolved.
type RecipeView struct {
	Recipe    `bson:",inline"`
	Comments  []CommentView `json:"comments"`
	UserImage string        `json:"userImage,omitempty"`
}

// AuthorLikes is the total like count across one author's recipes.
type AuthorLikes struct {
	Username   string `bson:"_id"        json:"_id"`
	TotalLikes int64  `bson:"totalLikes" json:"totalLikes"`
}
