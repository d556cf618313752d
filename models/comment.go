package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Comment struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	Text      string             `bson:"comment"       json:"comment"`
	UserID    primitive.ObjectID `bson:"user_id"       json:"user_id"`
	CreatedAt time.Time          `bson:"createdAt"     json:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt"     json:"updatedAt"`
}

// Commenter is the public slice of a user shown next to a comment.
type Commenter struct {
	Image     string `json:"image,omitempty"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

type CommentView struct {
	Comment
	User *Commenter `json:"user,omitempty"`
}
