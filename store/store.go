// Package store defines the persistence contracts for users, recipes and
// comments. Implementations live in mongostore and memstore.
package store

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"recipehub/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	ErrNotFound  = errors.New("store: not found")
	ErrDuplicate = errors.New("store: duplicate key")
)

type ProfileUpdate struct {
	Username  string
	FirstName string
	LastName  string
	// Bio is nil when the field is left alone; "" clears it.
	Bio *string
}

type RecipeUpdate struct {
	Title       string
	Info        string
	Ingredients []models.Ingredient
	Categories  []string
	Methods     []models.Method
}

type Users interface {
	CreateUser(ctx context.Context, u *models.User) error
	UserByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	UserByUsername(ctx context.Context, username string) (*models.User, error)
	UsersByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.User, error)
	UpdateProfile(ctx context.Context, id primitive.ObjectID, upd ProfileUpdate) (*models.User, error)
	SetAvatar(ctx context.Context, id primitive.ObjectID, url, handle string) (*models.User, error)
	PrependRecipe(ctx context.Context, userID, recipeID primitive.ObjectID) error
	// AddFavorite prepends recipeID unless already present and reports
	// whether the list changed.
	AddFavorite(ctx context.Context, userID, recipeID primitive.ObjectID) (bool, error)
	// RemoveFavorite reports whether recipeID was present.
	RemoveFavorite(ctx context.Context, userID, recipeID primitive.ObjectID) (bool, error)
	CountUsers(ctx context.Context) (int64, error)
}

type Recipes interface {
	CreateRecipe(ctx context.Context, r *models.Recipe) error
	RecipeByID(ctx context.Context, id primitive.ObjectID) (*models.Recipe, error)
	// RecipesByIDs keeps the order of ids and skips ids that do not resolve.
	RecipesByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.Recipe, error)
	UpdateRecipe(ctx context.Context, id primitive.ObjectID, upd RecipeUpdate) (*models.Recipe, error)
	SetRecipeImage(ctx context.Context, id primitive.ObjectID, url, handle string) (*models.Recipe, error)
	DeleteRecipe(ctx context.Context, id primitive.ObjectID) (bool, error)
	AdjustLikes(ctx context.Context, id primitive.ObjectID, delta int) error
	PrependComment(ctx context.Context, recipeID, commentID primitive.ObjectID) (*models.Recipe, error)
	FindRecipes(ctx context.Context, q Query) ([]models.Recipe, error)
	SampleRecipes(ctx context.Context, n int) ([]models.Recipe, error)
	CountRecipes(ctx context.Context) (int64, error)
	TopAuthors(ctx context.Context, limit int) ([]models.AuthorLikes, error)
	// Categories lists every distinct category in use, sorted.
	Categories(ctx context.Context) ([]string, error)
}

type Comments interface {
	CreateComment(ctx context.Context, c *models.Comment) error
	CommentsByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.Comment, error)
}

type SortOrder int

const (
	SortNone SortOrder = iota
	SortRecent
	SortLikes
)

// Query filters recipes. All set filters must hold.
type Query struct {
	// Title is a case-insensitive substring of the title.
	Title string
	// Ingredients must each be a case-insensitive substring of some ingredient.
	Ingredients []string
	// Categories matches recipes sharing at least one category.
	Categories []string
	Since      time.Time
	Sort       SortOrder
	Limit      int
}

func (q Query) Matches(r *models.Recipe) bool {
	if q.Title != "" && !containsFold(r.Title, q.Title) {
		return false
	}
	for _, tok := range q.Ingredients {
		found := false
		for _, ing := range r.Ingredients {
			if containsFold(ing.Value, tok) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if len(q.Categories) > 0 && !intersects(r.Categories, q.Categories) {
		return false
	}
	if !q.Since.IsZero() && r.CreatedAt.Before(q.Since) {
		return false
	}
	return true
}

// Apply sorts and truncates an already-filtered result set in place.
func (q Query) Apply(rs []models.Recipe) []models.Recipe {
	switch q.Sort {
	case SortRecent:
		sort.SliceStable(rs, func(i, j int) bool { return rs[i].CreatedAt.After(rs[j].CreatedAt) })
	case SortLikes:
		sort.SliceStable(rs, func(i, j int) bool { return rs[i].Likes > rs[j].Likes })
	}
	if q.Limit > 0 && len(rs) > q.Limit {
		rs = rs[:q.Limit]
	}
	return rs
}

func containsFold(s, sub string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}

func intersects(have, want []string) bool {
	for _, h := range have {
		for _, w := range want {
			if h == w {
				return true
			}
		}
	}
	return false
}
