// Package memstore is an in-process implementation of the store contracts,
// used when no database is configured and throughout the tests.
package memstore

import (
	"context"
	"math/rand"
	"sort"
	"sync"
	"time"

	"recipehub/models"
	"recipehub/store"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Store struct {
	mu       sync.RWMutex
	now      func() time.Time
	users    map[primitive.ObjectID]*models.User
	recipes  map[primitive.ObjectID]*models.Recipe
	order    []primitive.ObjectID // recipe insertion order
	comments map[primitive.ObjectID]*models.Comment
}

type Option func(*Store)

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

func New(opts ...Option) *Store {
	s := &Store{
		now:      time.Now,
		users:    make(map[primitive.ObjectID]*models.User),
		recipes:  make(map[primitive.ObjectID]*models.Recipe),
		comments: make(map[primitive.ObjectID]*models.Comment),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

var (
	_ store.Users    = (*Store)(nil)
	_ store.Recipes  = (*Store)(nil)
	_ store.Comments = (*Store)(nil)
)

func copyUser(u *models.User) *models.User {
	c := *u
	c.RecipeIDs = append([]primitive.ObjectID{}, u.RecipeIDs...)
	c.FavoriteIDs = append([]primitive.ObjectID{}, u.FavoriteIDs...)
	return &c
}

func copyRecipe(r *models.Recipe) *models.Recipe {
	c := *r
	c.Ingredients = append([]models.Ingredient{}, r.Ingredients...)
	c.Methods = append([]models.Method{}, r.Methods...)
	c.Categories = append([]string{}, r.Categories...)
	c.CommentIDs = append([]primitive.ObjectID{}, r.CommentIDs...)
	return &c
}

func prepend(ids []primitive.ObjectID, id primitive.ObjectID) []primitive.ObjectID {
	return append([]primitive.ObjectID{id}, ids...)
}

func remove(ids []primitive.ObjectID, id primitive.ObjectID) ([]primitive.ObjectID, bool) {
	out := ids[:0:0]
	removed := false
	for _, x := range ids {
		if x == id {
			removed = true
			continue
		}
		out = append(out, x)
	}
	return out, removed
}

// users

func (s *Store) CreateUser(_ context.Context, u *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.users {
		if existing.Username == u.Username {
			return store.ErrDuplicate
		}
	}
	if u.ID.IsZero() {
		u.ID = primitive.NewObjectID()
	}
	now := s.now()
	u.CreatedAt, u.UpdatedAt = now, now
	u.Normalize()
	s.users[u.ID] = copyUser(u)
	return nil
}

func (s *Store) UserByID(_ context.Context, id primitive.ObjectID) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return copyUser(u), nil
}

func (s *Store) UserByUsername(_ context.Context, username string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if u.Username == username {
			return copyUser(u), nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *Store) UsersByIDs(_ context.Context, ids []primitive.ObjectID) ([]models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.User, 0, len(ids))
	for _, id := range ids {
		if u, ok := s.users[id]; ok {
			out = append(out, *copyUser(u))
		}
	}
	return out, nil
}

func (s *Store) UpdateProfile(_ context.Context, id primitive.ObjectID, upd store.ProfileUpdate) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	if upd.Username != "" && upd.Username != u.Username {
		for _, other := range s.users {
			if other.Username == upd.Username {
				return nil, store.ErrDuplicate
			}
		}
		u.Username = upd.Username
	}
	if upd.FirstName != "" {
		u.FirstName = upd.FirstName
	}
	if upd.LastName != "" {
		u.LastName = upd.LastName
	}
	if upd.Bio != nil {
		u.Bio = *upd.Bio
	}
	u.UpdatedAt = s.now()
	return copyUser(u), nil
}

func (s *Store) SetAvatar(_ context.Context, id primitive.ObjectID, url, handle string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	u.Image, u.ImagePublicID = url, handle
	u.UpdatedAt = s.now()
	return copyUser(u), nil
}

func (s *Store) PrependRecipe(_ context.Context, userID, recipeID primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok {
		return store.ErrNotFound
	}
	u.RecipeIDs = prepend(u.RecipeIDs, recipeID)
	return nil
}

func (s *Store) AddFavorite(_ context.Context, userID, recipeID primitive.ObjectID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok {
		return false, store.ErrNotFound
	}
	if u.HasFavorite(recipeID) {
		return false, nil
	}
	u.FavoriteIDs = prepend(u.FavoriteIDs, recipeID)
	return true, nil
}

func (s *Store) RemoveFavorite(_ context.Context, userID, recipeID primitive.ObjectID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok {
		return false, store.ErrNotFound
	}
	var removed bool
	u.FavoriteIDs, removed = remove(u.FavoriteIDs, recipeID)
	return removed, nil
}

func (s *Store) CountUsers(context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.users)), nil
}

// recipes

func (s *Store) CreateRecipe(_ context.Context, r *models.Recipe) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r.ID.IsZero() {
		r.ID = primitive.NewObjectID()
	}
	if _, exists := s.recipes[r.ID]; exists {
		return store.ErrDuplicate
	}
	now := s.now()
	r.CreatedAt, r.UpdatedAt = now, now
	r.Normalize()
	s.recipes[r.ID] = copyRecipe(r)
	s.order = append(s.order, r.ID)
	return nil
}

func (s *Store) RecipeByID(_ context.Context, id primitive.ObjectID) (*models.Recipe, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.recipes[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return copyRecipe(r), nil
}

func (s *Store) RecipesByIDs(_ context.Context, ids []primitive.ObjectID) ([]models.Recipe, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Recipe, 0, len(ids))
	for _, id := range ids {
		if r, ok := s.recipes[id]; ok {
			out = append(out, *copyRecipe(r))
		}
	}
	return out, nil
}

func (s *Store) UpdateRecipe(_ context.Context, id primitive.ObjectID, upd store.RecipeUpdate) (*models.Recipe, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.recipes[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	r.Title = upd.Title
	r.Info = upd.Info
	r.Ingredients = upd.Ingredients
	r.Categories = upd.Categories
	r.Methods = upd.Methods
	r.Normalize()
	r.UpdatedAt = s.now()
	return copyRecipe(r), nil
}

func (s *Store) SetRecipeImage(_ context.Context, id primitive.ObjectID, url, handle string) (*models.Recipe, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.recipes[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	r.Image, r.ImagePublicID = url, handle
	r.UpdatedAt = s.now()
	return copyRecipe(r), nil
}

func (s *Store) DeleteRecipe(_ context.Context, id primitive.ObjectID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.recipes[id]; !ok {
		return false, nil
	}
	delete(s.recipes, id)
	s.order, _ = remove(s.order, id)
	return true, nil
}

func (s *Store) AdjustLikes(_ context.Context, id primitive.ObjectID, delta int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.recipes[id]
	if !ok {
		return store.ErrNotFound
	}
	r.Likes += delta
	return nil
}

func (s *Store) PrependComment(_ context.Context, recipeID, commentID primitive.ObjectID) (*models.Recipe, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.recipes[recipeID]
	if !ok {
		return nil, store.ErrNotFound
	}
	r.CommentIDs = prepend(r.CommentIDs, commentID)
	r.UpdatedAt = s.now()
	return copyRecipe(r), nil
}

func (s *Store) FindRecipes(_ context.Context, q store.Query) ([]models.Recipe, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []models.Recipe{}
	for _, id := range s.order {
		r := s.recipes[id]
		if q.Matches(r) {
			out = append(out, *copyRecipe(r))
		}
	}
	return q.Apply(out), nil
}

func (s *Store) SampleRecipes(_ context.Context, n int) ([]models.Recipe, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []models.Recipe{}
	for _, i := range rand.Perm(len(s.order)) {
		if len(out) == n {
			break
		}
		out = append(out, *copyRecipe(s.recipes[s.order[i]]))
	}
	return out, nil
}

func (s *Store) CountRecipes(context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.recipes)), nil
}

func (s *Store) TopAuthors(_ context.Context, limit int) ([]models.AuthorLikes, error) {
	s.mu.RLock()
	totals := map[string]int64{}
	for _, r := range s.recipes {
		totals[r.Author.Username] += int64(r.Likes)
	}
	s.mu.RUnlock()

	out := make([]models.AuthorLikes, 0, len(totals))
	for name, total := range totals {
		out = append(out, models.AuthorLikes{Username: name, TotalLikes: total})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].TotalLikes != out[j].TotalLikes {
			return out[i].TotalLikes > out[j].TotalLikes
		}
		return out[i].Username < out[j].Username
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *Store) Categories(context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	seen := map[string]struct{}{}
	out := []string{}
	for _, r := range s.recipes {
		for _, c := range r.Categories {
			if _, ok := seen[c]; !ok {
				seen[c] = struct{}{}
				out = append(out, c)
			}
		}
	}
	sort.Strings(out)
	return out, nil
}

// comments

func (s *Store) CreateComment(_ context.Context, c *models.Comment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c.ID.IsZero() {
		c.ID = primitive.NewObjectID()
	}
	now := s.now()
	c.CreatedAt, c.UpdatedAt = now, now
	cp := *c
	s.comments[c.ID] = &cp
	return nil
}

func (s *Store) CommentsByIDs(_ context.Context, ids []primitive.ObjectID) ([]models.Comment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Comment, 0, len(ids))
	for _, id := range ids {
		if c, ok := s.comments[id]; ok {
			out = append(out, *c)
		}
	}
	return out, nil
}
