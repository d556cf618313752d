package memstore

import (
	"context"
	"testing"
	"time"

	"recipehub/models"
	"recipehub/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestUsers(t *testing.T) {
	ctx := context.Background()
	s := New()

	u := &models.User{FirstName: "Ada", LastName: "Lovelace", Username: "ada"}
	require.NoError(t, s.CreateUser(ctx, u))
	assert.False(t, u.ID.IsZero())
	assert.ErrorIs(t, s.CreateUser(ctx, &models.User{Username: "ada"}), store.ErrDuplicate)

	got, err := s.UserByUsername(ctx, "ada")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	_, err = s.UserByID(ctx, primitive.NewObjectID())
	assert.ErrorIs(t, err, store.ErrNotFound)

	other := &models.User{Username: "grace"}
	require.NoError(t, s.CreateUser(ctx, other))
	_, err = s.UpdateProfile(ctx, u.ID, store.ProfileUpdate{Username: "grace"})
	assert.ErrorIs(t, err, store.ErrDuplicate)

	bio := "analyst"
	updated, err := s.UpdateProfile(ctx, u.ID, store.ProfileUpdate{Bio: &bio})
	require.NoError(t, err)
	assert.Equal(t, "analyst", updated.Bio)
	assert.Equal(t, "ada", updated.Username)

	updated, err = s.UpdateProfile(ctx, u.ID, store.ProfileUpdate{FirstName: "Ada"})
	require.NoError(t, err)
	assert.Equal(t, "analyst", updated.Bio, "nil bio is left alone")

	empty := ""
	updated, err = s.UpdateProfile(ctx, u.ID, store.ProfileUpdate{Bio: &empty})
	require.NoError(t, err)
	assert.Empty(t, updated.Bio)

	n, err := s.CountUsers(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)
}

func TestReturnedValuesAreCopies(t *testing.T) {
	ctx := context.Background()
	s := New()
	u := &models.User{Username: "ada"}
	require.NoError(t, s.CreateUser(ctx, u))

	got, err := s.UserByID(ctx, u.ID)
	require.NoError(t, err)
	got.FavoriteIDs = append(got.FavoriteIDs, primitive.NewObjectID())

	again, err := s.UserByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Empty(t, again.FavoriteIDs)
}

func TestFavorites(t *testing.T) {
	ctx := context.Background()
	s := New()
	u := &models.User{Username: "ada"}
	require.NoError(t, s.CreateUser(ctx, u))
	first, second := primitive.NewObjectID(), primitive.NewObjectID()

	changed, err := s.AddFavorite(ctx, u.ID, first)
	require.NoError(t, err)
	assert.True(t, changed)
	changed, err = s.AddFavorite(ctx, u.ID, first)
	require.NoError(t, err)
	assert.False(t, changed)
	_, err = s.AddFavorite(ctx, u.ID, second)
	require.NoError(t, err)

	got, _ := s.UserByID(ctx, u.ID)
	assert.Equal(t, []primitive.ObjectID{second, first}, got.FavoriteIDs)

	changed, err = s.RemoveFavorite(ctx, u.ID, primitive.NewObjectID())
	require.NoError(t, err)
	assert.False(t, changed)

	changed, err = s.RemoveFavorite(ctx, u.ID, first)
	require.NoError(t, err)
	assert.True(t, changed)

	_, err = s.AddFavorite(ctx, primitive.NewObjectID(), first)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestRecipes(t *testing.T) {
	ctx := context.Background()
	clock := time.Date(2026, 10, 1, 9, 0, 0, 0, time.UTC)
	s := New(WithClock(func() time.Time { return clock }))

	old := &models.Recipe{Title: "Old Bread", Categories: []string{"baking"}, Author: models.Author{Username: "ada"}}
	require.NoError(t, s.CreateRecipe(ctx, old))
	clock = clock.Add(10 * 24 * time.Hour)
	fresh := &models.Recipe{Title: "Fresh Salad", Categories: []string{"vegan"}, Author: models.Author{Username: "grace"}}
	require.NoError(t, s.CreateRecipe(ctx, fresh))

	require.NoError(t, s.AdjustLikes(ctx, old.ID, 4))
	require.NoError(t, s.AdjustLikes(ctx, fresh.ID, 2))
	assert.ErrorIs(t, s.AdjustLikes(ctx, primitive.NewObjectID(), 1), store.ErrNotFound)

	recent, err := s.FindRecipes(ctx, store.Query{Since: clock.Add(-7 * 24 * time.Hour), Sort: store.SortRecent})
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Equal(t, fresh.ID, recent[0].ID)

	byIDs, err := s.RecipesByIDs(ctx, []primitive.ObjectID{fresh.ID, primitive.NewObjectID(), old.ID})
	require.NoError(t, err)
	require.Len(t, byIDs, 2)
	assert.Equal(t, fresh.ID, byIDs[0].ID)
	assert.Equal(t, old.ID, byIDs[1].ID)

	top, err := s.TopAuthors(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, []models.AuthorLikes{{Username: "ada", TotalLikes: 4}}, top)

	sample, err := s.SampleRecipes(ctx, 5)
	require.NoError(t, err)
	assert.Len(t, sample, 2)

	found, err := s.DeleteRecipe(ctx, old.ID)
	require.NoError(t, err)
	assert.True(t, found)
	found, err = s.DeleteRecipe(ctx, old.ID)
	require.NoError(t, err)
	assert.False(t, found)

	n, _ := s.CountRecipes(ctx)
	assert.EqualValues(t, 1, n)
}

func TestComments(t *testing.T) {
	ctx := context.Background()
	s := New()
	r := &models.Recipe{Title: "Soup"}
	require.NoError(t, s.CreateRecipe(ctx, r))

	c1 := &models.Comment{Text: "first"}
	c2 := &models.Comment{Text: "second"}
	require.NoError(t, s.CreateComment(ctx, c1))
	require.NoError(t, s.CreateComment(ctx, c2))
	_, err := s.PrependComment(ctx, r.ID, c1.ID)
	require.NoError(t, err)
	updated, err := s.PrependComment(ctx, r.ID, c2.ID)
	require.NoError(t, err)
	assert.Equal(t, []primitive.ObjectID{c2.ID, c1.ID}, updated.CommentIDs)

	got, err := s.CommentsByIDs(ctx, updated.CommentIDs)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "second", got[0].Text)

	_, err = s.PrependComment(ctx, primitive.NewObjectID(), c1.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
}
