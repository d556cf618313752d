package store

import (
	"testing"
	"time"

	"recipehub/models"

	"github.com/stretchr/testify/assert"
)

func recipe(title string, cats []string, ingredients ...string) models.Recipe {
	r := models.Recipe{Title: title, Categories: cats}
	for _, v := range ingredients {
		r.Ingredients = append(r.Ingredients, models.Ingredient{Value: v})
	}
	return r
}

func TestQueryMatches(t *testing.T) {
	pasta := recipe("Tomato Pasta", []string{"italian", "dinner"}, "200g Spaghetti", "3 ripe TOMATOES", "Basil")

	tests := []struct {
		name string
		q    Query
		want bool
	}{
		{"empty query", Query{}, true},
		{"title substring any case", Query{Title: "pasta"}, true},
		{"title miss", Query{Title: "soup"}, false},
		{"single ingredient case-insensitive", Query{Ingredients: []string{"tomato"}}, true},
		{"all ingredient tokens present", Query{Ingredients: []string{"spaghetti", "basil"}}, true},
		{"one token missing", Query{Ingredients: []string{"spaghetti", "garlic"}}, false},
		{"regex metacharacters are literal", Query{Ingredients: []string{"200g.*"}}, false},
		{"category intersects", Query{Categories: []string{"dessert", "dinner"}}, true},
		{"category disjoint", Query{Categories: []string{"dessert"}}, false},
		{"filters combine", Query{Ingredients: []string{"basil"}, Categories: []string{"dessert"}}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.q.Matches(&pasta))
		})
	}
}

func TestQueryMatches_Since(t *testing.T) {
	now := time.Date(2026, 10, 16, 12, 0, 0, 0, time.UTC)
	r := models.Recipe{CreatedAt: now.Add(-8 * 24 * time.Hour)}

	assert.False(t, Query{Since: now.Add(-7 * 24 * time.Hour)}.Matches(&r))
	assert.True(t, Query{Since: now.Add(-9 * 24 * time.Hour)}.Matches(&r))
}

func TestQueryApply(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	rs := []models.Recipe{
		{Title: "a", Likes: 1, CreatedAt: base},
		{Title: "b", Likes: 5, CreatedAt: base.Add(time.Hour)},
		{Title: "c", Likes: 3, CreatedAt: base.Add(2 * time.Hour)},
	}

	byLikes := Query{Sort: SortLikes, Limit: 2}.Apply(append([]models.Recipe(nil), rs...))
	assert.Equal(t, []string{"b", "c"}, titles(byLikes))

	recent := Query{Sort: SortRecent}.Apply(append([]models.Recipe(nil), rs...))
	assert.Equal(t, []string{"c", "b", "a"}, titles(recent))
}

func titles(rs []models.Recipe) []string {
	out := make([]string, len(rs))
	for i, r := range rs {
		out[i] = r.Title
	}
	return out
}
