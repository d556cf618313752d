package mongostore

import (
	"testing"
	"time"

	"recipehub/store"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson"
)

func TestRecipeFilter_Empty(t *testing.T) {
	assert.Equal(t, bson.M{}, recipeFilter(store.Query{}))
}

func TestRecipeFilter_QuotesUserText(t *testing.T) {
	f := recipeFilter(store.Query{Title: "mac & cheese (v2)", Ingredients: []string{"1.5 cups", "salt"}})

	assert.Equal(t, bson.M{"$regex": `mac & cheese \(v2\)`, "$options": "i"}, f["title"])
	assert.Equal(t, bson.A{
		bson.M{"ingredients.value": bson.M{"$regex": `1\.5 cups`, "$options": "i"}},
		bson.M{"ingredients.value": bson.M{"$regex": "salt", "$options": "i"}},
	}, f["$and"])
}

func TestRecipeFilter_CategoriesAndWindow(t *testing.T) {
	since := time.Date(2026, 10, 9, 0, 0, 0, 0, time.UTC)
	f := recipeFilter(store.Query{Categories: []string{"vegan", "quick"}, Since: since})

	assert.Equal(t, bson.M{"$in": []string{"vegan", "quick"}}, f["categories"])
	assert.Equal(t, bson.M{"$gte": since}, f["createdAt"])
	assert.NotContains(t, f, "title")
}
