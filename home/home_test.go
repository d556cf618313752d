package home

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"recipehub/models"
	"recipehub/recipes"
	"recipehub/store/memstore"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seed(t *testing.T) (*memstore.Store, *recipes.Service) {
	t.Helper()
	ctx := context.Background()
	db := memstore.New()
	svc := recipes.NewService(db, db, db, nil)

	for _, name := range []string{"ann", "ben"} {
		u := &models.User{FirstName: name, Username: name}
		require.NoError(t, db.CreateUser(ctx, u))
		for i := 0; i < 2; i++ {
			r, _, err := svc.Save(ctx, u.ID, recipes.SaveInput{Title: name + " dish"})
			require.NoError(t, err)
			if name == "ben" {
				require.NoError(t, db.AdjustLikes(ctx, r.ID, 3))
			}
		}
	}
	return db, svc
}

func get(t *testing.T, h *Handler, stat, query string) (int, map[string]interface{}) {
	t.Helper()
	rec := httptest.NewRecorder()
	h.GetHomeContent(stat)(rec, httptest.NewRequest(http.MethodGet, "/api/"+stat+query, nil), nil)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return rec.Code, body
}

func TestGetHomeContent(t *testing.T) {
	db, svc := seed(t)
	h := NewHandler(db, db, svc, nil)

	code, body := get(t, h, UsersCount, "")
	require.Equal(t, http.StatusOK, code)
	assert.EqualValues(t, 2, body["count"])

	_, body = get(t, h, RecipesCount, "")
	assert.EqualValues(t, 4, body["count"])

	_, body = get(t, h, TopLikedUsers, "")
	top := body["topLikedUsers"].([]interface{})
	require.Len(t, top, 2)
	first := top[0].(map[string]interface{})
	assert.Equal(t, "ben", first["_id"])
	assert.EqualValues(t, 6, first["totalLikes"])

	_, body = get(t, h, TopLikedRecipe, "")
	liked := body["topLikedRecipes"].([]interface{})
	require.Len(t, liked, 4)
	assert.EqualValues(t, 3, liked[0].(map[string]interface{})["likes"])

	code, _ = get(t, h, TopLikedRecipe, "?window=decade")
	assert.Equal(t, http.StatusBadRequest, code)

	code, body = get(t, h, "pantry", "")
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, false, body["status"])
}
