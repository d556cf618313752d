package routes

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"recipehub/auth"
	"recipehub/comments"
	"recipehub/home"
	"recipehub/media"
	"recipehub/mq"
	"recipehub/ratelim"
	"recipehub/recipes"
	"recipehub/store/memstore"
	"recipehub/suggestions"
	"recipehub/users"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRouter(t *testing.T, limiter *ratelim.RateLimiter) http.Handler {
	t.Helper()
	db := memstore.New()
	events := &mq.Recorder{}
	authSvc := auth.NewService(db, auth.NewIssuer("routes-secret", time.Hour))
	recipeSvc := recipes.NewService(db, db, db, events)
	proxy := media.NewProxy(nil)

	return New(Handlers{
		Verifier:    authSvc,
		Limiter:     limiter,
		Users:       users.NewHandler(authSvc, db, proxy, events),
		Recipes:     recipes.NewHandler(recipeSvc, proxy),
		Comments:    comments.NewHandler(recipeSvc),
		Home:        home.NewHandler(db, db, recipeSvc, nil),
		Suggestions: suggestions.NewHandler(recipeSvc),
	})
}

func call(t *testing.T, h http.Handler, method, path, token, body string) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set(auth.HeaderName, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	var out map[string]interface{}
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	}
	return rec, out
}

func TestRecipeFlow(t *testing.T) {
	h := newRouter(t, ratelim.NewRateLimiter(100, 100))

	rec, body := call(t, h, http.MethodPost, "/api/user/register", "",
		`{"firstName":"Pat","lastName":"Q","username":"patq","password":"pw"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "You've registered successfully", body["message"])

	rec, _ = call(t, h, http.MethodPost, "/api/user/login", "", `{"username":"patq","password":"pw"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	token := rec.Header().Get(users.TokenHeader)
	require.NotEmpty(t, token)

	_, body = call(t, h, http.MethodPost, "/api/user/verify", token, "")
	assert.NotEmpty(t, body["_id"])

	rec, body = call(t, h, http.MethodPost, "/api/create/recipe", token,
		`{"title":"Flatbread","categories":["bread"],"ingredients":[{"id":"1","value":"flour"}]}`)
	require.Equal(t, http.StatusOK, rec.Code)
	recipeID := body["recipe_id"].(string)

	_, body = call(t, h, http.MethodPatch, "/api/user/add/favorites", token, `{"_id":"`+recipeID+`"}`)
	assert.Equal(t, true, body["status"])

	_, body = call(t, h, http.MethodPatch, "/api/user/recipe/comment", token,
		`{"comment":"crisp","recipe_id":"`+recipeID+`"}`)
	assert.Equal(t, true, body["status"])

	_, body = call(t, h, http.MethodPost, "/api/user/search/recipes", "", `{"searchText":"FLOUR"}`)
	assert.Len(t, body["recipes"], 1)

	_, body = call(t, h, http.MethodPost, "/api/user/get/recipe", "", `{"_id":"`+recipeID+`"}`)
	got := body["mostRecentRecipe"].([]interface{})[0].(map[string]interface{})
	assert.EqualValues(t, 1, got["likes"])
	assert.Len(t, got["comments"], 1)

	_, body = call(t, h, http.MethodGet, "/api/recipes/count", "", "")
	assert.EqualValues(t, 1, body["count"])

	_, body = call(t, h, http.MethodGet, "/api/user/recipes/recommendations", token, "")
	assert.Len(t, body["recipes"], 1)

	rec, body = call(t, h, http.MethodPost, "/api/upload/recipe/methods/image", token, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "No file uploaded", body["message"])
}

func TestAuthGate(t *testing.T) {
	h := newRouter(t, ratelim.NewRateLimiter(100, 100))

	rec, body := call(t, h, http.MethodGet, "/api/user/profile", "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Unauthorized", body["message"])

	rec, body = call(t, h, http.MethodGet, "/api/user/get/all/my/recipe", "not.a.jwt", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Invalid token", body["message"])

	rec, _ = call(t, h, http.MethodGet, "/api/users/count", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, _ = call(t, h, http.MethodGet, "/health", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "200", rec.Body.String())
}

func TestRateLimitedLogin(t *testing.T) {
	h := newRouter(t, ratelim.NewRateLimiter(0.001, 2))

	for i := 0; i < 2; i++ {
		rec, _ := call(t, h, http.MethodPost, "/api/user/login", "", `{"username":"x","password":"y"}`)
		assert.Equal(t, http.StatusOK, rec.Code)
	}
	rec, body := call(t, h, http.MethodPost, "/api/user/login", "", `{"username":"x","password":"y"}`)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "1", rec.Header().Get("Retry-After"))
	assert.Equal(t, false, body["status"])
}
