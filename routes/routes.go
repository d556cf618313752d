package routes

import (
	"net/http"

	"recipehub/comments"
	"recipehub/home"
	"recipehub/metrics"
	"recipehub/middleware"
	"recipehub/mq"
	"recipehub/ratelim"
	"recipehub/recipes"
	"recipehub/suggestions"
	"recipehub/users"

	"github.com/julienschmidt/httprouter"
)

// Handlers bundles everything the route table mounts.
type Handlers struct {
	Verifier    middleware.Verifier
	Limiter     *ratelim.RateLimiter
	Users       *users.Handler
	Recipes     *recipes.Handler
	Comments    *comments.Handler
	Home        *home.Handler
	Suggestions *suggestions.Handler
	Feed        *mq.Hub
}

type mounter struct {
	router *httprouter.Router
	h      Handlers
}

func (m mounter) public(method, path string, handle httprouter.Handle) {
	m.router.Handle(method, path, middleware.Instrument(path, handle))
}

func (m mounter) authed(method, path string, handle middleware.AuthedHandle) {
	m.public(method, path, middleware.Authenticate(m.h.Verifier, handle))
}

func (m mounter) limited(method, path string, handle httprouter.Handle) {
	m.public(method, path, m.h.Limiter.Limit(handle))
}

func Health(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("200"))
}

// New builds the router with every route mounted.
func New(h Handlers) *httprouter.Router {
	router := httprouter.New()
	m := mounter{router: router, h: h}

	addUtilityRoutes(m)
	addUserRoutes(m)
	addRecipeRoutes(m)
	addCommentsRoutes(m)
	addHomeRoutes(m)
	addSuggestionsRoutes(m)
	return router
}

func addUtilityRoutes(m mounter) {
	m.router.GET("/health", Health)
	m.router.Handler(http.MethodGet, "/metrics", metrics.Handler())
	if m.h.Feed != nil {
		m.router.GET("/ws/feed", m.h.Feed.ServeWS)
	}
}

func addUserRoutes(m mounter) {
	u := m.h.Users
	m.limited(http.MethodPost, "/api/user/register", u.Register)
	m.limited(http.MethodPost, "/api/user/login", u.Login)
	m.authed(http.MethodPost, "/api/user/verify", u.Verify)
	m.authed(http.MethodPatch, "/api/user/update", u.Update)
	m.authed(http.MethodGet, "/api/user/profile", u.Profile)
	m.authed(http.MethodPost, "/api/user/upload/profile", u.UploadAvatar)
	m.authed(http.MethodDelete, "/api/user/delete/profile/*image_public_id", u.DeleteAvatar)
}

func addRecipeRoutes(m mounter) {
	r := m.h.Recipes
	m.authed(http.MethodPost, "/api/create/recipe", r.CreateRecipe)
	m.authed(http.MethodPost, "/api/upload/recipe/image/:recipe_id", r.UploadRecipeImage)
	m.authed(http.MethodPost, "/api/upload/recipe/methods/image", r.UploadMethodImage)

	m.authed(http.MethodGet, "/api/user/get/all/recipes", r.GetAllRecipes)
	m.authed(http.MethodDelete, "/api/user/delete/recipe", r.DeleteRecipe)
	m.authed(http.MethodPatch, "/api/user/add/favorites", r.AddFavorite)
	m.authed(http.MethodPatch, "/api/user/remove/favorites", r.RemoveFavorite)
	m.authed(http.MethodGet, "/api/user/get/all/best/recipe", r.GetBestRecipes)
	m.authed(http.MethodGet, "/api/user/get/all/recent/recipe", r.GetRecentRecipes)
	m.authed(http.MethodGet, "/api/user/get/all/my/recipe", r.GetMyRecipes)
	m.authed(http.MethodGet, "/api/user/get/all/my/favorites", r.GetMyFavorites)

	m.limited(http.MethodPost, "/api/user/search/recipes", r.SearchRecipes)
	m.public(http.MethodPost, "/api/user/get/recipe", r.GetRecipe)
	m.public(http.MethodGet, "/api/recipes/categories", r.GetCategories)
}

func addCommentsRoutes(m mounter) {
	m.authed(http.MethodPatch, "/api/user/recipe/comment", m.h.Comments.CreateComment)
}

func addHomeRoutes(m mounter) {
	for _, stat := range []string{home.UsersCount, home.RecipesCount, home.TopLikedRecipe, home.TopLikedUsers} {
		m.public(http.MethodGet, "/api/"+stat, m.h.Home.GetHomeContent(stat))
	}
}

func addSuggestionsRoutes(m mounter) {
	m.authed(http.MethodGet, "/api/user/recipes/recommendations", m.h.Suggestions.SuggestRecipes)
}
