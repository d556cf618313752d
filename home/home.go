// Package home serves the public site statistics.
package home

import (
	"context"
	"net/http"

	"recipehub/models"
	"recipehub/rdx"
	"recipehub/recipes"
	"recipehub/store"
	"recipehub/utils"

	"github.com/julienschmidt/httprouter"
)

const TopAuthorsLimit = 5

// Stat names, each mounted at /api/<name>.
const (
	UsersCount     = "users/count"
	RecipesCount   = "recipes/count"
	TopLikedRecipe = "recipes/top-liked"
	TopLikedUsers  = "users/top-liked"
)

type TopLiker interface {
	ListTopLiked(ctx context.Context, limit int, w recipes.Window) ([]models.RecipeView, error)
}

type Handler struct {
	users   store.Users
	recipes store.Recipes
	top     TopLiker
	cache   *rdx.Cache
}

// NewHandler builds the stats handler. cache may be nil.
func NewHandler(users store.Users, recipeStore store.Recipes, top TopLiker, cache *rdx.Cache) *Handler {
	return &Handler{users: users, recipes: recipeStore, top: top, cache: cache}
}

// GetHomeContent returns the handler for one stat.
func (h *Handler) GetHomeContent(stat string) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		ctx := r.Context()

		var (
			data utils.M
			err  error
		)

		switch stat {
		case UsersCount:
			var n int64
			n, err = rdx.Remember(ctx, h.cache, stat, h.users.CountUsers)
			data = utils.M{"count": n}
		case RecipesCount:
			var n int64
			n, err = rdx.Remember(ctx, h.cache, stat, h.recipes.CountRecipes)
			data = utils.M{"count": n}
		case TopLikedUsers:
			var top []models.AuthorLikes
			top, err = rdx.Remember(ctx, h.cache, stat, func(ctx context.Context) ([]models.AuthorLikes, error) {
				return h.recipes.TopAuthors(ctx, TopAuthorsLimit)
			})
			data = utils.M{"topLikedUsers": top}
		case TopLikedRecipe:
			var win recipes.Window
			win, err = recipes.ParseWindow(r.URL.Query().Get("window"))
			if err != nil {
				utils.RespondWithError(w, http.StatusBadRequest, err.Error())
				return
			}
			var views []models.RecipeView
			views, err = h.top.ListTopLiked(ctx, recipes.TopLikedLimit, win)
			data = utils.M{"topLikedRecipes": views}
		default:
			utils.RespondWithError(w, http.StatusNotFound, "Invalid API route")
			return
		}

		if err != nil {
			utils.RespondWithErr(w, r, err, "")
			return
		}
		utils.RespondOK(w, data)
	}
}
