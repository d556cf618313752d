// Package suggestions serves random recipe recommendations.
package suggestions

import (
	"context"
	"net/http"
	"strconv"

	"recipehub/auth"
	"recipehub/models"
	"recipehub/utils"

	"github.com/julienschmidt/httprouter"
)

const (
	defaultLimit = 5
	maxLimit     = 20
)

type Recommender interface {
	Recommend(ctx context.Context, n int) ([]models.RecipeView, error)
}

type Handler struct {
	svc Recommender
}

func NewHandler(svc Recommender) *Handler {
	return &Handler{svc: svc}
}

// GET /api/user/recipes/recommendations?limit=n
func (h *Handler) SuggestRecipes(w http.ResponseWriter, r *http.Request, _ httprouter.Params, _ auth.Identity) {
	limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || limit < 1 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}

	views, err := h.svc.Recommend(r.Context(), limit)
	if err != nil {
		utils.RespondWithErr(w, r, err, "")
		return
	}
	if views == nil {
		views = []models.RecipeView{}
	}
	utils.RespondOK(w, utils.M{"recipes": views})
}
