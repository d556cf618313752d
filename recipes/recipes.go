// Package recipes implements recipe creation, favorites, search and the
// listing endpoints.
package recipes

import (
	"context"
	"errors"
	"net/http"
	"time"

	"recipehub/auth"
	"recipehub/logging"
	"recipehub/media"
	"recipehub/models"
	"recipehub/store"
	"recipehub/utils"

	"github.com/julienschmidt/httprouter"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const requestTimeout = 10 * time.Second

type Handler struct {
	svc   *Service
	media *media.Proxy
}

func NewHandler(svc *Service, proxy *media.Proxy) *Handler {
	return &Handler{svc: svc, media: proxy}
}

type idBody struct {
	ID string `json:"_id"`
}

func (h *Handler) decodeID(w http.ResponseWriter, r *http.Request) (idBody, bool) {
	var body idBody
	if err := utils.DecodeJSON(w, r, &body); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, err.Error())
		return body, false
	}
	return body, true
}

// POST /api/create/recipe
func (h *Handler) CreateRecipe(w http.ResponseWriter, r *http.Request, _ httprouter.Params, id auth.Identity) {
	var in SaveInput
	if err := utils.DecodeJSON(w, r, &in); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	recipe, created, err := h.svc.Save(ctx, id.UserID, in)
	if err != nil {
		utils.RespondWithErr(w, r, err, "Recipe not found")
		return
	}
	msg := "You've updated the recipe successfully"
	if created {
		msg = "You've created the recipe successfully"
	}
	utils.RespondOK(w, utils.M{"message": msg, "recipe_id": recipe.ID})
}

// POST /api/upload/recipe/image/:recipe_id
func (h *Handler) UploadRecipeImage(w http.ResponseWriter, r *http.Request, ps httprouter.Params, id auth.Identity) {
	recipeID, err := utils.ParseObjectID(ps.ByName("recipe_id"))
	if err != nil {
		utils.RespondWithErr(w, r, err, "")
		return
	}
	if _, err := h.svc.Get(r.Context(), recipeID); err != nil {
		utils.RespondWithErr(w, r, err, "Recipe not found")
		return
	}

	asset, err := h.media.UploadForm(w, r, "image")
	if err != nil {
		utils.RespondWithErr(w, r, err, "")
		return
	}

	recipe, err := h.svc.AttachImage(r.Context(), id.UserID, recipeID, asset)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			h.discard(r, asset)
		}
		utils.RespondWithErr(w, r, err, "Recipe not found")
		return
	}
	utils.RespondOK(w, utils.M{"message": "picture successfully updated", "updateImage": recipe})
}

// POST /api/upload/recipe/methods/image
func (h *Handler) UploadMethodImage(w http.ResponseWriter, r *http.Request, _ httprouter.Params, _ auth.Identity) {
	asset, err := h.media.UploadForm(w, r, "image")
	if err != nil {
		utils.RespondWithErr(w, r, err, "")
		return
	}
	utils.RespondOK(w, utils.M{"secure_url": asset.URL, "public_id": asset.Handle})
}

func (h *Handler) discard(r *http.Request, asset media.Asset) {
	if err := h.media.Delete(r.Context(), asset.Handle); err != nil {
		logging.Ctx(r.Context()).Warn().Err(err).Str("handle", asset.Handle).Msg("discard orphaned upload")
	}
}

// GET /api/user/get/all/recipes
func (h *Handler) GetAllRecipes(w http.ResponseWriter, r *http.Request, _ httprouter.Params, _ auth.Identity) {
	recipes, err := h.svc.ListAll(r.Context())
	if err != nil {
		utils.RespondWithErr(w, r, err, "")
		return
	}
	utils.RespondOK(w, utils.M{"recipes": recipes})
}

// DELETE /api/user/delete/recipe
func (h *Handler) DeleteRecipe(w http.ResponseWriter, r *http.Request, _ httprouter.Params, id auth.Identity) {
	body, ok := h.decodeID(w, r)
	if !ok {
		return
	}
	recipeID, err := utils.ParseObjectID(body.ID)
	if err != nil {
		utils.RespondWithErr(w, r, err, "")
		return
	}
	if err := h.svc.Delete(r.Context(), id.UserID, recipeID); err != nil {
		utils.RespondWithErr(w, r, err, "Recipe not found")
		return
	}
	utils.RespondOK(w, utils.M{"message": "Recipe deleted successfully"})
}

// PATCH /api/user/add/favorites
func (h *Handler) AddFavorite(w http.ResponseWriter, r *http.Request, _ httprouter.Params, id auth.Identity) {
	h.toggleFavorite(w, r, id, h.svc.AddFavorite, "Adding favorites successfully")
}

// PATCH /api/user/remove/favorites
func (h *Handler) RemoveFavorite(w http.ResponseWriter, r *http.Request, _ httprouter.Params, id auth.Identity) {
	h.toggleFavorite(w, r, id, h.svc.RemoveFavorite, "Success removing to favorites")
}

func (h *Handler) toggleFavorite(w http.ResponseWriter, r *http.Request, id auth.Identity,
	op func(context.Context, primitive.ObjectID, primitive.ObjectID) error, okMsg string) {
	body, ok := h.decodeID(w, r)
	if !ok {
		return
	}
	recipeID, err := utils.ParseObjectID(body.ID)
	if err != nil {
		utils.RespondWithErr(w, r, err, "")
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()
	if err := op(ctx, id.UserID, recipeID); err != nil {
		utils.RespondWithErr(w, r, err, "Recipe not found")
		return
	}
	utils.RespondOK(w, utils.M{"message": okMsg})
}

func windowParam(w http.ResponseWriter, r *http.Request) (Window, bool) {
	win, err := ParseWindow(r.URL.Query().Get("window"))
	if err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, err.Error())
		return WindowAll, false
	}
	return win, true
}

// GET /api/user/get/all/best/recipe
func (h *Handler) GetBestRecipes(w http.ResponseWriter, r *http.Request, _ httprouter.Params, _ auth.Identity) {
	win, ok := windowParam(w, r)
	if !ok {
		return
	}
	views, err := h.svc.ListTopLiked(r.Context(), TopLikedLimit, win)
	if err != nil {
		utils.RespondWithErr(w, r, err, "")
		return
	}
	utils.RespondOK(w, utils.M{"topLikedRecipes": views})
}

// GET /api/user/get/all/recent/recipe
func (h *Handler) GetRecentRecipes(w http.ResponseWriter, r *http.Request, _ httprouter.Params, _ auth.Identity) {
	win, ok := windowParam(w, r)
	if !ok {
		return
	}
	views, err := h.svc.ListRecent(r.Context(), win)
	if err != nil {
		utils.RespondWithErr(w, r, err, "")
		return
	}
	utils.RespondOK(w, utils.M{"mostRecentRecipe": views})
}

// POST /api/user/search/recipes
func (h *Handler) SearchRecipes(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var in SearchInput
	if err := utils.DecodeJSON(w, r, &in); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	views, err := h.svc.Search(r.Context(), in)
	if err != nil {
		utils.RespondWithErr(w, r, err, "")
		return
	}
	utils.RespondOK(w, utils.M{"recipes": views})
}

// GET /api/user/get/all/my/recipe
func (h *Handler) GetMyRecipes(w http.ResponseWriter, r *http.Request, _ httprouter.Params, id auth.Identity) {
	views, err := h.svc.ListOwned(r.Context(), id.UserID)
	if err != nil {
		utils.RespondWithErr(w, r, err, "User not found")
		return
	}
	utils.RespondOK(w, utils.M{"recipe_id": views})
}

// GET /api/user/get/all/my/favorites
func (h *Handler) GetMyFavorites(w http.ResponseWriter, r *http.Request, _ httprouter.Params, id auth.Identity) {
	views, err := h.svc.ListFavorites(r.Context(), id.UserID)
	if err != nil {
		utils.RespondWithErr(w, r, err, "User not found")
		return
	}
	utils.RespondOK(w, utils.M{"favorites_id": views})
}

// POST /api/user/get/recipe
func (h *Handler) GetRecipe(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	body, ok := h.decodeID(w, r)
	if !ok {
		return
	}
	recipeID, err := utils.ParseObjectID(body.ID)
	if err != nil {
		utils.RespondWithErr(w, r, err, "")
		return
	}
	view, err := h.svc.Get(r.Context(), recipeID)
	if err != nil {
		utils.RespondWithErr(w, r, err, "Recipe not found")
		return
	}
	utils.RespondOK(w, utils.M{"mostRecentRecipe": []models.RecipeView{*view}})
}

// GET /api/recipes/categories
func (h *Handler) GetCategories(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	cats, err := h.svc.Categories(r.Context())
	if err != nil {
		utils.RespondWithErr(w, r, err, "")
		return
	}
	utils.RespondOK(w, utils.M{"categories": cats})
}
