package comments

import (
	"context"
	"net/http"

	"recipehub/auth"
	"recipehub/models"
	"recipehub/utils"

	"github.com/julienschmidt/httprouter"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Commenter attaches a comment to a recipe and returns the updated recipe.
type Commenter interface {
	Comment(ctx context.Context, userID, recipeID primitive.ObjectID, text string) (*models.Recipe, error)
}

type Handler struct {
	svc Commenter
}

func NewHandler(svc Commenter) *Handler {
	return &Handler{svc: svc}
}

type commentBody struct {
	Comment  string `json:"comment"`
	RecipeID string `json:"recipe_id"`
}

// PATCH /api/user/recipe/comment
//
// The comment is attributed to the authenticated caller; any user_id in the
// body is ignored.
func (h *Handler) CreateComment(w http.ResponseWriter, r *http.Request, _ httprouter.Params, id auth.Identity) {
	var in commentBody
	if err := utils.DecodeJSON(w, r, &in); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	recipeID, err := utils.ParseObjectID(in.RecipeID)
	if err != nil {
		utils.RespondWithErr(w, r, err, "")
		return
	}
	recipe, err := h.svc.Comment(r.Context(), id.UserID, recipeID, in.Comment)
	if err != nil {
		utils.RespondWithErr(w, r, err, "Recipe not found")
		return
	}
	utils.RespondOK(w, utils.M{"recipe": recipe})
}
