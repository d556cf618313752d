// Package users serves account and profile endpoints.
package users

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"recipehub/auth"
	"recipehub/logging"
	"recipehub/media"
	"recipehub/mq"
	"recipehub/store"
	"recipehub/utils"
	"recipehub/validation"

	"github.com/julienschmidt/httprouter"
)

// TokenHeader carries the bearer token on a successful login.
const TokenHeader = "token"

type Handler struct {
	auth   *auth.Service
	users  store.Users
	media  *media.Proxy
	events mq.Emitter
}

func NewHandler(authSvc *auth.Service, users store.Users, proxy *media.Proxy, events mq.Emitter) *Handler {
	if events == nil {
		events = mq.Discard{}
	}
	return &Handler{auth: authSvc, users: users, media: proxy, events: events}
}

// POST /api/user/register
func (h *Handler) Register(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var in auth.RegisterInput
	if err := utils.DecodeJSON(w, r, &in); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	u, err := h.auth.Register(r.Context(), in)
	if errors.Is(err, auth.ErrUsernameTaken) {
		utils.RespondWithJSON(w, http.StatusOK, utils.M{"status": false, "message": "Username already exists"})
		return
	}
	if err != nil {
		utils.RespondWithErr(w, r, err, "")
		return
	}
	h.events.Emit(mq.Event{Type: mq.UserRegistered, EntityType: "user", EntityID: u.ID.Hex(), At: time.Now().UTC()})
	utils.RespondOK(w, utils.M{"message": "You've registered successfully"})
}

type loginBody struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// POST /api/user/login
func (h *Handler) Login(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var in loginBody
	if err := utils.DecodeJSON(w, r, &in); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	sess, err := h.auth.Authenticate(r.Context(), in.Username, in.Password)
	if errors.Is(err, auth.ErrInvalidCredentials) {
		utils.RespondWithJSON(w, http.StatusOK, utils.M{"status": false, "message": "Invalid credentials"})
		return
	}
	if err != nil {
		utils.RespondWithErr(w, r, err, "")
		return
	}
	w.Header().Set(TokenHeader, sess.Token)
	utils.RespondOK(w, utils.M{"_id": sess.User.ID, "username": sess.User.Username})
}

// POST /api/user/verify
func (h *Handler) Verify(w http.ResponseWriter, r *http.Request, _ httprouter.Params, id auth.Identity) {
	utils.RespondOK(w, utils.M{"_id": id.UserID})
}

type profileBody struct {
	Username  string  `json:"username"  validate:"omitempty,min=3,max=15"`
	FirstName string  `json:"firstName" validate:"max=50"`
	LastName  string  `json:"lastName"  validate:"max=50"`
	Bio       *string `json:"bio"       validate:"omitempty,max=200"`
}

// PATCH /api/user/update
func (h *Handler) Update(w http.ResponseWriter, r *http.Request, _ httprouter.Params, id auth.Identity) {
	var in profileBody
	if err := utils.DecodeJSON(w, r, &in); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	in.Username = strings.TrimSpace(in.Username)
	if err := validation.Struct(in); err != nil {
		utils.RespondWithErr(w, r, err, "")
		return
	}
	_, err := h.users.UpdateProfile(r.Context(), id.UserID, store.ProfileUpdate{
		Username:  in.Username,
		FirstName: strings.TrimSpace(in.FirstName),
		LastName:  strings.TrimSpace(in.LastName),
		Bio:       in.Bio,
	})
	if errors.Is(err, store.ErrDuplicate) {
		utils.RespondWithJSON(w, http.StatusOK, utils.M{"status": false, "message": "Username already exists"})
		return
	}
	if err != nil {
		utils.RespondWithErr(w, r, err, "User not found")
		return
	}
	utils.RespondOK(w, utils.M{"message": "Profile successfully updated"})
}

// GET /api/user/profile
func (h *Handler) Profile(w http.ResponseWriter, r *http.Request, _ httprouter.Params, id auth.Identity) {
	u, err := h.users.UserByID(r.Context(), id.UserID)
	if err != nil {
		utils.RespondWithErr(w, r, err, "User not found")
		return
	}
	utils.RespondOK(w, utils.M{"user": u})
}

// POST /api/user/upload/profile
func (h *Handler) UploadAvatar(w http.ResponseWriter, r *http.Request, _ httprouter.Params, id auth.Identity) {
	prev, err := h.users.UserByID(r.Context(), id.UserID)
	if err != nil {
		utils.RespondWithErr(w, r, err, "User not found")
		return
	}

	asset, err := h.media.UploadForm(w, r, "image")
	if err != nil {
		utils.RespondWithErr(w, r, err, "")
		return
	}
	if _, err := h.users.SetAvatar(r.Context(), id.UserID, asset.URL, asset.Handle); err != nil {
		h.discard(r.Context(), asset.Handle)
		utils.RespondWithErr(w, r, err, "User not found")
		return
	}
	if prev.ImagePublicID != "" && prev.ImagePublicID != asset.Handle {
		h.discard(r.Context(), prev.ImagePublicID)
	}
	utils.RespondOK(w, utils.M{"message": "Profile picture successfully updated"})
}

// DELETE /api/user/delete/profile/*image_public_id
//
// Handles may contain slashes, so the route uses a catch-all parameter. Only
// the caller's current avatar can be deleted.
func (h *Handler) DeleteAvatar(w http.ResponseWriter, r *http.Request, ps httprouter.Params, id auth.Identity) {
	handle := strings.TrimPrefix(ps.ByName("image_public_id"), "/")
	if handle == "" {
		utils.RespondWithError(w, http.StatusBadRequest, "Missing image id")
		return
	}
	u, err := h.users.UserByID(r.Context(), id.UserID)
	if err != nil {
		utils.RespondWithErr(w, r, err, "User not found")
		return
	}
	if u.ImagePublicID != handle {
		utils.RespondWithError(w, http.StatusForbidden, "Not your profile picture")
		return
	}

	if err := h.media.Delete(r.Context(), handle); err != nil {
		logging.Ctx(r.Context()).Warn().Err(err).Str("handle", handle).Msg("delete avatar")
		utils.RespondWithJSON(w, http.StatusOK, utils.M{"status": false, "message": "Error deleting image"})
		return
	}
	if _, err := h.users.SetAvatar(r.Context(), id.UserID, "", ""); err != nil {
		utils.RespondWithErr(w, r, err, "User not found")
		return
	}
	utils.RespondOK(w, utils.M{"result": "ok"})
}

func (h *Handler) discard(ctx context.Context, handle string) {
	if err := h.media.Delete(ctx, handle); err != nil {
		logging.Ctx(ctx).Warn().Err(err).Str("handle", handle).Msg("discard image")
	}
}
