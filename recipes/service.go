package recipes

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"recipehub/logging"
	"recipehub/media"
	"recipehub/models"
	"recipehub/mq"
	"recipehub/store"
	"recipehub/utils"
	"recipehub/validation"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	TopLikedLimit  = 5
	RecommendLimit = 5
)

// Window restricts listings to recently created recipes.
type Window string

const (
	WindowAll  Window = ""
	WindowWeek Window = "week"
)

func ParseWindow(s string) (Window, error) {
	switch Window(strings.ToLower(strings.TrimSpace(s))) {
	case WindowAll, "all":
		return WindowAll, nil
	case WindowWeek:
		return WindowWeek, nil
	}
	return WindowAll, fmt.Errorf("unknown window %q", s)
}

func (w Window) since(now time.Time) time.Time {
	if w == WindowWeek {
		return now.AddDate(0, 0, -7)
	}
	return time.Time{}
}

type SaveInput struct {
	ID          string              `json:"_id"`
	Title       string              `json:"title"       validate:"required,max=200"`
	Info        string              `json:"info"`
	Ingredients []models.Ingredient `json:"ingredients"`
	Categories  utils.StringList    `json:"categories"`
	Methods     []models.Method     `json:"methods"`
}

type SearchInput struct {
	SearchText string           `json:"searchText"`
	Title      string           `json:"title"`
	Categories utils.StringList `json:"categories"`
}

// Query turns the request body into a store query. searchText is a comma
// separated list of ingredient fragments that must all match.
func (in SearchInput) Query() store.Query {
	var tokens []string
	for _, tok := range strings.Split(in.SearchText, ",") {
		if tok = strings.TrimSpace(tok); tok != "" {
			tokens = append(tokens, tok)
		}
	}
	return store.Query{
		Title:       strings.TrimSpace(in.Title),
		Ingredients: tokens,
		Categories:  in.Categories,
	}
}

type Service struct {
	users    store.Users
	recipes  store.Recipes
	comments store.Comments
	events   mq.Emitter
	now      func() time.Time
}

func NewService(users store.Users, recipes store.Recipes, comments store.Comments, events mq.Emitter) *Service {
	if events == nil {
		events = mq.Discard{}
	}
	return &Service{
		users:    users,
		recipes:  recipes,
		comments: comments,
		events:   events,
		now:      time.Now,
	}
}

func (s *Service) emit(typ string, id, actor primitive.ObjectID) {
	ev := mq.Event{Type: typ, EntityType: "recipe", EntityID: id.Hex(), At: s.now().UTC()}
	if !actor.IsZero() {
		ev.ActorID = actor.Hex()
	}
	s.events.Emit(ev)
}

// Save updates the recipe named by in.ID or, when no id is given, creates a
// new recipe owned by owner. Updates are not checked against the owner.
func (s *Service) Save(ctx context.Context, owner primitive.ObjectID, in SaveInput) (*models.Recipe, bool, error) {
	in.Title = strings.TrimSpace(in.Title)
	if err := validation.Struct(in); err != nil {
		return nil, false, err
	}

	if in.ID != "" {
		id, err := utils.ParseObjectID(in.ID)
		if err != nil {
			return nil, false, err
		}
		r, err := s.recipes.UpdateRecipe(ctx, id, store.RecipeUpdate{
			Title:       in.Title,
			Info:        in.Info,
			Ingredients: in.Ingredients,
			Categories:  in.Categories,
			Methods:     in.Methods,
		})
		if err != nil {
			return nil, false, err
		}
		s.emit(mq.RecipeUpdated, r.ID, owner)
		return r, false, nil
	}

	user, err := s.users.UserByID(ctx, owner)
	if err != nil {
		return nil, false, fmt.Errorf("load owner: %w", err)
	}
	r := &models.Recipe{
		UserID:      owner,
		Title:       in.Title,
		Info:        in.Info,
		Ingredients: in.Ingredients,
		Categories:  in.Categories,
		Methods:     in.Methods,
		Author:      user.Snapshot(),
	}
	if err := s.recipes.CreateRecipe(ctx, r); err != nil {
		return nil, false, fmt.Errorf("create recipe: %w", err)
	}
	if err := s.users.PrependRecipe(ctx, owner, r.ID); err != nil {
		if _, derr := s.recipes.DeleteRecipe(ctx, r.ID); derr != nil {
			logging.Ctx(ctx).Error().Err(derr).Str("recipe_id", r.ID.Hex()).Msg("rollback recipe create")
		}
		return nil, false, fmt.Errorf("link recipe to owner: %w", err)
	}
	s.emit(mq.RecipeCreated, r.ID, owner)
	return r, true, nil
}

// Delete removes the recipe. The owner's recipe list keeps the dangling id;
// listings skip ids that no longer resolve.
func (s *Service) Delete(ctx context.Context, actor, id primitive.ObjectID) error {
	found, err := s.recipes.DeleteRecipe(ctx, id)
	if err != nil {
		return err
	}
	if !found {
		return store.ErrNotFound
	}
	s.emit(mq.RecipeDeleted, id, actor)
	return nil
}

// AddFavorite records the favorite and bumps the like counter only if the
// favorites list changed. A failed counter update undoes the list change.
func (s *Service) AddFavorite(ctx context.Context, userID, recipeID primitive.ObjectID) error {
	if _, err := s.recipes.RecipeByID(ctx, recipeID); err != nil {
		return err
	}
	changed, err := s.users.AddFavorite(ctx, userID, recipeID)
	if err != nil || !changed {
		return err
	}
	if err := s.recipes.AdjustLikes(ctx, recipeID, 1); err != nil {
		if _, rerr := s.users.RemoveFavorite(ctx, userID, recipeID); rerr != nil {
			logging.Ctx(ctx).Error().Err(rerr).Str("recipe_id", recipeID.Hex()).Msg("rollback add favorite")
		}
		return fmt.Errorf("increment likes: %w", err)
	}
	s.emit(mq.RecipeLiked, recipeID, userID)
	return nil
}

// RemoveFavorite is the inverse of AddFavorite. Removing a favorite whose
// recipe has since been deleted succeeds without touching any counter.
func (s *Service) RemoveFavorite(ctx context.Context, userID, recipeID primitive.ObjectID) error {
	changed, err := s.users.RemoveFavorite(ctx, userID, recipeID)
	if err != nil || !changed {
		return err
	}
	if err := s.recipes.AdjustLikes(ctx, recipeID, -1); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil
		}
		if _, rerr := s.users.AddFavorite(ctx, userID, recipeID); rerr != nil {
			logging.Ctx(ctx).Error().Err(rerr).Str("recipe_id", recipeID.Hex()).Msg("rollback remove favorite")
		}
		return fmt.Errorf("decrement likes: %w", err)
	}
	s.emit(mq.RecipeUnliked, recipeID, userID)
	return nil
}

func (s *Service) Search(ctx context.Context, in SearchInput) ([]models.RecipeView, error) {
	rs, err := s.recipes.FindRecipes(ctx, in.Query())
	if err != nil {
		return nil, err
	}
	return s.Expand(ctx, rs)
}

func (s *Service) ListAll(ctx context.Context) ([]models.Recipe, error) {
	return s.recipes.FindRecipes(ctx, store.Query{})
}

func (s *Service) ListRecent(ctx context.Context, w Window) ([]models.RecipeView, error) {
	rs, err := s.recipes.FindRecipes(ctx, store.Query{Since: w.since(s.now()), Sort: store.SortRecent})
	if err != nil {
		return nil, err
	}
	return s.Expand(ctx, rs)
}

func (s *Service) ListTopLiked(ctx context.Context, limit int, w Window) ([]models.RecipeView, error) {
	if limit <= 0 {
		limit = TopLikedLimit
	}
	rs, err := s.recipes.FindRecipes(ctx, store.Query{Since: w.since(s.now()), Sort: store.SortLikes, Limit: limit})
	if err != nil {
		return nil, err
	}
	return s.Expand(ctx, rs)
}

func (s *Service) Recommend(ctx context.Context, n int) ([]models.RecipeView, error) {
	if n <= 0 {
		n = RecommendLimit
	}
	rs, err := s.recipes.SampleRecipes(ctx, n)
	if err != nil {
		return nil, err
	}
	return s.Expand(ctx, rs)
}

func (s *Service) ListOwned(ctx context.Context, userID primitive.ObjectID) ([]models.RecipeView, error) {
	u, err := s.users.UserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.resolve(ctx, u.RecipeIDs)
}

func (s *Service) ListFavorites(ctx context.Context, userID primitive.ObjectID) ([]models.RecipeView, error) {
	u, err := s.users.UserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.resolve(ctx, u.FavoriteIDs)
}

func (s *Service) resolve(ctx context.Context, ids []primitive.ObjectID) ([]models.RecipeView, error) {
	rs, err := s.recipes.RecipesByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	return s.Expand(ctx, rs)
}

func (s *Service) Get(ctx context.Context, id primitive.ObjectID) (*models.RecipeView, error) {
	r, err := s.recipes.RecipeByID(ctx, id)
	if err != nil {
		return nil, err
	}
	views, err := s.Expand(ctx, []models.Recipe{*r})
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

func (s *Service) Categories(ctx context.Context) ([]string, error) {
	return s.recipes.Categories(ctx)
}

// Comment stores text as a new comment by userID and links it at the head of
// the recipe's comment list.
func (s *Service) Comment(ctx context.Context, userID, recipeID primitive.ObjectID, text string) (*models.Recipe, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, &validation.Error{Fields: []validation.FieldError{{Field: "comment", Tag: "required"}}}
	}
	if _, err := s.recipes.RecipeByID(ctx, recipeID); err != nil {
		return nil, err
	}
	c := &models.Comment{Text: text, UserID: userID}
	if err := s.comments.CreateComment(ctx, c); err != nil {
		return nil, fmt.Errorf("create comment: %w", err)
	}
	r, err := s.recipes.PrependComment(ctx, recipeID, c.ID)
	if err != nil {
		return nil, err
	}
	s.emit(mq.RecipeCommented, recipeID, userID)
	return r, nil
}

func (s *Service) AttachImage(ctx context.Context, actor, recipeID primitive.ObjectID, asset media.Asset) (*models.Recipe, error) {
	r, err := s.recipes.SetRecipeImage(ctx, recipeID, asset.URL, asset.Handle)
	if err != nil {
		return nil, err
	}
	s.emit(mq.RecipeImaged, recipeID, actor)
	return r, nil
}

// Expand resolves each recipe's comments (with commenter display fields) and
// the owner's current avatar.
func (s *Service) Expand(ctx context.Context, rs []models.Recipe) ([]models.RecipeView, error) {
	var commentIDs []primitive.ObjectID
	userSet := map[primitive.ObjectID]struct{}{}
	for _, r := range rs {
		commentIDs = append(commentIDs, r.CommentIDs...)
		if !r.UserID.IsZero() {
			userSet[r.UserID] = struct{}{}
		}
	}

	comments, err := s.comments.CommentsByIDs(ctx, commentIDs)
	if err != nil {
		return nil, fmt.Errorf("load comments: %w", err)
	}
	commentsByID := make(map[primitive.ObjectID]models.Comment, len(comments))
	for _, c := range comments {
		commentsByID[c.ID] = c
		userSet[c.UserID] = struct{}{}
	}

	userIDs := make([]primitive.ObjectID, 0, len(userSet))
	for id := range userSet {
		userIDs = append(userIDs, id)
	}
	users, err := s.users.UsersByIDs(ctx, userIDs)
	if err != nil {
		return nil, fmt.Errorf("load users: %w", err)
	}
	usersByID := make(map[primitive.ObjectID]models.User, len(users))
	for _, u := range users {
		usersByID[u.ID] = u
	}

	views := make([]models.RecipeView, 0, len(rs))
	for _, r := range rs {
		v := models.RecipeView{Recipe: r, Comments: []models.CommentView{}}
		if owner, ok := usersByID[r.UserID]; ok {
			v.UserImage = owner.Image
		}
		for _, cid := range r.CommentIDs {
			c, ok := commentsByID[cid]
			if !ok {
				continue
			}
			cv := models.CommentView{Comment: c}
			if u, ok := usersByID[c.UserID]; ok {
				cv.User = &models.Commenter{Image: u.Image, FirstName: u.FirstName, LastName: u.LastName}
			}
			v.Comments = append(v.Comments, cv)
		}
		views = append(views, v)
	}
	return views, nil
}
