// Package mongostore implements the store contracts on MongoDB.
package mongostore

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"recipehub/db"
	"recipehub/models"
	"recipehub/store"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store struct {
	users    *mongo.Collection
	recipes  *mongo.Collection
	comments *mongo.Collection
	now      func() time.Time
}

func New(database *mongo.Database) *Store {
	return &Store{
		users:    database.Collection(db.UsersCollection),
		recipes:  database.Collection(db.RecipesCollection),
		comments: database.Collection(db.CommentsCollection),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

var (
	_ store.Users    = (*Store)(nil)
	_ store.Recipes  = (*Store)(nil)
	_ store.Comments = (*Store)(nil)
)

func (s *Store) EnsureIndexes(ctx context.Context) error {
	_, err := s.users.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "username", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("users index: %w", err)
	}
	_, err = s.recipes.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "createdAt", Value: -1}}},
		{Keys: bson.D{{Key: "likes", Value: -1}}},
		{Keys: bson.D{{Key: "categories", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("recipes index: %w", err)
	}
	return nil
}

func notFound(err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return store.ErrNotFound
	}
	return err
}

func afterUpdate() *options.FindOneAndUpdateOptions {
	return options.FindOneAndUpdate().SetReturnDocument(options.After)
}

// users

func (s *Store) CreateUser(ctx context.Context, u *models.User) error {
	if u.ID.IsZero() {
		u.ID = primitive.NewObjectID()
	}
	now := s.now()
	u.CreatedAt, u.UpdatedAt = now, now
	u.Normalize()
	if _, err := s.users.InsertOne(ctx, u); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return store.ErrDuplicate
		}
		return err
	}
	return nil
}

func (s *Store) UserByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	var u models.User
	if err := s.users.FindOne(ctx, bson.M{"_id": id}).Decode(&u); err != nil {
		return nil, notFound(err)
	}
	u.Normalize()
	return &u, nil
}

func (s *Store) UserByUsername(ctx context.Context, username string) (*models.User, error) {
	var u models.User
	if err := s.users.FindOne(ctx, bson.M{"username": username}).Decode(&u); err != nil {
		return nil, notFound(err)
	}
	u.Normalize()
	return &u, nil
}

func (s *Store) UsersByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.User, error) {
	if len(ids) == 0 {
		return []models.User{}, nil
	}
	cursor, err := s.users.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}
	var found []models.User
	if err := cursor.All(ctx, &found); err != nil {
		return nil, err
	}
	byID := make(map[primitive.ObjectID]models.User, len(found))
	for _, u := range found {
		byID[u.ID] = u
	}
	out := make([]models.User, 0, len(ids))
	for _, id := range ids {
		if u, ok := byID[id]; ok {
			out = append(out, u)
		}
	}
	return out, nil
}

func (s *Store) UpdateProfile(ctx context.Context, id primitive.ObjectID, upd store.ProfileUpdate) (*models.User, error) {
	set := bson.M{"updatedAt": s.now()}
	if upd.Username != "" {
		set["username"] = upd.Username
	}
	if upd.FirstName != "" {
		set["firstName"] = upd.FirstName
	}
	if upd.LastName != "" {
		set["lastName"] = upd.LastName
	}
	if upd.Bio != nil {
		set["bio"] = *upd.Bio
	}
	var u models.User
	err := s.users.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set}, afterUpdate()).Decode(&u)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, store.ErrDuplicate
		}
		return nil, notFound(err)
	}
	u.Normalize()
	return &u, nil
}

func (s *Store) SetAvatar(ctx context.Context, id primitive.ObjectID, url, handle string) (*models.User, error) {
	update := bson.M{"$set": bson.M{"image": url, "image_public_id": handle, "updatedAt": s.now()}}
	var u models.User
	if err := s.users.FindOneAndUpdate(ctx, bson.M{"_id": id}, update, afterUpdate()).Decode(&u); err != nil {
		return nil, notFound(err)
	}
	u.Normalize()
	return &u, nil
}

func (s *Store) PrependRecipe(ctx context.Context, userID, recipeID primitive.ObjectID) error {
	update := bson.M{"$push": bson.M{"recipe_id": bson.M{"$each": bson.A{recipeID}, "$position": 0}}}
	res, err := s.users.UpdateByID(ctx, userID, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) AddFavorite(ctx context.Context, userID, recipeID primitive.ObjectID) (bool, error) {
	filter := bson.M{"_id": userID, "favorites_id": bson.M{"$ne": recipeID}}
	update := bson.M{"$push": bson.M{"favorites_id": bson.M{"$each": bson.A{recipeID}, "$position": 0}}}
	res, err := s.users.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, err
	}
	if res.MatchedCount == 0 {
		return false, s.userExists(ctx, userID)
	}
	return res.ModifiedCount > 0, nil
}

func (s *Store) RemoveFavorite(ctx context.Context, userID, recipeID primitive.ObjectID) (bool, error) {
	res, err := s.users.UpdateByID(ctx, userID, bson.M{"$pull": bson.M{"favorites_id": recipeID}})
	if err != nil {
		return false, err
	}
	if res.MatchedCount == 0 {
		return false, store.ErrNotFound
	}
	return res.ModifiedCount > 0, nil
}

func (s *Store) userExists(ctx context.Context, id primitive.ObjectID) error {
	n, err := s.users.CountDocuments(ctx, bson.M{"_id": id}, options.Count().SetLimit(1))
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) CountUsers(ctx context.Context) (int64, error) {
	return s.users.CountDocuments(ctx, bson.M{})
}

// recipes

func (s *Store) CreateRecipe(ctx context.Context, r *models.Recipe) error {
	if r.ID.IsZero() {
		r.ID = primitive.NewObjectID()
	}
	now := s.now()
	r.CreatedAt, r.UpdatedAt = now, now
	r.Normalize()
	if _, err := s.recipes.InsertOne(ctx, r); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return store.ErrDuplicate
		}
		return err
	}
	return nil
}

func (s *Store) RecipeByID(ctx context.Context, id primitive.ObjectID) (*models.Recipe, error) {
	var r models.Recipe
	if err := s.recipes.FindOne(ctx, bson.M{"_id": id}).Decode(&r); err != nil {
		return nil, notFound(err)
	}
	r.Normalize()
	return &r, nil
}

func (s *Store) RecipesByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.Recipe, error) {
	if len(ids) == 0 {
		return []models.Recipe{}, nil
	}
	found, err := s.find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}
	byID := make(map[primitive.ObjectID]models.Recipe, len(found))
	for _, r := range found {
		byID[r.ID] = r
	}
	out := make([]models.Recipe, 0, len(ids))
	for _, id := range ids {
		if r, ok := byID[id]; ok {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *Store) UpdateRecipe(ctx context.Context, id primitive.ObjectID, upd store.RecipeUpdate) (*models.Recipe, error) {
	r := models.Recipe{
		Ingredients: upd.Ingredients,
		Methods:     upd.Methods,
		Categories:  upd.Categories,
	}
	r.Normalize()
	update := bson.M{"$set": bson.M{
		"title":       upd.Title,
		"info":        upd.Info,
		"ingredients": r.Ingredients,
		"categories":  r.Categories,
		"methods":     r.Methods,
		"updatedAt":   s.now(),
	}}
	var out models.Recipe
	if err := s.recipes.FindOneAndUpdate(ctx, bson.M{"_id": id}, update, afterUpdate()).Decode(&out); err != nil {
		return nil, notFound(err)
	}
	out.Normalize()
	return &out, nil
}

func (s *Store) SetRecipeImage(ctx context.Context, id primitive.ObjectID, url, handle string) (*models.Recipe, error) {
	update := bson.M{"$set": bson.M{"image": url, "image_public_id": handle, "updatedAt": s.now()}}
	var r models.Recipe
	if err := s.recipes.FindOneAndUpdate(ctx, bson.M{"_id": id}, update, afterUpdate()).Decode(&r); err != nil {
		return nil, notFound(err)
	}
	r.Normalize()
	return &r, nil
}

func (s *Store) DeleteRecipe(ctx context.Context, id primitive.ObjectID) (bool, error) {
	res, err := s.recipes.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return false, err
	}
	return res.DeletedCount > 0, nil
}

func (s *Store) AdjustLikes(ctx context.Context, id primitive.ObjectID, delta int) error {
	res, err := s.recipes.UpdateByID(ctx, id, bson.M{"$inc": bson.M{"likes": delta}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) PrependComment(ctx context.Context, recipeID, commentID primitive.ObjectID) (*models.Recipe, error) {
	update := bson.M{
		"$push": bson.M{"comments_id": bson.M{"$each": bson.A{commentID}, "$position": 0}},
		"$set":  bson.M{"updatedAt": s.now()},
	}
	var r models.Recipe
	if err := s.recipes.FindOneAndUpdate(ctx, bson.M{"_id": recipeID}, update, afterUpdate()).Decode(&r); err != nil {
		return nil, notFound(err)
	}
	r.Normalize()
	return &r, nil
}

func (s *Store) FindRecipes(ctx context.Context, q store.Query) ([]models.Recipe, error) {
	var opts *options.FindOptions
	switch q.Sort {
	case store.SortRecent:
		opts = db.OptionsFindLatest(int64(q.Limit))
	case store.SortLikes:
		opts = db.OptionsFindTopLiked(int64(q.Limit))
	default:
		opts = options.Find()
		if q.Limit > 0 {
			opts.SetLimit(int64(q.Limit))
		}
	}
	return s.find(ctx, recipeFilter(q), opts)
}

func (s *Store) find(ctx context.Context, filter bson.M, opts ...*options.FindOptions) ([]models.Recipe, error) {
	cursor, err := s.recipes.Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	out := []models.Recipe{}
	if err := cursor.All(ctx, &out); err != nil {
		return nil, err
	}
	for i := range out {
		out[i].Normalize()
	}
	return out, nil
}

// recipeFilter translates a Query into a Mongo filter. User text is quoted so
// it only ever matches literally.
func recipeFilter(q store.Query) bson.M {
	filter := bson.M{}
	if q.Title != "" {
		filter["title"] = bson.M{"$regex": regexp.QuoteMeta(q.Title), "$options": "i"}
	}
	if len(q.Ingredients) > 0 {
		and := bson.A{}
		for _, tok := range q.Ingredients {
			and = append(and, bson.M{"ingredients.value": bson.M{"$regex": regexp.QuoteMeta(tok), "$options": "i"}})
		}
		filter["$and"] = and
	}
	if len(q.Categories) > 0 {
		filter["categories"] = bson.M{"$in": q.Categories}
	}
	if !q.Since.IsZero() {
		filter["createdAt"] = bson.M{"$gte": q.Since}
	}
	return filter
}

func (s *Store) SampleRecipes(ctx context.Context, n int) ([]models.Recipe, error) {
	cursor, err := s.recipes.Aggregate(ctx, mongo.Pipeline{
		{{Key: "$sample", Value: bson.M{"size": n}}},
	})
	if err != nil {
		return nil, err
	}
	out := []models.Recipe{}
	if err := cursor.All(ctx, &out); err != nil {
		return nil, err
	}
	for i := range out {
		out[i].Normalize()
	}
	return out, nil
}

func (s *Store) CountRecipes(ctx context.Context) (int64, error) {
	return s.recipes.CountDocuments(ctx, bson.M{})
}

func (s *Store) TopAuthors(ctx context.Context, limit int) ([]models.AuthorLikes, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$group", Value: bson.M{"_id": "$author.username", "totalLikes": bson.M{"$sum": "$likes"}}}},
		{{Key: "$sort", Value: bson.D{{Key: "totalLikes", Value: -1}, {Key: "_id", Value: 1}}}},
	}
	if limit > 0 {
		pipeline = append(pipeline, bson.D{{Key: "$limit", Value: limit}})
	}
	cursor, err := s.recipes.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	out := []models.AuthorLikes{}
	if err := cursor.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) Categories(ctx context.Context) ([]string, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$unwind", Value: "$categories"}},
		{{Key: "$group", Value: bson.M{"_id": "$categories"}}},
		{{Key: "$sort", Value: bson.M{"_id": 1}}},
	}
	cursor, err := s.recipes.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	var rows []struct {
		Name string `bson:"_id"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, err
	}
	out := make([]string, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.Name)
	}
	return out, nil
}

// comments

func (s *Store) CreateComment(ctx context.Context, c *models.Comment) error {
	if c.ID.IsZero() {
		c.ID = primitive.NewObjectID()
	}
	now := s.now()
	c.CreatedAt, c.UpdatedAt = now, now
	_, err := s.comments.InsertOne(ctx, c)
	return err
}

func (s *Store) CommentsByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.Comment, error) {
	if len(ids) == 0 {
		return []models.Comment{}, nil
	}
	cursor, err := s.comments.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}
	var found []models.Comment
	if err := cursor.All(ctx, &found); err != nil {
		return nil, err
	}
	byID := make(map[primitive.ObjectID]models.Comment, len(found))
	for _, c := range found {
		byID[c.ID] = c
	}
	out := make([]models.Comment, 0, len(ids))
	for _, id := range ids {
		if c, ok := byID[id]; ok {
			out = append(out, c)
		}
	}
	return out, nil
}
