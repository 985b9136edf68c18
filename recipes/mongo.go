package recipes

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"aichef/models"
)

// DuplicateWindow is how long a save with the same user and recipe name is
// treated as a repeat of the earlier one.
const DuplicateWindow = 5 * time.Minute

// MongoStore implements Store on a single collection keyed by (user_id, id).
type MongoStore struct {
	coll *mongo.Collection
	log  *zap.Logger
	now  func() time.Time
}

func NewMongoStore(coll *mongo.Collection, log *zap.Logger) *MongoStore {
	if log == nil {
		log = zap.NewNop()
	}
	return &MongoStore{coll: coll, log: log, now: time.Now}
}

func ownerFilter(p Principal, id string) bson.M {
	return bson.M{"user_id": p.UserID, "id": id}
}

func (s *MongoStore) Save(ctx context.Context, p Principal, r models.Recipe) (models.Recipe, error) {
	if !p.Authenticated() {
		return models.Recipe{}, ErrUnauthorized
	}

	now := s.now().UTC()
	since := models.NewTimestamp(now.Add(-DuplicateWindow))
	var existing models.Recipe
	err := s.coll.FindOne(ctx, bson.M{
		"user_id":     p.UserID,
		"recipe_name": r.RecipeName,
		"saved_date":  bson.M{"$gte": since},
	}).Decode(&existing)
	switch {
	case err == nil:
		s.log.Warn("duplicate save detected; returning existing recipe",
			zap.String("recipe", r.RecipeName), zap.String("id", existing.ID))
		return existing, nil
	case !errors.Is(err, mongo.ErrNoDocuments):
		return models.Recipe{}, fmt.Errorf("find duplicate recipe: %w", err)
	}

	doc := r.WithoutTempID()
	if doc.ID == "" {
		doc.ID = uuid.NewString()
	}
	if doc.SavedDate.IsZero() {
		doc.SavedDate = models.NewTimestamp(now)
	}
	doc.UserID = p.UserID
	if p.Email != "" {
		doc.UserEmail = models.StringPtr(p.Email)
	}
	if doc.CookingTips == nil {
		doc.CookingTips = []string{}
	}

	_, err = s.coll.UpdateOne(ctx, ownerFilter(p, doc.ID),
		bson.M{"$set": doc}, options.Update().SetUpsert(true))
	if err != nil {
		return models.Recipe{}, fmt.Errorf("upsert recipe %s: %w", doc.ID, err)
	}
	s.log.Info("recipe saved", zap.String("recipe", doc.RecipeName), zap.String("id", doc.ID))
	return doc, nil
}

func (s *MongoStore) ListByUser(ctx context.Context, p Principal) ([]models.Recipe, error) {
	if !p.Authenticated() {
		return nil, ErrUnauthorized
	}
	return s.find(ctx, bson.M{"user_id": p.UserID})
}

func (s *MongoStore) Delete(ctx context.Context, p Principal, id string) error {
	if !p.Authenticated() {
		return ErrUnauthorized
	}
	res, err := s.coll.DeleteOne(ctx, ownerFilter(p, id))
	if err != nil {
		return fmt.Errorf("delete recipe %s: %w", id, err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *MongoStore) SetFavorite(ctx context.Context, p Principal, id string, favorite bool) (models.Recipe, error) {
	return s.setFlag(ctx, p, id, "is_favorite", favorite)
}

func (s *MongoStore) SetShared(ctx context.Context, p Principal, id string, shared bool) (models.Recipe, error) {
	return s.setFlag(ctx, p, id, "is_shared", shared)
}

func (s *MongoStore) ListShared(ctx context.Context) ([]models.Recipe, error) {
	return s.find(ctx, bson.M{"is_shared": true})
}

func (s *MongoStore) setFlag(ctx context.Context, p Principal, id, field string, v bool) (models.Recipe, error) {
	if !p.Authenticated() {
		return models.Recipe{}, ErrUnauthorized
	}
	var updated models.Recipe
	err := s.coll.FindOneAndUpdate(ctx, ownerFilter(p, id),
		bson.M{"$set": bson.M{field: v}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&updated)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.Recipe{}, ErrNotFound
	}
	if err != nil {
		return models.Recipe{}, fmt.Errorf("update %s on %s: %w", field, id, err)
	}
	return updated, nil
}

// find returns matches newest first. saved_date is stored as a fixed-width
// UTC string so the lexical sort is chronological.
func (s *MongoStore) find(ctx context.Context, filter bson.M) ([]models.Recipe, error) {
	opts := options.Find().SetSort(bson.D{{Key: "saved_date", Value: -1}})
	cursor, err := s.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("find recipes: %w", err)
	}
	defer cursor.Close(ctx)

	var out []models.Recipe
	if err := cursor.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode recipes: %w", err)
	}
	if out == nil {
		out = []models.Recipe{}
	}
	return out, nil
}
