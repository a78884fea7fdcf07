package cart

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"gemimarket/internal/models"
)

// Store persists one cart document per user in the carts collection.
type Store struct {
	db *mongo.Database
}

func NewStore(db *mongo.Database) *Store {
	return &Store{db: db}
}

// Load returns the user's cart, empty if none has been saved yet.
func (s *Store) Load(ctx context.Context, userID primitive.ObjectID) (*Cart, error) {
	var doc models.CartDocument
	err := s.db.Collection("carts").FindOne(ctx, bson.M{"userId": userID}).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return New(nil), nil
	}
	if err != nil {
		return nil, err
	}
	return New(doc.Items), nil
}

// Save upserts the user's cart document.
func (s *Store) Save(ctx context.Context, userID primitive.ObjectID, c *Cart) error {
	_, err := s.db.Collection("carts").UpdateOne(
		ctx,
		bson.M{"userId": userID},
		bson.M{"$set": bson.M{
			"items":     c.Items(),
			"updatedAt": time.Now(),
		}},
		options.Update().SetUpsert(true),
	)
	return err
}

// Clear drops every line from the user's cart.
func (s *Store) Clear(ctx context.Context, userID primitive.ObjectID) error {
	_, err := s.db.Collection("carts").UpdateOne(
		ctx,
		bson.M{"userId": userID},
		bson.M{"$set": bson.M{
			"items":     []models.CartItem{},
			"updatedAt": time.Now(),
		}},
	)
	return err
}
