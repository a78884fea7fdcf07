package database

import (
	"context"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func EnsureUserIndexes(db *mongo.Database) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	indexes := db.Collection("users").Indexes()

	emailIndex := mongo.IndexModel{
		Keys: bson.D{{Key: "email", Value: 1}},
		Options: options.Index().
			SetName("email_unique").
			SetUnique(true),
	}

	log.Println("EnsureUserIndexes: creating email_unique index")
	_, err := indexes.CreateOne(ctx, emailIndex)
	if err != nil {
		log.Println("EnsureUserIndexes: email index error:", err)
		return err
	}
	return nil
}

// EnsureOrderIndexes creates the unique orderId index that enforces the
// at-most-one-order-per-orderId guarantee at the store layer, plus the
// userId index backing order history lookups.
func EnsureOrderIndexes(db *mongo.Database) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	indexes := db.Collection("orders").Indexes()

	orderIDIndex := mongo.IndexModel{
		Keys: bson.D{{Key: "orderId", Value: 1}},
		Options: options.Index().
			SetName("orderId_unique").
			SetUnique(true),
	}
	userIDIndex := mongo.IndexModel{
		Keys:    bson.D{{Key: "userId", Value: 1}},
		Options: options.Index().SetName("userId_index"),
	}

	log.Println("EnsureOrderIndexes: creating orderId_unique and userId_index")
	_, err := indexes.CreateMany(ctx, []mongo.IndexModel{orderIDIndex, userIDIndex})
	if err != nil {
		log.Println("EnsureOrderIndexes: index error:", err)
		return err
	}
	return nil
}

// EnsureCheckoutIndexes backs the pending/processed order stores.
// The unique processed orderId index is what makes marking an order
// processed a compare-and-swap, so two concurrent reconciliations for
// the same order cannot both win.
func EnsureCheckoutIndexes(db *mongo.Database) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	pending := mongo.IndexModel{
		Keys: bson.D{{Key: "orderId", Value: 1}},
		Options: options.Index().
			SetName("pending_orderId_unique").
			SetUnique(true),
	}
	if _, err := db.Collection("pending_orders").Indexes().CreateOne(ctx, pending); err != nil {
		log.Println("EnsureCheckoutIndexes: pending index error:", err)
		return err
	}

	processed := mongo.IndexModel{
		Keys: bson.D{{Key: "orderId", Value: 1}},
		Options: options.Index().
			SetName("processed_orderId_unique").
			SetUnique(true),
	}
	if _, err := db.Collection("processed_orders").Indexes().CreateOne(ctx, processed); err != nil {
		log.Println("EnsureCheckoutIndexes: processed index error:", err)
		return err
	}
	return nil
}

func EnsureChatIndexes(db *mongo.Database) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	sessionIndex := mongo.IndexModel{
		Keys: bson.D{
			{Key: "sessionId", Value: 1},
			{Key: "createdAt", Value: 1},
		},
		Options: options.Index().SetName("sessionId_createdAt"),
	}

	log.Println("EnsureChatIndexes: creating sessionId_createdAt index")
	_, err := db.Collection("chat_messages").Indexes().CreateOne(ctx, sessionIndex)
	if err != nil {
		log.Println("EnsureChatIndexes: session index error:", err)
		return err
	}
	return nil
}

func EnsureCartIndexes(db *mongo.Database) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	userIndex := mongo.IndexModel{
		Keys: bson.D{{Key: "userId", Value: 1}},
		Options: options.Index().
			SetName("cart_userId_unique").
			SetUnique(true),
	}

	_, err := db.Collection("carts").Indexes().CreateOne(ctx, userIndex)
	if err != nil {
		log.Println("EnsureCartIndexes: userId index error:", err)
		return err
	}
	return nil
}
