package chat

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"gemimarket/internal/llm"
	"gemimarket/internal/models"
)

// MessageStore persists chat messages.
type MessageStore interface {
	Insert(ctx context.Context, sessionID, sender, message string) (*models.ChatMessage, error)
	BySession(ctx context.Context, sessionID string) ([]models.ChatMessage, error)
}

// ProductLister reads the live catalog for the product-listing fallback.
type ProductLister interface {
	List(ctx context.Context) ([]models.Product, error)
}

// Model generates an assistant reply from a conversation.
type Model interface {
	Complete(ctx context.Context, history []llm.Message) (*llm.Reply, error)
}

// MongoMessageStore keeps messages in the chat_messages collection.
type MongoMessageStore struct {
	db *mongo.Database
}

func NewMongoMessageStore(db *mongo.Database) *MongoMessageStore {
	return &MongoMessageStore{db: db}
}

func (s *MongoMessageStore) Insert(ctx context.Context, sessionID, sender, message string) (*models.ChatMessage, error) {
	msg := models.ChatMessage{
		SessionID: sessionID,
		Sender:    sender,
		Message:   message,
		CreatedAt: time.Now(),
	}

	res, err := s.db.Collection("chat_messages").InsertOne(ctx, msg)
	if err != nil {
		return nil, err
	}
	if id, ok := res.InsertedID.(primitive.ObjectID); ok {
		msg.ID = id
	}
	return &msg, nil
}

func (s *MongoMessageStore) BySession(ctx context.Context, sessionID string) ([]models.ChatMessage, error) {
	findOptions := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}})

	cursor, err := s.db.Collection("chat_messages").Find(ctx, bson.M{"sessionId": sessionID}, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var messages []models.ChatMessage
	if err := cursor.All(ctx, &messages); err != nil {
		return nil, err
	}
	return messages, nil
}

// MongoProductLister reads the catalog ordered by product id, matching
// the storefront listing.
type MongoProductLister struct {
	db *mongo.Database
}

func NewMongoProductLister(db *mongo.Database) *MongoProductLister {
	return &MongoProductLister{db: db}
}

func (l *MongoProductLister) List(ctx context.Context) ([]models.Product, error) {
	findOptions := options.Find().SetSort(bson.D{{Key: "id", Value: 1}})

	cursor, err := l.db.Collection("products").Find(ctx, bson.M{}, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var products []models.Product
	if err := cursor.All(ctx, &products); err != nil {
		return nil, err
	}
	return products, nil
}
