package checkout

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"gemimarket/internal/models"
)

// MongoPendingStore keeps handoffs in the pending_orders collection.
type MongoPendingStore struct {
	db *mongo.Database
}

func NewMongoPendingStore(db *mongo.Database) *MongoPendingStore {
	return &MongoPendingStore{db: db}
}

func (s *MongoPendingStore) Put(ctx context.Context, pending models.PendingOrder) error {
	_, err := s.db.Collection("pending_orders").UpdateOne(
		ctx,
		bson.M{"orderId": pending.OrderID},
		bson.M{"$set": pending},
		options.Update().SetUpsert(true),
	)
	return err
}

func (s *MongoPendingStore) Get(ctx context.Context, orderID string) (*models.PendingOrder, error) {
	var pending models.PendingOrder
	err := s.db.Collection("pending_orders").FindOne(ctx, bson.M{"orderId": orderID}).Decode(&pending)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNoPendingOrder
	}
	if err != nil {
		return nil, err
	}
	return &pending, nil
}

func (s *MongoPendingStore) Delete(ctx context.Context, orderID string) error {
	_, err := s.db.Collection("pending_orders").DeleteOne(ctx, bson.M{"orderId": orderID})
	return err
}

// MongoProcessedStore keeps the processed set in processed_orders.
// The collection carries a unique orderId index, so Mark is a
// compare-and-swap: the second marker gets a duplicate key error.
type MongoProcessedStore struct {
	db *mongo.Database
}

func NewMongoProcessedStore(db *mongo.Database) *MongoProcessedStore {
	return &MongoProcessedStore{db: db}
}

func (s *MongoProcessedStore) Contains(ctx context.Context, orderID string) (bool, error) {
	count, err := s.db.Collection("processed_orders").CountDocuments(ctx, bson.M{"orderId": orderID})
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (s *MongoProcessedStore) Mark(ctx context.Context, processed models.ProcessedOrder) error {
	_, err := s.db.Collection("processed_orders").InsertOne(ctx, processed)
	return err
}

// MongoOrderStore writes durable order records.
type MongoOrderStore struct {
	db *mongo.Database
}

func NewMongoOrderStore(db *mongo.Database) *MongoOrderStore {
	return &MongoOrderStore{db: db}
}

func (s *MongoOrderStore) Insert(ctx context.Context, order models.Order) error {
	_, err := s.db.Collection("orders").InsertOne(ctx, order)
	return err
}

func (s *MongoOrderStore) ExistsByOrderID(ctx context.Context, orderID string) (bool, error) {
	count, err := s.db.Collection("orders").CountDocuments(ctx, bson.M{"orderId": orderID})
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
