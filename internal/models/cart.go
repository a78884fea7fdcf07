package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CartItem is a single product line inside a cart or an order.
// Quantity is always >= 1; a quantity dropping to zero removes the line.
type CartItem struct {
	ProductID int    `bson:"productId" json:"productId"`
	Name      string `bson:"name" json:"name"`
	Price     int64  `bson:"price" json:"price"`
	Quantity  int    `bson:"quantity" json:"quantity"`
	ImageURL  string `bson:"imageUrl,omitempty" json:"imageUrl,omitempty"`
}

// CartDocument is the persisted cart, one per user.
type CartDocument struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"-"`
	UserID    primitive.ObjectID `bson:"userId" json:"userId"`
	Items     []CartItem         `bson:"items" json:"items"`
	UpdatedAt time.Time          `bson:"updatedAt" json:"updatedAt"`
}
