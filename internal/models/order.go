package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Order statuses.
const (
	OrderStatusPending   = "pending"
	OrderStatusCompleted = "completed"
	OrderStatusFailed    = "failed"
)

// Order is the durable order record. OrderID is the gateway-facing
// identifier that rides through the payment redirect; it carries a
// unique index so the same redirect can never produce two orders.
type Order struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	OrderID    string             `bson:"orderId" json:"orderId"`
	UserID     primitive.ObjectID `bson:"userId" json:"userId"`
	Items      []CartItem         `bson:"items" json:"items"`
	TotalPrice int64              `bson:"totalPrice" json:"totalPrice"`
	Status     string             `bson:"status" json:"status"`
	CreatedAt  time.Time          `bson:"createdAt" json:"createdAt"`
}

// PendingOrder is the checkout handoff written just before the user is
// sent to the payment gateway and consumed exactly once on return.
type PendingOrder struct {
	OrderID   string             `bson:"orderId" json:"orderId"`
	UserID    primitive.ObjectID `bson:"userId" json:"userId"`
	Items     []CartItem         `bson:"items" json:"items"`
	Amount    int64              `bson:"amount" json:"amount"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
}

// ProcessedOrder marks an orderId whose reconciliation already finished,
// so duplicate redirect deliveries short-circuit instead of re-creating
// the order.
type ProcessedOrder struct {
	OrderID     string             `bson:"orderId" json:"orderId"`
	UserID      primitive.ObjectID `bson:"userId" json:"userId"`
	ProcessedAt time.Time          `bson:"processedAt" json:"processedAt"`
}
