package checkout

import (
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"gemimarket/internal/models"
	"gemimarket/internal/payments"
)

// PendingOrderStore holds checkout handoffs between the redirect out to
// the gateway and the return callback.
type PendingOrderStore interface {
	Put(ctx context.Context, pending models.PendingOrder) error
	Get(ctx context.Context, orderID string) (*models.PendingOrder, error)
	Delete(ctx context.Context, orderID string) error
}

// ProcessedOrderStore records orderIds whose reconciliation finished.
// Mark must fail for an orderId that is already marked, so that exactly
// one concurrent reconciliation can win.
type ProcessedOrderStore interface {
	Contains(ctx context.Context, orderID string) (bool, error)
	Mark(ctx context.Context, processed models.ProcessedOrder) error
}

// OrderStore creates durable order records.
type OrderStore interface {
	Insert(ctx context.Context, order models.Order) error
	ExistsByOrderID(ctx context.Context, orderID string) (bool, error)
}

// CartClearer empties a user's cart after a completed order.
type CartClearer interface {
	Clear(ctx context.Context, userID primitive.ObjectID) error
}

// PaymentConfirmer approves a redirect outcome with the gateway.
type PaymentConfirmer interface {
	Confirm(ctx context.Context, paymentKey, orderID string, amount int64) (*payments.Confirmation, error)
}
