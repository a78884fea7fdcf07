package checkout

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"gemimarket/internal/cart"
	"gemimarket/internal/models"
)

// Reconciler owns the pending-order handoff and the exactly-once order
// creation on return from the payment gateway.
type Reconciler struct {
	pending   PendingOrderStore
	processed ProcessedOrderStore
	orders    OrderStore
	carts     CartClearer
	gateway   PaymentConfirmer

	mu       sync.Mutex
	inFlight map[string]bool
}

func NewReconciler(pending PendingOrderStore, processed ProcessedOrderStore, orders OrderStore, carts CartClearer, gateway PaymentConfirmer) *Reconciler {
	return &Reconciler{
		pending:   pending,
		processed: processed,
		orders:    orders,
		carts:     carts,
		gateway:   gateway,
		inFlight:  make(map[string]bool),
	}
}

// Begin writes the checkout handoff and returns it. The caller forwards
// OrderID and Amount to the gateway redirect; the items are frozen here
// so later cart edits cannot change what the return callback records.
func (r *Reconciler) Begin(ctx context.Context, userID primitive.ObjectID, items []models.CartItem) (*models.PendingOrder, error) {
	snapshot := cart.New(items)
	if snapshot.TotalItems() == 0 {
		return nil, errors.New("at least one item is required")
	}

	pending := models.PendingOrder{
		OrderID:   uuid.NewString(),
		UserID:    userID,
		Items:     snapshot.Items(),
		Amount:    snapshot.TotalPrice(),
		CreatedAt: time.Now(),
	}

	if err := r.pending.Put(ctx, pending); err != nil {
		return nil, fmt.Errorf("failed to store pending order: %w", err)
	}

	log.Println("[CHECKOUT] [INFO] pending order created:", pending.OrderID)
	return &pending, nil
}

// Result reports the outcome of a successful return callback.
type Result struct {
	Order            *models.Order
	AlreadyProcessed bool
}

// CompleteSuccess runs the reconciliation state machine for a gateway
// success redirect. At most one durable order is created per orderId:
// re-invocations are suppressed by the in-flight guard, short-circuited
// by the processed set, and finally rejected by the unique order index.
func (r *Reconciler) CompleteSuccess(ctx context.Context, userID primitive.ObjectID, orderID, paymentKey string, amount int64) (*Result, error) {
	if !r.tryAcquire(orderID) {
		return nil, ErrAlreadyProcessing
	}
	defer r.release(orderID)

	done, err := r.processed.Contains(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to check processed set: %w", err)
	}
	if done {
		log.Println("[CHECKOUT] [INFO] order already processed:", orderID)
		return &Result{AlreadyProcessed: true}, nil
	}

	pending, err := r.pending.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}

	// Sole authorization check: the handoff must belong to the caller
	// and agree with the redirect parameters.
	if pending.OrderID != orderID || pending.UserID != userID {
		log.Println("[CHECKOUT] [ERROR] pending order mismatch for:", orderID)
		return nil, ErrOrderMismatch
	}
	if amount != pending.Amount {
		log.Printf("[CHECKOUT] [ERROR] amount mismatch for %s: redirect=%d pending=%d", orderID, amount, pending.Amount)
		return nil, ErrOrderMismatch
	}

	if _, err := r.gateway.Confirm(ctx, paymentKey, orderID, amount); err != nil {
		// Nothing committed; the handoff stays so the user can retry.
		return nil, fmt.Errorf("payment confirmation failed: %w", err)
	}

	order := models.Order{
		OrderID:    pending.OrderID,
		UserID:     pending.UserID,
		Items:      pending.Items,
		TotalPrice: pending.Amount,
		Status:     models.OrderStatusCompleted,
		CreatedAt:  time.Now(),
	}

	if err := r.orders.Insert(ctx, order); err != nil {
		// A concurrent reconciliation (another tab) may have won the
		// unique-index race; that is a duplicate delivery, not a failure.
		exists, checkErr := r.orders.ExistsByOrderID(ctx, orderID)
		if checkErr == nil && exists {
			log.Println("[CHECKOUT] [INFO] order already recorded:", orderID)
			r.finish(ctx, pending)
			return &Result{AlreadyProcessed: true}, nil
		}
		// Order not created: leave the processed set untouched so a
		// retry remains possible.
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	if err := r.carts.Clear(ctx, userID); err != nil {
		log.Println("[CHECKOUT] [ERROR] cart clear failed:", err)
	}

	r.finish(ctx, pending)

	log.Println("[CHECKOUT] [INFO] order completed:", orderID)
	return &Result{Order: &order}, nil
}

// finish marks the orderId processed and drops the handoff. Both are
// best-effort: the durable order already exists and the unique index
// keeps duplicates out even if these writes fail.
func (r *Reconciler) finish(ctx context.Context, pending *models.PendingOrder) {
	err := r.processed.Mark(ctx, models.ProcessedOrder{
		OrderID:     pending.OrderID,
		UserID:      pending.UserID,
		ProcessedAt: time.Now(),
	})
	if err != nil {
		log.Println("[CHECKOUT] [ERROR] processed mark failed:", err)
	}
	if err := r.pending.Delete(ctx, pending.OrderID); err != nil {
		log.Println("[CHECKOUT] [ERROR] pending delete failed:", err)
	}
}

func (r *Reconciler) tryAcquire(orderID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.inFlight[orderID] {
		return false
	}
	r.inFlight[orderID] = true
	return true
}

func (r *Reconciler) release(orderID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.inFlight, orderID)
}

// FailureMessage maps a gateway failure redirect to the user-facing
// notice. The cart is untouched on failure so checkout can be retried.
func FailureMessage(code, message string) string {
	if message != "" {
		return message
	}
	switch code {
	case "USER_CANCEL":
		return "결제가 취소되었습니다."
	case "INVALID_CARD":
		return "유효하지 않은 카드 정보입니다."
	default:
		return "결제 중 오류가 발생했습니다."
	}
}
