package handlers

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"gemimarket/internal/cart"
	"gemimarket/internal/checkout"
)

// BeginCheckout snapshots the current cart into a pending order and
// returns the orderId and amount the client forwards to the payment
// gateway redirect.
func BeginCheckout(store *cart.Store, reconciler *checkout.Reconciler) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer handlePanic(c, "POST /checkout")

		userID, ok := currentUserID(c)
		if !ok {
			respondWithError(c, http.StatusUnauthorized, "POST /checkout", "unauthorized")
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		userCart, err := store.Load(ctx, userID)
		if err != nil {
			log.Println("[CHECKOUT] [ERROR] cart load failed:", err)
			respondWithError(c, http.StatusInternalServerError, "POST /checkout", "db error")
			return
		}
		if userCart.TotalItems() == 0 {
			respondWithError(c, http.StatusBadRequest, "POST /checkout", "cart is empty")
			return
		}

		pending, err := reconciler.Begin(ctx, userID, userCart.Items())
		if err != nil {
			log.Println("[CHECKOUT] [ERROR] begin checkout failed:", err)
			respondWithError(c, http.StatusInternalServerError, "POST /checkout", "failed to start checkout")
			return
		}

		c.JSON(http.StatusCreated, gin.H{
			"orderId": pending.OrderID,
			"amount":  pending.Amount,
			"items":   pending.Items,
		})
	}
}

// PaymentSuccess handles the gateway success redirect. The reconciler
// guarantees at most one order per orderId no matter how many times the
// redirect is replayed.
func PaymentSuccess(reconciler *checkout.Reconciler) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer handlePanic(c, "GET /payment/success")

		userID, ok := currentUserID(c)
		if !ok {
			respondWithError(c, http.StatusUnauthorized, "GET /payment/success", "unauthorized")
			return
		}

		orderID := c.Query("orderId")
		paymentKey := c.Query("paymentKey")
		amountParam := c.Query("amount")
		if orderID == "" || paymentKey == "" || amountParam == "" {
			respondWithError(c, http.StatusBadRequest, "GET /payment/success", "orderId, paymentKey and amount are required")
			return
		}
		amount, err := strconv.ParseInt(amountParam, 10, 64)
		if err != nil {
			respondWithError(c, http.StatusBadRequest, "GET /payment/success", "invalid amount")
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()

		result, err := reconciler.CompleteSuccess(ctx, userID, orderID, paymentKey, amount)
		if err != nil {
			status, notice := successFailureResponse(err)
			log.Println("[CHECKOUT] [ERROR] payment success reconciliation failed:", err)
			c.JSON(status, gin.H{"error": notice})
			return
		}

		if result.AlreadyProcessed {
			c.JSON(http.StatusOK, gin.H{
				"orderId":          orderID,
				"alreadyProcessed": true,
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"orderId":          result.Order.OrderID,
			"totalPrice":       result.Order.TotalPrice,
			"status":           result.Order.Status,
			"alreadyProcessed": false,
		})
	}
}

// successFailureResponse maps a reconciliation error to the status code
// and Korean notice shown on the completion page.
func successFailureResponse(err error) (int, string) {
	switch {
	case errors.Is(err, checkout.ErrAlreadyProcessing):
		return http.StatusConflict, "주문을 처리 중입니다."
	case errors.Is(err, checkout.ErrNoPendingOrder):
		return http.StatusNotFound, "주문 정보 없음"
	case errors.Is(err, checkout.ErrOrderMismatch):
		return http.StatusBadRequest, "주문 정보 오류"
	default:
		return http.StatusInternalServerError, "주문 저장 오류"
	}
}

// PaymentFail handles the gateway failure redirect. Nothing is
// committed and the cart survives so the user can retry.
func PaymentFail() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer handlePanic(c, "GET /payment/fail")

		code := c.Query("code")
		message := c.Query("message")
		orderID := c.Query("orderId")

		log.Printf("[CHECKOUT] [INFO] payment failed: order=%s code=%s", orderID, code)
		c.JSON(http.StatusOK, gin.H{
			"orderId": orderID,
			"code":    code,
			"message": checkout.FailureMessage(code, message),
		})
	}
}
