package handlers

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"gemimarket/internal/cart"
	"gemimarket/internal/models"
)

type AddCartItemRequest struct {
	ProductID int `json:"productId" binding:"required"`
	Quantity  int `json:"quantity"`
}

type UpdateCartItemRequest struct {
	Quantity int `json:"quantity" binding:"required"`
}

func cartResponse(c *gin.Context, userCart *cart.Cart) {
	c.JSON(http.StatusOK, gin.H{
		"items":      userCart.Items(),
		"totalItems": userCart.TotalItems(),
		"totalPrice": userCart.TotalPrice(),
	})
}

// GetCart returns the current user's cart with derived totals.
func GetCart(store *cart.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer handlePanic(c, "GET /cart")

		userID, ok := currentUserID(c)
		if !ok {
			respondWithError(c, http.StatusUnauthorized, "GET /cart", "unauthorized")
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		userCart, err := store.Load(ctx, userID)
		if err != nil {
			log.Println("[CART] [ERROR] cart load failed:", err)
			respondWithError(c, http.StatusInternalServerError, "GET /cart", "db error")
			return
		}

		cartResponse(c, userCart)
	}
}

// AddCartItem adds a catalog product to the cart, merging quantities
// when the product is already present.
func AddCartItem(db *mongo.Database, store *cart.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer handlePanic(c, "POST /cart/items")

		userID, ok := currentUserID(c)
		if !ok {
			respondWithError(c, http.StatusUnauthorized, "POST /cart/items", "unauthorized")
			return
		}

		var req AddCartItemRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}
		if req.Quantity == 0 {
			req.Quantity = 1
		}
		if req.Quantity < 0 {
			respondWithError(c, http.StatusBadRequest, "POST /cart/items", "quantity must be positive")
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		var product models.Product
		err := db.Collection("products").FindOne(ctx, bson.M{"id": req.ProductID}).Decode(&product)
		if err == mongo.ErrNoDocuments {
			respondWithError(c, http.StatusNotFound, "POST /cart/items", "product not found")
			return
		}
		if err != nil {
			log.Println("[CART] [ERROR] product lookup failed:", err)
			respondWithError(c, http.StatusInternalServerError, "POST /cart/items", "db error")
			return
		}

		userCart, err := store.Load(ctx, userID)
		if err != nil {
			log.Println("[CART] [ERROR] cart load failed:", err)
			respondWithError(c, http.StatusInternalServerError, "POST /cart/items", "db error")
			return
		}

		userCart.Add(product, req.Quantity)

		if err := store.Save(ctx, userID, userCart); err != nil {
			log.Println("[CART] [ERROR] cart save failed:", err)
			respondWithError(c, http.StatusInternalServerError, "POST /cart/items", "db error")
			return
		}

		cartResponse(c, userCart)
	}
}

// UpdateCartItem sets the quantity of a cart line. A quantity of zero or
// below removes the line entirely.
func UpdateCartItem(store *cart.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer handlePanic(c, "PUT /cart/items/:productId")

		userID, ok := currentUserID(c)
		if !ok {
			respondWithError(c, http.StatusUnauthorized, "PUT /cart/items/:productId", "unauthorized")
			return
		}

		productID, ok := parseIntParam(c, "productId")
		if !ok {
			return
		}

		var req UpdateCartItemRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		userCart, err := store.Load(ctx, userID)
		if err != nil {
			log.Println("[CART] [ERROR] cart load failed:", err)
			respondWithError(c, http.StatusInternalServerError, "PUT /cart/items/:productId", "db error")
			return
		}

		userCart.SetQuantity(productID, req.Quantity)

		if err := store.Save(ctx, userID, userCart); err != nil {
			log.Println("[CART] [ERROR] cart save failed:", err)
			respondWithError(c, http.StatusInternalServerError, "PUT /cart/items/:productId", "db error")
			return
		}

		cartResponse(c, userCart)
	}
}

// RemoveCartItem drops a product line from the cart.
func RemoveCartItem(store *cart.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer handlePanic(c, "DELETE /cart/items/:productId")

		userID, ok := currentUserID(c)
		if !ok {
			respondWithError(c, http.StatusUnauthorized, "DELETE /cart/items/:productId", "unauthorized")
			return
		}

		productID, ok := parseIntParam(c, "productId")
		if !ok {
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		userCart, err := store.Load(ctx, userID)
		if err != nil {
			log.Println("[CART] [ERROR] cart load failed:", err)
			respondWithError(c, http.StatusInternalServerError, "DELETE /cart/items/:productId", "db error")
			return
		}

		userCart.Remove(productID)

		if err := store.Save(ctx, userID, userCart); err != nil {
			log.Println("[CART] [ERROR] cart save failed:", err)
			respondWithError(c, http.StatusInternalServerError, "DELETE /cart/items/:productId", "db error")
			return
		}

		cartResponse(c, userCart)
	}
}

// ClearCart empties the cart.
func ClearCart(store *cart.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer handlePanic(c, "DELETE /cart")

		userID, ok := currentUserID(c)
		if !ok {
			respondWithError(c, http.StatusUnauthorized, "DELETE /cart", "unauthorized")
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := store.Clear(ctx, userID); err != nil {
			log.Println("[CART] [ERROR] cart clear failed:", err)
			respondWithError(c, http.StatusInternalServerError, "DELETE /cart", "db error")
			return
		}

		cartResponse(c, cart.New(nil))
	}
}
