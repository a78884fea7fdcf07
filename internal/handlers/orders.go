package handlers

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"gemimarket/internal/models"
)

// ListOrders returns the current user's order history, newest first.
func ListOrders(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer handlePanic(c, "GET /orders")

		userID, ok := currentUserID(c)
		if !ok {
			respondWithError(c, http.StatusUnauthorized, "GET /orders", "unauthorized")
			return
		}

		page, limit, err := parsePaginationParams(c.Query("page"), c.Query("limit"))
		if err != nil {
			respondWithError(c, http.StatusBadRequest, "GET /orders", "invalid pagination parameters")
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		filter := bson.M{"userId": userID}
		collection := db.Collection("orders")

		total, err := collection.CountDocuments(ctx, filter)
		if err != nil {
			log.Println("[ORDERS] [ERROR] order count failed:", err)
			respondWithError(c, http.StatusInternalServerError, "GET /orders", "db error")
			return
		}

		cursor, err := collection.Find(ctx, filter, options.Find().
			SetSort(bson.D{{Key: "createdAt", Value: -1}}).
			SetSkip((page-1)*limit).
			SetLimit(limit))
		if err != nil {
			log.Println("[ORDERS] [ERROR] order query failed:", err)
			respondWithError(c, http.StatusInternalServerError, "GET /orders", "db error")
			return
		}
		defer cursor.Close(ctx)

		orders := make([]models.Order, 0)
		if err := cursor.All(ctx, &orders); err != nil {
			log.Println("[ORDERS] [ERROR] order decode failed:", err)
			respondWithError(c, http.StatusInternalServerError, "GET /orders", "db error")
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"orders": orders,
			"page":   page,
			"limit":  limit,
			"total":  total,
		})
	}
}

// GetOrder returns one of the current user's orders by its orderId.
func GetOrder(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer handlePanic(c, "GET /orders/:orderId")

		userID, ok := currentUserID(c)
		if !ok {
			respondWithError(c, http.StatusUnauthorized, "GET /orders/:orderId", "unauthorized")
			return
		}

		orderID := c.Param("orderId")

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		var order models.Order
		err := db.Collection("orders").FindOne(ctx, bson.M{
			"orderId": orderID,
			"userId":  userID,
		}).Decode(&order)
		if err == mongo.ErrNoDocuments {
			respondWithError(c, http.StatusNotFound, "GET /orders/:orderId", "order not found")
			return
		}
		if err != nil {
			log.Println("[ORDERS] [ERROR] order lookup failed:", err)
			respondWithError(c, http.StatusInternalServerError, "GET /orders/:orderId", "db error")
			return
		}

		c.JSON(http.StatusOK, order)
	}
}
