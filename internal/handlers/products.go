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

// ListProducts returns the full catalog ordered by product id.
func ListProducts(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer handlePanic(c, "GET /products")

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := ensureDBConnection(ctx, db); err != nil {
			respondWithError(c, http.StatusServiceUnavailable, "GET /products", "database unavailable")
			return
		}

		cursor, err := db.Collection("products").Find(ctx, bson.M{},
			options.Find().SetSort(bson.D{{Key: "id", Value: 1}}))
		if err != nil {
			log.Println("[PRODUCTS] [ERROR] catalog query failed:", err)
			respondWithError(c, http.StatusInternalServerError, "GET /products", "db error")
			return
		}
		defer cursor.Close(ctx)

		products := make([]models.Product, 0)
		if err := cursor.All(ctx, &products); err != nil {
			log.Println("[PRODUCTS] [ERROR] catalog decode failed:", err)
			respondWithError(c, http.StatusInternalServerError, "GET /products", "db error")
			return
		}

		c.JSON(http.StatusOK, gin.H{"products": products})
	}
}

// GetProduct returns a single catalog entry by its numeric id.
func GetProduct(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer handlePanic(c, "GET /products/:id")

		id, ok := parseIntParam(c, "id")
		if !ok {
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		var product models.Product
		err := db.Collection("products").FindOne(ctx, bson.M{"id": id}).Decode(&product)
		if err == mongo.ErrNoDocuments {
			respondWithError(c, http.StatusNotFound, "GET /products/:id", "product not found")
			return
		}
		if err != nil {
			log.Println("[PRODUCTS] [ERROR] product lookup failed:", err)
			respondWithError(c, http.StatusInternalServerError, "GET /products/:id", "db error")
			return
		}

		c.JSON(http.StatusOK, product)
	}
}
