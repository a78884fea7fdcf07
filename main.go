package main

import (
	"log"
	"os"
	"time"

	"github.com/gin-gonic/gin"

	"gemimarket/internal/cart"
	"gemimarket/internal/chat"
	"gemimarket/internal/checkout"
	"gemimarket/internal/config"
	"gemimarket/internal/database"
	"gemimarket/internal/handlers"
	"gemimarket/internal/llm"
	"gemimarket/internal/middleware"
	"gemimarket/internal/payments"
)

func main() {
	config.Load()

	client, err := database.Connect(config.AppEnv.MongoURI)
	if err != nil {
		log.Fatal(err)
	}

	db := client.Database(config.AppEnv.DBName)

	log.Println("MongoDB connected to:", db.Name())

	if err := database.EnsureUserIndexes(db); err != nil {
		log.Printf("⚠️ user index warning: %v", err)
	}
	if err := database.EnsureOrderIndexes(db); err != nil {
		log.Printf("⚠️ order index warning: %v", err)
	}
	if err := database.EnsureCheckoutIndexes(db); err != nil {
		log.Printf("⚠️ checkout index warning: %v", err)
	}
	if err := database.EnsureChatIndexes(db); err != nil {
		log.Printf("⚠️ chat index warning: %v", err)
	}
	if err := database.EnsureCartIndexes(db); err != nil {
		log.Printf("⚠️ cart index warning: %v", err)
	}
	if err := database.SeedProducts(db); err != nil {
		log.Printf("⚠️ catalog seed warning: %v", err)
	}

	cartStore := cart.NewStore(db)

	gateway := payments.NewClient(config.AppEnv.TossBaseURL, config.AppEnv.TossSecretKey, 10*time.Second)
	reconciler := checkout.NewReconciler(
		checkout.NewMongoPendingStore(db),
		checkout.NewMongoProcessedStore(db),
		checkout.NewMongoOrderStore(db),
		cartStore,
		gateway,
	)

	model := llm.NewClient(config.AppEnv.OpenAIBaseURL, config.AppEnv.OpenAIAPIKey, config.AppEnv.OpenAIModel, 25*time.Second)
	hub := chat.NewHub()
	fallback := chat.NewFallback(chat.NewMongoProductLister(db))
	chatService := chat.NewService(chat.NewMongoMessageStore(db), model, fallback, hub)

	r := gin.Default()

	r.POST("/auth/register", handlers.Register(
		db,
		config.AppEnv.JWTSecret,
		config.AppEnv.AccessTokenTTL,
		config.AppEnv.RefreshTokenTTL,
	))
	r.POST("/auth/login", handlers.Login(
		db,
		config.AppEnv.JWTSecret,
		config.AppEnv.AccessTokenTTL,
		config.AppEnv.RefreshTokenTTL,
	))
	r.POST("/auth/refresh", handlers.Refresh(
		db,
		config.AppEnv.JWTSecret,
		config.AppEnv.AccessTokenTTL,
		config.AppEnv.RefreshTokenTTL,
	))
	r.POST("/auth/logout", handlers.Logout(db))
	r.GET("/auth/me", middleware.UserAuth(config.AppEnv.JWTSecret), handlers.GetMe(db))

	r.GET("/products", handlers.ListProducts(db))
	r.GET("/products/:id", handlers.GetProduct(db))

	user := r.Group("/")
	user.Use(middleware.UserAuth(config.AppEnv.JWTSecret))
	{
		user.GET("/cart", handlers.GetCart(cartStore))
		user.POST("/cart/items", handlers.AddCartItem(db, cartStore))
		user.PUT("/cart/items/:productId", handlers.UpdateCartItem(cartStore))
		user.DELETE("/cart/items/:productId", handlers.RemoveCartItem(cartStore))
		user.DELETE("/cart", handlers.ClearCart(cartStore))

		user.POST("/checkout", handlers.BeginCheckout(cartStore, reconciler))
		user.GET("/payment/success", handlers.PaymentSuccess(reconciler))
		user.GET("/payment/fail", handlers.PaymentFail())

		user.GET("/orders", handlers.ListOrders(db))
		user.GET("/orders/:orderId", handlers.GetOrder(db))
	}

	r.POST("/chat/session", handlers.CreateChatSession())
	r.GET("/chat/messages", handlers.GetChatMessages(chatService))
	r.POST("/chat/messages", handlers.SendChatMessage(chatService))
	r.GET("/chat/stream", handlers.StreamChatMessages(hub))

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	log.Println("Server starting on port:", port)
	if err := r.Run(":" + port); err != nil {
		log.Fatal(err)
	}
}
