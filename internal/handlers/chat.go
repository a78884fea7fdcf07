package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"gemimarket/internal/chat"
	"gemimarket/internal/models"
)

type SendChatMessageRequest struct {
	SessionID string `json:"sessionId" binding:"required"`
	Message   string `json:"message" binding:"required"`
}

// welcomeEntry is the static greeting prepended to every history
// response. Its fixed id lets clients dedup it across reloads.
func welcomeEntry(sessionID string) gin.H {
	return gin.H{
		"id":        "welcome",
		"sessionId": sessionID,
		"sender":    models.ChatSenderBot,
		"message":   chat.WelcomeText,
	}
}

// CreateChatSession mints a fresh session id. Sessions carry no server
// state beyond their message history.
func CreateChatSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionID := uuid.NewString()
		c.JSON(http.StatusCreated, gin.H{
			"sessionId": sessionID,
			"welcome":   welcomeEntry(sessionID),
		})
	}
}

// GetChatMessages returns the session history, oldest first, with the
// welcome greeting prepended.
func GetChatMessages(service *chat.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer handlePanic(c, "GET /chat/messages")

		sessionID := c.Query("sessionId")
		if sessionID == "" {
			respondWithError(c, http.StatusBadRequest, "GET /chat/messages", "sessionId is required")
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		history := service.History(ctx, sessionID)

		messages := make([]any, 0, len(history)+1)
		messages = append(messages, welcomeEntry(sessionID))
		for _, msg := range history {
			messages = append(messages, msg)
		}

		c.JSON(http.StatusOK, gin.H{"messages": messages})
	}
}

// SendChatMessage runs one send: persist the user message, generate a
// reply, persist it, and return both sides.
func SendChatMessage(service *chat.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer handlePanic(c, "POST /chat/messages")

		var req SendChatMessageRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		result, err := service.Send(ctx, req.SessionID, req.Message)
		if err != nil {
			switch {
			case errors.Is(err, chat.ErrEmptyMessage):
				respondWithError(c, http.StatusBadRequest, "POST /chat/messages", "message is empty")
			case errors.Is(err, chat.ErrSendInFlight):
				respondWithError(c, http.StatusConflict, "POST /chat/messages", "a message is already being processed")
			default:
				respondWithError(c, http.StatusInternalServerError, "POST /chat/messages", "failed to send message")
			}
			return
		}

		c.JSON(http.StatusOK, result)
	}
}

// StreamChatMessages pushes persisted session messages over SSE until
// the client disconnects.
func StreamChatMessages(hub *chat.Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer handlePanic(c, "GET /chat/stream")

		sessionID := c.Query("sessionId")
		if sessionID == "" {
			respondWithError(c, http.StatusBadRequest, "GET /chat/stream", "sessionId is required")
			return
		}

		messages, cancel := hub.Subscribe(sessionID)
		defer cancel()

		c.Writer.Header().Set("Cache-Control", "no-cache")
		c.Writer.Header().Set("Connection", "keep-alive")

		c.Stream(func(w io.Writer) bool {
			select {
			case msg, ok := <-messages:
				if !ok {
					return false
				}
				c.SSEvent("message", msg)
				return true
			case <-c.Request.Context().Done():
				return false
			}
		})
	}
}
