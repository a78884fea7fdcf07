package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Chat message senders.
const (
	ChatSenderUser = "user"
	ChatSenderBot  = "bot"
)

// ChatMessage is a persisted chat entry. Messages are append-only;
// nothing in the system mutates or deletes them.
type ChatMessage struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	SessionID string             `bson:"sessionId" json:"sessionId"`
	Sender    string             `bson:"sender" json:"sender"`
	Message   string             `bson:"message" json:"message"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
}
