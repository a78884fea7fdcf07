package chat

import (
	"context"
	"errors"
	"log"
	"strings"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"gemimarket/internal/llm"
	"gemimarket/internal/models"
)

// WelcomeText is the static greeting shown before any history. It is
// never persisted; handlers prepend it with the fixed id "welcome".
const WelcomeText = "안녕하세요! 게미마켓입니다 🎮\n무엇을 도와드릴까요?"

// contextWindow is how many prior messages ride along with a new one
// when the model is invoked.
const contextWindow = 10

// ErrSendInFlight means a send for this session is still running;
// sends are serialized per session.
var ErrSendInFlight = errors.New("a send is already in flight for this session")

// ErrEmptyMessage rejects blank input.
var ErrEmptyMessage = errors.New("message is empty")

// Entry is a chat message plus whether it made it to the store. An
// unpersisted entry exists only in the response that synthesized it.
type Entry struct {
	models.ChatMessage
	Persisted bool `json:"persisted"`
}

// SendResult reports both sides of a completed send.
type SendResult struct {
	User   Entry  `json:"user"`
	Bot    Entry  `json:"bot"`
	Source string `json:"source"` // "model" or "fallback"
}

// Service runs the chat session flow: history, sends with model
// invocation and local fallback, and realtime publication.
type Service struct {
	store    MessageStore
	model    Model
	fallback *Fallback
	hub      *Hub

	mu      sync.Mutex
	sending map[string]bool
}

func NewService(store MessageStore, model Model, fallback *Fallback, hub *Hub) *Service {
	return &Service{
		store:    store,
		model:    model,
		fallback: fallback,
		hub:      hub,
		sending:  make(map[string]bool),
	}
}

// History returns the persisted conversation, oldest first. A store
// failure degrades to an empty history rather than an error page.
func (s *Service) History(ctx context.Context, sessionID string) []models.ChatMessage {
	messages, err := s.store.BySession(ctx, sessionID)
	if err != nil {
		log.Println("[CHAT] [ERROR] history load failed:", err)
		return nil
	}
	return messages
}

// Send runs the full send path for one user message. Every remote
// failure inside degrades: the result always carries a user entry and
// a bot entry, persisted or synthesized, and nothing is retried.
func (s *Service) Send(ctx context.Context, sessionID, text string) (*SendResult, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil, ErrEmptyMessage
	}

	if !s.tryAcquire(sessionID) {
		return nil, ErrSendInFlight
	}
	defer s.release(sessionID)

	// History is read before the new message is stored so the model
	// context holds the prior conversation plus the new message once.
	history := s.History(ctx, sessionID)

	userEntry := s.persist(ctx, sessionID, models.ChatSenderUser, trimmed)

	replyText, source := s.generateReply(ctx, history, trimmed)

	botEntry := s.persist(ctx, sessionID, models.ChatSenderBot, replyText)

	return &SendResult{User: userEntry, Bot: botEntry, Source: source}, nil
}

// persist stores a message and publishes it to realtime subscribers.
// On store failure it synthesizes a local entry so no message is ever
// silently dropped.
func (s *Service) persist(ctx context.Context, sessionID, sender, text string) Entry {
	saved, err := s.store.Insert(ctx, sessionID, sender, text)
	if err != nil {
		log.Println("[CHAT] [ERROR] message persist failed:", err)
		return Entry{
			ChatMessage: models.ChatMessage{
				ID:        primitive.NewObjectID(),
				SessionID: sessionID,
				Sender:    sender,
				Message:   text,
				CreatedAt: time.Now(),
			},
			Persisted: false,
		}
	}

	s.hub.Publish(*saved)
	return Entry{ChatMessage: *saved, Persisted: true}
}

// generateReply asks the remote model, falling back to the local rule
// table when the call fails or yields nothing.
func (s *Service) generateReply(ctx context.Context, history []models.ChatMessage, userText string) (string, string) {
	window := history
	if len(window) > contextWindow {
		window = window[len(window)-contextWindow:]
	}

	messages := make([]llm.Message, 0, len(window)+1)
	for _, msg := range window {
		role := "assistant"
		if msg.Sender == models.ChatSenderUser {
			role = "user"
		}
		messages = append(messages, llm.Message{Role: role, Content: msg.Message})
	}
	messages = append(messages, llm.Message{Role: "user", Content: userText})

	reply, err := s.model.Complete(ctx, messages)
	if err == nil && strings.TrimSpace(reply.Text) != "" {
		return reply.Text, "model"
	}
	if err != nil {
		log.Println("[CHAT] [INFO] model unavailable, using fallback:", err)
	}
	return s.fallback.Reply(ctx, userText), "fallback"
}

func (s *Service) tryAcquire(sessionID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sending[sessionID] {
		return false
	}
	s.sending[sessionID] = true
	return true
}

func (s *Service) release(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sending, sessionID)
}
