package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"gemimarket/internal/chat"
	"gemimarket/internal/llm"
	"gemimarket/internal/models"
)

type stubMessageStore struct {
	messages []models.ChatMessage
}

func (s *stubMessageStore) Insert(ctx context.Context, sessionID, sender, message string) (*models.ChatMessage, error) {
	msg := models.ChatMessage{
		ID:        primitive.NewObjectID(),
		SessionID: sessionID,
		Sender:    sender,
		Message:   message,
		CreatedAt: time.Now(),
	}
	s.messages = append(s.messages, msg)
	return &msg, nil
}

func (s *stubMessageStore) BySession(ctx context.Context, sessionID string) ([]models.ChatMessage, error) {
	out := make([]models.ChatMessage, 0)
	for _, msg := range s.messages {
		if msg.SessionID == sessionID {
			out = append(out, msg)
		}
	}
	return out, nil
}

type stubModel struct {
	reply string
}

func (m *stubModel) Complete(ctx context.Context, history []llm.Message) (*llm.Reply, error) {
	return &llm.Reply{Text: m.reply, Model: "stub"}, nil
}

type stubProductLister struct{}

func (stubProductLister) List(ctx context.Context) ([]models.Product, error) {
	return nil, nil
}

func newChatRouter(store *stubMessageStore, model *stubModel) (*gin.Engine, *chat.Hub) {
	gin.SetMode(gin.TestMode)
	hub := chat.NewHub()
	service := chat.NewService(store, model, chat.NewFallback(stubProductLister{}), hub)

	r := gin.New()
	r.POST("/chat/session", CreateChatSession())
	r.GET("/chat/messages", GetChatMessages(service))
	r.POST("/chat/messages", SendChatMessage(service))
	return r, hub
}

func TestCreateChatSessionMintsUUID(t *testing.T) {
	r, _ := newChatRouter(&stubMessageStore{}, &stubModel{reply: "ok"})

	req := httptest.NewRequest(http.MethodPost, "/chat/session", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", w.Code)
	}

	var body struct {
		SessionID string `json:"sessionId"`
		Welcome   struct {
			ID      string `json:"id"`
			Message string `json:"message"`
		} `json:"welcome"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid json response: %v", err)
	}
	if _, err := uuid.Parse(body.SessionID); err != nil {
		t.Fatalf("expected a uuid session id, got %q", body.SessionID)
	}
	if body.Welcome.ID != "welcome" || body.Welcome.Message != chat.WelcomeText {
		t.Fatalf("unexpected welcome entry: %+v", body.Welcome)
	}
}

func TestGetChatMessagesRequiresSessionID(t *testing.T) {
	r, _ := newChatRouter(&stubMessageStore{}, &stubModel{reply: "ok"})

	req := httptest.NewRequest(http.MethodGet, "/chat/messages", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestGetChatMessagesPrependsWelcome(t *testing.T) {
	store := &stubMessageStore{}
	r, _ := newChatRouter(store, &stubModel{reply: "ok"})

	sessionID := uuid.NewString()
	_, _ = store.Insert(context.Background(), sessionID, models.ChatSenderUser, "첫 메시지")

	req := httptest.NewRequest(http.MethodGet, "/chat/messages?sessionId="+sessionID, nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var body struct {
		Messages []map[string]any `json:"messages"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid json response: %v", err)
	}
	if len(body.Messages) != 2 {
		t.Fatalf("expected welcome plus one message, got %d entries", len(body.Messages))
	}
	if body.Messages[0]["id"] != "welcome" {
		t.Fatalf("expected first entry to be the welcome, got %v", body.Messages[0]["id"])
	}
	if body.Messages[1]["message"] != "첫 메시지" {
		t.Fatalf("expected stored message second, got %v", body.Messages[1]["message"])
	}
}

func TestSendChatMessageReturnsBothSides(t *testing.T) {
	store := &stubMessageStore{}
	r, _ := newChatRouter(store, &stubModel{reply: "네, 도와드릴게요"})

	payload := `{"sessionId":"` + uuid.NewString() + `","message":"배송 문의"}`
	req := httptest.NewRequest(http.MethodPost, "/chat/messages", strings.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var body struct {
		User   chat.Entry `json:"user"`
		Bot    chat.Entry `json:"bot"`
		Source string     `json:"source"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid json response: %v", err)
	}
	if body.User.Message != "배송 문의" || !body.User.Persisted {
		t.Fatalf("unexpected user entry: %+v", body.User)
	}
	if body.Bot.Message != "네, 도와드릴게요" || body.Source != "model" {
		t.Fatalf("unexpected bot entry: %+v source=%s", body.Bot, body.Source)
	}
	if len(store.messages) != 2 {
		t.Fatalf("expected both sides persisted, got %d", len(store.messages))
	}
}

func TestSendChatMessageRejectsMissingFields(t *testing.T) {
	r, _ := newChatRouter(&stubMessageStore{}, &stubModel{reply: "ok"})

	req := httptest.NewRequest(http.MethodPost, "/chat/messages", strings.NewReader(`{"message":"hi"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestStreamChatMessagesRequiresSessionID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/chat/stream", StreamChatMessages(chat.NewHub()))

	req := httptest.NewRequest(http.MethodGet, "/chat/stream", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

// streamRecorder implements http.CloseNotifier, which gin's streaming
// writer requires of the underlying response writer.
type streamRecorder struct {
	*httptest.ResponseRecorder
	closed chan bool
}

func newStreamRecorder() *streamRecorder {
	return &streamRecorder{
		ResponseRecorder: httptest.NewRecorder(),
		closed:           make(chan bool, 1),
	}
}

func (r *streamRecorder) CloseNotify() <-chan bool { return r.closed }

func TestStreamChatMessagesDeliversPublishedMessage(t *testing.T) {
	gin.SetMode(gin.TestMode)
	hub := chat.NewHub()
	r := gin.New()
	r.GET("/chat/stream", StreamChatMessages(hub))

	sessionID := uuid.NewString()
	ctx, cancel := context.WithCancel(context.Background())

	req := httptest.NewRequest(http.MethodGet, "/chat/stream?sessionId="+sessionID, nil).WithContext(ctx)
	w := newStreamRecorder()

	done := make(chan struct{})
	go func() {
		r.ServeHTTP(w, req)
		close(done)
	}()

	// The subscriber channel is buffered, so publishing a few times over
	// a short window is enough to land a message once the handler has
	// subscribed.
	for i := 0; i < 20; i++ {
		hub.Publish(models.ChatMessage{
			ID:        primitive.NewObjectID(),
			SessionID: sessionID,
			Sender:    models.ChatSenderBot,
			Message:   "실시간 메시지",
		})
		time.Sleep(10 * time.Millisecond)
	}

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("stream handler did not exit on disconnect")
	}

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), "실시간 메시지") {
		t.Fatalf("expected published message in stream body, got %q", w.Body.String())
	}
}
