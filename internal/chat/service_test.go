package chat

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"gemimarket/internal/llm"
	"gemimarket/internal/models"
)

type fakeMessageStore struct {
	mu        sync.Mutex
	messages  []models.ChatMessage
	insertErr error
}

func (s *fakeMessageStore) Insert(_ context.Context, sessionID, sender, message string) (*models.ChatMessage, error) {
	if s.insertErr != nil {
		return nil, s.insertErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
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

func (s *fakeMessageStore) BySession(_ context.Context, sessionID string) ([]models.ChatMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.ChatMessage
	for _, msg := range s.messages {
		if msg.SessionID == sessionID {
			out = append(out, msg)
		}
	}
	return out, nil
}

type fakeModel struct {
	reply    string
	err      error
	received []llm.Message
	block    chan struct{}
}

func (m *fakeModel) Complete(_ context.Context, history []llm.Message) (*llm.Reply, error) {
	m.received = history
	if m.block != nil {
		<-m.block
	}
	if m.err != nil {
		return nil, m.err
	}
	return &llm.Reply{Text: m.reply, Model: "gpt-4o-mini"}, nil
}

func newTestService(store *fakeMessageStore, model *fakeModel, lister ProductLister) *Service {
	if lister == nil {
		lister = &fakeLister{}
	}
	return NewService(store, model, NewFallback(lister), NewHub())
}

func TestSendPersistsBothSides(t *testing.T) {
	store := &fakeMessageStore{}
	model := &fakeModel{reply: "네, 도와드릴게요!"}
	svc := newTestService(store, model, nil)

	result, err := svc.Send(context.Background(), "session-1", "상품 문의합니다")
	require.NoError(t, err)

	assert.True(t, result.User.Persisted)
	assert.True(t, result.Bot.Persisted)
	assert.Equal(t, models.ChatSenderUser, result.User.Sender)
	assert.Equal(t, models.ChatSenderBot, result.Bot.Sender)
	assert.Equal(t, "네, 도와드릴게요!", result.Bot.Message)
	assert.Equal(t, "model", result.Source)
	assert.Len(t, store.messages, 2)
}

func TestSendRejectsEmptyMessage(t *testing.T) {
	svc := newTestService(&fakeMessageStore{}, &fakeModel{reply: "x"}, nil)
	_, err := svc.Send(context.Background(), "session-1", "   ")
	assert.ErrorIs(t, err, ErrEmptyMessage)
}

func TestSendFallsBackOnModelFailure(t *testing.T) {
	store := &fakeMessageStore{}
	model := &fakeModel{err: errors.New("model down")}
	svc := newTestService(store, model, nil)

	result, err := svc.Send(context.Background(), "session-1", "환불 문의")
	require.NoError(t, err)
	assert.Equal(t, "fallback", result.Source)
	assert.Contains(t, result.Bot.Message, "7일 이내")
	// The fallback reply is still persisted.
	assert.True(t, result.Bot.Persisted)
}

func TestSendFallbackProductListing(t *testing.T) {
	store := &fakeMessageStore{}
	model := &fakeModel{err: errors.New("model down")}
	lister := &fakeLister{products: []models.Product{
		{ID: 1, Name: "더 미라지 크로니클", Price: 79000, Category: "RPG"},
	}}
	svc := newTestService(store, model, lister)

	result, err := svc.Send(context.Background(), "session-1", "테스트")
	require.NoError(t, err)
	assert.Contains(t, result.Bot.Message, "전체 상품 목록 (1개)")
}

func TestSendSynthesizesEntriesWhenStoreFails(t *testing.T) {
	store := &fakeMessageStore{insertErr: errors.New("store down")}
	model := &fakeModel{reply: "안내드립니다"}
	svc := newTestService(store, model, nil)

	result, err := svc.Send(context.Background(), "session-1", "질문이요")
	require.NoError(t, err)

	// No reply is dropped: both entries exist, just unpersisted.
	assert.False(t, result.User.Persisted)
	assert.False(t, result.Bot.Persisted)
	assert.Equal(t, "질문이요", result.User.Message)
	assert.Equal(t, "안내드립니다", result.Bot.Message)
	assert.False(t, result.User.ID.IsZero())
	assert.False(t, result.Bot.ID.IsZero())
}

func TestSendBuildsBoundedModelContext(t *testing.T) {
	store := &fakeMessageStore{}
	for i := 0; i < 15; i++ {
		sender := models.ChatSenderUser
		if i%2 == 1 {
			sender = models.ChatSenderBot
		}
		_, err := store.Insert(context.Background(), "session-1", sender, "프롬프트")
		require.NoError(t, err)
	}

	model := &fakeModel{reply: "ok"}
	svc := newTestService(store, model, nil)

	_, err := svc.Send(context.Background(), "session-1", "새 질문")
	require.NoError(t, err)

	// Last 10 history entries plus the new message.
	require.Len(t, model.received, contextWindow+1)
	last := model.received[len(model.received)-1]
	assert.Equal(t, "user", last.Role)
	assert.Equal(t, "새 질문", last.Content)
	for _, msg := range model.received {
		assert.Contains(t, []string{"user", "assistant"}, msg.Role)
	}
}

func TestSendSerializedPerSession(t *testing.T) {
	store := &fakeMessageStore{}
	model := &fakeModel{reply: "ok", block: make(chan struct{})}
	svc := newTestService(store, model, nil)

	started := make(chan struct{})
	go func() {
		close(started)
		_, _ = svc.Send(context.Background(), "session-1", "첫번째")
	}()
	<-started
	// Give the first send time to take the session slot.
	time.Sleep(50 * time.Millisecond)

	_, err := svc.Send(context.Background(), "session-1", "두번째")
	assert.ErrorIs(t, err, ErrSendInFlight)

	close(model.block)
}

func TestSendPublishesToHub(t *testing.T) {
	store := &fakeMessageStore{}
	model := &fakeModel{reply: "실시간 응답"}
	hub := NewHub()
	svc := NewService(store, model, NewFallback(&fakeLister{}), hub)

	ch, cancel := hub.Subscribe("session-1")
	defer cancel()

	result, err := svc.Send(context.Background(), "session-1", "hello")
	require.NoError(t, err)

	seen := make(map[string]int)
	for i := 0; i < 2; i++ {
		select {
		case msg := <-ch:
			seen[msg.ID.Hex()]++
		case <-time.After(time.Second):
			t.Fatal("expected two realtime messages")
		}
	}

	// Exactly one delivery per message id: the dedup key the client uses.
	assert.Equal(t, 1, seen[result.User.ID.Hex()])
	assert.Equal(t, 1, seen[result.Bot.ID.Hex()])
}

func TestHistoryDegradesOnStoreFailure(t *testing.T) {
	svc := newTestService(&fakeMessageStore{}, &fakeModel{reply: "x"}, nil)
	// Empty store: history is simply empty, not an error.
	msgs := svc.History(context.Background(), "nope")
	assert.Empty(t, msgs)
}

func TestWelcomeTextIsStable(t *testing.T) {
	if !strings.Contains(WelcomeText, "게미마켓") {
		t.Fatalf("unexpected welcome text: %q", WelcomeText)
	}
}
