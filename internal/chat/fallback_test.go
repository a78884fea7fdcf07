package chat

import (
	"context"
	"errors"
	"strings"
	"testing"

	"gemimarket/internal/models"
)

type fakeLister struct {
	products []models.Product
	err      error
}

func (f *fakeLister) List(context.Context) ([]models.Product, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.products, nil
}

func TestFallbackRefundKeyword(t *testing.T) {
	f := NewFallback(&fakeLister{})
	reply := f.Reply(context.Background(), "환불 어떻게 하나요?")
	if !strings.Contains(reply, "7일 이내") {
		t.Fatalf("expected refund policy reply, got %q", reply)
	}
}

func TestFallbackProductListing(t *testing.T) {
	f := NewFallback(&fakeLister{products: []models.Product{
		{ID: 1, Name: "더 미라지 크로니클", Price: 79000, Category: "RPG"},
		{ID: 2, Name: "갤럭시 워로드", Price: 45000, Category: "Strategy"},
	}})

	reply := f.Reply(context.Background(), "테스트")
	if !strings.Contains(reply, "전체 상품 목록 (2개)") {
		t.Fatalf("expected listing header, got %q", reply)
	}
	if !strings.Contains(reply, "79,000원") {
		t.Fatalf("expected formatted price, got %q", reply)
	}
	if !strings.Contains(reply, "📁 Strategy") {
		t.Fatalf("expected category, got %q", reply)
	}
}

func TestFallbackProductListingStoreFailure(t *testing.T) {
	f := NewFallback(&fakeLister{err: errors.New("store down")})
	reply := f.Reply(context.Background(), "상품 테스트 부탁해요")
	if !strings.Contains(reply, "상품 정보를 불러오는 데 실패") {
		t.Fatalf("expected graceful error text, got %q", reply)
	}
}

func TestFallbackProductListingEmptyCatalog(t *testing.T) {
	f := NewFallback(&fakeLister{})
	reply := f.Reply(context.Background(), "테스트")
	if reply != "현재 등록된 상품이 없습니다." {
		t.Fatalf("unexpected reply: %q", reply)
	}
}

func TestFallbackRuleOrder(t *testing.T) {
	// 테스트 is the first rule; it wins even when later keywords also match.
	f := NewFallback(&fakeLister{products: []models.Product{{ID: 1, Name: "A", Price: 1000, Category: "RPG"}}})
	reply := f.Reply(context.Background(), "테스트 가격")
	if !strings.Contains(reply, "전체 상품 목록") {
		t.Fatalf("expected listing to win over price rule, got %q", reply)
	}
}

func TestFallbackCaseInsensitiveMatch(t *testing.T) {
	f := NewFallback(&fakeLister{})
	reply := f.Reply(context.Background(), "HELLO!")
	if !strings.Contains(reply, "환영합니다") {
		t.Fatalf("expected greeting reply, got %q", reply)
	}
}

func TestFallbackDefaultReply(t *testing.T) {
	f := NewFallback(&fakeLister{})
	reply := f.Reply(context.Background(), "오늘 날씨 어때")
	if reply != defaultFallbackReply {
		t.Fatalf("expected default reply, got %q", reply)
	}
}

func TestFormatWon(t *testing.T) {
	tests := []struct {
		amount int64
		want   string
	}{
		{0, "0"},
		{999, "999"},
		{1000, "1,000"},
		{79000, "79,000"},
		{1234567, "1,234,567"},
	}
	for _, tt := range tests {
		if got := formatWon(tt.amount); got != tt.want {
			t.Fatalf("formatWon(%d): expected %q, got %q", tt.amount, tt.want, got)
		}
	}
}
