package chat

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"strings"
)

// fallbackRule is one (predicate, response) pair. Rules are evaluated
// in order; the first match wins.
type fallbackRule struct {
	keywords []string
	respond  func(ctx context.Context) string
}

// Fallback answers from a fixed rule table when the remote model is
// unavailable. One rule reads the live catalog; everything else is
// canned text.
type Fallback struct {
	products ProductLister
	rules    []fallbackRule
}

func NewFallback(products ProductLister) *Fallback {
	f := &Fallback{products: products}
	f.rules = []fallbackRule{
		{
			keywords: []string{"테스트"},
			respond:  f.productListing,
		},
		{
			keywords: []string{"안녕", "하이", "hello"},
			respond: canned("안녕하세요! 😊\n게미마켓에 오신 것을 환영합니다!\n궁금한 점이 있으시면 편하게 물어보세요."),
		},
		{
			keywords: []string{"가격", "얼마", "비용"},
			respond: canned("상품 가격은 각 상품 카드에서 확인하실 수 있습니다.\n특별 할인 정보가 궁금하시면 말씀해주세요! 💰"),
		},
		{
			keywords: []string{"배송", "delivery"},
			respond: canned("디지털 상품은 결제 완료 즉시 이용 가능합니다! ⚡\n별도 배송이 필요하지 않아요."),
		},
		{
			keywords: []string{"환불", "취소", "반품"},
			respond: canned("구매 후 7일 이내, 미사용 상태일 경우 환불이 가능합니다.\n마이페이지에서 환불 요청을 해주세요. 🔄"),
		},
		{
			keywords: []string{"추천", "인기", "베스트"},
			respond: canned("현재 가장 인기 있는 게임은\n🥇 더 미라지 크로니클\n🥈 갤럭시 워로드\n🥉 다크니스 던전 3\n입니다!"),
		},
		{
			keywords: []string{"결제", "카드", "페이"},
			respond: canned("토스페이먼츠를 통해 안전하게 결제할 수 있습니다.\n카드, 간편결제 등 다양한 수단을 지원합니다! 💳"),
		},
		{
			keywords: []string{"회원", "가입", "로그인"},
			respond: canned("오른쪽 상단의 로그인 버튼에서\n회원가입 및 로그인이 가능합니다! 🔑"),
		},
		{
			keywords: []string{"감사", "고마"},
			respond: canned("감사합니다! 😄\n또 궁금한 점이 있으시면 언제든 물어보세요!"),
		},
	}
	return f
}

const defaultFallbackReply = "문의해주셔서 감사합니다! 🙏\n해당 내용은 확인 후 안내드리겠습니다.\n\n자주 묻는 질문:\n• 가격/결제\n• 배송\n• 환불/취소\n• 게임 추천\n• \"테스트\" → 전체 상품 조회"

// Reply evaluates the rule table against the user text and returns the
// first matching response, or the catch-all default.
func (f *Fallback) Reply(ctx context.Context, userText string) string {
	lowered := strings.ToLower(userText)
	for _, rule := range f.rules {
		for _, keyword := range rule.keywords {
			if strings.Contains(lowered, keyword) {
				return rule.respond(ctx)
			}
		}
	}
	return defaultFallbackReply
}

func canned(text string) func(context.Context) string {
	return func(context.Context) string { return text }
}

func (f *Fallback) productListing(ctx context.Context) string {
	products, err := f.products.List(ctx)
	if err != nil {
		log.Println("[CHAT] [ERROR] fallback product listing failed:", err)
		return "⚠️ 상품 정보를 불러오는 데 실패했습니다.\n잠시 후 다시 시도해주세요."
	}
	if len(products) == 0 {
		return "현재 등록된 상품이 없습니다."
	}

	lines := make([]string, 0, len(products))
	for _, p := range products {
		lines = append(lines, fmt.Sprintf("🎮 %s\n   💰 %s원 | 📁 %s", p.Name, formatWon(p.Price), p.Category))
	}

	return fmt.Sprintf("📦 전체 상품 목록 (%d개)\n\n%s", len(products), strings.Join(lines, "\n\n"))
}

// formatWon renders an amount with thousands separators (79000 → 79,000).
func formatWon(amount int64) string {
	s := strconv.FormatInt(amount, 10)
	negative := strings.HasPrefix(s, "-")
	if negative {
		s = s[1:]
	}

	var b strings.Builder
	for i, digit := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(digit)
	}
	if negative {
		return "-" + b.String()
	}
	return b.String()
}
