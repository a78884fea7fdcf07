// Package llm is the chat-completion client for the storefront
// assistant. It speaks the OpenAI chat completions API; callers treat
// any failure or empty reply as a signal to fall back locally.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	maxHistory  = 20
	temperature = 0.7
	maxTokens   = 500
)

const systemPrompt = `당신은 "게미마켓"이라는 게임 쇼핑몰의 친절한 고객 상담 챗봇입니다.

게미마켓 상품 목록:
1. 더 미라지 크로니클: 얼티밋 에디션 - 79,000원 (RPG)
2. 포근한 농장의 하루: 힐링 시뮬레이터 - 24,000원 (Simulation)
3. 다크니스 던전 3 (리마스터) - 35,000원 (Classic)
4. 갤럭시 워로드: 팀 배틀 패키지 - 45,000원 (Strategy)
5. 템플 오브 이그드라실: 3차원 퍼즐 - 18,000원 (Puzzle)

규칙:
- 한국어로 답변하세요.
- 친절하고 밝은 톤으로 응대하세요.
- 게임 관련 질문에 전문적으로 답변하세요.
- 이모지를 적절히 사용하세요.
- 답변은 간결하게 3~5문장 이내로 해주세요.
- 결제는 토스페이먼츠를 사용합니다.
- 디지털 상품이므로 결제 즉시 이용 가능합니다.
- 환불은 구매 후 7일 이내, 미사용 시 가능합니다.`

// Message is a role-tagged conversation entry (user/assistant).
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Usage reports token consumption for a completion.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Reply is a successful completion.
type Reply struct {
	Text  string
	Model string
	Usage *Usage
}

// Client calls the chat completions endpoint.
type Client struct {
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client
}

func NewClient(baseURL, apiKey, model string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		apiKey:  apiKey,
		model:   model,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

type completionRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature float64   `json:"temperature"`
	MaxTokens   int       `json:"max_tokens"`
}

type completionResponse struct {
	Model   string `json:"model"`
	Choices []struct {
		Message struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Usage *Usage `json:"usage,omitempty"`
}

type apiError struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    string `json:"code"`
	} `json:"error"`
}

// Complete sends the conversation, capped to the most recent entries,
// prefixed with the assistant persona. An empty reply is an error so
// callers always either get text or fall back.
func (c *Client) Complete(ctx context.Context, history []Message) (*Reply, error) {
	if c.apiKey == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY not set")
	}
	if len(history) == 0 {
		return nil, fmt.Errorf("no messages provided")
	}

	if len(history) > maxHistory {
		history = history[len(history)-maxHistory:]
	}

	messages := make([]Message, 0, len(history)+1)
	messages = append(messages, Message{Role: "system", Content: systemPrompt})
	messages = append(messages, history...)

	body, err := json.Marshal(completionRequest{
		Model:       c.model,
		Messages:    messages,
		Temperature: temperature,
		MaxTokens:   maxTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var errResp apiError
		if json.Unmarshal(respBody, &errResp) == nil && errResp.Error.Message != "" {
			return nil, fmt.Errorf("model API error (%d): %s", resp.StatusCode, errResp.Error.Message)
		}
		return nil, fmt.Errorf("model API error (%d): %s", resp.StatusCode, string(respBody))
	}

	var result completionResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}

	if len(result.Choices) == 0 || strings.TrimSpace(result.Choices[0].Message.Content) == "" {
		return nil, fmt.Errorf("model returned no reply")
	}

	return &Reply{
		Text:  result.Choices[0].Message.Content,
		Model: result.Model,
		Usage: result.Usage,
	}, nil
}
