package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/paulmach/orb"
	log "github.com/sirupsen/logrus"

	"ezymap/config"
	"ezymap/model"
)

var (
	ErrDisabled     = errors.New("ai: client not configured")
	ErrEmptyContent = errors.New("ai: empty completion content")
)

// Client DeepSeek chat/completions 客户端
type Client struct {
	apiKey      string
	baseURL     string
	model       string
	maxTokens   int
	temperature float64
	client      *http.Client
}

// NewClient 创建 DeepSeek 客户端
func NewClient(cfg config.AIConfig) *Client {
	baseURL := cfg.BaseURL
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	return &Client{
		apiKey:      cfg.APIKey,
		baseURL:     baseURL,
		model:       cfg.Model,
		maxTokens:   cfg.MaxTokens,
		temperature: cfg.Temperature,
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

// Enabled 是否配置了 API Key
func (c *Client) Enabled() bool {
	return c != nil && c.apiKey != ""
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// complete 发送单轮对话，返回第一个 choice 的内容
func (c *Client) complete(ctx context.Context, prompt string) (string, error) {
	if !c.Enabled() {
		return "", ErrDisabled
	}

	body, err := json.Marshal(chatRequest{
		Model:       c.model,
		Messages:    []chatMessage{{Role: "user", Content: prompt}},
		MaxTokens:   c.maxTokens,
		Temperature: c.temperature,
	})
	if err != nil {
		return "", fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	log.WithField("prefix", "deepseek").Debug("sending request to deepseek")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("deepseek request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response failed: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		log.WithField("prefix", "deepseek").WithField("status", resp.StatusCode).WithField("resp", string(raw)).Error("api call failed")
		return "", fmt.Errorf("deepseek api call failed: %d", resp.StatusCode)
	}

	var cr chatResponse
	if err := json.Unmarshal(raw, &cr); err != nil {
		return "", fmt.Errorf("parse response failed: %w", err)
	}
	if len(cr.Choices) == 0 || strings.TrimSpace(cr.Choices[0].Message.Content) == "" {
		return "", ErrEmptyContent
	}
	return cr.Choices[0].Message.Content, nil
}

// stripCodeFence 去掉模型有时包裹在 JSON 外面的 ``` 代码块
func stripCodeFence(content string) string {
	s := strings.TrimSpace(content)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if i := strings.Index(s, "\n"); i >= 0 {
		s = s[i+1:]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

type queryAnswer struct {
	TranslatedQuery string   `json:"translated_query"`
	SearchKeywords  []string `json:"search_keywords"`
	Confidence      float64  `json:"confidence"`
	Explanation     string   `json:"explanation"`
}

// ProcessSearchQuery 翻译并扩展用户的搜索词 (英文、拼音、自然语言 -> 中文关键词)
// 任何失败都返回原始搜索词，不会中断搜索
func (c *Client) ProcessSearchQuery(ctx context.Context, query string, near *orb.Point) model.AIProcessedQuery {
	logger := log.WithField("prefix", "deepseek").WithField("query", query)

	content, err := c.complete(ctx, buildQueryPrompt(query, near))
	if err != nil {
		if !errors.Is(err, ErrDisabled) {
			logger.WithError(err).Error("error processing query")
		}
		return model.FallbackQuery(query)
	}

	processed, err := parseQueryAnswer(content, query)
	if err != nil {
		logger.WithError(err).WithField("content", content).Error("error parsing ai response")
		return model.FallbackQuery(query)
	}

	logger.WithField("keywords", processed.SearchKeywords).Debug("ai processed query")
	return processed
}

func parseQueryAnswer(content, query string) (model.AIProcessedQuery, error) {
	var ans queryAnswer
	if err := json.Unmarshal([]byte(stripCodeFence(content)), &ans); err != nil {
		return model.AIProcessedQuery{}, err
	}

	translated := strings.TrimSpace(ans.TranslatedQuery)
	if translated == "" {
		translated = query
	}

	keywords := make([]string, 0, len(ans.SearchKeywords))
	for _, k := range ans.SearchKeywords {
		if k = strings.TrimSpace(k); k != "" {
			keywords = append(keywords, k)
		}
	}
	if len(keywords) == 0 {
		keywords = []string{translated}
	}

	return model.AIProcessedQuery{
		OriginalQuery:   query,
		TranslatedQuery: translated,
		SearchKeywords:  keywords,
		Confidence:      ans.Confidence,
		Explanation:     ans.Explanation,
		IsFallback:      false,
	}, nil
}
