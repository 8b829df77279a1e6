package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"
)

// TranslationItem 待翻译的 POI 标题
type TranslationItem struct {
	ID            string `json:"id"`
	OriginalTitle string `json:"title"`
}

// TranslatedTitle 翻译结果
type TranslatedTitle struct {
	ID              string `json:"id"`
	TranslatedTitle string `json:"translated_title"`
}

type translateAnswer struct {
	Translations []TranslatedTitle `json:"translations"`
}

// BatchTranslateTitles 一次请求翻译多个 POI 标题，只返回模型给出且 ID 能对上的结果
func (c *Client) BatchTranslateTitles(ctx context.Context, items []TranslationItem) ([]TranslatedTitle, error) {
	if len(items) == 0 {
		return nil, nil
	}

	payload, err := json.Marshal(items)
	if err != nil {
		return nil, fmt.Errorf("encode items: %w", err)
	}

	content, err := c.complete(ctx, buildTranslatePrompt(string(payload)))
	if err != nil {
		return nil, err
	}

	var ans translateAnswer
	if err := json.Unmarshal([]byte(stripCodeFence(content)), &ans); err != nil {
		return nil, fmt.Errorf("parse translations: %w", err)
	}

	known := make(map[string]struct{}, len(items))
	for _, it := range items {
		known[it.ID] = struct{}{}
	}

	results := make([]TranslatedTitle, 0, len(ans.Translations))
	for _, tr := range ans.Translations {
		if _, ok := known[tr.ID]; !ok {
			continue
		}
		if tr.TranslatedTitle = strings.TrimSpace(tr.TranslatedTitle); tr.TranslatedTitle == "" {
			continue
		}
		results = append(results, tr)
	}

	log.WithField("prefix", "deepseek").WithField("requested", len(items)).WithField("translated", len(results)).Debug("batch translated titles")
	return results, nil
}
