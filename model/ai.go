package model

// AIProcessedQuery AI 处理后的搜索词
type AIProcessedQuery struct {
	OriginalQuery   string   `json:"original_query"`
	TranslatedQuery string   `json:"translated_query"`
	SearchKeywords  []string `json:"search_keywords"`
	Confidence      float64  `json:"confidence"`
	Explanation     string   `json:"explanation,omitempty"`
	IsFallback      bool     `json:"is_fallback"`
}

// FallbackQuery AI 不可用时直接使用原始搜索词
func FallbackQuery(query string) AIProcessedQuery {
	return AIProcessedQuery{
		OriginalQuery:   query,
		TranslatedQuery: query,
		SearchKeywords:  []string{query},
		Confidence:      0,
		IsFallback:      true,
	}
}

// SearchResult 一次搜索的结果
type SearchResult struct {
	POIs    []POI             `json:"-"`
	Items   []POIDisplayItem  `json:"items"`
	Success bool              `json:"success"`
	Message string            `json:"message"`
	AI      *AIProcessedQuery `json:"ai,omitempty"`
}
