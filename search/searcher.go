package search

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/paulmach/orb"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"ezymap/config"
	"ezymap/model"
)

// ErrEmptyQuery 搜索词为空
var ErrEmptyQuery = errors.New("search: empty query")

// POISource 关键词 POI 搜索 (高德)
type POISource interface {
	SearchKeyword(ctx context.Context, keyword string, near *orb.Point) ([]model.POI, error)
}

// QueryProcessor 搜索词的 AI 处理，失败时应返回回退结果而不是错误
type QueryProcessor interface {
	ProcessSearchQuery(ctx context.Context, query string, near *orb.Point) model.AIProcessedQuery
}

// Searcher AI 增强的多关键词搜索
type Searcher struct {
	source         POISource
	ai             QueryProcessor
	maxKeywords    int
	maxResults     int
	keywordTimeout time.Duration
	concurrency    int
}

// NewSearcher 创建搜索器
func NewSearcher(source POISource, ai QueryProcessor, cfg config.SearchConfig) *Searcher {
	s := &Searcher{
		source:         source,
		ai:             ai,
		maxKeywords:    cfg.MaxKeywords,
		maxResults:     cfg.MaxResults,
		keywordTimeout: cfg.KeywordTimeout,
		concurrency:    cfg.Concurrency,
	}
	if s.concurrency <= 0 {
		s.concurrency = s.maxKeywords
	}
	return s
}

// Search 先用 AI 处理搜索词，再按多个关键词搜索、去重、排序
func (s *Searcher) Search(ctx context.Context, query string, near *orb.Point) (*model.SearchResult, error) {
	query = normalizeQuery(query)
	if query == "" {
		return nil, ErrEmptyQuery
	}

	logger := log.WithField("prefix", "search").WithField("query", query)

	processed := s.ai.ProcessSearchQuery(ctx, query, near)
	if len(processed.SearchKeywords) == 0 {
		processed.SearchKeywords = []string{query}
	}
	logger.WithField("keywords", processed.SearchKeywords).WithField("fallback", processed.IsFallback).Debug("query processed")

	all, successCount := s.multiKeywordSearch(ctx, processed.SearchKeywords, near)
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("search canceled: %w", err)
	}

	unique := Dedupe(all)
	ranked := Rank(unique, processed.SearchKeywords)

	// 消息中的数量是截断前的结果数
	message := "No results found with AI-enhanced search"
	if successCount > 0 {
		message = fmt.Sprintf("Found %d results using AI-enhanced search", len(ranked))
	}
	if len(ranked) > s.maxResults {
		ranked = ranked[:s.maxResults]
	}

	logger.WithField("total", len(all)).WithField("unique", len(unique)).WithField("returned", len(ranked)).Info("ai-enhanced search finished")

	return &model.SearchResult{
		POIs:    ranked,
		Success: len(ranked) > 0,
		Message: message,
		AI:      &processed,
	}, nil
}

// DirectSearch 不经过 AI，直接用原始搜索词搜索
func (s *Searcher) DirectSearch(ctx context.Context, query string, near *orb.Point) (*model.SearchResult, error) {
	query = normalizeQuery(query)
	if query == "" {
		return nil, ErrEmptyQuery
	}

	pois, err := s.searchKeyword(ctx, query, near)
	if err != nil {
		return nil, err
	}
	pois = Dedupe(pois)

	if len(pois) == 0 {
		return &model.SearchResult{Success: false, Message: "No results found"}, nil
	}
	return &model.SearchResult{
		POIs:    pois,
		Success: true,
		Message: fmt.Sprintf("Found %d results", len(pois)),
	}, nil
}

// multiKeywordSearch 并发搜索前 maxKeywords 个关键词
// 结果按关键词顺序拼接；单个关键词失败或超时只记日志，不影响其它关键词
func (s *Searcher) multiKeywordSearch(ctx context.Context, keywords []string, near *orb.Point) ([]model.POI, int) {
	if len(keywords) > s.maxKeywords {
		keywords = keywords[:s.maxKeywords]
	}

	slots := make([][]model.POI, len(keywords))

	var g errgroup.Group
	g.SetLimit(s.concurrency)
	for i, keyword := range keywords {
		g.Go(func() error {
			pois, err := s.searchKeyword(ctx, keyword, near)
			if err != nil {
				log.WithField("prefix", "search").WithField("keyword", keyword).WithError(err).Warn("keyword search failed")
				return nil
			}
			slots[i] = pois
			return nil
		})
	}
	_ = g.Wait()

	var all []model.POI
	successCount := 0
	for _, pois := range slots {
		if len(pois) > 0 {
			all = append(all, pois...)
			successCount++
		}
	}
	return all, successCount
}

// searchKeyword 单个关键词搜索，超过 keywordTimeout 视为失败
func (s *Searcher) searchKeyword(ctx context.Context, keyword string, near *orb.Point) ([]model.POI, error) {
	if s.keywordTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.keywordTimeout)
		defer cancel()
	}
	return s.source.SearchKeyword(ctx, keyword, near)
}
