package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/lib/pq"
	"github.com/paulmach/orb"
	log "github.com/sirupsen/logrus"

	"ezymap/model"
	"ezymap/search"
)

// SearchRequest AI 增强搜索请求
type SearchRequest struct {
	Query     string   `json:"query"`
	Lat       *float64 `json:"lat"`
	Lng       *float64 `json:"lng"`
	Translate bool     `json:"translate"` // 是否用 AI 翻译结果标题
}

// Search AI 增强搜索
func (h *Handler) Search(c *gin.Context) {
	var req SearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorResponse(c, http.StatusBadRequest, "请求参数错误: "+err.Error())
		return
	}
	near, err := parseNear(req.Lat, req.Lng)
	if err != nil {
		errorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	ctx := c.Request.Context()
	result, err := h.Searcher.Search(ctx, req.Query, near)
	if err != nil {
		h.searchError(c, err)
		return
	}

	if req.Translate {
		result.Items = h.Processor.ProcessWithTranslation(ctx, result.POIs, near)
	} else {
		result.Items = h.Processor.Process(result.POIs, near)
	}

	h.recordSearch(c, result)
	c.JSON(http.StatusOK, result)
}

// DirectSearch 不经过 AI 的关键词搜索
func (h *Handler) DirectSearch(c *gin.Context) {
	near, err := queryNear(c)
	if err != nil {
		errorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.Searcher.DirectSearch(c.Request.Context(), c.Query("q"), near)
	if err != nil {
		h.searchError(c, err)
		return
	}

	result.Items = h.Processor.Process(result.POIs, near)
	c.JSON(http.StatusOK, result)
}

// SearchHistory 当前用户的搜索历史
func (h *Handler) SearchHistory(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		errorResponse(c, http.StatusUnauthorized, "未登录")
		return
	}
	if h.History == nil {
		errorResponse(c, http.StatusInternalServerError, "搜索历史不可用")
		return
	}

	limit := h.historyLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			errorResponse(c, http.StatusBadRequest, "参数 limit 必须是正整数")
			return
		}
		if n < limit {
			limit = n
		}
	}

	records, err := h.History.ListSearches(c.Request.Context(), userID, limit)
	if err != nil {
		log.WithField("prefix", "history").Errorf("list searches failed: %v", err)
		errorResponse(c, http.StatusInternalServerError, "读取搜索历史失败")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"count":   len(records),
		"records": records,
	})
}

// recordSearch 登录用户的搜索写入历史，失败只记日志
func (h *Handler) recordSearch(c *gin.Context, result *model.SearchResult) {
	userID, ok := currentUserID(c)
	if !ok || h.History == nil || result.AI == nil {
		return
	}

	record := &model.SearchRecord{
		UserID:          &userID,
		Query:           result.AI.OriginalQuery,
		TranslatedQuery: result.AI.TranslatedQuery,
		Keywords:        pq.StringArray(result.AI.SearchKeywords),
		ResultCount:     len(result.POIs),
		Fallback:        result.AI.IsFallback,
	}
	if err := h.History.RecordSearch(c.Request.Context(), record); err != nil {
		log.WithField("prefix", "history").WithField("user_id", userID).Warnf("record search failed: %v", err)
	}
}

func (h *Handler) searchError(c *gin.Context, err error) {
	if errors.Is(err, search.ErrEmptyQuery) {
		errorResponse(c, http.StatusBadRequest, "Please enter a search query")
		return
	}
	upstreamError(c, "search", err)
}

// upstreamError 高德或 AI 服务失败
func upstreamError(c *gin.Context, prefix string, err error) {
	log.WithField("prefix", prefix).Errorf("%s %s failed: %v", c.Request.Method, c.Request.URL.Path, err)
	errorResponse(c, http.StatusBadGateway, err.Error())
}

// centerFromQuery 解析必填的 lat/lng 参数
func centerFromQuery(c *gin.Context) (orb.Point, bool) {
	near, err := queryNear(c)
	if err != nil {
		errorResponse(c, http.StatusBadRequest, err.Error())
		return orb.Point{}, false
	}
	if near == nil {
		errorResponse(c, http.StatusBadRequest, "缺少参数 lat 和 lng")
		return orb.Point{}, false
	}
	return *near, true
}
