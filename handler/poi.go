package handler

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"ezymap/amap"
)

// Nearby 周边 POI
func (h *Handler) Nearby(c *gin.Context) {
	center, ok := centerFromQuery(c)
	if !ok {
		return
	}

	radius := 0
	if raw := c.Query("radius"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 || n > 50000 {
			errorResponse(c, http.StatusBadRequest, "参数 radius 必须在 1-50000 之间")
			return
		}
		radius = n
	}

	pois, err := h.Places.SearchNearby(c.Request.Context(), center, strings.TrimSpace(c.Query("keyword")), radius, c.Query("types"))
	if err != nil {
		upstreamError(c, "poi", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"count": len(pois),
		"items": h.Processor.Process(pois, &center),
	})
}

// GetPOIDetail 根据 ID 获取 POI 详情
func (h *Handler) GetPOIDetail(c *gin.Context) {
	poiID := strings.TrimSpace(c.Param("id"))
	if poiID == "" {
		errorResponse(c, http.StatusBadRequest, "缺少 POI ID")
		return
	}

	details, err := h.Places.Detail(c.Request.Context(), poiID)
	if errors.Is(err, amap.ErrPOINotFound) {
		errorResponse(c, http.StatusNotFound, "POI 不存在")
		return
	}
	if err != nil {
		upstreamError(c, "poi", err)
		return
	}

	c.JSON(http.StatusOK, details)
}

// MatchPOI 按名称在附近匹配 POI 并返回详情 (没有 POI ID 时使用)
func (h *Handler) MatchPOI(c *gin.Context) {
	center, ok := centerFromQuery(c)
	if !ok {
		return
	}

	details, err := h.Places.MatchNearby(c.Request.Context(), center, c.Query("name"), 0)
	switch {
	case errors.Is(err, amap.ErrEmptyName):
		errorResponse(c, http.StatusBadRequest, "缺少参数 name")
	case errors.Is(err, amap.ErrNoMatch):
		errorResponse(c, http.StatusNotFound, "附近没有匹配的 POI")
	case err != nil:
		upstreamError(c, "poi", err)
	default:
		c.JSON(http.StatusOK, details)
	}
}
