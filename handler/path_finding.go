package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/paulmach/orb"

	"ezymap/route"
	"ezymap/utils"
)

// WalkingRouteRequest 步行路线请求
type WalkingRouteRequest struct {
	StartLat *float64 `json:"start_lat" binding:"required"` // 起点纬度
	StartLng *float64 `json:"start_lng" binding:"required"` // 起点经度
	EndLat   *float64 `json:"end_lat" binding:"required"`   // 终点纬度
	EndLng   *float64 `json:"end_lng" binding:"required"`   // 终点经度
}

// WalkingRoute 步行路径规划接口
func (h *Handler) WalkingRoute(c *gin.Context) {
	var req WalkingRouteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorResponse(c, http.StatusBadRequest, "请求参数错误: "+err.Error())
		return
	}

	start := orb.Point{*req.StartLng, *req.StartLat}
	end := orb.Point{*req.EndLng, *req.EndLat}
	if !utils.ValidCoordinate(start.Lat(), start.Lon()) || !utils.ValidCoordinate(end.Lat(), end.Lon()) {
		errorResponse(c, http.StatusBadRequest, "起点或终点坐标超出范围")
		return
	}

	result, err := h.Planner.PlanWalkingRoute(c.Request.Context(), start, end)
	switch {
	case errors.Is(err, route.ErrInvalidPoint):
		errorResponse(c, http.StatusBadRequest, "起点或终点坐标超出范围")
	case errors.Is(err, route.ErrNoRoute):
		errorResponse(c, http.StatusNotFound, err.Error())
	case err != nil:
		upstreamError(c, "route", err)
	default:
		c.JSON(http.StatusOK, result)
	}
}
