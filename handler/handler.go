package handler

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/paulmach/orb"

	"ezymap/config"
	"ezymap/model"
	"ezymap/utils"
)

// SearchService AI 增强搜索与直接搜索
type SearchService interface {
	Search(ctx context.Context, query string, near *orb.Point) (*model.SearchResult, error)
	DirectSearch(ctx context.Context, query string, near *orb.Point) (*model.SearchResult, error)
}

// DisplayProcessor 把 POI 转成展示用的条目
type DisplayProcessor interface {
	Process(pois []model.POI, near *orb.Point) []model.POIDisplayItem
	ProcessWithTranslation(ctx context.Context, pois []model.POI, near *orb.Point) []model.POIDisplayItem
}

// PlaceService 高德周边搜索与详情
type PlaceService interface {
	SearchNearby(ctx context.Context, center orb.Point, keyword string, radius int, types string) ([]model.POI, error)
	Detail(ctx context.Context, poiID string) (*model.POIRichDetails, error)
	MatchNearby(ctx context.Context, center orb.Point, name string, radius int) (*model.POIRichDetails, error)
}

// RoutePlanner 步行路线规划
type RoutePlanner interface {
	PlanWalkingRoute(ctx context.Context, start, end orb.Point) (*model.RouteResult, error)
}

// UserStore users 表
type UserStore interface {
	CreateUser(ctx context.Context, user *model.User) error
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	GetUserByID(ctx context.Context, id uuid.UUID) (*model.User, error)
}

// HistoryStore 搜索历史
type HistoryStore interface {
	RecordSearch(ctx context.Context, record *model.SearchRecord) error
	ListSearches(ctx context.Context, userID uuid.UUID, limit int) ([]model.SearchRecord, error)
}

// Services Handler 依赖的服务
type Services struct {
	Searcher  SearchService
	Processor DisplayProcessor
	Places    PlaceService
	Planner   RoutePlanner
	Users     UserStore
	History   HistoryStore
}

// Handler HTTP 接口
type Handler struct {
	Services
	jwtSecret    []byte
	tokenTTL     time.Duration
	historyLimit int
}

// New 创建 Handler
func New(svc Services, auth config.AuthConfig, search config.SearchConfig) *Handler {
	historyLimit := search.HistoryPageLimit
	if historyLimit <= 0 {
		historyLimit = 50
	}
	return &Handler{
		Services:     svc,
		jwtSecret:    []byte(auth.JWTSecret),
		tokenTTL:     auth.TokenTTL,
		historyLimit: historyLimit,
	}
}

// errorResponse 统一错误格式
func errorResponse(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, gin.H{"error": message})
}

// parseNear 解析可选的用户位置，lat 和 lng 必须同时提供
func parseNear(lat, lng *float64) (*orb.Point, error) {
	if lat == nil && lng == nil {
		return nil, nil
	}
	if lat == nil || lng == nil {
		return nil, errors.New("lat 和 lng 必须同时提供")
	}
	if !utils.ValidCoordinate(*lat, *lng) {
		return nil, fmt.Errorf("坐标超出范围: %v, %v", *lat, *lng)
	}
	return &orb.Point{*lng, *lat}, nil
}

// queryNear 从 URL 参数解析可选的用户位置
func queryNear(c *gin.Context) (*orb.Point, error) {
	lat, err := queryFloat(c, "lat")
	if err != nil {
		return nil, err
	}
	lng, err := queryFloat(c, "lng")
	if err != nil {
		return nil, err
	}
	return parseNear(lat, lng)
}

// queryFloat 读取可选的浮点数参数，缺省时返回 nil
func queryFloat(c *gin.Context, key string) (*float64, error) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, fmt.Errorf("参数 %s 格式错误: %q", key, raw)
	}
	return &v, nil
}
