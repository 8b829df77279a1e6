package route

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/paulmach/orb"
	log "github.com/sirupsen/logrus"

	"ezymap/amap"
	"ezymap/model"
	"ezymap/utils"
)

// SpeedWalk 步行速度 (米/秒)，高德未返回耗时时用于估算
const SpeedWalk = 1.4

var (
	ErrNoRoute      = errors.New("No route found")
	ErrInvalidPoint = errors.New("route: invalid coordinate")
)

// WalkingRouter 步行路径规划服务 (高德)
type WalkingRouter interface {
	WalkingRoute(ctx context.Context, origin, destination orb.Point) (*amap.WalkingPath, error)
}

// Planner 步行路线规划
type Planner struct {
	router WalkingRouter
}

// NewPlanner 创建路线规划器
func NewPlanner(router WalkingRouter) *Planner {
	return &Planner{router: router}
}

// PlanWalkingRoute 规划起点到终点的步行路线
func (p *Planner) PlanWalkingRoute(ctx context.Context, start, end orb.Point) (*model.RouteResult, error) {
	if !utils.ValidCoordinate(start.Lat(), start.Lon()) || !utils.ValidCoordinate(end.Lat(), end.Lon()) {
		return nil, ErrInvalidPoint
	}

	logger := log.WithField("prefix", "route").
		WithField("start", utils.FormatLocation(start)).
		WithField("end", utils.FormatLocation(end))

	path, err := p.router.WalkingRoute(ctx, start, end)
	if err != nil {
		if errors.Is(err, amap.ErrNoPath) {
			return nil, ErrNoRoute
		}
		var apiErr *amap.APIError
		if errors.As(err, &apiErr) {
			return nil, fmt.Errorf("Route search failed: %s", apiErr.Info)
		}
		return nil, fmt.Errorf("Route planning failed: %w", err)
	}

	// 拼接所有步骤的折线，得到完整的步行路线
	polylines := make([]string, 0, len(path.Steps))
	for i, step := range path.Steps {
		logger.Debugf("step %d: %s (%dm)", i, step.Instruction, step.Distance)
		if step.Polyline != "" {
			polylines = append(polylines, step.Polyline)
		}
	}
	polyline := strings.Join(polylines, ";")

	duration := path.Duration
	if duration == 0 && path.Distance > 0 {
		duration = int(float64(path.Distance) / SpeedWalk)
	}

	line := ParsePolyline(polyline)
	bound := orb.MultiPoint{start, end}.Bound()
	if len(line) > 0 {
		bound = bound.Union(line.Bound())
	}

	result := &model.RouteResult{
		RouteData: model.RouteData{
			Distance: path.Distance,
			Duration: duration,
			Polyline: polyline,
		},
		Steps:      path.Steps,
		StartPoint: start,
		EndPoint:   end,
		Line:       line,
		Bound:      [2]orb.Point{bound.Min, bound.Max},
		Message:    fmt.Sprintf("Route found: %s, %s", FormatRouteDistance(path.Distance), FormatDuration(duration)),
	}

	logger.WithField("distance", result.RouteData.Distance).WithField("duration", duration).Info("route planning successful")
	return result, nil
}

// ParsePolyline 解析 "lng,lat;lng,lat" 折线，跳过无法解析的点以及与上一点重复的点
func ParsePolyline(polyline string) orb.LineString {
	var line orb.LineString
	for _, pair := range strings.Split(polyline, ";") {
		if strings.TrimSpace(pair) == "" {
			continue
		}
		p, err := utils.ParseLocation(pair)
		if err != nil {
			continue
		}
		if n := len(line); n > 0 && line[n-1].Equal(p) {
			continue
		}
		line = append(line, p)
	}
	return line
}

// FormatRouteDistance 格式化路线距离，如 "850 m"、"1.2 km"
func FormatRouteDistance(meters int) string {
	if meters >= 1000 {
		return fmt.Sprintf("%.1f km", float64(meters)/1000.0)
	}
	return fmt.Sprintf("%d m", meters)
}

// FormatDuration 格式化耗时，如 "45 sec"、"12 min"
func FormatDuration(seconds int) string {
	if seconds >= 60 {
		return fmt.Sprintf("%d min", seconds/60)
	}
	return fmt.Sprintf("%d sec", seconds)
}
