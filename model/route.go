package model

import "github.com/paulmach/orb"

// RouteStep 步行路线中的一段
type RouteStep struct {
	Instruction string `json:"instruction"`
	Road        string `json:"road,omitempty"`
	Distance    int    `json:"distance"` // 米
	Duration    int    `json:"duration"` // 秒
	Polyline    string `json:"polyline,omitempty"`
}

// RouteData 路线概要
type RouteData struct {
	Distance int    `json:"distance"` // 米
	Duration int    `json:"duration"` // 秒
	Polyline string `json:"polyline"` // "lng,lat;lng,lat;..."
}

// RouteResult 路径规划结果
type RouteResult struct {
	RouteData  RouteData      `json:"route"`
	Steps      []RouteStep    `json:"steps"`
	StartPoint orb.Point      `json:"start"`
	EndPoint   orb.Point      `json:"end"`
	Line       orb.LineString `json:"line"`
	Bound      [2]orb.Point   `json:"bound"` // [[minLng,minLat],[maxLng,maxLat]]
	Message    string         `json:"message"`
}
