package model

import "github.com/paulmach/orb"

// POI 高德搜索返回的兴趣点
type POI struct {
	ID       string    `json:"id"`
	Name     string    `json:"name"`
	Type     string    `json:"type,omitempty"`
	TypeCode string    `json:"typecode,omitempty"`
	Address  string    `json:"address,omitempty"`
	AdName   string    `json:"adname,omitempty"` // 区县名称，地址为空时使用
	CityName string    `json:"cityname,omitempty"`
	Location orb.Point `json:"location"`           // [lng, lat]
	Distance int       `json:"distance,omitempty"` // 高德返回的距离 (米)，仅周边搜索有
}

// Lat 纬度
func (p POI) Lat() float64 { return p.Location.Lat() }

// Lng 经度
func (p POI) Lng() float64 { return p.Location.Lon() }

// POIDisplayItem 用于地图和列表展示的 POI
type POIDisplayItem struct {
	Title        string `json:"title"`
	EnglishTitle string `json:"english_title"`
	Address      string `json:"address"`
	Distance     string `json:"distance"` // 如 "850m"、"1.2km"，无用户位置时为 "N/A"
	POI          POI    `json:"poi"`
}

// POIPhoto POI 图片
type POIPhoto struct {
	Title string `json:"title,omitempty"`
	URL   string `json:"url"`
}

// POIReview POI 评论
type POIReview struct {
	Content string `json:"content"`
	Rating  string `json:"rating,omitempty"`
	Author  string `json:"author,omitempty"`
}

// POIRichDetails 高德 Web 服务返回的 POI 详情
type POIRichDetails struct {
	ID           string      `json:"id"`
	Name         string      `json:"name,omitempty"`
	Photos       []POIPhoto  `json:"photos"`
	Rating       string      `json:"rating,omitempty"`
	Cost         string      `json:"cost,omitempty"`
	OpenHours    string      `json:"open_hours,omitempty"`
	Telephone    string      `json:"telephone,omitempty"`
	BusinessArea string      `json:"business_area,omitempty"`
	Tags         []string    `json:"tags"`
	Reviews      []POIReview `json:"reviews,omitempty"` // 没有评论时为 nil
}
