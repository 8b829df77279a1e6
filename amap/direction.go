package amap

import (
	"context"
	"net/url"

	"github.com/paulmach/orb"

	"ezymap/model"
	"ezymap/utils"
)

// WalkingPath 步行方案
type WalkingPath struct {
	Distance int
	Duration int
	Steps    []model.RouteStep
}

type walkingResponse struct {
	Route struct {
		Origin      FlexibleString `json:"origin"`
		Destination FlexibleString `json:"destination"`
		Paths       []walkingPath  `json:"paths"`
	} `json:"route"`
}

type walkingPath struct {
	Distance FlexibleInt   `json:"distance"`
	Duration FlexibleInt   `json:"duration"`
	Steps    []walkingStep `json:"steps"`
}

type walkingStep struct {
	Instruction FlexibleString `json:"instruction"`
	Road        FlexibleString `json:"road"`
	Distance    FlexibleInt    `json:"distance"`
	Duration    FlexibleInt    `json:"duration"`
	Polyline    FlexibleString `json:"polyline"`
}

// WalkingRoute 步行路径规划 (v3 direction/walking)，返回第一条方案
func (c *Client) WalkingRoute(ctx context.Context, origin, destination orb.Point) (*WalkingPath, error) {
	params := url.Values{}
	params.Set("origin", utils.FormatLocation(origin))
	params.Set("destination", utils.FormatLocation(destination))

	var resp walkingResponse
	if err := c.get(ctx, "/v3/direction/walking", params, &resp); err != nil {
		return nil, err
	}
	if len(resp.Route.Paths) == 0 {
		return nil, ErrNoPath
	}

	p := resp.Route.Paths[0]
	path := &WalkingPath{
		Distance: int(p.Distance),
		Duration: int(p.Duration),
		Steps:    make([]model.RouteStep, 0, len(p.Steps)),
	}
	for _, s := range p.Steps {
		path.Steps = append(path.Steps, model.RouteStep{
			Instruction: s.Instruction.String(),
			Road:        s.Road.String(),
			Distance:    int(s.Distance),
			Duration:    int(s.Duration),
			Polyline:    s.Polyline.String(),
		})
	}
	return path, nil
}
