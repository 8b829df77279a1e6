package amap

import (
	"context"
	"net/url"
	"slices"
	"strconv"
	"strings"

	"github.com/paulmach/orb"
	log "github.com/sirupsen/logrus"

	"ezymap/model"
	"ezymap/utils"
)

const (
	basicFields  = "business,children"
	detailFields = "photos,business,children,indoor,navi"

	// matchThreshold 名称相似度低于该值视为没有匹配
	matchThreshold = 0.3
	// matchPageSize 按名称匹配时取的周边 POI 数
	matchPageSize = 20
)

// placeResponse v5 place/text、place/around、place/detail 的响应
type placeResponse struct {
	Count FlexibleInt `json:"count"`
	POIs  []placePOI  `json:"pois"`
}

type placePOI struct {
	ID           FlexibleString `json:"id"`
	Name         FlexibleString `json:"name"`
	Type         FlexibleString `json:"type"`
	TypeCode     FlexibleString `json:"typecode"`
	Address      FlexibleString `json:"address"`
	Location     FlexibleString `json:"location"`
	CityName     FlexibleString `json:"cityname"`
	AdName       FlexibleString `json:"adname"`
	Distance     FlexibleInt    `json:"distance"`
	Tag          FlexibleString `json:"tag"`
	Rating       FlexibleString `json:"rating"`
	Star         FlexibleString `json:"star"`
	Cost         FlexibleString `json:"cost"`
	PriceRange   FlexibleString `json:"price_range"`
	OpenTime     FlexibleString `json:"opentime"`
	Tel          FlexibleString `json:"tel"`
	BusinessArea FlexibleString `json:"business_area"`
	Business     *placeBusiness `json:"business"`
	Photos       []placePhoto   `json:"photos"`
	Comments     []placeComment `json:"comments"`
	Reviews      []placeComment `json:"reviews"`
}

type placeBusiness struct {
	Rating        FlexibleString `json:"rating"`
	Cost          FlexibleString `json:"cost"`
	OpenTimeToday FlexibleString `json:"opentime_today"`
	OpenTimeWeek  FlexibleString `json:"opentime_week"`
	Tel           FlexibleString `json:"tel"`
	BusinessArea  FlexibleString `json:"business_area"`
	Tag           FlexibleString `json:"tag"`
}

type placePhoto struct {
	Title FlexibleString `json:"title"`
	URL   FlexibleString `json:"url"`
}

type placeComment struct {
	Content  FlexibleString `json:"content"`
	Rating   FlexibleString `json:"rating"`
	Star     FlexibleString `json:"star"`
	Author   FlexibleString `json:"author"`
	Username FlexibleString `json:"username"`
}

// SearchKeyword 关键词搜索，提供用户位置时在其周边搜索，否则全国范围搜索
func (c *Client) SearchKeyword(ctx context.Context, keyword string, near *orb.Point) ([]model.POI, error) {
	if near != nil {
		return c.SearchNearby(ctx, *near, keyword, c.searchRadius, "")
	}

	params := url.Values{}
	params.Set("keywords", keyword)
	params.Set("show_fields", basicFields)
	params.Set("page_size", strconv.Itoa(c.pageSize))
	params.Set("page_num", "1")

	var resp placeResponse
	if err := c.get(ctx, "/v5/place/text", params, &resp); err != nil {
		return nil, err
	}
	return convertPOIs(resp.POIs), nil
}

// SearchNearby 周边搜索
func (c *Client) SearchNearby(ctx context.Context, center orb.Point, keyword string, radius int, types string) ([]model.POI, error) {
	var resp placeResponse
	if err := c.around(ctx, center, keyword, radius, types, basicFields, c.pageSize, &resp); err != nil {
		return nil, err
	}
	return convertPOIs(resp.POIs), nil
}

func (c *Client) around(ctx context.Context, center orb.Point, keyword string, radius int, types, fields string, pageSize int, out *placeResponse) error {
	if radius <= 0 {
		radius = c.searchRadius
	}

	params := url.Values{}
	params.Set("location", utils.FormatLocation(center))
	params.Set("radius", strconv.Itoa(radius))
	if keyword != "" {
		params.Set("keywords", keyword)
	}
	if types != "" {
		params.Set("types", types)
	}
	params.Set("show_fields", fields)
	params.Set("page_size", strconv.Itoa(pageSize))
	params.Set("page_num", "1")

	return c.get(ctx, "/v5/place/around", params, out)
}

// Detail 根据 POI ID 获取详情 (图片、评分、营业时间等)
func (c *Client) Detail(ctx context.Context, poiID string) (*model.POIRichDetails, error) {
	params := url.Values{}
	params.Set("id", poiID)
	params.Set("show_fields", detailFields)

	var resp placeResponse
	if err := c.get(ctx, "/v5/place/detail", params, &resp); err != nil {
		return nil, err
	}
	if len(resp.POIs) == 0 {
		return nil, ErrPOINotFound
	}

	log.WithField("prefix", "amap").WithField("poi_id", poiID).Debug("got rich details")
	return parseRichDetails(resp.POIs[0], poiID), nil
}

// MatchNearby 在没有 POI ID 时，搜索周边并按名称相似度找到最匹配的 POI
func (c *Client) MatchNearby(ctx context.Context, center orb.Point, name string, radius int) (*model.POIRichDetails, error) {
	if strings.TrimSpace(name) == "" {
		return nil, ErrEmptyName
	}
	if radius <= 0 {
		radius = c.matchRadius
	}

	var resp placeResponse
	if err := c.around(ctx, center, "", radius, "", detailFields, matchPageSize, &resp); err != nil {
		return nil, err
	}

	var best *placePOI
	bestScore := 0.0
	for i := range resp.POIs {
		score := utils.NameSimilarity(name, resp.POIs[i].Name.String())
		if score > bestScore {
			bestScore = score
			best = &resp.POIs[i]
		}
	}

	if best == nil || bestScore <= matchThreshold {
		log.WithField("prefix", "amap").WithField("name", name).WithField("best_score", bestScore).Warn("no good match found")
		return nil, ErrNoMatch
	}

	return parseRichDetails(*best, best.ID.String()), nil
}

func convertPOIs(raw []placePOI) []model.POI {
	pois := make([]model.POI, 0, len(raw))
	for _, p := range raw {
		loc, err := utils.ParseLocation(p.Location.String())
		if err != nil {
			log.WithField("prefix", "amap").WithField("poi_id", p.ID.String()).WithError(err).Warn("skip poi with invalid location")
			continue
		}
		pois = append(pois, model.POI{
			ID:       p.ID.String(),
			Name:     p.Name.String(),
			Type:     p.Type.String(),
			TypeCode: p.TypeCode.String(),
			Address:  p.Address.String(),
			AdName:   p.AdName.String(),
			CityName: p.CityName.String(),
			Location: loc,
			Distance: int(p.Distance),
		})
	}
	return pois
}

// firstNonBlank 返回第一个非空值
func firstNonBlank(values ...FlexibleString) string {
	for _, v := range values {
		if s := v.String(); s != "" {
			return s
		}
	}
	return ""
}

func parseRichDetails(p placePOI, poiID string) *model.POIRichDetails {
	details := &model.POIRichDetails{
		ID:     poiID,
		Name:   p.Name.String(),
		Photos: make([]model.POIPhoto, 0, len(p.Photos)),
		Tags:   []string{},
	}

	for _, photo := range p.Photos {
		if photo.URL.String() == "" {
			continue
		}
		details.Photos = append(details.Photos, model.POIPhoto{
			Title: photo.Title.String(),
			URL:   photo.URL.String(),
		})
	}

	for _, tag := range strings.Split(p.Tag.String(), ";") {
		if tag = strings.TrimSpace(tag); tag != "" {
			details.Tags = append(details.Tags, tag)
		}
	}

	var reviews []model.POIReview
	for _, cm := range p.Comments {
		reviews = append(reviews, model.POIReview{
			Content: cm.Content.String(),
			Rating:  cm.Rating.String(),
			Author:  cm.Author.String(),
		})
	}
	for _, rv := range p.Reviews {
		reviews = append(reviews, model.POIReview{
			Content: rv.Content.String(),
			Rating:  firstNonBlank(rv.Star, rv.Rating),
			Author:  firstNonBlank(rv.Author, rv.Username),
		})
	}
	if len(reviews) > 0 {
		details.Reviews = reviews
	}

	// v5 接口的商户信息在 business 中，旧字段在根节点
	b := p.Business
	if b == nil {
		b = &placeBusiness{}
	}
	details.Rating = firstNonBlank(b.Rating, p.Rating, p.Star)
	details.Cost = firstNonBlank(b.Cost, p.Cost, p.PriceRange)
	details.OpenHours = firstNonBlank(b.OpenTimeToday, b.OpenTimeWeek, p.OpenTime)
	details.Telephone = firstNonBlank(b.Tel, p.Tel)
	details.BusinessArea = firstNonBlank(b.BusinessArea, p.BusinessArea)

	if tag := b.Tag.String(); tag != "" && !slices.Contains(details.Tags, tag) {
		details.Tags = append(details.Tags, tag)
	}

	return details
}

