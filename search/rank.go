package search

import (
	"sort"
	"strings"

	"ezymap/model"
)

// normalizeQuery 去掉首尾空白
func normalizeQuery(q string) string {
	return strings.TrimSpace(q)
}

// Dedupe 按 POI ID 去重，保留第一次出现的
func Dedupe(pois []model.POI) []model.POI {
	seen := make(map[string]struct{}, len(pois))
	unique := make([]model.POI, 0, len(pois))
	for _, p := range pois {
		if _, ok := seen[p.ID]; ok {
			continue
		}
		seen[p.ID] = struct{}{}
		unique = append(unique, p)
	}
	return unique
}

// RelevanceScore 关键词越靠前权重越高，名称命中额外加分
func RelevanceScore(poi model.POI, keywords []string) int {
	title := strings.ToLower(poi.Name)
	fullText := title + " " + strings.ToLower(poi.Address)

	score := 0
	for i, kw := range keywords {
		if strings.Contains(fullText, strings.ToLower(kw)) {
			score += 10 - i
		}
	}
	for i, kw := range keywords {
		if strings.Contains(title, strings.ToLower(kw)) {
			score += 5 - i
		}
	}
	return score
}

// Rank 按相关度降序排列，分数相同保持原顺序
func Rank(pois []model.POI, keywords []string) []model.POI {
	type scored struct {
		poi   model.POI
		score int
	}
	items := make([]scored, len(pois))
	for i, p := range pois {
		items[i] = scored{poi: p, score: RelevanceScore(p, keywords)}
	}

	sort.SliceStable(items, func(i, j int) bool {
		return items[i].score > items[j].score
	})

	ranked := make([]model.POI, len(items))
	for i, it := range items {
		ranked[i] = it.poi
	}
	return ranked
}
