package utils

import "strings"

// NameSimilarity 计算两个 POI 名称的相似度 [0, 1]
// 完全相同为 1，互相包含为 0.8，否则按编辑距离计算
func NameSimilarity(name1, name2 string) float64 {
	a := strings.ToLower(strings.TrimSpace(name1))
	b := strings.ToLower(strings.TrimSpace(name2))

	if a == "" || b == "" {
		return 0
	}
	if a == b {
		return 1.0
	}

	if strings.Contains(a, b) || strings.Contains(b, a) {
		return 0.8
	}

	ra, rb := []rune(a), []rune(b)
	maxLen := max(len(ra), len(rb))
	return 1.0 - float64(levenshtein(ra, rb))/float64(maxLen)
}

// levenshtein 按 rune 计算编辑距离，中文按字计
func levenshtein(a, b []rune) int {
	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= len(a); i++ {
		curr[0] = i
		for j := 1; j <= len(b); j++ {
			if a[i-1] == b[j-1] {
				curr[j] = prev[j-1]
			} else {
				curr[j] = 1 + min(prev[j], curr[j-1], prev[j-1])
			}
		}
		prev, curr = curr, prev
	}
	return prev[len(b)]
}
