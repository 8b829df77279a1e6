package ai

import (
	"fmt"
	"strings"

	"github.com/paulmach/orb"
)

const queryPromptTemplate = `You are an AI assistant helping foreigners in China find locations using AMap (高德地图).

%s

User query: "%s"

Your task is to:
1. If the query is in English, translate it to Chinese for AMap API
2. If the query is in pinyin, convert it to Chinese characters
3. If the query is natural language (e.g., "Where can I find dumplings"), extract relevant search keywords
4. Provide multiple search keywords for better results
5. Consider the user's location context for relevant searches

Respond in JSON format:
{
    "translated_query": "Chinese translation or original if already Chinese",
    "search_keywords": ["keyword1", "keyword2", "keyword3"],
    "confidence": 0.95,
    "explanation": "Brief explanation of the translation/processing"
}

Examples:
- "dumplings" → ["饺子", "饺子店", "中餐"]
- "Where can I find the underground market?" → ["地下市场", "地下商城", "购物中心"]
- "beijing hutong" → ["北京胡同", "胡同", "老北京"]
- "星巴克" → ["星巴克", "咖啡", "咖啡店"]`

const translatePromptTemplate = `Translate the following Chinese place names (points of interest from AMap) into natural English names for foreign visitors.
Keep brand names in their common English form (e.g. 星巴克 → Starbucks) and keep branch names in parentheses.

Places (JSON):
%s

Respond in JSON format only:
{
    "translations": [
        {"id": "same id as input", "translated_title": "English name"}
    ]
}`

func buildQueryPrompt(query string, near *orb.Point) string {
	locationContext := "User location is not available. "
	if near != nil {
		locationContext = fmt.Sprintf("User is located at: %v, %v. ", near.Lat(), near.Lon())
	}
	return fmt.Sprintf(queryPromptTemplate, strings.TrimSpace(locationContext), query)
}

func buildTranslatePrompt(itemsJSON string) string {
	return fmt.Sprintf(translatePromptTemplate, itemsJSON)
}
