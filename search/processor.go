package search

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/paulmach/orb"
	"github.com/patrickmn/go-cache"
	log "github.com/sirupsen/logrus"

	"ezymap/ai"
	"ezymap/model"
	"ezymap/utils"
)

const (
	unknownTitle   = "Unknown POI"
	unknownAddress = "Unknown address"
	noDistance     = "N/A"
)

// Translator POI 标题批量翻译
type Translator interface {
	Enabled() bool
	BatchTranslateTitles(ctx context.Context, items []ai.TranslationItem) ([]ai.TranslatedTitle, error)
}

// Processor 将 POI 转换为展示用的条目 (地址、距离、英文名)
type Processor struct {
	translator Translator
	pinyin     *utils.Transliterator
	cache      *cache.Cache // POI key -> 英文标题
}

// NewProcessor 创建结果处理器，translator 可以为 nil
func NewProcessor(translator Translator, pinyin *utils.Transliterator, ttl time.Duration) *Processor {
	if pinyin == nil {
		pinyin = utils.NewTransliterator(nil)
	}
	return &Processor{
		translator: translator,
		pinyin:     pinyin,
		cache:      cache.New(ttl, 2*ttl),
	}
}

// Process 生成展示条目，英文名优先用缓存的翻译，否则用拼音
func (p *Processor) Process(pois []model.POI, near *orb.Point) []model.POIDisplayItem {
	items := make([]model.POIDisplayItem, 0, len(pois))
	for _, poi := range pois {
		title := poi.Name
		if title == "" {
			title = unknownTitle
		}

		address := poi.Address
		if address == "" {
			address = poi.AdName
		}
		if address == "" {
			address = unknownAddress
		}

		distance := noDistance
		if near != nil {
			distance = utils.FormatDistance(int(utils.HaversineDistance(*near, poi.Location)))
		}

		englishTitle, ok := p.cachedTitle(poi)
		if !ok {
			englishTitle = p.pinyin.ToPinyin(title)
		}

		items = append(items, model.POIDisplayItem{
			Title:        title,
			EnglishTitle: englishTitle,
			Address:      address,
			Distance:     distance,
			POI:          poi,
		})
	}
	return items
}

// ProcessWithTranslation 对没有缓存的标题做一次批量 AI 翻译，翻译失败时保留拼音
func (p *Processor) ProcessWithTranslation(ctx context.Context, pois []model.POI, near *orb.Point) []model.POIDisplayItem {
	items := p.Process(pois, near)
	if p.translator == nil || !p.translator.Enabled() || len(items) == 0 {
		return items
	}

	var pending []ai.TranslationItem
	for i, item := range items {
		if _, ok := p.cachedTitle(item.POI); ok {
			continue
		}
		pending = append(pending, ai.TranslationItem{ID: strconv.Itoa(i), OriginalTitle: item.Title})
	}
	if len(pending) == 0 {
		return items
	}

	translations, err := p.translator.BatchTranslateTitles(ctx, pending)
	if err != nil {
		log.WithField("prefix", "search").WithError(err).Warn("batch translation failed, keep pinyin titles")
		return items
	}

	translated := make([]model.POIDisplayItem, 0, len(translations))
	for _, tr := range translations {
		i, err := strconv.Atoi(tr.ID)
		if err != nil || i < 0 || i >= len(items) {
			continue
		}
		items[i].EnglishTitle = tr.TranslatedTitle
		translated = append(translated, items[i])
	}
	p.CacheTranslations(translated)

	return items
}

// CacheTranslations 缓存英文标题
func (p *Processor) CacheTranslations(items []model.POIDisplayItem) {
	for _, item := range items {
		title := item.EnglishTitle
		if title == "" {
			title = unknownTitle
		}
		p.cache.Set(POIKey(item.POI), title, cache.DefaultExpiration)
	}
	log.WithField("prefix", "search").WithField("count", len(items)).Debug("cached title translations")
}

// ClearTranslationCache 清空翻译缓存
func (p *Processor) ClearTranslationCache() {
	p.cache.Flush()
	log.WithField("prefix", "search").Debug("translation cache cleared")
}

func (p *Processor) cachedTitle(poi model.POI) (string, bool) {
	v, ok := p.cache.Get(POIKey(poi))
	if !ok {
		return "", false
	}
	title, ok := v.(string)
	return title, ok
}

// POIKey 缓存键: 优先用 POI ID，否则用名称和坐标
func POIKey(poi model.POI) string {
	if poi.ID != "" {
		return poi.ID
	}
	return fmt.Sprintf("%s_%v_%v", poi.Name, poi.Lat(), poi.Lng())
}
