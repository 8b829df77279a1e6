package utils

import (
	"strings"
	"sync"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/go-ego/gse"
	"github.com/mozillazg/go-pinyin"
	log "github.com/sirupsen/logrus"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Segmenter 中文分词
type Segmenter interface {
	Cut(text string) []string
}

// gseSegmenter 基于 gse 的精确模式分词器 (北京大学 作为一个词)
// 词典只加载一次，加载约需数秒，启动时应先调用 Transliterator.Warm
type gseSegmenter struct {
	once   sync.Once
	seg    gse.Segmenter
	err    error
	loaded bool
}

func (g *gseSegmenter) load() {
	g.once.Do(func() {
		start := time.Now()
		g.seg, g.err = gse.New()
		if g.err != nil {
			log.WithField("prefix", "pinyin").WithError(g.err).Warn("fail to load segmenter dictionary")
			return
		}
		g.loaded = true
		log.WithField("prefix", "pinyin").WithField("elapsed", time.Since(start)).Info("segmenter dictionary loaded")
	})
}

func (g *gseSegmenter) Cut(text string) []string {
	g.load()
	if g.err != nil {
		return runeSegments(text)
	}
	return restoreCase(text, g.seg.Cut(text, true))
}

// restoreCase gse 会把英文转成小写，按字符数把分词结果对齐回原文以保留大小写
// 字符数对不上时原样返回分词结果
func restoreCase(text string, words []string) []string {
	runes := []rune(text)
	out := make([]string, 0, len(words))
	pos := 0
	for _, w := range words {
		n := utf8.RuneCountInString(w)
		if pos+n > len(runes) || !strings.EqualFold(string(runes[pos:pos+n]), w) {
			return words
		}
		out = append(out, string(runes[pos:pos+n]))
		pos += n
	}
	if pos != len(runes) {
		return words
	}
	return out
}

// runeSegments 分词器不可用时按字切分
func runeSegments(text string) []string {
	words := make([]string, 0, len(text))
	for _, r := range text {
		words = append(words, string(r))
	}
	return words
}

// Transliterator 将中文 POI 名称转换为拼音
// 如 "北京大学" -> "BeiJingDaXue"，"肯德基KFC" -> "KenDeJi KFC"
type Transliterator struct {
	segmenter Segmenter
	args      pinyin.Args
}

// NewTransliterator 创建拼音转换器，segmenter 为 nil 时使用 gse
func NewTransliterator(segmenter Segmenter) *Transliterator {
	if segmenter == nil {
		segmenter = &gseSegmenter{}
	}
	return &Transliterator{
		segmenter: segmenter,
		args:      pinyin.NewArgs(),
	}
}

// Warm 预先加载分词词典，避免第一次请求时等待
func (t *Transliterator) Warm() {
	if g, ok := t.segmenter.(*gseSegmenter); ok {
		g.load()
	}
}

// ToPinyin 每个词内的汉字转为首字母大写的拼音并拼接，词之间用空格分隔，非汉字原样保留
func (t *Transliterator) ToPinyin(text string) string {
	// cases.Caser 有状态，不能跨 goroutine 共享
	title := cases.Title(language.Und, cases.NoLower)
	words := t.segmenter.Cut(text)
	parts := make([]string, 0, len(words))

	for _, word := range words {
		var b strings.Builder
		for _, r := range word {
			if unicode.Is(unicode.Han, r) {
				if syllables := pinyin.LazyPinyin(string(r), t.args); len(syllables) > 0 {
					b.WriteString(title.String(syllables[0]))
					continue
				}
			}
			b.WriteRune(r)
		}
		if w := strings.TrimSpace(b.String()); w != "" {
			parts = append(parts, title.String(w))
		}
	}

	return strings.Join(strings.Fields(strings.Join(parts, " ")), " ")
}
