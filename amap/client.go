package amap

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	log "github.com/sirupsen/logrus"

	"ezymap/config"
)

var (
	ErrPOINotFound = errors.New("amap: poi not found")
	ErrNoMatch     = errors.New("amap: no matching poi nearby")
	ErrEmptyName   = errors.New("amap: target name must not be empty")
	ErrNoPath      = errors.New("amap: no walking path")
)

// APIError 高德返回 status != "1" 时的错误
type APIError struct {
	Info     string
	InfoCode string
}

func (e *APIError) Error() string {
	if e.InfoCode != "" {
		return fmt.Sprintf("amap: %s (%s)", e.Info, e.InfoCode)
	}
	return "amap: " + e.Info
}

// envelope 高德 Web 服务通用响应头
type envelope struct {
	Status   string `json:"status"`
	Info     string `json:"info"`
	InfoCode string `json:"infocode"`
}

// Client 高德 Web 服务客户端
type Client struct {
	key          string
	baseURL      string
	pageSize     int
	searchRadius int
	matchRadius  int
	client       *http.Client
}

// NewClient 创建高德客户端
func NewClient(cfg config.AmapConfig) *Client {
	return &Client{
		key:          cfg.Key,
		baseURL:      strings.TrimRight(cfg.BaseURL, "/"),
		pageSize:     cfg.PageSize,
		searchRadius: cfg.SearchRadius,
		matchRadius:  cfg.MatchRadius,
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

// MatchRadius 按名称匹配 POI 时的默认搜索半径
func (c *Client) MatchRadius() int {
	return c.matchRadius
}

// get 发送 GET 请求并将结果解析到 out，同时检查 status
func (c *Client) get(ctx context.Context, path string, params url.Values, out interface{}) error {
	params.Set("key", c.key)
	reqURL := c.baseURL + path + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}

	log.WithField("prefix", "amap").WithField("path", path).Debug("request to amap")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("amap request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response failed: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		log.WithField("prefix", "amap").WithField("status", resp.StatusCode).WithField("resp", string(body)).Error("error response from amap")
		return fmt.Errorf("amap http error: %d", resp.StatusCode)
	}

	var head envelope
	if err := json.Unmarshal(body, &head); err != nil {
		return fmt.Errorf("parse response failed: %w", err)
	}
	if head.Status != "1" {
		info := head.Info
		if info == "" {
			info = "Unknown error"
		}
		return &APIError{Info: info, InfoCode: head.InfoCode}
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("parse response failed: %w", err)
	}
	return nil
}

// FlexibleString 处理高德 API 返回的灵活类型字段 (可能是字符串或数组)
type FlexibleString string

func (f *FlexibleString) UnmarshalJSON(data []byte) error {
	// 先尝试解析为字符串
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*f = FlexibleString(s)
		return nil
	}

	// 如果失败，尝试解析为字符串数组
	var arr []string
	if err := json.Unmarshal(data, &arr); err == nil {
		if len(arr) > 0 {
			*f = FlexibleString(arr[0])
		} else {
			*f = ""
		}
		return nil
	}

	// 数字等其它类型按原文保留
	var n json.Number
	if err := json.Unmarshal(data, &n); err == nil {
		*f = FlexibleString(n.String())
		return nil
	}

	*f = ""
	return nil
}

// String 返回去除首尾空白的值
func (f FlexibleString) String() string {
	return strings.TrimSpace(string(f))
}

// FlexibleInt 处理数字或数字字符串 ("1234")，无法解析时为 0
type FlexibleInt int

func (f *FlexibleInt) UnmarshalJSON(data []byte) error {
	var s FlexibleString
	if err := s.UnmarshalJSON(data); err != nil {
		return err
	}
	if s.String() == "" {
		*f = 0
		return nil
	}
	v, err := strconv.ParseFloat(s.String(), 64)
	if err != nil {
		*f = 0
		return nil
	}
	*f = FlexibleInt(v)
	return nil
}
