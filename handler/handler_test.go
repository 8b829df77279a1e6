package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/paulmach/orb"
	"github.com/stretchr/testify/suite"

	"ezymap/amap"
	"ezymap/config"
	"ezymap/db"
	"ezymap/model"
	"ezymap/route"
	"ezymap/search"
)

type fakeSearcher struct {
	result   *model.SearchResult
	err      error
	lastNear *orb.Point
}

func (f *fakeSearcher) Search(ctx context.Context, query string, near *orb.Point) (*model.SearchResult, error) {
	f.lastNear = near
	if strings.TrimSpace(query) == "" {
		return nil, search.ErrEmptyQuery
	}
	if f.err != nil {
		return nil, f.err
	}
	ai := model.AIProcessedQuery{
		OriginalQuery:   query,
		TranslatedQuery: "饺子",
		SearchKeywords:  []string{"饺子", "饺子馆"},
		Confidence:      0.9,
	}
	r := *f.result
	r.AI = &ai
	return &r, nil
}

func (f *fakeSearcher) DirectSearch(ctx context.Context, query string, near *orb.Point) (*model.SearchResult, error) {
	f.lastNear = near
	if strings.TrimSpace(query) == "" {
		return nil, search.ErrEmptyQuery
	}
	if f.err != nil {
		return nil, f.err
	}
	r := *f.result
	return &r, nil
}

type fakeProcessor struct {
	translated bool
}

func (f *fakeProcessor) Process(pois []model.POI, near *orb.Point) []model.POIDisplayItem {
	items := make([]model.POIDisplayItem, 0, len(pois))
	for _, p := range pois {
		items = append(items, model.POIDisplayItem{Title: p.Name, EnglishTitle: "pinyin", Distance: "N/A", POI: p})
	}
	return items
}

func (f *fakeProcessor) ProcessWithTranslation(ctx context.Context, pois []model.POI, near *orb.Point) []model.POIDisplayItem {
	f.translated = true
	items := f.Process(pois, near)
	for i := range items {
		items[i].EnglishTitle = "translated"
	}
	return items
}

type fakePlaces struct {
	pois       []model.POI
	details    *model.POIRichDetails
	err        error
	lastRadius int
}

func (f *fakePlaces) SearchNearby(ctx context.Context, center orb.Point, keyword string, radius int, types string) ([]model.POI, error) {
	f.lastRadius = radius
	return f.pois, f.err
}

func (f *fakePlaces) Detail(ctx context.Context, poiID string) (*model.POIRichDetails, error) {
	if f.err != nil {
		return nil, f.err
	}
	if f.details == nil || f.details.ID != poiID {
		return nil, amap.ErrPOINotFound
	}
	return f.details, nil
}

func (f *fakePlaces) MatchNearby(ctx context.Context, center orb.Point, name string, radius int) (*model.POIRichDetails, error) {
	if strings.TrimSpace(name) == "" {
		return nil, amap.ErrEmptyName
	}
	if f.err != nil {
		return nil, f.err
	}
	if f.details == nil || f.details.Name != name {
		return nil, amap.ErrNoMatch
	}
	return f.details, nil
}

type fakePlanner struct {
	result *model.RouteResult
	err    error
}

func (f *fakePlanner) PlanWalkingRoute(ctx context.Context, start, end orb.Point) (*model.RouteResult, error) {
	return f.result, f.err
}

type fakeUsers struct {
	mu    sync.Mutex
	users map[string]*model.User
}

func (f *fakeUsers) CreateUser(ctx context.Context, user *model.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	email := strings.ToLower(user.Email)
	if _, ok := f.users[email]; ok {
		return db.ErrUserExists
	}
	user.ID = uuid.New()
	user.Email = email
	if user.UserType == "" {
		user.UserType = model.UserTypeTraveler
	}
	f.users[email] = user
	return nil
}

func (f *fakeUsers) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	user, ok := f.users[strings.ToLower(email)]
	if !ok {
		return nil, db.ErrUserNotFound
	}
	return user, nil
}

func (f *fakeUsers) GetUserByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, user := range f.users {
		if user.ID == id {
			return user, nil
		}
	}
	return nil, db.ErrUserNotFound
}

func (f *fakeUsers) delete(email string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.users, email)
}

type fakeHistory struct {
	mu      sync.Mutex
	records []model.SearchRecord
	err     error
}

func (f *fakeHistory) RecordSearch(ctx context.Context, record *model.SearchRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.records = append(f.records, *record)
	return nil
}

func (f *fakeHistory) ListSearches(ctx context.Context, userID uuid.UUID, limit int) ([]model.SearchRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]model.SearchRecord, 0)
	for i := len(f.records) - 1; i >= 0 && len(out) < limit; i-- {
		if r := f.records[i]; r.UserID != nil && *r.UserID == userID {
			out = append(out, r)
		}
	}
	return out, nil
}

type HandlerTestSuite struct {
	suite.Suite
	router    *gin.Engine
	handler   *Handler
	searcher  *fakeSearcher
	processor *fakeProcessor
	places    *fakePlaces
	planner   *fakePlanner
	users     *fakeUsers
	history   *fakeHistory
}

func (s *HandlerTestSuite) SetupTest() {
	gin.SetMode(gin.TestMode)

	s.searcher = &fakeSearcher{result: &model.SearchResult{
		POIs: []model.POI{
			{ID: "B1", Name: "老边饺子馆", Location: orb.Point{116.4, 39.9}},
			{ID: "B2", Name: "喜家德", Location: orb.Point{116.41, 39.91}},
		},
		Success: true,
		Message: "Found 2 results using AI-enhanced search",
	}}
	s.processor = &fakeProcessor{}
	s.places = &fakePlaces{}
	s.planner = &fakePlanner{}
	s.users = &fakeUsers{users: map[string]*model.User{}}
	s.history = &fakeHistory{}

	s.handler = New(Services{
		Searcher:  s.searcher,
		Processor: s.processor,
		Places:    s.places,
		Planner:   s.planner,
		Users:     s.users,
		History:   s.history,
	}, config.AuthConfig{JWTSecret: "test-secret", TokenTTL: time.Hour}, config.SearchConfig{HistoryPageLimit: 10})

	s.router = gin.New()
	s.handler.SetupRoutes(s.router)
}

func (s *HandlerTestSuite) do(method, path string, body interface{}, token string) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		s.Require().NoError(json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *HandlerTestSuite) decode(w *httptest.ResponseRecorder) map[string]interface{} {
	var out map[string]interface{}
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

// login 注册并登录，返回 token
func (s *HandlerTestSuite) login(email string) string {
	w := s.do(http.MethodPost, "/api/register", gin.H{"email": email, "password": "secret123"}, "")
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())

	w = s.do(http.MethodPost, "/api/login", gin.H{"email": email, "password": "secret123"}, "")
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	token, _ := s.decode(w)["token"].(string)
	s.Require().NotEmpty(token)
	return token
}

func (s *HandlerTestSuite) TestPingAndCORS() {
	w := s.do(http.MethodGet, "/ping", nil, "")
	s.Equal(http.StatusOK, w.Code)
	s.Equal("pong", s.decode(w)["message"])
	s.Equal("*", w.Header().Get("Access-Control-Allow-Origin"))

	w = s.do(http.MethodOptions, "/api/search", nil, "")
	s.Equal(http.StatusNoContent, w.Code)
}

func (s *HandlerTestSuite) TestRegister() {
	w := s.do(http.MethodPost, "/api/register", gin.H{"email": "tourist@example.com", "password": "secret123"}, "")
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	s.NotContains(w.Body.String(), "secret123")
	s.NotContains(w.Body.String(), "password_hash")

	user := s.decode(w)["user"].(map[string]interface{})
	s.Equal("tourist@example.com", user["email"])
	s.Equal(model.UserTypeTraveler, user["user_type"])

	w = s.do(http.MethodPost, "/api/register", gin.H{"email": "Tourist@example.com", "password": "secret123"}, "")
	s.Equal(http.StatusConflict, w.Code)

	w = s.do(http.MethodPost, "/api/register", gin.H{"email": "short@example.com", "password": "123"}, "")
	s.Equal(http.StatusBadRequest, w.Code)

	w = s.do(http.MethodPost, "/api/register", gin.H{"email": "not-an-email", "password": "secret123"}, "")
	s.Equal(http.StatusBadRequest, w.Code)

	w = s.do(http.MethodPost, "/api/register", gin.H{"email": "root@example.com", "password": "secret123", "user_type": "superuser"}, "")
	s.Equal(http.StatusBadRequest, w.Code)
}

func (s *HandlerTestSuite) TestLogin() {
	token := s.login("alice@example.com")

	claims, err := s.handler.parseToken("Bearer " + token)
	s.Require().NoError(err)
	s.Equal("alice@example.com", claims.Email)
	s.Equal(tokenIssuer, claims.Issuer)

	w := s.do(http.MethodPost, "/api/login", gin.H{"email": "alice@example.com", "password": "wrong-password"}, "")
	s.Equal(http.StatusUnauthorized, w.Code)

	w = s.do(http.MethodPost, "/api/login", gin.H{"email": "nobody@example.com", "password": "secret123"}, "")
	s.Equal(http.StatusUnauthorized, w.Code)

	w = s.do(http.MethodPost, "/api/login", gin.H{"email": "alice@example.com"}, "")
	s.Equal(http.StatusBadRequest, w.Code)
}

func (s *HandlerTestSuite) TestMe() {
	token := s.login("dave@example.com")

	w := s.do(http.MethodGet, "/api/me", nil, token)
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	s.Equal("dave@example.com", s.decode(w)["email"])

	w = s.do(http.MethodGet, "/api/me", nil, "")
	s.Equal(http.StatusUnauthorized, w.Code)

	s.users.delete("dave@example.com")
	w = s.do(http.MethodGet, "/api/me", nil, token)
	s.Equal(http.StatusUnauthorized, w.Code)
}

func (s *HandlerTestSuite) TestSearchRecordsHistory() {
	token := s.login("bob@example.com")

	w := s.do(http.MethodPost, "/api/search", gin.H{"query": "dumplings", "lat": 39.9, "lng": 116.4}, token)
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())

	body := s.decode(w)
	s.Equal(true, body["success"])
	s.Equal("Found 2 results using AI-enhanced search", body["message"])
	s.Len(body["items"], 2)
	s.False(s.processor.translated)
	s.Require().NotNil(s.searcher.lastNear)
	s.Equal(orb.Point{116.4, 39.9}, *s.searcher.lastNear)

	s.Require().Len(s.history.records, 1)
	record := s.history.records[0]
	s.Equal("dumplings", record.Query)
	s.Equal("饺子", record.TranslatedQuery)
	s.Equal([]string{"饺子", "饺子馆"}, []string(record.Keywords))
	s.Equal(2, record.ResultCount)

	w = s.do(http.MethodGet, "/api/search/history", nil, token)
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	s.Equal(float64(1), s.decode(w)["count"])

	w = s.do(http.MethodGet, "/api/search/history?limit=abc", nil, token)
	s.Equal(http.StatusBadRequest, w.Code)
}

func (s *HandlerTestSuite) TestSearchAnonymous() {
	w := s.do(http.MethodPost, "/api/search", gin.H{"query": "dumplings", "translate": true}, "")
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	s.True(s.processor.translated)
	s.Nil(s.searcher.lastNear)
	s.Empty(s.history.records)

	items := s.decode(w)["items"].([]interface{})
	s.Equal("translated", items[0].(map[string]interface{})["english_title"])
}

func (s *HandlerTestSuite) TestSearchHistoryFailureDoesNotFailSearch() {
	token := s.login("carol@example.com")
	s.history.err = errors.New("disk full")

	w := s.do(http.MethodPost, "/api/search", gin.H{"query": "coffee"}, token)
	s.Equal(http.StatusOK, w.Code)
}

func (s *HandlerTestSuite) TestSearchErrors() {
	w := s.do(http.MethodPost, "/api/search", gin.H{"query": "   "}, "")
	s.Equal(http.StatusBadRequest, w.Code)
	s.Equal("Please enter a search query", s.decode(w)["error"])

	w = s.do(http.MethodPost, "/api/search", gin.H{"query": "coffee", "lat": 39.9}, "")
	s.Equal(http.StatusBadRequest, w.Code)

	w = s.do(http.MethodPost, "/api/search", gin.H{"query": "coffee"}, "not-a-token")
	s.Equal(http.StatusUnauthorized, w.Code)

	s.searcher.err = &amap.APIError{Info: "DAILY_QUERY_OVER_LIMIT", InfoCode: "10003"}
	w = s.do(http.MethodPost, "/api/search", gin.H{"query": "coffee"}, "")
	s.Equal(http.StatusBadGateway, w.Code)
}

func (s *HandlerTestSuite) TestDirectSearch() {
	w := s.do(http.MethodGet, "/api/pois/search?q="+url.QueryEscape("饺子")+"&lat=39.9&lng=116.4", nil, "")
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	s.Len(s.decode(w)["items"], 2)

	w = s.do(http.MethodGet, "/api/pois/search?q=", nil, "")
	s.Equal(http.StatusBadRequest, w.Code)

	w = s.do(http.MethodGet, "/api/pois/search?q="+url.QueryEscape("饺子")+"&lat=abc&lng=116.4", nil, "")
	s.Equal(http.StatusBadRequest, w.Code)
}

func (s *HandlerTestSuite) TestHistoryRequiresAuth() {
	w := s.do(http.MethodGet, "/api/search/history", nil, "")
	s.Equal(http.StatusUnauthorized, w.Code)
}

func (s *HandlerTestSuite) TestNearby() {
	s.places.pois = []model.POI{{ID: "B3", Name: "星巴克", Location: orb.Point{116.4, 39.9}}}

	w := s.do(http.MethodGet, "/api/pois/nearby?lat=39.9&lng=116.4&radius=500&keyword="+url.QueryEscape("咖啡"), nil, "")
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	s.Equal(float64(1), s.decode(w)["count"])
	s.Equal(500, s.places.lastRadius)

	w = s.do(http.MethodGet, "/api/pois/nearby?keyword="+url.QueryEscape("咖啡"), nil, "")
	s.Equal(http.StatusBadRequest, w.Code)

	w = s.do(http.MethodGet, "/api/pois/nearby?lat=39.9&lng=116.4&radius=-1", nil, "")
	s.Equal(http.StatusBadRequest, w.Code)

	w = s.do(http.MethodGet, "/api/pois/nearby?lat=99&lng=116.4", nil, "")
	s.Equal(http.StatusBadRequest, w.Code)

	s.places.err = errors.New("connection refused")
	w = s.do(http.MethodGet, "/api/pois/nearby?lat=39.9&lng=116.4", nil, "")
	s.Equal(http.StatusBadGateway, w.Code)
}

func (s *HandlerTestSuite) TestPOIDetail() {
	s.places.details = &model.POIRichDetails{ID: "B0FFG", Name: "故宫博物院", Rating: "4.9"}

	w := s.do(http.MethodGet, "/api/pois/B0FFG", nil, "")
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	s.Equal("故宫博物院", s.decode(w)["name"])

	w = s.do(http.MethodGet, "/api/pois/UNKNOWN", nil, "")
	s.Equal(http.StatusNotFound, w.Code)
}

func (s *HandlerTestSuite) TestMatchPOI() {
	s.places.details = &model.POIRichDetails{ID: "B0FFG", Name: "故宫博物院"}

	w := s.do(http.MethodGet, "/api/pois/match?lat=39.9&lng=116.4&name="+url.QueryEscape("故宫博物院"), nil, "")
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	s.Equal("B0FFG", s.decode(w)["id"])

	w = s.do(http.MethodGet, "/api/pois/match?lat=39.9&lng=116.4&name="+url.QueryEscape("天坛"), nil, "")
	s.Equal(http.StatusNotFound, w.Code)

	w = s.do(http.MethodGet, "/api/pois/match?lat=39.9&lng=116.4", nil, "")
	s.Equal(http.StatusBadRequest, w.Code)
}

func (s *HandlerTestSuite) TestWalkingRoute() {
	req := gin.H{"start_lat": 39.916527, "start_lng": 116.397128, "end_lat": 39.917723, "end_lng": 116.410886}

	s.planner.result = &model.RouteResult{
		RouteData: model.RouteData{Distance: 1234, Duration: 900},
		Message:   "Route found: 1.2 km, 15 min",
	}
	w := s.do(http.MethodPost, "/api/route/walking", req, "")
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	s.Equal("Route found: 1.2 km, 15 min", s.decode(w)["message"])

	s.planner.err = route.ErrNoRoute
	w = s.do(http.MethodPost, "/api/route/walking", req, "")
	s.Equal(http.StatusNotFound, w.Code)
	s.Equal("No route found", s.decode(w)["error"])

	s.planner.err = errors.New("Route search failed: INVALID_USER_KEY")
	w = s.do(http.MethodPost, "/api/route/walking", req, "")
	s.Equal(http.StatusBadGateway, w.Code)
	s.Equal("Route search failed: INVALID_USER_KEY", s.decode(w)["error"])

	w = s.do(http.MethodPost, "/api/route/walking", gin.H{"start_lat": 39.9, "start_lng": 116.4}, "")
	s.Equal(http.StatusBadRequest, w.Code)

	w = s.do(http.MethodPost, "/api/route/walking", gin.H{"start_lat": 0, "start_lng": 0, "end_lat": 0, "end_lng": 181}, "")
	s.Equal(http.StatusBadRequest, w.Code)
}

func TestHandlerTestSuite(t *testing.T) {
	suite.Run(t, new(HandlerTestSuite))
}
