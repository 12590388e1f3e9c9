package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/anujitha615/WayFindersHub/internal/database"
	"github.com/anujitha615/WayFindersHub/internal/handler"
	"github.com/anujitha615/WayFindersHub/internal/provider/geocode"
	"github.com/anujitha615/WayFindersHub/internal/repository"
	"github.com/anujitha615/WayFindersHub/internal/service"
	"github.com/anujitha615/WayFindersHub/internal/session"
	"github.com/anujitha615/WayFindersHub/internal/stream"
)

func init() {
	gin.SetMode(gin.TestMode)
}

var places = map[string]session.Coordinate{
	"Fort Kochi":   {Lat: 9.9658, Lng: 76.2421, DisplayName: "Fort Kochi, Kochi, Kerala, India"},
	"Cherai Beach": {Lat: 10.1416, Lng: 76.1783, DisplayName: "Cherai Beach, Kochi, Kerala, India"},
}

type stubProvider struct{}

func (stubProvider) Geocode(_ context.Context, address string) (session.Coordinate, error) {
	c, ok := places[address]
	if !ok {
		return session.Coordinate{}, session.ErrNoMatch
	}
	return c, nil
}

func (stubProvider) Reverse(_ context.Context, lat, lng float64) (string, error) {
	if lat > 50 {
		return "", session.ErrNoMatch
	}
	return "Vypin, Kochi, Kerala, India", nil
}

func (stubProvider) Suggest(_ context.Context, query string, limit int) ([]geocode.Suggestion, error) {
	out := []geocode.Suggestion{}
	for _, c := range places {
		if strings.Contains(strings.ToLower(c.DisplayName), strings.ToLower(query)) && len(out) < limit {
			out = append(out, geocode.Suggestion{DisplayName: c.DisplayName, Lat: c.Lat, Lng: c.Lng})
		}
	}
	return out, nil
}

type stubRouter struct{}

func (stubRouter) Route(_ context.Context, from, to session.Coordinate) (session.RouteResult, error) {
	return session.RouteResult{
		DistanceMeters:  28000,
		DurationSeconds: 2700,
		Instructions:    []string{"Head north", "Arrive at your destination"},
		Path:            []session.Coordinate{from, to},
	}, nil
}

type testEnv struct {
	router  *gin.Engine
	hub     *stream.Hub
	planner *service.PlannerService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db, err := database.Open(database.Config{Path: ":memory:"})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })

	hub := stream.NewHub(nil)
	t.Cleanup(hub.Close)

	planner := service.NewPlannerService(service.PlannerConfig{
		Geocoder: stubProvider{},
		Router:   stubRouter{},
		Stream:   hub,
	})
	auth := service.NewAuthService(repository.NewUserRepository(db), "test-secret-0123456789", time.Hour)
	trips := service.NewSavedTripService(repository.NewSavedTripRepository(db), planner)

	router := SetupRouter(Handlers{
		Page:      handler.NewPageHandler(planner, trips),
		Stream:    handler.NewStreamHandler(hub, planner),
		Geocode:   handler.NewGeocodeHandler(stubProvider{}, nil),
		Auth:      handler.NewAuthHandler(auth),
		SavedTrip: handler.NewSavedTripHandler(trips),
		Tokens:    auth,
	})
	return &testEnv{router: router, hub: hub, planner: planner}
}

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func (e *testEnv) do(t *testing.T, method, path string, body interface{}, token string) (int, envelope) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)

	var env envelope
	if w.Body.Len() > 0 {
		if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
			t.Fatalf("%s %s: bad body %q: %v", method, path, w.Body.String(), err)
		}
	}
	return w.Code, env
}

func (e *testEnv) createPage(t *testing.T) string {
	t.Helper()
	code, env := e.do(t, http.MethodPost, "/api/v1/pages", nil, "")
	if code != http.StatusCreated {
		t.Fatalf("create page: status %d", code)
	}
	var data struct {
		PageID string `json:"page_id"`
	}
	if err := json.Unmarshal(env.Data, &data); err != nil || data.PageID == "" {
		t.Fatalf("create page: bad data %s", env.Data)
	}
	return data.PageID
}

func TestTripLifecycle(t *testing.T) {
	e := newTestEnv(t)
	page := "/api/v1/pages/" + e.createPage(t)

	if code, _ := e.do(t, http.MethodPost, page+"/start", nil, ""); code != http.StatusConflict {
		t.Errorf("start before plan: status %d, want 409", code)
	}

	code, env := e.do(t, http.MethodPost, page+"/plan", map[string]string{"start": "Fort Kochi", "end": "Cherai Beach"}, "")
	if code != http.StatusOK {
		t.Fatalf("plan: status %d (%s)", code, env.Message)
	}
	var route session.PlannedRoute
	if err := json.Unmarshal(env.Data, &route); err != nil {
		t.Fatal(err)
	}
	if route.DistanceMeters == nil || *route.DistanceMeters != 28000 || route.StartName != "Fort Kochi, Kochi, Kerala, India" {
		t.Errorf("unexpected route %+v", route)
	}

	code, env = e.do(t, http.MethodGet, page+"/trip-name", nil, "")
	if code != http.StatusOK || !strings.Contains(string(env.Data), "Fort Kochi to Cherai Beach") {
		t.Errorf("trip-name: status %d data %s", code, env.Data)
	}

	code, env = e.do(t, http.MethodPost, page+"/start", nil, "")
	if code != http.StatusOK || !strings.Contains(string(env.Data), "TRP-") {
		t.Fatalf("start: status %d data %s", code, env.Data)
	}

	code, _ = e.do(t, http.MethodPost, page+"/positions", map[string]float64{"lat": 10.1416, "lng": 76.1783}, "")
	if code != http.StatusAccepted {
		t.Errorf("positions: status %d", code)
	}
	code, _ = e.do(t, http.MethodPost, page+"/positions", map[string]float64{"lat": 123, "lng": 76}, "")
	if code != http.StatusBadRequest {
		t.Errorf("invalid position: status %d, want 400", code)
	}

	code, env = e.do(t, http.MethodGet, page+"/session", nil, "")
	if code != http.StatusOK {
		t.Fatalf("session: status %d", code)
	}
	var state struct {
		View              session.View `json:"view"`
		NeedsConfirmation bool         `json:"needs_confirmation"`
	}
	if err := json.Unmarshal(env.Data, &state); err != nil {
		t.Fatal(err)
	}
	if state.View.Session.Status != session.StatusActive || !state.View.Tracking || !state.NeedsConfirmation {
		t.Errorf("unexpected session state %+v", state)
	}

	if code, _ := e.do(t, http.MethodPost, page+"/clear", nil, ""); code != http.StatusConflict {
		t.Errorf("clear without confirmation: status %d, want 409", code)
	}
	if code, _ := e.do(t, http.MethodPost, page+"/clear?confirm=true", nil, ""); code != http.StatusOK {
		t.Errorf("confirmed clear: status %d", code)
	}
	// nothing left to discard
	if code, _ := e.do(t, http.MethodPost, page+"/clear", nil, ""); code != http.StatusOK {
		t.Errorf("clear of an idle page: status %d", code)
	}

	if code, _ := e.do(t, http.MethodDelete, page, nil, ""); code != http.StatusOK {
		t.Errorf("close page: status %d", code)
	}
	if code, _ := e.do(t, http.MethodGet, page+"/session", nil, ""); code != http.StatusNotFound {
		t.Errorf("closed page: status %d, want 404", code)
	}
}

func TestPlanErrors(t *testing.T) {
	e := newTestEnv(t)
	page := "/api/v1/pages/" + e.createPage(t)

	cases := []struct {
		name       string
		path       string
		start, end string
		want       int
	}{
		{"empty address", page, " ", "Cherai Beach", http.StatusBadRequest},
		{"unknown destination", page, "Fort Kochi", "Atlantis", http.StatusUnprocessableEntity},
		{"unknown page", "/api/v1/pages/missing", "Fort Kochi", "Cherai Beach", http.StatusNotFound},
	}
	for _, tc := range cases {
		code, _ := e.do(t, http.MethodPost, tc.path+"/plan", map[string]string{"start": tc.start, "end": tc.end}, "")
		if code != tc.want {
			t.Errorf("%s: status %d, want %d", tc.name, code, tc.want)
		}
	}
}

func TestSavedTrips(t *testing.T) {
	e := newTestEnv(t)
	pageID := e.createPage(t)
	if _, err := e.planner.Plan(context.Background(), pageID, "Fort Kochi", "Cherai Beach"); err != nil {
		t.Fatal(err)
	}

	register := map[string]string{
		"email":            "anu@example.com",
		"full_name":        "Anu",
		"password":         "secret-pass",
		"confirm_password": "other-pass",
	}
	if code, _ := e.do(t, http.MethodPost, "/api/v1/auth/register", register, ""); code != http.StatusBadRequest {
		t.Errorf("mismatched passwords: status %d, want 400", code)
	}
	register["confirm_password"] = "secret-pass"
	if code, _ := e.do(t, http.MethodPost, "/api/v1/auth/register", register, ""); code != http.StatusCreated {
		t.Fatalf("register: status %d", code)
	}
	if code, _ := e.do(t, http.MethodPost, "/api/v1/auth/register", register, ""); code != http.StatusConflict {
		t.Errorf("duplicate email: status %d, want 409", code)
	}

	login := map[string]string{"email": "anu@example.com", "password": "wrong-pass"}
	if code, _ := e.do(t, http.MethodPost, "/api/v1/auth/login", login, ""); code != http.StatusUnauthorized {
		t.Errorf("wrong password: status %d, want 401", code)
	}
	login["password"] = "secret-pass"
	code, env := e.do(t, http.MethodPost, "/api/v1/auth/login", login, "")
	if code != http.StatusOK {
		t.Fatalf("login: status %d", code)
	}
	var tokens struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(env.Data, &tokens); err != nil || tokens.Token == "" {
		t.Fatalf("login: bad data %s", env.Data)
	}

	save := map[string]interface{}{"page_id": pageID, "name": "Beach day", "is_favorite": true}
	if code, _ := e.do(t, http.MethodPost, "/api/v1/trips/saved", save, ""); code != http.StatusUnauthorized {
		t.Errorf("save without login: status %d, want 401", code)
	}
	code, env = e.do(t, http.MethodPost, "/api/v1/trips/saved", save, tokens.Token)
	if code != http.StatusCreated {
		t.Fatalf("save: status %d (%s)", code, env.Message)
	}
	var saved struct {
		ID           int64  `json:"id"`
		DistanceText string `json:"distance_text"`
		DurationText string `json:"duration_text"`
	}
	if err := json.Unmarshal(env.Data, &saved); err != nil {
		t.Fatal(err)
	}
	if saved.DistanceText != "28.0 km" || saved.DurationText != "45 min" {
		t.Errorf("unexpected saved trip %s", env.Data)
	}

	if code, _ := e.do(t, http.MethodPost, "/api/v1/trips/saved", save, tokens.Token); code != http.StatusConflict {
		t.Errorf("duplicate name: status %d, want 409", code)
	}
	save["name"] = ""
	if code, _ := e.do(t, http.MethodPost, "/api/v1/trips/saved", save, tokens.Token); code != http.StatusBadRequest {
		t.Errorf("empty name: status %d, want 400", code)
	}

	code, env = e.do(t, http.MethodGet, "/api/v1/trips/saved?favorites=true", nil, tokens.Token)
	if code != http.StatusOK || !strings.Contains(string(env.Data), `"total":1`) {
		t.Errorf("list: status %d data %s", code, env.Data)
	}

	item := "/api/v1/trips/saved/" + jsonInt(saved.ID)
	if code, _ := e.do(t, http.MethodDelete, item, nil, tokens.Token); code != http.StatusOK {
		t.Errorf("delete: status %d", code)
	}
	if code, _ := e.do(t, http.MethodGet, item, nil, tokens.Token); code != http.StatusNotFound {
		t.Errorf("get deleted: status %d, want 404", code)
	}
}

func jsonInt(v int64) string {
	b, _ := json.Marshal(v)
	return string(b)
}

func TestGeocodeEndpoints(t *testing.T) {
	e := newTestEnv(t)

	code, env := e.do(t, http.MethodGet, "/api/v1/geocode/suggest?q=Ko", nil, "")
	if code != http.StatusOK || !strings.Contains(string(env.Data), `"suggestions":[]`) {
		t.Errorf("short query: status %d data %s", code, env.Data)
	}
	code, env = e.do(t, http.MethodGet, "/api/v1/geocode/suggest?q=cherai", nil, "")
	if code != http.StatusOK || !strings.Contains(string(env.Data), "Cherai Beach, Kochi") {
		t.Errorf("suggest: status %d data %s", code, env.Data)
	}

	code, env = e.do(t, http.MethodGet, "/api/v1/geocode/reverse?lat=10.0&lng=76.2", nil, "")
	if code != http.StatusOK || !strings.Contains(string(env.Data), "Vypin") {
		t.Errorf("reverse: status %d data %s", code, env.Data)
	}
	code, env = e.do(t, http.MethodGet, "/api/v1/geocode/reverse?lat=60.5&lng=10.25", nil, "")
	if code != http.StatusOK || !strings.Contains(string(env.Data), "Lat: 60.5000, Lng: 10.2500") {
		t.Errorf("reverse fallback: status %d data %s", code, env.Data)
	}
	if code, _ := e.do(t, http.MethodGet, "/api/v1/geocode/reverse?lat=x", nil, ""); code != http.StatusBadRequest {
		t.Errorf("bad coordinates: status %d, want 400", code)
	}
}

func TestStreamDeliversRenderEvents(t *testing.T) {
	e := newTestEnv(t)
	pageID := e.createPage(t)

	srv := httptest.NewServer(e.router)
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/v1/pages/" + pageID + "/stream"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial error: %v", err)
	}
	defer conn.Close()

	deadline := time.Now().Add(2 * time.Second)
	for e.hub.Subscribers(pageID) == 0 {
		if time.Now().After(deadline) {
			t.Fatal("stream client never registered")
		}
		time.Sleep(5 * time.Millisecond)
	}

	if _, err := e.planner.Plan(context.Background(), pageID, "Fort Kochi", "Cherai Beach"); err != nil {
		t.Fatal(err)
	}

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var seen []string
	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			t.Fatalf("read error after %v: %v", seen, err)
		}
		var ev struct {
			Type string `json:"type"`
		}
		if err := json.Unmarshal(msg, &ev); err != nil {
			t.Fatal(err)
		}
		seen = append(seen, ev.Type)
		if ev.Type == stream.EventRoute {
			break
		}
	}
	if seen[0] != stream.EventRouteCleared {
		t.Errorf("expected the old route to be cleared first, got %v", seen)
	}

	_, resp, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/api/v1/pages/missing/stream", nil)
	if err == nil {
		t.Fatal("expected the dial to an unknown page to fail")
	}
	if resp == nil || resp.StatusCode != http.StatusNotFound {
		t.Errorf("unknown page: expected 404, got %v", resp)
	}
}
