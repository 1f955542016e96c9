package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ronitsabhaya75/Habit-Quest-sub001/internal/logger"
	"github.com/Ronitsabhaya75/Habit-Quest-sub001/internal/storage"
	"github.com/Ronitsabhaya75/Habit-Quest-sub001/internal/storage/memory"
	"github.com/Ronitsabhaya75/Habit-Quest-sub001/middleware"
	"github.com/Ronitsabhaya75/Habit-Quest-sub001/services"
)

type testAPI struct {
	t       *testing.T
	handler http.Handler
	store   *memory.Store
	hub     *services.ProgressHub
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	st := memory.New()
	require.NoError(t, storage.Seed(context.Background(), st))

	log := logger.Discard()
	reg := prometheus.NewRegistry()
	metrics := services.NewMetrics(reg)

	progress := services.NewProgressionService(st, time.UTC, log)
	progress.SetMetrics(metrics)
	hub := services.NewProgressHub(log)
	progress.SetPublisher(hub)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go hub.Run(ctx)

	tasks := services.NewTaskService(st, progress, log)
	tasks.SetMetrics(metrics)

	handler := NewRouter(Dependencies{
		Store:       st,
		Auth:        services.NewAuthService(st, "router-test-secret", time.Hour, log),
		Users:       services.NewUserService(st, progress, log),
		Tasks:       tasks,
		Habits:      services.NewHabitService(st, progress),
		Games:       services.NewGameService(st, progress),
		Shop:        services.NewStoreService(st, log),
		Export:      services.NewExportService(st, time.UTC, log),
		Hub:         hub,
		RateLimiter: middleware.NewRateLimiter(1000, 1000),
		Gatherer:    reg,
		Logger:      log,
		MetricsUser: "prom",
		MetricsPass: "scrape",
	})
	return &testAPI{t: t, handler: handler, store: st, hub: hub}
}

type apiResponse struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
}

func (a *testAPI) do(method, path, token string, body any) (*httptest.ResponseRecorder, apiResponse) {
	a.t.Helper()
	var buf bytes.Buffer
	switch b := body.(type) {
	case nil:
	case string:
		buf.WriteString(b)
	default:
		require.NoError(a.t, json.NewEncoder(&buf).Encode(b))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	a.handler.ServeHTTP(rec, req)

	var resp apiResponse
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		require.NoError(a.t, json.Unmarshal(rec.Body.Bytes(), &resp), rec.Body.String())
	}
	return rec, resp
}

func (a *testAPI) register(username string) (token, userID string) {
	a.t.Helper()
	rec, resp := a.do(http.MethodPost, "/api/v1/auth/register", "", map[string]string{
		"username": username,
		"email":    username + "@example.com",
		"password": "secret1",
	})
	require.Equal(a.t, http.StatusCreated, rec.Code, rec.Body.String())

	var auth struct {
		Token string `json:"token"`
		User  struct {
			ID string `json:"id"`
		} `json:"user"`
	}
	require.NoError(a.t, json.Unmarshal(resp.Data, &auth))
	return auth.Token, auth.User.ID
}

func decode[T any](t *testing.T, raw json.RawMessage) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(raw, &v))
	return v
}

func TestHealth(t *testing.T) {
	api := newTestAPI(t)
	rec, resp := api.do(http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, resp.Success)
}

func TestRegisterSetsCookieAndRejectsDuplicates(t *testing.T) {
	api := newTestAPI(t)

	rec, _ := api.do(http.MethodPost, "/api/v1/auth/register", "", map[string]string{
		"username": "hero", "email": "hero@example.com", "password": "secret1",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, middleware.TokenCookie, cookies[0].Name)
	assert.True(t, cookies[0].HttpOnly)

	rec, resp := api.do(http.MethodPost, "/api/v1/auth/register", "", map[string]string{
		"username": "hero", "email": "other@example.com", "password": "secret1",
	})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.False(t, resp.Success)
	assert.Equal(t, "Username already taken", resp.Message)

	rec, resp = api.do(http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"email": "hero@example.com", "password": "wrong-password",
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Unauthorized", resp.Message)
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	api := newTestAPI(t)

	rec, resp := api.do(http.MethodGet, "/api/v1/users/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Unauthorized", resp.Message)

	rec, _ = api.do(http.MethodGet, "/api/v1/users/me", "not-a-token", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec, _ = api.do(http.MethodGet, "/api/v1/badges", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestTaskCompletionFlow(t *testing.T) {
	api := newTestAPI(t)
	token, _ := api.register("runner")

	rec, resp := api.do(http.MethodPost, "/api/v1/tasks", token, map[string]any{
		"title":       "Morning run",
		"isRecurring": true,
		"frequency":   "daily",
		"dueDate":     "2023-05-15",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode[map[string]any](t, resp.Data)
	id := created["id"].(string)
	assert.Equal(t, float64(20), created["xpReward"])

	rec, resp = api.do(http.MethodPost, "/api/v1/tasks/"+id+"/complete", token, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	completion := decode[struct {
		Task     map[string]any `json:"task"`
		Progress struct {
			XP        int   `json:"xp"`
			Level     int   `json:"level"`
			Streak    int   `json:"streak"`
			XPAwarded int   `json:"xpAwarded"`
			LevelUp   bool  `json:"levelUp"`
			Unlocked  []any `json:"unlocked"`
		} `json:"progress"`
		NextTask map[string]any `json:"nextTask"`
	}](t, resp.Data)
	assert.Equal(t, true, completion.Task["completed"])
	assert.Equal(t, 20, completion.Progress.XP)
	assert.Equal(t, 1, completion.Progress.Streak)
	assert.NotNil(t, completion.Progress.Unlocked)
	require.NotNil(t, completion.NextTask)
	assert.Equal(t, "2023-05-16", completion.NextTask["dueDateString"])

	rec, resp = api.do(http.MethodPost, "/api/v1/tasks/"+id+"/complete", token, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Task already completed", resp.Message)

	rec, resp = api.do(http.MethodGet, "/api/v1/tasks?completed=false", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]any](t, resp.Data), 1)

	rec, _ = api.do(http.MethodGet, "/api/v1/tasks?completed=maybe", token, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestTaskIsolationBetweenUsers(t *testing.T) {
	api := newTestAPI(t)
	owner, _ := api.register("owner")
	intruder, _ := api.register("intruder")

	_, resp := api.do(http.MethodPost, "/api/v1/tasks", owner, map[string]any{"title": "Private"})
	id := decode[map[string]any](t, resp.Data)["id"].(string)

	rec, _ := api.do(http.MethodGet, "/api/v1/tasks/"+id, intruder, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec, _ = api.do(http.MethodDelete, "/api/v1/tasks/"+id, intruder, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec, _ = api.do(http.MethodPost, "/api/v1/tasks/"+id+"/complete", intruder, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUpdateRejectsUnknownFields(t *testing.T) {
	api := newTestAPI(t)
	token, _ := api.register("editor")

	rec, resp := api.do(http.MethodPatch, "/api/v1/users/me", token, map[string]any{"xp": 99999})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, resp.Message, "unknown field")

	rec, resp = api.do(http.MethodPatch, "/api/v1/users/me", token, map[string]any{"username": "renamed"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "renamed", decode[map[string]any](t, resp.Data)["username"])

	_, resp = api.do(http.MethodPost, "/api/v1/tasks", token, map[string]any{"title": "Edit me"})
	id := decode[map[string]any](t, resp.Data)["id"].(string)
	rec, _ = api.do(http.MethodPatch, "/api/v1/tasks/"+id, token, map[string]any{"userId": "someone-else"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = api.do(http.MethodPatch, "/api/v1/tasks/"+id, token, "{not json")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGameScoreIsCapped(t *testing.T) {
	api := newTestAPI(t)
	token, _ := api.register("gamer")

	rec, resp := api.do(http.MethodPost, "/api/v1/games/scores", token, map[string]any{"game": "memory", "score": 12, "xp": 500})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	result := decode[struct {
		Score struct {
			XPAwarded int `json:"xpAwarded"`
		} `json:"score"`
	}](t, resp.Data)
	assert.Equal(t, 10, result.Score.XPAwarded)
}

func TestPurchaseErrors(t *testing.T) {
	api := newTestAPI(t)
	token, _ := api.register("shopper")

	rec, resp := api.do(http.MethodPost, "/api/v1/store/purchase", token, map[string]any{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Badge ID is required", resp.Message)

	rec, _ = api.do(http.MethodPost, "/api/v1/store/purchase", token, map[string]any{"badgeId": "nope"})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	_, resp = api.do(http.MethodGet, "/api/v1/badges", "", nil)
	badges := decode[[]map[string]any](t, resp.Data)
	require.NotEmpty(t, badges)

	rec, resp = api.do(http.MethodPost, "/api/v1/store/purchase", token, map[string]any{"badgeId": badges[0]["id"]})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, resp.Message, "Not enough XP")
}

func TestAwardXPAndStats(t *testing.T) {
	api := newTestAPI(t)
	token, _ := api.register("grinder")

	rec, _ := api.do(http.MethodPost, "/api/v1/users/me/xp", token, map[string]any{"amount": 150, "source": "bonus"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec, _ = api.do(http.MethodPost, "/api/v1/users/me/xp", token, map[string]any{"amount": -5, "source": "bonus"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, resp := api.do(http.MethodGet, "/api/v1/users/me/stats", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	stats := decode[map[string]any](t, resp.Data)
	assert.Equal(t, float64(160), stats["xp"])
	assert.Equal(t, float64(2), stats["level"])
	assert.Equal(t, float64(1), stats["achievementsUnlocked"])

	rec, resp = api.do(http.MethodGet, "/api/v1/leaderboard?limit=5", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	board := decode[map[string]any](t, resp.Data)
	assert.Equal(t, float64(1), board["totalUsers"])

	rec, _ = api.do(http.MethodGet, "/api/v1/leaderboard?limit=abc", token, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLogoutClearsCookie(t *testing.T) {
	api := newTestAPI(t)
	token, _ := api.register("leaver")

	rec, resp := api.do(http.MethodPost, "/api/v1/auth/logout", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Logged out", resp.Message)
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "", cookies[0].Value)
	assert.True(t, cookies[0].MaxAge < 0)
}

func TestExportTasks(t *testing.T) {
	api := newTestAPI(t)
	token, _ := api.register("exporter")
	api.do(http.MethodPost, "/api/v1/tasks", token, map[string]any{"title": "Export me"})

	rec, _ := api.do(http.MethodGet, "/api/v1/tasks/export", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, xlsxContentType, rec.Header().Get("Content-Type"))
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("PK")), "xlsx is a zip archive")
}

func TestMetricsRequireBasicAuth(t *testing.T) {
	api := newTestAPI(t)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	api.handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req.SetBasicAuth("prom", "scrape")
	rec = httptest.NewRecorder()
	api.handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestUnknownRoute(t *testing.T) {
	api := newTestAPI(t)
	rec, resp := api.do(http.MethodGet, "/api/v1/nope", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.False(t, resp.Success)
}

func TestProgressWebsocket(t *testing.T) {
	api := newTestAPI(t)
	token, userID := api.register("watcher")

	srv := httptest.NewServer(api.handler)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/v1/ws/progress?token=" + token
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()
	require.Eventually(t, func() bool { return api.hub.Connected(userID) == 1 }, time.Second, 10*time.Millisecond)

	rec, _ := api.do(http.MethodPost, "/api/v1/users/me/xp", token, map[string]any{"amount": 5, "source": "bonus"})
	require.Equal(t, http.StatusOK, rec.Code)

	var event services.ProgressEvent
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	require.NoError(t, conn.ReadJSON(&event))
	assert.Equal(t, "progress", event.Type)
	assert.Equal(t, 5, event.XP)
	assert.Equal(t, "bonus", event.Source)

	_, _, err = websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/api/v1/ws/progress", nil)
	assert.Error(t, err, "upgrade without a token is refused")
}
