package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/code-zealots/cp-scoreboard/internal/config"
	"github.com/code-zealots/cp-scoreboard/internal/dataset"
	"github.com/code-zealots/cp-scoreboard/internal/leaderboard"
	"github.com/code-zealots/cp-scoreboard/internal/monitoring"
	"github.com/code-zealots/cp-scoreboard/internal/ratelimit"
	"github.com/code-zealots/cp-scoreboard/internal/scoring"
)

const fixtureSubmissions = `[
	{"handle": "alfa", "platform": "codeforces", "contest_id": "1700", "problem_id": "A", "rating": 2100, "division": 2, "solved": true},
	{"handle": "bravo", "platform": "atcoder", "contest_id": "abc300", "problem_id": "abc300_a", "rating": 900, "solved": true}
]`

const fixtureHandles = `[
	{"username": "alfa", "codeforces_handles": ["alfa"]},
	{"username": "bravo", "atcoder_handles": ["bravo"]}
]`

func testRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dir := t.TempDir()
	subs := filepath.Join(dir, "submissions.json")
	handles := filepath.Join(dir, "handles.json")
	require.NoError(t, os.WriteFile(subs, []byte(fixtureSubmissions), 0o644))
	require.NoError(t, os.WriteFile(handles, []byte(fixtureHandles), 0o644))

	cfg := config.Default()
	cfg.Dataset.SubmissionsPath = subs
	cfg.Dataset.HandlesPath = handles
	cfg.Leaderboard.Ruleset = "rating2022"

	appLogger := monitoring.NewLogger(slog.LevelError)
	appMetrics := monitoring.NewMetrics()

	store := dataset.NewStore(dataset.Config{SubmissionsPath: subs, HandlesPath: handles}, appLogger.Logger)
	_, err := store.Load(context.Background())
	require.NoError(t, err)

	rules, err := scoring.ByName(cfg.Leaderboard.Ruleset)
	require.NoError(t, err)

	service := leaderboard.NewService(store, rules, time.Minute, appMetrics, appLogger)

	redisClient, err := ratelimit.NewRedisClient("", "", 0)
	require.NoError(t, err)
	limiter := ratelimit.NewRateLimiter(redisClient, ratelimit.DefaultConfig(), appMetrics)

	return setupRouter(cfg, service, limiter, appMetrics, appLogger)
}

func doRequest(r *gin.Engine, method, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(method, path, nil)
	r.ServeHTTP(w, req)
	return w
}

func TestHealthEndpoint(t *testing.T) {
	r := testRouter(t)

	w := doRequest(r, "GET", "/health")
	assert.Equal(t, http.StatusOK, w.Code)

	var response map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, "ok", response["status"])
	assert.Equal(t, "rating2022", response["ruleset"])
	assert.Contains(t, response, "metrics")
}

func TestLeaderboardEndpoint(t *testing.T) {
	r := testRouter(t)

	w := doRequest(r, "GET", "/api/leaderboard")
	assert.Equal(t, http.StatusOK, w.Code)

	var response struct {
		Rows []struct {
			Rank     int    `json:"rank"`
			Username string `json:"username"`
		} `json:"rows"`
		Total   int    `json:"total"`
		Ruleset string `json:"ruleset"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))

	assert.Equal(t, "rating2022", response.Ruleset)
	assert.Equal(t, 2, response.Total)
	require.Len(t, response.Rows, 2)
	assert.Equal(t, "alfa", response.Rows[0].Username)
	assert.Equal(t, 1, response.Rows[0].Rank)
}

func TestLeaderboardEndpointLimit(t *testing.T) {
	r := testRouter(t)

	w := doRequest(r, "GET", "/api/leaderboard?limit=1")
	assert.Equal(t, http.StatusOK, w.Code)

	var response struct {
		Rows  []json.RawMessage `json:"rows"`
		Total int               `json:"total"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Len(t, response.Rows, 1)
	assert.Equal(t, 2, response.Total)
}

func TestLeaderboardEndpointBadLimit(t *testing.T) {
	r := testRouter(t)

	for _, path := range []string{"/api/leaderboard?limit=abc", "/api/leaderboard?limit=-1"} {
		w := doRequest(r, "GET", path)
		assert.Equal(t, http.StatusBadRequest, w.Code, "path %s", path)
	}
}

func TestUserPointsEndpoint(t *testing.T) {
	r := testRouter(t)

	w := doRequest(r, "GET", "/api/users/bravo/points")
	assert.Equal(t, http.StatusOK, w.Code)

	var response struct {
		Username  string `json:"username"`
		Rank      int    `json:"rank"`
		Breakdown struct {
			Atcoder float64 `json:"atcoder"`
			Total   float64 `json:"total"`
		} `json:"breakdown"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))

	assert.Equal(t, "bravo", response.Username)
	assert.Equal(t, 2, response.Rank)
	assert.InDelta(t, 1.0, response.Breakdown.Atcoder, 1e-9)
	assert.InDelta(t, 1.0, response.Breakdown.Total, 1e-9)
}

func TestUserPointsEndpointUnknownUser(t *testing.T) {
	r := testRouter(t)

	w := doRequest(r, "GET", "/api/users/nobody/points")
	assert.Equal(t, http.StatusOK, w.Code)

	var response struct {
		Rank      int `json:"rank"`
		Breakdown struct {
			Total float64 `json:"total"`
		} `json:"breakdown"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Zero(t, response.Rank)
	assert.Zero(t, response.Breakdown.Total)
}

func TestRulesetsEndpoint(t *testing.T) {
	r := testRouter(t)

	w := doRequest(r, "GET", "/api/rulesets")
	assert.Equal(t, http.StatusOK, w.Code)

	var response struct {
		Rulesets []string `json:"rulesets"`
		Active   string   `json:"active"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, "rating2022", response.Active)
	assert.Contains(t, response.Rulesets, "letters2024")
	assert.Contains(t, response.Rulesets, "rating2023")
}

func TestRefreshEndpoint(t *testing.T) {
	r := testRouter(t)

	w := doRequest(r, "POST", "/api/refresh")
	assert.Equal(t, http.StatusOK, w.Code)

	var response map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, "dataset refreshed", response["message"])
	assert.NotEmpty(t, response["snapshot_id"])
	assert.EqualValues(t, 2, response["submissions"])
}

func TestMetricsEndpoint(t *testing.T) {
	r := testRouter(t)

	// Make a request first so there is something to report.
	doRequest(r, "GET", "/health")

	w := doRequest(r, "GET", "/metrics")
	assert.Equal(t, http.StatusOK, w.Code)

	var response map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Contains(t, response, "total_requests")
	assert.Contains(t, response, "cache_hit_rate_percent")
}

func TestCacheStatsEndpoint(t *testing.T) {
	r := testRouter(t)

	doRequest(r, "GET", "/api/leaderboard")

	w := doRequest(r, "GET", "/cache/stats")
	assert.Equal(t, http.StatusOK, w.Code)

	var response map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.EqualValues(t, 1, response["total_items"])
}

func TestUnknownRoute(t *testing.T) {
	r := testRouter(t)

	w := doRequest(r, "GET", "/api/unknown")
	assert.Equal(t, http.StatusNotFound, w.Code)
}
