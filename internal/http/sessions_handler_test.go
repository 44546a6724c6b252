package http_test

import (
	"encoding/json"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pokerlog/internal/testsupport"
)

func sessionPayload(overrides map[string]any) map[string]any {
	p := map[string]any{
		"gameType":     "No Limit Hold'em",
		"blinds":       "1/2",
		"location":     "Bellagio",
		"locationType": "casino",
		"buyIn":        100,
		"endAmount":    150,
		"duration":     3.5,
		"notes":        "ran good",
		"timestamp":    "2024-01-15",
	}
	for k, v := range overrides {
		p[k] = v
	}
	return p
}

func TestSessionLifecycle(t *testing.T) {
	testsupport.UseTestConfig(t)
	db := testsupport.SetupTestDB(t)
	app := testsupport.CreateTestApp(t, db)
	user := testsupport.CreateTestUser(t, db, "grinder@example.com", "password123")
	token := testsupport.IssueTestToken(t, user)

	// winnings sent by the client are ignored
	status, created := testsupport.DoJSON(t, app, http.MethodPost, "/api/sessions", token,
		sessionPayload(map[string]any{"winnings": 9999}))
	require.Equal(t, http.StatusCreated, status)
	assert.Equal(t, "50", created["winnings"])
	assert.Equal(t, "casino", created["location_type"])
	assert.Equal(t, float64(user.ID), created["user_id"])

	ts, err := time.Parse(time.RFC3339, created["timestamp"].(string))
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC), ts.UTC())

	id := int(created["id"].(float64))
	path := fmt.Sprintf("/api/sessions/%d", id)

	status, shown := testsupport.DoJSON(t, app, http.MethodGet, path, token, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Bellagio", shown["location"])

	status, updated := testsupport.DoJSON(t, app, http.MethodPost, path, token,
		sessionPayload(map[string]any{"endAmount": 40, "locationType": "home", "location": "Mike's place"}))
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "-60", updated["winnings"])
	assert.Equal(t, "home", updated["location_type"])

	// PUT is accepted as well
	status, updated = testsupport.DoJSON(t, app, http.MethodPut, path, token,
		sessionPayload(map[string]any{"endAmount": 70, "locationType": "home"}))
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "-30", updated["winnings"])

	status, raw := testsupport.DoRequest(t, app, http.MethodGet, "/api/sessions", token, nil)
	require.Equal(t, http.StatusOK, status)
	var list []map[string]any
	require.NoError(t, json.Unmarshal(raw, &list))
	require.Len(t, list, 1)
	assert.Equal(t, "-30", list[0]["winnings"])

	status, deleted := testsupport.DoJSON(t, app, http.MethodDelete, path, token, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Session deleted successfully", deleted["message"])

	status, body := testsupport.DoJSON(t, app, http.MethodGet, path, token, nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "Session not found", body["error"])
}

func TestSessionTimezone(t *testing.T) {
	testsupport.UseTestConfig(t)
	db := testsupport.SetupTestDB(t)
	app := testsupport.CreateTestApp(t, db)
	user := testsupport.CreateTestUser(t, db, "tz@example.com", "password123")
	token := testsupport.IssueTestToken(t, user)

	status, created := testsupport.DoJSON(t, app, http.MethodPost, "/api/sessions?tz=America/New_York", token, sessionPayload(nil))
	require.Equal(t, http.StatusCreated, status)

	ts, err := time.Parse(time.RFC3339, created["timestamp"].(string))
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 1, 15, 17, 0, 0, 0, time.UTC), ts.UTC(), "midday in New York")

	status, body := testsupport.DoJSON(t, app, http.MethodPost, "/api/sessions?tz=Mars/Olympus", token, sessionPayload(nil))
	assert.Equal(t, http.StatusBadRequest, status)
	assert.NotEmpty(t, body["error"])
}

func TestSessionValidation(t *testing.T) {
	testsupport.UseTestConfig(t)
	db := testsupport.SetupTestDB(t)
	app := testsupport.CreateTestApp(t, db)
	user := testsupport.CreateTestUser(t, db, "strict@example.com", "password123")
	token := testsupport.IssueTestToken(t, user)

	status, body := testsupport.DoJSON(t, app, http.MethodPost, "/api/sessions", token,
		sessionPayload(map[string]any{"timestamp": ""}))
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "timestamp (YYYY-MM-DD or ISO) is required", body["error"])

	for _, override := range []map[string]any{
		{"gameType": ""},
		{"buyIn": -5},
		{"duration": -1},
		{"locationType": "boat"},
		{"timestamp": "last tuesday"},
	} {
		status, _ := testsupport.DoJSON(t, app, http.MethodPost, "/api/sessions", token, sessionPayload(override))
		assert.Equalf(t, http.StatusBadRequest, status, "override %v", override)
	}
}

func TestSessionsAreScopedToOwner(t *testing.T) {
	testsupport.UseTestConfig(t)
	db := testsupport.SetupTestDB(t)
	app := testsupport.CreateTestApp(t, db)

	owner := testsupport.CreateTestUser(t, db, "owner@example.com", "password123")
	other := testsupport.CreateTestUser(t, db, "other@example.com", "password123")
	s := testsupport.CreateTestSession(t, db, owner.ID, testsupport.SessionFixture{BuyIn: 100, EndAmount: 200, Duration: 2, Timestamp: "2024-02-01"})

	otherToken := testsupport.IssueTestToken(t, other)
	path := fmt.Sprintf("/api/sessions/%d", s.ID)

	status, _ := testsupport.DoJSON(t, app, http.MethodGet, path, otherToken, nil)
	assert.Equal(t, http.StatusNotFound, status)

	status, _ = testsupport.DoJSON(t, app, http.MethodPost, path, otherToken, sessionPayload(nil))
	assert.Equal(t, http.StatusNotFound, status)

	status, _ = testsupport.DoJSON(t, app, http.MethodDelete, path, otherToken, nil)
	assert.Equal(t, http.StatusNotFound, status)

	status, raw := testsupport.DoRequest(t, app, http.MethodGet, "/api/sessions", otherToken, nil)
	require.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, "[]", string(raw))

	status, _ = testsupport.DoJSON(t, app, http.MethodGet, "/api/sessions/abc", otherToken, nil)
	assert.Equal(t, http.StatusNotFound, status)
}
