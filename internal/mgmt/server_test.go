package mgmt

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/planwise/sprintbot/internal/health"
	"github.com/planwise/sprintbot/internal/metrics"
	"github.com/planwise/sprintbot/internal/store"
)

type recordingInvalidator struct {
	dropped []int64
}

func (r *recordingInvalidator) Invalidate(telegramID int64) bool {
	r.dropped = append(r.dropped, telegramID)
	return true
}

type serverFixture struct {
	server      *Server
	invalidator *recordingInvalidator
}

func newServerFixture(t *testing.T, apiKey string) *serverFixture {
	t.Helper()
	logger := zerolog.Nop()

	st, err := store.New(":memory:", logger)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	inv := &recordingInvalidator{}
	srv := NewServer(ServerConfig{ListenAddr: ":0", APIKey: apiKey},
		st, health.NewChecker(logger), metrics.New(), inv, logger)
	return &serverFixture{server: srv, invalidator: inv}
}

func (f *serverFixture) request(t *testing.T, method, path string, body any, apiKey string) *http.Response {
	t.Helper()
	var buf io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		buf = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if apiKey != "" {
		req.Header.Set("X-API-Key", apiKey)
	}
	resp, err := f.server.App().Test(req, -1)
	require.NoError(t, err)
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var out T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	resp.Body.Close()
	return out
}

func TestServer_Probes(t *testing.T) {
	f := newServerFixture(t, "")

	resp := f.request(t, "GET", "/healthz", nil, "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = f.request(t, "GET", "/readyz", nil, "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = f.request(t, "GET", "/metrics", nil, "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestServer_APIKeyEnforced(t *testing.T) {
	f := newServerFixture(t, "sekrit")

	resp := f.request(t, "GET", "/api/tasks", nil, "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = f.request(t, "GET", "/api/tasks", nil, "wrong")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = f.request(t, "GET", "/api/tasks", nil, "sekrit")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	// Probes stay open regardless.
	resp = f.request(t, "GET", "/healthz", nil, "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestServer_TaskLifecycle(t *testing.T) {
	f := newServerFixture(t, "")

	resp := f.request(t, "POST", "/api/tasks", taskDTO{
		Description:    "Fix the login timeout",
		HoursEstimated: 2,
		StoryPoints:    3,
		AssignedTo:     1,
		FinishesAt:     "2026-09-15",
	}, "")
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	created := decode[taskDTO](t, resp)
	assert.NotZero(t, created.ID)
	assert.Equal(t, "TODO", created.State)
	assert.Equal(t, "2026-09-15", created.FinishesAt)

	resp = f.request(t, "GET", "/api/tasks/1", nil, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	got := decode[taskDTO](t, resp)
	assert.Equal(t, "Fix the login timeout", got.Description)

	created.State = "DONE"
	created.HoursReal = 4
	resp = f.request(t, "PUT", "/api/tasks/1", created, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	updated := decode[taskDTO](t, resp)
	assert.Equal(t, "DONE", updated.State)

	resp = f.request(t, "GET", "/api/tasks", nil, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	list := decode[[]taskDTO](t, resp)
	assert.Len(t, list, 1)

	resp = f.request(t, "DELETE", "/api/tasks/1", nil, "")
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = f.request(t, "GET", "/api/tasks/1", nil, "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestServer_TaskValidation(t *testing.T) {
	f := newServerFixture(t, "")

	resp := f.request(t, "POST", "/api/tasks", taskDTO{Description: ""}, "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = f.request(t, "POST", "/api/tasks", taskDTO{Description: "x", State: "WONTFIX"}, "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = f.request(t, "POST", "/api/tasks", taskDTO{Description: "x", FinishesAt: "next week"}, "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = f.request(t, "GET", "/api/tasks/abc", nil, "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestServer_UserLifecycleInvalidatesCache(t *testing.T) {
	f := newServerFixture(t, "")

	resp := f.request(t, "POST", "/api/users", userDTO{TelegramID: 42, Name: "ada", Role: "developer"}, "")
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	created := decode[userDTO](t, resp)
	assert.NotZero(t, created.ID)
	assert.Equal(t, []int64{42}, f.invalidator.dropped)

	// Relinking drops both the old and the new Telegram id.
	created.TelegramID = 43
	resp = f.request(t, "PUT", "/api/users/1", created, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, []int64{42, 42, 43}, f.invalidator.dropped)

	resp = f.request(t, "DELETE", "/api/users/1", nil, "")
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Equal(t, []int64{42, 42, 43, 43}, f.invalidator.dropped)
}

func TestServer_UserNotFound(t *testing.T) {
	f := newServerFixture(t, "")

	resp := f.request(t, "GET", "/api/users/404", nil, "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = f.request(t, "PUT", "/api/users/404", userDTO{Name: "ghost"}, "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestServer_Sprints(t *testing.T) {
	f := newServerFixture(t, "")

	resp := f.request(t, "POST", "/api/sprints", sprintDTO{
		Name:     "2026.Q3.S5",
		StartsAt: "2026-08-31",
		EndsAt:   "2026-09-11",
	}, "")
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	created := decode[sprintDTO](t, resp)
	assert.NotZero(t, created.ID)

	resp = f.request(t, "GET", "/api/sprints", nil, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	list := decode[[]sprintDTO](t, resp)
	assert.Len(t, list, 1)

	resp = f.request(t, "POST", "/api/sprints", sprintDTO{Name: "bad dates", StartsAt: "soon"}, "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
