package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/and161185/eco-actions/internal/model"
	"github.com/and161185/eco-actions/internal/repository/memory"
	"github.com/and161185/eco-actions/internal/service"
)

var testOrigins = []string{"http://localhost:3000", "http://127.0.0.1:3000"}

func newTestServer(t *testing.T, seed ...model.Action) (*httptest.Server, *memory.Store) {
	t.Helper()
	st := memory.New(seed...)
	svc := service.NewActionService(st, zaptest.NewLogger(t), false)
	return newTestServerWith(t, svc), st
}

func newTestServerWith(t *testing.T, svc service.ActionService) *httptest.Server {
	t.Helper()
	s := New(svc, zaptest.NewLogger(t), Options{AllowedOrigins: testOrigins, MaxBodyBytes: 1024, Version: "1.0.0"})
	s.now = func() time.Time { return time.Date(2024, 1, 10, 8, 0, 0, 0, time.UTC) }
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func do(t *testing.T, method, url, body string) (*http.Response, map[string]any) {
	t.Helper()
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, url, rd)
	require.NoError(t, err)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var out map[string]any
	if len(raw) > 0 && raw[0] == '{' {
		require.NoError(t, json.Unmarshal(raw, &out))
	}
	return resp, out
}

func TestCreate_EmptyStore(t *testing.T) {
	ts, st := newTestServer(t)

	resp, body := do(t, http.MethodPost, ts.URL+"/api/actions", `{"action":"Biked to work","date":"2024-01-10","points":10}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	require.Equal(t, map[string]any{"id": 1.0, "action": "Biked to work", "date": "2024-01-10", "points": 10.0}, body)
	require.Len(t, st.Snapshot(), 1)
}

func TestCreate_NextID(t *testing.T) {
	ts, _ := newTestServer(t, model.Action{ID: 1, Action: "A", Date: "d", Points: 1})

	resp, body := do(t, http.MethodPost, ts.URL+"/api/actions", `{"action":"Recycled","date":"2024-01-11","points":5}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	require.Equal(t, 2.0, body["id"])
}

func TestCreate_MissingFields(t *testing.T) {
	ts, st := newTestServer(t)

	resp, body := do(t, http.MethodPost, ts.URL+"/api/actions", `{"action":"","points":3}`)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	require.Equal(t, "Missing required fields", body["error"])
	require.Equal(t, []any{"action", "date", "points"}, body["required"])
	require.Equal(t, map[string]any{"action": false, "date": false, "points": true}, body["received"])
	require.Zero(t, st.Writes)
}

func TestCreate_InvalidTypes(t *testing.T) {
	ts, st := newTestServer(t)

	resp, body := do(t, http.MethodPost, ts.URL+"/api/actions", `{"action":"A","date":"d","points":"ten"}`)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	require.Equal(t, "Invalid data types", body["error"])
	require.Equal(t, map[string]any{"action": "string", "date": "string", "points": "number"}, body["expected"])
	require.Zero(t, st.Writes)
}

func TestCreate_NullPointsIsInvalidType(t *testing.T) {
	ts, st := newTestServer(t)

	resp, body := do(t, http.MethodPost, ts.URL+"/api/actions", `{"action":"A","date":"d","points":null}`)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	require.Equal(t, "Invalid data types", body["error"])

	resp, body = do(t, http.MethodPost, ts.URL+"/api/actions", `{"action":null,"date":"d","points":1}`)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	require.Equal(t, "Missing required fields", body["error"])
	require.Equal(t, map[string]any{"action": false, "date": true, "points": true}, body["received"])
	require.Zero(t, st.Writes)
}

func TestCreate_InvalidJSON(t *testing.T) {
	ts, _ := newTestServer(t)

	resp, body := do(t, http.MethodPost, ts.URL+"/api/actions", `{"action":`)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	require.Equal(t, "Invalid JSON body", body["error"])
}

func TestCreate_FormEncoded(t *testing.T) {
	ts, _ := newTestServer(t)

	form := url.Values{"action": {"Composted"}, "date": {"2024-01-12"}, "points": {"7"}}
	resp, err := http.PostForm(ts.URL+"/api/actions", form)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var a model.Action
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&a))
	require.Equal(t, model.Action{ID: 1, Action: "Composted", Date: "2024-01-12", Points: 7}, a)
}

func TestCreate_BodyTooLarge(t *testing.T) {
	ts, _ := newTestServer(t)

	big := `{"action":"` + strings.Repeat("x", 2048) + `","date":"d","points":1}`
	resp, body := do(t, http.MethodPost, ts.URL+"/api/actions", big)
	require.Equal(t, http.StatusRequestEntityTooLarge, resp.StatusCode)
	require.Equal(t, "Request body too large", body["error"])
}

func TestList(t *testing.T) {
	ts, _ := newTestServer(t,
		model.Action{ID: 2, Action: "B", Date: "d2", Points: 2},
		model.Action{ID: 1, Action: "A", Date: "d1", Points: 1},
	)

	resp, err := http.Get(ts.URL + "/api/actions")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var got []model.Action
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	require.Equal(t, []int64{2, 1}, []int64{got[0].ID, got[1].ID})
}

func TestList_EmptyIsArray(t *testing.T) {
	ts, _ := newTestServer(t)

	resp, err := http.Get(ts.URL + "/api/actions")
	require.NoError(t, err)
	defer resp.Body.Close()
	raw, _ := io.ReadAll(resp.Body)
	require.Equal(t, "[]\n", string(raw))
}

func TestReplace(t *testing.T) {
	ts, _ := newTestServer(t, model.Action{ID: 1, Action: "A", Date: "d", Points: 5})

	resp, body := do(t, http.MethodPut, ts.URL+"/api/actions/1", `{"action":"B","date":"e","points":0}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, map[string]any{"id": 1.0, "action": "B", "date": "e", "points": 0.0}, body)
}

func TestReplace_Errors(t *testing.T) {
	ts, _ := newTestServer(t, model.Action{ID: 1, Action: "A", Date: "d", Points: 5})

	resp, body := do(t, http.MethodPut, ts.URL+"/api/actions/abc", `{"action":"B","date":"e","points":1}`)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	require.Equal(t, map[string]any{"error": "Invalid action ID format"}, body)

	resp, body = do(t, http.MethodPut, ts.URL+"/api/actions/1", `{"action":"B"}`)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	require.Equal(t, "Missing required fields", body["error"])
	require.NotContains(t, body, "received")

	resp, body = do(t, http.MethodPut, ts.URL+"/api/actions/7", `{"action":"B","date":"e","points":1}`)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	require.Equal(t, map[string]any{"error": "Sustainability action not found", "actionId": 7.0}, body)
}

func TestPatch(t *testing.T) {
	ts, _ := newTestServer(t, model.Action{ID: 1, Action: "A", Date: "d", Points: 5})

	resp, body := do(t, http.MethodPatch, ts.URL+"/api/actions/1", `{"points":20}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, map[string]any{"id": 1.0, "action": "A", "date": "d", "points": 20.0}, body)

	resp, body = do(t, http.MethodPatch, ts.URL+"/api/actions/1", `{"date":null}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "d", body["date"])

	resp, _ = do(t, http.MethodPatch, ts.URL+"/api/actions/1", `{"points":"x"}`)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, body = do(t, http.MethodPatch, ts.URL+"/api/actions/1", `{"points":null}`)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	require.Equal(t, "Invalid data types", body["error"])

	resp, _ = do(t, http.MethodPatch, ts.URL+"/api/actions/x", `{}`)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, body = do(t, http.MethodPatch, ts.URL+"/api/actions/2", `{}`)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	require.Equal(t, 2.0, body["actionId"])
}

func TestDelete(t *testing.T) {
	ts, st := newTestServer(t,
		model.Action{ID: 1, Action: "A", Date: "d", Points: 5},
		model.Action{ID: 2, Action: "B", Date: "d", Points: 6},
	)

	resp, body := do(t, http.MethodDelete, ts.URL+"/api/actions/1", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, map[string]any{"message": "Sustainability action deleted successfully", "deletedActionId": 1.0}, body)
	require.Equal(t, []model.Action{{ID: 2, Action: "B", Date: "d", Points: 6}}, st.Snapshot())

	resp, body = do(t, http.MethodDelete, ts.URL+"/api/actions/999", "")
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	require.Equal(t, map[string]any{"error": "Sustainability action not found", "actionId": 999.0}, body)
}

func TestRootAndNotFound(t *testing.T) {
	ts, _ := newTestServer(t)

	resp, body := do(t, http.MethodGet, ts.URL+"/", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "Sustainability Actions API is running!", body["message"])
	require.Equal(t, "1.0.0", body["version"])
	require.Equal(t, "2024-01-10T08:00:00.000Z", body["timestamp"])

	resp, body = do(t, http.MethodGet, ts.URL+"/api/unknown?x=1", "")
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	require.Equal(t, "Endpoint not found", body["error"])
	require.Equal(t, "The requested endpoint /api/unknown?x=1 does not exist", body["message"])
	require.Len(t, body["availableEndpoints"], len(AvailableEndpoints))

	resp, _ = do(t, http.MethodPost, ts.URL+"/api/actions/1", `{}`)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestStorageFailureIs500(t *testing.T) {
	ts, st := newTestServer(t, model.Action{ID: 1, Action: "A", Date: "d", Points: 5})
	st.WriteErr = errors.New("permission denied")

	resp, body := do(t, http.MethodPost, ts.URL+"/api/actions", `{"action":"A","date":"d","points":1}`)
	require.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	require.Equal(t, map[string]any{"error": "Failed to create sustainability action"}, body)

	st.ReadErr = errors.New("io")
	resp, body = do(t, http.MethodGet, ts.URL+"/api/actions", "")
	require.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	require.Equal(t, "Failed to retrieve sustainability actions", body["error"])
}

type panickingService struct{ service.ActionService }

func (panickingService) List(context.Context) ([]model.Action, error) { panic("boom") }

func TestPanicIsStructured500(t *testing.T) {
	ts := newTestServerWith(t, panickingService{})

	resp, body := do(t, http.MethodGet, ts.URL+"/api/actions", "")
	require.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	require.Equal(t, "Internal server error", body["error"])
	require.Equal(t, "An unexpected error occurred", body["message"])
	require.Equal(t, "2024-01-10T08:00:00.000Z", body["timestamp"])
	require.NotEmpty(t, resp.Header.Get(RequestIDHeader))
}

func TestRequestID(t *testing.T) {
	ts, _ := newTestServer(t)

	get := func(id string) string {
		req, err := http.NewRequest(http.MethodGet, ts.URL+"/api/actions", nil)
		require.NoError(t, err)
		if id != "" {
			req.Header.Set(RequestIDHeader, id)
		}
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		resp.Body.Close()
		return resp.Header.Get(RequestIDHeader)
	}

	require.Equal(t, "6ba7b810-9dad-11d1-80b4-00c04fd430c8", get("6BA7B810-9DAD-11D1-80B4-00C04FD430C8"))

	for _, bad := range []string{"not-a-uuid", strings.Repeat("a", 4096), "<script>"} {
		got := get(bad)
		require.NotEqual(t, bad, got)
		require.Len(t, got, 36)
	}
	require.Len(t, get(""), 36)
}

func TestStrictValidation(t *testing.T) {
	st := memory.New()
	svc := service.NewActionService(st, zaptest.NewLogger(t), true)
	ts := newTestServerWith(t, svc)

	resp, body := do(t, http.MethodPost, ts.URL+"/api/actions", `{"action":"ab","date":"2024-01-10","points":-4}`)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	require.Equal(t, "Validation failed", body["error"])
	fields := body["fields"].(map[string]any)
	require.Contains(t, fields, "action")
	require.Contains(t, fields, "points")
}

func TestCORS(t *testing.T) {
	ts, _ := newTestServer(t)

	req, _ := http.NewRequest(http.MethodOptions, ts.URL+"/api/actions/1", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", "DELETE")
	req.Header.Set("Access-Control-Request-Headers", "content-type")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "http://localhost:3000", resp.Header.Get("Access-Control-Allow-Origin"))
	require.Equal(t, "true", resp.Header.Get("Access-Control-Allow-Credentials"))
	require.Contains(t, resp.Header.Get("Access-Control-Allow-Methods"), "PATCH")
	require.Equal(t, "content-type", resp.Header.Get("Access-Control-Allow-Headers"))

	req, _ = http.NewRequest(http.MethodGet, ts.URL+"/api/actions", nil)
	req.Header.Set("Origin", "http://evil.example")
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Empty(t, resp.Header.Get("Access-Control-Allow-Origin"))
}
