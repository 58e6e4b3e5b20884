package functional_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"github.com/ganot/taskdeck/internal/testserver"
	"github.com/ganot/taskdeck/internal/transport"
)

type rpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *rpcError       `json:"error,omitempty"`
	ID      any             `json:"id,omitempty"`
}

type rpcError struct {
	Code    int            `json:"code"`
	Message string         `json:"message"`
	Data    map[string]any `json:"data,omitempty"`
}

func rpcCall(t *testing.T, ts *testserver.TestServer, token, method string, params any) rpcResponse {
	t.Helper()

	payload := map[string]any{
		"jsonrpc": "2.0",
		"method":  method,
		"id":      1,
	}
	if params != nil {
		payload["params"] = params
	}
	body, err := json.Marshal(payload)
	require.NoError(t, err)

	req, err := http.NewRequest(http.MethodPost, ts.Server.URL+"/rpc", bytes.NewBuffer(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		t.Fatalf("Expected status 200, got %d. Body: %s", resp.StatusCode, string(bodyBytes))
	}

	var result rpcResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
	return result
}

func mustResult(t *testing.T, resp rpcResponse, out any) {
	t.Helper()
	require.Nil(t, resp.Error, "RPC error: %+v", resp.Error)
	if out != nil {
		require.NoError(t, json.Unmarshal(resp.Result, out))
	}
}

type taskView struct {
	ID         string `json:"id"`
	Title      string `json:"title"`
	Status     string `json:"status"`
	AssigneeID string `json:"assignee_id"`
	ClientID   string `json:"client_id"`
}

func newStudio(t *testing.T) *testserver.TestServer {
	t.Helper()
	ts := testserver.New(t)
	ts.AddUser(t, testserver.User{Token: "lead-token", ID: "lead", Email: "lead@studio.test", FirstName: "Ana", Role: "team_lead", Organization: "Studio"})
	ts.AddUser(t, testserver.User{Token: "member-token", ID: "member", Email: "member@studio.test", FirstName: "Ben", Organization: "Studio"})
	ts.AddUser(t, testserver.User{Token: "rival-token", ID: "rival", Email: "rival@other.test", Organization: "Other Agency"})
	return ts
}

func TestFunctional_Authentication(t *testing.T) {
	ts := newStudio(t)

	resp, err := http.Post(ts.Server.URL+"/rpc", "application/json", bytes.NewBufferString(`{"jsonrpc":"2.0","method":"tasks.list","id":1}`))
	require.NoError(t, err)
	_ = resp.Body.Close()
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	req, err := http.NewRequest(http.MethodPost, ts.Server.URL+"/rpc", bytes.NewBufferString(`{"jsonrpc":"2.0","method":"tasks.list","id":1}`))
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer wrong")
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	_ = resp.Body.Close()
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	health, err := http.Get(ts.Server.URL + "/health")
	require.NoError(t, err)
	_ = health.Body.Close()
	require.Equal(t, http.StatusOK, health.StatusCode)
}

func TestFunctional_TaskLifecycle(t *testing.T) {
	ts := newStudio(t)

	var client struct {
		ID string `json:"id"`
	}
	mustResult(t, rpcCall(t, ts, "lead-token", "clients.create", map[string]any{"name": "Acme Coffee", "industry": "Food"}), &client)

	var created taskView
	mustResult(t, rpcCall(t, ts, "lead-token", "tasks.create", map[string]any{
		"title":       "Holiday carousel",
		"priority":    "high",
		"platform":    "instagram",
		"client_id":   client.ID,
		"assignee_id": "member",
		"due_date":    "2026-12-01T09:00:00Z",
	}), &created)
	require.Equal(t, "todo", created.Status)

	// The member shares the organization and sees the task.
	var memberTasks []taskView
	mustResult(t, rpcCall(t, ts, "member-token", "tasks.list", nil), &memberTasks)
	require.Len(t, memberTasks, 1)
	require.Equal(t, created.ID, memberTasks[0].ID)

	var moved taskView
	mustResult(t, rpcCall(t, ts, "member-token", "tasks.update_status", map[string]any{"id": created.ID, "status": "in-progress"}), &moved)
	require.Equal(t, "in-progress", moved.Status)

	var team []struct {
		ID       string `json:"id"`
		Workload int    `json:"workload"`
	}
	mustResult(t, rpcCall(t, ts, "lead-token", "team.list", nil), &team)
	require.Len(t, team, 2)
	for _, m := range team {
		if m.ID == "member" {
			require.Equal(t, 25, m.Workload)
		}
	}

	var summary struct {
		TotalTasks  int `json:"total_tasks"`
		ClientTasks []struct {
			Name  string `json:"name"`
			Total int    `json:"total"`
		} `json:"client_tasks"`
	}
	mustResult(t, rpcCall(t, ts, "lead-token", "analytics.get", nil), &summary)
	require.Equal(t, 1, summary.TotalTasks)
	require.Equal(t, "Acme Coffee", summary.ClientTasks[0].Name)

	// Another organization sees nothing.
	var rivalTasks []taskView
	mustResult(t, rpcCall(t, ts, "rival-token", "tasks.list", nil), &rivalTasks)
	require.Empty(t, rivalTasks)

	mustResult(t, rpcCall(t, ts, "lead-token", "tasks.delete", map[string]any{"id": created.ID}), nil)
	mustResult(t, rpcCall(t, ts, "lead-token", "tasks.list", nil), &memberTasks)
	require.Empty(t, memberTasks)
}

func TestFunctional_ErrorCodes(t *testing.T) {
	ts := newStudio(t)

	resp := rpcCall(t, ts, "lead-token", "tasks.frobnicate", nil)
	require.NotNil(t, resp.Error)
	require.Equal(t, transport.ErrMethodNotFound, resp.Error.Code)

	resp = rpcCall(t, ts, "lead-token", "tasks.update_status", map[string]any{"id": "nope", "status": "review"})
	require.NotNil(t, resp.Error)
	require.Equal(t, transport.ErrDomainCode, resp.Error.Code)
	require.Equal(t, "NOT_FOUND", resp.Error.Data["code"])

	resp = rpcCall(t, ts, "lead-token", "tasks.create", map[string]any{"title": "x", "assignee_id": "ghost"})
	require.NotNil(t, resp.Error)
	require.Equal(t, "CONSTRAINT_VIOLATION", resp.Error.Data["code"])

	resp = rpcCall(t, ts, "lead-token", "clients.create", map[string]any{"name": "Bad", "email": "not-an-email"})
	require.NotNil(t, resp.Error)
	require.Equal(t, "INVALID_INPUT", resp.Error.Data["code"])
}

func TestFunctional_RealtimeStream(t *testing.T) {
	ts := newStudio(t)

	url := "ws" + strings.TrimPrefix(ts.Server.URL, "http") + "/realtime?access_token=member-token"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(3*time.Second)))

	var frame transport.Frame
	require.NoError(t, conn.ReadJSON(&frame))
	require.Equal(t, "member", frame.State.Session)
	require.Empty(t, frame.State.Tasks)

	// A teammate's write reaches the member's open stream.
	mustResult(t, rpcCall(t, ts, "lead-token", "tasks.create", map[string]any{"title": "Live post", "assignee_id": "member"}), nil)

	for {
		var next transport.Frame
		require.NoError(t, conn.ReadJSON(&next))
		if len(next.State.Tasks) == 1 {
			require.Equal(t, "Live post", next.State.Tasks[0].Title)
			require.Equal(t, 1, next.State.Analytics.TotalTasks)
			break
		}
	}
}
