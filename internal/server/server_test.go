package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"go-autoapply/internal/models"
	"go-autoapply/internal/reporter"
	"go-autoapply/internal/runner"
	"go-autoapply/internal/store"
)

type fakeController struct {
	mu      sync.Mutex
	running bool
	starts  int
	stops   int
}

func (f *fakeController) Start(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.running {
		return runner.ErrAlreadyRunning
	}
	f.running = true
	f.starts++
	return nil
}

func (f *fakeController) Stop() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.running = false
	f.stops++
}

func (f *fakeController) IsRunning() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.running
}

func (f *fakeController) Status() runner.Status {
	return runner.Status{Running: f.IsRunning(), RunID: "run-1", Last: reporter.Summary{Processed: 2, Success: 1}}
}

func newTestServer(t *testing.T) (*Server, *fakeController, *store.State) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	logger := arbor.NewLogger()
	kv, err := store.OpenBadger("", logger)
	require.NoError(t, err)
	t.Cleanup(func() { kv.Close() })

	state := store.NewState(kv, models.SiteStepStone)
	ctrl := &fakeController{}
	events := reporter.NewRecorder(10)
	return New(context.Background(), ctrl, state, NewHub(logger), events, logger), ctrl, state
}

func do(t *testing.T, s *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	return w
}

func TestHealth(t *testing.T) {
	s, _, _ := newTestServer(t)
	w := do(t, s, http.MethodGet, "/", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "healthy")
}

func TestStartStop(t *testing.T) {
	s, ctrl, _ := newTestServer(t)

	w := do(t, s, http.MethodPost, "/api/auto-apply/start", "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = do(t, s, http.MethodPost, "/api/auto-apply/start", "")
	assert.Equal(t, http.StatusConflict, w.Code)

	w = do(t, s, http.MethodPost, "/api/auto-apply/stop", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, ctrl.starts)
	assert.Equal(t, 1, ctrl.stops)
	assert.False(t, ctrl.IsRunning())
}

func TestActions(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		code   int
		starts int
	}{
		{name: "start", body: `{"action":"START_AUTO_APPLY"}`, code: http.StatusOK, starts: 1},
		{name: "state", body: `{"action":"GET_STATE"}`, code: http.StatusOK},
		{name: "stop when idle", body: `{"action":"STOP_AUTO_APPLY"}`, code: http.StatusOK},
		{name: "unknown", body: `{"action":"DANCE"}`, code: http.StatusBadRequest},
		{name: "missing", body: `{}`, code: http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, ctrl, _ := newTestServer(t)
			w := do(t, s, http.MethodPost, "/api/actions", tt.body)
			assert.Equal(t, tt.code, w.Code)
			assert.Equal(t, tt.starts, ctrl.starts)
		})
	}
}

func TestState(t *testing.T) {
	s, _, state := newTestServer(t)
	ctx := context.Background()
	require.NoError(t, state.SetFormStatus(ctx, models.FormStatus{State: models.FormRunning}))
	require.NoError(t, state.SetRunState(ctx, models.RunState{CurrentPage: 3}))
	require.NoError(t, state.SetCurrentJob(ctx, models.JobDescriptor{URL: "https://www.stepstone.de/job/1", Title: "Go Dev"}))
	s.events.Notify(ctx, reporter.Event{Type: reporter.EventStatus, Message: "hi"})

	w := do(t, s, http.MethodGet, "/api/auto-apply/state", "")
	require.Equal(t, http.StatusOK, w.Code)

	var got State
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, "run-1", got.RunID)
	assert.Equal(t, 2, got.Last.Processed)
	require.NotNil(t, got.Form)
	assert.Equal(t, models.FormRunning, got.Form.State)
	require.NotNil(t, got.Page)
	assert.Equal(t, 3, got.Page.CurrentPage)
	require.NotNil(t, got.CurrentJob)
	assert.Equal(t, "Go Dev", got.CurrentJob.Title)
	assert.Len(t, got.Events, 1)
}

func TestWebSocket_InitialStateAndBroadcast(t *testing.T) {
	s, _, _ := newTestServer(t)
	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var initial map[string]any
	require.NoError(t, conn.ReadJSON(&initial))
	assert.Equal(t, "initial_state", initial["type"])

	require.Eventually(t, func() bool { return s.hub.Len() == 1 }, time.Second, 10*time.Millisecond)
	s.hub.Notify(context.Background(), reporter.Event{Type: reporter.EventComplete, RunID: "run-1"})

	var ev reporter.Event
	require.NoError(t, conn.ReadJSON(&ev))
	assert.Equal(t, reporter.EventComplete, ev.Type)
	assert.Equal(t, "run-1", ev.RunID)
}

func TestTelegramWebhook(t *testing.T) {
	update := func(text string) string {
		b, _ := json.Marshal(map[string]any{
			"update_id": 1,
			"message": map[string]any{
				"message_id": 7,
				"date":       1,
				"chat":       map[string]any{"id": 42, "type": "private"},
				"text":       text,
				"entities":   []map[string]any{{"type": "bot_command", "offset": 0, "length": len(strings.Fields(text)[0])}},
			},
		})
		return string(b)
	}

	tests := []struct {
		name    string
		text    string
		want    string
		running bool
	}{
		{name: "apply", text: "/apply", want: "Run started", running: true},
		{name: "status", text: "/status", want: "Processed: 2"},
		{name: "stop", text: "/stop", want: "Stop requested"},
		{name: "help", text: "/help", want: "Commands"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, ctrl, _ := newTestServer(t)
			w := do(t, s, http.MethodPost, "/webhook/telegram", update(tt.text))
			require.Equal(t, http.StatusOK, w.Code)

			var reply map[string]any
			require.NoError(t, json.NewDecoder(bytes.NewReader(w.Body.Bytes())).Decode(&reply))
			assert.Equal(t, "sendMessage", reply["method"])
			assert.EqualValues(t, 42, reply["chat_id"])
			assert.Contains(t, reply["text"], tt.want)
			assert.Equal(t, tt.running, ctrl.IsRunning())
		})
	}
}

func TestTelegramWebhook_NonCommand(t *testing.T) {
	s, _, _ := newTestServer(t)
	w := do(t, s, http.MethodPost, "/webhook/telegram", `{"update_id":1,"message":{"message_id":1,"date":1,"chat":{"id":1,"type":"private"},"text":"hello"}}`)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), "sendMessage")
}
