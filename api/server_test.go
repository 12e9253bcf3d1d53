package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	gorillaws "github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wricardo/mcp-training/arcade/game/catalog"
	"github.com/wricardo/mcp-training/arcade/game/engine"
	"github.com/wricardo/mcp-training/arcade/game/service"
	"github.com/wricardo/mcp-training/arcade/game/session"
	"github.com/wricardo/mcp-training/arcade/transport/websocket"
)

// MockGameService implements service.GameService for testing
type MockGameService struct {
	StartGameFunc          func(ctx context.Context, gameType string, playerID int64) (*service.SessionView, error)
	PlayActionFunc         func(ctx context.Context, gameID int64, action string, playerID int64) (*service.SessionView, error)
	GetGameStateFunc       func(ctx context.Context, gameID int64, playerID int64) *service.SessionView
	EndGameFunc            func(ctx context.Context, gameID int64, playerID int64) bool
	ListSessionsFunc       func(ctx context.Context) []*service.SessionView
	RestoreSessionFunc     func(ctx context.Context, view *service.SessionView) (*service.SessionView, error)
	GetGameInfoFunc        func(ctx context.Context, catalogID int64) (*catalog.GameInfo, error)
	ListDevelopedGamesFunc func(ctx context.Context) []catalog.DevelopedGame
	RecordPlayerStatusFunc func(ctx context.Context, gameID, playerID int64, status string) (*service.PlayerStatus, error)
	GetPlayerStatusFunc    func(ctx context.Context, gameID, playerID int64) (*service.PlayerStatus, error)
}

func testView(id int64) *service.SessionView {
	return &service.SessionView{
		GameID:       id,
		GameType:     "connectfour",
		Status:       "Playing",
		Level:        1,
		GameDataJSON: "{}",
	}
}

func (m *MockGameService) StartGame(ctx context.Context, gameType string, playerID int64) (*service.SessionView, error) {
	if m.StartGameFunc != nil {
		return m.StartGameFunc(ctx, gameType, playerID)
	}
	return testView(1), nil
}

func (m *MockGameService) PlayAction(ctx context.Context, gameID int64, action string, playerID int64) (*service.SessionView, error) {
	if m.PlayActionFunc != nil {
		return m.PlayActionFunc(ctx, gameID, action, playerID)
	}
	return testView(gameID), nil
}

func (m *MockGameService) GetGameState(ctx context.Context, gameID int64, playerID int64) *service.SessionView {
	if m.GetGameStateFunc != nil {
		return m.GetGameStateFunc(ctx, gameID, playerID)
	}
	return testView(gameID)
}

func (m *MockGameService) EndGame(ctx context.Context, gameID int64, playerID int64) bool {
	if m.EndGameFunc != nil {
		return m.EndGameFunc(ctx, gameID, playerID)
	}
	return true
}

func (m *MockGameService) ListSessions(ctx context.Context) []*service.SessionView {
	if m.ListSessionsFunc != nil {
		return m.ListSessionsFunc(ctx)
	}
	return []*service.SessionView{}
}

func (m *MockGameService) RestoreSession(ctx context.Context, view *service.SessionView) (*service.SessionView, error) {
	if m.RestoreSessionFunc != nil {
		return m.RestoreSessionFunc(ctx, view)
	}
	return view, nil
}

func (m *MockGameService) GetGameInfo(ctx context.Context, catalogID int64) (*catalog.GameInfo, error) {
	if m.GetGameInfoFunc != nil {
		return m.GetGameInfoFunc(ctx, catalogID)
	}
	return &catalog.GameInfo{ID: catalogID, Title: "Test Game"}, nil
}

func (m *MockGameService) ListDevelopedGames(ctx context.Context) []catalog.DevelopedGame {
	if m.ListDevelopedGamesFunc != nil {
		return m.ListDevelopedGamesFunc(ctx)
	}
	return []catalog.DevelopedGame{}
}

func (m *MockGameService) RecordPlayerStatus(ctx context.Context, gameID int64, playerID int64, status string) (*service.PlayerStatus, error) {
	if m.RecordPlayerStatusFunc != nil {
		return m.RecordPlayerStatusFunc(ctx, gameID, playerID, status)
	}
	return &service.PlayerStatus{ID: 1, GameID: gameID, PlayerID: playerID, Status: status}, nil
}

func (m *MockGameService) GetPlayerStatus(ctx context.Context, gameID int64, playerID int64) (*service.PlayerStatus, error) {
	if m.GetPlayerStatusFunc != nil {
		return m.GetPlayerStatusFunc(ctx, gameID, playerID)
	}
	return nil, service.ErrNotFound
}

// Test helpers
func setupTestServer(t *testing.T, mockService service.GameService) *Server {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	hub := websocket.NewHub()
	go hub.Run(ctx)
	return NewServer(mockService, hub)
}

func makeRequest(method, path string, body interface{}) *http.Request {
	var bodyBytes []byte
	if body != nil {
		bodyBytes, _ = json.Marshal(body)
	}
	req := httptest.NewRequest(method, path, bytes.NewBuffer(bodyBytes))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func parseResponse(t *testing.T, w *httptest.ResponseRecorder, target interface{}) {
	if err := json.Unmarshal(w.Body.Bytes(), target); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
}

func TestStartGame(t *testing.T) {
	tests := []struct {
		name           string
		requestBody    interface{}
		setupMock      func(*MockGameService)
		expectedStatus int
		validateResp   func(*testing.T, *httptest.ResponseRecorder)
	}{
		{
			name:        "Start game with empty body",
			requestBody: nil,
			setupMock: func(m *MockGameService) {
				m.StartGameFunc = func(ctx context.Context, gameType string, playerID int64) (*service.SessionView, error) {
					if gameType != "" || playerID != 0 {
						t.Errorf("Expected empty request, got %q/%d", gameType, playerID)
					}
					return testView(1), nil
				}
			},
			expectedStatus: http.StatusCreated,
			validateResp: func(t *testing.T, w *httptest.ResponseRecorder) {
				var resp service.SessionView
				parseResponse(t, w, &resp)
				if resp.GameID != 1 {
					t.Errorf("Expected game ID 1, got %d", resp.GameID)
				}
			},
		},
		{
			name:        "Start specific game",
			requestBody: map[string]interface{}{"gameType": "memorymatch", "playerId": 9},
			setupMock: func(m *MockGameService) {
				m.StartGameFunc = func(ctx context.Context, gameType string, playerID int64) (*service.SessionView, error) {
					if gameType != "memorymatch" || playerID != 9 {
						t.Errorf("Expected memorymatch/9, got %q/%d", gameType, playerID)
					}
					v := testView(5)
					v.GameType = gameType
					return v, nil
				}
			},
			expectedStatus: http.StatusCreated,
			validateResp: func(t *testing.T, w *httptest.ResponseRecorder) {
				var resp service.SessionView
				parseResponse(t, w, &resp)
				if resp.GameType != "memorymatch" {
					t.Errorf("Expected memorymatch, got %s", resp.GameType)
				}
			},
		},
		{
			name:        "Handle service error",
			requestBody: nil,
			setupMock: func(m *MockGameService) {
				m.StartGameFunc = func(ctx context.Context, gameType string, playerID int64) (*service.SessionView, error) {
					return nil, fmt.Errorf("service error")
				}
			},
			expectedStatus: http.StatusInternalServerError,
			validateResp: func(t *testing.T, w *httptest.ResponseRecorder) {
				var resp map[string]string
				parseResponse(t, w, &resp)
				if resp["error"] != "service error" {
					t.Errorf("Expected error message 'service error', got %s", resp["error"])
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := &MockGameService{}
			if tt.setupMock != nil {
				tt.setupMock(mockService)
			}

			server := setupTestServer(t, mockService)
			w := httptest.NewRecorder()
			req := makeRequest("POST", "/api/games", tt.requestBody)

			server.ServeHTTP(w, req)

			if w.Code != tt.expectedStatus {
				t.Errorf("Expected status %d, got %d", tt.expectedStatus, w.Code)
			}

			if tt.validateResp != nil {
				tt.validateResp(t, w)
			}
		})
	}
}

func TestStartGame_MalformedBody(t *testing.T) {
	server := setupTestServer(t, &MockGameService{})
	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/api/games", strings.NewReader("{gameType"))

	server.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", w.Code)
	}
}

func TestPlayAction(t *testing.T) {
	tests := []struct {
		name           string
		path           string
		body           string
		setupMock      func(*MockGameService)
		expectedStatus int
	}{
		{
			name: "Valid action",
			path: "/api/games/7/actions",
			body: `{"action":"drop_3","playerId":2}`,
			setupMock: func(m *MockGameService) {
				m.PlayActionFunc = func(ctx context.Context, gameID int64, action string, playerID int64) (*service.SessionView, error) {
					if gameID != 7 || action != "drop_3" || playerID != 2 {
						t.Errorf("Unexpected arguments %d/%q/%d", gameID, action, playerID)
					}
					return testView(gameID), nil
				}
			},
			expectedStatus: http.StatusOK,
		},
		{
			name: "Game not found",
			path: "/api/games/99/actions",
			body: `{"action":"drop_3"}`,
			setupMock: func(m *MockGameService) {
				m.PlayActionFunc = func(ctx context.Context, gameID int64, action string, playerID int64) (*service.SessionView, error) {
					return nil, fmt.Errorf("%w: %d", service.ErrNotFound, gameID)
				}
			},
			expectedStatus: http.StatusNotFound,
		},
		{
			name:           "Non-numeric id",
			path:           "/api/games/abc/actions",
			body:           `{"action":"drop_3"}`,
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "Undecodable body",
			path:           "/api/games/7/actions",
			body:           `not json`,
			expectedStatus: http.StatusBadRequest,
		},
		{
			name: "Unexpected failure",
			path: "/api/games/7/actions",
			body: `{"action":"next"}`,
			setupMock: func(m *MockGameService) {
				m.PlayActionFunc = func(ctx context.Context, gameID int64, action string, playerID int64) (*service.SessionView, error) {
					return nil, fmt.Errorf("boom")
				}
			},
			expectedStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := &MockGameService{}
			if tt.setupMock != nil {
				tt.setupMock(mockService)
			}

			server := setupTestServer(t, mockService)
			w := httptest.NewRecorder()
			req := httptest.NewRequest("POST", tt.path, strings.NewReader(tt.body))

			server.ServeHTTP(w, req)

			if w.Code != tt.expectedStatus {
				t.Errorf("Expected status %d, got %d: %s", tt.expectedStatus, w.Code, w.Body.String())
			}
		})
	}
}

func TestGetGameState(t *testing.T) {
	mockService := &MockGameService{
		GetGameStateFunc: func(ctx context.Context, gameID int64, playerID int64) *service.SessionView {
			if playerID != 4 {
				t.Errorf("Expected player 4, got %d", playerID)
			}
			return &service.SessionView{GameID: gameID, GameType: "unknown", Status: "GameOver", Level: 1, GameDataJSON: "{}"}
		},
	}
	server := setupTestServer(t, mockService)

	w := httptest.NewRecorder()
	server.ServeHTTP(w, httptest.NewRequest("GET", "/api/games/123?playerId=4", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}

	var resp service.SessionView
	parseResponse(t, w, &resp)
	if resp.GameID != 123 || resp.Status != "GameOver" {
		t.Errorf("Unexpected placeholder: %+v", resp)
	}

	w = httptest.NewRecorder()
	server.ServeHTTP(w, httptest.NewRequest("GET", "/api/games/123?playerId=x", nil))
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400 for bad playerId, got %d", w.Code)
	}
}

func TestEndGame(t *testing.T) {
	for _, ended := range []bool{true, false} {
		t.Run(fmt.Sprint(ended), func(t *testing.T) {
			mockService := &MockGameService{
				EndGameFunc: func(ctx context.Context, gameID int64, playerID int64) bool {
					return ended
				},
			}
			server := setupTestServer(t, mockService)

			w := httptest.NewRecorder()
			server.ServeHTTP(w, httptest.NewRequest("DELETE", "/api/games/5?playerId=1", nil))

			if w.Code != http.StatusOK {
				t.Fatalf("Expected status 200, got %d", w.Code)
			}

			var resp map[string]bool
			parseResponse(t, w, &resp)
			if resp["ended"] != ended {
				t.Errorf("Expected ended=%v, got %v", ended, resp["ended"])
			}
		})
	}
}

func TestListGames(t *testing.T) {
	mockService := &MockGameService{
		ListSessionsFunc: func(ctx context.Context) []*service.SessionView {
			return []*service.SessionView{testView(1), testView(2)}
		},
	}
	server := setupTestServer(t, mockService)

	w := httptest.NewRecorder()
	server.ServeHTTP(w, httptest.NewRequest("GET", "/api/games", nil))

	var resp struct {
		Count int                    `json:"count"`
		Games []*service.SessionView `json:"games"`
	}
	parseResponse(t, w, &resp)
	if resp.Count != 2 || len(resp.Games) != 2 {
		t.Errorf("Expected 2 games, got %+v", resp)
	}
}

func TestRestoreGame(t *testing.T) {
	tests := []struct {
		name           string
		err            error
		expectedStatus int
	}{
		{"restored", nil, http.StatusCreated},
		{"invalid", fmt.Errorf("%w: bad data", service.ErrInvalidSession), http.StatusBadRequest},
		{"duplicate", fmt.Errorf("%w: 3", service.ErrAlreadyExists), http.StatusConflict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := &MockGameService{
				RestoreSessionFunc: func(ctx context.Context, view *service.SessionView) (*service.SessionView, error) {
					if view.GameID != 3 {
						t.Errorf("Expected game 3, got %d", view.GameID)
					}
					if tt.err != nil {
						return nil, tt.err
					}
					return view, nil
				},
			}
			server := setupTestServer(t, mockService)

			w := httptest.NewRecorder()
			server.ServeHTTP(w, makeRequest("POST", "/api/games/restore", testView(3)))

			if w.Code != tt.expectedStatus {
				t.Errorf("Expected status %d, got %d", tt.expectedStatus, w.Code)
			}
		})
	}
}

func TestCatalog(t *testing.T) {
	mockService := &MockGameService{
		GetGameInfoFunc: func(ctx context.Context, catalogID int64) (*catalog.GameInfo, error) {
			if catalogID == 1 {
				return &catalog.GameInfo{ID: 1, Title: "Connect Four"}, nil
			}
			return nil, catalog.ErrGameNotFound
		},
		ListDevelopedGamesFunc: func(ctx context.Context) []catalog.DevelopedGame {
			return []catalog.DevelopedGame{{ID: 1, Title: "Connect Four", IsActive: true}}
		},
	}
	server := setupTestServer(t, mockService)

	w := httptest.NewRecorder()
	server.ServeHTTP(w, httptest.NewRequest("GET", "/api/catalog", nil))
	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}

	w = httptest.NewRecorder()
	server.ServeHTTP(w, httptest.NewRequest("GET", "/api/catalog/1", nil))
	var info catalog.GameInfo
	parseResponse(t, w, &info)
	if info.Title != "Connect Four" {
		t.Errorf("Expected Connect Four, got %s", info.Title)
	}

	w = httptest.NewRecorder()
	server.ServeHTTP(w, httptest.NewRequest("GET", "/api/catalog/2", nil))
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", w.Code)
	}
}

func TestPlayerStatus(t *testing.T) {
	var recorded []string
	mockService := &MockGameService{
		RecordPlayerStatusFunc: func(ctx context.Context, gameID, playerID int64, status string) (*service.PlayerStatus, error) {
			if status != service.PlayerAlive && status != service.PlayerInjured && status != service.PlayerDead {
				return nil, service.ErrInvalidStatus
			}
			recorded = append(recorded, fmt.Sprintf("%d/%d/%s", gameID, playerID, status))
			return &service.PlayerStatus{ID: 1, GameID: gameID, PlayerID: playerID, Status: status}, nil
		},
		GetPlayerStatusFunc: func(ctx context.Context, gameID, playerID int64) (*service.PlayerStatus, error) {
			if playerID == 2 {
				return &service.PlayerStatus{ID: 1, GameID: gameID, PlayerID: 2, Status: service.PlayerInjured}, nil
			}
			return nil, service.ErrNotFound
		},
	}
	server := setupTestServer(t, mockService)

	tests := []struct {
		name           string
		method         string
		path           string
		body           string
		expectedStatus int
	}{
		{"record", "PUT", "/api/games/4/players/2/status", `{"status":"Injured"}`, http.StatusOK},
		{"invalid value", "PUT", "/api/games/4/players/2/status", `{"status":"Sleepy"}`, http.StatusBadRequest},
		{"malformed body", "PUT", "/api/games/4/players/2/status", `{`, http.StatusBadRequest},
		{"bad player id", "PUT", "/api/games/4/players/x/status", `{"status":"Dead"}`, http.StatusBadRequest},
		{"get", "GET", "/api/games/4/players/2/status", "", http.StatusOK},
		{"get unknown", "GET", "/api/games/4/players/9/status", "", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			server.ServeHTTP(w, httptest.NewRequest(tt.method, tt.path, strings.NewReader(tt.body)))
			if w.Code != tt.expectedStatus {
				t.Errorf("Expected status %d, got %d: %s", tt.expectedStatus, w.Code, w.Body.String())
			}
		})
	}

	if len(recorded) != 1 || recorded[0] != "4/2/Injured" {
		t.Errorf("Unexpected recorded statuses: %v", recorded)
	}

	w := httptest.NewRecorder()
	server.ServeHTTP(w, httptest.NewRequest("GET", "/api/games/4/players/2/status", nil))
	var rec service.PlayerStatus
	parseResponse(t, w, &rec)
	if rec.Status != "Injured" || rec.GameID != 4 {
		t.Errorf("Unexpected status record: %+v", rec)
	}
}

func TestRequestIDAndCORS(t *testing.T) {
	server := setupTestServer(t, &MockGameService{})

	w := httptest.NewRecorder()
	server.ServeHTTP(w, httptest.NewRequest("GET", "/health", nil))
	if w.Header().Get(requestIDHeader) == "" {
		t.Error("Expected a generated request id")
	}

	req := httptest.NewRequest("GET", "/health", nil)
	req.Header.Set(requestIDHeader, "abc-123")
	req.Header.Set("Origin", "http://example.com")
	w = httptest.NewRecorder()
	server.ServeHTTP(w, req)
	if got := w.Header().Get(requestIDHeader); got != "abc-123" {
		t.Errorf("Expected request id to be echoed, got %q", got)
	}
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("Expected wildcard CORS, got %q", got)
	}

	restricted := NewServer(&MockGameService{}, nil, WithAllowedOrigins("http://localhost:3000"))
	req = httptest.NewRequest("GET", "/health", nil)
	req.Header.Set("Origin", "http://evil.example")
	w = httptest.NewRecorder()
	restricted.ServeHTTP(w, req)
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Errorf("Expected no CORS header for foreign origin, got %q", got)
	}
}

func TestWebSocket(t *testing.T) {
	tests := []struct {
		name           string
		queryParams    string
		setupMock      func(*MockGameService)
		expectedStatus int
	}{
		{
			name:           "Missing game parameter",
			queryParams:    "",
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "Non-numeric game",
			queryParams:    "?game=abc",
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:        "Unknown game",
			queryParams: "?game=404",
			setupMock: func(m *MockGameService) {
				m.GetGameStateFunc = func(ctx context.Context, gameID int64, playerID int64) *service.SessionView {
					return &service.SessionView{GameID: gameID, GameType: "unknown", Status: "GameOver"}
				}
			},
			expectedStatus: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := &MockGameService{}
			if tt.setupMock != nil {
				tt.setupMock(mockService)
			}

			server := setupTestServer(t, mockService)
			w := httptest.NewRecorder()
			server.ServeHTTP(w, httptest.NewRequest("GET", "/ws"+tt.queryParams, nil))

			if w.Code != tt.expectedStatus {
				t.Errorf("Expected status %d, got %d", tt.expectedStatus, w.Code)
			}
		})
	}

	t.Run("Disabled without hub", func(t *testing.T) {
		server := NewServer(&MockGameService{}, nil)
		w := httptest.NewRecorder()
		server.ServeHTTP(w, httptest.NewRequest("GET", "/ws?game=1", nil))
		if w.Code != http.StatusNotFound {
			t.Errorf("Expected status 404, got %d", w.Code)
		}
	})
}

// End-to-end over a real service

func newRealServer(t *testing.T) *httptest.Server {
	t.Helper()
	eng := engine.NewEngine(engine.NewRandom(1))
	games, err := catalog.NewManager("", nil)
	require.NoError(t, err)
	svc := service.NewGameService(session.NewManager(eng), eng, games)

	server := httptest.NewServer(setupTestServer(t, svc))
	t.Cleanup(server.Close)
	return server
}

func doJSON(t *testing.T, method, url string, body interface{}, target interface{}) int {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, url, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	if target != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(target))
	}
	return resp.StatusCode
}

func TestEndToEnd_ConnectFourVerticalWin(t *testing.T) {
	server := newRealServer(t)

	var started service.SessionView
	status := doJSON(t, "POST", server.URL+"/api/games", map[string]interface{}{"gameType": "highOrLower", "playerId": 1}, &started)
	require.Equal(t, http.StatusCreated, status)
	assert.Equal(t, "connectfour", started.GameType)

	actionsURL := fmt.Sprintf("%s/api/games/%d/actions", server.URL, started.GameID)
	var view service.SessionView
	for _, a := range []string{"drop_0", "drop_1", "drop_0", "drop_1", "drop_0", "drop_1", "drop_0"} {
		require.Equal(t, http.StatusOK, doJSON(t, "POST", actionsURL, map[string]interface{}{"action": a, "playerId": 1}, &view))
	}
	assert.Equal(t, "Won", view.Status)
	assert.Equal(t, 100, view.Score)

	var ended map[string]bool
	require.Equal(t, http.StatusOK, doJSON(t, "DELETE", fmt.Sprintf("%s/api/games/%d", server.URL, started.GameID), nil, &ended))
	assert.True(t, ended["ended"])

	var placeholder service.SessionView
	doJSON(t, "GET", fmt.Sprintf("%s/api/games/%d", server.URL, started.GameID), nil, &placeholder)
	assert.Equal(t, "unknown", placeholder.GameType)
	assert.Equal(t, "GameOver", placeholder.Status)

	var errResp map[string]string
	status = doJSON(t, "POST", actionsURL, map[string]interface{}{"action": "drop_0"}, &errResp)
	assert.Equal(t, http.StatusNotFound, status)
	assert.NotEmpty(t, errResp["error"])
}

func TestEndToEnd_WebSocketReceivesUpdates(t *testing.T) {
	server := newRealServer(t)

	var started service.SessionView
	require.Equal(t, http.StatusCreated, doJSON(t, "POST", server.URL+"/api/games", map[string]interface{}{"gameType": "memorymatch"}, &started))

	wsURL := fmt.Sprintf("ws%s/ws?game=%d", strings.TrimPrefix(server.URL, "http"), started.GameID)
	conn, _, err := gorillaws.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	// registration is asynchronous; retry the action until a message arrives
	actionsURL := fmt.Sprintf("%s/api/games/%d/actions", server.URL, started.GameID)
	var message websocket.Message
	deadline := time.Now().Add(2 * time.Second)
	for {
		require.Equal(t, http.StatusOK, doJSON(t, "POST", actionsURL, map[string]interface{}{"action": "flip_0"}, nil))
		conn.SetReadDeadline(time.Now().Add(100 * time.Millisecond))
		if err := conn.ReadJSON(&message); err == nil {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("No websocket message received")
		}
		conn.Close()
		conn, _, err = gorillaws.DefaultDialer.Dial(wsURL, nil)
		require.NoError(t, err)
	}

	assert.Equal(t, started.GameID, message.GameID)
	assert.Equal(t, websocket.EventStateUpdate, message.Event)
	require.NotNil(t, message.State)
	assert.Equal(t, "memorymatch", message.State.GameType)
}

func TestEndToEnd_PlayerStatusUpdatesInPlace(t *testing.T) {
	server := newRealServer(t)
	url := server.URL + "/api/games/5/players/2/status"

	var first, second service.PlayerStatus
	require.Equal(t, http.StatusOK, doJSON(t, "PUT", url, map[string]string{"status": "Alive"}, &first))
	require.Equal(t, http.StatusOK, doJSON(t, "PUT", url, map[string]string{"status": "Dead"}, &second))
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, "Dead", second.Status)

	var got service.PlayerStatus
	require.Equal(t, http.StatusOK, doJSON(t, "GET", url, nil, &got))
	assert.Equal(t, "Dead", got.Status)

	assert.Equal(t, http.StatusBadRequest, doJSON(t, "PUT", url, map[string]string{"status": "dead"}, nil))
	assert.Equal(t, http.StatusNotFound, doJSON(t, "GET", server.URL+"/api/games/5/players/3/status", nil, nil))
}

func TestEndToEnd_ViewsCarryIncreasingVersions(t *testing.T) {
	server := newRealServer(t)

	var start, first, second service.SessionView
	require.Equal(t, http.StatusCreated, doJSON(t, "POST", server.URL+"/api/games", map[string]string{"gameType": "connectfour"}, &start))
	actions := fmt.Sprintf("%s/api/games/%d/actions", server.URL, start.GameID)
	require.Equal(t, http.StatusOK, doJSON(t, "POST", actions, map[string]string{"action": "drop_0"}, &first))
	require.Equal(t, http.StatusOK, doJSON(t, "POST", actions, map[string]string{"action": "drop_1"}, &second))

	assert.Equal(t, int64(1), start.Version)
	assert.Equal(t, int64(2), first.Version)
	assert.Equal(t, int64(3), second.Version)
}
