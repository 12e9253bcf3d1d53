package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/wricardo/mcp-training/arcade/game/catalog"
	"github.com/wricardo/mcp-training/arcade/game/engine"
	"github.com/wricardo/mcp-training/arcade/game/service"
	"github.com/wricardo/mcp-training/arcade/transport/websocket"
)

// requestIDHeader carries the request id in both directions
const requestIDHeader = "X-Request-ID"

type requestIDKey struct{}

// RequestID returns the id assigned to the request by the logging middleware
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// Server represents the REST API server
type Server struct {
	service        service.GameService
	hub            *websocket.Hub
	router         *mux.Router
	handler        http.Handler
	allowedOrigins []string
}

// Option customizes a Server
type Option func(*Server)

// WithAllowedOrigins restricts CORS to the given origins. Without it every
// origin is allowed.
func WithAllowedOrigins(origins ...string) Option {
	return func(s *Server) {
		s.allowedOrigins = origins
	}
}

// NewServer creates a new API server. hub may be nil, which disables the
// /ws endpoint and state broadcasts.
func NewServer(gameService service.GameService, hub *websocket.Hub, opts ...Option) *Server {
	s := &Server{
		service:        gameService,
		hub:            hub,
		router:         mux.NewRouter(),
		allowedOrigins: []string{"*"},
	}
	for _, opt := range opts {
		opt(s)
	}

	s.setupRoutes()
	s.handler = cors.Handler(cors.Options{
		AllowedOrigins: s.allowedOrigins,
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", requestIDHeader},
		ExposedHeaders: []string{requestIDHeader},
		MaxAge:         300,
	})(s.router)
	return s
}

// Handle mounts an extra handler on the router, e.g. the MCP endpoint
func (s *Server) Handle(path string, handler http.Handler) {
	s.router.Handle(path, handler)
}

// setupRoutes configures all API routes
func (s *Server) setupRoutes() {
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.RealIP)
	s.router.Use(requestLogger)

	api := s.router.PathPrefix("/api").Subrouter()

	// Games (restore must be before the {id} patterns)
	api.HandleFunc("/games", s.handleStartGame).Methods("POST")
	api.HandleFunc("/games", s.handleListGames).Methods("GET")
	api.HandleFunc("/games/restore", s.handleRestoreGame).Methods("POST")
	api.HandleFunc("/games/{id}", s.handleGetGameState).Methods("GET")
	api.HandleFunc("/games/{id}", s.handleEndGame).Methods("DELETE")
	api.HandleFunc("/games/{id}/actions", s.handlePlayAction).Methods("POST")
	api.HandleFunc("/games/{id}/players/{playerId}/status", s.handleRecordPlayerStatus).Methods("PUT")
	api.HandleFunc("/games/{id}/players/{playerId}/status", s.handleGetPlayerStatus).Methods("GET")

	// Catalog
	api.HandleFunc("/catalog", s.handleListCatalog).Methods("GET")
	api.HandleFunc("/catalog/{id}", s.handleGetGameInfo).Methods("GET")

	s.router.HandleFunc("/health", s.handleHealth).Methods("GET")

	// WebSocket
	s.router.HandleFunc("/ws", s.handleWebSocket)
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

// requestLogger tags each request with an id and logs its outcome
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(requestIDHeader)
		if id == "" {
			id = uuid.New().String()
		}
		w.Header().Set(requestIDHeader, id)
		r = r.WithContext(context.WithValue(r.Context(), requestIDKey{}, id))

		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		slog.DebugContext(r.Context(), "http request",
			"request_id", id,
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start))
	})
}

// Response helpers
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// respondServiceError maps domain errors onto HTTP status codes
func respondServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrNotFound), errors.Is(err, catalog.ErrGameNotFound):
		respondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrInvalidSession), errors.Is(err, service.ErrInvalidStatus):
		respondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrAlreadyExists):
		respondError(w, http.StatusConflict, err.Error())
	default:
		respondError(w, http.StatusInternalServerError, err.Error())
	}
}

// pathID parses the {id} route variable
func pathID(r *http.Request) (int64, error) {
	return strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
}

// pathPlayer parses the {id} and {playerId} route variables
func pathPlayer(r *http.Request) (gameID, playerID int64, err error) {
	if gameID, err = pathID(r); err != nil {
		return 0, 0, err
	}
	playerID, err = strconv.ParseInt(mux.Vars(r)["playerId"], 10, 64)
	return gameID, playerID, err
}

// queryPlayerID reads the optional playerId query parameter
func queryPlayerID(r *http.Request) (int64, error) {
	raw := r.URL.Query().Get("playerId")
	if raw == "" {
		return 0, nil
	}
	return strconv.ParseInt(raw, 10, 64)
}

// Game Handlers

func (s *Server) handleStartGame(w http.ResponseWriter, r *http.Request) {
	var req struct {
		GameType string `json:"gameType"`
		PlayerID int64  `json:"playerId"`
	}

	// An empty body starts the default game
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	view, err := s.service.StartGame(r.Context(), req.GameType, req.PlayerID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	s.broadcast(view)
	respondJSON(w, http.StatusCreated, view)
}

func (s *Server) handleListGames(w http.ResponseWriter, r *http.Request) {
	games := s.service.ListSessions(r.Context())
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"count": len(games),
		"games": games,
	})
}

func (s *Server) handleGetGameState(w http.ResponseWriter, r *http.Request) {
	gameID, err := pathID(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid game id")
		return
	}
	playerID, err := queryPlayerID(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid playerId")
		return
	}

	respondJSON(w, http.StatusOK, s.service.GetGameState(r.Context(), gameID, playerID))
}

func (s *Server) handlePlayAction(w http.ResponseWriter, r *http.Request) {
	gameID, err := pathID(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid game id")
		return
	}

	var req struct {
		Action   string `json:"action"`
		PlayerID int64  `json:"playerId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	view, err := s.service.PlayAction(r.Context(), gameID, req.Action, req.PlayerID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	s.broadcast(view)
	respondJSON(w, http.StatusOK, view)
}

func (s *Server) handleEndGame(w http.ResponseWriter, r *http.Request) {
	gameID, err := pathID(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid game id")
		return
	}
	playerID, err := queryPlayerID(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid playerId")
		return
	}

	ended := s.service.EndGame(r.Context(), gameID, playerID)
	if ended && s.hub != nil {
		s.hub.BroadcastEnded(gameID)
	}

	respondJSON(w, http.StatusOK, map[string]bool{"ended": ended})
}

func (s *Server) handleRestoreGame(w http.ResponseWriter, r *http.Request) {
	var view service.SessionView
	if err := json.NewDecoder(r.Body).Decode(&view); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	restored, err := s.service.RestoreSession(r.Context(), &view)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, restored)
}

// Player Status Handlers

func (s *Server) handleRecordPlayerStatus(w http.ResponseWriter, r *http.Request) {
	gameID, playerID, err := pathPlayer(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid game or player id")
		return
	}

	var req struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	rec, err := s.service.RecordPlayerStatus(r.Context(), gameID, playerID, req.Status)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, rec)
}

func (s *Server) handleGetPlayerStatus(w http.ResponseWriter, r *http.Request) {
	gameID, playerID, err := pathPlayer(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid game or player id")
		return
	}

	rec, err := s.service.GetPlayerStatus(r.Context(), gameID, playerID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, rec)
}

// Catalog Handlers

func (s *Server) handleListCatalog(w http.ResponseWriter, r *http.Request) {
	games := s.service.ListDevelopedGames(r.Context())
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"count": len(games),
		"games": games,
	})
}

func (s *Server) handleGetGameInfo(w http.ResponseWriter, r *http.Request) {
	catalogID, err := pathID(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid catalog id")
		return
	}

	info, err := s.service.GetGameInfo(r.Context(), catalogID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, info)
}

// broadcast pushes a state update to WebSocket watchers of the game. The
// hub orders concurrent updates by the view's version.
func (s *Server) broadcast(view *service.SessionView) {
	if s.hub != nil {
		s.hub.BroadcastState(view)
	}
}

// WebSocket Handler

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	if s.hub == nil {
		http.Error(w, "websocket disabled", http.StatusNotFound)
		return
	}

	raw := r.URL.Query().Get("game")
	if raw == "" {
		http.Error(w, "game parameter required", http.StatusBadRequest)
		return
	}
	gameID, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		http.Error(w, "invalid game parameter", http.StatusBadRequest)
		return
	}

	// Verify game exists
	if s.service.GetGameState(r.Context(), gameID, 0).GameType == string(engine.Unknown) {
		http.Error(w, "game not found", http.StatusNotFound)
		return
	}

	s.hub.ServeWS(w, r, gameID)
}

// Health check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
	})
}
