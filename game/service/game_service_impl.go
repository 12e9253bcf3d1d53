package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"disorder.dev/shandler"
	"github.com/wricardo/mcp-training/arcade/game/catalog"
	"github.com/wricardo/mcp-training/arcade/game/engine"
	"github.com/wricardo/mcp-training/arcade/game/session"
)

// errUnchanged aborts a store update without it being reported as a failure
var errUnchanged = errors.New("session unchanged")

// gameServiceImpl implements the GameService interface
type gameServiceImpl struct {
	sessions SessionStore
	rules    ActionApplier
	games    Catalog
	logger   *slog.Logger
	statuses *playerStatuses
}

// Option customizes a game service
type Option func(*gameServiceImpl)

// WithLogger sets the logger used for game lifecycle events
func WithLogger(logger *slog.Logger) Option {
	return func(s *gameServiceImpl) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewGameService creates a new game service instance. games may be nil,
// in which case every catalog lookup reports catalog.ErrGameNotFound.
func NewGameService(sessions SessionStore, rules ActionApplier, games Catalog, opts ...Option) GameService {
	s := &gameServiceImpl{
		sessions: sessions,
		rules:    rules,
		games:    games,
		logger:   slog.Default(),
		statuses: newPlayerStatuses(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// StartGame creates a session for the requested game type. Unknown types
// start a Connect Four game.
func (s *gameServiceImpl) StartGame(ctx context.Context, gameType string, playerID int64) (*SessionView, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	sess := s.sessions.Create(gameType, playerID)

	s.logger.Info("game started",
		"game_id", sess.ID,
		"game_type", sess.GameType,
		"requested_type", gameType,
		"player_id", playerID)

	return s.toView(sess), nil
}

// PlayAction applies one action token to a live session
func (s *gameServiceImpl) PlayAction(ctx context.Context, gameID int64, action string, playerID int64) (*SessionView, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if gameID <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrNotFound, gameID)
	}

	sess, err := s.sessions.Update(gameID, func(sess *engine.Session) error {
		if sess.Status.IsTerminal() {
			return errUnchanged
		}

		id, gameType := sess.ID, sess.GameType
		if err := s.rules.Apply(sess, action); err != nil {
			if !errors.Is(err, engine.ErrInvalidArgument) {
				return err
			}
			s.logger.Debug("ignoring malformed action",
				"game_id", gameID, "action", action, "error", err)
		}

		sess.ID, sess.GameType = id, gameType
		sess.LastUpdated = s.sessions.Now()
		return nil
	})

	switch {
	case err == nil, errors.Is(err, errUnchanged):
	case errors.Is(err, session.ErrSessionNotFound):
		return nil, fmt.Errorf("%w: %w", ErrNotFound, err)
	default:
		return nil, fmt.Errorf("failed to play action %q on game %d: %w", action, gameID, err)
	}

	s.logger.Log(ctx, shandler.LevelTrace, "action applied",
		"game_id", sess.ID,
		"game_type", sess.GameType,
		"action", action,
		"player_id", playerID,
		"status", sess.Status,
		"score", sess.Score)

	if sess.Status.IsTerminal() && !errors.Is(err, errUnchanged) {
		s.logger.Info("game finished",
			"game_id", sess.ID, "game_type", sess.GameType, "status", sess.Status, "score", sess.Score)
	}

	return s.toView(sess), nil
}

// GetGameState returns the current view of a session. Absent sessions are
// reported as a terminal placeholder carrying the requested id.
func (s *gameServiceImpl) GetGameState(ctx context.Context, gameID int64, playerID int64) *SessionView {
	sess, err := s.sessions.Get(gameID)
	if err != nil {
		s.logger.Debug("state requested for absent game", "game_id", gameID, "player_id", playerID)
		return placeholderView(gameID, s.sessions.Now())
	}
	return s.toView(sess)
}

// EndGame removes a session, reporting whether it existed
func (s *gameServiceImpl) EndGame(ctx context.Context, gameID int64, playerID int64) bool {
	sess, ok := s.sessions.Remove(gameID)
	if !ok {
		return false
	}

	s.logger.Info("game ended",
		"game_id", gameID,
		"game_type", sess.GameType,
		"player_id", playerID,
		"score", sess.Score)
	return true
}

// ListSessions returns views of every live session ordered by id
func (s *gameServiceImpl) ListSessions(ctx context.Context) []*SessionView {
	sessions := s.sessions.List()
	result := make([]*SessionView, 0, len(sessions))
	for _, sess := range sessions {
		result = append(result, s.toView(sess))
	}
	return result
}

// RestoreSession inserts a session described by a previously produced view
func (s *gameServiceImpl) RestoreSession(ctx context.Context, view *SessionView) (*SessionView, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	sess, err := sessionFromView(view)
	if err != nil {
		return nil, err
	}

	restored, err := s.sessions.Restore(sess)
	switch {
	case errors.Is(err, session.ErrSessionAlreadyExists):
		return nil, fmt.Errorf("%w: %d", ErrAlreadyExists, sess.ID)
	case errors.Is(err, session.ErrInvalidSessionID):
		return nil, fmt.Errorf("%w: %w", ErrInvalidSession, err)
	case err != nil:
		return nil, fmt.Errorf("failed to restore game %d: %w", sess.ID, err)
	}

	s.logger.Info("game restored", "game_id", restored.ID, "game_type", restored.GameType)
	return s.toView(restored), nil
}

// GetGameInfo resolves a catalog id. Catalog ids are unrelated to game ids.
func (s *gameServiceImpl) GetGameInfo(ctx context.Context, catalogID int64) (*catalog.GameInfo, error) {
	if s.games == nil {
		return nil, catalog.ErrGameNotFound
	}
	return s.games.GetGameInfo(ctx, catalogID)
}

// ListDevelopedGames returns the games this server ships
func (s *gameServiceImpl) ListDevelopedGames(ctx context.Context) []catalog.DevelopedGame {
	if s.games == nil {
		return []catalog.DevelopedGame{}
	}
	return s.games.ListDevelopedGames()
}

// toView projects a session snapshot
func (s *gameServiceImpl) toView(sess *engine.Session) *SessionView {
	data, err := engine.MarshalData(sess.Data)
	if err != nil {
		s.logger.Error("failed to encode game data", "game_id", sess.ID, "error", err)
		data = "{}"
	}

	return &SessionView{
		GameID:       sess.ID,
		GameType:     string(sess.GameType),
		Status:       string(sess.Status),
		Score:        sess.Score,
		Level:        sess.Level,
		GameDataJSON: data,
		LastUpdated:  sess.LastUpdated,
		Version:      sess.Version,
	}
}

// sessionFromView validates a view and decodes it back into a session
func sessionFromView(view *SessionView) (*engine.Session, error) {
	if view == nil {
		return nil, fmt.Errorf("%w: empty view", ErrInvalidSession)
	}

	gameType := engine.GameType(strings.ToLower(strings.TrimSpace(view.GameType)))
	if engine.NormalizeGameType(string(gameType)) != gameType {
		return nil, fmt.Errorf("%w: unknown game type %q", ErrInvalidSession, view.GameType)
	}

	status := engine.Status(view.Status)
	switch status {
	case engine.StatusPlaying, engine.StatusWon, engine.StatusGameOver:
	default:
		return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidSession, view.Status)
	}

	if view.Score < 0 || view.Level < 1 {
		return nil, fmt.Errorf("%w: score %d, level %d", ErrInvalidSession, view.Score, view.Level)
	}
	if view.Version < 0 {
		return nil, fmt.Errorf("%w: version %d", ErrInvalidSession, view.Version)
	}

	data, err := engine.UnmarshalData(gameType, view.GameDataJSON)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidSession, err)
	}

	sess := &engine.Session{
		ID:          view.GameID,
		GameType:    gameType,
		Data:        data,
		LastUpdated: view.LastUpdated,
		Version:     view.Version,
	}
	sess.SetProgress(engine.Progress{Status: status, Score: view.Score, Level: view.Level})
	return sess, nil
}
