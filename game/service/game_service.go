package service

import (
	"context"
	"errors"
	"time"

	"github.com/wricardo/mcp-training/arcade/game/catalog"
	"github.com/wricardo/mcp-training/arcade/game/engine"
)

var (
	ErrNotFound       = errors.New("game not found")
	ErrInvalidSession = errors.New("invalid session")
	ErrAlreadyExists  = errors.New("game already exists")
	ErrInvalidStatus  = errors.New("status must be 'Alive', 'Injured', or 'Dead'")
)

// GameService defines all game-related operations
type GameService interface {
	// Game lifecycle
	StartGame(ctx context.Context, gameType string, playerID int64) (*SessionView, error)
	PlayAction(ctx context.Context, gameID int64, action string, playerID int64) (*SessionView, error)
	GetGameState(ctx context.Context, gameID int64, playerID int64) *SessionView
	EndGame(ctx context.Context, gameID int64, playerID int64) bool

	// Sessions
	ListSessions(ctx context.Context) []*SessionView
	RestoreSession(ctx context.Context, view *SessionView) (*SessionView, error)

	// Catalog
	GetGameInfo(ctx context.Context, catalogID int64) (*catalog.GameInfo, error)
	ListDevelopedGames(ctx context.Context) []catalog.DevelopedGame

	// Player status
	RecordPlayerStatus(ctx context.Context, gameID int64, playerID int64, status string) (*PlayerStatus, error)
	GetPlayerStatus(ctx context.Context, gameID int64, playerID int64) (*PlayerStatus, error)
}

// SessionStore defines session storage operations
type SessionStore interface {
	Create(gameType string, playerID int64) *engine.Session
	Restore(sess *engine.Session) (*engine.Session, error)
	Get(id int64) (*engine.Session, error)
	Update(id int64, fn func(*engine.Session) error) (*engine.Session, error)
	Remove(id int64) (*engine.Session, bool)
	List() []*engine.Session
	// Now is the clock behind every timestamp the store writes
	Now() time.Time
}

// ActionApplier runs a raw action token against a session in place
type ActionApplier interface {
	Apply(s *engine.Session, raw string) error
}

// Catalog resolves catalog ids and lists the games this server ships
type Catalog interface {
	GetGameInfo(ctx context.Context, id int64) (*catalog.GameInfo, error)
	ListDevelopedGames() []catalog.DevelopedGame
}
