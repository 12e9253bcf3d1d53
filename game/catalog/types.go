package catalog

import (
	"context"
	"errors"
	"time"
)

var (
	ErrGameNotFound   = errors.New("game not found")
	ErrInvalidCatalog = errors.New("invalid catalog")
)

// GameInfo describes a game as listed in the store
type GameInfo struct {
	ID          int64   `json:"id"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
	ImageURL    string  `json:"imageUrl"`
	GameURL     string  `json:"gameUrl"`
}

// DevelopedGame is a game shipped by this server together with its release metadata
type DevelopedGame struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Developer   string    `json:"developer"`
	Version     string    `json:"version"`
	GameURL     string    `json:"gameUrl"`
	GameType    string    `json:"gameType"`
	ReleaseDate time.Time `json:"releaseDate"`
	IsActive    bool      `json:"isActive"`
}

// Info projects a developed game onto the store listing shape
func (g DevelopedGame) Info() *GameInfo {
	return &GameInfo{
		ID:          g.ID,
		Title:       g.Title,
		Description: g.Description,
		GameURL:     g.GameURL,
	}
}

// Source resolves catalog ids. A nil result with a nil error is never
// returned; absent games are reported as ErrGameNotFound.
type Source interface {
	GetGame(ctx context.Context, id int64) (*GameInfo, error)
}

// builtinRelease is the release date reported for the bundled games
var builtinRelease = time.Date(2025, time.September, 1, 0, 0, 0, 0, time.UTC)

// builtinGames returns the games this server can actually run
func builtinGames() []DevelopedGame {
	return []DevelopedGame{
		{
			ID:          1,
			Title:       "Connect Four",
			Description: "Drop discs and connect four in a row. Two-player local mode.",
			Developer:   "Arcade Team",
			Version:     "1.0.0",
			GameURL:     "/games/connectfour",
			GameType:    "connectfour",
			ReleaseDate: builtinRelease,
			IsActive:    true,
		},
		{
			ID:          2,
			Title:       "Higher / Lower",
			Description: "Guess if the next number will be higher or lower. Build a streak!",
			Developer:   "Arcade Team",
			Version:     "1.0.0",
			GameURL:     "/games/higherlower",
			GameType:    "higherlower",
			ReleaseDate: builtinRelease,
			IsActive:    true,
		},
		{
			ID:          3,
			Title:       "Memory Match",
			Description: "Flip cards to find all matching pairs. Finish with fewer moves!",
			Developer:   "Arcade Team",
			Version:     "1.0.0",
			GameURL:     "/games/memorymatch",
			GameType:    "memorymatch",
			ReleaseDate: builtinRelease,
			IsActive:    true,
		},
	}
}
