package service

import (
	"time"

	"github.com/wricardo/mcp-training/arcade/game/engine"
)

// SessionView is the outward projection of a session
type SessionView struct {
	GameID       int64     `json:"gameId"`
	GameType     string    `json:"gameType"`
	Status       string    `json:"status"`
	Score        int       `json:"score"`
	Level        int       `json:"level"`
	GameDataJSON string    `json:"gameDataJson"`
	LastUpdated  time.Time `json:"lastUpdated"`
	// Version increases with every committed change to the game
	Version int64 `json:"version"`
}

// IsTerminal reports whether the viewed session can no longer change
func (v *SessionView) IsTerminal() bool {
	return engine.Status(v.Status).IsTerminal()
}

// placeholderView is what an absent session looks like from the outside
func placeholderView(id int64, now time.Time) *SessionView {
	return &SessionView{
		GameID:       id,
		GameType:     string(engine.Unknown),
		Status:       string(engine.StatusGameOver),
		Score:        0,
		Level:        1,
		GameDataJSON: "{}",
		LastUpdated:  now,
	}
}
