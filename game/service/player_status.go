package service

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Player status values
const (
	PlayerAlive   = "Alive"
	PlayerInjured = "Injured"
	PlayerDead    = "Dead"
)

// PlayerStatus is the condition last recorded for a player in a game
type PlayerStatus struct {
	ID         int64     `json:"id"`
	GameID     int64     `json:"gameId"`
	PlayerID   int64     `json:"playerId"`
	Status     string    `json:"status"`
	RecordedAt time.Time `json:"recordedAt"`
}

type playerKey struct {
	gameID   int64
	playerID int64
}

// playerStatuses holds one record per (game, player)
type playerStatuses struct {
	mu      sync.Mutex
	records map[playerKey]*PlayerStatus
	lastID  int64
}

func newPlayerStatuses() *playerStatuses {
	return &playerStatuses{records: make(map[playerKey]*PlayerStatus)}
}

func validPlayerStatus(status string) bool {
	switch status {
	case PlayerAlive, PlayerInjured, PlayerDead:
		return true
	}
	return false
}

// RecordPlayerStatus stores a player's status for a game, replacing any
// earlier record in place. The game id is not required to be live.
func (s *gameServiceImpl) RecordPlayerStatus(ctx context.Context, gameID int64, playerID int64, status string) (*PlayerStatus, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !validPlayerStatus(status) {
		return nil, fmt.Errorf("%w: got %q", ErrInvalidStatus, status)
	}

	st := s.statuses
	st.mu.Lock()
	defer st.mu.Unlock()

	key := playerKey{gameID: gameID, playerID: playerID}
	rec, ok := st.records[key]
	if !ok {
		st.lastID++
		rec = &PlayerStatus{ID: st.lastID, GameID: gameID, PlayerID: playerID}
		st.records[key] = rec
	}
	rec.Status = status
	rec.RecordedAt = s.sessions.Now()

	s.logger.Info("player status recorded",
		"game_id", gameID, "player_id", playerID, "status", status, "record_id", rec.ID)

	copied := *rec
	return &copied, nil
}

// GetPlayerStatus returns the last status recorded for a player in a game
func (s *gameServiceImpl) GetPlayerStatus(ctx context.Context, gameID int64, playerID int64) (*PlayerStatus, error) {
	st := s.statuses
	st.mu.Lock()
	defer st.mu.Unlock()

	rec, ok := st.records[playerKey{gameID: gameID, playerID: playerID}]
	if !ok {
		return nil, fmt.Errorf("%w: no status for player %d in game %d", ErrNotFound, playerID, gameID)
	}
	copied := *rec
	return &copied, nil
}
