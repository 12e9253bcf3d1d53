package engine

import (
	"strings"
	"time"
)

// GameType identifies which rule module drives a session
type GameType string

const (
	ConnectFour GameType = "connectfour"
	HigherLower GameType = "higherlower"
	MemoryMatch GameType = "memorymatch"

	// Unknown is only ever reported for sessions that no longer exist
	Unknown GameType = "unknown"

	// DefaultGameType is used for any unrecognized requested type
	DefaultGameType = ConnectFour
)

// Status is the lifecycle status of a session
type Status string

const (
	StatusPlaying  Status = "Playing"
	StatusWon      Status = "Won"
	StatusGameOver Status = "GameOver"
)

// IsTerminal reports whether no further action-driven transitions can occur
func (s Status) IsTerminal() bool {
	return s == StatusWon || s == StatusGameOver
}

// NormalizeGameType trims and lowercases a requested game type.
// Unrecognized values fall back to DefaultGameType.
func NormalizeGameType(raw string) GameType {
	switch gt := GameType(strings.ToLower(strings.TrimSpace(raw))); gt {
	case ConnectFour, HigherLower, MemoryMatch:
		return gt
	default:
		return DefaultGameType
	}
}

// GameData is the per-game payload of a session. Exactly one concrete
// implementation exists per GameType.
type GameData interface {
	GameType() GameType
	Clone() GameData
}

// Progress holds the fields a rule module may change besides its own data
type Progress struct {
	Status Status
	Score  int
	Level  int
}

// initialProgress is the progress of a fresh or reset session
func initialProgress() Progress {
	return Progress{Status: StatusPlaying, Score: 0, Level: 1}
}

// Session is one in-progress or concluded mini-game
type Session struct {
	ID          int64
	GameType    GameType
	PlayerID    int64
	Status      Status
	Score       int
	Level       int
	Data        GameData
	CreatedAt   time.Time
	LastUpdated time.Time
	// Version counts committed changes, starting at 1
	Version int64
}

// Progress returns the session's status, score and level
func (s *Session) Progress() Progress {
	return Progress{Status: s.Status, Score: s.Score, Level: s.Level}
}

// SetProgress copies status, score and level into the session
func (s *Session) SetProgress(p Progress) {
	s.Status = p.Status
	s.Score = p.Score
	s.Level = p.Level
}

// Clone returns a deep copy of the session
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	c := *s
	if s.Data != nil {
		c.Data = s.Data.Clone()
	}
	return &c
}
