package engine

import (
	"fmt"
	"log/slog"
)

// Rules is the transition logic for one mini-game.
// Apply must not touch anything outside the returned data and progress.
type Rules interface {
	Type() GameType
	New(rng Random) GameData
	Apply(data GameData, p Progress, act Action, rng Random) (GameData, Progress)
}

// Engine dispatches sessions to their rule module
type Engine struct {
	rules map[GameType]Rules
	rng   Random
}

// NewEngine creates an engine with the three built-in games.
// A nil rng falls back to a time-seeded source.
func NewEngine(rng Random) *Engine {
	if rng == nil {
		rng = NewTimeSeededRandom()
	}

	e := &Engine{
		rules: make(map[GameType]Rules),
		rng:   rng,
	}
	for _, r := range []Rules{connectFourRules{}, higherLowerRules{}, memoryMatchRules{}} {
		e.rules[r.Type()] = r
	}
	return e
}

// rulesFor returns the rules for gt, falling back to the default game
func (e *Engine) rulesFor(gt GameType) Rules {
	if r, ok := e.rules[gt]; ok {
		return r
	}
	return e.rules[DefaultGameType]
}

// NewData normalizes a requested game type and builds its initial data
func (e *Engine) NewData(requested string) (GameType, GameData) {
	r := e.rulesFor(NormalizeGameType(requested))
	return r.Type(), r.New(e.rng)
}

// NewSession builds a fresh Playing session without an id
func (e *Engine) NewSession(requested string, playerID int64) *Session {
	gt, data := e.NewData(requested)
	s := &Session{
		GameType: gt,
		PlayerID: playerID,
		Data:     data,
	}
	s.SetProgress(initialProgress())
	return s
}

// Apply runs one action against s in place. Terminal sessions are left
// untouched. Malformed tokens return ErrInvalidArgument and leave s unchanged.
func (e *Engine) Apply(s *Session, raw string) error {
	if s.Status.IsTerminal() {
		return nil
	}

	act, err := ParseAction(raw)
	if err != nil {
		return err
	}

	r := e.rulesFor(s.GameType)
	data := s.Data
	if data == nil || data.GameType() != r.Type() {
		slog.Warn("session data does not match game type, reinitializing",
			"game_id", s.ID, "game_type", s.GameType)
		data = r.New(e.rng)
	}

	next, p := r.Apply(data, s.Progress(), act, e.rng)
	if next == nil {
		return fmt.Errorf("rules for %s returned no data", r.Type())
	}

	s.Data = next
	s.SetProgress(p)
	return nil
}
