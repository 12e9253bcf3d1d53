// Package engine provides the rule modules of the mini-game arcade.
//
// The engine package implements three single-player games:
//   - Connect Four: drop discs into a 6x7 board until four line up
//   - Higher/Lower: guess whether the next card (1-13) is higher or lower
//   - Memory Match: flip cards on a 4x4 table to find all eight pairs
//
// Core Types:
//
// Session is one game instance. Its Data field holds exactly one of
// ConnectFourData, HigherLowerData or MemoryMatchData, selected by GameType.
// Rules is the transition contract implemented by every game, and Engine
// dispatches a session to the rules matching its type.
//
// Usage:
//
//	eng := engine.NewEngine(engine.NewRandom(42))
//
//	sess := eng.NewSession("memorymatch", playerID)
//	if err := eng.Apply(sess, "flip_3"); err != nil {
//		// malformed token, session unchanged
//	}
//
// Actions:
//
// Actions are short tokens: "reset", "next", "higher", "lower", plus the
// parameterized "drop_<col>" and "flip_<idx>". Unknown game types fall back
// to Connect Four. Once a session reaches Won or GameOver every action is a
// no-op.
package engine
