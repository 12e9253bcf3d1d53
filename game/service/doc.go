// Package service provides the business logic layer for the arcade.
//
// The service package implements:
//   - Game lifecycle (StartGame, PlayAction, GetGameState, EndGame)
//   - Game type normalization and action dispatch
//   - Session projection to SessionView, including the JSON game data
//   - Restoring sessions from a previously produced SessionView
//   - Catalog lookups
//
// Core Interfaces:
//
// GameService is the main service interface used by every transport.
// SessionStore holds live sessions and serializes updates per session.
// ActionApplier runs one action token against a session.
// Catalog resolves catalog ids and lists the bundled games.
//
// Architecture:
//
// The service layer sits between the transport layer (HTTP/WebSocket/MCP) and
// the game engine. It never holds a lock of its own; every read-modify-write
// goes through SessionStore.Update so concurrent actions on one game are
// applied one at a time while different games proceed in parallel.
//
// Usage:
//
//	eng := engine.NewEngine(engine.NewRandom(seed))
//	games, _ := catalog.NewManager("", nil)
//	gameService := service.NewGameService(session.NewManager(eng), eng, games)
//
//	view, err := gameService.StartGame(ctx, "connectfour", playerID)
//	view, err = gameService.PlayAction(ctx, view.GameID, "drop_3", playerID)
//
// Absent games:
//
// GetGameState never fails. A game that does not exist (or has ended) is
// reported as a GameOver placeholder with game type "unknown" and the
// requested id. PlayAction on such a game returns ErrNotFound.
package service
