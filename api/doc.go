// Package api provides HTTP REST API handlers for the arcade server.
//
// Endpoints:
//
// Games:
//   - POST /api/games - Start a game, body {"gameType": "...", "playerId": 1}
//   - GET /api/games - List live games
//   - GET /api/games/{id} - Get game state (placeholder for absent games)
//   - POST /api/games/{id}/actions - Play an action, body {"action": "drop_3"}
//   - DELETE /api/games/{id} - End a game, returns {"ended": true|false}
//   - POST /api/games/restore - Re-insert a game from a previously returned view
//
// Player status:
//   - PUT /api/games/{id}/players/{playerId}/status - Record Alive, Injured or Dead, body {"status": "Injured"}
//   - GET /api/games/{id}/players/{playerId}/status - Get the last recorded status
//
// Catalog:
//   - GET /api/catalog - List the games this server ships
//   - GET /api/catalog/{id} - Get storefront metadata for a catalog id
//
// Other:
//   - GET /health - Liveness probe
//   - GET /ws?game={id} - WebSocket stream of state updates for a game. Each
//     view carries a version; updates older than one already sent are dropped.
//
// Usage:
//
//	hub := websocket.NewHub()
//	go hub.Run(ctx)
//	server := api.NewServer(gameService, hub)
//	http.ListenAndServe(":8080", server)
//
// Error Handling:
//
// Errors are returned as JSON with an HTTP status matching the failure:
// 400 for malformed input or an unknown player status, 404 for unknown
// games or unrecorded player statuses, 409 for a restore that
// collides with a live game.
//
//	{"error": "error message"}
package api
