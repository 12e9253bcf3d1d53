// Package mcp provides a Model Context Protocol front end for the arcade.
//
// The Client is a thin proxy: every tool call becomes a request against the
// REST API, so an MCP session sees exactly the games a browser would.
//
// MCP Tools:
//   - start_game: Start a game of a given type
//   - play_action: Apply one action token to a game
//   - game_state: Get the state of a game, rendered as text
//   - end_game: End a game
//   - list_games: List live games
//   - record_player_status: Record a player as Alive, Injured or Dead
//   - player_status: Get a player's last recorded status
//   - game_info: Storefront metadata for a catalog id
//   - game_instructions: Rules and action tokens
//
// Transport Modes:
//   - Stdio: server.ServeStdio(client.GetMCPServer())
//   - HTTP: mount client.HTTPHandler() at /mcp
//
// Usage:
//
//	client := mcp.NewClient("http://localhost:8080", version)
//	apiServer.Handle("/mcp", client.HTTPHandler())
package mcp
