// Package websocket provides WebSocket push updates for the arcade.
//
// The websocket package implements:
//   - Game-aware WebSocket connections
//   - State broadcasting after every successful action
//   - Notification when a game ends
//   - Connection lifecycle management
//
// Architecture:
//
// The package uses a hub-and-spoke model where a central Hub manages all
// WebSocket connections. The hub's map of clients is only touched by its own
// event loop; broadcasts are queued on a buffered channel and dropped with a
// warning if the queue is full.
//
// Message Protocol:
//
// Messages are JSON-encoded, one per frame:
//   - {"gameId": 7, "event": "state_update", "state": {...SessionView...}}
//   - {"gameId": 7, "event": "game_ended"}
//
// Incoming messages are ignored.
//
// Usage:
//
//	hub := websocket.NewHub("http://localhost:8080")
//	go hub.Run(ctx)
//
//	router.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
//		hub.ServeWS(w, r, gameID)
//	})
//
//	hub.BroadcastState(view)
package websocket
