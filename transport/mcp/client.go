package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/wricardo/mcp-training/arcade/game/catalog"
	"github.com/wricardo/mcp-training/arcade/game/engine"
	"github.com/wricardo/mcp-training/arcade/game/service"
)

// Client is a thin MCP client that proxies to the REST API
type Client struct {
	baseURL    string
	httpClient *http.Client
	mcpServer  *server.MCPServer
}

// NewClient creates a new MCP client that calls the REST API
func NewClient(baseURL string, version string) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}

	c.initMCPServer(version)
	return c
}

// initMCPServer initializes the MCP server with all tools
func (c *Client) initMCPServer(version string) {
	c.mcpServer = server.NewMCPServer(
		"Arcade",
		version,
		server.WithToolCapabilities(true),
		server.WithInstructions(`Arcade - MCP Interface

This is a thin client that proxies all requests to the REST API server.

GAMES:
- connectfour: drop discs with drop_<col> (0-6); four in a row wins
- higherlower: guess "higher" or "lower", then "next" for a new card
- memorymatch: flip cards with flip_<idx> (0-15), "next" hides a mismatch

AVAILABLE TOOLS:
- start_game: Start a game and get its id
- play_action: Apply one action token to a game
- game_state: Get the current state of a game
- end_game: End a game and free it
- list_games: List live games
- game_info: Look up storefront metadata for a catalog id
- game_instructions: Get the rules and action tokens of every game

Every game accepts "reset" to start over at level 1.`),
	)

	// Register all tools
	c.registerTools()
}

func gameIDProperty() map[string]interface{} {
	return map[string]interface{}{
		"type":        "integer",
		"description": "Game ID returned by start_game",
	}
}

// registerTools registers all MCP tools
func (c *Client) registerTools() {
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "start_game",
		Description: "Start a new game. Unknown game types start Connect Four.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"game_type": map[string]interface{}{
					"type":        "string",
					"enum":        []string{"connectfour", "higherlower", "memorymatch"},
					"description": "Game to start",
				},
				"player_id": map[string]interface{}{
					"type":        "integer",
					"description": "Player starting the game (optional)",
				},
			},
		},
	}, c.handleStartGame)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "play_action",
		Description: "Apply an action to a game, e.g. drop_3, higher, lower, next, flip_5 or reset",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"game_id": gameIDProperty(),
				"action": map[string]interface{}{
					"type":        "string",
					"description": "Action token",
				},
				"player_id": map[string]interface{}{
					"type":        "integer",
					"description": "Player making the action (optional)",
				},
			},
			Required: []string{"game_id", "action"},
		},
	}, c.handlePlayAction)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "game_state",
		Description: "Get the current state of a game",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"game_id": gameIDProperty(),
			},
			Required: []string{"game_id"},
		},
	}, c.handleGameState)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "end_game",
		Description: "End a game and remove it from the server",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"game_id": gameIDProperty(),
			},
			Required: []string{"game_id"},
		},
	}, c.handleEndGame)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_games",
		Description: "List all live games",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleListGames)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "game_info",
		Description: "Get storefront metadata (title, price, URLs) for a catalog id",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"catalog_id": map[string]interface{}{
					"type":        "integer",
					"description": "Catalog ID, unrelated to game IDs",
				},
			},
			Required: []string{"catalog_id"},
		},
	}, c.handleGameInfo)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "record_player_status",
		Description: "Record whether a player is Alive, Injured or Dead in a game",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"game_id": gameIDProperty(),
				"player_id": map[string]interface{}{
					"type":        "integer",
					"description": "Player ID",
				},
				"status": map[string]interface{}{
					"type":        "string",
					"enum":        []string{service.PlayerAlive, service.PlayerInjured, service.PlayerDead},
					"description": "New status",
				},
			},
			Required: []string{"game_id", "player_id", "status"},
		},
	}, c.handleRecordPlayerStatus)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "player_status",
		Description: "Get the last status recorded for a player in a game",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"game_id": gameIDProperty(),
				"player_id": map[string]interface{}{
					"type":        "integer",
					"description": "Player ID",
				},
			},
			Required: []string{"game_id", "player_id"},
		},
	}, c.handlePlayerStatus)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "game_instructions",
		Description: "Get the rules and action tokens of every game",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleGameInstructions)
}

// GetMCPServer returns the underlying MCP server
func (c *Client) GetMCPServer() *server.MCPServer {
	return c.mcpServer
}

// HTTPHandler serves single JSON-RPC messages posted to the MCP endpoint
func (c *Client) HTTPHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		body, err := io.ReadAll(r.Body)
		if err != nil {
			http.Error(w, "Failed to read request", http.StatusBadRequest)
			return
		}
		defer r.Body.Close()

		response := c.mcpServer.HandleMessage(r.Context(), body)

		w.Header().Set("Content-Type", "application/json")
		responseData, err := json.Marshal(response)
		if err != nil {
			http.Error(w, "Failed to marshal response", http.StatusInternalServerError)
			return
		}
		w.Write(responseData)
	})
}

// apiCall makes an HTTP request to the REST API
func (c *Client) apiCall(ctx context.Context, method, path string, body interface{}, result interface{}) error {
	url := c.baseURL + path

	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reqBody = bytes.NewBuffer(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reqBody)
	if err != nil {
		return err
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var errResp map[string]string
		json.NewDecoder(resp.Body).Decode(&errResp)
		if msg, ok := errResp["error"]; ok {
			return fmt.Errorf("%s", msg)
		}
		return fmt.Errorf("API error: %d", resp.StatusCode)
	}

	if result != nil {
		return json.NewDecoder(resp.Body).Decode(result)
	}

	return nil
}

// intArg reads an integer argument; JSON numbers arrive as float64
func intArg(args map[string]interface{}, key string) (int64, bool) {
	switch v := args[key].(type) {
	case float64:
		return int64(v), true
	case int:
		return int64(v), true
	case int64:
		return v, true
	case json.Number:
		n, err := v.Int64()
		return n, err == nil
	default:
		return 0, false
	}
}

// Tool handlers

func (c *Client) handleStartGame(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	gameType, _ := args["game_type"].(string)
	playerID, _ := intArg(args, "player_id")

	body := map[string]interface{}{
		"gameType": gameType,
		"playerId": playerID,
	}

	var view service.SessionView
	if err := c.apiCall(ctx, "POST", "/api/games", body, &view); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result := fmt.Sprintf("Started game %d (%s)\n\n%s", view.GameID, view.GameType, formatView(&view))
	return mcp.NewToolResultText(result), nil
}

func (c *Client) handlePlayAction(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	gameID, ok := intArg(args, "game_id")
	if !ok {
		return mcp.NewToolResultError("game_id is required"), nil
	}
	action, _ := args["action"].(string)
	playerID, _ := intArg(args, "player_id")

	body := map[string]interface{}{
		"action":   action,
		"playerId": playerID,
	}

	var view service.SessionView
	if err := c.apiCall(ctx, "POST", fmt.Sprintf("/api/games/%d/actions", gameID), body, &view); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatView(&view)), nil
}

func (c *Client) handleGameState(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	gameID, ok := intArg(request.GetArguments(), "game_id")
	if !ok {
		return mcp.NewToolResultError("game_id is required"), nil
	}

	var view service.SessionView
	if err := c.apiCall(ctx, "GET", fmt.Sprintf("/api/games/%d", gameID), nil, &view); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatView(&view)), nil
}

func (c *Client) handleEndGame(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	gameID, ok := intArg(request.GetArguments(), "game_id")
	if !ok {
		return mcp.NewToolResultError("game_id is required"), nil
	}

	var response struct {
		Ended bool `json:"ended"`
	}
	if err := c.apiCall(ctx, "DELETE", fmt.Sprintf("/api/games/%d", gameID), nil, &response); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if !response.Ended {
		return mcp.NewToolResultText(fmt.Sprintf("Game %d was not running", gameID)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Game %d ended", gameID)), nil
}

func (c *Client) handleListGames(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var response struct {
		Count int                   `json:"count"`
		Games []service.SessionView `json:"games"`
	}

	if err := c.apiCall(ctx, "GET", "/api/games", nil, &response); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result := fmt.Sprintf("Live Games (%d):\n\n", response.Count)
	for _, g := range response.Games {
		result += fmt.Sprintf("- %d %s (%s, Score: %d, Level: %d, Updated: %s)\n",
			g.GameID, g.GameType, g.Status, g.Score, g.Level, g.LastUpdated.Format("15:04:05"))
	}

	return mcp.NewToolResultText(result), nil
}

func (c *Client) handleGameInfo(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	catalogID, ok := intArg(request.GetArguments(), "catalog_id")
	if !ok {
		return mcp.NewToolResultError("catalog_id is required"), nil
	}

	var info catalog.GameInfo
	if err := c.apiCall(ctx, "GET", fmt.Sprintf("/api/catalog/%d", catalogID), nil, &info); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result := fmt.Sprintf("%s (#%d)\n%s\nPrice: %.2f\n", info.Title, info.ID, info.Description, info.Price)
	if info.GameURL != "" {
		result += fmt.Sprintf("Play: %s\n", info.GameURL)
	}
	if info.ImageURL != "" {
		result += fmt.Sprintf("Image: %s\n", info.ImageURL)
	}
	return mcp.NewToolResultText(result), nil
}

func (c *Client) handleRecordPlayerStatus(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	gameID, ok := intArg(args, "game_id")
	if !ok {
		return mcp.NewToolResultError("game_id is required"), nil
	}
	playerID, ok := intArg(args, "player_id")
	if !ok {
		return mcp.NewToolResultError("player_id is required"), nil
	}
	status, _ := args["status"].(string)
	if status == "" {
		return mcp.NewToolResultError("status is required"), nil
	}

	var rec service.PlayerStatus
	path := fmt.Sprintf("/api/games/%d/players/%d/status", gameID, playerID)
	if err := c.apiCall(ctx, "PUT", path, map[string]string{"status": status}, &rec); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatPlayerStatus(&rec)), nil
}

func (c *Client) handlePlayerStatus(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	gameID, ok := intArg(args, "game_id")
	if !ok {
		return mcp.NewToolResultError("game_id is required"), nil
	}
	playerID, ok := intArg(args, "player_id")
	if !ok {
		return mcp.NewToolResultError("player_id is required"), nil
	}

	var rec service.PlayerStatus
	path := fmt.Sprintf("/api/games/%d/players/%d/status", gameID, playerID)
	if err := c.apiCall(ctx, "GET", path, nil, &rec); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatPlayerStatus(&rec)), nil
}

func formatPlayerStatus(rec *service.PlayerStatus) string {
	return fmt.Sprintf("Player %d in game %d: %s (recorded %s)",
		rec.PlayerID, rec.GameID, rec.Status, rec.RecordedAt.Format("15:04:05"))
}

func (c *Client) handleGameInstructions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	instructions := `# Arcade Instructions

Every game starts at status Playing, score 0, level 1. "reset" starts the
same game over. Malformed or unknown actions leave the game unchanged.

## Connect Four (connectfour)
- 6 rows x 7 columns; Red (R) moves first and players alternate.
- drop_<col> drops a disc into column 0-6. Full columns are ignored.
- Four in a row (any direction) wins: Won, score 100.
- A full board without a winner is GameOver.

## Higher / Lower (higherlower)
- Cards run from 1 to 13. Guess whether the next card is higher or lower.
- "higher"/"lower" reveal the next card. Correct: +10 and the streak grows.
  Equal cards: +2 and the streak is kept. Wrong: GameOver.
- "next" moves the revealed card into place and deals a new one.
- The level rises every 5 rounds.

## Memory Match (memorymatch)
- 16 face-down cards hold 8 pairs.
- flip_<idx> (0-15) reveals a card; a matching second card scores +15.
- A mismatch stays face up until "next" hides both cards.
- Clearing every pair wins with a +100 bonus. The level rises every 4 pairs.`

	return mcp.NewToolResultText(instructions), nil
}

// Formatting helpers

func formatView(view *service.SessionView) string {
	if view == nil {
		return "No game state available"
	}

	var result strings.Builder
	result.WriteString(fmt.Sprintf("Game %d | %s | Status: %s | Score: %d | Level: %d\n\n",
		view.GameID, view.GameType, view.Status, view.Score, view.Level))

	if view.GameType == string(engine.Unknown) {
		result.WriteString("Game not found")
		return result.String()
	}

	data, err := engine.UnmarshalData(engine.GameType(view.GameType), view.GameDataJSON)
	if err != nil {
		result.WriteString(view.GameDataJSON)
		return result.String()
	}

	switch d := data.(type) {
	case *engine.ConnectFourData:
		result.WriteString(formatBoard(d))
	case *engine.HigherLowerData:
		result.WriteString(formatHigherLower(d))
	case *engine.MemoryMatchData:
		result.WriteString(formatMemoryTable(d))
	}

	return result.String()
}

func formatBoard(d *engine.ConnectFourData) string {
	var result strings.Builder
	for col := 0; col < engine.BoardCols; col++ {
		result.WriteString(fmt.Sprintf("%d", col))
	}
	result.WriteString("\n")

	for row := 0; row < engine.BoardRows; row++ {
		for col := 0; col < engine.BoardCols; col++ {
			if cell := d.Cell(row, col); cell != "" {
				result.WriteString(cell)
			} else {
				result.WriteString(".")
			}
		}
		result.WriteString("\n")
	}

	result.WriteString(fmt.Sprintf("\nTo move: %s | Moves: %d\n", d.CurrentPlayer, d.Moves))
	return result.String()
}

func formatHigherLower(d *engine.HigherLowerData) string {
	next := "?"
	if d.Revealed {
		next = fmt.Sprintf("%d", d.Next)
	}
	return fmt.Sprintf("Current: %d | Next: %s | Streak: %d | Round: %d\nMessage: %s\n",
		d.Current, next, d.Streak, d.Round, d.Message)
}

func formatMemoryTable(d *engine.MemoryMatchData) string {
	shown := make(map[int]bool, len(d.Revealed)+len(d.Matched))
	for _, idx := range d.Revealed {
		shown[idx] = true
	}
	for _, idx := range d.Matched {
		shown[idx] = true
	}

	var result strings.Builder
	for i, card := range d.Cards {
		if shown[i] {
			result.WriteString(fmt.Sprintf("%3d", card))
		} else {
			result.WriteString("  #")
		}
		if (i+1)%4 == 0 {
			result.WriteString("\n")
		}
	}

	result.WriteString(fmt.Sprintf("\nPairs: %d/%d | Moves: %d\nMessage: %s\n",
		len(d.Matched)/2, engine.MemoryCards/2, d.Moves, d.Message))
	return result.String()
}
