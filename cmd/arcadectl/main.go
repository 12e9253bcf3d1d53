// Command arcadectl drives a running arcade server from the terminal and
// validates catalog directories before they are deployed.
//
//	arcadectl start --type memorymatch
//	arcadectl play --game 1 flip_3
//	arcadectl state --game 1
//	arcadectl status --game 1 --player 2 --set Injured
//	arcadectl autoplay --type connectfour --attempts 3
//	arcadectl validate-catalog ./catalog
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v3"
	"github.com/wricardo/mcp-training/arcade/game/catalog"
)

const version = "1.0.0"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newApp().Run(ctx, os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func gameFlag() cli.Flag {
	return &cli.Int64Flag{
		Name:     "game",
		Aliases:  []string{"g"},
		Usage:    "game id returned by start",
		Required: true,
	}
}

func playerFlag() cli.Flag {
	return &cli.Int64Flag{
		Name:    "player",
		Aliases: []string{"p"},
		Usage:   "player id recorded with the request",
	}
}

// newApp builds the command tree
func newApp() *cli.Command {
	return &cli.Command{
		Name:    "arcadectl",
		Usage:   "Play and inspect arcade games over the REST API",
		Version: version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "url",
				Value:   "http://localhost:8080",
				Usage:   "arcade server base URL",
				Sources: cli.EnvVars("ARCADE_URL"),
			},
		},
		Commands: []*cli.Command{
			{
				Name:  "start",
				Usage: "Start a game",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "type",
						Aliases: []string{"t"},
						Value:   "connectfour",
						Usage:   "connectfour, higherlower or memorymatch",
					},
					playerFlag(),
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					var out json.RawMessage
					err := clientFor(cmd).call(ctx, "POST", "/api/games", map[string]interface{}{
						"gameType": cmd.String("type"),
						"playerId": cmd.Int64("player"),
					}, &out)
					if err != nil {
						return err
					}
					return printJSON(cmd.Root().Writer, out)
				},
			},
			{
				Name:      "play",
				Usage:     "Apply an action token to a game",
				ArgsUsage: "<action>",
				Flags:     []cli.Flag{gameFlag(), playerFlag()},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					action := cmd.Args().First()
					if action == "" {
						return fmt.Errorf("action is required")
					}

					var out json.RawMessage
					path := fmt.Sprintf("/api/games/%d/actions", cmd.Int64("game"))
					err := clientFor(cmd).call(ctx, "POST", path, map[string]interface{}{
						"action":   action,
						"playerId": cmd.Int64("player"),
					}, &out)
					if err != nil {
						return err
					}
					return printJSON(cmd.Root().Writer, out)
				},
			},
			{
				Name:  "state",
				Usage: "Show the state of a game",
				Flags: []cli.Flag{gameFlag(), playerFlag()},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					var out json.RawMessage
					path := fmt.Sprintf("/api/games/%d?playerId=%d", cmd.Int64("game"), cmd.Int64("player"))
					if err := clientFor(cmd).call(ctx, "GET", path, nil, &out); err != nil {
						return err
					}
					return printJSON(cmd.Root().Writer, out)
				},
			},
			{
				Name:  "end",
				Usage: "End a game",
				Flags: []cli.Flag{gameFlag(), playerFlag()},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					var out struct {
						Ended bool `json:"ended"`
					}
					path := fmt.Sprintf("/api/games/%d?playerId=%d", cmd.Int64("game"), cmd.Int64("player"))
					if err := clientFor(cmd).call(ctx, "DELETE", path, nil, &out); err != nil {
						return err
					}
					if !out.Ended {
						return fmt.Errorf("game %d is not running", cmd.Int64("game"))
					}
					fmt.Fprintf(cmd.Root().Writer, "game %d ended\n", cmd.Int64("game"))
					return nil
				},
			},
			{
				Name:  "status",
				Usage: "Show or record a player's Alive/Injured/Dead status in a game",
				Flags: []cli.Flag{
					gameFlag(),
					&cli.Int64Flag{Name: "player", Aliases: []string{"p"}, Required: true},
					&cli.StringFlag{Name: "set", Usage: "Alive, Injured or Dead"},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					var out json.RawMessage
					path := fmt.Sprintf("/api/games/%d/players/%d/status", cmd.Int64("game"), cmd.Int64("player"))
					var err error
					if set := cmd.String("set"); set != "" {
						err = clientFor(cmd).call(ctx, "PUT", path, map[string]string{"status": set}, &out)
					} else {
						err = clientFor(cmd).call(ctx, "GET", path, nil, &out)
					}
					if err != nil {
						return err
					}
					return printJSON(cmd.Root().Writer, out)
				},
			},
			{
				Name:  "list",
				Usage: "List live games",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					var out json.RawMessage
					if err := clientFor(cmd).call(ctx, "GET", "/api/games", nil, &out); err != nil {
						return err
					}
					return printJSON(cmd.Root().Writer, out)
				},
			},
			{
				Name:  "info",
				Usage: "Show storefront metadata for a catalog id",
				Flags: []cli.Flag{
					&cli.Int64Flag{Name: "catalog", Aliases: []string{"c"}, Required: true},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					var out json.RawMessage
					path := fmt.Sprintf("/api/catalog/%d", cmd.Int64("catalog"))
					if err := clientFor(cmd).call(ctx, "GET", path, nil, &out); err != nil {
						return err
					}
					return printJSON(cmd.Root().Writer, out)
				},
			},
			autoplayCommand(),
			{
				Name:      "validate-catalog",
				Usage:     "Validate every catalog file in a directory",
				ArgsUsage: "<dir>",
				Action:    validateCatalog,
			},
		},
	}
}

// validateCatalog reports each file and fails when any is invalid
func validateCatalog(ctx context.Context, cmd *cli.Command) error {
	dir := cmd.Args().First()
	if dir == "" {
		dir = "catalog"
	}

	results, err := catalog.ValidateDir(dir)
	if err != nil {
		return err
	}

	w := cmd.Root().Writer
	invalid := 0
	for _, r := range results {
		if r.Valid {
			fmt.Fprintf(w, "✅ %s\n", r.File)
			continue
		}
		invalid++
		fmt.Fprintf(w, "❌ %s\n", r.File)
		for _, e := range r.Errors {
			fmt.Fprintf(w, "   - %s\n", e)
		}
	}

	fmt.Fprintf(w, "\n%d file(s), %d invalid\n", len(results), invalid)
	if invalid > 0 {
		return fmt.Errorf("%d invalid catalog file(s)", invalid)
	}
	return nil
}

func printJSON(w io.Writer, raw json.RawMessage) error {
	var v interface{}
	if err := json.Unmarshal(raw, &v); err != nil {
		return err
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
