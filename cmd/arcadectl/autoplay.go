package main

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/urfave/cli/v3"
	"github.com/wricardo/mcp-training/arcade/game/engine"
	"github.com/wricardo/mcp-training/arcade/game/service"
)

// strategy picks the next action token for a game
type strategy interface {
	Next(data engine.GameData) string
}

func newStrategy(gameType engine.GameType) strategy {
	switch gameType {
	case engine.HigherLower:
		return higherLowerStrategy{}
	case engine.MemoryMatch:
		return &memoryStrategy{seen: make(map[int]int)}
	default:
		return connectFourStrategy{}
	}
}

func autoplayCommand() *cli.Command {
	return &cli.Command{
		Name:  "autoplay",
		Usage: "Start a game and let a built-in strategy play it",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "type", Aliases: []string{"t"}, Value: "memorymatch"},
			&cli.IntFlag{Name: "attempts", Value: 1, Usage: "games to play; later attempts reset the same game"},
			&cli.IntFlag{Name: "max-moves", Value: 500, Usage: "maximum actions per attempt"},
			&cli.DurationFlag{Name: "delay", Usage: "pause between actions"},
			&cli.BoolFlag{Name: "keep", Usage: "leave the game running when done"},
			&cli.BoolFlag{Name: "verbose", Aliases: []string{"v"}},
		},
		Action: autoplay,
	}
}

func autoplay(ctx context.Context, cmd *cli.Command) error {
	client := clientFor(cmd)
	w := cmd.Root().Writer

	var view service.SessionView
	if err := client.call(ctx, "POST", "/api/games", map[string]interface{}{"gameType": cmd.String("type")}, &view); err != nil {
		return fmt.Errorf("failed to start game: %w", err)
	}
	fmt.Fprintf(w, "started game %d (%s)\n", view.GameID, view.GameType)

	if !cmd.Bool("keep") {
		defer client.call(context.WithoutCancel(ctx), "DELETE", fmt.Sprintf("/api/games/%d", view.GameID), nil, nil)
	}

	play := func(action string) error {
		path := fmt.Sprintf("/api/games/%d/actions", view.GameID)
		return client.call(ctx, "POST", path, map[string]string{"action": action}, &view)
	}

	best, wins := 0, 0
	for attempt := 1; attempt <= cmd.Int("attempts"); attempt++ {
		if attempt > 1 {
			if err := play("reset"); err != nil {
				return err
			}
		}

		gameType := engine.GameType(view.GameType)
		strat := newStrategy(gameType)
		moves := 0
		for view.Status == string(engine.StatusPlaying) && moves < cmd.Int("max-moves") {
			data, err := engine.UnmarshalData(gameType, view.GameDataJSON)
			if err != nil {
				return fmt.Errorf("failed to decode game data: %w", err)
			}

			action := strat.Next(data)
			if err := play(action); err != nil {
				return err
			}
			moves++

			if cmd.Bool("verbose") {
				fmt.Fprintf(w, "  %-8s score=%d level=%d status=%s\n", action, view.Score, view.Level, view.Status)
			}
			if d := cmd.Duration("delay"); d > 0 {
				select {
				case <-ctx.Done():
					return ctx.Err()
				case <-time.After(d):
				}
			}
		}

		fmt.Fprintf(w, "attempt %d: %s after %d actions, score %d, level %d\n",
			attempt, view.Status, moves, view.Score, view.Level)
		best = max(best, view.Score)
		if view.Status == string(engine.StatusWon) {
			wins++
		}
	}

	fmt.Fprintf(w, "best score %d, %d win(s)\n", best, wins)
	return nil
}

// higherLowerStrategy guesses toward the larger side of the deck
type higherLowerStrategy struct{}

func (higherLowerStrategy) Next(data engine.GameData) string {
	d, ok := data.(*engine.HigherLowerData)
	if !ok || d.Revealed {
		return engine.VerbNext
	}
	if d.Current <= 7 {
		return engine.VerbHigher
	}
	return engine.VerbLower
}

// memoryStrategy only uses card values it has seen face up
type memoryStrategy struct {
	seen map[int]int
}

func (s *memoryStrategy) Next(data engine.GameData) string {
	d, ok := data.(*engine.MemoryMatchData)
	if !ok {
		return engine.VerbNext
	}
	for _, idx := range d.Revealed {
		s.seen[idx] = d.Cards[idx]
	}
	if len(d.Revealed) >= 2 {
		return engine.VerbNext
	}

	open := func(idx int) bool {
		return !slices.Contains(d.Matched, idx) && !slices.Contains(d.Revealed, idx)
	}

	if len(d.Revealed) == 1 {
		value := d.Cards[d.Revealed[0]]
		for idx, v := range s.seen {
			if v == value && open(idx) {
				return flip(idx)
			}
		}
	} else {
		// a known pair first
		for a, va := range s.seen {
			for b, vb := range s.seen {
				if a != b && va == vb && open(a) && open(b) {
					return flip(a)
				}
			}
		}
	}

	for idx := 0; idx < engine.MemoryCards; idx++ {
		if _, known := s.seen[idx]; !known && open(idx) {
			return flip(idx)
		}
	}
	for idx := 0; idx < engine.MemoryCards; idx++ {
		if open(idx) {
			return flip(idx)
		}
	}
	return engine.VerbNext
}

func flip(idx int) string {
	return fmt.Sprintf("%s_%d", engine.VerbFlip, idx)
}

// connectFourStrategy plays both sides: win if possible, block if needed,
// otherwise prefer central columns
type connectFourStrategy struct{}

var columnPreference = []int{3, 2, 4, 1, 5, 0, 6}

func (connectFourStrategy) Next(data engine.GameData) string {
	d, ok := data.(*engine.ConnectFourData)
	if !ok {
		return engine.VerbReset
	}

	me := d.CurrentPlayer
	them := engine.PlayerYellow
	if me == engine.PlayerYellow {
		them = engine.PlayerRed
	}

	for _, player := range []string{me, them} {
		for _, col := range columnPreference {
			if row := landingRow(d, col); row >= 0 && completesFour(d, row, col, player) {
				return drop(col)
			}
		}
	}
	for _, col := range columnPreference {
		if landingRow(d, col) >= 0 {
			return drop(col)
		}
	}
	return drop(0)
}

func drop(col int) string {
	return fmt.Sprintf("%s_%d", engine.VerbDrop, col)
}

// landingRow is the row a disc dropped in col would occupy, or -1
func landingRow(d *engine.ConnectFourData, col int) int {
	for row := engine.BoardRows - 1; row >= 0; row-- {
		if d.Cell(row, col) == "" {
			return row
		}
	}
	return -1
}

// completesFour reports whether player placing at row, col makes four in a line
func completesFour(d *engine.ConnectFourData, row, col int, player string) bool {
	for _, dir := range [][2]int{{0, 1}, {1, 0}, {1, 1}, {1, -1}} {
		count := 1
		for _, sign := range []int{1, -1} {
			r, c := row+sign*dir[0], col+sign*dir[1]
			for d.Cell(r, c) == player {
				count++
				r, c = r+sign*dir[0], c+sign*dir[1]
			}
		}
		if count >= 4 {
			return true
		}
	}
	return false
}
