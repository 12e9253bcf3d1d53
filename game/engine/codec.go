package engine

import (
	"encoding/json"
	"fmt"
)

// MarshalData renders session data as a JSON object. Nil data renders "{}".
func MarshalData(d GameData) (string, error) {
	if d == nil {
		return "{}", nil
	}
	b, err := json.Marshal(d)
	if err != nil {
		return "", fmt.Errorf("failed to marshal %s data: %w", d.GameType(), err)
	}
	return string(b), nil
}

// UnmarshalData decodes JSON produced by MarshalData for the given game type
// and checks that it describes a reachable state.
func UnmarshalData(gt GameType, raw string) (GameData, error) {
	var d GameData
	switch gt {
	case ConnectFour:
		d = &ConnectFourData{}
	case HigherLower:
		d = &HigherLowerData{}
	case MemoryMatch:
		d = &MemoryMatchData{}
	default:
		return nil, fmt.Errorf("%w: unsupported game type %q", ErrInvalidArgument, gt)
	}

	if err := json.Unmarshal([]byte(raw), d); err != nil {
		return nil, fmt.Errorf("%w: failed to decode %s data: %v", ErrInvalidArgument, gt, err)
	}
	if err := validateData(d); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidArgument, err)
	}
	return d, nil
}

func validateData(d GameData) error {
	switch v := d.(type) {
	case *ConnectFourData:
		return validateConnectFour(v)
	case *HigherLowerData:
		if v.Current < cardMin || v.Current > cardMax || v.Next < cardMin || v.Next > cardMax {
			return fmt.Errorf("cards must be within [%d,%d]", cardMin, cardMax)
		}
		if v.Round < 1 {
			return fmt.Errorf("round must be positive")
		}
		if v.Streak < 0 {
			return fmt.Errorf("streak must not be negative")
		}
	case *MemoryMatchData:
		return validateMemoryMatch(v)
	}
	return nil
}

func validateConnectFour(d *ConnectFourData) error {
	if d.CurrentPlayer != PlayerRed && d.CurrentPlayer != PlayerYellow {
		return fmt.Errorf("currentPlayer must be %s or %s", PlayerRed, PlayerYellow)
	}

	red, yellow := 0, 0
	for i, c := range d.Board {
		switch c {
		case "":
			continue
		case PlayerRed:
			red++
		case PlayerYellow:
			yellow++
		default:
			return fmt.Errorf("invalid board mark %q", c)
		}
		if below := i + BoardCols; below < BoardCells && d.Board[below] == "" {
			return fmt.Errorf("disc at cell %d is floating", i)
		}
	}

	if red+yellow != d.Moves {
		return fmt.Errorf("moves=%d but board holds %d discs", d.Moves, red+yellow)
	}
	if red != yellow && red != yellow+1 {
		return fmt.Errorf("red has %d discs and yellow %d; red moves first and turns alternate", red, yellow)
	}
	if d.LastMoveCol < -1 || d.LastMoveCol >= BoardCols {
		return fmt.Errorf("lastMoveCol %d out of range", d.LastMoveCol)
	}
	if (d.Moves == 0) != (d.LastMoveCol == -1) {
		return fmt.Errorf("lastMoveCol %d does not fit %d moves", d.LastMoveCol, d.Moves)
	}

	toMove := PlayerRed
	if red > yellow {
		toMove = PlayerYellow
	}
	if d.CurrentPlayer != toMove {
		// the turn only stays with the last mover once the game is decided
		last := opponent(toMove)
		if !hasConnectFour(d, last) && d.Moves < BoardCells {
			return fmt.Errorf("currentPlayer %s but %s is to move", d.CurrentPlayer, toMove)
		}
	}
	return nil
}

func validateMemoryMatch(d *MemoryMatchData) error {
	counts := make(map[int]int)
	for _, c := range d.Cards {
		counts[c]++
	}
	for value := 1; value <= memoryPairs; value++ {
		if counts[value] != 2 {
			return fmt.Errorf("card %d must appear exactly twice", value)
		}
	}

	if len(d.Revealed) > 2 {
		return fmt.Errorf("at most two cards may be revealed")
	}

	seen := make(map[int]bool, MemoryCards)
	for _, idx := range append(copyInts(d.Revealed), d.Matched...) {
		if idx < 0 || idx >= MemoryCards {
			return fmt.Errorf("card index %d out of range", idx)
		}
		if seen[idx] {
			return fmt.Errorf("card index %d is listed more than once", idx)
		}
		seen[idx] = true
	}

	matchedValues := make(map[int]int)
	for _, idx := range d.Matched {
		matchedValues[d.Cards[idx]]++
	}
	for value, n := range matchedValues {
		if n != 2 {
			return fmt.Errorf("card %d is matched without its pair", value)
		}
	}
	if len(d.Revealed) == 2 && d.Cards[d.Revealed[0]] == d.Cards[d.Revealed[1]] {
		return fmt.Errorf("revealed cards %d and %d form an unmatched pair", d.Revealed[0], d.Revealed[1])
	}

	if d.Revealed == nil {
		d.Revealed = []int{}
	}
	if d.Matched == nil {
		d.Matched = []int{}
	}
	return nil
}
