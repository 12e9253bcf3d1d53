package engine

// Board geometry for Connect Four
const (
	BoardRows  = 6
	BoardCols  = 7
	BoardCells = BoardRows * BoardCols

	PlayerRed    = "R"
	PlayerYellow = "Y"

	connectFourWinScore = 100
	connectLength       = 4
)

// ConnectFourData is the payload of a Connect Four session.
// Board is row-major with row 0 at the top; empty cells are "".
type ConnectFourData struct {
	Board         [BoardCells]string `json:"board"`
	CurrentPlayer string             `json:"currentPlayer"`
	Moves         int                `json:"moves"`
	LastMoveCol   int                `json:"lastMoveCol"`
}

// GameType implements GameData
func (d *ConnectFourData) GameType() GameType { return ConnectFour }

// Clone implements GameData
func (d *ConnectFourData) Clone() GameData {
	c := *d
	return &c
}

// Cell returns the mark at row, col or "" when out of bounds
func (d *ConnectFourData) Cell(row, col int) string {
	if row < 0 || row >= BoardRows || col < 0 || col >= BoardCols {
		return ""
	}
	return d.Board[row*BoardCols+col]
}

// connectFourRules implements Rules for Connect Four
type connectFourRules struct{}

func (connectFourRules) Type() GameType { return ConnectFour }

func (connectFourRules) New(Random) GameData {
	return &ConnectFourData{
		CurrentPlayer: PlayerRed,
		LastMoveCol:   -1,
	}
}

func (r connectFourRules) Apply(data GameData, p Progress, act Action, rng Random) (GameData, Progress) {
	d, ok := data.(*ConnectFourData)
	if !ok {
		return data, p
	}

	switch act.Verb {
	case VerbDrop:
		return r.drop(d, p, act.Arg)
	case VerbReset:
		return r.New(rng), initialProgress()
	default:
		return d, p
	}
}

func (connectFourRules) drop(d *ConnectFourData, p Progress, col int) (GameData, Progress) {
	if col < 0 || col >= BoardCols {
		return d, p
	}

	idx := dropIndex(d, col)
	if idx < 0 {
		return d, p
	}

	player := d.CurrentPlayer
	if player != PlayerRed && player != PlayerYellow {
		player = PlayerRed
	}

	d.Board[idx] = player
	d.Moves++
	d.LastMoveCol = col

	switch {
	case hasConnectFour(d, player):
		p.Status = StatusWon
		p.Score += connectFourWinScore
	case d.Moves >= BoardCells:
		p.Status = StatusGameOver
	default:
		d.CurrentPlayer = opponent(player)
	}

	return d, p
}

// dropIndex returns the lowest empty cell of col, or -1 when the column is full
func dropIndex(d *ConnectFourData, col int) int {
	for row := BoardRows - 1; row >= 0; row-- {
		idx := row*BoardCols + col
		if d.Board[idx] == "" {
			return idx
		}
	}
	return -1
}

// hasConnectFour scans the whole board for four contiguous marks of player
func hasConnectFour(d *ConnectFourData, player string) bool {
	directions := [][2]int{
		{0, 1},  // horizontal
		{1, 0},  // vertical
		{1, 1},  // diagonal down-right
		{-1, 1}, // diagonal up-right
	}

	for row := 0; row < BoardRows; row++ {
		for col := 0; col < BoardCols; col++ {
			if d.Cell(row, col) != player {
				continue
			}
			for _, dir := range directions {
				if countInDirection(d, row, col, dir[0], dir[1], player) >= connectLength {
					return true
				}
			}
		}
	}
	return false
}

func countInDirection(d *ConnectFourData, row, col, dRow, dCol int, player string) int {
	count := 0
	for d.Cell(row, col) == player {
		count++
		row += dRow
		col += dCol
	}
	return count
}

func opponent(player string) string {
	if player == PlayerRed {
		return PlayerYellow
	}
	return PlayerRed
}
