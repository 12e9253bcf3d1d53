package engine

import "slices"

const (
	// MemoryCards is the number of cards on a Memory Match table (4x4)
	MemoryCards = 16
	memoryPairs = MemoryCards / 2

	memoryMatchScore = 15
	memoryWinScore   = 100
	pairsPerLevel    = 4

	msgFlipTwo     = "Flip two cards."
	msgMatch       = "Match!"
	msgNoMatch     = "No match. Click Next to continue."
	msgResolvePair = "Resolve the pair (Next)."
)

// MemoryMatchData is the payload of a Memory Match session.
// Revealed holds at most two face-up indices; Matched holds resolved indices.
type MemoryMatchData struct {
	Cards    [MemoryCards]int `json:"cards"`
	Revealed []int            `json:"revealed"`
	Matched  []int            `json:"matched"`
	Moves    int              `json:"moves"`
	Message  string           `json:"message"`
}

// GameType implements GameData
func (d *MemoryMatchData) GameType() GameType { return MemoryMatch }

// Clone implements GameData
func (d *MemoryMatchData) Clone() GameData {
	c := *d
	c.Revealed = copyInts(d.Revealed)
	c.Matched = copyInts(d.Matched)
	return &c
}

// memoryMatchRules implements Rules for Memory Match
type memoryMatchRules struct{}

func (memoryMatchRules) Type() GameType { return MemoryMatch }

func (memoryMatchRules) New(rng Random) GameData {
	values := make([]int, 0, MemoryCards)
	for v := 1; v <= memoryPairs; v++ {
		values = append(values, v, v)
	}
	shuffle(rng, values)

	d := &MemoryMatchData{
		Revealed: []int{},
		Matched:  []int{},
		Message:  msgFlipTwo,
	}
	copy(d.Cards[:], values)
	return d
}

func (r memoryMatchRules) Apply(data GameData, p Progress, act Action, rng Random) (GameData, Progress) {
	d, ok := data.(*MemoryMatchData)
	if !ok {
		return data, p
	}

	var next GameData = d
	switch act.Verb {
	case VerbFlip:
		next, p = r.flip(d, p, act.Arg)
	case VerbNext:
		d.Revealed = []int{}
		d.Message = msgFlipTwo
	case VerbReset:
		next, p = r.New(rng), initialProgress()
	}

	if m, ok := next.(*MemoryMatchData); ok {
		p.Level = max(1, len(m.Matched)/pairsPerLevel+1)
	}
	return next, p
}

func (memoryMatchRules) flip(d *MemoryMatchData, p Progress, idx int) (GameData, Progress) {
	if len(d.Revealed) >= 2 {
		d.Message = msgResolvePair
		return d, p
	}
	if idx < 0 || idx >= MemoryCards {
		return d, p
	}
	if slices.Contains(d.Matched, idx) || slices.Contains(d.Revealed, idx) {
		return d, p
	}

	d.Revealed = append(d.Revealed, idx)
	if len(d.Revealed) < 2 {
		return d, p
	}

	d.Moves++
	a, b := d.Revealed[0], d.Revealed[1]
	if d.Cards[a] != d.Cards[b] {
		d.Message = msgNoMatch
		return d, p
	}

	d.Matched = append(d.Matched, a, b)
	d.Revealed = []int{}
	d.Message = msgMatch
	p.Score += memoryMatchScore

	if len(d.Matched) >= MemoryCards {
		p.Status = StatusWon
		p.Score += memoryWinScore
	}
	return d, p
}

func copyInts(src []int) []int {
	dst := make([]int, len(src))
	copy(dst, src)
	return dst
}
