package engine

import "fmt"

const (
	cardMin = 1
	cardMax = 13

	higherLowerCorrectScore = 10
	higherLowerTieScore     = 2
	roundsPerLevel          = 5

	msgMakeGuess     = "Make a guess: Higher or Lower?"
	msgRoundResolved = "Round already resolved. Click Next."
	msgGuessFirst    = "Make a guess first."
	msgTieFormat     = "Tie! %d equals %d."
	msgCorrectFormat = "Correct! Next was %d."
	msgWrongFormat   = "Wrong! Next was %d."
)

// HigherLowerData is the payload of a Higher/Lower session
type HigherLowerData struct {
	Current  int    `json:"current"`
	Next     int    `json:"next"`
	Revealed bool   `json:"revealed"`
	Streak   int    `json:"streak"`
	Round    int    `json:"round"`
	Message  string `json:"message"`
}

// GameType implements GameData
func (d *HigherLowerData) GameType() GameType { return HigherLower }

// Clone implements GameData
func (d *HigherLowerData) Clone() GameData {
	c := *d
	return &c
}

// higherLowerRules implements Rules for Higher/Lower
type higherLowerRules struct{}

func (higherLowerRules) Type() GameType { return HigherLower }

func (higherLowerRules) New(rng Random) GameData {
	current := between(rng, cardMin, cardMax)
	next := between(rng, cardMin, cardMax)
	return &HigherLowerData{
		Current: current,
		Next:    next,
		Round:   1,
		Message: msgMakeGuess,
	}
}

func (r higherLowerRules) Apply(data GameData, p Progress, act Action, rng Random) (GameData, Progress) {
	d, ok := data.(*HigherLowerData)
	if !ok {
		return data, p
	}

	switch act.Verb {
	case VerbHigher, VerbLower:
		return r.guess(d, p, act.Verb)
	case VerbNext:
		return r.next(d, p, rng)
	case VerbReset:
		return r.New(rng), initialProgress()
	default:
		return d, p
	}
}

func (higherLowerRules) guess(d *HigherLowerData, p Progress, verb string) (GameData, Progress) {
	if d.Revealed {
		d.Message = msgRoundResolved
		return d, p
	}
	d.Revealed = true

	correct := (verb == VerbHigher && d.Next > d.Current) ||
		(verb == VerbLower && d.Next < d.Current)

	switch {
	case d.Next == d.Current:
		d.Message = fmt.Sprintf(msgTieFormat, d.Next, d.Current)
		p.Score += higherLowerTieScore
	case correct:
		d.Streak++
		p.Score += higherLowerCorrectScore
		d.Message = fmt.Sprintf(msgCorrectFormat, d.Next)
	default:
		d.Message = fmt.Sprintf(msgWrongFormat, d.Next)
		p.Status = StatusGameOver
	}

	return d, p
}

func (higherLowerRules) next(d *HigherLowerData, p Progress, rng Random) (GameData, Progress) {
	if !d.Revealed {
		d.Message = msgGuessFirst
		return d, p
	}

	d.Round++
	d.Current = d.Next
	d.Next = between(rng, cardMin, cardMax)
	d.Revealed = false
	d.Message = msgMakeGuess

	p.Level = max(1, (d.Round-1)/roundsPerLevel+1)
	return d, p
}
