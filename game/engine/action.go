package engine

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrInvalidArgument reports a malformed action token
var ErrInvalidArgument = errors.New("invalid argument")

// Action verbs understood by the rule modules
const (
	VerbReset  = "reset"
	VerbNext   = "next"
	VerbHigher = "higher"
	VerbLower  = "lower"
	VerbDrop   = "drop"
	VerbFlip   = "flip"
)

// Action is a parsed action token such as "higher" or "drop_3"
type Action struct {
	Verb string
	Arg  int
}

func (a Action) String() string {
	if a.Verb == VerbDrop || a.Verb == VerbFlip {
		return fmt.Sprintf("%s_%d", a.Verb, a.Arg)
	}
	return a.Verb
}

// ParseAction parses an action token. Literal verbs carry no argument;
// "drop_<col>" and "flip_<idx>" carry an integer suffix.
func ParseAction(raw string) (Action, error) {
	token := strings.ToLower(strings.TrimSpace(raw))

	switch token {
	case VerbReset, VerbNext, VerbHigher, VerbLower:
		return Action{Verb: token}, nil
	case "":
		return Action{}, fmt.Errorf("%w: empty action", ErrInvalidArgument)
	}

	for _, verb := range []string{VerbDrop, VerbFlip} {
		prefix := verb + "_"
		if !strings.HasPrefix(token, prefix) {
			continue
		}
		n, err := strconv.Atoi(strings.TrimPrefix(token, prefix))
		if err != nil {
			return Action{}, fmt.Errorf("%w: %q has a non-integer suffix", ErrInvalidArgument, raw)
		}
		return Action{Verb: verb, Arg: n}, nil
	}

	return Action{}, fmt.Errorf("%w: unknown action %q", ErrInvalidArgument, raw)
}
