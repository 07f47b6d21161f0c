package domain

import (
	"fmt"
	"strings"
)

// UserReaction is the user's feedback on a document.
type UserReaction uint8

// Available reactions.
const (
	Neutral UserReaction = iota
	Positive
	Negative
)

// IsValid returns true if the reaction is recognised.
func (r UserReaction) IsValid() bool {
	return r <= Negative
}

// String returns the lower case name of the reaction.
func (r UserReaction) String() string {
	switch r {
	case Neutral:
		return "neutral"
	case Positive:
		return "positive"
	case Negative:
		return "negative"
	default:
		return fmt.Sprintf("reaction(%d)", uint8(r))
	}
}

// ParseUserReaction accepts the names returned by String plus a few aliases.
func ParseUserReaction(s string) (UserReaction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "neutral", "none":
		return Neutral, nil
	case "positive", "like", "up":
		return Positive, nil
	case "negative", "dislike", "down":
		return Negative, nil
	default:
		return Neutral, fmt.Errorf("%w: unknown reaction %q", ErrInvalidInput, s)
	}
}
