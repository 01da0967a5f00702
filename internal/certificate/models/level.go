package models

import dErrors "oilcert/pkg/domain-errors"

// Level is the certification tier awarded to a restaurant. Tiers are ordered
// (None < Bronze < Silver < Gold) and independent of lifecycle status.
type Level string

const (
	LevelNone   Level = "none"
	LevelBronze Level = "bronze"
	LevelSilver Level = "silver"
	LevelGold   Level = "gold"
)

// levelOrder defines tier ordering for comparison. Higher numbers represent
// higher tiers.
var levelOrder = map[Level]int{
	LevelNone:   0,
	LevelBronze: 1,
	LevelSilver: 2,
	LevelGold:   3,
}

// ParseLevel constructs a Level from external input.
//
// Errors: returns CodeInvalidInput when the value is empty or unsupported.
func ParseLevel(s string) (Level, error) {
	if s == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "level cannot be empty")
	}
	l := Level(s)
	if !l.IsValid() {
		return "", dErrors.New(dErrors.CodeInvalidInput, "invalid level")
	}
	return l, nil
}

// IsValid checks if the level is one of the supported enum values.
func (l Level) IsValid() bool {
	_, ok := levelOrder[l]
	return ok
}

// IsAtLeast returns true if this level is >= other in tier order.
func (l Level) IsAtLeast(other Level) bool {
	thisOrder, thisOK := levelOrder[l]
	otherOrder, otherOK := levelOrder[other]
	return thisOK && otherOK && thisOrder >= otherOrder
}

// String returns the string representation of the level.
func (l Level) String() string {
	return string(l)
}
