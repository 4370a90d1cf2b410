// Package types contains common types used across the application
package types

import "strings"

// Direction tells whether a lower or higher metric is the better performance.
type Direction string

// Supported directions.
const (
	Higher Direction = "higher"
	Lower  Direction = "lower"
)

// Normalize maps unknown or empty values to Higher.
func (d Direction) Normalize() Direction {
	if Direction(strings.ToLower(strings.TrimSpace(string(d)))) == Lower {
		return Lower
	}
	return Higher
}

// IsLower reports whether lower values win.
func (d Direction) IsLower() bool { return d.Normalize() == Lower }

// ParseDirection parses "higher"/"lower" case-insensitively; ok is false for anything else.
func ParseDirection(s string) (Direction, bool) {
	switch Direction(strings.ToLower(strings.TrimSpace(s))) {
	case Higher:
		return Higher, true
	case Lower:
		return Lower, true
	}
	return Higher, false
}
