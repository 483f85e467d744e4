// Package menu defines the relationship menu model: preference levels, items,
// ordered groups, and the persisted document that carries an encoded menu.
package menu

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Preference is the level a person assigns to a single menu item. The zero
// value NoPreference means nothing has been recorded yet.
type Preference string

// Preference levels, in the order they are presented to users.
const (
	NoPreference Preference = ""
	MustHave     Preference = "must-have"
	LikeToHave   Preference = "like-to-have"
	Maybe        Preference = "maybe"
	OffLimits    Preference = "off-limits"
)

// ErrUnknownPreference is returned when a string is not one of the four
// preference literals.
var ErrUnknownPreference = errors.New("unknown preference")

// Preferences returns the four recordable preference levels in rank order.
func Preferences() []Preference {
	return []Preference{MustHave, LikeToHave, Maybe, OffLimits}
}

// ParsePreference converts a wire literal into a Preference. The empty string
// maps to NoPreference; anything other than the four literals is rejected.
// Matching is exact: no case folding or synonyms.
func ParsePreference(s string) (Preference, error) {
	p := Preference(s)
	if p == NoPreference || p.Valid() {
		return p, nil
	}
	return NoPreference, fmt.Errorf("%w: %q", ErrUnknownPreference, s)
}

// Valid reports whether p is one of the four recordable levels.
func (p Preference) Valid() bool {
	switch p {
	case MustHave, LikeToHave, Maybe, OffLimits:
		return true
	}
	return false
}

// IsSet reports whether a preference has been recorded.
func (p Preference) IsSet() bool {
	return p != NoPreference
}

// String returns the wire literal, or "unknown" when no preference is set.
func (p Preference) String() string {
	if p == NoPreference {
		return "unknown"
	}
	return string(p)
}

// MarshalJSON encodes NoPreference as null and every other level as its
// literal string.
func (p Preference) MarshalJSON() ([]byte, error) {
	if p == NoPreference {
		return []byte("null"), nil
	}
	if !p.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownPreference, string(p))
	}
	return json.Marshal(string(p))
}

// UnmarshalJSON accepts null (no preference) or one of the four literals.
func (p *Preference) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*p = NoPreference
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("preference: %w", err)
	}
	if s == "" {
		// An empty string is not a wire value; absence is null or an omitted key.
		return fmt.Errorf("%w: %q", ErrUnknownPreference, s)
	}
	parsed, err := ParsePreference(s)
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

// MarshalYAML renders NoPreference as a YAML null.
func (p Preference) MarshalYAML() (any, error) {
	if p == NoPreference {
		return nil, nil
	}
	return string(p), nil
}
