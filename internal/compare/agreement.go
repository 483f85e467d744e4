package compare

import "github.com/papapumpkin/relmenu/internal/menu"

// Agreement classifies how the recorded preferences in a row relate.
type Agreement int

const (
	AgreementNone  Agreement = iota // fewer than two columns recorded a preference
	AgreementMatch                  // every recorded preference is the same
	AgreementMixed                  // recorded preferences differ
)

// String returns a lower-case label for a.
func (a Agreement) String() string {
	switch a {
	case AgreementMatch:
		return "match"
	case AgreementMixed:
		return "mixed"
	default:
		return "none"
	}
}

// Agreement reports how the row's recorded preferences relate. Unset slots are
// ignored.
func (r Row) Agreement() Agreement {
	var first menu.Preference
	set := 0
	for _, v := range r.Values {
		if !v.IsSet() {
			continue
		}
		set++
		if set == 1 {
			first = v
			continue
		}
		if v != first {
			return AgreementMixed
		}
	}
	if set < 2 {
		return AgreementNone
	}
	return AgreementMatch
}

// HasConflict reports whether one column marked the row must-have while
// another marked it off-limits.
func (r Row) HasConflict() bool {
	var must, off bool
	for _, v := range r.Values {
		switch v {
		case menu.MustHave:
			must = true
		case menu.OffLimits:
			off = true
		}
	}
	return must && off
}

// Summary counts rows by agreement across the whole table.
type Summary struct {
	Rows      int `json:"rows" yaml:"rows"`
	Matches   int `json:"matches" yaml:"matches"`
	Mixed     int `json:"mixed" yaml:"mixed"`
	Conflicts int `json:"conflicts" yaml:"conflicts"`
}

// Summarize tallies every row of t.
func (t *Table) Summarize() Summary {
	var s Summary
	for _, g := range t.groups {
		for _, r := range g.Rows {
			s.Rows++
			switch r.Agreement() {
			case AgreementMatch:
				s.Matches++
			case AgreementMixed:
				s.Mixed++
			}
			if r.HasConflict() {
				s.Conflicts++
			}
		}
	}
	return s
}
