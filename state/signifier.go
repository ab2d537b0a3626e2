// Copyright (c) 2024 Blockwatch Data Inc.
// Author: alex@blockwatch.cc

package state

// Signifier reduces a set of states, e.g. those of several sub devices, to
// the most significant one. Significance follows a trump list where later
// entries win; a state ranks like its closest listed ancestor.
type Signifier struct {
	trump []State
}

// NewSignifier builds the default trump list. staticMore selects which of
// ACTIVE and PASSIVE wins, changingMore which of INCREASING and DECREASING.
func NewSignifier(staticMore, changingMore State) *Signifier {
	list := []State{Disabled}
	if staticMore == Active {
		list = append(list, Passive, Active)
	} else {
		list = append(list, Active, Passive)
	}
	list = append(list, Static, Running, Paused, Changing)
	if changingMore == Increasing {
		list = append(list, Decreasing, Increasing)
	} else {
		list = append(list, Increasing, Decreasing)
	}
	list = append(list, Interlocked, Error, Init, Unknown)
	return &Signifier{trump: list}
}

// DefaultSignifier prefers PASSIVE over ACTIVE and DECREASING over INCREASING.
func DefaultSignifier() *Signifier {
	return NewSignifier(Passive, Decreasing)
}

// NewSignifierList uses a custom trump list ordered from least to most
// significant.
func NewSignifierList(trump ...State) *Signifier {
	if len(trump) == 0 {
		return DefaultSignifier()
	}
	return &Signifier{trump: append([]State{}, trump...)}
}

func (s *Signifier) rank(x State) int {
	for c := x; c != ""; c = c.Parent() {
		for i := len(s.trump) - 1; i >= 0; i-- {
			if s.trump[i] == c {
				return i
			}
		}
	}
	return -1
}

// MostSignificant returns the highest ranked state of list. On equal rank
// the more general state wins, then the earlier one. An empty list yields
// UNKNOWN.
func (s *Signifier) MostSignificant(list []State) State {
	if len(list) == 0 {
		return Unknown
	}
	best, bestRank, bestDepth := list[0], s.rank(list[0]), len(list[0].Ancestors())
	for _, x := range list[1:] {
		r, d := s.rank(x), len(x.Ancestors())
		if r > bestRank || (r == bestRank && d < bestDepth) {
			best, bestRank, bestDepth = x, r, d
		}
	}
	return best
}
