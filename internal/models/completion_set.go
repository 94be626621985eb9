package models

import (
	"sort"

	json "github.com/goccy/go-json"

	"habitd/internal/week"
)

// CompletionSet is the set of calendar dates a habit was marked done on.
// JSON form is a sorted array of ISO dates so encodings are stable.
type CompletionSet map[string]struct{}

func NewCompletionSet(dates ...string) CompletionSet {
	s := make(CompletionSet, len(dates))
	for _, d := range dates {
		s[d] = struct{}{}
	}
	return s
}

func (s CompletionSet) Has(date string) bool {
	_, ok := s[date]
	return ok
}

func (s CompletionSet) Add(date string) {
	s[date] = struct{}{}
}

func (s CompletionSet) Remove(date string) {
	delete(s, date)
}

// Union returns a new set containing every date from either side.
// Neither argument is modified.
func (s CompletionSet) Union(other CompletionSet) CompletionSet {
	out := make(CompletionSet, len(s)+len(other))
	for d := range s {
		out[d] = struct{}{}
	}
	for d := range other {
		out[d] = struct{}{}
	}
	return out
}

func (s CompletionSet) Clone() CompletionSet {
	out := make(CompletionSet, len(s))
	for d := range s {
		out[d] = struct{}{}
	}
	return out
}

// Dates returns the sorted slice form used on the wire.
func (s CompletionSet) Dates() []string {
	out := make([]string, 0, len(s))
	for d := range s {
		out = append(out, d)
	}
	sort.Strings(out)
	return out
}

// CountIn counts how many of the given week's dates are present.
func (s CompletionSet) CountIn(dates [7]string) int {
	n := 0
	for _, d := range dates {
		if s.Has(d) {
			n++
		}
	}
	return n
}

func (s CompletionSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Dates())
}

// UnmarshalJSON accepts the array form and drops anything that is not a
// calendar date. A malformed payload yields an empty set, never an error.
func (s *CompletionSet) UnmarshalJSON(data []byte) error {
	*s = DecodeCompletions(data)
	return nil
}

// DecodeCompletions decodes a completion log from its wire form. The remote
// store returns the column as a JSON-encoded string of an array; direct
// clients post plain arrays. Both are accepted, invalid dates are dropped
// and undecodable payloads come back as an empty set.
func DecodeCompletions(data []byte) CompletionSet {
	var arr []string
	if err := json.Unmarshal(data, &arr); err != nil {
		var inner string
		if err := json.Unmarshal(data, &inner); err != nil {
			return CompletionSet{}
		}
		if err := json.Unmarshal([]byte(inner), &arr); err != nil {
			return CompletionSet{}
		}
	}
	out := make(CompletionSet, len(arr))
	for _, d := range arr {
		if week.ValidDate(d) {
			out[d] = struct{}{}
		}
	}
	return out
}
