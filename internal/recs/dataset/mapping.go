package dataset

import (
	"fmt"
	"sort"
)

// Mappings is the bijection between external entity ids (rendered as their
// stable string form) and dense zero-based internal indices. Indices are
// assigned in ascending sorted order of the external representation, so a
// rebuild over the same entity universe always produces the same bijection.
// Mappings are rebuilt, never patched, whenever the universe changes.
type Mappings struct {
	UserIndex  map[string]int
	MovieIndex map[string]int
	// Inverse lookups, position = internal index.
	UserIDs  []string
	MovieIDs []string
}

// BuildMappings assigns internal indices for both entity types. Duplicate
// input ids collapse; the movie side is verified against the input universe
// and a count mismatch is ErrMappingIncomplete.
func BuildMappings(userIDs, movieIDs []string) (*Mappings, error) {
	m := &Mappings{
		UserIndex:  make(map[string]int, len(userIDs)),
		MovieIndex: make(map[string]int, len(movieIDs)),
		UserIDs:    dedupeSorted(userIDs),
		MovieIDs:   dedupeSorted(movieIDs),
	}
	for i, id := range m.UserIDs {
		m.UserIndex[id] = i
	}
	for i, id := range m.MovieIDs {
		m.MovieIndex[id] = i
	}

	if len(m.MovieIndex) != len(m.MovieIDs) {
		return nil, fmt.Errorf("%w: %d movie ids produced %d indices",
			ErrMappingIncomplete, len(m.MovieIDs), len(m.MovieIndex))
	}
	if len(m.UserIndex) != len(m.UserIDs) {
		return nil, fmt.Errorf("%w: %d user ids produced %d indices",
			ErrMappingIncomplete, len(m.UserIDs), len(m.UserIndex))
	}
	return m, nil
}

func (m *Mappings) NumUsers() int  { return len(m.UserIDs) }
func (m *Mappings) NumMovies() int { return len(m.MovieIDs) }

func (m *Mappings) UserIndexOf(id string) (int, bool) {
	idx, ok := m.UserIndex[id]
	return idx, ok
}

func (m *Mappings) MovieIndexOf(id string) (int, bool) {
	idx, ok := m.MovieIndex[id]
	return idx, ok
}

// MovieIDAt reverses an internal movie index to its external id.
func (m *Mappings) MovieIDAt(idx int) (string, bool) {
	if idx < 0 || idx >= len(m.MovieIDs) {
		return "", false
	}
	return m.MovieIDs[idx], true
}

func dedupeSorted(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}
