package domain

// SeenSet tracks offer identifiers that have already been processed.
// Membership is monotonic: identifiers are only ever added. Insertion order
// is preserved so the persisted form stays stable across runs.
type SeenSet struct {
	members map[string]struct{}
	order   []string
}

// NewSeenSet creates a seen set pre-populated with ids. Blank and duplicate
// ids are ignored.
func NewSeenSet(ids ...string) *SeenSet {
	s := &SeenSet{members: make(map[string]struct{}, len(ids))}
	for _, id := range ids {
		s.Add(id)
	}
	return s
}

// Contains reports whether id has been processed before.
func (s *SeenSet) Contains(id string) bool {
	_, ok := s.members[id]
	return ok
}

// Add records id as processed. Returns true if the id was new.
func (s *SeenSet) Add(id string) bool {
	if id == "" {
		return false
	}
	if _, ok := s.members[id]; ok {
		return false
	}
	s.members[id] = struct{}{}
	s.order = append(s.order, id)
	return true
}

// AddAll records every id and returns how many were new.
func (s *SeenSet) AddAll(ids []string) int {
	added := 0
	for _, id := range ids {
		if s.Add(id) {
			added++
		}
	}
	return added
}

// Len returns the number of tracked identifiers.
func (s *SeenSet) Len() int {
	return len(s.order)
}

// IDs returns the identifiers in insertion order. The slice is a copy.
func (s *SeenSet) IDs() []string {
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}
