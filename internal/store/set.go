package store

import (
	"iter"

	"github.com/RoaringBitmap/roaring/v2/roaring64"
)

// StudySet is a membership set of study identifiers backed by a roaring
// bitmap. Iteration order is always ascending by identifier, which is what
// keeps dissociation results deterministic.
type StudySet struct {
	rb *roaring64.Bitmap
}

// NewStudySet creates a set containing the given identifiers.
func NewStudySet(ids ...int64) *StudySet {
	s := &StudySet{rb: roaring64.New()}
	for _, id := range ids {
		s.Add(id)
	}
	return s
}

// Add adds a study identifier to the set.
func (s *StudySet) Add(id int64) {
	s.rb.Add(uint64(id))
}

// Contains checks if a study identifier is in the set.
func (s *StudySet) Contains(id int64) bool {
	return s.rb.Contains(uint64(id))
}

// IsEmpty returns true if the set has no members.
func (s *StudySet) IsEmpty() bool {
	return s.rb.IsEmpty()
}

// Cardinality returns the number of members.
func (s *StudySet) Cardinality() uint64 {
	return s.rb.GetCardinality()
}

// Clone returns a deep copy of the set.
func (s *StudySet) Clone() *StudySet {
	return &StudySet{rb: s.rb.Clone()}
}

// Difference returns the members of s that are not in other. Neither
// receiver nor argument is modified.
func (s *StudySet) Difference(other *StudySet) *StudySet {
	out := s.rb.Clone()
	out.AndNot(other.rb)
	return &StudySet{rb: out}
}

// Intersect returns the members present in both sets.
func (s *StudySet) Intersect(other *StudySet) *StudySet {
	out := s.rb.Clone()
	out.And(other.rb)
	return &StudySet{rb: out}
}

// Union returns the members present in either set.
func (s *StudySet) Union(other *StudySet) *StudySet {
	out := s.rb.Clone()
	out.Or(other.rb)
	return &StudySet{rb: out}
}

// IDs returns the members as a slice in ascending order. The slice is
// never nil, so it marshals to a JSON array rather than null.
func (s *StudySet) IDs() []int64 {
	raw := s.rb.ToArray()
	ids := make([]int64, len(raw))
	for i, v := range raw {
		ids[i] = int64(v)
	}
	return ids
}

// Iterator returns an ascending iterator over the members.
func (s *StudySet) Iterator() iter.Seq[int64] {
	return func(yield func(int64) bool) {
		it := s.rb.Iterator()
		for it.HasNext() {
			if !yield(int64(it.Next())) {
				return
			}
		}
	}
}
