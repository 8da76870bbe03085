package id

// Sequence allocates dense, strictly increasing numeric ids. The first id
// handed out is Base+1; ids are never reused.
//
// A Sequence is a value: copying it snapshots the allocator, which is how
// the engine discards ids drawn by an operation that later fails.
type Sequence struct {
	Base uint64 `json:"base"`
	Last uint64 `json:"last"`
}

// NewSequence returns a Sequence seeded at base.
func NewSequence(base uint64) Sequence {
	return Sequence{Base: base, Last: base}
}

// Next allocates the next id.
func (s *Sequence) Next() uint64 {
	s.Last++
	return s.Last
}

// Count returns how many ids have been allocated.
func (s Sequence) Count() uint64 {
	return s.Last - s.Base
}

// Contains reports whether v was allocated by this sequence.
func (s Sequence) Contains(v uint64) bool {
	return v > s.Base && v <= s.Last
}

// At returns the id at zero-based position i in allocation order.
func (s Sequence) At(i uint64) uint64 {
	return s.Base + 1 + i
}
