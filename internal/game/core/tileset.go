package core

// TileSet is a set of tiles with deterministic iteration order. Removal swaps
// the last element into the freed slot, so the order depends only on the
// sequence of Add and Remove calls, never on map layout.
type TileSet struct {
	refs  []TileRef
	index map[TileRef]int
}

// NewTileSet creates an empty set.
func NewTileSet() *TileSet {
	return &TileSet{index: make(map[TileRef]int)}
}

// Add inserts ref and reports whether it was absent.
func (s *TileSet) Add(ref TileRef) bool {
	if _, ok := s.index[ref]; ok {
		return false
	}
	s.index[ref] = len(s.refs)
	s.refs = append(s.refs, ref)
	return true
}

// Remove deletes ref and reports whether it was present.
func (s *TileSet) Remove(ref TileRef) bool {
	i, ok := s.index[ref]
	if !ok {
		return false
	}
	last := len(s.refs) - 1
	moved := s.refs[last]
	s.refs[i] = moved
	s.index[moved] = i
	s.refs = s.refs[:last]
	delete(s.index, ref)
	return true
}

func (s *TileSet) Has(ref TileRef) bool {
	_, ok := s.index[ref]
	return ok
}

func (s *TileSet) Len() int {
	return len(s.refs)
}

// Slice returns a copy of the members in iteration order.
func (s *TileSet) Slice() []TileRef {
	out := make([]TileRef, len(s.refs))
	copy(out, s.refs)
	return out
}

// ForEach calls fn for each member in iteration order. fn must not modify s.
func (s *TileSet) ForEach(fn func(TileRef)) {
	for _, ref := range s.refs {
		fn(ref)
	}
}
