package runtime

import (
	"sync"

	"github.com/woodydrn/OpenFrontIO-sub000/internal/protocol"
)

// TurnSequencer releases turns strictly in turn-number order. Turns that
// arrive early are held until every earlier one has been released; turns at
// or below the release point are dropped.
type TurnSequencer struct {
	mu      sync.Mutex
	next    int
	pending map[int]protocol.Turn
}

// NewTurnSequencer creates a sequencer expecting turn next first.
func NewTurnSequencer(next int) *TurnSequencer {
	return &TurnSequencer{next: next, pending: make(map[int]protocol.Turn)}
}

// Next returns the number of the next turn to be released.
func (s *TurnSequencer) Next() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.next
}

// Add offers turn and returns the turns that became releasable, in order.
// The second result is false when the turn was stale or a duplicate.
func (s *TurnSequencer) Add(turn protocol.Turn) ([]protocol.Turn, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if turn.TurnNumber < s.next {
		return nil, false
	}
	if _, dup := s.pending[turn.TurnNumber]; dup {
		return nil, false
	}
	s.pending[turn.TurnNumber] = turn
	return s.release(), true
}

// FillTo inserts empty turns for every missing number below n and returns
// the turns that became releasable.
func (s *TurnSequencer) FillTo(n int) []protocol.Turn {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := s.next; i < n; i++ {
		if _, ok := s.pending[i]; !ok {
			s.pending[i] = protocol.EmptyTurn(i)
		}
	}
	return s.release()
}

// Buffered returns how many turns wait for an earlier one.
func (s *TurnSequencer) Buffered() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

func (s *TurnSequencer) release() []protocol.Turn {
	var out []protocol.Turn
	for {
		turn, ok := s.pending[s.next]
		if !ok {
			return out
		}
		delete(s.pending, s.next)
		out = append(out, turn)
		s.next++
	}
}
