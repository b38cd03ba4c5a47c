// Package desync compares the per-tick hashes reported by the clients of a
// game and reports ticks on which they disagree.
package desync

import (
	"slices"
	"strings"
	"sync"

	"github.com/rs/zerolog"
)

// DefaultWindow is the number of recent ticks kept per game.
const DefaultWindow = 300

// Vote is one client's hash for a tick.
type Vote struct {
	ClientID string `msgpack:"client_id"`
	Hash     uint64 `msgpack:"hash"`
}

// Report describes a tick on which at least two clients disagree.
type Report struct {
	GameID string `msgpack:"game_id"`
	Tick   int    `msgpack:"tick"`
	// Votes is ordered by client id.
	Votes []Vote `msgpack:"votes"`
	// Majority is the hash reported by the most clients; ties go to the
	// smallest hash.
	Majority uint64 `msgpack:"majority"`
	// Diverged lists the clients whose hash differs from Majority.
	Diverged []string `msgpack:"diverged"`
}

// Includes reports whether clientID is among the diverged clients.
func (r *Report) Includes(clientID string) bool {
	return slices.Contains(r.Diverged, clientID)
}

type gameHashes struct {
	ticks  map[int]map[string]uint64
	latest int
}

// Detector is safe for concurrent use. Memory per game is bounded by the
// window.
type Detector struct {
	mu     sync.Mutex
	window int
	games  map[string]*gameHashes
	logger zerolog.Logger
}

// NewDetector keeps the last window ticks of each game. window <= 0 uses
// DefaultWindow.
func NewDetector(window int, logger zerolog.Logger) *Detector {
	if window <= 0 {
		window = DefaultWindow
	}
	return &Detector{
		window: window,
		games:  make(map[string]*gameHashes),
		logger: logger.With().Str("component", "DesyncDetector").Logger(),
	}
}

// Record stores the hash clientID computed for tick and returns a report
// when it disagrees with a hash another client sent for the same tick.
// Hashes older than the window are ignored.
func (d *Detector) Record(gameID, clientID string, tick int, hash uint64) *Report {
	d.mu.Lock()
	defer d.mu.Unlock()

	g, ok := d.games[gameID]
	if !ok {
		g = &gameHashes{ticks: make(map[int]map[string]uint64)}
		d.games[gameID] = g
	}
	if tick <= g.latest-d.window {
		return nil
	}
	if tick > g.latest {
		g.latest = tick
		for t := range g.ticks {
			if t <= g.latest-d.window {
				delete(g.ticks, t)
			}
		}
	}

	votes, ok := g.ticks[tick]
	if !ok {
		votes = make(map[string]uint64)
		g.ticks[tick] = votes
	}
	votes[clientID] = hash

	agree := true
	for other, h := range votes {
		if other != clientID && h != hash {
			agree = false
			break
		}
	}
	if agree {
		return nil
	}

	report := newReport(gameID, tick, votes)
	d.logger.Warn().
		Str("game_id", gameID).
		Int("tick", tick).
		Str("client_id", clientID).
		Strs("diverged", report.Diverged).
		Msg("Desync detected")
	return report
}

// Forget drops everything recorded for a game.
func (d *Detector) Forget(gameID string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.games, gameID)
}

// NumTicks returns how many ticks are held for a game.
func (d *Detector) NumTicks(gameID string) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	if g, ok := d.games[gameID]; ok {
		return len(g.ticks)
	}
	return 0
}

func newReport(gameID string, tick int, votes map[string]uint64) *Report {
	r := &Report{GameID: gameID, Tick: tick}
	counts := make(map[uint64]int)
	for client, h := range votes {
		r.Votes = append(r.Votes, Vote{ClientID: client, Hash: h})
		counts[h]++
	}
	slices.SortFunc(r.Votes, func(a, b Vote) int { return strings.Compare(a.ClientID, b.ClientID) })

	best := -1
	for h, n := range counts {
		if n > best || (n == best && h < r.Majority) {
			r.Majority, best = h, n
		}
	}
	for _, v := range r.Votes {
		if v.Hash != r.Majority {
			r.Diverged = append(r.Diverged, v.ClientID)
		}
	}
	return r
}
