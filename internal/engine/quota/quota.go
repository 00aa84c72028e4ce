// Package quota tracks YouTube Data API cost units against a daily budget.
//
// The governor is advisory: Consume always records the cost and may drive the
// remaining balance negative. The authoritative limit is enforced server-side
// and surfaces as a quotaExceeded error, which the ytapi client handles by
// rotating keys.
package quota

import (
	"sync"
	"time"
)

// DefaultDailyBudget is the default per-project daily allocation.
const DefaultDailyBudget int64 = 10000

// Endpoint names one list-style API method for cost accounting.
type Endpoint string

// Endpoints used by the harvester.
const (
	Channels       Endpoint = "channels"
	Playlists      Endpoint = "playlists"
	PlaylistItems  Endpoint = "playlistItems"
	Videos         Endpoint = "videos"
	CommentThreads Endpoint = "commentThreads"
	Search         Endpoint = "search"
)

// costs per successful call, in quota units.
var costs = map[Endpoint]int64{
	Channels:       1,
	Playlists:      1,
	PlaylistItems:  1,
	Videos:         1,
	CommentThreads: 1,
	Search:         100,
}

// Cost returns the unit cost of one call to e. Unknown endpoints cost 1.
func Cost(e Endpoint) int64 {
	if c, ok := costs[e]; ok {
		return c
	}
	return 1
}

// Governor is a session-scoped ledger of consumed units. Safe for concurrent use.
type Governor struct {
	mu      sync.Mutex
	budget  int64
	used    int64
	resetAt time.Time // next Pacific midnight; zero until the first Rollover
}

// New returns a governor with the given daily budget.
// A non-positive budget falls back to DefaultDailyBudget.
func New(budget int64) *Governor {
	if budget <= 0 {
		budget = DefaultDailyBudget
	}
	return &Governor{budget: budget}
}

// Consume records units and returns the new remaining balance.
func (g *Governor) Consume(units int64) int64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.used += units
	return g.budget - g.used
}

// Remaining returns budget minus used. Can be negative.
func (g *Governor) Remaining() int64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.budget - g.used
}

// Used returns the units consumed since the last reset.
func (g *Governor) Used() int64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.used
}

// Budget returns the configured daily budget.
func (g *Governor) Budget() int64 {
	return g.budget
}

// Exhausted reports whether the remaining balance is at or below zero.
func (g *Governor) Exhausted() bool {
	return g.Remaining() <= 0
}

// Reset zeroes the used counter.
func (g *Governor) Reset() {
	g.mu.Lock()
	g.used = 0
	g.resetAt = time.Time{}
	g.mu.Unlock()
}

// Rollover resets the ledger once now has passed the Pacific midnight that
// followed the previous rollover, mirroring the server-side daily reset.
// The first call only arms the deadline. It reports whether a reset happened.
func (g *Governor) Rollover(now time.Time) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.resetAt.IsZero() {
		g.resetAt = NextReset(now)
		return false
	}
	if now.Before(g.resetAt) {
		return false
	}
	g.used = 0
	g.resetAt = NextReset(now)
	return true
}

// Snapshot is a point-in-time view of the ledger.
type Snapshot struct {
	Budget    int64     `json:"budget"`
	Used      int64     `json:"used"`
	Remaining int64     `json:"remaining"`
	ResetsAt  time.Time `json:"resets_at"`
}

// Snapshot returns the current ledger state and the next server-side reset time.
func (g *Governor) Snapshot(now time.Time) Snapshot {
	g.mu.Lock()
	defer g.mu.Unlock()
	return Snapshot{
		Budget:    g.budget,
		Used:      g.used,
		Remaining: g.budget - g.used,
		ResetsAt:  NextReset(now),
	}
}

// pacific is where the API's daily quota rolls over.
var pacific = func() *time.Location {
	loc, err := time.LoadLocation("America/Los_Angeles")
	if err != nil {
		return time.FixedZone("PST", -8*60*60)
	}
	return loc
}()

// NextReset returns the next midnight Pacific time after now.
func NextReset(now time.Time) time.Time {
	t := now.In(pacific)
	y, m, d := t.Date()
	return time.Date(y, m, d+1, 0, 0, 0, 0, pacific)
}
