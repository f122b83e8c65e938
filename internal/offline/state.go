package offline

import (
	"fmt"
	"sync"
	"time"
)

// State is the lifecycle position of one cache generation.
type State string

const (
	StateParsed     State = "parsed"
	StateInstalling State = "installing"
	StateInstalled  State = "installed"
	StateActivating State = "activating"
	StateActive     State = "active"
	StateRedundant  State = "redundant"
)

var transitions = map[State][]State{
	StateParsed:     {StateInstalling, StateRedundant},
	StateInstalling: {StateInstalled, StateRedundant},
	StateInstalled:  {StateActivating, StateRedundant},
	StateActivating: {StateActive, StateRedundant},
	StateActive:     {StateRedundant},
}

// Generation is one versioned cache region and its lifecycle.
type Generation struct {
	Version  string
	Manifest []string

	mu        sync.RWMutex
	state     State
	changedAt time.Time
	failed    map[string]error
}

func newGeneration(version string, manifest []string, now time.Time) *Generation {
	return &Generation{
		Version:   version,
		Manifest:  append([]string(nil), manifest...),
		state:     StateParsed,
		changedAt: now,
	}
}

func (g *Generation) State() State {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.state
}

// FailedEntries returns the manifest URLs skipped during a best-effort install.
func (g *Generation) FailedEntries() []string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]string, 0, len(g.failed))
	for u := range g.failed {
		out = append(out, u)
	}
	return sortedStrings(out)
}

func (g *Generation) transition(to State, now time.Time) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, allowed := range transitions[g.state] {
		if allowed == to {
			g.state = to
			g.changedAt = now
			return nil
		}
	}
	return fmt.Errorf("%s: %s -> %s: %w", g.Version, g.state, to, ErrInvalidTransition)
}

// Snapshot describes a generation for status endpoints.
type Snapshot struct {
	Version   string    `json:"version"`
	State     State     `json:"state"`
	ChangedAt time.Time `json:"changedAt"`
	Failed    []string  `json:"failed,omitempty"`
}

func (g *Generation) Snapshot() Snapshot {
	failed := g.FailedEntries()
	g.mu.RLock()
	defer g.mu.RUnlock()
	return Snapshot{Version: g.Version, State: g.state, ChangedAt: g.changedAt, Failed: failed}
}
