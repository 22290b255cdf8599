package game

import (
	"sort"

	"github.com/mkarlsen/mafia-night/internal/protocol"
)

// Registry is the canonical player mapping for one session. The
// authority is the sole source of truth for player records: Merge
// replaces whole records, never individual fields.
type Registry struct {
	players map[string]protocol.Player
}

func NewRegistry() *Registry {
	return &Registry{players: make(map[string]protocol.Player)}
}

// Merge folds a normalized player collection into the registry,
// replacing each record wholesale. Ids not present in the input are
// left alone. Merging the same collection twice is a no-op.
func (r *Registry) Merge(in protocol.PlayerSet) {
	for id, p := range in {
		if id == "" {
			continue
		}
		r.players[id] = p
	}
}

// Replace swaps the entire registry contents for the given collection.
// Used when the authority sends the full roster, e.g. on player_left.
func (r *Registry) Replace(in protocol.PlayerSet) {
	r.players = make(map[string]protocol.Player, len(in))
	r.Merge(in)
}

// Remove deletes a player. Removing an absent id is a no-op.
func (r *Registry) Remove(id string) {
	delete(r.players, id)
}

func (r *Registry) Count() int {
	return len(r.players)
}

func (r *Registry) Get(id string) (protocol.Player, bool) {
	p, ok := r.players[id]
	return p, ok
}

// LivingTargets returns the living players other than self, sorted by
// name for a stable selection list. This is the candidate set for
// night-action targets.
func (r *Registry) LivingTargets(selfID string) []protocol.Player {
	out := make([]protocol.Player, 0, len(r.players))
	for id, p := range r.players {
		if id == selfID || !p.Alive {
			continue
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name == out[j].Name {
			return out[i].ID < out[j].ID
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// Snapshot copies the registry for handing out to subscribers.
func (r *Registry) Snapshot() protocol.PlayerSet {
	out := make(protocol.PlayerSet, len(r.players))
	for id, p := range r.players {
		out[id] = p
	}
	return out
}
