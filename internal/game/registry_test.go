package game

import (
	"testing"

	"github.com/mkarlsen/mafia-night/internal/protocol"
)

func TestRegistry_MergeReplacesWholeRecords(t *testing.T) {
	r := NewRegistry()
	r.Merge(protocol.PlayerSet{
		"p1": {ID: "p1", Name: "Ana", Role: RoleMafia, Alive: true, Ready: true},
	})

	// Incoming record without role or ready: last write wins for the
	// whole record, fields are not merged.
	r.Merge(protocol.PlayerSet{
		"p1": {ID: "p1", Name: "Ana", Alive: true},
	})

	got, ok := r.Get("p1")
	if !ok {
		t.Fatalf("p1 missing")
	}
	if got.Role != "" || got.Ready {
		t.Fatalf("expected whole-record replacement, got %+v", got)
	}
}

func TestRegistry_MergeIsIdempotentAndNeverDuplicates(t *testing.T) {
	r := NewRegistry()
	in := protocol.PlayerSet{
		"p1": {ID: "p1", Name: "Ana", Alive: true},
		"p2": {ID: "p2", Name: "Ben", Alive: true},
	}
	r.Merge(in)
	r.Merge(in)

	if r.Count() != 2 {
		t.Fatalf("want 2 players, got %d", r.Count())
	}
}

func TestRegistry_RemoveAbsentIsNoop(t *testing.T) {
	r := NewRegistry()
	r.Merge(protocol.PlayerSet{"p1": {ID: "p1", Name: "Ana", Alive: true}})
	r.Remove("nobody")
	r.Remove("p1")
	r.Remove("p1")
	if r.Count() != 0 {
		t.Fatalf("want empty registry, got %d", r.Count())
	}
}

func TestRegistry_LivingTargets(t *testing.T) {
	r := NewRegistry()
	r.Merge(protocol.PlayerSet{
		"me":   {ID: "me", Name: "Self", Alive: true},
		"dead": {ID: "dead", Name: "Aaron", Alive: false},
		"p2":   {ID: "p2", Name: "Zoe", Alive: true},
		"p3":   {ID: "p3", Name: "Ben", Alive: true},
	})

	got := r.LivingTargets("me")
	if len(got) != 2 {
		t.Fatalf("want 2 targets, got %d: %+v", len(got), got)
	}
	if got[0].ID != "p3" || got[1].ID != "p2" {
		t.Fatalf("want name-sorted [Ben Zoe], got %+v", got)
	}
}
