package policy

import (
	"errors"
	"testing"

	"github.com/darmiel/vigil/internal/core"
)

func TestStore_AddRejectsDuplicateID(t *testing.T) {
	s := NewStore(Defaults(), nil)

	err := s.Add(core.NetworkPolicy{
		PolicyID:           "dmz-to-internal",
		SourceZone:         core.ZoneDMZ,
		DestinationZone:    core.ZoneSecure,
		Protocol:           "tcp",
		MaxSessionDuration: 60,
	})

	var conflict core.PolicyConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("expected PolicyConflictError, got %v", err)
	}
	if len(s.List()) != len(Defaults()) {
		t.Error("failed Add mutated the store")
	}
}

func TestStore_AddPreservesInsertionOrder(t *testing.T) {
	s := NewStore(nil, nil)

	for _, id := range []string{"first", "second", "third"} {
		if err := s.Add(core.NetworkPolicy{
			PolicyID:           id,
			SourceZone:         core.ZoneDMZ,
			DestinationZone:    core.ZoneInternal,
			AllowedPorts:       []int{80},
			Protocol:           "tcp",
			MaxSessionDuration: 60,
		}); err != nil {
			t.Fatalf("Add(%s) unexpected error: %v", id, err)
		}
	}

	got := s.List()
	want := []string{"first", "second", "third"}
	for i, id := range want {
		if got[i].PolicyID != id {
			t.Errorf("List()[%d] = %s, want %s", i, got[i].PolicyID, id)
		}
	}
}

func TestStore_Remove(t *testing.T) {
	s := NewStore(Defaults(), nil)

	if err := s.Remove("admin-access"); err != nil {
		t.Fatalf("Remove() unexpected error: %v", err)
	}
	for _, p := range s.List() {
		if p.PolicyID == "admin-access" {
			t.Error("removed policy still listed")
		}
	}

	var unknown core.UnknownPolicyError
	if err := s.Remove("admin-access"); !errors.As(err, &unknown) {
		t.Errorf("expected UnknownPolicyError, got %v", err)
	}
}

func TestStore_ListReturnsCopy(t *testing.T) {
	s := NewStore(Defaults(), nil)

	list := s.List()
	list[0].PolicyID = "tampered"

	if s.List()[0].PolicyID == "tampered" {
		t.Error("List() exposed internal state")
	}
}
