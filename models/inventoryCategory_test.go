package models

import (
	"strings"
	"testing"
)

func TestAncestorIdsFromArena(t *testing.T) {
	// 1 <- 2 <- 3, 4 is a second root.
	arena := map[int]*int{
		1: nil,
		2: intPtr(1),
		3: intPtr(2),
		4: nil,
	}

	ids, err := AncestorIdsFromArena(arena, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(ids) != 2 || ids[0] != 2 || ids[1] != 1 {
		t.Fatalf("expected nearest-first [2 1], got %v", ids)
	}

	ids, err = AncestorIdsFromArena(arena, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(ids) != 0 {
		t.Fatalf("root should have no ancestors, got %v", ids)
	}
}

func TestAncestorIdsFromArenaUnknownCategory(t *testing.T) {
	arena := map[int]*int{1: nil}
	if _, err := AncestorIdsFromArena(arena, 9); err == nil {
		t.Fatal("expected error for unknown category")
	}
}

func TestAncestorIdsFromArenaCycle(t *testing.T) {
	// 1 -> 2 -> 1: corrupted data, the walk must stop with an error.
	arena := map[int]*int{
		1: intPtr(2),
		2: intPtr(1),
	}
	_, err := AncestorIdsFromArena(arena, 1)
	if err == nil {
		t.Fatal("expected cycle error")
	}
	if !strings.Contains(err.Error(), "cycle") {
		t.Fatalf("expected cycle error, got %v", err)
	}
}

func TestAncestorIdsFromArenaSelfParent(t *testing.T) {
	arena := map[int]*int{1: intPtr(1)}
	if _, err := AncestorIdsFromArena(arena, 1); err == nil {
		t.Fatal("expected cycle error for self-parent")
	}
}
