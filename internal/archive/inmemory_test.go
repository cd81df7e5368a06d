package archive

import (
	"context"
	"testing"
)

func TestInMemoryStoreSaveAndRecent(t *testing.T) {
	store := NewInMemoryStore()
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		rec := TurnRecord{
			SessionID:      "s1",
			TurnIndex:      i,
			Transcript:     "hello",
			Reply:          "hi 🙂",
			SanitizedReply: "hi",
			VoiceID:        7,
		}
		if err := store.SaveTurn(ctx, rec); err != nil {
			t.Fatalf("SaveTurn: %v", err)
		}
	}

	turns, err := store.RecentTurns(ctx, "s1", 3)
	if err != nil {
		t.Fatalf("RecentTurns: %v", err)
	}
	if len(turns) != 3 {
		t.Fatalf("expected 3 turns, got %d", len(turns))
	}
	// Chronological order: oldest of the window first.
	if turns[0].TurnIndex != 2 || turns[2].TurnIndex != 4 {
		t.Fatalf("expected turn indexes 2..4, got %d..%d", turns[0].TurnIndex, turns[2].TurnIndex)
	}
	for _, tr := range turns {
		if tr.ID == "" {
			t.Fatal("expected generated record ID")
		}
		if tr.CreatedAt.IsZero() {
			t.Fatal("expected CreatedAt to be set")
		}
	}
}

func TestInMemoryStoreSessionIsolation(t *testing.T) {
	store := NewInMemoryStore()
	ctx := context.Background()

	if err := store.SaveTurn(ctx, TurnRecord{SessionID: "a", Transcript: "x"}); err != nil {
		t.Fatalf("SaveTurn: %v", err)
	}

	turns, err := store.RecentTurns(ctx, "b", 10)
	if err != nil {
		t.Fatalf("RecentTurns: %v", err)
	}
	if len(turns) != 0 {
		t.Fatalf("expected no turns for other session, got %d", len(turns))
	}
}

func TestInMemoryStoreLimitLargerThanHistory(t *testing.T) {
	store := NewInMemoryStore()
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if err := store.SaveTurn(ctx, TurnRecord{SessionID: "s", TurnIndex: i}); err != nil {
			t.Fatalf("SaveTurn: %v", err)
		}
	}

	turns, err := store.RecentTurns(ctx, "s", 100)
	if err != nil {
		t.Fatalf("RecentTurns: %v", err)
	}
	if len(turns) != 2 {
		t.Fatalf("expected 2 turns, got %d", len(turns))
	}
}
