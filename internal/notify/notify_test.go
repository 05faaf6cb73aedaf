package notify

import "testing"

func TestHelpersDeliverWithLevel(t *testing.T) {
	var buf Buffer

	Success(&buf, "Expense added", "Lunch - $12.50")
	Error(&buf, "Failed to add transaction", "disk full")
	Info(&buf, "Heads up", "something happened")

	got := buf.All()
	if len(got) != 3 {
		t.Fatalf("expected 3 notifications, got %d", len(got))
	}
	if got[0].Level != LevelSuccess || got[0].Title != "Expense added" {
		t.Fatalf("first = %+v", got[0])
	}
	if got[1].Level != LevelError {
		t.Fatalf("second = %+v", got[1])
	}
	if got[2].Level != LevelInfo {
		t.Fatalf("third = %+v", got[2])
	}
	for i, n := range got {
		if n.At.IsZero() {
			t.Fatalf("notification %d missing timestamp", i)
		}
	}
}

func TestNilNotifierIsSafe(t *testing.T) {
	// Stores run without a sink in tests; helpers must tolerate nil.
	Success(nil, "t", "m")
	Error(nil, "t", "m")
	Info(nil, "t", "m")
}

func TestMultiFansOut(t *testing.T) {
	var a, b Buffer
	m := Multi{&a, nil, &b}

	Success(m, "title", "message")

	if len(a.All()) != 1 || len(b.All()) != 1 {
		t.Fatalf("fan-out incomplete: %d / %d", len(a.All()), len(b.All()))
	}
}

func TestBufferReturnsCopy(t *testing.T) {
	var buf Buffer
	Success(&buf, "original", "m")

	got := buf.All()
	got[0].Title = "mutated"

	if buf.All()[0].Title != "original" {
		t.Fatalf("buffer exposed internal slice")
	}
}
