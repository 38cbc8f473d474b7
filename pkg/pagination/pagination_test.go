package pagination

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestNormalizeLimit(t *testing.T) {
	if got := NormalizeLimit(0); got != DefaultLimit {
		t.Fatalf("NormalizeLimit(0) = %d", got)
	}
	if got := NormalizeLimit(-4); got != DefaultLimit {
		t.Fatalf("NormalizeLimit(-4) = %d", got)
	}
	if got := NormalizeLimit(5000); got != MaxLimit {
		t.Fatalf("NormalizeLimit(5000) = %d", got)
	}
	if got := NormalizeLimit(7); got != 7 {
		t.Fatalf("NormalizeLimit(7) = %d", got)
	}
}

func TestCursorRoundTrip(t *testing.T) {
	want := Cursor{
		CreatedAt: time.Date(2026, 3, 14, 9, 26, 53, 589000000, time.UTC),
		ID:        uuid.New(),
	}

	encoded := EncodeCursor(want)
	got, err := ParseCursor(encoded)
	if err != nil {
		t.Fatalf("ParseCursor failed: %v", err)
	}
	if !got.CreatedAt.Equal(want.CreatedAt) || got.ID != want.ID {
		t.Fatalf("round trip mismatch: %+v != %+v", got, want)
	}
}

func TestParseCursorEmptyMeansFirstPage(t *testing.T) {
	got, err := ParseCursor("   ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != nil {
		t.Fatalf("expected nil cursor, got %+v", got)
	}
}

func TestParseCursorRejectsGarbage(t *testing.T) {
	if _, err := ParseCursor("not-base64!!"); err == nil {
		t.Fatal("expected error for invalid base64")
	}
	if _, err := ParseCursor("bm8tcGlwZS1oZXJl"); err == nil {
		t.Fatal("expected error for missing separator")
	}
}
