package timeutil

import (
	"testing"
	"time"
)

func TestSetLocation(t *testing.T) {
	t.Cleanup(func() { _ = SetLocation("") })

	if err := SetLocation("Asia/Almaty"); err != nil {
		t.Skipf("tzdata not available: %v", err)
	}
	if got := Location().String(); got != "Asia/Almaty" {
		t.Fatalf("expected Asia/Almaty got %s", got)
	}
	if err := SetLocation("Mars/Olympus_Mons"); err == nil {
		t.Fatal("expected error for unknown zone")
	}
	if Location() != time.UTC {
		t.Fatalf("expected UTC fallback got %s", Location())
	}
	ts := time.Date(2024, 1, 1, 12, 0, 0, 0, time.FixedZone("X", 3600))
	if !In(ts).Equal(ts) {
		t.Fatal("In must not change the instant")
	}
}
