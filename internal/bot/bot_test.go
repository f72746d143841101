package bot

import (
	"strings"
	"testing"
	"time"
)

func TestDepartureGated(t *testing.T) {
	cases := []struct {
		kicked        bool
		leavesEnabled bool
		gated         bool
	}{
		{kicked: true, leavesEnabled: true, gated: false},
		{kicked: true, leavesEnabled: false, gated: false},
		{kicked: false, leavesEnabled: true, gated: false},
		{kicked: false, leavesEnabled: false, gated: true},
	}
	for _, c := range cases {
		if got := departureGated(c.kicked, c.leavesEnabled); got != c.gated {
			t.Fatalf("departureGated(%v, %v) = %v, want %v", c.kicked, c.leavesEnabled, got, c.gated)
		}
	}
}

func TestSuspectNotice(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	notice := suspectNotice("42", now.Add(-2*time.Hour), now)
	if notice == "" {
		t.Fatalf("young account should produce a notice")
	}
	if !strings.Contains(notice, "<@42>") {
		t.Fatalf("notice should mention the user: %s", notice)
	}

	if got := suspectNotice("42", now.Add(-30*24*time.Hour), now); got != "" {
		t.Fatalf("old account should not produce a notice: %s", got)
	}
}
