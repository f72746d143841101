package relay

import (
	"testing"
	"time"
)

func TestVoiceTransition(t *testing.T) {
	cases := []struct {
		old, new, want string
	}{
		{"", "123", VoiceJoin},
		{"123", "", VoiceLeave},
		{"123", "456", VoiceMove},
		{"123", "123", VoiceNone},
		{"", "", VoiceNone},
	}
	for _, tc := range cases {
		if got := VoiceTransition(tc.old, tc.new); got != tc.want {
			t.Fatalf("VoiceTransition(%q, %q) = %q, want %q", tc.old, tc.new, got, tc.want)
		}
	}
}

func TestWithinKickWindow(t *testing.T) {
	now := time.Now()
	if !WithinKickWindow(now.Add(-5*time.Second), now) {
		t.Fatalf("5s old entry should count")
	}
	if WithinKickWindow(now.Add(-15*time.Second), now) {
		t.Fatalf("15s old entry should not count")
	}
	if !WithinKickWindow(now.Add(2*time.Second), now) {
		t.Fatalf("slight clock skew should still count")
	}
}

func TestSuspectAccount(t *testing.T) {
	now := time.Now()
	if !SuspectAccount(now.Add(-2*time.Hour), now) {
		t.Fatalf("2h old account should be suspect")
	}
	if SuspectAccount(now.Add(-48*time.Hour), now) {
		t.Fatalf("48h old account should not be suspect")
	}
}
