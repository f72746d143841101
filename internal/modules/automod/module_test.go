package automod

import "testing"

func TestContainsInvite(t *testing.T) {
	cases := []struct {
		content string
		want    bool
	}{
		{"join us at discord.gg/abc123", true},
		{"https://discord.com/invite/abc123", true},
		{"https://DISCORD.GG/abc", true},
		{"https://discordapp.com/invite/xyz", true},
		{"just a normal message", false},
		{"https://example.com/discord", false},
	}
	for _, tc := range cases {
		if got := ContainsInvite(tc.content); got != tc.want {
			t.Fatalf("ContainsInvite(%q) = %v, want %v", tc.content, got, tc.want)
		}
	}
}

func TestMatchFilterFirstHit(t *testing.T) {
	phrases := []string{"alpha", "beta", "gamma"}

	phrase, ok := MatchFilter("some BETA content with gamma too", phrases)
	if !ok {
		t.Fatalf("expected a match")
	}
	if phrase != "beta" {
		t.Fatalf("expected first configured match, got %q", phrase)
	}
}

func TestMatchFilterNoHit(t *testing.T) {
	if _, ok := MatchFilter("clean message", []string{"alpha"}); ok {
		t.Fatalf("expected no match")
	}
	if _, ok := MatchFilter("anything", nil); ok {
		t.Fatalf("expected no match with no filters")
	}
}

func TestMatchFilterSkipsEmptyPhrase(t *testing.T) {
	phrase, ok := MatchFilter("hello world", []string{"", "world"})
	if !ok || phrase != "world" {
		t.Fatalf("unexpected result: %q %v", phrase, ok)
	}
}
