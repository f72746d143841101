package storage

import "testing"

func TestEnabledNilConfig(t *testing.T) {
	if !Enabled(nil, FacilityMessageEdits) {
		t.Fatalf("nil config should enable logging")
	}
	if !Enabled(nil, FacilityVoiceUpdates) {
		t.Fatalf("nil config should enable logging")
	}
}

func TestEnabledRespectsToggles(t *testing.T) {
	cfg := &GuildConfig{
		LogMessageEdits:     true,
		LogMessageDeletions: false,
		LogMemberJoins:      true,
		LogMemberLeaves:     false,
		LogVoiceUpdates:     true,
	}
	if !Enabled(cfg, FacilityMessageEdits) {
		t.Fatalf("edits should be on")
	}
	if Enabled(cfg, FacilityMessageDeletions) {
		t.Fatalf("deletions should be off")
	}
	if Enabled(cfg, FacilityMemberLeaves) {
		t.Fatalf("leaves should be off")
	}
}

func TestEnabledUnknownFacility(t *testing.T) {
	cfg := &GuildConfig{}
	if !Enabled(cfg, Facility("bogus")) {
		t.Fatalf("unknown facility should default on")
	}
}

func TestChannelForFallback(t *testing.T) {
	cfg := &GuildConfig{
		LogChannelID:       "100",
		ModLogChannelID:    "200",
		MemberLogChannelID: "",
	}
	if got := ChannelFor(cfg, LogMod); got != "200" {
		t.Fatalf("expected mod channel, got %q", got)
	}
	if got := ChannelFor(cfg, LogMember); got != "100" {
		t.Fatalf("expected general fallback, got %q", got)
	}
	if got := ChannelFor(cfg, LogGeneral); got != "100" {
		t.Fatalf("expected general channel, got %q", got)
	}
}

func TestChannelForUnconfigured(t *testing.T) {
	if got := ChannelFor(nil, LogMessage); got != "" {
		t.Fatalf("nil config should resolve to empty, got %q", got)
	}
	if got := ChannelFor(&GuildConfig{}, LogVoice); got != "" {
		t.Fatalf("empty config should resolve to empty, got %q", got)
	}
}
