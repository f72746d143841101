package utils

import "testing"

func TestExtractURLs(t *testing.T) {
	urls := ExtractURLs("join https://discord.gg/abc now or http://example.com")
	if len(urls) != 2 {
		t.Fatalf("expected 2 urls, got %d", len(urls))
	}
	if urls[0] != "https://discord.gg/abc" {
		t.Fatalf("unexpected first url: %s", urls[0])
	}
}

func TestNormalizeHost(t *testing.T) {
	host, err := NormalizeHost("https://Discord.GG/invite")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if host != "discord.gg" {
		t.Fatalf("unexpected host: %s", host)
	}
}

func TestNormalizeHostPunycode(t *testing.T) {
	host, err := NormalizeHost("https://bücher.example/x")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if host != "xn--bcher-kva.example" {
		t.Fatalf("unexpected host: %s", host)
	}
}

func TestTruncate(t *testing.T) {
	if got := Truncate("short", 10); got != "short" {
		t.Fatalf("unexpected: %s", got)
	}
	if got := Truncate("abcdefgh", 5); got != "abcd…" {
		t.Fatalf("unexpected: %s", got)
	}
}
