package tickets

import (
	"strings"
	"testing"
	"time"
)

func TestChannelName(t *testing.T) {
	if got := ChannelName("Some User", ""); got != "ticket-some-user" {
		t.Fatalf("unexpected name: %s", got)
	}
	if got := ChannelName("alice", "Ban Appeal"); got != "ban-appeal-alice" {
		t.Fatalf("unexpected name: %s", got)
	}
	if got := ChannelName("!!!", ""); got != "ticket-ticket" {
		t.Fatalf("unexpected name for unusable username: %s", got)
	}
}

func TestRenameName(t *testing.T) {
	if got := RenameName("Billing Issue"); got != "ticket-billing-issue" {
		t.Fatalf("unexpected name: %s", got)
	}
	if got := RenameName("ticket-appeal"); got != "ticket-appeal" {
		t.Fatalf("prefix should not double up: %s", got)
	}
	if got := RenameName("!!!"); got != "ticket" {
		t.Fatalf("unexpected name for unusable input: %s", got)
	}
}

func TestTranscriptURL(t *testing.T) {
	got := TranscriptURL("https://panel.example/", "42", 7)
	if got != "https://panel.example/guild/42/transcript/7" {
		t.Fatalf("unexpected url: %s", got)
	}
	if TranscriptURL("", "42", 7) != "" {
		t.Fatalf("empty base should yield empty url")
	}
}

func TestRestoreTargets(t *testing.T) {
	targets := RestoreTargets("owner", []string{"a", "owner", "b", "a"})
	if len(targets) != 3 {
		t.Fatalf("expected 3 targets, got %v", targets)
	}
	if targets[0] != "owner" {
		t.Fatalf("owner should come first: %v", targets)
	}
}

func TestRestoreTargetsNoMembers(t *testing.T) {
	targets := RestoreTargets("owner", nil)
	if len(targets) != 1 || targets[0] != "owner" {
		t.Fatalf("unexpected targets: %v", targets)
	}
}

func TestRenderTranscriptEscapes(t *testing.T) {
	messages := []TranscriptMessage{
		{
			AuthorID:   "1",
			AuthorName: "alice",
			Content:    "<script>alert(1)</script>",
			Timestamp:  time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
		},
	}
	html, err := RenderTranscript("ticket-alice", messages)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if strings.Contains(html, "<script>alert(1)</script>") {
		t.Fatalf("content was not escaped")
	}
	if !strings.Contains(html, "&lt;script&gt;") {
		t.Fatalf("escaped content missing")
	}
	if !strings.Contains(html, "ticket-alice") {
		t.Fatalf("channel name missing")
	}
	if !strings.Contains(html, "2024-03-01 12:00:00") {
		t.Fatalf("timestamp missing")
	}
}

func TestRenderTranscriptAttachments(t *testing.T) {
	messages := []TranscriptMessage{
		{AuthorName: "bob", Attachments: []string{"https://cdn.example/file.png"}},
	}
	html, err := RenderTranscript("ticket-bob", messages)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if !strings.Contains(html, `href="https://cdn.example/file.png"`) {
		t.Fatalf("attachment link missing")
	}
}
