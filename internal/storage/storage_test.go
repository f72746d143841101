package storage

import (
	"context"
	"os"
	"testing"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	ctx := context.Background()
	store, err := New(ctx, dsn)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(store.Close)
	if err := store.Migrate(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return store
}

func TestGuildConfigRoundTrip(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	guildID := "test-guild-config"
	if err := store.InitGuildConfig(ctx, guildID); err != nil {
		t.Fatalf("init: %v", err)
	}

	cfg, err := store.GetGuildConfig(ctx, guildID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if cfg == nil {
		t.Fatalf("expected row after init")
	}
	if !cfg.LogMessageEdits || cfg.AutomodInviteLinks {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}

	cfg.ModLogChannelID = "123"
	cfg.LogMemberJoins = false
	cfg.AutomodInviteLinks = true
	if err := store.UpsertGuildConfig(ctx, *cfg); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	got, err := store.GetGuildConfig(ctx, guildID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.ModLogChannelID != "123" || got.LogMemberJoins || !got.AutomodInviteLinks {
		t.Fatalf("unexpected config: %+v", got)
	}
}

func TestGuildConfigMissing(t *testing.T) {
	store := testStore(t)

	cfg, err := store.GetGuildConfig(context.Background(), "no-such-guild")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if cfg != nil {
		t.Fatalf("expected nil for missing guild")
	}
}

func TestTicketLifecycle(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	id, err := store.CreateTicket(ctx, "guild-1", "chan-lifecycle", "owner-1", nil)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	ticket, err := store.GetTicketByChannel(ctx, "chan-lifecycle")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if ticket == nil || ticket.ID != id || ticket.Status != TicketOpen {
		t.Fatalf("unexpected ticket: %+v", ticket)
	}

	open, err := store.OpenTicketFor(ctx, "guild-1", "owner-1")
	if err != nil {
		t.Fatalf("open lookup: %v", err)
	}
	if open == nil || open.ID != id {
		t.Fatalf("expected open ticket for owner, got %+v", open)
	}

	if err := store.ClaimTicket(ctx, "chan-lifecycle", "mod-1"); err != nil {
		t.Fatalf("claim: %v", err)
	}
	if err := store.CloseTicket(ctx, "chan-lifecycle"); err != nil {
		t.Fatalf("close: %v", err)
	}

	open, err = store.OpenTicketFor(ctx, "guild-1", "owner-1")
	if err != nil {
		t.Fatalf("open lookup: %v", err)
	}
	if open != nil {
		t.Fatalf("closed ticket should not count as open, got %+v", open)
	}

	ticket, err = store.GetTicketByChannel(ctx, "chan-lifecycle")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if ticket.Status != TicketClosed || ticket.ClosedAt == nil || ticket.ClaimedBy != "mod-1" {
		t.Fatalf("unexpected closed ticket: %+v", ticket)
	}

	if err := store.ReopenTicket(ctx, "chan-lifecycle"); err != nil {
		t.Fatalf("reopen: %v", err)
	}
	ticket, err = store.GetTicketByChannel(ctx, "chan-lifecycle")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if ticket.Status != TicketOpen || ticket.ClosedAt != nil {
		t.Fatalf("unexpected reopened ticket: %+v", ticket)
	}
}

func TestTicketMembers(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	id, err := store.CreateTicket(ctx, "guild-1", "chan-members", "owner-2", nil)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := store.AddTicketMember(ctx, id, "user-a"); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := store.AddTicketMember(ctx, id, "user-a"); err != nil {
		t.Fatalf("duplicate add should be a no-op: %v", err)
	}
	if err := store.AddTicketMember(ctx, id, "user-b"); err != nil {
		t.Fatalf("add: %v", err)
	}

	members, err := store.ListTicketMembers(ctx, id)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(members) != 2 {
		t.Fatalf("expected 2 members, got %v", members)
	}

	if err := store.RemoveTicketMember(ctx, id, "user-a"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	members, err = store.ListTicketMembers(ctx, id)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(members) != 1 || members[0] != "user-b" {
		t.Fatalf("unexpected members: %v", members)
	}
}

func TestWordFilters(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	added, err := store.AddWordFilter(ctx, "guild-filters", "badword")
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if !added {
		t.Fatalf("expected first add to report true")
	}

	added, err = store.AddWordFilter(ctx, "guild-filters", "badword")
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if added {
		t.Fatalf("duplicate add should report false")
	}

	filters, err := store.ListWordFilters(ctx, "guild-filters")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(filters) != 1 || filters[0].Phrase != "badword" {
		t.Fatalf("unexpected filters: %+v", filters)
	}

	removed, err := store.RemoveWordFilter(ctx, "guild-filters", "badword")
	if err != nil {
		t.Fatalf("remove: %v", err)
	}
	if !removed {
		t.Fatalf("expected removal to report true")
	}
}

func TestServerLogs(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	entries := []ServerLog{
		{GuildID: "guild-logs", UserID: "user-1", ActionType: "member_join"},
		{GuildID: "guild-logs", UserID: "user-1", ActionType: "kick", TargetID: "chan-1", Details: "spam"},
	}
	for _, entry := range entries {
		if err := store.InsertServerLog(ctx, entry); err != nil {
			t.Fatalf("insert: %v", err)
		}
	}

	got, err := store.RecentServerLogs(ctx, "guild-logs", 10)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(got))
	}
	if got[0].ActionType != "kick" || got[0].Details != "spam" {
		t.Fatalf("newest entry should come first: %+v", got[0])
	}
	if got[1].ActionType != "member_join" || got[1].TargetID != "" {
		t.Fatalf("unexpected oldest entry: %+v", got[1])
	}
}

func TestSnippetRoundTrip(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	snip := Snippet{GuildID: "guild-snip", Name: "faq", Category: "help", Content: `{"title":"FAQ"}`}
	if err := store.UpsertSnippet(ctx, snip); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	snip.Content = `{"title":"FAQ v2"}`
	if err := store.UpsertSnippet(ctx, snip); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	got, err := store.GetSnippet(ctx, "guild-snip", "faq")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got == nil || got.Content != `{"title":"FAQ v2"}` {
		t.Fatalf("unexpected snippet: %+v", got)
	}

	deleted, err := store.DeleteSnippet(ctx, "guild-snip", "faq")
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if !deleted {
		t.Fatalf("expected delete to report true")
	}
}
