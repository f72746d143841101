package bot

import (
	"testing"

	"guildwarden/internal/storage"

	"github.com/bwmarrin/discordgo"
)

func TestHasRole(t *testing.T) {
	roles := []string{"1", "2", "3"}
	if !hasRole(roles, "2") {
		t.Fatalf("expected role match")
	}
	if hasRole(roles, "4") {
		t.Fatalf("unexpected role match")
	}
	if hasRole(roles, "") {
		t.Fatalf("empty role id should never match")
	}
}

func TestMemberIsAdmin(t *testing.T) {
	cfg := &storage.GuildConfig{AdminRoleID: "admin-role"}

	member := &discordgo.Member{Roles: []string{"admin-role"}}
	if !memberIsAdmin(member, cfg) {
		t.Fatalf("admin role should grant admin")
	}

	member = &discordgo.Member{Permissions: discordgo.PermissionManageServer}
	if !memberIsAdmin(member, nil) {
		t.Fatalf("manage server should grant admin without config")
	}

	member = &discordgo.Member{Roles: []string{"other"}}
	if memberIsAdmin(member, cfg) {
		t.Fatalf("plain member should not be admin")
	}

	if memberIsAdmin(nil, cfg) {
		t.Fatalf("nil member should not be admin")
	}
}

func TestMemberIsMod(t *testing.T) {
	cfg := &storage.GuildConfig{ModRoleID: "mod-role", AdminRoleID: "admin-role"}

	if !memberIsMod(&discordgo.Member{Roles: []string{"mod-role"}}, cfg) {
		t.Fatalf("mod role should grant mod")
	}
	if !memberIsMod(&discordgo.Member{Roles: []string{"admin-role"}}, cfg) {
		t.Fatalf("admin should imply mod")
	}
	if memberIsMod(&discordgo.Member{Roles: []string{"other"}}, cfg) {
		t.Fatalf("plain member should not be mod")
	}
	if memberIsMod(&discordgo.Member{Roles: []string{"mod-role"}}, nil) {
		t.Fatalf("no config means no mod role to match")
	}
}

func TestHasAnyRole(t *testing.T) {
	if !hasAnyRole([]string{"a", "b"}, []string{"c", "b"}) {
		t.Fatalf("expected match")
	}
	if hasAnyRole([]string{"a"}, []string{"b"}) {
		t.Fatalf("unexpected match")
	}
	if hasAnyRole([]string{"a"}, nil) {
		t.Fatalf("empty requirement should not match")
	}
}

func TestOptionMap(t *testing.T) {
	options := []*discordgo.ApplicationCommandInteractionDataOption{
		{Name: "user"},
		{Name: "reason"},
	}
	m := optionMap(options)
	if len(m) != 2 {
		t.Fatalf("unexpected map size: %d", len(m))
	}
	if _, ok := m["user"]; !ok {
		t.Fatalf("user option missing")
	}
}

func TestSnippetOptions(t *testing.T) {
	snippets := make([]storage.Snippet, 30)
	for i := range snippets {
		snippets[i] = storage.Snippet{Name: "snip", Category: "greetings"}
	}
	options := snippetOptions(snippets)
	if len(options) != 25 {
		t.Fatalf("options should cap at 25, got %d", len(options))
	}
	if options[0].Label != "snip" || options[0].Value != "snip" {
		t.Fatalf("unexpected option: %+v", options[0])
	}
	if options[0].Description != "greetings" {
		t.Fatalf("category should show as description: %+v", options[0])
	}
}

func TestParseSnippetNoteID(t *testing.T) {
	name, ok := parseSnippetNoteID("snippet_note:welcome")
	if !ok || name != "welcome" {
		t.Fatalf("unexpected parse result: %q %v", name, ok)
	}
	if _, ok := parseSnippetNoteID("ticket_close"); ok {
		t.Fatalf("unrelated custom id should not parse")
	}
	if _, ok := parseSnippetNoteID("snippet_note:"); ok {
		t.Fatalf("empty name should not parse")
	}
}

func TestMatchCategories(t *testing.T) {
	categories := []string{"Billing", "Bugs", "General"}
	matched := matchCategories(categories, "b")
	if len(matched) != 2 {
		t.Fatalf("expected 2 matches, got %v", matched)
	}
	if matched[0] != "Billing" || matched[1] != "Bugs" {
		t.Fatalf("unexpected matches: %v", matched)
	}
	if got := matchCategories(categories, ""); len(got) != 3 {
		t.Fatalf("empty prefix should match everything: %v", got)
	}

	many := make([]string, 40)
	for i := range many {
		many[i] = "cat"
	}
	if got := matchCategories(many, "c"); len(got) != 25 {
		t.Fatalf("matches should cap at 25, got %d", len(got))
	}
}

func TestModalTextValue(t *testing.T) {
	components := []discordgo.MessageComponent{
		&discordgo.ActionsRow{Components: []discordgo.MessageComponent{
			&discordgo.TextInput{CustomID: "note", Value: "  please reply soon  "},
		}},
	}
	if got := modalTextValue(components, "note"); got != "please reply soon" {
		t.Fatalf("unexpected value: %q", got)
	}
	if got := modalTextValue(components, "other"); got != "" {
		t.Fatalf("missing input should yield empty string, got %q", got)
	}
	if got := modalTextValue(nil, "note"); got != "" {
		t.Fatalf("nil components should yield empty string, got %q", got)
	}
}

func TestDisplayHelpers(t *testing.T) {
	if displayChannel("") != "*not set*" {
		t.Fatalf("empty channel should show placeholder")
	}
	if displayChannel("42") != "<#42>" {
		t.Fatalf("unexpected channel mention")
	}
	if displayToggle(true) != "on" || displayToggle(false) != "off" {
		t.Fatalf("unexpected toggle text")
	}
	if displayNick("") != "*none*" {
		t.Fatalf("empty nick should show placeholder")
	}
}
