package automod

import (
	"context"
	"fmt"
	"strings"
	"time"

	"guildwarden/internal/audit"
	"guildwarden/internal/storage"
	"guildwarden/internal/utils"

	"github.com/bwmarrin/discordgo"
)

const noticeLifetime = 5 * time.Second

var inviteMarkers = []string{"discord.gg/", "discord.com/invite/", "discordapp.com/invite/"}

var inviteHosts = map[string]struct{}{
	"discord.gg": {},
}

// Verdict describes what automod did with a message.
type Verdict struct {
	Matched bool
	Rule    string
	Detail  string
}

type Module struct {
	store *storage.Store
	audit *audit.Logger
}

func New(store *storage.Store, auditLogger *audit.Logger) *Module {
	return &Module{store: store, audit: auditLogger}
}

// ContainsInvite reports whether content carries a Discord invite link,
// either as a plain marker or as a URL whose normalized host is an
// invite host. Normalization catches unicode lookalike domains.
func ContainsInvite(content string) bool {
	lower := strings.ToLower(content)
	for _, marker := range inviteMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	for _, raw := range utils.ExtractURLs(content) {
		host, err := utils.NormalizeHost(raw)
		if err != nil {
			continue
		}
		if _, ok := inviteHosts[host]; ok {
			return true
		}
	}
	return false
}

// MatchFilter returns the first configured phrase found in content.
// Matching is case-insensitive and stops at the first hit.
func MatchFilter(content string, phrases []string) (string, bool) {
	lower := strings.ToLower(content)
	for _, phrase := range phrases {
		if phrase == "" {
			continue
		}
		if strings.Contains(lower, strings.ToLower(phrase)) {
			return phrase, true
		}
	}
	return "", false
}

// HandleMessage checks a guild message against the invite rule and word
// filters, deleting it on a match. The caller relays the verdict.
func (m *Module) HandleMessage(ctx context.Context, session *discordgo.Session, msg *discordgo.MessageCreate) Verdict {
	if msg.Author == nil || msg.Author.Bot || msg.GuildID == "" {
		return Verdict{}
	}

	cfg, err := m.store.GetGuildConfig(ctx, msg.GuildID)
	if err != nil {
		return Verdict{}
	}

	if cfg != nil && cfg.AutomodInviteLinks && ContainsInvite(msg.Content) {
		_ = session.ChannelMessageDelete(msg.ChannelID, msg.ID)
		m.warn(session, msg.ChannelID, msg.Author.ID, "invite links are not allowed here")
		m.audit.Log(ctx, msg.GuildID, msg.Author.ID, audit.ActionAutomodInvite, msg.ID, "invite link removed")
		return Verdict{Matched: true, Rule: audit.ActionAutomodInvite, Detail: "invite link"}
	}

	filters, err := m.store.ListWordFilters(ctx, msg.GuildID)
	if err != nil || len(filters) == 0 {
		return Verdict{}
	}
	phrases := make([]string, 0, len(filters))
	for _, f := range filters {
		phrases = append(phrases, f.Phrase)
	}
	if phrase, ok := MatchFilter(msg.Content, phrases); ok {
		_ = session.ChannelMessageDelete(msg.ChannelID, msg.ID)
		m.warn(session, msg.ChannelID, msg.Author.ID, "that message is not allowed here")
		m.audit.Log(ctx, msg.GuildID, msg.Author.ID, audit.ActionAutomodPhrase, msg.ID, "filtered phrase: "+phrase)
		return Verdict{Matched: true, Rule: audit.ActionAutomodPhrase, Detail: phrase}
	}

	return Verdict{}
}

// warn drops a short-lived notice in the channel so the author knows
// why their message vanished.
func (m *Module) warn(session *discordgo.Session, channelID, userID, reason string) {
	notice, err := session.ChannelMessageSend(channelID, fmt.Sprintf("<@%s>, %s.", userID, reason))
	if err != nil {
		return
	}
	time.AfterFunc(noticeLifetime, func() {
		_ = session.ChannelMessageDelete(channelID, notice.ID)
	})
}
