package bot

import (
	"context"
	"fmt"
	"strings"
	"time"

	"guildwarden/internal/audit"
	"guildwarden/internal/config"
	"guildwarden/internal/modules/automod"
	"guildwarden/internal/relay"
	"guildwarden/internal/storage"
	"guildwarden/internal/tickets"
	"guildwarden/internal/utils"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

type Bot struct {
	cfg     config.Config
	logger  *zap.Logger
	store   *storage.Store
	audit   *audit.Logger
	relay   *relay.Relay
	automod *automod.Module
	tickets *tickets.Manager
	session *discordgo.Session
}

func New(cfg config.Config, logger *zap.Logger, store *storage.Store, auditLogger *audit.Logger, logRelay *relay.Relay, automodModule *automod.Module, ticketManager *tickets.Manager) (*Bot, error) {
	session, err := discordgo.New("Bot " + cfg.DiscordToken)
	if err != nil {
		return nil, err
	}

	session.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMessages |
		discordgo.IntentsGuildMembers |
		discordgo.IntentsGuildBans |
		discordgo.IntentsMessageContent |
		discordgo.IntentsGuildVoiceStates

	// Cached messages back the edit and deletion log embeds.
	session.State.MaxMessageCount = 2000

	return &Bot{
		cfg:     cfg,
		logger:  logger,
		store:   store,
		audit:   auditLogger,
		relay:   logRelay,
		automod: automodModule,
		tickets: ticketManager,
		session: session,
	}, nil
}

func (b *Bot) Start() error {
	b.session.AddHandler(b.onReady)
	b.session.AddHandler(b.onGuildCreate)
	b.session.AddHandler(b.onMessageCreate)
	b.session.AddHandler(b.onMessageUpdate)
	b.session.AddHandler(b.onMessageDelete)
	b.session.AddHandler(b.onGuildMemberAdd)
	b.session.AddHandler(b.onGuildMemberRemove)
	b.session.AddHandler(b.onGuildMemberUpdate)
	b.session.AddHandler(b.onGuildBanAdd)
	b.session.AddHandler(b.onGuildBanRemove)
	b.session.AddHandler(b.onVoiceStateUpdate)
	b.session.AddHandler(b.onInteractionCreate)

	if err := b.session.Open(); err != nil {
		return err
	}

	return b.registerCommands()
}

func (b *Bot) Close(ctx context.Context) {
	_ = ctx
	if b.session != nil {
		_ = b.session.Close()
	}
}

func (b *Bot) onReady(session *discordgo.Session, event *discordgo.Ready) {
	b.logger.Info("discord ready", zap.String("user", session.State.User.Username), zap.Int("guilds", len(event.Guilds)))
}

func (b *Bot) onGuildCreate(session *discordgo.Session, event *discordgo.GuildCreate) {
	ctx := context.Background()
	if err := b.store.InitGuildConfig(ctx, event.ID); err != nil {
		b.logger.Warn("guild config init failed", zap.String("guild_id", event.ID), zap.Error(err))
	}
}

func (b *Bot) onMessageCreate(session *discordgo.Session, msg *discordgo.MessageCreate) {
	if msg.Author == nil || msg.Author.Bot || msg.GuildID == "" {
		return
	}

	ctx := context.Background()
	verdict := b.automod.HandleMessage(ctx, session, msg)
	if !verdict.Matched {
		return
	}

	embed := b.logEmbed("Automod", fmt.Sprintf("Message by <@%s> removed in <#%s>", msg.Author.ID, msg.ChannelID), b.cfg.EmbedColors.Error)
	embed.Fields = []*discordgo.MessageEmbedField{
		{Name: "Rule", Value: verdict.Rule, Inline: true},
		{Name: "Detail", Value: verdict.Detail, Inline: true},
	}
	if msg.Content != "" {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{Name: "Content", Value: utils.Truncate(msg.Content, 1024)})
	}
	b.relay.Send(ctx, session, msg.GuildID, storage.LogMessage, embed)
}

func (b *Bot) onMessageUpdate(session *discordgo.Session, event *discordgo.MessageUpdate) {
	if event.GuildID == "" || event.Author == nil || event.Author.Bot {
		return
	}

	ctx := context.Background()
	if !b.relay.Enabled(ctx, event.GuildID, storage.FacilityMessageEdits) {
		return
	}

	before := ""
	if event.BeforeUpdate != nil {
		before = event.BeforeUpdate.Content
	}
	if before == event.Content {
		return
	}

	embed := b.logEmbed("Message Edited", fmt.Sprintf("<@%s> edited a message in <#%s>", event.Author.ID, event.ChannelID), b.cfg.EmbedColors.Neutral)
	if before != "" {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{Name: "Before", Value: utils.Truncate(before, 1024)})
	}
	if event.Content != "" {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{Name: "After", Value: utils.Truncate(event.Content, 1024)})
	}
	b.audit.Log(ctx, event.GuildID, event.Author.ID, audit.ActionMessageEdit, event.ChannelID, utils.Truncate(event.Content, 200))
	b.relay.Send(ctx, session, event.GuildID, storage.LogMessage, embed)
}

func (b *Bot) onMessageDelete(session *discordgo.Session, event *discordgo.MessageDelete) {
	if event.GuildID == "" {
		return
	}

	ctx := context.Background()
	if !b.relay.Enabled(ctx, event.GuildID, storage.FacilityMessageDeletions) {
		return
	}

	description := fmt.Sprintf("Message deleted in <#%s>", event.ChannelID)
	embed := b.logEmbed("Message Deleted", description, b.cfg.EmbedColors.Error)
	authorID := ""
	content := ""
	if event.BeforeDelete != nil {
		content = event.BeforeDelete.Content
		if event.BeforeDelete.Author != nil {
			if event.BeforeDelete.Author.Bot {
				return
			}
			authorID = event.BeforeDelete.Author.ID
			embed.Description = fmt.Sprintf("Message by <@%s> deleted in <#%s>", authorID, event.ChannelID)
		}
		if content != "" {
			embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{Name: "Content", Value: utils.Truncate(content, 1024)})
		}
		if len(event.BeforeDelete.Attachments) > 0 {
			urls := make([]string, 0, len(event.BeforeDelete.Attachments))
			for _, attachment := range event.BeforeDelete.Attachments {
				urls = append(urls, attachment.URL)
			}
			embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{Name: "Attachments", Value: utils.Truncate(strings.Join(urls, "\n"), 1024)})
		}
	}
	b.audit.Log(ctx, event.GuildID, authorID, audit.ActionMessageDelete, event.ChannelID, utils.Truncate(content, 200))
	b.relay.Send(ctx, session, event.GuildID, storage.LogMessage, embed)
}

func (b *Bot) onGuildMemberAdd(session *discordgo.Session, event *discordgo.GuildMemberAdd) {
	if event.User == nil {
		return
	}

	ctx := context.Background()
	if !b.relay.Enabled(ctx, event.GuildID, storage.FacilityMemberJoins) {
		return
	}

	embed := b.logEmbed("Member Joined", fmt.Sprintf("<@%s> (%s) joined", event.User.ID, event.User.Username), b.cfg.EmbedColors.Success)
	suspect := ""
	if createdAt, err := discordgo.SnowflakeTimestamp(event.User.ID); err == nil {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:   "Account Created",
			Value:  createdAt.Format(time.RFC1123),
			Inline: true,
		})
		suspect = suspectNotice(event.User.ID, createdAt, time.Now())
	}
	b.audit.Log(ctx, event.GuildID, event.User.ID, audit.ActionMemberJoin, "", "")
	b.relay.Send(ctx, session, event.GuildID, storage.LogMember, embed)
	if suspect != "" {
		b.relay.Send(ctx, session, event.GuildID, storage.LogGeneral, b.logEmbed("Suspect Account", suspect, b.cfg.EmbedColors.Error))
	}
}

// suspectNotice is the second warning raised for freshly created
// accounts, routed to the general log channel.
func suspectNotice(userID string, createdAt, now time.Time) string {
	if !relay.SuspectAccount(createdAt, now) {
		return ""
	}
	age := now.Sub(createdAt).Round(time.Minute)
	return fmt.Sprintf("<@%s> joined with an account created %s ago", userID, age)
}

// onGuildMemberRemove disambiguates kicks from plain leaves. Kicks are
// always logged; only the leave branch honors the member-leaves toggle.
func (b *Bot) onGuildMemberRemove(session *discordgo.Session, event *discordgo.GuildMemberRemove) {
	if event.User == nil {
		return
	}

	ctx := context.Background()
	kickerID, reason := b.recentActor(session, event.GuildID, event.User.ID, discordgo.AuditLogActionMemberKick)
	if departureGated(kickerID != "", b.relay.Enabled(ctx, event.GuildID, storage.FacilityMemberLeaves)) {
		return
	}

	if kickerID != "" {
		b.audit.Punish(ctx, event.GuildID, event.User.ID, kickerID, audit.ActionKick, reason)
		embed := b.logEmbed("Member Kicked", fmt.Sprintf("<@%s> (%s) was kicked by <@%s>", event.User.ID, event.User.Username, kickerID), b.cfg.EmbedColors.Error)
		if reason != "" {
			embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{Name: "Reason", Value: utils.Truncate(reason, 1024)})
		}
		b.relay.Send(ctx, session, event.GuildID, storage.LogMember, embed)
		return
	}

	b.audit.Log(ctx, event.GuildID, event.User.ID, audit.ActionMemberLeave, "", "")
	embed := b.logEmbed("Member Left", fmt.Sprintf("<@%s> (%s) left", event.User.ID, event.User.Username), b.cfg.EmbedColors.Neutral)
	b.relay.Send(ctx, session, event.GuildID, storage.LogMember, embed)
}

// departureGated reports whether a member-remove notice may be dropped.
// Kicks are never gated; plain leaves follow the member-leaves toggle.
func departureGated(kicked, leavesEnabled bool) bool {
	return !kicked && !leavesEnabled
}

// recentActor checks the audit log for an entry targeting the user
// recent enough to explain the event, and returns the actor and reason.
// Best effort: missing permission or a stale entry means no attribution.
func (b *Bot) recentActor(session *discordgo.Session, guildID, userID string, action discordgo.AuditLogAction) (string, string) {
	auditLog, err := session.GuildAuditLog(guildID, "", "", int(action), 5)
	if err != nil {
		return "", ""
	}
	now := time.Now()
	for _, entry := range auditLog.AuditLogEntries {
		if entry.TargetID != userID {
			continue
		}
		entryTime, err := discordgo.SnowflakeTimestamp(entry.ID)
		if err != nil {
			continue
		}
		if relay.WithinKickWindow(entryTime, now) {
			return entry.UserID, entry.Reason
		}
	}
	return "", ""
}

func (b *Bot) onGuildMemberUpdate(session *discordgo.Session, event *discordgo.GuildMemberUpdate) {
	if event.User == nil || event.BeforeUpdate == nil {
		return
	}

	ctx := context.Background()
	if event.Nick != event.BeforeUpdate.Nick {
		embed := b.logEmbed("Nickname Changed", fmt.Sprintf("<@%s> nickname updated", event.User.ID), b.cfg.EmbedColors.Neutral)
		embed.Fields = []*discordgo.MessageEmbedField{
			{Name: "Before", Value: displayNick(event.BeforeUpdate.Nick), Inline: true},
			{Name: "After", Value: displayNick(event.Nick), Inline: true},
		}
		b.relay.Send(ctx, session, event.GuildID, storage.LogMember, embed)
	}

	if timeoutChanged(event.BeforeUpdate.CommunicationDisabledUntil, event.CommunicationDisabledUntil) {
		modID, reason := b.recentActor(session, event.GuildID, event.User.ID, discordgo.AuditLogActionMemberUpdate)
		if timeoutActive(event.CommunicationDisabledUntil) {
			b.audit.Punish(ctx, event.GuildID, event.User.ID, modID, audit.ActionTimeout, reason)
			embed := b.logEmbed("Member Timed Out", fmt.Sprintf("<@%s> timed out until %s", event.User.ID, event.CommunicationDisabledUntil.Format(time.RFC1123)), b.cfg.EmbedColors.Error)
			b.relay.Send(ctx, session, event.GuildID, storage.LogMod, embed)
		} else {
			b.audit.Log(ctx, event.GuildID, modID, audit.ActionTimeoutRemoved, event.User.ID, "")
			embed := b.logEmbed("Timeout Removed", fmt.Sprintf("Timeout removed for <@%s>", event.User.ID), b.cfg.EmbedColors.Success)
			b.relay.Send(ctx, session, event.GuildID, storage.LogMod, embed)
		}
	}
}

func timeoutActive(until *time.Time) bool {
	return until != nil && until.After(time.Now())
}

func timeoutChanged(before, after *time.Time) bool {
	if before == nil && after == nil {
		return false
	}
	if before == nil || after == nil {
		return true
	}
	return !before.Equal(*after)
}

func displayNick(nick string) string {
	if nick == "" {
		return "*none*"
	}
	return nick
}

func (b *Bot) onGuildBanAdd(session *discordgo.Session, event *discordgo.GuildBanAdd) {
	if event.User == nil {
		return
	}
	ctx := context.Background()
	modID, reason := b.recentActor(session, event.GuildID, event.User.ID, discordgo.AuditLogActionMemberBanAdd)
	b.audit.Punish(ctx, event.GuildID, event.User.ID, modID, audit.ActionBan, reason)
	embed := b.logEmbed("Member Banned", fmt.Sprintf("<@%s> (%s) was banned", event.User.ID, event.User.Username), b.cfg.EmbedColors.Error)
	if modID != "" {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{Name: "Moderator", Value: fmt.Sprintf("<@%s>", modID), Inline: true})
		if reason != "" {
			embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{Name: "Reason", Value: utils.Truncate(reason, 1024), Inline: true})
		}
	}
	b.relay.Send(ctx, session, event.GuildID, storage.LogMod, embed)
}

func (b *Bot) onGuildBanRemove(session *discordgo.Session, event *discordgo.GuildBanRemove) {
	if event.User == nil {
		return
	}
	ctx := context.Background()
	modID, _ := b.recentActor(session, event.GuildID, event.User.ID, discordgo.AuditLogActionMemberBanRemove)
	b.audit.Log(ctx, event.GuildID, modID, audit.ActionUnban, event.User.ID, "")
	embed := b.logEmbed("Member Unbanned", fmt.Sprintf("<@%s> (%s) was unbanned", event.User.ID, event.User.Username), b.cfg.EmbedColors.Success)
	if modID != "" {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{Name: "Moderator", Value: fmt.Sprintf("<@%s>", modID), Inline: true})
	}
	b.relay.Send(ctx, session, event.GuildID, storage.LogMod, embed)
}

func (b *Bot) onVoiceStateUpdate(session *discordgo.Session, event *discordgo.VoiceStateUpdate) {
	if event.GuildID == "" || event.UserID == "" {
		return
	}

	ctx := context.Background()
	if !b.relay.Enabled(ctx, event.GuildID, storage.FacilityVoiceUpdates) {
		return
	}

	oldChannelID := ""
	if event.BeforeUpdate != nil {
		oldChannelID = event.BeforeUpdate.ChannelID
	}

	var embed *discordgo.MessageEmbed
	switch relay.VoiceTransition(oldChannelID, event.ChannelID) {
	case relay.VoiceJoin:
		b.audit.Log(ctx, event.GuildID, event.UserID, audit.ActionVoiceJoin, event.ChannelID, "")
		embed = b.logEmbed("Voice Join", fmt.Sprintf("<@%s> joined <#%s>", event.UserID, event.ChannelID), b.cfg.EmbedColors.Success)
	case relay.VoiceLeave:
		b.audit.Log(ctx, event.GuildID, event.UserID, audit.ActionVoiceLeave, oldChannelID, "")
		embed = b.logEmbed("Voice Leave", fmt.Sprintf("<@%s> left <#%s>", event.UserID, oldChannelID), b.cfg.EmbedColors.Neutral)
	case relay.VoiceMove:
		b.audit.Log(ctx, event.GuildID, event.UserID, audit.ActionVoiceMove, event.ChannelID, "")
		embed = b.logEmbed("Voice Move", fmt.Sprintf("<@%s> moved from <#%s> to <#%s>", event.UserID, oldChannelID, event.ChannelID), b.cfg.EmbedColors.Neutral)
	default:
		return
	}
	b.relay.Send(ctx, session, event.GuildID, storage.LogVoice, embed)
}
