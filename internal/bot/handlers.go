package bot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"guildwarden/internal/audit"
	"guildwarden/internal/storage"
	"guildwarden/internal/tickets"
	"guildwarden/internal/utils"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

func (b *Bot) onInteractionCreate(session *discordgo.Session, interaction *discordgo.InteractionCreate) {
	switch interaction.Type {
	case discordgo.InteractionApplicationCommand:
		b.handleCommand(session, interaction)
	case discordgo.InteractionMessageComponent:
		b.handleComponent(session, interaction)
	case discordgo.InteractionApplicationCommandAutocomplete:
		b.handleAutocomplete(session, interaction)
	case discordgo.InteractionModalSubmit:
		b.handleModal(session, interaction)
	}
}

func (b *Bot) handleCommand(session *discordgo.Session, interaction *discordgo.InteractionCreate) {
	if interaction.GuildID == "" {
		b.respondError(session, interaction, "Commands only work inside a guild.")
		return
	}

	ctx := context.Background()
	data := interaction.ApplicationCommandData()
	switch data.Name {
	case "config":
		b.handleConfigCommand(ctx, session, interaction, data.Options)
	case "ticket":
		b.handleTicketCommand(ctx, session, interaction, data.Options)
	case "reason":
		b.handleReasonCommand(ctx, session, interaction, data.Options)
	case "warn":
		b.handleWarnCommand(ctx, session, interaction, data.Options)
	case "purge":
		b.handlePurgeCommand(ctx, session, interaction, data.Options)
	case "lock":
		b.handleLockCommand(ctx, session, interaction, true)
	case "unlock":
		b.handleLockCommand(ctx, session, interaction, false)
	case "slowmode":
		b.handleSlowmodeCommand(ctx, session, interaction, data.Options)
	case "nick":
		b.handleNickCommand(ctx, session, interaction, data.Options)
	case "snippet":
		b.handleSnippetCommand(ctx, session, interaction, data.Options)
	case "modlogs":
		b.handleModlogsCommand(ctx, session, interaction, data.Options)
	default:
		b.respondError(session, interaction, "Unknown command.")
	}
}

func hasRole(roles []string, roleID string) bool {
	if roleID == "" {
		return false
	}
	for _, role := range roles {
		if role == roleID {
			return true
		}
	}
	return false
}

// memberIsAdmin allows the configured admin role or anyone with the
// Manage Server permission.
func memberIsAdmin(member *discordgo.Member, cfg *storage.GuildConfig) bool {
	if member == nil {
		return false
	}
	if member.Permissions&(discordgo.PermissionAdministrator|discordgo.PermissionManageServer) != 0 {
		return true
	}
	if cfg != nil && hasRole(member.Roles, cfg.AdminRoleID) {
		return true
	}
	return false
}

func memberIsMod(member *discordgo.Member, cfg *storage.GuildConfig) bool {
	if memberIsAdmin(member, cfg) {
		return true
	}
	if member == nil {
		return false
	}
	return cfg != nil && hasRole(member.Roles, cfg.ModRoleID)
}

func (b *Bot) requireMod(ctx context.Context, session *discordgo.Session, interaction *discordgo.InteractionCreate) bool {
	cfg, _ := b.store.GetGuildConfig(ctx, interaction.GuildID)
	if memberIsMod(interaction.Member, cfg) {
		return true
	}
	b.respondError(session, interaction, "You need the mod role to do that.")
	return false
}

func (b *Bot) requireAdmin(ctx context.Context, session *discordgo.Session, interaction *discordgo.InteractionCreate) bool {
	cfg, _ := b.store.GetGuildConfig(ctx, interaction.GuildID)
	if memberIsAdmin(interaction.Member, cfg) {
		return true
	}
	b.respondError(session, interaction, "You need the admin role to do that.")
	return false
}

func optionMap(options []*discordgo.ApplicationCommandInteractionDataOption) map[string]*discordgo.ApplicationCommandInteractionDataOption {
	m := make(map[string]*discordgo.ApplicationCommandInteractionDataOption, len(options))
	for _, opt := range options {
		m[opt.Name] = opt
	}
	return m
}

func interactionUserID(interaction *discordgo.InteractionCreate) string {
	if interaction.Member != nil && interaction.Member.User != nil {
		return interaction.Member.User.ID
	}
	return ""
}

func (b *Bot) handleConfigCommand(ctx context.Context, session *discordgo.Session, interaction *discordgo.InteractionCreate, options []*discordgo.ApplicationCommandInteractionDataOption) {
	if !b.requireAdmin(ctx, session, interaction) {
		return
	}
	if len(options) == 0 {
		b.respondError(session, interaction, "Missing subcommand.")
		return
	}

	sub := options[0]
	opts := optionMap(sub.Options)
	switch sub.Name {
	case "init":
		if err := b.store.InitGuildConfig(ctx, interaction.GuildID); err != nil {
			b.logger.Warn("config init failed", zap.Error(err))
			b.respondError(session, interaction, "Could not initialize the configuration.")
			return
		}
		b.respondSuccess(session, interaction, "Config", "Configuration initialized.")
	case "show":
		cfg, err := b.store.GetGuildConfig(ctx, interaction.GuildID)
		if err != nil {
			b.respondError(session, interaction, "Could not load the configuration.")
			return
		}
		if cfg == nil {
			b.respondError(session, interaction, "No configuration yet. Run /config init first.")
			return
		}
		embed := b.logEmbed("Configuration", "", b.cfg.EmbedColors.Neutral)
		embed.Fields = []*discordgo.MessageEmbedField{
			{Name: "Ticket Category", Value: displayChannel(cfg.TicketCategoryID), Inline: true},
			{Name: "Transcripts", Value: displayChannel(cfg.TranscriptChannelID), Inline: true},
			{Name: "General Log", Value: displayChannel(cfg.LogChannelID), Inline: true},
			{Name: "Mod Log", Value: displayChannel(cfg.ModLogChannelID), Inline: true},
			{Name: "Message Log", Value: displayChannel(cfg.MessageLogChannelID), Inline: true},
			{Name: "Member Log", Value: displayChannel(cfg.MemberLogChannelID), Inline: true},
			{Name: "Voice Log", Value: displayChannel(cfg.VoiceLogChannelID), Inline: true},
			{Name: "Edits", Value: displayToggle(cfg.LogMessageEdits), Inline: true},
			{Name: "Deletions", Value: displayToggle(cfg.LogMessageDeletions), Inline: true},
			{Name: "Joins", Value: displayToggle(cfg.LogMemberJoins), Inline: true},
			{Name: "Leaves", Value: displayToggle(cfg.LogMemberLeaves), Inline: true},
			{Name: "Voice", Value: displayToggle(cfg.LogVoiceUpdates), Inline: true},
			{Name: "Invite Filter", Value: displayToggle(cfg.AutomodInviteLinks), Inline: true},
			{Name: "Mod Role", Value: displayRole(cfg.ModRoleID), Inline: true},
			{Name: "Admin Role", Value: displayRole(cfg.AdminRoleID), Inline: true},
		}
		b.respondEmbed(session, interaction, embed, true)
	case "channel":
		kind := opts["kind"].StringValue()
		channel := opts["channel"].ChannelValue(session)
		if channel == nil {
			b.respondError(session, interaction, "Channel not found.")
			return
		}
		cfg, err := b.store.GetOrDefaultGuildConfig(ctx, interaction.GuildID)
		if err != nil {
			b.respondError(session, interaction, "Could not load the configuration.")
			return
		}
		switch kind {
		case "tickets":
			cfg.TicketCategoryID = channel.ID
		case "transcripts":
			cfg.TranscriptChannelID = channel.ID
		case "log":
			cfg.LogChannelID = channel.ID
		case "modlog":
			cfg.ModLogChannelID = channel.ID
		case "messagelog":
			cfg.MessageLogChannelID = channel.ID
		case "memberlog":
			cfg.MemberLogChannelID = channel.ID
		case "voicelog":
			cfg.VoiceLogChannelID = channel.ID
		default:
			b.respondError(session, interaction, "Unknown channel kind.")
			return
		}
		if err := b.store.UpsertGuildConfig(ctx, cfg); err != nil {
			b.logger.Warn("config channel update failed", zap.Error(err))
			b.respondError(session, interaction, "Could not save the configuration.")
			return
		}
		b.respondSuccess(session, interaction, "Config", fmt.Sprintf("%s channel set to <#%s>.", kind, channel.ID))
	case "toggle":
		facility := opts["facility"].StringValue()
		enabled := opts["enabled"].BoolValue()
		cfg, err := b.store.GetOrDefaultGuildConfig(ctx, interaction.GuildID)
		if err != nil {
			b.respondError(session, interaction, "Could not load the configuration.")
			return
		}
		switch facility {
		case "message_edits":
			cfg.LogMessageEdits = enabled
		case "message_deletions":
			cfg.LogMessageDeletions = enabled
		case "member_joins":
			cfg.LogMemberJoins = enabled
		case "member_leaves":
			cfg.LogMemberLeaves = enabled
		case "voice_updates":
			cfg.LogVoiceUpdates = enabled
		case "invite_links":
			cfg.AutomodInviteLinks = enabled
		default:
			b.respondError(session, interaction, "Unknown facility.")
			return
		}
		if err := b.store.UpsertGuildConfig(ctx, cfg); err != nil {
			b.respondError(session, interaction, "Could not save the configuration.")
			return
		}
		b.respondSuccess(session, interaction, "Config", fmt.Sprintf("%s is now %s.", facility, displayToggle(enabled)))
	case "role":
		kind := opts["kind"].StringValue()
		role := opts["role"].RoleValue(session, interaction.GuildID)
		if role == nil {
			b.respondError(session, interaction, "Role not found.")
			return
		}
		cfg, err := b.store.GetOrDefaultGuildConfig(ctx, interaction.GuildID)
		if err != nil {
			b.respondError(session, interaction, "Could not load the configuration.")
			return
		}
		if kind == "admin" {
			cfg.AdminRoleID = role.ID
		} else {
			cfg.ModRoleID = role.ID
		}
		if err := b.store.UpsertGuildConfig(ctx, cfg); err != nil {
			b.respondError(session, interaction, "Could not save the configuration.")
			return
		}
		b.respondSuccess(session, interaction, "Config", fmt.Sprintf("%s role set to <@&%s>.", kind, role.ID))
	case "filter":
		b.handleFilterCommand(ctx, session, interaction, opts)
	default:
		b.respondError(session, interaction, "Unknown subcommand.")
	}
}

func (b *Bot) handleFilterCommand(ctx context.Context, session *discordgo.Session, interaction *discordgo.InteractionCreate, opts map[string]*discordgo.ApplicationCommandInteractionDataOption) {
	action := opts["action"].StringValue()
	phrase := ""
	if opt, ok := opts["phrase"]; ok {
		phrase = strings.TrimSpace(opt.StringValue())
	}

	switch action {
	case "add":
		if phrase == "" {
			b.respondError(session, interaction, "A phrase is required.")
			return
		}
		added, err := b.store.AddWordFilter(ctx, interaction.GuildID, phrase)
		if err != nil {
			b.respondError(session, interaction, "Could not add the filter.")
			return
		}
		if !added {
			b.respondError(session, interaction, "That phrase is already filtered.")
			return
		}
		b.respondSuccess(session, interaction, "Filter", "Phrase added.")
	case "remove":
		if phrase == "" {
			b.respondError(session, interaction, "A phrase is required.")
			return
		}
		removed, err := b.store.RemoveWordFilter(ctx, interaction.GuildID, phrase)
		if err != nil {
			b.respondError(session, interaction, "Could not remove the filter.")
			return
		}
		if !removed {
			b.respondError(session, interaction, "That phrase is not filtered.")
			return
		}
		b.respondSuccess(session, interaction, "Filter", "Phrase removed.")
	case "list":
		filters, err := b.store.ListWordFilters(ctx, interaction.GuildID)
		if err != nil {
			b.respondError(session, interaction, "Could not list filters.")
			return
		}
		if len(filters) == 0 {
			b.respondSuccess(session, interaction, "Filter", "No filtered phrases.")
			return
		}
		lines := make([]string, 0, len(filters))
		for _, f := range filters {
			lines = append(lines, f.Phrase)
		}
		b.respondSuccess(session, interaction, "Filter", utils.Truncate(strings.Join(lines, "\n"), 4000))
	default:
		b.respondError(session, interaction, "Unknown action.")
	}
}

func (b *Bot) handleTicketCommand(ctx context.Context, session *discordgo.Session, interaction *discordgo.InteractionCreate, options []*discordgo.ApplicationCommandInteractionDataOption) {
	if len(options) == 0 {
		b.respondError(session, interaction, "Missing subcommand.")
		return
	}

	sub := options[0]
	opts := optionMap(sub.Options)
	userID := interactionUserID(interaction)

	switch sub.Name {
	case "open":
		if interaction.Member == nil || interaction.Member.User == nil {
			b.respondError(session, interaction, "Could not resolve your user.")
			return
		}
		channelID, err := b.tickets.Open(ctx, session, interaction.GuildID, interaction.Member.User, nil)
		if err != nil {
			b.respondTicketError(session, interaction, err)
			return
		}
		b.sendTicketControls(session, channelID, interaction.Member.User.ID)
		b.respondSuccess(session, interaction, "Ticket", fmt.Sprintf("Ticket opened: <#%s>", channelID))
	case "claim":
		if !b.requireMod(ctx, session, interaction) {
			return
		}
		ticket, err := b.tickets.Claim(ctx, session, interaction.ChannelID, userID)
		if err != nil {
			b.respondTicketError(session, interaction, err)
			return
		}
		b.respondEmbed(session, interaction, b.logEmbed("Ticket", fmt.Sprintf("Ticket #%d claimed by <@%s>.", ticket.ID, userID), b.cfg.EmbedColors.Success), false)
	case "close":
		if !b.requireMod(ctx, session, interaction) {
			return
		}
		ticket, err := b.tickets.Close(ctx, session, interaction.ChannelID, userID)
		if err != nil {
			b.respondTicketError(session, interaction, err)
			return
		}
		b.respondEmbed(session, interaction, b.ticketClosedEmbed(ticket), false)
	case "reopen":
		if !b.requireMod(ctx, session, interaction) {
			return
		}
		ticket, err := b.tickets.Reopen(ctx, session, interaction.ChannelID, userID)
		if err != nil {
			b.respondTicketError(session, interaction, err)
			return
		}
		b.respondEmbed(session, interaction, b.logEmbed("Ticket", fmt.Sprintf("Ticket #%d reopened.", ticket.ID), b.cfg.EmbedColors.Success), false)
	case "delete":
		if !b.requireMod(ctx, session, interaction) {
			return
		}
		if err := b.tickets.Delete(ctx, session, interaction.ChannelID, userID); err != nil {
			b.respondTicketError(session, interaction, err)
			return
		}
		b.respondEmbed(session, interaction, b.logEmbed("Ticket", "Transcript saved. Channel will be deleted shortly.", b.cfg.EmbedColors.Error), false)
	case "add":
		if !b.requireMod(ctx, session, interaction) {
			return
		}
		target := opts["user"].UserValue(session)
		if target == nil {
			b.respondError(session, interaction, "User not found.")
			return
		}
		if err := b.tickets.AddMember(ctx, session, interaction.ChannelID, target.ID); err != nil {
			b.respondTicketError(session, interaction, err)
			return
		}
		b.respondSuccess(session, interaction, "Ticket", fmt.Sprintf("<@%s> added to the ticket.", target.ID))
	case "remove":
		if !b.requireMod(ctx, session, interaction) {
			return
		}
		target := opts["user"].UserValue(session)
		if target == nil {
			b.respondError(session, interaction, "User not found.")
			return
		}
		if err := b.tickets.RemoveMember(ctx, session, interaction.ChannelID, target.ID); err != nil {
			b.respondTicketError(session, interaction, err)
			return
		}
		b.respondSuccess(session, interaction, "Ticket", fmt.Sprintf("<@%s> removed from the ticket.", target.ID))
	case "rename":
		if !b.requireMod(ctx, session, interaction) {
			return
		}
		name := opts["name"].StringValue()
		if err := b.tickets.Rename(ctx, session, interaction.ChannelID, name); err != nil {
			b.respondTicketError(session, interaction, err)
			return
		}
		b.respondSuccess(session, interaction, "Ticket", "Channel renamed.")
	case "transcript":
		if !b.requireMod(ctx, session, interaction) {
			return
		}
		ticket, url, err := b.tickets.SaveTranscript(ctx, session, interaction.ChannelID)
		if err != nil {
			b.respondTicketError(session, interaction, err)
			return
		}
		message := fmt.Sprintf("Transcript for ticket #%d saved.", ticket.ID)
		if url != "" {
			message += "\n" + url
		}
		b.respondSuccess(session, interaction, "Ticket", message)
	case "stats":
		if !b.requireMod(ctx, session, interaction) {
			return
		}
		stats, err := b.tickets.Stats(ctx, interaction.GuildID)
		if err != nil {
			b.respondError(session, interaction, "Could not load ticket stats.")
			return
		}
		embed := b.logEmbed("Ticket Stats", "", b.cfg.EmbedColors.Neutral)
		embed.Fields = []*discordgo.MessageEmbedField{
			{Name: "Total", Value: fmt.Sprintf("%d", stats.Total), Inline: true},
			{Name: "Open", Value: fmt.Sprintf("%d", stats.Open), Inline: true},
			{Name: "Closed", Value: fmt.Sprintf("%d", stats.Closed), Inline: true},
			{Name: "Claimed", Value: fmt.Sprintf("%d", stats.Claimed), Inline: true},
		}
		b.respondEmbed(session, interaction, embed, true)
	case "panel":
		if !b.requireAdmin(ctx, session, interaction) {
			return
		}
		if err := b.sendTicketLauncher(ctx, session, interaction.GuildID, interaction.ChannelID); err != nil {
			b.respondError(session, interaction, "Could not post the launcher.")
			return
		}
		b.respondSuccess(session, interaction, "Ticket", "Launcher posted.")
	default:
		b.respondError(session, interaction, "Unknown subcommand.")
	}
}

func (b *Bot) respondTicketError(session *discordgo.Session, interaction *discordgo.InteractionCreate, err error) {
	switch {
	case errors.Is(err, tickets.ErrNoCategory):
		b.respondError(session, interaction, "No ticket category is configured. Use /config channel first.")
	case errors.Is(err, tickets.ErrNotTicket):
		b.respondError(session, interaction, "This channel is not a ticket.")
	case errors.Is(err, tickets.ErrAlreadyClosed):
		b.respondError(session, interaction, "This ticket is already closed.")
	case errors.Is(err, tickets.ErrAlreadyOpen):
		b.respondError(session, interaction, "This ticket is already open.")
	case errors.Is(err, tickets.ErrHasTicket):
		b.respondError(session, interaction, "You already have an open ticket.")
	default:
		b.logger.Warn("ticket command failed", zap.Error(err))
		b.respondError(session, interaction, "Something went wrong.")
	}
}

func (b *Bot) handleReasonCommand(ctx context.Context, session *discordgo.Session, interaction *discordgo.InteractionCreate, options []*discordgo.ApplicationCommandInteractionDataOption) {
	if !b.requireAdmin(ctx, session, interaction) {
		return
	}
	if len(options) == 0 {
		b.respondError(session, interaction, "Missing subcommand.")
		return
	}

	sub := options[0]
	opts := optionMap(sub.Options)
	switch sub.Name {
	case "add":
		reason := storage.TicketReason{
			GuildID: interaction.GuildID,
			Label:   opts["label"].StringValue(),
		}
		if opt, ok := opts["description"]; ok {
			reason.Description = opt.StringValue()
		}
		if opt, ok := opts["emoji"]; ok {
			reason.Emoji = opt.StringValue()
		}
		if opt, ok := opts["category"]; ok {
			if channel := opt.ChannelValue(session); channel != nil {
				reason.CategoryID = channel.ID
			}
		}
		id, err := b.store.CreateTicketReason(ctx, reason)
		if err != nil {
			b.respondError(session, interaction, "Could not create the reason.")
			return
		}
		b.respondSuccess(session, interaction, "Reason", fmt.Sprintf("Reason %d created.", id))
	case "edit":
		id := opts["id"].IntValue()
		reason, err := b.store.GetTicketReason(ctx, interaction.GuildID, id)
		if err != nil {
			b.respondError(session, interaction, "Could not load the reason.")
			return
		}
		if reason == nil {
			b.respondError(session, interaction, "No such reason.")
			return
		}
		if opt, ok := opts["label"]; ok {
			reason.Label = opt.StringValue()
		}
		if opt, ok := opts["description"]; ok {
			reason.Description = opt.StringValue()
		}
		if opt, ok := opts["emoji"]; ok {
			reason.Emoji = opt.StringValue()
		}
		if opt, ok := opts["category"]; ok {
			if channel := opt.ChannelValue(session); channel != nil {
				reason.CategoryID = channel.ID
			}
		}
		if err := b.store.UpdateTicketReason(ctx, *reason); err != nil {
			b.respondError(session, interaction, "Could not update the reason.")
			return
		}
		b.respondSuccess(session, interaction, "Reason", fmt.Sprintf("Reason %d updated.", id))
	case "remove":
		id := opts["id"].IntValue()
		removed, err := b.store.DeleteTicketReason(ctx, interaction.GuildID, id)
		if err != nil {
			b.respondError(session, interaction, "Could not remove the reason.")
			return
		}
		if !removed {
			b.respondError(session, interaction, "No such reason.")
			return
		}
		b.respondSuccess(session, interaction, "Reason", "Reason removed.")
	case "list":
		reasons, err := b.store.ListTicketReasons(ctx, interaction.GuildID)
		if err != nil {
			b.respondError(session, interaction, "Could not list reasons.")
			return
		}
		if len(reasons) == 0 {
			b.respondSuccess(session, interaction, "Reason", "No ticket reasons configured.")
			return
		}
		lines := make([]string, 0, len(reasons))
		for _, r := range reasons {
			lines = append(lines, fmt.Sprintf("%d: %s", r.ID, r.Label))
		}
		b.respondSuccess(session, interaction, "Reason", strings.Join(lines, "\n"))
	default:
		b.respondError(session, interaction, "Unknown subcommand.")
	}
}

func (b *Bot) handleWarnCommand(ctx context.Context, session *discordgo.Session, interaction *discordgo.InteractionCreate, options []*discordgo.ApplicationCommandInteractionDataOption) {
	if !b.requireMod(ctx, session, interaction) {
		return
	}

	opts := optionMap(options)
	target := opts["user"].UserValue(session)
	reason := opts["reason"].StringValue()
	if target == nil {
		b.respondError(session, interaction, "User not found.")
		return
	}
	modID := interactionUserID(interaction)

	b.audit.Punish(ctx, interaction.GuildID, target.ID, modID, audit.ActionWarn, reason)

	// DM is best effort; users can block DMs.
	if dm, err := session.UserChannelCreate(target.ID); err == nil {
		embed := b.logEmbed("Warning", fmt.Sprintf("You were warned: %s", reason), b.cfg.EmbedColors.Error)
		_, _ = session.ChannelMessageSendEmbed(dm.ID, embed)
	}

	embed := b.logEmbed("Member Warned", fmt.Sprintf("<@%s> warned by <@%s>", target.ID, modID), b.cfg.EmbedColors.Error)
	embed.Fields = []*discordgo.MessageEmbedField{{Name: "Reason", Value: reason}}
	b.relay.Send(ctx, session, interaction.GuildID, storage.LogMod, embed)

	b.respondSuccess(session, interaction, "Warn", fmt.Sprintf("<@%s> has been warned.", target.ID))
}

func (b *Bot) handlePurgeCommand(ctx context.Context, session *discordgo.Session, interaction *discordgo.InteractionCreate, options []*discordgo.ApplicationCommandInteractionDataOption) {
	if !b.requireMod(ctx, session, interaction) {
		return
	}

	opts := optionMap(options)
	count := int(opts["count"].IntValue())
	if count < 1 || count > 100 {
		b.respondError(session, interaction, "Count must be between 1 and 100.")
		return
	}

	messages, err := session.ChannelMessages(interaction.ChannelID, count, "", "", "")
	if err != nil {
		b.respondError(session, interaction, "Could not fetch messages.")
		return
	}
	ids := make([]string, 0, len(messages))
	for _, msg := range messages {
		ids = append(ids, msg.ID)
	}
	if err := session.ChannelMessagesBulkDelete(interaction.ChannelID, ids); err != nil {
		b.respondError(session, interaction, "Bulk delete failed. Messages older than two weeks cannot be purged.")
		return
	}

	modID := interactionUserID(interaction)
	b.audit.Log(ctx, interaction.GuildID, modID, audit.ActionPurge, interaction.ChannelID, fmt.Sprintf("%d messages", len(ids)))
	embed := b.logEmbed("Purge", fmt.Sprintf("<@%s> purged %d messages in <#%s>", modID, len(ids), interaction.ChannelID), b.cfg.EmbedColors.Error)
	b.relay.Send(ctx, session, interaction.GuildID, storage.LogMod, embed)
	b.respondSuccess(session, interaction, "Purge", fmt.Sprintf("Deleted %d messages.", len(ids)))
}

func (b *Bot) handleLockCommand(ctx context.Context, session *discordgo.Session, interaction *discordgo.InteractionCreate, lock bool) {
	if !b.requireMod(ctx, session, interaction) {
		return
	}

	modID := interactionUserID(interaction)
	if lock {
		err := session.ChannelPermissionSet(interaction.ChannelID, interaction.GuildID, discordgo.PermissionOverwriteTypeRole, 0, discordgo.PermissionSendMessages)
		if err != nil {
			b.respondError(session, interaction, "Could not lock the channel.")
			return
		}
		b.audit.Log(ctx, interaction.GuildID, modID, audit.ActionLock, interaction.ChannelID, "")
		b.relay.Send(ctx, session, interaction.GuildID, storage.LogMod, b.logEmbed("Channel Locked", fmt.Sprintf("<#%s> locked by <@%s>", interaction.ChannelID, modID), b.cfg.EmbedColors.Error))
		b.respondSuccess(session, interaction, "Lock", "Channel locked.")
		return
	}

	if err := session.ChannelPermissionDelete(interaction.ChannelID, interaction.GuildID); err != nil {
		b.respondError(session, interaction, "Could not unlock the channel.")
		return
	}
	b.audit.Log(ctx, interaction.GuildID, modID, audit.ActionUnlock, interaction.ChannelID, "")
	b.relay.Send(ctx, session, interaction.GuildID, storage.LogMod, b.logEmbed("Channel Unlocked", fmt.Sprintf("<#%s> unlocked by <@%s>", interaction.ChannelID, modID), b.cfg.EmbedColors.Success))
	b.respondSuccess(session, interaction, "Unlock", "Channel unlocked.")
}

func (b *Bot) handleSlowmodeCommand(ctx context.Context, session *discordgo.Session, interaction *discordgo.InteractionCreate, options []*discordgo.ApplicationCommandInteractionDataOption) {
	if !b.requireMod(ctx, session, interaction) {
		return
	}

	opts := optionMap(options)
	seconds := int(opts["seconds"].IntValue())
	if seconds < 0 || seconds > 21600 {
		b.respondError(session, interaction, "Seconds must be between 0 and 21600.")
		return
	}

	if _, err := session.ChannelEdit(interaction.ChannelID, &discordgo.ChannelEdit{RateLimitPerUser: &seconds}); err != nil {
		b.respondError(session, interaction, "Could not set slowmode.")
		return
	}

	modID := interactionUserID(interaction)
	b.audit.Log(ctx, interaction.GuildID, modID, audit.ActionSlowmode, interaction.ChannelID, fmt.Sprintf("%ds", seconds))
	if seconds == 0 {
		b.respondSuccess(session, interaction, "Slowmode", "Slowmode disabled.")
		return
	}
	b.respondSuccess(session, interaction, "Slowmode", fmt.Sprintf("Slowmode set to %d seconds.", seconds))
}

func (b *Bot) handleNickCommand(ctx context.Context, session *discordgo.Session, interaction *discordgo.InteractionCreate, options []*discordgo.ApplicationCommandInteractionDataOption) {
	if !b.requireMod(ctx, session, interaction) {
		return
	}

	opts := optionMap(options)
	target := opts["user"].UserValue(session)
	if target == nil {
		b.respondError(session, interaction, "User not found.")
		return
	}
	name := ""
	if opt, ok := opts["name"]; ok {
		name = opt.StringValue()
	}

	if err := session.GuildMemberNickname(interaction.GuildID, target.ID, name); err != nil {
		b.respondError(session, interaction, "Could not change the nickname.")
		return
	}

	modID := interactionUserID(interaction)
	b.audit.Log(ctx, interaction.GuildID, modID, audit.ActionNick, target.ID, name)
	b.respondSuccess(session, interaction, "Nick", fmt.Sprintf("Nickname updated for <@%s>.", target.ID))
}

func (b *Bot) handleSnippetCommand(ctx context.Context, session *discordgo.Session, interaction *discordgo.InteractionCreate, options []*discordgo.ApplicationCommandInteractionDataOption) {
	if !b.requireMod(ctx, session, interaction) {
		return
	}
	if len(options) == 0 {
		b.respondError(session, interaction, "Missing subcommand.")
		return
	}

	sub := options[0]
	opts := optionMap(sub.Options)
	switch sub.Name {
	case "send":
		category := ""
		if opt, ok := opts["category"]; ok {
			category = opt.StringValue()
		}
		var snippets []storage.Snippet
		var err error
		if category != "" {
			snippets, err = b.store.ListSnippetsByCategory(ctx, interaction.GuildID, category)
		} else {
			snippets, err = b.store.ListSnippets(ctx, interaction.GuildID)
		}
		if err != nil {
			b.respondError(session, interaction, "Could not load snippets.")
			return
		}
		if len(snippets) == 0 {
			b.respondError(session, interaction, "No snippets to send.")
			return
		}
		b.respondSnippetPicker(session, interaction, snippets)
	case "add":
		name := opts["name"].StringValue()
		content := opts["content"].StringValue()
		category := ""
		if opt, ok := opts["category"]; ok {
			category = opt.StringValue()
		}
		payload, err := json.Marshal(discordgo.MessageEmbed{Title: name, Description: content})
		if err != nil {
			b.respondError(session, interaction, "Could not encode the snippet.")
			return
		}
		err = b.store.UpsertSnippet(ctx, storage.Snippet{GuildID: interaction.GuildID, Name: name, Category: category, Content: string(payload)})
		if err != nil {
			b.respondError(session, interaction, "Could not save the snippet.")
			return
		}
		b.respondSuccess(session, interaction, "Snippet", fmt.Sprintf("Snippet %q saved.", name))
	case "remove":
		name := opts["name"].StringValue()
		deleted, err := b.store.DeleteSnippet(ctx, interaction.GuildID, name)
		if err != nil {
			b.respondError(session, interaction, "Could not delete the snippet.")
			return
		}
		if !deleted {
			b.respondError(session, interaction, "No such snippet.")
			return
		}
		b.respondSuccess(session, interaction, "Snippet", "Snippet deleted.")
	case "list":
		snippets, err := b.store.ListSnippets(ctx, interaction.GuildID)
		if err != nil {
			b.respondError(session, interaction, "Could not list snippets.")
			return
		}
		if len(snippets) == 0 {
			b.respondSuccess(session, interaction, "Snippet", "No snippets.")
			return
		}
		lines := make([]string, 0, len(snippets))
		for _, snip := range snippets {
			lines = append(lines, snip.Name)
		}
		b.respondSuccess(session, interaction, "Snippet", strings.Join(lines, "\n"))
	default:
		b.respondError(session, interaction, "Unknown subcommand.")
	}
}

// handleAutocomplete serves category suggestions for /snippet send.
func (b *Bot) handleAutocomplete(session *discordgo.Session, interaction *discordgo.InteractionCreate) {
	if interaction.GuildID == "" {
		return
	}
	data := interaction.ApplicationCommandData()
	if data.Name != "snippet" {
		return
	}

	prefix := ""
	found := false
	for _, sub := range data.Options {
		if sub.Name != "send" {
			continue
		}
		for _, opt := range sub.Options {
			if opt.Name == "category" && opt.Focused {
				prefix = opt.StringValue()
				found = true
			}
		}
	}
	if !found {
		return
	}

	ctx := context.Background()
	categories, err := b.store.SnippetCategories(ctx, interaction.GuildID)
	if err != nil {
		b.logger.Warn("snippet categories load failed", zap.Error(err))
		return
	}

	choices := make([]*discordgo.ApplicationCommandOptionChoice, 0, len(categories))
	for _, category := range matchCategories(categories, prefix) {
		choices = append(choices, &discordgo.ApplicationCommandOptionChoice{Name: category, Value: category})
	}
	err = session.InteractionRespond(interaction.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionApplicationCommandAutocompleteResult,
		Data: &discordgo.InteractionResponseData{Choices: choices},
	})
	if err != nil {
		b.logger.Warn("autocomplete respond failed", zap.Error(err))
	}
}

// matchCategories filters categories by a case-insensitive prefix and
// caps the result at Discord's 25-choice limit.
func matchCategories(categories []string, prefix string) []string {
	lower := strings.ToLower(prefix)
	matched := make([]string, 0, len(categories))
	for _, category := range categories {
		if !strings.HasPrefix(strings.ToLower(category), lower) {
			continue
		}
		matched = append(matched, category)
		if len(matched) == 25 {
			break
		}
	}
	return matched
}

func (b *Bot) handleModlogsCommand(ctx context.Context, session *discordgo.Session, interaction *discordgo.InteractionCreate, options []*discordgo.ApplicationCommandInteractionDataOption) {
	if !b.requireMod(ctx, session, interaction) {
		return
	}

	opts := optionMap(options)
	target := opts["user"].UserValue(session)
	if target == nil {
		b.respondError(session, interaction, "User not found.")
		return
	}

	punishments, err := b.store.PunishmentsFor(ctx, interaction.GuildID, target.ID)
	if err != nil {
		b.respondError(session, interaction, "Could not load punishment history.")
		return
	}
	if len(punishments) == 0 {
		b.respondSuccess(session, interaction, "Mod Logs", fmt.Sprintf("<@%s> has a clean record.", target.ID))
		return
	}

	embed := b.logEmbed("Mod Logs", fmt.Sprintf("History for <@%s>", target.ID), b.cfg.EmbedColors.Neutral)
	limit := len(punishments)
	if limit > 10 {
		limit = 10
	}
	for _, p := range punishments[:limit] {
		value := fmt.Sprintf("by <@%s> on %s", p.ModeratorID, p.CreatedAt.Format("2006-01-02"))
		if p.Reason != "" {
			value += ": " + utils.Truncate(p.Reason, 200)
		}
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{Name: p.Type, Value: value})
	}
	b.respondEmbed(session, interaction, embed, true)
}

func displayChannel(id string) string {
	if id == "" {
		return "*not set*"
	}
	return "<#" + id + ">"
}

func displayRole(id string) string {
	if id == "" {
		return "*not set*"
	}
	return "<@&" + id + ">"
}

func displayToggle(on bool) string {
	if on {
		return "on"
	}
	return "off"
}
