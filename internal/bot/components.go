package bot

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"guildwarden/internal/storage"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

const (
	componentTicketLaunch     = "ticket_launch"
	componentTicketReason     = "ticket_reason"
	componentTicketClaim      = "ticket_claim"
	componentTicketClose      = "ticket_close"
	componentTicketCloseYes   = "ticket_close_yes"
	componentTicketCloseNo    = "ticket_close_no"
	componentTicketReopen     = "ticket_reopen"
	componentTicketDelete     = "ticket_delete"
	componentTicketTranscript = "ticket_transcript"
	componentSnippetSend      = "snippet_send"

	snippetNotePrefix = "snippet_note:"
)

func (b *Bot) handleComponent(session *discordgo.Session, interaction *discordgo.InteractionCreate) {
	if interaction.GuildID == "" {
		return
	}

	ctx := context.Background()
	data := interaction.MessageComponentData()
	switch data.CustomID {
	case componentTicketLaunch:
		b.handleTicketLaunch(ctx, session, interaction)
	case componentTicketReason:
		b.handleTicketReasonSelect(ctx, session, interaction, data.Values)
	case componentTicketClaim:
		if !b.requireMod(ctx, session, interaction) {
			return
		}
		ticket, err := b.tickets.Claim(ctx, session, interaction.ChannelID, interactionUserID(interaction))
		if err != nil {
			b.respondTicketError(session, interaction, err)
			return
		}
		b.respondEmbed(session, interaction, b.logEmbed("Ticket", fmt.Sprintf("Ticket #%d claimed by <@%s>.", ticket.ID, interactionUserID(interaction)), b.cfg.EmbedColors.Success), false)
	case componentTicketClose:
		b.respondCloseConfirm(session, interaction)
	case componentTicketCloseYes:
		if !b.canCloseTicket(ctx, session, interaction) {
			return
		}
		ticket, err := b.tickets.Close(ctx, session, interaction.ChannelID, interactionUserID(interaction))
		if err != nil {
			b.respondTicketError(session, interaction, err)
			return
		}
		b.updateComponentMessage(session, interaction, "Ticket closed.")
		b.sendTicketManagement(session, interaction.ChannelID, ticket)
	case componentTicketCloseNo:
		b.updateComponentMessage(session, interaction, "Close cancelled.")
	case componentTicketReopen:
		if !b.requireMod(ctx, session, interaction) {
			return
		}
		ticket, err := b.tickets.Reopen(ctx, session, interaction.ChannelID, interactionUserID(interaction))
		if err != nil {
			b.respondTicketError(session, interaction, err)
			return
		}
		b.respondEmbed(session, interaction, b.logEmbed("Ticket", fmt.Sprintf("Ticket #%d reopened.", ticket.ID), b.cfg.EmbedColors.Success), false)
	case componentTicketDelete:
		if !b.requireMod(ctx, session, interaction) {
			return
		}
		if err := b.tickets.Delete(ctx, session, interaction.ChannelID, interactionUserID(interaction)); err != nil {
			b.respondTicketError(session, interaction, err)
			return
		}
		b.respondEmbed(session, interaction, b.logEmbed("Ticket", "Transcript saved. Channel will be deleted shortly.", b.cfg.EmbedColors.Error), false)
	case componentTicketTranscript:
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
	case componentSnippetSend:
		b.handleSnippetSelect(ctx, session, interaction, data.Values)
	}
}

// canCloseTicket lets the ticket owner close their own ticket; everyone
// else needs the mod role.
func (b *Bot) canCloseTicket(ctx context.Context, session *discordgo.Session, interaction *discordgo.InteractionCreate) bool {
	ticket, err := b.store.GetTicketByChannel(ctx, interaction.ChannelID)
	if err == nil && ticket != nil && ticket.OwnerID == interactionUserID(interaction) {
		return true
	}
	return b.requireMod(ctx, session, interaction)
}

func (b *Bot) handleTicketLaunch(ctx context.Context, session *discordgo.Session, interaction *discordgo.InteractionCreate) {
	if interaction.Member == nil || interaction.Member.User == nil {
		return
	}

	reasons, err := b.store.ListTicketReasons(ctx, interaction.GuildID)
	if err != nil {
		b.respondError(session, interaction, "Could not load ticket reasons.")
		return
	}

	if len(reasons) == 0 {
		channelID, err := b.tickets.Open(ctx, session, interaction.GuildID, interaction.Member.User, nil)
		if err != nil {
			b.respondTicketError(session, interaction, err)
			return
		}
		b.sendTicketControls(session, channelID, interaction.Member.User.ID)
		b.respondSuccess(session, interaction, "Ticket", fmt.Sprintf("Ticket opened: <#%s>", channelID))
		return
	}

	options := make([]discordgo.SelectMenuOption, 0, len(reasons))
	for _, reason := range reasons {
		option := discordgo.SelectMenuOption{
			Label:       reason.Label,
			Value:       strconv.FormatInt(reason.ID, 10),
			Description: reason.Description,
		}
		if reason.Emoji != "" {
			option.Emoji = discordgo.ComponentEmoji{Name: reason.Emoji}
		}
		options = append(options, option)
	}

	err = session.InteractionRespond(interaction.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: "Pick a reason for your ticket:",
			Flags:   discordgo.MessageFlagsEphemeral,
			Components: []discordgo.MessageComponent{
				discordgo.ActionsRow{Components: []discordgo.MessageComponent{
					discordgo.SelectMenu{
						CustomID:    componentTicketReason,
						Placeholder: "Ticket reason",
						Options:     options,
					},
				}},
			},
		},
	})
	if err != nil {
		b.logger.Warn("reason select respond failed", zap.Error(err))
	}
}

func (b *Bot) handleTicketReasonSelect(ctx context.Context, session *discordgo.Session, interaction *discordgo.InteractionCreate, values []string) {
	if interaction.Member == nil || interaction.Member.User == nil || len(values) == 0 {
		return
	}

	reasonID, err := strconv.ParseInt(values[0], 10, 64)
	if err != nil {
		b.respondError(session, interaction, "Invalid reason.")
		return
	}
	reason, err := b.store.GetTicketReason(ctx, interaction.GuildID, reasonID)
	if err != nil || reason == nil {
		b.respondError(session, interaction, "That reason no longer exists.")
		return
	}

	if len(reason.RequiredRoles) > 0 && !hasAnyRole(interaction.Member.Roles, reason.RequiredRoles) {
		b.respondError(session, interaction, "You do not have access to this ticket reason.")
		return
	}

	channelID, err := b.tickets.Open(ctx, session, interaction.GuildID, interaction.Member.User, reason)
	if err != nil {
		b.respondTicketError(session, interaction, err)
		return
	}
	b.sendTicketControls(session, channelID, interaction.Member.User.ID)
	b.updateComponentMessage(session, interaction, fmt.Sprintf("Ticket opened: <#%s>", channelID))
}

// respondSnippetPicker offers the available snippets in an ephemeral
// select menu. The chosen snippet goes through a note modal before it
// is sent.
func (b *Bot) respondSnippetPicker(session *discordgo.Session, interaction *discordgo.InteractionCreate, snippets []storage.Snippet) {
	err := session.InteractionRespond(interaction.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: "Pick a snippet to send:",
			Flags:   discordgo.MessageFlagsEphemeral,
			Components: []discordgo.MessageComponent{
				discordgo.ActionsRow{Components: []discordgo.MessageComponent{
					discordgo.SelectMenu{
						CustomID:    componentSnippetSend,
						Placeholder: "Snippet",
						Options:     snippetOptions(snippets),
					},
				}},
			},
		},
	})
	if err != nil {
		b.logger.Warn("snippet picker respond failed", zap.Error(err))
	}
}

// snippetOptions maps snippets onto select menu options, capped at
// Discord's 25-option limit.
func snippetOptions(snippets []storage.Snippet) []discordgo.SelectMenuOption {
	limit := len(snippets)
	if limit > 25 {
		limit = 25
	}
	options := make([]discordgo.SelectMenuOption, 0, limit)
	for _, snip := range snippets[:limit] {
		options = append(options, discordgo.SelectMenuOption{
			Label:       snip.Name,
			Value:       snip.Name,
			Description: snip.Category,
		})
	}
	return options
}

// handleSnippetSelect opens the note modal for the chosen snippet.
func (b *Bot) handleSnippetSelect(ctx context.Context, session *discordgo.Session, interaction *discordgo.InteractionCreate, values []string) {
	if !b.requireMod(ctx, session, interaction) {
		return
	}
	if len(values) == 0 {
		return
	}
	err := session.InteractionRespond(interaction.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseModal,
		Data: &discordgo.InteractionResponseData{
			CustomID: snippetNotePrefix + values[0],
			Title:    "Send snippet",
			Components: []discordgo.MessageComponent{
				discordgo.ActionsRow{Components: []discordgo.MessageComponent{
					discordgo.TextInput{
						CustomID:    "note",
						Label:       "Extra details",
						Style:       discordgo.TextInputParagraph,
						Placeholder: "Appended below the snippet text",
						Required:    false,
						MaxLength:   1000,
					},
				}},
			},
		},
	})
	if err != nil {
		b.logger.Warn("snippet modal respond failed", zap.Error(err))
	}
}

func (b *Bot) handleModal(session *discordgo.Session, interaction *discordgo.InteractionCreate) {
	if interaction.GuildID == "" {
		return
	}
	data := interaction.ModalSubmitData()
	name, ok := parseSnippetNoteID(data.CustomID)
	if !ok {
		return
	}

	ctx := context.Background()
	snip, err := b.store.GetSnippet(ctx, interaction.GuildID, name)
	if err != nil {
		b.respondError(session, interaction, "Could not load the snippet.")
		return
	}
	if snip == nil {
		b.respondError(session, interaction, "That snippet no longer exists.")
		return
	}

	var embed discordgo.MessageEmbed
	if err := json.Unmarshal([]byte(snip.Content), &embed); err != nil {
		b.respondError(session, interaction, "Snippet content is malformed.")
		return
	}
	if note := modalTextValue(data.Components, "note"); note != "" {
		embed.Description = strings.TrimSpace(embed.Description + "\n\n" + note)
	}
	if embed.Color == 0 {
		embed.Color = b.cfg.EmbedColors.Neutral
	}

	if _, err := session.ChannelMessageSendEmbed(interaction.ChannelID, &embed); err != nil {
		b.respondError(session, interaction, "Could not send the snippet.")
		return
	}
	b.respondSuccess(session, interaction, "Snippet", "Snippet sent.")
}

func parseSnippetNoteID(customID string) (string, bool) {
	name := strings.TrimPrefix(customID, snippetNotePrefix)
	if name == customID || name == "" {
		return "", false
	}
	return name, true
}

// modalTextValue digs the named text input's value out of a modal
// submission's component tree.
func modalTextValue(components []discordgo.MessageComponent, customID string) string {
	for _, component := range components {
		row, ok := component.(*discordgo.ActionsRow)
		if !ok {
			continue
		}
		for _, inner := range row.Components {
			input, ok := inner.(*discordgo.TextInput)
			if !ok {
				continue
			}
			if input.CustomID == customID {
				return strings.TrimSpace(input.Value)
			}
		}
	}
	return ""
}

func hasAnyRole(roles, required []string) bool {
	for _, want := range required {
		if hasRole(roles, want) {
			return true
		}
	}
	return false
}

func (b *Bot) updateComponentMessage(session *discordgo.Session, interaction *discordgo.InteractionCreate, content string) {
	err := session.InteractionRespond(interaction.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseUpdateMessage,
		Data: &discordgo.InteractionResponseData{
			Content:    content,
			Components: []discordgo.MessageComponent{},
		},
	})
	if err != nil {
		b.logger.Warn("component update failed", zap.Error(err))
	}
}

func (b *Bot) respondCloseConfirm(session *discordgo.Session, interaction *discordgo.InteractionCreate) {
	err := session.InteractionRespond(interaction.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: "Close this ticket?",
			Flags:   discordgo.MessageFlagsEphemeral,
			Components: []discordgo.MessageComponent{
				discordgo.ActionsRow{Components: []discordgo.MessageComponent{
					discordgo.Button{Label: "Close", Style: discordgo.DangerButton, CustomID: componentTicketCloseYes},
					discordgo.Button{Label: "Cancel", Style: discordgo.SecondaryButton, CustomID: componentTicketCloseNo},
				}},
			},
		},
	})
	if err != nil {
		b.logger.Warn("close confirm respond failed", zap.Error(err))
	}
}

// sendTicketLauncher posts the persistent "open a ticket" message.
func (b *Bot) sendTicketLauncher(ctx context.Context, session *discordgo.Session, guildID, channelID string) error {
	_ = ctx
	_, err := session.ChannelMessageSendComplex(channelID, &discordgo.MessageSend{
		Embeds: []*discordgo.MessageEmbed{{
			Title:       "Support Tickets",
			Description: "Press the button below to open a ticket with the staff team.",
			Color:       b.cfg.EmbedColors.Neutral,
		}},
		Components: []discordgo.MessageComponent{
			discordgo.ActionsRow{Components: []discordgo.MessageComponent{
				discordgo.Button{Label: "Open Ticket", Style: discordgo.PrimaryButton, CustomID: componentTicketLaunch, Emoji: discordgo.ComponentEmoji{Name: "🎫"}},
			}},
		},
	})
	return err
}

func (b *Bot) sendTicketControls(session *discordgo.Session, channelID, ownerID string) {
	_, err := session.ChannelMessageSendComplex(channelID, &discordgo.MessageSend{
		Content: fmt.Sprintf("<@%s>", ownerID),
		Embeds: []*discordgo.MessageEmbed{{
			Title:       "Ticket",
			Description: "A staff member will be with you shortly.",
			Color:       b.cfg.EmbedColors.Neutral,
		}},
		Components: []discordgo.MessageComponent{
			discordgo.ActionsRow{Components: []discordgo.MessageComponent{
				discordgo.Button{Label: "Claim", Style: discordgo.PrimaryButton, CustomID: componentTicketClaim},
				discordgo.Button{Label: "Close", Style: discordgo.DangerButton, CustomID: componentTicketClose},
			}},
		},
	})
	if err != nil {
		b.logger.Warn("ticket controls send failed", zap.String("channel_id", channelID), zap.Error(err))
	}
}

func (b *Bot) sendTicketManagement(session *discordgo.Session, channelID string, ticket *storage.Ticket) {
	_, err := session.ChannelMessageSendComplex(channelID, &discordgo.MessageSend{
		Embeds: []*discordgo.MessageEmbed{b.ticketClosedEmbed(ticket)},
		Components: []discordgo.MessageComponent{
			discordgo.ActionsRow{Components: []discordgo.MessageComponent{
				discordgo.Button{Label: "Reopen", Style: discordgo.SecondaryButton, CustomID: componentTicketReopen},
				discordgo.Button{Label: "Transcript", Style: discordgo.SecondaryButton, CustomID: componentTicketTranscript},
				discordgo.Button{Label: "Delete", Style: discordgo.DangerButton, CustomID: componentTicketDelete},
			}},
		},
	})
	if err != nil {
		b.logger.Warn("ticket management send failed", zap.String("channel_id", channelID), zap.Error(err))
	}
}

func (b *Bot) ticketClosedEmbed(ticket *storage.Ticket) *discordgo.MessageEmbed {
	parts := []string{fmt.Sprintf("Ticket #%d closed.", ticket.ID)}
	if ticket.ClaimedBy != "" {
		parts = append(parts, fmt.Sprintf("Claimed by <@%s>.", ticket.ClaimedBy))
	}
	return b.logEmbed("Ticket Closed", strings.Join(parts, " "), b.cfg.EmbedColors.Error)
}
