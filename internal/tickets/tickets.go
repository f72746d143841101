package tickets

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"guildwarden/internal/audit"
	"guildwarden/internal/relay"
	"guildwarden/internal/storage"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

var (
	ErrNoCategory    = errors.New("ticket category not configured")
	ErrNotTicket     = errors.New("channel is not a ticket")
	ErrAlreadyOpen   = errors.New("ticket is already open")
	ErrAlreadyClosed = errors.New("ticket is already closed")
	ErrHasTicket     = errors.New("user already has an open ticket")
)

const memberPermissions = discordgo.PermissionViewChannel |
	discordgo.PermissionSendMessages |
	discordgo.PermissionReadMessageHistory

// Manager drives the ticket lifecycle. All Discord side effects go
// through the session passed to each call so the manager itself stays
// testable.
type Manager struct {
	store        *storage.Store
	audit        *audit.Logger
	relay        *relay.Relay
	logger       *zap.Logger
	deleteDelay  time.Duration
	historyLimit int
	panelBaseURL string
}

func NewManager(store *storage.Store, auditLogger *audit.Logger, logRelay *relay.Relay, logger *zap.Logger, deleteDelay time.Duration, historyLimit int, panelBaseURL string) *Manager {
	return &Manager{
		store:        store,
		audit:        auditLogger,
		relay:        logRelay,
		logger:       logger,
		deleteDelay:  deleteDelay,
		historyLimit: historyLimit,
		panelBaseURL: panelBaseURL,
	}
}

// ChannelName builds a ticket channel name from the opener's username
// and an optional reason label. Discord only accepts lowercase names
// with dashes.
func ChannelName(username, reasonLabel string) string {
	base := sanitize(username)
	if base == "" {
		base = "ticket"
	}
	if label := sanitize(reasonLabel); label != "" {
		return label + "-" + base
	}
	return "ticket-" + base
}

func sanitize(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ' || r == '-' || r == '_':
			b.WriteRune('-')
		}
	}
	return strings.Trim(b.String(), "-")
}

// RenameName keeps renamed ticket channels recognizable by forcing the
// ticket- prefix onto whatever name staff picked.
func RenameName(name string) string {
	base := strings.TrimPrefix(sanitize(name), "ticket-")
	if base == "" {
		return "ticket"
	}
	return "ticket-" + base
}

// TranscriptURL points at the panel's transcript view for a ticket.
// Empty when no panel base URL is configured.
func TranscriptURL(baseURL, guildID string, ticketID int64) string {
	if baseURL == "" {
		return ""
	}
	return fmt.Sprintf("%s/guild/%s/transcript/%d", strings.TrimSuffix(baseURL, "/"), guildID, ticketID)
}

// RestoreTargets is the set of users whose channel access gets restored
// on reopen: the owner plus everyone added while the ticket was open.
func RestoreTargets(ownerID string, members []string) []string {
	seen := map[string]struct{}{ownerID: {}}
	targets := []string{ownerID}
	for _, member := range members {
		if _, ok := seen[member]; ok {
			continue
		}
		seen[member] = struct{}{}
		targets = append(targets, member)
	}
	return targets
}

// Open creates the ticket channel and records the ticket. The reason,
// when present, picks the parent category and channel name label.
func (m *Manager) Open(ctx context.Context, session *discordgo.Session, guildID string, opener *discordgo.User, reason *storage.TicketReason) (string, error) {
	cfg, err := m.store.GetGuildConfig(ctx, guildID)
	if err != nil {
		return "", err
	}
	if existing, err := m.store.OpenTicketFor(ctx, guildID, opener.ID); err != nil {
		return "", err
	} else if existing != nil {
		return "", ErrHasTicket
	}

	categoryID := ""
	label := ""
	var reasonID *int64
	if cfg != nil {
		categoryID = cfg.TicketCategoryID
	}
	if reason != nil {
		label = reason.Label
		if reason.CategoryID != "" {
			categoryID = reason.CategoryID
		}
		id := reason.ID
		reasonID = &id
	}
	if categoryID == "" {
		return "", ErrNoCategory
	}

	overwrites := []*discordgo.PermissionOverwrite{
		{ID: guildID, Type: discordgo.PermissionOverwriteTypeRole, Deny: discordgo.PermissionViewChannel},
		{ID: opener.ID, Type: discordgo.PermissionOverwriteTypeMember, Allow: memberPermissions},
	}
	if cfg != nil && cfg.ModRoleID != "" {
		overwrites = append(overwrites, &discordgo.PermissionOverwrite{
			ID:    cfg.ModRoleID,
			Type:  discordgo.PermissionOverwriteTypeRole,
			Allow: memberPermissions,
		})
	}

	channel, err := session.GuildChannelCreateComplex(guildID, discordgo.GuildChannelCreateData{
		Name:                 ChannelName(opener.Username, label),
		Type:                 discordgo.ChannelTypeGuildText,
		ParentID:             categoryID,
		PermissionOverwrites: overwrites,
	})
	if err != nil {
		return "", fmt.Errorf("create ticket channel: %w", err)
	}

	if _, err := m.store.CreateTicket(ctx, guildID, channel.ID, opener.ID, reasonID); err != nil {
		_, _ = session.ChannelDelete(channel.ID)
		return "", err
	}

	m.audit.Log(ctx, guildID, opener.ID, audit.ActionTicketOpen, channel.ID, label)
	return channel.ID, nil
}

func (m *Manager) Claim(ctx context.Context, session *discordgo.Session, channelID, modID string) (*storage.Ticket, error) {
	ticket, err := m.store.GetTicketByChannel(ctx, channelID)
	if err != nil {
		return nil, err
	}
	if ticket == nil {
		return nil, ErrNotTicket
	}
	if ticket.Status != storage.TicketOpen {
		return nil, ErrAlreadyClosed
	}
	if err := m.store.ClaimTicket(ctx, channelID, modID); err != nil {
		return nil, err
	}
	ticket.ClaimedBy = modID
	return ticket, nil
}

// Close locks the owner and added members out of the channel. Staff
// overwrites are untouched so the ticket stays reviewable.
func (m *Manager) Close(ctx context.Context, session *discordgo.Session, channelID, byID string) (*storage.Ticket, error) {
	ticket, err := m.store.GetTicketByChannel(ctx, channelID)
	if err != nil {
		return nil, err
	}
	if ticket == nil {
		return nil, ErrNotTicket
	}
	if ticket.Status == storage.TicketClosed {
		return nil, ErrAlreadyClosed
	}

	members, err := m.store.ListTicketMembers(ctx, ticket.ID)
	if err != nil {
		return nil, err
	}
	for _, target := range RestoreTargets(ticket.OwnerID, members) {
		if err := session.ChannelPermissionSet(channelID, target, discordgo.PermissionOverwriteTypeMember, 0, memberPermissions); err != nil {
			m.logger.Warn("ticket close overwrite failed", zap.String("channel_id", channelID), zap.String("user_id", target), zap.Error(err))
		}
	}

	if err := m.store.CloseTicket(ctx, channelID); err != nil {
		return nil, err
	}
	m.audit.Log(ctx, ticket.GuildID, byID, audit.ActionTicketClose, channelID, "")
	ticket.Status = storage.TicketClosed
	return ticket, nil
}

func (m *Manager) Reopen(ctx context.Context, session *discordgo.Session, channelID, byID string) (*storage.Ticket, error) {
	ticket, err := m.store.GetTicketByChannel(ctx, channelID)
	if err != nil {
		return nil, err
	}
	if ticket == nil {
		return nil, ErrNotTicket
	}
	if ticket.Status == storage.TicketOpen {
		return nil, ErrAlreadyOpen
	}

	members, err := m.store.ListTicketMembers(ctx, ticket.ID)
	if err != nil {
		return nil, err
	}
	for _, target := range RestoreTargets(ticket.OwnerID, members) {
		if err := session.ChannelPermissionSet(channelID, target, discordgo.PermissionOverwriteTypeMember, memberPermissions, 0); err != nil {
			m.logger.Warn("ticket reopen overwrite failed", zap.String("channel_id", channelID), zap.String("user_id", target), zap.Error(err))
		}
	}

	if err := m.store.ReopenTicket(ctx, channelID); err != nil {
		return nil, err
	}
	ticket.Status = storage.TicketOpen
	return ticket, nil
}

// SaveTranscript captures the ticket channel's history, stores the
// rendered transcript and posts it to the transcript log channel. It
// returns the ticket and the panel URL for the saved transcript.
func (m *Manager) SaveTranscript(ctx context.Context, session *discordgo.Session, channelID string) (*storage.Ticket, string, error) {
	ticket, err := m.store.GetTicketByChannel(ctx, channelID)
	if err != nil {
		return nil, "", err
	}
	if ticket == nil {
		return nil, "", ErrNotTicket
	}

	transcript, err := m.Transcript(ctx, session, ticket)
	if err != nil {
		return nil, "", fmt.Errorf("capture transcript: %w", err)
	}
	if err := m.store.SetTicketTranscript(ctx, channelID, transcript); err != nil {
		return nil, "", fmt.Errorf("save transcript: %w", err)
	}
	url := TranscriptURL(m.panelBaseURL, ticket.GuildID, ticket.ID)
	m.postTranscript(ctx, session, ticket, transcript, url)
	return ticket, url, nil
}

// Delete captures a transcript, posts it to the transcript channel and
// removes the ticket channel after a short grace delay.
func (m *Manager) Delete(ctx context.Context, session *discordgo.Session, channelID, byID string) error {
	ticket, err := m.store.GetTicketByChannel(ctx, channelID)
	if err != nil {
		return err
	}
	if ticket == nil {
		return ErrNotTicket
	}

	if ticket.Status == storage.TicketOpen {
		if err := m.store.CloseTicket(ctx, channelID); err != nil {
			m.logger.Warn("ticket close on delete failed", zap.String("channel_id", channelID), zap.Error(err))
		}
	}

	if _, _, err := m.SaveTranscript(ctx, session, channelID); err != nil {
		m.logger.Warn("transcript on delete failed", zap.String("channel_id", channelID), zap.Error(err))
	}

	m.audit.Log(ctx, ticket.GuildID, byID, audit.ActionTicketDelete, channelID, "")

	time.AfterFunc(m.deleteDelay, func() {
		if _, err := session.ChannelDelete(channelID); err != nil {
			m.logger.Warn("ticket channel delete failed", zap.String("channel_id", channelID), zap.Error(err))
		}
	})
	return nil
}

// Transcript walks the channel history oldest-first up to the history
// limit and renders it.
func (m *Manager) Transcript(ctx context.Context, session *discordgo.Session, ticket *storage.Ticket) (string, error) {
	var all []*discordgo.Message
	beforeID := ""
	for len(all) < m.historyLimit {
		batch := 100
		if remaining := m.historyLimit - len(all); remaining < batch {
			batch = remaining
		}
		messages, err := session.ChannelMessages(ticket.ChannelID, batch, beforeID, "", "")
		if err != nil {
			return "", err
		}
		if len(messages) == 0 {
			break
		}
		all = append(all, messages...)
		beforeID = messages[len(messages)-1].ID
	}

	entries := make([]TranscriptMessage, 0, len(all))
	for i := len(all) - 1; i >= 0; i-- {
		msg := all[i]
		entry := TranscriptMessage{Content: msg.Content}
		if msg.Author != nil {
			entry.AuthorID = msg.Author.ID
			entry.AuthorName = msg.Author.Username
		}
		if ts, err := discordgo.SnowflakeTimestamp(msg.ID); err == nil {
			entry.Timestamp = ts
		}
		for _, attachment := range msg.Attachments {
			entry.Attachments = append(entry.Attachments, attachment.URL)
		}
		entries = append(entries, entry)
	}

	channelName := ticket.ChannelID
	if channel, err := session.State.Channel(ticket.ChannelID); err == nil {
		channelName = channel.Name
	}
	return RenderTranscript(channelName, entries)
}

func (m *Manager) postTranscript(ctx context.Context, session *discordgo.Session, ticket *storage.Ticket, transcript, url string) {
	cfg, err := m.store.GetGuildConfig(ctx, ticket.GuildID)
	if err != nil {
		return
	}
	channelID := storage.ChannelFor(cfg, storage.LogTranscript)
	if channelID == "" {
		return
	}
	content := fmt.Sprintf("Transcript for ticket #%d (owner <@%s>)", ticket.ID, ticket.OwnerID)
	if url != "" {
		content += "\n" + url
	}
	_, err = session.ChannelMessageSendComplex(channelID, &discordgo.MessageSend{
		Content: content,
		Files: []*discordgo.File{{
			Name:        fmt.Sprintf("transcript-%d.html", ticket.ID),
			ContentType: "text/html",
			Reader:      strings.NewReader(transcript),
		}},
	})
	if err != nil {
		m.logger.Warn("transcript post failed", zap.String("channel_id", channelID), zap.Error(err))
	}
}

func (m *Manager) AddMember(ctx context.Context, session *discordgo.Session, channelID, userID string) error {
	ticket, err := m.store.GetTicketByChannel(ctx, channelID)
	if err != nil {
		return err
	}
	if ticket == nil {
		return ErrNotTicket
	}
	if err := session.ChannelPermissionSet(channelID, userID, discordgo.PermissionOverwriteTypeMember, memberPermissions, 0); err != nil {
		return err
	}
	return m.store.AddTicketMember(ctx, ticket.ID, userID)
}

func (m *Manager) RemoveMember(ctx context.Context, session *discordgo.Session, channelID, userID string) error {
	ticket, err := m.store.GetTicketByChannel(ctx, channelID)
	if err != nil {
		return err
	}
	if ticket == nil {
		return ErrNotTicket
	}
	if err := session.ChannelPermissionDelete(channelID, userID); err != nil {
		return err
	}
	return m.store.RemoveTicketMember(ctx, ticket.ID, userID)
}

func (m *Manager) Rename(ctx context.Context, session *discordgo.Session, channelID, name string) error {
	ticket, err := m.store.GetTicketByChannel(ctx, channelID)
	if err != nil {
		return err
	}
	if ticket == nil {
		return ErrNotTicket
	}
	_, err = session.ChannelEdit(channelID, &discordgo.ChannelEdit{Name: RenameName(name)})
	return err
}

func (m *Manager) Stats(ctx context.Context, guildID string) (storage.TicketStats, error) {
	return m.store.TicketStats(ctx, guildID)
}
