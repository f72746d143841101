package storage

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
)

// GuildConfig mirrors the guild_config table. Empty string ids mean unset.
// A guild without a row behaves as if every logging facility were enabled
// and automod were off; see Enabled.
type GuildConfig struct {
	GuildID             string
	TicketCategoryID    string
	TranscriptChannelID string
	LogChannelID        string
	ModLogChannelID     string
	MessageLogChannelID string
	MemberLogChannelID  string
	VoiceLogChannelID   string
	LogMessageEdits     bool
	LogMessageDeletions bool
	LogMemberJoins      bool
	LogMemberLeaves     bool
	LogVoiceUpdates     bool
	AutomodInviteLinks  bool
	ModRoleID           string
	AdminRoleID         string
}

// Facility is a togglable logging category. The set is closed: facilities
// map onto fixed guild_config columns and are never interpolated into SQL.
type Facility string

const (
	FacilityMessageEdits     Facility = "log_message_edits"
	FacilityMessageDeletions Facility = "log_message_deletions"
	FacilityMemberJoins      Facility = "log_member_joins"
	FacilityMemberLeaves     Facility = "log_member_leaves"
	FacilityVoiceUpdates     Facility = "log_voice_updates"
)

// LogCategory selects which configured channel a relayed notice goes to.
type LogCategory string

const (
	LogGeneral    LogCategory = "general"
	LogMod        LogCategory = "mod"
	LogMessage    LogCategory = "message"
	LogMember     LogCategory = "member"
	LogVoice      LogCategory = "voice"
	LogTranscript LogCategory = "transcript"
)

// Enabled reports whether a facility is on for the given config. A nil
// config (no guild_config row yet) is treated as enabled: logging fails
// open so a guild gets sensible behavior before anyone runs /config init.
func Enabled(cfg *GuildConfig, facility Facility) bool {
	if cfg == nil {
		return true
	}
	switch facility {
	case FacilityMessageEdits:
		return cfg.LogMessageEdits
	case FacilityMessageDeletions:
		return cfg.LogMessageDeletions
	case FacilityMemberJoins:
		return cfg.LogMemberJoins
	case FacilityMemberLeaves:
		return cfg.LogMemberLeaves
	case FacilityVoiceUpdates:
		return cfg.LogVoiceUpdates
	default:
		return true
	}
}

// ChannelFor resolves the channel id for a log category, falling back to
// the general log channel when the specific one is unset. Empty result
// means nothing is configured.
func ChannelFor(cfg *GuildConfig, category LogCategory) string {
	if cfg == nil {
		return ""
	}
	channelID := ""
	switch category {
	case LogMod:
		channelID = cfg.ModLogChannelID
	case LogMessage:
		channelID = cfg.MessageLogChannelID
	case LogMember:
		channelID = cfg.MemberLogChannelID
	case LogVoice:
		channelID = cfg.VoiceLogChannelID
	case LogTranscript:
		channelID = cfg.TranscriptChannelID
	}
	if channelID == "" {
		channelID = cfg.LogChannelID
	}
	return channelID
}

const guildConfigColumns = `
	guild_id, ticket_category_id, transcript_channel_id, log_channel_id,
	mod_log_channel_id, message_log_channel_id, member_log_channel_id,
	voice_log_channel_id, log_message_edits, log_message_deletions,
	log_member_joins, log_member_leaves, log_voice_updates,
	automod_invite_links, mod_role_id, admin_role_id`

// GetGuildConfig returns nil without error when no row exists.
func (s *Store) GetGuildConfig(ctx context.Context, guildID string) (*GuildConfig, error) {
	row := s.pool.QueryRow(ctx, `SELECT`+guildConfigColumns+` FROM guild_config WHERE guild_id = $1`, guildID)

	var cfg GuildConfig
	err := row.Scan(
		&cfg.GuildID,
		&cfg.TicketCategoryID,
		&cfg.TranscriptChannelID,
		&cfg.LogChannelID,
		&cfg.ModLogChannelID,
		&cfg.MessageLogChannelID,
		&cfg.MemberLogChannelID,
		&cfg.VoiceLogChannelID,
		&cfg.LogMessageEdits,
		&cfg.LogMessageDeletions,
		&cfg.LogMemberJoins,
		&cfg.LogMemberLeaves,
		&cfg.LogVoiceUpdates,
		&cfg.AutomodInviteLinks,
		&cfg.ModRoleID,
		&cfg.AdminRoleID,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &cfg, nil
}

func (s *Store) UpsertGuildConfig(ctx context.Context, cfg GuildConfig) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO guild_config (`+guildConfigColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		ON CONFLICT (guild_id) DO UPDATE SET
			ticket_category_id = excluded.ticket_category_id,
			transcript_channel_id = excluded.transcript_channel_id,
			log_channel_id = excluded.log_channel_id,
			mod_log_channel_id = excluded.mod_log_channel_id,
			message_log_channel_id = excluded.message_log_channel_id,
			member_log_channel_id = excluded.member_log_channel_id,
			voice_log_channel_id = excluded.voice_log_channel_id,
			log_message_edits = excluded.log_message_edits,
			log_message_deletions = excluded.log_message_deletions,
			log_member_joins = excluded.log_member_joins,
			log_member_leaves = excluded.log_member_leaves,
			log_voice_updates = excluded.log_voice_updates,
			automod_invite_links = excluded.automod_invite_links,
			mod_role_id = excluded.mod_role_id,
			admin_role_id = excluded.admin_role_id
	`,
		cfg.GuildID,
		cfg.TicketCategoryID,
		cfg.TranscriptChannelID,
		cfg.LogChannelID,
		cfg.ModLogChannelID,
		cfg.MessageLogChannelID,
		cfg.MemberLogChannelID,
		cfg.VoiceLogChannelID,
		cfg.LogMessageEdits,
		cfg.LogMessageDeletions,
		cfg.LogMemberJoins,
		cfg.LogMemberLeaves,
		cfg.LogVoiceUpdates,
		cfg.AutomodInviteLinks,
		cfg.ModRoleID,
		cfg.AdminRoleID,
	)
	return err
}

// InitGuildConfig creates the default row if it does not exist yet.
func (s *Store) InitGuildConfig(ctx context.Context, guildID string) error {
	_, err := s.pool.Exec(ctx, `INSERT INTO guild_config (guild_id) VALUES ($1) ON CONFLICT (guild_id) DO NOTHING`, guildID)
	return err
}

// GetOrDefaultGuildConfig loads the row or returns a default-valued config
// when none exists. Used where callers mutate a few fields and upsert.
func (s *Store) GetOrDefaultGuildConfig(ctx context.Context, guildID string) (GuildConfig, error) {
	cfg, err := s.GetGuildConfig(ctx, guildID)
	if err != nil {
		return GuildConfig{}, err
	}
	if cfg == nil {
		return GuildConfig{
			GuildID:             guildID,
			LogMessageEdits:     true,
			LogMessageDeletions: true,
			LogMemberJoins:      true,
			LogMemberLeaves:     true,
			LogVoiceUpdates:     true,
		}, nil
	}
	return *cfg, nil
}
