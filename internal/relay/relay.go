package relay

import (
	"context"
	"time"

	"guildwarden/internal/storage"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

// VoiceTransition classifies a voice state change by the before and
// after channel ids.
const (
	VoiceJoin  = "join"
	VoiceLeave = "leave"
	VoiceMove  = "move"
	VoiceNone  = ""
)

func VoiceTransition(oldChannelID, newChannelID string) string {
	switch {
	case oldChannelID == "" && newChannelID != "":
		return VoiceJoin
	case oldChannelID != "" && newChannelID == "":
		return VoiceLeave
	case oldChannelID != newChannelID:
		return VoiceMove
	default:
		return VoiceNone
	}
}

// WithinKickWindow reports whether an audit log kick entry is recent
// enough to explain a member leaving. Entries older than the window are
// treated as unrelated and the departure logged as a plain leave.
const kickLookback = 10 * time.Second

func WithinKickWindow(entryTime, leftAt time.Time) bool {
	delta := leftAt.Sub(entryTime)
	if delta < 0 {
		delta = -delta
	}
	return delta <= kickLookback
}

// SuspectAccount reports whether an account is young enough to flag on
// join.
const suspectAge = 24 * time.Hour

func SuspectAccount(createdAt, now time.Time) bool {
	return now.Sub(createdAt) < suspectAge
}

// Relay delivers log embeds to whichever channel a guild configured for
// the category. An unset channel silently drops the notice.
type Relay struct {
	store  *storage.Store
	logger *zap.Logger
}

func New(store *storage.Store, logger *zap.Logger) *Relay {
	return &Relay{store: store, logger: logger}
}

// Enabled loads the guild config and reports whether the facility is
// on. Lookup failures fail open so moderation visibility is never lost
// to a transient database error.
func (r *Relay) Enabled(ctx context.Context, guildID string, facility storage.Facility) bool {
	cfg, err := r.store.GetGuildConfig(ctx, guildID)
	if err != nil {
		r.logger.Warn("guild config lookup failed", zap.String("guild_id", guildID), zap.Error(err))
		return true
	}
	return storage.Enabled(cfg, facility)
}

func (r *Relay) Send(ctx context.Context, session *discordgo.Session, guildID string, category storage.LogCategory, embed *discordgo.MessageEmbed) {
	cfg, err := r.store.GetGuildConfig(ctx, guildID)
	if err != nil {
		r.logger.Warn("guild config lookup failed", zap.String("guild_id", guildID), zap.Error(err))
		return
	}
	channelID := storage.ChannelFor(cfg, category)
	if channelID == "" {
		return
	}
	if _, err := session.ChannelMessageSendEmbed(channelID, embed); err != nil {
		r.logger.Warn("log relay send failed",
			zap.String("guild_id", guildID),
			zap.String("channel_id", channelID),
			zap.String("category", string(category)),
			zap.Error(err))
	}
}
