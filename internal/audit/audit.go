package audit

import (
	"context"

	"guildwarden/internal/storage"

	"go.uber.org/zap"
)

// Action types recorded in server_logs. The panel renders these verbatim.
const (
	ActionWarn           = "warn"
	ActionKick           = "kick"
	ActionBan            = "ban"
	ActionUnban          = "unban"
	ActionTimeout        = "timeout"
	ActionTimeoutRemoved = "timeout_removed"
	ActionPurge          = "purge"
	ActionLock           = "lock"
	ActionUnlock         = "unlock"
	ActionSlowmode       = "slowmode"
	ActionNick           = "nick"
	ActionAutomodInvite  = "automod_invite"
	ActionAutomodPhrase  = "automod_phrase"
	ActionMemberJoin     = "member_join"
	ActionMemberLeave    = "member_leave"
	ActionMessageEdit    = "message_edit"
	ActionMessageDelete  = "message_delete"
	ActionVoiceJoin      = "voice_join"
	ActionVoiceLeave     = "voice_leave"
	ActionVoiceMove      = "voice_move"
	ActionTicketOpen     = "ticket_open"
	ActionTicketClose    = "ticket_close"
	ActionTicketDelete   = "ticket_delete"
)

// Logger records moderation activity to the database and the structured
// log. Failures to persist never interrupt the action being recorded.
type Logger struct {
	store  *storage.Store
	logger *zap.Logger
}

func NewLogger(store *storage.Store, logger *zap.Logger) *Logger {
	return &Logger{store: store, logger: logger}
}

func (l *Logger) Log(ctx context.Context, guildID, userID, action, targetID, details string) {
	entry := storage.ServerLog{
		GuildID:    guildID,
		UserID:     userID,
		ActionType: action,
		TargetID:   targetID,
		Details:    details,
	}
	if l.store != nil {
		if err := l.store.InsertServerLog(ctx, entry); err != nil {
			l.logger.Warn("server log insert failed", zap.Error(err))
		}
	}
	l.logger.Info("audit",
		zap.String("guild_id", guildID),
		zap.String("user_id", userID),
		zap.String("action", action),
		zap.String("target_id", targetID),
		zap.String("details", details))
}

// Punish mirrors a moderation action into the punishment history in
// addition to the server log.
func (l *Logger) Punish(ctx context.Context, guildID, userID, moderatorID, kind, reason string) {
	if l.store != nil {
		err := l.store.InsertPunishment(ctx, storage.Punishment{
			GuildID:     guildID,
			UserID:      userID,
			ModeratorID: moderatorID,
			Type:        kind,
			Reason:      reason,
		})
		if err != nil {
			l.logger.Warn("punishment insert failed", zap.Error(err))
		}
	}
	l.Log(ctx, guildID, moderatorID, kind, userID, reason)
}
