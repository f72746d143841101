package storage

import (
	"context"
	"time"
)

type ServerLog struct {
	ID         int64
	GuildID    string
	UserID     string
	ActionType string
	TargetID   string
	Details    string
	CreatedAt  time.Time
}

func (s *Store) InsertServerLog(ctx context.Context, entry ServerLog) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO server_logs (guild_id, user_id, action_type, target_id, details)
		VALUES ($1, $2, $3, $4, $5)
	`, entry.GuildID, entry.UserID, entry.ActionType, entry.TargetID, entry.Details)
	return err
}

func (s *Store) RecentServerLogs(ctx context.Context, guildID string, limit int) ([]ServerLog, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, guild_id, user_id, action_type, COALESCE(target_id, ''), COALESCE(details, ''), created_at
		FROM server_logs
		WHERE guild_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2
	`, guildID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []ServerLog
	for rows.Next() {
		var entry ServerLog
		if err := rows.Scan(&entry.ID, &entry.GuildID, &entry.UserID, &entry.ActionType, &entry.TargetID, &entry.Details, &entry.CreatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

type Punishment struct {
	ID          int64
	GuildID     string
	UserID      string
	ModeratorID string
	Type        string
	Reason      string
	CreatedAt   time.Time
}

func (s *Store) InsertPunishment(ctx context.Context, p Punishment) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO punishments (guild_id, user_id, moderator_id, type, reason)
		VALUES ($1, $2, $3, $4, $5)
	`, p.GuildID, p.UserID, p.ModeratorID, p.Type, p.Reason)
	return err
}

func (s *Store) PunishmentsFor(ctx context.Context, guildID, userID string) ([]Punishment, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, guild_id, user_id, moderator_id, type, COALESCE(reason, ''), created_at
		FROM punishments
		WHERE guild_id = $1 AND user_id = $2
		ORDER BY created_at DESC
	`, guildID, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var punishments []Punishment
	for rows.Next() {
		var p Punishment
		if err := rows.Scan(&p.ID, &p.GuildID, &p.UserID, &p.ModeratorID, &p.Type, &p.Reason, &p.CreatedAt); err != nil {
			return nil, err
		}
		punishments = append(punishments, p)
	}
	return punishments, rows.Err()
}
