package storage

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
)

type WordFilter struct {
	ID      int64
	GuildID string
	Phrase  string
}

// AddWordFilter reports whether the phrase was newly added.
func (s *Store) AddWordFilter(ctx context.Context, guildID, phrase string) (bool, error) {
	tag, err := s.pool.Exec(ctx, `
		INSERT INTO word_filters (guild_id, phrase) VALUES ($1, $2)
		ON CONFLICT (guild_id, phrase) DO NOTHING
	`, guildID, phrase)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (s *Store) RemoveWordFilter(ctx context.Context, guildID, phrase string) (bool, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM word_filters WHERE guild_id = $1 AND phrase = $2`, guildID, phrase)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (s *Store) ListWordFilters(ctx context.Context, guildID string) ([]WordFilter, error) {
	rows, err := s.pool.Query(ctx, `SELECT id, guild_id, phrase FROM word_filters WHERE guild_id = $1 ORDER BY id`, guildID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var filters []WordFilter
	for rows.Next() {
		var f WordFilter
		if err := rows.Scan(&f.ID, &f.GuildID, &f.Phrase); err != nil {
			return nil, err
		}
		filters = append(filters, f)
	}
	return filters, rows.Err()
}

type TicketReason struct {
	ID            int64
	GuildID       string
	Label         string
	CategoryID    string
	Description   string
	Emoji         string
	RequiredRoles []string
}

func (s *Store) CreateTicketReason(ctx context.Context, reason TicketReason) (int64, error) {
	var id int64
	err := s.pool.QueryRow(ctx, `
		INSERT INTO ticket_reasons (guild_id, label, category_id, description, emoji, required_roles)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`, reason.GuildID, reason.Label, reason.CategoryID, reason.Description, reason.Emoji, reason.RequiredRoles).Scan(&id)
	return id, err
}

func (s *Store) UpdateTicketReason(ctx context.Context, reason TicketReason) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE ticket_reasons
		SET label = $1, category_id = $2, description = $3, emoji = $4, required_roles = $5
		WHERE id = $6 AND guild_id = $7
	`, reason.Label, reason.CategoryID, reason.Description, reason.Emoji, reason.RequiredRoles, reason.ID, reason.GuildID)
	return err
}

func (s *Store) DeleteTicketReason(ctx context.Context, guildID string, id int64) (bool, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM ticket_reasons WHERE id = $1 AND guild_id = $2`, id, guildID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (s *Store) GetTicketReason(ctx context.Context, guildID string, id int64) (*TicketReason, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, guild_id, label, category_id, description, emoji, required_roles
		FROM ticket_reasons WHERE id = $1 AND guild_id = $2
	`, id, guildID)

	var r TicketReason
	err := row.Scan(&r.ID, &r.GuildID, &r.Label, &r.CategoryID, &r.Description, &r.Emoji, &r.RequiredRoles)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &r, nil
}

func (s *Store) ListTicketReasons(ctx context.Context, guildID string) ([]TicketReason, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, guild_id, label, category_id, description, emoji, required_roles
		FROM ticket_reasons WHERE guild_id = $1 ORDER BY id
	`, guildID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var reasons []TicketReason
	for rows.Next() {
		var r TicketReason
		if err := rows.Scan(&r.ID, &r.GuildID, &r.Label, &r.CategoryID, &r.Description, &r.Emoji, &r.RequiredRoles); err != nil {
			return nil, err
		}
		reasons = append(reasons, r)
	}
	return reasons, rows.Err()
}
