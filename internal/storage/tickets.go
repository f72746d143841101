package storage

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
)

type Ticket struct {
	ID         int64
	GuildID    string
	ChannelID  string
	OwnerID    string
	ReasonID   *int64
	Status     string
	ClaimedBy  string
	Transcript *string
	CreatedAt  time.Time
	ClosedAt   *time.Time
}

const (
	TicketOpen   = "open"
	TicketClosed = "closed"
)

type TicketStats struct {
	Total   int
	Open    int
	Closed  int
	Claimed int
}

const ticketColumns = `
	id, guild_id, channel_id, owner_id, reason_id, status, claimed_by,
	transcript_text, created_at, closed_at`

func scanTicket(row pgx.Row) (*Ticket, error) {
	var t Ticket
	err := row.Scan(
		&t.ID,
		&t.GuildID,
		&t.ChannelID,
		&t.OwnerID,
		&t.ReasonID,
		&t.Status,
		&t.ClaimedBy,
		&t.Transcript,
		&t.CreatedAt,
		&t.ClosedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &t, nil
}

func (s *Store) CreateTicket(ctx context.Context, guildID, channelID, ownerID string, reasonID *int64) (int64, error) {
	var id int64
	err := s.pool.QueryRow(ctx, `
		INSERT INTO tickets (guild_id, channel_id, owner_id, reason_id)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`, guildID, channelID, ownerID, reasonID).Scan(&id)
	return id, err
}

// GetTicketByChannel returns nil without error when the channel has no ticket.
func (s *Store) GetTicketByChannel(ctx context.Context, channelID string) (*Ticket, error) {
	row := s.pool.QueryRow(ctx, `SELECT`+ticketColumns+` FROM tickets WHERE channel_id = $1`, channelID)
	return scanTicket(row)
}

// OpenTicketFor returns the user's currently open ticket, if any.
func (s *Store) OpenTicketFor(ctx context.Context, guildID, ownerID string) (*Ticket, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT`+ticketColumns+`
		FROM tickets
		WHERE guild_id = $1 AND owner_id = $2 AND status = 'open'
		ORDER BY id DESC
		LIMIT 1
	`, guildID, ownerID)
	return scanTicket(row)
}

func (s *Store) GetTicket(ctx context.Context, id int64) (*Ticket, error) {
	row := s.pool.QueryRow(ctx, `SELECT`+ticketColumns+` FROM tickets WHERE id = $1`, id)
	return scanTicket(row)
}

func (s *Store) ClaimTicket(ctx context.Context, channelID, userID string) error {
	_, err := s.pool.Exec(ctx, `UPDATE tickets SET claimed_by = $1 WHERE channel_id = $2`, userID, channelID)
	return err
}

func (s *Store) CloseTicket(ctx context.Context, channelID string) error {
	_, err := s.pool.Exec(ctx, `UPDATE tickets SET status = 'closed', closed_at = NOW() WHERE channel_id = $1`, channelID)
	return err
}

func (s *Store) ReopenTicket(ctx context.Context, channelID string) error {
	_, err := s.pool.Exec(ctx, `UPDATE tickets SET status = 'open', closed_at = NULL WHERE channel_id = $1`, channelID)
	return err
}

func (s *Store) SetTicketTranscript(ctx context.Context, channelID, transcript string) error {
	_, err := s.pool.Exec(ctx, `UPDATE tickets SET transcript_text = $1 WHERE channel_id = $2`, transcript, channelID)
	return err
}

func (s *Store) AddTicketMember(ctx context.Context, ticketID int64, userID string) error {
	_, err := s.pool.Exec(ctx, `INSERT INTO ticket_members (ticket_id, user_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`, ticketID, userID)
	return err
}

func (s *Store) RemoveTicketMember(ctx context.Context, ticketID int64, userID string) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM ticket_members WHERE ticket_id = $1 AND user_id = $2`, ticketID, userID)
	return err
}

func (s *Store) ListTicketMembers(ctx context.Context, ticketID int64) ([]string, error) {
	rows, err := s.pool.Query(ctx, `SELECT user_id FROM ticket_members WHERE ticket_id = $1 ORDER BY user_id`, ticketID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var members []string
	for rows.Next() {
		var userID string
		if err := rows.Scan(&userID); err != nil {
			return nil, err
		}
		members = append(members, userID)
	}
	return members, rows.Err()
}

func (s *Store) TicketStats(ctx context.Context, guildID string) (TicketStats, error) {
	var stats TicketStats
	err := s.pool.QueryRow(ctx, `
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE status = 'open'),
			COUNT(*) FILTER (WHERE status = 'closed'),
			COUNT(*) FILTER (WHERE status = 'open' AND claimed_by <> '')
		FROM tickets WHERE guild_id = $1
	`, guildID).Scan(&stats.Total, &stats.Open, &stats.Closed, &stats.Claimed)
	return stats, err
}

// ListTranscripts returns the most recent tickets that have a captured
// transcript, newest first.
func (s *Store) ListTranscripts(ctx context.Context, guildID string, limit int) ([]Ticket, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT`+ticketColumns+`
		FROM tickets
		WHERE guild_id = $1 AND transcript_text IS NOT NULL
		ORDER BY id DESC
		LIMIT $2
	`, guildID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tickets []Ticket
	for rows.Next() {
		ticket, err := scanTicket(rows)
		if err != nil {
			return nil, err
		}
		tickets = append(tickets, *ticket)
	}
	return tickets, rows.Err()
}
