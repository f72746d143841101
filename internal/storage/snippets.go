package storage

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
)

// Snippet is a canned response. Content holds the raw embed JSON so the
// panel can edit it without the bot re-encoding anything.
type Snippet struct {
	GuildID  string
	Name     string
	Category string
	Content  string
}

func (s *Store) UpsertSnippet(ctx context.Context, snip Snippet) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO snippets (guild_id, name, category, content_json)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (guild_id, name) DO UPDATE SET
			category = excluded.category,
			content_json = excluded.content_json
	`, snip.GuildID, snip.Name, snip.Category, snip.Content)
	return err
}

func (s *Store) GetSnippet(ctx context.Context, guildID, name string) (*Snippet, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT guild_id, name, category, content_json
		FROM snippets WHERE guild_id = $1 AND name = $2
	`, guildID, name)

	var snip Snippet
	err := row.Scan(&snip.GuildID, &snip.Name, &snip.Category, &snip.Content)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &snip, nil
}

func (s *Store) DeleteSnippet(ctx context.Context, guildID, name string) (bool, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM snippets WHERE guild_id = $1 AND name = $2`, guildID, name)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (s *Store) ListSnippets(ctx context.Context, guildID string) ([]Snippet, error) {
	return s.querySnippets(ctx, `
		SELECT guild_id, name, category, content_json
		FROM snippets WHERE guild_id = $1 ORDER BY name
	`, guildID)
}

func (s *Store) ListSnippetsByCategory(ctx context.Context, guildID, category string) ([]Snippet, error) {
	return s.querySnippets(ctx, `
		SELECT guild_id, name, category, content_json
		FROM snippets WHERE guild_id = $1 AND category = $2 ORDER BY name
	`, guildID, category)
}

func (s *Store) SnippetCategories(ctx context.Context, guildID string) ([]string, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT DISTINCT category FROM snippets
		WHERE guild_id = $1 AND category <> '' ORDER BY category
	`, guildID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var categories []string
	for rows.Next() {
		var category string
		if err := rows.Scan(&category); err != nil {
			return nil, err
		}
		categories = append(categories, category)
	}
	return categories, rows.Err()
}

func (s *Store) querySnippets(ctx context.Context, query string, args ...any) ([]Snippet, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var snippets []Snippet
	for rows.Next() {
		var snip Snippet
		if err := rows.Scan(&snip.GuildID, &snip.Name, &snip.Category, &snip.Content); err != nil {
			return nil, err
		}
		snippets = append(snippets, snip)
	}
	return snippets, rows.Err()
}
