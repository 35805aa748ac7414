// SPDX-License-Identifier: MIT

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver (pure Go, no CGO)

	"github.com/viewgate/viewgate/internal/catalog"
	"github.com/viewgate/viewgate/internal/entitle"
)

// SQLiteStore persists the channel catalog in a single SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens the database and runs migrations. WAL mode plus
// busy_timeout suits the read-heavy serving workload.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)", dbPath)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return s, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS channels (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		category TEXT NOT NULL DEFAULT '',
		logo_url TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL DEFAULT 'active' CHECK(status IN ('active', 'inactive', 'retired')),
		allowed_platforms TEXT NOT NULL DEFAULT '',
		premium INTEGER NOT NULL DEFAULT 0,
		public_preview INTEGER NOT NULL DEFAULT 0,
		featured INTEGER NOT NULL DEFAULT 0,
		stream_url TEXT NOT NULL DEFAULT '',
		lifetime_views INTEGER NOT NULL DEFAULT 0,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_channels_category ON channels(category);
	CREATE INDEX IF NOT EXISTS idx_channels_featured ON channels(featured);
	CREATE INDEX IF NOT EXISTS idx_channels_created ON channels(created_at);
	`
	_, err := s.db.Exec(schema)
	return err
}

const channelColumns = `id, name, description, category, logo_url, status,
	allowed_platforms, premium, public_preview, featured, stream_url,
	lifetime_views, created_at`

// GetChannel implements catalog.Store.
func (s *SQLiteStore) GetChannel(ctx context.Context, id string) (catalog.Channel, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+channelColumns+` FROM channels WHERE id = ?`, id)

	ch, err := scanChannel(row)
	if errors.Is(err, sql.ErrNoRows) {
		return catalog.Channel{}, catalog.ErrChannelNotFound
	}
	if err != nil {
		return catalog.Channel{}, fmt.Errorf("get channel %s: %w", id, err)
	}
	return ch, nil
}

// ListChannels implements catalog.Store.
func (s *SQLiteStore) ListChannels(ctx context.Context, filter catalog.ListFilter) ([]catalog.Channel, error) {
	query := `SELECT ` + channelColumns + ` FROM channels`
	var conds []string
	var args []any

	if filter.Category != "" {
		conds = append(conds, "category = ?")
		args = append(args, filter.Category)
	}
	if filter.FeaturedOnly {
		conds = append(conds, "featured = 1")
	}
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	if filter.NewestFirst {
		query += " ORDER BY created_at DESC"
	} else {
		query += " ORDER BY name ASC"
	}
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list channels: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []catalog.Channel
	for rows.Next() {
		ch, err := scanChannel(rows)
		if err != nil {
			return nil, fmt.Errorf("scan channel: %w", err)
		}
		out = append(out, ch)
	}
	return out, rows.Err()
}

// UpsertChannel implements ChannelStore. The lifetime view counter of an
// existing row is preserved; it is owned by the view counter, not the
// admin surface.
func (s *SQLiteStore) UpsertChannel(ctx context.Context, ch catalog.Channel) error {
	if ch.CreatedAt.IsZero() {
		ch.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO channels (`+channelColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			description = excluded.description,
			category = excluded.category,
			logo_url = excluded.logo_url,
			status = excluded.status,
			allowed_platforms = excluded.allowed_platforms,
			premium = excluded.premium,
			public_preview = excluded.public_preview,
			featured = excluded.featured,
			stream_url = excluded.stream_url`,
		ch.ID, ch.Name, ch.Description, ch.Category, ch.LogoURL,
		string(ch.Status), joinPlatforms(ch.AllowedPlatforms),
		boolInt(ch.Premium), boolInt(ch.PublicPreview), boolInt(ch.Featured),
		ch.StreamURL, ch.LifetimeViews, ch.CreatedAt.UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("upsert channel %s: %w", ch.ID, err)
	}
	return nil
}

// DeleteChannel implements ChannelStore.
func (s *SQLiteStore) DeleteChannel(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM channels WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete channel %s: %w", id, err)
	}
	return nil
}

// PersistViewIncrement implements views.Recorder. The single UPDATE is
// atomic per row, so concurrent increments for the same channel serialize
// in the database and different channels do not contend.
func (s *SQLiteStore) PersistViewIncrement(ctx context.Context, channelID string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE channels SET lifetime_views = lifetime_views + 1 WHERE id = ?`, channelID)
	if err != nil {
		return fmt.Errorf("increment views for %s: %w", channelID, err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanChannel(r rowScanner) (catalog.Channel, error) {
	var ch catalog.Channel
	var status, platforms, createdAt string
	var premium, preview, featured int

	err := r.Scan(&ch.ID, &ch.Name, &ch.Description, &ch.Category, &ch.LogoURL,
		&status, &platforms, &premium, &preview, &featured,
		&ch.StreamURL, &ch.LifetimeViews, &createdAt)
	if err != nil {
		return catalog.Channel{}, err
	}

	ch.Status = entitle.ChannelStatus(status)
	ch.AllowedPlatforms = splitPlatforms(platforms)
	ch.Premium = premium != 0
	ch.PublicPreview = preview != 0
	ch.Featured = featured != 0
	if t, err := time.Parse(time.RFC3339, createdAt); err == nil {
		ch.CreatedAt = t
	}
	return ch, nil
}

func joinPlatforms(ps []entitle.Platform) string {
	parts := make([]string, 0, len(ps))
	for _, p := range ps {
		parts = append(parts, string(p))
	}
	return strings.Join(parts, ",")
}

func splitPlatforms(raw string) []entitle.Platform {
	if raw == "" {
		return nil
	}
	var out []entitle.Platform
	for _, part := range strings.Split(raw, ",") {
		if p := entitle.ParsePlatform(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
