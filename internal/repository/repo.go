package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/sonroyaalmerol/jukebot/internal/player"
)

var ErrNotFound = errors.New("settings not found")

func NewRepo(db *sql.DB) *Repo { return &Repo{db: db} }

func (r *Repo) UpsertSettings(ctx context.Context, guild string) (*Settings, error) {
	if _, err := r.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO settings(guild_id) VALUES (?)`, guild,
	); err != nil {
		return nil, fmt.Errorf("insert settings: %w", err)
	}
	return r.GetSettings(ctx, guild)
}

func (r *Repo) GetSettings(ctx context.Context, guild string) (*Settings, error) {
	row := r.db.QueryRowContext(ctx, `
	SELECT guild_id, playlist_limit, song_length_limit_seconds
	FROM settings WHERE guild_id = ?`, guild)

	var (
		s          Settings
		limit, sec sql.NullInt64
	)
	if err := row.Scan(&s.GuildID, &limit, &sec); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if limit.Valid {
		n := int(limit.Int64)
		s.PlaylistLimit = &n
	}
	if sec.Valid {
		d := time.Duration(sec.Int64) * time.Second
		s.SongLengthLimit = &d
	}
	return &s, nil
}

// UpdateSettings writes every field of s, creating the row if needed.
func (r *Repo) UpdateSettings(ctx context.Context, s *Settings) error {
	var limit, sec sql.NullInt64
	if s.PlaylistLimit != nil {
		limit = sql.NullInt64{Int64: int64(*s.PlaylistLimit), Valid: true}
	}
	if s.SongLengthLimit != nil {
		sec = sql.NullInt64{Int64: int64(*s.SongLengthLimit / time.Second), Valid: true}
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO settings(guild_id, playlist_limit, song_length_limit_seconds)
		VALUES (?, ?, ?)
		ON CONFLICT(guild_id) DO UPDATE SET
		  playlist_limit = excluded.playlist_limit,
		  song_length_limit_seconds = excluded.song_length_limit_seconds,
		  updated_at = CAST(strftime('%s', 'now') AS INTEGER)`,
		s.GuildID, limit, sec,
	)
	return err
}

func (r *Repo) SetPlaylistLimit(ctx context.Context, guild string, n int) error {
	s, err := r.UpsertSettings(ctx, guild)
	if err != nil {
		return err
	}
	s.PlaylistLimit = &n
	return r.UpdateSettings(ctx, s)
}

func (r *Repo) SetSongLengthLimit(ctx context.Context, guild string, d time.Duration) error {
	s, err := r.UpsertSettings(ctx, guild)
	if err != nil {
		return err
	}
	s.SongLengthLimit = &d
	return r.UpdateSettings(ctx, s)
}

// IngestLimits returns the guild's playlist limits, falling back to
// defaults for anything the guild has not set.
func (r *Repo) IngestLimits(ctx context.Context, guild string, defaults player.IngestLimits) (player.IngestLimits, error) {
	s, err := r.GetSettings(ctx, guild)
	if errors.Is(err, ErrNotFound) {
		return defaults, nil
	}
	if err != nil {
		return defaults, err
	}

	limits := defaults
	if s.PlaylistLimit != nil {
		limits.MaxItems = *s.PlaylistLimit
	}
	if s.SongLengthLimit != nil {
		limits.MaxItemDuration = *s.SongLengthLimit
	}
	return limits, nil
}
