package repository

import (
	"database/sql"
	"time"
)

type Repo struct {
	db *sql.DB
}

// Settings are per-guild overrides. A nil field means the configured
// default applies.
type Settings struct {
	GuildID         string
	PlaylistLimit   *int
	SongLengthLimit *time.Duration
}
