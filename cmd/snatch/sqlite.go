package main

import (
	"context"
	"time"

	"github.com/jkindrix/claude-snatch/internal/applog"
	"github.com/jkindrix/claude-snatch/internal/discovery"
	"github.com/jkindrix/claude-snatch/internal/export"
)

const defaultDBName = "sessions.db"

// exportSQLite projects every matched session into one canonical
// SQLite database at out (default: ./sessions.db in the working
// directory), dropping and rebuilding the FTS index once at the end
// rather than paying per-row maintenance during the bulk load.
func exportSQLite(sessions []discovery.Session, out string, opts export.Options) {
	if out == "" {
		out = defaultDBName
	}
	db, err := export.OpenSQLite(out)
	if err != nil {
		fatalf("open sqlite db: %v", err)
	}
	defer db.Close()

	log := applog.Named("export.sqlite")
	start := time.Now()

	if err := db.DropFTS(); err != nil {
		log.Warn().Err(err).Msg("drop fts failed; continuing without bulk-load fast path")
	}

	var failures int
	for _, sess := range sessions {
		l, err := loadSessionTree(context.Background(), sess, sessions)
		if err != nil {
			log.Error().Err(err).Str("session", sess.ID).Msg("sqlite export: load failed")
			failures++
			continue
		}
		if len(l.Conv.Main.Entries) == 0 && len(l.Conv.Forks) == 0 && len(l.Conv.Sidechains) == 0 {
			log.Debug().Str("session", sess.ID).Msg("sqlite export: no parseable entries; skipping")
			continue
		}
		if err := db.ExportConversation(l.Conv, opts); err != nil {
			log.Error().Err(err).Str("session", sess.ID).Msg("sqlite export: write failed")
			failures++
		}
	}

	if err := db.RebuildFTS(); err != nil {
		log.Error().Err(err).Msg("rebuild fts failed")
	}

	log.Info().
		Int("sessions", len(sessions)).
		Int("failures", failures).
		Str("db", out).
		Str("elapsed", elapsedSince(start)).
		Msg("sqlite export complete")
}
