package main

import (
	"flag"

	"github.com/jkindrix/claude-snatch/internal/discovery"
	"github.com/jkindrix/claude-snatch/internal/export"
)

// runSync rebuilds the canonical SQLite projection for a log store so
// "snatch search" can query it with FTS instead of an in-memory scan.
// It is export -format sqlite under a name that matches what the
// operation actually does for most callers: keep a queryable mirror
// of the log store up to date.
func runSync(args []string) {
	fs := flag.NewFlagSet("sync", flag.ExitOnError)
	root := fs.String("root", "", "log store root (defaults to the platform default)")
	project := fs.String("project", "", "restrict to this project (encoded or decoded path)")
	db := fs.String("db", defaultDBName, "SQLite database path")
	_ = fs.Parse(args)

	resolvedRoot, err := discovery.ResolveRoot(*root)
	if err != nil {
		fatalf("%v", err)
	}
	sessions, err := resolveSessions(resolvedRoot, *project, "")
	if err != nil {
		fatalf("%v", err)
	}
	if len(sessions) == 0 {
		fatalf("no matching sessions under %s", resolvedRoot)
	}
	exportSQLite(sessions, *db, export.DefaultOptions())
}
