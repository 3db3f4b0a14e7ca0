package main

import (
	"context"
	"flag"
	"fmt"

	"github.com/jkindrix/claude-snatch/internal/discovery"
	"github.com/jkindrix/claude-snatch/internal/redact"
)

// runRedact previews what a redaction pass would mask in a session,
// without writing anything — a dry-run report a caller reviews before
// choosing -redact security|all on an actual export.
func runRedact(args []string) {
	fs := flag.NewFlagSet("redact", flag.ExitOnError)
	root := fs.String("root", "", "log store root (defaults to the platform default)")
	project := fs.String("project", "", "restrict to this project (encoded or decoded path)")
	session := fs.String("session", "", "session ID to preview")
	fs.Bool("dry-run", true, "preview only; redact never writes back to the log store")
	_ = fs.Parse(args)

	if *session == "" {
		fatalf("redact requires -session")
	}
	resolvedRoot, err := discovery.ResolveRoot(*root)
	if err != nil {
		fatalf("%v", err)
	}
	sessions, err := resolveSessions(resolvedRoot, *project, *session)
	if err != nil {
		fatalf("%v", err)
	}
	if len(sessions) == 0 {
		fatalf("session %q not found under %s", *session, resolvedRoot)
	}

	l, err := loadSession(context.Background(), sessions[0])
	if err != nil {
		fatalf("%v", err)
	}

	rep := redact.Preview(l.Conv, redact.DefaultPolicy())
	if len(rep.Matches) == 0 {
		fmt.Println("no matches")
		return
	}
	for _, m := range rep.Matches {
		fmt.Printf("%s [%s] pattern=%s: %q\n", m.EntryUUID, m.BlockType, m.Pattern, m.Original)
	}
}
