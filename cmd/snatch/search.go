package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"regexp"

	"github.com/jkindrix/claude-snatch/internal/discovery"
	"github.com/jkindrix/claude-snatch/internal/export"
	"github.com/jkindrix/claude-snatch/internal/search"
)

func runSearch(args []string) {
	fs := flag.NewFlagSet("search", flag.ExitOnError)
	root := fs.String("root", "", "log store root (defaults to the platform default)")
	project := fs.String("project", "", "restrict to this project (encoded or decoded path)")
	session := fs.String("session", "", "restrict to this session ID")
	text := fs.String("text", "", "substring or FTS query (case-insensitive)")
	regex := fs.String("regex", "", "regular expression, overrides -text for matching")
	role := fs.String("role", "", "restrict to this role: user|assistant")
	tool := fs.String("tool", "", "restrict to messages invoking this tool")
	db := fs.String("db", "", "search the SQLite FTS index at this path instead of scanning in memory")
	mainOnly := fs.Bool("main-only", false, "search only the main thread")
	limit := fs.Int("limit", 50, "maximum hits to return (-db mode only)")
	_ = fs.Parse(args)

	q := search.Query{Text: *text, Role: *role, ToolName: *tool, MainThreadOnly: *mainOnly}
	if *regex != "" {
		re, err := regexp.Compile(*regex)
		if err != nil {
			fatalf("invalid -regex: %v", err)
		}
		q.Regex = re
	}

	if *db != "" {
		searchFTS(*db, *text, *limit)
		return
	}

	resolvedRoot, err := discovery.ResolveRoot(*root)
	if err != nil {
		fatalf("%v", err)
	}
	sessions, err := resolveSessions(resolvedRoot, *project, *session)
	if err != nil {
		fatalf("%v", err)
	}

	var total int
	for _, sess := range sessions {
		l, err := loadSession(context.Background(), sess)
		if err != nil {
			fmt.Fprintf(os.Stderr, "snatch: search: %s: %v\n", sess.ID, err)
			continue
		}
		for _, hit := range search.InMemory(l.Conv, q) {
			printHit(hit)
			total++
		}
	}
	fmt.Fprintf(os.Stderr, "%d hits\n", total)
}

func searchFTS(path, matchQuery string, limit int) {
	sdb, err := export.OpenSQLite(path)
	if err != nil {
		fatalf("open sqlite db: %v", err)
	}
	defer sdb.Close()
	hits, err := search.FTS(sdb.Reader(), matchQuery, limit)
	if err != nil {
		fatalf("%v", err)
	}
	for _, h := range hits {
		printHit(h)
	}
	fmt.Fprintf(os.Stderr, "%d hits\n", len(hits))
}

func printHit(h search.Hit) {
	text := h.Text
	if len(text) > 200 {
		text = text[:200] + "..."
	}
	fmt.Printf("%s/%s [%s] %s\n", h.SessionID, h.UUID, h.Role, text)
}
