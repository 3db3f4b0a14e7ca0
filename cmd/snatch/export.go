package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jkindrix/claude-snatch/internal/applog"
	"github.com/jkindrix/claude-snatch/internal/discovery"
	"github.com/jkindrix/claude-snatch/internal/export"
	"github.com/jkindrix/claude-snatch/internal/redact"
	"github.com/jkindrix/claude-snatch/internal/workerpool"
)

func runExport(args []string) {
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	root := fs.String("root", "", "log store root (defaults to the platform default)")
	project := fs.String("project", "", "restrict to this project (encoded or decoded path)")
	session := fs.String("session", "", "restrict to this session ID")
	format := fs.String("format", "markdown", "output format: markdown|text|html|json|jsonl|csv|xml|sqlite")
	out := fs.String("out", "", "output file/dir (stdout for single-session streaming formats)")
	mainOnly := fs.Bool("main-only", false, "export only the main thread, dropping forks and sidechains")
	redactPolicy := fs.String("redact", "none", "redaction policy: none|security|all")
	pretty := fs.Bool("pretty", false, "pretty-print JSON output")
	theme := fs.String("theme", "light", "HTML theme: light|dark")
	_ = fs.Parse(args)

	resolvedRoot, err := discovery.ResolveRoot(*root)
	if err != nil {
		fatalf("%v", err)
	}
	sessions, err := resolveSessions(resolvedRoot, *project, *session)
	if err != nil {
		fatalf("%v", err)
	}
	if len(sessions) == 0 {
		fatalf("no matching sessions under %s", resolvedRoot)
	}

	opts := export.DefaultOptions()
	opts.MainThreadOnly = *mainOnly
	opts.Theme = *theme
	opts.Pretty = *pretty
	switch *redactPolicy {
	case "security":
		opts.RedactionPolicy = export.RedactSecurity
		p := redact.DefaultPolicy()
		opts.Redact = &p
	case "all":
		opts.RedactionPolicy = export.RedactAll
		p := redact.DefaultPolicy()
		p.MaxTextLen = 0
		opts.Redact = &p
	}

	if *format == "sqlite" {
		exportSQLite(sessions, *out, opts)
		return
	}

	exporter := export.ByName(*format)
	if exporter == nil {
		fatalf("unknown format %q (try: %v)", *format, export.Names())
	}

	ctx, cancel := signalContext()
	defer cancel()

	concurrency := 0
	if *out == "" {
		concurrency = 1 // stdout is shared; multiple sessions must not interleave
	}

	log := applog.Named("export")
	start := time.Now()
	_, errs := workerpool.Run(ctx, sessions, concurrency, func(ctx context.Context, sess discovery.Session) (struct{}, error) {
		return struct{}{}, exportOne(ctx, exporter, sess, sessions, opts, *out, *format)
	})
	for _, e := range errs {
		if e != nil {
			log.Error().Err(e).Msg("export failed")
		}
	}
	log.Info().Int("sessions", len(sessions)).Str("elapsed", elapsedSince(start)).Msg("export complete")
}

func exportOne(ctx context.Context, exporter export.Exporter, sess discovery.Session, allSessions []discovery.Session, opts export.Options, outSpec, format string) error {
	loaded, err := loadSessionTree(ctx, sess, allSessions)
	if err != nil {
		return err
	}

	if outSpec == "" {
		return exporter.Export(os.Stdout, loaded.Conv, opts)
	}
	if err := os.MkdirAll(outSpec, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	path := filepath.Join(outSpec, sess.ID+"."+extensionFor(format))
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	return exporter.Export(f, loaded.Conv, opts)
}

func extensionFor(format string) string {
	switch format {
	case "markdown":
		return "md"
	case "text":
		return "txt"
	default:
		return format
	}
}
