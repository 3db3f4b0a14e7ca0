package main

import (
	"flag"
	"fmt"

	"github.com/jkindrix/claude-snatch/internal/applog"
	"github.com/jkindrix/claude-snatch/internal/discovery"
)

// runFollow watches a log store root and logs each session file that
// changes, so a long-lived caller can re-sync only what moved instead
// of polling the whole tree. It does not itself re-export; wiring a
// change event to an incremental sync is the caller's concern.
func runFollow(args []string) {
	fs := flag.NewFlagSet("follow", flag.ExitOnError)
	root := fs.String("root", "", "log store root (defaults to the platform default)")
	_ = fs.Parse(args)

	resolvedRoot, err := discovery.ResolveRoot(*root)
	if err != nil {
		fatalf("%v", err)
	}

	ctx, cancel := signalContext()
	defer cancel()

	f := discovery.NewFollower(resolvedRoot)
	events, err := f.Start(ctx)
	if err != nil {
		fatalf("start watcher: %v", err)
	}
	defer f.Close()

	log := applog.Named("follow")
	log.Info().Str("root", resolvedRoot).Msg("watching for session changes (ctrl-c to stop)")
	fmt.Println("watching", resolvedRoot)

	for ev := range events {
		action := "changed"
		if ev.Removed {
			action = "removed"
		}
		log.Info().Str("project", ev.ProjectID).Str("session", ev.SessionID).Msg("session " + action)
	}
}
