package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/jkindrix/claude-snatch/internal/analytics"
	"github.com/jkindrix/claude-snatch/internal/config"
	"github.com/jkindrix/claude-snatch/internal/discovery"
)

func runAnalyze(args []string) {
	fs := flag.NewFlagSet("analyze", flag.ExitOnError)
	root := fs.String("root", "", "log store root (defaults to the platform default)")
	project := fs.String("project", "", "restrict to this project (encoded or decoded path)")
	session := fs.String("session", "", "restrict to this session ID")
	_ = fs.Parse(args)

	cfg, err := config.Load()
	if err != nil {
		fatalf("load config: %v", err)
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
		fatalf("no matching sessions under %s", resolvedRoot)
	}

	for _, sess := range sessions {
		l, err := loadSessionTree(context.Background(), sess, sessions)
		if err != nil {
			fmt.Fprintf(os.Stderr, "snatch: analyze: %s: %v\n", sess.ID, err)
			continue
		}
		r := analytics.Summarize(l.Conv.Main, cfg.CostRates)
		printReport(r)
	}
}

func printReport(r analytics.Report) {
	fmt.Printf("session %s\n", r.SessionID)
	fmt.Printf("  user messages:    %d\n", r.UserMessages)
	fmt.Printf("  assistant turns:  %d\n", r.AssistantTurns)
	fmt.Printf("  tool calls:       %d ok, %d failed, %d unknown\n", r.ToolSuccessCount, r.ToolFailureCount, r.ToolUnknownCount)
	fmt.Printf("  thinking blocks:  %d (~%d tokens)\n", r.ThinkingBlocks, r.ThinkingTokensApprox)
	fmt.Printf("  tokens:           %d in, %d out, %d cache-read\n",
		r.Usage.InputTokens, r.Usage.OutputTokens, r.Usage.CacheReadInputTokens)
	fmt.Printf("  estimated cost:   $%.4f\n", r.EstimatedCostUSD)
	fmt.Printf("  duration:         %s\n\n", r.Duration)
}
