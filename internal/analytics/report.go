// Package analytics computes a pure, deterministic summary over a
// reconstructed conversation: message/turn counts, token usage, tool
// call frequencies, and estimated cost.
package analytics

import (
	"time"

	"github.com/jkindrix/claude-snatch/internal/costrate"
	"github.com/jkindrix/claude-snatch/internal/model"
	"github.com/jkindrix/claude-snatch/internal/reconstruct"
)

// Report summarizes one branch of a conversation.
type Report struct {
	SessionID        string
	UserMessages     int
	AssistantTurns   int
	ToolCallsByName  map[string]int
	ToolCallsByCat   map[string]int
	ToolSuccessCount int
	ToolFailureCount int
	ToolUnknownCount int // is_error absent: implicit success, tracked separately per spec's three-state rule
	ThinkingBlocks   int
	ThinkingTokensApprox int
	Usage            model.Usage
	UsageByModel     map[string]model.Usage // keyed by model name ("" for chunks with no model recorded)
	EstimatedCostUSD float64
	StartedAt        time.Time
	EndedAt          time.Time
	Duration         time.Duration
}

// Summarize reduces one branch into a Report. It is a pure function
// of b and rates: running it twice over the same inputs always
// produces byte-identical output.
func Summarize(b reconstruct.Branch, rates costrate.Table) Report {
	r := Report{
		SessionID:       b.ID,
		ToolCallsByName: map[string]int{},
		ToolCallsByCat:  map[string]int{},
		UsageByModel:    map[string]model.Usage{},
		StartedAt:       b.StartedAt,
		EndedAt:         b.EndedAt,
	}
	if !b.StartedAt.IsZero() && !b.EndedAt.IsZero() {
		r.Duration = b.EndedAt.Sub(b.StartedAt)
	}

	groups := reconstruct.GroupStreamingMessages(b)
	r.AssistantTurns = len(groups)
	for _, g := range groups {
		gu := g.Usage()
		r.Usage.InputTokens += gu.InputTokens
		r.Usage.OutputTokens += gu.OutputTokens
		r.Usage.CacheCreationInputTokens += gu.CacheCreationInputTokens
		r.Usage.CacheReadInputTokens += gu.CacheReadInputTokens

		mu := r.UsageByModel[g.Model()]
		mu.InputTokens += gu.InputTokens
		mu.OutputTokens += gu.OutputTokens
		mu.CacheCreationInputTokens += gu.CacheCreationInputTokens
		mu.CacheReadInputTokens += gu.CacheReadInputTokens
		r.UsageByModel[g.Model()] = mu
	}

	for _, e := range b.Entries {
		switch v := e.(type) {
		case *model.UserEntry:
			if hasNonEmptyText(v.Message.Content) {
				r.UserMessages++
			}
			for _, block := range v.Message.Content {
				if tr, ok := block.(model.ToolResultBlock); ok {
					switch tr.IsError {
					case model.TriTrue:
						r.ToolFailureCount++
					case model.TriFalse:
						r.ToolSuccessCount++
					default:
						r.ToolUnknownCount++
					}
				}
			}
		case *model.AssistantEntry:
			for _, block := range v.Message.Content {
				switch blk := block.(type) {
				case model.ToolUseBlock:
					r.ToolCallsByName[blk.Name]++
					r.ToolCallsByCat[NormalizeToolCategory(blk.Name)]++
				case model.ThinkingBlock:
					r.ThinkingBlocks++
					r.ThinkingTokensApprox += approxTokens(blk.Thinking)
				}
			}
		}
	}

	// Per spec's "Σ tokens × rate_for(model, bucket)" formula: each
	// model's tokens are priced at that model's own rate, so a
	// haiku→opus switch mid-session doesn't mis-price the haiku tokens.
	for modelName, u := range r.UsageByModel {
		r.EstimatedCostUSD += rates.Estimate(modelName, u)
	}
	return r
}

// approxTokens estimates a thinking block's token count from its text
// length. Source logs never carry a token count for thinking content,
// so this is a rough approximation (~4 bytes/token), not a figure
// suitable for billing reconciliation.
func approxTokens(text string) int {
	return (len(text) + 3) / 4
}

func hasNonEmptyText(blocks []model.ContentBlock) bool {
	for _, b := range blocks {
		if tb, ok := b.(model.TextBlock); ok && tb.Text != "" {
			return true
		}
	}
	return false
}
