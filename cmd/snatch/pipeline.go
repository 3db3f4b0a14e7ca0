package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/jkindrix/claude-snatch/internal/applog"
	"github.com/jkindrix/claude-snatch/internal/discovery"
	"github.com/jkindrix/claude-snatch/internal/ingest"
	"github.com/jkindrix/claude-snatch/internal/model"
	"github.com/jkindrix/claude-snatch/internal/reconstruct"
)

const maxLineSize = 64 << 20 // 64 MiB: some tool_result blocks embed large payloads

// mmapThreshold is the file size above which loadSession scans via
// ingest.OpenMapped instead of a plain buffered os.Open, avoiding a
// full page-cache-to-userspace copy for the large session files long
// agentic runs accumulate.
const mmapThreshold = 8 << 20 // 8 MiB

// loaded pairs a discovered session with its reconstructed DAG.
type loaded struct {
	Session discovery.Session
	Conv    *reconstruct.Conversation
	Stats   ingest.Stats
}

// loadSession ingests and reconstructs one session file.
func loadSession(ctx context.Context, sess discovery.Session) (loaded, error) {
	var (
		f   io.ReadCloser
		err error
	)
	if sess.File.Size > mmapThreshold {
		f, err = ingest.OpenMapped(sess.File.Path)
	} else {
		f, err = os.Open(sess.File.Path)
	}
	if err != nil {
		return loaded{}, fmt.Errorf("open %s: %w", sess.File.Path, err)
	}
	defer f.Close()

	res, err := ingest.Parse(ctx, f, ingest.Lenient, maxLineSize)
	if err != nil {
		return loaded{}, fmt.Errorf("parse %s: %w", sess.File.Path, err)
	}
	if res.Stats.HasTorn {
		applog.Named("ingest").Warn().
			Str("session", sess.ID).
			Int64("torn_start", res.Stats.TornStart).
			Msg("session file ends with a torn line; writer likely still active")
	}
	for _, lerr := range res.Stats.Errors {
		applog.Named("ingest").Debug().Str("session", sess.ID).Err(lerr).Msg("skipped malformed line")
	}

	conv := reconstruct.Reconstruct(sess.ID, sess.ParentID, res.Entries)
	if conv.HasCycle {
		applog.Named("reconstruct").Warn().
			Str("session", sess.ID).
			Int("cycle_count", len(conv.CycleErrors)).
			Msg("parent-uuid cycle detected; affected entries fell back to arrival order")
	}
	return loaded{Session: sess, Conv: conv, Stats: res.Stats}, nil
}

// resolveSessions finds the sessions matching projectFilter/sessionFilter
// beneath root. An empty projectFilter scans every project; an empty
// sessionFilter returns every session within the matched project(s).
// Subagent sessions have their ParentID filled in from the owning
// project's queue-operation entries before being returned.
func resolveSessions(root, projectFilter, sessionFilter string) ([]discovery.Session, error) {
	projects, err := discovery.ListProjects(root)
	if err != nil {
		return nil, err
	}
	var out []discovery.Session
	for _, p := range projects {
		if projectFilter != "" && p.EncodedName != projectFilter && p.DecodedPath != projectFilter {
			continue
		}
		sessions, err := discovery.ListSessions(p)
		if err != nil {
			return nil, fmt.Errorf("list sessions in %s: %w", p.Path, err)
		}
		linkSubagentParents(sessions)
		for _, s := range sessions {
			if sessionFilter != "" && s.ID != sessionFilter {
				continue
			}
			out = append(out, s)
		}
	}
	return out, nil
}

// linkSubagentParents fills in ParentID on every subagent Session so
// reconstruct can stitch the two logs back together. It tries the log
// format's own rule first — spec's literal "earliest entry whose
// agentId equals <short-hash> in sibling session files" — and falls
// back to the teacher's queue-operation/XML scan for subagent files
// from profiles old enough to never set agentId on their own entries.
func linkSubagentParents(sessions []discovery.Session) {
	byID := make(map[string]*discovery.Session, len(sessions))
	entriesByID := make(map[string][]model.Entry, len(sessions))
	for i := range sessions {
		byID[sessions[i].ID] = &sessions[i]
		f, err := os.Open(sessions[i].File.Path)
		if err != nil {
			continue
		}
		res, err := ingest.Parse(context.Background(), f, ingest.Lenient, maxLineSize)
		f.Close()
		if err != nil {
			continue
		}
		entriesByID[sessions[i].ID] = res.Entries
	}

	for i := range sessions {
		sess := &sessions[i]
		if !sess.IsSubagent {
			continue
		}
		shortHash := discovery.ShortHash(sess.ID)
		siblings := make(map[string][]model.Entry, len(entriesByID))
		for id, entries := range entriesByID {
			if id == sess.ID {
				continue
			}
			siblings[id] = entries
		}
		if parentID := discovery.FindParentByAgentID(shortHash, siblings); parentID != "" {
			sess.ParentID = parentID
		}
	}

	for _, parent := range sessions {
		if parent.IsSubagent {
			continue
		}
		for _, agentSessionID := range discovery.BuildSubagentMap(entriesByID[parent.ID]) {
			child, ok := byID[agentSessionID]
			if !ok || child.ParentID != "" {
				continue
			}
			child.ParentID = parent.ID
		}
	}
}

// allEntries flattens every branch of conv into Reconstruct's input
// order, for callers (subagent stitching) that need the full entry set.
func allEntries(conv *reconstruct.Conversation) []model.Entry {
	var out []model.Entry
	for _, b := range conv.Branches() {
		out = append(out, b.Entries...)
	}
	return out
}

// loadSessionTree loads sess like loadSession, then additionally
// resolves and loads any subagent sessions its Task tool_use blocks
// name (spec scenario 5), attaching each as a child Conversation on
// conv.Subagents so export/analytics can expose it as a subtree rooted
// at the spawning tool_use.
func loadSessionTree(ctx context.Context, sess discovery.Session, allSessions []discovery.Session) (loaded, error) {
	l, err := loadSession(ctx, sess)
	if err != nil {
		return loaded{}, err
	}
	attachSubagents(ctx, l.Conv, allSessions)
	return l, nil
}

func attachSubagents(ctx context.Context, conv *reconstruct.Conversation, allSessions []discovery.Session) {
	taskMap := reconstruct.BuildTaskAgentMap(allEntries(conv))
	if len(taskMap) == 0 {
		return
	}
	byID := make(map[string]discovery.Session, len(allSessions))
	for _, s := range allSessions {
		byID[s.ID] = s
	}
	subagents := make(map[string]*reconstruct.Conversation, len(taskMap))
	for toolUseID, agentSessionID := range taskMap {
		sess, ok := byID[agentSessionID]
		if !ok {
			continue
		}
		child, err := loadSession(ctx, sess)
		if err != nil {
			continue
		}
		subagents[toolUseID] = child.Conv
	}
	if len(subagents) > 0 {
		conv.Subagents = subagents
	}
}
