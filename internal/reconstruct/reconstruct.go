// Package reconstruct rebuilds the conversation DAG from a flat
// sequence of decoded entries: it finds the main thread, splits
// large-gap forks into their own branches, and classifies sidechains.
package reconstruct

import (
	"time"

	"github.com/jkindrix/claude-snatch/internal/model"
)

// forkThreshold is the user-turn count below which a fork point is
// treated as a small-gap retry (follow the latest child) rather than
// a large-gap fork (split into separate branches).
const forkThreshold = 3

type RelationType string

const (
	RelMain      RelationType = "main"
	RelFork      RelationType = "fork"
	RelSidechain RelationType = "sidechain"
)

// Branch is one linear walk through the DAG: the main thread, a fork
// off of it, or a sidechain.
type Branch struct {
	ID              string
	ParentSessionID string
	RelationType    RelationType
	Entries         []model.Entry
	StartedAt       time.Time
	EndedAt         time.Time
}

// Conversation is the reconstructed shape of one session file.
type Conversation struct {
	SessionID       string
	ParentSessionID string
	Main            Branch
	Forks           []Branch
	Sidechains      []Branch
	Orphans         []model.Entry
	HasCycle        bool
	CycleErrors     []*model.IntegrityError

	// Subagents holds the reconstructed conversation of every subagent
	// session stitched in, keyed by the Task tool_use ID that spawned
	// it (spec scenario 5). The caller (which alone knows about sibling
	// session files) populates this after Reconstruct returns; it is
	// nil for a Conversation built in isolation.
	Subagents map[string]*Conversation
}

// ToolPairs correlates every tool_use/tool_result block in b, resolving
// SubagentSession from c.Subagents so a Task tool_use that was
// successfully stitched reports the child session it spawned.
func (c *Conversation) ToolPairs(b Branch) []ToolPair {
	ids := make(map[string]string, len(c.Subagents))
	for toolUseID, sub := range c.Subagents {
		ids[toolUseID] = sub.SessionID
	}
	return PairTools(b, ids)
}

// Branches returns every branch, main thread first.
func (c *Conversation) Branches() []Branch {
	out := make([]Branch, 0, 1+len(c.Forks)+len(c.Sidechains))
	out = append(out, c.Main)
	out = append(out, c.Forks...)
	out = append(out, c.Sidechains...)
	return out
}

// Branch looks up a branch by its leaf or ID; returns nil if absent.
func (c *Conversation) Branch(id string) *Branch {
	for i := range c.Forks {
		if c.Forks[i].ID == id {
			return &c.Forks[i]
		}
	}
	for i := range c.Sidechains {
		if c.Sidechains[i].ID == id {
			return &c.Sidechains[i]
		}
	}
	if c.Main.ID == id {
		return &c.Main
	}
	return nil
}

type dagEntry struct {
	idx               int
	uuid              string
	parentUUID        string
	logicalParentUUID string
	timestamp         time.Time
	entry             model.Entry
}

// Reconstruct builds a Conversation from sessionID's flat entry list.
// parentSessionID, if non-empty, is the session this one's subagent
// data was stitched from (set by the caller from discovery metadata).
func Reconstruct(sessionID, parentSessionID string, entries []model.Entry) *Conversation {
	conv := &Conversation{SessionID: sessionID, ParentSessionID: parentSessionID}

	var mainline, sidechain []dagEntry
	for i, e := range entries {
		t := e.EntryType()
		if t != "user" && t != "assistant" {
			continue
		}
		c := e.Common()
		d := dagEntry{
			idx: i, uuid: c.UUID, parentUUID: c.ParentUUID,
			logicalParentUUID: c.LogicalParentUUID, timestamp: c.Timestamp, entry: e,
		}
		if c.IsSidechain {
			sidechain = append(sidechain, d)
		} else {
			mainline = append(mainline, d)
		}
	}

	main, forks, cycles := walkDAG(mainline, sessionID, parentSessionID)
	conv.Main = main
	conv.Forks = forks
	conv.HasCycle = len(cycles) > 0
	conv.CycleErrors = cycles

	if len(sidechain) > 0 {
		sideMain, sideForks, sideCycles := walkDAG(sidechain, sessionID+"-sidechain", sessionID)
		sideMain.RelationType = RelSidechain
		conv.Sidechains = append(conv.Sidechains, sideMain)
		for _, f := range sideForks {
			f.RelationType = RelSidechain
			conv.Sidechains = append(conv.Sidechains, f)
		}
		if len(sideCycles) > 0 {
			conv.HasCycle = true
			conv.CycleErrors = append(conv.CycleErrors, sideCycles...)
		}
	}

	conv.Orphans = orphanEntries(entries)
	return conv
}

// walkDAG builds a parent->children index over d and walks it from the
// single root, splitting large-gap forks into their own branch. If the
// entries don't form a well-formed single-rooted DAG (multiple roots,
// a dangling parent reference, or a cycle), it falls back to a single
// linear branch in file order — the same fallback posture the session
// format's entries are written in.
func walkDAG(d []dagEntry, sessionID, parentSessionID string) (main Branch, forks []Branch, cycles []*model.IntegrityError) {
	if len(d) == 0 {
		return Branch{ID: sessionID, ParentSessionID: parentSessionID, RelationType: RelMain}, nil, nil
	}

	children := make(map[string][]int, len(d))
	uuidSet := make(map[string]int, len(d))
	var roots []int
	for i, e := range d {
		if e.uuid != "" {
			uuidSet[e.uuid] = i
		}
	}
	for i, e := range d {
		parent := e.parentUUID
		if parent == "" && e.logicalParentUUID != "" {
			// Compaction bridge: the summary boundary drops parentUuid but
			// carries logicalParentUuid forward to the pre-compaction
			// entry it replaced. Resolve through it so a compacted entry
			// links into the existing tree instead of becoming a spurious
			// extra root that would force the whole branch into
			// linearFallback and destroy fork/branch classification.
			parent = e.logicalParentUUID
		}
		if parent == "" {
			roots = append(roots, i)
		} else if _, ok := uuidSet[parent]; ok {
			children[parent] = append(children[parent], i)
		} else {
			roots = append(roots, i) // dangling parent: treat as its own root
		}
	}

	if len(roots) != 1 {
		return linearFallback(d, sessionID, parentSessionID), nil, nil
	}

	visited := make(map[int]bool, len(d))
	var forkBranches []Branch
	var cyclic []*model.IntegrityError

	var walk func(startIdx int, ownerID string) []int
	walk = func(startIdx int, ownerID string) []int {
		var path []int
		current := startIdx
		for current >= 0 {
			if visited[current] {
				cyclic = append(cyclic, &model.IntegrityError{
					UUID: d[current].uuid, Reason: "cycle in parent edges; closing edge dropped",
				})
				break
			}
			visited[current] = true
			path = append(path, current)
			uuid := d[current].uuid
			kids := children[uuid]
			switch len(kids) {
			case 0:
				current = -1
			case 1:
				current = kids[0]
			default:
				firstTurns := countUserTurns(d, children, kids[0])
				if firstTurns <= forkThreshold {
					current = kids[len(kids)-1]
				} else {
					for _, kid := range kids[1:] {
						forkID := sessionID + "-" + d[kid].uuid
						forkPath := walk(kid, forkID)
						forkBranches = append(forkBranches, buildBranch(d, forkPath, forkID, ownerID, RelFork))
					}
					current = kids[0]
				}
			}
		}
		return path
	}

	mainPath := walk(roots[0], sessionID)
	main = buildBranch(d, mainPath, sessionID, parentSessionID, RelMain)
	return main, forkBranches, cyclic
}

func countUserTurns(d []dagEntry, children map[string][]int, startIdx int) int {
	count := 0
	current := startIdx
	seen := map[int]bool{}
	for current >= 0 {
		if seen[current] {
			break
		}
		seen[current] = true
		if d[current].entry.EntryType() == "user" {
			count++
		}
		kids := children[d[current].uuid]
		if len(kids) == 0 {
			break
		}
		current = kids[0]
	}
	return count
}

func buildBranch(d []dagEntry, indices []int, id, parentID string, rel RelationType) Branch {
	b := Branch{ID: id, ParentSessionID: parentID, RelationType: rel}
	for _, idx := range indices {
		b.Entries = append(b.Entries, d[idx].entry)
		ts := d[idx].timestamp
		if ts.IsZero() {
			continue
		}
		if b.StartedAt.IsZero() || ts.Before(b.StartedAt) {
			b.StartedAt = ts
		}
		if ts.After(b.EndedAt) {
			b.EndedAt = ts
		}
	}
	return b
}

func linearFallback(d []dagEntry, sessionID, parentSessionID string) Branch {
	indices := make([]int, len(d))
	for i := range d {
		indices[i] = i
	}
	return buildBranch(d, indices, sessionID, parentSessionID, RelMain)
}

// orphanEntries returns entries whose parentUuid does not resolve to
// any uuid present in the file — useful diagnostics for a torn or
// partially-synced log.
func orphanEntries(entries []model.Entry) []model.Entry {
	uuids := make(map[string]bool, len(entries))
	for _, e := range entries {
		if u := e.Common().UUID; u != "" {
			uuids[u] = true
		}
	}
	var orphans []model.Entry
	for _, e := range entries {
		c := e.Common()
		if c.ParentUUID != "" && !uuids[c.ParentUUID] && c.LogicalParentUUID == "" {
			orphans = append(orphans, e)
		}
	}
	return orphans
}
