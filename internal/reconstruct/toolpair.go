package reconstruct

import (
	"github.com/jkindrix/claude-snatch/internal/model"
	"github.com/tidwall/gjson"
)

// ToolPair correlates a tool_use block with its eventual tool_result,
// which may arrive in a later entry (the typical case) or never (the
// call was interrupted before its result was recorded).
type ToolPair struct {
	ToolUseID       string
	Use             model.ToolUseBlock
	Result          *model.ToolResultBlock
	SubagentSession string // set when Use.Name == "Task" and stitched
}

// PairTools walks a branch's entries in order, correlating every
// tool_use block with the tool_result block that references its ID.
// Unmatched tool_use blocks produce a ToolPair with a nil Result.
func PairTools(b Branch, subagents map[string]string) []ToolPair {
	var order []string
	pairs := map[string]*ToolPair{}

	for _, e := range b.Entries {
		for _, block := range contentBlocksOf(e) {
			switch blk := block.(type) {
			case model.ToolUseBlock:
				if blk.ID == "" {
					continue
				}
				p := &ToolPair{ToolUseID: blk.ID, Use: blk}
				if blk.Name == "Task" {
					if sid, ok := subagents[blk.ID]; ok {
						p.SubagentSession = sid
					}
				}
				pairs[blk.ID] = p
				order = append(order, blk.ID)
			case model.ToolResultBlock:
				if blk.ToolUseID == "" {
					continue
				}
				if p, ok := pairs[blk.ToolUseID]; ok {
					res := blk
					p.Result = &res
				} else {
					// Result arrived with no matching call visible in
					// this branch (e.g. call lives in a parent session).
					pairs[blk.ToolUseID] = &ToolPair{ToolUseID: blk.ToolUseID, Result: &blk}
					order = append(order, blk.ToolUseID)
				}
			}
		}
	}

	out := make([]ToolPair, 0, len(order))
	for _, id := range order {
		out = append(out, *pairs[id])
	}
	return out
}

// BuildTaskAgentMap scans entries for Task tool_use blocks whose input
// designates an agentId (per spec scenario 5: a Task tool_use's input
// names "agentId":"agent-<hash>"), returning a map from that tool_use's
// ID to the subagent session ID it names. The caller matches returned
// session IDs against its own discovered sessions to decide which
// subagent conversations are actually available to stitch in.
func BuildTaskAgentMap(entries []model.Entry) map[string]string {
	m := map[string]string{}
	for _, e := range entries {
		for _, block := range contentBlocksOf(e) {
			tu, ok := block.(model.ToolUseBlock)
			if !ok || tu.Name != "Task" || tu.ID == "" || len(tu.Input) == 0 {
				continue
			}
			if agentID := gjson.GetBytes(tu.Input, "agentId").Str; agentID != "" {
				m[tu.ID] = agentID
			}
		}
	}
	return m
}

func contentBlocksOf(e model.Entry) []model.ContentBlock {
	switch v := e.(type) {
	case *model.UserEntry:
		return v.Message.Content
	case *model.AssistantEntry:
		return v.Message.Content
	default:
		return nil
	}
}
