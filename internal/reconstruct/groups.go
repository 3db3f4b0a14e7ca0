package reconstruct

import "github.com/jkindrix/claude-snatch/internal/model"

// MessageGroup is one logical assistant turn, possibly reassembled
// from several JSONL lines that share the same message.id — the
// streaming API emits a line per incremental chunk rather than one
// line per completed turn.
type MessageGroup struct {
	MessageID string
	Entries   []*model.AssistantEntry
}

// ContentBlocks concatenates every entry's content blocks in arrival
// order, representing the fully assembled turn.
func (g MessageGroup) ContentBlocks() []model.ContentBlock {
	var blocks []model.ContentBlock
	for _, e := range g.Entries {
		blocks = append(blocks, e.Message.Content...)
	}
	return blocks
}

// Usage sums token accounting across every chunk in the group, since
// only the final chunk typically carries the authoritative usage
// figures but earlier profiles sometimes repeat partial counts.
func (g MessageGroup) Usage() model.Usage {
	var u model.Usage
	for _, e := range g.Entries {
		u.InputTokens += e.Message.Usage.InputTokens
		u.OutputTokens += e.Message.Usage.OutputTokens
		u.CacheCreationInputTokens += e.Message.Usage.CacheCreationInputTokens
		u.CacheReadInputTokens += e.Message.Usage.CacheReadInputTokens
	}
	return u
}

// Model returns the model name recorded against the group's chunks,
// taking the first non-empty one seen (streaming chunks of the same
// turn always agree on model).
func (g MessageGroup) Model() string {
	for _, e := range g.Entries {
		if e.Message.Model != "" {
			return e.Message.Model
		}
	}
	return ""
}

// GroupStreamingMessages collates a branch's assistant entries into
// MessageGroups keyed by message.id, preserving first-seen order. An
// assistant entry with no message.id forms a singleton group keyed by
// its own UUID, since pre-"mid" profiles never split turns across lines.
func GroupStreamingMessages(b Branch) []MessageGroup {
	var order []string
	groups := map[string]*MessageGroup{}
	for _, e := range b.Entries {
		ae, ok := e.(*model.AssistantEntry)
		if !ok {
			continue
		}
		key := ae.Message.ID
		if key == "" {
			key = ae.Common().UUID
		}
		g, ok := groups[key]
		if !ok {
			g = &MessageGroup{MessageID: key}
			groups[key] = g
			order = append(order, key)
		}
		g.Entries = append(g.Entries, ae)
	}
	out := make([]MessageGroup, 0, len(order))
	for _, k := range order {
		out = append(out, *groups[k])
	}
	return out
}
