package model

import "encoding/json"

// Usage holds token accounting for one assistant turn. Ephemeral
// cache breakdowns are optional: profiles older than "agents" never
// populate them.
type Usage struct {
	InputTokens              int
	OutputTokens             int
	CacheCreationInputTokens int
	CacheReadInputTokens     int
	Ephemeral5mInputTokens   int
	Ephemeral1hInputTokens   int
	ServerToolUse            map[string]int
	ServiceTier              string
	// Unknown preserves usage sub-object keys this package does not
	// model explicitly, so a lossless round trip doesn't silently drop
	// a field a newer profile adds.
	Unknown *UnknownFields
}

func (u Usage) TotalTokens() int {
	return u.InputTokens + u.OutputTokens +
		u.CacheCreationInputTokens + u.CacheReadInputTokens
}

// MarshalJSON emits the same snake_case wire shape decodeUsage reads,
// nesting the ephemeral cache breakdown under cache_creation the way a
// session log does, and appending any preserved unknown keys.
func (u Usage) MarshalJSON() ([]byte, error) {
	m := map[string]json.RawMessage{}
	putUsageInt(m, "input_tokens", u.InputTokens)
	putUsageInt(m, "output_tokens", u.OutputTokens)
	putUsageInt(m, "cache_creation_input_tokens", u.CacheCreationInputTokens)
	putUsageInt(m, "cache_read_input_tokens", u.CacheReadInputTokens)
	if u.Ephemeral5mInputTokens != 0 || u.Ephemeral1hInputTokens != 0 {
		cc := map[string]json.RawMessage{}
		putUsageInt(cc, "ephemeral_5m_input_tokens", u.Ephemeral5mInputTokens)
		putUsageInt(cc, "ephemeral_1h_input_tokens", u.Ephemeral1hInputTokens)
		raw, err := json.Marshal(cc)
		if err != nil {
			return nil, err
		}
		m["cache_creation"] = raw
	}
	if len(u.ServerToolUse) > 0 {
		raw, err := json.Marshal(u.ServerToolUse)
		if err != nil {
			return nil, err
		}
		m["server_tool_use"] = raw
	}
	if u.ServiceTier != "" {
		m["service_tier"] = jstr(u.ServiceTier)
	}
	u.Unknown.WriteTo(m)
	return json.Marshal(m)
}

func putUsageInt(m map[string]json.RawMessage, key string, v int) {
	if v == 0 {
		return
	}
	b, _ := json.Marshal(v)
	m[key] = b
}
