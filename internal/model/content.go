package model

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"
)

// ContentBlock is one element of a message's content array. Concrete
// types are TextBlock, ThinkingBlock, ToolUseBlock, ToolResultBlock,
// and ImageBlock.
type ContentBlock interface {
	BlockType() string
}

type TextBlock struct {
	Text    string
	Unknown *UnknownFields
}

func (TextBlock) BlockType() string { return "text" }

type ThinkingBlock struct {
	Thinking  string
	Signature string
	Unknown   *UnknownFields
}

func (ThinkingBlock) BlockType() string { return "thinking" }

type ToolUseBlock struct {
	ID        string
	Name      string
	Input     json.RawMessage
	SkillName string
	Unknown   *UnknownFields
}

func (ToolUseBlock) BlockType() string { return "tool_use" }

// ToolResultContent is either a plain string or a list of sub-blocks
// (text/image), matching the content field's own polymorphism.
type ToolResultContent struct {
	Text   string
	Blocks []ContentBlock
}

type ToolResultBlock struct {
	ToolUseID string
	Content   ToolResultContent
	IsError   TriBool
	Unknown   *UnknownFields
}

func (ToolResultBlock) BlockType() string { return "tool_result" }

type ImageBlock struct {
	MediaType string
	Source    json.RawMessage
	Unknown   *UnknownFields
}

func (ImageBlock) BlockType() string { return "image" }

// UnknownBlock preserves a content block of a type this package does
// not model, so re-serialization never silently drops it.
type UnknownBlock struct {
	Type string
	Raw  json.RawMessage
}

func (u UnknownBlock) BlockType() string { return u.Type }

var knownContentKeys = map[string]bool{
	"type": true, "text": true, "thinking": true, "signature": true,
	"id": true, "name": true, "input": true, "tool_use_id": true,
	"content": true, "is_error": true, "source": true,
}

// DecodeContentBlocks parses a message's content field, which may be a
// bare string (treated as a single implicit text block) or an array of
// typed blocks.
func DecodeContentBlocks(raw json.RawMessage) ([]ContentBlock, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	g := gjson.ParseBytes(raw)
	if g.Type == gjson.String {
		return []ContentBlock{TextBlock{Text: g.Str}}, nil
	}
	if !g.IsArray() {
		return nil, nil
	}
	var blocks []ContentBlock
	var decodeErr error
	g.ForEach(func(_, block gjson.Result) bool {
		b, err := decodeOneBlock(block)
		if err != nil {
			decodeErr = err
			return false
		}
		blocks = append(blocks, b)
		return true
	})
	if decodeErr != nil {
		return nil, decodeErr
	}
	return blocks, nil
}

func decodeOneBlock(block gjson.Result) (ContentBlock, error) {
	raw := json.RawMessage(block.Raw)
	unknown, err := CollectUnknown(raw, knownContentKeys)
	if err != nil {
		return nil, fmt.Errorf("content block: %w", err)
	}
	switch block.Get("type").Str {
	case "text":
		return TextBlock{Text: block.Get("text").Str, Unknown: unknown}, nil
	case "thinking":
		return ThinkingBlock{
			Thinking:  block.Get("thinking").Str,
			Signature: block.Get("signature").Str,
			Unknown:   unknown,
		}, nil
	case "tool_use":
		input := block.Get("input")
		tb := ToolUseBlock{
			ID:      block.Get("id").Str,
			Name:    block.Get("name").Str,
			Input:   json.RawMessage(input.Raw),
			Unknown: unknown,
		}
		if tb.Name == "Skill" || tb.Name == "skill" {
			tb.SkillName = input.Get("skill").Str
			if tb.SkillName == "" {
				tb.SkillName = input.Get("name").Str
			}
		}
		return tb, nil
	case "tool_result":
		content := block.Get("content")
		trc := ToolResultContent{}
		if content.Type == gjson.String {
			trc.Text = content.Str
		} else if content.IsArray() {
			content.ForEach(func(_, sub gjson.Result) bool {
				b, err := decodeOneBlock(sub)
				if err == nil {
					trc.Blocks = append(trc.Blocks, b)
				}
				return true
			})
		}
		return ToolResultBlock{
			ToolUseID: block.Get("tool_use_id").Str,
			Content:   trc,
			IsError:   TriBoolFromField(raw, "is_error"),
			Unknown:   unknown,
		}, nil
	case "image":
		return ImageBlock{
			MediaType: block.Get("source.media_type").Str,
			Source:    json.RawMessage(block.Get("source").Raw),
			Unknown:   unknown,
		}, nil
	default:
		return UnknownBlock{Type: block.Get("type").Str, Raw: raw}, nil
	}
}

// ToolResultTextLen returns the total length, in bytes, of all text
// contributed by a tool result's content, whether it is a bare string
// or an array of sub-blocks.
func ToolResultTextLen(c ToolResultContent) int {
	if c.Text != "" {
		return len(c.Text)
	}
	n := 0
	for _, b := range c.Blocks {
		if tb, ok := b.(TextBlock); ok {
			n += len(tb.Text)
		}
	}
	return n
}

// ToolResultText concatenates all text contributed by a tool result's
// content, whether it is a bare string or an array of sub-blocks.
func ToolResultText(c ToolResultContent) string {
	if c.Text != "" {
		return c.Text
	}
	var parts []string
	for _, b := range c.Blocks {
		if tb, ok := b.(TextBlock); ok {
			parts = append(parts, tb.Text)
		}
	}
	return strings.Join(parts, "\n")
}
