package export

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jkindrix/claude-snatch/internal/model"
)

// renderBlock renders one content block to a human-readable string,
// the shared rendering core for the Markdown and plain-text exporters.
func renderBlock(b model.ContentBlock) string {
	switch v := b.(type) {
	case model.TextBlock:
		return v.Text
	case model.ThinkingBlock:
		if v.Thinking == "" {
			return ""
		}
		return "[Thinking]\n" + v.Thinking + "\n[/Thinking]"
	case model.ToolUseBlock:
		return formatToolUse(v)
	case model.ToolResultBlock:
		return renderToolResult(v)
	case model.ImageBlock:
		return "[Image]"
	default:
		return fmt.Sprintf("[%s]", b.BlockType())
	}
}

func renderToolResult(b model.ToolResultBlock) string {
	text := b.Content.Text
	if text == "" {
		var parts []string
		for _, sub := range b.Content.Blocks {
			if tb, ok := sub.(model.TextBlock); ok {
				parts = append(parts, tb.Text)
			}
		}
		text = strings.Join(parts, "\n")
	}
	if b.IsError.Bool() {
		return "[Tool Error]\n" + text
	}
	return text
}

var todoIcons = map[string]string{
	"completed":   "✓",
	"in_progress": "→",
	"pending":     "○",
}

// formatToolUse renders a tool_use block as a short bracketed summary,
// mirroring the idiom of every session viewer in this space: most
// tool calls render as "[Tool: arg]"; a handful with established
// conventions (TodoWrite, AskUserQuestion, Bash) get a richer form.
func formatToolUse(b model.ToolUseBlock) string {
	input := b.Input
	switch b.Name {
	case "AskUserQuestion":
		return formatAskUserQuestion(input)
	case "TodoWrite":
		return formatTodoWrite(input)
	case "Read":
		return fmt.Sprintf("[Read: %s]", jstrField(input, "file_path"))
	case "Glob":
		return fmt.Sprintf("[Glob: %s in %s]", jstrField(input, "pattern"), orDefault(jstrField(input, "path"), "."))
	case "Grep":
		return fmt.Sprintf("[Grep: %s]", jstrField(input, "pattern"))
	case "Edit":
		return fmt.Sprintf("[Edit: %s]", jstrField(input, "file_path"))
	case "Write", "NotebookEdit":
		return fmt.Sprintf("[Write: %s]", jstrField(input, "file_path"))
	case "Bash":
		desc := jstrField(input, "description")
		cmd := jstrField(input, "command")
		if desc != "" {
			return fmt.Sprintf("[Bash: %s]\n$ %s", desc, cmd)
		}
		return fmt.Sprintf("[Bash]\n$ %s", cmd)
	case "Task":
		return fmt.Sprintf("[Task: %s (%s)]", jstrField(input, "description"), jstrField(input, "subagent_type"))
	case "Skill":
		if b.SkillName != "" {
			return fmt.Sprintf("[Skill: %s]", b.SkillName)
		}
		return fmt.Sprintf("[Skill: %s]", jstrField(input, "skill"))
	default:
		return fmt.Sprintf("[Tool: %s]", b.Name)
	}
}

func formatAskUserQuestion(input json.RawMessage) string {
	var v struct {
		Questions []struct {
			Question string `json:"question"`
			Options  []struct {
				Label       string `json:"label"`
				Description string `json:"description"`
			} `json:"options"`
		} `json:"questions"`
	}
	if err := json.Unmarshal(input, &v); err != nil {
		return "[Question]"
	}
	lines := []string{"[Question]"}
	for _, q := range v.Questions {
		lines = append(lines, "  "+q.Question)
		for _, opt := range q.Options {
			lines = append(lines, fmt.Sprintf("    - %s: %s", opt.Label, opt.Description))
		}
	}
	return strings.Join(lines, "\n")
}

func formatTodoWrite(input json.RawMessage) string {
	var v struct {
		Todos []struct {
			Status  string `json:"status"`
			Content string `json:"content"`
		} `json:"todos"`
	}
	if err := json.Unmarshal(input, &v); err != nil {
		return "[Todo List]"
	}
	lines := []string{"[Todo List]"}
	for _, t := range v.Todos {
		icon := todoIcons[t.Status]
		if icon == "" {
			icon = "○"
		}
		lines = append(lines, fmt.Sprintf("  %s %s", icon, t.Content))
	}
	return strings.Join(lines, "\n")
}

func jstrField(raw json.RawMessage, key string) string {
	if len(raw) == 0 {
		return ""
	}
	var m map[string]interface{}
	if err := json.Unmarshal(raw, &m); err != nil {
		return ""
	}
	if s, ok := m[key].(string); ok {
		return s
	}
	return ""
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
