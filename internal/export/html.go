package export

import (
	"html/template"
	"io"

	"github.com/jkindrix/claude-snatch/internal/model"
	"github.com/jkindrix/claude-snatch/internal/reconstruct"
)

type HTML struct{}

func (HTML) Name() string { return "html" }

var htmlTemplate = template.Must(template.New("session").Parse(`<!DOCTYPE html>
<html><head><meta charset="utf-8"><title>Session {{.SessionID}}</title>
<style>
body{font-family:-apple-system,Segoe UI,sans-serif;max-width:860px;margin:2rem auto;padding:0 1rem;color:{{.FG}};background:{{.BG}}}
.msg{margin-bottom:1.25rem;padding:.75rem 1rem;border-radius:8px}
.user{background:{{.UserBG}}}
.assistant{background:{{.AssistantBG}}}
.role{font-weight:600;font-size:.8rem;text-transform:uppercase;color:#888;margin-bottom:.25rem}
.ts{font-weight:400;text-transform:none;margin-left:.5rem;color:#999}
pre{white-space:pre-wrap;word-wrap:break-word;margin:0;font-family:inherit}
</style></head><body>
<h1>Session {{.SessionID}}</h1>
{{range .Messages}}<div class="msg {{.Role}}"><div class="role">{{.Role}}{{if .Timestamp}}<span class="ts">{{.Timestamp}}</span>{{end}}</div><pre>{{.Text}}</pre></div>
{{end}}</body></html>`))

type htmlMessage struct {
	Role      string
	Text      string
	Timestamp string
}

func (HTML) Export(w io.Writer, conv *reconstruct.Conversation, opts Options) error {
	var messages []htmlMessage
	for _, branch := range branchesFor(conv, opts) {
		for _, e := range branch.Entries {
			role := ""
			var blocks []model.ContentBlock
			switch v := e.(type) {
			case *model.UserEntry:
				role, blocks = "user", v.Message.Content
			case *model.AssistantEntry:
				role, blocks = "assistant", v.Message.Content
			default:
				continue
			}
			blocks = filterBlocks(blocks, opts)
			if opts.Redact != nil {
				blocks = redactBlocks(blocks, opts)
			}
			text := renderBlocks(blocks)
			if text == "" {
				continue
			}
			m := htmlMessage{Role: role, Text: text}
			if opts.IncludeTimestamps && !e.Common().Timestamp.IsZero() {
				m.Timestamp = e.Common().Timestamp.UTC().Format("2006-01-02T15:04:05Z")
			}
			messages = append(messages, m)
		}
	}
	colors := htmlLightColors
	if opts.Theme == "dark" {
		colors = htmlDarkColors
	}
	return htmlTemplate.Execute(w, struct {
		SessionID string
		Messages  []htmlMessage
		htmlColors
	}{conv.SessionID, messages, colors})
}

type htmlColors struct {
	FG          string
	BG          string
	UserBG      string
	AssistantBG string
}

var htmlLightColors = htmlColors{FG: "#1a1a1a", BG: "#ffffff", UserBG: "#eef2ff", AssistantBG: "#f4f4f5"}
var htmlDarkColors = htmlColors{FG: "#e4e4e7", BG: "#18181b", UserBG: "#1e293b", AssistantBG: "#27272a"}
