package export

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/jkindrix/claude-snatch/internal/model"
	"github.com/jkindrix/claude-snatch/internal/reconstruct"
)

// CSV projects each message to a flat row. This is a lossy projection
// format (structured content blocks are flattened to rendered text),
// unlike JSON/JSONL which are the lossless round-trip formats.
//
// No third-party CSV library is used: the standard library's writer
// already implements RFC-4180 quoting, which is the entirety of what
// this format needs, and no example repo in this codebase's lineage
// pulls in a CSV dependency for the same reason.
type CSV struct{}

func (CSV) Name() string { return "csv" }

var csvHeader = []string{"branch_id", "relation_type", "uuid", "role", "timestamp", "text", "has_tool_use"}

func (CSV) Export(w io.Writer, conv *reconstruct.Conversation, opts Options) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
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
			if opts.Redact != nil {
				blocks = redactBlocks(blocks, opts)
			}
			hasToolUse := "false"
			for _, b := range blocks {
				if b.BlockType() == "tool_use" {
					hasToolUse = "true"
					break
				}
			}
			row := []string{
				branch.ID,
				string(branch.RelationType),
				e.Common().UUID,
				role,
				e.Common().Timestamp.UTC().Format("2006-01-02T15:04:05.000Z"),
				renderBlocks(blocks),
				strconv.FormatBool(hasToolUse == "true"),
			}
			if err := cw.Write(row); err != nil {
				return err
			}
		}
	}
	cw.Flush()
	return cw.Error()
}
