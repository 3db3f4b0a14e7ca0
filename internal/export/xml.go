package export

import (
	"encoding/xml"
	"io"

	"github.com/jkindrix/claude-snatch/internal/model"
	"github.com/jkindrix/claude-snatch/internal/reconstruct"
)

// XMLExport is a lossy projection format, like CSV. No third-party XML
// encoder is used for the same reason CSV doesn't use one: the
// standard library's struct-tag encoding covers this format's needs
// and no example repo reaches for a non-stdlib XML encoder.
type XMLExport struct{}

func (XMLExport) Name() string { return "xml" }

type xmlConversation struct {
	XMLName   xml.Name      `xml:"conversation"`
	SessionID string        `xml:"session_id,attr"`
	Branches  []xmlBranch   `xml:"branch"`
}

type xmlBranch struct {
	ID       string     `xml:"id,attr"`
	Relation string     `xml:"relation,attr"`
	Messages []xmlMsg   `xml:"message"`
}

type xmlMsg struct {
	UUID      string `xml:"uuid,attr"`
	Role      string `xml:"role,attr"`
	Timestamp string `xml:"timestamp,attr"`
	Text      string `xml:",cdata"`
}

func (XMLExport) Export(w io.Writer, conv *reconstruct.Conversation, opts Options) error {
	doc := xmlConversation{SessionID: conv.SessionID}
	for _, branch := range branchesFor(conv, opts) {
		xb := xmlBranch{ID: branch.ID, Relation: string(branch.RelationType)}
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
			text := renderBlocks(blocks)
			if text == "" {
				continue
			}
			xb.Messages = append(xb.Messages, xmlMsg{
				UUID:      e.Common().UUID,
				Role:      role,
				Timestamp: e.Common().Timestamp.UTC().Format("2006-01-02T15:04:05.000Z"),
				Text:      text,
			})
		}
		doc.Branches = append(doc.Branches, xb)
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}
	return enc.Encode(doc)
}
