package export

import (
	"encoding/json"
	"io"

	"github.com/jkindrix/claude-snatch/internal/model"
	"github.com/jkindrix/claude-snatch/internal/reconstruct"
)

type JSON struct{}

func (JSON) Name() string { return "json" }

type jsonEntryView struct {
	BranchID     string          `json:"branch_id"`
	RelationType string          `json:"relation_type"`
	Entry        json.RawMessage `json:"entry"`
}

// Export emits every selected branch's entries as a single JSON array
// of {branch_id, relation_type, entry}. With Options.Lossless, entry
// is the full known-plus-unknown-field re-encoding from internal/model;
// without it, entries are still fully re-encoded (this format has no
// lossy variant — CSV/XML are the projection formats instead).
func (JSON) Export(w io.Writer, conv *reconstruct.Conversation, opts Options) error {
	var views []jsonEntryView
	for _, branch := range branchesFor(conv, opts) {
		for _, e := range branch.Entries {
			raw, err := model.EncodeEntry(e)
			if err != nil {
				return err
			}
			views = append(views, jsonEntryView{
				BranchID:     branch.ID,
				RelationType: string(branch.RelationType),
				Entry:        raw,
			})
		}
	}
	enc := json.NewEncoder(w)
	if opts.Pretty {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(views)
}
