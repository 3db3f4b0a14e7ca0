package export

import (
	"bufio"
	"io"

	"github.com/jkindrix/claude-snatch/internal/model"
	"github.com/jkindrix/claude-snatch/internal/reconstruct"
)

type JSONL struct{}

func (JSONL) Name() string { return "jsonl" }

// Export replays each entry's original captured line bytes when
// Options.Lossless is set (and redaction is disabled), giving a
// bit-exact reproduction of the source file's lines for the branches
// selected. Otherwise it re-serializes each entry through
// model.EncodeEntry.
func (JSONL) Export(w io.Writer, conv *reconstruct.Conversation, opts Options) error {
	bw := bufio.NewWriter(w)
	for _, branch := range branchesFor(conv, opts) {
		for _, e := range branch.Entries {
			var line []byte
			if opts.Lossless && opts.Redact == nil {
				if raw := e.Common().RawLine(); len(raw) > 0 {
					line = raw
				}
			}
			if line == nil {
				enc, err := model.EncodeEntry(e)
				if err != nil {
					return err
				}
				line = enc
			}
			if _, err := bw.Write(line); err != nil {
				return err
			}
			if err := bw.WriteByte('\n'); err != nil {
				return err
			}
		}
	}
	return bw.Flush()
}
