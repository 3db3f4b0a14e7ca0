package export

import (
	"github.com/jkindrix/claude-snatch/internal/model"
	"github.com/jkindrix/claude-snatch/internal/redact"
)

// redactBlocks applies opts.Redact if set, otherwise returns blocks
// unchanged. Exporters never mutate the source conversation; this
// always returns a fresh slice when redaction is applied.
func redactBlocks(blocks []model.ContentBlock, opts Options) []model.ContentBlock {
	if opts.Redact == nil {
		return blocks
	}
	return redact.Apply(blocks, *opts.Redact)
}
