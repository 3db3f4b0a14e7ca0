// Package ingest streams a session log file into model.Entry values,
// detecting its schema profile and reporting malformed or torn lines
// without aborting the whole read.
package ingest

import (
	"context"
	"fmt"
	"io"

	"github.com/jkindrix/claude-snatch/internal/model"
	"github.com/tidwall/gjson"
)

// Mode controls how a malformed line is handled.
type Mode int

const (
	// Lenient skips malformed lines and continues, recording them in
	// Stats. This is the default posture for interactive tools.
	Lenient Mode = iota
	// Strict aborts parsing at the first malformed line.
	Strict
)

// Stats summarizes one parse pass over a file.
type Stats struct {
	LinesTotal     int
	LinesParsed    int
	LinesSkipped   int
	BytesTotal     int64
	BytesTorn      int64
	TornStart      int64
	TornEnd        int64
	HasTorn        bool
	Oversized      int
	DetectedProfile Profile
	Errors         []LineError
}

// LineError records a single line's parse failure with its byte
// offset, so callers can locate and inspect the offending bytes.
type LineError struct {
	LineNumber int
	Offset     int64
	Err        error
}

func (e LineError) Error() string {
	return fmt.Sprintf("line %d (offset %d): %v", e.LineNumber, e.Offset, e.Err)
}

// Result holds every successfully decoded entry plus the pass's Stats.
type Result struct {
	Entries []model.Entry
	Stats   Stats
}

// Parse streams r, decoding each complete line into a model.Entry. In
// Strict mode the first malformed line aborts with that line's error;
// in Lenient mode malformed lines are recorded in Stats and skipped.
// A final non-newline-terminated chunk is never parsed — its range is
// reported via Stats.HasTorn/TornStart/TornEnd regardless of mode.
func Parse(ctx context.Context, r io.Reader, mode Mode, maxLineSize int) (*Result, error) {
	lr := NewLineReader(r, maxLineSize)
	res := &Result{}
	lineNo := 0
	firstVersion := ""
	var seenUUIDs map[string]bool

	for {
		select {
		case <-ctx.Done():
			return res, ctx.Err()
		default:
		}

		line, offset, ok := lr.Next()
		if !ok {
			break
		}
		lineNo++
		res.Stats.LinesTotal++

		if !gjson.ValidBytes(line) {
			res.Stats.LinesSkipped++
			lerr := LineError{LineNumber: lineNo, Offset: offset, Err: fmt.Errorf("invalid JSON")}
			res.Stats.Errors = append(res.Stats.Errors, lerr)
			if mode == Strict {
				return res, lerr
			}
			continue
		}

		if firstVersion == "" {
			if v := gjson.GetBytes(line, "version").Str; v != "" {
				firstVersion = v
			}
		}

		entry, err := model.DecodeEntry(line)
		if err != nil {
			res.Stats.LinesSkipped++
			lerr := LineError{LineNumber: lineNo, Offset: offset, Err: err}
			res.Stats.Errors = append(res.Stats.Errors, lerr)
			if mode == Strict {
				return res, lerr
			}
			continue
		}

		if uuid := entry.Common().UUID; uuid != "" {
			if seenUUIDs == nil {
				seenUUIDs = make(map[string]bool)
			}
			if seenUUIDs[uuid] {
				res.Stats.LinesSkipped++
				lerr := LineError{LineNumber: lineNo, Offset: offset,
					Err: &model.IntegrityError{UUID: uuid, Reason: "duplicate uuid in session file"}}
				res.Stats.Errors = append(res.Stats.Errors, lerr)
				if mode == Strict {
					return res, lerr
				}
				continue // lenient: keep the first occurrence, drop this one
			}
			seenUUIDs[uuid] = true
		}

		res.Entries = append(res.Entries, entry)
		res.Stats.LinesParsed++
	}

	if err := lr.Err(); err != nil {
		return res, fmt.Errorf("ingest: read: %w", err)
	}

	res.Stats.BytesTotal = lr.Offset()
	res.Stats.Oversized = lr.OversizedCount()
	if start, end, torn := lr.TornRange(); torn {
		res.Stats.HasTorn = true
		res.Stats.TornStart = start
		res.Stats.TornEnd = end
		res.Stats.BytesTorn = end - start
	}
	res.Stats.DetectedProfile = DetectProfile(firstVersion)
	return res, nil
}
