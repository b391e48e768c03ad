package editor

import (
	"strings"

	"github.com/buildflow/buildflow/markup"
)

// Streamer accumulates a document arriving in chunks and produces a tagged
// snapshot after each growth step, so the preview can render progressively
// while generation is still running.
//
// Only random-mode tagging is safe on a truncated document: sequential
// identifiers would shift as earlier elements complete. Snapshots are
// throwaway renders; the final document is tagged once more from scratch.
type Streamer struct {
	buf strings.Builder
}

// NewStreamer creates an empty stream accumulator.
func NewStreamer() *Streamer {
	return &Streamer{}
}

// Append adds one chunk and returns a tagged snapshot of everything
// accumulated so far. The snapshot may end mid-tag; the tagger tolerates
// that and tags what is complete.
func (st *Streamer) Append(chunk string) string {
	st.buf.WriteString(chunk)
	return markup.TagRandom(st.buf.String())
}

// Len reports the accumulated byte count.
func (st *Streamer) Len() int { return st.buf.Len() }

// Final sanitizes and tags the completed document. Sanitization runs only
// here, not per chunk: a truncated document can cut an element in half and
// a sanitizer pass would drop the halves.
func (st *Streamer) Final() string {
	return markup.TagRandom(Sanitize(st.buf.String()))
}
