package chat

import (
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"

	json "github.com/goccy/go-json"

	"github.com/thebtf/medialens/pkg/models"
)

// maxInlineSummaries is how many list results are summarized inline
// before truncating to an "N more" suffix.
const maxInlineSummaries = 5

// Frame is one newline-delimited JSON chunk of the chat stream. Every
// stream ends with exactly one {"chunk":"","done":true} frame.
type Frame struct {
	Chunk  string               `json:"chunk"`
	Tool   string               `json:"tool,omitempty"`
	Count  *int64               `json:"count,omitempty"`
	Images []models.MediaRecord `json:"images,omitempty"`
	Done   bool                 `json:"done,omitempty"`
	Error  string               `json:"error,omitempty"`
}

// StreamEncoder serializes resolution output incrementally. Writes after
// a client disconnect fail silently; the stream is still terminated
// exactly once.
type StreamEncoder struct {
	w       io.Writer
	flusher http.Flusher
	done    bool
	dead    bool
}

// NewStreamEncoder wraps a response writer. Flushing is best-effort:
// writers without http.Flusher (buffers in tests) are fine.
func NewStreamEncoder(w io.Writer) *StreamEncoder {
	enc := &StreamEncoder{w: w}
	if f, ok := w.(http.Flusher); ok {
		enc.flusher = f
	}
	return enc
}

// writeFrame marshals and flushes one frame. A failed write marks the
// encoder dead and drops all subsequent frames.
func (e *StreamEncoder) writeFrame(f Frame) {
	if e.dead {
		return
	}
	data, err := json.Marshal(f)
	if err != nil {
		e.dead = true
		return
	}
	if _, err := e.w.Write(append(data, '\n')); err != nil {
		e.dead = true
		return
	}
	if e.flusher != nil {
		e.flusher.Flush()
	}
}

// WriteChunk emits a plain text frame.
func (e *StreamEncoder) WriteChunk(text string) {
	e.writeFrame(Frame{Chunk: text})
}

// WriteError emits an {error} frame and terminates the stream.
func (e *StreamEncoder) WriteError(msg string) {
	if e.done {
		return
	}
	e.writeFrame(Frame{Error: msg})
	e.Close()
}

// Close emits the terminal done frame. Safe to call more than once;
// only the first call writes.
func (e *StreamEncoder) Close() {
	if e.done {
		return
	}
	e.done = true
	e.writeFrame(Frame{Chunk: "", Done: true})
}

// Encode renders a resolution by kind and terminates the stream. The
// intro sentence is emitted before the full payload so callers can
// render progressively.
func (e *StreamEncoder) Encode(res *Resolution) {
	switch res.Kind {
	case KindCount:
		e.encodeCount(res)
	case KindList:
		e.encodeList(res)
	case KindBreakdown:
		e.encodeBreakdown(res)
	default:
		e.writeFrame(Frame{Chunk: res.Text, Tool: res.Tool})
	}
	e.Close()
}

func (e *StreamEncoder) encodeCount(res *Resolution) {
	count := res.Count
	e.writeFrame(Frame{
		Chunk: fmt.Sprintf("Found %d %s.", count, res.Label),
		Tool:  res.Tool,
		Count: &count,
	})
}

func (e *StreamEncoder) encodeList(res *Resolution) {
	count := int64(len(res.Records))
	e.writeFrame(Frame{
		Chunk: fmt.Sprintf("Found %d matching images.", count),
		Tool:  res.Tool,
		Count: &count,
	})
	if count == 0 {
		return
	}

	var b strings.Builder
	shown := min(len(res.Records), maxInlineSummaries)
	for _, rec := range res.Records[:shown] {
		b.WriteString(summarizeRecord(&rec))
		b.WriteByte('\n')
	}
	if remaining := len(res.Records) - shown; remaining > 0 {
		fmt.Fprintf(&b, "...and %d more\n", remaining)
	}

	e.writeFrame(Frame{
		Chunk:  b.String(),
		Images: res.Records,
	})
}

func (e *StreamEncoder) encodeBreakdown(res *Resolution) {
	c := res.Counts
	var b strings.Builder

	b.WriteString("Image inventory for this site:\n\n")
	b.WriteString("Alt text:\n")
	fmt.Fprintf(&b, "- total images: %d\n", c.Images)
	fmt.Fprintf(&b, "- missing alt: %d\n", c.Empty)
	fmt.Fprintf(&b, "- decorative: %d\n", c.Decorative)
	fmt.Fprintf(&b, "- with alt text: %d\n", c.Filled)

	if len(c.ByOrientation) > 0 {
		b.WriteString("\nOrientation:\n")
		writeSortedCounts(&b, c.ByOrientation)
	}
	if len(c.ByType) > 0 {
		b.WriteString("\nTypes:\n")
		writeSortedCounts(&b, c.ByType)
	}

	e.writeFrame(Frame{Chunk: b.String(), Tool: res.Tool})
}

// writeSortedCounts renders a tally map with deterministic key order.
func writeSortedCounts(b *strings.Builder, counts map[string]int64) {
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(b, "- %s: %d\n", k, counts[k])
	}
}

// summarizeRecord renders one inline list entry.
func summarizeRecord(rec *models.MediaRecord) string {
	switch {
	case rec.MissingAlt():
		return fmt.Sprintf("- %s (no alt) on %s", rec.URL, rec.PageURL)
	case rec.Decorative():
		return fmt.Sprintf("- %s (decorative) on %s", rec.URL, rec.PageURL)
	default:
		return fmt.Sprintf("- %s (alt: %q) on %s", rec.URL, rec.AltText(), rec.PageURL)
	}
}
