package exec

import (
	"strings"
	"sync"
)

// lineBuffer splits a chunked byte stream into complete lines. Partial
// trailing data is held until the next chunk or Flush.
type lineBuffer struct {
	mu  sync.Mutex
	buf strings.Builder
}

// Feed appends a chunk and returns the complete lines it closed.
func (b *lineBuffer) Feed(p []byte) []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.buf.Write(p)
	data := b.buf.String()
	idx := strings.LastIndexByte(data, '\n')
	if idx < 0 {
		return nil
	}
	b.buf.Reset()
	b.buf.WriteString(data[idx+1:])
	return splitLines(data[:idx])
}

// Flush returns any buffered partial line.
func (b *lineBuffer) Flush() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.buf.Len() == 0 {
		return nil
	}
	rest := b.buf.String()
	b.buf.Reset()
	return splitLines(rest)
}

func splitLines(s string) []string {
	lines := strings.Split(s, "\n")
	out := lines[:0]
	for _, line := range lines {
		out = append(out, strings.TrimSuffix(line, "\r"))
	}
	return out
}
