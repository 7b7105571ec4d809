package transport

import (
	"bufio"
	"io"
	"strings"
)

// sseReader yields one reassembled event payload at a time from a
// text/event-stream body. Payload fragments arrive as "data: " lines; a blank
// line terminates the event. Fragments are joined with "\n" so the result is
// byte-identical to the equivalent single-shot JSON body.
type sseReader struct {
	scanner *bufio.Scanner
}

func newSSEReader(r io.Reader) *sseReader {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	return &sseReader{scanner: sc}
}

// Next returns the next event's concatenated data payload.
// io.EOF signals the end of the stream with no buffered event remaining.
func (r *sseReader) Next() (string, error) {
	var data []string
	for r.scanner.Scan() {
		line := strings.TrimRight(r.scanner.Text(), "\r")
		switch {
		case strings.HasPrefix(line, "data:"):
			data = append(data, strings.TrimPrefix(strings.TrimPrefix(line, "data:"), " "))
		case line == "" && len(data) > 0:
			return strings.Join(data, "\n"), nil
		}
		// Other fields (event:, id:, retry:, comments) are ignored.
	}
	if err := r.scanner.Err(); err != nil {
		return "", err
	}
	// Stream ended: flush any remaining buffered data lines.
	if len(data) > 0 {
		return strings.Join(data, "\n"), nil
	}
	return "", io.EOF
}
