package sse

import (
	"bufio"
	"io"
	"strconv"
	"strings"
)

// Write encodes ev onto w in wire format. Empty fields are omitted and
// multi-line data is split across data lines, so Reader yields ev back.
func Write(w io.Writer, ev Event) error {
	bw := bufio.NewWriter(w)
	if ev.ID != "" {
		writeField(bw, "id", ev.ID)
	}
	if ev.Event != "" {
		writeField(bw, "event", ev.Event)
	}
	if ev.Retry > 0 {
		writeField(bw, "retry", strconv.FormatInt(ev.Retry.Milliseconds(), 10))
	}
	for _, line := range strings.Split(ev.Data, "\n") {
		writeField(bw, "data", line)
	}
	bw.WriteByte('\n')
	return bw.Flush()
}

// WriteComment writes a comment line, which readers skip. Useful as a
// transport-level keep-alive.
func WriteComment(w io.Writer, text string) error {
	_, err := io.WriteString(w, ": "+strings.ReplaceAll(text, "\n", " ")+"\n\n")
	return err
}

func writeField(bw *bufio.Writer, name, value string) {
	bw.WriteString(name)
	bw.WriteString(": ")
	bw.WriteString(strings.TrimSuffix(value, "\r"))
	bw.WriteByte('\n')
}
