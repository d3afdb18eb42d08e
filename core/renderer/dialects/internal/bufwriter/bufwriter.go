// Package bufwriter is the output buffer shared by the dialect renderers.
package bufwriter

import (
	"fmt"
	"strings"
)

// Writer accumulates rendered SQL.
type Writer struct {
	b strings.Builder
}

// WriteLine writes s followed by a newline.
func (w *Writer) WriteLine(s string) {
	w.b.WriteString(s)
	w.b.WriteByte('\n')
}

// WriteLinef formats according to format and writes the result followed by a newline.
func (w *Writer) WriteLinef(format string, args ...any) {
	w.WriteLine(fmt.Sprintf(format, args...))
}

// String returns the accumulated output.
func (w *Writer) String() string {
	return w.b.String()
}

// Reset clears the accumulated output.
func (w *Writer) Reset() {
	w.b.Reset()
}
