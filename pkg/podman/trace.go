package podman

import (
	"fmt"
	"strings"

	"github.com/rimaleon/podman-mcp/pkg/exec"
)

// Trace collects step-by-step diagnostic lines during an operation.
// Entries are append-only; the final string is included verbatim in tool
// responses so a caller can see exactly what ran.
type Trace struct {
	lines []string
}

func NewTrace() *Trace {
	return &Trace{}
}

// Add appends one formatted line.
func (t *Trace) Add(format string, args ...interface{}) {
	t.lines = append(t.lines, fmt.Sprintf(format, args...))
}

// AddSection appends a titled section header. A blank line separates it
// from any preceding entries.
func (t *Trace) AddSection(title string) {
	header := fmt.Sprintf("=== %s ===", title)
	if len(t.lines) > 0 {
		header = "\n" + header
	}
	t.lines = append(t.lines, header)
}

// AddResult appends the outcome of a command under a titled section.
func (t *Trace) AddResult(title string, result exec.Result) {
	t.AddSection(title)
	t.Add("Return Code: %d", result.ExitCode)
	t.Add("Stdout: %s", result.Stdout)
	t.Add("Stderr: %s", result.Stderr)
}

// Lines returns the accumulated entries.
func (t *Trace) Lines() []string {
	return t.lines
}

// String joins the entries with newlines.
func (t *Trace) String() string {
	return strings.Join(t.lines, "\n")
}
