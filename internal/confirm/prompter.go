package confirm

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"golang.org/x/term"

	"github.com/GriffinCanCode/AgentOS/tinyfs/internal/shared/types"
)

// Prompter is an interactive Approver that asks on out and reads the answer
// from in. "y"/"yes" approves once, "a"/"always" approves this and every
// later request for the same operation, anything else denies. End of input
// denies.
type Prompter struct {
	in  *bufio.Reader
	out io.Writer

	mu     sync.Mutex
	always map[types.Operation]bool
}

// NewPrompter creates a prompter over the given streams
func NewPrompter(in io.Reader, out io.Writer) *Prompter {
	return &Prompter{
		in:     bufio.NewReader(in),
		out:    out,
		always: make(map[types.Operation]bool),
	}
}

// IsInteractive reports whether f is a terminal
func IsInteractive(f *os.File) bool {
	return f != nil && term.IsTerminal(int(f.Fd()))
}

// Approve implements Approver. Prompts are serialized so concurrent requests
// never interleave on the terminal.
func (p *Prompter) Approve(ctx context.Context, req Request) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.always[req.Op] {
		return true, nil
	}
	if err := ctx.Err(); err != nil {
		return false, err
	}

	_, _ = fmt.Fprint(p.out, buildPrompt(req))

	line, err := p.in.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return false, err
	}
	if err != nil && line == "" {
		_, _ = fmt.Fprintln(p.out)
		return false, nil
	}

	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true, nil
	case "a", "always":
		p.always[req.Op] = true
		return true, nil
	default:
		return false, nil
	}
}

func buildPrompt(req Request) string {
	var b strings.Builder
	b.WriteString("Confirm ")
	b.WriteString(req.Summary())
	b.WriteString("\n")
	if req.Detail != "" {
		for _, line := range strings.Split(strings.TrimRight(req.Detail, "\n"), "\n") {
			b.WriteString("  ")
			b.WriteString(line)
			b.WriteString("\n")
		}
	}
	b.WriteString("Allow? [y/n/always]: ")
	return b.String()
}
