package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/google/shlex"
	"github.com/spf13/cobra"
)

func newShellCmd(a *app) *cobra.Command {
	var echoHistory bool

	cmd := &cobra.Command{
		Use:   "shell",
		Short: "Run tinyfs commands interactively",
		Long: `Read commands from stdin, one per line, and run them against a single
workspace. Lines use shell quoting and may start with "fs" as in
"fs read notes.md". Confirmations are asked on the same input. Type
"exit" or "quit" to leave.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := a.open(); err != nil {
				return err
			}
			return a.shell(cmd.Context(), echoHistory)
		},
	}
	cmd.Flags().BoolVar(&echoHistory, "trace", false, "Print the history record of each command after it runs")
	return cmd
}

func (a *app) shell(ctx context.Context, trace bool) error {
	for ctx.Err() == nil {
		if a.interactive {
			_, _ = fmt.Fprint(a.stderr, "tinyfs> ")
		}
		line, err := a.stdin.ReadString('\n')
		if line == "" && err != nil {
			if a.interactive {
				_, _ = fmt.Fprintln(a.stderr)
			}
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}

		words, err := shlex.Split(strings.TrimSpace(line))
		if err != nil {
			_, _ = fmt.Fprintf(a.stderr, "Error: %v\n", err)
			continue
		}
		if len(words) > 0 && words[0] == "fs" {
			words = words[1:]
		}
		if len(words) == 0 {
			continue
		}

		switch words[0] {
		case "exit", "quit":
			return nil
		case "shell", "serve":
			_, _ = fmt.Fprintf(a.stderr, "Error: %s is not available inside the shell\n", words[0])
			continue
		}

		before := a.lastSeq()
		if err := a.runLine(ctx, words); err != nil {
			a.report(err)
		}
		if trace {
			for _, r := range a.client.History() {
				if r.Seq > before {
					_, _ = fmt.Fprintln(a.stderr, historyLine(r))
				}
			}
		}
	}
	return nil
}

func (a *app) lastSeq() uint64 {
	history := a.client.History()
	if len(history) == 0 {
		return 0
	}
	return history[len(history)-1].Seq
}

// runLine executes one shell line through a fresh command tree sharing a
func (a *app) runLine(ctx context.Context, words []string) error {
	root := newRootCmd(a)
	root.SetArgs(words)
	return root.ExecuteContext(ctx)
}
