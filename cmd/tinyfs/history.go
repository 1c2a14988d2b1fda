package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/GriffinCanCode/AgentOS/tinyfs/internal/audit"
)

func newHistoryCmd(a *app) *cobra.Command {
	var (
		criteria audit.Criteria
		format   string
		output   string
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recorded operations",
		Long: `Show the operations attempted by this process, oldest first. Every
attempt is recorded, including denied and failed ones. History lives in
memory, so it is most useful inside "tinyfs shell".

With --output the records are written to a file instead; ".gz" and ".zst"
suffixes compress it.

Examples:
  history --outcome denied
  history --operation write --operation delete --since 10m
  history --output audit.yaml.gz`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := a.open()
			if err != nil {
				return err
			}
			filters, err := criteria.Filters(time.Now())
			if err != nil {
				return err
			}
			records := criteria.Trim(client.History(filters...))

			f, err := audit.ParseFormat(format)
			if err != nil {
				return err
			}
			if output == "" {
				return audit.Export(a.stdout, records, f)
			}

			if !cmd.Flags().Changed("format") {
				f = audit.FormatForPath(output)
			}
			if err := audit.WriteFile(output, records, f); err != nil {
				return err
			}
			a.printf("Wrote %d records to %s\n", len(records), output)
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringSliceVar(&criteria.Operations, "operation", nil, "Only these operations (repeatable)")
	flags.StringSliceVar(&criteria.Outcomes, "outcome", nil, "Only these outcomes: success, denied, failed")
	flags.StringVar(&criteria.Since, "since", "", "Only records after an RFC 3339 time or within a duration such as 15m")
	flags.StringVar(&criteria.PathContains, "path", "", "Only records with a path containing this text")
	flags.IntVar(&criteria.Last, "last", 0, "Only the newest N records")
	flags.StringVar(&format, "format", string(audit.FormatJSON), "Output format: json or yaml")
	flags.StringVarP(&output, "output", "o", "", "Write to a host file instead of stdout")
	return cmd
}

// historyLine is the one-line form used by the shell after each command
func historyLine(r audit.Record) string {
	line := fmt.Sprintf("#%d %s %s %v", r.Seq, r.Outcome, r.Op, r.Paths)
	if r.ErrorKind != "" {
		line += " (" + r.ErrorKind + ")"
	}
	return line
}
