package main

import (
	"github.com/spf13/cobra"

	"github.com/GriffinCanCode/AgentOS/tinyfs/internal/infrastructure/config"
)

// newRootCmd builds the command tree over a
func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "tinyfs",
		Short: "Workspace-confined filesystem access for agents",
		Long: `tinyfs performs filesystem operations on behalf of an automated agent
without letting it leave a workspace directory or change anything
unconfirmed.

Every path is resolved against the workspace root; anything that resolves
outside of it, through "..", absolute paths or symlinks, is refused.
Mutating commands ask for confirmation unless -y is given or the approval
mode is "allow".

File Commands:
  read, write, delete, copy, move
  list, mkdir, exists, info, find

Session Commands:
  history      Show the operations recorded by this process
  shell        Run commands interactively against one workspace
  serve        Expose the workspace over HTTP

Exit Codes:
  0 success, 1 error or negative answer, 2 security violation,
  3 operation cancelled, 4 other tinyfs error, 5 unexpected failure`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
	}
	root.SetIn(a.stdin)
	root.SetOut(a.stdout)
	root.SetErr(a.stderr)

	flags := root.PersistentFlags()
	flags.StringVarP(&a.workspace, "workspace", "w", ".", "Workspace directory")
	flags.BoolVarP(&a.autoConfirm, "auto-confirm", "y", false, "Confirm all operations without prompting")
	flags.BoolVarP(&a.verbose, "verbose", "v", false, "Enable debug logging")
	flags.StringVar(&a.cfgFile, "config", "", "TOML config file (default: $"+config.FileEnv+")")
	flags.StringVar(&a.approval, "approval", config.ApprovalPrompt, "How confirmations are answered: prompt, allow or deny")

	root.AddCommand(
		newReadCmd(a),
		newWriteCmd(a),
		newListCmd(a),
		newMkdirCmd(a),
		newDeleteCmd(a),
		newMoveCmd(a),
		newCopyCmd(a),
		newExistsCmd(a),
		newInfoCmd(a),
		newFindCmd(a),
		newHistoryCmd(a),
		newServeCmd(a),
		newShellCmd(a),
	)
	return root
}
