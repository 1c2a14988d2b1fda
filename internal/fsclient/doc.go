/*
Package fsclient is the public surface of tinyfs: filesystem operations
confined to one workspace directory.

Every call follows the same path:

	resolve paths (workspace.Guard)
	  -> confirmation gate, mutating operations only (confirm.Gate)
	  -> revalidate, then the os primitive
	  -> append the outcome to the history (audit.Ledger)

Nothing outside the workspace is ever handed to the os package. Every
attempt, successful or not, is recorded before the call returns.

Example Usage:

	client, err := fsclient.New(fsclient.Config{
		Root:     "/srv/agent",
		Approver: confirm.NewPrompter(os.Stdin, os.Stderr),
	})
	if err := client.Write(ctx, "notes/todo.txt", "ship it", true); err != nil {
		if errors.Is(err, fserr.ErrDenied) {
			// declined, nothing changed
		}
	}
*/
package fsclient
