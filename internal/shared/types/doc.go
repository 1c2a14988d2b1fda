// Package types provides the operation vocabulary shared by the workspace
// guard, the confirmation gate, the audit ledger and the filesystem client.
//
// Core Types:
//   - Operation: kind of filesystem action (read, write, delete, copy, ...)
//
// Example Usage:
//
//	if op.Mutating() {
//	    decision, err := gate.Authorize(ctx, req, confirm)
//	}
package types
