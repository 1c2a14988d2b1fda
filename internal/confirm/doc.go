/*
Package confirm gates mutating filesystem operations behind an approval step.

A Gate is configured once with an auto-confirm flag and an Approver:

	auto-confirm  per-call confirm  result
	true          any               approved, no prompt
	false         false             approved, no prompt
	false         true              Approver decides

Denial is reported as an error matching fserr.ErrDenied. Approver failures
and a missing Approver both deny.

Approvers:
  - AllowAll, DenyAll: fixed policies for non-interactive callers
  - Prompter: asks on a terminal, with y/n/always answers
  - ApproverFunc: adapts a plain function
*/
package confirm
