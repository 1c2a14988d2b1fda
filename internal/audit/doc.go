// Package audit keeps the bounded history of attempted filesystem
// operations.
//
// Every attempt is appended once with its outcome (success, denied or
// failed). The ledger holds at most its capacity; the oldest record is
// evicted on insert when full, never the new one. Snapshots can be
// exported as JSON or YAML, optionally compressed.
package audit
