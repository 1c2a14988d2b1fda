// Package workspace confines filesystem paths to a single directory tree.
//
// A Guard is built once for a workspace root and never changes. Every
// caller-supplied path goes through Resolve, which:
//   - treats "" as the workspace root
//   - joins relative paths to the root, checks absolute paths as given
//   - resolves ".", ".." and symbolic links, including dangling links and
//     paths that do not exist yet (deepest existing ancestor + remainder)
//   - compares whole path segments, so /ws-evil is never inside /ws
//
// Paths that resolve outside the root fail with *fserr.SecurityViolation.
// Revalidate repeats the check right before a syscall, and MkdirAll creates
// parents one checked segment at a time.
//
// Example Usage:
//
//	guard, err := workspace.NewGuard("/srv/agent")
//	p, err := guard.Resolve("notes/todo.txt")
//	os.ReadFile(p.Abs())
package workspace
