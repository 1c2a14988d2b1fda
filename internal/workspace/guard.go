package workspace

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/GriffinCanCode/AgentOS/tinyfs/internal/shared/fserr"
)

// maxLinkHops bounds symlink expansion of not-yet-existing paths (ELOOP)
const maxLinkHops = 255

// Guard resolves caller-supplied paths against a fixed workspace root
type Guard struct {
	root string
}

// ResolvedPath is the canonical form of a requested path. It can only be
// produced by Guard.Inspect or Guard.Resolve.
type ResolvedPath struct {
	requested string
	abs       string
	rel       string
	inside    bool
	nofollow  bool
}

// Requested returns the path as the caller supplied it
func (p ResolvedPath) Requested() string { return p.requested }

// Abs returns the canonical absolute path
func (p ResolvedPath) Abs() string { return p.abs }

// Rel returns the path relative to the workspace root ("." for the root).
// Empty when the path is outside the workspace.
func (p ResolvedPath) Rel() string { return p.rel }

// Inside reports whether the canonical path lies within the workspace
func (p ResolvedPath) Inside() bool { return p.inside }

// IsRoot reports whether the path is the workspace root itself
func (p ResolvedPath) IsRoot() bool { return p.inside && p.rel == "." }

// Display returns the caller-facing name of the path: the workspace-relative
// form when inside, the requested form otherwise
func (p ResolvedPath) Display() string {
	if p.inside {
		return p.rel
	}
	return p.requested
}

// NewGuard canonicalizes root and returns a guard for it. The root must
// exist and be a directory.
func NewGuard(root string) (*Guard, error) {
	if root == "" {
		return nil, fserr.Validationf("workspace", "", "workspace root is empty")
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fserr.Validationf("workspace", root, "normalize workspace root: %v", err)
	}
	real, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return nil, fserr.FromOS("workspace", root, err)
	}
	info, err := os.Stat(real)
	if err != nil {
		return nil, fserr.FromOS("workspace", root, err)
	}
	if !info.IsDir() {
		return nil, fserr.New(fserr.KindNotADirectory, "workspace", root, nil)
	}
	return &Guard{root: filepath.Clean(real)}, nil
}

// Root returns the canonical workspace root
func (g *Guard) Root() string {
	return g.root
}

// Inspect canonicalizes requested and reports whether it lies inside the
// workspace. It only fails on malformed input or I/O errors during
// canonicalization; containment is reported through ResolvedPath.Inside.
func (g *Guard) Inspect(requested string) (ResolvedPath, error) {
	if strings.IndexByte(requested, 0) >= 0 {
		return ResolvedPath{}, fserr.Validationf("resolve", "", "path contains a NUL byte")
	}

	canonical, err := canonicalize(g.join(requested))
	if err != nil {
		return ResolvedPath{}, fserr.New(fserr.KindValidation, "resolve", requested, stripPath(err))
	}

	rp := ResolvedPath{requested: requested, abs: canonical}
	if rel, ok := within(g.root, canonical); ok {
		rp.inside = true
		rp.rel = rel
	}
	return rp, nil
}

// Resolve canonicalizes requested and fails with *fserr.SecurityViolation
// when the result is outside the workspace
func (g *Guard) Resolve(requested string) (ResolvedPath, error) {
	rp, err := g.Inspect(requested)
	if err != nil {
		return ResolvedPath{}, err
	}
	if !rp.inside {
		return ResolvedPath{}, g.violation(requested)
	}
	return rp, nil
}

// ResolveNoFollow is Resolve for operations that act on a directory entry
// itself (delete, move source): the final segment is not followed, so a
// symlink names the link rather than its target. The fully resolved target
// must still lie inside the workspace.
func (g *Guard) ResolveNoFollow(requested string) (ResolvedPath, error) {
	if _, err := g.Resolve(requested); err != nil {
		return ResolvedPath{}, err
	}

	abs, err := canonicalizeParent(g.join(requested))
	if err != nil {
		return ResolvedPath{}, fserr.New(fserr.KindValidation, "resolve", requested, stripPath(err))
	}
	rel, ok := within(g.root, abs)
	if !ok {
		return ResolvedPath{}, g.violation(requested)
	}
	return ResolvedPath{requested: requested, abs: abs, rel: rel, inside: true, nofollow: true}, nil
}

// Revalidate re-canonicalizes p immediately before it is handed to a
// syscall. It fails if the path now resolves somewhere else, e.g. because a
// component was replaced by a symlink after p was resolved.
func (g *Guard) Revalidate(p ResolvedPath) error {
	if !p.inside {
		return g.violation(p.requested)
	}
	target := p.abs
	if p.nofollow && !p.IsRoot() {
		target = filepath.Dir(p.abs)
	}
	canonical, err := canonicalize(target)
	if err != nil {
		return fserr.New(fserr.KindValidation, "resolve", p.rel, stripPath(err))
	}
	if canonical != target {
		return g.violation(p.requested)
	}
	if _, ok := within(g.root, canonical); !ok {
		return g.violation(p.requested)
	}
	return nil
}

// Contains reports whether the absolute path abs, once canonicalized, lies
// inside the workspace
func (g *Guard) Contains(abs string) bool {
	canonical, err := canonicalize(abs)
	if err != nil {
		return false
	}
	_, ok := within(g.root, canonical)
	return ok
}

// MkdirAll creates the directory p and any missing parents one segment at a
// time. Each segment is checked for containment after it is created or
// found, so an intermediate symlink cannot carry creation outside the
// workspace.
func (g *Guard) MkdirAll(p ResolvedPath, perm fs.FileMode) error {
	if !p.inside {
		return g.violation(p.requested)
	}
	if p.IsRoot() {
		return nil
	}

	cur := g.root
	for _, seg := range strings.Split(p.rel, string(filepath.Separator)) {
		cur = filepath.Join(cur, seg)

		if _, err := os.Lstat(cur); errors.Is(err, fs.ErrNotExist) {
			if err := os.Mkdir(cur, perm); err != nil && !errors.Is(err, fs.ErrExist) {
				return fserr.FromOS("mkdir", g.relOrRequested(cur, p), err)
			}
		} else if err != nil {
			return fserr.FromOS("mkdir", g.relOrRequested(cur, p), err)
		}

		if !g.Contains(cur) {
			return g.violation(p.requested)
		}
		info, err := os.Stat(cur)
		if err != nil {
			return fserr.FromOS("mkdir", g.relOrRequested(cur, p), err)
		}
		if !info.IsDir() {
			return fserr.New(fserr.KindNotADirectory, "mkdir", g.relOrRequested(cur, p), nil)
		}
	}
	return nil
}

// Child joins name (one or more segments) onto the already-resolved
// directory dir without following symlinks. Used when enumerating entries.
func (g *Guard) Child(dir ResolvedPath, name string) ResolvedPath {
	abs := filepath.Join(dir.abs, name)
	rp := ResolvedPath{requested: filepath.Join(dir.Display(), name), abs: abs}
	if rel, ok := within(g.root, abs); ok && dir.inside {
		rp.inside = true
		rp.rel = rel
	}
	return rp
}

// join anchors requested at the root unless it is absolute. The result is
// left uncleaned: "link/.." must be resolved against the link target, not
// removed as text.
func (g *Guard) join(requested string) string {
	if requested == "" {
		return g.root
	}
	if filepath.IsAbs(requested) {
		return requested
	}
	return g.root + string(filepath.Separator) + requested
}

func (g *Guard) violation(requested string) error {
	return &fserr.SecurityViolation{AttemptedPath: requested, WorkspaceRoot: g.root}
}

func (g *Guard) relOrRequested(abs string, p ResolvedPath) string {
	if rel, ok := within(g.root, abs); ok {
		return rel
	}
	return p.requested
}

// canonicalize resolves p one segment at a time the way the kernel does:
// a symlink is replaced by its target before later segments are applied, so
// ".." steps out of the real directory a link points to. Once a segment is
// missing the rest is appended lexically. A dangling symlink is followed to
// its target so the check is made against where a write would land.
func canonicalize(p string) (string, error) {
	if !filepath.IsAbs(p) {
		abs, err := filepath.Abs(p)
		if err != nil {
			return "", err
		}
		p = abs
	}

	sep := string(filepath.Separator)
	cur := sep
	pending := splitSegments(p)
	hops := 0

	for len(pending) > 0 {
		seg := pending[0]
		pending = pending[1:]

		switch seg {
		case ".":
			continue
		case "..":
			cur = filepath.Dir(cur)
			continue
		}

		next := filepath.Join(cur, seg)
		info, err := os.Lstat(next)
		if errors.Is(err, fs.ErrNotExist) || errors.Is(err, syscall.ENOTDIR) {
			return filepath.Join(append([]string{next}, pending...)...), nil
		}
		if err != nil {
			return "", err
		}

		if info.Mode()&fs.ModeSymlink == 0 {
			cur = next
			continue
		}

		hops++
		if hops > maxLinkHops {
			return "", &fs.PathError{Op: "resolve", Path: p, Err: syscall.ELOOP}
		}
		target, err := os.Readlink(next)
		if err != nil {
			return "", err
		}
		if filepath.IsAbs(target) {
			cur = sep
		}
		pending = append(splitSegments(target), pending...)
	}
	return cur, nil
}

// canonicalizeParent canonicalizes everything but the final segment of p,
// which names the entry itself. A final "." or ".." names a directory and
// is resolved in full.
func canonicalizeParent(p string) (string, error) {
	trimmed := strings.TrimRight(p, string(filepath.Separator))
	if trimmed == "" {
		return canonicalize(p)
	}
	dir, base := filepath.Split(trimmed)
	if base == "." || base == ".." || dir == "" {
		return canonicalize(trimmed)
	}
	parent, err := canonicalize(dir)
	if err != nil {
		return "", err
	}
	return filepath.Join(parent, base), nil
}

// splitSegments splits p on the separator, dropping empty segments
func splitSegments(p string) []string {
	parts := strings.Split(p, string(filepath.Separator))
	segs := parts[:0]
	for _, part := range parts {
		if part != "" {
			segs = append(segs, part)
		}
	}
	return segs
}

// within reports whether path is root or below it, comparing whole path
// segments so "/ws-evil" is not inside "/ws"
func within(root, path string) (string, bool) {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return "", false
	}
	if rel == "." {
		return rel, true
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) || filepath.IsAbs(rel) {
		return "", false
	}
	return rel, true
}

func stripPath(err error) error {
	var pathErr *fs.PathError
	if errors.As(err, &pathErr) {
		return pathErr.Err
	}
	return err
}
