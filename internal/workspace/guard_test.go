package workspace

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/AgentOS/tinyfs/internal/shared/fserr"
)

// newTestGuard returns a guard over a fresh workspace plus a sibling
// directory outside of it
func newTestGuard(t *testing.T) (*Guard, string) {
	t.Helper()
	base := t.TempDir()
	ws := filepath.Join(base, "ws")
	outside := filepath.Join(base, "outside")
	require.NoError(t, os.Mkdir(ws, 0o755))
	require.NoError(t, os.Mkdir(outside, 0o755))

	g, err := NewGuard(ws)
	require.NoError(t, err)
	outsideReal, err := filepath.EvalSymlinks(outside)
	require.NoError(t, err)
	return g, outsideReal
}

func TestNewGuard(t *testing.T) {
	t.Run("missing root", func(t *testing.T) {
		_, err := NewGuard(filepath.Join(t.TempDir(), "nope"))
		assert.True(t, errors.Is(err, fserr.ErrNotFound))
	})

	t.Run("root is a file", func(t *testing.T) {
		file := filepath.Join(t.TempDir(), "f")
		require.NoError(t, os.WriteFile(file, nil, 0o644))
		_, err := NewGuard(file)
		assert.True(t, errors.Is(err, fserr.ErrNotADirectory))
	})

	t.Run("empty root", func(t *testing.T) {
		_, err := NewGuard("")
		assert.True(t, errors.Is(err, fserr.ErrValidation))
	})

	t.Run("root is canonical", func(t *testing.T) {
		base := t.TempDir()
		real := filepath.Join(base, "real")
		require.NoError(t, os.Mkdir(real, 0o755))
		link := filepath.Join(base, "link")
		require.NoError(t, os.Symlink(real, link))

		g, err := NewGuard(link)
		require.NoError(t, err)
		want, _ := filepath.EvalSymlinks(real)
		assert.Equal(t, want, g.Root())
	})
}

func TestResolveInside(t *testing.T) {
	g, _ := newTestGuard(t)
	require.NoError(t, os.MkdirAll(filepath.Join(g.Root(), "a", "b"), 0o755))

	tests := []struct {
		name    string
		input   string
		wantRel string
	}{
		{"empty is root", "", "."},
		{"dot is root", ".", "."},
		{"relative file", "a/b/c.txt", filepath.Join("a", "b", "c.txt")},
		{"dotdot that stays inside", "a/b/../c.txt", filepath.Join("a", "c.txt")},
		{"missing intermediate dirs", "x/y/z.txt", filepath.Join("x", "y", "z.txt")},
		{"absolute inside", filepath.Join(g.Root(), "a"), "a"},
		{"absolute root", g.Root(), "."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := g.Resolve(tt.input)
			require.NoError(t, err)
			assert.True(t, p.Inside())
			assert.Equal(t, tt.wantRel, p.Rel())
			assert.Equal(t, filepath.Join(g.Root(), tt.wantRel), p.Abs())
			assert.Equal(t, tt.input, p.Requested())
		})
	}
}

func TestResolveOutside(t *testing.T) {
	g, outside := newTestGuard(t)

	require.NoError(t, os.Symlink(outside, filepath.Join(g.Root(), "escape")))
	require.NoError(t, os.Symlink(filepath.Join(outside, "not-yet"), filepath.Join(g.Root(), "dangling")))
	require.NoError(t, os.Symlink("../outside/file.txt", filepath.Join(g.Root(), "relative-escape")))

	tests := []struct {
		name  string
		input string
	}{
		{"parent", ".."},
		{"sibling via dotdot", "../secret.txt"},
		{"dotdot after valid segments", "a/b/../../../secret.txt"},
		{"absolute escape", "/etc/passwd"},
		{"absolute sibling", outside},
		{"string prefix sibling", g.Root() + "-evil/x"},
		{"symlink to outside dir", "escape/file.txt"},
		{"dangling symlink to outside", "dangling"},
		{"relative symlink escape", "relative-escape"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := g.Resolve(tt.input)
			require.Error(t, err)
			assert.True(t, errors.Is(err, fserr.ErrSecurityViolation))

			var sv *fserr.SecurityViolation
			require.True(t, errors.As(err, &sv))
			assert.Equal(t, tt.input, sv.AttemptedPath)
			assert.Equal(t, g.Root(), sv.WorkspaceRoot)

			p, err := g.Inspect(tt.input)
			require.NoError(t, err)
			assert.False(t, p.Inside())
			assert.Empty(t, p.Rel())
		})
	}
}

func TestResolveSymlinkInsideWorkspace(t *testing.T) {
	g, _ := newTestGuard(t)
	require.NoError(t, os.Mkdir(filepath.Join(g.Root(), "real"), 0o755))
	require.NoError(t, os.Symlink("real", filepath.Join(g.Root(), "alias")))

	p, err := g.Resolve("alias/new.txt")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("real", "new.txt"), p.Rel())
}

func TestResolveDotDotAfterSymlink(t *testing.T) {
	g, outside := newTestGuard(t)
	require.NoError(t, os.MkdirAll(filepath.Join(g.Root(), "a", "b"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(g.Root(), "a", "f"), []byte("kernel"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(g.Root(), "f"), []byte("lexical"), 0o644))
	require.NoError(t, os.Symlink(filepath.Join(g.Root(), "a", "b"), filepath.Join(g.Root(), "lnk")))

	p, err := g.Resolve("lnk/../f")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("a", "f"), p.Rel())

	want, err := os.ReadFile(filepath.Join(g.Root(), "lnk", "..", "f"))
	require.NoError(t, err)
	got, err := os.ReadFile(p.Abs())
	require.NoError(t, err)
	assert.Equal(t, string(want), string(got))

	t.Run("no-follow resolves the parent the same way", func(t *testing.T) {
		p, err := g.ResolveNoFollow("lnk/../f")
		require.NoError(t, err)
		assert.Equal(t, filepath.Join("a", "f"), p.Rel())
		assert.NoError(t, g.Revalidate(p))
	})

	t.Run("dotdot through a link can escape", func(t *testing.T) {
		require.NoError(t, os.Mkdir(filepath.Join(outside, "inner"), 0o755))
		require.NoError(t, os.Symlink(filepath.Join(outside, "inner"), filepath.Join(g.Root(), "out")))

		_, err := g.Resolve("out/../x")
		assert.True(t, errors.Is(err, fserr.ErrSecurityViolation))
	})
}

func TestResolveRejectsNUL(t *testing.T) {
	g, _ := newTestGuard(t)

	_, err := g.Resolve("a\x00b")
	assert.True(t, errors.Is(err, fserr.ErrValidation))
}

func TestResolveSymlinkLoop(t *testing.T) {
	g, _ := newTestGuard(t)
	require.NoError(t, os.Symlink("b", filepath.Join(g.Root(), "a")))
	require.NoError(t, os.Symlink("a", filepath.Join(g.Root(), "b")))

	_, err := g.Resolve("a/x")
	assert.True(t, errors.Is(err, fserr.ErrValidation))
}

func TestRevalidateDetectsSwappedSymlink(t *testing.T) {
	g, outside := newTestGuard(t)
	dir := filepath.Join(g.Root(), "dir")
	require.NoError(t, os.Mkdir(dir, 0o755))

	p, err := g.Resolve("dir/file.txt")
	require.NoError(t, err)
	require.NoError(t, g.Revalidate(p))

	require.NoError(t, os.Remove(dir))
	require.NoError(t, os.Symlink(outside, dir))

	err = g.Revalidate(p)
	assert.True(t, errors.Is(err, fserr.ErrSecurityViolation))
}

func TestMkdirAll(t *testing.T) {
	g, outside := newTestGuard(t)

	t.Run("creates nested parents", func(t *testing.T) {
		p, err := g.Resolve("one/two/three")
		require.NoError(t, err)
		require.NoError(t, g.MkdirAll(p, 0o755))

		info, err := os.Stat(filepath.Join(g.Root(), "one", "two", "three"))
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	})

	t.Run("root is a no-op", func(t *testing.T) {
		p, err := g.Resolve("")
		require.NoError(t, err)
		assert.NoError(t, g.MkdirAll(p, 0o755))
	})

	t.Run("file in the way", func(t *testing.T) {
		require.NoError(t, os.WriteFile(filepath.Join(g.Root(), "blocker"), nil, 0o644))
		p, err := g.Resolve("blocker/child")
		require.NoError(t, err)
		assert.True(t, errors.Is(g.MkdirAll(p, 0o755), fserr.ErrNotADirectory))
	})

	t.Run("segment swapped for escaping symlink", func(t *testing.T) {
		p, err := g.Resolve("tunnel/deeper")
		require.NoError(t, err)
		require.NoError(t, os.Symlink(outside, filepath.Join(g.Root(), "tunnel")))

		err = g.MkdirAll(p, 0o755)
		assert.True(t, errors.Is(err, fserr.ErrSecurityViolation))
		_, statErr := os.Stat(filepath.Join(outside, "deeper"))
		assert.True(t, os.IsNotExist(statErr), "nothing may be created outside the workspace")
	})
}

func TestChild(t *testing.T) {
	g, _ := newTestGuard(t)
	root, err := g.Resolve(".")
	require.NoError(t, err)

	c := g.Child(root, "file.txt")
	assert.True(t, c.Inside())
	assert.Equal(t, "file.txt", c.Rel())
	assert.Equal(t, filepath.Join(g.Root(), "file.txt"), c.Abs())
}

func TestWithin(t *testing.T) {
	tests := []struct {
		root, path string
		want       bool
	}{
		{"/ws", "/ws", true},
		{"/ws", "/ws/a", true},
		{"/ws", "/ws/a/../b", true},
		{"/ws", "/ws-evil", false},
		{"/ws", "/ws-evil/a", false},
		{"/ws", "/", false},
		{"/ws", "/other/ws", false},
		{"/ws", "/ws/..a", true},
	}

	for _, tt := range tests {
		_, got := within(tt.root, tt.path)
		assert.Equal(t, tt.want, got, "within(%q, %q)", tt.root, tt.path)
	}
}

func TestResolveNoFollow(t *testing.T) {
	g, outside := newTestGuard(t)
	require.NoError(t, os.WriteFile(filepath.Join(g.Root(), "target.txt"), nil, 0o644))
	require.NoError(t, os.Symlink("target.txt", filepath.Join(g.Root(), "link")))
	require.NoError(t, os.Symlink(outside, filepath.Join(g.Root(), "escape")))

	t.Run("names the link itself", func(t *testing.T) {
		p, err := g.ResolveNoFollow("link")
		require.NoError(t, err)
		assert.Equal(t, "link", p.Rel())
		assert.NoError(t, g.Revalidate(p))

		followed, err := g.Resolve("link")
		require.NoError(t, err)
		assert.Equal(t, "target.txt", followed.Rel())
	})

	t.Run("link to outside is still a violation", func(t *testing.T) {
		_, err := g.ResolveNoFollow("escape")
		assert.True(t, errors.Is(err, fserr.ErrSecurityViolation))
	})

	t.Run("dotdot escape", func(t *testing.T) {
		_, err := g.ResolveNoFollow("../x")
		assert.True(t, errors.Is(err, fserr.ErrSecurityViolation))
	})

	t.Run("parent swapped after resolution", func(t *testing.T) {
		require.NoError(t, os.Mkdir(filepath.Join(g.Root(), "sub"), 0o755))
		require.NoError(t, os.WriteFile(filepath.Join(g.Root(), "sub", "f"), nil, 0o644))
		p, err := g.ResolveNoFollow("sub/f")
		require.NoError(t, err)

		require.NoError(t, os.RemoveAll(filepath.Join(g.Root(), "sub")))
		require.NoError(t, os.Symlink(outside, filepath.Join(g.Root(), "sub")))
		assert.True(t, errors.Is(g.Revalidate(p), fserr.ErrSecurityViolation))
	})
}
