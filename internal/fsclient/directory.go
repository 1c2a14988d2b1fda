package fsclient

import (
	"context"
	"io/fs"
	"os"

	"github.com/GriffinCanCode/AgentOS/tinyfs/internal/confirm"
	"github.com/GriffinCanCode/AgentOS/tinyfs/internal/shared/fserr"
	"github.com/GriffinCanCode/AgentOS/tinyfs/internal/shared/types"
	"github.com/GriffinCanCode/AgentOS/tinyfs/internal/workspace"
)

// ListDirectory returns the entries of a directory sorted by name. "" and
// "." list the workspace root. Symlinks are reported as links; their target
// is described only when it lies inside the workspace.
func (c *Client) ListDirectory(ctx context.Context, path string) ([]FileInfo, error) {
	a := c.begin(types.OpList, path)

	p, err := c.resolve(a, path)
	if err != nil {
		return nil, c.finish(a, err)
	}
	info, err := os.Stat(p.Abs())
	if err != nil {
		return nil, c.finish(a, fserr.FromOS("list", p.Rel(), err))
	}
	if !info.IsDir() {
		return nil, c.finish(a, fserr.New(fserr.KindNotADirectory, "list", p.Rel(), nil))
	}

	entries, err := os.ReadDir(p.Abs())
	if err != nil {
		return nil, c.finish(a, fserr.FromOS("list", p.Rel(), err))
	}

	out := make([]FileInfo, 0, len(entries))
	for _, entry := range entries {
		child := c.guard.Child(p, entry.Name())
		info, err := entry.Info()
		if err != nil {
			// removed since ReadDir
			continue
		}
		out = append(out, c.describeChild(child, info))
	}
	return out, c.finish(a, nil)
}

// describeChild builds the FileInfo of a listed entry, following a symlink
// only when its target stays inside the workspace
func (c *Client) describeChild(child workspace.ResolvedPath, info fs.FileInfo) FileInfo {
	fi := newFileInfo(child, info)
	if !fi.IsSymlink || !c.guard.Contains(child.Abs()) {
		return fi
	}
	if target, err := os.Stat(child.Abs()); err == nil {
		fi.IsDir = target.IsDir()
		fi.Size = target.Size()
		if fi.IsDir {
			fi.Extension = ""
		}
	}
	return fi
}

// CreateDirectory creates path and any missing parents. An existing
// directory is success and does not need confirmation.
func (c *Client) CreateDirectory(ctx context.Context, path string, confirmFlag bool) error {
	a := c.begin(types.OpMkdir, path)

	p, err := c.resolve(a, path)
	if err != nil {
		return c.finish(a, err)
	}
	if info, err := os.Stat(p.Abs()); err == nil {
		if info.IsDir() {
			return c.finish(a, nil)
		}
		return c.finish(a, fserr.New(fserr.KindAlreadyExists, "mkdir", p.Rel(), nil))
	}

	req := confirm.Request{Op: types.OpMkdir, Paths: []string{p.Rel()}}
	if err := c.authorize(ctx, a, req, confirmFlag); err != nil {
		return c.finish(a, err)
	}

	if err := c.guard.MkdirAll(p, dirPerm); err != nil {
		c.noteViolation(a, err)
		return c.finish(a, err)
	}
	return c.finish(a, nil)
}
