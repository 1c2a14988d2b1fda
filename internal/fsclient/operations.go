package fsclient

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"syscall"

	"github.com/GriffinCanCode/AgentOS/tinyfs/internal/confirm"
	"github.com/GriffinCanCode/AgentOS/tinyfs/internal/shared/fserr"
	"github.com/GriffinCanCode/AgentOS/tinyfs/internal/shared/types"
	"github.com/GriffinCanCode/AgentOS/tinyfs/internal/workspace"
)

// Copy copies the regular file src to dst, keeping its mode and
// modification time. If dst is an existing directory the file is copied
// into it. An existing destination file is replaced.
func (c *Client) Copy(ctx context.Context, src, dst string, confirmFlag bool) error {
	a := c.begin(types.OpCopy, src, dst)
	if err := requireFilePath("copy", src); err != nil {
		return c.finish(a, err)
	}

	sp, err := c.resolve(a, src)
	if err != nil {
		return c.finish(a, err)
	}
	dp, err := c.resolve(a, dst)
	if err != nil {
		return c.finish(a, err)
	}

	info, err := c.sourceFile("copy", sp, os.Stat)
	if err != nil {
		return c.finish(a, err)
	}
	if dp, err = c.destination(a, "copy", sp, dp); err != nil {
		return c.finish(a, err)
	}

	req := confirm.Request{
		Op:     types.OpCopy,
		Paths:  []string{sp.Rel(), dp.Rel()},
		Detail: fmt.Sprintf("%d bytes", info.Size()),
	}
	if err := c.authorize(ctx, a, req, confirmFlag); err != nil {
		return c.finish(a, err)
	}

	if err := c.ensureParent(a, "copy", dp); err != nil {
		return c.finish(a, err)
	}
	if err := c.revalidate(a, sp, dp); err != nil {
		return c.finish(a, err)
	}
	if err := copyFile(sp.Abs(), dp.Abs(), info); err != nil {
		return c.finish(a, fserr.FromOS("copy", dp.Rel(), err))
	}
	return c.finish(a, nil)
}

// Move renames src to dst. A symlink source is moved as a link, and is
// refused if its target would then lie outside the workspace. If dst is
// an existing directory the file is moved into it. Moves across
// filesystems fall back to copy and delete.
func (c *Client) Move(ctx context.Context, src, dst string, confirmFlag bool) error {
	a := c.begin(types.OpMove, src, dst)
	if err := requireFilePath("move", src); err != nil {
		return c.finish(a, err)
	}

	sp, err := c.resolveNoFollow(a, src)
	if err != nil {
		return c.finish(a, err)
	}
	dp, err := c.resolve(a, dst)
	if err != nil {
		return c.finish(a, err)
	}

	info, err := c.sourceFile("move", sp, os.Lstat)
	if err != nil {
		return c.finish(a, err)
	}
	if dp, err = c.destination(a, "move", sp, dp); err != nil {
		return c.finish(a, err)
	}
	if info.Mode()&fs.ModeSymlink != 0 {
		if err := c.checkRelocatedLink(a, sp, dp, dst); err != nil {
			return c.finish(a, err)
		}
	}

	req := confirm.Request{Op: types.OpMove, Paths: []string{sp.Rel(), dp.Rel()}, Detail: describeEntry(info)}
	if err := c.authorize(ctx, a, req, confirmFlag); err != nil {
		return c.finish(a, err)
	}

	if err := c.ensureParent(a, "move", dp); err != nil {
		return c.finish(a, err)
	}
	if err := c.revalidate(a, sp, dp); err != nil {
		return c.finish(a, err)
	}

	err = os.Rename(sp.Abs(), dp.Abs())
	if errors.Is(err, syscall.EXDEV) && info.Mode().IsRegular() {
		if err = copyFile(sp.Abs(), dp.Abs(), info); err == nil {
			err = os.Remove(sp.Abs())
		}
	}
	if err != nil {
		return c.finish(a, fserr.FromOS("move", dp.Rel(), err))
	}
	return c.finish(a, nil)
}

// checkRelocatedLink fails when the symlink sp, once moved to dp, would
// point outside the workspace. A relative target is reinterpreted against
// the new parent directory.
func (c *Client) checkRelocatedLink(a *action, sp, dp workspace.ResolvedPath, dst string) error {
	target, err := os.Readlink(sp.Abs())
	if err != nil {
		return fserr.FromOS("move", sp.Rel(), err)
	}
	if !filepath.IsAbs(target) {
		target = filepath.Dir(dp.Abs()) + string(filepath.Separator) + target
	}
	if c.guard.Contains(target) {
		return nil
	}
	err = &fserr.SecurityViolation{AttemptedPath: dst, WorkspaceRoot: c.guard.Root()}
	c.noteViolation(a, err)
	return err
}

// sourceFile checks that p exists and is a regular file (or, for stat ==
// os.Lstat, a symlink)
func (c *Client) sourceFile(op string, p workspace.ResolvedPath, stat func(string) (fs.FileInfo, error)) (fs.FileInfo, error) {
	info, err := stat(p.Abs())
	if err != nil {
		return nil, fserr.FromOS(op, p.Rel(), err)
	}
	switch {
	case info.IsDir():
		return nil, fserr.New(fserr.KindIsADirectory, op, p.Rel(), nil)
	case info.Mode().IsRegular(), info.Mode()&fs.ModeSymlink != 0:
		return info, nil
	default:
		return nil, fserr.Validationf(op, p.Rel(), "not a regular file")
	}
}

// destination redirects dp into itself when it is an existing directory and
// rejects copying a file onto itself
func (c *Client) destination(a *action, op string, sp, dp workspace.ResolvedPath) (workspace.ResolvedPath, error) {
	if info, err := os.Stat(dp.Abs()); err == nil && info.IsDir() {
		into, err := c.resolve(a, filepath.Join(dp.Abs(), filepath.Base(sp.Abs())))
		if err != nil {
			return workspace.ResolvedPath{}, err
		}
		dp = into
	}
	if dp.Abs() == sp.Abs() {
		return workspace.ResolvedPath{}, fserr.Validationf(op, dp.Rel(), "source and destination are the same file")
	}
	if info, err := os.Stat(dp.Abs()); err == nil && info.IsDir() {
		return workspace.ResolvedPath{}, fserr.New(fserr.KindIsADirectory, op, dp.Rel(), nil)
	}
	return dp, nil
}

// copyFile writes src to a temporary file beside dst and renames it into
// place, so dst is never left half written
func copyFile(src, dst string, info fs.FileInfo) (err error) {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	tmp, err := os.CreateTemp(filepath.Dir(dst), ".tinyfs-copy-*")
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			os.Remove(tmp.Name())
		}
	}()

	if _, err = io.Copy(tmp, in); err != nil {
		tmp.Close()
		return err
	}
	if err = tmp.Close(); err != nil {
		return err
	}
	if err = os.Chmod(tmp.Name(), info.Mode().Perm()); err != nil {
		return err
	}
	if err = os.Chtimes(tmp.Name(), info.ModTime(), info.ModTime()); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), dst)
}
