package fsclient

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"unicode/utf8"

	"github.com/GriffinCanCode/AgentOS/tinyfs/internal/confirm"
	"github.com/GriffinCanCode/AgentOS/tinyfs/internal/shared/fserr"
	"github.com/GriffinCanCode/AgentOS/tinyfs/internal/shared/types"
	"github.com/GriffinCanCode/AgentOS/tinyfs/internal/workspace"
)

const (
	filePerm = 0o644
	dirPerm  = 0o755

	// previewRunes is how much of the content a write confirmation shows
	previewRunes = 100
)

// Read returns the content of a UTF-8 text file
func (c *Client) Read(ctx context.Context, path string) (string, error) {
	a := c.begin(types.OpRead, path)
	if err := requireFilePath("read", path); err != nil {
		return "", c.finish(a, err)
	}

	p, err := c.resolve(a, path)
	if err != nil {
		return "", c.finish(a, err)
	}

	info, err := os.Stat(p.Abs())
	if err != nil {
		return "", c.finish(a, fserr.FromOS("read", p.Rel(), err))
	}
	switch {
	case info.IsDir():
		return "", c.finish(a, fserr.New(fserr.KindIsADirectory, "read", p.Rel(), nil))
	case !info.Mode().IsRegular():
		return "", c.finish(a, fserr.Validationf("read", p.Rel(), "not a regular file"))
	}

	data, err := os.ReadFile(p.Abs())
	if err != nil {
		return "", c.finish(a, fserr.FromOS("read", p.Rel(), err))
	}
	if !utf8.Valid(data) {
		return "", c.finish(a, fserr.Validationf("read", p.Rel(), "file is not valid UTF-8 text"))
	}
	return string(data), c.finish(a, nil)
}

// Write creates or replaces a file, creating missing parent directories.
// With confirm set and auto-confirm off, the approver must agree first.
func (c *Client) Write(ctx context.Context, path, content string, confirmFlag bool) error {
	a := c.begin(types.OpWrite, path)
	if err := requireFilePath("write", path); err != nil {
		return c.finish(a, err)
	}

	p, err := c.resolve(a, path)
	if err != nil {
		return c.finish(a, err)
	}
	if info, err := os.Stat(p.Abs()); err == nil && info.IsDir() {
		return c.finish(a, fserr.New(fserr.KindIsADirectory, "write", p.Rel(), nil))
	}

	req := confirm.Request{Op: types.OpWrite, Paths: []string{p.Rel()}, Detail: writePreview(content)}
	if err := c.authorize(ctx, a, req, confirmFlag); err != nil {
		return c.finish(a, err)
	}

	if err := c.ensureParent(a, "write", p); err != nil {
		return c.finish(a, err)
	}
	if err := c.revalidate(a, p); err != nil {
		return c.finish(a, err)
	}
	if err := os.WriteFile(p.Abs(), []byte(content), filePerm); err != nil {
		return c.finish(a, fserr.FromOS("write", p.Rel(), err))
	}
	return c.finish(a, nil)
}

// Delete removes a file, a symlink or an empty directory. A symlink is
// removed itself; its target is left alone.
func (c *Client) Delete(ctx context.Context, path string, confirmFlag bool) error {
	a := c.begin(types.OpDelete, path)

	p, err := c.resolveNoFollow(a, path)
	if err != nil {
		return c.finish(a, err)
	}
	if p.IsRoot() {
		return c.finish(a, fserr.Validationf("delete", ".", "cannot delete the workspace root"))
	}

	info, err := os.Lstat(p.Abs())
	if err != nil {
		return c.finish(a, fserr.FromOS("delete", p.Rel(), err))
	}
	if info.IsDir() {
		empty, err := isEmptyDir(p.Abs())
		if err != nil {
			return c.finish(a, fserr.FromOS("delete", p.Rel(), err))
		}
		if !empty {
			return c.finish(a, fserr.Validationf("delete", p.Rel(), "directory is not empty"))
		}
	}

	req := confirm.Request{Op: types.OpDelete, Paths: []string{p.Rel()}, Detail: describeEntry(info)}
	if err := c.authorize(ctx, a, req, confirmFlag); err != nil {
		return c.finish(a, err)
	}

	if err := c.revalidate(a, p); err != nil {
		return c.finish(a, err)
	}
	if err := os.Remove(p.Abs()); err != nil {
		return c.finish(a, fserr.FromOS("delete", p.Rel(), err))
	}
	return c.finish(a, nil)
}

// Exists reports whether path names anything. Absence is not an error;
// only a path outside the workspace fails.
func (c *Client) Exists(ctx context.Context, path string) (bool, error) {
	return c.probe(path, func(fs.FileInfo) bool { return true })
}

// IsFile reports whether path is a regular file
func (c *Client) IsFile(ctx context.Context, path string) (bool, error) {
	return c.probe(path, func(info fs.FileInfo) bool { return info.Mode().IsRegular() })
}

// IsDirectory reports whether path is a directory
func (c *Client) IsDirectory(ctx context.Context, path string) (bool, error) {
	return c.probe(path, func(info fs.FileInfo) bool { return info.IsDir() })
}

func (c *Client) probe(path string, match func(fs.FileInfo) bool) (bool, error) {
	a := c.begin(types.OpExists, path)

	p, err := c.resolve(a, path)
	if err != nil {
		return false, c.finish(a, err)
	}
	info, err := os.Stat(p.Abs())
	if err != nil {
		return false, c.finish(a, nil)
	}
	return match(info), c.finish(a, nil)
}

// ensureParent creates the parent directories of p one checked segment at
// a time
func (c *Client) ensureParent(a *action, op string, p workspace.ResolvedPath) error {
	parent, err := c.resolve(a, filepath.Dir(p.Abs()))
	if err != nil {
		return err
	}
	if err := c.guard.MkdirAll(parent, dirPerm); err != nil {
		c.noteViolation(a, err)
		var fe *fserr.Error
		if errors.As(err, &fe) && fe.Op == "mkdir" {
			fe.Op = op
		}
		return err
	}
	return nil
}

// requireFilePath rejects an empty path for operations that need a file
func requireFilePath(op, path string) error {
	if path == "" {
		return fserr.Validationf(op, "", "a file path is required")
	}
	return nil
}

func isEmptyDir(path string) (bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return false, err
	}
	defer f.Close()

	_, err = f.Readdirnames(1)
	if errors.Is(err, io.EOF) {
		return true, nil
	}
	return false, err
}

func writePreview(content string) string {
	preview := content
	truncated := false
	if utf8.RuneCountInString(content) > previewRunes {
		runes := []rune(content)
		preview = string(runes[:previewRunes])
		truncated = true
	}
	if truncated {
		preview += "..."
	}
	return fmt.Sprintf("%d bytes\n%s", len(content), preview)
}

func describeEntry(info fs.FileInfo) string {
	switch {
	case info.IsDir():
		return "empty directory"
	case info.Mode()&fs.ModeSymlink != 0:
		return "symbolic link"
	default:
		return fmt.Sprintf("file, %d bytes", info.Size())
	}
}
